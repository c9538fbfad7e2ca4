package headers

import (
	"errors"
	"testing"
)

func TestValidateRejectsCRLF(t *testing.T) {
	cases := []string{"bad\r\nvalue", "bad\nvalue", "bad\rvalue"}
	for _, c := range cases {
		if err := Validate(c); !errors.Is(err, ErrInjection) {
			t.Fatalf("Validate(%q) = %v, want ErrInjection", c, err)
		}
	}
}

func TestValidateAcceptsCleanInput(t *testing.T) {
	if err := Validate("Bearer sk-clean-token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
