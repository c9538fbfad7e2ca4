package buffer

import "testing"

func TestAppendGrows(t *testing.T) {
	b := New(0)
	if err := b.Append([]byte("hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.Append([]byte(" world")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := string(b.Bytes()); got != "hello world" {
		t.Fatalf("got %q", got)
	}
}

func TestAppendRespectsMaxCap(t *testing.T) {
	b := New(8)
	if err := b.Append([]byte("1234")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.Append([]byte("56789")); err == nil {
		t.Fatalf("expected cap error")
	}
	if !b.Failed() {
		t.Fatalf("expected sticky failure")
	}
	if b.Len() != 4 {
		t.Fatalf("overflowing append must not mutate, got len %d", b.Len())
	}
}

func TestFailureIsSticky(t *testing.T) {
	b := New(4)
	if err := b.Append([]byte("12345")); err == nil {
		t.Fatalf("expected failure")
	}
	if err := b.Append([]byte("x")); err != ErrCapExceeded {
		t.Fatalf("expected sticky ErrCapExceeded, got %v", err)
	}
}

func TestReset(t *testing.T) {
	b := New(4)
	_ = b.Append([]byte("12345"))
	b.Reset()
	if b.Failed() || b.Len() != 0 {
		t.Fatalf("reset did not clear state")
	}
	if err := b.Append([]byte("ab")); err != nil {
		t.Fatalf("unexpected error after reset: %v", err)
	}
}
