// Package headers validates strings that will end up in HTTP header
// values or proxy URLs, rejecting CR/LF to prevent header injection.
package headers

import (
	"errors"
	"strings"
)

// ErrInjection is returned for any string containing a bare CR or LF.
var ErrInjection = errors.New("headers: value contains CR or LF")

// Validate rejects s if it contains a carriage return or line feed.
func Validate(s string) error {
	if strings.ContainsAny(s, "\r\n") {
		return ErrInjection
	}
	return nil
}

// Header is one "Name: value" pair.
type Header struct {
	Name  string
	Value string
}

// ValidateHeader validates both the name and value of h.
func ValidateHeader(h Header) error {
	if err := Validate(h.Name); err != nil {
		return err
	}
	return Validate(h.Value)
}
