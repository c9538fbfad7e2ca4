// Package buffer implements a growable byte buffer with an optional hard
// capacity ceiling and sticky allocation-failure semantics.
package buffer

import "errors"

// ErrCapExceeded is returned when an append would exceed MaxCap.
var ErrCapExceeded = errors.New("buffer: append exceeds max capacity")

// Buffer is an appending byte buffer. MaxCap of 0 means unbounded. Once an
// append fails (capacity exceeded), the buffer is marked failed and every
// subsequent append fails without mutating data, matching the growable
// buffer's sticky allocation-failure contract.
type Buffer struct {
	data   []byte
	MaxCap int
	failed bool
}

// New returns a Buffer with the given hard cap (0 = unbounded).
func New(maxCap int) *Buffer {
	return &Buffer{MaxCap: maxCap}
}

// Failed reports whether a prior append has permanently failed this buffer.
func (b *Buffer) Failed() bool { return b.failed }

// Len returns the number of bytes currently held.
func (b *Buffer) Len() int { return len(b.data) }

// Bytes returns the buffer's contents. The returned slice aliases internal
// storage and must not be retained past the next mutating call.
func (b *Buffer) Bytes() []byte { return b.data }

// Append grows the buffer by p, doubling capacity as needed. If MaxCap is
// set and the resulting length would exceed it, the append fails, the
// buffer is left unmodified, and the buffer becomes sticky-failed.
func (b *Buffer) Append(p []byte) error {
	if b.failed {
		return ErrCapExceeded
	}
	if len(p) == 0 {
		return nil
	}
	if b.MaxCap > 0 && len(b.data)+len(p) > b.MaxCap {
		b.failed = true
		return ErrCapExceeded
	}
	b.data = append(b.data, p...)
	return nil
}

// Reset clears the buffer's contents and failure state, retaining MaxCap.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.failed = false
}
