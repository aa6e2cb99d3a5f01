package sds

import (
	"bytes"
	"errors"
	"strconv"
)

// ErrNotInteger is returned when the content is not a base-10 signed 64-bit integer.
var ErrNotInteger = errors.New("sds: value is not an integer or out of range")

// maxInt64Digits bounds the parse input: "-9223372036854775808" is 20 bytes.
const maxInt64Digits = 20

// minReuseCap is the capacity up to which Replace always reuses the buffer.
const minReuseCap = 64

// String is an owned byte buffer with explicit length.
type String struct {
	buf []byte
}

// New creates a String holding a private copy of b.
func New(b []byte) *String {
	s := &String{buf: make([]byte, len(b))}
	copy(s.buf, b)
	return s
}

// FromInt64 creates a String holding the decimal form of n.
func FromInt64(n int64) *String {
	return &String{buf: strconv.AppendInt(nil, n, 10)}
}

// Len returns the number of bytes held.
func (s *String) Len() int {
	if s == nil {
		return 0
	}
	return len(s.buf)
}

// Bytes returns a read-only view of the content.
// The slice must not be modified and is only valid until the next Replace.
func (s *String) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.buf
}

// Clone returns a copy of the content that the caller owns.
func (s *String) Clone() []byte {
	out := make([]byte, s.Len())
	copy(out, s.Bytes())
	return out
}

// Replace swaps the content for a copy of b.
// The existing allocation is reused when it fits b without being more than
// twice its size, so shrinking a large value releases the old buffer.
func (s *String) Replace(b []byte) {
	if c := cap(s.buf); c >= len(b) && (c <= minReuseCap || c <= 2*len(b)) {
		s.buf = s.buf[:len(b)]
	} else {
		s.buf = make([]byte, len(b))
	}
	copy(s.buf, b)
}

// Equal reports whether the content equals b.
func (s *String) Equal(b []byte) bool {
	return bytes.Equal(s.Bytes(), b)
}

// String returns the content as a Go string. Intended for logs and tests.
func (s *String) String() string {
	return string(s.Bytes())
}

// Int64 parses the content as a base-10 signed integer.
//
// Leading '+', surrounding whitespace, empty content and values outside the
// int64 range are all rejected with ErrNotInteger.
func (s *String) Int64() (int64, error) {
	b := s.Bytes()
	if len(b) == 0 || len(b) > maxInt64Digits || b[0] == '+' {
		return 0, ErrNotInteger
	}
	// "-0" and leading zeros would not survive a round trip through FromInt64.
	if len(b) > 1 && b[0] == '0' {
		return 0, ErrNotInteger
	}
	if len(b) > 1 && b[0] == '-' && b[1] == '0' {
		return 0, ErrNotInteger
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	return n, nil
}
