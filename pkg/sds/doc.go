// Package sds provides a length-tracked, binary-safe byte string.
//
// A String owns its bytes and never interprets them as text:
//
//   - Any byte value is legal, including NUL and CR/LF
//   - Length is explicit, there is no terminator
//   - Content changes only through Replace
//
// Numeric content is parsed by an explicit conversion (Int64) that fails
// with ErrNotInteger rather than truncating.
//
// Usage:
//
//	s := sds.New([]byte("41"))
//	n, err := s.Int64()
//	if err == nil {
//		s.Replace(sds.FromInt64(n + 1).Bytes())
//	}
package sds
