package sds

import (
	"errors"
	"math"
	"strconv"
	"testing"
)

func TestNew_CopiesInput(t *testing.T) {
	src := []byte("hello")
	s := New(src)
	src[0] = 'j'

	if got := s.String(); got != "hello" {
		t.Errorf("String() = %q, want %q", got, "hello")
	}
	if s.Len() != 5 {
		t.Errorf("Len() = %d, want 5", s.Len())
	}
}

func TestNew_BinarySafe(t *testing.T) {
	payload := []byte("a\r\nb\x00c\r\n")
	s := New(payload)

	if s.Len() != len(payload) {
		t.Errorf("Len() = %d, want %d", s.Len(), len(payload))
	}
	if !s.Equal(payload) {
		t.Errorf("Bytes() = %q, want %q", s.Bytes(), payload)
	}
}

func TestNew_Empty(t *testing.T) {
	s := New(nil)
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if s.Bytes() == nil {
		t.Error("Bytes() of empty string should be non-nil")
	}
}

func TestNilString(t *testing.T) {
	var s *String
	if s.Len() != 0 {
		t.Errorf("nil Len() = %d, want 0", s.Len())
	}
	if s.Bytes() != nil {
		t.Errorf("nil Bytes() = %v, want nil", s.Bytes())
	}
}

func TestReplace(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		next    string
	}{
		{"shrink", "12345", "9"},
		{"grow", "1", "123456789"},
		{"same size", "abc", "xyz"},
		{"to empty", "abc", ""},
		{"with crlf", "x", "line1\r\nline2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New([]byte(tt.initial))
			next := []byte(tt.next)
			s.Replace(next)
			if len(next) > 0 {
				next[0] ^= 0xff
			}

			if got := s.String(); got != tt.next {
				t.Errorf("after Replace String() = %q, want %q", got, tt.next)
			}
			if s.Len() != len(tt.next) {
				t.Errorf("after Replace Len() = %d, want %d", s.Len(), len(tt.next))
			}
		})
	}
}

func TestReplace_Capacity(t *testing.T) {
	tests := []struct {
		name      string
		initial   int
		next      int
		reuse     bool
		maxCapAft int
	}{
		{"large to tiny releases", 64 << 20, 1, false, minReuseCap},
		{"large to half reuses", 1 << 20, 512 << 10, true, 1 << 20},
		{"large to third releases", 3 << 20, 1 << 20, false, 1 << 20},
		{"small buffer always reused", minReuseCap, 1, true, minReuseCap},
		{"same size reuses", 4096, 4096, true, 4096},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(make([]byte, tt.initial))
			before := &s.buf[0]

			s.Replace(make([]byte, tt.next))

			if s.Len() != tt.next {
				t.Fatalf("Len() = %d, want %d", s.Len(), tt.next)
			}
			if cap(s.buf) > tt.maxCapAft {
				t.Errorf("cap = %d after Replace, want <= %d", cap(s.buf), tt.maxCapAft)
			}
			if reused := &s.buf[0] == before; reused != tt.reuse {
				t.Errorf("buffer reused = %v, want %v", reused, tt.reuse)
			}
		})
	}
}

func TestClone(t *testing.T) {
	s := New([]byte("value"))
	c := s.Clone()
	c[0] = 'V'

	if s.String() != "value" {
		t.Errorf("Clone() aliased the buffer: %q", s.String())
	}
}

func TestFromInt64(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 42, math.MaxInt64, math.MinInt64} {
		if got, want := FromInt64(n).String(), strconv.FormatInt(n, 10); got != want {
			t.Errorf("FromInt64(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestInt64(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"0", 0, false},
		{"1", 1, false},
		{"-1", -1, false},
		{"12345", 12345, false},
		{"9223372036854775807", math.MaxInt64, false},
		{"-9223372036854775808", math.MinInt64, false},
		{"9223372036854775808", 0, true},
		{"", 0, true},
		{"abc", 0, true},
		{"12abc", 0, true},
		{" 1", 0, true},
		{"1 ", 0, true},
		{"+1", 0, true},
		{"01", 0, true},
		{"-0", 0, true},
		{"1.5", 0, true},
		{"1\r\n", 0, true},
		{"123456789012345678901", 0, true},
	}

	for _, tt := range tests {
		t.Run(strconv.Quote(tt.input), func(t *testing.T) {
			got, err := New([]byte(tt.input)).Int64()
			if tt.wantErr {
				if !errors.Is(err, ErrNotInteger) {
					t.Errorf("Int64() error = %v, want ErrNotInteger", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Int64() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Int64() = %d, want %d", got, tt.want)
			}
		})
	}
}
