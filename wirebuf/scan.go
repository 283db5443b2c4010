package wirebuf

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidHex is returned by [HexDecode] when the input is not a
// well-formed hex string.
var ErrInvalidHex = errors.New("wirebuf: invalid hex data")

// Find returns the offset of the first occurrence of substr in b at
// or after start. If substr is not found, Find returns b.Len() and
// false.
func (b *Buffer) Find(start int, substr string) (int, bool) {
	b.check()
	return b.FindTo(start, b.n, substr)
}

// FindTo is like [Buffer.Find], but only finds occurrences that end
// at or before end.
func (b *Buffer) FindTo(start, end int, substr string) (int, bool) {
	b.check()
	if start < 0 || end < start || end > b.n {
		panic(fmt.Sprintf("wirebuf: search range [%d:%d] out of bounds of %d-byte Buffer", start, end, b.n))
	}
	idx := bytes.Index(b.buf[start:end], []byte(substr))
	if idx < 0 {
		return end, false
	}
	return start + idx, true
}

// Equal reports whether a and b have the same contents.
func Equal(a, b *Buffer) bool {
	a.check()
	b.check()
	return bytes.Equal(a.buf[:a.n], b.buf[:b.n])
}

// EqualLen reports whether the first n bytes of a and b are
// equal. If either Buffer is shorter than n, EqualLen compares the
// Buffers in full.
func EqualLen(a, b *Buffer, n int) bool {
	a.check()
	b.check()
	if a.n < n || b.n < n {
		return Equal(a, b)
	}
	return bytes.Equal(a.buf[:n], b.buf[:n])
}

// HasPrefix reports whether b begins with prefix.
func (b *Buffer) HasPrefix(prefix string) bool {
	b.check()
	return bytes.HasPrefix(b.buf[:b.n], []byte(prefix))
}

// HasSuffix reports whether b ends with suffix.
func (b *Buffer) HasSuffix(suffix string) bool {
	b.check()
	return bytes.HasSuffix(b.buf[:b.n], []byte(suffix))
}

// validRange reports whether [start:start+n] lies within b. Negative
// arguments are a programming error.
func (b *Buffer) validRange(start, n int) bool {
	if start < 0 || n < 0 {
		panic(fmt.Sprintf("wirebuf: invalid range [%d:+%d]", start, n))
	}
	return start <= b.n && n <= b.n-start
}

// ValidateASCII reports whether the n bytes at start exist, and are
// all ASCII characters other than NUL.
func (b *Buffer) ValidateASCII(start, n int) bool {
	b.check()
	if !b.validRange(start, n) {
		return false
	}
	for _, c := range b.buf[start : start+n] {
		if c == 0 || c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// ValidateUTF8 reports whether the n bytes at start exist, and are
// valid UTF-8 containing no NUL bytes, surrogates or the
// noncharacters U+FFFE and U+FFFF.
func (b *Buffer) ValidateUTF8(start, n int) bool {
	b.check()
	if !b.validRange(start, n) {
		return false
	}
	s := b.buf[start : start+n]
	for len(s) > 0 {
		c := s[0]
		if c < utf8.RuneSelf {
			if c == 0 {
				return false
			}
			s = s[1:]
			continue
		}
		r, sz := utf8.DecodeRune(s)
		if !validRune(r, sz) {
			return false
		}
		s = s[sz:]
	}
	return true
}

// ValidString reports whether s would pass [Buffer.ValidateUTF8].
func ValidString(s string) bool {
	for len(s) > 0 {
		c := s[0]
		if c < utf8.RuneSelf {
			if c == 0 {
				return false
			}
			s = s[1:]
			continue
		}
		r, sz := utf8.DecodeRuneInString(s)
		if !validRune(r, sz) {
			return false
		}
		s = s[sz:]
	}
	return true
}

// validRune reports whether a decoded multibyte rune is acceptable in
// a DBus string. utf8 decodes surrogates as a 1 byte RuneError.
func validRune(r rune, sz int) bool {
	if r == utf8.RuneError && sz == 1 {
		return false
	}
	return r != 0xfffe && r != 0xffff
}

// ValidateNul reports whether the n bytes at start exist, and are
// all NUL.
func (b *Buffer) ValidateNul(start, n int) bool {
	b.check()
	if !b.validRange(start, n) {
		return false
	}
	for _, c := range b.buf[start : start+n] {
		if c != 0 {
			return false
		}
	}
	return true
}

// HexEncode inserts the lowercase hex encoding of src's bytes from
// start onwards into dst at offset at.
func HexEncode(src *Buffer, start int, dst *Buffer, at int) error {
	checkSplice(src, start, dst, at)
	in := src.buf[start:src.n]
	out := make([]byte, hex.EncodedLen(len(in)))
	hex.Encode(out, in)
	return dst.Insert(at, out)
}

// HexDecode inserts the bytes encoded by the hex text of src from
// start onwards into dst at offset at. Upper and lowercase digits are
// accepted. On error, dst is unchanged.
func HexDecode(src *Buffer, start int, dst *Buffer, at int) error {
	checkSplice(src, start, dst, at)
	in := src.buf[start:src.n]
	out := make([]byte, hex.DecodedLen(len(in)))
	if _, err := hex.Decode(out, in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHex, err)
	}
	return dst.Insert(at, out)
}
