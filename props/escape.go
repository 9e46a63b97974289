package props

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

const (
	// characters that separate a key from a value
	keyValueSeparators = "=: \t\r\n\f"
	// at most one of those is skipped after the key
	strictSeparators = "=:"
	// escaped with a backslash when writing a key
	specialKeyChars = "=: \t\r\n\f#!"
	// escaped with a backslash when writing a value
	specialValueChars = "\t\r\n\f"

	hexDigits = "0123456789abcdef"
)

// isWhitespace matches what properties files consider whitespace,
// for characters that can appear in ISO-8859-1 input
func isWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r', 0x1c, 0x1d, 0x1e, 0x1f:
		return true
	}
	return false
}

// skipWhitespace returns index of first non-whitespace char in s at or
// after start, len(s) if there's none
func skipWhitespace(s string, start int) int {
	for start < len(s) && isWhitespace(s[start]) {
		start++
	}
	return start
}

// lineContinues returns true if line ends with an odd number of
// backslashes i.e. the last one escapes the line separator
func lineContinues(line string) bool {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// keyEndIndex returns the index of the separator that ends a key starting
// at keyStart. Any backslash and the character after it are skipped
// as a pair, whatever that character is.
func keyEndIndex(line string, keyStart int) int {
	i := keyStart
	for ; i < len(line); i++ {
		c := line[i]
		if c == '\\' {
			i++
			continue
		}
		if strings.IndexByte(keyValueSeparators, c) >= 0 {
			break
		}
	}
	return min(i, len(line))
}

// valueStartIndex skips whitespace after the key and then at most
// one '=' or ':'. Whitespace after '=' is part of the value.
func valueStartIndex(line string, keyEnd int) int {
	i := skipWhitespace(line, keyEnd)
	if i < len(line) && strings.IndexByte(strictSeparators, line[i]) >= 0 {
		i++
	}
	return i
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// parseHex4 parses "XXXX" at s[i:], returns -1 if not 4 hex digits
func parseHex4(s string, i int) rune {
	if i+4 > len(s) {
		return -1
	}
	var r rune
	for j := i; j < i+4; j++ {
		c := s[j]
		if !isHexDigit(c) {
			return -1
		}
		switch {
		case c >= 'a':
			c = c - 'a' + 10
		case c >= 'A':
			c = c - 'A' + 10
		default:
			c = c - '0'
		}
		r = r<<4 | rune(c)
	}
	return r
}

// unescape decodes escape sequences: \t \r \n \f \uXXXX and \X => X.
// A UTF-16 surrogate pair written as two \u escapes becomes one code point.
func unescape(s string) (string, error) {
	idx := strings.IndexByte(s, '\\')
	if idx < 0 {
		return s, nil
	}
	var sb strings.Builder
	sb.Grow(len(s))
	sb.WriteString(s[:idx])
	n := len(s)
	for i := idx; i < n; i++ {
		c := s[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i == n {
			// dangling backslash at the very end
			sb.WriteByte('\\')
			break
		}
		c = s[i]
		switch c {
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'n':
			sb.WriteByte('\n')
		case 'f':
			sb.WriteByte('\f')
		case 'u':
			r := parseHex4(s, i+1)
			if r < 0 {
				end := min(i+5, n)
				return "", &MalformedEscapeError{Sequence: "\\" + s[i:end]}
			}
			i += 4
			if utf16.IsSurrogate(r) && strings.HasPrefix(s[i+1:], "\\u") {
				if r2 := parseHex4(s, i+3); r2 >= 0 {
					if dec := utf16.DecodeRune(r, r2); dec != utf8.RuneError {
						r = dec
						i += 6
					}
				}
			}
			sb.WriteRune(r)
		default:
			// copy the whole (possibly multi-byte) character
			_, size := utf8.DecodeRuneInString(s[i:])
			sb.WriteString(s[i : i+size])
			i += size - 1
		}
	}
	return sb.String(), nil
}

func appendUnicodeEscape(b []byte, r rune) []byte {
	if r > 0xffff {
		r1, r2 := utf16.EncodeRune(r)
		b = appendUnicodeEscape(b, r1)
		return appendUnicodeEscape(b, r2)
	}
	return append(b, '\\', 'u',
		hexDigits[(r>>12)&0xf], hexDigits[(r>>8)&0xf],
		hexDigits[(r>>4)&0xf], hexDigits[r&0xf])
}

// appendEscaped escapes backslash and \t \r \n \f with a backslash,
// characters in specials with a backslash and everything outside
// of printable ASCII as \uXXXX
func appendEscaped(b []byte, s string, specials string) []byte {
	for _, r := range s {
		switch r {
		case '\\':
			b = append(b, '\\', '\\')
			continue
		case '\t':
			b = append(b, '\\', 't')
			continue
		case '\n':
			b = append(b, '\\', 'n')
			continue
		case '\r':
			b = append(b, '\\', 'r')
			continue
		case '\f':
			b = append(b, '\\', 'f')
			continue
		}
		if r < 0x20 || r > 0x7e {
			b = appendUnicodeEscape(b, r)
			continue
		}
		if strings.IndexByte(specials, byte(r)) >= 0 {
			b = append(b, '\\')
		}
		b = append(b, byte(r))
	}
	return b
}

func escapeKey(s string) string {
	return string(appendEscaped(nil, s, specialKeyChars))
}

func escapeValue(s string) string {
	return string(appendEscaped(nil, s, specialValueChars))
}

// escapeCommentText only escapes characters outside of printable ASCII.
// Tab and form feed are kept so that an indented comment stays a comment.
func escapeCommentText(b []byte, s string) []byte {
	for _, r := range s {
		if r == '\t' || r == '\f' || (r >= 0x20 && r <= 0x7e) {
			b = append(b, byte(r))
			continue
		}
		b = appendUnicodeEscape(b, r)
	}
	return b
}

// escapeComment returns a line that reads back as a comment.
// Leading control characters are written as is (minus line breaks):
// the reader skips them, so a blank line stays blank and "\x01# a" is
// still a comment. If the text after them doesn't start with '#' or '!',
// '#' is added.
func escapeComment(s string) string {
	var b []byte
	i := 0
	for ; i < len(s) && s[i] <= ' '; i++ {
		if s[i] != '\n' && s[i] != '\r' {
			b = append(b, s[i])
		}
	}
	rest := s[i:]
	if rest == "" {
		return string(b)
	}
	if strings.IndexByte(commentChars, rest[0]) < 0 {
		b = append(b, commentChar...)
	}
	return string(escapeCommentText(b, rest))
}
