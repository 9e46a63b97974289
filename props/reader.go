package props

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// Reader decodes entries from ISO-8859-1 encoded properties data.
//
//	r := props.NewReader(f)
//	for r.ReadNext() {
//		switch e := r.Entry.(type) {
//		case props.Property:
//		case props.Comment:
//		}
//	}
//	if err := r.Err(); err != nil {
//	}
type Reader struct {
	r *bufio.Reader

	// Entry is available after ReadNext(), over-written by the next ReadNext()
	Entry Entry
	// Line is the 1-based line number where Entry starts
	Line int

	lineNo int
	// buffer for the current raw line
	line []byte
	err  error
	// true if we reached io.EOF
	done bool
}

// NewReader creates a Reader. r is buffered unless it's already a *bufio.Reader.
func NewReader(r io.Reader) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br}
}

// Done returns true if we're finished reading
func (r *Reader) Done() bool {
	return r.err != nil || r.done
}

// Err returns the error that stopped reading. io.EOF is not an error.
func (r *Reader) Err() error {
	return r.err
}

// latin1ToString converts ISO-8859-1 bytes to a string: every byte
// is a code point in the 0-255 range
func latin1ToString(d []byte) string {
	ascii := true
	for _, c := range d {
		if c >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return string(d)
	}
	b := make([]byte, 0, len(d)+len(d)/2)
	for _, c := range d {
		b = utf8.AppendRune(b, rune(c))
	}
	return string(b)
}

// readLine returns next line without the line terminator.
// A line ends with "\n", "\r\n" or a lone "\r".
func (r *Reader) readLine() (string, bool) {
	if r.Done() {
		return "", false
	}
	r.line = r.line[:0]
	for {
		c, err := r.r.ReadByte()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.err = fmt.Errorf("props: read: %w", err)
				return "", false
			}
			r.done = true
			if len(r.line) == 0 {
				return "", false
			}
			break
		}
		if c == '\n' {
			break
		}
		if c == '\r' {
			if next, err := r.r.Peek(1); err == nil && next[0] == '\n' {
				_, _ = r.r.ReadByte()
			}
			break
		}
		r.line = append(r.line, c)
	}
	r.lineNo++
	return latin1ToString(r.line), true
}

// ReadNext reads the next entry. Returns false when there are no more
// entries or there was an error. Check Err() to tell them apart.
func (r *Reader) ReadNext() bool {
	r.Entry = nil
	line, ok := r.readLine()
	if !ok {
		return false
	}
	r.Line = r.lineNo

	if isCommentLine(line) {
		r.Entry = Comment{Text: line}
		return true
	}

	keyStart := skipWhitespace(line, 0)
	for lineContinues(line) {
		next, ok := r.readLine()
		if !ok {
			if r.err != nil {
				return false
			}
			// continuation at the end of input
			next = ""
		}
		next = next[skipWhitespace(next, 0):]
		line = line[:len(line)-1] + next
	}

	keyEnd := keyEndIndex(line, keyStart)
	key := line[keyStart:keyEnd]
	value := ""
	if keyEnd < len(line) {
		value = line[valueStartIndex(line, keyEnd):]
	}

	var err error
	if key, err = unescape(key); err != nil {
		r.err = r.withLine(err)
		return false
	}
	if value, err = unescape(value); err != nil {
		r.err = r.withLine(err)
		return false
	}
	r.Entry = Property{Key: key, Value: value}
	return true
}

func (r *Reader) withLine(err error) error {
	var me *MalformedEscapeError
	if errors.As(err, &me) {
		me.Line = r.Line
	}
	return err
}
