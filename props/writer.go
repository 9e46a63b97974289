package props

import (
	"bufio"
	"fmt"
	"io"

	"github.com/eightycats/litterbox/u"
)

// Writer encodes entries as properties data. The output is pure ASCII
// (and therefore valid ISO-8859-1).
//
// Keys, values and comments are expected to be valid UTF-8. A byte that
// isn't part of a valid UTF-8 sequence is written as \ufffd, so such
// strings don't survive a round trip.
type Writer struct {
	w *bufio.Writer

	// LineEnding is written after every line. NewWriter sets it to
	// the platform default.
	LineEnding string
}

// DefaultLineEnding returns "\r\n" on Windows, "\n" everywhere else
func DefaultLineEnding() string {
	if u.IsWindows() {
		return "\r\n"
	}
	return "\n"
}

// NewWriter creates a Writer. Call Flush() when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:          bufio.NewWriter(w),
		LineEnding: DefaultLineEnding(),
	}
}

func (w *Writer) writeLine(s string) error {
	if _, err := w.w.WriteString(s); err != nil {
		return err
	}
	_, err := w.w.WriteString(w.LineEnding)
	return err
}

// WriteHeader writes header as a "#header" comment line
func (w *Writer) WriteHeader(header string) error {
	return w.writeLine(string(escapeCommentText([]byte(commentChar), header)))
}

// WriteEntry writes a single property or comment line
func (w *Writer) WriteEntry(e Entry) error {
	switch v := e.(type) {
	case Property:
		return w.writeLine(escapeKey(v.Key) + "=" + escapeValue(v.Value))
	case *Property:
		return w.writeLine(escapeKey(v.Key) + "=" + escapeValue(v.Value))
	case Comment:
		return w.writeLine(escapeComment(v.Text))
	case *Comment:
		return w.writeLine(escapeComment(v.Text))
	}
	return fmt.Errorf("unknown entry type %T", e)
}

// Flush writes buffered data to the underlying io.Writer
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Encode writes entries to w, preceded by an optional header comment
// (skipped if header is ""). The data is flushed even if writing failed.
func Encode(w io.Writer, entries []Entry, header string) (err error) {
	pw := NewWriter(w)
	defer func() {
		errFlush := pw.Flush()
		if err == nil && errFlush != nil {
			err = fmt.Errorf("props: write: %w", errFlush)
		}
	}()
	if header != "" {
		if err = pw.WriteHeader(header); err != nil {
			return fmt.Errorf("props: write: %w", err)
		}
	}
	for _, e := range entries {
		if err = pw.WriteEntry(e); err != nil {
			return fmt.Errorf("props: write: %w", err)
		}
	}
	return nil
}
