package props

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert"
)

func encodeEntries(t *testing.T, header string, entries ...Entry) string {
	var buf bytes.Buffer
	err := Encode(&buf, entries, header)
	assert.NoError(t, err)
	return buf.String()
}

// joinLines joins lines with the platform line ending, including the last one
func joinLines(lines ...string) string {
	nl := DefaultLineEnding()
	return strings.Join(lines, nl) + nl
}

func TestEscapeKey(t *testing.T) {
	tests := []struct {
		key string
		exp string
	}{
		{"a b", `a\ b`},
		{"a=b", `a\=b`},
		{"a:b", `a\:b`},
		{"#a!", `\#a\!`},
		{"a\tb\nc\rd\fe", `a\tb\nc\rd\fe`},
		{`a\b`, `a\\b`},
		{"é", `\u00e9`},
		{"\x01", `\u0001`},
		{"\x7f", `\u007f`},
		{"😀", `\ud83d\ude00`},
	}
	for _, test := range tests {
		assert.Equal(t, test.exp, escapeKey(test.key), "key: %q", test.key)
	}
}

func TestEscapeValue(t *testing.T) {
	tests := []struct {
		value string
		exp   string
	}{
		{"x=y", "x=y"},
		{"a b", "a b"},
		{"  lead", "  lead"},
		{"#!:", "#!:"},
		{"a\tb\nc", `a\tb\nc`},
		{`c:\dir`, `c:\\dir`},
		{"café", `caf\u00e9`},
		{"ĀĒ", `\u0100\u0112`},
	}
	for _, test := range tests {
		assert.Equal(t, test.exp, escapeValue(test.value), "value: %q", test.value)
	}
}

func TestWriteInvalidUTF8(t *testing.T) {
	s := New()
	s.Put("k", "a\xffb")
	assert.Equal(t, joinLines(`k=a\ufffdb`), string(s.Bytes("")))
	s2 := mustParse(t, string(s.Bytes("")))
	v, _ := s2.Get("k")
	assert.Equal(t, "a\ufffdb", v)
}

func TestEscapeComment(t *testing.T) {
	assert.Equal(t, "# note", escapeComment("# note"))
	assert.Equal(t, "\t# indented", escapeComment("\t# indented"))
	assert.Equal(t, `# back\slash`, escapeComment(`# back\slash`))
	assert.Equal(t, `# caf\u00e9`, escapeComment("# café"))
	assert.Equal(t, `# two\u000alines`, escapeComment("# two\nlines"))
	assert.Equal(t, "\v", escapeComment("\v"))
	assert.Equal(t, " \x00 ", escapeComment(" \x00 "))
	assert.Equal(t, "\x01# note", escapeComment("\x01# note"))
	assert.Equal(t, "", escapeComment("\r\n"))
	assert.Equal(t, `#caf\u00e9`, escapeComment("café"))
	assert.Equal(t, "\x01#plain", escapeComment("\x01plain"))
}

func TestWriteEntries(t *testing.T) {
	got := encodeEntries(t, "",
		Comment{Text: "# settings"},
		Property{Key: "a b", Value: "x=y"},
		Comment{Text: ""},
		Property{Key: "path", Value: `c:\tmp`},
	)
	exp := joinLines(
		"# settings",
		`a\ b=x=y`,
		"",
		`path=c:\\tmp`,
	)
	assert.Equal(t, exp, got)
}

func TestWriteHeader(t *testing.T) {
	got := encodeEntries(t, "generated", Property{Key: "k", Value: "v"})
	assert.Equal(t, joinLines("#generated", "k=v"), got)

	got = encodeEntries(t, "")
	assert.Equal(t, "", got)
}

func TestWriterLineEnding(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.LineEnding = "\r\n"
	assert.NoError(t, w.WriteEntry(Property{Key: "a", Value: "1"}))
	assert.NoError(t, w.WriteEntry(&Comment{Text: "# c"}))
	assert.NoError(t, w.Flush())
	assert.Equal(t, "a=1\r\n# c\r\n", buf.String())
}

type failingWriter struct{}

var errWriteFailed = errors.New("write failed")

func (failingWriter) Write(d []byte) (int, error) {
	return 0, errWriteFailed
}

func TestWriteError(t *testing.T) {
	// bufio buffers small writes, the error shows up on flush
	err := Encode(failingWriter{}, []Entry{Property{Key: "a", Value: "1"}}, "")
	assert.True(t, errors.Is(err, errWriteFailed))

	big := strings.Repeat("x", 10000)
	err = Encode(failingWriter{}, []Entry{Property{Key: "a", Value: big}}, "")
	assert.True(t, errors.Is(err, errWriteFailed))
}
