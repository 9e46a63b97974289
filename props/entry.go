package props

import "strings"

const (
	// default character used to mark a line as a comment
	commentChar = "#"
	// all characters that can start a comment line
	commentChars = "#!"
)

// Entry is one logical line of a properties file: a Property or a Comment.
type Entry interface {
	String() string
	isEntry()
}

// Property is a decoded key / value pair
type Property struct {
	Key   string
	Value string
}

func (Property) isEntry() {}

// String returns "key=value" (not escaped)
func (p Property) String() string {
	return p.Key + "=" + p.Value
}

// Comment is a comment or blank line, kept verbatim, including leading
// whitespace and the comment marker.
type Comment struct {
	Text string
}

func (Comment) isEntry() {}

func (c Comment) String() string {
	return c.Text
}

// normalizeComment makes sure that s will be read back as a comment.
// Blank text stays as is, other text gets a '#' unless it already
// starts with '#' or '!'.
func normalizeComment(s string) string {
	trimmed := trimSpace(s)
	if trimmed == "" {
		return s
	}
	if strings.IndexByte(commentChars, trimmed[0]) >= 0 {
		return s
	}
	return commentChar + s
}

// isCommentLine returns true if a raw line is blank or a comment
func isCommentLine(line string) bool {
	trimmed := trimSpace(line)
	return trimmed == "" || strings.IndexByte(commentChars, trimmed[0]) >= 0
}

// trimSpace removes all ASCII control characters and spaces from both ends.
// It's different from strings.TrimSpace() which only removes whitespace.
func trimSpace(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return r <= ' '
	})
}
