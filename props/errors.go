package props

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedEscape is matched (errors.Is) by *MalformedEscapeError
	ErrMalformedEscape = errors.New("malformed \\uXXXX escape")

	// ErrMissingProperty is matched (errors.Is) by *MissingPropertyError
	ErrMissingProperty = errors.New("missing required property")

	// ErrDefaultsCycle is the panic value of SetDefaults() when defaults
	// lead back to the store
	ErrDefaultsCycle = errors.New("props: defaults lead back to the store")
)

// MalformedEscapeError is returned when a \u escape isn't followed by
// 4 hex digits. It aborts decoding of the whole input.
type MalformedEscapeError struct {
	// 1-based line number where the entry starts, 0 if unknown
	Line int
	// the offending sequence, starting with \u
	Sequence string
}

func (e *MalformedEscapeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("props: line %d: malformed \\uXXXX escape '%s'", e.Line, e.Sequence)
	}
	return fmt.Sprintf("props: malformed \\uXXXX escape '%s'", e.Sequence)
}

func (e *MalformedEscapeError) Is(target error) bool {
	return target == ErrMalformedEscape
}

// BoundsError is the panic value for an index outside of the ordered
// entries. Like indexing a slice out of range, it's a programming error.
type BoundsError struct {
	Index int
	Len   int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("props: index %d out of range [0:%d]", e.Index, e.Len)
}

func panicIfOutOfBounds(index int, n int) {
	if index < 0 || index >= n {
		panic(&BoundsError{Index: index, Len: n})
	}
}

// MissingPropertyError is returned by Required* accessors
type MissingPropertyError struct {
	Key string
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("could not find required property: '%s'", e.Key)
}

func (e *MissingPropertyError) Is(target error) bool {
	return target == ErrMissingProperty
}

// InvalidValueError is returned by typed accessors when a value
// can't be converted
type InvalidValueError struct {
	Key   string
	Value string
	Err   error
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("the value '%s' of property '%s' is not a valid number", e.Value, e.Key)
}

func (e *InvalidValueError) Unwrap() error {
	return e.Err
}
