package props

import (
	"strconv"
	"strings"
)

// Required returns value of key or *MissingPropertyError
func Required(src Source, key string) (string, error) {
	v, ok := src.Lookup(key)
	if !ok {
		return "", &MissingPropertyError{Key: key}
	}
	return v, nil
}

func parseInt(key, v string, bitSize int) (int64, error) {
	n, err := strconv.ParseInt(v, 10, bitSize)
	if err != nil {
		return 0, &InvalidValueError{Key: key, Value: v, Err: err}
	}
	return n, nil
}

// Int returns value of key as int, def if key is missing
func Int(src Source, key string, def int) (int, error) {
	v, ok := src.Lookup(key)
	if !ok {
		return def, nil
	}
	n, err := parseInt(key, v, strconv.IntSize)
	return int(n), err
}

// RequiredInt is like Int but a missing key is an error
func RequiredInt(src Source, key string) (int, error) {
	v, err := Required(src, key)
	if err != nil {
		return 0, err
	}
	n, err := parseInt(key, v, strconv.IntSize)
	return int(n), err
}

// Int64 returns value of key as int64, def if key is missing
func Int64(src Source, key string, def int64) (int64, error) {
	v, ok := src.Lookup(key)
	if !ok {
		return def, nil
	}
	return parseInt(key, v, 64)
}

// RequiredInt64 is like Int64 but a missing key is an error
func RequiredInt64(src Source, key string) (int64, error) {
	v, err := Required(src, key)
	if err != nil {
		return 0, err
	}
	return parseInt(key, v, 64)
}

// Bool returns true if value of key is "true" (case-insensitive),
// def if key is missing. Any other value is false.
func Bool(src Source, key string, def bool) bool {
	v, ok := src.Lookup(key)
	if !ok {
		return def
	}
	return strings.EqualFold(v, "true")
}

// IndexedList returns values of prefix0, prefix1, prefix2... stopping
// at the first missing index. For:
//
//	foo0=bar0
//	foo1=bar1
//
// IndexedList(src, "foo") returns ["bar0", "bar1"]
func IndexedList(src Source, prefix string) []string {
	var res []string
	for i := 0; ; i++ {
		v, ok := src.Lookup(prefix + strconv.Itoa(i))
		if !ok {
			return res
		}
		res = append(res, v)
	}
}

// AppendValue appends value to the current value of key, separated
// by delim. If key doesn't exist, it's set to value.
func (s *Store) AppendValue(key, value, delim string) {
	s.mu.Lock()
	if p, ok := s.index[key]; ok {
		value = p.Value + delim + value
	}
	prev, existed := s.putLocked(-1, key, value)
	s.mu.Unlock()
	s.fire(putEvent(key, prev, value, existed))
}

// SetDefault sets key to value only if key is missing or its value is
// all whitespace. Returns true if it set the value.
func (s *Store) SetDefault(key, value string) bool {
	s.mu.Lock()
	if p, ok := s.index[key]; ok && trimSpace(p.Value) != "" {
		s.mu.Unlock()
		return false
	}
	prev, existed := s.putLocked(-1, key, value)
	s.mu.Unlock()
	s.fire(putEvent(key, prev, value, existed))
	return true
}
