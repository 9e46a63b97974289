package props

import (
	"bytes"
	"io"
	"iter"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/eightycats/litterbox/event"
)

// Source is something properties can be looked up in
type Source interface {
	Lookup(key string) (string, bool)
}

// Store is an ordered collection of properties and comments.
//
// The order of entries is the order in which they were loaded or added
// and the order in which Save() writes them. Properties are also indexed
// by key. The zero value is an empty store ready to use.
// Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	elements []Entry // *Property or *Comment
	index    map[string]*Property
	defaults Source

	listeners event.Registry[ChangeListener]
}

var _ Source = &Store{}

// New creates an empty Store
func New() *Store {
	return &Store{
		index: map[string]*Property{},
	}
}

// Decode reads a Store from r
func Decode(r io.Reader) (*Store, error) {
	s := New()
	if err := s.decode(r); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseString is Decode for in-memory data
func ParseString(data string) (*Store, error) {
	return Decode(strings.NewReader(data))
}

// decode appends entries from r. Caller must own s exclusively.
func (s *Store) decode(r io.Reader) error {
	pr := NewReader(r)
	for pr.ReadNext() {
		switch e := pr.Entry.(type) {
		case Comment:
			// verbatim, already a comment or a blank line
			s.insertLocked(-1, &Comment{Text: e.Text})
		case Property:
			s.putLocked(-1, e.Key, e.Value)
		}
	}
	return pr.Err()
}

func copyEntry(e Entry) Entry {
	switch v := e.(type) {
	case *Property:
		return *v
	case *Comment:
		return *v
	}
	return e
}

func (s *Store) insertLocked(index int, e Entry) {
	if index < 0 {
		s.elements = append(s.elements, e)
		return
	}
	s.elements = slices.Insert(s.elements, index, e)
}

func (s *Store) positionOf(p *Property) int {
	for i, e := range s.elements {
		if e == Entry(p) {
			return i
		}
	}
	return -1
}

// putLocked inserts at index (-1 means append) or updates an existing
// property. An existing property is moved only if index >= 0.
func (s *Store) putLocked(index int, key, value string) (string, bool) {
	if p, ok := s.index[key]; ok {
		prev := p.Value
		p.Value = value
		if index >= 0 {
			pos := s.positionOf(p)
			s.elements = slices.Delete(s.elements, pos, pos+1)
			s.elements = slices.Insert(s.elements, index, Entry(p))
		}
		return prev, true
	}
	if s.index == nil {
		s.index = map[string]*Property{}
	}
	p := &Property{Key: key, Value: value}
	s.index[key] = p
	s.insertLocked(index, p)
	return "", false
}

// Put sets the value of key. An existing property keeps its position,
// a new one is added at the end. Returns the previous value and true
// if the key existed.
//
// key and value should be valid UTF-8: invalid bytes are saved as U+FFFD.
func (s *Store) Put(key, value string) (string, bool) {
	s.mu.Lock()
	prev, existed := s.putLocked(-1, key, value)
	s.mu.Unlock()
	s.fire(putEvent(key, prev, value, existed))
	return prev, existed
}

// PutAt is like Put but also moves the property to index.
// For a new key index must be in [0, ElementCount()], for an existing
// key in [0, ElementCount()-1]. Panics with *BoundsError otherwise.
func (s *Store) PutAt(index int, key, value string) (string, bool) {
	s.mu.Lock()
	n := len(s.elements)
	if _, ok := s.index[key]; !ok {
		n++
	}
	if index < 0 || index >= n {
		s.mu.Unlock()
		panic(&BoundsError{Index: index, Len: n})
	}
	prev, existed := s.putLocked(index, key, value)
	s.mu.Unlock()
	s.fire(putEvent(key, prev, value, existed))
	return prev, existed
}

// PutAll puts all values from m, in sorted key order
func (s *Store) PutAll(m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var evs []ChangeEvent
	s.mu.Lock()
	for _, k := range keys {
		prev, existed := s.putLocked(-1, k, m[k])
		evs = append(evs, putEvent(k, prev, m[k], existed))
	}
	s.mu.Unlock()
	s.fire(evs...)
}

// Get returns value of a property in this store. Defaults are not consulted.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.index[key]; ok {
		return p.Value, true
	}
	return "", false
}

// SetDefaults sets where Lookup() looks for keys that are not in s.
// Panics with ErrDefaultsCycle if defaults is s or falls back to s
// through other stores or chains, since Lookup() would never return.
func (s *Store) SetDefaults(defaults Source) {
	if reachesStore(defaults, s, map[any]bool{}) {
		panic(ErrDefaultsCycle)
	}
	s.mu.Lock()
	s.defaults = defaults
	s.mu.Unlock()
}

// reachesStore returns true if looking up a key in src can end up in s
func reachesStore(src Source, s *Store, seen map[any]bool) bool {
	switch v := src.(type) {
	case *Store:
		if v == nil {
			return false
		}
		if v == s {
			return true
		}
		if seen[v] {
			return false
		}
		seen[v] = true
		v.mu.Lock()
		next := v.defaults
		v.mu.Unlock()
		return reachesStore(next, s, seen)
	case *Chain:
		for link := v; link != nil; link = link.Parent {
			if seen[link] {
				return false
			}
			seen[link] = true
			if reachesStore(link.Props, s, seen) {
				return true
			}
		}
	}
	return false
}

// Lookup returns value of a property, falling back to defaults
func (s *Store) Lookup(key string) (string, bool) {
	s.mu.Lock()
	p, ok := s.index[key]
	defaults := s.defaults
	var v string
	if ok {
		v = p.Value
	}
	s.mu.Unlock()
	if ok {
		return v, true
	}
	if defaults != nil {
		return defaults.Lookup(key)
	}
	return "", false
}

// Has returns true if key is in the store
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Remove removes a property. Returns the removed value and true
// if the key existed.
func (s *Store) Remove(key string) (string, bool) {
	s.mu.Lock()
	p, ok := s.index[key]
	if !ok {
		s.mu.Unlock()
		return "", false
	}
	delete(s.index, key)
	if pos := s.positionOf(p); pos >= 0 {
		s.elements = slices.Delete(s.elements, pos, pos+1)
	}
	s.mu.Unlock()
	s.fire(ChangeEvent{Kind: Removed, Key: key, Old: p.Value})
	return p.Value, true
}

// Clear removes all properties and comments
func (s *Store) Clear() {
	s.mu.Lock()
	s.elements = nil
	s.index = map[string]*Property{}
	s.mu.Unlock()
	s.fire(ChangeEvent{Kind: Cleared})
}

// AddComment adds a comment at the end. If text is not blank and doesn't
// start with '#' or '!', '#' is prepended. Returns the comment as added.
func (s *Store) AddComment(text string) Comment {
	c := &Comment{Text: normalizeComment(text)}
	s.mu.Lock()
	s.insertLocked(-1, c)
	s.mu.Unlock()
	return *c
}

// AddCommentAt is like AddComment but inserts at index, which must
// be in [0, ElementCount()]. Panics with *BoundsError otherwise.
func (s *Store) AddCommentAt(index int, text string) Comment {
	c := &Comment{Text: normalizeComment(text)}
	s.mu.Lock()
	defer s.mu.Unlock()
	panicIfOutOfBounds(index, len(s.elements)+1)
	s.insertLocked(index, c)
	return *c
}

// Len returns the number of properties
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

// ElementCount returns the number of properties and comments
func (s *Store) ElementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.elements)
}

// ElementAt returns a copy of the entry (Property or Comment) at index.
// Panics with *BoundsError if index is out of range.
func (s *Store) ElementAt(index int) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	panicIfOutOfBounds(index, len(s.elements))
	return copyEntry(s.elements[index])
}

// Elements returns a copy of all entries, in order
func (s *Store) Elements() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]Entry, len(s.elements))
	for i, e := range s.elements {
		res[i] = copyEntry(e)
	}
	return res
}

// Keys returns property keys, in order
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]string, 0, len(s.index))
	for _, e := range s.elements {
		if p, ok := e.(*Property); ok {
			res = append(res, p.Key)
		}
	}
	return res
}

// All iterates over a snapshot of properties, in order
func (s *Store) All() iter.Seq2[string, string] {
	entries := s.Elements()
	return func(yield func(string, string) bool) {
		for _, e := range entries {
			p, ok := e.(Property)
			if !ok {
				continue
			}
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// Merge appends other's entries after the existing ones: comments are
// added as comments, properties with Put() (so keys that already exist
// keep their position).
func (s *Store) Merge(other *Store) {
	s.merge(other, true)
}

// MergeProperties is like Merge but skips other's comments
func (s *Store) MergeProperties(other *Store) {
	s.merge(other, false)
}

func (s *Store) merge(other *Store, withComments bool) {
	// snapshot first: other might be s
	entries := other.Elements()

	var evs []ChangeEvent
	s.mu.Lock()
	for _, e := range entries {
		switch v := e.(type) {
		case Comment:
			if withComments {
				s.insertLocked(-1, &Comment{Text: normalizeComment(v.Text)})
			}
		case Property:
			prev, existed := s.putLocked(-1, v.Key, v.Value)
			evs = append(evs, putEvent(v.Key, prev, v.Value, existed))
		}
	}
	s.mu.Unlock()
	s.fire(evs...)
}

// Load replaces the content of s with entries read from r.
// If reading fails, s is not modified.
func (s *Store) Load(r io.Reader) error {
	fresh := New()
	if err := fresh.decode(r); err != nil {
		return err
	}
	s.mu.Lock()
	s.elements = fresh.elements
	s.index = fresh.index
	s.mu.Unlock()
	s.fire(ChangeEvent{Kind: Loaded})
	return nil
}

// Save writes all entries to w, preceded by "#header" line unless
// header is "". Entries are snapshotted first, so s is not locked
// while writing.
func (s *Store) Save(w io.Writer, header string) error {
	return Encode(w, s.Elements(), header)
}

// Bytes returns s encoded as properties data
func (s *Store) Bytes(header string) []byte {
	var buf bytes.Buffer
	// writing to bytes.Buffer can't fail
	_ = s.Save(&buf, header)
	return buf.Bytes()
}

// String returns every entry on its own line, not escaped
func (s *Store) String() string {
	var sb strings.Builder
	for _, e := range s.Elements() {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
