package props

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

const (
	setsRootTag     = "config"
	setsTag         = "properties"
	setsEntryTag    = "entry"
	setsCommentTag  = "comment"
	setsNameAttr    = "name"
	setsExtendsAttr = "extends"
	setsKeyAttr     = "key"
)

// ErrNoSuchSet is matched (errors.Is) by errors about a property set
// that doesn't exist
var ErrNoSuchSet = errors.New("no such property set")

// Sets is a collection of named property sets read from XML.
// A set can extend another set: keys it doesn't have are looked up
// in the parent, then in the parent's parent and so on.
//
//	<config>
//	  <properties name="base">
//	    <entry key="db.host">localhost</entry>
//	    <entry key="db.port">5432</entry>
//	  </properties>
//	  <properties name="prod" extends="base">
//	    <comment>production database</comment>
//	    <entry key="db.host">10.0.0.5</entry>
//	  </properties>
//	</config>
//
// Not safe for concurrent Load().
type Sets struct {
	// in order of first appearance
	names   []string
	stores  map[string]*Store
	parents map[string]string
}

// NewSets creates an empty Sets
func NewSets() *Sets {
	return &Sets{
		stores:  map[string]*Store{},
		parents: map[string]string{},
	}
}

// LoadSets reads property sets from r
func LoadSets(r io.Reader) (*Sets, error) {
	s := NewSets()
	if err := s.Load(r); err != nil {
		return nil, err
	}
	return s, nil
}

type parsedSet struct {
	name    string
	extends string
	store   *Store
}

func xmlAttr(el xml.StartElement, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Load adds sets read from r. A set with the name of an already loaded
// set replaces it. If r can't be parsed, s is not modified.
func (s *Sets) Load(r io.Reader) error {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel

	errorf := func(format string, args ...any) error {
		line, _ := d.InputPos()
		return fmt.Errorf("props: xml: line %d: %s", line, fmt.Sprintf(format, args...))
	}

	var (
		parsed    []*parsedSet
		cur       *parsedSet
		key       string
		inEntry   bool
		inComment bool
		text      strings.Builder
	)
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("props: xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if inEntry {
				return errorf("unexpected <%s> inside <%s>", t.Name.Local, setsEntryTag)
			}
			if inComment {
				return errorf("unexpected <%s> inside <%s>", t.Name.Local, setsCommentTag)
			}
			switch t.Name.Local {
			case setsRootTag:
				// nothing to do
			case setsTag:
				if cur != nil {
					return errorf("<%s> can't be nested", setsTag)
				}
				name, ok := xmlAttr(t, setsNameAttr)
				if !ok {
					return errorf("<%s> has no '%s' attribute", setsTag, setsNameAttr)
				}
				extends, _ := xmlAttr(t, setsExtendsAttr)
				cur = &parsedSet{name: name, extends: extends, store: New()}
			case setsEntryTag:
				if cur == nil {
					return errorf("<%s> outside of <%s>", setsEntryTag, setsTag)
				}
				var ok bool
				if key, ok = xmlAttr(t, setsKeyAttr); !ok {
					return errorf("<%s> has no '%s' attribute", setsEntryTag, setsKeyAttr)
				}
				inEntry = true
				text.Reset()
			case setsCommentTag:
				inComment = true
				text.Reset()
			default:
				return errorf("unexpected tag <%s>", t.Name.Local)
			}
		case xml.CharData:
			if inEntry || inComment {
				text.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case setsEntryTag:
				cur.store.Put(key, text.String())
				inEntry = false
			case setsCommentTag:
				inComment = false
				// comments outside of a set are dropped
				if cur != nil {
					addCommentLines(cur.store, text.String())
				}
			case setsTag:
				parsed = append(parsed, cur)
				cur = nil
			}
		}
	}

	for _, p := range parsed {
		if _, ok := s.stores[p.name]; !ok {
			s.names = append(s.names, p.name)
		}
		s.stores[p.name] = p.store
		if p.extends != "" {
			s.parents[p.name] = p.extends
		} else {
			delete(s.parents, p.name)
		}
	}
	return nil
}

// addCommentLines adds every non-blank line of text as a comment
func addCommentLines(st *Store, text string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			st.AddComment("# " + line)
		}
	}
}

// Names returns names of all sets in the order they were first loaded
func (s *Sets) Names() []string {
	return append([]string(nil), s.names...)
}

// Store returns the properties of set name without the inherited ones,
// nil if there's no such set
func (s *Sets) Store(name string) *Store {
	return s.stores[name]
}

// Parent returns the name of the set that name extends
func (s *Sets) Parent(name string) (string, bool) {
	p, ok := s.parents[name]
	return p, ok
}

// Chain returns set name linked to its ancestors. It's an error if
// an ancestor doesn't exist or the sets extend each other in a cycle.
func (s *Sets) Chain(name string) (*Chain, error) {
	if _, ok := s.stores[name]; !ok {
		return nil, fmt.Errorf("props: property set '%s': %w", name, ErrNoSuchSet)
	}
	// leaf first
	ancestry := []string{name}
	seen := map[string]bool{name: true}
	child := name
	for {
		parent, ok := s.parents[child]
		if !ok {
			break
		}
		if seen[parent] {
			return nil, fmt.Errorf("props: property set '%s' extends itself through '%s'", name, child)
		}
		if _, ok := s.stores[parent]; !ok {
			return nil, fmt.Errorf("props: property set '%s' extends '%s': %w", child, parent, ErrNoSuchSet)
		}
		seen[parent] = true
		ancestry = append(ancestry, parent)
		child = parent
	}

	var c *Chain
	for i := len(ancestry) - 1; i >= 0; i-- {
		c = NewChain(ancestry[i], s.stores[ancestry[i]], c)
	}
	return c, nil
}

// Flatten returns a new store with all properties of the given sets,
// including inherited ones. Later sets override earlier ones and sets
// override their ancestors. Inherited keys come first.
func (s *Sets) Flatten(names ...string) (*Store, error) {
	res := New()
	for _, name := range names {
		c, err := s.Chain(name)
		if err != nil {
			return nil, err
		}
		var links []*Chain
		for link := c; link != nil; link = link.Parent {
			links = append(links, link)
		}
		for i := len(links) - 1; i >= 0; i-- {
			res.MergeProperties(links[i].Props.(*Store))
		}
	}
	return res, nil
}
