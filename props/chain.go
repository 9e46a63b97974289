package props

// Chain is a named set of properties that inherits values from its
// parents: a key not found in Props is looked up in Parent, then in
// Parent's parent and so on. Parent links must not form a cycle.
type Chain struct {
	Name   string
	Props  Source
	Parent *Chain
}

var _ Source = &Chain{}

// NewChain creates a Chain. parent can be nil.
func NewChain(name string, props Source, parent *Chain) *Chain {
	return &Chain{
		Name:   name,
		Props:  props,
		Parent: parent,
	}
}

// Lookup returns the value from the closest link of the chain that has key
func (c *Chain) Lookup(key string) (string, bool) {
	v, _, ok := c.Resolve(key)
	return v, ok
}

// Resolve is like Lookup but also returns the Name of the link
// the value came from
func (c *Chain) Resolve(key string) (value string, from string, ok bool) {
	for link := c; link != nil; link = link.Parent {
		if link.Props == nil {
			continue
		}
		if v, ok := link.Props.Lookup(key); ok {
			return v, link.Name, true
		}
	}
	return "", "", false
}
