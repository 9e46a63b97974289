package props

// ChangeKind says what happened to a Store
type ChangeKind int

const (
	Added ChangeKind = iota + 1
	Updated
	Removed
	// all entries were removed, Key is empty
	Cleared
	// content was replaced by Load(), Key is empty
	Loaded
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	case Cleared:
		return "cleared"
	case Loaded:
		return "loaded"
	}
	return "unknown"
}

// ChangeEvent describes a change of a single property or,
// for Cleared and Loaded, of the whole store
type ChangeEvent struct {
	Kind ChangeKind
	Key  string
	Old  string
	New  string
}

// ChangeListener is notified about changes to a Store.
// It's called after the change is done and the store is unlocked,
// so it can call back into the store.
type ChangeListener interface {
	PropertyChanged(ev ChangeEvent)
}

// ChangeListenerFunc adapts a function to ChangeListener
type ChangeListenerFunc func(ev ChangeEvent)

func (f ChangeListenerFunc) PropertyChanged(ev ChangeEvent) {
	f(ev)
}

// OnChange registers l and returns a function that unregisters it
func (s *Store) OnChange(l ChangeListener) (remove func()) {
	return s.listeners.Add(l)
}

func putEvent(key, prev, value string, existed bool) ChangeEvent {
	if existed {
		return ChangeEvent{Kind: Updated, Key: key, Old: prev, New: value}
	}
	return ChangeEvent{Kind: Added, Key: key, New: value}
}

func (s *Store) fire(evs ...ChangeEvent) {
	if len(evs) == 0 || s.listeners.Len() == 0 {
		return
	}
	for _, ev := range evs {
		s.listeners.Fire(func(l ChangeListener) {
			l.PropertyChanged(ev)
		})
	}
}
