// Package event is a small, typed callback registry.
//
// A component that wants to notify others declares a listener interface
// (or func type) and embeds a Registry parameterized by it:
//
//	type Listener interface{ Changed(what string) }
//
//	type Thing struct {
//		listeners event.Registry[Listener]
//	}
//
//	func (t *Thing) OnChange(l Listener) func() { return t.listeners.Add(l) }
//
//	// later
//	t.listeners.Fire(func(l Listener) { l.Changed("name") })
package event

import "sync"

type entry[L any] struct {
	id int
	l  L
}

// Registry keeps an ordered list of listeners.
// The zero value is ready to use. Safe for concurrent use.
type Registry[L any] struct {
	mu        sync.Mutex
	nextID    int
	listeners []entry[L]
}

// Add registers l and returns a function that unregisters it.
// Calling the returned function more than once is a no-op.
func (r *Registry[L]) Add(l L) (remove func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.listeners = append(r.listeners, entry[L]{id: id, l: l})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

func (r *Registry[L]) remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.listeners {
		if e.id == id {
			// copy so that a snapshot taken by Fire() is not modified
			res := make([]entry[L], 0, len(r.listeners)-1)
			res = append(res, r.listeners[:i]...)
			r.listeners = append(res, r.listeners[i+1:]...)
			return
		}
	}
}

// Len returns number of registered listeners
func (r *Registry[L]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

// Fire calls fn for every listener, in registration order.
// Listeners registered or removed while firing take effect on the next Fire.
func (r *Registry[L]) Fire(fn func(L)) {
	r.mu.Lock()
	snapshot := r.listeners
	r.mu.Unlock()
	for _, e := range snapshot {
		fn(e.l)
	}
}
