package logic

// Callback reacts to a classified event.
type Callback func(Event)

// Bindings maps (action, button) pairs to callbacks.
type Bindings struct {
	m map[EventKey]Callback
}

// NewBindings creates an empty binding table.
func NewBindings() *Bindings {
	return &Bindings{m: make(map[EventKey]Callback)}
}

// Bind registers fn for action on button, replacing any earlier binding.
func (b *Bindings) Bind(action Action, button int, fn Callback) {
	b.m[EventKey{Action: action, Button: button}] = fn
}

// Unbind removes the binding for action on button.
func (b *Bindings) Unbind(action Action, button int) {
	delete(b.m, EventKey{Action: action, Button: button})
}

// Bound reports whether a callback is registered for e.
func (b *Bindings) Bound(e Event) bool {
	_, ok := b.m[e.Key()]
	return ok
}

// Len returns the number of bindings.
func (b *Bindings) Len() int {
	return len(b.m)
}

// Dispatch calls the callback bound to each event in events, in order.
// Events without a binding are skipped. It returns the number of callbacks run.
func (b *Bindings) Dispatch(events []Event) int {
	n := 0
	for _, e := range events {
		if fn, ok := b.m[e.Key()]; ok {
			fn(e)
			n++
		}
	}
	return n
}
