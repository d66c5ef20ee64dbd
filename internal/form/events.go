package form

// EventType names a UI event the controller can react to.
type EventType string

const (
	EventSubmit    EventType = "submit"
	EventInput     EventType = "input"
	EventBlur      EventType = "blur"
	EventFocus     EventType = "focus"
	EventKeyDown   EventType = "keydown"
	EventClick     EventType = "click"
	EventIntersect EventType = "intersect"
)

// Event is a single UI event. Only the fields relevant to Type are set.
type Event struct {
	Type EventType

	// Field is the form control for input, blur and focus events.
	Field string
	// Value is the new control value carried by input events.
	Value string

	// Key, Ctrl, Meta and InForm describe keydown events. InForm reports
	// whether the focused element sits inside the lead form.
	Key    string
	Ctrl   bool
	Meta   bool
	InForm bool

	// Target is the href of a clicked link or the id of an element that
	// scrolled into view. Selector is the reveal selector it matched.
	Target   string
	Selector string
	Ratio    float64

	defaultPrevented bool
}

// PreventDefault suppresses the platform's default action for the event.
func (e *Event) PreventDefault() {
	if e != nil {
		e.defaultPrevented = true
	}
}

// DefaultPrevented reports whether a handler called PreventDefault.
func (e *Event) DefaultPrevented() bool {
	return e != nil && e.defaultPrevented
}

// Handler reacts to one event.
type Handler func(*Event)

// EventSource delivers UI events. On returns a function that removes the
// registration.
type EventSource interface {
	On(t EventType, h Handler) (remove func())
}

type registration struct {
	id int
	h  Handler
}

// Registry is an EventSource that dispatches events synchronously. It is
// not safe for concurrent use; call it from the loop goroutine.
type Registry struct {
	nextID   int
	handlers map[EventType][]registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[EventType][]registration)}
}

// On registers h for events of type t.
func (r *Registry) On(t EventType, h Handler) func() {
	r.nextID++
	id := r.nextID
	r.handlers[t] = append(r.handlers[t], registration{id: id, h: h})
	return func() {
		regs := r.handlers[t]
		for i, reg := range regs {
			if reg.id == id {
				r.handlers[t] = append(regs[:i:i], regs[i+1:]...)
				return
			}
		}
	}
}

// Dispatch runs every handler registered for ev.Type in registration order.
func (r *Registry) Dispatch(ev *Event) {
	regs := append([]registration(nil), r.handlers[ev.Type]...)
	for _, reg := range regs {
		reg.h(ev)
	}
}

// Len returns the number of live registrations.
func (r *Registry) Len() int {
	n := 0
	for _, regs := range r.handlers {
		n += len(regs)
	}
	return n
}
