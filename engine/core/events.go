package core

import "sync"

// System event codes.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EventQuit SystemEventCode = iota + 1
	// The framebuffer was resized. Width and Height carry the new size.
	EventResized
	// A file under the asset root was created or written. Path carries the file.
	EventAssetChanged
)

// Event is the payload delivered to listeners.
type Event struct {
	Code   SystemEventCode
	Width  uint32
	Height uint32
	Path   string
}

// Should return true if handled.
type FnOnEvent func(e Event) bool

// Events dispatches engine events to registered listeners in registration order.
type Events struct {
	mu         sync.RWMutex
	registered map[SystemEventCode][]FnOnEvent
}

func NewEvents() *Events {
	return &Events{
		registered: make(map[SystemEventCode][]FnOnEvent),
	}
}

// Register adds a listener for code.
func (ev *Events) Register(code SystemEventCode, onEvent FnOnEvent) {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	ev.registered[code] = append(ev.registered[code], onEvent)
}

// Fire delivers e to the listeners of its code. If a listener returns true the
// event is considered handled and is not passed on.
func (ev *Events) Fire(e Event) bool {
	ev.mu.RLock()
	listeners := ev.registered[e.Code]
	ev.mu.RUnlock()

	for _, fn := range listeners {
		if fn(e) {
			return true
		}
	}
	return false
}

// Shutdown drops every registration.
func (ev *Events) Shutdown() {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	ev.registered = make(map[SystemEventCode][]FnOnEvent)
}
