package realtime

import (
	"errors"
	"sync"
)

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("realtime: bus closed")

// registry tracks local handlers per topic. Transports plug in listen and
// unlisten to attach the first and detach the last handler of a topic
// upstream. Membership changes are serialised with those hooks so a topic
// is never listened twice or left dangling.
type registry struct {
	mu       sync.Mutex
	handlers map[string]map[uint64]Handler
	nextID   uint64
	closed   bool

	listen   func(topic string) error
	unlisten func(topic string)
}

func newRegistry(listen func(string) error, unlisten func(string)) *registry {
	if listen == nil {
		listen = func(string) error { return nil }
	}
	if unlisten == nil {
		unlisten = func(string) {}
	}
	return &registry{
		handlers: make(map[string]map[uint64]Handler),
		listen:   listen,
		unlisten: unlisten,
	}
}

func (r *registry) subscribe(topic string, h Handler) (Unsubscribe, error) {
	if h == nil {
		return nil, errors.New("realtime: nil handler")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	subs, ok := r.handlers[topic]
	if !ok {
		if err := r.listen(topic); err != nil {
			return nil, err
		}
		subs = make(map[uint64]Handler)
		r.handlers[topic] = subs
	}
	r.nextID++
	id := r.nextID
	subs[id] = h

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(topic, id) })
	}, nil
}

func (r *registry) remove(topic string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs, ok := r.handlers[topic]
	if !ok {
		return
	}
	delete(subs, id)
	if len(subs) == 0 {
		delete(r.handlers, topic)
		if !r.closed {
			r.unlisten(topic)
		}
	}
}

// deliver calls every handler of topic outside the lock and returns how many ran.
func (r *registry) deliver(topic string, e Event) int {
	r.mu.Lock()
	subs := r.handlers[topic]
	targets := make([]Handler, 0, len(subs))
	for _, h := range subs {
		targets = append(targets, h)
	}
	r.mu.Unlock()

	for _, h := range targets {
		h(e)
	}
	return len(targets)
}

func (r *registry) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	return out
}

// close drops every handler. It reports false when already closed.
func (r *registry) close() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.closed = true
	r.handlers = make(map[string]map[uint64]Handler)
	return true
}

func (r *registry) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
