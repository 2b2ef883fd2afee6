package realtime

import (
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ChannelName is the logical channel shared by all watchers of one teacher.
func ChannelName(teacherID string) string {
	return "teacher-availability-" + teacherID
}

// ChannelRegistry multiplexes per-teacher watchers onto bus subscriptions.
// The first watcher of a teacher opens a channel that listens on both the
// availability and the enrollment topics; the last one to leave tears it down.
type ChannelRegistry struct {
	bus    Bus
	logger *zap.Logger

	mu       sync.Mutex
	channels map[string]*teacherChannel
	// subscriber ids are registry-wide so a handle from a closed channel never
	// matches a subscriber of its replacement
	nextID uint64

	delivered atomic.Uint64
}

type teacherChannel struct {
	name        string
	subscribers map[uint64]Handler
	detach      []Unsubscribe
}

// NewChannelRegistry builds a registry over bus.
func NewChannelRegistry(bus Bus, logger *zap.Logger) *ChannelRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChannelRegistry{bus: bus, logger: logger, channels: make(map[string]*teacherChannel)}
}

// Subscribe registers onUpdate for every change touching teacherID. The
// teacher id is not validated here. The returned function is idempotent;
// events already being dispatched when it runs may still arrive.
func (r *ChannelRegistry) Subscribe(teacherID string, onUpdate Handler) (func(), error) {
	if onUpdate == nil {
		return nil, errors.New("realtime: nil update handler")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[teacherID]
	if !ok {
		opened, err := r.open(teacherID)
		if err != nil {
			return nil, err
		}
		ch = opened
		r.channels[teacherID] = ch
	}
	r.nextID++
	id := r.nextID
	ch.subscribers[id] = onUpdate

	var once sync.Once
	return func() {
		once.Do(func() { r.leave(teacherID, id) })
	}, nil
}

func (r *ChannelRegistry) open(teacherID string) (*teacherChannel, error) {
	ch := &teacherChannel{name: ChannelName(teacherID), subscribers: make(map[uint64]Handler)}
	for _, table := range []string{TableAvailability, TableEnrollments} {
		unsub, err := r.bus.Subscribe(Topic(table, teacherID), func(e Event) { r.fanOut(teacherID, e) })
		if err != nil {
			for _, d := range ch.detach {
				d()
			}
			return nil, err
		}
		ch.detach = append(ch.detach, unsub)
	}
	r.logger.Debug("channel opened", zap.String("channel", ch.name))
	return ch, nil
}

func (r *ChannelRegistry) leave(teacherID string, id uint64) {
	r.mu.Lock()
	ch, ok := r.channels[teacherID]
	if !ok {
		r.mu.Unlock()
		return
	}
	if _, member := ch.subscribers[id]; !member {
		r.mu.Unlock()
		return
	}
	delete(ch.subscribers, id)
	var detach []Unsubscribe
	if len(ch.subscribers) == 0 {
		delete(r.channels, teacherID)
		detach = ch.detach
	}
	r.mu.Unlock()

	for _, d := range detach {
		d()
	}
	if detach != nil {
		r.logger.Debug("channel closed", zap.String("channel", ch.name))
	}
}

func (r *ChannelRegistry) fanOut(teacherID string, e Event) {
	r.mu.Lock()
	ch, ok := r.channels[teacherID]
	var targets []Handler
	if ok {
		targets = make([]Handler, 0, len(ch.subscribers))
		for _, h := range ch.subscribers {
			targets = append(targets, h)
		}
	}
	r.mu.Unlock()

	for _, h := range targets {
		h(e)
	}
	r.delivered.Add(uint64(len(targets)))
}

// ActiveChannels is the number of open teacher channels.
func (r *ChannelRegistry) ActiveChannels() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}

// SubscriberCount is the number of watchers of teacherID.
func (r *ChannelRegistry) SubscriberCount(teacherID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.channels[teacherID]; ok {
		return len(ch.subscribers)
	}
	return 0
}

// TotalSubscribers sums watchers across channels.
func (r *ChannelRegistry) TotalSubscribers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, ch := range r.channels {
		total += len(ch.subscribers)
	}
	return total
}

// Delivered counts handler invocations since start.
func (r *ChannelRegistry) Delivered() uint64 {
	return r.delivered.Load()
}

// Close detaches every channel. Outstanding unsubscribe functions become no-ops.
func (r *ChannelRegistry) Close() {
	r.mu.Lock()
	channels := r.channels
	r.channels = make(map[string]*teacherChannel)
	r.mu.Unlock()

	for _, ch := range channels {
		for _, d := range ch.detach {
			d()
		}
	}
}
