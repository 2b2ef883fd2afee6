package realtime

import "context"

// MemoryBus delivers events in-process, synchronously on the publisher's goroutine.
type MemoryBus struct {
	reg *registry
}

// NewMemoryBus creates a single-node bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{reg: newRegistry(nil, nil)}
}

func (b *MemoryBus) Subscribe(topic string, handler Handler) (Unsubscribe, error) {
	return b.reg.subscribe(topic, handler)
}

func (b *MemoryBus) Publish(ctx context.Context, topic string, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.reg.isClosed() {
		return ErrClosed
	}
	b.reg.deliver(topic, event)
	return nil
}

func (b *MemoryBus) Close() error {
	b.reg.close()
	return nil
}

// Topics lists topics with at least one handler.
func (b *MemoryBus) Topics() []string {
	return b.reg.topics()
}
