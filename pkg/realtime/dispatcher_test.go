package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyBus struct {
	*MemoryBus
	mu       sync.Mutex
	failures int
}

func (b *flakyBus) Publish(ctx context.Context, topic string, e Event) error {
	b.mu.Lock()
	if b.failures > 0 {
		b.failures--
		b.mu.Unlock()
		return errors.New("transient")
	}
	b.mu.Unlock()
	return b.MemoryBus.Publish(ctx, topic, e)
}

func TestDispatcherRetriesPublish(t *testing.T) {
	bus := &flakyBus{MemoryBus: NewMemoryBus(), failures: 1}
	got := make(chan Event, 1)
	_, err := bus.Subscribe(Topic(TableAvailability, "t1"), func(e Event) { got <- e })
	require.NoError(t, err)

	d := NewEventDispatcher(bus, DispatcherConfig{Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond}, nil)
	d.Start(context.Background())
	defer d.Stop()

	ev, err := NewEvent(TableAvailability, OpUpdate, "t1", "p1", nil)
	require.NoError(t, err)
	require.NoError(t, d.Dispatch(context.Background(), ev))

	select {
	case e := <-got:
		assert.Equal(t, ev.ID, e.ID)
	case <-time.After(time.Second):
		t.Fatal("event not published")
	}
	assert.Eventually(t, func() bool { return d.Stats().Retried == 1 }, time.Second, time.Millisecond)
}

func TestDispatchBeforeStartFails(t *testing.T) {
	d := NewEventDispatcher(NewMemoryBus(), DispatcherConfig{}, nil)
	assert.Error(t, d.Dispatch(context.Background(), Event{}))
}
