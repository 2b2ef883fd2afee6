package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAMQPChannel struct {
	mu         sync.Mutex
	bindings   map[string]bool
	deliveries chan amqp.Delivery
	published  []amqp.Publishing
	closeOnce  sync.Once
}

func newFakeAMQPChannel() *fakeAMQPChannel {
	return &fakeAMQPChannel{bindings: map[string]bool{}, deliveries: make(chan amqp.Delivery, 4)}
}

func (c *fakeAMQPChannel) ExchangeDeclare(string, string, bool, bool, bool, bool, amqp.Table) error {
	return nil
}

func (c *fakeAMQPChannel) QueueDeclare(string, bool, bool, bool, bool, amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{Name: "amq.gen-test"}, nil
}

func (c *fakeAMQPChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[key] = true
	return nil
}

func (c *fakeAMQPChannel) QueueUnbind(name, key, exchange string, args amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bindings, key)
	return nil
}

func (c *fakeAMQPChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return c.deliveries, nil
}

func (c *fakeAMQPChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.mu.Lock()
	c.published = append(c.published, msg)
	c.mu.Unlock()
	c.deliveries <- amqp.Delivery{RoutingKey: key, Body: msg.Body}
	return nil
}

func (c *fakeAMQPChannel) Close() error {
	c.closeOnce.Do(func() { close(c.deliveries) })
	return nil
}

func (c *fakeAMQPChannel) bound(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bindings[key]
}

func TestAMQPBusBindsPerTopic(t *testing.T) {
	ch := newFakeAMQPChannel()
	bus, err := NewAMQPBus(ch, "scheduling.changes", nil)
	require.NoError(t, err)

	received := make(chan Event, 1)
	unsub, err := bus.Subscribe("teacher_availability:t1", func(e Event) { received <- e })
	require.NoError(t, err)
	assert.True(t, ch.bound("teacher_availability:t1"))

	ev, err := NewEvent(TableAvailability, OpInsert, "t1", "p9", nil)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), ev.Topic(), ev))

	select {
	case got := <-received:
		assert.Equal(t, "p9", got.RecordID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	require.Len(t, ch.published, 1)
	assert.Equal(t, ev.ID, ch.published[0].MessageId)

	unsub()
	assert.False(t, ch.bound("teacher_availability:t1"))
	require.NoError(t, bus.Close())
}
