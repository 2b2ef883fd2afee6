package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBus maps topics one-to-one onto Redis pub/sub channels. A Redis
// SUBSCRIBE is issued for the first local handler of a topic and dropped
// with the last one.
type RedisBus struct {
	client *redis.Client
	reg    *registry
	logger *zap.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	wg     sync.WaitGroup
	once   sync.Once
}

// NewRedisBus creates a bus over client. No connection is opened until the first Subscribe.
func NewRedisBus(client *redis.Client, logger *zap.Logger) *RedisBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &RedisBus{client: client, logger: logger}
	b.reg = newRegistry(b.listen, b.unlisten)
	return b
}

func (b *RedisBus) Subscribe(topic string, handler Handler) (Unsubscribe, error) {
	return b.reg.subscribe(topic, handler)
}

func (b *RedisBus) Publish(ctx context.Context, topic string, event Event) error {
	if b.reg.isClosed() {
		return ErrClosed
	}
	payload, err := encode(topic, event)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	return nil
}

func (b *RedisBus) Close() error {
	var err error
	b.once.Do(func() {
		b.reg.close()
		b.mu.Lock()
		ps := b.pubsub
		b.pubsub = nil
		b.mu.Unlock()
		if ps != nil {
			err = ps.Close()
		}
		b.wg.Wait()
	})
	return err
}

func (b *RedisBus) listen(topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx := context.Background()
	if b.pubsub == nil {
		ps := b.client.Subscribe(ctx, topic)
		if _, err := ps.Receive(ctx); err != nil {
			_ = ps.Close()
			return fmt.Errorf("redis subscribe %s: %w", topic, err)
		}
		b.pubsub = ps
		b.wg.Add(1)
		go b.loop(ps)
		return nil
	}
	if err := b.pubsub.Subscribe(ctx, topic); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", topic, err)
	}
	return nil
}

func (b *RedisBus) unlisten(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pubsub == nil {
		return
	}
	if err := b.pubsub.Unsubscribe(context.Background(), topic); err != nil {
		b.logger.Warn("redis unsubscribe failed", zap.String("topic", topic), zap.Error(err))
	}
}

func (b *RedisBus) loop(ps *redis.PubSub) {
	defer b.wg.Done()
	for msg := range ps.Channel() {
		env, err := decode([]byte(msg.Payload))
		if err != nil {
			b.logger.Warn("dropping malformed message", zap.String("channel", msg.Channel), zap.Error(err))
			continue
		}
		b.reg.deliver(msg.Channel, env.Event)
	}
}
