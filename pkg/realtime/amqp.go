package realtime

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPChannel is the subset of *amqp.Channel the AMQP bus needs.
type AMQPChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	QueueUnbind(name, key, exchange string, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPBus publishes to a topic exchange with the topic as routing key. Each
// node consumes from its own exclusive queue and binds one routing key per
// topic that has local handlers.
type AMQPBus struct {
	conn     *amqp.Connection
	ch       AMQPChannel
	exchange string
	queue    string
	reg      *registry
	logger   *zap.Logger

	publishMu sync.Mutex
	wg        sync.WaitGroup
	once      sync.Once
}

// DialAMQP connects to uri and builds a bus on a fresh channel.
func DialAMQP(uri, exchange string, logger *zap.Logger) (*AMQPBus, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	bus, err := NewAMQPBus(ch, exchange, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	bus.conn = conn
	return bus, nil
}

// NewAMQPBus declares the exchange and the node's queue and starts consuming.
func NewAMQPBus(ch AMQPChannel, exchange string, logger *zap.Logger) (*AMQPBus, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", q.Name, err)
	}

	b := &AMQPBus{ch: ch, exchange: exchange, queue: q.Name, logger: logger}
	b.reg = newRegistry(b.bind, b.unbind)
	b.wg.Add(1)
	go b.loop(deliveries)
	return b, nil
}

func (b *AMQPBus) Subscribe(topic string, handler Handler) (Unsubscribe, error) {
	return b.reg.subscribe(topic, handler)
}

func (b *AMQPBus) Publish(ctx context.Context, topic string, event Event) error {
	if b.reg.isClosed() {
		return ErrClosed
	}
	payload, err := encode(topic, event)
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishing.
	b.publishMu.Lock()
	defer b.publishMu.Unlock()
	err = b.ch.PublishWithContext(ctx, b.exchange, topic, false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   event.ID,
		Timestamp:   event.OccurredAt,
		Type:        string(event.Type),
		Body:        payload,
	})
	if err != nil {
		return fmt.Errorf("amqp publish %s: %w", topic, err)
	}
	return nil
}

func (b *AMQPBus) Close() error {
	var err error
	b.once.Do(func() {
		b.reg.close()
		err = b.ch.Close()
		if b.conn != nil {
			if cerr := b.conn.Close(); err == nil {
				err = cerr
			}
		}
		b.wg.Wait()
	})
	return err
}

func (b *AMQPBus) bind(topic string) error {
	if err := b.ch.QueueBind(b.queue, topic, b.exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", topic, err)
	}
	return nil
}

func (b *AMQPBus) unbind(topic string) {
	if err := b.ch.QueueUnbind(b.queue, topic, b.exchange, nil); err != nil {
		b.logger.Warn("amqp unbind failed", zap.String("topic", topic), zap.Error(err))
	}
}

func (b *AMQPBus) loop(deliveries <-chan amqp.Delivery) {
	defer b.wg.Done()
	for d := range deliveries {
		env, err := decode(d.Body)
		if err != nil {
			b.logger.Warn("dropping malformed delivery", zap.String("routing_key", d.RoutingKey), zap.Error(err))
			continue
		}
		b.reg.deliver(d.RoutingKey, env.Event)
	}
}
