package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// pg_notify rejects payloads of 8000 bytes or more.
const maxNotifyPayload = 7999

// Listener is the subset of *pq.Listener the Postgres bus needs.
type Listener interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Close() error
}

// NewPQListener opens a reconnecting LISTEN connection and logs its state changes.
func NewPQListener(dsn string, logger *zap.Logger) *pq.Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			logger.Info("pg listener connected")
		case pq.ListenerEventDisconnected:
			logger.Warn("pg listener disconnected", zap.Error(err))
		case pq.ListenerEventReconnected:
			logger.Info("pg listener reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			logger.Warn("pg listener connect failed", zap.Error(err))
		}
	})
}

// PostgresBus fans events out over a single LISTEN/NOTIFY channel. Every
// node receives every notification and filters by topic locally, so
// database triggers can publish by calling pg_notify with the same envelope.
type PostgresBus struct {
	db       *sqlx.DB
	listener Listener
	channel  string
	reg      *registry
	logger   *zap.Logger

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewPostgresBus starts listening on channel and dispatching notifications.
func NewPostgresBus(db *sqlx.DB, listener Listener, channel string, logger *zap.Logger) (*PostgresBus, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := listener.Listen(channel); err != nil {
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}

	b := &PostgresBus{
		db:       db,
		listener: listener,
		channel:  channel,
		reg:      newRegistry(nil, nil),
		logger:   logger,
		done:     make(chan struct{}),
	}
	b.wg.Add(1)
	go b.loop()
	return b, nil
}

func (b *PostgresBus) Subscribe(topic string, handler Handler) (Unsubscribe, error) {
	return b.reg.subscribe(topic, handler)
}

func (b *PostgresBus) Publish(ctx context.Context, topic string, event Event) error {
	if b.reg.isClosed() {
		return ErrClosed
	}
	payload, err := encode(topic, event)
	if err != nil {
		return err
	}
	if len(payload) > maxNotifyPayload {
		event.Payload = nil
		if payload, err = encode(topic, event); err != nil {
			return err
		}
	}
	if _, err := b.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", b.channel, string(payload)); err != nil {
		return fmt.Errorf("pg_notify %s: %w", topic, err)
	}
	return nil
}

func (b *PostgresBus) Close() error {
	var err error
	b.once.Do(func() {
		b.reg.close()
		close(b.done)
		err = b.listener.Close()
		b.wg.Wait()
	})
	return err
}

func (b *PostgresBus) loop() {
	defer b.wg.Done()
	notifications := b.listener.NotificationChannel()
	for {
		select {
		case <-b.done:
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			if n == nil {
				// Sent after a reconnect; notifications may have been lost meanwhile.
				b.logger.Warn("pg listener resynchronised", zap.String("channel", b.channel))
				continue
			}
			env, err := decode([]byte(n.Extra))
			if err != nil {
				b.logger.Warn("dropping malformed notification", zap.String("channel", n.Channel), zap.Error(err))
				continue
			}
			b.reg.deliver(env.Topic, env.Event)
		}
	}
}
