package realtime

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduling-api/pkg/jobs"
)

const jobTypePublish = "realtime.publish"

// DispatcherConfig tunes the publish queue.
type DispatcherConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// EventDispatcher publishes events off the request path with retries.
type EventDispatcher struct {
	bus    Bus
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewEventDispatcher wires a jobs.Queue whose handler publishes to bus.
func NewEventDispatcher(bus Bus, cfg DispatcherConfig, logger *zap.Logger) *EventDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &EventDispatcher{bus: bus, logger: logger}
	d.queue = jobs.NewQueue("realtime-dispatch", d.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return d
}

func (d *EventDispatcher) Start(ctx context.Context) { d.queue.Start(ctx) }
func (d *EventDispatcher) Stop()                     { d.queue.Stop() }

// Stats exposes the queue counters.
func (d *EventDispatcher) Stats() jobs.Stats { return d.queue.Stats() }

// Dispatch queues e for publication on its topic. It never blocks; a full
// queue is reported to the caller, who has already committed the change.
func (d *EventDispatcher) Dispatch(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.queue.TryEnqueue(jobs.Job{ID: e.ID, Type: jobTypePublish, Payload: e}); err != nil {
		d.logger.Warn("event not queued", zap.String("topic", e.Topic()), zap.Error(err))
		return err
	}
	return nil
}

func (d *EventDispatcher) handle(ctx context.Context, job jobs.Job) error {
	e, ok := job.Payload.(Event)
	if !ok {
		d.logger.Error("unexpected job payload", zap.String("job_id", job.ID), zap.String("type", fmt.Sprintf("%T", job.Payload)))
		return nil
	}
	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return d.bus.Publish(publishCtx, e.Topic(), e)
}
