package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Z3r0J/togetherly-backend-sub000/pkg/mylogger"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/outbox/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OutboxRepository interface {
	Save(ctx context.Context, event *domain.OutboxEvent) error
	FindPending(ctx context.Context, batchSize int, now time.Time) ([]*domain.OutboxEvent, error)
	MarkProcessing(ctx context.Context, eventID int64) error
	MarkCompleted(ctx context.Context, eventID int64) error
	MarkFailed(ctx context.Context, eventID int64, errMsg string) error
	IncrementRetry(ctx context.Context, eventID int64, errMsg string) error
}

// HandlerFunc consumes one outbox event payload. A non-nil error puts
// the event back on the queue until its retry budget runs out.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Dispatcher is the single consumer of the outbox table. It polls on a
// fixed interval, claims a FIFO batch of due pending events and hands
// each one to the handler registered for its event type. Running two
// dispatchers against the same table is not supported: nothing prevents
// both from claiming the same row between fetch and mark-processing.
type Dispatcher struct {
	repo      OutboxRepository
	logger    *zap.Logger
	handlers  map[string]HandlerFunc
	batchSize int
	interval  time.Duration
	now       func() time.Time
	tracer    trace.Tracer
	stopCh    chan struct{}
	doneCh    chan struct{}
}

func NewDispatcher(repo OutboxRepository, logger *zap.Logger, interval time.Duration, batchSize int) *Dispatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 10
	}

	return &Dispatcher{
		repo:      repo,
		logger:    logger,
		handlers:  make(map[string]HandlerFunc),
		batchSize: batchSize,
		interval:  interval,
		now:       time.Now,
		tracer:    otel.Tracer("outbox-worker"),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

func (d *Dispatcher) RegisterHandler(eventType string, handler HandlerFunc) {
	d.handlers[eventType] = handler
}

// Start runs the poll loop until the context is cancelled or Stop is
// called. Register all handlers before starting.
func (d *Dispatcher) Start(ctx context.Context) {
	mylogger.Info(
		ctx,
		d.logger,
		"Starting outbox dispatcher",
		zap.Duration("interval", d.interval),
		zap.Int("batch_size", d.batchSize),
	)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	defer close(d.doneCh)

	for {
		select {
		case <-ctx.Done():
			mylogger.Info(ctx, d.logger, "Outbox dispatcher stopping")

			return
		case <-d.stopCh:
			mylogger.Info(ctx, d.logger, "Outbox dispatcher stopped")

			return
		case <-ticker.C:
			if err := d.processBatch(ctx); err != nil {
				mylogger.Error(
					ctx,
					d.logger,
					"Error processing outbox batch",
					zap.Error(err),
				)
			}
		}
	}
}

// Stop halts future polls. The in-flight batch, if any, runs to
// completion.
func (d *Dispatcher) Stop() {
	close(d.stopCh)
	<-d.doneCh
}

func (d *Dispatcher) processBatch(ctx context.Context) error {
	ctx, span := d.tracer.Start(ctx, "Dispatcher.processBatch")
	defer span.End()

	events, err := d.repo.FindPending(ctx, d.batchSize, d.now())
	if err != nil {
		return fmt.Errorf("failed to fetch pending events: %w", err)
	}

	if len(events) == 0 {
		return nil
	}

	mylogger.Info(
		ctx,
		d.logger,
		"Processing outbox events",
		zap.Int("count", len(events)),
	)

	for _, event := range events {
		d.processEvent(ctx, event)
	}

	return nil
}

func (d *Dispatcher) processEvent(ctx context.Context, event *domain.OutboxEvent) {
	ctx, span := d.tracer.Start(ctx, "Dispatcher.processEvent")
	defer span.End()

	if err := d.repo.MarkProcessing(ctx, event.Id); err != nil {
		mylogger.Error(
			ctx,
			d.logger,
			"outbox dispatcher mark processing failed",
			zap.Int64("id", event.Id),
			zap.Error(err),
		)

		return
	}

	handler, ok := d.handlers[event.EventType]
	if !ok {
		mylogger.Error(
			ctx,
			d.logger,
			"outbox dispatcher has no handler for event type",
			zap.Int64("id", event.Id),
			zap.String("event_type", event.EventType),
		)

		if err := d.repo.MarkFailed(ctx, event.Id, fmt.Sprintf("no handler for event type %q", event.EventType)); err != nil {
			mylogger.Error(
				ctx,
				d.logger,
				"outbox dispatcher mark failed failed",
				zap.Int64("id", event.Id),
				zap.Error(err),
			)
		}

		return
	}

	if err := handler(ctx, event.Payload); err != nil {
		span.RecordError(err)

		mylogger.Warn(
			ctx,
			d.logger,
			"outbox handler failed",
			zap.Int64("id", event.Id),
			zap.String("event_type", event.EventType),
			zap.Int("retry_count", event.RetryCount),
			zap.Error(err),
		)

		if dbErr := d.repo.IncrementRetry(ctx, event.Id, err.Error()); dbErr != nil {
			mylogger.Error(
				ctx,
				d.logger,
				"outbox dispatcher increment retry failed",
				zap.Int64("id", event.Id),
				zap.Error(dbErr),
			)
		}

		return
	}

	if err := d.repo.MarkCompleted(ctx, event.Id); err != nil {
		mylogger.Error(
			ctx,
			d.logger,
			"outbox dispatcher mark completed failed",
			zap.Int64("id", event.Id),
			zap.Error(err),
		)

		return
	}

	mylogger.Debug(
		ctx,
		d.logger,
		"outbox event processed",
		zap.Int64("id", event.Id),
		zap.String("event_type", event.EventType),
	)
}
