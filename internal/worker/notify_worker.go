package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"buddyboard/internal/domain"
	"buddyboard/internal/events"
	"buddyboard/internal/metrics"
	"buddyboard/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrQueueFull is returned by HandleEvent when the buffer is saturated.
var ErrQueueFull = errors.New("notification queue is full")

const (
	deadLetterKey = "notify:deadletter"
	sheetsChannel = "sheets_sync"
)

// NotifyTask is one booking event waiting to be delivered.
type NotifyTask struct {
	Event      string          `json:"event"`
	BookingID  string          `json:"booking_id"`
	Booking    *models.Booking `json:"booking,omitempty"`
	At         time.Time       `json:"at"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// deadLetter is what lands in Redis after every retry failed.
type deadLetter struct {
	Channel  string     `json:"channel"`
	Error    string     `json:"error"`
	Attempts int        `json:"attempts"`
	Task     NotifyTask `json:"task"`
}

// NotifyWorker fans new bookings out to every configured notifier and keeps
// the spreadsheet mirror in step with updates and deletions.
// Each channel gets its own retry budget.
type NotifyWorker struct {
	notifiers   []domain.Notifier
	sheets      domain.SheetsWriter
	redis       *redis.Client
	retryPolicy RetryPolicy
	queue       chan NotifyTask
	logger      *zerolog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewNotifyWorker fills unset retry fields from DefaultRetryPolicy. redisClient may be nil;
// then exhausted tasks are only logged.
func NewNotifyWorker(notifiers []domain.Notifier, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *NotifyWorker {
	retry = retry.withDefaults()
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &NotifyWorker{
		notifiers:   notifiers,
		redis:       redisClient,
		retryPolicy: retry,
		queue:       make(chan NotifyTask, models.WorkerQueueSize),
		logger:      logger,
		sleep:       sleepContext,
	}
}

// WithSheetsSync enables mirroring of status changes and deletions.
func (w *NotifyWorker) WithSheetsSync(writer domain.SheetsWriter) *NotifyWorker {
	w.sheets = writer
	return w
}

// Subscribe hooks the worker to booking events.
func (w *NotifyWorker) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, w.HandleEvent)
	bus.Subscribe(events.EventBookingUpdated, w.HandleEvent)
	bus.Subscribe(events.EventBookingDeleted, w.HandleEvent)
}

// HandleEvent decodes a booking event and enqueues it.
func (w *NotifyWorker) HandleEvent(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}

	task := NotifyTask{
		Event:     event.Type,
		BookingID: payload.BookingID,
		Booking:   payload.Booking,
		At:        payload.At,
	}
	switch event.Type {
	case events.EventBookingCreated, events.EventBookingUpdated:
		if payload.Booking == nil {
			return fmt.Errorf("event %s has no booking", event.ID)
		}
		task.BookingID = payload.Booking.ID
	case events.EventBookingDeleted:
		if payload.BookingID == "" {
			return fmt.Errorf("event %s has no booking id", event.ID)
		}
	default:
		return fmt.Errorf("unsupported event type: %s", event.Type)
	}
	return w.enqueue(task)
}

// enqueue never blocks the publisher.
func (w *NotifyWorker) enqueue(task NotifyTask) error {
	if !w.handles(task.Event) {
		return nil
	}

	task.EnqueuedAt = time.Now()
	select {
	case w.queue <- task:
		return nil
	default:
		w.logger.Warn().Str("booking_id", task.BookingID).Str("event", task.Event).Msg("notify queue full, task dropped")
		return ErrQueueFull
	}
}

func (w *NotifyWorker) handles(event string) bool {
	if event == events.EventBookingCreated {
		return len(w.notifiers) > 0
	}
	return w.sheets != nil
}

// Start processes tasks until ctx is done.
func (w *NotifyWorker) Start(ctx context.Context) {
	w.logger.Info().Int("notifiers", len(w.notifiers)).Bool("sheets_sync", w.sheets != nil).Msg("notify worker started")
	defer w.logger.Info().Msg("notify worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-w.queue:
			w.processTask(ctx, &task)
		}
	}
}

func (w *NotifyWorker) processTask(ctx context.Context, task *NotifyTask) {
	switch task.Event {
	case events.EventBookingCreated:
		for _, n := range w.notifiers {
			n := n
			w.run(ctx, n.Name(), task, func(ctx context.Context) error {
				return n.NotifyBooking(ctx, task.Booking)
			})
		}
	case events.EventBookingUpdated:
		w.run(ctx, sheetsChannel, task, func(ctx context.Context) error {
			return w.sheets.UpdateBookingRow(ctx, task.Booking)
		})
	case events.EventBookingDeleted:
		w.run(ctx, sheetsChannel, task, func(ctx context.Context) error {
			return w.sheets.DeleteBookingRow(ctx, task.BookingID)
		})
	default:
		w.logger.Warn().Str("event", task.Event).Msg("unknown task event")
	}
}

func (w *NotifyWorker) run(ctx context.Context, channel string, task *NotifyTask, fn func(context.Context) error) {
	attempts, err := w.withRetry(ctx, channel, fn)
	if err == nil {
		w.logger.Debug().Str("channel", channel).Str("booking_id", task.BookingID).Msg("notification delivered")
		return
	}
	if ctx.Err() != nil {
		return
	}

	w.logger.Error().
		Err(err).
		Str("channel", channel).
		Str("booking_id", task.BookingID).
		Int("attempts", attempts).
		Msg("notification failed")
	w.pushDeadLetter(ctx, channel, attempts, err, task)
}

func (w *NotifyWorker) withRetry(ctx context.Context, channel string, fn func(context.Context) error) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		lastErr = fn(ctx)
		metrics.IncNotification(channel, lastErr)
		if lastErr == nil {
			return attempt, nil
		}
		if attempt == w.retryPolicy.MaxRetries {
			break
		}

		delay := w.retryPolicy.NextDelay(attempt)
		w.logger.Warn().
			Err(lastErr).
			Str("channel", channel).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Msg("notification attempt failed")
		if err := w.sleep(ctx, delay); err != nil {
			return attempt, err
		}
	}
	return w.retryPolicy.MaxRetries, lastErr
}

func (w *NotifyWorker) pushDeadLetter(ctx context.Context, channel string, attempts int, cause error, task *NotifyTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(deadLetter{Channel: channel, Error: cause.Error(), Attempts: attempts, Task: *task})
	if err != nil {
		w.logger.Error().Err(err).Str("booking_id", task.BookingID).Msg("encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Str("booking_id", task.BookingID).Msg("deadletter push")
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
