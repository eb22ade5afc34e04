package events

import (
	"encoding/json"
	"sync"
	"time"

	"buddyboard/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	EventBookingCreated = "booking_created"
	EventBookingUpdated = "booking_updated"
	EventBookingDeleted = "booking_deleted"
)

// BookingEventPayload is the booking snapshot handed to subscribers.
// Booking is nil for deletions.
type BookingEventPayload struct {
	BookingID      string          `json:"booking_id"`
	Status         string          `json:"status,omitempty"`
	PreviousStatus string          `json:"previous_status,omitempty"`
	ChangedBy      string          `json:"changed_by,omitempty"`
	At             time.Time       `json:"at"`
	Booking        *models.Booking `json:"booking,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        string
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewEventBus constructs an empty bus. A nil logger discards handler errors.
func NewEventBus(logger *zerolog.Logger) *EventBus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil {
			b.logger.Warn().Err(err).Str("event_type", event.Type).Str("event_id", event.ID).Msg("event handler failed")
		}
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}

	b.Publish(&event)
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{ID: uuid.NewString(), Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
