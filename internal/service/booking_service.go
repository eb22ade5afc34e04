package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"buddyboard/internal/domain"
	"buddyboard/internal/events"
	"buddyboard/internal/metrics"
	"buddyboard/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxIDAttempts = 5

// BookingService implements create/list/update/delete on top of a RecordStore.
// Every mutation is a full load-modify-save cycle serialized by mu, so
// concurrent writers never overwrite each other.
type BookingService struct {
	store    domain.RecordStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

func NewBookingService(store domain.RecordStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

func (s *BookingService) Create(ctx context.Context, input models.NewBookingInput) (*models.Booking, error) {
	booking, err := s.create(ctx, input)
	metrics.IncBookingOp("create", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("booking_id", booking.ID).Str("service", booking.Service).Msg("booking created")
	s.publishEvent(events.EventBookingCreated, booking.ID, "", models.ChangedByPublic, booking)
	return booking, nil
}

func (s *BookingService) create(ctx context.Context, input models.NewBookingInput) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	id, err := s.uniqueID(bookings)
	if err != nil {
		return nil, err
	}

	booking := models.Booking{
		ID:          id,
		FullName:    input.FullName,
		Email:       input.Email,
		Phone:       input.Phone,
		Company:     input.Company,
		Website:     input.Website,
		Service:     input.Service,
		Budget:      input.Budget,
		Timeline:    input.Timeline,
		Source:      input.Source,
		Message:     input.Message,
		Status:      models.StatusPending,
		SubmittedAt: s.now(),
	}

	bookings = append(bookings, booking)
	if err := s.store.Save(ctx, bookings); err != nil {
		return nil, fmt.Errorf("save bookings: %w", err)
	}

	out := booking.Clone()
	return &out, nil
}

func (s *BookingService) uniqueID(bookings []models.Booking) (string, error) {
	taken := make(map[string]struct{}, len(bookings))
	for _, b := range bookings {
		taken[b.ID] = struct{}{}
	}
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if id == "" {
			continue
		}
		if _, exists := taken[id]; !exists {
			return id, nil
		}
	}
	return "", errors.New("could not allocate a unique booking id")
}

// List returns bookings newest first, optionally narrowed by status and a
// case-insensitive query over name, email and company.
func (s *BookingService) List(ctx context.Context, filter models.ListFilter) ([]models.Booking, error) {
	if filter.Status != "" && !models.IsValidStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, filter.Status)
	}

	bookings, err := s.store.Load(ctx)
	metrics.IncBookingOp("list", err)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if query != "" && !matchesQuery(b, query) {
			continue
		}
		out = append(out, b)
	}

	models.SortBySubmittedDesc(out)
	return out, nil
}

func matchesQuery(b models.Booking, query string) bool {
	for _, field := range []string{b.FullName, b.Email, b.Company} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	bookings, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	for _, b := range bookings {
		if b.ID == id {
			out := b.Clone()
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// Update merges the allow-listed patch fields onto the booking and stamps updatedAt.
// An empty id matches nothing and yields ErrNotFound.
func (s *BookingService) Update(ctx context.Context, id string, patch models.BookingPatch) (*models.Booking, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	if patch.Status != nil && !models.IsValidStatus(*patch.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *patch.Status)
	}

	booking, previousStatus, err := s.update(ctx, id, patch)
	metrics.IncBookingOp("update", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("booking_id", id).
		Str("status", booking.Status).
		Str("previous_status", previousStatus).
		Msg("booking updated")
	s.publishEvent(events.EventBookingUpdated, id, previousStatus, models.ChangedByAdmin, booking)
	return booking, nil
}

func (s *BookingService) update(ctx context.Context, id string, patch models.BookingPatch) (*models.Booking, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.store.Load(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("load bookings: %w", err)
	}

	idx := -1
	for i := range bookings {
		if bookings[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, "", ErrNotFound
	}

	previousStatus := bookings[idx].Status
	patch.Apply(&bookings[idx])
	bookings[idx].Touch(s.now())

	if err := s.store.Save(ctx, bookings); err != nil {
		return nil, "", fmt.Errorf("save bookings: %w", err)
	}

	out := bookings[idx].Clone()
	return &out, previousStatus, nil
}

// Delete removes the booking with the given id.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingParameter
	}

	err := s.delete(ctx, id)
	metrics.IncBookingOp("delete", err)
	if err != nil {
		return err
	}

	s.logger.Info().Str("booking_id", id).Msg("booking deleted")
	s.publishEvent(events.EventBookingDeleted, id, "", models.ChangedByAdmin, nil)
	return nil
}

func (s *BookingService) delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}

	filtered := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.ID != id {
			filtered = append(filtered, b)
		}
	}
	if len(filtered) == len(bookings) {
		return ErrNotFound
	}

	if err := s.store.Save(ctx, filtered); err != nil {
		return fmt.Errorf("save bookings: %w", err)
	}
	return nil
}

// Stats counts bookings per status.
func (s *BookingService) Stats(ctx context.Context) (*models.Stats, error) {
	bookings, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	stats := &models.Stats{Total: len(bookings), ByStatus: make(map[string]int, len(models.Statuses))}
	for _, st := range models.Statuses {
		stats.ByStatus[st] = 0
	}
	for _, b := range bookings {
		stats.ByStatus[b.Status]++
	}
	return stats, nil
}

func (s *BookingService) publishEvent(eventType, bookingID, previousStatus, changedBy string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:      bookingID,
		PreviousStatus: previousStatus,
		ChangedBy:      changedBy,
		At:             s.now(),
		Booking:        booking,
	}
	if booking != nil {
		payload.Status = booking.Status
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", bookingID).Msg("publish event error")
	}
}
