package domain

import (
	"context"
	"time"

	"buddyboard/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// RecordStore persists the whole booking collection as one unit.
type RecordStore interface {
	Load(ctx context.Context) ([]models.Booking, error)
	Save(ctx context.Context, bookings []models.Booking) error
	Ping(ctx context.Context) error
	Close() error
}

type BookingService interface {
	Create(ctx context.Context, input models.NewBookingInput) (*models.Booking, error)
	List(ctx context.Context, filter models.ListFilter) ([]models.Booking, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
	Update(ctx context.Context, id string, patch models.BookingPatch) (*models.Booking, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.Stats, error)
}

type AuthService interface {
	Authenticate(username, password string) (string, error)
	Validate(token string) (string, error)
}

// SubmitLimiter counts public form submissions per client key.
type SubmitLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Notifier delivers a fresh lead to an outside channel.
type Notifier interface {
	Name() string
	NotifyBooking(ctx context.Context, booking *models.Booking) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SheetsWriter mirrors bookings into a spreadsheet, one row per booking.
type SheetsWriter interface {
	AppendBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingRow(ctx context.Context, booking *models.Booking) error
	DeleteBookingRow(ctx context.Context, bookingID string) error
}
