package worker

import (
	"context"

	"buddyboard/internal/domain"
	"buddyboard/internal/models"
)

// SheetsNotifier appends new leads as rows of a spreadsheet.
type SheetsNotifier struct {
	writer domain.SheetsWriter
}

func NewSheetsNotifier(writer domain.SheetsWriter) *SheetsNotifier {
	return &SheetsNotifier{writer: writer}
}

func (n *SheetsNotifier) Name() string { return "sheets" }

func (n *SheetsNotifier) NotifyBooking(ctx context.Context, booking *models.Booking) error {
	return n.writer.AppendBooking(ctx, booking)
}
