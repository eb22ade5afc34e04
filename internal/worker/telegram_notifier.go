package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"buddyboard/internal/domain"
	"buddyboard/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier posts new leads to the manager chats.
type TelegramNotifier struct {
	sender  domain.TelegramSender
	chatIDs []int64
}

func NewTelegramNotifier(sender domain.TelegramSender, chatIDs []int64) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatIDs: chatIDs}
}

func (n *TelegramNotifier) Name() string { return "telegram" }

// NotifyBooking sends to every chat and joins the errors.
func (n *TelegramNotifier) NotifyBooking(ctx context.Context, booking *models.Booking) error {
	text := FormatBookingMessage(booking)

	var errs []error
	for _, chatID := range n.chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, text)
		msg.DisableWebPagePreview = true
		if _, err := n.sender.Send(msg); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

// FormatBookingMessage renders a lead as plain text with option labels resolved.
func FormatBookingMessage(b *models.Booking) string {
	var sb strings.Builder
	sb.WriteString("📩 Новая заявка\n\n")
	fmt.Fprintf(&sb, "Name: %s\n", b.FullName)
	fmt.Fprintf(&sb, "Email: %s\n", b.Email)
	fmt.Fprintf(&sb, "Phone: %s\n", b.Phone)
	fmt.Fprintf(&sb, "Company: %s\n", b.Company)
	if b.Website != "" {
		fmt.Fprintf(&sb, "Website: %s\n", b.Website)
	}
	fmt.Fprintf(&sb, "Service: %s\n", models.OptionLabel("_service", b.Service))
	fmt.Fprintf(&sb, "Budget: %s\n", models.OptionLabel("_budget", b.Budget))
	fmt.Fprintf(&sb, "Timeline: %s\n", models.OptionLabel("_timeline", b.Timeline))
	fmt.Fprintf(&sb, "Source: %s\n", models.OptionLabel("_source", b.Source))
	if b.Message != "" {
		fmt.Fprintf(&sb, "\n%s\n", b.Message)
	}
	fmt.Fprintf(&sb, "\nID: %s", b.ID)
	return sb.String()
}
