package models

import (
	"sort"
	"time"
)

// Sender identifies who changed a booking; used in event payloads.
const (
	ChangedBySystem = "system"
	ChangedByAdmin  = "admin"
	ChangedByPublic = "public"
)

// SortBySubmittedDesc orders bookings newest first, the way the dashboard shows them.
// Ties are broken by id so the order is stable across reloads.
func SortBySubmittedDesc(bookings []Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		if bookings[i].SubmittedAt.Equal(bookings[j].SubmittedAt) {
			return bookings[i].ID < bookings[j].ID
		}
		return bookings[i].SubmittedAt.After(bookings[j].SubmittedAt)
	})
}

// Clone returns a deep copy of b.
func (b Booking) Clone() Booking {
	out := b
	if b.UpdatedAt != nil {
		t := *b.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

// Touch sets UpdatedAt to now.
func (b *Booking) Touch(now time.Time) {
	t := now
	b.UpdatedAt = &t
}
