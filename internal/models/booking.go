package models

import "time"

// Booking is a single lead submitted through the public form.
// JSON names match the stored file and the wire format of the dashboard.
type Booking struct {
	ID          string     `json:"id"`
	FullName    string     `json:"fullName"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Company     string     `json:"company"`
	Website     string     `json:"website,omitempty"`
	Service     string     `json:"_service"`
	Budget      string     `json:"_budget"`
	Timeline    string     `json:"_timeline"`
	Source      string     `json:"_source"`
	Message     string     `json:"message"`
	Status      string     `json:"status"` // pending, contacted, completed, cancelled
	SubmittedAt time.Time  `json:"submittedAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// NewBookingInput carries the fields a visitor may set on submission.
type NewBookingInput struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Company  string `json:"company" validate:"required"`
	Website  string `json:"website"`
	Service  string `json:"_service"`
	Budget   string `json:"_budget"`
	Timeline string `json:"_timeline"`
	Source   string `json:"_source"`
	Message  string `json:"message"`
}

// BookingPatch lists the fields an admin may overwrite. Nil means "keep".
// id and submittedAt are deliberately absent.
type BookingPatch struct {
	FullName *string `json:"fullName,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Company  *string `json:"company,omitempty"`
	Website  *string `json:"website,omitempty"`
	Service  *string `json:"_service,omitempty"`
	Budget   *string `json:"_budget,omitempty"`
	Timeline *string `json:"_timeline,omitempty"`
	Source   *string `json:"_source,omitempty"`
	Message  *string `json:"message,omitempty"`
	Status   *string `json:"status,omitempty"`
}

// Apply copies every set field onto b.
func (p BookingPatch) Apply(b *Booking) {
	setIf(&b.FullName, p.FullName)
	setIf(&b.Email, p.Email)
	setIf(&b.Phone, p.Phone)
	setIf(&b.Company, p.Company)
	setIf(&b.Website, p.Website)
	setIf(&b.Service, p.Service)
	setIf(&b.Budget, p.Budget)
	setIf(&b.Timeline, p.Timeline)
	setIf(&b.Source, p.Source)
	setIf(&b.Message, p.Message)
	setIf(&b.Status, p.Status)
}

func setIf(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// ListFilter narrows List results. Zero value returns everything.
type ListFilter struct {
	Status string
	Query  string
}

// Stats mirrors the dashboard counters.
type Stats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}
