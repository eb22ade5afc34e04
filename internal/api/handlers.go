package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"buddyboard/internal/export"
	"buddyboard/internal/models"
	"buddyboard/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	msgBookingNotFound = "Booking not found"
	msgIDRequired      = "ID is required"
	msgReadFailed      = "Failed to read bookings"
	msgCreateFailed    = "Failed to create booking"
	msgUpdateFailed    = "Failed to update booking"
	msgDeleteFailed    = "Failed to delete booking"
	msgExportFailed    = "Failed to export bookings"
	msgDeleted         = "Booking deleted successfully"
	msgInvalidBody     = "Invalid request body"
)

// updateRequest is the PUT body: the target id plus the fields to overwrite.
type updateRequest struct {
	ID string `json:"id"`
	models.BookingPatch
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var input models.NewBookingInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, http.StatusBadRequest, msgInvalidBody)
		return
	}
	trimInput(&input)

	if msg := s.validate.Struct(input); msg != "" {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	booking, err := s.deps.Bookings.Create(r.Context(), input)
	if err != nil {
		s.writeServiceError(w, r, err, msgCreateFailed)
		return
	}

	writeJSON(w, r, http.StatusCreated, booking)
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	filter := models.ListFilter{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		Query:  r.URL.Query().Get("q"),
	}

	bookings, err := s.deps.Bookings.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err, msgReadFailed)
		return
	}

	writeJSON(w, r, http.StatusOK, bookings)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := s.deps.Bookings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err, msgReadFailed)
		return
	}
	writeJSON(w, r, http.StatusOK, booking)
}

func (s *HTTPServer) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, msgInvalidBody)
		return
	}

	booking, err := s.deps.Bookings.Update(r.Context(), strings.TrimSpace(req.ID), req.BookingPatch)
	if err != nil {
		s.writeServiceError(w, r, err, msgUpdateFailed)
		return
	}
	s.audit(r, "update", booking.ID).Str("status", booking.Status).Msg("admin updated booking")

	writeJSON(w, r, http.StatusOK, booking)
}

func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))

	if err := s.deps.Bookings.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, msgDeleteFailed)
		return
	}
	s.audit(r, "delete", id).Msg("admin deleted booking")

	writeJSON(w, r, http.StatusOK, messageResponse{Message: msgDeleted})
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Bookings.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, msgReadFailed)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	filter := models.ListFilter{Status: strings.TrimSpace(r.URL.Query().Get("status"))}
	bookings, err := s.deps.Bookings.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err, msgReadFailed)
		return
	}

	now := s.now()
	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, bookings, now); err != nil {
		s.logger.Error().Err(err).Msg("export bookings")
		writeError(w, r, http.StatusInternalServerError, msgExportFailed)
		return
	}

	s.audit(r, "export", "").Int("count", len(bookings)).Msg("admin exported bookings")
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(now)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *HTTPServer) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, models.DefaultOptionGroups())
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// degradable is implemented by limiters that can fall back to a local store.
type degradable interface {
	Degraded() bool
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Store.Ping(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("readiness check failed")
			writeError(w, r, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	body := map[string]string{"status": "ready"}
	if d, ok := s.deps.Submit.(degradable); ok {
		body["submit_limiter"] = "ok"
		if d.Degraded() {
			body["submit_limiter"] = "degraded"
		}
	}
	writeJSON(w, r, http.StatusOK, body)
}

// writeServiceError maps service sentinels to status codes; anything else is
// logged and reported with the fallback message.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrMissingParameter):
		writeError(w, r, http.StatusBadRequest, msgIDRequired)
	case errors.Is(err, service.ErrValidation):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, r, http.StatusNotFound, msgBookingNotFound)
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, "Unauthorized")
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Str("method", r.Method).Msg(fallback)
		writeError(w, r, http.StatusInternalServerError, fallback)
	}
}

// audit starts an info line attributed to the authenticated admin.
func (s *HTTPServer) audit(r *http.Request, action, bookingID string) *zerolog.Event {
	admin, ok := adminFromContext(r.Context())
	if !ok {
		admin = "anonymous"
	}
	event := s.logger.Info().
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("admin", admin).
		Str("action", action)
	if bookingID != "" {
		event = event.Str("booking_id", bookingID)
	}
	return event
}

func trimInput(in *models.NewBookingInput) {
	for _, f := range []*string{
		&in.FullName, &in.Email, &in.Phone, &in.Company, &in.Website,
		&in.Service, &in.Budget, &in.Timeline, &in.Source,
	} {
		*f = strings.TrimSpace(*f)
	}
}
