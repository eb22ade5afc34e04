package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"buddyboard/internal/service"
)

type ctxKey int

const adminSubjectKey ctxKey = iota

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

func (s *HTTPServer) handleAuth(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if msg := s.validate.Struct(req); msg != "" {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	token, err := s.deps.Auth.Authenticate(req.Username, req.Password)
	if errors.Is(err, service.ErrUnauthorized) {
		writeError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("authentication failed")
		writeError(w, r, http.StatusInternalServerError, "Authentication failed")
		return
	}

	writeJSON(w, r, http.StatusOK, loginResponse{Success: true, Token: token})
}

// requireAdmin rejects requests without a valid bearer token.
func (s *HTTPServer) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Auth.Disabled {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		subject, err := s.deps.Auth.Validate(token)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), adminSubjectKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// adminFromContext returns the authenticated admin name, if any.
func adminFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(adminSubjectKey).(string)
	return subject, ok
}
