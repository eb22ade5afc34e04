package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"buddyboard/internal/config"
	"buddyboard/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the HTTP layer calls into.
type Deps struct {
	Bookings domain.BookingService
	Auth     domain.AuthService
	Submit   domain.SubmitLimiter
	Store    domain.RecordStore
}

// HTTPServer exposes the booking API.
type HTTPServer struct {
	cfg      config.APIConfig
	deps     Deps
	logger   *zerolog.Logger
	login    *rateLimiter
	server   *http.Server
	now      func() time.Time
	handler  http.Handler
	validate *requestValidator
}

func NewHTTPServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	srv := &HTTPServer{
		cfg:      cfg,
		deps:     deps,
		logger:   logger,
		login:    newRateLimiter(cfg.RateLimit),
		now:      time.Now,
		validate: newRequestValidator(),
	}
	srv.handler = srv.routes()

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return srv
}

func (s *HTTPServer) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.cfg.HTTP.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)
	if len(s.cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.With(s.limitLogin).Post("/auth", s.handleAuth)
		r.Get("/options", s.handleOptions)

		r.Route("/bookings", func(r chi.Router) {
			r.With(s.limitSubmit).Post("/", s.handleCreateBooking)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/", s.handleListBookings)
				r.Put("/", s.handleUpdateBooking)
				r.Delete("/", s.handleDeleteBooking)
				r.Get("/stats", s.handleStats)
				r.Get("/export", s.handleExport)
				r.Get("/{id}", s.handleGetBooking)
			})
		})
	})

	return r
}

// Handler returns the root handler; used by tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
