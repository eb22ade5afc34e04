package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"buddyboard/internal/api"
	"buddyboard/internal/config"
	"buddyboard/internal/database"
	"buddyboard/internal/domain"
	"buddyboard/internal/events"
	"buddyboard/internal/google"
	"buddyboard/internal/logging"
	"buddyboard/internal/metrics"
	"buddyboard/internal/repository"
	"buddyboard/internal/service"
	"buddyboard/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const limiterSweepInterval = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config.yaml (default $CONFIG_PATH or configs/config.yaml)")
	flag.Parse()

	cfg, logger, closer, err := loadConfigAndLogger(*configPath)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	store, err := database.Open(cfg.Storage, logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Storage.Driver).Str("path", cfg.Storage.Path).Msg("open store")
		return err
	}
	defer store.Close()
	logger.Info().Str("driver", cfg.Storage.Driver).Str("path", cfg.Storage.Path).Msg("record store ready")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}
	submitLimiter := initSubmitLimiter(ctx, redisClient, logger)

	eventBus := events.NewEventBus(logging.Component(logger, "events"))
	bookingService := service.NewBookingService(store, eventBus, logging.Component(logger, "bookings"))
	authService := service.NewAuthService(cfg.API.Auth, logging.Component(logger, "auth"))

	startNotifications(ctx, cfg, store, eventBus, redisClient, logger)

	backup := database.NewBackupService(store, cfg.Backup, logging.Component(logger, "backup"))
	go backup.Start(ctx)

	startMetrics(ctx, cfg, logger)

	httpServer := api.NewHTTPServer(cfg.API, api.Deps{
		Bookings: bookingService,
		Auth:     authService,
		Submit:   submitLimiter,
		Store:    store,
	}, logging.Component(logger, "http"))
	go httpServer.SweepLoginLimiters(ctx)

	return serve(ctx, httpServer, cfg, logger)
}

func loadConfigAndLogger(configPath string) (*config.Config, *zerolog.Logger, io.Closer, error) {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logging.Component(baseLogger, "api-main"), closer, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = repository.Close(client)
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// initSubmitLimiter prefers Redis so limits hold across replicas, and keeps
// counting in memory while Redis is unreachable.
func initSubmitLimiter(ctx context.Context, redisClient *redis.Client, logger *zerolog.Logger) domain.SubmitLimiter {
	memory := repository.NewMemoryLimiter()
	go sweepLimiter(ctx, memory, logger)

	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverLimiter(
		repository.NewRedisLimiter(redisClient),
		memory,
		logging.Component(logger, "submit-limiter"),
	)
}

func sweepLimiter(ctx context.Context, limiter *repository.MemoryLimiter, logger *zerolog.Logger) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(); n > 0 {
				logger.Debug().Int("expired", n).Msg("submit limiter swept")
			}
		}
	}
}

func startNotifications(
	ctx context.Context,
	cfg *config.Config,
	store domain.RecordStore,
	bus *events.EventBus,
	redisClient *redis.Client,
	logger *zerolog.Logger,
) {
	var notifiers []domain.Notifier

	if sender := initTelegram(cfg, logger); sender != nil {
		notifiers = append(notifiers, worker.NewTelegramNotifier(sender, cfg.Notifications.Telegram.ChatIDs))
	}

	sheetsService := initGoogleSheets(ctx, cfg, store, logger)
	if sheetsService != nil {
		notifiers = append(notifiers, worker.NewSheetsNotifier(sheetsService))
	}

	if len(notifiers) == 0 && sheetsService == nil {
		logger.Info().Msg("no notification channels configured")
		return
	}

	w := worker.NewNotifyWorker(notifiers, redisClient, worker.DefaultRetryPolicy(), logging.Component(logger, "notify-worker"))
	if sheetsService != nil {
		w.WithSheetsSync(sheetsService)
	}
	w.Subscribe(bus)
	go w.Start(ctx)
}

func initTelegram(cfg *config.Config, logger *zerolog.Logger) domain.TelegramSender {
	token := cfg.Notifications.Telegram.BotToken
	if token == "" {
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without telegram")
		return nil
	}

	logger.Info().Str("bot", bot.Self.UserName).Int("chats", len(cfg.Notifications.Telegram.ChatIDs)).Msg("telegram connected")
	return bot
}

// initGoogleSheets connects the spreadsheet mirror and rewrites it from the
// store so rows match the current collection.
func initGoogleSheets(ctx context.Context, cfg *config.Config, store domain.RecordStore, logger *zerolog.Logger) *google.SheetsService {
	gcfg := cfg.Notifications.Google
	if gcfg.CredentialsFile == "" || gcfg.SpreadsheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(ctx, gcfg)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := sheetsService.TestConnection(initCtx); err != nil {
		email, _ := google.ServiceAccountEmail(gcfg.CredentialsFile)
		logger.Warn().Err(err).Str("service_account", email).Msg("google sheets unreachable, share the spreadsheet with the service account")
		return nil
	}

	bookings, err := store.Load(initCtx)
	if err != nil {
		logger.Warn().Err(err).Msg("load bookings for sheets sync")
		if err := sheetsService.WarmUpCache(initCtx); err != nil {
			logger.Warn().Err(err).Msg("sheets cache warm-up failed")
		}
	} else if err := sheetsService.ReplaceBookingsSheet(initCtx, bookings); err != nil {
		logger.Warn().Err(err).Msg("initial sheets sync failed")
	}

	logger.Info().Str("spreadsheet_id", gcfg.SpreadsheetID).Msg("google sheets connected")
	return sheetsService
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
