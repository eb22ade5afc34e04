package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"buddyboard/internal/config"
	"buddyboard/internal/domain"

	"github.com/rs/zerolog"
)

const backupPrefix = "bookings_"

// BackupService periodically snapshots the record store into JSON files.
// Snapshots go through the store, so both drivers produce the same format.
type BackupService struct {
	store  domain.RecordStore
	config config.BackupConfig
	logger *zerolog.Logger
	now    func() time.Time
}

func NewBackupService(store domain.RecordStore, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{
		store:  store,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (s *BackupService) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info().Msg("Backup service is disabled")
		return
	}

	s.logger.Info().Str("schedule", s.config.Schedule).Msg("Backup service started")

	interval := 24 * time.Hour
	if s.config.Schedule != "" {
		if d, err := time.ParseDuration(s.config.Schedule); err == nil && d > 0 {
			interval = d
		} else {
			s.logger.Warn().Err(err).Str("schedule", s.config.Schedule).Msg("Failed to parse backup schedule, using default 24h")
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run first backup immediately
	if _, err := s.PerformBackup(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Initial backup failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PerformBackup(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Scheduled backup failed")
			}
			s.CleanupOldBackups()
		}
	}
}

// PerformBackup writes one snapshot and returns its path.
func (s *BackupService) PerformBackup(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	bookings, err := s.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load bookings for backup: %w", err)
	}

	data, err := json.MarshalIndent(bookings, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode backup: %w", err)
	}

	timestamp := s.now().Format("20060102_150405")
	backupPath := filepath.Join(s.config.StoragePath, fmt.Sprintf("%s%s.json", backupPrefix, timestamp))

	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	s.logger.Info().Str("path", backupPath).Int("count", len(bookings)).Msg("Backup completed successfully")
	return backupPath, nil
}

func (s *BackupService) CleanupOldBackups() {
	if s.config.RetentionDays <= 0 {
		return
	}

	files, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read backup directory for cleanup")
		return
	}

	cutoff := s.now().AddDate(0, 0, -s.config.RetentionDays)

	for _, file := range files {
		if file.IsDir() || !strings.HasPrefix(file.Name(), backupPrefix) {
			continue
		}

		info, err := file.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			s.logger.Info().Str("file", file.Name()).Msg("Deleting old backup")
			if err := os.Remove(filepath.Join(s.config.StoragePath, file.Name())); err != nil {
				s.logger.Warn().Err(err).Str("file", file.Name()).Msg("Failed to delete old backup")
			}
		}
	}
}
