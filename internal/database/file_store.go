package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"buddyboard/internal/models"

	"github.com/rs/zerolog"
)

// FileStore keeps the whole collection in one pretty-printed JSON file.
type FileStore struct {
	path   string
	logger *zerolog.Logger
}

func NewFileStore(path string, logger *zerolog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store path is required")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &FileStore{path: path, logger: logger}
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	logger.Info().Str("path", path).Msg("file store initialized")
	return s, nil
}

func (s *FileStore) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	return nil
}

// Load returns an empty collection when the file does not exist yet.
// Content that is not a JSON array of bookings yields ErrCorruptStore.
func (s *FileStore) Load(ctx context.Context) ([]models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ensureDir(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.Booking{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read bookings: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Booking{}, nil
	}

	var bookings []models.Booking
	if err := json.Unmarshal(data, &bookings); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("bookings file is corrupt")
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// Save replaces the file with the serialized collection via temp file and rename.
func (s *FileStore) Save(ctx context.Context, bookings []models.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureDir(); err != nil {
		return err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}

	data, err := json.MarshalIndent(bookings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode bookings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".bookings-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write bookings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync bookings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod bookings: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace bookings file: %w", err)
	}

	s.logger.Debug().Int("count", len(bookings)).Msg("bookings saved")
	return nil
}

// Ping verifies the data directory is writable.
func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureDir(); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(s.path), ".ping-*")
	if err != nil {
		return fmt.Errorf("data directory not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func (s *FileStore) Close() error {
	return nil
}
