package database

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"buddyboard/internal/config"
	"buddyboard/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	tempDir := t.TempDir()
	storagePath := filepath.Join(tempDir, "backups")

	logger := zerolog.Nop()
	store, err := NewFileStore(filepath.Join(tempDir, "bookings.json"), &logger)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, []models.Booking{
		{ID: "1", FullName: "Ana Li", Status: models.StatusPending, SubmittedAt: time.Now().UTC()},
	}))

	cfg := config.BackupConfig{
		Enabled:       true,
		StoragePath:   storagePath,
		RetentionDays: 1,
	}
	s := NewBackupService(store, cfg, &logger)

	t.Run("PerformBackup", func(t *testing.T) {
		path, err := s.PerformBackup(ctx)
		require.NoError(t, err)

		files, err := os.ReadDir(storagePath)
		require.NoError(t, err)
		assert.Len(t, files, 1)

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		var snapshot []models.Booking
		require.NoError(t, json.Unmarshal(raw, &snapshot))
		require.Len(t, snapshot, 1)
		assert.Equal(t, "Ana Li", snapshot[0].FullName)
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		oldFile := filepath.Join(storagePath, "bookings_old.json")
		require.NoError(t, os.WriteFile(oldFile, []byte("[]"), 0o644))

		foreign := filepath.Join(storagePath, "notes.txt")
		require.NoError(t, os.WriteFile(foreign, []byte("keep"), 0o644))

		oldTime := time.Now().AddDate(0, 0, -2)
		require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))
		require.NoError(t, os.Chtimes(foreign, oldTime, oldTime))

		s.CleanupOldBackups()

		files, err := os.ReadDir(storagePath)
		require.NoError(t, err)
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, f.Name())
		}
		assert.Len(t, names, 2)
		assert.NotContains(t, names, "bookings_old.json")
		assert.Contains(t, names, "notes.txt")
	})

	t.Run("CorruptStoreFails", func(t *testing.T) {
		require.NoError(t, os.WriteFile(store.path, []byte("{not json"), 0o644))
		_, err := s.PerformBackup(ctx)
		assert.ErrorIs(t, err, ErrCorruptStore)
	})
}

func TestBackupService_Disabled(_ *testing.T) {
	logger := zerolog.Nop()
	s := NewBackupService(nil, config.BackupConfig{Enabled: false}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)
}
