package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAuth() APIAuthConfig {
	return APIAuthConfig{
		Username:    "admin",
		Password:    "admin",
		TokenSecret: "0123456789abcdef0123",
	}
}

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("BUDDYBOARD_TOKEN_SECRET", "super-secret-signing-key")

	yamlContent := `
app:
  name: "buddyboard"
storage:
  path: "` + filepath.Join(tmpDir, "bookings.json") + `"
api:
  http:
    port: 9000
  auth:
    username: "admin"
    password: "admin"
    token_secret: "${BUDDYBOARD_TOKEN_SECRET}"
notifications:
  telegram:
    bot_token: "token"
    chat_ids: [1, 2]
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, DriverJSON, cfg.Storage.Driver)
	assert.Equal(t, 9000, cfg.API.HTTP.Port)
	assert.Equal(t, "super-secret-signing-key", cfg.API.Auth.TokenSecret)
	assert.Equal(t, "buddyboard", cfg.API.Auth.Issuer)
	assert.Equal(t, []int64{1, 2}, cfg.Notifications.Telegram.ChatIDs)
	assert.Equal(t, "Bookings", cfg.Notifications.Google.SheetName)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("storage: [unclosed"), 0o644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Storage: StorageConfig{Driver: DriverJSON, Path: "data/bookings.json"},
				API:     APIConfig{Auth: validAuth()},
			},
		},
		{
			name: "unknown driver",
			cfg: Config{
				Storage: StorageConfig{Driver: "postgres", Path: "x"},
				API:     APIConfig{Auth: validAuth()},
			},
			wantErr: true,
		},
		{
			name: "missing username",
			cfg: Config{
				Storage: StorageConfig{Driver: DriverJSON, Path: "x"},
				API:     APIConfig{Auth: APIAuthConfig{Password: "p", TokenSecret: "0123456789abcdef"}},
			},
			wantErr: true,
		},
		{
			name: "short secret",
			cfg: Config{
				Storage: StorageConfig{Driver: DriverJSON, Path: "x"},
				API:     APIConfig{Auth: APIAuthConfig{Username: "u", Password: "p", TokenSecret: "short"}},
			},
			wantErr: true,
		},
		{
			name: "auth disabled needs no credentials",
			cfg: Config{
				Storage: StorageConfig{Driver: DriverSQLite, Path: "x.db"},
				API:     APIConfig{Auth: APIAuthConfig{Disabled: true}},
			},
		},
		{
			name: "telegram without chats",
			cfg: Config{
				Storage:       StorageConfig{Driver: DriverJSON, Path: "x"},
				API:           APIConfig{Auth: validAuth()},
				Notifications: NotificationsConfig{Telegram: TelegramConfig{BotToken: "t"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	assert.Equal(t, DriverJSON, cfg.Storage.Driver)
	assert.Equal(t, "data/bookings.json", cfg.Storage.Path)
	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, 86400, cfg.API.Auth.TokenTTL)
	assert.Equal(t, 5, cfg.API.Submit.Limit)
	assert.Equal(t, 600, cfg.API.Submit.Window)
	assert.Equal(t, 0, cfg.Monitoring.PrometheusPort)

	cfg = Config{Monitoring: MonitoringConfig{PrometheusEnabled: true}, Storage: StorageConfig{Driver: " SQLite "}}
	cfg.applyDefaults()
	assert.Equal(t, 9090, cfg.Monitoring.PrometheusPort)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
}
