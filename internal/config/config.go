package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"buddyboard/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	Storage       StorageConfig       `yaml:"storage"`
	Redis         RedisConfig         `yaml:"redis"`
	Backup        BackupConfig        `yaml:"backup"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
	Logging       LoggingConfig       `yaml:"logging"`
	API           APIConfig           `yaml:"api"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	Submit    SubmitLimitConfig  `yaml:"submit_limit"`
	CORS      CORSConfig         `yaml:"cors"`
}

// APIHTTPConfig configures the listener. With TrustProxy the client address
// is taken from X-Forwarded-For / X-Real-IP.
type APIHTTPConfig struct {
	Port       int  `yaml:"port"`
	TrustProxy bool `yaml:"trust_proxy"`
}

// APIAuthConfig holds the single admin credential pair and token settings.
// PasswordHash (bcrypt) takes precedence over Password when both are set.
// Admin auth is on unless Disabled is set explicitly.
type APIAuthConfig struct {
	Disabled     bool   `yaml:"disabled"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
	TokenSecret  string `yaml:"token_secret"`
	TokenTTL     int    `yaml:"token_ttl"` // seconds
	Issuer       string `yaml:"issuer"`
}

// APIRateLimitConfig throttles the login endpoint per client address.
type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// SubmitLimitConfig throttles public form submissions per client address.
type SubmitLimitConfig struct {
	Limit  int `yaml:"limit"`
	Window int `yaml:"window"` // seconds
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type NotificationsConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Google   GoogleConfig   `yaml:"google"`
}

type TelegramConfig struct {
	BotToken string  `yaml:"bot_token"`
	ChatIDs  []int64 `yaml:"chat_ids"`
}

type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SheetName       string `yaml:"sheet_name"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverJSON, DriverSQLite:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Storage.Path == "" {
		return errors.New("storage path is required")
	}

	if !c.API.Auth.Disabled {
		if c.API.Auth.Username == "" {
			return errors.New("api.auth.username is required")
		}
		if c.API.Auth.Password == "" && c.API.Auth.PasswordHash == "" {
			return errors.New("api.auth.password or api.auth.password_hash is required")
		}
		if len(c.API.Auth.TokenSecret) < 16 {
			return errors.New("api.auth.token_secret must be at least 16 characters")
		}
	}

	if c.Notifications.Telegram.BotToken != "" && len(c.Notifications.Telegram.ChatIDs) == 0 {
		return errors.New("notifications.telegram.chat_ids is required when bot_token is set")
	}

	return nil
}

func (c *Config) applyDefaults() {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverJSON
	}
	if c.Storage.Path == "" {
		c.Storage.Path = models.DefaultStoragePath
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.TokenTTL == 0 {
		c.API.Auth.TokenTTL = models.DefaultTokenTTL
	}
	if c.API.Auth.Issuer == "" {
		c.API.Auth.Issuer = c.App.Name
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 1
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 5
	}
	if c.API.Submit.Limit == 0 {
		c.API.Submit.Limit = models.DefaultSubmitLimit
	}
	if c.API.Submit.Window == 0 {
		c.API.Submit.Window = models.DefaultSubmitWindow
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "data/backups"
	}
	if c.Notifications.Google.SheetName == "" {
		c.Notifications.Google.SheetName = "Bookings"
	}
}
