package database

import (
	"fmt"

	"buddyboard/internal/config"
	"buddyboard/internal/domain"

	"github.com/rs/zerolog"
)

// Open builds the record store selected by storage.driver.
func Open(cfg config.StorageConfig, logger *zerolog.Logger) (domain.RecordStore, error) {
	switch cfg.Driver {
	case config.DriverJSON, "":
		return NewFileStore(cfg.Path, logger)
	case config.DriverSQLite:
		return NewDB(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
