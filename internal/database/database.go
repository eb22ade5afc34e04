package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"buddyboard/internal/models"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB is the SQLite-backed record store. Rows are keyed by booking id.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	// Создаем директорию для БД, если её нет
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps :memory: databases alive and serializes writers
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("sqlite store initialized")
	return &DB{DB: sqlDB, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            full_name TEXT NOT NULL,
            email TEXT NOT NULL,
            phone TEXT NOT NULL,
            company TEXT NOT NULL,
            website TEXT NOT NULL DEFAULT '',
            service TEXT NOT NULL DEFAULT '',
            budget TEXT NOT NULL DEFAULT '',
            timeline TEXT NOT NULL DEFAULT '',
            source TEXT NOT NULL DEFAULT '',
            message TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'pending',
            submitted_at DATETIME NOT NULL,
            updated_at DATETIME
        )`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_submitted_at ON bookings(submitted_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

const selectBookings = `
        SELECT id, full_name, email, phone, company, website, service, budget,
               timeline, source, message, status, submitted_at, updated_at
        FROM bookings ORDER BY rowid`

// Load reads every row.
func (db *DB) Load(ctx context.Context) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, selectBookings)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		var (
			b         models.Booking
			updatedAt sql.NullTime
		)
		err := rows.Scan(
			&b.ID,
			&b.FullName,
			&b.Email,
			&b.Phone,
			&b.Company,
			&b.Website,
			&b.Service,
			&b.Budget,
			&b.Timeline,
			&b.Source,
			&b.Message,
			&b.Status,
			&b.SubmittedAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scan booking: %v", ErrCorruptStore, err)
		}
		b.SubmittedAt = b.SubmittedAt.UTC()
		if updatedAt.Valid {
			t := updatedAt.Time.UTC()
			b.UpdatedAt = &t
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

// Save replaces the table contents in one transaction.
func (db *DB) Save(ctx context.Context, bookings []models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bookings`); err != nil {
		return fmt.Errorf("failed to clear bookings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO bookings (
				id, full_name, email, phone, company, website, service, budget,
				timeline, source, message, status, submitted_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range bookings {
		b := &bookings[i]
		var updatedAt *time.Time
		if b.UpdatedAt != nil {
			t := b.UpdatedAt.UTC()
			updatedAt = &t
		}
		_, err := stmt.ExecContext(ctx,
			b.ID,
			b.FullName,
			b.Email,
			b.Phone,
			b.Company,
			b.Website,
			b.Service,
			b.Budget,
			b.Timeline,
			b.Source,
			b.Message,
			b.Status,
			b.SubmittedAt.UTC(),
			updatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert booking %s: %w", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bookings: %w", err)
	}

	db.logger.Debug().Int("count", len(bookings)).Msg("bookings saved")
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.DB.Close()
}
