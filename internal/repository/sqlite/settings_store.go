package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/sumalatex/suma/internal/service/pricing"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SettingsStore is a process-local key-value store kept in an SQLite file.
type SettingsStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Open opens (or creates) the SQLite file at path and prepares the settings table.
func Open(ctx context.Context, path string, logger *zap.Logger) (*SettingsStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create settings table: %w", err)
	}

	logger.Info("settings store ready", zap.String("path", path))
	return &SettingsStore{db: db, logger: logger}, nil
}

// Get returns the value stored under key, or pricing.ErrKeyNotFound.
func (s *SettingsStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", pricing.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select setting %s: %w", key, err)
	}
	return value, nil
}

// Set upserts value under key.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	const q = `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	s.logger.Debug("setting stored", zap.String("key", key))
	return nil
}

// Close releases the database handle.
func (s *SettingsStore) Close() error {
	return s.db.Close()
}
