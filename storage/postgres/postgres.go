// Package postgres provides a PostgreSQL implementation of the
// admission.Storage interface. The daily reset and the counter increment are
// single upsert statements, so both are atomic per user without explicit
// transactions.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glagena/gladownloader/pkg/admission"
)

// Storage implements admission.Storage using PostgreSQL.
type Storage struct {
	pool   *pgxpool.Pool
	config Config
}

// Config holds PostgreSQL storage configuration.
type Config struct {
	// ConnectionString is the PostgreSQL connection string.
	ConnectionString string

	// Pool configuration.
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// New creates a new PostgreSQL storage adapter and ensures the schema exists.
func New(ctx context.Context, config Config) (*Storage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required")
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}
	if config.MinConns > 0 {
		poolConfig.MinConns = config.MinConns
	}
	if config.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = config.MaxConnLifetime
	}
	if config.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = config.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{pool: pool, config: config}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS download_usage (
			user_id      TEXT PRIMARY KEY,
			video        INT  NOT NULL DEFAULT 0,
			audio        INT  NOT NULL DEFAULT 0,
			last_reset   TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// GetUsage implements admission.Storage.
func (s *Storage) GetUsage(ctx context.Context, userID string) (*admission.UsageRecord, error) {
	rec := &admission.UsageRecord{UserID: userID}
	err := s.pool.QueryRow(ctx,
		`SELECT video, audio, last_reset, display_name
			FROM download_usage WHERE user_id = $1`,
		userID).Scan(&rec.Video, &rec.Audio, &rec.LastReset, &rec.DisplayName)

	if err == pgx.ErrNoRows {
		return &admission.UsageRecord{UserID: userID, LastReset: admission.Today()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}
	return rec, nil
}

// ResetIfStale implements admission.Storage.
func (s *Storage) ResetIfStale(ctx context.Context, userID string) (*admission.UsageRecord, error) {
	rec := &admission.UsageRecord{UserID: userID}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO download_usage (user_id, video, audio, last_reset)
			VALUES ($1, 0, 0, $2)
			ON CONFLICT (user_id) DO UPDATE SET
				video = CASE WHEN download_usage.last_reset = EXCLUDED.last_reset
					THEN download_usage.video ELSE 0 END,
				audio = CASE WHEN download_usage.last_reset = EXCLUDED.last_reset
					THEN download_usage.audio ELSE 0 END,
				last_reset = EXCLUDED.last_reset
			RETURNING video, audio, last_reset, display_name`,
		userID, admission.Today()).Scan(&rec.Video, &rec.Audio, &rec.LastReset, &rec.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("failed to reset usage: %w", err)
	}
	return rec, nil
}

// RecordDownload implements admission.Storage.
func (s *Storage) RecordDownload(ctx context.Context, userID string, kind admission.Kind) error {
	column := "video"
	if kind == admission.KindAudio {
		column = "audio"
	}

	query := fmt.Sprintf(
		`INSERT INTO download_usage (user_id, %[1]s, last_reset) VALUES ($1, 1, $2)
			ON CONFLICT (user_id) DO UPDATE SET %[1]s = download_usage.%[1]s + 1`,
		column)
	if _, err := s.pool.Exec(ctx, query, userID, admission.Today()); err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}

// SetDisplayName implements admission.Storage.
func (s *Storage) SetDisplayName(ctx context.Context, userID, name string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO download_usage (user_id, last_reset, display_name)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO UPDATE SET display_name = EXCLUDED.display_name`,
		userID, admission.Today(), name)
	if err != nil {
		return fmt.Errorf("failed to set display name: %w", err)
	}
	return nil
}

// ListUsers implements admission.Storage.
func (s *Storage) ListUsers(ctx context.Context) ([]admission.UserInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, display_name FROM download_usage ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []admission.UserInfo
	for rows.Next() {
		var u admission.UserInfo
		if err := rows.Scan(&u.ID, &u.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Close implements admission.Storage.
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}
