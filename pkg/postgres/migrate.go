package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Migration is one forward-only schema step.
type Migration struct {
	Version     int
	Description string
	Statements  []string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Users and exchange transactions",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY,
				phone_number TEXT NOT NULL DEFAULT '',
				display_name TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE IF NOT EXISTS transactions (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id),
				conversation_id UUID NOT NULL,
				currency_from TEXT NOT NULL,
				currency_to TEXT NOT NULL,
				amount_from NUMERIC(20, 4) NOT NULL,
				amount_to NUMERIC(20, 4) NOT NULL,
				negotiated_rate NUMERIC(20, 8) NOT NULL,
				payment_reference TEXT NOT NULL DEFAULT '',
				receipt_image_url TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'pending',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS transactions_user_id_idx ON transactions(user_id)`,
			`CREATE INDEX IF NOT EXISTS transactions_status_idx ON transactions(status)`,
		},
	},
	{
		Version:     2,
		Description: "Image hash index and duplicate detections",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS image_hashes (
				id UUID PRIMARY KEY,
				cryptographic_hash CHAR(64) NOT NULL,
				perceptual_hash TEXT NOT NULL,
				image_url TEXT NOT NULL,
				transaction_id UUID,
				payment_reference TEXT,
				user_id UUID,
				message_id TEXT,
				metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS image_hashes_cryptographic_hash_idx ON image_hashes(cryptographic_hash)`,
			`CREATE TABLE IF NOT EXISTS duplicate_detections (
				id UUID PRIMARY KEY,
				hash TEXT NOT NULL,
				user_id UUID NOT NULL,
				detection_data JSONB NOT NULL DEFAULT '{}'::jsonb,
				transaction_id UUID,
				detected_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				status TEXT NOT NULL DEFAULT 'active'
			)`,
			`CREATE INDEX IF NOT EXISTS duplicate_detections_user_id_idx ON duplicate_detections(user_id)`,
			`CREATE INDEX IF NOT EXISTS duplicate_detections_detected_at_idx ON duplicate_detections(detected_at)`,
		},
	},
}

// LatestVersion is the schema version Migrate brings a database to.
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

// Migrate applies every pending migration, each in its own transaction.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := applyMigration(ctx, pool, m); err != nil {
			return err
		}
		logger.Info("Applied migration",
			zap.Int("version", m.Version),
			zap.String("description", m.Description),
		)
	}

	return nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, m Migration) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, stmt := range m.Statements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.Version, err)
			}
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`,
			m.Version, m.Description,
		); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		return nil
	})
}
