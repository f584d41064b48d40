package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Keys used in the config_app key/value table
const (
	ConfigKeyLastSync      = "lastSyncTime"
	ConfigKeyAdminPassword = "administratorPassword"
)

func (s *PostgresStore) GetConfigValue(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM config_app WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("config key %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get config value: %w", err)
	}
	return value, nil
}

func (s *PostgresStore) SetConfigValue(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO config_app (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set config value: %w", err)
	}
	return nil
}

// GetLastSyncTime returns the checkpoint of the last completed sync attempt,
// or ErrNotFound if no sync ever ran
func (s *PostgresStore) GetLastSyncTime(ctx context.Context) (string, error) {
	return s.GetConfigValue(ctx, ConfigKeyLastSync)
}

// SetLastSyncTime overwrites the sync checkpoint. Called on every completed
// sync attempt, zero-row syncs included
func (s *PostgresStore) SetLastSyncTime(ctx context.Context, timestamp string) error {
	return s.SetConfigValue(ctx, ConfigKeyLastSync, timestamp)
}
