package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Device-level state kept in app_config.
const (
	ConfigActiveUser         = "active_user"
	ConfigOnboardingComplete = "onboarding_complete"
	ConfigAccessToken        = "session.access_token"
	ConfigRefreshToken       = "session.refresh_token"
	ConfigIDToken            = "session.id_token"
)

func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	sqldb, err := s.conn()
	if err != nil {
		return err
	}
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return fmt.Errorf("config key is required")
	}
	_, err = sqldb.ExecContext(ctx, `
INSERT INTO app_config(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

func (s *Store) GetConfig(ctx context.Context, key string) (string, bool, error) {
	sqldb, err := s.conn()
	if err != nil {
		return "", false, err
	}
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "", false, fmt.Errorf("config key is required")
	}
	var value string
	err = sqldb.QueryRowContext(ctx, `SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) DeleteConfig(ctx context.Context, keys ...string) error {
	sqldb, err := s.conn()
	if err != nil {
		return err
	}
	for _, key := range keys {
		key = strings.TrimSpace(strings.ToLower(key))
		if _, err := sqldb.ExecContext(ctx, `DELETE FROM app_config WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete config %q: %w", key, err)
		}
	}
	return nil
}

func (s *Store) ListConfig(ctx context.Context) (map[string]string, error) {
	sqldb, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := sqldb.QueryContext(ctx, `SELECT key, value FROM app_config ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list config: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config: %w", err)
	}
	return out, nil
}
