package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/roach88/clientsync/internal/collection"
)

// ServerConfig returns the advertised limits, or the defaults if none were
// ever set.
func (s *Store) ServerConfig(ctx context.Context) (collection.ServerConfig, error) {
	var c collection.ServerConfig
	err := s.db.QueryRowContext(ctx, `
		SELECT max_record_payload_bytes, max_post_bytes FROM server_config WHERE id = 1
	`).Scan(&c.MaxRecordPayloadBytes, &c.MaxPostBytes)
	if errors.Is(err, sql.ErrNoRows) {
		return collection.DefaultServerConfig(), nil
	}
	if err != nil {
		return collection.ServerConfig{}, errors.Wrap(err, "read server config")
	}
	return c, nil
}

// SetServerConfig replaces the advertised limits.
func (s *Store) SetServerConfig(ctx context.Context, c collection.ServerConfig) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO server_config (id, max_record_payload_bytes, max_post_bytes)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			max_record_payload_bytes = excluded.max_record_payload_bytes,
			max_post_bytes = excluded.max_post_bytes
	`, c.MaxRecordPayloadBytes, c.MaxPostBytes)
	return errors.Wrap(err, "write server config")
}
