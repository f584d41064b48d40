package store

import "context"

// schema is applied on boot. Idempotent so redeploys are safe without a
// migration tool; this is a single-instance internal service
const schema = `
CREATE TABLE IF NOT EXISTS change_records (
	id          BIGSERIAL PRIMARY KEY,
	date        VARCHAR(10)  NOT NULL,
	building    VARCHAR(100) NOT NULL,
	sector      VARCHAR(100) NOT NULL,
	outgoing    VARCHAR(255) NOT NULL,
	incoming    VARCHAR(255) NOT NULL,
	reason      VARCHAR(255) NOT NULL DEFAULT '',
	notes       TEXT         NOT NULL DEFAULT '',
	created_by  VARCHAR(100) NOT NULL DEFAULT '',
	edited_by   VARCHAR(100) NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS operators (
	id            BIGSERIAL PRIMARY KEY,
	username      VARCHAR(100) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	display_name  VARCHAR(255) NOT NULL,
	email         VARCHAR(320) NOT NULL DEFAULT '',
	role          VARCHAR(20)  NOT NULL DEFAULT 'operator',
	active        BOOLEAN      NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ  NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS config_app (
	id         BIGSERIAL PRIMARY KEY,
	key        VARCHAR(100) NOT NULL UNIQUE,
	value      TEXT         NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ  NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_change_records_created_by ON change_records (created_by);
`

// EnsureSchema creates the tables the board needs if they do not exist yet
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}
