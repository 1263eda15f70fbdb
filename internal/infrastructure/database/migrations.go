package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema holds the chat-owned tables. The partial unique index on
// chat.conversation is the correctness mechanism for concurrent
// get-or-create: many first messages from the same customer can race, the
// index guarantees exactly one staff-group conversation survives.
const schema = `
CREATE SCHEMA IF NOT EXISTS chat;

CREATE TABLE IF NOT EXISTS chat.identity (
	id           uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	role         text NOT NULL CHECK (role IN ('customer', 'staff')),
	display_name text NOT NULL,
	phone        text
);

CREATE TABLE IF NOT EXISTS chat.conversation (
	id              uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	customer_id     uuid REFERENCES chat.identity (id),
	is_staff_group  boolean NOT NULL DEFAULT TRUE,
	created_at      timestamptz NOT NULL DEFAULT now(),
	last_message_at timestamptz
);

CREATE UNIQUE INDEX IF NOT EXISTS conversation_one_per_customer
	ON chat.conversation (customer_id)
	WHERE is_staff_group;

CREATE TABLE IF NOT EXISTS chat.message (
	id              uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	conversation_id uuid NOT NULL REFERENCES chat.conversation (id) ON DELETE CASCADE,
	sender_id       uuid NOT NULL REFERENCES chat.identity (id),
	body            text NOT NULL,
	sent_at         timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS message_conversation_sent_at
	ON chat.message (conversation_id, sent_at);

CREATE TABLE IF NOT EXISTS chat.device (
	identity_id   uuid NOT NULL REFERENCES chat.identity (id) ON DELETE CASCADE,
	token         text NOT NULL,
	platform      text NOT NULL DEFAULT '',
	registered_at timestamptz NOT NULL DEFAULT now(),
	UNIQUE (identity_id, token)
);
`

// RunMigrations applies the chat schema. Statements are idempotent, so this
// runs unconditionally at startup.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: apply schema: %w", err)
	}
	return nil
}
