// Package migrate applies the service schema at startup. The DDL is the
// authority for the invariants the handlers rely on: the uniqueness of
// (procedure_id, user_id) acknowledgments and the foreign keys between
// profiles, procedures and acknowledgments.
package migrate

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS auth_users (
    user_id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sessions (
    session_id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES auth_users(user_id),
    token_hash TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL,
    revoked_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);

-- profile_id equals the session subject (auth_users.user_id).
CREATE TABLE IF NOT EXISTS profiles (
    profile_id TEXT PRIMARY KEY REFERENCES auth_users(user_id),
    email TEXT NOT NULL,
    full_name TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'staff',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_role CHECK (role IN ('admin', 'staff'))
);

-- status is a free-form lifecycle label; no transition graph is enforced.
CREATE TABLE IF NOT EXISTS procedures (
    procedure_id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT '',
    source_link TEXT NOT NULL DEFAULT '',
    effective_date DATE NOT NULL,
    status TEXT NOT NULL DEFAULT 'active',
    created_by TEXT REFERENCES profiles(profile_id) ON DELETE SET NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_status CHECK (status IN ('active', 'archived', 'replaced')),
    CONSTRAINT nonempty_title CHECK (length(trim(title)) > 0)
);

CREATE INDEX IF NOT EXISTS idx_procedures_created_at ON procedures(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_procedures_status ON procedures(status);

-- The unique constraint is the backstop against concurrent double
-- acknowledgment; the client-side check is advisory only.
CREATE TABLE IF NOT EXISTS acknowledgments (
    ack_id TEXT PRIMARY KEY,
    procedure_id TEXT NOT NULL REFERENCES procedures(procedure_id),
    user_id TEXT NOT NULL REFERENCES profiles(profile_id),
    acknowledged_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT uniq_ack_per_user UNIQUE (procedure_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_acknowledgments_procedure_id ON acknowledgments(procedure_id);
CREATE INDEX IF NOT EXISTS idx_acknowledgments_user_id ON acknowledgments(user_id);
`

func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
