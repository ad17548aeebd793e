// Package postgres opens the shared database handle and maintains the
// schema. DDL is idempotent so every instance can run it at startup.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// NotifyChannelPreferences is the LISTEN/NOTIFY channel carrying person
// IDs whose visibility preferences changed. Instances listen on it to
// invalidate their preference snapshot caches.
const NotifyChannelPreferences = "memoria_preferences"

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates memoria's tables, indexes, and the preference
// notification trigger. All statements use IF NOT EXISTS (or
// CREATE OR REPLACE) so the call is safe to repeat; PostgreSQL runs the
// batch atomically in an implicit transaction. Additive changes belong
// here; destructive migrations would need a real migration tool.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS people (
    id                 UUID PRIMARY KEY,
    canonical_name     TEXT NOT NULL,
    default_visibility TEXT NOT NULL DEFAULT 'pending',
    created_by         UUID NOT NULL,
    claimed_by         UUID,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_people_canonical_name ON people (LOWER(canonical_name));

CREATE TABLE IF NOT EXISTS person_aliases (
    person_id  UUID NOT NULL REFERENCES people(id) ON DELETE CASCADE,
    name       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_person_alias ON person_aliases (person_id, LOWER(name));
CREATE INDEX IF NOT EXISTS idx_person_aliases_name ON person_aliases (LOWER(name));

CREATE TABLE IF NOT EXISTS visibility_preferences (
    person_id      UUID NOT NULL REFERENCES people(id) ON DELETE CASCADE,
    contributor_id UUID,
    state          TEXT NOT NULL,
    set_by         UUID NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_pref_contributor ON visibility_preferences (person_id, contributor_id) WHERE contributor_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS uq_pref_global ON visibility_preferences (person_id) WHERE contributor_id IS NULL;

CREATE TABLE IF NOT EXISTS stories (
    id         UUID PRIMARY KEY,
    author_id  UUID NOT NULL,
    title      TEXT NOT NULL DEFAULT '',
    body       TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'published',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_stories_author ON stories (author_id);

CREATE TABLE IF NOT EXISTS story_references (
    id           UUID PRIMARY KEY,
    story_id     UUID NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
    kind         TEXT NOT NULL,
    person_id    UUID REFERENCES people(id),
    relationship TEXT NOT NULL DEFAULT '',
    role         TEXT NOT NULL DEFAULT '',
    url          TEXT NOT NULL DEFAULT '',
    label        TEXT NOT NULL DEFAULT '',
    override     TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_story_references_story ON story_references (story_id);
CREATE INDEX IF NOT EXISTS idx_story_references_person ON story_references (person_id);

CREATE TABLE IF NOT EXISTS identity_claims (
    id          UUID PRIMARY KEY,
    person_id   UUID NOT NULL REFERENCES people(id) ON DELETE CASCADE,
    secret_hash TEXT NOT NULL,
    issued_by   UUID NOT NULL,
    expires_at  TIMESTAMPTZ NOT NULL,
    redeemed_by UUID,
    redeemed_at TIMESTAMPTZ,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_identity_claims_person ON identity_claims (person_id);

CREATE TABLE IF NOT EXISTS audit_events (
    id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    timestamp    TIMESTAMPTZ NOT NULL,
    action       TEXT NOT NULL,
    category     TEXT NOT NULL,
    actor_id     UUID,
    person_id    UUID,
    story_id     UUID,
    reference_id UUID,
    scope        TEXT NOT NULL DEFAULT '',
    old_state    TEXT NOT NULL DEFAULT '',
    new_state    TEXT NOT NULL DEFAULT '',
    reason       TEXT NOT NULL DEFAULT '',
    request_id   TEXT NOT NULL DEFAULT '',
    client_ip    TEXT NOT NULL DEFAULT '',
    device       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_audit_events_person ON audit_events (person_id, timestamp DESC);

CREATE OR REPLACE FUNCTION notify_preference_change() RETURNS trigger AS $$
BEGIN
    PERFORM pg_notify('%s', COALESCE(NEW.person_id, OLD.person_id)::text);
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_preferences_notify ON visibility_preferences;
CREATE TRIGGER trg_preferences_notify
AFTER INSERT OR UPDATE OR DELETE ON visibility_preferences
FOR EACH ROW EXECUTE FUNCTION notify_preference_change();
`, NotifyChannelPreferences)

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
