package reference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"memoria/internal/visibility"
	id "memoria/pkg/domain"
	"memoria/pkg/platform/sentinel"
)

// Clock supplies the current time, injectable for tests.
type Clock func() time.Time

// PostgresStore persists references in the story_references table.
type PostgresStore struct {
	db    *sql.DB
	clock Clock
}

// PostgresStoreOption configures a PostgresStore instance.
type PostgresStoreOption func(*PostgresStore)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) PostgresStoreOption {
	return func(s *PostgresStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewPostgresStore constructs a PostgreSQL-backed reference store.
func NewPostgresStore(db *sql.DB, opts ...PostgresStoreOption) *PostgresStore {
	store := &PostgresStore{
		db:    db,
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

const referenceColumns = `id, story_id, kind, person_id, relationship, role, url, label, override, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, ref *Reference) error {
	now := s.clock()
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = now
	}
	ref.UpdatedAt = ref.CreatedAt

	query := `
		INSERT INTO story_references (` + referenceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(ref.ID),
		uuid.UUID(ref.StoryID),
		string(ref.Kind),
		nullableID(uuid.UUID(ref.PersonID)),
		ref.Relationship,
		string(ref.Role),
		ref.URL,
		ref.Label,
		string(ref.Override),
		ref.CreatedAt,
		ref.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create reference: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, referenceID id.ReferenceID) (*Reference, error) {
	query := `SELECT ` + referenceColumns + ` FROM story_references WHERE id = $1`
	ref, err := scanReference(s.db.QueryRowContext(ctx, query, uuid.UUID(referenceID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get reference: %w", err)
	}
	return ref, nil
}

func (s *PostgresStore) ListByStory(ctx context.Context, storyID id.StoryID) ([]Reference, error) {
	query := `SELECT ` + referenceColumns + ` FROM story_references WHERE story_id = $1 ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(storyID))
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer rows.Close()

	var refs []Reference
	for rows.Next() {
		ref, err := scanReferenceRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		refs = append(refs, *ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate references: %w", err)
	}
	return refs, nil
}

func (s *PostgresStore) SetOverride(ctx context.Context, referenceID id.ReferenceID, state visibility.State) error {
	query := `UPDATE story_references SET override = $2, updated_at = $3 WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, uuid.UUID(referenceID), string(state), s.clock())
	if err != nil {
		return fmt.Errorf("set override: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) LatestRelationship(ctx context.Context, personID id.PersonID) (string, error) {
	query := `
		SELECT relationship FROM story_references
		WHERE person_id = $1 AND relationship <> ''
		ORDER BY created_at DESC
		LIMIT 1
	`
	var relationship string
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(personID)).Scan(&relationship)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("latest relationship: %w", err)
	}
	return relationship, nil
}

// scannable covers both sql.Row and sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanReference(row *sql.Row) (*Reference, error) {
	return scanReferenceRow(row)
}

func scanReferenceRow(row scannable) (*Reference, error) {
	var (
		refID    uuid.UUID
		storyID  uuid.UUID
		kind     string
		personID uuid.NullUUID
		role     string
		override string
		ref      Reference
	)
	err := row.Scan(&refID, &storyID, &kind, &personID, &ref.Relationship, &role, &ref.URL, &ref.Label, &override, &ref.CreatedAt, &ref.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ref.ID = id.ReferenceID(refID)
	ref.StoryID = id.StoryID(storyID)
	ref.Kind = Kind(kind)
	if personID.Valid {
		ref.PersonID = id.PersonID(personID.UUID)
	}
	ref.Role = Role(role)
	// Normalize on read so an unrecognized stored override degrades to
	// pending instead of surfacing.
	ref.Override = visibility.Normalize(override)
	return &ref, nil
}

func nullableID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
