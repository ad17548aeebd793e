package preference

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"memoria/internal/visibility"
	id "memoria/pkg/domain"
	"memoria/pkg/platform/sentinel"
)

// Clock supplies the current time, injectable for tests.
type Clock func() time.Time

// PostgresStore persists preferences in PostgreSQL. Global rows carry a
// NULL contributor_id; two partial unique indexes keep one row per scope.
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

// NewPostgresStore constructs a PostgreSQL-backed preference store.
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

func (s *PostgresStore) Set(ctx context.Context, pref *Preference) error {
	now := s.clock()
	var err error
	if pref.Global() {
		query := `
			INSERT INTO visibility_preferences (person_id, contributor_id, state, set_by, created_at, updated_at)
			VALUES ($1, NULL, $2, $3, $4, $4)
			ON CONFLICT (person_id) WHERE contributor_id IS NULL
			DO UPDATE SET state = EXCLUDED.state, set_by = EXCLUDED.set_by, updated_at = EXCLUDED.updated_at
		`
		_, err = s.db.ExecContext(ctx, query,
			uuid.UUID(pref.PersonID), string(pref.State), uuid.UUID(pref.SetBy), now)
	} else {
		query := `
			INSERT INTO visibility_preferences (person_id, contributor_id, state, set_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (person_id, contributor_id) WHERE contributor_id IS NOT NULL
			DO UPDATE SET state = EXCLUDED.state, set_by = EXCLUDED.set_by, updated_at = EXCLUDED.updated_at
		`
		_, err = s.db.ExecContext(ctx, query,
			uuid.UUID(pref.PersonID), uuid.UUID(pref.ContributorID),
			string(pref.State), uuid.UUID(pref.SetBy), now)
	}
	if err != nil {
		return fmt.Errorf("set preference: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, personID id.PersonID, contributorID id.ContributorID) error {
	var (
		result sql.Result
		err    error
	)
	if contributorID.IsZero() {
		query := `DELETE FROM visibility_preferences WHERE person_id = $1 AND contributor_id IS NULL`
		result, err = s.db.ExecContext(ctx, query, uuid.UUID(personID))
	} else {
		query := `DELETE FROM visibility_preferences WHERE person_id = $1 AND contributor_id = $2`
		result, err = s.db.ExecContext(ctx, query, uuid.UUID(personID), uuid.UUID(contributorID))
	}
	if err != nil {
		return fmt.Errorf("clear preference: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// PairFor fetches both scopes in one query. A nil contributor row simply
// leaves that side of the pair empty.
func (s *PostgresStore) PairFor(ctx context.Context, personID id.PersonID, contributorID id.ContributorID) (Pair, error) {
	query := `
		SELECT contributor_id, state
		FROM visibility_preferences
		WHERE person_id = $1 AND (contributor_id = $2 OR contributor_id IS NULL)
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(personID), uuid.UUID(contributorID))
	if err != nil {
		return Pair{}, fmt.Errorf("query preference pair: %w", err)
	}
	defer rows.Close()

	var pair Pair
	for rows.Next() {
		var (
			scoped uuid.NullUUID
			state  string
		)
		if err := rows.Scan(&scoped, &state); err != nil {
			return Pair{}, fmt.Errorf("scan preference: %w", err)
		}
		if scoped.Valid {
			pair.Contributor = visibility.State(state)
		} else {
			pair.Global = visibility.State(state)
		}
	}
	if err := rows.Err(); err != nil {
		return Pair{}, fmt.Errorf("iterate preferences: %w", err)
	}
	return pair, nil
}
