package people

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"memoria/internal/visibility"
	id "memoria/pkg/domain"
	"memoria/pkg/platform/sentinel"
)

// Clock supplies the current time, injectable for tests.
type Clock func() time.Time

// PostgresStore persists people and aliases in PostgreSQL.
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

// NewPostgresStore constructs a PostgreSQL-backed people store.
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

const personColumns = `id, canonical_name, default_visibility, created_by, claimed_by, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, person *Person) error {
	now := s.clock()
	if person.CreatedAt.IsZero() {
		person.CreatedAt = now
	}
	person.UpdatedAt = person.CreatedAt

	query := `
		INSERT INTO people (id, canonical_name, default_visibility, created_by, claimed_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(person.ID),
		person.CanonicalName,
		string(person.DefaultVisibility),
		uuid.UUID(person.CreatedBy),
		nullableID(uuid.UUID(person.ClaimedBy)),
		person.CreatedAt,
		person.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, personID id.PersonID) (*Person, error) {
	query := `SELECT ` + personColumns + ` FROM people WHERE id = $1`
	person, err := scanPerson(s.db.QueryRowContext(ctx, query, uuid.UUID(personID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get person: %w", err)
	}
	return person, nil
}

// FindByName walks the matching ladder rung by rung so an exact alias
// always beats a fuzzier canonical-name hit. Ties go to the
// earliest-created person.
func (s *PostgresStore) FindByName(ctx context.Context, name string) (*Person, error) {
	rungs := []string{
		`SELECT ` + qualifiedPersonColumns + `
		 FROM people p
		 JOIN person_aliases a ON a.person_id = p.id
		 WHERE LOWER(a.name) = LOWER($1)
		 ORDER BY p.created_at
		 LIMIT 1`,

		`SELECT ` + qualifiedPersonColumns + `
		 FROM people p
		 WHERE LOWER(p.canonical_name) = LOWER($1)
		 ORDER BY p.created_at
		 LIMIT 1`,

		// POSITION instead of ILIKE so % and _ in submitted names are
		// not treated as wildcards.
		`SELECT ` + qualifiedPersonColumns + `
		 FROM people p
		 WHERE POSITION(LOWER($1) IN LOWER(p.canonical_name)) > 0
		    OR POSITION(LOWER(p.canonical_name) IN LOWER($1)) > 0
		 ORDER BY p.created_at
		 LIMIT 1`,
	}

	for _, query := range rungs {
		person, err := scanPerson(s.db.QueryRowContext(ctx, query, name))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("find person by name: %w", err)
		}
		return person, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *PostgresStore) SetDefaultVisibility(ctx context.Context, personID id.PersonID, state visibility.State) error {
	query := `UPDATE people SET default_visibility = $2, updated_at = $3 WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, uuid.UUID(personID), string(state), s.clock())
	if err != nil {
		return fmt.Errorf("set default visibility: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) SetClaimedBy(ctx context.Context, personID id.PersonID, contributorID id.ContributorID) error {
	query := `UPDATE people SET claimed_by = $2, updated_at = $3 WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, uuid.UUID(personID), nullableID(uuid.UUID(contributorID)), s.clock())
	if err != nil {
		return fmt.Errorf("set claimed by: %w", err)
	}
	return requireRow(result)
}

// AddAliases inserts aliases in one round trip via unnest. Duplicates
// (case-insensitive per person) are ignored.
func (s *PostgresStore) AddAliases(ctx context.Context, personID id.PersonID, names []string) error {
	valid := make([]string, 0, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			valid = append(valid, trimmed)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	query := `
		INSERT INTO person_aliases (person_id, name, created_at)
		SELECT $1, unnest($2::text[]), $3
		ON CONFLICT (person_id, lower(name)) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, uuid.UUID(personID), pq.Array(valid), s.clock())
	if err != nil {
		return fmt.Errorf("add aliases: %w", err)
	}
	return nil
}

func (s *PostgresStore) Aliases(ctx context.Context, personID id.PersonID) ([]string, error) {
	query := `SELECT name FROM person_aliases WHERE person_id = $1 ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(personID))
	if err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}
	defer rows.Close()

	var aliases []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		aliases = append(aliases, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aliases: %w", err)
	}
	return aliases, nil
}

const qualifiedPersonColumns = `p.id, p.canonical_name, p.default_visibility, p.created_by, p.claimed_by, p.created_at, p.updated_at`

func scanPerson(row *sql.Row) (*Person, error) {
	var (
		personID  uuid.UUID
		state     string
		createdBy uuid.UUID
		claimedBy uuid.NullUUID
		person    Person
	)
	err := row.Scan(&personID, &person.CanonicalName, &state, &createdBy, &claimedBy, &person.CreatedAt, &person.UpdatedAt)
	if err != nil {
		return nil, err
	}
	person.ID = id.PersonID(personID)
	// Normalize on read so an unrecognized stored state degrades to
	// pending instead of surfacing.
	person.DefaultVisibility = visibility.Normalize(state)
	person.CreatedBy = id.ContributorID(createdBy)
	if claimedBy.Valid {
		person.ClaimedBy = id.ContributorID(claimedBy.UUID)
	}
	return &person, nil
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
