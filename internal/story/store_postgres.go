package story

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "memoria/pkg/domain"
	"memoria/pkg/platform/sentinel"
)

// Clock supplies the current time, injectable for tests.
type Clock func() time.Time

// PostgresStore persists stories in the stories table.
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

// NewPostgresStore constructs a PostgreSQL-backed story store.
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

const storyColumns = `id, author_id, title, body, status, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, st *Story) error {
	now := s.clock()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	st.UpdatedAt = st.CreatedAt

	query := `
		INSERT INTO stories (` + storyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(st.ID),
		uuid.UUID(st.AuthorID),
		st.Title,
		st.Body,
		string(st.Status),
		st.CreatedAt,
		st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create story: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, storyID id.StoryID) (*Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE id = $1`
	st, err := scanStory(s.db.QueryRowContext(ctx, query, uuid.UUID(storyID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get story: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Story, error) {
	query := `
		SELECT ` + storyColumns + ` FROM stories
		WHERE status = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, string(StatusPublished), limit)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	var stories []Story
	for rows.Next() {
		st, err := scanStoryRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stories: %w", err)
	}
	return stories, nil
}

// scannable covers both sql.Row and sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanStory(row *sql.Row) (*Story, error) {
	return scanStoryRow(row)
}

func scanStoryRow(row scannable) (*Story, error) {
	var (
		storyID  uuid.UUID
		authorID uuid.UUID
		status   string
		st       Story
	)
	err := row.Scan(&storyID, &authorID, &st.Title, &st.Body, &status, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	st.ID = id.StoryID(storyID)
	st.AuthorID = id.ContributorID(authorID)
	// An unrecognized stored status reads as held, never as published.
	st.Status = normalizeStatus(status)
	return &st, nil
}
