package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"memoria/internal/visibility"
	id "memoria/pkg/domain"
)

// PostgresStore persists audit events for the "who saw what about me"
// view. It is one sink among several; Kafka carries the streaming copy.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts an audit event.
func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (
			timestamp, action, category, actor_id, person_id, story_id,
			reference_id, scope, old_state, new_state, reason,
			request_id, client_ip, device
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Timestamp,
		string(event.Action),
		string(event.Category),
		nullableUUID(uuid.UUID(event.Actor)),
		nullableUUID(uuid.UUID(event.Person)),
		nullableUUID(uuid.UUID(event.Story)),
		nullableUUID(uuid.UUID(event.Reference)),
		string(event.Scope),
		string(event.OldState),
		string(event.NewState),
		event.Reason,
		event.RequestID,
		event.ClientIP,
		event.Device,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByPerson returns the audit trail for one person, oldest first, so
// the person-facing activity view reads chronologically.
func (s *PostgresStore) ListByPerson(ctx context.Context, personID id.PersonID) ([]Event, error) {
	query := `
		SELECT timestamp, action, category, actor_id, person_id, story_id,
		       reference_id, scope, old_state, new_state, reason,
		       request_id, client_ip, device
		FROM audit_events
		WHERE person_id = $1
		ORDER BY timestamp
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(personID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event     Event
			action    string
			category  string
			actor     uuid.NullUUID
			person    uuid.NullUUID
			story     uuid.NullUUID
			reference uuid.NullUUID
			scope     string
			oldState  string
			newState  string
		)
		err := rows.Scan(
			&event.Timestamp, &action, &category, &actor, &person, &story,
			&reference, &scope, &oldState, &newState, &event.Reason,
			&event.RequestID, &event.ClientIP, &event.Device,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = Action(action)
		event.Category = Category(category)
		event.Scope = Scope(scope)
		event.OldState = visibility.State(oldState)
		event.NewState = visibility.State(newState)
		if actor.Valid {
			event.Actor = id.ContributorID(actor.UUID)
		}
		if person.Valid {
			event.Person = id.PersonID(person.UUID)
		}
		if story.Valid {
			event.Story = id.StoryID(story.UUID)
		}
		if reference.Valid {
			event.Reference = id.ReferenceID(reference.UUID)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nullableUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
