package claims

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

// PostgresStore persists claims in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed claims store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, claim *Claim) error {
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO identity_claims (id, person_id, secret_hash, issued_by, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(claim.ID),
		uuid.UUID(claim.PersonID),
		claim.SecretHash,
		uuid.UUID(claim.IssuedBy),
		claim.ExpiresAt,
		claim.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create claim: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, claimID id.ClaimID) (*Claim, error) {
	query := `
		SELECT id, person_id, secret_hash, issued_by, expires_at, redeemed_by, redeemed_at, created_at
		FROM identity_claims
		WHERE id = $1
	`
	var (
		claimUUID  uuid.UUID
		personUUID uuid.UUID
		issuedBy   uuid.UUID
		redeemedBy uuid.NullUUID
		redeemedAt sql.NullTime
		claim      Claim
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(claimID)).Scan(
		&claimUUID, &personUUID, &claim.SecretHash, &issuedBy,
		&claim.ExpiresAt, &redeemedBy, &redeemedAt, &claim.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get claim: %w", err)
	}
	claim.ID = id.ClaimID(claimUUID)
	claim.PersonID = id.PersonID(personUUID)
	claim.IssuedBy = id.ContributorID(issuedBy)
	if redeemedBy.Valid {
		claim.RedeemedBy = id.ContributorID(redeemedBy.UUID)
	}
	if redeemedAt.Valid {
		claim.RedeemedAt = redeemedAt.Time
	}
	return &claim, nil
}

// MarkRedeemed flips the claim to redeemed only when it is still unused,
// so exactly one of two racing redemptions wins.
func (s *PostgresStore) MarkRedeemed(ctx context.Context, claimID id.ClaimID, redeemer id.ContributorID, at time.Time) error {
	query := `
		UPDATE identity_claims
		SET redeemed_by = $2, redeemed_at = $3
		WHERE id = $1 AND redeemed_by IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, uuid.UUID(claimID), uuid.UUID(redeemer), at)
	if err != nil {
		return fmt.Errorf("mark claim redeemed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Either the claim does not exist or it was already redeemed.
		if _, err := s.Get(ctx, claimID); err != nil {
			return err
		}
		return sentinel.ErrAlreadyUsed
	}
	return nil
}
