package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wealthreactor/database"
	"wealthreactor/domain"
	"wealthreactor/domain/entities"

	"github.com/jackc/pgx/v5"
)

const rotatorColumns = `id, username, expires_at, tx_hash, created_at, updated_at`

// RotatorRepository implements the RotatorRepository interface
type RotatorRepository struct {
	q queryable
}

// NewRotatorRepository creates a new rotator repository
func NewRotatorRepository(db *database.DB) *RotatorRepository {
	return &RotatorRepository{q: db.Pool}
}

func newRotatorRepositoryWithTx(tx queryable) *RotatorRepository {
	return &RotatorRepository{q: tx}
}

func scanRotatorEntry(row pgx.Row) (*entities.RotatorEntry, error) {
	var entry entities.RotatorEntry
	err := row.Scan(
		&entry.ID,
		&entry.Username,
		&entry.ExpiresAt,
		&entry.TxHash,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetByUsername returns the entry regardless of expiry
func (r *RotatorRepository) GetByUsername(ctx context.Context, username string) (*entities.RotatorEntry, error) {
	query := `SELECT ` + rotatorColumns + ` FROM rotator WHERE username = $1`

	entry, err := scanRotatorEntry(r.q.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rotator entry for %s: %w", username, storageError(err))
	}
	return entry, nil
}

// Grant extends an unexpired lease by one lease period or restarts it at now, in one statement
func (r *RotatorRepository) Grant(ctx context.Context, username string, txHash *string, now time.Time, lease time.Duration) (*entities.RotatorEntry, error) {
	query := `
		INSERT INTO rotator (username, expires_at, tx_hash, created_at, updated_at)
		VALUES ($1, $2::timestamptz + make_interval(secs => $3), $4, $2, $2)
		ON CONFLICT (username) DO UPDATE SET
			expires_at = CASE
				WHEN rotator.expires_at > $2::timestamptz THEN rotator.expires_at + make_interval(secs => $3)
				ELSE $2::timestamptz + make_interval(secs => $3)
			END,
			tx_hash = COALESCE(EXCLUDED.tx_hash, rotator.tx_hash),
			updated_at = $2
		RETURNING ` + rotatorColumns

	entry, err := scanRotatorEntry(r.q.QueryRow(ctx, query, username, now, lease.Seconds(), txHash))
	if err != nil {
		return nil, fmt.Errorf("failed to grant rotator lease for %s: %w", username, storageError(err))
	}
	return entry, nil
}

// EnsureActive starts a lease when absent or expired and leaves a running lease untouched
func (r *RotatorRepository) EnsureActive(ctx context.Context, username string, now time.Time, lease time.Duration) (*entities.RotatorEntry, error) {
	query := `
		INSERT INTO rotator (username, expires_at, created_at, updated_at)
		VALUES ($1, $2::timestamptz + make_interval(secs => $3), $2, $2)
		ON CONFLICT (username) DO UPDATE SET
			expires_at = CASE
				WHEN rotator.expires_at > $2::timestamptz THEN rotator.expires_at
				ELSE $2::timestamptz + make_interval(secs => $3)
			END,
			updated_at = $2
		RETURNING ` + rotatorColumns

	entry, err := scanRotatorEntry(r.q.QueryRow(ctx, query, username, now, lease.Seconds()))
	if err != nil {
		return nil, fmt.Errorf("failed to activate rotator entry for %s: %w", username, storageError(err))
	}
	return entry, nil
}

// Expire ends the lease at now; an already expired lease keeps its earlier expiry
func (r *RotatorRepository) Expire(ctx context.Context, username string, now time.Time) error {
	query := `
		UPDATE rotator
		SET expires_at = LEAST(expires_at, $2), updated_at = $2
		WHERE username = $1
	`

	result, err := r.q.Exec(ctx, query, username, now)
	if err != nil {
		return fmt.Errorf("failed to expire rotator entry for %s: %w", username, storageError(err))
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("rotator entry %s: %w", username, domain.ErrNotFound)
	}
	return nil
}

// Delete removes the user's entry
func (r *RotatorRepository) Delete(ctx context.Context, username string) error {
	result, err := r.q.Exec(ctx, `DELETE FROM rotator WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("failed to delete rotator entry for %s: %w", username, storageError(err))
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("rotator entry %s: %w", username, domain.ErrNotFound)
	}
	return nil
}

// ListActive returns unexpired entries ordered by join time
func (r *RotatorRepository) ListActive(ctx context.Context, now time.Time) ([]*entities.RotatorEntry, error) {
	query := `
		SELECT ` + rotatorColumns + `
		FROM rotator
		WHERE expires_at > $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active rotator entries: %w", storageError(err))
	}
	defer rows.Close()

	entries := make([]*entities.RotatorEntry, 0)
	for rows.Next() {
		entry, err := scanRotatorEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rotator entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rotator entries: %w", err)
	}
	return entries, nil
}
