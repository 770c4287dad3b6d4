package repository

import (
	"context"
	"errors"
	"fmt"

	"wealthreactor/database"
	"wealthreactor/domain"
	"wealthreactor/domain/entities"

	"github.com/jackc/pgx/v5"
)

const userColumns = `
	id,
	username,
	wallet_address,
	referrer_username,
	referrer_l2_username,
	has_paid,
	payment_tx,
	links,
	created_at,
	updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.WalletAddress,
		&user.ReferrerUsername,
		&user.ReferrerL2Username,
		&user.HasPaid,
		&user.PaymentTx,
		&user.Links,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if user.Links == nil {
		user.Links = map[string]string{}
	}
	return &user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", username, storageError(err))
	}
	return user, nil
}

// GetByWallet retrieves a user by wallet address
func (r *UserRepository) GetByWallet(ctx context.Context, wallet string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE wallet_address = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, wallet))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by wallet %s: %w", wallet, storageError(err))
	}
	return user, nil
}

// Create inserts a new user and fills in generated fields
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (username, referrer_username, referrer_l2_username, has_paid, links)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	links := user.Links
	if links == nil {
		links = map[string]string{}
	}

	err := r.q.QueryRow(ctx, query,
		user.Username,
		user.ReferrerUsername,
		user.ReferrerL2Username,
		user.HasPaid,
		links,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Username, mapUniqueViolation(storageError(err)))
	}

	user.Links = links
	return nil
}

// UpdateLinks replaces the user's custom links
func (r *UserRepository) UpdateLinks(ctx context.Context, username string, links map[string]string) (*entities.User, error) {
	query := `
		UPDATE users
		SET links = $2, updated_at = NOW()
		WHERE username = $1
		RETURNING ` + userColumns

	if links == nil {
		links = map[string]string{}
	}

	user, err := scanUser(r.q.QueryRow(ctx, query, username, links))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", username, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update links for %s: %w", username, storageError(err))
	}
	return user, nil
}

// MarkPaid flips has_paid once and binds the wallet
func (r *UserRepository) MarkPaid(ctx context.Context, username, wallet string, txHash *string) (bool, error) {
	query := `
		UPDATE users
		SET has_paid = TRUE,
			wallet_address = $2,
			payment_tx = COALESCE($3, payment_tx),
			updated_at = NOW()
		WHERE username = $1 AND has_paid = FALSE
	`

	result, err := r.q.Exec(ctx, query, username, wallet, txHash)
	if err != nil {
		return false, fmt.Errorf("failed to mark user %s paid: %w", username, mapUniqueViolation(storageError(err)))
	}
	return result.RowsAffected() == 1, nil
}

// CountReferrals returns direct and second-level referral counts
func (r *UserRepository) CountReferrals(ctx context.Context, username string) (int64, int64, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE referrer_username = $1),
			COUNT(*) FILTER (WHERE referrer_l2_username = $1)
		FROM users
		WHERE referrer_username = $1 OR referrer_l2_username = $1
	`

	var l1, l2 int64
	if err := r.q.QueryRow(ctx, query, username).Scan(&l1, &l2); err != nil {
		return 0, 0, fmt.Errorf("failed to count referrals for %s: %w", username, storageError(err))
	}
	return l1, l2, nil
}

// CountUsers returns total and paid user counts
func (r *UserRepository) CountUsers(ctx context.Context) (int64, int64, error) {
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE has_paid) FROM users`

	var total, paid int64
	if err := r.q.QueryRow(ctx, query).Scan(&total, &paid); err != nil {
		return 0, 0, fmt.Errorf("failed to count users: %w", storageError(err))
	}
	return total, paid, nil
}

// GetAll returns all users, newest first
func (r *UserRepository) GetAll(ctx context.Context) ([]*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", storageError(err))
	}
	defer rows.Close()

	users := make([]*entities.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
