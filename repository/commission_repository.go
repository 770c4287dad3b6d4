package repository

import (
	"context"
	"errors"
	"fmt"

	"wealthreactor/database"
	"wealthreactor/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Amounts cross the wire as text so NUMERIC(12,2) never passes through float64
const commissionColumns = `
	id,
	earner_username,
	referral_username,
	level,
	amount::text,
	status,
	created_at,
	paid_at`

// CommissionRepository implements the CommissionRepository interface
type CommissionRepository struct {
	q queryable
}

// NewCommissionRepository creates a new commission repository
func NewCommissionRepository(db *database.DB) *CommissionRepository {
	return &CommissionRepository{q: db.Pool}
}

func newCommissionRepositoryWithTx(tx queryable) *CommissionRepository {
	return &CommissionRepository{q: tx}
}

func scanCommission(row pgx.Row) (*entities.Commission, error) {
	var c entities.Commission
	var amount string
	err := row.Scan(
		&c.ID,
		&c.EarnerUsername,
		&c.ReferralUsername,
		&c.Level,
		&amount,
		&c.Status,
		&c.CreatedAt,
		&c.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	c.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid commission amount %q: %w", amount, err)
	}
	return &c, nil
}

// Create inserts the commission; the (referral_username, level) key makes repeats a no-op
func (r *CommissionRepository) Create(ctx context.Context, commission *entities.Commission) (bool, error) {
	query := `
		INSERT INTO commissions (earner_username, referral_username, level, amount, status)
		VALUES ($1, $2, $3, $4::numeric, $5)
		ON CONFLICT (referral_username, level) DO NOTHING
		RETURNING id, created_at
	`

	status := commission.Status
	if status == "" {
		status = entities.CommissionStatusPending
	}

	err := r.q.QueryRow(ctx, query,
		commission.EarnerUsername,
		commission.ReferralUsername,
		int(commission.Level),
		commission.Amount.StringFixed(2),
		string(status),
	).Scan(&commission.ID, &commission.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create commission for %s: %w", commission.EarnerUsername, storageError(err))
	}

	commission.Status = status
	return true, nil
}

func (r *CommissionRepository) list(ctx context.Context, query string, arg string) ([]*entities.Commission, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, storageError(err)
	}
	defer rows.Close()

	commissions := make([]*entities.Commission, 0)
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commission: %w", err)
		}
		commissions = append(commissions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commissions: %w", err)
	}
	return commissions, nil
}

// GetByReferral returns the commissions generated by a referred user's payment
func (r *CommissionRepository) GetByReferral(ctx context.Context, referralUsername string) ([]*entities.Commission, error) {
	query := `SELECT ` + commissionColumns + ` FROM commissions WHERE referral_username = $1 ORDER BY level`

	commissions, err := r.list(ctx, query, referralUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to get commissions for referral %s: %w", referralUsername, err)
	}
	return commissions, nil
}

// GetByEarner returns the commissions credited to a user, newest first
func (r *CommissionRepository) GetByEarner(ctx context.Context, earnerUsername string) ([]*entities.Commission, error) {
	query := `SELECT ` + commissionColumns + ` FROM commissions WHERE earner_username = $1 ORDER BY created_at DESC, id DESC`

	commissions, err := r.list(ctx, query, earnerUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to get commissions for earner %s: %w", earnerUsername, err)
	}
	return commissions, nil
}

func (r *CommissionRepository) sumPair(row pgx.Row) (decimal.Decimal, decimal.Decimal, error) {
	var totalText, pendingText string
	if err := row.Scan(&totalText, &pendingText); err != nil {
		return decimal.Zero, decimal.Zero, storageError(err)
	}
	total, err := decimal.NewFromString(totalText)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	pending, err := decimal.NewFromString(pendingText)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return total, pending, nil
}

// GetEarnings returns total and pending commission amounts for a user
func (r *CommissionRepository) GetEarnings(ctx context.Context, earnerUsername string) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT
			COALESCE(SUM(amount), 0)::text,
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0)::text
		FROM commissions
		WHERE earner_username = $1
	`

	total, pending, err := r.sumPair(r.q.QueryRow(ctx, query, earnerUsername))
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to get earnings for %s: %w", earnerUsername, err)
	}
	return total, pending, nil
}

// GetTotals returns site-wide total and pending commission amounts
func (r *CommissionRepository) GetTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT
			COALESCE(SUM(amount), 0)::text,
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0)::text
		FROM commissions
	`

	total, pending, err := r.sumPair(r.q.QueryRow(ctx, query))
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to get commission totals: %w", err)
	}
	return total, pending, nil
}

// GetLeaderboard returns the top earners by total commission amount
func (r *CommissionRepository) GetLeaderboard(ctx context.Context, limit int) ([]*entities.LeaderboardEntry, error) {
	query := `
		SELECT
			earner_username,
			COUNT(*) FILTER (WHERE level = 1),
			COUNT(*) FILTER (WHERE level = 2),
			SUM(amount)::text
		FROM commissions
		GROUP BY earner_username
		ORDER BY SUM(amount) DESC, earner_username ASC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", storageError(err))
	}
	defer rows.Close()

	entries := make([]*entities.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var entry entities.LeaderboardEntry
		var total string
		if err := rows.Scan(&entry.Username, &entry.L1Count, &entry.L2Count, &total); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entry.TotalEarned, err = decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("invalid leaderboard total %q: %w", total, err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}
	return entries, nil
}
