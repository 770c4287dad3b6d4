package interfaces

import (
	"context"
	"time"

	"wealthreactor/domain/entities"
	"wealthreactor/events"

	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByUsername retrieves a user by username, returning nil when absent
	GetByUsername(ctx context.Context, username string) (*entities.User, error)

	// GetByWallet retrieves a user by wallet address, returning nil when absent
	GetByWallet(ctx context.Context, wallet string) (*entities.User, error)

	// Create inserts a new unpaid user; a duplicate username yields domain.ErrUsernameTaken
	Create(ctx context.Context, user *entities.User) error

	// UpdateLinks replaces the user's custom stream links
	UpdateLinks(ctx context.Context, username string, links map[string]string) (*entities.User, error)

	// MarkPaid flips has_paid from false to true and reports whether this call flipped it
	MarkPaid(ctx context.Context, username, wallet string, txHash *string) (bool, error)

	// CountReferrals returns how many users name this user as L1 and as L2 referrer
	CountReferrals(ctx context.Context, username string) (l1 int64, l2 int64, err error)

	// CountUsers returns total and paid user counts
	CountUsers(ctx context.Context) (total int64, paid int64, err error)

	// GetAll returns all users, newest first
	GetAll(ctx context.Context) ([]*entities.User, error)
}

// CommissionRepository defines the interface for commission bookkeeping
type CommissionRepository interface {
	// Create inserts a commission unless one already exists for (referral, level)
	Create(ctx context.Context, commission *entities.Commission) (bool, error)

	// GetByReferral returns the commissions generated by a referred user's payment
	GetByReferral(ctx context.Context, referralUsername string) ([]*entities.Commission, error)

	// GetByEarner returns the commissions credited to a user
	GetByEarner(ctx context.Context, earnerUsername string) ([]*entities.Commission, error)

	// GetEarnings returns total and pending commission amounts for a user
	GetEarnings(ctx context.Context, earnerUsername string) (total decimal.Decimal, pending decimal.Decimal, err error)

	// GetLeaderboard returns the top earners by total commission amount
	GetLeaderboard(ctx context.Context, limit int) ([]*entities.LeaderboardEntry, error)

	// GetTotals returns site-wide total and pending commission amounts
	GetTotals(ctx context.Context) (total decimal.Decimal, pending decimal.Decimal, err error)
}

// RotatorRepository defines the interface for rotator leases
type RotatorRepository interface {
	// GetByUsername returns the user's entry regardless of expiry, or nil
	GetByUsername(ctx context.Context, username string) (*entities.RotatorEntry, error)

	// Grant extends an unexpired lease by the lease duration or starts a new one at now
	Grant(ctx context.Context, username string, txHash *string, now time.Time, lease time.Duration) (*entities.RotatorEntry, error)

	// EnsureActive starts a lease when the entry is absent or expired and never shortens one
	EnsureActive(ctx context.Context, username string, now time.Time, lease time.Duration) (*entities.RotatorEntry, error)

	// Expire ends the user's lease at now
	Expire(ctx context.Context, username string, now time.Time) error

	// Delete removes the user's entry
	Delete(ctx context.Context, username string) error

	// ListActive returns entries with expires_at > now ordered by created_at ascending
	ListActive(ctx context.Context, now time.Time) ([]*entities.RotatorEntry, error)
}

// AgentRepository defines the interface for the programmatic caller registry
type AgentRepository interface {
	// GetByAgentID returns the agent or nil
	GetByAgentID(ctx context.Context, agentID string) (*entities.Agent, error)

	// Create inserts the agent and reports false when the id already existed
	Create(ctx context.Context, agent *entities.Agent) (bool, error)

	// SetWebhook stores the agent's notification URL
	SetWebhook(ctx context.Context, agentID string, webhookURL string) error

	// ListReferrals returns agent ids referred directly (L1) and indirectly (L2)
	ListReferrals(ctx context.Context, agentID string) (l1 []string, l2 []string, err error)

	// Count returns the number of registered agents
	Count(ctx context.Context) (int64, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding transaction resolves
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes buffered events; called after commit
	Flush(ctx context.Context) error

	// Discard drops buffered events; called on rollback
	Discard()
}
