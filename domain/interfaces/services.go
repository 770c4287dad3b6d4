package interfaces

import (
	"context"

	"wealthreactor/domain/entities"
)

// RegistryService defines the interface for username reservation and lookup
type RegistryService interface {
	// Reserve validates and stores a new unpaid username, capturing the referrer chain
	Reserve(ctx context.Context, username, referrer string) (*entities.User, error)

	// Lookup returns the user or domain.ErrNotFound
	Lookup(ctx context.Context, username string) (*entities.User, error)

	// LookupByWallet returns the user bound to a wallet or domain.ErrNotFound
	LookupByWallet(ctx context.Context, wallet string) (*entities.User, error)

	// SaveLinks merges custom stream links into the user's profile
	SaveLinks(ctx context.Context, username string, links map[string]string) (*entities.User, error)

	// Stats returns referral counts and commission earnings for a user
	Stats(ctx context.Context, username string) (*entities.ReferralStats, error)
}

// AttributionService defines the interface for applying a verified payment
type AttributionService interface {
	// OnPaymentVerified marks the user paid, credits referrers and grants a rotator lease
	OnPaymentVerified(ctx context.Context, username, wallet string, txHash *string) (*entities.PaymentResult, error)
}

// RotatorService defines the interface for featured-slot membership
type RotatorService interface {
	// Join grants or extends a lease for a paid user
	Join(ctx context.Context, username string, txHash *string) (*entities.RotatorEntry, error)

	// ListActive returns unexpired entries, oldest first
	ListActive(ctx context.Context) ([]*entities.RotatorEntry, error)

	// PickFeatured returns a uniformly random active entry, or nil when there is none
	PickFeatured(ctx context.Context) (*entities.RotatorEntry, error)

	// Snapshot returns the active entries and a pick drawn from that same list
	Snapshot(ctx context.Context) ([]*entities.RotatorEntry, *entities.RotatorEntry, error)

	// SetActive starts a lease (never shortening one) or expires it now
	SetActive(ctx context.Context, username string, active bool) (*entities.RotatorEntry, error)

	// Add activates a user without payment checks
	Add(ctx context.Context, username string) (*entities.RotatorEntry, error)

	// Remove deletes the user's entry
	Remove(ctx context.Context, username string) error
}

// ProfileService defines the interface for composing public profile pages
type ProfileService interface {
	ComposeProfile(ctx context.Context, username string) (*entities.Profile, error)
	ComposeProfileByWallet(ctx context.Context, wallet string) (*entities.Profile, error)
}

// AgentService defines the interface for the programmatic agent API
type AgentService interface {
	// Register stores a new agent; an existing id is returned unchanged with created=false
	Register(ctx context.Context, params entities.RegisterAgentParams) (agent *entities.Agent, created bool, err error)

	// GetLink returns the agent's referral link and embed snippet
	GetLink(ctx context.Context, agentID string) (*entities.AgentLink, error)

	// Stats returns the agent's referral tree and notional earnings
	Stats(ctx context.Context, agentID string) (*entities.AgentStats, error)

	// SetWebhook stores an absolute http(s) notification URL for the agent
	SetWebhook(ctx context.Context, agentID, webhookURL string) (*entities.Agent, error)
}

// LeaderboardService defines the interface for the public earnings board
type LeaderboardService interface {
	// GetLeaderboard returns top earners; limit defaults to 10 and is capped at 100
	GetLeaderboard(ctx context.Context, limit int) ([]*entities.LeaderboardEntry, error)

	// GetGlobalStats returns site-wide totals
	GetGlobalStats(ctx context.Context) (*entities.GlobalStats, error)
}

// PaymentOracle answers whether a wallet has paid the access fee on chain
type PaymentOracle interface {
	// VerifyPayment checks the chain; txHash may be empty.
	// Network failures are reported as domain.ErrOracleUnreachable.
	VerifyPayment(ctx context.Context, wallet, txHash string) (*entities.PaymentVerification, error)
}
