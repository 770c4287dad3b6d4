package entities

import "time"

// DefaultRotatorLease is how long a single rotator grant keeps a member featured
const DefaultRotatorLease = 24 * time.Hour

// RotatorEntry is a featured-slot lease for a paid user
type RotatorEntry struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	ExpiresAt time.Time `db:"expires_at"`
	TxHash    *string   `db:"tx_hash"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsActiveAt reports whether the lease is still running at the given time
func (e *RotatorEntry) IsActiveAt(now time.Time) bool {
	return e.ExpiresAt.After(now)
}

// Remaining returns the time left on the lease, or zero when expired
func (e *RotatorEntry) Remaining(now time.Time) time.Duration {
	if !e.IsActiveAt(now) {
		return 0
	}
	return e.ExpiresAt.Sub(now)
}

// ExtendedExpiry returns the expiry a new lease grant would produce.
// An unexpired lease is extended from its current expiry, otherwise the lease restarts now.
func ExtendedExpiry(current *RotatorEntry, now time.Time, lease time.Duration) time.Time {
	if current != nil && current.IsActiveAt(now) {
		return current.ExpiresAt.Add(lease)
	}
	return now.Add(lease)
}
