package entities

import (
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

// User represents a site participant identified by a unique username
type User struct {
	ID                 int64             `db:"id"`
	Username           string            `db:"username"`
	WalletAddress      *string           `db:"wallet_address"`
	ReferrerUsername   *string           `db:"referrer_username"`
	ReferrerL2Username *string           `db:"referrer_l2_username"`
	HasPaid            bool              `db:"has_paid"`
	PaymentTx          *string           `db:"payment_tx"`
	Links              map[string]string `db:"links"`
	CreatedAt          time.Time         `db:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at"`
}

// NormalizeUsername case-folds and trims a username candidate
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// IsValidUsername reports whether an already-normalized username matches ^[a-z0-9_]{3,20}$
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// NormalizeWallet case-folds and trims a wallet address
func NormalizeWallet(wallet string) string {
	return strings.ToLower(strings.TrimSpace(wallet))
}

// IsValidWallet reports whether the address is 0x followed by 40 hex characters
func IsValidWallet(wallet string) bool {
	return strings.HasPrefix(wallet, "0x") && common.IsHexAddress(wallet)
}

// HasReferrer reports whether the user was referred by someone
func (u *User) HasReferrer() bool {
	return u.ReferrerUsername != nil && *u.ReferrerUsername != ""
}

// HasL2Referrer reports whether the user has a second-level referrer
func (u *User) HasL2Referrer() bool {
	return u.ReferrerL2Username != nil && *u.ReferrerL2Username != ""
}

// CustomLink returns the user's override for a stream, if any
func (u *User) CustomLink(streamID string) (string, bool) {
	if u.Links == nil {
		return "", false
	}
	link, ok := u.Links[streamID]
	if !ok || link == "" {
		return "", false
	}
	return link, true
}

// Wallet returns the wallet address or an empty string
func (u *User) Wallet() string {
	if u.WalletAddress == nil {
		return ""
	}
	return *u.WalletAddress
}
