package auth

import (
	"testing"
	"time"

	"wealthreactor/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-test-secret-test-secret"

func newTestIssuer(t *testing.T, operators ...string) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(testSecret, operators, time.Hour)
	require.NoError(t, err)
	return issuer
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, "ops")

	token, expiresAt, err := issuer.Mint("ops")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	operator, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", operator)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, "ops", "former")
	validToken, _, err := issuer.Mint("ops")
	require.NoError(t, err)

	otherIssuer, err := NewTokenIssuer("another-secret-another-secret-xx", []string{"ops"}, time.Hour)
	require.NoError(t, err)
	foreignToken, _, err := otherIssuer.Mint("ops")
	require.NoError(t, err)

	expiredIssuer := newTestIssuer(t, "ops")
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, err := expiredIssuer.Mint("ops")
	require.NoError(t, err)

	revokedToken, _, err := issuer.Mint("former")
	require.NoError(t, err)
	revoking := newTestIssuer(t, "ops")

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   "ops",
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		issuer *TokenIssuer
		token  string
	}{
		{name: "wrong secret", issuer: issuer, token: foreignToken},
		{name: "expired", issuer: issuer, token: expiredToken},
		{name: "operator removed from allowlist", issuer: revoking, token: revokedToken},
		{name: "unsigned", issuer: issuer, token: noneToken},
		{name: "garbage", issuer: issuer, token: "not-a-jwt"},
		{name: "empty", issuer: issuer, token: ""},
		{name: "tampered", issuer: issuer, token: validToken + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			operator, err := tt.issuer.Verify(tt.token)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
			assert.Empty(t, operator)
		})
	}
}

func TestTokenIssuer_MintUnknownOperator(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, "ops")

	_, _, err := issuer.Mint("mallory")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestNewTokenIssuer_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewTokenIssuer("", []string{"ops"}, time.Hour)
	assert.Error(t, err)

	_, err = NewTokenIssuer(testSecret, []string{"ops"}, 0)
	assert.Error(t, err)
}
