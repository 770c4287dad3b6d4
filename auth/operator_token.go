package auth

import (
	"errors"
	"fmt"
	"time"

	"wealthreactor/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "wealthreactor"
	tokenAudience = "wealthreactor-admin"
)

// OperatorClaims identifies an admin operator; the operator name is the subject
type OperatorClaims struct {
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 operator tokens against an allowlist
type TokenIssuer struct {
	secret    []byte
	operators map[string]struct{}
	ttl       time.Duration
	now       func() time.Time
}

// NewTokenIssuer creates an issuer. Without a secret no token is ever valid.
func NewTokenIssuer(secret string, operators []string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("admin token secret is not configured")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("admin token ttl must be positive, got %s", ttl)
	}

	allowed := make(map[string]struct{}, len(operators))
	for _, op := range operators {
		allowed[op] = struct{}{}
	}

	return &TokenIssuer{
		secret:    []byte(secret),
		operators: allowed,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

// Mint signs a token for an allowlisted operator
func (i *TokenIssuer) Mint(operator string) (string, time.Time, error) {
	if !i.allowed(operator) {
		return "", time.Time{}, fmt.Errorf("operator %q is not on the allowlist: %w", operator, domain.ErrUnauthorized)
	}

	now := i.now()
	expiresAt := now.Add(i.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   operator,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign operator token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, expiry and allowlist and returns the operator name
func (i *TokenIssuer) Verify(raw string) (string, error) {
	parsed, err := jwt.ParseWithClaims(raw, &OperatorClaims{}, func(token *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", fmt.Errorf("invalid operator token: %w: %w", domain.ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(*OperatorClaims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("invalid operator token claims: %w", domain.ErrUnauthorized)
	}

	// Revoking an operator takes effect on the next request
	if !i.allowed(claims.Subject) {
		return "", fmt.Errorf("operator %q is not on the allowlist: %w", claims.Subject, domain.ErrUnauthorized)
	}
	return claims.Subject, nil
}

func (i *TokenIssuer) allowed(operator string) bool {
	if operator == "" {
		return false
	}
	_, ok := i.operators[operator]
	return ok
}
