package repository

import (
	"errors"
	"fmt"

	"wealthreactor/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// Constraint names from the schema migrations
const (
	constraintUsername      = "users_username_key"
	constraintUserWallet    = "users_wallet_address_key"
	constraintRotatorMember = "rotator_username_key"
	constraintAgentID       = "agents_agent_id_key"
)

// uniqueViolation returns the violated constraint name when err is a unique violation
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// mapUniqueViolation translates unique violations into domain errors
func mapUniqueViolation(err error) error {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return err
	}
	switch constraint {
	case constraintUsername:
		return domain.ErrUsernameTaken
	case constraintUserWallet:
		return domain.ErrWalletInUse
	default:
		return err
	}
}

// storageError marks failures to reach the database so callers can degrade
func storageError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return err
}
