package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wealthreactor/application/dto"
	"wealthreactor/domain"
	"wealthreactor/domain/entities"
	"wealthreactor/domain/interfaces"
	"wealthreactor/domain/services"
	"wealthreactor/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// PaymentSettings carries what payment attribution needs besides storage
type PaymentSettings struct {
	Strategy     string
	Pricing      entities.Pricing
	RotatorLease time.Duration
	Treasury     string
}

// PaymentHandler verifies on-chain payments and applies their side effects
type PaymentHandler interface {
	// VerifyPayment asks the oracle and, when paid, runs attribution in one transaction
	VerifyPayment(ctx context.Context, username, wallet, txHash string) (*dto.PaymentOutcomeDTO, error)

	// CheckWallet asks the oracle only
	CheckWallet(ctx context.Context, wallet string) (*dto.WalletCheckDTO, error)
}

type paymentHandler struct {
	uowFactory UnitOfWorkFactory
	oracle     interfaces.PaymentOracle
	settings   PaymentSettings
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(uowFactory UnitOfWorkFactory, oracle interfaces.PaymentOracle, settings PaymentSettings) PaymentHandler {
	return &paymentHandler{
		uowFactory: uowFactory,
		oracle:     oracle,
		settings:   settings,
	}
}

// VerifyPayment checks the chain before any transaction is opened. An unreachable
// oracle is reported to the caller as payment_not_found.
func (h *paymentHandler) VerifyPayment(ctx context.Context, username, wallet, txHash string) (*dto.PaymentOutcomeDTO, error) {
	metrics := observability.GetMetrics()

	username = entities.NormalizeUsername(username)
	wallet = entities.NormalizeWallet(wallet)
	txHash = strings.TrimSpace(txHash)
	if !entities.IsValidUsername(username) {
		return nil, domain.ErrInvalidFormat
	}
	if !entities.IsValidWallet(wallet) {
		return nil, domain.ErrInvalidWallet
	}

	// Unknown usernames must not cost a chain scan
	if err := h.requireUser(ctx, username); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.RecordPaymentVerification(observability.OutcomeUnknownUser)
		} else {
			metrics.RecordPaymentVerification(observability.OutcomeError)
		}
		return nil, err
	}

	verification, err := h.verify(ctx, wallet, txHash)
	if err != nil {
		if errors.Is(err, domain.ErrOracleUnreachable) {
			metrics.RecordPaymentVerification(observability.OutcomeUnreachable)
			return nil, fmt.Errorf("oracle unavailable for %s: %w", wallet, domain.ErrPaymentNotFound)
		}
		metrics.RecordPaymentVerification(observability.OutcomeError)
		return nil, err
	}

	if !verification.Paid {
		metrics.RecordPaymentVerification(observability.OutcomeNotFound)
		return nil, fmt.Errorf("no qualifying payment from %s: %w", wallet, domain.ErrPaymentNotFound)
	}

	if verification.AttributedUsername != "" && verification.AttributedUsername != username {
		log.WithFields(log.Fields{
			"username":           username,
			"attributedUsername": verification.AttributedUsername,
			"wallet":             wallet,
		}).Warn("On-chain payment is attributed to a different username")
		metrics.RecordPaymentVerification(observability.OutcomeNotFound)
		return nil, fmt.Errorf("payment from %s belongs to another username: %w", wallet, domain.ErrPaymentNotFound)
	}

	var paidTx *string
	switch {
	case verification.TxHash != "":
		paidTx = &verification.TxHash
	case txHash != "":
		paidTx = &txHash
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		metrics.RecordPaymentVerification(observability.OutcomeError)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	attribution := services.NewAttributionService(
		uow.UserRepository(),
		uow.CommissionRepository(),
		uow.RotatorRepository(),
		uow.EventBus(),
		h.settings.Pricing,
		h.settings.RotatorLease,
	)

	result, err := attribution.OnPaymentVerified(ctx, username, wallet, paidTx)
	if err != nil {
		metrics.RecordPaymentVerification(observability.OutcomeError)
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		metrics.RecordPaymentVerification(observability.OutcomeError)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if result.AlreadyPaid {
		metrics.RecordPaymentVerification(observability.OutcomeAlreadyPaid)
	} else {
		metrics.RecordPaymentVerification(observability.OutcomeVerified)
		for _, c := range result.Commissions {
			metrics.RecordCommissionCredited(int(c.Level))
		}
		if result.Rotator != nil {
			metrics.RecordRotatorJoin(false)
		}
	}

	return toPaymentOutcome(result), nil
}

// CheckWallet reports the oracle's view of a wallet without touching storage
func (h *paymentHandler) CheckWallet(ctx context.Context, wallet string) (*dto.WalletCheckDTO, error) {
	wallet = entities.NormalizeWallet(wallet)
	if !entities.IsValidWallet(wallet) {
		return nil, domain.ErrInvalidWallet
	}

	check := &dto.WalletCheckDTO{
		Wallet:   wallet,
		Treasury: h.settings.Treasury,
		Required: fmt.Sprintf("$%s USDC", h.settings.Pricing.AccessFee.StringFixed(2)),
	}

	verification, err := h.verify(ctx, wallet, "")
	if errors.Is(err, domain.ErrOracleUnreachable) {
		return check, nil
	}
	if err != nil {
		return nil, err
	}

	check.HasPaid = verification.Paid
	check.TxHash = verification.TxHash
	return check, nil
}

// requireUser checks the username exists in a short read-only transaction that
// is closed before the oracle is called
func (h *paymentHandler) requireUser(ctx context.Context, username string) error {
	var user *entities.User
	err := readOnly(ctx, h.uowFactory, func(uow UnitOfWork) error {
		var err error
		user, err = uow.UserRepository().GetByUsername(ctx, username)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %s: %w", username, domain.ErrNotFound)
	}
	return nil
}

// verify calls the oracle and logs not-found and unreachable distinctly
func (h *paymentHandler) verify(ctx context.Context, wallet, txHash string) (*entities.PaymentVerification, error) {
	done := observability.GetMetrics().MeasureOracleCall(h.settings.Strategy)

	verification, err := h.oracle.VerifyPayment(ctx, wallet, txHash)
	switch {
	case errors.Is(err, domain.ErrOracleUnreachable):
		done(observability.OutcomeUnreachable)
		log.WithFields(log.Fields{
			"wallet":   wallet,
			"txHash":   txHash,
			"strategy": h.settings.Strategy,
			"error":    err,
		}).Warn("Payment oracle unreachable")
	case err != nil:
		done(observability.OutcomeError)
	case !verification.Paid:
		done(observability.OutcomeNotFound)
		log.WithFields(log.Fields{
			"wallet":   wallet,
			"txHash":   txHash,
			"strategy": h.settings.Strategy,
		}).Info("Payment not found on chain")
	default:
		done(observability.OutcomeVerified)
	}

	return verification, err
}

func toPaymentOutcome(result *entities.PaymentResult) *dto.PaymentOutcomeDTO {
	outcome := &dto.PaymentOutcomeDTO{
		Verified:    result.Verified,
		AlreadyPaid: result.AlreadyPaid,
		Username:    result.Username,
		Wallet:      result.Wallet,
		TxHash:      result.TxHash,
		Commissions: make([]dto.CommissionDTO, 0, len(result.Commissions)),
	}
	for _, c := range result.Commissions {
		outcome.Commissions = append(outcome.Commissions, dto.CommissionDTO{
			Earner: c.EarnerUsername,
			Level:  int(c.Level),
			Amount: c.Amount,
		})
	}
	if result.Rotator != nil {
		expires := result.Rotator.ExpiresAt.Unix()
		outcome.RotatorExpiresAt = &expires
	}
	return outcome
}
