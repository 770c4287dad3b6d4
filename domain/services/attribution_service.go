package services

import (
	"context"
	"fmt"
	"time"

	"wealthreactor/domain"
	"wealthreactor/domain/entities"
	"wealthreactor/domain/interfaces"
	"wealthreactor/events"

	log "github.com/sirupsen/logrus"
)

// attributionService applies the side effects of a verified payment.
// It must run over repositories bound to a single transaction.
type attributionService struct {
	userRepo       interfaces.UserRepository
	commissionRepo interfaces.CommissionRepository
	rotatorRepo    interfaces.RotatorRepository
	eventPublisher interfaces.EventPublisher
	pricing        entities.Pricing
	lease          time.Duration
	now            func() time.Time
}

// NewAttributionService creates a new attribution service
func NewAttributionService(
	userRepo interfaces.UserRepository,
	commissionRepo interfaces.CommissionRepository,
	rotatorRepo interfaces.RotatorRepository,
	eventPublisher interfaces.EventPublisher,
	pricing entities.Pricing,
	lease time.Duration,
) interfaces.AttributionService {
	return newAttributionService(userRepo, commissionRepo, rotatorRepo, eventPublisher, pricing, lease, time.Now)
}

func newAttributionService(
	userRepo interfaces.UserRepository,
	commissionRepo interfaces.CommissionRepository,
	rotatorRepo interfaces.RotatorRepository,
	eventPublisher interfaces.EventPublisher,
	pricing entities.Pricing,
	lease time.Duration,
	now func() time.Time,
) *attributionService {
	if lease <= 0 {
		lease = entities.DefaultRotatorLease
	}
	return &attributionService{
		userRepo:       userRepo,
		commissionRepo: commissionRepo,
		rotatorRepo:    rotatorRepo,
		eventPublisher: eventPublisher,
		pricing:        pricing,
		lease:          lease,
		now:            now,
	}
}

// OnPaymentVerified marks the user paid, credits L1/L2 commissions and grants a rotator lease.
// A user that is already paid is left untouched.
func (s *attributionService) OnPaymentVerified(ctx context.Context, username, wallet string, txHash *string) (*entities.PaymentResult, error) {
	username = entities.NormalizeUsername(username)
	wallet = entities.NormalizeWallet(wallet)
	if !entities.IsValidUsername(username) {
		return nil, domain.ErrInvalidFormat
	}
	if !entities.IsValidWallet(wallet) {
		return nil, domain.ErrInvalidWallet
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", username, domain.ErrNotFound)
	}

	result := &entities.PaymentResult{
		Verified: true,
		Username: username,
		Wallet:   wallet,
	}
	if txHash != nil {
		result.TxHash = *txHash
	}

	flipped, err := s.userRepo.MarkPaid(ctx, username, wallet, txHash)
	if err != nil {
		return nil, fmt.Errorf("failed to mark user paid: %w", err)
	}
	if !flipped {
		log.WithFields(log.Fields{
			"username": username,
			"wallet":   wallet,
		}).Info("Payment already applied, skipping attribution")
		result.AlreadyPaid = true
		return result, nil
	}

	s.publish(events.PaymentVerifiedEvent{
		Username: username,
		Wallet:   wallet,
		TxHash:   result.TxHash,
	})

	var l1Earner string
	if user.HasReferrer() {
		l1Earner = *user.ReferrerUsername
		commission, err := s.credit(ctx, l1Earner, username, entities.CommissionLevelDirect)
		if err != nil {
			return nil, err
		}
		if commission != nil {
			result.Commissions = append(result.Commissions, commission)
		}
	}

	if user.HasL2Referrer() && *user.ReferrerL2Username != l1Earner {
		commission, err := s.credit(ctx, *user.ReferrerL2Username, username, entities.CommissionLevelIndirect)
		if err != nil {
			return nil, err
		}
		if commission != nil {
			result.Commissions = append(result.Commissions, commission)
		}
	}

	now := s.now()
	current, err := s.rotatorRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get rotator entry: %w", err)
	}
	entry, err := s.rotatorRepo.Grant(ctx, username, txHash, now, s.lease)
	if err != nil {
		return nil, fmt.Errorf("failed to grant rotator lease: %w", err)
	}
	result.Rotator = entry

	s.publish(events.RotatorJoinedEvent{
		Username:  username,
		ExpiresAt: entry.ExpiresAt.Unix(),
		Extended:  current != nil && current.IsActiveAt(now),
	})

	log.WithFields(log.Fields{
		"username":    username,
		"wallet":      wallet,
		"commissions": len(result.Commissions),
		"expiresAt":   entry.ExpiresAt,
	}).Info("Payment attributed")

	return result, nil
}

// credit writes one commission unless the earner is missing, is the payer, or was already credited
func (s *attributionService) credit(ctx context.Context, earner, referral string, level entities.CommissionLevel) (*entities.Commission, error) {
	if earner == referral {
		return nil, nil
	}

	earnerUser, err := s.userRepo.GetByUsername(ctx, earner)
	if err != nil {
		return nil, fmt.Errorf("failed to get level %d earner: %w", level, err)
	}
	if earnerUser == nil {
		log.WithFields(log.Fields{
			"earner":   earner,
			"referral": referral,
			"level":    level,
		}).Warn("Commission earner no longer exists")
		return nil, nil
	}

	commission := &entities.Commission{
		EarnerUsername:   earner,
		ReferralUsername: referral,
		Level:            level,
		Amount:           s.pricing.CommissionFor(level),
		Status:           entities.CommissionStatusPending,
	}
	if err := commission.Validate(); err != nil {
		return nil, fmt.Errorf("invalid commission: %w", err)
	}

	inserted, err := s.commissionRepo.Create(ctx, commission)
	if err != nil {
		return nil, fmt.Errorf("failed to create level %d commission: %w", level, err)
	}
	if !inserted {
		return nil, nil
	}

	s.publish(events.CommissionCreditedEvent{
		EarnerUsername:   earner,
		ReferralUsername: referral,
		Level:            int(level),
		Amount:           commission.Amount.StringFixed(2),
	})
	return commission, nil
}

func (s *attributionService) publish(event events.Event) {
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Warn("Failed to publish event")
	}
}
