package services

import (
	"context"
	"fmt"
	"strings"

	"wealthreactor/domain"
	"wealthreactor/domain/entities"
	"wealthreactor/domain/interfaces"
	"wealthreactor/events"

	log "github.com/sirupsen/logrus"
)

// MaxLinkLength bounds a single custom stream URL
const MaxLinkLength = 2048

// registryService implements username reservation and lookup
type registryService struct {
	userRepo       interfaces.UserRepository
	commissionRepo interfaces.CommissionRepository
	eventPublisher interfaces.EventPublisher
}

// NewRegistryService creates a new registry service
func NewRegistryService(
	userRepo interfaces.UserRepository,
	commissionRepo interfaces.CommissionRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.RegistryService {
	return &registryService{
		userRepo:       userRepo,
		commissionRepo: commissionRepo,
		eventPublisher: eventPublisher,
	}
}

// Reserve validates and stores a new unpaid username
func (s *registryService) Reserve(ctx context.Context, username, referrer string) (*entities.User, error) {
	username = entities.NormalizeUsername(username)
	if !entities.IsValidUsername(username) {
		return nil, domain.ErrInvalidFormat
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrUsernameTaken
	}

	user := &entities.User{
		Username: username,
		HasPaid:  false,
		Links:    map[string]string{},
	}

	if err := s.attachReferrer(ctx, user, referrer); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.WithFields(log.Fields{
		"username": user.Username,
		"referrer": user.ReferrerUsername,
	}).Info("Username reserved")

	if err := s.eventPublisher.Publish(events.UserRegisteredEvent{
		Username:           user.Username,
		ReferrerUsername:   user.ReferrerUsername,
		ReferrerL2Username: user.ReferrerL2Username,
	}); err != nil {
		log.WithError(err).Warn("Failed to publish user registered event")
	}

	return user, nil
}

// attachReferrer records the referrer and its own referrer on the new user.
// Unknown referrers are dropped so that a stale link never blocks signup.
func (s *registryService) attachReferrer(ctx context.Context, user *entities.User, referrer string) error {
	referrer = entities.NormalizeUsername(referrer)
	if referrer == "" {
		return nil
	}
	if referrer == user.Username {
		return fmt.Errorf("%w: cannot refer yourself", domain.ErrInvalidReferrer)
	}
	if !entities.IsValidUsername(referrer) {
		log.WithFields(log.Fields{
			"username": user.Username,
			"referrer": referrer,
		}).Warn("Dropping malformed referrer")
		return nil
	}

	referrerUser, err := s.userRepo.GetByUsername(ctx, referrer)
	if err != nil {
		return fmt.Errorf("failed to get referrer: %w", err)
	}
	if referrerUser == nil {
		log.WithFields(log.Fields{
			"username": user.Username,
			"referrer": referrer,
		}).Warn("Dropping unknown referrer")
		return nil
	}

	user.ReferrerUsername = &referrerUser.Username

	// The chain stops at two levels: only the referrer's own referrer is captured
	if referrerUser.HasReferrer() {
		l2 := *referrerUser.ReferrerUsername
		if l2 != user.Username && l2 != referrerUser.Username {
			user.ReferrerL2Username = &l2
		}
	}
	return nil
}

// Lookup returns the user or domain.ErrNotFound
func (s *registryService) Lookup(ctx context.Context, username string) (*entities.User, error) {
	username = entities.NormalizeUsername(username)
	if !entities.IsValidUsername(username) {
		return nil, domain.ErrInvalidFormat
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", username, domain.ErrNotFound)
	}
	return user, nil
}

// LookupByWallet returns the user bound to a wallet or domain.ErrNotFound
func (s *registryService) LookupByWallet(ctx context.Context, wallet string) (*entities.User, error) {
	wallet = entities.NormalizeWallet(wallet)
	if !entities.IsValidWallet(wallet) {
		return nil, domain.ErrInvalidWallet
	}

	user, err := s.userRepo.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by wallet: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("wallet %s: %w", wallet, domain.ErrNotFound)
	}
	return user, nil
}

// SaveLinks merges custom stream links into the user's profile.
// Keys must name catalog streams and an empty value removes the override.
func (s *registryService) SaveLinks(ctx context.Context, username string, links map[string]string) (*entities.User, error) {
	user, err := s.Lookup(ctx, username)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]string, len(user.Links)+len(links))
	for id, link := range user.Links {
		merged[id] = link
	}
	for id, link := range links {
		if _, ok := entities.LookupStream(id); !ok {
			return nil, fmt.Errorf("%w: unknown stream %q", domain.ErrInvalidInput, id)
		}
		link = strings.TrimSpace(link)
		if len(link) > MaxLinkLength {
			return nil, fmt.Errorf("%w: link for %s exceeds %d characters", domain.ErrInvalidInput, id, MaxLinkLength)
		}
		if link == "" {
			delete(merged, id)
			continue
		}
		merged[id] = link
	}

	updated, err := s.userRepo.UpdateLinks(ctx, user.Username, merged)
	if err != nil {
		return nil, fmt.Errorf("failed to update links: %w", err)
	}
	return updated, nil
}

// Stats returns referral counts and commission earnings for a user
func (s *registryService) Stats(ctx context.Context, username string) (*entities.ReferralStats, error) {
	user, err := s.Lookup(ctx, username)
	if err != nil {
		return nil, err
	}

	l1, l2, err := s.userRepo.CountReferrals(ctx, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to count referrals: %w", err)
	}

	total, pending, err := s.commissionRepo.GetEarnings(ctx, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to get earnings: %w", err)
	}

	return &entities.ReferralStats{
		ReferralCount:   l1,
		L2ReferralCount: l2,
		TotalEarned:     total,
		PendingEarned:   pending,
	}, nil
}
