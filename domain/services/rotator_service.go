package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"wealthreactor/domain"
	"wealthreactor/domain/entities"
	"wealthreactor/domain/interfaces"
	"wealthreactor/events"

	log "github.com/sirupsen/logrus"
)

// rotatorService implements leased featured-slot membership
type rotatorService struct {
	userRepo       interfaces.UserRepository
	rotatorRepo    interfaces.RotatorRepository
	eventPublisher interfaces.EventPublisher
	lease          time.Duration
	now            func() time.Time
	intN           func(n int) int
}

// NewRotatorService creates a new rotator service
func NewRotatorService(
	userRepo interfaces.UserRepository,
	rotatorRepo interfaces.RotatorRepository,
	eventPublisher interfaces.EventPublisher,
	lease time.Duration,
) interfaces.RotatorService {
	return newRotatorService(userRepo, rotatorRepo, eventPublisher, lease, time.Now, rand.IntN)
}

func newRotatorService(
	userRepo interfaces.UserRepository,
	rotatorRepo interfaces.RotatorRepository,
	eventPublisher interfaces.EventPublisher,
	lease time.Duration,
	now func() time.Time,
	intN func(n int) int,
) *rotatorService {
	if lease <= 0 {
		lease = entities.DefaultRotatorLease
	}
	return &rotatorService{
		userRepo:       userRepo,
		rotatorRepo:    rotatorRepo,
		eventPublisher: eventPublisher,
		lease:          lease,
		now:            now,
		intN:           intN,
	}
}

// Join grants a lease to a paid user, extending an unexpired one
func (s *rotatorService) Join(ctx context.Context, username string, txHash *string) (*entities.RotatorEntry, error) {
	user, err := s.getUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if !user.HasPaid {
		return nil, fmt.Errorf("user %s: %w", user.Username, domain.ErrNotPaid)
	}

	now := s.now()
	current, err := s.rotatorRepo.GetByUsername(ctx, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to get rotator entry: %w", err)
	}

	entry, err := s.rotatorRepo.Grant(ctx, user.Username, txHash, now, s.lease)
	if err != nil {
		return nil, fmt.Errorf("failed to grant rotator lease: %w", err)
	}

	extended := current != nil && current.IsActiveAt(now)
	log.WithFields(log.Fields{
		"username":  user.Username,
		"expiresAt": entry.ExpiresAt,
		"extended":  extended,
	}).Info("Rotator lease granted")

	if err := s.eventPublisher.Publish(events.RotatorJoinedEvent{
		Username:  user.Username,
		ExpiresAt: entry.ExpiresAt.Unix(),
		Extended:  extended,
	}); err != nil {
		log.WithError(err).Warn("Failed to publish rotator joined event")
	}

	return entry, nil
}

// ListActive returns unexpired entries, oldest first
func (s *rotatorService) ListActive(ctx context.Context) ([]*entities.RotatorEntry, error) {
	entries, err := s.rotatorRepo.ListActive(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list active rotator entries: %w", err)
	}
	if entries == nil {
		entries = []*entities.RotatorEntry{}
	}
	return entries, nil
}

// PickFeatured returns a uniformly random active entry, or nil when there is none
func (s *rotatorService) PickFeatured(ctx context.Context) (*entities.RotatorEntry, error) {
	entries, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return s.pick(entries), nil
}

// Snapshot reads the active entries once and picks the featured one among them
func (s *rotatorService) Snapshot(ctx context.Context) ([]*entities.RotatorEntry, *entities.RotatorEntry, error) {
	entries, err := s.ListActive(ctx)
	if err != nil {
		return nil, nil, err
	}
	return entries, s.pick(entries), nil
}

func (s *rotatorService) pick(entries []*entities.RotatorEntry) *entities.RotatorEntry {
	if len(entries) == 0 {
		return nil
	}
	return entries[s.intN(len(entries))]
}

// SetActive starts a lease when absent or expired, or expires the current one
func (s *rotatorService) SetActive(ctx context.Context, username string, active bool) (*entities.RotatorEntry, error) {
	username = entities.NormalizeUsername(username)
	now := s.now()

	if !active {
		if err := s.rotatorRepo.Expire(ctx, username, now); err != nil {
			return nil, fmt.Errorf("failed to expire rotator entry: %w", err)
		}
		log.WithField("username", username).Info("Rotator lease expired by operator")
		return s.rotatorRepo.GetByUsername(ctx, username)
	}

	user, err := s.getUser(ctx, username)
	if err != nil {
		return nil, err
	}

	entry, err := s.rotatorRepo.EnsureActive(ctx, user.Username, now, s.lease)
	if err != nil {
		return nil, fmt.Errorf("failed to activate rotator entry: %w", err)
	}
	log.WithFields(log.Fields{
		"username":  user.Username,
		"expiresAt": entry.ExpiresAt,
	}).Info("Rotator lease activated by operator")
	return entry, nil
}

// Add activates a user without payment checks
func (s *rotatorService) Add(ctx context.Context, username string) (*entities.RotatorEntry, error) {
	return s.SetActive(ctx, username, true)
}

// Remove deletes the user's entry
func (s *rotatorService) Remove(ctx context.Context, username string) error {
	username = entities.NormalizeUsername(username)
	if err := s.rotatorRepo.Delete(ctx, username); err != nil {
		return fmt.Errorf("failed to delete rotator entry: %w", err)
	}
	log.WithField("username", username).Info("Rotator entry removed by operator")
	return nil
}

func (s *rotatorService) getUser(ctx context.Context, username string) (*entities.User, error) {
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
