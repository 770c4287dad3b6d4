package application

import (
	"context"
	"errors"
	"fmt"

	"wealthreactor/domain"
	"wealthreactor/domain/entities"
	"wealthreactor/domain/interfaces"
	"wealthreactor/domain/services"
	"wealthreactor/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// UserHandler runs the username registry and profile use cases
type UserHandler interface {
	Reserve(ctx context.Context, username, referrer string) (*entities.User, error)
	Profile(ctx context.Context, username string) (*entities.Profile, error)
	ProfileByWallet(ctx context.Context, wallet string) (*entities.Profile, error)
	SaveLinks(ctx context.Context, username string, links map[string]string) (*entities.Profile, error)
	Stats(ctx context.Context, username string) (*entities.ReferralStats, error)
	ListUsers(ctx context.Context) ([]*entities.User, error)
}

type userHandler struct {
	uowFactory UnitOfWorkFactory
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(uowFactory UnitOfWorkFactory) UserHandler {
	return &userHandler{
		uowFactory: uowFactory,
	}
}

// Reserve claims a username for a new unpaid user
func (h *userHandler) Reserve(ctx context.Context, username, referrer string) (*entities.User, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	registry := services.NewRegistryService(uow.UserRepository(), uow.CommissionRepository(), uow.EventBus())
	user, err := registry.Reserve(ctx, username, referrer)
	if err != nil {
		recordReservation(err)
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	recordReservation(nil)
	return user, nil
}

func recordReservation(err error) {
	outcome := observability.OutcomeReserved
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUsernameTaken):
		outcome = observability.OutcomeTaken
	case errors.Is(err, domain.ErrInvalidFormat), errors.Is(err, domain.ErrInvalidReferrer):
		outcome = observability.OutcomeInvalid
	default:
		outcome = observability.OutcomeError
	}
	observability.GetMetrics().RecordReservation(outcome)
}

// Profile composes the public profile page for a username
func (h *userHandler) Profile(ctx context.Context, username string) (*entities.Profile, error) {
	var profile *entities.Profile
	err := h.read(ctx, func(uow UnitOfWork) error {
		var err error
		profile, err = profileService(uow).ComposeProfile(ctx, username)
		return err
	})
	return profile, err
}

// ProfileByWallet composes the profile bound to a wallet
func (h *userHandler) ProfileByWallet(ctx context.Context, wallet string) (*entities.Profile, error) {
	var profile *entities.Profile
	err := h.read(ctx, func(uow UnitOfWork) error {
		var err error
		profile, err = profileService(uow).ComposeProfileByWallet(ctx, wallet)
		return err
	})
	return profile, err
}

// SaveLinks stores custom stream links and returns the updated profile
func (h *userHandler) SaveLinks(ctx context.Context, username string, links map[string]string) (*entities.Profile, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	registry := services.NewRegistryService(uow.UserRepository(), uow.CommissionRepository(), uow.EventBus())
	user, err := registry.SaveLinks(ctx, username, links)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"username":  user.Username,
		"linkCount": len(user.Links),
	}).Info("Saved custom links")

	return services.ComposeProfile(user), nil
}

// Stats returns referral counts and earnings for a user
func (h *userHandler) Stats(ctx context.Context, username string) (*entities.ReferralStats, error) {
	var stats *entities.ReferralStats
	err := h.read(ctx, func(uow UnitOfWork) error {
		registry := services.NewRegistryService(uow.UserRepository(), uow.CommissionRepository(), uow.EventBus())
		var err error
		stats, err = registry.Stats(ctx, username)
		return err
	})
	return stats, err
}

// ListUsers returns every user for operators; empty when storage is down
func (h *userHandler) ListUsers(ctx context.Context) ([]*entities.User, error) {
	users := make([]*entities.User, 0)
	err := h.read(ctx, func(uow UnitOfWork) error {
		all, err := uow.UserRepository().GetAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		users = all
		return nil
	})
	if errors.Is(err, domain.ErrStorageUnavailable) {
		log.WithError(err).Warn("Storage unavailable, returning empty user list")
		return make([]*entities.User, 0), nil
	}
	return users, err
}

func (h *userHandler) read(ctx context.Context, fn func(uow UnitOfWork) error) error {
	return readOnly(ctx, h.uowFactory, fn)
}

func profileService(uow UnitOfWork) interfaces.ProfileService {
	return services.NewProfileService(
		services.NewRegistryService(uow.UserRepository(), uow.CommissionRepository(), uow.EventBus()),
	)
}
