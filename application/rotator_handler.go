package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wealthreactor/application/dto"
	"wealthreactor/domain"
	"wealthreactor/domain/entities"
	"wealthreactor/domain/interfaces"
	"wealthreactor/domain/services"
	"wealthreactor/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// RotatorHandler runs rotator membership use cases
type RotatorHandler interface {
	// Join grants or extends the lease of a paid user
	Join(ctx context.Context, username, txHash string) (*entities.RotatorEntry, error)

	// Snapshot lists active members and picks one to feature
	Snapshot(ctx context.Context) (*dto.RotatorSnapshotDTO, error)

	// Featured returns a random active member, or nil
	Featured(ctx context.Context) (*entities.RotatorEntry, error)

	// Admin operations, no payment checks
	SetActive(ctx context.Context, username string, active bool) (*entities.RotatorEntry, error)
	Add(ctx context.Context, username string) (*entities.RotatorEntry, error)
	Remove(ctx context.Context, username string) error
}

type rotatorHandler struct {
	uowFactory UnitOfWorkFactory
	lease      time.Duration
}

// NewRotatorHandler creates a new RotatorHandler
func NewRotatorHandler(uowFactory UnitOfWorkFactory, lease time.Duration) RotatorHandler {
	return &rotatorHandler{
		uowFactory: uowFactory,
		lease:      lease,
	}
}

func (h *rotatorHandler) service(uow UnitOfWork) interfaces.RotatorService {
	return services.NewRotatorService(uow.UserRepository(), uow.RotatorRepository(), uow.EventBus(), h.lease)
}

// Join grants or extends the lease of a paid user
func (h *rotatorHandler) Join(ctx context.Context, username, txHash string) (*entities.RotatorEntry, error) {
	var tx *string
	if txHash != "" {
		tx = &txHash
	}

	var entry *entities.RotatorEntry
	err := h.write(ctx, func(rotator interfaces.RotatorService) error {
		var err error
		entry, err = rotator.Join(ctx, username, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.GetMetrics().RecordRotatorJoin(false)
	return entry, nil
}

// Snapshot lists active members and picks one to feature. Storage outages yield an empty rotator.
func (h *rotatorHandler) Snapshot(ctx context.Context) (*dto.RotatorSnapshotDTO, error) {
	snapshot := &dto.RotatorSnapshotDTO{Members: make([]dto.RotatorMemberDTO, 0)}

	var entries []*entities.RotatorEntry
	var featured *entities.RotatorEntry
	err := readOnly(ctx, h.uowFactory, func(uow UnitOfWork) error {
		var err error
		entries, featured, err = h.service(uow).Snapshot(ctx)
		return err
	})
	if errors.Is(err, domain.ErrStorageUnavailable) {
		log.WithError(err).Warn("Storage unavailable, serving empty rotator")
		return snapshot, nil
	}
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		snapshot.Members = append(snapshot.Members, dto.RotatorEntryToDTO(entry))
	}
	snapshot.Count = len(snapshot.Members)
	if featured != nil {
		member := dto.RotatorEntryToDTO(featured)
		snapshot.Featured = &member
	}

	recordFeatured(featured)
	return snapshot, nil
}

// Featured returns a random active member, or nil when the rotator is empty or unreachable
func (h *rotatorHandler) Featured(ctx context.Context) (*entities.RotatorEntry, error) {
	var featured *entities.RotatorEntry
	err := readOnly(ctx, h.uowFactory, func(uow UnitOfWork) error {
		var err error
		featured, err = h.service(uow).PickFeatured(ctx)
		return err
	})
	if errors.Is(err, domain.ErrStorageUnavailable) {
		log.WithError(err).Warn("Storage unavailable, no featured member")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	recordFeatured(featured)
	return featured, nil
}

// SetActive starts or expires a lease
func (h *rotatorHandler) SetActive(ctx context.Context, username string, active bool) (*entities.RotatorEntry, error) {
	var entry *entities.RotatorEntry
	err := h.write(ctx, func(rotator interfaces.RotatorService) error {
		var err error
		entry, err = rotator.SetActive(ctx, username, active)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Add activates a user without payment checks
func (h *rotatorHandler) Add(ctx context.Context, username string) (*entities.RotatorEntry, error) {
	return h.SetActive(ctx, username, true)
}

// Remove deletes a user's rotator entry
func (h *rotatorHandler) Remove(ctx context.Context, username string) error {
	return h.write(ctx, func(rotator interfaces.RotatorService) error {
		return rotator.Remove(ctx, username)
	})
}

func (h *rotatorHandler) write(ctx context.Context, fn func(rotator interfaces.RotatorService) error) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(h.service(uow)); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func recordFeatured(featured *entities.RotatorEntry) {
	outcome := observability.OutcomeFeatured
	if featured == nil {
		outcome = observability.OutcomeEmpty
	}
	observability.GetMetrics().RecordFeaturedPick(outcome)
}
