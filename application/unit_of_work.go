package application

import (
	"context"

	"wealthreactor/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters
	UserRepository() interfaces.UserRepository
	CommissionRepository() interfaces.CommissionRepository
	RotatorRepository() interfaces.RotatorRepository
	AgentRepository() interfaces.AgentRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
