package infrastructure

import (
	"wealthreactor/application"
	"wealthreactor/database"
	"wealthreactor/domain/interfaces"
	"wealthreactor/repository"
)

// UnitOfWorkFactory wraps the repository factory to give every unit of work its own transactional publisher
type UnitOfWorkFactory struct {
	repoFactory interface {
		CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork
	}
	eventPublisher interfaces.EventPublisher
}

// NewUnitOfWorkFactory creates a factory whose units flush to eventPublisher after commit
func NewUnitOfWorkFactory(db *database.DB, eventPublisher interfaces.EventPublisher) application.UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		repoFactory:    repository.NewUnitOfWorkFactory(db),
		eventPublisher: eventPublisher,
	}
}

// Create creates a new UnitOfWork with a transactional event publisher
func (w *UnitOfWorkFactory) Create() application.UnitOfWork {
	transactionalPublisher := NewNATSTransactionalPublisher(w.eventPublisher)
	return w.repoFactory.CreateWithPublisher(transactionalPublisher)
}
