package application

import (
	"context"

	"wealthreactor/domain/interfaces"
	"wealthreactor/domain/testhelpers"

	"github.com/stretchr/testify/mock"
)

// mockUnitOfWork hands out testhelpers repository mocks and records transaction calls
type mockUnitOfWork struct {
	users       *testhelpers.MockUserRepository
	commissions *testhelpers.MockCommissionRepository
	rotator     *testhelpers.MockRotatorRepository
	agents      *testhelpers.MockAgentRepository
	publisher   *testhelpers.MockEventPublisher

	beginErr  error
	began     int
	committed int
}

func newMockUnitOfWork() *mockUnitOfWork {
	uow := &mockUnitOfWork{
		users:       &testhelpers.MockUserRepository{},
		commissions: &testhelpers.MockCommissionRepository{},
		rotator:     &testhelpers.MockRotatorRepository{},
		agents:      &testhelpers.MockAgentRepository{},
		publisher:   &testhelpers.MockEventPublisher{},
	}
	uow.publisher.On("Publish", mock.Anything).Return(nil).Maybe()
	return uow
}

func (u *mockUnitOfWork) Begin(ctx context.Context) error {
	u.began++
	return u.beginErr
}

func (u *mockUnitOfWork) Commit() error {
	u.committed++
	return nil
}

func (u *mockUnitOfWork) Rollback() error { return nil }

func (u *mockUnitOfWork) UserRepository() interfaces.UserRepository             { return u.users }
func (u *mockUnitOfWork) CommissionRepository() interfaces.CommissionRepository { return u.commissions }
func (u *mockUnitOfWork) RotatorRepository() interfaces.RotatorRepository       { return u.rotator }
func (u *mockUnitOfWork) AgentRepository() interfaces.AgentRepository           { return u.agents }
func (u *mockUnitOfWork) EventBus() interfaces.EventPublisher                   { return u.publisher }

// mockUnitOfWorkFactory always returns the same unit of work so tests can program its mocks
type mockUnitOfWorkFactory struct {
	uow *mockUnitOfWork
}

func (f *mockUnitOfWorkFactory) Create() UnitOfWork {
	return f.uow
}

func newMockFactory() (*mockUnitOfWorkFactory, *mockUnitOfWork) {
	uow := newMockUnitOfWork()
	return &mockUnitOfWorkFactory{uow: uow}, uow
}
