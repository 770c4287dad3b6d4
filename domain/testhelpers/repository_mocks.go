package testhelpers

import (
	"context"
	"time"

	"wealthreactor/domain/entities"
	"wealthreactor/events"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByWallet(ctx context.Context, wallet string) (*entities.User, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLinks(ctx context.Context, username string, links map[string]string) (*entities.User, error) {
	args := m.Called(ctx, username, links)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) MarkPaid(ctx context.Context, username, wallet string, txHash *string) (bool, error) {
	args := m.Called(ctx, username, wallet, txHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) CountReferrals(ctx context.Context, username string) (int64, int64, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) CountUsers(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*entities.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.User), args.Error(1)
}

// MockCommissionRepository is a mock implementation of CommissionRepository
type MockCommissionRepository struct {
	mock.Mock
}

func (m *MockCommissionRepository) Create(ctx context.Context, commission *entities.Commission) (bool, error) {
	args := m.Called(ctx, commission)
	return args.Bool(0), args.Error(1)
}

func (m *MockCommissionRepository) GetByReferral(ctx context.Context, referralUsername string) ([]*entities.Commission, error) {
	args := m.Called(ctx, referralUsername)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Commission), args.Error(1)
}

func (m *MockCommissionRepository) GetByEarner(ctx context.Context, earnerUsername string) ([]*entities.Commission, error) {
	args := m.Called(ctx, earnerUsername)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Commission), args.Error(1)
}

func (m *MockCommissionRepository) GetEarnings(ctx context.Context, earnerUsername string) (decimal.Decimal, decimal.Decimal, error) {
	args := m.Called(ctx, earnerUsername)
	return args.Get(0).(decimal.Decimal), args.Get(1).(decimal.Decimal), args.Error(2)
}

func (m *MockCommissionRepository) GetLeaderboard(ctx context.Context, limit int) ([]*entities.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LeaderboardEntry), args.Error(1)
}

func (m *MockCommissionRepository) GetTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Get(1).(decimal.Decimal), args.Error(2)
}

// MockRotatorRepository is a mock implementation of RotatorRepository
type MockRotatorRepository struct {
	mock.Mock
}

func (m *MockRotatorRepository) GetByUsername(ctx context.Context, username string) (*entities.RotatorEntry, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RotatorEntry), args.Error(1)
}

func (m *MockRotatorRepository) Grant(ctx context.Context, username string, txHash *string, now time.Time, lease time.Duration) (*entities.RotatorEntry, error) {
	args := m.Called(ctx, username, txHash, now, lease)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RotatorEntry), args.Error(1)
}

func (m *MockRotatorRepository) EnsureActive(ctx context.Context, username string, now time.Time, lease time.Duration) (*entities.RotatorEntry, error) {
	args := m.Called(ctx, username, now, lease)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RotatorEntry), args.Error(1)
}

func (m *MockRotatorRepository) Expire(ctx context.Context, username string, now time.Time) error {
	args := m.Called(ctx, username, now)
	return args.Error(0)
}

func (m *MockRotatorRepository) Delete(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

func (m *MockRotatorRepository) ListActive(ctx context.Context, now time.Time) ([]*entities.RotatorEntry, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.RotatorEntry), args.Error(1)
}

// MockAgentRepository is a mock implementation of AgentRepository
type MockAgentRepository struct {
	mock.Mock
}

func (m *MockAgentRepository) GetByAgentID(ctx context.Context, agentID string) (*entities.Agent, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Agent), args.Error(1)
}

func (m *MockAgentRepository) Create(ctx context.Context, agent *entities.Agent) (bool, error) {
	args := m.Called(ctx, agent)
	return args.Bool(0), args.Error(1)
}

func (m *MockAgentRepository) SetWebhook(ctx context.Context, agentID string, webhookURL string) error {
	args := m.Called(ctx, agentID, webhookURL)
	return args.Error(0)
}

func (m *MockAgentRepository) ListReferrals(ctx context.Context, agentID string) ([]string, []string, error) {
	args := m.Called(ctx, agentID)
	var l1, l2 []string
	if args.Get(0) != nil {
		l1 = args.Get(0).([]string)
	}
	if args.Get(1) != nil {
		l2 = args.Get(1).([]string)
	}
	return l1, l2, args.Error(2)
}

func (m *MockAgentRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockPaymentOracle is a mock implementation of PaymentOracle
type MockPaymentOracle struct {
	mock.Mock
}

func (m *MockPaymentOracle) VerifyPayment(ctx context.Context, wallet, txHash string) (*entities.PaymentVerification, error) {
	args := m.Called(ctx, wallet, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PaymentVerification), args.Error(1)
}
