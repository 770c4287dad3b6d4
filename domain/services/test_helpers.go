package services

import (
	"time"

	"wealthreactor/domain/entities"
	"wealthreactor/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// Test constants for consistent test data
const (
	TestWallet      = "0x1111111111111111111111111111111111111111"
	TestOtherWallet = "0x2222222222222222222222222222222222222222"
	TestTxHash      = "0xabc0000000000000000000000000000000000000000000000000000000000001"
)

// TestNow is the fixed clock used by service tests
var TestNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// TestPricing is the default $30 fee with 20% and 10% commissions
func TestPricing() entities.Pricing {
	return entities.Pricing{
		AccessFee:     decimal.NewFromInt(30),
		L1Rate:        decimal.RequireFromString("0.20"),
		L2Rate:        decimal.RequireFromString("0.10"),
		TokenDecimals: 6,
	}
}

// TestMocks aggregates all repository mocks for testing
type TestMocks struct {
	UserRepo       *testhelpers.MockUserRepository
	CommissionRepo *testhelpers.MockCommissionRepository
	RotatorRepo    *testhelpers.MockRotatorRepository
	AgentRepo      *testhelpers.MockAgentRepository
	EventPublisher *testhelpers.MockEventPublisher
}

// NewTestMocks creates a new set of mocks with a permissive event publisher
func NewTestMocks() *TestMocks {
	mocks := &TestMocks{
		UserRepo:       &testhelpers.MockUserRepository{},
		CommissionRepo: &testhelpers.MockCommissionRepository{},
		RotatorRepo:    &testhelpers.MockRotatorRepository{},
		AgentRepo:      &testhelpers.MockAgentRepository{},
		EventPublisher: &testhelpers.MockEventPublisher{},
	}
	mocks.EventPublisher.On("Publish", mock.Anything).Return(nil).Maybe()
	return mocks
}

// AssertAllExpectations verifies all mock expectations were met
func (m *TestMocks) AssertAllExpectations(t mock.TestingT) {
	m.UserRepo.AssertExpectations(t)
	m.CommissionRepo.AssertExpectations(t)
	m.RotatorRepo.AssertExpectations(t)
	m.AgentRepo.AssertExpectations(t)
}

// NewTestUser builds an unpaid user with optional referrer chain
func NewTestUser(username string, referrer, referrerL2 string) *entities.User {
	user := &entities.User{
		Username:  username,
		Links:     map[string]string{},
		CreatedAt: TestNow.Add(-time.Hour),
		UpdatedAt: TestNow.Add(-time.Hour),
	}
	if referrer != "" {
		user.ReferrerUsername = &referrer
	}
	if referrerL2 != "" {
		user.ReferrerL2Username = &referrerL2
	}
	return user
}

// NewTestPaidUser builds a paid user bound to a wallet
func NewTestPaidUser(username, wallet string) *entities.User {
	user := NewTestUser(username, "", "")
	user.HasPaid = true
	user.WalletAddress = &wallet
	return user
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
