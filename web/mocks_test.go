package web

import (
	"context"

	"wealthreactor/application/dto"
	"wealthreactor/domain/entities"

	"github.com/stretchr/testify/mock"
)

type mockUserHandler struct{ mock.Mock }

func (m *mockUserHandler) Reserve(ctx context.Context, username, referrer string) (*entities.User, error) {
	args := m.Called(ctx, username, referrer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *mockUserHandler) Profile(ctx context.Context, username string) (*entities.Profile, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Profile), args.Error(1)
}

func (m *mockUserHandler) ProfileByWallet(ctx context.Context, wallet string) (*entities.Profile, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Profile), args.Error(1)
}

func (m *mockUserHandler) SaveLinks(ctx context.Context, username string, links map[string]string) (*entities.Profile, error) {
	args := m.Called(ctx, username, links)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Profile), args.Error(1)
}

func (m *mockUserHandler) Stats(ctx context.Context, username string) (*entities.ReferralStats, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ReferralStats), args.Error(1)
}

func (m *mockUserHandler) ListUsers(ctx context.Context) ([]*entities.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*entities.User), args.Error(1)
}

type mockPaymentHandler struct{ mock.Mock }

func (m *mockPaymentHandler) VerifyPayment(ctx context.Context, username, wallet, txHash string) (*dto.PaymentOutcomeDTO, error) {
	args := m.Called(ctx, username, wallet, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaymentOutcomeDTO), args.Error(1)
}

func (m *mockPaymentHandler) CheckWallet(ctx context.Context, wallet string) (*dto.WalletCheckDTO, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.WalletCheckDTO), args.Error(1)
}

type mockRotatorHandler struct{ mock.Mock }

func (m *mockRotatorHandler) Join(ctx context.Context, username, txHash string) (*entities.RotatorEntry, error) {
	args := m.Called(ctx, username, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RotatorEntry), args.Error(1)
}

func (m *mockRotatorHandler) Snapshot(ctx context.Context) (*dto.RotatorSnapshotDTO, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RotatorSnapshotDTO), args.Error(1)
}

func (m *mockRotatorHandler) Featured(ctx context.Context) (*entities.RotatorEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RotatorEntry), args.Error(1)
}

func (m *mockRotatorHandler) SetActive(ctx context.Context, username string, active bool) (*entities.RotatorEntry, error) {
	args := m.Called(ctx, username, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RotatorEntry), args.Error(1)
}

func (m *mockRotatorHandler) Add(ctx context.Context, username string) (*entities.RotatorEntry, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RotatorEntry), args.Error(1)
}

func (m *mockRotatorHandler) Remove(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

type mockAgentHandler struct{ mock.Mock }

func (m *mockAgentHandler) Register(ctx context.Context, params entities.RegisterAgentParams) (*entities.Agent, bool, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*entities.Agent), args.Bool(1), args.Error(2)
}

func (m *mockAgentHandler) GetLink(ctx context.Context, agentID string) (*entities.AgentLink, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AgentLink), args.Error(1)
}

func (m *mockAgentHandler) Stats(ctx context.Context, agentID string) (*entities.AgentStats, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AgentStats), args.Error(1)
}

func (m *mockAgentHandler) SetWebhook(ctx context.Context, agentID, webhookURL string) (*entities.Agent, error) {
	args := m.Called(ctx, agentID, webhookURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Agent), args.Error(1)
}

type mockLeaderboardHandler struct{ mock.Mock }

func (m *mockLeaderboardHandler) Leaderboard(ctx context.Context, limit int) (*dto.LeaderboardDTO, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.LeaderboardDTO), args.Error(1)
}
