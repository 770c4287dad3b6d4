package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"wealthreactor/domain"
	"wealthreactor/domain/entities"
	"wealthreactor/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testWallet = "0x04d1e136aad78f04ac68fbc26f8d61b23b1f88ca"

func testSettings() PaymentSettings {
	return PaymentSettings{
		Strategy: "logscan",
		Pricing: entities.Pricing{
			AccessFee:     decimal.NewFromInt(30),
			L1Rate:        decimal.RequireFromString("0.20"),
			L2Rate:        decimal.RequireFromString("0.10"),
			TokenDecimals: 6,
		},
		RotatorLease: 24 * time.Hour,
		Treasury:     "0xtreasury",
	}
}

func TestPaymentHandler_VerifyPayment_OracleFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		verification *entities.PaymentVerification
		oracleErr    error
		wantErr      error
	}{
		{
			name:      "unreachable reads as not found",
			oracleErr: fmt.Errorf("rpc down: %w", domain.ErrOracleUnreachable),
			wantErr:   domain.ErrPaymentNotFound,
		},
		{
			name:         "not paid",
			verification: &entities.PaymentVerification{Paid: false},
			wantErr:      domain.ErrPaymentNotFound,
		},
		{
			name:         "attributed to another username",
			verification: &entities.PaymentVerification{Paid: true, AttributedUsername: "mallory"},
			wantErr:      domain.ErrPaymentNotFound,
		},
		{
			name:      "bad tx hash",
			oracleErr: domain.ErrInvalidInput,
			wantErr:   domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			factory, uow := newMockFactory()
			uow.users.On("GetByUsername", mock.Anything, "alice").Return(&entities.User{Username: "alice"}, nil)
			oracle := &testhelpers.MockPaymentOracle{}
			if tt.verification != nil {
				oracle.On("VerifyPayment", mock.Anything, testWallet, "").Return(tt.verification, nil)
			} else {
				oracle.On("VerifyPayment", mock.Anything, testWallet, "").Return(nil, tt.oracleErr)
			}
			handler := NewPaymentHandler(factory, oracle, testSettings())

			outcome, err := handler.VerifyPayment(context.Background(), "Alice", testWallet, "")

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Nil(t, outcome)
			assert.Equal(t, 1, uow.began, "only the user lookup opens a transaction")
			assert.Zero(t, uow.committed, "nothing is written unless the oracle says paid")
			oracle.AssertExpectations(t)
		})
	}
}

func TestPaymentHandler_VerifyPayment_RejectsBadInput(t *testing.T) {
	t.Parallel()

	factory, _ := newMockFactory()
	oracle := &testhelpers.MockPaymentOracle{}
	handler := NewPaymentHandler(factory, oracle, testSettings())

	_, err := handler.VerifyPayment(context.Background(), "a", testWallet, "")
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)

	_, err = handler.VerifyPayment(context.Background(), "alice", "0x1234", "")
	assert.ErrorIs(t, err, domain.ErrInvalidWallet)

	oracle.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentHandler_VerifyPayment_AlreadyPaid(t *testing.T) {
	t.Parallel()

	factory, uow := newMockFactory()
	oracle := &testhelpers.MockPaymentOracle{}
	oracle.On("VerifyPayment", mock.Anything, testWallet, "").
		Return(&entities.PaymentVerification{Paid: true, TxHash: "0xabc"}, nil)

	wallet := testWallet
	tx := "0xabc"
	uow.users.On("GetByUsername", mock.Anything, "alice").Return(&entities.User{
		Username:      "alice",
		WalletAddress: &wallet,
		HasPaid:       true,
		PaymentTx:     &tx,
		Links:         map[string]string{},
	}, nil)
	uow.users.On("MarkPaid", mock.Anything, "alice", testWallet, &tx).Return(false, nil)

	handler := NewPaymentHandler(factory, oracle, testSettings())

	outcome, err := handler.VerifyPayment(context.Background(), "alice", testWallet, "")

	require.NoError(t, err)
	assert.True(t, outcome.AlreadyPaid)
	assert.Empty(t, outcome.Commissions)
	assert.NotNil(t, outcome.Commissions)
	assert.Equal(t, 2, uow.began, "user lookup then attribution")
	assert.Equal(t, 1, uow.committed)
}

func TestPaymentHandler_VerifyPayment_UnknownUserSkipsOracle(t *testing.T) {
	t.Parallel()

	factory, uow := newMockFactory()
	uow.users.On("GetByUsername", mock.Anything, "ghost").Return(nil, nil)
	oracle := &testhelpers.MockPaymentOracle{}
	handler := NewPaymentHandler(factory, oracle, testSettings())

	outcome, err := handler.VerifyPayment(context.Background(), "ghost", testWallet, "")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, outcome)
	assert.Zero(t, uow.committed)
	oracle.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentHandler_VerifyPayment_LookupStorageFailure(t *testing.T) {
	t.Parallel()

	factory, uow := newMockFactory()
	uow.users.On("GetByUsername", mock.Anything, "alice").
		Return(nil, fmt.Errorf("dial: %w", domain.ErrStorageUnavailable))
	oracle := &testhelpers.MockPaymentOracle{}
	handler := NewPaymentHandler(factory, oracle, testSettings())

	_, err := handler.VerifyPayment(context.Background(), "alice", testWallet, "")

	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	oracle.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentHandler_CheckWallet(t *testing.T) {
	t.Parallel()

	t.Run("paid", func(t *testing.T) {
		t.Parallel()

		factory, uow := newMockFactory()
		oracle := &testhelpers.MockPaymentOracle{}
		oracle.On("VerifyPayment", mock.Anything, testWallet, "").
			Return(&entities.PaymentVerification{Paid: true, TxHash: "0xabc"}, nil)
		handler := NewPaymentHandler(factory, oracle, testSettings())

		check, err := handler.CheckWallet(context.Background(), testWallet)

		require.NoError(t, err)
		assert.True(t, check.HasPaid)
		assert.Equal(t, "0xabc", check.TxHash)
		assert.Equal(t, "$30.00 USDC", check.Required)
		assert.Equal(t, "0xtreasury", check.Treasury)
		assert.Zero(t, uow.began)
	})

	t.Run("unreachable reads as unpaid", func(t *testing.T) {
		t.Parallel()

		factory, _ := newMockFactory()
		oracle := &testhelpers.MockPaymentOracle{}
		oracle.On("VerifyPayment", mock.Anything, testWallet, "").Return(nil, domain.ErrOracleUnreachable)
		handler := NewPaymentHandler(factory, oracle, testSettings())

		check, err := handler.CheckWallet(context.Background(), testWallet)

		require.NoError(t, err)
		assert.False(t, check.HasPaid)
	})

	t.Run("invalid wallet", func(t *testing.T) {
		t.Parallel()

		factory, _ := newMockFactory()
		handler := NewPaymentHandler(factory, &testhelpers.MockPaymentOracle{}, testSettings())

		_, err := handler.CheckWallet(context.Background(), "nope")

		assert.ErrorIs(t, err, domain.ErrInvalidWallet)
	})
}
