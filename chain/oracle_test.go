package chain

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"wealthreactor/domain"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testToken    = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	testTreasury = common.HexToAddress("0x04D1e136AAd78F04aC68FbC26F8d61b23B1F88CA")
	testContract = common.HexToAddress("0xa6Ca8A21eDEe7f59833d189A357fA8032811b6c6")
	testPayer    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testWallet   = "0x1111111111111111111111111111111111111111"
	testFee      = big.NewInt(30_000_000)
)

type fakeClient struct {
	mu         sync.Mutex
	head       uint64
	headErr    error
	logs       []types.Log
	filterErr  error
	queries    []ethereum.FilterQuery
	receipts   map[common.Hash]*types.Receipt
	receiptErr error
	callOutput []byte
	callErr    error
	calls      []ethereum.CallMsg
}

func (f *fakeClient) BlockNumber(ctx context.Context) (uint64, error) {
	return f.head, f.headErr
}

func (f *fakeClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.filterErr != nil {
		return nil, f.filterErr
	}
	var out []types.Log
	for _, l := range f.logs {
		if l.BlockNumber >= q.FromBlock.Uint64() && l.BlockNumber <= q.ToBlock.Uint64() {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	receipt, ok := f.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (f *fakeClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msg)
	return f.callOutput, f.callErr
}

func transferLog(token, from, to common.Address, amount int64, block uint64, tx byte) types.Log {
	return types.Log{
		Address:     token,
		Topics:      []common.Hash{TransferTopic, addressTopic(from), addressTopic(to)},
		Data:        common.LeftPadBytes(big.NewInt(amount).Bytes(), 32),
		BlockNumber: block,
		TxHash:      common.BytesToHash([]byte{tx}),
	}
}

func logScanConfig() OracleConfig {
	return OracleConfig{
		Strategy:        StrategyLogScan,
		TokenAddress:    testToken,
		TreasuryAddress: testTreasury,
		RequiredUnits:   testFee,
		ScanWindow:      1000,
		ScanChunk:       100,
		Timeout:         time.Second,
	}
}

func newTestOracle(t *testing.T, client Client, config OracleConfig) *paymentOracle {
	t.Helper()
	oracle, err := NewPaymentOracle(client, config)
	require.NoError(t, err)
	return oracle.(*paymentOracle)
}

func TestPaymentOracle_LogScanThreshold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		logs     []types.Log
		wantPaid bool
	}{
		{
			name:     "exact fee",
			logs:     []types.Log{transferLog(testToken, testPayer, testTreasury, 30_000_000, 1950, 1)},
			wantPaid: true,
		},
		{
			name:     "over fee",
			logs:     []types.Log{transferLog(testToken, testPayer, testTreasury, 45_000_000, 1950, 1)},
			wantPaid: true,
		},
		{
			name: "partial payments are not summed",
			logs: []types.Log{
				transferLog(testToken, testPayer, testTreasury, 15_000_000, 1950, 1),
				transferLog(testToken, testPayer, testTreasury, 15_000_000, 1960, 2),
			},
		},
		{
			name: "one unit short",
			logs: []types.Log{transferLog(testToken, testPayer, testTreasury, 29_999_999, 1950, 1)},
		},
		{
			name: "other token",
			logs: []types.Log{transferLog(testContract, testPayer, testTreasury, 30_000_000, 1950, 1)},
		},
		{
			name: "other recipient",
			logs: []types.Log{transferLog(testToken, testPayer, testContract, 30_000_000, 1950, 1)},
		},
		{
			name: "outside scan window",
			logs: []types.Log{transferLog(testToken, testPayer, testTreasury, 30_000_000, 10, 1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := &fakeClient{head: 2000, logs: tt.logs}
			oracle := newTestOracle(t, client, logScanConfig())

			verification, err := oracle.VerifyPayment(context.Background(), testWallet, "")

			require.NoError(t, err)
			assert.Equal(t, tt.wantPaid, verification.Paid)
			if tt.wantPaid {
				assert.Equal(t, common.BytesToHash([]byte{1}).Hex(), verification.TxHash)
			}
		})
	}
}

func TestPaymentOracle_LogScanChunksNewestFirst(t *testing.T) {
	t.Parallel()

	config := logScanConfig()
	config.ScanWindow = 50
	config.ScanChunk = 20
	client := &fakeClient{head: 100}
	oracle := newTestOracle(t, client, config)

	verification, err := oracle.VerifyPayment(context.Background(), testWallet, "")

	require.NoError(t, err)
	assert.False(t, verification.Paid)
	require.Len(t, client.queries, 3)

	ranges := make([][2]uint64, 0, len(client.queries))
	for _, q := range client.queries {
		ranges = append(ranges, [2]uint64{q.FromBlock.Uint64(), q.ToBlock.Uint64()})
		assert.Equal(t, []common.Address{testToken}, q.Addresses)
		assert.Equal(t, addressTopic(testPayer), q.Topics[1][0])
	}
	assert.Equal(t, [][2]uint64{{81, 100}, {61, 80}, {50, 60}}, ranges)
}

func TestPaymentOracle_LogScanStopsAtFirstMatch(t *testing.T) {
	t.Parallel()

	config := logScanConfig()
	config.ScanChunk = 10
	client := &fakeClient{
		head: 100,
		logs: []types.Log{transferLog(testToken, testPayer, testTreasury, 30_000_000, 95, 7)},
	}
	oracle := newTestOracle(t, client, config)

	verification, err := oracle.VerifyPayment(context.Background(), testWallet, "")

	require.NoError(t, err)
	assert.True(t, verification.Paid)
	assert.Len(t, client.queries, 1)
}

func TestPaymentOracle_Unreachable(t *testing.T) {
	t.Parallel()

	rpcErr := errors.New("dial tcp: connection refused")

	tests := []struct {
		name   string
		client *fakeClient
		config OracleConfig
	}{
		{name: "block number", client: &fakeClient{headErr: rpcErr}, config: logScanConfig()},
		{name: "filter logs", client: &fakeClient{head: 10, filterErr: rpcErr}, config: logScanConfig()},
		{
			name:   "contract call",
			client: &fakeClient{callErr: rpcErr},
			config: OracleConfig{Strategy: StrategyContract, ContractAddress: testContract},
		},
		{
			name:   "undecodable contract output",
			client: &fakeClient{callOutput: []byte{0x01}},
			config: OracleConfig{Strategy: StrategyContract, ContractAddress: testContract},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			oracle := newTestOracle(t, tt.client, tt.config)

			_, err := oracle.VerifyPayment(context.Background(), testWallet, "")

			assert.ErrorIs(t, err, domain.ErrOracleUnreachable)
		})
	}
}

func TestPaymentOracle_ReceiptPath(t *testing.T) {
	t.Parallel()

	txHash := common.HexToHash("0xabababababababababababababababababababababababababababababababab")
	good := transferLog(testToken, testPayer, testTreasury, 30_000_000, 500, 9)

	t.Run("successful receipt skips the scan", func(t *testing.T) {
		t.Parallel()

		client := &fakeClient{
			head: 1000,
			receipts: map[common.Hash]*types.Receipt{
				txHash: {Status: types.ReceiptStatusSuccessful, Logs: []*types.Log{&good}},
			},
		}
		oracle := newTestOracle(t, client, logScanConfig())

		verification, err := oracle.VerifyPayment(context.Background(), testWallet, txHash.Hex())

		require.NoError(t, err)
		assert.True(t, verification.Paid)
		assert.Equal(t, txHash.Hex(), verification.TxHash)
		assert.Empty(t, client.queries)
	})

	t.Run("reverted receipt falls back to scan", func(t *testing.T) {
		t.Parallel()

		client := &fakeClient{
			head: 1000,
			receipts: map[common.Hash]*types.Receipt{
				txHash: {Status: types.ReceiptStatusFailed, Logs: []*types.Log{&good}},
			},
		}
		oracle := newTestOracle(t, client, logScanConfig())

		verification, err := oracle.VerifyPayment(context.Background(), testWallet, txHash.Hex())

		require.NoError(t, err)
		assert.False(t, verification.Paid)
		assert.NotEmpty(t, client.queries)
	})

	t.Run("unknown tx falls back to scan", func(t *testing.T) {
		t.Parallel()

		client := &fakeClient{head: 1000, logs: []types.Log{good}}
		oracle := newTestOracle(t, client, logScanConfig())

		verification, err := oracle.VerifyPayment(context.Background(), testWallet, txHash.Hex())

		require.NoError(t, err)
		assert.True(t, verification.Paid)
	})

	t.Run("receipt from another payer", func(t *testing.T) {
		t.Parallel()

		other := transferLog(testToken, testContract, testTreasury, 30_000_000, 500, 9)
		client := &fakeClient{
			head: 1000,
			receipts: map[common.Hash]*types.Receipt{
				txHash: {Status: types.ReceiptStatusSuccessful, Logs: []*types.Log{&other}},
			},
		}
		oracle := newTestOracle(t, client, logScanConfig())

		verification, err := oracle.VerifyPayment(context.Background(), testWallet, txHash.Hex())

		require.NoError(t, err)
		assert.False(t, verification.Paid)
	})
}

func TestPaymentOracle_Contract(t *testing.T) {
	t.Parallel()

	checkOutput, err := paymentContract.Methods[MethodCheckPayment].Outputs.Pack(true, "Alice")
	require.NoError(t, err)
	hasPaidOutput, err := paymentContract.Methods[MethodHasPaid].Outputs.Pack(false)
	require.NoError(t, err)

	t.Run("checkPayment", func(t *testing.T) {
		t.Parallel()

		client := &fakeClient{callOutput: checkOutput}
		oracle := newTestOracle(t, client, OracleConfig{Strategy: StrategyContract, ContractAddress: testContract})

		verification, err := oracle.VerifyPayment(context.Background(), testWallet, "")

		require.NoError(t, err)
		assert.True(t, verification.Paid)
		assert.Equal(t, "alice", verification.AttributedUsername)
		require.Len(t, client.calls, 1)
		assert.Equal(t, testContract, *client.calls[0].To)
		assert.Equal(t, paymentContract.Methods[MethodCheckPayment].ID, client.calls[0].Data[:4])
	})

	t.Run("hasPaid", func(t *testing.T) {
		t.Parallel()

		client := &fakeClient{callOutput: hasPaidOutput}
		oracle := newTestOracle(t, client, OracleConfig{
			Strategy:        StrategyContract,
			ContractAddress: testContract,
			ContractMethod:  MethodHasPaid,
		})

		verification, err := oracle.VerifyPayment(context.Background(), testWallet, "")

		require.NoError(t, err)
		assert.False(t, verification.Paid)
		assert.Equal(t, paymentContract.Methods[MethodHasPaid].ID, client.calls[0].Data[:4])
	})
}

func TestPaymentOracle_InvalidInput(t *testing.T) {
	t.Parallel()

	oracle := newTestOracle(t, &fakeClient{}, logScanConfig())

	_, err := oracle.VerifyPayment(context.Background(), "0x1234", "")
	assert.ErrorIs(t, err, domain.ErrInvalidWallet)

	_, err = oracle.VerifyPayment(context.Background(), testWallet, "0xnothash")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewPaymentOracle_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config OracleConfig
	}{
		{name: "unknown strategy", config: OracleConfig{Strategy: "magic"}},
		{name: "log scan without treasury", config: OracleConfig{Strategy: StrategyLogScan, TokenAddress: testToken, RequiredUnits: testFee, ScanChunk: 1}},
		{name: "log scan without fee", config: OracleConfig{Strategy: StrategyLogScan, TokenAddress: testToken, TreasuryAddress: testTreasury, ScanChunk: 1}},
		{name: "contract without address", config: OracleConfig{Strategy: StrategyContract}},
		{name: "contract unknown method", config: OracleConfig{Strategy: StrategyContract, ContractAddress: testContract, ContractMethod: "balanceOf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewPaymentOracle(&fakeClient{}, tt.config)
			assert.Error(t, err)
		})
	}
}
