package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"wealthreactor/domain"
	"wealthreactor/domain/entities"
	"wealthreactor/domain/interfaces"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	StrategyLogScan  = "logscan"
	StrategyContract = "contract"
)

// OracleConfig selects how payments are verified
type OracleConfig struct {
	Strategy        string
	ContractMethod  string
	TokenAddress    common.Address
	TreasuryAddress common.Address
	ContractAddress common.Address
	RequiredUnits   *big.Int
	ScanWindow      uint64
	ScanChunk       uint64
	RPCRate         float64
	Timeout         time.Duration
}

type paymentOracle struct {
	client  Client
	config  OracleConfig
	limiter *rate.Limiter
}

// NewPaymentOracle creates a payment oracle over the given chain client
func NewPaymentOracle(client Client, config OracleConfig) (interfaces.PaymentOracle, error) {
	switch config.Strategy {
	case StrategyLogScan:
		if config.TokenAddress == (common.Address{}) || config.TreasuryAddress == (common.Address{}) {
			return nil, fmt.Errorf("log scan strategy requires token and treasury addresses")
		}
		if config.RequiredUnits == nil || config.RequiredUnits.Sign() <= 0 {
			return nil, fmt.Errorf("log scan strategy requires a positive fee")
		}
		if config.ScanChunk == 0 {
			return nil, fmt.Errorf("scan chunk must be positive")
		}
	case StrategyContract:
		if config.ContractAddress == (common.Address{}) {
			return nil, fmt.Errorf("contract strategy requires a contract address")
		}
		if config.ContractMethod == "" {
			config.ContractMethod = MethodCheckPayment
		}
		if config.ContractMethod != MethodCheckPayment && config.ContractMethod != MethodHasPaid {
			return nil, fmt.Errorf("unsupported contract method %q", config.ContractMethod)
		}
	default:
		return nil, fmt.Errorf("unknown payment strategy %q", config.Strategy)
	}

	limit := rate.Inf
	if config.RPCRate > 0 {
		limit = rate.Limit(config.RPCRate)
	}

	return &paymentOracle{
		client:  client,
		config:  config,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// VerifyPayment reports whether the wallet has paid the access fee
func (o *paymentOracle) VerifyPayment(ctx context.Context, wallet, txHash string) (*entities.PaymentVerification, error) {
	wallet = entities.NormalizeWallet(wallet)
	if !entities.IsValidWallet(wallet) {
		return nil, fmt.Errorf("wallet %q: %w", wallet, domain.ErrInvalidWallet)
	}
	payer := common.HexToAddress(wallet)

	txHash = strings.TrimSpace(txHash)
	if txHash != "" && !isTxHash(txHash) {
		return nil, fmt.Errorf("tx hash %q: %w", txHash, domain.ErrInvalidInput)
	}

	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	if o.config.Strategy == StrategyContract {
		return o.verifyByContract(ctx, payer)
	}

	if txHash != "" {
		verification, err := o.verifyByReceipt(ctx, payer, common.HexToHash(txHash))
		if err != nil {
			return nil, err
		}
		if verification.Paid {
			return verification, nil
		}
	}

	return o.verifyByLogScan(ctx, payer)
}

func (o *paymentOracle) matcher(payer common.Address) transferMatcher {
	return transferMatcher{
		token:    o.config.TokenAddress,
		from:     payer,
		to:       o.config.TreasuryAddress,
		required: o.config.RequiredUnits,
	}
}

// verifyByReceipt checks a client supplied transaction
func (o *paymentOracle) verifyByReceipt(ctx context.Context, payer common.Address, hash common.Hash) (*entities.PaymentVerification, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, unreachable("wait for rpc slot", err)
	}

	receipt, err := o.client.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		log.WithField("txHash", hash.Hex()).Info("Payment transaction not found on chain")
		return &entities.PaymentVerification{}, nil
	}
	if err != nil {
		return nil, unreachable("fetch transaction receipt", err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		log.WithField("txHash", hash.Hex()).Info("Payment transaction reverted")
		return &entities.PaymentVerification{}, nil
	}

	logs := make([]types.Log, 0, len(receipt.Logs))
	for _, l := range receipt.Logs {
		if l != nil {
			logs = append(logs, *l)
		}
	}

	if _, ok := o.matcher(payer).firstMatch(logs); !ok {
		return &entities.PaymentVerification{}, nil
	}
	return &entities.PaymentVerification{Paid: true, TxHash: hash.Hex()}, nil
}

// verifyByLogScan walks the recent block window newest first
func (o *paymentOracle) verifyByLogScan(ctx context.Context, payer common.Address) (*entities.PaymentVerification, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, unreachable("wait for rpc slot", err)
	}
	head, err := o.client.BlockNumber(ctx)
	if err != nil {
		return nil, unreachable("read block number", err)
	}

	var start uint64
	if o.config.ScanWindow > 0 && head > o.config.ScanWindow {
		start = head - o.config.ScanWindow
	}

	matcher := o.matcher(payer)
	topics := [][]common.Hash{
		{TransferTopic},
		{addressTopic(payer)},
		{addressTopic(o.config.TreasuryAddress)},
	}

	for to := head; ; {
		from := start
		if to-start+1 > o.config.ScanChunk {
			from = to - o.config.ScanChunk + 1
		}

		if err := o.limiter.Wait(ctx); err != nil {
			return nil, unreachable("wait for rpc slot", err)
		}
		logs, err := o.client.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(from),
			ToBlock:   new(big.Int).SetUint64(to),
			Addresses: []common.Address{o.config.TokenAddress},
			Topics:    topics,
		})
		if err != nil {
			return nil, unreachable("filter transfer logs", err)
		}

		if match, ok := matcher.firstMatch(logs); ok {
			log.WithFields(log.Fields{
				"wallet": strings.ToLower(payer.Hex()),
				"txHash": match.TxHash.Hex(),
				"block":  match.BlockNumber,
			}).Debug("Found qualifying transfer")
			return &entities.PaymentVerification{Paid: true, TxHash: match.TxHash.Hex()}, nil
		}

		if from == start {
			break
		}
		to = from - 1
	}

	log.WithFields(log.Fields{
		"wallet":    strings.ToLower(payer.Hex()),
		"fromBlock": start,
		"toBlock":   head,
	}).Debug("No qualifying transfer in scan window")
	return &entities.PaymentVerification{}, nil
}

// verifyByContract reads the payment contract's view
func (o *paymentOracle) verifyByContract(ctx context.Context, payer common.Address) (*entities.PaymentVerification, error) {
	method := o.config.ContractMethod
	data, err := packPaymentCall(method, payer)
	if err != nil {
		return nil, err
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return nil, unreachable("wait for rpc slot", err)
	}
	contract := o.config.ContractAddress
	output, err := o.client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, unreachable("call "+method, err)
	}

	paid, username, err := unpackPaymentResult(method, output)
	if err != nil {
		return nil, unreachable("decode "+method, err)
	}

	return &entities.PaymentVerification{
		Paid:               paid,
		AttributedUsername: entities.NormalizeUsername(username),
	}, nil
}

func unreachable(action string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", action, domain.ErrOracleUnreachable, err)
}

func isTxHash(s string) bool {
	b, err := hexutil.Decode(s)
	return err == nil && len(b) == common.HashLength
}
