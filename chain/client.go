package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	log "github.com/sirupsen/logrus"
)

// Client is the subset of the JSON-RPC API the payment oracle reads.
// *ethclient.Client satisfies it.
type Client interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Dial connects to a JSON-RPC node and checks it serves the expected chain
func Dial(ctx context.Context, rpcURL string, chainID int64) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial chain rpc: %w", err)
	}

	if chainID > 0 {
		got, err := client.ChainID(ctx)
		if err != nil {
			log.WithFields(log.Fields{
				"rpcURL": rpcURL,
				"error":  err,
			}).Warn("Could not read chain id from rpc node")
			return client, nil
		}
		if got.Int64() != chainID {
			client.Close()
			return nil, fmt.Errorf("rpc node serves chain %s, expected %d", got, chainID)
		}
	}

	log.WithFields(log.Fields{
		"rpcURL":  rpcURL,
		"chainID": chainID,
	}).Info("Connected to chain rpc")
	return client, nil
}
