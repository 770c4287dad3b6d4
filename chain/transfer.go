package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// TransferTopic is the ERC-20 Transfer(address,address,uint256) event signature
var TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// addressTopic left-pads an address to a 32-byte indexed topic
func addressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

// transferMatcher recognises token transfers from a payer to the treasury
type transferMatcher struct {
	token    common.Address
	from     common.Address
	to       common.Address
	required *big.Int
}

// matches reports whether the log is a qualifying transfer. Only a single transfer
// at or above the fee counts; partial payments are not summed.
func (m transferMatcher) matches(l types.Log) bool {
	if l.Removed || l.Address != m.token || len(l.Topics) != 3 {
		return false
	}
	if l.Topics[0] != TransferTopic ||
		l.Topics[1] != addressTopic(m.from) ||
		l.Topics[2] != addressTopic(m.to) {
		return false
	}
	amount := new(big.Int).SetBytes(l.Data)
	return amount.Cmp(m.required) >= 0
}

// firstMatch returns the first qualifying transfer in the logs
func (m transferMatcher) firstMatch(logs []types.Log) (types.Log, bool) {
	for _, l := range logs {
		if m.matches(l) {
			return l, true
		}
	}
	return types.Log{}, false
}
