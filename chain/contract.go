package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	MethodCheckPayment = "checkPayment"
	MethodHasPaid      = "hasPaid"
)

// paymentContractABI covers the read-only views of the payment contract
const paymentContractABI = `[
	{"type":"function","name":"checkPayment","stateMutability":"view",
	 "inputs":[{"name":"user","type":"address"}],
	 "outputs":[{"name":"paid","type":"bool"},{"name":"username","type":"string"}]},
	{"type":"function","name":"hasPaid","stateMutability":"view",
	 "inputs":[{"name":"","type":"address"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`

var paymentContract = mustParseABI(paymentContractABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid payment contract abi: %v", err))
	}
	return parsed
}

// packPaymentCall encodes a view call for the wallet
func packPaymentCall(method string, wallet common.Address) ([]byte, error) {
	data, err := paymentContract.Pack(method, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}
	return data, nil
}

// unpackPaymentResult decodes the view result into paid flag and attributed username
func unpackPaymentResult(method string, output []byte) (bool, string, error) {
	values, err := paymentContract.Unpack(method, output)
	if err != nil {
		return false, "", fmt.Errorf("failed to unpack %s result: %w", method, err)
	}

	switch method {
	case MethodCheckPayment:
		if len(values) != 2 {
			return false, "", fmt.Errorf("unexpected %s result arity %d", method, len(values))
		}
		paid, ok := values[0].(bool)
		if !ok {
			return false, "", fmt.Errorf("unexpected %s paid type %T", method, values[0])
		}
		username, _ := values[1].(string)
		return paid, username, nil
	default:
		if len(values) != 1 {
			return false, "", fmt.Errorf("unexpected %s result arity %d", method, len(values))
		}
		paid, ok := values[0].(bool)
		if !ok {
			return false, "", fmt.Errorf("unexpected %s result type %T", method, values[0])
		}
		return paid, "", nil
	}
}
