package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const multicallABIJSON = `[
	{
		"name": "aggregate3",
		"type": "function",
		"stateMutability": "payable",
		"inputs": [
			{
				"name": "calls",
				"type": "tuple[]",
				"components": [
					{"name": "target", "type": "address"},
					{"name": "allowFailure", "type": "bool"},
					{"name": "callData", "type": "bytes"}
				]
			}
		],
		"outputs": [
			{
				"name": "returnData",
				"type": "tuple[]",
				"components": [
					{"name": "success", "type": "bool"},
					{"name": "returnData", "type": "bytes"}
				]
			}
		]
	}
]`

var multicallABI = mustParseABI(multicallABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid ABI: %v", err))
	}
	return parsed
}

// Call3 is one sub-call of a Multicall3 aggregate3 batch
type Call3 struct {
	Target       common.Address `abi:"target"`
	AllowFailure bool           `abi:"allowFailure"`
	CallData     []byte         `abi:"callData"`
}

// Call3Result is the per-sub-call outcome of aggregate3
type Call3Result struct {
	Success    bool   `abi:"success"`
	ReturnData []byte `abi:"returnData"`
}

// Aggregate3 executes a batch of read calls through the Multicall3 contract,
// pinned to blockNumber when non-nil. Transient RPC failures are retried with
// exponential backoff; a revert of the batch itself is returned to the caller.
func (r *EthReader) Aggregate3(ctx context.Context, calls []Call3, blockNumber *big.Int) ([]Call3Result, error) {
	data, err := multicallABI.Pack("aggregate3", calls)
	if err != nil {
		return nil, fmt.Errorf("packing aggregate3: %w", err)
	}

	msg := ethereum.CallMsg{
		To:   &r.multicallAddress,
		Data: data,
	}

	var raw []byte
	operation := func() error {
		var callErr error
		raw, callErr = r.client.CallContract(ctx, msg, blockNumber)
		return callErr
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newCallBackOff(), r.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("aggregate3 call: %w", err)
	}

	outputs, err := multicallABI.Unpack("aggregate3", raw)
	if err != nil {
		return nil, fmt.Errorf("unpacking aggregate3: %w", err)
	}
	if len(outputs) != 1 {
		return nil, fmt.Errorf("unexpected aggregate3 output arity: %d", len(outputs))
	}

	packed, ok := outputs[0].([]struct {
		Success    bool   `json:"success"`
		ReturnData []byte `json:"returnData"`
	})
	if !ok {
		return nil, fmt.Errorf("unexpected aggregate3 output type %T", outputs[0])
	}

	results := make([]Call3Result, 0, len(packed))
	for _, item := range packed {
		results = append(results, Call3Result{
			Success:    item.Success,
			ReturnData: item.ReturnData,
		})
	}
	return results, nil
}

func newCallBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}
