// Package chain performs point-in-time reads against the on-chain contracts.
// Every read that backfills indexer state is pinned to the block of the
// triggering event so replays observe the same values.
package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/engage-protocol/ep-indexer/internal/adapter"
	"github.com/engage-protocol/ep-indexer/internal/domain"
	"github.com/engage-protocol/ep-indexer/internal/namecodec"
)

const campaignABIJSON = `[
	{"name": "getMetadata", "type": "function", "stateMutability": "view", "inputs": [],
		"outputs": [
			{"name": "campaignType", "type": "string"},
			{"name": "version", "type": "string"},
			{"name": "name", "type": "bytes32"}
		]},
	{"name": "getLink", "type": "function", "stateMutability": "view", "inputs": [],
		"outputs": [
			{"name": "productId", "type": "uint256"},
			{"name": "interactionContract", "type": "address"}
		]},
	{"name": "getConfig", "type": "function", "stateMutability": "view", "inputs": [],
		"outputs": [{"name": "bank", "type": "address"}]},
	{"name": "isActive", "type": "function", "stateMutability": "view", "inputs": [],
		"outputs": [{"name": "", "type": "bool"}]}
]`

const bankABIJSON = `[
	{"name": "getConfig", "type": "function", "stateMutability": "view", "inputs": [],
		"outputs": [
			{"name": "token", "type": "address"},
			{"name": "productId", "type": "uint256"}
		]},
	{"name": "isDistributionEnabled", "type": "function", "stateMutability": "view", "inputs": [],
		"outputs": [{"name": "", "type": "bool"}]}
]`

const interactionABIJSON = `[
	{"name": "getReferralTree", "type": "function", "stateMutability": "view", "inputs": [],
		"outputs": [{"name": "", "type": "bytes32"}]}
]`

const registryABIJSON = `[
	{"name": "tokenURI", "type": "function", "stateMutability": "view",
		"inputs": [{"name": "tokenId", "type": "uint256"}],
		"outputs": [{"name": "", "type": "string"}]}
]`

const erc20ABIJSON = `[
	{"name": "name", "type": "function", "stateMutability": "view", "inputs": [],
		"outputs": [{"name": "", "type": "string"}]},
	{"name": "symbol", "type": "function", "stateMutability": "view", "inputs": [],
		"outputs": [{"name": "", "type": "string"}]},
	{"name": "decimals", "type": "function", "stateMutability": "view", "inputs": [],
		"outputs": [{"name": "", "type": "uint8"}]}
]`

var (
	campaignABI    = mustParseABI(campaignABIJSON)
	bankABI        = mustParseABI(bankABIJSON)
	interactionABI = mustParseABI(interactionABIJSON)
	registryABI    = mustParseABI(registryABIJSON)
	erc20ABI       = mustParseABI(erc20ABIJSON)
)

// CampaignState is the campaign self-description read at its creation or
// first-attach block. Bank is empty when the campaign does not expose a
// banking configuration.
type CampaignState struct {
	Type                string
	Version             string
	Name                string
	ProductID           *big.Int
	InteractionContract string
	Bank                string
}

// BankState is the bank self-description read at its creation block
type BankState struct {
	Token          string
	ProductID      *big.Int
	IsDistributing bool
}

// ERC20Metadata is the token self-description read at the latest block
type ERC20Metadata struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// Reader performs point-in-time contract reads
//
//go:generate mockgen -source=reader.go -destination=../mocks/reader.go -package=mocks -mock_names=Reader=MockReader
type Reader interface {
	// Aggregate3 executes a raw multicall batch pinned to blockNumber
	Aggregate3(ctx context.Context, calls []Call3, blockNumber *big.Int) ([]Call3Result, error)
	// ProductMetadataURI reads tokenURI(productID) from the product registry
	// at the given block
	ProductMetadataURI(ctx context.Context, registry string, productID *big.Int, blockNumber uint64) (string, error)
	// InteractionReferralTree reads getReferralTree() from an interaction
	// contract at the given block
	InteractionReferralTree(ctx context.Context, address string, blockNumber uint64) (string, error)
	// CampaignState reads getMetadata, getLink and the optional getConfig from
	// a campaign in one batch at the given block
	CampaignState(ctx context.Context, address string, blockNumber uint64) (*CampaignState, error)
	// BankState reads getConfig and isDistributionEnabled from a bank in one
	// batch at the given block
	BankState(ctx context.Context, address string, blockNumber uint64) (*BankState, error)
	// ERC20Metadata reads name, symbol and decimals from a token at the latest
	// block
	ERC20Metadata(ctx context.Context, address string) (*ERC20Metadata, error)
	// ActiveCampaigns reports which of the given campaigns answer isActive()
	// true at the given block. The whole batch fails together so callers never
	// act on a partial answer.
	ActiveCampaigns(ctx context.Context, addresses []string, blockNumber uint64) (map[string]bool, error)
	// Close releases the underlying client
	Close()
}

// EthReader implements Reader against an EVM JSON-RPC endpoint through the
// Multicall3 contract
type EthReader struct {
	client           adapter.EthClient
	multicallAddress common.Address
	maxRetries       uint64
}

// NewEthReader creates a reader bound to the given client. An empty multicall
// address falls back to the canonical Multicall3 deployment.
func NewEthReader(client adapter.EthClient, multicallAddress string) *EthReader {
	if multicallAddress == "" {
		multicallAddress = domain.MULTICALL3_ADDRESS
	}
	return &EthReader{
		client:           client,
		multicallAddress: common.HexToAddress(multicallAddress),
		maxRetries:       5,
	}
}

// Close releases the underlying client
func (r *EthReader) Close() {
	r.client.Close()
}

func blockArg(blockNumber uint64) *big.Int {
	if blockNumber == 0 {
		return nil
	}
	return new(big.Int).SetUint64(blockNumber)
}

// ProductMetadataURI reads tokenURI(productID) from the product registry
func (r *EthReader) ProductMetadataURI(ctx context.Context, registry string, productID *big.Int, blockNumber uint64) (string, error) {
	data, err := registryABI.Pack("tokenURI", productID)
	if err != nil {
		return "", fmt.Errorf("packing tokenURI: %w", err)
	}

	results, err := r.Aggregate3(ctx, []Call3{{
		Target:   common.HexToAddress(registry),
		CallData: data,
	}}, blockArg(blockNumber))
	if err != nil {
		return "", err
	}
	if !results[0].Success {
		return "", fmt.Errorf("tokenURI reverted for product %s: %w", productID, domain.ErrChainReadFailed)
	}

	outputs, err := registryABI.Unpack("tokenURI", results[0].ReturnData)
	if err != nil {
		return "", fmt.Errorf("unpacking tokenURI: %w", err)
	}
	return outputs[0].(string), nil
}

// InteractionReferralTree reads getReferralTree() from an interaction contract
func (r *EthReader) InteractionReferralTree(ctx context.Context, address string, blockNumber uint64) (string, error) {
	data, err := interactionABI.Pack("getReferralTree")
	if err != nil {
		return "", fmt.Errorf("packing getReferralTree: %w", err)
	}

	results, err := r.Aggregate3(ctx, []Call3{{
		Target:   common.HexToAddress(address),
		CallData: data,
	}}, blockArg(blockNumber))
	if err != nil {
		return "", err
	}
	if !results[0].Success {
		return "", fmt.Errorf("getReferralTree reverted for %s: %w", address, domain.ErrChainReadFailed)
	}

	outputs, err := interactionABI.Unpack("getReferralTree", results[0].ReturnData)
	if err != nil {
		return "", fmt.Errorf("unpacking getReferralTree: %w", err)
	}
	tree := outputs[0].([32]byte)
	return "0x" + common.Bytes2Hex(tree[:]), nil
}

// CampaignState reads the campaign self-description in one batch.
// getMetadata and getLink must succeed; getConfig is optional since older
// campaign implementations do not expose a bank.
func (r *EthReader) CampaignState(ctx context.Context, address string, blockNumber uint64) (*CampaignState, error) {
	target := common.HexToAddress(address)

	metadataData, err := campaignABI.Pack("getMetadata")
	if err != nil {
		return nil, fmt.Errorf("packing getMetadata: %w", err)
	}
	linkData, err := campaignABI.Pack("getLink")
	if err != nil {
		return nil, fmt.Errorf("packing getLink: %w", err)
	}
	configData, err := campaignABI.Pack("getConfig")
	if err != nil {
		return nil, fmt.Errorf("packing getConfig: %w", err)
	}

	results, err := r.Aggregate3(ctx, []Call3{
		{Target: target, CallData: metadataData},
		{Target: target, CallData: linkData},
		{Target: target, AllowFailure: true, CallData: configData},
	}, blockArg(blockNumber))
	if err != nil {
		return nil, err
	}
	if !results[0].Success || !results[1].Success {
		return nil, fmt.Errorf("campaign state read reverted for %s: %w", address, domain.ErrChainReadFailed)
	}

	metadata, err := campaignABI.Unpack("getMetadata", results[0].ReturnData)
	if err != nil {
		return nil, fmt.Errorf("unpacking getMetadata: %w", err)
	}
	link, err := campaignABI.Unpack("getLink", results[1].ReturnData)
	if err != nil {
		return nil, fmt.Errorf("unpacking getLink: %w", err)
	}

	packedName := metadata[2].([32]byte)
	state := &CampaignState{
		Type:                metadata[0].(string),
		Version:             metadata[1].(string),
		Name:                namecodec.DecodeName(packedName[:]),
		ProductID:           link[0].(*big.Int),
		InteractionContract: link[1].(common.Address).Hex(),
	}

	if results[2].Success && len(results[2].ReturnData) > 0 {
		config, err := campaignABI.Unpack("getConfig", results[2].ReturnData)
		if err != nil {
			return nil, fmt.Errorf("unpacking getConfig: %w", err)
		}
		bank := config[0].(common.Address)
		if bank != (common.Address{}) {
			state.Bank = bank.Hex()
		}
	}
	return state, nil
}

// BankState reads the bank self-description in one batch
func (r *EthReader) BankState(ctx context.Context, address string, blockNumber uint64) (*BankState, error) {
	target := common.HexToAddress(address)

	configData, err := bankABI.Pack("getConfig")
	if err != nil {
		return nil, fmt.Errorf("packing getConfig: %w", err)
	}
	enabledData, err := bankABI.Pack("isDistributionEnabled")
	if err != nil {
		return nil, fmt.Errorf("packing isDistributionEnabled: %w", err)
	}

	results, err := r.Aggregate3(ctx, []Call3{
		{Target: target, CallData: configData},
		{Target: target, CallData: enabledData},
	}, blockArg(blockNumber))
	if err != nil {
		return nil, err
	}
	if !results[0].Success || !results[1].Success {
		return nil, fmt.Errorf("bank state read reverted for %s: %w", address, domain.ErrChainReadFailed)
	}

	config, err := bankABI.Unpack("getConfig", results[0].ReturnData)
	if err != nil {
		return nil, fmt.Errorf("unpacking getConfig: %w", err)
	}
	enabled, err := bankABI.Unpack("isDistributionEnabled", results[1].ReturnData)
	if err != nil {
		return nil, fmt.Errorf("unpacking isDistributionEnabled: %w", err)
	}

	return &BankState{
		Token:          config[0].(common.Address).Hex(),
		ProductID:      config[1].(*big.Int),
		IsDistributing: enabled[0].(bool),
	}, nil
}

// ERC20Metadata reads token metadata at the latest block. Token metadata is
// immutable in practice, so pinning is unnecessary.
func (r *EthReader) ERC20Metadata(ctx context.Context, address string) (*ERC20Metadata, error) {
	target := common.HexToAddress(address)

	nameData, err := erc20ABI.Pack("name")
	if err != nil {
		return nil, fmt.Errorf("packing name: %w", err)
	}
	symbolData, err := erc20ABI.Pack("symbol")
	if err != nil {
		return nil, fmt.Errorf("packing symbol: %w", err)
	}
	decimalsData, err := erc20ABI.Pack("decimals")
	if err != nil {
		return nil, fmt.Errorf("packing decimals: %w", err)
	}

	results, err := r.Aggregate3(ctx, []Call3{
		{Target: target, CallData: nameData},
		{Target: target, CallData: symbolData},
		{Target: target, CallData: decimalsData},
	}, nil)
	if err != nil {
		return nil, err
	}
	for _, result := range results {
		if !result.Success {
			return nil, fmt.Errorf("token metadata read reverted for %s: %w", address, domain.ErrChainReadFailed)
		}
	}

	name, err := erc20ABI.Unpack("name", results[0].ReturnData)
	if err != nil {
		return nil, fmt.Errorf("unpacking name: %w", err)
	}
	symbol, err := erc20ABI.Unpack("symbol", results[1].ReturnData)
	if err != nil {
		return nil, fmt.Errorf("unpacking symbol: %w", err)
	}
	decimals, err := erc20ABI.Unpack("decimals", results[2].ReturnData)
	if err != nil {
		return nil, fmt.Errorf("unpacking decimals: %w", err)
	}

	return &ERC20Metadata{
		Name:     name[0].(string),
		Symbol:   symbol[0].(string),
		Decimals: decimals[0].(uint8),
	}, nil
}

// ActiveCampaigns reads isActive() from every campaign in one batch, pinned to
// the triggering block. Sub-calls are not allowed to fail individually so the
// caller either sees the full activation set or an error.
func (r *EthReader) ActiveCampaigns(ctx context.Context, addresses []string, blockNumber uint64) (map[string]bool, error) {
	if len(addresses) == 0 {
		return map[string]bool{}, nil
	}

	data, err := campaignABI.Pack("isActive")
	if err != nil {
		return nil, fmt.Errorf("packing isActive: %w", err)
	}

	calls := make([]Call3, 0, len(addresses))
	for _, address := range addresses {
		calls = append(calls, Call3{
			Target:   common.HexToAddress(address),
			CallData: data,
		})
	}

	results, err := r.Aggregate3(ctx, calls, blockArg(blockNumber))
	if err != nil {
		return nil, err
	}

	active := make(map[string]bool, len(addresses))
	for i, result := range results {
		if !result.Success {
			return nil, fmt.Errorf("isActive reverted for %s: %w", addresses[i], domain.ErrChainReadFailed)
		}
		outputs, err := campaignABI.Unpack("isActive", result.ReturnData)
		if err != nil {
			return nil, fmt.Errorf("unpacking isActive: %w", err)
		}
		active[addresses[i]] = outputs[0].(bool)
	}
	return active, nil
}
