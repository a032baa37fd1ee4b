package chain_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engage-protocol/ep-indexer/internal/chain"
	"github.com/engage-protocol/ep-indexer/internal/domain"
	"github.com/engage-protocol/ep-indexer/internal/mocks"
)

const (
	campaignAddr    = "0x2000000000000000000000000000000000000002"
	interactionAddr = "0x5000000000000000000000000000000000000005"
	bankAddr        = "0x1000000000000000000000000000000000000001"
	tokenAddr       = "0x4000000000000000000000000000000000000004"
)

// packValues ABI-encodes a flat output tuple, mirroring what a contract
// returns from a view call
func packValues(t *testing.T, solTypes []string, values ...interface{}) []byte {
	t.Helper()
	args := make(abi.Arguments, 0, len(solTypes))
	for _, solType := range solTypes {
		parsed, err := abi.NewType(solType, "", nil)
		require.NoError(t, err)
		args = append(args, abi.Argument{Type: parsed})
	}
	packed, err := args.Pack(values...)
	require.NoError(t, err)
	return packed
}

// packAggregate3 ABI-encodes the aggregate3 return value for the given
// per-sub-call results
func packAggregate3(t *testing.T, results []chain.Call3Result) []byte {
	t.Helper()
	tupleType, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "success", Type: "bool"},
		{Name: "returnData", Type: "bytes"},
	})
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: tupleType}}.Pack(results)
	require.NoError(t, err)
	return packed
}

func paddedName(name string) [32]byte {
	var packed [32]byte
	copy(packed[:], name)
	return packed
}

func TestCampaignState(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockEthClient(ctrl)
	reader := chain.NewEthReader(client, "")

	response := packAggregate3(t, []chain.Call3Result{
		{Success: true, ReturnData: packValues(t,
			[]string{"string", "string", "bytes32"},
			"frak.campaign.referral", "0.1", paddedName("summer"))},
		{Success: true, ReturnData: packValues(t,
			[]string{"uint256", "address"},
			big.NewInt(7), common.HexToAddress(interactionAddr))},
		{Success: true, ReturnData: packValues(t,
			[]string{"address"},
			common.HexToAddress(bankAddr))},
	})

	var seenBlock *big.Int
	client.EXPECT().
		CallContract(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
			assert.Equal(t, common.HexToAddress(domain.MULTICALL3_ADDRESS), *msg.To)
			seenBlock = blockNumber
			return response, nil
		})

	state, err := reader.CampaignState(context.Background(), campaignAddr, 42)
	require.NoError(t, err)
	assert.Equal(t, "frak.campaign.referral", state.Type)
	assert.Equal(t, "0.1", state.Version)
	assert.Equal(t, "summer", state.Name)
	assert.Equal(t, "7", state.ProductID.String())
	assert.Equal(t, common.HexToAddress(interactionAddr).Hex(), state.InteractionContract)
	assert.Equal(t, common.HexToAddress(bankAddr).Hex(), state.Bank)

	// the read is pinned to the triggering block
	require.NotNil(t, seenBlock)
	assert.Equal(t, int64(42), seenBlock.Int64())
}

func TestCampaignStateWithoutBank(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockEthClient(ctrl)
	reader := chain.NewEthReader(client, "")

	response := packAggregate3(t, []chain.Call3Result{
		{Success: true, ReturnData: packValues(t,
			[]string{"string", "string", "bytes32"},
			"frak.campaign.affiliation-fixed", "0.1", paddedName("fixed"))},
		{Success: true, ReturnData: packValues(t,
			[]string{"uint256", "address"},
			big.NewInt(7), common.HexToAddress(interactionAddr))},
		{Success: false, ReturnData: []byte{}},
	})

	client.EXPECT().
		CallContract(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(response, nil)

	state, err := reader.CampaignState(context.Background(), campaignAddr, 42)
	require.NoError(t, err)
	assert.Empty(t, state.Bank)
}

func TestCampaignStateRequiredCallReverts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockEthClient(ctrl)
	reader := chain.NewEthReader(client, "")

	response := packAggregate3(t, []chain.Call3Result{
		{Success: false, ReturnData: []byte{}},
		{Success: true, ReturnData: packValues(t,
			[]string{"uint256", "address"},
			big.NewInt(7), common.HexToAddress(interactionAddr))},
		{Success: false, ReturnData: []byte{}},
	})

	client.EXPECT().
		CallContract(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(response, nil)

	_, err := reader.CampaignState(context.Background(), campaignAddr, 42)
	assert.ErrorIs(t, err, domain.ErrChainReadFailed)
}

func TestActiveCampaigns(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockEthClient(ctrl)
	reader := chain.NewEthReader(client, "")

	other := "0x9000000000000000000000000000000000000009"
	response := packAggregate3(t, []chain.Call3Result{
		{Success: true, ReturnData: packValues(t, []string{"bool"}, true)},
		{Success: true, ReturnData: packValues(t, []string{"bool"}, false)},
	})

	client.EXPECT().
		CallContract(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(response, nil)

	active, err := reader.ActiveCampaigns(context.Background(), []string{campaignAddr, other}, 42)
	require.NoError(t, err)
	assert.True(t, active[campaignAddr])
	assert.False(t, active[other])
}

func TestActiveCampaignsEmptyInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := chain.NewEthReader(mocks.NewMockEthClient(ctrl), "")

	active, err := reader.ActiveCampaigns(context.Background(), nil, 42)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestActiveCampaignsSubCallRevertFailsBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockEthClient(ctrl)
	reader := chain.NewEthReader(client, "")

	response := packAggregate3(t, []chain.Call3Result{
		{Success: true, ReturnData: packValues(t, []string{"bool"}, true)},
		{Success: false, ReturnData: []byte{}},
	})

	client.EXPECT().
		CallContract(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(response, nil)

	_, err := reader.ActiveCampaigns(context.Background(),
		[]string{campaignAddr, "0x9000000000000000000000000000000000000009"}, 42)
	assert.ErrorIs(t, err, domain.ErrChainReadFailed)
}

func TestBankState(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockEthClient(ctrl)
	reader := chain.NewEthReader(client, "")

	response := packAggregate3(t, []chain.Call3Result{
		{Success: true, ReturnData: packValues(t,
			[]string{"address", "uint256"},
			common.HexToAddress(tokenAddr), big.NewInt(7))},
		{Success: true, ReturnData: packValues(t, []string{"bool"}, true)},
	})

	client.EXPECT().
		CallContract(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(response, nil)

	state, err := reader.BankState(context.Background(), bankAddr, 42)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(tokenAddr).Hex(), state.Token)
	assert.Equal(t, "7", state.ProductID.String())
	assert.True(t, state.IsDistributing)
}

func TestERC20MetadataReadsLatestBlock(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockEthClient(ctrl)
	reader := chain.NewEthReader(client, "")

	response := packAggregate3(t, []chain.Call3Result{
		{Success: true, ReturnData: packValues(t, []string{"string"}, "USD Coin")},
		{Success: true, ReturnData: packValues(t, []string{"string"}, "USDC")},
		{Success: true, ReturnData: packValues(t, []string{"uint8"}, uint8(6))},
	})

	client.EXPECT().
		CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).
		Return(response, nil)

	metadata, err := reader.ERC20Metadata(context.Background(), tokenAddr)
	require.NoError(t, err)
	assert.Equal(t, "USD Coin", metadata.Name)
	assert.Equal(t, "USDC", metadata.Symbol)
	assert.Equal(t, uint8(6), metadata.Decimals)
}

func TestInteractionReferralTree(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockEthClient(ctrl)
	reader := chain.NewEthReader(client, "")

	var tree [32]byte
	tree[0] = 0xde
	tree[31] = 0xad
	response := packAggregate3(t, []chain.Call3Result{
		{Success: true, ReturnData: packValues(t, []string{"bytes32"}, tree)},
	})

	client.EXPECT().
		CallContract(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(response, nil)

	got, err := reader.InteractionReferralTree(context.Background(), interactionAddr, 42)
	require.NoError(t, err)
	assert.Equal(t, "0x"+common.Bytes2Hex(tree[:]), got)
}

func TestAggregate3RetriesTransientFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockEthClient(ctrl)
	reader := chain.NewEthReader(client, "")

	response := packAggregate3(t, []chain.Call3Result{
		{Success: true, ReturnData: packValues(t, []string{"bool"}, true)},
	})

	gomock.InOrder(
		client.EXPECT().
			CallContract(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("connection reset")),
		client.EXPECT().
			CallContract(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(response, nil),
	)

	active, err := reader.ActiveCampaigns(context.Background(), []string{campaignAddr}, 42)
	require.NoError(t, err)
	assert.True(t, active[campaignAddr])
}
