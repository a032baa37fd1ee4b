package ingest_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engage-protocol/ep-indexer/internal/chain"
	"github.com/engage-protocol/ep-indexer/internal/domain"
	"github.com/engage-protocol/ep-indexer/internal/ingest"
	"github.com/engage-protocol/ep-indexer/internal/logger"
	"github.com/engage-protocol/ep-indexer/internal/mocks"
	"github.com/engage-protocol/ep-indexer/internal/store"
)

// digit-only addresses are their own checksummed form
const (
	registryAddr    = "0x8000000000000000000000000000000000000008"
	contractAddr    = "0x5000000000000000000000000000000000000005"
	campaignAddrA   = "0x2000000000000000000000000000000000000002"
	campaignAddrB   = "0x9000000000000000000000000000000000000009"
	bankAddrA       = "0x1000000000000000000000000000000000000001"
	bankAddrB       = "0x6000000000000000000000000000000000000006"
	tokenAddr       = "0x4000000000000000000000000000000000000004"
	userAddr        = "0x3000000000000000000000000000000000000003"
	ownerAddrA      = "0x7000000000000000000000000000000000000007"
	ownerAddrB      = "0x7100000000000000000000000000000000000017"
	productNameHex  = "0x4d792050726f6475637400000000000000000000000000000000000000000000"
	campaignName = "summer"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newLog(t *testing.T, role domain.ContractRole, event, address string, block uint64, args map[string]interface{}) *domain.ChainLog {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	return &domain.ChainLog{
		Chain:       domain.ChainArbitrumOne,
		Role:        role,
		Event:       event,
		Address:     address,
		BlockNumber: block,
		Timestamp:   time.Unix(int64(1700000000+block), 0).UTC(),
		TxHash:      "0xf00d",
		LogIndex:    block % 16,
		Args:        raw,
	}
}

func referralState() *chain.CampaignState {
	return &chain.CampaignState{
		Type:                string(domain.CampaignTypeReferral),
		Version:             "0.1",
		Name:                campaignName,
		ProductID:           big.NewInt(7),
		InteractionContract: contractAddr,
		Bank:                bankAddrA,
	}
}

// deployContract runs the InteractionContractDeployed handler so the
// interaction contract row exists for the scenarios that need it
func deployContract(t *testing.T, engine *ingest.Engine, reader *mocks.MockReader) {
	t.Helper()
	reader.EXPECT().
		InteractionReferralTree(gomock.Any(), contractAddr, uint64(10)).
		Return("0xdead", nil)
	require.NoError(t, engine.Handle(context.Background(),
		newLog(t, domain.RoleInteractionManager, "InteractionContractDeployed", contractAddr, 10, map[string]interface{}{
			"productId":           "7",
			"interactionContract": contractAddr,
		})))
}

func TestProductMintedThenUpdated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	s := store.NewMemoryStore()
	reader := mocks.NewMockReader(ctrl)
	engine := ingest.NewEngine(s, reader)

	reader.EXPECT().
		ProductMetadataURI(gomock.Any(), registryAddr, big.NewInt(7), uint64(5)).
		Return("ipfs://metadata", nil)

	require.NoError(t, engine.Handle(ctx,
		newLog(t, domain.RoleProductRegistry, "ProductMinted", registryAddr, 5, map[string]interface{}{
			"productId":    "7",
			"domain":       "example.com",
			"productTypes": 3,
			"name":         productNameHex,
		})))

	product, err := s.GetProductByID(ctx, "7")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "My Product", product.Name)
	assert.Equal(t, "example.com", product.Domain)
	assert.Equal(t, int64(3), product.ProductTypes)
	require.NotNil(t, product.MetadataURL)
	assert.Equal(t, "ipfs://metadata", *product.MetadataURL)

	// an update without a custom URL must not regress the stored one
	require.NoError(t, engine.Handle(ctx,
		newLog(t, domain.RoleProductRegistry, "ProductUpdated", registryAddr, 6, map[string]interface{}{
			"productId":         "7",
			"productTypes":      5,
			"name":              productNameHex,
			"customMetadataUrl": "",
		})))

	product, err = s.GetProductByID(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, int64(5), product.ProductTypes)
	require.NotNil(t, product.MetadataURL)
	assert.Equal(t, "ipfs://metadata", *product.MetadataURL)
}

func TestProductMintedTokenURIFailureLeavesMetadataUnset(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	s := store.NewMemoryStore()
	reader := mocks.NewMockReader(ctrl)
	engine := ingest.NewEngine(s, reader)

	reader.EXPECT().
		ProductMetadataURI(gomock.Any(), registryAddr, big.NewInt(7), uint64(5)).
		Return("", errors.New("rpc timeout"))

	require.NoError(t, engine.Handle(ctx,
		newLog(t, domain.RoleProductRegistry, "ProductMinted", registryAddr, 5, map[string]interface{}{
			"productId": "7",
			"domain":    "example.com",
			"name":      productNameHex,
		})))

	product, err := s.GetProductByID(ctx, "7")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Nil(t, product.MetadataURL)
}

func TestProductTransferOwnership(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	s := store.NewMemoryStore()
	engine := ingest.NewEngine(s, mocks.NewMockReader(ctrl))

	// mint, then a secondary transfer
	require.NoError(t, engine.Handle(ctx,
		newLog(t, domain.RoleProductRegistry, "Transfer", registryAddr, 5, map[string]interface{}{
			"from": domain.EVM_ZERO_ADDRESS,
			"to":   ownerAddrA,
			"id":   "7",
		})))
	require.NoError(t, engine.Handle(ctx,
		newLog(t, domain.RoleProductRegistry, "Transfer", registryAddr, 6, map[string]interface{}{
			"from": ownerAddrA,
			"to":   ownerAddrB,
			"id":   "7",
		})))

	previous, err := s.GetProductAdministrator(ctx, "7", ownerAddrA)
	require.NoError(t, err)
	require.NotNil(t, previous)
	assert.False(t, previous.IsOwner)

	current, err := s.GetProductAdministrator(ctx, "7", ownerAddrB)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.True(t, current.IsOwner)
}

func TestRolesUpdatedPreservesOwnership(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	s := store.NewMemoryStore()
	engine := ingest.NewEngine(s, mocks.NewMockReader(ctrl))

	require.NoError(t, engine.Handle(ctx,
		newLog(t, domain.RoleProductRegistry, "Transfer", registryAddr, 5, map[string]interface{}{
			"from": domain.EVM_ZERO_ADDRESS,
			"to":   ownerAddrA,
			"id":   "7",
		})))
	require.NoError(t, engine.Handle(ctx,
		newLog(t, domain.RoleProductAdminRegistry, "ProductRolesUpdated", registryAddr, 6, map[string]interface{}{
			"productId": "7",
			"user":      ownerAddrA,
			"roles":     5,
		})))

	row, err := s.GetProductAdministrator(ctx, "7", ownerAddrA)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.True(t, row.IsOwner)
	assert.Equal(t, int64(5), row.Roles)
}

func TestCampaignAttachBeforeCreated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	s := store.NewMemoryStore()
	reader := mocks.NewMockReader(ctrl)
	engine := ingest.NewEngine(s, reader)

	deployContract(t, engine, reader)

	// the attach arrives first and materializes the campaign with exactly one
	// point-in-time read
	reader.EXPECT().
		CampaignState(gomock.Any(), campaignAddrA, uint64(20)).
		Return(referralState(), nil).
		Times(1)

	require.NoError(t, engine.Handle(ctx,
		newLog(t, domain.RoleInteraction, "CampaignAttached", contractAddr, 20, map[string]interface{}{
			"campaign": campaignAddrA,
		})))

	// the late factory event patches, it does not re-read or duplicate
	require.NoError(t, engine.Handle(ctx,
		newLog(t, domain.RoleCampaignFactory, "CampaignCreated", registryAddr, 21, map[string]interface{}{
			"campaign": campaignAddrA,
		})))

	campaign, err := s.GetCampaign(ctx, campaignAddrA)
	require.NoError(t, err)
	require.NotNil(t, campaign)
	assert.True(t, campaign.Attached)
	assert.Equal(t, string(domain.CampaignTypeReferral), campaign.Type)
	assert.Equal(t, "7", campaign.ProductID)
	require.NotNil(t, campaign.BankingContractID)
	assert.Equal(t, bankAddrA, *campaign.BankingContractID)

	stats, err := s.GetReferralCampaignStats(ctx, campaignAddrA)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, "0", stats.TotalInteractions)
}

func TestCampaignAttachUnknownContractFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := ingest.NewEngine(store.NewMemoryStore(), mocks.NewMockReader(ctrl))

	err := engine.Handle(context.Background(),
		newLog(t, domain.RoleInteraction, "CampaignAttached", contractAddr, 20, map[string]interface{}{
			"campaign": campaignAddrA,
		}))
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
}

func TestCampaignDetachTouchesContract(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	s := store.NewMemoryStore()
	reader := mocks.NewMockReader(ctrl)
	engine := ingest.NewEngine(s, reader)

	deployContract(t, engine, reader)
	reader.EXPECT().
		CampaignState(gomock.Any(), campaignAddrA, uint64(20)).
		Return(referralState(), nil)
	require.NoError(t, engine.Handle(ctx,
		newLog(t, domain.RoleInteraction, "CampaignAttached", contractAddr, 20, map[string]interface{}{
			"campaign": campaignAddrA,
		})))

	require.NoError(t, engine.Handle(ctx,
		newLog(t, domain.RoleInteraction, "CampaignDetached", contractAddr, 30, map[string]interface{}{
			"campaign": campaignAddrA,
		})))

	campaign, err := s.GetCampaign(ctx, campaignAddrA)
	require.NoError(t, err)
	assert.False(t, campaign.Attached)
	assert.NotNil(t, campaign.DetachTimestamp)

	contract, err := s.GetInteractionContract(ctx, contractAddr)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), contract.LastUpdateBlock)
}

func TestActivityRollupGatedByActivation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	s := store.NewMemoryStore()
	reader := mocks.NewMockReader(ctrl)
	engine := ingest.NewEngine(s, reader)

	deployContract(t, engine, reader)

	stateB := referralState()
	stateB.Bank = ""
	reader.EXPECT().
		CampaignState(gomock.Any(), campaignAddrA, uint64(20)).
		Return(referralState(), nil)
	reader.EXPECT().
		CampaignState(gomock.Any(), campaignAddrB, uint64(21)).
		Return(stateB, nil)
	for i, address := range []string{campaignAddrA, campaignAddrB} {
		require.NoError(t, engine.Handle(ctx,
			newLog(t, domain.RoleInteraction, "CampaignAttached", contractAddr, uint64(20+i), map[string]interface{}{
				"campaign": address,
			})))
	}

	// campaign B is attached but outside its activation window at block 40
	reader.EXPECT().
		ActiveCampaigns(gomock.Any(), []string{campaignAddrA, campaignAddrB}, uint64(40)).
		Return(map[string]bool{campaignAddrA: true, campaignAddrB: false}, nil)

	require.NoError(t, engine.Handle(ctx,
		newLog(t, domain.RoleInteraction, "ArticleRead", contractAddr, 40, map[string]interface{}{
			"user": userAddr,
		})))

	statsA, err := s.GetReferralCampaignStats(ctx, campaignAddrA)
	require.NoError(t, err)
	assert.Equal(t, "1", statsA.TotalInteractions)
	assert.Equal(t, "1", statsA.ReadInteractions)

	statsB, err := s.GetReferralCampaignStats(ctx, campaignAddrB)
	require.NoError(t, err)
	assert.Equal(t, "0", statsB.TotalInteractions)

	events, err := s.ListInteractionEventsByUser(ctx, userAddr, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(domain.InteractionReadArticle), events[0].Type)
}

func TestActivityMulticallFailureAbortsWithoutWrites(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	s := store.NewMemoryStore()
	reader := mocks.NewMockReader(ctrl)
	engine := ingest.NewEngine(s, reader)

	deployContract(t, engine, reader)
	reader.EXPECT().
		CampaignState(gomock.Any(), campaignAddrA, uint64(20)).
		Return(referralState(), nil)
	require.NoError(t, engine.Handle(ctx,
		newLog(t, domain.RoleInteraction, "CampaignAttached", contractAddr, 20, map[string]interface{}{
			"campaign": campaignAddrA,
		})))

	reader.EXPECT().
		ActiveCampaigns(gomock.Any(), []string{campaignAddrA}, uint64(40)).
		Return(nil, domain.ErrChainReadFailed)

	err := engine.Handle(ctx,
		newLog(t, domain.RoleInteraction, "ArticleRead", contractAddr, 40, map[string]interface{}{
			"user": userAddr,
		}))
	require.Error(t, err)

	// nothing was written, so the redelivery will apply cleanly
	events, listErr := s.ListInteractionEventsByUser(ctx, userAddr, 10)
	require.NoError(t, listErr)
	assert.Empty(t, events)

	stats, statsErr := s.GetReferralCampaignStats(ctx, campaignAddrA)
	require.NoError(t, statsErr)
	assert.Equal(t, "0", stats.TotalInteractions)
}

func TestActivityForUnknownContractSkipsRollup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	s := store.NewMemoryStore()
	engine := ingest.NewEngine(s, mocks.NewMockReader(ctrl))

	require.NoError(t, engine.Handle(ctx,
		newLog(t, domain.RoleInteraction, "ArticleOpened", contractAddr, 40, map[string]interface{}{
			"user": userAddr,
		})))

	events, err := s.ListInteractionEventsByUser(ctx, userAddr, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(domain.InteractionOpenArticle), events[0].Type)
}

func TestRewardAddedThenClaimedViaHandle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	s := store.NewMemoryStore()
	reader := mocks.NewMockReader(ctrl)
	engine := ingest.NewEngine(s, reader)

	// the first bank event lazily materializes the bank and its token
	reader.EXPECT().
		BankState(gomock.Any(), bankAddrA, uint64(50)).
		Return(&chain.BankState{Token: tokenAddr, ProductID: big.NewInt(7), IsDistributing: true}, nil).
		Times(1)
	reader.EXPECT().
		ERC20Metadata(gomock.Any(), tokenAddr).
		Return(&chain.ERC20Metadata{Name: "USD Coin", Symbol: "USDC", Decimals: 6}, nil).
		Times(1)

	added := newLog(t, domain.RoleCampaignBank, "RewardAdded", bankAddrA, 50, map[string]interface{}{
		"user":    userAddr,
		"emitter": campaignAddrA,
		"amount":  "100",
	})
	require.NoError(t, engine.Handle(ctx, added))
	// exact redelivery is observed and skipped
	require.NoError(t, engine.Handle(ctx, added))

	require.NoError(t, engine.Handle(ctx,
		newLog(t, domain.RoleCampaignBank, "RewardClaimed", bankAddrA, 51, map[string]interface{}{
			"user":   userAddr,
			"amount": "40",
		})))

	reward, err := s.GetReward(ctx, bankAddrA, userAddr)
	require.NoError(t, err)
	require.NotNil(t, reward)
	assert.Equal(t, "60", reward.PendingAmount)
	assert.Equal(t, "100", reward.TotalReceived)
	assert.Equal(t, "40", reward.TotalClaimed)

	bank, err := s.GetBankingContract(ctx, bankAddrA)
	require.NoError(t, err)
	assert.Equal(t, "100", bank.TotalDistributed)
	assert.Equal(t, "40", bank.TotalClaimed)

	token, err := s.GetToken(ctx, tokenAddr)
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "USDC", token.Symbol)
	assert.Equal(t, uint8(6), token.Decimals)
}

func TestAuthorisationFromMismatchedBank(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	s := store.NewMemoryStore()
	reader := mocks.NewMockReader(ctrl)
	engine := ingest.NewEngine(s, reader)

	deployContract(t, engine, reader)
	reader.EXPECT().
		CampaignState(gomock.Any(), campaignAddrA, uint64(20)).
		Return(referralState(), nil)
	require.NoError(t, engine.Handle(ctx,
		newLog(t, domain.RoleInteraction, "CampaignAttached", contractAddr, 20, map[string]interface{}{
			"campaign": campaignAddrA,
		})))

	// the campaign is bound to bank A, so bank B may not claim it
	reader.EXPECT().
		BankState(gomock.Any(), bankAddrB, uint64(30)).
		Return(&chain.BankState{Token: tokenAddr, ProductID: big.NewInt(7), IsDistributing: true}, nil)
	reader.EXPECT().
		ERC20Metadata(gomock.Any(), tokenAddr).
		Return(&chain.ERC20Metadata{Name: "USD Coin", Symbol: "USDC", Decimals: 6}, nil)

	err := engine.Handle(ctx,
		newLog(t, domain.RoleCampaignBank, "CampaignAuthorisationUpdated", bankAddrB, 30, map[string]interface{}{
			"campaign":  campaignAddrA,
			"isAllowed": true,
		}))
	assert.ErrorIs(t, err, domain.ErrBankMismatch)
}

func TestDistributionStateUpdated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	s := store.NewMemoryStore()
	reader := mocks.NewMockReader(ctrl)
	engine := ingest.NewEngine(s, reader)

	reader.EXPECT().
		BankState(gomock.Any(), bankAddrA, uint64(50)).
		Return(&chain.BankState{Token: tokenAddr, ProductID: big.NewInt(7), IsDistributing: true}, nil)
	reader.EXPECT().
		ERC20Metadata(gomock.Any(), tokenAddr).
		Return(&chain.ERC20Metadata{Name: "USD Coin", Symbol: "USDC", Decimals: 6}, nil)

	require.NoError(t, engine.Handle(ctx,
		newLog(t, domain.RoleCampaignBank, "DistributionStateUpdated", bankAddrA, 50, map[string]interface{}{
			"isDistributing": false,
		})))

	bank, err := s.GetBankingContract(ctx, bankAddrA)
	require.NoError(t, err)
	require.NotNil(t, bank)
	assert.False(t, bank.IsDistributing)
}

func TestDistributionCapReset(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	s := store.NewMemoryStore()
	engine := ingest.NewEngine(s, mocks.NewMockReader(ctrl))

	log := newLog(t, domain.RoleCampaign, "DistributionCapReset", campaignAddrA, 60, map[string]interface{}{
		"previousTimestamp": 1700000000,
		"distributedAmount": "500",
	})
	require.NoError(t, engine.Handle(ctx, log))
	require.NoError(t, engine.Handle(ctx, log))

	resets, err := s.ListCampaignCapResets(ctx, campaignAddrA)
	require.NoError(t, err)
	require.Len(t, resets, 1)
	assert.Equal(t, "500", resets[0].DistributedAmount)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), resets[0].PreviousTimestamp)
}

func TestUnknownEventIsSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := ingest.NewEngine(store.NewMemoryStore(), mocks.NewMockReader(ctrl))

	err := engine.Handle(context.Background(),
		newLog(t, domain.RoleInteraction, "SomethingNew", contractAddr, 40, map[string]interface{}{}))
	assert.NoError(t, err)
}

func TestInvalidLogIsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := ingest.NewEngine(store.NewMemoryStore(), mocks.NewMockReader(ctrl))

	log := newLog(t, domain.RoleInteraction, "ArticleRead", contractAddr, 40, map[string]interface{}{})
	log.Chain = "eip155:999"

	err := engine.Handle(context.Background(), log)
	assert.ErrorIs(t, err, domain.ErrUnknownEvent)
}
