package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/engage-protocol/ep-indexer/internal/domain"
	"github.com/engage-protocol/ep-indexer/internal/logger"
	"github.com/engage-protocol/ep-indexer/internal/namecodec"
	"github.com/engage-protocol/ep-indexer/internal/store"
	"github.com/engage-protocol/ep-indexer/internal/store/schema"
)

type campaignBankCreatedArgs struct {
	CampaignBank string `json:"campaignBank"`
}

type campaignAuthorisationArgs struct {
	Campaign  string `json:"campaign"`
	IsAllowed bool   `json:"isAllowed"`
}

type distributionStateArgs struct {
	IsDistributing bool `json:"isDistributing"`
}

type rewardAddedArgs struct {
	User    string `json:"user"`
	Emitter string `json:"emitter"` // campaign that triggered the reward
	Amount  string `json:"amount"`
}

type rewardClaimedArgs struct {
	User   string `json:"user"`
	Amount string `json:"amount"`
}

// ensureBank is the lazy upsert for banking contracts: existing rows are left
// alone, absent rows are backfilled with one point-in-time read of the bank
// config at the event's block. The token metadata backfill is a second,
// independent round trip whose failure is swallowed; the token row is simply
// absent until the next bank creation referencing it.
func (e *Engine) ensureBank(ctx context.Context, address string, blockNumber uint64) error {
	existing, err := e.store.GetBankingContract(ctx, address)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	state, err := e.reader.BankState(ctx, address, blockNumber)
	if err != nil {
		return fmt.Errorf("reading bank state for %s: %w", address, err)
	}

	tokenAddress := domain.NormalizeAddress(state.Token)
	if err := e.store.InsertBankingContract(ctx, &schema.BankingContract{
		ID:               address,
		TokenID:          tokenAddress,
		ProductID:        namecodec.AmountString(state.ProductID),
		TotalDistributed: "0",
		TotalClaimed:     "0",
		IsDistributing:   state.IsDistributing,
	}); err != nil {
		return err
	}

	e.backfillToken(ctx, tokenAddress)
	return nil
}

func (e *Engine) backfillToken(ctx context.Context, tokenAddress string) {
	token, err := e.store.GetToken(ctx, tokenAddress)
	if err != nil || token != nil {
		return
	}

	metadata, err := e.reader.ERC20Metadata(ctx, tokenAddress)
	if err != nil {
		logger.WarnCtx(ctx, "token metadata read failed, leaving token row absent",
			zap.String("token", tokenAddress),
			zap.Error(err))
		return
	}

	if err := e.store.EnsureToken(ctx, &schema.Token{
		ID:       tokenAddress,
		Name:     metadata.Name,
		Symbol:   metadata.Symbol,
		Decimals: metadata.Decimals,
	}); err != nil {
		logger.WarnCtx(ctx, "token insert failed",
			zap.String("token", tokenAddress),
			zap.Error(err))
	}
}

// handleCampaignBankCreated registers the bank through the lazy upsert
func (e *Engine) handleCampaignBankCreated(ctx context.Context, log *domain.ChainLog) error {
	args, err := decodeArgs[campaignBankCreatedArgs](log)
	if err != nil {
		return err
	}

	return e.ensureBank(ctx, domain.NormalizeAddress(args.CampaignBank), log.BlockNumber)
}

// handleCampaignAuthorisationUpdated records whether the bank allows the
// campaign to distribute. When the campaign is already linked to a different
// bank the event is rejected, guarding against a campaign being re-pointed at
// another bank mid-stream.
func (e *Engine) handleCampaignAuthorisationUpdated(ctx context.Context, log *domain.ChainLog) error {
	args, err := decodeArgs[campaignAuthorisationArgs](log)
	if err != nil {
		return err
	}

	bankAddress := domain.NormalizeAddress(log.Address)
	if err := e.ensureBank(ctx, bankAddress, log.BlockNumber); err != nil {
		return err
	}

	campaignAddress := domain.NormalizeAddress(args.Campaign)
	campaign, err := e.store.GetCampaign(ctx, campaignAddress)
	if err != nil {
		return err
	}
	if campaign == nil {
		logger.WarnCtx(ctx, "authorisation for unknown campaign",
			zap.String("campaign", campaignAddress),
			zap.String("bank", bankAddress),
			zap.String("logID", log.LogID()))
		return fmt.Errorf("campaign %s: %w", campaignAddress, domain.ErrReferenceNotFound)
	}
	if campaign.BankingContractID != nil && *campaign.BankingContractID != bankAddress {
		logger.WarnCtx(ctx, "authorisation from mismatched bank",
			zap.String("campaign", campaignAddress),
			zap.String("storedBank", *campaign.BankingContractID),
			zap.String("emittingBank", bankAddress),
			zap.String("logID", log.LogID()))
		return fmt.Errorf("campaign %s: %w", campaignAddress, domain.ErrBankMismatch)
	}

	return e.store.UpdateCampaign(ctx, campaignAddress, store.CampaignPatch{
		BankingContractID:     &bankAddress,
		IsAuthorisedOnBanking: &args.IsAllowed,
		BlockNumber:           log.BlockNumber,
	})
}

// handleDistributionStateUpdated toggles the bank's distribution flag
func (e *Engine) handleDistributionStateUpdated(ctx context.Context, log *domain.ChainLog) error {
	args, err := decodeArgs[distributionStateArgs](log)
	if err != nil {
		return err
	}

	bankAddress := domain.NormalizeAddress(log.Address)
	if err := e.ensureBank(ctx, bankAddress, log.BlockNumber); err != nil {
		return err
	}

	return e.store.UpdateBankingContract(ctx, bankAddress, store.BankingContractPatch{
		IsDistributing: &args.IsDistributing,
	})
}

// handleRewardAdded materializes one reward addition. The monetary merges run
// in a single store transaction gated by the audit row, so a redelivered log
// is observed and skipped here.
func (e *Engine) handleRewardAdded(ctx context.Context, log *domain.ChainLog) error {
	args, err := decodeArgs[rewardAddedArgs](log)
	if err != nil {
		return err
	}

	amount, err := namecodec.ParseAmount(args.Amount)
	if err != nil {
		return fmt.Errorf("parsing reward amount for %s: %w", log.LogID(), err)
	}

	bankAddress := domain.NormalizeAddress(log.Address)
	if err := e.ensureBank(ctx, bankAddress, log.BlockNumber); err != nil {
		return err
	}

	applied, err := e.store.ApplyRewardAddition(ctx, store.RewardAdditionInput{
		LogID:          log.LogID(),
		BankAddress:    bankAddress,
		UserAddress:    domain.NormalizeAddress(args.User),
		EmitterAddress: domain.NormalizeAddress(args.Emitter),
		Amount:         amount,
		Timestamp:      log.Timestamp,
		BlockNumber:    log.BlockNumber,
	})
	if err != nil {
		return err
	}
	if !applied {
		logger.DebugCtx(ctx, "reward addition already processed",
			zap.String("logID", log.LogID()))
	}
	return nil
}

// handleRewardClaimed materializes one reward claim, symmetric to
// handleRewardAdded
func (e *Engine) handleRewardClaimed(ctx context.Context, log *domain.ChainLog) error {
	args, err := decodeArgs[rewardClaimedArgs](log)
	if err != nil {
		return err
	}

	amount, err := namecodec.ParseAmount(args.Amount)
	if err != nil {
		return fmt.Errorf("parsing claim amount for %s: %w", log.LogID(), err)
	}

	bankAddress := domain.NormalizeAddress(log.Address)
	if err := e.ensureBank(ctx, bankAddress, log.BlockNumber); err != nil {
		return err
	}

	applied, err := e.store.ApplyRewardClaim(ctx, store.RewardClaimInput{
		LogID:       log.LogID(),
		BankAddress: bankAddress,
		UserAddress: domain.NormalizeAddress(args.User),
		Amount:      amount,
		Timestamp:   log.Timestamp,
		BlockNumber: log.BlockNumber,
	})
	if err != nil {
		return err
	}
	if !applied {
		logger.DebugCtx(ctx, "reward claim already processed",
			zap.String("logID", log.LogID()))
	}
	return nil
}
