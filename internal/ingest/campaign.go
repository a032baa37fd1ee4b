package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/engage-protocol/ep-indexer/internal/domain"
	"github.com/engage-protocol/ep-indexer/internal/logger"
	"github.com/engage-protocol/ep-indexer/internal/namecodec"
	"github.com/engage-protocol/ep-indexer/internal/store"
	"github.com/engage-protocol/ep-indexer/internal/store/schema"
)

type campaignCreatedArgs struct {
	Campaign string `json:"campaign"`
}

type campaignLinkArgs struct {
	Campaign string `json:"campaign"`
}

type distributionCapResetArgs struct {
	PreviousTimestamp int64  `json:"previousTimestamp"` // unix seconds
	DistributedAmount string `json:"distributedAmount"`
}

// ensureCampaign is the lazy upsert shared by the factory-creation and attach
// paths. An existing row only receives the partial patch; an absent row
// triggers exactly one point-in-time multicall at the event's block before the
// insert, with the patch merged in. The metadata and link reads are required,
// so their failure aborts the handler; the bank config is optional.
func (e *Engine) ensureCampaign(ctx context.Context, address string, log *domain.ChainLog, patch store.CampaignPatch) error {
	existing, err := e.store.GetCampaign(ctx, address)
	if err != nil {
		return err
	}
	if existing != nil {
		return e.store.UpdateCampaign(ctx, address, patch)
	}

	state, err := e.reader.CampaignState(ctx, address, log.BlockNumber)
	if err != nil {
		return fmt.Errorf("reading campaign state for %s: %w", address, err)
	}

	campaign := &schema.Campaign{
		ID:                    address,
		Type:                  state.Type,
		Name:                  state.Name,
		Version:               state.Version,
		ProductID:             namecodec.AmountString(state.ProductID),
		InteractionContractID: domain.NormalizeAddress(state.InteractionContract),
		LastUpdateBlock:       log.BlockNumber,
	}
	if state.Bank != "" {
		bank := domain.NormalizeAddress(state.Bank)
		campaign.BankingContractID = &bank
	}
	if patch.Attached != nil {
		campaign.Attached = *patch.Attached
	}
	if patch.AttachTimestamp != nil {
		campaign.AttachTimestamp = patch.AttachTimestamp
	}
	if patch.DetachTimestamp != nil {
		campaign.DetachTimestamp = patch.DetachTimestamp
	}
	if patch.IsAuthorisedOnBanking != nil {
		campaign.IsAuthorisedOnBanking = *patch.IsAuthorisedOnBanking
	}

	if err := e.store.InsertCampaign(ctx, campaign); err != nil {
		return err
	}

	// a stats aggregate exists only for referral campaigns
	if state.Type == string(domain.CampaignTypeReferral) {
		return e.store.EnsureReferralCampaignStats(ctx, address)
	}
	return nil
}

// handleCampaignCreated registers the campaign without attaching it
func (e *Engine) handleCampaignCreated(ctx context.Context, log *domain.ChainLog) error {
	args, err := decodeArgs[campaignCreatedArgs](log)
	if err != nil {
		return err
	}

	return e.ensureCampaign(ctx, domain.NormalizeAddress(args.Campaign), log, store.CampaignPatch{
		BlockNumber: log.BlockNumber,
	})
}

// handleCampaignAttached links the campaign to the emitting interaction
// contract. The contract must already be materialized; an unknown contract
// signals out-of-order delivery and the handler aborts so the event is retried.
func (e *Engine) handleCampaignAttached(ctx context.Context, log *domain.ChainLog) error {
	args, err := decodeArgs[campaignLinkArgs](log)
	if err != nil {
		return err
	}

	contractAddress := domain.NormalizeAddress(log.Address)
	contract, err := e.store.GetInteractionContract(ctx, contractAddress)
	if err != nil {
		return err
	}
	if contract == nil {
		logger.WarnCtx(ctx, "attach for unknown interaction contract",
			zap.String("contract", contractAddress),
			zap.String("campaign", args.Campaign),
			zap.String("logID", log.LogID()))
		return fmt.Errorf("interaction contract %s: %w", contractAddress, domain.ErrReferenceNotFound)
	}

	attached := log.Timestamp
	return e.ensureCampaign(ctx, domain.NormalizeAddress(args.Campaign), log, store.CampaignPatch{
		Attached:        boolPtr(true),
		AttachTimestamp: &attached,
		BlockNumber:     log.BlockNumber,
	})
}

// handleCampaignDetached unlinks the campaign and touches the owning
// interaction contract's update markers
func (e *Engine) handleCampaignDetached(ctx context.Context, log *domain.ChainLog) error {
	args, err := decodeArgs[campaignLinkArgs](log)
	if err != nil {
		return err
	}

	detached := log.Timestamp
	if err := e.store.UpdateCampaign(ctx, domain.NormalizeAddress(args.Campaign), store.CampaignPatch{
		Attached:        boolPtr(false),
		DetachTimestamp: &detached,
		BlockNumber:     log.BlockNumber,
	}); err != nil {
		return err
	}

	return e.store.UpdateInteractionContract(ctx, domain.NormalizeAddress(log.Address), store.InteractionContractPatch{
		Timestamp:   log.Timestamp,
		BlockNumber: log.BlockNumber,
	})
}

// handleDistributionCapReset appends one cap window rollover record
func (e *Engine) handleDistributionCapReset(ctx context.Context, log *domain.ChainLog) error {
	args, err := decodeArgs[distributionCapResetArgs](log)
	if err != nil {
		return err
	}

	amount, err := namecodec.ParseAmount(args.DistributedAmount)
	if err != nil {
		return fmt.Errorf("parsing distributed amount for %s: %w", log.LogID(), err)
	}

	return e.store.InsertCampaignCapReset(ctx, &schema.CampaignCapReset{
		CampaignID:        domain.NormalizeAddress(log.Address),
		PreviousTimestamp: time.Unix(args.PreviousTimestamp, 0).UTC(),
		DistributedAmount: namecodec.AmountString(amount),
		Timestamp:         log.Timestamp,
		BlockNumber:       log.BlockNumber,
	})
}
