package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/engage-protocol/ep-indexer/internal/domain"
	"github.com/engage-protocol/ep-indexer/internal/logger"
)

// rollupCandidates resolves the campaigns whose stats an interaction event
// must increment: attached referral campaigns of the emitting contract's
// product, filtered by an isActive() check pinned to the event's block.
// Attach state and the activation window are independent, so a campaign that
// is attached but was outside its activation window at the triggering block is
// excluded. The isActive batch fails as a whole, never partially, so a
// multicall error aborts the handler and no increment is applied.
func (e *Engine) rollupCandidates(ctx context.Context, contractAddress string, log *domain.ChainLog) ([]string, error) {
	contract, err := e.store.GetInteractionContract(ctx, contractAddress)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		logger.WarnCtx(ctx, "interaction for unknown contract, skipping rollup",
			zap.String("contract", contractAddress),
			zap.String("logID", log.LogID()))
		return nil, nil
	}

	campaigns, err := e.store.ListAttachedCampaignsByType(ctx, contract.ProductID, string(domain.CampaignTypeReferral))
	if err != nil {
		return nil, err
	}
	if len(campaigns) == 0 {
		return nil, nil
	}

	addresses := make([]string, 0, len(campaigns))
	for _, campaign := range campaigns {
		addresses = append(addresses, campaign.ID)
	}

	active, err := e.reader.ActiveCampaigns(ctx, addresses, log.BlockNumber)
	if err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("contract", contractAddress),
			zap.String("logID", log.LogID()),
			zap.Int("candidates", len(addresses)))
		return nil, err
	}

	candidates := make([]string, 0, len(addresses))
	for _, address := range addresses {
		if active[address] {
			candidates = append(candidates, address)
		}
	}
	return candidates, nil
}
