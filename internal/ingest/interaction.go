package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/engage-protocol/ep-indexer/internal/domain"
	"github.com/engage-protocol/ep-indexer/internal/logger"
	"github.com/engage-protocol/ep-indexer/internal/store"
	"github.com/engage-protocol/ep-indexer/internal/store/schema"
)

type interactionContractArgs struct {
	ProductID           string `json:"productId"`
	InteractionContract string `json:"interactionContract"`
}

type interactionActivityArgs struct {
	User string `json:"user"`
}

// handleInteractionContractDeployed inserts the interaction contract row.
// The referral tree identifier is not carried by the event, so it is read from
// the contract at the deployment block; that read is required and its failure
// aborts the handler so the gateway retries the event.
func (e *Engine) handleInteractionContractDeployed(ctx context.Context, log *domain.ChainLog) error {
	args, err := decodeArgs[interactionContractArgs](log)
	if err != nil {
		return err
	}

	address := domain.NormalizeAddress(args.InteractionContract)
	tree, err := e.reader.InteractionReferralTree(ctx, address, log.BlockNumber)
	if err != nil {
		return fmt.Errorf("reading referral tree for %s: %w", address, err)
	}

	return e.store.InsertInteractionContract(ctx, &schema.InteractionContract{
		ID:                  address,
		ProductID:           args.ProductID,
		ReferralTree:        tree,
		CreatedTimestamp:    log.Timestamp,
		LastUpdateTimestamp: log.Timestamp,
		LastUpdateBlock:     log.BlockNumber,
	})
}

// handleInteractionContractUpdated bumps the update timestamp and block
func (e *Engine) handleInteractionContractUpdated(ctx context.Context, log *domain.ChainLog) error {
	args, err := decodeArgs[interactionContractArgs](log)
	if err != nil {
		return err
	}

	return e.store.UpdateInteractionContract(ctx, domain.NormalizeAddress(args.InteractionContract), store.InteractionContractPatch{
		Timestamp:   log.Timestamp,
		BlockNumber: log.BlockNumber,
	})
}

// handleInteractionContractDeleted soft-deletes the interaction contract
func (e *Engine) handleInteractionContractDeleted(ctx context.Context, log *domain.ChainLog) error {
	args, err := decodeArgs[interactionContractArgs](log)
	if err != nil {
		return err
	}

	removed := log.Timestamp
	return e.store.UpdateInteractionContract(ctx, domain.NormalizeAddress(args.InteractionContract), store.InteractionContractPatch{
		RemovedTimestamp: &removed,
		Timestamp:        log.Timestamp,
		BlockNumber:      log.BlockNumber,
	})
}

// activityHandler builds the handler for one interaction kind: append the
// activity row, then roll the increment up into every campaign that was
// active at the event's block
func (e *Engine) activityHandler(kind domain.InteractionType, inc store.StatsIncrement) HandlerFunc {
	return func(ctx context.Context, log *domain.ChainLog) error {
		args, err := decodeArgs[interactionActivityArgs](log)
		if err != nil {
			return err
		}

		contractAddress := domain.NormalizeAddress(log.Address)
		campaignIDs, err := e.rollupCandidates(ctx, contractAddress, log)
		if err != nil {
			return err
		}

		applied, err := e.store.ApplyInteraction(ctx, &schema.InteractionEvent{
			ID:                    log.LogID(),
			InteractionContractID: contractAddress,
			UserAddress:           domain.NormalizeAddress(args.User),
			Type:                  string(kind),
			Data:                  datatypes.JSON(log.Args),
			Timestamp:             log.Timestamp,
			BlockNumber:           log.BlockNumber,
		}, campaignIDs, inc)
		if err != nil {
			return err
		}
		if !applied {
			logger.DebugCtx(ctx, "interaction already processed",
				zap.String("logID", log.LogID()),
				zap.String("type", string(kind)))
		}
		return nil
	}
}
