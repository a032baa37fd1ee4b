package ingest

import (
	"context"

	"github.com/engage-protocol/ep-indexer/internal/domain"
	"github.com/engage-protocol/ep-indexer/internal/store"
)

type productTransferArgs struct {
	From string `json:"from"`
	To   string `json:"to"`
	ID   string `json:"id"` // product id
}

type productRolesUpdatedArgs struct {
	ProductID string `json:"productId"`
	User      string `json:"user"`
	Roles     int64  `json:"roles"`
}

func boolPtr(v bool) *bool { return &v }

// handleProductTransfer tracks NFT ownership on the administrator table.
// The from side is demoted (roles preserved), the to side promoted; the zero
// address marks mint and burn respectively and is skipped. Rows are never
// physically deleted here.
func (e *Engine) handleProductTransfer(ctx context.Context, log *domain.ChainLog) error {
	args, err := decodeArgs[productTransferArgs](log)
	if err != nil {
		return err
	}

	if !domain.IsZeroAddress(args.From) {
		if err := e.store.UpsertProductAdministrator(ctx, store.UpsertAdministratorInput{
			ProductID:   args.ID,
			UserAddress: domain.NormalizeAddress(args.From),
			IsOwner:     boolPtr(false),
			Timestamp:   log.Timestamp,
		}); err != nil {
			return err
		}
	}

	if !domain.IsZeroAddress(args.To) {
		if err := e.store.UpsertProductAdministrator(ctx, store.UpsertAdministratorInput{
			ProductID:   args.ID,
			UserAddress: domain.NormalizeAddress(args.To),
			IsOwner:     boolPtr(true),
			Timestamp:   log.Timestamp,
		}); err != nil {
			return err
		}
	}

	return nil
}

// handleProductRolesUpdated merges the role bitmask into the administrator
// row, leaving the ownership flag untouched
func (e *Engine) handleProductRolesUpdated(ctx context.Context, log *domain.ChainLog) error {
	args, err := decodeArgs[productRolesUpdatedArgs](log)
	if err != nil {
		return err
	}

	return e.store.UpsertProductAdministrator(ctx, store.UpsertAdministratorInput{
		ProductID:   args.ProductID,
		UserAddress: domain.NormalizeAddress(args.User),
		Roles:       &args.Roles,
		Timestamp:   log.Timestamp,
	})
}
