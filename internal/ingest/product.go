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

type productMintedArgs struct {
	ProductID    string `json:"productId"`
	Domain       string `json:"domain"`
	ProductTypes int64  `json:"productTypes"`
	Name         string `json:"name"` // packed bytes32, hex encoded
}

type productUpdatedArgs struct {
	ProductID         string `json:"productId"`
	ProductTypes      int64  `json:"productTypes"`
	Name              string `json:"name"` // packed bytes32, hex encoded
	CustomMetadataURL string `json:"customMetadataUrl"`
}

// handleProductMinted inserts the product row for a registry mint. The
// registry guarantees one mint per product id, so the primary key is the only
// idempotence guard needed. The tokenURI read is an optional backfill; its
// failure leaves the metadata URL unset.
func (e *Engine) handleProductMinted(ctx context.Context, log *domain.ChainLog) error {
	args, err := decodeArgs[productMintedArgs](log)
	if err != nil {
		return err
	}

	productID, err := namecodec.ParseAmount(args.ProductID)
	if err != nil {
		return fmt.Errorf("parsing product id for %s: %w", log.LogID(), err)
	}
	name, err := namecodec.DecodeHexName(args.Name)
	if err != nil {
		return fmt.Errorf("decoding product name for %s: %w", log.LogID(), err)
	}

	var metadataURL *string
	uri, err := e.reader.ProductMetadataURI(ctx, log.Address, productID, log.BlockNumber)
	if err != nil {
		logger.WarnCtx(ctx, "tokenURI read failed, leaving metadata URL unset",
			zap.String("productID", args.ProductID),
			zap.String("logID", log.LogID()),
			zap.Error(err))
	} else if uri != "" {
		metadataURL = &uri
	}

	return e.store.InsertProduct(ctx, &schema.Product{
		ID:                  namecodec.AmountString(productID),
		Domain:              args.Domain,
		ProductTypes:        args.ProductTypes,
		Name:                name,
		CreatedTimestamp:    log.Timestamp,
		LastUpdateTimestamp: log.Timestamp,
		LastUpdateBlock:     log.BlockNumber,
		MetadataURL:         metadataURL,
	})
}

// handleProductUpdated partial-patches the product row. The metadata URL only
// overwrites when the incoming value is non-empty so an update without a
// custom URL never regresses the stored one.
func (e *Engine) handleProductUpdated(ctx context.Context, log *domain.ChainLog) error {
	args, err := decodeArgs[productUpdatedArgs](log)
	if err != nil {
		return err
	}

	name, err := namecodec.DecodeHexName(args.Name)
	if err != nil {
		return fmt.Errorf("decoding product name for %s: %w", log.LogID(), err)
	}

	patch := store.ProductPatch{
		Name:         &name,
		ProductTypes: &args.ProductTypes,
		Timestamp:    log.Timestamp,
		BlockNumber:  log.BlockNumber,
	}
	if args.CustomMetadataURL != "" {
		patch.MetadataURL = &args.CustomMetadataURL
	}

	return e.store.UpdateProduct(ctx, args.ProductID, patch)
}
