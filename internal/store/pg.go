package store

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/engage-protocol/ep-indexer/internal/logger"
	"github.com/engage-protocol/ep-indexer/internal/store/schema"
)

// errNegativePendingBalance flags a reward conservation violation that only an
// out-of-order redelivery can produce. The row is still written so the
// violation stays observable.
var errNegativePendingBalance = errors.New("pending reward balance went negative")

// PGStore implements Store backed by PostgreSQL through GORM
type PGStore struct {
	db *gorm.DB
}

// NewPGStore creates a PostgreSQL-backed store
func NewPGStore(db *gorm.DB) *PGStore {
	return &PGStore{db: db}
}

// AutoMigrate migrates all managed tables
func (s *PGStore) AutoMigrate() error {
	return s.db.AutoMigrate(schema.AllModels()...)
}

func getOne[T any](ctx context.Context, db *gorm.DB, query string, args ...interface{}) (*T, error) {
	var row T
	if err := db.WithContext(ctx).Where(query, args...).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetProductByID retrieves a product by its on-chain id
func (s *PGStore) GetProductByID(ctx context.Context, id string) (*schema.Product, error) {
	return getOne[schema.Product](ctx, s.db, "id = ?", id)
}

// InsertProduct creates a product row, ignoring a duplicate mint
func (s *PGStore) InsertProduct(ctx context.Context, p *schema.Product) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(p).Error
}

// UpdateProduct applies a partial patch, guarded against block regression
func (s *PGStore) UpdateProduct(ctx context.Context, id string, patch ProductPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	updates := map[string]interface{}{
		"last_update_timestamp": patch.Timestamp,
		"last_update_block":     patch.BlockNumber,
	}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.ProductTypes != nil {
		updates["product_types"] = *patch.ProductTypes
	}
	if patch.MetadataURL != nil {
		updates["metadata_url"] = *patch.MetadataURL
	}

	return s.db.WithContext(ctx).
		Model(&schema.Product{}).
		Where("id = ? AND last_update_block <= ?", id, patch.BlockNumber).
		Updates(updates).Error
}

// UpsertProductAdministrator inserts or merges a (product, user) role row
func (s *PGStore) UpsertProductAdministrator(ctx context.Context, in UpsertAdministratorInput) error {
	row := schema.ProductAdministrator{
		ProductID:        in.ProductID,
		UserAddress:      in.UserAddress,
		CreatedTimestamp: in.Timestamp,
	}

	assignments := map[string]interface{}{}
	if in.IsOwner != nil {
		row.IsOwner = *in.IsOwner
		assignments["is_owner"] = *in.IsOwner
	}
	if in.Roles != nil {
		row.Roles = *in.Roles
		assignments["roles"] = *in.Roles
	}

	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "user_address"}},
		DoNothing: len(assignments) == 0,
	}
	if len(assignments) > 0 {
		onConflict.DoUpdates = clause.Assignments(assignments)
	}

	return s.db.WithContext(ctx).Clauses(onConflict).Create(&row).Error
}

// GetProductAdministrator retrieves one administrator row
func (s *PGStore) GetProductAdministrator(ctx context.Context, productID, userAddress string) (*schema.ProductAdministrator, error) {
	return getOne[schema.ProductAdministrator](ctx, s.db, "product_id = ? AND user_address = ?", productID, userAddress)
}

// ListProductAdministrators retrieves all administrator rows for a product
func (s *PGStore) ListProductAdministrators(ctx context.Context, productID string) ([]*schema.ProductAdministrator, error) {
	var rows []*schema.ProductAdministrator
	if err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_timestamp ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// PruneInertAdministrators deletes up to limit rows holding neither ownership
// nor roles
func (s *PGStore) PruneInertAdministrators(ctx context.Context, limit int) (int64, error) {
	result := s.db.WithContext(ctx).Exec(
		`DELETE FROM product_administrators WHERE id IN (
			SELECT id FROM product_administrators
			WHERE is_owner = false AND roles = 0
			LIMIT ?)`,
		limit,
	)
	return result.RowsAffected, result.Error
}

// GetInteractionContract retrieves an interaction contract by address
func (s *PGStore) GetInteractionContract(ctx context.Context, address string) (*schema.InteractionContract, error) {
	return getOne[schema.InteractionContract](ctx, s.db, "id = ?", address)
}

// InsertInteractionContract creates an interaction contract row
func (s *PGStore) InsertInteractionContract(ctx context.Context, c *schema.InteractionContract) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(c).Error
}

// UpdateInteractionContract applies a partial patch, guarded against block regression
func (s *PGStore) UpdateInteractionContract(ctx context.Context, address string, patch InteractionContractPatch) error {
	updates := map[string]interface{}{
		"last_update_timestamp": patch.Timestamp,
		"last_update_block":     patch.BlockNumber,
	}
	if patch.RemovedTimestamp != nil {
		updates["removed_timestamp"] = *patch.RemovedTimestamp
	}

	return s.db.WithContext(ctx).
		Model(&schema.InteractionContract{}).
		Where("id = ? AND last_update_block <= ?", address, patch.BlockNumber).
		Updates(updates).Error
}

// GetCampaign retrieves a campaign by address
func (s *PGStore) GetCampaign(ctx context.Context, address string) (*schema.Campaign, error) {
	return getOne[schema.Campaign](ctx, s.db, "id = ?", address)
}

// InsertCampaign creates a campaign row, ignoring a duplicate insert
func (s *PGStore) InsertCampaign(ctx context.Context, c *schema.Campaign) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(c).Error
}

// UpdateCampaign applies a partial patch, guarded against block regression
func (s *PGStore) UpdateCampaign(ctx context.Context, address string, patch CampaignPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	updates := map[string]interface{}{
		"last_update_block": patch.BlockNumber,
	}
	if patch.Attached != nil {
		updates["attached"] = *patch.Attached
	}
	if patch.AttachTimestamp != nil {
		updates["attach_timestamp"] = *patch.AttachTimestamp
	}
	if patch.DetachTimestamp != nil {
		updates["detach_timestamp"] = *patch.DetachTimestamp
	}
	if patch.BankingContractID != nil {
		updates["banking_contract_id"] = *patch.BankingContractID
	}
	if patch.IsAuthorisedOnBanking != nil {
		updates["is_authorised_on_banking"] = *patch.IsAuthorisedOnBanking
	}

	return s.db.WithContext(ctx).
		Model(&schema.Campaign{}).
		Where("id = ? AND last_update_block <= ?", address, patch.BlockNumber).
		Updates(updates).Error
}

// ListAttachedCampaignsByType retrieves attached campaigns of the given type
// for a product
func (s *PGStore) ListAttachedCampaignsByType(ctx context.Context, productID string, campaignType string) ([]*schema.Campaign, error) {
	var rows []*schema.Campaign
	if err := s.db.WithContext(ctx).
		Where("product_id = ? AND type = ? AND attached = true", productID, campaignType).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// EnsureReferralCampaignStats inserts an all-zero stats row if absent
func (s *PGStore) EnsureReferralCampaignStats(ctx context.Context, campaignID string) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "campaign_id"}},
			DoNothing: true,
		}).
		Create(zeroStats(campaignID)).Error
}

// GetReferralCampaignStats retrieves the stats row for a campaign
func (s *PGStore) GetReferralCampaignStats(ctx context.Context, campaignID string) (*schema.ReferralCampaignStats, error) {
	return getOne[schema.ReferralCampaignStats](ctx, s.db, "campaign_id = ?", campaignID)
}

func incrementStatsTx(tx *gorm.DB, campaignIDs []string, inc StatsIncrement) error {
	for _, id := range campaignIDs {
		row := zeroStats(id)
		row.TotalInteractions = "1"
		row.OpenInteractions = strconv.FormatUint(inc.OpenInteractions, 10)
		row.ReadInteractions = strconv.FormatUint(inc.ReadInteractions, 10)
		row.ReferredInteractions = strconv.FormatUint(inc.ReferredInteractions, 10)
		row.CreateReferredLinkInteractions = strconv.FormatUint(inc.CreateReferredLinkInteractions, 10)
		row.PurchaseStartedInteractions = strconv.FormatUint(inc.PurchaseStartedInteractions, 10)
		row.PurchaseCompletedInteractions = strconv.FormatUint(inc.PurchaseCompletedInteractions, 10)
		row.WebshopOpenedInteractions = strconv.FormatUint(inc.WebshopOpenedInteractions, 10)

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "campaign_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_interactions":                gorm.Expr("referral_campaign_stats.total_interactions + 1"),
				"open_interactions":                 gorm.Expr("referral_campaign_stats.open_interactions + EXCLUDED.open_interactions"),
				"read_interactions":                 gorm.Expr("referral_campaign_stats.read_interactions + EXCLUDED.read_interactions"),
				"referred_interactions":             gorm.Expr("referral_campaign_stats.referred_interactions + EXCLUDED.referred_interactions"),
				"create_referred_link_interactions": gorm.Expr("referral_campaign_stats.create_referred_link_interactions + EXCLUDED.create_referred_link_interactions"),
				"purchase_started_interactions":     gorm.Expr("referral_campaign_stats.purchase_started_interactions + EXCLUDED.purchase_started_interactions"),
				"purchase_completed_interactions":   gorm.Expr("referral_campaign_stats.purchase_completed_interactions + EXCLUDED.purchase_completed_interactions"),
				"webshop_opened_interactions":       gorm.Expr("referral_campaign_stats.webshop_opened_interactions + EXCLUDED.webshop_opened_interactions"),
			}),
		}).Create(row).Error; err != nil {
			return err
		}
	}
	return nil
}

// InsertCampaignCapReset appends a cap reset row, ignoring duplicates
func (s *PGStore) InsertCampaignCapReset(ctx context.Context, r *schema.CampaignCapReset) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "previous_timestamp"}},
			DoNothing: true,
		}).
		Create(r).Error
}

// ListCampaignCapResets retrieves cap resets for a campaign, oldest first
func (s *PGStore) ListCampaignCapResets(ctx context.Context, campaignID string) ([]*schema.CampaignCapReset, error) {
	var rows []*schema.CampaignCapReset
	if err := s.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("previous_timestamp ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetBankingContract retrieves a banking contract by address
func (s *PGStore) GetBankingContract(ctx context.Context, address string) (*schema.BankingContract, error) {
	return getOne[schema.BankingContract](ctx, s.db, "id = ?", address)
}

// InsertBankingContract creates a banking contract row, ignoring a duplicate insert
func (s *PGStore) InsertBankingContract(ctx context.Context, b *schema.BankingContract) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(b).Error
}

// UpdateBankingContract applies a partial patch
func (s *PGStore) UpdateBankingContract(ctx context.Context, address string, patch BankingContractPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	updates := map[string]interface{}{}
	if patch.IsDistributing != nil {
		updates["is_distributing"] = *patch.IsDistributing
	}

	return s.db.WithContext(ctx).
		Model(&schema.BankingContract{}).
		Where("id = ?", address).
		Updates(updates).Error
}

// EnsureToken inserts a token metadata row if absent
func (s *PGStore) EnsureToken(ctx context.Context, t *schema.Token) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(t).Error
}

// GetToken retrieves a token by address
func (s *PGStore) GetToken(ctx context.Context, address string) (*schema.Token, error) {
	return getOne[schema.Token](ctx, s.db, "id = ?", address)
}

// ApplyRewardAddition materializes one RewardAdded log in a single
// transaction: audit row, bank totalDistributed, the (bank, user) reward
// merge and the emitting campaign's totalRewards. The audit insert gates the
// merges so a redelivered log changes nothing.
func (s *PGStore) ApplyRewardAddition(ctx context.Context, in RewardAdditionInput) (bool, error) {
	applied := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		audit := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(&schema.RewardAddedEvent{
			ID:                in.LogID,
			BankingContractID: in.BankAddress,
			UserAddress:       in.UserAddress,
			EmitterAddress:    in.EmitterAddress,
			Amount:            in.Amount.String(),
			Timestamp:         in.Timestamp,
			BlockNumber:       in.BlockNumber,
		})
		if audit.Error != nil {
			return audit.Error
		}
		if audit.RowsAffected == 0 {
			return nil
		}
		applied = true

		if err := tx.Model(&schema.BankingContract{}).
			Where("id = ?", in.BankAddress).
			UpdateColumn("total_distributed",
				gorm.Expr("total_distributed + CAST(? AS numeric)", in.Amount.String())).Error; err != nil {
			return err
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "banking_contract_id"}, {Name: "user_address"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"pending_amount": gorm.Expr("rewards.pending_amount + EXCLUDED.pending_amount"),
				"total_received": gorm.Expr("rewards.total_received + EXCLUDED.total_received"),
			}),
		}).Create(&schema.Reward{
			BankingContractID: in.BankAddress,
			UserAddress:       in.UserAddress,
			PendingAmount:     in.Amount.String(),
			TotalReceived:     in.Amount.String(),
			TotalClaimed:      "0",
		}).Error; err != nil {
			return err
		}

		// the emitter is the campaign contract that triggered the reward
		stats := zeroStats(in.EmitterAddress)
		stats.TotalRewards = in.Amount.String()
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "campaign_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_rewards": gorm.Expr("referral_campaign_stats.total_rewards + EXCLUDED.total_rewards"),
			}),
		}).Create(stats).Error
	})

	return applied, err
}

// ApplyRewardClaim materializes one RewardClaimed log in a single
// transaction, gated by the audit insert like ApplyRewardAddition
func (s *PGStore) ApplyRewardClaim(ctx context.Context, in RewardClaimInput) (bool, error) {
	applied := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		audit := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(&schema.RewardClaimedEvent{
			ID:                in.LogID,
			BankingContractID: in.BankAddress,
			UserAddress:       in.UserAddress,
			Amount:            in.Amount.String(),
			Timestamp:         in.Timestamp,
			BlockNumber:       in.BlockNumber,
		})
		if audit.Error != nil {
			return audit.Error
		}
		if audit.RowsAffected == 0 {
			return nil
		}
		applied = true

		if err := tx.Model(&schema.BankingContract{}).
			Where("id = ?", in.BankAddress).
			UpdateColumn("total_claimed",
				gorm.Expr("total_claimed + CAST(? AS numeric)", in.Amount.String())).Error; err != nil {
			return err
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "banking_contract_id"}, {Name: "user_address"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"pending_amount": gorm.Expr("rewards.pending_amount - EXCLUDED.total_claimed"),
				"total_claimed":  gorm.Expr("rewards.total_claimed + EXCLUDED.total_claimed"),
			}),
		}).Create(&schema.Reward{
			BankingContractID: in.BankAddress,
			UserAddress:       in.UserAddress,
			PendingAmount:     "0",
			TotalReceived:     "0",
			TotalClaimed:      in.Amount.String(),
		}).Error; err != nil {
			return err
		}

		var reward schema.Reward
		if err := tx.
			Where("banking_contract_id = ? AND user_address = ?", in.BankAddress, in.UserAddress).
			First(&reward).Error; err != nil {
			return err
		}
		if strings.HasPrefix(reward.PendingAmount, "-") {
			logger.ErrorCtx(ctx, errNegativePendingBalance,
				zap.String("logID", in.LogID),
				zap.String("bank", in.BankAddress),
				zap.String("user", in.UserAddress),
				zap.String("pendingAmount", reward.PendingAmount))
		}
		return nil
	})

	return applied, err
}

// GetReward retrieves the (bank, user) reward row
func (s *PGStore) GetReward(ctx context.Context, bankAddress, userAddress string) (*schema.Reward, error) {
	return getOne[schema.Reward](ctx, s.db, "banking_contract_id = ? AND user_address = ?", bankAddress, userAddress)
}

// ListRewardsByUser retrieves all reward rows for a user
func (s *PGStore) ListRewardsByUser(ctx context.Context, userAddress string) ([]*schema.Reward, error) {
	var rows []*schema.Reward
	if err := s.db.WithContext(ctx).
		Where("user_address = ?", userAddress).
		Order("banking_contract_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ApplyInteraction appends the activity row and applies the stats increments
// in a single transaction gated by the activity insert
func (s *PGStore) ApplyInteraction(ctx context.Context, e *schema.InteractionEvent, campaignIDs []string, inc StatsIncrement) (bool, error) {
	applied := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(e)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		applied = true
		return incrementStatsTx(tx, campaignIDs, inc)
	})

	return applied, err
}

// ListInteractionEventsByUser retrieves activity rows for a user, newest first
func (s *PGStore) ListInteractionEventsByUser(ctx context.Context, userAddress string, limit int) ([]*schema.InteractionEvent, error) {
	var rows []*schema.InteractionEvent
	if err := s.db.WithContext(ctx).
		Where("user_address = ?", userAddress).
		Order("block_number DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func zeroStats(campaignID string) *schema.ReferralCampaignStats {
	return &schema.ReferralCampaignStats{
		CampaignID:                     campaignID,
		TotalInteractions:              "0",
		OpenInteractions:               "0",
		ReadInteractions:               "0",
		ReferredInteractions:           "0",
		CreateReferredLinkInteractions: "0",
		PurchaseStartedInteractions:    "0",
		PurchaseCompletedInteractions:  "0",
		WebshopOpenedInteractions:      "0",
		TotalRewards:                   "0",
	}
}
