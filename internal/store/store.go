package store

import (
	"context"
	"math/big"
	"time"

	"github.com/engage-protocol/ep-indexer/internal/store/schema"
)

// ProductPatch is a partial update for a product row. Nil fields are left
// untouched. The block number doubles as a regression guard: a patch carrying
// an older block than the row's last_update_block is silently dropped.
type ProductPatch struct {
	Name         *string
	ProductTypes *int64
	MetadataURL  *string
	Timestamp    time.Time
	BlockNumber  uint64
}

// IsEmpty reports whether the patch carries no field changes
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.ProductTypes == nil && p.MetadataURL == nil
}

// InteractionContractPatch is a partial update for an interaction contract row
type InteractionContractPatch struct {
	RemovedTimestamp *time.Time
	Timestamp        time.Time
	BlockNumber      uint64
}

// CampaignPatch is a partial update for a campaign row
type CampaignPatch struct {
	Attached              *bool
	AttachTimestamp       *time.Time
	DetachTimestamp       *time.Time
	BankingContractID     *string
	IsAuthorisedOnBanking *bool
	BlockNumber           uint64
}

// IsEmpty reports whether the patch carries no field changes
func (p CampaignPatch) IsEmpty() bool {
	return p.Attached == nil && p.AttachTimestamp == nil && p.DetachTimestamp == nil &&
		p.BankingContractID == nil && p.IsAuthorisedOnBanking == nil
}

// BankingContractPatch is a partial update for a banking contract row
type BankingContractPatch struct {
	IsDistributing *bool
}

// IsEmpty reports whether the patch carries no field changes
func (p BankingContractPatch) IsEmpty() bool {
	return p.IsDistributing == nil
}

// UpsertAdministratorInput describes an insert-or-merge on a
// (product, user) administrator row. Nil fields keep the current value on
// merge and fall back to zero values on first insert.
type UpsertAdministratorInput struct {
	ProductID   string
	UserAddress string
	IsOwner     *bool
	Roles       *int64
	Timestamp   time.Time
}

// StatsIncrement is a partial map of referral-campaign counter increments.
// Zero fields leave the corresponding counter unchanged; TotalInteractions is
// always incremented by one per applied interaction.
type StatsIncrement struct {
	OpenInteractions               uint64
	ReadInteractions               uint64
	ReferredInteractions           uint64
	CreateReferredLinkInteractions uint64
	PurchaseStartedInteractions    uint64
	PurchaseCompletedInteractions  uint64
	WebshopOpenedInteractions      uint64
}

// RewardAdditionInput carries everything needed to materialize one
// RewardAdded log: the audit row, the bank counter, the (bank, user) reward
// merge, and the emitting campaign's totalRewards merge.
type RewardAdditionInput struct {
	LogID          string
	BankAddress    string
	UserAddress    string
	EmitterAddress string
	Amount         *big.Int
	Timestamp      time.Time
	BlockNumber    uint64
}

// RewardClaimInput carries everything needed to materialize one RewardClaimed log
type RewardClaimInput struct {
	LogID       string
	BankAddress string
	UserAddress string
	Amount      *big.Int
	Timestamp   time.Time
	BlockNumber uint64
}

// Store defines the interface for database operations. Every write is an
// upsert-or-patch keyed by a stable row identity so at-least-once delivery of
// the same event converges; the monetary operations are additionally gated by
// their audit-row insert and run in a single transaction. Get methods return
// (nil, nil) when the row does not exist.
type Store interface {
	// GetProductByID retrieves a product by its on-chain id
	GetProductByID(ctx context.Context, id string) (*schema.Product, error)
	// InsertProduct creates a product row, ignoring a duplicate mint
	InsertProduct(ctx context.Context, p *schema.Product) error
	// UpdateProduct applies a partial patch, guarded against block regression
	UpdateProduct(ctx context.Context, id string, patch ProductPatch) error

	// UpsertProductAdministrator inserts or merges a (product, user) role row
	UpsertProductAdministrator(ctx context.Context, in UpsertAdministratorInput) error
	// GetProductAdministrator retrieves one administrator row
	GetProductAdministrator(ctx context.Context, productID, userAddress string) (*schema.ProductAdministrator, error)
	// ListProductAdministrators retrieves all administrator rows for a product
	ListProductAdministrators(ctx context.Context, productID string) ([]*schema.ProductAdministrator, error)
	// PruneInertAdministrators deletes up to limit rows with isOwner=false and
	// roles=0. Only invoked by the optional maintenance pass.
	PruneInertAdministrators(ctx context.Context, limit int) (int64, error)

	// GetInteractionContract retrieves an interaction contract by address
	GetInteractionContract(ctx context.Context, address string) (*schema.InteractionContract, error)
	// InsertInteractionContract creates an interaction contract row
	InsertInteractionContract(ctx context.Context, c *schema.InteractionContract) error
	// UpdateInteractionContract applies a partial patch, guarded against block regression
	UpdateInteractionContract(ctx context.Context, address string, patch InteractionContractPatch) error

	// GetCampaign retrieves a campaign by address
	GetCampaign(ctx context.Context, address string) (*schema.Campaign, error)
	// InsertCampaign creates a campaign row, ignoring a duplicate insert
	InsertCampaign(ctx context.Context, c *schema.Campaign) error
	// UpdateCampaign applies a partial patch, guarded against block regression
	UpdateCampaign(ctx context.Context, address string, patch CampaignPatch) error
	// ListAttachedCampaignsByType retrieves attached campaigns of the given
	// type for a product (the rollup candidate set)
	ListAttachedCampaignsByType(ctx context.Context, productID string, campaignType string) ([]*schema.Campaign, error)

	// EnsureReferralCampaignStats inserts an all-zero stats row if absent
	EnsureReferralCampaignStats(ctx context.Context, campaignID string) error
	// GetReferralCampaignStats retrieves the stats row for a campaign
	GetReferralCampaignStats(ctx context.Context, campaignID string) (*schema.ReferralCampaignStats, error)

	// InsertCampaignCapReset appends a cap reset row, ignoring duplicates
	InsertCampaignCapReset(ctx context.Context, r *schema.CampaignCapReset) error
	// ListCampaignCapResets retrieves cap resets for a campaign, oldest first
	ListCampaignCapResets(ctx context.Context, campaignID string) ([]*schema.CampaignCapReset, error)

	// GetBankingContract retrieves a banking contract by address
	GetBankingContract(ctx context.Context, address string) (*schema.BankingContract, error)
	// InsertBankingContract creates a banking contract row, ignoring a duplicate insert
	InsertBankingContract(ctx context.Context, b *schema.BankingContract) error
	// UpdateBankingContract applies a partial patch
	UpdateBankingContract(ctx context.Context, address string, patch BankingContractPatch) error
	// EnsureToken inserts a token metadata row if absent
	EnsureToken(ctx context.Context, t *schema.Token) error
	// GetToken retrieves a token by address
	GetToken(ctx context.Context, address string) (*schema.Token, error)

	// ApplyRewardAddition materializes one RewardAdded log in a single
	// transaction. Returns false when the log was already processed.
	ApplyRewardAddition(ctx context.Context, in RewardAdditionInput) (bool, error)
	// ApplyRewardClaim materializes one RewardClaimed log in a single
	// transaction. Returns false when the log was already processed.
	ApplyRewardClaim(ctx context.Context, in RewardClaimInput) (bool, error)
	// GetReward retrieves the (bank, user) reward row
	GetReward(ctx context.Context, bankAddress, userAddress string) (*schema.Reward, error)
	// ListRewardsByUser retrieves all reward rows for a user
	ListRewardsByUser(ctx context.Context, userAddress string) ([]*schema.Reward, error)

	// ApplyInteraction appends the activity row and applies one interaction
	// plus the supplied partial increments to every listed campaign, all in a
	// single transaction gated by the activity insert. Returns false when the
	// log was already processed, in which case no increment is applied.
	ApplyInteraction(ctx context.Context, e *schema.InteractionEvent, campaignIDs []string, inc StatsIncrement) (bool, error)
	// ListInteractionEventsByUser retrieves activity rows for a user, newest first
	ListInteractionEventsByUser(ctx context.Context, userAddress string, limit int) ([]*schema.InteractionEvent, error)
}
