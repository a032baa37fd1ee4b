package schema

import (
	"time"
)

// Campaign represents the campaigns table, keyed by campaign contract
// address. Rows are created lazily by whichever of the factory-creation or
// first attach event is observed first; metadata is backfilled with a single
// point-in-time multicall on insert.
type Campaign struct {
	// ID is the campaign contract address
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Type is the campaign type tag reported by getMetadata()
	Type string `gorm:"column:type;not null;type:text;index:idx_campaigns_type"`
	// Name is the campaign name decoded from the packed bytes32
	Name string `gorm:"column:name;not null;type:text"`
	// Version is the campaign implementation version
	Version string `gorm:"column:version;not null;type:text"`
	// ProductID references the owning product
	ProductID string `gorm:"column:product_id;not null;type:numeric(78,0);index:idx_campaigns_product"`
	// InteractionContractID references the linked interaction contract
	InteractionContractID string `gorm:"column:interaction_contract_id;not null;type:text;index:idx_campaigns_interaction"`
	// Attached is true while the campaign is linked to its interaction contract
	Attached bool `gorm:"column:attached;not null;default:false"`
	// AttachTimestamp is the block timestamp of the latest attach event
	AttachTimestamp *time.Time `gorm:"column:attach_timestamp;type:timestamptz"`
	// DetachTimestamp is the block timestamp of the latest detach event
	DetachTimestamp *time.Time `gorm:"column:detach_timestamp;type:timestamptz"`
	// BankingContractID references the campaign bank funding this campaign
	BankingContractID *string `gorm:"column:banking_contract_id;type:text"`
	// IsAuthorisedOnBanking is true while the bank allows this campaign to distribute
	IsAuthorisedOnBanking bool `gorm:"column:is_authorised_on_banking;not null;default:false"`
	// LastUpdateBlock is the block number of the latest mutation
	LastUpdateBlock uint64 `gorm:"column:last_update_block;not null;default:0"`
}

// TableName specifies the table name for the Campaign model
func (Campaign) TableName() string {
	return "campaigns"
}
