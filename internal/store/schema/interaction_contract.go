package schema

import (
	"time"
)

// InteractionContract represents the interaction_contracts table - one row
// per deployed interaction diamond, keyed by contract address. Deletion is a
// soft delete: RemovedTimestamp is set, the row stays.
type InteractionContract struct {
	// ID is the interaction contract address
	ID string `gorm:"column:id;primaryKey;type:text"`
	// ProductID references the owning product
	ProductID string `gorm:"column:product_id;not null;type:numeric(78,0);index:idx_interaction_contracts_product"`
	// ReferralTree is the referral-tree identifier read from the contract at
	// deployment block
	ReferralTree string `gorm:"column:referral_tree;not null;type:text"`
	// CreatedTimestamp is the block timestamp of the deployment event
	CreatedTimestamp time.Time `gorm:"column:created_timestamp;not null;type:timestamptz"`
	// LastUpdateTimestamp is the block timestamp of the latest mutation
	LastUpdateTimestamp time.Time `gorm:"column:last_update_timestamp;not null;type:timestamptz"`
	// RemovedTimestamp is set when the contract is deleted (soft delete)
	RemovedTimestamp *time.Time `gorm:"column:removed_timestamp;type:timestamptz"`
	// LastUpdateBlock is the block number of the latest mutation
	LastUpdateBlock uint64 `gorm:"column:last_update_block;not null;default:0"`
}

// TableName specifies the table name for the InteractionContract model
func (InteractionContract) TableName() string {
	return "interaction_contracts"
}
