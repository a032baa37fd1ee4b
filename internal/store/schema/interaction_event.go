package schema

import (
	"time"

	"gorm.io/datatypes"
)

// InteractionEvent represents the interaction_events table - an append-only
// per-user activity log, keyed by the source log id. The insert doubles as
// the redelivery guard for the stats rollup derived from the event.
type InteractionEvent struct {
	// ID is the globally unique source log id (chain:block:tx:logIndex)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// InteractionContractID references the emitting interaction contract
	InteractionContractID string `gorm:"column:interaction_contract_id;not null;type:text;index:idx_interaction_events_contract"`
	// UserAddress is the interacting user's wallet address
	UserAddress string `gorm:"column:user_address;not null;type:text;index:idx_interaction_events_user"`
	// Type is the categorical interaction tag
	Type string `gorm:"column:type;not null;type:text;index:idx_interaction_events_type"`
	// Data is the type-specific payload carried by the event
	Data datatypes.JSON `gorm:"column:data;type:jsonb"`
	// Timestamp is the block timestamp of the event
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz"`
	// BlockNumber is the block of the event
	BlockNumber uint64 `gorm:"column:block_number;not null"`
}

// TableName specifies the table name for the InteractionEvent model
func (InteractionEvent) TableName() string {
	return "interaction_events"
}
