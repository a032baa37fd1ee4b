package schema

import (
	"time"
)

// RewardAddedEvent represents the reward_added_events table - an immutable
// audit row per RewardAdded log, keyed by the source log id. The insert also
// acts as the redelivery guard for the monetary merges derived from the event.
type RewardAddedEvent struct {
	// ID is the globally unique source log id (chain:block:tx:logIndex)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// BankingContractID references the bank that emitted the reward
	BankingContractID string `gorm:"column:banking_contract_id;not null;type:text;index:idx_reward_added_events_bank"`
	// UserAddress is the rewarded user
	UserAddress string `gorm:"column:user_address;not null;type:text;index:idx_reward_added_events_user"`
	// EmitterAddress is the campaign that triggered the reward
	EmitterAddress string `gorm:"column:emitter_address;not null;type:text"`
	// Amount is the rewarded amount
	Amount string `gorm:"column:amount;not null;type:numeric(78,0)"`
	// Timestamp is the block timestamp of the event
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz"`
	// BlockNumber is the block of the event
	BlockNumber uint64 `gorm:"column:block_number;not null"`
}

// TableName specifies the table name for the RewardAddedEvent model
func (RewardAddedEvent) TableName() string {
	return "reward_added_events"
}

// RewardClaimedEvent represents the reward_claimed_events table - the claim
// counterpart of RewardAddedEvent, also keyed by source log id.
type RewardClaimedEvent struct {
	// ID is the globally unique source log id (chain:block:tx:logIndex)
	ID string `gorm:"column:id;primaryKey;type:text"`
	// BankingContractID references the bank the claim was made against
	BankingContractID string `gorm:"column:banking_contract_id;not null;type:text;index:idx_reward_claimed_events_bank"`
	// UserAddress is the claiming user
	UserAddress string `gorm:"column:user_address;not null;type:text;index:idx_reward_claimed_events_user"`
	// Amount is the claimed amount
	Amount string `gorm:"column:amount;not null;type:numeric(78,0)"`
	// Timestamp is the block timestamp of the event
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz"`
	// BlockNumber is the block of the event
	BlockNumber uint64 `gorm:"column:block_number;not null"`
}

// TableName specifies the table name for the RewardClaimedEvent model
func (RewardClaimedEvent) TableName() string {
	return "reward_claimed_events"
}
