package schema

import (
	"time"
)

// CampaignCapReset represents the campaign_cap_resets table - an append-only
// log of distribution cap window rollovers, keyed by (campaign, previous
// window timestamp) so redelivery of the same event is a no-op.
type CampaignCapReset struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// CampaignID references the campaign whose cap window rolled over
	CampaignID string `gorm:"column:campaign_id;not null;type:text;uniqueIndex:idx_campaign_cap_resets_campaign_prev,priority:1"`
	// PreviousTimestamp is the start of the window being closed
	PreviousTimestamp time.Time `gorm:"column:previous_timestamp;not null;type:timestamptz;uniqueIndex:idx_campaign_cap_resets_campaign_prev,priority:2"`
	// DistributedAmount is the amount distributed during the closed window
	DistributedAmount string `gorm:"column:distributed_amount;not null;default:0;type:numeric(78,0)"`
	// Timestamp is the block timestamp of the reset event
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz"`
	// BlockNumber is the block of the reset event
	BlockNumber uint64 `gorm:"column:block_number;not null"`
}

// TableName specifies the table name for the CampaignCapReset model
func (CampaignCapReset) TableName() string {
	return "campaign_cap_resets"
}
