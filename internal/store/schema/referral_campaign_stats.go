package schema

// ReferralCampaignStats represents the referral_campaign_stats table - a 1:1
// aggregate for referral-type campaigns. All counters are monotonically
// non-decreasing; amounts are stored as decimal strings to keep the full
// 256-bit range.
type ReferralCampaignStats struct {
	// CampaignID references the owning campaign
	CampaignID string `gorm:"column:campaign_id;primaryKey;type:text"`
	// TotalInteractions counts every interaction attributed to the campaign
	TotalInteractions string `gorm:"column:total_interactions;not null;default:0;type:numeric(78,0)"`
	// OpenInteractions counts article-open interactions
	OpenInteractions string `gorm:"column:open_interactions;not null;default:0;type:numeric(78,0)"`
	// ReadInteractions counts article-read interactions
	ReadInteractions string `gorm:"column:read_interactions;not null;default:0;type:numeric(78,0)"`
	// ReferredInteractions counts user-referred interactions
	ReferredInteractions string `gorm:"column:referred_interactions;not null;default:0;type:numeric(78,0)"`
	// CreateReferredLinkInteractions counts referral-link creations
	CreateReferredLinkInteractions string `gorm:"column:create_referred_link_interactions;not null;default:0;type:numeric(78,0)"`
	// PurchaseStartedInteractions counts purchase-started interactions
	PurchaseStartedInteractions string `gorm:"column:purchase_started_interactions;not null;default:0;type:numeric(78,0)"`
	// PurchaseCompletedInteractions counts purchase-completed interactions
	PurchaseCompletedInteractions string `gorm:"column:purchase_completed_interactions;not null;default:0;type:numeric(78,0)"`
	// WebshopOpenedInteractions counts webshop-open interactions
	WebshopOpenedInteractions string `gorm:"column:webshop_opened_interactions;not null;default:0;type:numeric(78,0)"`
	// TotalRewards is the cumulative reward amount emitted by the campaign
	TotalRewards string `gorm:"column:total_rewards;not null;default:0;type:numeric(78,0)"`
}

// TableName specifies the table name for the ReferralCampaignStats model
func (ReferralCampaignStats) TableName() string {
	return "referral_campaign_stats"
}
