package schema

// Reward represents the rewards table - per (bank, user) reward balance.
// TotalReceived and TotalClaimed are monotonic; PendingAmount moves both ways
// and must always equal TotalReceived - TotalClaimed.
type Reward struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// BankingContractID references the bank holding the reward
	BankingContractID string `gorm:"column:banking_contract_id;not null;type:text;uniqueIndex:idx_rewards_bank_user,priority:1"`
	// UserAddress is the rewarded user's wallet address
	UserAddress string `gorm:"column:user_address;not null;type:text;uniqueIndex:idx_rewards_bank_user,priority:2;index:idx_rewards_user"`
	// PendingAmount is the claimable balance
	PendingAmount string `gorm:"column:pending_amount;not null;default:0;type:numeric(78,0)"`
	// TotalReceived is the cumulative rewarded amount
	TotalReceived string `gorm:"column:total_received;not null;default:0;type:numeric(78,0)"`
	// TotalClaimed is the cumulative claimed amount
	TotalClaimed string `gorm:"column:total_claimed;not null;default:0;type:numeric(78,0)"`
}

// TableName specifies the table name for the Reward model
func (Reward) TableName() string {
	return "rewards"
}
