package schema

// BankingContract represents the banking_contracts table, keyed by bank
// contract address. Created lazily on the first relevant event (factory
// creation or first reward event) and backfilled via multicall.
type BankingContract struct {
	// ID is the bank contract address
	ID string `gorm:"column:id;primaryKey;type:text"`
	// TokenID references the ERC-20 token distributed by this bank
	TokenID string `gorm:"column:token_id;not null;type:text;index:idx_banking_contracts_token"`
	// ProductID references the owning product
	ProductID string `gorm:"column:product_id;not null;type:numeric(78,0);index:idx_banking_contracts_product"`
	// TotalDistributed is the cumulative amount added as rewards
	TotalDistributed string `gorm:"column:total_distributed;not null;default:0;type:numeric(78,0)"`
	// TotalClaimed is the cumulative amount claimed by users
	TotalClaimed string `gorm:"column:total_claimed;not null;default:0;type:numeric(78,0)"`
	// IsDistributing is true while the bank allows distribution
	IsDistributing bool `gorm:"column:is_distributing;not null;default:false"`
}

// TableName specifies the table name for the BankingContract model
func (BankingContract) TableName() string {
	return "banking_contracts"
}
