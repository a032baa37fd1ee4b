package schema

// Token represents the tokens table - ERC-20 metadata for bank tokens,
// backfilled once via on-chain reads. A failed backfill simply leaves the row
// absent; it is retried the next time a bank referencing the token is created.
type Token struct {
	// ID is the token contract address
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Name is the ERC-20 name
	Name string `gorm:"column:name;not null;type:text"`
	// Symbol is the ERC-20 symbol
	Symbol string `gorm:"column:symbol;not null;type:text"`
	// Decimals is the ERC-20 decimals value
	Decimals uint8 `gorm:"column:decimals;not null;default:18"`
}

// TableName specifies the table name for the Token model
func (Token) TableName() string {
	return "tokens"
}
