package schema

import (
	"time"
)

// ProductAdministrator represents the product_administrators table - one row
// per (product, user) pair holding ownership and role state. Rows are merged
// in place on transfer and role-grant events and are never physically
// deleted by the handlers (an optional maintenance pass may prune inert rows).
type ProductAdministrator struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ProductID references the owning product
	ProductID string `gorm:"column:product_id;not null;type:numeric(78,0);uniqueIndex:idx_product_administrators_product_user,priority:1"`
	// UserAddress is the administrator's wallet address
	UserAddress string `gorm:"column:user_address;not null;type:text;uniqueIndex:idx_product_administrators_product_user,priority:2;index:idx_product_administrators_user"`
	// IsOwner is true while the user holds the product NFT
	IsOwner bool `gorm:"column:is_owner;not null;default:false"`
	// Roles is the role bitmask granted on the administrator registry
	Roles int64 `gorm:"column:roles;not null;default:0"`
	// CreatedTimestamp is the block timestamp of the first event for this pair
	CreatedTimestamp time.Time `gorm:"column:created_timestamp;not null;type:timestamptz"`
}

// TableName specifies the table name for the ProductAdministrator model
func (ProductAdministrator) TableName() string {
	return "product_administrators"
}
