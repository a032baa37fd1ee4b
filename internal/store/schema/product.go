package schema

import (
	"time"
)

// Product represents the products table - the root entity minted on the
// product registry. The ID is the on-chain uint256 product id rendered as a
// decimal string.
type Product struct {
	// ID is the on-chain product id (decimal string, up to 78 digits)
	ID string `gorm:"column:id;primaryKey;type:numeric(78,0)"`
	// Domain is the product's registered domain name
	Domain string `gorm:"column:domain;not null;type:text;index:idx_products_domain"`
	// ProductTypes is the product-type bitmask from the registry
	ProductTypes int64 `gorm:"column:product_types;not null;default:0"`
	// Name is the decoded human-readable product name
	Name string `gorm:"column:name;not null;type:text"`
	// CreatedTimestamp is the block timestamp of the mint event
	CreatedTimestamp time.Time `gorm:"column:created_timestamp;not null;type:timestamptz"`
	// LastUpdateTimestamp is the block timestamp of the latest mutation
	LastUpdateTimestamp time.Time `gorm:"column:last_update_timestamp;not null;type:timestamptz"`
	// LastUpdateBlock is the block number of the latest mutation; handlers
	// must never regress this value
	LastUpdateBlock uint64 `gorm:"column:last_update_block;not null;default:0"`
	// MetadataURL is the optional external metadata URL (tokenURI)
	MetadataURL *string `gorm:"column:metadata_url;type:text"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}
