package product

import "time"

// Product is the persisted inventory item. PriceCents keeps the price
// fixed-point; stock fields never go below zero.
type Product struct {
	ID                int64     `gorm:"primaryKey"`
	Name              string    `gorm:"column:name;size:100;not null"`
	SKU               string    `gorm:"column:sku;size:50;uniqueIndex;not null"`
	Description       string    `gorm:"column:description;type:text"`
	PriceCents        int64     `gorm:"column:price_cents;not null"`
	StockLevel        int64     `gorm:"column:stock_level;not null;default:0"`
	LowStockThreshold int64     `gorm:"column:low_stock_threshold;not null;default:10"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (Product) TableName() string {
	return "products"
}
