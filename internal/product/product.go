package product

import (
	"time"

	productDatamodel "github.com/stocklane/inventory-management/internal/core/datamodel/product"
)

// DefaultLowStockThreshold applies when a product is created without an
// explicit threshold.
const DefaultLowStockThreshold = 10

type Product struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	SKU               string    `json:"sku"`
	Description       string    `json:"description,omitempty"`
	PriceCents        int64     `json:"price_cents"`
	StockLevel        int64     `json:"stock_level"`
	LowStockThreshold int64     `json:"low_stock_threshold"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsLowStock reports whether the product is at or below its threshold.
func (p *Product) IsLowStock() bool {
	return p.StockLevel <= p.LowStockThreshold
}

// StockValueCents is the product's contribution to total inventory value.
func (p *Product) StockValueCents() int64 {
	return p.PriceCents * p.StockLevel
}

func ToDataModel(p *Product) *productDatamodel.Product {
	return &productDatamodel.Product{
		ID:                p.ID,
		Name:              p.Name,
		SKU:               p.SKU,
		Description:       p.Description,
		PriceCents:        p.PriceCents,
		StockLevel:        p.StockLevel,
		LowStockThreshold: p.LowStockThreshold,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func FromDataModel(p *productDatamodel.Product) *Product {
	return &Product{
		ID:                p.ID,
		Name:              p.Name,
		SKU:               p.SKU,
		Description:       p.Description,
		PriceCents:        p.PriceCents,
		StockLevel:        p.StockLevel,
		LowStockThreshold: p.LowStockThreshold,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
