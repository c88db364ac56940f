package product

type CreateProductDTO struct {
	Name              string `json:"name"`
	SKU               string `json:"sku"`
	Description       string `json:"description"`
	PriceCents        int64  `json:"price_cents"`
	StockLevel        int64  `json:"stock_level"`
	LowStockThreshold *int64 `json:"low_stock_threshold"`
}

// UpdateProductDTO carries a partial update: nil fields are left unchanged.
type UpdateProductDTO struct {
	Name              *string `json:"name"`
	SKU               *string `json:"sku"`
	Description       *string `json:"description"`
	PriceCents        *int64  `json:"price_cents"`
	StockLevel        *int64  `json:"stock_level"`
	LowStockThreshold *int64  `json:"low_stock_threshold"`
}

// AdjustStockDTO is a signed delta; negative values remove stock.
type AdjustStockDTO struct {
	Delta int64 `json:"delta"`
}

// InventoryValueReport is the value report payload.
type InventoryValueReport struct {
	TotalValueCents int64 `json:"total_value_cents"`
	ProductCount    int64 `json:"product_count"`
	TotalUnits      int64 `json:"total_units"`
}
