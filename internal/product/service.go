package product

import (
	"errors"
	"log/slog"

	apperrors "github.com/stocklane/inventory-management/internal"
	"github.com/stocklane/inventory-management/internal/core/common/validation"
	productDatamodel "github.com/stocklane/inventory-management/internal/core/datamodel/product"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("product not found")

type Repository interface {
	GetAll() ([]*productDatamodel.Product, error)
	GetByID(id int64) (*productDatamodel.Product, error)
	SKUExists(sku string, excludeID int64) (bool, error)
	Create(p *productDatamodel.Product) error
	Update(p *productDatamodel.Product) error
	Delete(id int64) error
	LowStock() ([]*productDatamodel.Product, error)
}

// Service owns the product catalogue and stock bookkeeping.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) GetAllProducts() ([]*Product, error) {
	rows, err := s.repo.GetAll()
	if err != nil {
		s.logger.Error("failed to list products", "error", err)
		return nil, apperrors.NewInternalError("could not list products", err)
	}
	products := make([]*Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, FromDataModel(row))
	}
	return products, nil
}

func (s *Service) GetProductByID(id int64) (*Product, error) {
	row, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		s.logger.Error("failed to get product", "product_id", id, "error", err)
		return nil, apperrors.NewInternalError("could not load product", err)
	}
	return FromDataModel(row), nil
}

// CreateProduct validates and persists a new product. Format checks run
// before the SKU uniqueness query.
func (s *Service) CreateProduct(dto CreateProductDTO) (*Product, error) {
	if err := validateProductFormat(dto.Name, dto.SKU, dto.PriceCents, dto.StockLevel, dto.LowStockThreshold); err != nil {
		return nil, err
	}

	if err := s.checkSKU(dto.SKU, 0); err != nil {
		return nil, err
	}

	threshold := int64(DefaultLowStockThreshold)
	if dto.LowStockThreshold != nil {
		threshold = *dto.LowStockThreshold
	}

	row := &productDatamodel.Product{
		Name:              dto.Name,
		SKU:               dto.SKU,
		Description:       dto.Description,
		PriceCents:        dto.PriceCents,
		StockLevel:        dto.StockLevel,
		LowStockThreshold: threshold,
	}

	if err := s.repo.Create(row); err != nil {
		s.logger.Error("failed to persist product", "sku", dto.SKU, "error", err)
		return nil, apperrors.NewInternalError("could not create product", err).
			WithDetails(apperrors.ValidationErrors{Errors: []apperrors.ValidationError{
				{Field: "database", Message: "could not create product", Code: string(apperrors.ErrCodeDatabaseError)},
			}})
	}

	s.logger.Info("product created", "product_id", row.ID, "sku", row.SKU)
	return FromDataModel(row), nil
}

// UpdateProduct applies a partial update; only non-nil fields are touched.
func (s *Service) UpdateProduct(id int64, dto UpdateProductDTO) (*Product, error) {
	row, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		s.logger.Error("failed to load product for update", "product_id", id, "error", err)
		return nil, apperrors.NewInternalError("could not load product", err)
	}

	name := row.Name
	if dto.Name != nil {
		name = *dto.Name
	}
	sku := row.SKU
	if dto.SKU != nil {
		sku = *dto.SKU
	}
	price := row.PriceCents
	if dto.PriceCents != nil {
		price = *dto.PriceCents
	}
	stock := row.StockLevel
	if dto.StockLevel != nil {
		stock = *dto.StockLevel
	}

	if err := validateProductFormat(name, sku, price, stock, dto.LowStockThreshold); err != nil {
		return nil, err
	}

	if err := s.checkSKU(sku, id); err != nil {
		return nil, err
	}

	row.Name = name
	row.SKU = sku
	row.PriceCents = price
	row.StockLevel = stock
	if dto.Description != nil {
		row.Description = *dto.Description
	}
	if dto.LowStockThreshold != nil {
		row.LowStockThreshold = *dto.LowStockThreshold
	}

	if err := s.repo.Update(row); err != nil {
		s.logger.Error("failed to persist product update", "product_id", id, "error", err)
		return nil, apperrors.NewInternalError("could not update product", err).
			WithDetails(apperrors.ValidationErrors{Errors: []apperrors.ValidationError{
				{Field: "database", Message: "could not update product", Code: string(apperrors.ErrCodeDatabaseError)},
			}})
	}

	s.logger.Info("product updated", "product_id", id)
	return FromDataModel(row), nil
}

func (s *Service) DeleteProduct(id int64) error {
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperrors.ErrProductNotFound
		}
		s.logger.Error("failed to delete product", "product_id", id, "error", err)
		return apperrors.NewInternalError("could not delete product", err)
	}
	s.logger.Info("product deleted", "product_id", id)
	return nil
}

// AdjustStock applies a signed delta to the product's stock level. The level
// clamps at zero: removing more units than exist empties the stock rather
// than going negative.
func (s *Service) AdjustStock(id int64, delta int64) (*Product, error) {
	row, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		s.logger.Error("failed to load product for stock adjustment", "product_id", id, "error", err)
		return nil, apperrors.NewInternalError("could not load product", err)
	}

	level := row.StockLevel + delta
	if level < 0 {
		level = 0
	}
	row.StockLevel = level

	if err := s.repo.Update(row); err != nil {
		s.logger.Error("failed to persist stock adjustment", "product_id", id, "error", err)
		return nil, apperrors.NewInternalError("could not adjust stock", err)
	}

	s.logger.Info("stock adjusted", "product_id", id, "delta", delta, "stock_level", level)
	return FromDataModel(row), nil
}

// LowStockProducts returns products at or below their low-stock threshold.
func (s *Service) LowStockProducts() ([]*Product, error) {
	rows, err := s.repo.LowStock()
	if err != nil {
		s.logger.Error("failed to compute low-stock report", "error", err)
		return nil, apperrors.NewInternalError("could not compute low-stock report", err)
	}
	products := make([]*Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, FromDataModel(row))
	}
	return products, nil
}

// InventoryValue sums price times stock across the catalogue.
func (s *Service) InventoryValue() (*InventoryValueReport, error) {
	rows, err := s.repo.GetAll()
	if err != nil {
		s.logger.Error("failed to compute inventory value", "error", err)
		return nil, apperrors.NewInternalError("could not compute inventory value", err)
	}

	report := &InventoryValueReport{ProductCount: int64(len(rows))}
	for _, row := range rows {
		report.TotalValueCents += row.PriceCents * row.StockLevel
		report.TotalUnits += row.StockLevel
	}
	return report, nil
}

// validateProductFormat runs presence and range checks without touching the
// store.
func validateProductFormat(name, sku string, priceCents, stockLevel int64, threshold *int64) *apperrors.AppError {
	v := validation.NewValidator()
	v.Field("name", name).Required().MaxLength(100)
	v.Field("sku", sku).Required().MaxLength(50)
	v.Field("price_cents", priceCents).NonNegative()
	v.Field("stock_level", stockLevel).NonNegative()
	if threshold != nil {
		v.Field("low_stock_threshold", *threshold).NonNegative()
	}
	return v.Validate()
}

// checkSKU queries the SKU case-insensitively, excluding the row under
// update when excludeID is non-zero.
func (s *Service) checkSKU(sku string, excludeID int64) error {
	taken, err := s.repo.SKUExists(sku, excludeID)
	if err != nil {
		s.logger.Error("sku uniqueness check failed", "error", err)
		return apperrors.NewInternalError("could not validate product", err)
	}
	if taken {
		return apperrors.NewConflictFieldError("sku", "SKU already in use", apperrors.ErrCodeSKUTaken)
	}
	return nil
}
