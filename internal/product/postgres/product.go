package postgres

import (
	"errors"

	"gorm.io/gorm"

	productDatamodel "github.com/stocklane/inventory-management/internal/core/datamodel/product"
	"github.com/stocklane/inventory-management/internal/product"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) product.Repository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetAll() ([]*productDatamodel.Product, error) {
	var products []*productDatamodel.Product
	err := r.db.Order("name ASC").Find(&products).Error
	return products, err
}

func (r *ProductRepository) GetByID(id int64) (*productDatamodel.Product, error) {
	var p productDatamodel.Product
	err := r.db.First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) SKUExists(sku string, excludeID int64) (bool, error) {
	var count int64
	q := r.db.Model(&productDatamodel.Product{}).Where("LOWER(sku) = LOWER(?)", sku)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *ProductRepository) Create(p *productDatamodel.Product) error {
	return r.db.Create(p).Error
}

func (r *ProductRepository) Update(p *productDatamodel.Product) error {
	return r.db.Save(p).Error
}

func (r *ProductRepository) Delete(id int64) error {
	res := r.db.Delete(&productDatamodel.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return product.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) LowStock() ([]*productDatamodel.Product, error) {
	var products []*productDatamodel.Product
	err := r.db.Where("stock_level <= low_stock_threshold").Order("stock_level ASC").Find(&products).Error
	return products, err
}
