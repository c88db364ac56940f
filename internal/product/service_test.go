package product

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	apperrors "github.com/stocklane/inventory-management/internal"
	productDatamodel "github.com/stocklane/inventory-management/internal/core/datamodel/product"
)

func TestProduct(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Product Module Suite")
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockRepository struct {
	products    map[int64]*productDatamodel.Product
	nextID      int64
	queryCount  int
	returnError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		products: map[int64]*productDatamodel.Product{
			1: {ID: 1, Name: "Widget", SKU: "WID-1", PriceCents: 250, StockLevel: 100, LowStockThreshold: 10},
			2: {ID: 2, Name: "Gadget", SKU: "GAD-1", PriceCents: 1000, StockLevel: 5, LowStockThreshold: 10},
			3: {ID: 3, Name: "Gizmo", SKU: "GIZ-1", PriceCents: 50, StockLevel: 0, LowStockThreshold: 0},
		},
		nextID: 4,
	}
}

func (m *mockRepository) GetAll() ([]*productDatamodel.Product, error) {
	m.queryCount++
	if m.returnError != nil {
		return nil, m.returnError
	}
	out := make([]*productDatamodel.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockRepository) GetByID(id int64) (*productDatamodel.Product, error) {
	m.queryCount++
	if m.returnError != nil {
		return nil, m.returnError
	}
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepository) SKUExists(sku string, excludeID int64) (bool, error) {
	m.queryCount++
	if m.returnError != nil {
		return false, m.returnError
	}
	for _, p := range m.products {
		if strings.EqualFold(p.SKU, sku) && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) Create(p *productDatamodel.Product) error {
	m.queryCount++
	if m.returnError != nil {
		return m.returnError
	}
	p.ID = m.nextID
	m.nextID++
	m.products[p.ID] = p
	return nil
}

func (m *mockRepository) Update(p *productDatamodel.Product) error {
	m.queryCount++
	if m.returnError != nil {
		return m.returnError
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockRepository) Delete(id int64) error {
	m.queryCount++
	if m.returnError != nil {
		return m.returnError
	}
	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockRepository) LowStock() ([]*productDatamodel.Product, error) {
	m.queryCount++
	if m.returnError != nil {
		return nil, m.returnError
	}
	var out []*productDatamodel.Product
	for _, p := range m.products {
		if p.StockLevel <= p.LowStockThreshold {
			out = append(out, p)
		}
	}
	return out, nil
}

var _ = ginkgo.Describe("ProductService", func() {
	var (
		service  *Service
		mockRepo *mockRepository
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockRepository()
		service = NewService(mockRepo, newTestLogger())
	})

	ginkgo.Describe("CreateProduct", func() {
		ginkgo.It("should reject malformed payloads before any store access", func() {
			_, err := service.CreateProduct(CreateProductDTO{
				Name:       "",
				SKU:        "",
				PriceCents: -1,
				StockLevel: -5,
			})

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(mockRepo.queryCount).To(gomega.BeZero())
		})

		ginkgo.It("should report a SKU conflict regardless of case", func() {
			_, err := service.CreateProduct(CreateProductDTO{
				Name:       "Another widget",
				SKU:        "wid-1",
				PriceCents: 100,
			})

			appErr, ok := apperrors.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(apperrors.ErrorTypeConflict))
			gomega.Expect(appErr.FieldErrors()).To(gomega.HaveKey("sku"))
		})

		ginkgo.It("should default the low-stock threshold", func() {
			created, err := service.CreateProduct(CreateProductDTO{
				Name:       "Sprocket",
				SKU:        "SPR-1",
				PriceCents: 499,
				StockLevel: 20,
			})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(created.LowStockThreshold).To(gomega.Equal(int64(DefaultLowStockThreshold)))
		})

		ginkgo.It("should honor an explicit zero threshold", func() {
			zero := int64(0)
			created, err := service.CreateProduct(CreateProductDTO{
				Name:              "Sprocket",
				SKU:               "SPR-1",
				PriceCents:        499,
				LowStockThreshold: &zero,
			})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(created.LowStockThreshold).To(gomega.BeZero())
		})
	})

	ginkgo.Describe("UpdateProduct", func() {
		ginkgo.It("should leave omitted fields untouched", func() {
			price := int64(300)
			updated, err := service.UpdateProduct(1, UpdateProductDTO{PriceCents: &price})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.Name).To(gomega.Equal("Widget"))
			gomega.Expect(updated.SKU).To(gomega.Equal("WID-1"))
			gomega.Expect(updated.PriceCents).To(gomega.Equal(int64(300)))
		})

		ginkgo.It("should allow keeping the product's own SKU", func() {
			sku := "WID-1"
			_, err := service.UpdateProduct(1, UpdateProductDTO{SKU: &sku})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("should reject taking another product's SKU", func() {
			sku := "GAD-1"
			_, err := service.UpdateProduct(1, UpdateProductDTO{SKU: &sku})

			appErr, ok := apperrors.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(apperrors.ErrorTypeConflict))
		})

		ginkgo.It("should reject a negative price", func() {
			price := int64(-10)
			_, err := service.UpdateProduct(1, UpdateProductDTO{PriceCents: &price})

			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("should return not found for an unknown id", func() {
			name := "whatever"
			_, err := service.UpdateProduct(99, UpdateProductDTO{Name: &name})

			gomega.Expect(err).To(gomega.MatchError(apperrors.ErrProductNotFound))
		})
	})

	ginkgo.Describe("AdjustStock", func() {
		ginkgo.It("should apply a positive delta", func() {
			p, err := service.AdjustStock(1, 50)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p.StockLevel).To(gomega.Equal(int64(150)))
		})

		ginkgo.It("should apply a negative delta", func() {
			p, err := service.AdjustStock(1, -30)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p.StockLevel).To(gomega.Equal(int64(70)))
		})

		ginkgo.It("should clamp at zero instead of going negative", func() {
			p, err := service.AdjustStock(2, -50)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p.StockLevel).To(gomega.BeZero())
		})

		ginkgo.It("should return not found for an unknown id", func() {
			_, err := service.AdjustStock(99, 1)

			gomega.Expect(err).To(gomega.MatchError(apperrors.ErrProductNotFound))
		})
	})

	ginkgo.Describe("LowStockProducts", func() {
		ginkgo.It("should include products at or below their threshold", func() {
			low, err := service.LowStockProducts()

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			skus := make([]string, 0, len(low))
			for _, p := range low {
				skus = append(skus, p.SKU)
			}
			// GAD-1 is below its threshold, GIZ-1 sits exactly at its zero threshold.
			gomega.Expect(skus).To(gomega.ConsistOf("GAD-1", "GIZ-1"))
		})
	})

	ginkgo.Describe("InventoryValue", func() {
		ginkgo.It("should sum price times stock across the catalogue", func() {
			report, err := service.InventoryValue()

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			// 250*100 + 1000*5 + 50*0
			gomega.Expect(report.TotalValueCents).To(gomega.Equal(int64(30000)))
			gomega.Expect(report.ProductCount).To(gomega.Equal(int64(3)))
			gomega.Expect(report.TotalUnits).To(gomega.Equal(int64(105)))
		})

		ginkgo.It("should wrap repository failures as internal errors", func() {
			mockRepo.returnError = errors.New("connection reset")

			_, err := service.InventoryValue()

			appErr, ok := apperrors.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(apperrors.ErrorTypeInternal))
		})
	})
})
