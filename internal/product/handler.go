package product

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/stocklane/inventory-management/internal/transport"
)

type ServiceAPI interface {
	GetAllProducts() ([]*Product, error)
	GetProductByID(id int64) (*Product, error)
	CreateProduct(dto CreateProductDTO) (*Product, error)
	UpdateProduct(id int64, dto UpdateProductDTO) (*Product, error)
	DeleteProduct(id int64) error
	AdjustStock(id int64, delta int64) (*Product, error)
	LowStockProducts() ([]*Product, error)
	InventoryValue() (*InventoryValueReport, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(nil),
		Service:     svc,
	}
}

// ListProducts handles GET /products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.GetAllProducts()
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, products)
}

// GetProduct handles GET /products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	p, err := h.Service.GetProductByID(id)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

// CreateProduct handles POST /products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var dto CreateProductDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.CreateProduct(dto)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, p)
}

// UpdateProduct handles PUT /products/{id}
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var dto UpdateProductDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.UpdateProduct(id, dto)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

// DeleteProduct handles DELETE /products/{id}
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteProduct(id); err != nil {
		h.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdjustStock handles POST /products/{id}/stock
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var dto AdjustStockDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.AdjustStock(id, dto.Delta)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

// LowStockReport handles GET /reports/low-stock
func (h *Handler) LowStockReport(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.LowStockProducts()
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, products)
}

// InventoryValueReport handles GET /reports/inventory-value
func (h *Handler) InventoryValueReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.InventoryValue()
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return id, true
}
