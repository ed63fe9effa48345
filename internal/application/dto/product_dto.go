package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// CreateProductRequest entrada para crear un producto. Quantity genera el movimiento inicial.
type CreateProductRequest struct {
	SKU           string          `json:"sku" validate:"required,min=1,max=100"`
	Name          string          `json:"name" validate:"required,min=1,max=200"`
	Description   string          `json:"description"`
	CategoryID    string          `json:"category_id" validate:"omitempty,uuid"`
	Quantity      int64           `json:"quantity" validate:"min=0"`
	MinStockLevel int64           `json:"min_stock_level" validate:"min=0"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}

// UpdateProductRequest entrada para actualizar un producto. La cantidad no se edita: solo vía ajustes.
type UpdateProductRequest struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description   *string          `json:"description"`
	CategoryID    *string          `json:"category_id" validate:"omitempty,uuid"`
	MinStockLevel *int64           `json:"min_stock_level" validate:"omitempty,min=0"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
}

// ProductListRequest filtros del listado de productos.
type ProductListRequest struct {
	PageRequest
	Search     string `query:"search"`
	CategoryID string `query:"category_id"`
	LowStock   bool   `query:"low_stock"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	CategoryID    string          `json:"category_id,omitempty"`
	Quantity      int64           `json:"quantity"`
	MinStockLevel int64           `json:"min_stock_level"`
	LowStock      bool            `json:"low_stock"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	ArchivedAt    *time.Time      `json:"archived_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// LedgerVerificationResponse resultado de reconstruir la cantidad desde el ledger.
type LedgerVerificationResponse struct {
	ProductID     string `json:"product_id"`
	Movements     int    `json:"movements"`
	DerivedQty    int64  `json:"derived_quantity"`
	StoredQty     int64  `json:"stored_quantity"`
	Consistent    bool   `json:"consistent"`
	Inconsistency string `json:"inconsistency,omitempty"`
}

// NewProductResponse mapea la entidad a su salida.
func NewProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		CategoryID:    p.CategoryID,
		Quantity:      p.Quantity,
		MinStockLevel: p.MinStockLevel,
		LowStock:      p.IsLowStock(),
		UnitPrice:     p.UnitPrice,
		ArchivedAt:    p.ArchivedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
