package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ProductFilter filtros para el listado de productos.
type ProductFilter struct {
	Search       string // coincide con SKU o nombre
	CategoryID   string
	LowStockOnly bool
	Limit        int
	Offset       int
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// Los métodos de lectura devuelven (nil, nil) si el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// GetForUpdate obtiene el producto y bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// Update actualiza atributos descriptivos. Nunca toca Quantity.
	Update(ctx context.Context, product *entity.Product) error
	// UpdateQuantity solo la usa el Ledger Writer, dentro de la misma transacción que el movimiento.
	UpdateQuantity(ctx context.Context, id string, quantity int64, at time.Time) error
	Archive(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, int, error)
}
