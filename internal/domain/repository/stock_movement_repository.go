package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementFilter filtros de listMovements. Todos opcionales.
type MovementFilter struct {
	ProductID string
	ActorID   string
	Kind      string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// StockMovementRepository puerto del ledger: solo inserción y lectura (append-only).
type StockMovementRepository interface {
	// Append persiste el movimiento y asigna ID y Sequence.
	Append(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	// List devuelve la página pedida (más recientes primero) y el total que cumple el filtro.
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, int, error)
	// ListByProductInOrder devuelve todos los movimientos del producto en orden de escritura.
	ListByProductInOrder(ctx context.Context, productID string) ([]*entity.StockMovement, error)
}
