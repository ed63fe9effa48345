package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza que producto y ledger se confirman juntos o no se confirman.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// Locker serializa escrituras sobre un recurso (producto u orden de compra) entre peticiones.
// Acquire toma las claves en el orden recibido con espera acotada; si vence devuelve *domain.BusyError.
// La función devuelta libera todas las claves y es idempotente.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// Metrics contadores del ledger. Las implementaciones no deben bloquear.
type Metrics interface {
	MovementRecorded(kind string)
	AdjustmentRejected(reason string)
	ReceiptProcessed(status string, lines int)
	LockBusy(scope string)
}

// EventPublisher publica eventos de dominio tras el commit. Un fallo no revierte la operación.
type EventPublisher interface {
	MovementRecorded(ctx context.Context, movement *entity.StockMovement) error
	LowStock(ctx context.Context, product *entity.Product) error
	OrderStatusChanged(ctx context.Context, order *entity.PurchaseOrder, previous string) error
}

// ProductLockKey clave de bloqueo de un producto.
func ProductLockKey(productID string) string { return "product:" + productID }

// OrderLockKey clave de bloqueo de una orden de compra.
func OrderLockKey(orderID string) string { return "po:" + orderID }

// NopMetrics descarta las métricas (tests y arranque sin Prometheus).
type NopMetrics struct{}

func (NopMetrics) MovementRecorded(string)      {}
func (NopMetrics) AdjustmentRejected(string)    {}
func (NopMetrics) ReceiptProcessed(string, int) {}
func (NopMetrics) LockBusy(string)              {}

// NopPublisher descarta los eventos (sin Kafka configurado).
type NopPublisher struct{}

func (NopPublisher) MovementRecorded(context.Context, *entity.StockMovement) error { return nil }
func (NopPublisher) LowStock(context.Context, *entity.Product) error              { return nil }
func (NopPublisher) OrderStatusChanged(context.Context, *entity.PurchaseOrder, string) error {
	return nil
}

// MovementWriter abstrae al LedgerWriter para los casos de uso que escriben en el ledger.
// Siempre se invoca con repos atados a la transacción del caller.
type MovementWriter interface {
	Apply(ctx context.Context, movRepo repository.StockMovementRepository, productRepo repository.ProductRepository, in ApplyInput) (*entity.StockMovement, error)
}

// OpenOrderChecker informa las órdenes de compra abiertas que aún esperan unidades de un producto.
type OpenOrderChecker interface {
	OpenOrdersForProduct(ctx context.Context, productID string) ([]string, error)
}
