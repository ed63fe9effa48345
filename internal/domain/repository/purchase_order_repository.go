package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// PurchaseOrderFilter filtros para el listado de órdenes.
type PurchaseOrderFilter struct {
	Status     string
	SupplierID string
	Limit      int
	Offset     int
}

// PurchaseOrderRepository puerto de persistencia para la orden de compra y sus líneas.
type PurchaseOrderRepository interface {
	// Create persiste cabecera y líneas.
	Create(ctx context.Context, order *entity.PurchaseOrder) error
	// NextOrderNumber reserva el siguiente número correlativo (PO-000001).
	NextOrderNumber(ctx context.Context) (string, error)
	// GetByID devuelve la orden con sus líneas, o (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// GetForUpdate como GetByID pero bloquea cabecera y líneas hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// UpdateHeader actualiza proveedor, fechas y notas.
	UpdateHeader(ctx context.Context, order *entity.PurchaseOrder) error
	// UpdateStatus actualiza estado y sellos de confirmación/recepción/cancelación.
	UpdateStatus(ctx context.Context, order *entity.PurchaseOrder) error
	// UpdateItemReceived fija la cantidad recibida acumulada de una línea.
	UpdateItemReceived(ctx context.Context, itemID string, received int64) error
	List(ctx context.Context, filter PurchaseOrderFilter) ([]*entity.PurchaseOrder, int, error)
	// OpenOrdersForProduct números de las órdenes no cerradas con unidades pendientes del producto.
	OpenOrdersForProduct(ctx context.Context, productID string) ([]string, error)
}
