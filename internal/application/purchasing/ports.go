package purchasing

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// PurchasingTxRunner ejecuta una función dentro de una transacción que incluye repos de inventario y compras.
type PurchasingTxRunner interface {
	RunPurchasing(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		orderRepo repository.PurchaseOrderRepository,
	) error) error
}

// LedgerWriter interfaz para integrar recepciones con el ledger de inventario.
// Apply se ejecuta con los repositorios del caller (misma transacción); si retorna error
// el caller debe hacer rollback.
type LedgerWriter interface {
	Apply(
		ctx context.Context,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		in inventory.ApplyInput,
	) (*entity.StockMovement, error)
}

// OrderPDFGenerator genera el documento PDF de una orden de compra.
type OrderPDFGenerator interface {
	GenerateOrderPDF(ctx context.Context, order *entity.PurchaseOrder, supplier *entity.Supplier, lines []OrderLineForPDF) ([]byte, error)
}

// OrderLineForPDF línea de la orden enriquecida con los datos del producto.
type OrderLineForPDF struct {
	entity.PurchaseOrderItem
	SKU         string
	ProductName string
}
