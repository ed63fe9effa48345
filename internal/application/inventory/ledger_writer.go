package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ApplyInput describe un cambio de cantidad a registrar en el ledger.
type ApplyInput struct {
	ProductID       string
	Delta           int64
	Kind            string
	ActorID         string
	Reason          string
	Notes           string
	PurchaseOrderID string
}

// LedgerWriter es la única vía para modificar Product.Quantity: cada cambio deja exactamente
// un movimiento con sus snapshots, dentro de la transacción del caller.
type LedgerWriter struct {
	now func() time.Time
}

// NewLedgerWriter construye el writer.
func NewLedgerWriter() *LedgerWriter {
	return &LedgerWriter{now: time.Now}
}

// Apply bloquea la fila del producto (GetForUpdate), calcula la nueva cantidad, la persiste y
// agrega el movimiento. Debe llamarse con repos atados a una transacción (TxRunner):
// si devuelve error el caller hace rollback y nada queda escrito.
func (w *LedgerWriter) Apply(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	in ApplyInput,
) (*entity.StockMovement, error) {
	verr := &domain.ValidationError{}
	if in.ProductID == "" {
		verr.Add("product_id", "es obligatorio")
	}
	if !entity.IsValidMovementKind(in.Kind) {
		verr.Add("kind", "debe ser in, out o adjustment")
	}
	if strings.TrimSpace(in.Reason) == "" {
		verr.Add("reason", "es obligatorio")
	}
	if in.ActorID == "" {
		verr.Add("actor", "es obligatorio")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	// Bloquea la fila del producto hasta el fin de la transacción (SELECT FOR UPDATE)
	product, err := productRepo.GetForUpdate(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.IsArchived() {
		return nil, domain.ErrNotFound
	}

	current := product.Quantity
	next := current + in.Delta
	if next < 0 {
		return nil, &domain.NegativeStockError{ProductID: in.ProductID, Current: current, Delta: in.Delta}
	}

	now := w.now()
	if err := productRepo.UpdateQuantity(ctx, in.ProductID, next, now); err != nil {
		return nil, err
	}
	mov := &entity.StockMovement{
		ProductID:        in.ProductID,
		ActorID:          in.ActorID,
		Kind:             in.Kind,
		Delta:            in.Delta,
		PreviousQuantity: current,
		NewQuantity:      next,
		Reason:           strings.TrimSpace(in.Reason),
		Notes:            in.Notes,
		PurchaseOrderID:  in.PurchaseOrderID,
		CreatedAt:        now,
	}
	if err := movRepo.Append(ctx, mov); err != nil {
		return nil, err
	}
	product.Quantity = next
	product.UpdatedAt = now
	return mov, nil
}
