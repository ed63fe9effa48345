package purchasing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/purchasing"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// TransitionOrderUseCase controlador del ciclo de vida: transiciones manuales y edición de cabecera.
// partially_received y received no se fijan aquí: los deriva la recepción.
type TransitionOrderUseCase struct {
	txRunner     PurchasingTxRunner
	supplierRepo repository.SupplierRepository
	locker       inventory.Locker
	metrics      inventory.Metrics
	events       inventory.EventPublisher
	log          *logger.Logger
}

// NewTransitionOrderUseCase construye el caso de uso.
func NewTransitionOrderUseCase(
	txRunner PurchasingTxRunner,
	supplierRepo repository.SupplierRepository,
	locker inventory.Locker,
	metrics inventory.Metrics,
	events inventory.EventPublisher,
	log *logger.Logger,
) *TransitionOrderUseCase {
	return &TransitionOrderUseCase{
		txRunner:     txRunner,
		supplierRepo: supplierRepo,
		locker:       locker,
		metrics:      metrics,
		events:       events,
		log:          log,
	}
}

// Transition aplica una transición manual (draft→sent, draft→cancelled, sent→confirmed,
// sent→cancelled) y sella quién y cuándo confirmó o canceló.
func (uc *TransitionOrderUseCase) Transition(ctx context.Context, actor entity.Actor, orderID, target string) (*dto.PurchaseOrderResponse, error) {
	if !actor.IsValid() {
		return nil, domain.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if target == "" {
		return nil, domain.NewValidationError("status", "es obligatorio")
	}

	release, err := uc.acquire(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		order    *entity.PurchaseOrder
		previous string
	)
	err = uc.txRunner.RunPurchasing(ctx, func(
		_ repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		orderRepo repository.PurchaseOrderRepository,
	) error {
		po, err := orderRepo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.ErrNotFound
		}
		if err := purchasing.CheckTransition(po.ID, po.Status, target); err != nil {
			return err
		}
		if target == entity.POStatusConfirmed {
			if err := checkActiveProducts(ctx, productRepo, po); err != nil {
				return err
			}
		}
		now := time.Now()
		previous = po.Status
		po.Status = target
		po.UpdatedAt = now
		switch target {
		case entity.POStatusConfirmed:
			po.ConfirmedAt = &now
			po.ConfirmedBy = actor.UserID
		case entity.POStatusCancelled:
			po.CancelledAt = &now
			po.CancelledBy = actor.UserID
		}
		if err := orderRepo.UpdateStatus(ctx, po); err != nil {
			return err
		}
		order = po
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("order_id", order.ID).
		Str("from", previous).
		Str("to", order.Status).
		Str("user_id", actor.UserID).
		Msg("transición de orden de compra")
	if err := uc.events.OrderStatusChanged(ctx, order, previous); err != nil {
		uc.log.Warn().Err(err).Str("order_id", order.ID).Msg("no se pudo publicar el cambio de estado")
	}
	resp := dto.NewPurchaseOrderResponse(order)
	return &resp, nil
}

// UpdateHeader edita proveedor, fechas y notas. Solo en draft o sent: las líneas nunca se editan.
func (uc *TransitionOrderUseCase) UpdateHeader(ctx context.Context, actor entity.Actor, orderID string, in dto.UpdatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	if !actor.IsValid() {
		return nil, domain.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if in.SupplierID != nil {
		if *in.SupplierID == "" {
			return nil, domain.NewValidationError("supplier_id", "no puede quedar vacío")
		}
		supplier, err := uc.supplierRepo.GetByID(ctx, *in.SupplierID)
		if err != nil {
			return nil, err
		}
		if supplier == nil {
			return nil, domain.NewValidationError("supplier_id", "el proveedor no existe")
		}
	}

	release, err := uc.acquire(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	var order *entity.PurchaseOrder
	err = uc.txRunner.RunPurchasing(ctx, func(
		_ repository.StockMovementRepository,
		_ repository.ProductRepository,
		orderRepo repository.PurchaseOrderRepository,
	) error {
		po, err := orderRepo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.ErrNotFound
		}
		if err := purchasing.CheckHeaderEditable(po); err != nil {
			return err
		}
		if in.SupplierID != nil {
			po.SupplierID = *in.SupplierID
		}
		if in.OrderDate != nil {
			po.OrderDate = *in.OrderDate
		}
		if in.ExpectedDelivery != nil {
			po.ExpectedDelivery = in.ExpectedDelivery
		}
		if in.Notes != nil {
			po.Notes = *in.Notes
		}
		if po.ExpectedDelivery != nil && !po.ExpectedDelivery.After(po.OrderDate) {
			return domain.NewValidationError("expected_delivery", "debe ser posterior a la fecha de la orden")
		}
		po.UpdatedAt = time.Now()
		if err := orderRepo.UpdateHeader(ctx, po); err != nil {
			return err
		}
		order = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := dto.NewPurchaseOrderResponse(order)
	return &resp, nil
}

func (uc *TransitionOrderUseCase) acquire(ctx context.Context, orderID string) (func(), error) {
	release, err := uc.locker.Acquire(ctx, inventory.OrderLockKey(orderID))
	if err != nil && errors.Is(err, domain.ErrBusy) {
		uc.metrics.LockBusy("purchase_order")
	}
	return release, err
}

// checkActiveProducts impide confirmar una orden con productos dados de baja: una vez confirmada
// solo la recepción la cierra, y esas líneas no podrían recibirse.
func checkActiveProducts(ctx context.Context, productRepo repository.ProductRepository, po *entity.PurchaseOrder) error {
	verr := &domain.ValidationError{}
	for i, it := range po.Items {
		product, err := productRepo.GetByID(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if product == nil || product.IsArchived() {
			verr.Add(fmt.Sprintf("items[%d].product_id", i), "el producto fue dado de baja")
		}
	}
	return verr.OrNil()
}
