package purchasing

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/purchasing"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var tracer = otel.Tracer("stock-ledger/purchasing")

// ReceiptLine cantidad recibida para una línea de la orden.
type ReceiptLine struct {
	ItemID   string
	Quantity int64
}

// ReceiveOrderUseCase conciliador de recepciones: única autoridad sobre partially_received y received.
type ReceiveOrderUseCase struct {
	txRunner  PurchasingTxRunner
	orderRepo repository.PurchaseOrderRepository
	writer    LedgerWriter
	locker    inventory.Locker
	metrics   inventory.Metrics
	events    inventory.EventPublisher
	log       *logger.Logger
}

// NewReceiveOrderUseCase construye el caso de uso.
func NewReceiveOrderUseCase(
	txRunner PurchasingTxRunner,
	orderRepo repository.PurchaseOrderRepository,
	writer LedgerWriter,
	locker inventory.Locker,
	metrics inventory.Metrics,
	events inventory.EventPublisher,
	log *logger.Logger,
) *ReceiveOrderUseCase {
	return &ReceiveOrderUseCase{
		txRunner:  txRunner,
		orderRepo: orderRepo,
		writer:    writer,
		locker:    locker,
		metrics:   metrics,
		events:    events,
		log:       log,
	}
}

// ReceiveFromRequest adapta el request HTTP al caso de uso.
func (uc *ReceiveOrderUseCase) ReceiveFromRequest(ctx context.Context, actor entity.Actor, orderID string, in dto.ReceiveRequest) (*dto.ReceiptResponse, error) {
	lines := make([]ReceiptLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, ReceiptLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	return uc.Receive(ctx, actor, orderID, lines)
}

// Receive aplica una recepción. Las líneas inválidas (cantidad <= 0, línea inexistente, exceso sobre
// lo pendiente o ítem ya aceptado en esta recepción) se rechazan una a una; las válidas suman lo recibido y escriben una
// entrada en el ledger. Si ninguna es válida devuelve *domain.NoValidReceiptsError sin cambios.
// Todo ocurre en una transacción: un fallo del ledger revierte la recepción completa.
func (uc *ReceiveOrderUseCase) Receive(ctx context.Context, actor entity.Actor, orderID string, lines []ReceiptLine) (*dto.ReceiptResponse, error) {
	ctx, span := tracer.Start(ctx, "purchasing.Receive")
	defer span.End()
	span.SetAttributes(attribute.String("purchase_order.id", orderID), attribute.Int("receipt.lines", len(lines)))

	if !actor.IsValid() {
		return nil, domain.ErrUnauthorized
	}
	if len(lines) == 0 {
		return nil, domain.NewValidationError("lines", "la recepción debe tener al menos una línea")
	}

	// Orden de bloqueo: primero la orden, luego sus productos en orden ascendente
	releaseOrder, err := uc.locker.Acquire(ctx, inventory.OrderLockKey(orderID))
	if err != nil {
		uc.busy(err, "purchase_order")
		return nil, err
	}
	defer releaseOrder()

	current, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}
	productIDs := current.ProductIDs()
	sort.Strings(productIDs)
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, inventory.ProductLockKey(id))
	}
	releaseProducts, err := uc.locker.Acquire(ctx, keys...)
	if err != nil {
		uc.busy(err, "product")
		return nil, err
	}
	defer releaseProducts()

	var (
		order     *entity.PurchaseOrder
		previous  string
		applied   []dto.ReceivedLineResponse
		rejected  []*domain.ReceiptLineError
		movements []*entity.StockMovement
	)
	err = uc.txRunner.RunPurchasing(ctx, func(
		movRepo repository.StockMovementRepository,
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
		if err := purchasing.CheckReceivable(po); err != nil {
			return err
		}

		// Validar todas las líneas antes de escribir nada
		type validLine struct {
			item *entity.PurchaseOrderItem
			qty  int64
		}
		var valid []validLine
		seen := make(map[string]bool, len(lines))
		for _, l := range lines {
			item := po.Item(l.ItemID)
			switch {
			case l.Quantity <= 0:
				rejected = append(rejected, &domain.ReceiptLineError{ItemID: l.ItemID, Quantity: l.Quantity, Err: domain.NewValidationError("quantity", "debe ser mayor que 0")})
			case item == nil:
				rejected = append(rejected, &domain.ReceiptLineError{ItemID: l.ItemID, Quantity: l.Quantity, Err: domain.ErrNotFound})
			case seen[l.ItemID]:
				rejected = append(rejected, &domain.ReceiptLineError{ItemID: l.ItemID, Quantity: l.Quantity, Err: domain.NewValidationError("item_id", "línea repetida en la misma recepción")})
			case l.Quantity > item.PendingQuantity():
				rejected = append(rejected, &domain.ReceiptLineError{ItemID: l.ItemID, Quantity: l.Quantity, Err: &domain.OverReceiptError{
					ItemID: l.ItemID, Requested: l.Quantity, Pending: item.PendingQuantity(),
				}})
			default:
				// Solo una línea aceptada por ítem; las rechazadas no bloquean una posterior válida
				valid = append(valid, validLine{item: item, qty: l.Quantity})
				seen[l.ItemID] = true
			}
		}
		if len(valid) == 0 {
			return &domain.NoValidReceiptsError{Lines: rejected}
		}

		for _, v := range valid {
			v.item.ReceivedQuantity += v.qty
			if err := orderRepo.UpdateItemReceived(ctx, v.item.ID, v.item.ReceivedQuantity); err != nil {
				return err
			}
			mov, err := uc.writer.Apply(ctx, movRepo, productRepo, inventory.ApplyInput{
				ProductID:       v.item.ProductID,
				Delta:           v.qty,
				Kind:            entity.MovementKindIn,
				ActorID:         actor.UserID,
				Reason:          entity.ReasonPurchaseOrderReceived,
				Notes:           po.OrderNumber,
				PurchaseOrderID: po.ID,
			})
			if err != nil {
				return err
			}
			movements = append(movements, mov)
			applied = append(applied, dto.ReceivedLineResponse{
				ItemID:           v.item.ID,
				ProductID:        v.item.ProductID,
				Received:         v.qty,
				ReceivedQuantity: v.item.ReceivedQuantity,
				PendingQuantity:  v.item.PendingQuantity(),
			})
		}

		// El estado se recalcula sobre TODAS las líneas, no solo las de esta recepción
		now := time.Now()
		previous = po.Status
		po.Status = purchasing.DeriveReceivingStatus(po.Items)
		if po.Status == entity.POStatusReceived {
			po.ReceivedAt = &now
			po.ReceivedBy = actor.UserID
		}
		po.UpdatedAt = now
		if err := orderRepo.UpdateStatus(ctx, po); err != nil {
			return err
		}
		order = po
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recepción rechazada")
		uc.log.Ctx(ctx).Warn().Err(err).Str("order_id", orderID).Str("user_id", actor.UserID).Msg("recepción rechazada")
		return nil, err
	}

	uc.metrics.ReceiptProcessed(order.Status, len(applied))
	for _, m := range movements {
		uc.metrics.MovementRecorded(m.Kind)
		if err := uc.events.MovementRecorded(ctx, m); err != nil {
			uc.log.Warn().Err(err).Str("movement_id", m.ID).Msg("no se pudo publicar el evento de movimiento")
		}
	}
	if order.Status != previous {
		if err := uc.events.OrderStatusChanged(ctx, order, previous); err != nil {
			uc.log.Warn().Err(err).Str("order_id", order.ID).Msg("no se pudo publicar el cambio de estado")
		}
	}
	uc.log.Ctx(ctx).Info().
		Str("order_id", order.ID).
		Str("status", order.Status).
		Int("received_lines", len(applied)).
		Int("rejected_lines", len(rejected)).
		Str("user_id", actor.UserID).
		Msg("recepción registrada")

	return &dto.ReceiptResponse{
		OrderID:   order.ID,
		Status:    order.Status,
		Received:  applied,
		Rejected:  NewRejectedLines(rejected),
		Movements: dto.NewMovementResponses(movements),
	}, nil
}

func (uc *ReceiveOrderUseCase) busy(err error, scope string) {
	if errors.Is(err, domain.ErrBusy) {
		uc.metrics.LockBusy(scope)
	}
}

// NewRejectedLines mapea los errores por línea a su salida, con lo pendiente cuando aplica.
func NewRejectedLines(lines []*domain.ReceiptLineError) []dto.RejectedLineResponse {
	out := make([]dto.RejectedLineResponse, 0, len(lines))
	for _, l := range lines {
		r := dto.RejectedLineResponse{ItemID: l.ItemID, Quantity: l.Quantity, Reason: l.Err.Error()}
		var over *domain.OverReceiptError
		if errors.As(l.Err, &over) {
			pending := over.Pending
			r.Pending = &pending
		}
		out = append(out, r)
	}
	return out
}
