package inventory

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var tracer = otel.Tracer("stock-ledger/inventory")

// AdjustStockInput entrada del ajuste manual de stock.
type AdjustStockInput struct {
	ProductID string
	Mode      string // increase | decrease | set_to
	Amount    int64
	Reason    string
	Notes     string
}

// AdjustStockUseCase motor de ajustes: traduce el pedido del usuario en un único movimiento del ledger.
type AdjustStockUseCase struct {
	txRunner TxRunner
	writer   MovementWriter
	locker   Locker
	metrics  Metrics
	events   EventPublisher
	log      *logger.Logger
}

// NewAdjustStockUseCase construye el caso de uso.
func NewAdjustStockUseCase(
	txRunner TxRunner,
	writer MovementWriter,
	locker Locker,
	metrics Metrics,
	events EventPublisher,
	log *logger.Logger,
) *AdjustStockUseCase {
	return &AdjustStockUseCase{
		txRunner: txRunner,
		writer:   writer,
		locker:   locker,
		metrics:  metrics,
		events:   events,
		log:      log,
	}
}

// AdjustFromRequest adapta el request HTTP al caso de uso.
func (uc *AdjustStockUseCase) AdjustFromRequest(ctx context.Context, actor entity.Actor, productID string, in dto.AdjustStockRequest) (*dto.AdjustmentResponse, error) {
	return uc.Adjust(ctx, actor, AdjustStockInput{
		ProductID: productID,
		Mode:      in.Mode,
		Amount:    in.Amount,
		Reason:    in.Reason,
		Notes:     in.Notes,
	})
}

// Adjust valida la entrada, bloquea el producto, calcula el delta sobre la cantidad actual y
// escribe exactamente un movimiento. Toda validación ocurre antes de cualquier escritura.
func (uc *AdjustStockUseCase) Adjust(ctx context.Context, actor entity.Actor, in AdjustStockInput) (*dto.AdjustmentResponse, error) {
	ctx, span := tracer.Start(ctx, "inventory.Adjust")
	defer span.End()
	span.SetAttributes(
		attribute.String("product.id", in.ProductID),
		attribute.String("adjustment.mode", in.Mode),
		attribute.Int64("adjustment.amount", in.Amount),
	)

	if !actor.IsValid() {
		return nil, domain.ErrUnauthorized
	}
	verr := &domain.ValidationError{}
	if in.ProductID == "" {
		verr.Add("product_id", "es obligatorio")
	}
	in.Reason = strings.TrimSpace(in.Reason)
	if in.Reason == "" {
		verr.Add("reason", "es obligatorio")
	}
	var modeErr *domain.ValidationError
	if errors.As(inventory.ValidateAdjustment(in.Mode, in.Amount), &modeErr) {
		for field, msg := range modeErr.Fields {
			verr.Add(field, msg)
		}
	}
	if err := verr.OrNil(); err != nil {
		uc.metrics.AdjustmentRejected("validation")
		return nil, err
	}

	release, err := uc.locker.Acquire(ctx, ProductLockKey(in.ProductID))
	if err != nil {
		uc.rejected(span, rejectionReason(err), err)
		if errors.Is(err, domain.ErrBusy) {
			uc.metrics.LockBusy("product")
		}
		return nil, err
	}
	defer release()

	var (
		mov     *entity.StockMovement
		product *entity.Product
	)
	err = uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		p, err := productRepo.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if p == nil || p.IsArchived() {
			return domain.ErrNotFound
		}
		delta, kind, err := inventory.ComputeDelta(in.Mode, in.Amount, p.Quantity)
		if err != nil {
			var insufficient *domain.InsufficientStockError
			if errors.As(err, &insufficient) {
				insufficient.ProductID = p.ID
			}
			return err
		}
		mov, err = uc.writer.Apply(ctx, movRepo, productRepo, ApplyInput{
			ProductID: p.ID,
			Delta:     delta,
			Kind:      kind,
			ActorID:   actor.UserID,
			Reason:    in.Reason,
			Notes:     in.Notes,
		})
		if err != nil {
			return err
		}
		p.Quantity = mov.NewQuantity
		p.UpdatedAt = mov.CreatedAt
		product = p
		return nil
	})
	if err != nil {
		uc.rejected(span, rejectionReason(err), err)
		return nil, err
	}

	uc.metrics.MovementRecorded(mov.Kind)
	uc.log.Ctx(ctx).Info().
		Str("product_id", product.ID).
		Str("movement_id", mov.ID).
		Str("user_id", actor.UserID).
		Str("mode", in.Mode).
		Int64("delta", mov.Delta).
		Int64("new_quantity", mov.NewQuantity).
		Msg("ajuste de stock registrado")
	uc.publish(ctx, mov, product)

	return &dto.AdjustmentResponse{
		Movement: dto.NewMovementResponse(mov),
		Product:  dto.NewProductResponse(product),
	}, nil
}

func (uc *AdjustStockUseCase) rejected(span trace.Span, reason string, err error) {
	uc.metrics.AdjustmentRejected(reason)
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
}

// publish emite los eventos post-commit; los errores solo se registran.
func (uc *AdjustStockUseCase) publish(ctx context.Context, mov *entity.StockMovement, product *entity.Product) {
	publishMovement(ctx, uc.events, uc.log, mov, product)
}

// publishMovement evento de movimiento y, si el producto quedó en o bajo el mínimo, alerta de stock bajo.
func publishMovement(ctx context.Context, events EventPublisher, log *logger.Logger, mov *entity.StockMovement, product *entity.Product) {
	if err := events.MovementRecorded(ctx, mov); err != nil {
		log.Warn().Err(err).Str("movement_id", mov.ID).Msg("no se pudo publicar el evento de movimiento")
	}
	if product != nil && product.IsLowStock() {
		if err := events.LowStock(ctx, product); err != nil {
			log.Warn().Err(err).Str("product_id", product.ID).Msg("no se pudo publicar la alerta de stock bajo")
		}
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "validation"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrNegativeStock):
		return "negative_stock"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrBusy):
		return "busy"
	default:
		return "internal"
	}
}
