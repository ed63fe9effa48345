package purchasing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// CreateOrderUseCase crea órdenes de compra en draft con sus líneas (fijas desde la creación).
type CreateOrderUseCase struct {
	txRunner     PurchasingTxRunner
	supplierRepo repository.SupplierRepository
	productRepo  repository.ProductRepository
	log          *logger.Logger
}

// NewCreateOrderUseCase construye el caso de uso.
func NewCreateOrderUseCase(
	txRunner PurchasingTxRunner,
	supplierRepo repository.SupplierRepository,
	productRepo repository.ProductRepository,
	log *logger.Logger,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		txRunner:     txRunner,
		supplierRepo: supplierRepo,
		productRepo:  productRepo,
		log:          log,
	}
}

// Create valida proveedor, fechas y líneas, asigna el número correlativo y persiste la orden.
// total = Σ cantidad × costo unitario de cada línea.
func (uc *CreateOrderUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	if !actor.IsValid() {
		return nil, domain.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	now := time.Now()
	orderDate := now
	if in.OrderDate != nil {
		orderDate = *in.OrderDate
	}
	verr := &domain.ValidationError{}
	if in.SupplierID == "" {
		verr.Add("supplier_id", "es obligatorio")
	}
	if in.ExpectedDelivery != nil && !in.ExpectedDelivery.After(orderDate) {
		verr.Add("expected_delivery", "debe ser posterior a la fecha de la orden")
	}
	if len(in.Items) == 0 {
		verr.Add("items", "la orden debe tener al menos una línea")
	}
	for i, it := range in.Items {
		if it.ProductID == "" {
			verr.Add(fmt.Sprintf("items[%d].product_id", i), "es obligatorio")
		}
		if it.Quantity <= 0 {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), "debe ser mayor que 0")
		}
		if !it.UnitCost.GreaterThan(decimal.Zero) {
			verr.Add(fmt.Sprintf("items[%d].unit_cost", i), "debe ser mayor que 0")
		} else if !entity.HasMoneyScale(it.UnitCost) {
			verr.Add(fmt.Sprintf("items[%d].unit_cost", i), "admite como máximo 2 decimales")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	// Validar proveedor y productos (fuera de la tx, solo lectura)
	supplier, err := uc.supplierRepo.GetByID(ctx, in.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		verr.Add("supplier_id", "el proveedor no existe")
	}
	for i, it := range in.Items {
		product, err := uc.productRepo.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || product.IsArchived() {
			verr.Add(fmt.Sprintf("items[%d].product_id", i), "el producto no existe")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	order := &entity.PurchaseOrder{
		ID:               uuid.New().String(),
		SupplierID:       in.SupplierID,
		Status:           entity.POStatusDraft,
		OrderDate:        orderDate,
		ExpectedDelivery: in.ExpectedDelivery,
		Notes:            in.Notes,
		CreatedBy:        actor.UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for i, it := range in.Items {
		order.Items = append(order.Items, &entity.PurchaseOrderItem{
			ID:              uuid.New().String(),
			PurchaseOrderID: order.ID,
			LineNo:          i + 1,
			ProductID:       it.ProductID,
			OrderedQuantity: it.Quantity,
			UnitCost:        it.UnitCost,
			TotalCost:       it.UnitCost.Mul(decimal.NewFromInt(it.Quantity)),
		})
	}
	order.TotalAmount = order.ComputeTotal()

	err = uc.txRunner.RunPurchasing(ctx, func(
		_ repository.StockMovementRepository,
		_ repository.ProductRepository,
		orderRepo repository.PurchaseOrderRepository,
	) error {
		number, err := orderRepo.NextOrderNumber(ctx)
		if err != nil {
			return err
		}
		order.OrderNumber = number
		return orderRepo.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Str("supplier_id", order.SupplierID).
		Int("lines", len(order.Items)).
		Str("total", order.TotalAmount.String()).
		Msg("orden de compra creada")
	resp := dto.NewPurchaseOrderResponse(order)
	return &resp, nil
}
