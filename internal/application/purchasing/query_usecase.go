package purchasing

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/purchasing"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// QueryUseCase consultas de órdenes de compra (solo lectura).
type QueryUseCase struct {
	orderRepo repository.PurchaseOrderRepository
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(orderRepo repository.PurchaseOrderRepository) *QueryUseCase {
	return &QueryUseCase{orderRepo: orderRepo}
}

// GetByID devuelve la orden con sus líneas.
func (uc *QueryUseCase) GetByID(ctx context.Context, actor entity.Actor, id string) (*dto.PurchaseOrderResponse, error) {
	if !actor.IsValid() {
		return nil, domain.ErrUnauthorized
	}
	order, err := uc.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	resp := dto.NewPurchaseOrderResponse(order)
	return &resp, nil
}

// List lista órdenes filtrando por estado y proveedor, más recientes primero.
func (uc *QueryUseCase) List(ctx context.Context, actor entity.Actor, in dto.PurchaseOrderListRequest) (*dto.PurchaseOrderListResponse, error) {
	if !actor.IsValid() {
		return nil, domain.ErrUnauthorized
	}
	if in.Status != "" && !purchasing.IsValidStatus(in.Status) {
		return nil, domain.NewValidationError("status", "estado desconocido")
	}
	in.DefaultPage()
	list, total, err := uc.orderRepo.List(ctx, repository.PurchaseOrderFilter{
		Status:     in.Status,
		SupplierID: in.SupplierID,
		Limit:      in.Limit,
		Offset:     in.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.PurchaseOrderResponse, 0, len(list))
	for _, po := range list {
		items = append(items, dto.NewPurchaseOrderResponse(po))
	}
	return &dto.PurchaseOrderListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}
