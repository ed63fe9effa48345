package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/purchasing"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo órdenes de compra en memoria.
type PurchaseOrderRepo struct {
	store *Store
	tx    *state
}

func (r *PurchaseOrderRepo) Create(_ context.Context, order *entity.PurchaseOrder) error {
	return r.store.view(r.tx, func(st *state) error {
		if _, ok := st.orders[order.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, po := range st.orders {
			if po.OrderNumber == order.OrderNumber {
				return domain.ErrDuplicate
			}
		}
		st.orders[order.ID] = copyOrder(order)
		return nil
	})
}

func (r *PurchaseOrderRepo) NextOrderNumber(_ context.Context) (string, error) {
	var n int64
	err := r.store.view(r.tx, func(st *state) error {
		st.orderSeq++
		n = st.orderSeq
		return nil
	})
	return fmt.Sprintf("PO-%06d", n), err
}

func (r *PurchaseOrderRepo) GetByID(_ context.Context, id string) (*entity.PurchaseOrder, error) {
	var out *entity.PurchaseOrder
	err := r.store.view(r.tx, func(st *state) error {
		if po, ok := st.orders[id]; ok {
			out = copyOrder(po)
		}
		return nil
	})
	return out, err
}

func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.GetByID(ctx, id)
}

func (r *PurchaseOrderRepo) UpdateHeader(_ context.Context, order *entity.PurchaseOrder) error {
	return r.update(order.ID, func(po *entity.PurchaseOrder) {
		po.SupplierID = order.SupplierID
		po.OrderDate = order.OrderDate
		po.ExpectedDelivery = order.ExpectedDelivery
		po.Notes = order.Notes
		po.UpdatedAt = order.UpdatedAt
	})
}

func (r *PurchaseOrderRepo) UpdateStatus(_ context.Context, order *entity.PurchaseOrder) error {
	return r.update(order.ID, func(po *entity.PurchaseOrder) {
		po.Status = order.Status
		po.ConfirmedAt, po.ConfirmedBy = order.ConfirmedAt, order.ConfirmedBy
		po.ReceivedAt, po.ReceivedBy = order.ReceivedAt, order.ReceivedBy
		po.CancelledAt, po.CancelledBy = order.CancelledAt, order.CancelledBy
		po.UpdatedAt = order.UpdatedAt
	})
}

func (r *PurchaseOrderRepo) UpdateItemReceived(_ context.Context, itemID string, received int64) error {
	return r.store.view(r.tx, func(st *state) error {
		for _, po := range st.orders {
			if it := po.Item(itemID); it != nil {
				if received < it.ReceivedQuantity || received > it.OrderedQuantity {
					return fmt.Errorf("update item received: %d fuera de rango [%d, %d]", received, it.ReceivedQuantity, it.OrderedQuantity)
				}
				it.ReceivedQuantity = received
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (r *PurchaseOrderRepo) List(_ context.Context, f repository.PurchaseOrderFilter) ([]*entity.PurchaseOrder, int, error) {
	var matched []*entity.PurchaseOrder
	_ = r.store.view(r.tx, func(st *state) error {
		for _, po := range st.orders {
			if f.Status != "" && po.Status != f.Status {
				continue
			}
			if f.SupplierID != "" && po.SupplierID != f.SupplierID {
				continue
			}
			matched = append(matched, copyOrder(po))
		}
		return nil
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].OrderNumber > matched[j].OrderNumber })
	return page(matched, f.Limit, f.Offset), len(matched), nil
}

func (r *PurchaseOrderRepo) OpenOrdersForProduct(_ context.Context, productID string) ([]string, error) {
	numbers := make([]string, 0)
	err := r.store.view(r.tx, func(st *state) error {
		for _, po := range st.orders {
			if purchasing.IsClosed(po.Status) {
				continue
			}
			for _, it := range po.Items {
				if it.ProductID == productID && it.PendingQuantity() > 0 {
					numbers = append(numbers, po.OrderNumber)
					break
				}
			}
		}
		return nil
	})
	sort.Strings(numbers)
	return numbers, err
}

func (r *PurchaseOrderRepo) update(id string, fn func(po *entity.PurchaseOrder)) error {
	return r.store.view(r.tx, func(st *state) error {
		po, ok := st.orders[id]
		if !ok {
			return domain.ErrNotFound
		}
		fn(po)
		return nil
	})
}
