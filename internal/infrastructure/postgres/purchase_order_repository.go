package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo órdenes de compra y sus líneas sobre PostgreSQL (usable con pool o tx).
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

const orderColumns = `id, order_number, supplier_id, status, order_date, expected_delivery, notes, total_amount,
	created_by, confirmed_at, confirmed_by, received_at, received_by, cancelled_at, cancelled_by, created_at, updated_at`

func scanOrder(row pgx.Row) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	var confirmedBy, receivedBy, cancelledBy *string
	err := row.Scan(
		&po.ID, &po.OrderNumber, &po.SupplierID, &po.Status, &po.OrderDate, &po.ExpectedDelivery, &po.Notes,
		&po.TotalAmount, &po.CreatedBy, &po.ConfirmedAt, &confirmedBy, &po.ReceivedAt, &receivedBy,
		&po.CancelledAt, &cancelledBy, &po.CreatedAt, &po.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	po.ConfirmedBy = derefString(confirmedBy)
	po.ReceivedBy = derefString(receivedBy)
	po.CancelledBy = derefString(cancelledBy)
	return &po, nil
}

// Create persiste cabecera y líneas (misma transacción del caller).
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (id, order_number, supplier_id, status, order_date, expected_delivery, notes, total_amount, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		po.ID, po.OrderNumber, po.SupplierID, po.Status, po.OrderDate, po.ExpectedDelivery, po.Notes,
		po.TotalAmount, po.CreatedBy, po.CreatedAt, po.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert purchase order: %w", err)
	}
	itemQuery := `
		INSERT INTO purchase_order_items (id, purchase_order_id, line_no, product_id, ordered_quantity, unit_cost, total_cost, received_quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, it := range po.Items {
		if _, err := r.q.Exec(ctx, itemQuery,
			it.ID, po.ID, it.LineNo, it.ProductID, it.OrderedQuantity, it.UnitCost, it.TotalCost, it.ReceivedQuantity,
		); err != nil {
			return fmt.Errorf("insert purchase order item: %w", err)
		}
	}
	return nil
}

// NextOrderNumber reserva el siguiente número de la secuencia (puede dejar huecos si la tx se revierte).
func (r *PurchaseOrderRepo) NextOrderNumber(ctx context.Context) (string, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('purchase_order_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next order number: %w", err)
	}
	return fmt.Sprintf("PO-%06d", n), nil
}

// GetByID obtiene la orden con sus líneas.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate obtiene la orden y bloquea cabecera y líneas (SELECT FOR UPDATE).
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *PurchaseOrderRepo) get(ctx context.Context, id, lock string) (*entity.PurchaseOrder, error) {
	if !validUUID(id) {
		return nil, nil
	}
	po, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1`+lock, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get purchase order", "po:"+id, err)
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, purchase_order_id, line_no, product_id, ordered_quantity, unit_cost, total_cost, received_quantity
		FROM purchase_order_items WHERE purchase_order_id = $1 ORDER BY line_no`+lock, id)
	if err != nil {
		return nil, wrapErr("get purchase order items", "po:"+id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.PurchaseOrderItem
		if err := rows.Scan(&it.ID, &it.PurchaseOrderID, &it.LineNo, &it.ProductID, &it.OrderedQuantity,
			&it.UnitCost, &it.TotalCost, &it.ReceivedQuantity); err != nil {
			return nil, fmt.Errorf("scan purchase order item: %w", err)
		}
		po.Items = append(po.Items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("get purchase order items", "po:"+id, err)
	}
	return po, nil
}

// UpdateHeader actualiza proveedor, fechas y notas.
func (r *PurchaseOrderRepo) UpdateHeader(ctx context.Context, po *entity.PurchaseOrder) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE purchase_orders SET supplier_id = $2, order_date = $3, expected_delivery = $4, notes = $5, updated_at = $6
		WHERE id = $1`,
		po.ID, po.SupplierID, po.OrderDate, po.ExpectedDelivery, po.Notes, po.UpdatedAt,
	)
	if err != nil {
		return wrapErr("update purchase order header", "po:"+po.ID, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStatus actualiza estado y sellos de confirmación/recepción/cancelación.
func (r *PurchaseOrderRepo) UpdateStatus(ctx context.Context, po *entity.PurchaseOrder) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE purchase_orders SET status = $2, confirmed_at = $3, confirmed_by = $4, received_at = $5, received_by = $6,
			cancelled_at = $7, cancelled_by = $8, updated_at = $9
		WHERE id = $1`,
		po.ID, po.Status, po.ConfirmedAt, nullIfEmpty(po.ConfirmedBy), po.ReceivedAt, nullIfEmpty(po.ReceivedBy),
		po.CancelledAt, nullIfEmpty(po.CancelledBy), po.UpdatedAt,
	)
	if err != nil {
		return wrapErr("update purchase order status", "po:"+po.ID, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateItemReceived fija lo recibido de una línea. El CHECK de la tabla impide superar lo ordenado.
func (r *PurchaseOrderRepo) UpdateItemReceived(ctx context.Context, itemID string, received int64) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE purchase_order_items SET received_quantity = $2 WHERE id = $1 AND received_quantity <= $2`,
		itemID, received,
	)
	if err != nil {
		return wrapErr("update purchase order item", "po_item:"+itemID, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista órdenes (sin líneas) filtrando por estado y proveedor.
func (r *PurchaseOrderRepo) List(ctx context.Context, f repository.PurchaseOrderFilter) ([]*entity.PurchaseOrder, int, error) {
	if f.SupplierID != "" && !validUUID(f.SupplierID) {
		return []*entity.PurchaseOrder{}, 0, nil
	}
	var conds []string
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.SupplierID != "" {
		args = append(args, f.SupplierID)
		conds = append(conds, fmt.Sprintf("supplier_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM purchase_orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count purchase orders: %w", err)
	}
	args = append(args, f.Limit, f.Offset)
	query := `SELECT ` + orderColumns + ` FROM purchase_orders` + where +
		fmt.Sprintf(` ORDER BY order_number DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.PurchaseOrder, 0)
	for rows.Next() {
		po, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan purchase order: %w", err)
		}
		list = append(list, po)
	}
	return list, total, rows.Err()
}

// OpenOrdersForProduct órdenes no cerradas (draft a partially_received) con unidades pendientes del producto.
func (r *PurchaseOrderRepo) OpenOrdersForProduct(ctx context.Context, productID string) ([]string, error) {
	numbers := make([]string, 0)
	if !validUUID(productID) {
		return numbers, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT DISTINCT po.order_number
		FROM purchase_orders po
		JOIN purchase_order_items i ON i.purchase_order_id = po.id
		WHERE i.product_id = $1
		  AND i.received_quantity < i.ordered_quantity
		  AND po.status NOT IN ('received', 'cancelled')
		ORDER BY po.order_number`, productID)
	if err != nil {
		return nil, fmt.Errorf("open orders for product: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan order number: %w", err)
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}
