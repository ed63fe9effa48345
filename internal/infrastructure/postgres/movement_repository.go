package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger sobre PostgreSQL. Solo INSERT y SELECT: la tabla no admite UPDATE ni DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, sequence, product_id, user_id, type, delta, previous_quantity, new_quantity, reason, notes, purchase_order_id, created_at`

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var poID *string
	err := row.Scan(
		&m.ID, &m.Sequence, &m.ProductID, &m.ActorID, &m.Kind, &m.Delta,
		&m.PreviousQuantity, &m.NewQuantity, &m.Reason, &m.Notes, &poID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.PurchaseOrderID = derefString(poID)
	return &m, nil
}

// Append inserta el movimiento; la secuencia la asigna la BD (bigserial).
func (r *MovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	if err := m.CheckSnapshot(); err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, product_id, user_id, type, delta, previous_quantity, new_quantity, reason, notes, purchase_order_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING sequence`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.ProductID, m.ActorID, m.Kind, m.Delta, m.PreviousQuantity, m.NewQuantity,
		m.Reason, m.Notes, nullIfEmpty(m.PurchaseOrderID), m.CreatedAt,
	).Scan(&m.Sequence)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	if !validUUID(id) {
		return nil, nil
	}
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

// List filtra el ledger; más recientes primero, con el total que cumple el filtro.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, int, error) {
	if f.ProductID != "" && !validUUID(f.ProductID) {
		return []*entity.StockMovement{}, 0, nil
	}
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.ActorID != "" {
		add("user_id = $%d", f.ActorID)
	}
	if f.Kind != "" {
		add("type = $%d", f.Kind)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM stock_movements`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stock movements: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	query := `SELECT ` + movementColumns + ` FROM stock_movements` + where +
		fmt.Sprintf(` ORDER BY sequence DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.StockMovement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	return list, total, rows.Err()
}

// ListByProductInOrder todos los movimientos del producto en orden de escritura (para reconstruir la cantidad).
func (r *MovementRepo) ListByProductInOrder(ctx context.Context, productID string) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+movementColumns+` FROM stock_movements WHERE product_id = $1 ORDER BY sequence`, productID)
	if err != nil {
		return nil, fmt.Errorf("list product movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
