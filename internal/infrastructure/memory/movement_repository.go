package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger en memoria (solo inserción).
type MovementRepo struct {
	store *Store
	tx    *state
}

func (r *MovementRepo) Append(_ context.Context, m *entity.StockMovement) error {
	if err := m.CheckSnapshot(); err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	return r.store.view(r.tx, func(st *state) error {
		st.movSeq++
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		m.Sequence = st.movSeq
		c := *m
		st.movements = append(st.movements, &c)
		return nil
	})
}

func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.StockMovement, error) {
	var out *entity.StockMovement
	err := r.store.view(r.tx, func(st *state) error {
		for _, m := range st.movements {
			if m.ID == id {
				c := *m
				out = &c
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *MovementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.StockMovement, int, error) {
	var matched []*entity.StockMovement
	_ = r.store.view(r.tx, func(st *state) error {
		for _, m := range st.movements {
			if f.ProductID != "" && m.ProductID != f.ProductID {
				continue
			}
			if f.ActorID != "" && m.ActorID != f.ActorID {
				continue
			}
			if f.Kind != "" && m.Kind != f.Kind {
				continue
			}
			if f.From != nil && m.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && m.CreatedAt.After(*f.To) {
				continue
			}
			c := *m
			matched = append(matched, &c)
		}
		return nil
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].Sequence > matched[j].Sequence })
	return page(matched, f.Limit, f.Offset), len(matched), nil
}

func (r *MovementRepo) ListByProductInOrder(_ context.Context, productID string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.store.view(r.tx, func(st *state) error {
		for _, m := range st.movements {
			if m.ProductID == productID {
				c := *m
				out = append(out, &c)
			}
		}
		return nil
	})
	return out, err
}
