package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo productos en memoria.
type ProductRepo struct {
	store *Store
	tx    *state
}

func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	return r.store.view(r.tx, func(st *state) error {
		if _, ok := st.skus[product.SKU]; ok {
			return domain.ErrDuplicate
		}
		if _, ok := st.products[product.ID]; ok {
			return domain.ErrDuplicate
		}
		st.products[product.ID] = copyProduct(product)
		st.skus[product.SKU] = product.ID
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.store.view(r.tx, func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = copyProduct(p)
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	var id string
	_ = r.store.view(r.tx, func(st *state) error {
		id = st.skus[sku]
		return nil
	})
	if id == "" {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// GetForUpdate en memoria la fila queda protegida por el lock de la transacción.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) Update(_ context.Context, product *entity.Product) error {
	return r.store.view(r.tx, func(st *state) error {
		p, ok := st.products[product.ID]
		if !ok {
			return domain.ErrNotFound
		}
		p.Name = product.Name
		p.Description = product.Description
		p.CategoryID = product.CategoryID
		p.MinStockLevel = product.MinStockLevel
		p.UnitPrice = product.UnitPrice
		p.UpdatedAt = product.UpdatedAt
		return nil
	})
}

func (r *ProductRepo) UpdateQuantity(_ context.Context, id string, quantity int64, at time.Time) error {
	return r.store.view(r.tx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		if quantity < 0 {
			return fmt.Errorf("update quantity: cantidad negativa %d", quantity)
		}
		p.Quantity = quantity
		p.UpdatedAt = at
		return nil
	})
}

func (r *ProductRepo) Archive(_ context.Context, id string, at time.Time) error {
	return r.store.view(r.tx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		t := at
		p.ArchivedAt = &t
		p.UpdatedAt = at
		return nil
	})
}

func (r *ProductRepo) List(_ context.Context, f repository.ProductFilter) ([]*entity.Product, int, error) {
	var matched []*entity.Product
	search := strings.ToLower(f.Search)
	_ = r.store.view(r.tx, func(st *state) error {
		for _, p := range st.products {
			if p.IsArchived() {
				continue
			}
			if f.CategoryID != "" && p.CategoryID != f.CategoryID {
				continue
			}
			if f.LowStockOnly && !p.IsLowStock() {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(p.SKU), search) && !strings.Contains(strings.ToLower(p.Name), search) {
				continue
			}
			matched = append(matched, copyProduct(p))
		}
		return nil
	})
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].SKU < matched[j].SKU
	})
	return page(matched, f.Limit, f.Offset), len(matched), nil
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
