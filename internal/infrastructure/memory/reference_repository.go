package memory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.SupplierRepository = (*SupplierRepo)(nil)
var _ repository.CategoryRepository = (*CategoryRepo)(nil)

// SupplierRepo proveedores en memoria.
type SupplierRepo struct{ store *Store }

func (r *SupplierRepo) GetByID(_ context.Context, id string) (*entity.Supplier, error) {
	r.store.refMu.RLock()
	defer r.store.refMu.RUnlock()
	s, ok := r.store.suppliers[id]
	if !ok {
		return nil, nil
	}
	c := *s
	return &c, nil
}

// CategoryRepo categorías en memoria.
type CategoryRepo struct{ store *Store }

func (r *CategoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	r.store.refMu.RLock()
	defer r.store.refMu.RUnlock()
	c, ok := r.store.categories[id]
	if !ok {
		return nil, nil
	}
	cc := *c
	return &cc, nil
}
