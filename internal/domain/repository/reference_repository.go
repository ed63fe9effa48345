package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// SupplierRepository búsqueda de proveedores por ID (el CRUD vive fuera de este servicio).
type SupplierRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Supplier, error)
}

// CategoryRepository búsqueda de categorías por ID (el CRUD vive fuera de este servicio).
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Category, error)
}
