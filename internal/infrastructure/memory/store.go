// Package memory implementa los puertos de persistencia en memoria con transacciones reales:
// cada transacción trabaja sobre una copia del estado y el commit la publica de una vez.
// Se usa en tests y con STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/purchasing"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)
var _ purchasing.PurchasingTxRunner = (*Store)(nil)

type state struct {
	products  map[string]*entity.Product
	skus      map[string]string // sku → product id
	movements []*entity.StockMovement
	orders    map[string]*entity.PurchaseOrder
	movSeq    int64
	orderSeq  int64
}

func newState() *state {
	return &state{
		products: make(map[string]*entity.Product),
		skus:     make(map[string]string),
		orders:   make(map[string]*entity.PurchaseOrder),
	}
}

// clone copia profunda de lo mutable; los movimientos son inmutables y se comparten.
func (s *state) clone() *state {
	c := &state{
		products:  make(map[string]*entity.Product, len(s.products)),
		skus:      make(map[string]string, len(s.skus)),
		movements: append([]*entity.StockMovement(nil), s.movements...),
		orders:    make(map[string]*entity.PurchaseOrder, len(s.orders)),
		movSeq:    s.movSeq,
		orderSeq:  s.orderSeq,
	}
	for id, p := range s.products {
		c.products[id] = copyProduct(p)
	}
	for k, v := range s.skus {
		c.skus[k] = v
	}
	for id, po := range s.orders {
		c.orders[id] = copyOrder(po)
	}
	return c
}

// Store estado compartido. mu se mantiene durante toda una transacción, por lo que las
// transacciones se serializan; los datos de referencia (proveedores, categorías) tienen su propio lock.
type Store struct {
	mu sync.Mutex
	st *state

	refMu      sync.RWMutex
	suppliers  map[string]*entity.Supplier
	categories map[string]*entity.Category
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		st:         newState(),
		suppliers:  make(map[string]*entity.Supplier),
		categories: make(map[string]*entity.Category),
	}
}

// Run ejecuta fn con repos atados a una copia del estado; si fn no devuelve error la copia se publica.
func (s *Store) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	return s.inTx(ctx, func(tx *state) error {
		return fn(&MovementRepo{store: s, tx: tx}, &ProductRepo{store: s, tx: tx})
	})
}

// RunPurchasing como Run, incluyendo el repositorio de órdenes de compra.
func (s *Store) RunPurchasing(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.PurchaseOrderRepository,
) error) error {
	return s.inTx(ctx, func(tx *state) error {
		return fn(&MovementRepo{store: s, tx: tx}, &ProductRepo{store: s, tx: tx}, &PurchaseOrderRepo{store: s, tx: tx})
	})
}

func (s *Store) inTx(ctx context.Context, fn func(tx *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := s.st.clone()
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = tx
	return nil
}

// view ejecuta fn sobre el estado de la tx o, fuera de ella, sobre el estado confirmado.
// Los repos sin tx no deben usarse dentro de Run (el lock no es reentrante).
func (s *Store) view(tx *state, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// Products repositorio de productos fuera de transacción.
func (s *Store) Products() *ProductRepo { return &ProductRepo{store: s} }

// Movements repositorio del ledger fuera de transacción.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{store: s} }

// PurchaseOrders repositorio de órdenes fuera de transacción.
func (s *Store) PurchaseOrders() *PurchaseOrderRepo { return &PurchaseOrderRepo{store: s} }

// Suppliers repositorio de proveedores.
func (s *Store) Suppliers() *SupplierRepo { return &SupplierRepo{store: s} }

// Categories repositorio de categorías.
func (s *Store) Categories() *CategoryRepo { return &CategoryRepo{store: s} }

// AddSupplier registra un proveedor (datos de referencia).
func (s *Store) AddSupplier(sup *entity.Supplier) {
	s.refMu.Lock()
	defer s.refMu.Unlock()
	c := *sup
	s.suppliers[sup.ID] = &c
}

// AddCategory registra una categoría (datos de referencia).
func (s *Store) AddCategory(cat *entity.Category) {
	s.refMu.Lock()
	defer s.refMu.Unlock()
	c := *cat
	s.categories[cat.ID] = &c
}

func copyProduct(p *entity.Product) *entity.Product {
	c := *p
	if p.ArchivedAt != nil {
		t := *p.ArchivedAt
		c.ArchivedAt = &t
	}
	return &c
}

func copyOrder(po *entity.PurchaseOrder) *entity.PurchaseOrder {
	c := *po
	c.Items = make([]*entity.PurchaseOrderItem, 0, len(po.Items))
	for _, it := range po.Items {
		ic := *it
		c.Items = append(c.Items, &ic)
	}
	return &c
}
