package purchasing_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/purchasing"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/lock"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const supplierID = "sup-1"

var (
	admin = entity.Actor{UserID: "u-admin", Role: entity.RoleAdmin}
	staff = entity.Actor{UserID: "u-staff", Role: entity.RoleStaff}
)

// statusEvents registra los cambios de estado publicados.
type statusEvents struct {
	inventory.NopPublisher
	mu      sync.Mutex
	changes []string
}

func (e *statusEvents) OrderStatusChanged(_ context.Context, po *entity.PurchaseOrder, previous string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.changes = append(e.changes, previous+"→"+po.Status)
	return nil
}

// failingWriter delega en el LedgerWriter real y falla al tocar un producto dado.
type failingWriter struct {
	inner     *inventory.LedgerWriter
	productID string
}

func (w failingWriter) Apply(ctx context.Context, movRepo repository.StockMovementRepository, productRepo repository.ProductRepository, in inventory.ApplyInput) (*entity.StockMovement, error) {
	if in.ProductID == w.productID {
		return nil, errors.New("ledger no disponible")
	}
	return w.inner.Apply(ctx, movRepo, productRepo, in)
}

type fixture struct {
	store      *memory.Store
	locker     *lock.MemoryLocker
	events     *statusEvents
	create     *purchasing.CreateOrderUseCase
	transition *purchasing.TransitionOrderUseCase
	receive    *purchasing.ReceiveOrderUseCase
	query      *purchasing.QueryUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddSupplier(&entity.Supplier{ID: supplierID, Name: "Distribuidora Norte"})
	store.AddSupplier(&entity.Supplier{ID: "sup-2", Name: "Mayorista Sur"})
	f := &fixture{
		store:  store,
		locker: lock.NewMemoryLocker(2 * time.Second),
		events: &statusEvents{},
	}
	log := logger.Nop()
	f.create = purchasing.NewCreateOrderUseCase(store, store.Suppliers(), store.Products(), log)
	f.transition = purchasing.NewTransitionOrderUseCase(store, store.Suppliers(), f.locker, inventory.NopMetrics{}, f.events, log)
	f.receive = f.receiver(inventory.NewLedgerWriter())
	f.query = purchasing.NewQueryUseCase(store.PurchaseOrders())
	return f
}

func (f *fixture) receiver(writer purchasing.LedgerWriter) *purchasing.ReceiveOrderUseCase {
	return purchasing.NewReceiveOrderUseCase(f.store, f.store.PurchaseOrders(), writer, f.locker, inventory.NopMetrics{}, f.events, logger.Nop())
}

// product crea un producto con stock inicial directamente en el store, con su movimiento.
func (f *fixture) product(t *testing.T, id string, qty int64) {
	t.Helper()
	now := time.Now()
	err := f.store.Run(context.Background(), func(movRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
		if err := productRepo.Create(context.Background(), &entity.Product{
			ID: id, SKU: "SKU-" + id, Name: "Producto " + id, UnitPrice: decimal.NewFromInt(100), CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return err
		}
		if qty == 0 {
			return nil
		}
		_, err := inventory.NewLedgerWriter().Apply(context.Background(), movRepo, productRepo, inventory.ApplyInput{
			ProductID: id, Delta: qty, Kind: entity.MovementKindIn, ActorID: admin.UserID, Reason: entity.ReasonInitialStock,
		})
		return err
	})
	require.NoError(t, err)
}

func (f *fixture) quantity(t *testing.T, id string) int64 {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Quantity
}

func (f *fixture) order(t *testing.T, items ...dto.PurchaseOrderItemRequest) *dto.PurchaseOrderResponse {
	t.Helper()
	po, err := f.create.Create(context.Background(), admin, dto.CreatePurchaseOrderRequest{SupplierID: supplierID, Items: items})
	require.NoError(t, err)
	return po
}

func (f *fixture) confirmed(t *testing.T, items ...dto.PurchaseOrderItemRequest) *dto.PurchaseOrderResponse {
	t.Helper()
	po := f.order(t, items...)
	_, err := f.transition.Transition(context.Background(), admin, po.ID, entity.POStatusSent)
	require.NoError(t, err)
	po, err = f.transition.Transition(context.Background(), admin, po.ID, entity.POStatusConfirmed)
	require.NoError(t, err)
	return po
}

func item(productID string, qty int64, cost string) dto.PurchaseOrderItemRequest {
	return dto.PurchaseOrderItemRequest{ProductID: productID, Quantity: qty, UnitCost: decimal.RequireFromString(cost)}
}

func TestCreate_TotalesYNumeracion(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0)
	f.product(t, "p2", 0)

	po := f.order(t, item("p1", 3, "2.50"), item("p2", 2, "10"))
	assert.Equal(t, entity.POStatusDraft, po.Status)
	assert.Equal(t, "PO-000001", po.OrderNumber)
	assert.Equal(t, admin.UserID, po.CreatedBy)
	assert.True(t, decimal.RequireFromString("27.50").Equal(po.TotalAmount), po.TotalAmount.String())
	require.Len(t, po.Items, 2)
	assert.True(t, decimal.RequireFromString("7.50").Equal(po.Items[0].TotalCost))
	assert.Equal(t, int64(3), po.Items[0].PendingQuantity)
	assert.Equal(t, 1, po.Items[0].LineNo)
	assert.Equal(t, 2, po.Items[1].LineNo)

	second := f.order(t, item("p1", 1, "1"))
	assert.Equal(t, "PO-000002", second.OrderNumber)
}

func TestCreate_Rechazos(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0)
	ctx := context.Background()

	_, err := f.create.Create(ctx, staff, dto.CreatePurchaseOrderRequest{SupplierID: supplierID, Items: []dto.PurchaseOrderItemRequest{item("p1", 1, "1")}})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	past := time.Now().Add(-time.Hour)
	_, err = f.create.Create(ctx, admin, dto.CreatePurchaseOrderRequest{
		SupplierID:       supplierID,
		ExpectedDelivery: &past,
		Items:            []dto.PurchaseOrderItemRequest{item("p1", 0, "0")},
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "expected_delivery")
	assert.Contains(t, verr.Fields, "items[0].quantity")
	assert.Contains(t, verr.Fields, "items[0].unit_cost")

	_, err = f.create.Create(ctx, admin, dto.CreatePurchaseOrderRequest{
		SupplierID: "sup-x",
		Items:      []dto.PurchaseOrderItemRequest{item("p1", 1, "1"), item("nope", 1, "1")},
	})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "supplier_id")
	assert.Contains(t, verr.Fields, "items[1].product_id")

	_, err = f.create.Create(ctx, admin, dto.CreatePurchaseOrderRequest{SupplierID: supplierID})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "items")
}

// Los costos se persisten a 2 decimales: una fracción de centavo rompería total = Σ líneas.
func TestCreate_CostoConFraccionDeCentavo(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0)
	f.product(t, "p2", 0)
	ctx := context.Background()

	_, err := f.create.Create(ctx, admin, dto.CreatePurchaseOrderRequest{
		SupplierID: supplierID,
		Items:      []dto.PurchaseOrderItemRequest{item("p1", 1, "0.005"), item("p2", 3, "1.005"), item("p1", 2, "0.004")},
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "items[0].unit_cost")
	assert.Contains(t, verr.Fields, "items[1].unit_cost")
	assert.Contains(t, verr.Fields, "items[2].unit_cost")

	list, err := f.query.List(ctx, staff, dto.PurchaseOrderListRequest{})
	require.NoError(t, err)
	assert.Zero(t, list.Page.Total)

	// Ceros a la derecha no agregan precisión
	po := f.order(t, item("p2", 3, "1.010"))
	assert.True(t, decimal.RequireFromString("3.03").Equal(po.TotalAmount), po.TotalAmount.String())
	assert.True(t, po.TotalAmount.Equal(po.Items[0].TotalCost))
}

func TestTransition_CicloManual(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0)
	po := f.order(t, item("p1", 5, "1"))
	ctx := context.Background()

	_, err := f.transition.Transition(ctx, admin, po.ID, entity.POStatusConfirmed)
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, entity.POStatusDraft, invalid.From)

	_, err = f.transition.Transition(ctx, staff, po.ID, entity.POStatusSent)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	sent, err := f.transition.Transition(ctx, admin, po.ID, entity.POStatusSent)
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusSent, sent.Status)

	confirmed, err := f.transition.Transition(ctx, admin, po.ID, entity.POStatusConfirmed)
	require.NoError(t, err)
	require.NotNil(t, confirmed.ConfirmedAt)
	assert.Equal(t, admin.UserID, confirmed.ConfirmedBy)

	// partially_received y received solo los fija la recepción
	_, err = f.transition.Transition(ctx, admin, po.ID, entity.POStatusReceived)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.transition.Transition(ctx, admin, po.ID, entity.POStatusCancelled)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.Equal(t, []string{"draft→sent", "sent→confirmed"}, f.events.changes)
}

func TestTransition_CanceladaEsTerminal(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0)
	po := f.order(t, item("p1", 5, "1"))
	ctx := context.Background()

	cancelled, err := f.transition.Transition(ctx, admin, po.ID, entity.POStatusCancelled)
	require.NoError(t, err)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, admin.UserID, cancelled.CancelledBy)

	_, err = f.transition.Transition(ctx, admin, po.ID, entity.POStatusSent)
	var closed *domain.OrderClosedError
	require.ErrorAs(t, err, &closed)
	assert.Equal(t, entity.POStatusCancelled, closed.Status)

	notes := "tarde"
	_, err = f.transition.UpdateHeader(ctx, admin, po.ID, dto.UpdatePurchaseOrderRequest{Notes: &notes})
	assert.ErrorIs(t, err, domain.ErrOrderClosed)

	_, err = f.receive.Receive(ctx, staff, po.ID, []purchasing.ReceiptLine{{ItemID: po.Items[0].ID, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrOrderClosed)
}

func TestUpdateHeader(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0)
	po := f.order(t, item("p1", 5, "1"))
	ctx := context.Background()

	other := "sup-2"
	notes := "entregar en bodega 2"
	updated, err := f.transition.UpdateHeader(ctx, admin, po.ID, dto.UpdatePurchaseOrderRequest{SupplierID: &other, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, other, updated.SupplierID)
	assert.Equal(t, notes, updated.Notes)
	assert.Len(t, updated.Items, 1)

	missing := "sup-x"
	_, err = f.transition.UpdateHeader(ctx, admin, po.ID, dto.UpdatePurchaseOrderRequest{SupplierID: &missing})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	early := updated.OrderDate.Add(-24 * time.Hour)
	_, err = f.transition.UpdateHeader(ctx, admin, po.ID, dto.UpdatePurchaseOrderRequest{ExpectedDelivery: &early})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.transition.Transition(ctx, admin, po.ID, entity.POStatusSent)
	require.NoError(t, err)
	_, err = f.transition.Transition(ctx, admin, po.ID, entity.POStatusConfirmed)
	require.NoError(t, err)
	_, err = f.transition.UpdateHeader(ctx, admin, po.ID, dto.UpdatePurchaseOrderRequest{Notes: &notes})
	var state *domain.OrderStateError
	require.ErrorAs(t, err, &state)
	assert.Equal(t, entity.POStatusConfirmed, state.Status)
}

// Recepciones sucesivas sobre 10 unidades ordenadas: 4, luego 7 (excede), luego 6.
func TestReceive_ParcialExcesoYCierre(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 2)
	po := f.confirmed(t, item("p1", 10, "3"))
	itemID := po.Items[0].ID
	ctx := context.Background()

	res, err := f.receive.Receive(ctx, staff, po.ID, []purchasing.ReceiptLine{{ItemID: itemID, Quantity: 4}})
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusPartiallyReceived, res.Status)
	require.Len(t, res.Received, 1)
	assert.Equal(t, int64(4), res.Received[0].ReceivedQuantity)
	assert.Equal(t, int64(6), res.Received[0].PendingQuantity)
	require.Len(t, res.Movements, 1)
	assert.Equal(t, entity.ReasonPurchaseOrderReceived, res.Movements[0].Reason)
	assert.Equal(t, po.ID, res.Movements[0].PurchaseOrderID)
	assert.Equal(t, int64(6), f.quantity(t, "p1"))

	_, err = f.receive.Receive(ctx, staff, po.ID, []purchasing.ReceiptLine{{ItemID: itemID, Quantity: 7}})
	var none *domain.NoValidReceiptsError
	require.ErrorAs(t, err, &none)
	require.Len(t, none.Lines, 1)
	var over *domain.OverReceiptError
	require.ErrorAs(t, none.Lines[0], &over)
	assert.Equal(t, int64(6), over.Pending)
	assert.Equal(t, int64(6), f.quantity(t, "p1"))

	res, err = f.receive.Receive(ctx, staff, po.ID, []purchasing.ReceiptLine{{ItemID: itemID, Quantity: 6}})
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusReceived, res.Status)
	assert.Equal(t, int64(12), f.quantity(t, "p1"))

	got, err := f.query.GetByID(ctx, staff, po.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReceivedAt)
	assert.Equal(t, staff.UserID, got.ReceivedBy)
	assert.Equal(t, int64(10), got.Items[0].ReceivedQuantity)

	_, err = f.receive.Receive(ctx, staff, po.ID, []purchasing.ReceiptLine{{ItemID: itemID, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrOrderClosed)

	assert.Equal(t, []string{"draft→sent", "sent→confirmed", "confirmed→partially_received", "partially_received→received"}, f.events.changes)
}

func TestReceive_LineasMixtas(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0)
	f.product(t, "p2", 0)
	po := f.confirmed(t, item("p1", 5, "1"), item("p2", 5, "1"))

	res, err := f.receive.Receive(context.Background(), staff, po.ID, []purchasing.ReceiptLine{
		{ItemID: po.Items[0].ID, Quantity: 5},
		{ItemID: po.Items[0].ID, Quantity: 1},
		{ItemID: po.Items[1].ID, Quantity: 9},
		{ItemID: po.Items[1].ID, Quantity: 0},
		{ItemID: "no-existe", Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusPartiallyReceived, res.Status)
	require.Len(t, res.Received, 1)
	require.Len(t, res.Rejected, 4)
	assert.Nil(t, res.Rejected[0].Pending)
	require.NotNil(t, res.Rejected[1].Pending)
	assert.Equal(t, int64(5), *res.Rejected[1].Pending)
	assert.Equal(t, "no-existe", res.Rejected[3].ItemID)
	assert.Equal(t, int64(5), f.quantity(t, "p1"))
	assert.Equal(t, int64(0), f.quantity(t, "p2"))
}

// Una línea rechazada no cuenta como recibida: la siguiente línea del mismo ítem se evalúa.
func TestReceive_RechazoPrevioNoBloqueaLineaValida(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0)
	po := f.confirmed(t, item("p1", 5, "1"))
	itemID := po.Items[0].ID

	res, err := f.receive.Receive(context.Background(), staff, po.ID, []purchasing.ReceiptLine{
		{ItemID: itemID, Quantity: 0},
		{ItemID: itemID, Quantity: 8},
		{ItemID: itemID, Quantity: 3},
		{ItemID: itemID, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, res.Received, 1)
	assert.Equal(t, int64(3), res.Received[0].Received)
	require.Len(t, res.Rejected, 3)
	require.NotNil(t, res.Rejected[1].Pending)
	assert.Equal(t, int64(5), *res.Rejected[1].Pending)
	assert.Equal(t, int64(1), res.Rejected[2].Quantity)
	assert.Contains(t, res.Rejected[2].Reason, "repetida")
	assert.Equal(t, int64(3), f.quantity(t, "p1"))
}

func TestReceive_OrdenBloqueadaEsBusy(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0)
	po := f.confirmed(t, item("p1", 5, "1"))
	ctx := context.Background()

	locker := lock.NewMemoryLocker(30 * time.Millisecond)
	uc := purchasing.NewReceiveOrderUseCase(f.store, f.store.PurchaseOrders(), inventory.NewLedgerWriter(), locker, inventory.NopMetrics{}, f.events, logger.Nop())

	hold, err := locker.Acquire(ctx, inventory.OrderLockKey(po.ID))
	require.NoError(t, err)
	_, err = uc.Receive(ctx, staff, po.ID, []purchasing.ReceiptLine{{ItemID: po.Items[0].ID, Quantity: 2}})
	hold()
	var busy *domain.BusyError
	require.ErrorAs(t, err, &busy)
	assert.Equal(t, inventory.OrderLockKey(po.ID), busy.Resource)

	// Un producto de la orden tomado por otro ajuste también devuelve Busy
	hold, err = locker.Acquire(ctx, inventory.ProductLockKey("p1"))
	require.NoError(t, err)
	_, err = uc.Receive(ctx, staff, po.ID, []purchasing.ReceiptLine{{ItemID: po.Items[0].ID, Quantity: 2}})
	hold()
	assert.ErrorIs(t, err, domain.ErrBusy)

	got, err := f.query.GetByID(ctx, staff, po.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusConfirmed, got.Status)
	assert.Zero(t, got.Items[0].ReceivedQuantity)
	assert.Zero(t, f.quantity(t, "p1"))
	hist, err := f.store.Movements().ListByProductInOrder(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, hist)

	res, err := uc.Receive(ctx, staff, po.ID, []purchasing.ReceiptLine{{ItemID: po.Items[0].ID, Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusPartiallyReceived, res.Status)
}

func (f *fixture) products() *inventory.ProductUseCase {
	return inventory.NewProductUseCase(f.store.Products(), f.store.Movements(), f.store.Categories(), f.store.PurchaseOrders(),
		f.store, inventory.NewLedgerWriter(), f.locker, inventory.NopMetrics{}, inventory.NopPublisher{}, logger.Nop())
}

// Un producto con unidades pendientes en una orden confirmada no se da de baja: la orden quedaría sin cierre.
func TestDispose_ProductoConOrdenAbierta(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 3)
	f.product(t, "p2", 0)
	po := f.confirmed(t, item("p1", 5, "1"), item("p2", 2, "1"))
	ctx := context.Background()
	products := f.products()

	err := products.Dispose(ctx, admin, "p2")
	var inUse *domain.ProductInUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, []string{po.OrderNumber}, inUse.OrderNumbers)
	assert.ErrorIs(t, err, domain.ErrConflict)

	p2, err := f.store.Products().GetByID(ctx, "p2")
	require.NoError(t, err)
	assert.False(t, p2.IsArchived())

	// Ambas líneas siguen recibiéndose en la misma entrega
	res, err := f.receive.Receive(ctx, staff, po.ID, []purchasing.ReceiptLine{
		{ItemID: po.Items[0].ID, Quantity: 5},
		{ItemID: po.Items[1].ID, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusPartiallyReceived, res.Status)
	assert.Error(t, products.Dispose(ctx, admin, "p2"))

	// p1 ya no tiene pendiente: se puede dar de baja aunque la orden siga abierta
	require.NoError(t, products.Dispose(ctx, admin, "p1"))

	_, err = f.receive.Receive(ctx, staff, po.ID, []purchasing.ReceiptLine{{ItemID: po.Items[1].ID, Quantity: 1}})
	require.NoError(t, err)
	require.NoError(t, products.Dispose(ctx, admin, "p2"))
}

// Si un producto se archivó con la orden aún en draft, confirmarla se rechaza y solo queda cancelar.
func TestTransition_ConfirmarConProductoDeBaja(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0)
	f.product(t, "p2", 0)
	po := f.order(t, item("p1", 1, "1"), item("p2", 1, "1"))
	ctx := context.Background()
	require.NoError(t, f.store.Products().Archive(ctx, "p2", time.Now()))

	_, err := f.transition.Transition(ctx, admin, po.ID, entity.POStatusSent)
	require.NoError(t, err)
	_, err = f.transition.Transition(ctx, admin, po.ID, entity.POStatusConfirmed)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "items[1].product_id")
	assert.NotContains(t, verr.Fields, "items[0].product_id")

	cancelled, err := f.transition.Transition(ctx, admin, po.ID, entity.POStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusCancelled, cancelled.Status)
}

func TestReceive_OrdenNoConfirmada(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0)
	po := f.order(t, item("p1", 5, "1"))

	_, err := f.receive.Receive(context.Background(), staff, po.ID, []purchasing.ReceiptLine{{ItemID: po.Items[0].ID, Quantity: 1}})
	var state *domain.OrderStateError
	require.ErrorAs(t, err, &state)
	assert.Equal(t, entity.POStatusDraft, state.Status)

	_, err = f.receive.Receive(context.Background(), staff, "nope", []purchasing.ReceiptLine{{ItemID: "x", Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.receive.Receive(context.Background(), staff, po.ID, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Un fallo del ledger a mitad de la recepción revierte líneas, cantidades y estado.
func TestReceive_FalloDelLedgerRevierteTodo(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 1)
	f.product(t, "p2", 1)
	po := f.confirmed(t, item("p1", 5, "1"), item("p2", 5, "1"))

	uc := f.receiver(failingWriter{inner: inventory.NewLedgerWriter(), productID: "p2"})
	_, err := uc.Receive(context.Background(), staff, po.ID, []purchasing.ReceiptLine{
		{ItemID: po.Items[0].ID, Quantity: 2},
		{ItemID: po.Items[1].ID, Quantity: 2},
	})
	require.Error(t, err)

	got, err := f.query.GetByID(context.Background(), staff, po.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusConfirmed, got.Status)
	for _, it := range got.Items {
		assert.Zero(t, it.ReceivedQuantity)
	}
	assert.Equal(t, int64(1), f.quantity(t, "p1"))
	assert.Equal(t, int64(1), f.quantity(t, "p2"))

	hist, err := f.store.Movements().ListByProductInOrder(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

// Recepciones concurrentes nunca superan lo ordenado.
func TestReceive_ConcurrenteNoExcedeLoOrdenado(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0)
	po := f.confirmed(t, item("p1", 5, "1"))

	var ok, rejected int32
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.receive.Receive(context.Background(), staff, po.ID, []purchasing.ReceiptLine{{ItemID: po.Items[0].ID, Quantity: 1}})
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, domain.ErrNoValidReceipts), errors.Is(err, domain.ErrOrderClosed):
				atomic.AddInt32(&rejected, 1)
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), ok)
	assert.Equal(t, int32(7), rejected)
	assert.Equal(t, int64(5), f.quantity(t, "p1"))

	got, err := f.query.GetByID(context.Background(), staff, po.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusReceived, got.Status)
}

func TestQuery_ListPorEstado(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0)
	f.order(t, item("p1", 1, "1"))
	f.confirmed(t, item("p1", 2, "1"))
	ctx := context.Background()

	drafts, err := f.query.List(ctx, staff, dto.PurchaseOrderListRequest{Status: entity.POStatusDraft})
	require.NoError(t, err)
	assert.Equal(t, 1, drafts.Page.Total)

	all, err := f.query.List(ctx, staff, dto.PurchaseOrderListRequest{SupplierID: supplierID})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Page.Total)

	_, err = f.query.List(ctx, staff, dto.PurchaseOrderListRequest{Status: "shipped"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.query.GetByID(ctx, staff, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

type capturePDF struct {
	supplier *entity.Supplier
	lines    []purchasing.OrderLineForPDF
}

func (c *capturePDF) GenerateOrderPDF(_ context.Context, _ *entity.PurchaseOrder, supplier *entity.Supplier, lines []purchasing.OrderLineForPDF) ([]byte, error) {
	c.supplier = supplier
	c.lines = lines
	return []byte("%PDF-1.3"), nil
}

func TestPDF_EnriqueceLineas(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0)
	po := f.order(t, item("p1", 4, "2"))
	gen := &capturePDF{}
	uc := purchasing.NewPDFUseCase(f.store.PurchaseOrders(), f.store.Suppliers(), f.store.Products(), gen)

	out, name, err := uc.DownloadOrderPDF(context.Background(), staff, po.ID)
	require.NoError(t, err)
	assert.Equal(t, "orden_PO-000001.pdf", name)
	assert.Equal(t, "%PDF-1.3", string(out))
	assert.Equal(t, "Distribuidora Norte", gen.supplier.Name)
	require.Len(t, gen.lines, 1)
	assert.Equal(t, "SKU-p1", gen.lines[0].SKU)
	assert.Equal(t, int64(4), gen.lines[0].OrderedQuantity)

	_, _, err = uc.DownloadOrderPDF(context.Background(), staff, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// brokenProducts simula una caída del repositorio de productos.
type brokenProducts struct {
	repository.ProductRepository
}

func (brokenProducts) GetByID(context.Context, string) (*entity.Product, error) {
	return nil, errors.New("conexión perdida")
}

func TestPDF_FalloAlLeerProductos(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 0)
	po := f.order(t, item("p1", 4, "2"))
	gen := &capturePDF{}
	uc := purchasing.NewPDFUseCase(f.store.PurchaseOrders(), f.store.Suppliers(), brokenProducts{f.store.Products()}, gen)

	_, _, err := uc.DownloadOrderPDF(context.Background(), staff, po.ID)
	require.Error(t, err)
	assert.ErrorContains(t, err, "conexión perdida")
	assert.Nil(t, gen.lines)
}
