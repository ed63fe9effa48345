package purchasing_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/purchasing"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tabla de transiciones manuales
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckTransition_Permitidas(t *testing.T) {
	allowed := [][2]string{
		{entity.POStatusDraft, entity.POStatusSent},
		{entity.POStatusDraft, entity.POStatusCancelled},
		{entity.POStatusSent, entity.POStatusConfirmed},
		{entity.POStatusSent, entity.POStatusCancelled},
	}
	for _, tr := range allowed {
		assert.NoError(t, purchasing.CheckTransition("po-1", tr[0], tr[1]), "%s → %s", tr[0], tr[1])
	}
}

func TestCheckTransition_Rechazadas(t *testing.T) {
	rejected := [][2]string{
		{entity.POStatusDraft, entity.POStatusConfirmed},
		{entity.POStatusDraft, entity.POStatusReceived},
		{entity.POStatusSent, entity.POStatusPartiallyReceived},
		{entity.POStatusConfirmed, entity.POStatusCancelled},
		{entity.POStatusConfirmed, entity.POStatusReceived},
		{entity.POStatusPartiallyReceived, entity.POStatusReceived},
		{entity.POStatusDraft, "archived"},
	}
	for _, tr := range rejected {
		err := purchasing.CheckTransition("po-1", tr[0], tr[1])
		var invalid *domain.InvalidTransitionError
		require.True(t, errors.As(err, &invalid), "%s → %s", tr[0], tr[1])
		assert.Equal(t, tr[0], invalid.From)
		assert.Equal(t, tr[1], invalid.To)
	}
}

// Una orden cerrada rechaza cualquier transición con OrderClosedError.
func TestCheckTransition_OrdenCerrada(t *testing.T) {
	for _, closed := range []string{entity.POStatusReceived, entity.POStatusCancelled} {
		err := purchasing.CheckTransition("po-1", closed, entity.POStatusSent)
		assert.ErrorIs(t, err, domain.ErrOrderClosed)
		assert.Contains(t, err.Error(), closed)
	}
}

func TestCheckHeaderEditable(t *testing.T) {
	for status, want := range map[string]error{
		entity.POStatusDraft:             nil,
		entity.POStatusSent:              nil,
		entity.POStatusConfirmed:         domain.ErrConflict,
		entity.POStatusPartiallyReceived: domain.ErrConflict,
		entity.POStatusReceived:          domain.ErrOrderClosed,
		entity.POStatusCancelled:         domain.ErrOrderClosed,
	} {
		err := purchasing.CheckHeaderEditable(&entity.PurchaseOrder{ID: "po-1", Status: status})
		if want == nil {
			assert.NoError(t, err, status)
			continue
		}
		assert.ErrorIs(t, err, want, status)
	}
}

func TestCheckReceivable(t *testing.T) {
	assert.NoError(t, purchasing.CheckReceivable(&entity.PurchaseOrder{Status: entity.POStatusConfirmed}))
	assert.NoError(t, purchasing.CheckReceivable(&entity.PurchaseOrder{Status: entity.POStatusPartiallyReceived}))
	assert.ErrorIs(t, purchasing.CheckReceivable(&entity.PurchaseOrder{Status: entity.POStatusSent}), domain.ErrConflict)
	assert.ErrorIs(t, purchasing.CheckReceivable(&entity.PurchaseOrder{Status: entity.POStatusReceived}), domain.ErrOrderClosed)
}

// ──────────────────────────────────────────────────────────────────────────────
// Derivación de estado tras recibir
// ──────────────────────────────────────────────────────────────────────────────

func TestDeriveReceivingStatus(t *testing.T) {
	item := func(ordered, received int64) *entity.PurchaseOrderItem {
		return &entity.PurchaseOrderItem{OrderedQuantity: ordered, ReceivedQuantity: received}
	}
	assert.Equal(t, entity.POStatusConfirmed,
		purchasing.DeriveReceivingStatus([]*entity.PurchaseOrderItem{item(20, 0), item(5, 0)}))
	assert.Equal(t, entity.POStatusPartiallyReceived,
		purchasing.DeriveReceivingStatus([]*entity.PurchaseOrderItem{item(20, 12)}))
	// Una línea completa no basta: cuenta toda la orden.
	assert.Equal(t, entity.POStatusPartiallyReceived,
		purchasing.DeriveReceivingStatus([]*entity.PurchaseOrderItem{item(20, 20), item(5, 0)}))
	assert.Equal(t, entity.POStatusReceived,
		purchasing.DeriveReceivingStatus([]*entity.PurchaseOrderItem{item(20, 20), item(5, 5)}))
}
