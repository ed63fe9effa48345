package purchasing

import (
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// manualTransitions tabla de transiciones manuales permitidas (el resto se rechaza).
// partially_received y received solo los fija el conciliador de recepciones.
var manualTransitions = map[string][]string{
	entity.POStatusDraft: {entity.POStatusSent, entity.POStatusCancelled},
	entity.POStatusSent:  {entity.POStatusConfirmed, entity.POStatusCancelled},
}

// IsValidStatus indica si el estado existe.
func IsValidStatus(status string) bool {
	switch status {
	case entity.POStatusDraft, entity.POStatusSent, entity.POStatusConfirmed,
		entity.POStatusPartiallyReceived, entity.POStatusReceived, entity.POStatusCancelled:
		return true
	}
	return false
}

// IsClosed indica un estado terminal: la orden ya no admite transiciones ni ediciones.
func IsClosed(status string) bool {
	return status == entity.POStatusReceived || status == entity.POStatusCancelled
}

// CheckTransition valida una transición manual from → to.
func CheckTransition(orderID, from, to string) error {
	if IsClosed(from) {
		return &domain.OrderClosedError{OrderID: orderID, Status: from, Attempted: "transición a " + to}
	}
	for _, allowed := range manualTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return &domain.InvalidTransitionError{From: from, To: to}
}

// CheckHeaderEditable valida que la cabecera se pueda editar (solo draft y sent).
func CheckHeaderEditable(order *entity.PurchaseOrder) error {
	if IsClosed(order.Status) {
		return &domain.OrderClosedError{OrderID: order.ID, Status: order.Status, Attempted: "editar la cabecera"}
	}
	if order.Status != entity.POStatusDraft && order.Status != entity.POStatusSent {
		return &domain.OrderStateError{Status: order.Status, Operation: "editar la cabecera"}
	}
	return nil
}

// CheckReceivable valida que la orden admita recepciones (confirmed o partially_received).
func CheckReceivable(order *entity.PurchaseOrder) error {
	if IsClosed(order.Status) {
		return &domain.OrderClosedError{OrderID: order.ID, Status: order.Status, Attempted: "recibir mercancía"}
	}
	if order.Status != entity.POStatusConfirmed && order.Status != entity.POStatusPartiallyReceived {
		return &domain.OrderStateError{Status: order.Status, Operation: "recibir mercancía"}
	}
	return nil
}

// DeriveReceivingStatus calcula el estado tras una pasada de recepción sobre TODAS las líneas:
// received si Σ recibido == Σ ordenado; partially_received si algo se recibió; si no, confirmed.
func DeriveReceivingStatus(items []*entity.PurchaseOrderItem) string {
	var ordered, received int64
	for _, it := range items {
		ordered += it.OrderedQuantity
		received += it.ReceivedQuantity
	}
	switch {
	case ordered > 0 && received == ordered:
		return entity.POStatusReceived
	case received > 0:
		return entity.POStatusPartiallyReceived
	default:
		return entity.POStatusConfirmed
	}
}
