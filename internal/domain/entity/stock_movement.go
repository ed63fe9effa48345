package entity

import (
	"fmt"
	"time"
)

// Tipos de movimiento del ledger.
const (
	MovementKindIn         = "in"         // entrada
	MovementKindOut        = "out"        // salida
	MovementKindAdjustment = "adjustment" // ajuste (baja, correcciones del sistema)
)

// Motivos generados por el sistema.
const (
	ReasonInitialStock          = "Initial stock"
	ReasonPurchaseOrderReceived = "Purchase order received"
	ReasonDisposal              = "Disposal"
)

// IsValidMovementKind valida el tipo de movimiento.
func IsValidMovementKind(kind string) bool {
	switch kind {
	case MovementKindIn, MovementKindOut, MovementKindAdjustment:
		return true
	}
	return false
}

// StockMovement es una entrada inmutable del ledger: un cambio de cantidad y su causa.
// Las correcciones se registran como movimientos compensatorios, nunca editando uno existente.
type StockMovement struct {
	ID               string
	Sequence         int64 // orden estricto de escritura (bigserial)
	ProductID        string
	ActorID          string
	Kind             string
	Delta            int64
	PreviousQuantity int64
	NewQuantity      int64
	Reason           string
	Notes            string
	PurchaseOrderID  string // vacío si no viene de una orden de compra
	CreatedAt        time.Time
}

// CheckSnapshot verifica NewQuantity == PreviousQuantity + Delta y NewQuantity >= 0.
func (m *StockMovement) CheckSnapshot() error {
	if m.NewQuantity != m.PreviousQuantity+m.Delta {
		return fmt.Errorf("movimiento %s: %d + %d != %d", m.ID, m.PreviousQuantity, m.Delta, m.NewQuantity)
	}
	if m.NewQuantity < 0 {
		return fmt.Errorf("movimiento %s: cantidad resultante negativa (%d)", m.ID, m.NewQuantity)
	}
	return nil
}
