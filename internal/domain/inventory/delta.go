package inventory

import (
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Modos de ajuste de stock expuestos al usuario.
const (
	ModeIncrease = "increase"
	ModeDecrease = "decrease"
	ModeSetTo    = "set_to"
)

// ComputeDelta traduce un ajuste (modo + cantidad) sobre la cantidad actual en un delta con signo
// y el tipo de movimiento del ledger (servicio de dominio).
//
//	increase: delta = +amount, tipo in  (amount > 0)
//	decrease: delta = -amount, tipo out (0 < amount <= current)
//	set_to:   delta = amount - current, tipo in si delta >= 0, out si es negativo (amount >= 0)
func ComputeDelta(mode string, amount, current int64) (int64, string, error) {
	if err := ValidateAdjustment(mode, amount); err != nil {
		return 0, "", err
	}
	switch mode {
	case ModeIncrease:
		return amount, entity.MovementKindIn, nil
	case ModeDecrease:
		if amount > current {
			return 0, "", &domain.InsufficientStockError{Available: current, Requested: amount}
		}
		return -amount, entity.MovementKindOut, nil
	default:
		delta := amount - current
		if delta >= 0 {
			return delta, entity.MovementKindIn, nil
		}
		return delta, entity.MovementKindOut, nil
	}
}

// ValidateAdjustment valida modo y cantidad sin conocer el stock actual (antes de bloquear nada).
func ValidateAdjustment(mode string, amount int64) error {
	switch mode {
	case ModeIncrease, ModeDecrease:
		if amount <= 0 {
			return domain.NewValidationError("amount", "debe ser mayor que 0")
		}
	case ModeSetTo:
		if amount < 0 {
			return domain.NewValidationError("amount", "no puede ser negativo")
		}
	default:
		return domain.NewValidationError("mode", "debe ser increase, decrease o set_to")
	}
	return nil
}
