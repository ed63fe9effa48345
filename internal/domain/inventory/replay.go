package inventory

import (
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ReplayResult resultado de reconstruir la cantidad de un producto desde su ledger.
type ReplayResult struct {
	Movements  int
	Derived    int64  // suma de deltas
	Stored     int64  // cantidad materializada en el producto
	Consistent bool   // cadena previous→new intacta y Derived == Stored
	Problem    string // descripción del primer quiebre, vacío si Consistent
}

// Replay recorre los movimientos (en orden de escritura) verificando que cada uno parte de la
// cantidad en la que quedó el anterior y compara el resultado con la cantidad almacenada.
func Replay(movements []*entity.StockMovement, stored int64) ReplayResult {
	res := ReplayResult{Movements: len(movements), Stored: stored}
	var running int64
	for i, m := range movements {
		if err := m.CheckSnapshot(); err != nil && res.Problem == "" {
			res.Problem = err.Error()
		}
		if m.PreviousQuantity != running && res.Problem == "" {
			res.Problem = fmt.Sprintf("movimiento #%d (%s): previous %d, se esperaba %d", i+1, m.ID, m.PreviousQuantity, running)
		}
		running += m.Delta
	}
	res.Derived = running
	if res.Problem == "" && running != stored {
		res.Problem = fmt.Sprintf("la suma del ledger (%d) no coincide con la cantidad almacenada (%d)", running, stored)
	}
	res.Consistent = res.Problem == ""
	return res
}
