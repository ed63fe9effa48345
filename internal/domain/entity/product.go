package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del inventario.
// Quantity es una caché materializada del ledger: siempre igual a la suma de los deltas de sus
// movimientos. Solo el Ledger Writer la modifica.
type Product struct {
	ID            string
	SKU           string // código único, normalizado (ver inventory.NormalizeSKU)
	Name          string
	Description   string
	CategoryID    string // vacío si no tiene categoría
	Quantity      int64
	MinStockLevel int64
	UnitPrice     decimal.Decimal
	ArchivedAt    *time.Time // baja lógica: el ledger conserva la referencia
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsArchived indica si el producto fue dado de baja.
func (p *Product) IsArchived() bool { return p.ArchivedAt != nil }

// IsLowStock indica si la cantidad está en o bajo el mínimo configurado.
func (p *Product) IsLowStock() bool { return p.Quantity <= p.MinStockLevel }
