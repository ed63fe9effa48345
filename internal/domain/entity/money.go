package entity

import "github.com/shopspring/decimal"

// MoneyScale decimales con que se persisten precios, costos y totales (numeric(14,2)).
const MoneyScale = 2

// HasMoneyScale indica si el importe no tiene fracciones por debajo del centavo.
// Con costos a dos decimales, cantidad × costo y la suma de líneas también quedan exactos.
func HasMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}
