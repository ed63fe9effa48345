package entity

import "time"

// Supplier proveedor (dato de referencia, solo lectura en este servicio).
type Supplier struct {
	ID          string
	Name        string
	ContactName string
	Email       string
	Phone       string
	Address     string
	CreatedAt   time.Time
}
