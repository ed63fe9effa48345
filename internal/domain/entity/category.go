package entity

import "time"

// Category categoría de productos (dato de referencia, solo lectura en este servicio).
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
