package entity

// Roles válidos para el actor autenticado.
const (
	RoleAdmin = "admin" // administrador: órdenes de compra y transiciones
	RoleStaff = "staff" // personal: ajustes y recepciones
)

// Actor es quien ejecuta una operación del núcleo. Se pasa explícitamente en cada llamada.
type Actor struct {
	UserID string
	Role   string
}

// IsAdmin indica si el actor es administrador.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsValid indica si el actor tiene identidad y un rol conocido.
func (a Actor) IsValid() bool {
	return a.UserID != "" && (a.Role == RoleAdmin || a.Role == RoleStaff)
}
