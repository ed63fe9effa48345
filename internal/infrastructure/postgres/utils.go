package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isLockNotAvailable verifica si venció lock_timeout esperando un bloqueo de fila (55P03).
func isLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "55P03" // lock_not_available
	}
	return false
}

// wrapErr envuelve el error de la operación; un lock_timeout se traduce a *domain.BusyError.
func wrapErr(op, resource string, err error) error {
	if isLockNotAvailable(err) {
		return &domain.BusyError{Resource: resource}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// nullIfEmpty guarda NULL para columnas opcionales (uuid de categoría, orden de compra).
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// derefString lee una columna NULL como cadena vacía.
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// validUUID evita enviar a la BD un id que la columna uuid rechazaría con error de sintaxis.
func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
