package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrNegativeStock     = errors.New("el stock no puede quedar negativo")
	ErrOverReceipt       = errors.New("cantidad recibida excede lo pendiente")
	ErrNoValidReceipts   = errors.New("ninguna línea de recepción es válida")
	ErrOrderClosed       = errors.New("la orden de compra está cerrada")
	ErrInvalidTransition = errors.New("transición de estado inválida")
	ErrBusy              = errors.New("recurso ocupado, reintente")
)

// ValidationError agrupa errores de validación por campo. Se devuelve antes de cualquier mutación.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError crea un error de validación con un único campo.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Add registra un mensaje para el campo (conserva el primero).
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// HasErrors indica si hay al menos un campo inválido.
func (e *ValidationError) HasErrors() bool { return e != nil && len(e.Fields) > 0 }

// OrNil devuelve nil si no hay errores (evita el nil tipado en interfaces).
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validación: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NegativeStockError lo produce el Ledger Writer cuando el delta dejaría la cantidad bajo cero.
type NegativeStockError struct {
	ProductID string
	Current   int64
	Delta     int64
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("el stock no puede quedar negativo: actual %d, delta %d", e.Current, e.Delta)
}

func (e *NegativeStockError) Is(target error) bool { return target == ErrNegativeStock }

// InsufficientStockError lo produce el motor de ajustes al intentar una salida mayor al disponible.
type InsufficientStockError struct {
	ProductID string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: solo %d disponibles (solicitado %d)", e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// OverReceiptError indica que la cantidad a recibir supera lo pendiente de la línea.
type OverReceiptError struct {
	ItemID    string
	Requested int64
	Pending   int64
}

func (e *OverReceiptError) Error() string {
	return fmt.Sprintf("recepción excede lo pendiente: solo %d pendientes (solicitado %d)", e.Pending, e.Requested)
}

func (e *OverReceiptError) Is(target error) bool { return target == ErrOverReceipt }

// ReceiptLineError error de una línea de recepción; no aborta las demás líneas.
type ReceiptLineError struct {
	ItemID   string
	Quantity int64
	Err      error
}

func (e *ReceiptLineError) Error() string { return "línea " + e.ItemID + ": " + e.Err.Error() }

func (e *ReceiptLineError) Unwrap() error { return e.Err }

// NoValidReceiptsError se devuelve cuando ninguna línea de la recepción es válida.
// Desenvuelve a los errores por línea, de modo que errors.As encuentra p. ej. *OverReceiptError.
type NoValidReceiptsError struct {
	Lines []*ReceiptLineError
}

func (e *NoValidReceiptsError) Error() string {
	if len(e.Lines) == 0 {
		return ErrNoValidReceipts.Error()
	}
	msgs := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		msgs = append(msgs, l.Error())
	}
	return ErrNoValidReceipts.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *NoValidReceiptsError) Is(target error) bool { return target == ErrNoValidReceipts }

func (e *NoValidReceiptsError) Unwrap() []error {
	errs := make([]error, 0, len(e.Lines))
	for _, l := range e.Lines {
		errs = append(errs, l)
	}
	return errs
}

// OrderClosedError: la orden está en estado terminal (received o cancelled).
type OrderClosedError struct {
	OrderID   string
	Status    string
	Attempted string
}

func (e *OrderClosedError) Error() string {
	if e.Attempted != "" {
		return fmt.Sprintf("la orden de compra está cerrada (estado %s): no se permite %s", e.Status, e.Attempted)
	}
	return fmt.Sprintf("la orden de compra está cerrada (estado %s)", e.Status)
}

func (e *OrderClosedError) Is(target error) bool { return target == ErrOrderClosed }

// InvalidTransitionError transición de estado no permitida por la tabla del ciclo de vida.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición de estado inválida: de %s a %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// OrderStateError la operación no aplica al estado actual (p. ej. recibir una orden en draft).
type OrderStateError struct {
	Status    string
	Operation string
}

func (e *OrderStateError) Error() string {
	return fmt.Sprintf("operación %s no permitida en estado %s", e.Operation, e.Status)
}

func (e *OrderStateError) Is(target error) bool { return target == ErrConflict }

// ProductInUseError el producto aún tiene unidades pendientes en órdenes de compra abiertas.
type ProductInUseError struct {
	ProductID    string
	OrderNumbers []string
}

func (e *ProductInUseError) Error() string {
	return fmt.Sprintf("el producto %s tiene unidades pendientes en órdenes abiertas: %s", e.ProductID, strings.Join(e.OrderNumbers, ", "))
}

func (e *ProductInUseError) Is(target error) bool { return target == ErrConflict }

// BusyError no se pudo adquirir el bloqueo del recurso en el tiempo máximo de espera.
type BusyError struct {
	Resource string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("recurso ocupado (%s), reintente", e.Resource)
}

func (e *BusyError) Is(target error) bool { return target == ErrBusy }
