package kafka

import "time"

// Tipos de evento publicados.
const (
	EventTypeMovementRecorded   = "stock.movement_recorded"
	EventTypeLowStock           = "stock.low_stock"
	EventTypeOrderStatusChanged = "purchase_order.status_changed"
)

// MovementRecordedEvent se publica por cada movimiento confirmado en el ledger.
type MovementRecordedEvent struct {
	EventID          string    `json:"event_id"`
	EventType        string    `json:"event_type"`
	Timestamp        time.Time `json:"timestamp"`
	MovementID       string    `json:"movement_id"`
	Sequence         int64     `json:"sequence"`
	ProductID        string    `json:"product_id"`
	UserID           string    `json:"user_id"`
	Type             string    `json:"type"`
	Delta            int64     `json:"delta"`
	PreviousQuantity int64     `json:"previous_quantity"`
	NewQuantity      int64     `json:"new_quantity"`
	Reason           string    `json:"reason"`
	PurchaseOrderID  string    `json:"purchase_order_id,omitempty"`
}

// LowStockEvent se publica cuando un producto queda en o bajo su mínimo.
type LowStockEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	Timestamp     time.Time `json:"timestamp"`
	ProductID     string    `json:"product_id"`
	SKU           string    `json:"sku"`
	Quantity      int64     `json:"quantity"`
	MinStockLevel int64     `json:"min_stock_level"`
}

// OrderStatusChangedEvent se publica en cada cambio de estado de una orden de compra.
type OrderStatusChangedEvent struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	Timestamp      time.Time `json:"timestamp"`
	OrderID        string    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	SupplierID     string    `json:"supplier_id"`
	PreviousStatus string    `json:"previous_status"`
	Status         string    `json:"status"`
}
