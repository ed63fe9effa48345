package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// CreatePurchaseOrderRequest body para POST /api/purchase-orders.
type CreatePurchaseOrderRequest struct {
	SupplierID       string                     `json:"supplier_id" validate:"required"`
	OrderDate        *time.Time                 `json:"order_date"` // por defecto: ahora
	ExpectedDelivery *time.Time                 `json:"expected_delivery"`
	Notes            string                     `json:"notes" validate:"max=2000"`
	Items            []PurchaseOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// PurchaseOrderItemRequest línea de la orden.
type PurchaseOrderItemRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int64           `json:"quantity" validate:"gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// UpdatePurchaseOrderRequest edición de cabecera (solo draft y sent). Las líneas no se editan.
type UpdatePurchaseOrderRequest struct {
	SupplierID       *string    `json:"supplier_id"`
	OrderDate        *time.Time `json:"order_date"`
	ExpectedDelivery *time.Time `json:"expected_delivery"`
	Notes            *string    `json:"notes" validate:"omitempty,max=2000"`
}

// TransitionRequest body para POST /api/purchase-orders/:id/transitions.
type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// ReceiveRequest body para POST /api/purchase-orders/:id/receipts.
type ReceiveRequest struct {
	Lines []ReceiveLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ReceiveLineRequest cantidad recibida para una línea.
type ReceiveLineRequest struct {
	ItemID   string `json:"item_id" validate:"required"`
	Quantity int64  `json:"quantity"`
}

// PurchaseOrderListRequest filtros del listado de órdenes.
type PurchaseOrderListRequest struct {
	PageRequest
	Status     string `query:"status"`
	SupplierID string `query:"supplier_id"`
}

// PurchaseOrderItemResponse línea de la orden con lo recibido y lo pendiente.
type PurchaseOrderItemResponse struct {
	ID               string          `json:"id"`
	LineNo           int             `json:"line_no"`
	ProductID        string          `json:"product_id"`
	OrderedQuantity  int64           `json:"ordered_quantity"`
	ReceivedQuantity int64           `json:"received_quantity"`
	PendingQuantity  int64           `json:"pending_quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	TotalCost        decimal.Decimal `json:"total_cost"`
}

// PurchaseOrderResponse salida de una orden de compra.
type PurchaseOrderResponse struct {
	ID               string                      `json:"id"`
	OrderNumber      string                      `json:"order_number"`
	SupplierID       string                      `json:"supplier_id"`
	Status           string                      `json:"status"`
	OrderDate        time.Time                   `json:"order_date"`
	ExpectedDelivery *time.Time                  `json:"expected_delivery,omitempty"`
	Notes            string                      `json:"notes,omitempty"`
	TotalAmount      decimal.Decimal             `json:"total_amount"`
	CreatedBy        string                      `json:"created_by"`
	ConfirmedAt      *time.Time                  `json:"confirmed_at,omitempty"`
	ConfirmedBy      string                      `json:"confirmed_by,omitempty"`
	ReceivedAt       *time.Time                  `json:"received_at,omitempty"`
	ReceivedBy       string                      `json:"received_by,omitempty"`
	CancelledAt      *time.Time                  `json:"cancelled_at,omitempty"`
	CancelledBy      string                      `json:"cancelled_by,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
	Items            []PurchaseOrderItemResponse `json:"items"`
}

// PurchaseOrderListResponse lista paginada de órdenes (sin líneas).
type PurchaseOrderListResponse struct {
	Items []PurchaseOrderResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}

// ReceivedLineResponse línea aplicada en una recepción.
type ReceivedLineResponse struct {
	ItemID           string `json:"item_id"`
	ProductID        string `json:"product_id"`
	Received         int64  `json:"received"`
	ReceivedQuantity int64  `json:"received_quantity"`
	PendingQuantity  int64  `json:"pending_quantity"`
}

// RejectedLineResponse línea rechazada y su motivo. Pending se informa en excesos de recepción.
type RejectedLineResponse struct {
	ItemID   string `json:"item_id"`
	Quantity int64  `json:"quantity"`
	Reason   string `json:"reason"`
	Pending  *int64 `json:"pending,omitempty"`
}

// ReceiptResponse resultado de una recepción.
type ReceiptResponse struct {
	OrderID   string                 `json:"order_id"`
	Status    string                 `json:"status"`
	Received  []ReceivedLineResponse `json:"received"`
	Rejected  []RejectedLineResponse `json:"rejected"`
	Movements []MovementResponse     `json:"movements"`
}

// NewPurchaseOrderResponse mapea la entidad a su salida.
func NewPurchaseOrderResponse(po *entity.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, 0, len(po.Items))
	for _, it := range po.Items {
		items = append(items, PurchaseOrderItemResponse{
			ID:               it.ID,
			LineNo:           it.LineNo,
			ProductID:        it.ProductID,
			OrderedQuantity:  it.OrderedQuantity,
			ReceivedQuantity: it.ReceivedQuantity,
			PendingQuantity:  it.PendingQuantity(),
			UnitCost:         it.UnitCost,
			TotalCost:        it.TotalCost,
		})
	}
	return PurchaseOrderResponse{
		ID:               po.ID,
		OrderNumber:      po.OrderNumber,
		SupplierID:       po.SupplierID,
		Status:           po.Status,
		OrderDate:        po.OrderDate,
		ExpectedDelivery: po.ExpectedDelivery,
		Notes:            po.Notes,
		TotalAmount:      po.TotalAmount,
		CreatedBy:        po.CreatedBy,
		ConfirmedAt:      po.ConfirmedAt,
		ConfirmedBy:      po.ConfirmedBy,
		ReceivedAt:       po.ReceivedAt,
		ReceivedBy:       po.ReceivedBy,
		CancelledAt:      po.CancelledAt,
		CancelledBy:      po.CancelledBy,
		CreatedAt:        po.CreatedAt,
		UpdatedAt:        po.UpdatedAt,
		Items:            items,
	}
}
