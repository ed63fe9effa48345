package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la orden de compra.
const (
	POStatusDraft             = "draft"
	POStatusSent              = "sent"
	POStatusConfirmed         = "confirmed"
	POStatusPartiallyReceived = "partially_received"
	POStatusReceived          = "received"
	POStatusCancelled         = "cancelled"
)

// PurchaseOrder cabecera + líneas. Las líneas se fijan al crear; solo evoluciona lo recibido.
type PurchaseOrder struct {
	ID               string
	OrderNumber      string
	SupplierID       string
	Status           string
	OrderDate        time.Time
	ExpectedDelivery *time.Time
	Notes            string
	TotalAmount      decimal.Decimal // = Σ Items[i].TotalCost
	CreatedBy        string
	ConfirmedAt      *time.Time
	ConfirmedBy      string
	ReceivedAt       *time.Time
	ReceivedBy       string
	CancelledAt      *time.Time
	CancelledBy      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Items            []*PurchaseOrderItem
}

// Item busca una línea por ID.
func (po *PurchaseOrder) Item(id string) *PurchaseOrderItem {
	for _, it := range po.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// ProductIDs devuelve los productos referenciados por las líneas (sin repetir).
func (po *PurchaseOrder) ProductIDs() []string {
	seen := make(map[string]struct{}, len(po.Items))
	ids := make([]string, 0, len(po.Items))
	for _, it := range po.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}

// ComputeTotal recalcula el total de la orden a partir de las líneas.
func (po *PurchaseOrder) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range po.Items {
		total = total.Add(it.TotalCost)
	}
	return total
}

// PurchaseOrderItem línea de la orden: ordenado vs. recibido.
type PurchaseOrderItem struct {
	ID               string
	PurchaseOrderID  string
	LineNo           int // posición en la orden, desde 1
	ProductID        string
	OrderedQuantity  int64
	UnitCost         decimal.Decimal
	TotalCost        decimal.Decimal // OrderedQuantity * UnitCost
	ReceivedQuantity int64           // 0 <= ReceivedQuantity <= OrderedQuantity, no decrece
}

// PendingQuantity cantidad ordenada aún no recibida.
func (it *PurchaseOrderItem) PendingQuantity() int64 {
	return it.OrderedQuantity - it.ReceivedQuantity
}

// IsFullyReceived indica si la línea ya se recibió completa.
func (it *PurchaseOrderItem) IsFullyReceived() bool {
	return it.ReceivedQuantity >= it.OrderedQuantity
}
