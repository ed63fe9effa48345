package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// AdjustStockRequest body para POST /api/products/:id/adjustments.
type AdjustStockRequest struct {
	Mode   string `json:"mode" validate:"required,oneof=increase decrease set_to"`
	Amount int64  `json:"amount" validate:"min=0"`
	Reason string `json:"reason" validate:"required,max=255"`
	Notes  string `json:"notes" validate:"max=1000"`
}

// MovementListRequest filtros de GET /api/movements. From/To aceptan RFC3339 o YYYY-MM-DD.
type MovementListRequest struct {
	PageRequest
	ProductID string `query:"product_id"`
	UserID    string `query:"user_id"`
	Type      string `query:"type" validate:"omitempty,oneof=in out adjustment"`
	From      string `query:"from"`
	To        string `query:"to"`
}

// MovementResponse una entrada del ledger.
type MovementResponse struct {
	ID               string    `json:"id"`
	Sequence         int64     `json:"sequence"`
	ProductID        string    `json:"product_id"`
	UserID           string    `json:"user_id"`
	Type             string    `json:"type"`
	Delta            int64     `json:"delta"`
	PreviousQuantity int64     `json:"previous_quantity"`
	NewQuantity      int64     `json:"new_quantity"`
	Reason           string    `json:"reason"`
	Notes            string    `json:"notes,omitempty"`
	PurchaseOrderID  string    `json:"purchase_order_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// MovementListResponse página de movimientos, más recientes primero.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// AdjustmentResponse resultado de un ajuste: el movimiento escrito y el producto actualizado.
type AdjustmentResponse struct {
	Movement MovementResponse `json:"movement"`
	Product  ProductResponse  `json:"product"`
}

// NewMovementResponse mapea la entidad a su salida.
func NewMovementResponse(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		ID:               m.ID,
		Sequence:         m.Sequence,
		ProductID:        m.ProductID,
		UserID:           m.ActorID,
		Type:             m.Kind,
		Delta:            m.Delta,
		PreviousQuantity: m.PreviousQuantity,
		NewQuantity:      m.NewQuantity,
		Reason:           m.Reason,
		Notes:            m.Notes,
		PurchaseOrderID:  m.PurchaseOrderID,
		CreatedAt:        m.CreatedAt,
	}
}

// NewMovementResponses mapea una lista de movimientos.
func NewMovementResponses(list []*entity.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, NewMovementResponse(m))
	}
	return out
}
