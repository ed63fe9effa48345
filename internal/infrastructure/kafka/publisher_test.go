package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func TestNewTopics(t *testing.T) {
	topics := NewTopics("tienda")
	assert.Equal(t, "tienda.stock-movements", topics.Movements)
	assert.Equal(t, "tienda.low-stock", topics.LowStock)
	assert.Equal(t, "tienda.purchase-orders", topics.PurchaseOrders)

	assert.Equal(t, "stock-ledger.low-stock", NewTopics("").LowStock)
}

func TestPublisher_MovementRecorded(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var ev MovementRecordedEvent
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		if ev.EventType != EventTypeMovementRecorded || ev.ProductID != "p-1" || ev.Delta != 5 || ev.NewQuantity != 15 {
			return errors.New("evento inesperado")
		}
		return nil
	})
	pub := newPublisher(producer, NewTopics("test"), logger.Nop())

	err := pub.MovementRecorded(context.Background(), &entity.StockMovement{
		ID: "m-1", ProductID: "p-1", ActorID: "u-1", Kind: entity.MovementKindIn,
		Delta: 5, PreviousQuantity: 10, NewQuantity: 15, Reason: "Restock",
	})
	require.NoError(t, err)
	require.NoError(t, producer.Close())
}

func TestPublisher_LowStockAndOrderStatus(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var ev OrderStatusChangedEvent
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		if ev.PreviousStatus != entity.POStatusSent || ev.Status != entity.POStatusConfirmed {
			return errors.New("estados inesperados")
		}
		return nil
	})
	pub := newPublisher(producer, NewTopics("test"), logger.Nop())

	require.NoError(t, pub.LowStock(context.Background(), &entity.Product{ID: "p-1", SKU: "A-1", Quantity: 1, MinStockLevel: 5}))
	require.NoError(t, pub.OrderStatusChanged(context.Background(),
		&entity.PurchaseOrder{ID: "po-1", OrderNumber: "PO-000001", Status: entity.POStatusConfirmed},
		entity.POStatusSent))
	require.NoError(t, producer.Close())
}

func TestPublisher_SendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	pub := newPublisher(producer, NewTopics("test"), logger.Nop())

	err := pub.LowStock(context.Background(), &entity.Product{ID: "p-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, producer.Close())
}

func TestHeaders_IncludeEventMetadata(t *testing.T) {
	hs := headers(context.Background(), EventTypeLowStock, "evt-1")
	got := map[string]string{}
	for _, h := range hs {
		got[string(h.Key)] = string(h.Value)
	}
	assert.Equal(t, EventTypeLowStock, got["event_type"])
	assert.Equal(t, "evt-1", got["event_id"])
}
