package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Publisher implementa inventory.EventPublisher sobre un productor síncrono de Kafka.
type Publisher struct {
	producer sarama.SyncProducer
	topics   Topics
	log      *logger.Logger
	now      func() time.Time
}

// Topics destinos por tipo de evento.
type Topics struct {
	Movements      string
	LowStock       string
	PurchaseOrders string
}

// NewTopics deriva los topics a partir de un prefijo (stock-ledger -> stock-ledger.stock-movements, ...).
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = "stock-ledger"
	}
	return Topics{
		Movements:      prefix + ".stock-movements",
		LowStock:       prefix + ".low-stock",
		PurchaseOrders: prefix + ".purchase-orders",
	}
}

// NewPublisher conecta con los brokers. Los mensajes exigen confirmación de todas las réplicas.
func NewPublisher(brokers []string, topicPrefix string, log *logger.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 3
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.MaxMessageBytes = 1000000

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: crear productor: %w", err)
	}
	log.Info().Strs("brokers", brokers).Str("prefix", topicPrefix).Msg("publicador Kafka inicializado")
	return newPublisher(producer, NewTopics(topicPrefix), log), nil
}

func newPublisher(producer sarama.SyncProducer, topics Topics, log *logger.Logger) *Publisher {
	return &Publisher{producer: producer, topics: topics, log: log, now: time.Now}
}

// MovementRecorded publica el movimiento con clave = producto, para conservar el orden por producto.
func (p *Publisher) MovementRecorded(ctx context.Context, m *entity.StockMovement) error {
	ev := MovementRecordedEvent{
		EventID:          uuid.NewString(),
		EventType:        EventTypeMovementRecorded,
		Timestamp:        p.now().UTC(),
		MovementID:       m.ID,
		Sequence:         m.Sequence,
		ProductID:        m.ProductID,
		UserID:           m.ActorID,
		Type:             m.Kind,
		Delta:            m.Delta,
		PreviousQuantity: m.PreviousQuantity,
		NewQuantity:      m.NewQuantity,
		Reason:           m.Reason,
		PurchaseOrderID:  m.PurchaseOrderID,
	}
	return p.send(ctx, p.topics.Movements, ev.EventType, ev.EventID, m.ProductID, ev)
}

// LowStock publica la alerta de stock bajo.
func (p *Publisher) LowStock(ctx context.Context, product *entity.Product) error {
	ev := LowStockEvent{
		EventID:       uuid.NewString(),
		EventType:     EventTypeLowStock,
		Timestamp:     p.now().UTC(),
		ProductID:     product.ID,
		SKU:           product.SKU,
		Quantity:      product.Quantity,
		MinStockLevel: product.MinStockLevel,
	}
	return p.send(ctx, p.topics.LowStock, ev.EventType, ev.EventID, product.ID, ev)
}

// OrderStatusChanged publica el cambio de estado con clave = orden.
func (p *Publisher) OrderStatusChanged(ctx context.Context, order *entity.PurchaseOrder, previous string) error {
	ev := OrderStatusChangedEvent{
		EventID:        uuid.NewString(),
		EventType:      EventTypeOrderStatusChanged,
		Timestamp:      p.now().UTC(),
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		SupplierID:     order.SupplierID,
		PreviousStatus: previous,
		Status:         order.Status,
	}
	return p.send(ctx, p.topics.PurchaseOrders, ev.EventType, ev.EventID, order.ID, ev)
}

func (p *Publisher) send(ctx context.Context, topic, eventType, eventID, key string, payload any) error {
	ctx, span := otel.Tracer("stock-ledger/kafka").Start(ctx, "kafka.publish "+eventType,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topic),
			attribute.String("event.type", eventType),
			attribute.String("event.id", eventID),
		),
	)
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "marshal")
		return fmt.Errorf("kafka: serializar %s: %w", eventType, err)
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(body),
		Headers: headers(ctx, eventType, eventID),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send")
		p.log.Error().Err(err).Str("topic", topic).Str("event_type", eventType).Str("key", key).Msg("no se pudo publicar evento")
		return fmt.Errorf("kafka: publicar %s: %w", eventType, err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	p.log.Debug().
		Str("event_id", eventID).
		Str("event_type", eventType).
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("evento publicado")
	return nil
}

// headers incluye el contexto de traza para que los consumidores continúen el span.
func headers(ctx context.Context, eventType, eventID string) []sarama.RecordHeader {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	hs := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(eventType)},
		{Key: []byte("event_id"), Value: []byte(eventID)},
	}
	for k, v := range carrier {
		hs = append(hs, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	return hs
}

// Close cierra el productor.
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
