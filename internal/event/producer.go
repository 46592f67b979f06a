package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Fanatic033/shoro-market/internal/domain"
	pkgkafka "github.com/Fanatic033/shoro-market/pkg/kafka"
	"github.com/Fanatic033/shoro-market/pkg/logger"
)

// Kafka topic constants for cart and order events.
const (
	TopicCartUpdated = "shoro.cart.updated"
	TopicCartCleared = "shoro.cart.cleared"
	TopicOrderPlaced = "shoro.order.placed"
)

// Aggregate types.
const (
	AggregateTypeCart  = "cart"
	AggregateTypeOrder = "order"
)

// SourceCartService identifies events from this service.
const SourceCartService = "shoro-market"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	UserID       string         `json:"user_id"`
	Items        []CartItemData `json:"items"`
	TotalItems   int            `json:"total_items"`
	Subtotal     int64          `json:"subtotal"`
	DeliveryCost int64          `json:"delivery_cost"`
	Total        int64          `json:"total"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ProductID int64  `json:"product_id"`
	GUID      string `json:"guid,omitempty"`
	Title     string `json:"title"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	UserID string `json:"user_id"`
}

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	OrderID      string         `json:"order_id"`
	UserID       string         `json:"user_id"`
	RemoteRef    string         `json:"remote_ref,omitempty"`
	Items        []CartItemData `json:"items"`
	Subtotal     int64          `json:"subtotal"`
	DeliveryCost int64          `json:"delivery_cost"`
	Total        int64          `json:"total"`
	Payment      string         `json:"payment"`
	DeliveryDate string         `json:"delivery_date"`
}

// Publisher is the part of pkgkafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes cart and order events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, userID string, snap domain.Snapshot) error {
	items := make([]CartItemData, len(snap.Items))
	for i, it := range snap.Items {
		items[i] = CartItemData{
			ProductID: it.ProductID,
			GUID:      it.GUID,
			Title:     it.Title,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		}
	}

	data := CartUpdatedData{
		UserID:       userID,
		Items:        items,
		TotalItems:   snap.TotalItems,
		Subtotal:     snap.Subtotal,
		DeliveryCost: snap.DeliveryCost,
		Total:        snap.Total,
	}
	if err := p.publish(ctx, TopicCartUpdated, userID, AggregateTypeCart, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("user_id", userID),
		slog.Int("total_items", snap.TotalItems),
	)
	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, userID string) error {
	if err := p.publish(ctx, TopicCartCleared, userID, AggregateTypeCart, CartClearedData{UserID: userID}); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.cleared event", slog.String("user_id", userID))
	return nil
}

// PublishOrderPlaced publishes an order.placed event.
func (p *Producer) PublishOrderPlaced(ctx context.Context, o *domain.Order) error {
	items := make([]CartItemData, len(o.Items))
	for i, l := range o.Items {
		items[i] = CartItemData{
			ProductID: l.ProductID,
			GUID:      l.GUID,
			Title:     l.Title,
			UnitPrice: l.Price,
			Quantity:  l.Quantity,
		}
	}

	data := OrderPlacedData{
		OrderID:      o.ID,
		UserID:       o.UserID,
		RemoteRef:    o.RemoteRef,
		Items:        items,
		Subtotal:     o.Subtotal,
		DeliveryCost: o.DeliveryCost,
		Total:        o.Total,
		Payment:      string(o.Payment),
		DeliveryDate: o.DeliveryDate,
	}
	if err := p.publish(ctx, TopicOrderPlaced, o.ID, AggregateTypeOrder, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published order.placed event",
		slog.String("order_id", o.ID),
		slog.String("user_id", o.UserID),
	)
	return nil
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceCartService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}
