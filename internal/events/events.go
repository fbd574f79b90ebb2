// Package events publishes domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"flower_shop/internal/models"
)

const TypeOrderCreated = "order.created"

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type OrderItem struct {
	ProductID       uint   `json:"product_id"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase string `json:"price_at_purchase"`
}

type OrderCreated struct {
	EventID    string      `json:"event_id"`
	Type       string      `json:"type"`
	OrderID    uint        `json:"order_id"`
	UserID     *uint       `json:"user_id,omitempty"`
	Total      string      `json:"total"`
	Items      []OrderItem `json:"items"`
	OccurredAt time.Time   `json:"occurred_at"`
}

type Publisher struct {
	w Writer
}

func NewPublisher(w Writer) *Publisher {
	return &Publisher{w: w}
}

// NewKafkaPublisher writes to topic with one synchronous ack per message.
func NewKafkaPublisher(brokers []string, topic string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           5 * time.Second,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error().Msgf("kafka: "+msg, args...)
		}),
	}
	log.Info().Strs("brokers", brokers).Str("topic", topic).Msg("✅ Kafka publisher ready")
	return NewPublisher(w)
}

func NewOrderCreated(order *models.Order) OrderCreated {
	items := make([]OrderItem, len(order.Items))
	for i, it := range order.Items {
		items[i] = OrderItem{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase.StringFixed(2),
		}
	}
	return OrderCreated{
		EventID:    uuid.NewString(),
		Type:       TypeOrderCreated,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Total:      order.TotalPrice.StringFixed(2),
		Items:      items,
		OccurredAt: order.DateOrdered,
	}
}

// PublishOrderCreated keys the message by order id so every event of one
// order lands on the same partition.
func (p *Publisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	evt := NewOrderCreated(order)
	value, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(order.ID), 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(evt.Type)},
			{Key: "event_id", Value: []byte(evt.EventID)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.w.Close()
}
