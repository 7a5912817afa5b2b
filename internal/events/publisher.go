package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/linemk/luxe-market/internal/domain/models"
)

const (
	OrderPlacedQueue        = "order.placed"
	OrderStatusChangedQueue = "order.status_changed"

	publishTimeout = 3 * time.Second
)

// OrderPublisher публикует события жизненного цикла заказа.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, o *models.Order) error
	PublishOrderStatusChanged(ctx context.Context, o *models.Order, from models.OrderStatus) error
}

// channel - часть *amqp.Channel, которой пользуется Publisher
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	ch  channel
	now func() time.Time
}

// NewPublisher открывает канал и объявляет очереди, чтобы публикация не падала из-за отсутствующей инфраструктуры.
func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	for _, q := range []string{OrderPlacedQueue, OrderStatusChangedQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("declare %s: %w", q, err)
		}
	}

	return &Publisher{ch: ch, now: time.Now}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, o *models.Order) error {
	body, err := json.Marshal(newOrderPlaced(o, p.now()))
	if err != nil {
		return fmt.Errorf("marshal %s: %w", EventOrderPlaced, err)
	}
	return p.publishJSON(ctx, OrderPlacedQueue, body)
}

func (p *Publisher) PublishOrderStatusChanged(ctx context.Context, o *models.Order, from models.OrderStatus) error {
	body, err := json.Marshal(newOrderStatusChanged(o, from, p.now()))
	if err != nil {
		return fmt.Errorf("marshal %s: %w", EventOrderStatusChanged, err)
	}
	return p.publishJSON(ctx, OrderStatusChangedQueue, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",         // default exchange
		routingKey, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// NopPublisher используется, когда брокер не настроен.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, *models.Order) error { return nil }

func (NopPublisher) PublishOrderStatusChanged(context.Context, *models.Order, models.OrderStatus) error {
	return nil
}
