package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	QueueRefundRequested = "refund.requested"
	QueueOrderPaid       = "order.paid"
)

// RefundRequested records the intent to refund a paid, cancelled order.
// Refund execution belongs to a downstream consumer.
type RefundRequested struct {
	OrderNumber string    `json:"order_id"`
	UserID      int64     `json:"user_id"`
	Amount      float64   `json:"amount"`
	RequestedAt time.Time `json:"requested_at"`
}

type OrderPaid struct {
	OrderNumber   string    `json:"order_id"`
	UserID        int64     `json:"user_id"`
	Amount        float64   `json:"amount"`
	TransactionID string    `json:"transaction_id"`
	PaidAt        time.Time `json:"paid_at"`
}

type Publisher interface {
	Publish(ctx context.Context, queue string, body any) error
}

type amqpPublisher struct {
	conn *amqp.Connection
}

func NewAMQPPublisher(url string) (Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return &amqpPublisher{conn: conn}, nil
}

func (p *amqpPublisher) Publish(ctx context.Context, queue string, body any) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
}

// Noop is used when RabbitMQ is not configured; publishing silently
// succeeds so the request path never depends on the broker.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
