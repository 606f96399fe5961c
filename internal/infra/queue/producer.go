package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AttributionRetryPayload identifica uma compra cujo evento Purchase precisa
// ser reenviado para a Meta.
type AttributionRetryPayload struct {
	PurchaseID    string `json:"purchase_id"`
	TransactionID string `json:"transaction_id"`
	Email         string `json:"email"`
	Origin        string `json:"origin"` // WEBHOOK_HOTMART, RETRY_QUEUE, SWEEPER
	Reason        string `json:"reason,omitempty"`
}

type QueueProducerInterface interface {
	PublishAttributionRetry(ctx context.Context, payload AttributionRetryPayload) error
}

type RabbitMQProducer struct {
	Ch *amqp.Channel
}

func NewProducer(ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishAttributionRetry(ctx context.Context, payload AttributionRetryPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("erro ao converter payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    payload.TransactionID,
		},
	)
	if err != nil {
		return fmt.Errorf("falha ao publicar no RabbitMQ: %w", err)
	}

	return nil
}
