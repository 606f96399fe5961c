package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AttributionRetrier reenvia o evento Purchase de uma transação.
type AttributionRetrier interface {
	Execute(ctx context.Context, transactionID string) error
}

type Worker struct {
	Channel *amqp.Channel
	Retrier AttributionRetrier
}

func NewWorker(ch *amqp.Channel, retrier AttributionRetrier) *Worker {
	return &Worker{
		Channel: ch,
		Retrier: retrier,
	}
}

// Start consome a fila até o contexto ser cancelado ou o canal fechar.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack (manual é mais seguro)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("falha ao registrar consumidor RabbitMQ: %w", err)
	}

	zap.L().Info("Attribution retry worker waiting for messages", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Attribution retry worker stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("canal de consumo fechado")
			}
			if err := w.process(ctx, d.Body); err != nil {
				zap.L().Error("Attribution retry failed, sending to DLQ",
					zap.String("message_id", d.MessageId),
					zap.Error(err))
				d.Nack(false, false)
				continue
			}
			d.Ack(false)
		}
	}
}

func (w *Worker) process(ctx context.Context, body []byte) error {
	var payload AttributionRetryPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("json inválido: %w", err)
	}
	if payload.TransactionID == "" {
		return fmt.Errorf("payload sem transaction_id")
	}

	zap.L().Info("Retrying Purchase attribution",
		zap.String("transaction_id", payload.TransactionID),
		zap.String("origin", payload.Origin))

	return w.Retrier.Execute(ctx, payload.TransactionID)
}
