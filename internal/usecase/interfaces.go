package usecase

import (
	"context"

	"github.com/xavierca1/quiz-funnel/internal/infra/integration/meta"
	"github.com/xavierca1/quiz-funnel/internal/infra/mail"
)

// AttributionSender é o envio de um evento para a Conversions API.
type AttributionSender interface {
	Send(ctx context.Context, e meta.Event) (*meta.Result, error)
}

// DeliveryDeduplicator reserva uma transação antes de processá-la.
// Claim devolve false quando outra entrega já reservou o id.
type DeliveryDeduplicator interface {
	Claim(ctx context.Context, transactionID string) (bool, error)
	Release(ctx context.Context, transactionID string) error
}

type AlertNotifier interface {
	SendAttributionAlert(data mail.AttributionAlertData) error
}
