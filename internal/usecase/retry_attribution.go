package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xavierca1/quiz-funnel/internal/entity"
)

// RetryAttributionUseCase reenvia o Purchase de uma compra ainda não atribuída.
// É chamado pelo worker da fila de retry.
type RetryAttributionUseCase struct {
	LeadRepo     entity.LeadRepositoryInterface
	PurchaseRepo entity.PurchaseRepositoryInterface
	Attributor   *PurchaseAttributor
}

func NewRetryAttributionUseCase(
	leadRepo entity.LeadRepositoryInterface,
	purchaseRepo entity.PurchaseRepositoryInterface,
	attributor *PurchaseAttributor,
) *RetryAttributionUseCase {
	return &RetryAttributionUseCase{
		LeadRepo:     leadRepo,
		PurchaseRepo: purchaseRepo,
		Attributor:   attributor,
	}
}

func (uc *RetryAttributionUseCase) Execute(ctx context.Context, transactionID string) error {
	purchase, err := uc.PurchaseRepo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, entity.ErrPurchaseNotFound) {
			// nada a reenviar; não adianta mandar para a DLQ
			zap.L().Warn("Retry for unknown purchase dropped", zap.String("transaction_id", transactionID))
			return nil
		}
		return fmt.Errorf("erro ao carregar compra: %w", err)
	}

	if purchase.MetaSent {
		zap.L().Info("Purchase already attributed, skipping retry",
			zap.String("transaction_id", transactionID),
			zap.String("event_id", purchase.MetaEventID))
		return nil
	}

	// O lead pode ter chegado depois da compra.
	lead, err := uc.LeadRepo.FindByEmail(ctx, purchase.Email)
	if err != nil {
		if !errors.Is(err, entity.ErrLeadNotFound) {
			zap.L().Warn("Lead lookup failed, retrying without correlation",
				zap.String("email", purchase.Email),
				zap.String("transaction_id", transactionID),
				zap.Error(err))
		}
		lead = nil
	}

	outcome := uc.Attributor.Attribute(ctx, purchase, lead, OriginRetry, false)
	if outcome.Err != nil {
		return outcome.Err
	}
	return nil
}
