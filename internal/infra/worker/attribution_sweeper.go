package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/quiz-funnel/internal/config"
	"github.com/xavierca1/quiz-funnel/internal/entity"
	"github.com/xavierca1/quiz-funnel/internal/infra/queue"
)

const sweepBatchSize = 100

// AttributionSweeper reenfileira compras que ficaram sem atribuição na Meta.
// Sem fila configurada, chama o Retrier diretamente.
type AttributionSweeper struct {
	purchases   entity.PurchaseRepositoryInterface
	queue       queue.QueueProducerInterface
	retrier     queue.AttributionRetrier
	maxAttempts int
	staleAfter  time.Duration
	interval    time.Duration
	now         func() time.Time
}

func NewAttributionSweeper(
	purchases entity.PurchaseRepositoryInterface,
	q queue.QueueProducerInterface,
	retrier queue.AttributionRetrier,
	cfg config.AttributionConfig,
) *AttributionSweeper {
	return &AttributionSweeper{
		purchases:   purchases,
		queue:       q,
		retrier:     retrier,
		maxAttempts: cfg.MaxAttempts,
		staleAfter:  cfg.StaleAfter,
		interval:    cfg.SweepInterval,
		now:         time.Now,
	}
}

func (w *AttributionSweeper) Start(ctx context.Context) {
	zap.L().Info("Attribution sweeper started",
		zap.Duration("interval", w.interval),
		zap.Duration("stale_after", w.staleAfter),
		zap.Int("max_attempts", w.maxAttempts))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Attribution sweeper stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep processa um lote e devolve quantas compras foram reenviadas.
func (w *AttributionSweeper) Sweep(ctx context.Context) int {
	staleBefore := w.now().Add(-w.staleAfter)

	purchases, err := w.purchases.ListUnattributed(ctx, staleBefore, w.maxAttempts, sweepBatchSize)
	if err != nil {
		zap.L().Error("Failed to list unattributed purchases", zap.Error(err))
		return 0
	}

	retried := 0
	for _, p := range purchases {
		if err := w.retry(ctx, p); err != nil {
			zap.L().Warn("Sweeper retry failed",
				zap.String("transaction_id", p.TransactionID),
				zap.Int("attempts", p.MetaAttempts),
				zap.Error(err))
			continue
		}
		retried++
	}

	if retried > 0 {
		zap.L().Info("Unattributed purchases re-sent", zap.Int("count", retried))
	}
	return retried
}

func (w *AttributionSweeper) retry(ctx context.Context, p *entity.Purchase) error {
	if w.queue != nil {
		return w.queue.PublishAttributionRetry(ctx, queue.AttributionRetryPayload{
			PurchaseID:    p.ID,
			TransactionID: p.TransactionID,
			Email:         p.Email,
			Origin:        "SWEEPER",
			Reason:        p.MetaLastError,
		})
	}
	return w.retrier.Execute(ctx, p.TransactionID)
}
