package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/quiz-funnel/internal/config"
	"github.com/xavierca1/quiz-funnel/internal/entity"
	"github.com/xavierca1/quiz-funnel/internal/infra/integration/meta"
	"github.com/xavierca1/quiz-funnel/internal/infra/mail"
	"github.com/xavierca1/quiz-funnel/internal/infra/metrics"
	"github.com/xavierca1/quiz-funnel/internal/infra/queue"
)

type AttributionStage string

const (
	StageConfig  AttributionStage = "config"
	StageSend    AttributionStage = "send"
	StagePersist AttributionStage = "persist"
)

// Origem de um envio de Purchase.
const (
	OriginWebhook = "WEBHOOK_HOTMART"
	OriginRetry   = "RETRY_QUEUE"
	OriginSweeper = "SWEEPER"
)

// AttributionError diz em qual etapa o envio para a Meta falhou.
type AttributionError struct {
	Stage     AttributionStage
	EventName meta.EventName
	Err       error
}

func (e *AttributionError) Error() string {
	return fmt.Sprintf("attribution %s failed at %s: %v", e.EventName, e.Stage, e.Err)
}

func (e *AttributionError) Unwrap() error {
	return e.Err
}

// AttributionOutcome é o resultado de um envio. Response só existe se a Meta
// aceitou o evento; Err pode vir junto quando a gravação do resultado falhou.
type AttributionOutcome struct {
	EventID  string
	Response *meta.Response
	Err      *AttributionError
}

func (o AttributionOutcome) Sent() bool {
	return o.Response != nil
}

func sendAttribution(ctx context.Context, sender AttributionSender, event meta.Event) AttributionOutcome {
	res, err := sender.Send(ctx, event)
	if err != nil {
		stage := StageSend
		var missing *config.MissingConfigError
		if errors.As(err, &missing) {
			stage = StageConfig
		}
		metrics.RecordAttribution(string(event.Name), metrics.ResultFailed)
		return AttributionOutcome{
			EventID: event.EventID,
			Err:     &AttributionError{Stage: stage, EventName: event.Name, Err: err},
		}
	}

	metrics.RecordAttribution(string(event.Name), metrics.ResultSent)
	return AttributionOutcome{EventID: res.EventID, Response: &res.Response}
}

func buildLeadEvent(lead *entity.Lead, cfg config.MetaConfig) meta.Event {
	custom := map[string]any{
		"content_name": cfg.LeadContentName,
		"content_type": "lead_form",
	}
	for k, v := range lead.QuizResponses {
		custom[k] = v
	}

	return meta.Event{
		Name: meta.EventLead,
		User: meta.UserData{
			Email:     lead.Email,
			Phone:     lead.Phone,
			FBP:       lead.FBP,
			FBC:       lead.FBC,
			ClientIP:  lead.IPAddress,
			UserAgent: lead.UserAgent,
		},
		SourceURL: cfg.LeadSourceURL,
		Custom:    custom,
	}
}

// purchaseEventID escolhe o event id de uma compra nova: o do lead quando
// houver, senão um id próprio gerado uma única vez.
func purchaseEventID(lead *entity.Lead) string {
	if lead != nil && lead.EventID != "" {
		return lead.EventID
	}
	return meta.NewEventID(meta.EventPurchase)
}

// buildPurchaseEvent usa sempre o event id gravado na compra, para que
// reenvios sejam deduplicados pela Meta.
func buildPurchaseEvent(p *entity.Purchase, lead *entity.Lead, cfg config.MetaConfig) meta.Event {
	user := meta.UserData{
		Email: p.Email,
		Phone: p.BuyerPhone,
	}
	if lead != nil {
		user.FBP = lead.FBP
		user.FBC = lead.FBC
		user.ClientIP = lead.IPAddress
		user.UserAgent = lead.UserAgent
		if user.Phone == "" {
			user.Phone = lead.Phone
		}
	}

	return meta.Event{
		Name:      meta.EventPurchase,
		EventID:   p.MetaEventID,
		User:      user,
		Value:     p.Value,
		Currency:  p.Currency,
		SourceURL: cfg.PurchaseSourceURL,
		Custom: map[string]any{
			"content_ids":    []string{p.ProductID},
			"content_name":   p.ProductName,
			"content_type":   "product",
			"num_items":      1,
			"status":         "completed",
			"transaction_id": p.TransactionID,
		},
	}
}

// PurchaseAttributor envia o Purchase correlacionado e registra o resultado.
// Queue e Alert são opcionais.
type PurchaseAttributor struct {
	PurchaseRepo entity.PurchaseRepositoryInterface
	Sender       AttributionSender
	Queue        queue.QueueProducerInterface
	Alert        AlertNotifier
	Meta         config.MetaConfig
	MaxAttempts  int
}

func NewPurchaseAttributor(
	purchaseRepo entity.PurchaseRepositoryInterface,
	sender AttributionSender,
	q queue.QueueProducerInterface,
	alert AlertNotifier,
	metaCfg config.MetaConfig,
	maxAttempts int,
) *PurchaseAttributor {
	return &PurchaseAttributor{
		PurchaseRepo: purchaseRepo,
		Sender:       sender,
		Queue:        q,
		Alert:        alert,
		Meta:         metaCfg,
		MaxAttempts:  maxAttempts,
	}
}

// Attribute nunca devolve erro: a falha fica descrita no outcome.
// Com requeue, uma falha de envio publica a compra na fila de retry.
func (a *PurchaseAttributor) Attribute(ctx context.Context, p *entity.Purchase, lead *entity.Lead, origin string, requeue bool) AttributionOutcome {
	if err := a.ensureEventID(ctx, p, lead); err != nil {
		// sem id gravado não enviamos: um reenvio sairia com outro id
		cause := &AttributionError{Stage: StagePersist, EventName: meta.EventPurchase, Err: err}
		zap.L().Error("Could not reserve purchase event id",
			zap.String("transaction_id", p.TransactionID),
			zap.Error(err))
		a.recordFailure(ctx, p, cause, origin, requeue)
		return AttributionOutcome{Err: cause}
	}

	event := buildPurchaseEvent(p, lead, a.Meta)
	outcome := sendAttribution(ctx, a.Sender, event)

	if !outcome.Sent() {
		zap.L().Error("Purchase attribution failed, purchase kept without meta status",
			zap.String("transaction_id", p.TransactionID),
			zap.String("email", p.Email),
			zap.String("event_id", event.EventID),
			zap.String("origin", origin),
			zap.String("stage", string(outcome.Err.Stage)),
			zap.Error(outcome.Err.Err))
		a.recordFailure(ctx, p, outcome.Err, origin, requeue)
		return outcome
	}

	attributed := *p
	if err := attributed.MarkAttributed(outcome.EventID, time.Now()); err != nil {
		zap.L().Error("Meta accepted Purchase without an event id",
			zap.String("transaction_id", p.TransactionID),
			zap.Error(err))
		outcome.Err = &AttributionError{Stage: StagePersist, EventName: meta.EventPurchase, Err: err}
		return outcome
	}

	if err := a.PurchaseRepo.UpdateMetaStatus(ctx, p.ID, outcome.EventID); err != nil {
		zap.L().Error("Meta accepted Purchase but status update failed",
			zap.String("transaction_id", p.TransactionID),
			zap.String("event_id", outcome.EventID),
			zap.Error(err))
		outcome.Err = &AttributionError{Stage: StagePersist, EventName: meta.EventPurchase, Err: err}
		return outcome
	}
	*p = attributed

	zap.L().Info("Purchase attributed",
		zap.String("transaction_id", p.TransactionID),
		zap.String("event_id", outcome.EventID),
		zap.Bool("correlated", lead != nil && lead.EventID == outcome.EventID),
		zap.String("origin", origin))

	return outcome
}

// ensureEventID grava o event id antes do primeiro envio. Compras antigas sem
// id recebem um aqui; se outra execução gravou antes, vale o já gravado.
func (a *PurchaseAttributor) ensureEventID(ctx context.Context, p *entity.Purchase, lead *entity.Lead) error {
	if p.MetaEventID != "" {
		return nil
	}
	stored, err := a.PurchaseRepo.ReserveEventID(ctx, p.ID, purchaseEventID(lead))
	if err != nil {
		return err
	}
	p.MetaEventID = stored
	return nil
}

func (a *PurchaseAttributor) recordFailure(ctx context.Context, p *entity.Purchase, cause *AttributionError, origin string, requeue bool) {
	reason := cause.Error()

	attempts, err := a.PurchaseRepo.RecordAttributionFailure(ctx, p.ID, reason)
	if err != nil {
		zap.L().Error("Failed to record attribution failure",
			zap.String("transaction_id", p.TransactionID),
			zap.Error(err))
		return
	}
	p.MetaAttempts = attempts
	p.MetaLastError = reason

	if a.MaxAttempts > 0 && attempts >= a.MaxAttempts {
		// alerta uma única vez, ao atingir o limite
		if attempts == a.MaxAttempts {
			a.notify(p, attempts, reason)
		}
		return
	}

	if !requeue || a.Queue == nil {
		return
	}

	payload := queue.AttributionRetryPayload{
		PurchaseID:    p.ID,
		TransactionID: p.TransactionID,
		Email:         p.Email,
		Origin:        origin,
		Reason:        reason,
	}
	if err := a.Queue.PublishAttributionRetry(ctx, payload); err != nil {
		zap.L().Warn("Could not enqueue attribution retry, sweeper will pick it up",
			zap.String("transaction_id", p.TransactionID),
			zap.Error(err))
	}
}

func (a *PurchaseAttributor) notify(p *entity.Purchase, attempts int, reason string) {
	if a.Alert == nil {
		zap.L().Error("Attribution attempts exhausted",
			zap.String("transaction_id", p.TransactionID),
			zap.Int("attempts", attempts))
		return
	}

	err := a.Alert.SendAttributionAlert(mail.AttributionAlertData{
		TransactionID: p.TransactionID,
		Email:         p.Email,
		Value:         p.Value.StringFixed(entity.CurrencyPrecision(p.Currency)),
		Currency:      p.Currency,
		Attempts:      attempts,
		LastError:     reason,
	})
	if err != nil {
		zap.L().Error("Failed to send attribution alert",
			zap.String("transaction_id", p.TransactionID),
			zap.Error(err))
	}
}
