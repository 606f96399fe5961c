package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/quiz-funnel/internal/entity"
	"github.com/xavierca1/quiz-funnel/internal/infra/integration/hotmart"
	"github.com/xavierca1/quiz-funnel/internal/infra/metrics"
)

var errDuplicateDelivery = errors.New("transação já reservada por outra entrega")

type ProcessWebhookUseCase struct {
	LeadRepo     entity.LeadRepositoryInterface
	PurchaseRepo entity.PurchaseRepositoryInterface
	Attributor   *PurchaseAttributor
	Dedup        DeliveryDeduplicator // opcional
}

func NewProcessWebhookUseCase(
	leadRepo entity.LeadRepositoryInterface,
	purchaseRepo entity.PurchaseRepositoryInterface,
	attributor *PurchaseAttributor,
	dedup DeliveryDeduplicator,
) *ProcessWebhookUseCase {
	return &ProcessWebhookUseCase{
		LeadRepo:     leadRepo,
		PurchaseRepo: purchaseRepo,
		Attributor:   attributor,
		Dedup:        dedup,
	}
}

// Execute despacha pelo tipo do evento. raw é o corpo original, guardado
// junto da compra para auditoria.
func (uc *ProcessWebhookUseCase) Execute(ctx context.Context, raw []byte, env hotmart.WebhookEnvelope) (*ProcessWebhookOutput, error) {
	zap.L().Info("Hotmart webhook received",
		zap.String("event", env.Event),
		zap.String("webhook_id", env.ID))
	metrics.RecordWebhookEvent(env.Event)

	if env.Event == hotmart.EventPurchaseApproved {
		return uc.purchaseApproved(ctx, raw, env)
	}

	if msg, ok := webhookAckMessages[env.Event]; ok {
		zap.L().Info("Hotmart event acknowledged without processing", zap.String("event", env.Event))
		return &ProcessWebhookOutput{Event: env.Event, Message: msg}, nil
	}

	zap.L().Warn("Unknown Hotmart event", zap.String("event", env.Event))
	return &ProcessWebhookOutput{Event: env.Event, Message: MsgUnknownEventReceived}, nil
}

func (uc *ProcessWebhookUseCase) purchaseApproved(ctx context.Context, raw []byte, env hotmart.WebhookEnvelope) (*ProcessWebhookOutput, error) {
	data := env.Data
	transactionID := strings.TrimSpace(data.Purchase.Transaction)
	email := strings.TrimSpace(data.Buyer.Email)

	if transactionID == "" {
		return nil, &DomainError{Code: "MISSING_TRANSACTION", Message: "purchase.transaction is required"}
	}
	if email == "" {
		return nil, &DomainError{Code: "MISSING_BUYER_EMAIL", Message: "buyer.email is required"}
	}

	// 1. Lead é opcional: sem ele o Purchase sai sem correlação.
	lead, err := uc.LeadRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			zap.L().Warn("Lead not found for purchase, continuing without correlation",
				zap.String("email", email),
				zap.String("transaction_id", transactionID))
		} else {
			zap.L().Warn("Lead lookup failed, continuing without correlation",
				zap.String("email", email),
				zap.Error(err))
		}
		lead = nil
	}

	purchase, err := newPurchaseFromWebhook(email, transactionID, raw, data)
	if err != nil {
		return nil, &DomainError{Code: "INVALID_PURCHASE", Message: err.Error()}
	}
	// O id vai junto no INSERT; todo envio desta compra usa o mesmo.
	purchase.MetaEventID = purchaseEventID(lead)

	// 2. Reserva + gravação; a reserva é desfeita se a gravação falhar.
	tx := NewTransaction()
	if uc.Dedup != nil {
		tx.AddStep("claim delivery",
			func(ctx context.Context) error { return uc.claim(ctx, transactionID) },
			func(ctx context.Context) error { return uc.Dedup.Release(ctx, transactionID) },
		)
	}
	tx.AddStep("persist purchase",
		func(ctx context.Context) error { return uc.PurchaseRepo.Create(ctx, purchase) },
		nil,
	)

	if err := tx.Execute(ctx); err != nil {
		if errors.Is(err, errDuplicateDelivery) || errors.Is(err, entity.ErrPurchaseAlreadyExists) {
			zap.L().Info("Duplicate purchase delivery ignored", zap.String("transaction_id", transactionID))
			return &ProcessWebhookOutput{
				Event:     env.Event,
				Message:   MsgPurchaseDuplicate,
				Duplicate: true,
			}, nil
		}
		return nil, &TechnicalError{Code: "PURCHASE_STORE_ERROR", Message: "erro ao salvar compra", Err: err}
	}

	zap.L().Info("Purchase saved",
		zap.String("purchase_id", purchase.ID),
		zap.String("transaction_id", transactionID))

	// 3 e 4. Envio correlacionado; falha não derruba a compra.
	outcome := uc.Attributor.Attribute(ctx, purchase, lead, OriginWebhook, true)

	return &ProcessWebhookOutput{
		Event:       env.Event,
		Message:     MsgPurchaseProcessed,
		PurchaseID:  purchase.ID,
		Attribution: &outcome,
	}, nil
}

// claim falha aberto: Redis fora do ar não bloqueia a compra, a UNIQUE do
// banco continua valendo.
func (uc *ProcessWebhookUseCase) claim(ctx context.Context, transactionID string) error {
	ok, err := uc.Dedup.Claim(ctx, transactionID)
	if err != nil {
		zap.L().Warn("Delivery dedup unavailable", zap.Error(err))
		return nil
	}
	if !ok {
		return errDuplicateDelivery
	}
	return nil
}

func newPurchaseFromWebhook(email, transactionID string, raw []byte, data hotmart.WebhookData) (*entity.Purchase, error) {
	price := data.Purchase.Price
	if price.Value.IsZero() && !data.Purchase.FullPrice.Value.IsZero() {
		price = data.Purchase.FullPrice
	}

	p, err := entity.NewPurchase(email, transactionID, price.Value, price.CurrencyValue)
	if err != nil {
		return nil, err
	}

	p.OrderDate = hotmart.MillisToTime(data.Purchase.OrderDate)
	p.ApprovedDate = hotmart.MillisToTime(data.Purchase.ApprovedDate)
	p.ProductID = data.Product.UCode
	p.ProductName = data.Product.Name
	p.BuyerName = data.Buyer.Name
	p.BuyerPhone = buyerPhone(data.Buyer)
	p.BuyerDocument = data.Buyer.Document
	p.BuyerAddress = data.Buyer.Address
	p.PaymentType = data.Purchase.Payment.Type
	p.PaymentInstallments = data.Purchase.Payment.InstallmentsNumber
	if p.PaymentInstallments <= 0 {
		p.PaymentInstallments = 1
	}
	p.HotmartStatus = data.Purchase.Status

	if json.Valid(raw) {
		p.RawPayload = json.RawMessage(raw)
	} else {
		p.RawPayload, _ = json.Marshal(data)
	}

	return p, nil
}

func buyerPhone(b hotmart.Buyer) string {
	if b.CheckoutPhone == "" {
		return ""
	}
	return b.CheckoutPhoneCode + b.CheckoutPhone
}
