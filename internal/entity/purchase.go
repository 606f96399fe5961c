package entity

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrPurchaseNotFound      = errors.New("compra não encontrada")
	ErrPurchaseAlreadyExists = errors.New("compra já registrada para esta transação")
	ErrMissingMetaEventID    = errors.New("meta event id is required to mark a purchase as sent")
)

// Moedas sem casas decimais.
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
	"CLP": true,
	"PYG": true,
	"VND": true,
}

// CurrencyPrecision returns the number of minor-unit digits for a currency.
func CurrencyPrecision(currency string) int32 {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return 0
	}
	return 2
}

// Purchase é uma compra aprovada recebida pelo webhook da Hotmart.
type Purchase struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	TransactionID string `json:"hotmart_transaction_id"`

	OrderDate    *time.Time `json:"hotmart_order_date,omitempty"`
	ApprovedDate *time.Time `json:"hotmart_approved_date,omitempty"`

	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Value       decimal.Decimal `json:"value"`
	Currency    string          `json:"currency"`

	BuyerName     string          `json:"buyer_name"`
	BuyerPhone    string          `json:"buyer_phone,omitempty"`
	BuyerDocument string          `json:"buyer_document,omitempty"`
	BuyerAddress  json.RawMessage `json:"buyer_address,omitempty"`

	PaymentType         string `json:"payment_type"`
	PaymentInstallments int    `json:"payment_installments"`
	HotmartStatus       string `json:"hotmart_status"`

	// Payload bruto do provedor, guardado para auditoria.
	RawPayload json.RawMessage `json:"hotmart_data"`

	MetaEventID   string     `json:"meta_event_id,omitempty"`
	MetaSent      bool       `json:"meta_sent"`
	MetaSentAt    *time.Time `json:"meta_sent_at,omitempty"`
	MetaAttempts  int        `json:"meta_attempts"`
	MetaLastError string     `json:"meta_last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPurchase cria uma compra com ID e valor arredondado à precisão da moeda.
func NewPurchase(email, transactionID string, value decimal.Decimal, currency string) (*Purchase, error) {
	if strings.TrimSpace(transactionID) == "" {
		return nil, errors.New("transaction id is required")
	}
	if value.IsNegative() {
		return nil, errors.New("purchase value must not be negative")
	}
	if currency == "" {
		currency = "BRL"
	}

	now := time.Now()
	return &Purchase{
		ID:            uuid.New().String(),
		Email:         email,
		TransactionID: transactionID,
		Value:         value.Round(CurrencyPrecision(currency)),
		Currency:      strings.ToUpper(currency),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// MarkAttributed records a successful Conversions API send.
func (p *Purchase) MarkAttributed(eventID string, at time.Time) error {
	if eventID == "" {
		return ErrMissingMetaEventID
	}
	p.MetaEventID = eventID
	p.MetaSent = true
	p.MetaSentAt = &at
	p.MetaLastError = ""
	return nil
}

type PurchaseRepositoryInterface interface {
	Create(ctx context.Context, p *Purchase) error
	FindByTransactionID(ctx context.Context, transactionID string) (*Purchase, error)
	UpdateMetaStatus(ctx context.Context, purchaseID, eventID string) error
	// ReserveEventID grava eventID se a compra ainda não tiver um e devolve o id vigente.
	ReserveEventID(ctx context.Context, purchaseID, eventID string) (string, error)
	RecordAttributionFailure(ctx context.Context, purchaseID, reason string) (int, error)
	ListUnattributed(ctx context.Context, staleBefore time.Time, maxAttempts, limit int) ([]*Purchase, error)
}
