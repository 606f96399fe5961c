package hotmart

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de evento enviados pela Hotmart.
const (
	EventPurchaseApproved  = "PURCHASE_APPROVED"
	EventPurchaseCompleted = "PURCHASE_COMPLETED"
	EventPurchaseRefunded  = "PURCHASE_REFUNDED"
	EventChargeback        = "CHARGEBACK"
	EventAbandonedCart     = "ABANDONED_CART"
	EventPaymentPending    = "PAYMENT_PENDING"
)

// WebhookEnvelope é o corpo do webhook (versão 2.0.0).
type WebhookEnvelope struct {
	ID           string      `json:"id"`
	CreationDate int64       `json:"creation_date"`
	Event        string      `json:"event"`
	Version      string      `json:"version"`
	Data         WebhookData `json:"data"`
}

type WebhookData struct {
	Product  Product      `json:"product"`
	Buyer    Buyer        `json:"buyer"`
	Purchase PurchaseInfo `json:"purchase"`
}

type Product struct {
	ID    int64  `json:"id"`
	UCode string `json:"ucode"`
	Name  string `json:"name"`
}

type Buyer struct {
	Email             string          `json:"email"`
	Name              string          `json:"name"`
	FirstName         string          `json:"first_name"`
	LastName          string          `json:"last_name"`
	CheckoutPhoneCode string          `json:"checkout_phone_code"`
	CheckoutPhone     string          `json:"checkout_phone"`
	Address           json.RawMessage `json:"address"`
	Document          string          `json:"document"`
	DocumentType      string          `json:"document_type"`
}

type Price struct {
	Value         decimal.Decimal `json:"value"`
	CurrencyValue string          `json:"currency_value"`
}

type PurchaseInfo struct {
	ApprovedDate int64   `json:"approved_date"`
	OrderDate    int64   `json:"order_date"`
	FullPrice    Price   `json:"full_price"`
	Price        Price   `json:"price"`
	Status       string  `json:"status"`
	Transaction  string  `json:"transaction"`
	Payment      Payment `json:"payment"`
	Offer        Offer   `json:"offer"`
}

type Payment struct {
	InstallmentsNumber int    `json:"installments_number"`
	Type               string `json:"type"`
}

type Offer struct {
	Code       string `json:"code"`
	CouponCode string `json:"coupon_code"`
}

// MillisToTime converte as datas da Hotmart (unix millis); zero vira nil.
func MillisToTime(ms int64) *time.Time {
	if ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}
