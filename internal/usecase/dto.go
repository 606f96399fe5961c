package usecase

import "github.com/xavierca1/quiz-funnel/internal/infra/integration/hotmart"

// Respostas do quiz.
const (
	MsgQuizSubmitted        = "Quiz submitted successfully"
	MsgQuizTrackingFailed   = "Quiz submitted (Meta tracking failed)"
	MsgPurchaseProcessed    = "Purchase processed successfully"
	MsgPurchaseDuplicate    = "Purchase already processed"
	MsgPurchaseCompleted    = "Purchase completed"
	MsgPurchaseRefunded     = "Purchase refunded"
	MsgChargebackReceived   = "Chargeback received"
	MsgAbandonedCart        = "Abandoned cart"
	MsgPaymentPending       = "Payment pending"
	MsgUnknownEventReceived = "Event received"
)

// Chaves das respostas do quiz enviadas pelo front.
var QuizAnswerFields = []string{
	"babyAge",
	"wakeUps",
	"sleepMethod",
	"hasRoutine",
	"motherFeeling",
	"triedOtherMethods",
}

// QuizSubmissionInput é a submissão já normalizada.
type QuizSubmissionInput struct {
	Email   string
	Name    string
	Phone   string
	FBP     string
	FBC     string
	Answers map[string]string

	UserAgent string
	IPAddress string
}

type SubmitQuizOutput struct {
	Success     bool   `json:"success"`
	LeadID      string `json:"leadId"`
	MetaEventID string `json:"metaEventId,omitempty"`
	Message     string `json:"message"`
}

// ProcessWebhookOutput resume o que aconteceu com uma entrega.
type ProcessWebhookOutput struct {
	Event       string
	Message     string
	PurchaseID  string
	Duplicate   bool
	Attribution *AttributionOutcome
}

// Mensagem devolvida para cada tipo de evento sem pipeline próprio.
var webhookAckMessages = map[string]string{
	hotmart.EventPurchaseCompleted: MsgPurchaseCompleted,
	hotmart.EventPurchaseRefunded:  MsgPurchaseRefunded,
	hotmart.EventChargeback:        MsgChargebackReceived,
	hotmart.EventAbandonedCart:     MsgAbandonedCart,
	hotmart.EventPaymentPending:    MsgPaymentPending,
}
