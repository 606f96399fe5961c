package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/quiz-funnel/internal/infra/integration/hotmart"
	"github.com/xavierca1/quiz-funnel/internal/usecase"
)

const maxWebhookBodyBytes = 1 << 20

type SignatureVerifier interface {
	Verify(rawBody []byte, signature string) bool
}

type WebhookProcessor interface {
	Execute(ctx context.Context, raw []byte, env hotmart.WebhookEnvelope) (*usecase.ProcessWebhookOutput, error)
}

type WebhookHandler struct {
	verifier  SignatureVerifier
	processor WebhookProcessor
}

type webhookResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	PurchaseID string `json:"purchaseId,omitempty"`
}

func NewWebhookHandler(verifier SignatureVerifier, processor WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{
		verifier:  verifier,
		processor: processor,
	}
}

// Handle responde 200 para tudo que passou pela assinatura, inclusive erros,
// para a Hotmart não reenviar em loop.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		zap.L().Error("Failed to read webhook body", zap.Error(err))
		writeError(w, http.StatusOK, "Failed to process webhook")
		return
	}

	if !h.verifier.Verify(raw, signatureHeader(r)) {
		zap.L().Warn("Invalid Hotmart webhook signature", zap.String("remote_ip", getClientIP(r)))
		writeError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var env hotmart.WebhookEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		zap.L().Error("Invalid Hotmart webhook payload", zap.Error(err))
		writeError(w, http.StatusOK, "Failed to process webhook")
		return
	}

	output, err := h.processor.Execute(r.Context(), raw, env)
	if err != nil {
		zap.L().Error("Error processing Hotmart webhook",
			zap.String("event", env.Event),
			zap.String("transaction_id", env.Data.Purchase.Transaction),
			zap.Error(err))
		writeError(w, http.StatusOK, "Failed to process webhook")
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{
		Success:    true,
		Message:    output.Message,
		PurchaseID: output.PurchaseID,
	})
}

func signatureHeader(r *http.Request) string {
	for _, name := range hotmart.SignatureHeaders {
		if v := r.Header.Get(name); v != "" {
			return v
		}
	}
	return ""
}
