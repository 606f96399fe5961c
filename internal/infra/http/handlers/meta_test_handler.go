package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/quiz-funnel/internal/infra/integration/meta"
)

type TestEventSender interface {
	SendTestEvent(ctx context.Context) (*meta.Result, error)
}

type MetaTestHandler struct {
	sender TestEventSender
}

func NewMetaTestHandler(sender TestEventSender) *MetaTestHandler {
	return &MetaTestHandler{sender: sender}
}

func (h *MetaTestHandler) Handle(w http.ResponseWriter, r *http.Request) {
	res, err := h.sender.SendTestEvent(r.Context())
	if err != nil {
		zap.L().Error("Meta test event failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to send test event to Meta")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Test event sent to Meta",
		"result":  res.Response,
	})
}
