package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/quiz-funnel/internal/usecase"
)

const maxQuizBodyBytes = 64 << 10

type QuizSubmitter interface {
	Execute(ctx context.Context, input usecase.QuizSubmissionInput) (*usecase.SubmitQuizOutput, error)
}

type QuizHandler struct {
	submitter QuizSubmitter
}

func NewQuizHandler(submitter QuizSubmitter) *QuizHandler {
	return &QuizHandler{submitter: submitter}
}

// Submit atende as duas variantes do front (/submit e /submit-response).
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQuizBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	input := usecase.ParseQuizSubmission(body)
	input.IPAddress = getClientIP(r)
	input.UserAgent = r.UserAgent()

	if errs := usecase.ValidateQuizSubmission(input); len(errs) > 0 {
		writeError(w, http.StatusBadRequest, errs[0].Message)
		return
	}

	output, err := h.submitter.Execute(r.Context(), input)
	if err != nil {
		if usecase.IsDomainError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		zap.L().Error("Quiz submission failed",
			zap.String("email", input.Email),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to submit quiz")
		return
	}

	writeJSON(w, http.StatusOK, output)
}
