package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/quiz-funnel/internal/config"
	"github.com/xavierca1/quiz-funnel/internal/entity"
	"github.com/xavierca1/quiz-funnel/internal/infra/metrics"
)

type SubmitQuizUseCase struct {
	LeadRepo entity.LeadRepositoryInterface
	Sender   AttributionSender
	Meta     config.MetaConfig
}

func NewSubmitQuizUseCase(leadRepo entity.LeadRepositoryInterface, sender AttributionSender, metaCfg config.MetaConfig) *SubmitQuizUseCase {
	return &SubmitQuizUseCase{
		LeadRepo: leadRepo,
		Sender:   sender,
		Meta:     metaCfg,
	}
}

// Execute grava o lead e tenta o evento Lead. Só a gravação pode falhar a
// requisição; a falha de atribuição vira uma mensagem diferente.
func (uc *SubmitQuizUseCase) Execute(ctx context.Context, input QuizSubmissionInput) (*SubmitQuizOutput, error) {
	if errs := ValidateQuizSubmission(input); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Message)
		}
		return nil, &DomainError{
			Code:    "VALIDATION_ERROR",
			Message: strings.Join(msgs, "; "),
		}
	}

	lead := &entity.Lead{
		ID:            uuid.New().String(),
		Email:         input.Email,
		Name:          input.Name,
		Phone:         input.Phone,
		QuizResponses: input.Answers,
		FBP:           input.FBP,
		FBC:           input.FBC,
		UserAgent:     input.UserAgent,
		IPAddress:     input.IPAddress,
	}

	if err := uc.LeadRepo.Upsert(ctx, lead); err != nil {
		return nil, &TechnicalError{
			Code:    "LEAD_STORE_ERROR",
			Message: "erro ao salvar lead",
			Err:     err,
		}
	}
	metrics.RecordLeadCaptured()

	zap.L().Info("Lead saved",
		zap.String("lead_id", lead.ID),
		zap.String("email", lead.Email))

	outcome := sendAttribution(ctx, uc.Sender, buildLeadEvent(lead, uc.Meta))
	if !outcome.Sent() {
		zap.L().Warn("Lead saved but Meta tracking failed",
			zap.String("lead_id", lead.ID),
			zap.String("stage", string(outcome.Err.Stage)),
			zap.Error(outcome.Err.Err))
		return &SubmitQuizOutput{
			Success: true,
			LeadID:  lead.ID,
			Message: MsgQuizTrackingFailed,
		}, nil
	}

	// Sem o event id gravado o Purchase sai sem correlação, mas o lead já existe.
	if err := uc.LeadRepo.UpdateEventID(ctx, lead.ID, outcome.EventID); err != nil {
		zap.L().Error("Failed to persist lead event id",
			zap.String("lead_id", lead.ID),
			zap.String("event_id", outcome.EventID),
			zap.Error(err))
	} else {
		lead.EventID = outcome.EventID
	}

	return &SubmitQuizOutput{
		Success:     true,
		LeadID:      lead.ID,
		MetaEventID: outcome.EventID,
		Message:     MsgQuizSubmitted,
	}, nil
}
