package entity

import (
	"context"
	"errors"
	"time"
)

var ErrLeadNotFound = errors.New("lead não encontrado")

// Lead é a identidade capturada pelo quiz. Existe no máximo um por email.
type Lead struct {
	ID            string            `json:"id"`
	Email         string            `json:"email"`
	Name          string            `json:"name,omitempty"`
	Phone         string            `json:"phone,omitempty"`
	QuizResponses map[string]string `json:"quiz_responses"`

	// Identificadores do pixel; gravados na primeira submissão que os trouxer.
	FBP string `json:"fbp,omitempty"`
	FBC string `json:"fbc,omitempty"`

	UserAgent string `json:"user_agent,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`

	// EventID do último evento Lead aceito pela Meta, reaproveitado no Purchase.
	EventID string `json:"event_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LeadRepositoryInterface interface {
	Upsert(ctx context.Context, lead *Lead) error
	FindByEmail(ctx context.Context, email string) (*Lead, error)
	UpdateEventID(ctx context.Context, leadID, eventID string) error
}
