package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/xavierca1/quiz-funnel/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

// Upsert grava o lead por email. Respostas do quiz são sempre sobrescritas
// (última submissão vence); fbp/fbc já gravados nunca são trocados.
func (r *LeadRepository) Upsert(ctx context.Context, lead *entity.Lead) error {
	responses, err := json.Marshal(nonNilMap(lead.QuizResponses))
	if err != nil {
		return fmt.Errorf("erro ao serializar respostas do quiz: %w", err)
	}

	query := `
		INSERT INTO leads (id, email, name, phone, quiz_responses, fbp, fbc, user_agent, ip_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (email)
		DO UPDATE SET
			name = COALESCE(EXCLUDED.name, leads.name),
			phone = COALESCE(EXCLUDED.phone, leads.phone),
			quiz_responses = EXCLUDED.quiz_responses,
			fbp = COALESCE(leads.fbp, EXCLUDED.fbp),
			fbc = COALESCE(leads.fbc, EXCLUDED.fbc),
			user_agent = COALESCE(EXCLUDED.user_agent, leads.user_agent),
			ip_address = COALESCE(EXCLUDED.ip_address, leads.ip_address),
			updated_at = NOW()
		RETURNING id, fbp, fbc, event_id, created_at, updated_at
	`

	id := lead.ID
	if id == "" {
		id = uuid.New().String()
	}

	var fbp, fbc, eventID sql.NullString
	err = r.DB.QueryRowContext(
		ctx,
		query,
		id,
		lead.Email,
		nullString(lead.Name),
		nullString(lead.Phone),
		string(responses),
		nullString(lead.FBP),
		nullString(lead.FBC),
		nullString(lead.UserAgent),
		nullString(lead.IPAddress),
	).Scan(
		&lead.ID,
		&fbp,
		&fbc,
		&eventID,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("erro ao salvar lead: %w", err)
	}

	lead.FBP = fbp.String
	lead.FBC = fbc.String
	lead.EventID = eventID.String
	return nil
}

func (r *LeadRepository) FindByEmail(ctx context.Context, email string) (*entity.Lead, error) {
	query := `
		SELECT id, email, name, phone, quiz_responses, fbp, fbc, user_agent, ip_address, event_id, created_at, updated_at
		FROM leads
		WHERE email = $1
	`

	var (
		lead                                   entity.Lead
		name, phone, fbp, fbc, ua, ip, eventID sql.NullString
		responses                              []byte
	)
	err := r.DB.QueryRowContext(ctx, query, email).Scan(
		&lead.ID,
		&lead.Email,
		&name,
		&phone,
		&responses,
		&fbp,
		&fbc,
		&ua,
		&ip,
		&eventID,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrLeadNotFound
		}
		return nil, fmt.Errorf("erro ao buscar lead: %w", err)
	}

	if len(responses) > 0 {
		if err := json.Unmarshal(responses, &lead.QuizResponses); err != nil {
			return nil, fmt.Errorf("respostas do quiz corrompidas: %w", err)
		}
	}
	lead.Name = name.String
	lead.Phone = phone.String
	lead.FBP = fbp.String
	lead.FBC = fbc.String
	lead.UserAgent = ua.String
	lead.IPAddress = ip.String
	lead.EventID = eventID.String

	return &lead, nil
}

func (r *LeadRepository) UpdateEventID(ctx context.Context, leadID, eventID string) error {
	query := `UPDATE leads SET event_id = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, leadID, eventID)
	if err != nil {
		return fmt.Errorf("erro ao gravar event id do lead: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
