package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/quiz-funnel/internal/entity"
	"github.com/xavierca1/quiz-funnel/internal/infra/integration/meta"
	"github.com/xavierca1/quiz-funnel/internal/infra/mail"
	"github.com/xavierca1/quiz-funnel/internal/infra/queue"
)

type MockLeadRepo struct{ mock.Mock }

func (m *MockLeadRepo) Upsert(ctx context.Context, lead *entity.Lead) error {
	return m.Called(ctx, lead).Error(0)
}

func (m *MockLeadRepo) FindByEmail(ctx context.Context, email string) (*entity.Lead, error) {
	args := m.Called(ctx, email)
	lead, _ := args.Get(0).(*entity.Lead)
	return lead, args.Error(1)
}

func (m *MockLeadRepo) UpdateEventID(ctx context.Context, leadID, eventID string) error {
	return m.Called(ctx, leadID, eventID).Error(0)
}

type MockPurchaseRepo struct{ mock.Mock }

func (m *MockPurchaseRepo) Create(ctx context.Context, p *entity.Purchase) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPurchaseRepo) FindByTransactionID(ctx context.Context, transactionID string) (*entity.Purchase, error) {
	args := m.Called(ctx, transactionID)
	p, _ := args.Get(0).(*entity.Purchase)
	return p, args.Error(1)
}

func (m *MockPurchaseRepo) UpdateMetaStatus(ctx context.Context, purchaseID, eventID string) error {
	return m.Called(ctx, purchaseID, eventID).Error(0)
}

func (m *MockPurchaseRepo) ReserveEventID(ctx context.Context, purchaseID, eventID string) (string, error) {
	args := m.Called(ctx, purchaseID, eventID)
	if fn, ok := args.Get(0).(func(context.Context, string, string) string); ok {
		return fn(ctx, purchaseID, eventID), args.Error(1)
	}
	return args.String(0), args.Error(1)
}

func (m *MockPurchaseRepo) RecordAttributionFailure(ctx context.Context, purchaseID, reason string) (int, error) {
	args := m.Called(ctx, purchaseID, reason)
	return args.Int(0), args.Error(1)
}

func (m *MockPurchaseRepo) ListUnattributed(ctx context.Context, staleBefore time.Time, maxAttempts, limit int) ([]*entity.Purchase, error) {
	args := m.Called(ctx, staleBefore, maxAttempts, limit)
	ps, _ := args.Get(0).([]*entity.Purchase)
	return ps, args.Error(1)
}

type MockSender struct{ mock.Mock }

func (m *MockSender) Send(ctx context.Context, e meta.Event) (*meta.Result, error) {
	args := m.Called(ctx, e)
	res, _ := args.Get(0).(*meta.Result)
	return res, args.Error(1)
}

type MockQueue struct{ mock.Mock }

func (m *MockQueue) PublishAttributionRetry(ctx context.Context, payload queue.AttributionRetryPayload) error {
	return m.Called(ctx, payload).Error(0)
}

type MockDedup struct{ mock.Mock }

func (m *MockDedup) Claim(ctx context.Context, transactionID string) (bool, error) {
	args := m.Called(ctx, transactionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDedup) Release(ctx context.Context, transactionID string) error {
	return m.Called(ctx, transactionID).Error(0)
}

type MockAlert struct{ mock.Mock }

func (m *MockAlert) SendAttributionAlert(data mail.AttributionAlertData) error {
	return m.Called(data).Error(0)
}

func acceptedResult(eventID string) *meta.Result {
	return &meta.Result{EventID: eventID, Response: meta.Response{EventsReceived: 1, FBTraceID: "trace"}}
}
