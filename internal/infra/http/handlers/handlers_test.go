package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/quiz-funnel/internal/infra/integration/hotmart"
	"github.com/xavierca1/quiz-funnel/internal/infra/integration/meta"
	"github.com/xavierca1/quiz-funnel/internal/usecase"
)

type MockSubmitter struct{ mock.Mock }

func (m *MockSubmitter) Execute(ctx context.Context, input usecase.QuizSubmissionInput) (*usecase.SubmitQuizOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*usecase.SubmitQuizOutput)
	return out, args.Error(1)
}

type MockProcessor struct{ mock.Mock }

func (m *MockProcessor) Execute(ctx context.Context, raw []byte, env hotmart.WebhookEnvelope) (*usecase.ProcessWebhookOutput, error) {
	args := m.Called(ctx, raw, env)
	out, _ := args.Get(0).(*usecase.ProcessWebhookOutput)
	return out, args.Error(1)
}

type MockTestSender struct{ mock.Mock }

func (m *MockTestSender) SendTestEvent(ctx context.Context) (*meta.Result, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*meta.Result)
	return res, args.Error(1)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestQuizSubmitSuccess(t *testing.T) {
	sub := new(MockSubmitter)
	sub.On("Execute", mock.Anything, mock.MatchedBy(func(in usecase.QuizSubmissionInput) bool {
		return in.Email == "a@b.com" &&
			in.Answers["wakeUps"] == "3" &&
			in.IPAddress == "192.168.1.1" &&
			in.UserAgent == "Mozilla/5.0"
	})).Return(&usecase.SubmitQuizOutput{
		Success:     true,
		LeadID:      "lead-1",
		MetaEventID: "Lead_1700000000000_abc12",
		Message:     usecase.MsgQuizSubmitted,
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/quiz/submit", strings.NewReader(`{"email":"a@b.com","wakeUps":3}`))
	req.RemoteAddr = "192.168.1.1:4321"
	req.Header.Set("User-Agent", "Mozilla/5.0")
	rec := httptest.NewRecorder()

	NewQuizHandler(sub).Submit(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "lead-1", body["leadId"])
	assert.Equal(t, "Lead_1700000000000_abc12", body["metaEventId"])
	assert.Equal(t, "Quiz submitted successfully", body["message"])
}

func TestQuizSubmitTrackingFailedStillOK(t *testing.T) {
	sub := new(MockSubmitter)
	sub.On("Execute", mock.Anything, mock.Anything).Return(&usecase.SubmitQuizOutput{
		Success: true,
		LeadID:  "lead-1",
		Message: usecase.MsgQuizTrackingFailed,
	}, nil)

	rec := httptest.NewRecorder()
	NewQuizHandler(sub).Submit(rec, httptest.NewRequest(http.MethodPost, "/api/quiz/submit", strings.NewReader(`{"email":"a@b.com"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Quiz submitted (Meta tracking failed)", body["message"])
	assert.NotContains(t, body, "metaEventId")
}

func TestQuizSubmitMissingEmail(t *testing.T) {
	sub := new(MockSubmitter)

	rec := httptest.NewRecorder()
	NewQuizHandler(sub).Submit(rec, httptest.NewRequest(http.MethodPost, "/api/quiz/submit", strings.NewReader(`{"name":"Ana"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email is required", decodeBody(t, rec)["error"])
	sub.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestQuizSubmitInvalidJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	NewQuizHandler(new(MockSubmitter)).Submit(rec, httptest.NewRequest(http.MethodPost, "/api/quiz/submit", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuizSubmitStoreFailure(t *testing.T) {
	sub := new(MockSubmitter)
	sub.On("Execute", mock.Anything, mock.Anything).Return(nil, &usecase.TechnicalError{Code: "LEAD_STORE_ERROR", Message: "erro ao salvar lead"})

	rec := httptest.NewRecorder()
	NewQuizHandler(sub).Submit(rec, httptest.NewRequest(http.MethodPost, "/api/quiz/submit", strings.NewReader(`{"email":"a@b.com"}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to submit quiz", decodeBody(t, rec)["error"])
}

const testSecret = "s3cret"

func signedRequest(body, header, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/hotmart", strings.NewReader(body))
	if header != "" {
		req.Header.Set(header, signature)
	}
	return req
}

func TestWebhookInvalidSignatureNeverReachesProcessor(t *testing.T) {
	proc := new(MockProcessor)
	h := NewWebhookHandler(hotmart.NewVerifier(testSecret, false), proc)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(`{"event":"PURCHASE_APPROVED"}`, "X-Signature", "deadbeef"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid signature", decodeBody(t, rec)["error"])
	proc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookValidSignatureDispatches(t *testing.T) {
	body := `{"event":"PURCHASE_APPROVED","data":{"purchase":{"transaction":"HP1"}}}`
	proc := new(MockProcessor)
	proc.On("Execute", mock.Anything, []byte(body), mock.MatchedBy(func(env hotmart.WebhookEnvelope) bool {
		return env.Event == hotmart.EventPurchaseApproved && env.Data.Purchase.Transaction == "HP1"
	})).Return(&usecase.ProcessWebhookOutput{Message: usecase.MsgPurchaseProcessed, PurchaseID: "p-1"}, nil)

	h := NewWebhookHandler(hotmart.NewVerifier(testSecret, false), proc)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(body, "X-Hotmart-Signature", hotmart.Sign([]byte(testSecret), []byte(body))))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "Purchase processed successfully", resp["message"])
	assert.Equal(t, "p-1", resp["purchaseId"])
	proc.AssertExpectations(t)
}

func TestWebhookProcessingErrorStillReturns200(t *testing.T) {
	body := `{"event":"PURCHASE_APPROVED"}`
	proc := new(MockProcessor)
	proc.On("Execute", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	h := NewWebhookHandler(hotmart.NewVerifier(testSecret, false), proc)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(body, "X-Signature", hotmart.Sign([]byte(testSecret), []byte(body))))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Failed to process webhook", decodeBody(t, rec)["error"])
}

func TestWebhookMalformedJSONReturns200(t *testing.T) {
	body := `not json`
	proc := new(MockProcessor)
	h := NewWebhookHandler(hotmart.NewVerifier(testSecret, false), proc)

	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(body, "X-Signature", hotmart.Sign([]byte(testSecret), []byte(body))))

	assert.Equal(t, http.StatusOK, rec.Code)
	proc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
}

func TestMetaTestEndpoint(t *testing.T) {
	ok := new(MockTestSender)
	ok.On("SendTestEvent", mock.Anything).Return(&meta.Result{Response: meta.Response{EventsReceived: 1}}, nil)

	rec := httptest.NewRecorder()
	NewMetaTestHandler(ok).Handle(rec, httptest.NewRequest(http.MethodPost, "/api/meta/test", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	failing := new(MockTestSender)
	failing.On("SendTestEvent", mock.Anything).Return(nil, errors.New("401"))

	rec = httptest.NewRecorder()
	NewMetaTestHandler(failing).Handle(rec, httptest.NewRequest(http.MethodPost, "/api/meta/test", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to send test event to Meta", decodeBody(t, rec)["error"])
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }
func (p fakePinger) Ping(context.Context) error        { return p.err }

func TestHealthAlwaysOK(t *testing.T) {
	h := NewHealthHandler(fakePinger{err: errors.New("refused")}, nil, fakePinger{})

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])

	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "unhealthy: refused", deps["database"])
	assert.Equal(t, "not configured", deps["rabbitmq"])
	assert.Equal(t, "healthy", deps["redis"])
}
