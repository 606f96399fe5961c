package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/quiz-funnel/internal/config"
)

const defaultCurrency = "BRL"

// APIError é devolvido quando a Graph API responde fora da faixa 2xx.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("meta capi rejected event (status %d): %s", e.StatusCode, e.Body)
}

type Client struct {
	cfg  config.MetaConfig
	http *http.Client
	now  func() time.Time
}

// NewClient monta o client da Conversions API. Credenciais ausentes só são
// reportadas no envio.
func NewClient(cfg config.MetaConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://graph.facebook.com"
	}
	return &Client{cfg: cfg, http: httpClient, now: time.Now}
}

// NewEventID gera "{evento}_{unixMillis}_{sufixo}".
func NewEventID(name EventName) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s_%d_%s", name, time.Now().UnixMilli(), suffix)
}

// Send envia um único evento. Não faz retry: a política de falha é de quem chama.
func (c *Client) Send(ctx context.Context, e Event) (*Result, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}

	eventID := e.EventID
	if eventID == "" {
		eventID = NewEventID(e.Name)
	}

	sourceURL := e.SourceURL
	if sourceURL == "" {
		sourceURL = c.cfg.DefaultSourceURL
	}

	payload := eventsRequest{
		Data: []serverEvent{{
			EventName:      e.Name,
			EventTime:      c.now().Unix(),
			EventID:        eventID,
			ActionSource:   "website",
			EventSourceURL: sourceURL,
			UserData:       c.buildUserData(e.User),
			CustomData:     buildCustomData(e),
			OptOut:         false,
		}},
	}

	resp, err := c.post(ctx, payload)
	if err != nil {
		zap.L().Error("Meta CAPI send failed",
			zap.String("event_name", string(e.Name)),
			zap.String("event_id", eventID),
			zap.Error(err))
		return nil, err
	}

	zap.L().Info("Meta CAPI event sent",
		zap.String("event_name", string(e.Name)),
		zap.String("event_id", eventID),
		zap.Int("events_received", resp.EventsReceived),
		zap.String("fbtrace_id", resp.FBTraceID))

	return &Result{EventID: eventID, Response: *resp}, nil
}

// SendTestEvent manda um ViewContent sintético para validar credenciais.
func (c *Client) SendTestEvent(ctx context.Context) (*Result, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}

	payload := eventsRequest{
		Data: []serverEvent{{
			EventName:    EventViewContent,
			EventTime:    c.now().Unix(),
			ActionSource: "website",
			UserData: userData{
				ClientIPAddress: "0.0.0.0",
				ClientUserAgent: "test-agent",
			},
		}},
	}

	resp, err := c.post(ctx, payload)
	if err != nil {
		zap.L().Error("Meta CAPI test event failed", zap.Error(err))
		return nil, err
	}
	zap.L().Info("Meta CAPI test event sent", zap.String("fbtrace_id", resp.FBTraceID))
	return &Result{Response: *resp}, nil
}

func (c *Client) buildUserData(u UserData) userData {
	ud := userData{
		Fbp:             u.FBP,
		Fbc:             u.FBC,
		ClientIPAddress: u.ClientIP,
		ClientUserAgent: u.UserAgent,
	}
	if h := HashData(u.Email); h != "" {
		ud.Em = []string{h}
	}
	if h := HashData(NormalizePhone(u.Phone, c.cfg.PhoneRegion)); h != "" {
		ud.Ph = []string{h}
	}
	return ud
}

func buildCustomData(e Event) map[string]any {
	custom := make(map[string]any, len(e.Custom)+2)
	for k, v := range e.Custom {
		custom[k] = v
	}

	currency := e.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	custom["currency"] = currency

	// Lead é um sinal de conversão de valor zero.
	if e.Name == EventLead {
		custom["value"] = 0
	} else {
		custom["value"] = e.Value.InexactFloat64()
	}
	return custom
}

func (c *Client) endpoint() string {
	q := url.Values{}
	q.Set("access_token", c.cfg.AccessToken)
	return fmt.Sprintf("%s/%s/%s/events?%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.APIVersion, c.cfg.PixelID, q.Encode())
}

func (c *Client) post(ctx context.Context, payload eventsRequest) (*Response, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("erro ao gerar json do evento: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "QuizFunnel/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erro na conexão com a meta: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out Response
	if len(body) > 0 {
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("erro ao ler resposta da meta: %w", err)
		}
	}
	return &out, nil
}
