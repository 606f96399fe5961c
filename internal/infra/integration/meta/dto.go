package meta

import "github.com/shopspring/decimal"

type EventName string

const (
	EventLead        EventName = "Lead"
	EventPurchase    EventName = "Purchase"
	EventViewContent EventName = "ViewContent"
)

// UserData são os dados do visitante antes do hash.
type UserData struct {
	Email     string
	Phone     string
	FBP       string
	FBC       string
	ClientIP  string
	UserAgent string
}

// Event é o que os casos de uso entregam ao Client.
type Event struct {
	Name      EventName
	EventID   string // vazio gera um novo
	User      UserData
	Value     decimal.Decimal
	Currency  string
	SourceURL string
	Custom    map[string]any
}

// Result is the outcome of an accepted send.
type Result struct {
	EventID  string
	Response Response
}

// Response is the body the Graph API returns for /events.
type Response struct {
	EventsReceived int      `json:"events_received"`
	Messages       []string `json:"messages"`
	FBTraceID      string   `json:"fbtrace_id"`
}

// --- Payload enviado para a Graph API ---

type eventsRequest struct {
	Data []serverEvent `json:"data"`
}

type serverEvent struct {
	EventName      EventName      `json:"event_name"`
	EventTime      int64          `json:"event_time"`
	EventID        string         `json:"event_id,omitempty"`
	ActionSource   string         `json:"action_source"`
	EventSourceURL string         `json:"event_source_url,omitempty"`
	UserData       userData       `json:"user_data"`
	CustomData     map[string]any `json:"custom_data,omitempty"`
	OptOut         bool           `json:"opt_out"`
}

type userData struct {
	Em              []string `json:"em,omitempty"`
	Ph              []string `json:"ph,omitempty"`
	Fbp             string   `json:"fbp,omitempty"`
	Fbc             string   `json:"fbc,omitempty"`
	ClientIPAddress string   `json:"client_ip_address,omitempty"`
	ClientUserAgent string   `json:"client_user_agent,omitempty"`
}
