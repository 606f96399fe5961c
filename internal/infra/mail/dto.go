package mail

// AttributionAlertData alimenta o template do alerta para o operador.
type AttributionAlertData struct {
	TransactionID string
	Email         string
	Value         string
	Currency      string
	Attempts      int
	LastError     string
}

type AlertSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
}
