package hotmart

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"go.uber.org/zap"
)

// SignatureHeaders são os cabeçalhos aceitos, em ordem de preferência.
var SignatureHeaders = []string{"X-Signature", "X-Hotmart-Signature"}

// Verifier valida o HMAC-SHA256 do corpo bruto do webhook.
type Verifier struct {
	secret   []byte
	insecure bool
}

// NewVerifier cria o verificador. Sem segredo, só aceita webhooks quando
// insecure é true (modo inseguro explícito).
func NewVerifier(secret string, insecure bool) *Verifier {
	v := &Verifier{secret: []byte(secret), insecure: insecure}
	if secret == "" {
		if insecure {
			zap.L().Warn("⚠️ HOTMART_WEBHOOK_SECRET not set: running in INSECURE mode, webhook signatures will NOT be verified")
		} else {
			zap.L().Error("HOTMART_WEBHOOK_SECRET not set and insecure mode disabled: every webhook will be rejected")
		}
	}
	return v
}

// Verify compares the hex HMAC of rawBody with signature. rawBody must be the
// exact bytes received; a re-encoded body will not match.
func (v *Verifier) Verify(rawBody []byte, signature string) bool {
	if len(v.secret) == 0 {
		if v.insecure {
			zap.L().Warn("Hotmart signature verification bypassed (insecure mode)")
			return true
		}
		return false
	}
	if signature == "" {
		return false
	}

	return hmac.Equal([]byte(Sign(v.secret, rawBody)), []byte(signature))
}

// Sign returns the lowercase hex HMAC-SHA256 of body.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
