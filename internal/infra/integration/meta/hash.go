package meta

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// HashData normaliza (minúsculas, sem espaços nas pontas) e aplica SHA-256.
// Entrada vazia (ou só espaços) devolve "" e não o hash da string vazia.
func HashData(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// NormalizePhone devolve o telefone em dígitos E.164 sem o "+", formato
// esperado pela Meta. Números que não parseiam voltam como vieram.
func NormalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsPossibleNumber(number) {
		return raw
	}
	return strings.TrimPrefix(phonenumbers.Format(number, phonenumbers.E164), "+")
}
