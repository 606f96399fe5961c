package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNullString(t *testing.T) {
	assert.Nil(t, nullString(""))
	if got := nullString("fb.1.1558571054389.1098115397"); assert.NotNil(t, got) {
		assert.Equal(t, "fb.1.1558571054389.1098115397", *got)
	}
}

func TestNullJSON(t *testing.T) {
	assert.Nil(t, nullJSON(nil))
	assert.Nil(t, nullJSON([]byte("null")))
	if got := nullJSON([]byte(`{"city":"São Paulo"}`)); assert.NotNil(t, got) {
		assert.Equal(t, `{"city":"São Paulo"}`, *got)
	}
}

func TestNonNilMap(t *testing.T) {
	assert.NotNil(t, nonNilMap(nil))
	m := map[string]string{"babyAge": "0-3 meses"}
	assert.Equal(t, m, nonNilMap(m))
}

func TestSchemaKeepsMetaSentInvariant(t *testing.T) {
	var purchases string
	for _, stmt := range schema {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS purchases") {
			purchases = stmt
		}
	}
	assert.Contains(t, purchases, "hotmart_transaction_id TEXT NOT NULL UNIQUE")
	assert.Contains(t, purchases, "CHECK (NOT meta_sent OR meta_event_id IS NOT NULL)")
}
