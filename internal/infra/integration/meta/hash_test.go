package meta

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var hexDigest = regexp.MustCompile(`^[a-f0-9]{64}$`)

func TestHashDataEmptyIsSentinel(t *testing.T) {
	assert.Equal(t, "", HashData(""))
	assert.Equal(t, "", HashData("   "))
}

func TestHashDataFormat(t *testing.T) {
	for _, in := range []string{"test@example.com", "11999999999", "Ç"} {
		assert.Regexp(t, hexDigest, HashData(in), in)
	}
}

func TestHashDataKnownDigest(t *testing.T) {
	// sha256("test@example.com")
	assert.Equal(t,
		"973dfe463ec85785f5f95af5ba3906eedb2d931c24e69824a89ea65dba4e813b",
		HashData("test@example.com"))
}

func TestHashDataNormalizesCaseAndWhitespace(t *testing.T) {
	base := HashData("test@example.com")

	variants := []string{
		"TEST@EXAMPLE.COM",
		"  test@example.com  ",
		"\tTest@Example.com\n",
	}
	for _, v := range variants {
		assert.Equal(t, base, HashData(v), v)
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "", NormalizePhone("", "BR"))
	assert.Equal(t, "5511999999999", NormalizePhone("(11) 99999-9999", "BR"))
	assert.Equal(t, "5511999999999", NormalizePhone("+55 11 99999-9999", "BR"))
	assert.Equal(t, "not-a-phone", NormalizePhone("not-a-phone", "BR"))
}
