package tickets

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeIsDeterministic(t *testing.T) {
	orderID := "demo-show-evt1-abc"

	sum := sha256.Sum256([]byte(orderID))
	expected := strings.ToUpper(hex.EncodeToString(sum[:])[:12])

	assert.Equal(t, expected, Code(orderID))
	assert.Equal(t, Code(orderID), Code(orderID))
	assert.Len(t, Code(orderID), 12)
}

func TestCodeDiffersPerOrder(t *testing.T) {
	assert.NotEqual(t, Code("demo-show-evt1-abc"), Code("demo-show-evt1-abd"))
}

func TestValidateAcceptsAnyCase(t *testing.T) {
	orderID := "demo-show-evt1-abc"
	code := Code(orderID)

	assert.True(t, Validate(orderID, code))
	assert.True(t, Validate(orderID, strings.ToLower(code)))
	assert.True(t, Validate(orderID, "  "+code+" "))
}

func TestValidateRejectsMismatch(t *testing.T) {
	assert.False(t, Validate("demo-show-evt1-abc", "AAAAAAAAAAAA"))
	assert.False(t, Validate("demo-show-evt1-abc", ""))
	assert.False(t, Validate("", "AAAAAAAAAAAA"))
}

func TestVerifyURLCarriesOrderAndCode(t *testing.T) {
	orderID := "demo-show-evt1-abc"

	raw := VerifyURL("https://tickets.example.com/verify", orderID)
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	query := parsed.Query()
	assert.Equal(t, orderID, query.Get("order_id"))
	assert.Equal(t, Code(orderID), query.Get("code"))
}

func TestVerifyURLAppendsToExistingQuery(t *testing.T) {
	raw := VerifyURL("https://tickets.example.com/verify?lang=he", "o-1")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	query := parsed.Query()
	assert.Equal(t, "he", query.Get("lang"))
	assert.Equal(t, "o-1", query.Get("order_id"))
}
