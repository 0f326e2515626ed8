package paygate

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeSortsTopLevelKeys(t *testing.T) {
	payload := map[string]any{
		"zebra":  "last",
		"alpha":  "first",
		"middle": "between",
		"sign":   "should-be-stripped",
	}

	got := Canonicalize(payload, ModeAllScalars)
	assert.Equal(t, "first:between:last", got)
}

func TestCanonicalizeSkipsEmptyStringsAndNonScalars(t *testing.T) {
	payload := map[string]any{
		"a": "one",
		"b": "",
		"c": map[string]any{"nested": "object"},
		"d": "two",
	}

	got := Canonicalize(payload, ModeAllScalars)
	assert.Equal(t, "one:two", got)
}

func TestCanonicalizeArrayOfObjects(t *testing.T) {
	payload := map[string]any{
		"order_id": "ord-1",
		"items": []any{
			map[string]any{"name": "balcony", "id": "b1"},
			map[string]any{"name": "stalls", "id": "s1"},
		},
	}

	// Array elements keep array order; keys inside each element sort.
	got := Canonicalize(payload, ModeAllScalars)
	assert.Equal(t, "b1:balcony:s1:stalls:ord-1", got)
}

func TestCanonicalizeModeControlsNonStringScalars(t *testing.T) {
	payload := map[string]any{
		"amount": json.Number("250.00"),
		"name":   "dana",
		"live":   true,
	}

	assert.Equal(t, "250.00:true:dana", Canonicalize(payload, ModeAllScalars))
	assert.Equal(t, "dana", Canonicalize(payload, ModeStringScalars))
}

func TestSignatureRoundTrip(t *testing.T) {
	payload := map[string]any{
		"order_id": "demo-show-evt1-abc",
		"status":   "1",
		"amount":   "250.00",
	}
	secret := "s3cret"

	sign := ComputeSignature(payload, secret, ModeAllScalars)
	payload["sign"] = sign

	assert.True(t, IsValidSignature(payload, sign, []string{secret}, DefaultModes))
}

func TestSignatureRejectsMutatedPayload(t *testing.T) {
	payload := map[string]any{
		"order_id": "demo-show-evt1-abc",
		"status":   "1",
		"amount":   "250.00",
	}
	secret := "s3cret"
	sign := ComputeSignature(payload, secret, ModeAllScalars)

	payload["amount"] = "250.01"
	assert.False(t, IsValidSignature(payload, sign, []string{secret}, DefaultModes))
}

func TestSignatureKeyOrderIndependent(t *testing.T) {
	first := parseJSON(t, `{"order_id":"o-1","status":"1","amount":"9.90"}`)
	second := parseJSON(t, `{"amount":"9.90","order_id":"o-1","status":"1"}`)

	assert.Equal(t,
		ComputeSignature(first, "k", ModeAllScalars),
		ComputeSignature(second, "k", ModeAllScalars),
	)
}

func TestSignatureAcceptsUppercaseHex(t *testing.T) {
	payload := map[string]any{"order_id": "o-1", "status": "1"}
	sign := strings.ToUpper(ComputeSignature(payload, "k", ModeAllScalars))

	assert.True(t, IsValidSignature(payload, sign, []string{"k"}, DefaultModes))
}

func TestSignatureTriesAllSecretsAndModes(t *testing.T) {
	payload := map[string]any{
		"order_id": "o-1",
		"qty":      json.Number("2"),
	}

	// Signed with the fallback secret under string-only canonicalization.
	sign := ComputeSignature(payload, "fallback", ModeStringScalars)

	assert.True(t, IsValidSignature(payload, sign, []string{"primary", "fallback"}, DefaultModes))
	assert.False(t, IsValidSignature(payload, sign, []string{"primary"}, DefaultModes))
}

func TestSignatureRejectsLengthMismatch(t *testing.T) {
	payload := map[string]any{"order_id": "o-1"}
	assert.False(t, IsValidSignature(payload, "deadbeef", []string{"k"}, DefaultModes))
}

func TestSignatureRejectsWithoutSecrets(t *testing.T) {
	payload := map[string]any{"order_id": "o-1"}
	sign := ComputeSignature(payload, "k", ModeAllScalars)
	assert.False(t, IsValidSignature(payload, sign, nil, DefaultModes))
}

func parseJSON(t *testing.T, raw string) map[string]any {
	t.Helper()
	payload, err := ParseCallback([]byte(raw), "application/json")
	require.NoError(t, err)
	return payload
}
