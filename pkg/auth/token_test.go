package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagepass-live/boxoffice-backend/pkg/config"
)

func testAdminConfig() config.AdminConfig {
	return config.AdminConfig{
		JWTSecret:  "test-secret",
		JWTIssuer:  "boxoffice-test",
		SessionTTL: time.Hour,
	}
}

func TestMintAndParseOperatorToken(t *testing.T) {
	cfg := testAdminConfig()

	signed, err := MintOperatorToken(cfg, time.Now(), "door-left")
	require.NoError(t, err)

	claims, err := ParseOperatorToken(cfg, signed)
	require.NoError(t, err)
	assert.Equal(t, "door-left", claims.Operator)
	assert.Equal(t, cfg.JWTIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestParseOperatorTokenRejectsWrongSecret(t *testing.T) {
	cfg := testAdminConfig()

	signed, err := MintOperatorToken(cfg, time.Now(), "door-left")
	require.NoError(t, err)

	other := cfg
	other.JWTSecret = "different"
	_, err = ParseOperatorToken(other, signed)
	assert.Error(t, err)
}

func TestParseOperatorTokenRejectsExpired(t *testing.T) {
	cfg := testAdminConfig()

	signed, err := MintOperatorToken(cfg, time.Now().Add(-2*time.Hour), "door-left")
	require.NoError(t, err)

	_, err = ParseOperatorToken(cfg, signed)
	assert.Error(t, err)
}

func TestMintOperatorTokenRequiresOperator(t *testing.T) {
	_, err := MintOperatorToken(testAdminConfig(), time.Now(), "   ")
	assert.Error(t, err)
}
