package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagepass-live/boxoffice-backend/pkg/auth"
	"github.com/stagepass-live/boxoffice-backend/pkg/config"
)

func testAdminConfig() config.AdminConfig {
	return config.AdminConfig{
		JWTSecret:  "test-secret",
		JWTIssuer:  "boxoffice",
		SessionTTL: time.Hour,
		Username:   "admin",
	}
}

func TestAdminAuthAcceptsValidToken(t *testing.T) {
	cfg := testAdminConfig()
	token, err := auth.MintOperatorToken(cfg, time.Now().UTC(), "door-1")
	require.NoError(t, err)

	var gotOperator string
	handler := AdminAuth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOperator, _ = OperatorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/tickets/o-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "door-1", gotOperator)
}

func TestAdminAuthRejectsMissingToken(t *testing.T) {
	handler := AdminAuth(testAdminConfig(), nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/tickets/o-1", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuthRejectsWrongSecret(t *testing.T) {
	otherCfg := testAdminConfig()
	otherCfg.JWTSecret = "different-secret"
	token, err := auth.MintOperatorToken(otherCfg, time.Now().UTC(), "door-1")
	require.NoError(t, err)

	handler := AdminAuth(testAdminConfig(), nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/tickets/o-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuthRejectsExpiredToken(t *testing.T) {
	cfg := testAdminConfig()
	token, err := auth.MintOperatorToken(cfg, time.Now().UTC().Add(-2*time.Hour), "door-1")
	require.NoError(t, err)

	handler := AdminAuth(cfg, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/tickets/o-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
