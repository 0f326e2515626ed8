package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/stagepass-live/boxoffice-backend/api/responses"
	"github.com/stagepass-live/boxoffice-backend/api/validators"
	"github.com/stagepass-live/boxoffice-backend/pkg/auth"
	"github.com/stagepass-live/boxoffice-backend/pkg/config"
	pkgerrors "github.com/stagepass-live/boxoffice-backend/pkg/errors"
	"github.com/stagepass-live/boxoffice-backend/pkg/logger"
	"github.com/stagepass-live/boxoffice-backend/pkg/security"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Operator  string    `json:"operator"`
}

// AdminLogin exchanges the configured operator credential for a bearer token.
// Both a wrong username and a wrong password produce the same response.
func AdminLogin(cfg config.AdminConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		username := strings.ToLower(strings.TrimSpace(payload.Username))
		usernameOK := username == strings.ToLower(cfg.Username)

		passwordOK, err := security.VerifyPassword(payload.Password, cfg.PasswordHash)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify credential"))
			return
		}

		if !usernameOK || !passwordOK {
			if logg != nil {
				logg.Warn(ctx, "admin login rejected")
			}
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials"))
			return
		}

		now := time.Now().UTC()
		token, err := auth.MintOperatorToken(cfg, now, username)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token"))
			return
		}

		if logg != nil {
			logg.Info(logg.WithOperator(ctx, username), "admin login succeeded")
		}
		responses.WriteSuccess(w, loginResponse{
			Token:     token,
			ExpiresAt: now.Add(cfg.SessionTTL),
			Operator:  username,
		})
	}
}
