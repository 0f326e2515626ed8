package middleware

import (
	"net/http"
	"strings"

	"github.com/stagepass-live/boxoffice-backend/api/responses"
	"github.com/stagepass-live/boxoffice-backend/pkg/auth"
	"github.com/stagepass-live/boxoffice-backend/pkg/config"
	pkgerrors "github.com/stagepass-live/boxoffice-backend/pkg/errors"
	"github.com/stagepass-live/boxoffice-backend/pkg/logger"
)

// AdminAuth gates the operator surface behind a bearer token minted at login.
// The operator name lands in the request context for audit fields.
func AdminAuth(cfg config.AdminConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := bearerToken(r)
			if token == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := auth.ParseOperatorToken(cfg, token)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx = withOperator(ctx, claims.Operator)
			if logg != nil {
				ctx = logg.WithOperator(ctx, claims.Operator)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
