package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/stagepass-live/boxoffice-backend/api/responses"
	"github.com/stagepass-live/boxoffice-backend/internal/paygate"
	"github.com/stagepass-live/boxoffice-backend/pkg/logger"
)

// CallbackHandler processes one raw gateway delivery.
type CallbackHandler interface {
	HandleCallback(ctx context.Context, body []byte, contentType string) paygate.Result
}

// maxCallbackBody caps the webhook body read. Real gateway callbacks are a
// few hundred bytes.
const maxCallbackBody = 1 << 20

// PaygateCallback receives payment confirmation callbacks. The response body
// shape is the gateway's contract, so it bypasses the standard envelope.
func PaygateCallback(svc CallbackHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteJSON(w, http.StatusInternalServerError, paygate.CallbackResponse{
				OK:     false,
				Reason: paygate.ReasonServerNotConfigured,
			})
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
		if err != nil {
			if logg != nil {
				logg.Warn(ctx, "reading webhook body failed")
			}
			responses.WriteJSON(w, http.StatusBadRequest, paygate.CallbackResponse{
				OK:     false,
				Reason: paygate.ReasonInvalidPayload,
			})
			return
		}

		result := svc.HandleCallback(ctx, body, r.Header.Get("Content-Type"))
		responses.WriteJSON(w, result.Status, result.Body)
	}
}
