package paygate

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/stagepass-live/boxoffice-backend/internal/orders"
	"github.com/stagepass-live/boxoffice-backend/pkg/db/models"
	pkgerrors "github.com/stagepass-live/boxoffice-backend/pkg/errors"
	"github.com/stagepass-live/boxoffice-backend/pkg/logger"
	"github.com/stagepass-live/boxoffice-backend/pkg/metrics"
)

// Gateway callback response reasons. These are part of the wire contract
// with the gateway's retry machinery, so they stay stable.
const (
	ReasonInvalidPayload      = "invalid_payload"
	ReasonServerNotConfigured = "server_not_configured"
	ReasonMissingSign         = "missing_sign"
	ReasonInvalidSignature    = "invalid_signature"
	ReasonMissingOrderID      = "missing_order_id"
	ReasonOrderNotFound       = "order_not_found"
	ReasonDBUpdateFailed      = "db_update_failed"
)

// CallbackResponse is the JSON envelope returned to the gateway.
type CallbackResponse struct {
	OK         bool   `json:"ok"`
	Reason     string `json:"reason,omitempty"`
	Accepted   *bool  `json:"accepted,omitempty"`
	Duplicated *bool  `json:"duplicated,omitempty"`
}

// Result pairs the response body with its HTTP status.
type Result struct {
	Status int
	Body   CallbackResponse
}

// OrderMarker is the slice of the order store the webhook drives.
type OrderMarker interface {
	MarkPaidOnce(ctx context.Context, id string, update orders.PaidUpdate) (bool, *models.Order, error)
}

// TicketSender delivers the e-ticket after a confirmed payment.
type TicketSender interface {
	SendTicket(ctx context.Context, order *models.Order) error
}

// WebhookParams groups dependencies for the webhook service.
type WebhookParams struct {
	Secrets       []string
	Modes         []CanonicalMode
	SuccessStatus string
	Orders        OrderMarker
	Tickets       TicketSender
	Logger        *logger.Logger
	Metrics       *metrics.TicketingMetrics
}

// WebhookService authenticates gateway callbacks and drives the idempotent
// paid transition. Replaying the same successful callback any number of times
// yields exactly one paid transition and at most one ticket email.
type WebhookService struct {
	secrets       []string
	modes         []CanonicalMode
	successStatus string
	orders        OrderMarker
	tickets       TicketSender
	logg          *logger.Logger
	metrics       *metrics.TicketingMetrics
}

// NewWebhookService builds the webhook service.
func NewWebhookService(params WebhookParams) (*WebhookService, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order store required")
	}
	modes := params.Modes
	if len(modes) == 0 {
		modes = DefaultModes
	}
	successStatus := params.SuccessStatus
	if successStatus == "" {
		successStatus = "1"
	}
	return &WebhookService{
		secrets:       params.Secrets,
		modes:         modes,
		successStatus: successStatus,
		orders:        params.Orders,
		tickets:       params.Tickets,
		logg:          params.Logger,
		metrics:       params.Metrics,
	}, nil
}

// HandleCallback processes one raw webhook delivery. Authentication and
// validation failures never touch the store; only an authenticated success
// status reaches the conditional write.
func (s *WebhookService) HandleCallback(ctx context.Context, body []byte, contentType string) Result {
	payload, err := ParseCallback(body, contentType)
	if err != nil {
		s.metrics.ObserveWebhook(ReasonInvalidPayload)
		return reject(http.StatusBadRequest, ReasonInvalidPayload)
	}

	if len(s.secrets) == 0 {
		s.metrics.ObserveWebhook(ReasonServerNotConfigured)
		if s.logg != nil {
			s.logg.Error(ctx, "webhook received but no signing secret configured", nil)
		}
		return reject(http.StatusInternalServerError, ReasonServerNotConfigured)
	}

	sign := StringField(payload, signField)
	if sign == "" {
		s.metrics.ObserveWebhook(ReasonMissingSign)
		return reject(http.StatusBadRequest, ReasonMissingSign)
	}

	if !IsValidSignature(payload, sign, s.secrets, s.modes) {
		// Probes and stale retries are routine gateway traffic, not incidents.
		s.metrics.ObserveWebhook(ReasonInvalidSignature)
		if s.logg != nil {
			s.logg.Debug(ctx, "webhook signature mismatch")
		}
		return reject(http.StatusUnauthorized, ReasonInvalidSignature)
	}

	orderID := StringField(payload, "order_id")
	if orderID == "" {
		s.metrics.ObserveWebhook(ReasonMissingOrderID)
		return reject(http.StatusBadRequest, ReasonMissingOrderID)
	}
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, orderID)
	}

	status := StringField(payload, "status")
	if status != s.successStatus {
		// Acknowledged but not actionable; a non-2xx would make the gateway
		// retry a callback it already delivered.
		s.metrics.ObserveWebhook("ignored_status")
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "gateway_status", status), "webhook with non-success status acknowledged")
		}
		return Result{Status: http.StatusOK, Body: CallbackResponse{OK: true, Accepted: boolPtr(false)}}
	}

	update := orders.PaidUpdate{
		PaymentRef: StringField(payload, "payment_id"),
		RawPayload: string(body),
		Currency:   StringField(payload, "currency"),
	}
	if raw := StringField(payload, "amount"); raw != "" {
		if amount, err := decimal.NewFromString(raw); err == nil {
			update.Amount = &amount
		}
	}

	updated, order, err := s.orders.MarkPaidOnce(ctx, orderID, update)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			s.metrics.ObserveWebhook(ReasonOrderNotFound)
			if s.logg != nil {
				s.logg.Warn(ctx, "webhook references unknown order")
			}
			return Result{Status: http.StatusOK, Body: CallbackResponse{OK: true, Reason: ReasonOrderNotFound, Accepted: boolPtr(false)}}
		}
		s.metrics.ObserveWebhook(ReasonDBUpdateFailed)
		if s.logg != nil {
			s.logg.Error(ctx, "marking order paid failed", err)
		}
		return reject(http.StatusInternalServerError, ReasonDBUpdateFailed)
	}

	if !updated {
		s.metrics.ObserveWebhook("duplicate")
		if s.logg != nil {
			s.logg.Info(ctx, "duplicate webhook delivery acknowledged")
		}
		return Result{Status: http.StatusOK, Body: CallbackResponse{OK: true, Accepted: boolPtr(true), Duplicated: boolPtr(true)}}
	}

	s.metrics.ObserveWebhook("accepted")
	if s.logg != nil {
		s.logg.Info(ctx, "order marked paid")
	}

	// Best effort only: the paid state is durable, and the gateway must see
	// success to stop retrying regardless of email delivery.
	if s.tickets != nil {
		if err := s.tickets.SendTicket(ctx, order); err != nil {
			s.metrics.ObserveTicketEmail("failed")
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "send_error", err.Error()), "ticket email delivery failed after payment")
			}
		} else {
			s.metrics.ObserveTicketEmail("sent")
		}
	}

	return Result{Status: http.StatusOK, Body: CallbackResponse{OK: true, Accepted: boolPtr(true), Duplicated: boolPtr(false)}}
}

func reject(status int, reason string) Result {
	return Result{Status: status, Body: CallbackResponse{OK: false, Reason: reason}}
}

func boolPtr(v bool) *bool {
	return &v
}
