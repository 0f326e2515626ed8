package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stagepass-live/boxoffice-backend/api/middleware"
	"github.com/stagepass-live/boxoffice-backend/api/responses"
	"github.com/stagepass-live/boxoffice-backend/api/validators"
	"github.com/stagepass-live/boxoffice-backend/internal/orders"
	"github.com/stagepass-live/boxoffice-backend/internal/tickets"
	"github.com/stagepass-live/boxoffice-backend/pkg/db/models"
	"github.com/stagepass-live/boxoffice-backend/pkg/enums"
	"github.com/stagepass-live/boxoffice-backend/pkg/logger"
)

// AdminOrderService is the order surface the admin controllers consume.
type AdminOrderService interface {
	Get(ctx context.Context, id string) (*models.Order, error)
	CreateComplimentary(ctx context.Context, req orders.CompTicketRequest) (*models.Order, error)
}

// TicketIssuer renders and re-sends tickets for paid orders.
type TicketIssuer interface {
	Issue(order *models.Order) (*tickets.Ticket, error)
	SendTicket(ctx context.Context, order *models.Order) error
}

// RedemptionGate consumes tickets at the door.
type RedemptionGate interface {
	Redeem(ctx context.Context, orderID, code, operator string) (*tickets.RedemptionResult, error)
}

type orderView struct {
	ID         string     `json:"id"`
	ShowID     string     `json:"show_id"`
	EventID    string     `json:"event_id"`
	Qty        int        `json:"qty"`
	BuyerName  string     `json:"buyer_name"`
	BuyerEmail string     `json:"buyer_email"`
	Amount     string     `json:"amount"`
	Currency   string     `json:"currency"`
	Status     string     `json:"status"`
	PaymentRef string     `json:"payment_ref,omitempty"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	TicketCode string     `json:"ticket_code,omitempty"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
	RedeemedBy *string    `json:"redeemed_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func newOrderView(order *models.Order) orderView {
	view := orderView{
		ID:         order.ID,
		ShowID:     order.ShowID,
		EventID:    order.EventID,
		Qty:        order.Qty,
		BuyerName:  order.BuyerName,
		BuyerEmail: order.BuyerEmail,
		Amount:     order.Amount.StringFixed(2),
		Currency:   order.Currency,
		Status:     order.Status.String(),
		PaymentRef: order.PaymentRef,
		PaidAt:     order.PaidAt,
		RedeemedAt: order.RedeemedAt,
		RedeemedBy: order.RedeemedBy,
		CreatedAt:  order.CreatedAt,
	}
	if order.Status == enums.OrderStatusPaid {
		view.TicketCode = tickets.Code(order.ID)
	}
	return view
}

// AdminGetOrder returns one order with its derived ticket code. A `code`
// query parameter, when present, is checked against the order so door staff
// can validate a ticket without consuming it.
func AdminGetOrder(svc AdminOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID := chi.URLParam(r, "orderID")
		order, err := svc.Get(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		body := map[string]any{"order": newOrderView(order)}
		if presented := r.URL.Query().Get("code"); presented != "" {
			body["code_valid"] = tickets.Validate(orderID, presented)
		}
		responses.WriteSuccess(w, body)
	}
}

type redeemRequest struct {
	Code string `json:"code" validate:"required"`
}

type redeemResponse struct {
	Order           orderView  `json:"order"`
	AlreadyRedeemed bool       `json:"already_redeemed"`
	RedeemedAt      *time.Time `json:"redeemed_at,omitempty"`
	RedeemedBy      *string    `json:"redeemed_by,omitempty"`
}

// AdminRedeemTicket consumes a ticket at the door. A replayed scan returns
// already_redeemed with the original redemption record.
func AdminRedeemTicket(gate RedemptionGate, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload redeemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		operator, _ := middleware.OperatorFromContext(ctx)
		result, err := gate.Redeem(ctx, chi.URLParam(r, "orderID"), payload.Code, operator)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, redeemResponse{
			Order:           newOrderView(result.Order),
			AlreadyRedeemed: result.AlreadyRedeemed,
			RedeemedAt:      result.RedeemedAt,
			RedeemedBy:      result.RedeemedBy,
		})
	}
}

// AdminCompTicket issues a complimentary ticket and emails it immediately.
func AdminCompTicket(svc AdminOrderService, issuer TicketIssuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload orders.CompTicketRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.CreateComplimentary(ctx, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		emailed := true
		if err := issuer.SendTicket(ctx, order); err != nil {
			emailed = false
			if logg != nil {
				logg.Warn(logg.WithOrderID(ctx, order.ID), "comp ticket email delivery failed")
			}
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"order":   newOrderView(order),
			"emailed": emailed,
		})
	}
}

// AdminTicketPDF streams the rendered ticket PDF.
func AdminTicketPDF(svc AdminOrderService, issuer TicketIssuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		order, err := svc.Get(ctx, chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ticket, err := issuer.Issue(order)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "ticket-"+order.ID+".pdf"))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(ticket.PDF); err != nil && logg != nil {
			logg.Warn(logg.WithOrderID(ctx, order.ID), "writing ticket pdf response failed")
		}
	}
}

// AdminResendTicket re-renders and re-emails the ticket for a paid order.
func AdminResendTicket(svc AdminOrderService, issuer TicketIssuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		order, err := svc.Get(ctx, chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := issuer.SendTicket(ctx, order); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"order_id": order.ID, "sent_to": order.BuyerEmail})
	}
}

var (
	_ OrderService      = (*orders.Service)(nil)
	_ AdminOrderService = (*orders.Service)(nil)
)
