package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagepass-live/boxoffice-backend/internal/orders"
	"github.com/stagepass-live/boxoffice-backend/internal/tickets"
	"github.com/stagepass-live/boxoffice-backend/pkg/db/models"
	"github.com/stagepass-live/boxoffice-backend/pkg/enums"
	pkgerrors "github.com/stagepass-live/boxoffice-backend/pkg/errors"
)

type stubAdminOrders struct {
	order *models.Order
	err   error
}

func (s *stubAdminOrders) Get(context.Context, string) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubAdminOrders) CreateComplimentary(context.Context, orders.CompTicketRequest) (*models.Order, error) {
	return s.order, s.err
}

type stubGate struct {
	result *tickets.RedemptionResult
	err    error
	code   string
}

func (s *stubGate) Redeem(_ context.Context, _, code, _ string) (*tickets.RedemptionResult, error) {
	s.code = code
	return s.result, s.err
}

func testPaidOrder(id string) *models.Order {
	now := time.Now().UTC()
	return &models.Order{
		ID:         id,
		ShowID:     "demo-show",
		EventID:    "evt1",
		Qty:        2,
		BuyerName:  "Dana",
		BuyerEmail: "dana@example.com",
		Amount:     decimal.RequireFromString("250.00"),
		Currency:   "ILS",
		Status:     enums.OrderStatusPaid,
		PaidAt:     &now,
	}
}

func ticketRouter(svc AdminOrderService, gate RedemptionGate) http.Handler {
	r := chi.NewRouter()
	r.Get("/tickets/{orderID}", AdminGetOrder(svc, nil))
	r.Post("/tickets/{orderID}/redeem", AdminRedeemTicket(gate, nil))
	return r
}

func TestAdminGetOrderIncludesTicketCode(t *testing.T) {
	orderID := "demo-show-evt1-abc"
	router := ticketRouter(&stubAdminOrders{order: testPaidOrder(orderID)}, nil)

	req := httptest.NewRequest(http.MethodGet, "/tickets/"+orderID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Order struct {
				ID         string `json:"id"`
				TicketCode string `json:"ticket_code"`
			} `json:"order"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, orderID, envelope.Data.Order.ID)
	assert.Equal(t, tickets.Code(orderID), envelope.Data.Order.TicketCode)
}

func TestAdminGetOrderValidatesPresentedCode(t *testing.T) {
	orderID := "demo-show-evt1-abc"
	router := ticketRouter(&stubAdminOrders{order: testPaidOrder(orderID)}, nil)

	req := httptest.NewRequest(http.MethodGet, "/tickets/"+orderID+"?code="+tickets.Code(orderID), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope struct {
		Data struct {
			CodeValid *bool `json:"code_valid"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data.CodeValid)
	assert.True(t, *envelope.Data.CodeValid)
}

func TestAdminGetOrderNotFound(t *testing.T) {
	router := ticketRouter(&stubAdminOrders{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/tickets/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRedeemTicket(t *testing.T) {
	orderID := "demo-show-evt1-abc"
	now := time.Now().UTC()
	operator := "door-1"
	gate := &stubGate{result: &tickets.RedemptionResult{
		Order:      testPaidOrder(orderID),
		RedeemedAt: &now,
		RedeemedBy: &operator,
	}}
	router := ticketRouter(nil, gate)

	req := httptest.NewRequest(http.MethodPost, "/tickets/"+orderID+"/redeem",
		strings.NewReader(`{"code":"`+tickets.Code(orderID)+`"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tickets.Code(orderID), gate.code)

	var envelope struct {
		Data redeemResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.AlreadyRedeemed)
	require.NotNil(t, envelope.Data.RedeemedBy)
	assert.Equal(t, "door-1", *envelope.Data.RedeemedBy)
}

func TestAdminRedeemTicketWrongCode(t *testing.T) {
	gate := &stubGate{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "ticket code does not match order")}
	router := ticketRouter(nil, gate)

	req := httptest.NewRequest(http.MethodPost, "/tickets/o-1/redeem", strings.NewReader(`{"code":"AAAAAAAAAAAA"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
