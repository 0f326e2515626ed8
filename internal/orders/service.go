package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stagepass-live/boxoffice-backend/pkg/db/models"
	"github.com/stagepass-live/boxoffice-backend/pkg/enums"
	pkgerrors "github.com/stagepass-live/boxoffice-backend/pkg/errors"
	"github.com/stagepass-live/boxoffice-backend/pkg/logger"
)

const defaultCurrency = "ILS"

// SessionCreator asks the payment gateway for a hosted payment page.
type SessionCreator interface {
	CreateSession(ctx context.Context, order *models.Order) (string, error)
}

// ServiceParams groups dependencies for the order service.
type ServiceParams struct {
	Repo    Repository
	Gateway SessionCreator
	Logger  *logger.Logger
}

// Service orchestrates order lifecycle operations around the repository's
// conditional writes.
type Service struct {
	repo    Repository
	gateway SessionCreator
	logg    *logger.Logger
}

// NewService builds an order service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	return &Service{repo: params.Repo, gateway: params.Gateway, logg: params.Logger}, nil
}

// Checkout creates the pending order and asks the gateway for a payment
// session. A gateway refusal marks the order failed; the row stays behind as
// the audit trail.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = defaultCurrency
	}
	if req.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount cannot be negative")
	}

	order := &models.Order{
		ID:               NewOrderID(req.ShowID, req.EventID),
		ShowID:           req.ShowID,
		EventID:          req.EventID,
		Qty:              req.Qty,
		BuyerName:        req.BuyerName,
		BuyerEmail:       strings.ToLower(strings.TrimSpace(req.BuyerEmail)),
		Amount:           req.Amount,
		Currency:         currency,
		Status:           enums.OrderStatusPending,
		ConsentTerms:     req.ConsentTerms,
		ConsentMarketing: req.ConsentMarketing,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	paymentURL, err := s.gateway.CreateSession(ctx, order)
	if err != nil {
		if failErr := s.repo.MarkFailed(ctx, order.ID, "", ""); failErr != nil && s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, order.ID), "marking order failed after gateway refusal", failErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment session")
	}

	return &CheckoutResult{OrderID: order.ID, PaymentURL: paymentURL}, nil
}

// CreateComplimentary synthesizes an already-paid zero-amount order. The
// issuance and door flows treat it exactly like a gateway-confirmed one.
func (s *Service) CreateComplimentary(ctx context.Context, req CompTicketRequest) (*models.Order, error) {
	now := time.Now().UTC()
	order := &models.Order{
		ID:           NewOrderID(req.ShowID, req.EventID),
		ShowID:       req.ShowID,
		EventID:      req.EventID,
		Qty:          req.Qty,
		BuyerName:    req.BuyerName,
		BuyerEmail:   strings.ToLower(strings.TrimSpace(req.BuyerEmail)),
		Amount:       decimal.Zero,
		Currency:     defaultCurrency,
		Status:       enums.OrderStatusPaid,
		PaymentRef:   "comp-" + uuid.NewString(),
		PaidAt:       &now,
		ConsentTerms: true,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Availability returns the paid quantity per event for a show.
func (s *Service) Availability(ctx context.Context, showID string) (map[string]int, error) {
	return s.repo.PaidQuantityByEvent(ctx, showID)
}

// Get loads one order.
func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.repo.FindByID(ctx, id)
}

// NewOrderID builds the opaque caller-generated identifier. It embeds the
// show and event for traceability plus a random component; the full string
// is private to the buyer and doubles as the ticket-code input.
func NewOrderID(showID, eventID string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return fmt.Sprintf("%s-%s-%s", showID, eventID, random)
}
