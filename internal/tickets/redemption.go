package tickets

import (
	"context"
	"time"

	"github.com/stagepass-live/boxoffice-backend/internal/orders"
	"github.com/stagepass-live/boxoffice-backend/pkg/db/models"
	"github.com/stagepass-live/boxoffice-backend/pkg/enums"
	pkgerrors "github.com/stagepass-live/boxoffice-backend/pkg/errors"
	"github.com/stagepass-live/boxoffice-backend/pkg/logger"
	"github.com/stagepass-live/boxoffice-backend/pkg/metrics"
)

// RedemptionResult reports a door-side scan outcome.
type RedemptionResult struct {
	Order           *models.Order
	AlreadyRedeemed bool
	RedeemedAt      *time.Time
	RedeemedBy      *string
}

// GateParams groups dependencies for the redemption gate.
type GateParams struct {
	Repo    orders.Repository
	Logger  *logger.Logger
	Metrics *metrics.TicketingMetrics
}

// Gate performs at-most-once ticket redemption. Two operators scanning the
// same ticket concurrently both get a definitive answer, and exactly one of
// them wins.
type Gate struct {
	repo    orders.Repository
	logg    *logger.Logger
	metrics *metrics.TicketingMetrics
}

// NewGate builds a redemption gate.
func NewGate(params GateParams) (*Gate, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repository required")
	}
	return &Gate{repo: params.Repo, logg: params.Logger, metrics: params.Metrics}, nil
}

// Verify checks a presented code against an order without consuming the
// ticket. It returns the order so door staff can eyeball the buyer details.
func (g *Gate) Verify(ctx context.Context, orderID, code string) (*models.Order, error) {
	order, err := g.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !Validate(orderID, code) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "ticket code does not match order")
	}
	return order, nil
}

// Redeem consumes the ticket for an order. The conditional update in the
// repository is the arbiter: a loser of a concurrent race observes zero rows
// and reports the ticket as already redeemed rather than failing.
func (g *Gate) Redeem(ctx context.Context, orderID, code, operator string) (*RedemptionResult, error) {
	if !Validate(orderID, code) {
		g.metrics.ObserveRedemption("invalid_code")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "ticket code does not match order")
	}

	order, err := g.repo.FindByID(ctx, orderID)
	if err != nil {
		g.metrics.ObserveRedemption("not_found")
		return nil, err
	}
	if order.Status != enums.OrderStatusPaid {
		g.metrics.ObserveRedemption("not_paid")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid").
			WithDetails(map[string]any{"status": order.Status.String()})
	}
	if order.Redeemed() {
		g.metrics.ObserveRedemption("already_redeemed")
		return &RedemptionResult{Order: order, AlreadyRedeemed: true, RedeemedAt: order.RedeemedAt, RedeemedBy: order.RedeemedBy}, nil
	}

	now := time.Now().UTC()
	won, err := g.repo.Redeem(ctx, orderID, operator, now)
	if err != nil {
		g.metrics.ObserveRedemption("error")
		return nil, err
	}

	// Lost the race: someone redeemed between the read and the write. Re-read
	// so the response carries the actual winner's timestamp and operator.
	if !won {
		current, err := g.repo.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		g.metrics.ObserveRedemption("already_redeemed")
		return &RedemptionResult{Order: current, AlreadyRedeemed: true, RedeemedAt: current.RedeemedAt, RedeemedBy: current.RedeemedBy}, nil
	}

	order.RedeemedAt = &now
	order.RedeemedBy = &operator
	g.metrics.ObserveRedemption("redeemed")
	if g.logg != nil {
		g.logg.Info(g.logg.WithOperator(g.logg.WithOrderID(ctx, orderID), operator), "ticket redeemed")
	}
	return &RedemptionResult{Order: order, AlreadyRedeemed: false, RedeemedAt: &now, RedeemedBy: &operator}, nil
}
