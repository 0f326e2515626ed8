package tickets

import (
	"context"

	"github.com/stagepass-live/boxoffice-backend/pkg/config"
	"github.com/stagepass-live/boxoffice-backend/pkg/db/models"
	"github.com/stagepass-live/boxoffice-backend/pkg/enums"
	pkgerrors "github.com/stagepass-live/boxoffice-backend/pkg/errors"
	"github.com/stagepass-live/boxoffice-backend/pkg/logger"
	"github.com/stagepass-live/boxoffice-backend/pkg/metrics"
)

// Ticket is the issued artifact for a paid order. Nothing here is stored;
// every field is recomputed from the order row on demand.
type Ticket struct {
	Code      string
	VerifyURL string
	PDF       []byte
}

// Mailer delivers a rendered ticket to the buyer.
type Mailer interface {
	SendTicket(ctx context.Context, order *models.Order, ticket *Ticket) error
}

// IssuerParams groups dependencies for the issuer.
type IssuerParams struct {
	Config  config.TicketConfig
	Mailer  Mailer
	Logger  *logger.Logger
	Metrics *metrics.TicketingMetrics
}

// Issuer renders tickets for paid orders and hands them to the mailer.
type Issuer struct {
	cfg     config.TicketConfig
	mailer  Mailer
	logg    *logger.Logger
	metrics *metrics.TicketingMetrics
}

// NewIssuer builds a ticket issuer.
func NewIssuer(params IssuerParams) (*Issuer, error) {
	if params.Config.VerifyBaseURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ticket verify base url required")
	}
	return &Issuer{
		cfg:     params.Config,
		mailer:  params.Mailer,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// Issue renders the full ticket artifact for an order. Only paid orders carry
// a ticket.
func (i *Issuer) Issue(order *models.Order) (*Ticket, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order required")
	}
	if order.Status != enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ticket exists only for paid orders")
	}

	code := Code(order.ID)
	verifyURL := VerifyURL(i.cfg.VerifyBaseURL, order.ID)

	pdf, err := renderPDF(i.cfg, order, code, verifyURL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render ticket pdf")
	}

	return &Ticket{Code: code, VerifyURL: verifyURL, PDF: pdf}, nil
}

// SendTicket renders and emails the ticket for a paid order.
func (i *Issuer) SendTicket(ctx context.Context, order *models.Order) error {
	ticket, err := i.Issue(order)
	if err != nil {
		return err
	}
	if i.mailer == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "mailer not configured")
	}
	if err := i.mailer.SendTicket(ctx, order, ticket); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send ticket email")
	}
	if i.logg != nil {
		i.logg.Info(i.logg.WithOrderID(ctx, order.ID), "ticket email sent")
	}
	return nil
}
