package mailer

import (
	"bytes"
	"context"
	"fmt"

	mail "github.com/wneessen/go-mail"

	"github.com/stagepass-live/boxoffice-backend/internal/tickets"
	"github.com/stagepass-live/boxoffice-backend/pkg/config"
	"github.com/stagepass-live/boxoffice-backend/pkg/db/models"
	pkgerrors "github.com/stagepass-live/boxoffice-backend/pkg/errors"
	"github.com/stagepass-live/boxoffice-backend/pkg/logger"
)

// Client sends ticket emails over SMTP.
type Client struct {
	smtp     *mail.Client
	from     string
	fromName string
	logg     *logger.Logger
}

// New builds an SMTP mail client from configuration.
func New(cfg config.SMTPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.Host == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "smtp host required")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	smtp, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build smtp client")
	}

	return &Client{smtp: smtp, from: cfg.From, fromName: cfg.FromName, logg: logg}, nil
}

// SendTicket emails the rendered ticket to the buyer with the PDF attached.
func (c *Client) SendTicket(ctx context.Context, order *models.Order, ticket *tickets.Ticket) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(c.fromName, c.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(order.BuyerEmail); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}

	msg.Subject(fmt.Sprintf("Your tickets for %s", order.ShowID))
	msg.SetBodyString(mail.TypeTextPlain, plainBody(order, ticket))
	msg.AddAlternativeString(mail.TypeTextHTML, htmlBody(order, ticket))

	if err := msg.AttachReader("ticket-"+order.ID+".pdf", bytes.NewReader(ticket.PDF)); err != nil {
		return fmt.Errorf("attach ticket pdf: %w", err)
	}

	if err := c.smtp.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send ticket email: %w", err)
	}
	return nil
}

func plainBody(order *models.Order, ticket *tickets.Ticket) string {
	return fmt.Sprintf(
		"Hi %s,\n\nYour payment was received. Your ticket is attached.\n\n"+
			"Order: %s\nTickets: %d\nCode: %s\n\nVerify at the door: %s\n",
		order.BuyerName, order.ID, order.Qty, ticket.Code, ticket.VerifyURL,
	)
}

func htmlBody(order *models.Order, ticket *tickets.Ticket) string {
	return fmt.Sprintf(
		`<p>Hi %s,</p><p>Your payment was received. Your ticket is attached as a PDF.</p>`+
			`<p><b>Order:</b> %s<br><b>Tickets:</b> %d<br><b>Code:</b> %s</p>`+
			`<p><a href=%q>Show ticket</a></p>`,
		order.BuyerName, order.ID, order.Qty, ticket.Code, ticket.VerifyURL,
	)
}
