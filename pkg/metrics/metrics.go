package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TicketingMetrics records webhook, issuance and redemption outcomes.
type TicketingMetrics struct {
	webhookResults *prometheus.CounterVec
	ticketEmails   *prometheus.CounterVec
	redemptions    *prometheus.CounterVec
}

// NewTicketingMetrics registers the ticketing metrics on the provided registerer.
func NewTicketingMetrics(reg prometheus.Registerer) *TicketingMetrics {
	if reg == nil {
		return &TicketingMetrics{}
	}
	webhookResults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paygate_webhook_results_total",
		Help: "Payment gateway webhook deliveries by outcome.",
	}, []string{"result"})
	ticketEmails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_emails_total",
		Help: "Ticket email delivery attempts by outcome.",
	}, []string{"result"})
	redemptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_redemptions_total",
		Help: "Door redemption attempts by outcome.",
	}, []string{"result"})
	reg.MustRegister(webhookResults, ticketEmails, redemptions)
	return &TicketingMetrics{
		webhookResults: webhookResults,
		ticketEmails:   ticketEmails,
		redemptions:    redemptions,
	}
}

// ObserveWebhook counts one webhook delivery with the given outcome label.
func (m *TicketingMetrics) ObserveWebhook(result string) {
	if m == nil || m.webhookResults == nil {
		return
	}
	m.webhookResults.WithLabelValues(result).Inc()
}

// ObserveTicketEmail counts one email delivery attempt.
func (m *TicketingMetrics) ObserveTicketEmail(result string) {
	if m == nil || m.ticketEmails == nil {
		return
	}
	m.ticketEmails.WithLabelValues(result).Inc()
}

// ObserveRedemption counts one redemption attempt.
func (m *TicketingMetrics) ObserveRedemption(result string) {
	if m == nil || m.redemptions == nil {
		return
	}
	m.redemptions.WithLabelValues(result).Inc()
}
