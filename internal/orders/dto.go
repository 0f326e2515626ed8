package orders

import "github.com/shopspring/decimal"

// CheckoutRequest starts a purchase. Pricing is owned by the schedule
// manager that renders the checkout page; the amount arrives with the
// request and is echoed to the gateway session.
type CheckoutRequest struct {
	ShowID           string          `json:"show_id" validate:"required"`
	EventID          string          `json:"event_id" validate:"required"`
	Qty              int             `json:"qty" validate:"required,min=1,max=20"`
	BuyerName        string          `json:"buyer_name" validate:"required"`
	BuyerEmail       string          `json:"buyer_email" validate:"required,email"`
	Amount           decimal.Decimal `json:"amount" validate:"required"`
	Currency         string          `json:"currency" validate:"omitempty,len=3"`
	ConsentTerms     bool            `json:"consent_terms" validate:"required"`
	ConsentMarketing bool            `json:"consent_marketing"`
}

// CheckoutResult returns the new order and the gateway redirect.
type CheckoutResult struct {
	OrderID    string `json:"order_id"`
	PaymentURL string `json:"payment_url"`
}

// CompTicketRequest issues a complimentary (zero-amount) ticket. The
// synthesized order is born paid and behaves like any gateway-confirmed one.
type CompTicketRequest struct {
	ShowID     string `json:"show_id" validate:"required"`
	EventID    string `json:"event_id" validate:"required"`
	Qty        int    `json:"qty" validate:"required,min=1,max=20"`
	BuyerName  string `json:"buyer_name" validate:"required"`
	BuyerEmail string `json:"buyer_email" validate:"required,email"`
}
