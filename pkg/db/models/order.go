package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stagepass-live/boxoffice-backend/pkg/enums"
)

// Order is a ticket purchase for one event of a show. The ID is opaque and
// caller-generated (show/event/random) so it doubles as the private capability
// the ticket code is derived from. Rows are never deleted; failed and paid
// orders stay behind as the audit trail.
type Order struct {
	ID         string             `gorm:"column:id;primaryKey" json:"id"`
	ShowID     string             `gorm:"column:show_id;not null" json:"show_id"`
	EventID    string             `gorm:"column:event_id;not null" json:"event_id"`
	Qty        int                `gorm:"column:qty;not null" json:"qty"`
	BuyerName  string             `gorm:"column:buyer_name;not null" json:"buyer_name"`
	BuyerEmail string             `gorm:"column:buyer_email;not null" json:"buyer_email"`
	Amount     decimal.Decimal    `gorm:"column:amount;type:numeric(10,2);not null" json:"amount"`
	Currency   string             `gorm:"column:currency;not null;default:'ILS'" json:"currency"`
	Status     enums.OrderStatus  `gorm:"column:status;not null;default:'pending'" json:"status"`
	PaymentRef string             `gorm:"column:payment_ref" json:"payment_ref,omitempty"`
	PaidAt     *time.Time         `gorm:"column:paid_at" json:"paid_at,omitempty"`

	ConsentTerms     bool `gorm:"column:consent_terms;not null;default:false" json:"consent_terms"`
	ConsentMarketing bool `gorm:"column:consent_marketing;not null;default:false" json:"consent_marketing"`

	// RawPayload snapshots the last state-changing gateway callback for audit.
	RawPayload string `gorm:"column:raw_payload" json:"-"`

	// RedeemedAt and RedeemedBy are written together, once, by the door-side
	// conditional update. First redemption wins.
	RedeemedAt *time.Time `gorm:"column:redeemed_at" json:"redeemed_at,omitempty"`
	RedeemedBy *string    `gorm:"column:redeemed_by" json:"redeemed_by,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName pins the table to the migration-managed name.
func (Order) TableName() string {
	return "orders"
}

// Redeemed reports whether the order has been used at the door.
func (o *Order) Redeemed() bool {
	return o != nil && o.RedeemedAt != nil
}
