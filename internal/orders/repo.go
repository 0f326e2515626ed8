package orders

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stagepass-live/boxoffice-backend/pkg/db"
	"github.com/stagepass-live/boxoffice-backend/pkg/db/models"
	"github.com/stagepass-live/boxoffice-backend/pkg/enums"
	pkgerrors "github.com/stagepass-live/boxoffice-backend/pkg/errors"
)

// PaidUpdate carries the optional fields a successful gateway callback may
// overwrite on the order when it wins the mark-paid race.
type PaidUpdate struct {
	PaymentRef string
	Amount     *decimal.Decimal
	Currency   string
	RawPayload string
}

// Repository handles order persistence. The two state-changing operations
// (MarkPaidOnce, Redeem) are single conditional writes: concurrent callers
// race on the WHERE clause and the loser observes zero affected rows instead
// of clobbering state.
type Repository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	MarkPaidOnce(ctx context.Context, id string, update PaidUpdate) (bool, *models.Order, error)
	MarkFailed(ctx context.Context, id, paymentRef, rawPayload string) error
	PaidQuantityByEvent(ctx context.Context, showID string) (map[string]int, error)
	Redeem(ctx context.Context, id, operator string, at time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already exists")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return &order, nil
}

// MarkPaidOnce performs the idempotent pending→paid transition. The WHERE
// clause excludes rows already in paid status, so a duplicate webhook (or a
// concurrent delivery that lost the race) affects zero rows and is reported
// as updated=false with the current row, never as an error.
func (r *repository) MarkPaidOnce(ctx context.Context, id string, update PaidUpdate) (bool, *models.Order, error) {
	now := time.Now().UTC()
	fields := map[string]any{
		"status":      enums.OrderStatusPaid,
		"payment_ref": update.PaymentRef,
		"paid_at":     now,
		"raw_payload": update.RawPayload,
		"updated_at":  now,
	}
	if update.Amount != nil {
		fields["amount"] = *update.Amount
	}
	if update.Currency != "" {
		fields["currency"] = update.Currency
	}

	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status <> ?", id, enums.OrderStatusPaid).
		Updates(fields)
	if res.Error != nil {
		return false, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "mark order paid")
	}

	order, err := r.FindByID(ctx, id)
	if err != nil {
		return false, nil, err
	}
	return res.RowsAffected > 0, order, nil
}

// MarkFailed records a gateway failure. The status guard keeps a late failure
// callback from clobbering an order that already went paid.
func (r *repository) MarkFailed(ctx context.Context, id, paymentRef, rawPayload string) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, enums.OrderStatusPending).
		Updates(map[string]any{
			"status":      enums.OrderStatusFailed,
			"payment_ref": paymentRef,
			"raw_payload": rawPayload,
			"updated_at":  now,
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "mark order failed")
	}
	if res.RowsAffected == 0 {
		// Row missing surfaces as not-found; already paid/failed is a no-op.
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) PaidQuantityByEvent(ctx context.Context, showID string) (map[string]int, error) {
	type row struct {
		EventID string
		Total   int
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("event_id, SUM(qty) AS total").
		Where("show_id = ? AND status = ?", showID, enums.OrderStatusPaid).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate paid quantities")
	}

	totals := make(map[string]int, len(rows))
	for _, r := range rows {
		totals[r.EventID] = r.Total
	}
	return totals, nil
}

// Redeem sets the redemption fields only while they are still null. A zero
// row count means a concurrent scan won the race (or the row is gone); the
// caller re-reads and reports the surviving redemption record.
func (r *repository) Redeem(ctx context.Context, id, operator string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND redeemed_at IS NULL", id).
		Updates(map[string]any{
			"redeemed_at": at,
			"redeemed_by": operator,
			"updated_at":  at,
		})
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "redeem order")
	}
	return res.RowsAffected > 0, nil
}
