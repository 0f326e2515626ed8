package orders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagepass-live/boxoffice-backend/pkg/db/models"
	"github.com/stagepass-live/boxoffice-backend/pkg/enums"
	pkgerrors "github.com/stagepass-live/boxoffice-backend/pkg/errors"
)

type stubRepo struct {
	created      []*models.Order
	createErr    error
	failedIDs    []string
	availability map[string]int
}

func (s *stubRepo) Create(_ context.Context, order *models.Order) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, order)
	return nil
}

func (s *stubRepo) FindByID(context.Context, string) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubRepo) MarkPaidOnce(context.Context, string, PaidUpdate) (bool, *models.Order, error) {
	return false, nil, nil
}

func (s *stubRepo) MarkFailed(_ context.Context, id, _, _ string) error {
	s.failedIDs = append(s.failedIDs, id)
	return nil
}

func (s *stubRepo) PaidQuantityByEvent(context.Context, string) (map[string]int, error) {
	return s.availability, nil
}

func (s *stubRepo) Redeem(context.Context, string, string, time.Time) (bool, error) {
	return false, nil
}

type stubGateway struct {
	url   string
	err   error
	calls int
}

func (s *stubGateway) CreateSession(context.Context, *models.Order) (string, error) {
	s.calls++
	return s.url, s.err
}

func checkoutRequest() CheckoutRequest {
	return CheckoutRequest{
		ShowID:       "demo-show",
		EventID:      "evt1",
		Qty:          2,
		BuyerName:    "Dana",
		BuyerEmail:   "Dana@Example.COM",
		Amount:       decimal.RequireFromString("250.00"),
		ConsentTerms: true,
	}
}

func TestCheckoutCreatesPendingOrder(t *testing.T) {
	repo := &stubRepo{}
	gateway := &stubGateway{url: "https://pay.example.com/s/abc"}
	svc, err := NewService(ServiceParams{Repo: repo, Gateway: gateway})
	require.NoError(t, err)

	result, err := svc.Checkout(context.Background(), checkoutRequest())
	require.NoError(t, err)

	assert.Equal(t, "https://pay.example.com/s/abc", result.PaymentURL)
	require.Len(t, repo.created, 1)

	order := repo.created[0]
	assert.Equal(t, result.OrderID, order.ID)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, "dana@example.com", order.BuyerEmail)
	assert.Equal(t, "ILS", order.Currency)
	assert.True(t, strings.HasPrefix(order.ID, "demo-show-evt1-"))
}

func TestCheckoutGatewayRefusalMarksFailed(t *testing.T) {
	repo := &stubRepo{}
	gateway := &stubGateway{err: pkgerrors.New(pkgerrors.CodeDependency, "gateway down")}
	svc, err := NewService(ServiceParams{Repo: repo, Gateway: gateway})
	require.NoError(t, err)

	_, err = svc.Checkout(context.Background(), checkoutRequest())
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))

	// The pending row survives as the audit trail, marked failed.
	require.Len(t, repo.created, 1)
	require.Len(t, repo.failedIDs, 1)
	assert.Equal(t, repo.created[0].ID, repo.failedIDs[0])
}

func TestCheckoutRejectsNegativeAmount(t *testing.T) {
	svc, err := NewService(ServiceParams{Repo: &stubRepo{}, Gateway: &stubGateway{}})
	require.NoError(t, err)

	req := checkoutRequest()
	req.Amount = decimal.RequireFromString("-1.00")

	_, err = svc.Checkout(context.Background(), req)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestCreateComplimentaryIsBornPaid(t *testing.T) {
	repo := &stubRepo{}
	svc, err := NewService(ServiceParams{Repo: repo, Gateway: &stubGateway{}})
	require.NoError(t, err)

	order, err := svc.CreateComplimentary(context.Background(), CompTicketRequest{
		ShowID:     "demo-show",
		EventID:    "evt1",
		Qty:        1,
		BuyerName:  "Guest",
		BuyerEmail: "guest@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPaid, order.Status)
	assert.True(t, order.Amount.IsZero())
	require.NotNil(t, order.PaidAt)
	assert.True(t, strings.HasPrefix(order.PaymentRef, "comp-"))
}

func TestNewOrderIDShape(t *testing.T) {
	id := NewOrderID("demo-show", "evt1")

	assert.True(t, strings.HasPrefix(id, "demo-show-evt1-"))
	suffix := strings.TrimPrefix(id, "demo-show-evt1-")
	assert.Len(t, suffix, 10)

	assert.NotEqual(t, id, NewOrderID("demo-show", "evt1"))
}
