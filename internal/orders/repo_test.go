package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stagepass-live/boxoffice-backend/pkg/db/models"
	"github.com/stagepass-live/boxoffice-backend/pkg/enums"
	pkgerrors "github.com/stagepass-live/boxoffice-backend/pkg/errors"
)

func newTestRepo(t *testing.T) Repository {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	// One connection so every goroutine sees the same in-memory database.
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(&models.Order{}))
	return NewRepository(conn)
}

func pendingOrder(id string) *models.Order {
	return &models.Order{
		ID:           id,
		ShowID:       "demo-show",
		EventID:      "evt1",
		Qty:          2,
		BuyerName:    "Dana",
		BuyerEmail:   "dana@example.com",
		Amount:       decimal.RequireFromString("250.00"),
		Currency:     "ILS",
		Status:       enums.OrderStatusPending,
		ConsentTerms: true,
	}
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, pendingOrder("o-1")))

	err := repo.Create(ctx, pendingOrder("o-1"))
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
}

func TestFindByIDNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.FindByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestMarkPaidOnceIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, pendingOrder("o-1")))

	update := PaidUpdate{PaymentRef: "pg-1", RawPayload: `{"status":"1"}`}

	updated, order, err := repo.MarkPaidOnce(ctx, "o-1", update)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)
	assert.Equal(t, "pg-1", order.PaymentRef)
	require.NotNil(t, order.PaidAt)

	// Replay: zero rows affected, state untouched.
	updated, order, err = repo.MarkPaidOnce(ctx, "o-1", PaidUpdate{PaymentRef: "pg-2"})
	require.NoError(t, err)
	assert.False(t, updated)
	assert.Equal(t, "pg-1", order.PaymentRef)
}

func TestMarkPaidOnceUnknownOrder(t *testing.T) {
	repo := newTestRepo(t)

	_, _, err := repo.MarkPaidOnce(context.Background(), "missing", PaidUpdate{})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestMarkPaidOnceConcurrentSingleWinner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, pendingOrder("o-1")))

	const workers = 8
	var wg sync.WaitGroup
	wins := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			updated, _, err := repo.MarkPaidOnce(ctx, "o-1", PaidUpdate{PaymentRef: "pg-1"})
			if err == nil {
				wins <- updated
			}
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for won := range wins {
		if won {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestMarkFailedDoesNotClobberPaid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, pendingOrder("o-1")))

	_, _, err := repo.MarkPaidOnce(ctx, "o-1", PaidUpdate{PaymentRef: "pg-1"})
	require.NoError(t, err)

	require.NoError(t, repo.MarkFailed(ctx, "o-1", "pg-late", "{}"))

	order, err := repo.FindByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)
	assert.Equal(t, "pg-1", order.PaymentRef)
}

func TestMarkFailedUnknownOrder(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.MarkFailed(context.Background(), "missing", "", "")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestPaidQuantityByEvent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := pendingOrder("o-1")
	second := pendingOrder("o-2")
	second.Qty = 3
	third := pendingOrder("o-3")
	third.EventID = "evt2"
	stillPending := pendingOrder("o-4")
	otherShow := pendingOrder("o-5")
	otherShow.ShowID = "other-show"

	for _, order := range []*models.Order{first, second, third, stillPending, otherShow} {
		require.NoError(t, repo.Create(ctx, order))
	}
	for _, id := range []string{"o-1", "o-2", "o-3", "o-5"} {
		_, _, err := repo.MarkPaidOnce(ctx, id, PaidUpdate{})
		require.NoError(t, err)
	}

	totals, err := repo.PaidQuantityByEvent(ctx, "demo-show")
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"evt1": 5, "evt2": 2}, totals)
}

func TestRedeemFirstScanWins(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, pendingOrder("o-1")))
	_, _, err := repo.MarkPaidOnce(ctx, "o-1", PaidUpdate{})
	require.NoError(t, err)

	at := time.Now().UTC()
	won, err := repo.Redeem(ctx, "o-1", "door-1", at)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.Redeem(ctx, "o-1", "door-2", at.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, won)

	order, err := repo.FindByID(ctx, "o-1")
	require.NoError(t, err)
	require.NotNil(t, order.RedeemedBy)
	assert.Equal(t, "door-1", *order.RedeemedBy)
}
