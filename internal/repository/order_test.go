package repository

import (
	"context"
	"github.com/google/uuid"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/rookgm/cardpay/internal/repository/postgres"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"testing"
	"time"
)

func getTestDB(t *testing.T) *postgres.DB {
	dsn := os.Getenv("TEST_DATABASE_URI")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URI is not set")
	}

	db, err := postgres.New(context.Background(), dsn)
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	require.NoError(t, db.Migrate())
	t.Cleanup(db.Close)
	return db
}

// createTestOrder inserts wallet and pending order of user
func createTestOrder(t *testing.T, db *postgres.DB, userID int64, expiresAt time.Time) *models.Order {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	wallet := &models.Wallet{
		ID:         uuid.NewString(),
		UserID:     userID,
		Address:    "T" + uuid.NewString(),
		PrivateKey: "key",
		CreatedAt:  now,
	}
	require.NoError(t, NewWalletRepository(db).CreateWallet(ctx, wallet))

	order := &models.Order{
		ID:     uuid.NewString(),
		UserID: userID,
		Type:   models.CardTypeNormal,
		Inputs: models.Inputs{
			FirstName: "John",
			LastName:  "Doe",
			Email:     "john@example.com",
			Phone:     "+12345678901",
		},
		Amount:        decimal.RequireFromString("75.5"),
		WalletAddress: wallet.Address,
		Token:         models.Token{Contract: "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", Decimals: 6},
		Status:        models.PaymentStatusPending,
		CardStatus:    models.CardStatusPending,
		CreatedAt:     now,
		ExpiresAt:     expiresAt.UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, NewOrderRepository(db).CreateOrder(ctx, order))
	return order
}

func TestOrderRepository_Lifecycle(t *testing.T) {
	db := getTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := createTestOrder(t, db, time.Now().UnixNano(), time.Now().Add(15*time.Minute))

	assert.ErrorIs(t, repo.CreateOrder(ctx, order), models.ErrConflictData)

	got, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, order.Amount.Equal(got.Amount))
	assert.Equal(t, order.Inputs, got.Inputs)
	assert.Equal(t, models.PaymentStatusPending, got.Status)
	assert.Nil(t, got.CardDetails)

	ok, err := repo.MarkPaid(ctx, order.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkPaid(ctx, order.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "second transition must lose")

	ok, err = repo.MarkExpired(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetOperationsMessage(ctx, order.ID, 321))
	require.NoError(t, repo.SetSettlementTx(ctx, order.ID, "tx1"))

	details := &models.CardDetails{CardNumber: "4111111111111111", ExpiryDate: "12/29", CVV: "123", CardName: "JOHN DOE"}
	ok, err = repo.UpdateCardStatus(ctx, order.ID, models.CardStatusInProcess, models.CardStatusDelivered, "root", time.Now(), details)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ClearOperationsMessage(ctx, order.ID, 321)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.ClearOperationsMessage(ctx, order.ID, 321)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, got.Status)
	assert.Equal(t, models.CardStatusDelivered, got.CardStatus)
	assert.Equal(t, details, got.CardDetails)
	assert.Equal(t, "tx1", got.SettlementTxRef)
	assert.Equal(t, "root", got.StatusChangedBy)
	assert.Zero(t, got.OperationsMessageRef)
	assert.NotNil(t, got.PaidAt)
}

func TestOrderRepository_ExpireOverdue(t *testing.T) {
	db := getTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	userID := time.Now().UnixNano()
	overdue := createTestOrder(t, db, userID, time.Now().Add(-time.Minute))
	fresh := createTestOrder(t, db, userID, time.Now().Add(time.Hour))

	n, err := repo.ExpireOverdue(ctx, time.Now())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	got, err := repo.GetOrder(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusExpired, got.Status)

	got, err = repo.GetOrder(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, got.Status)

	orders, total, err := repo.GetOrdersByUserID(ctx, userID, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, orders, 1)
	assert.Equal(t, fresh.ID, orders[0].ID)
}
