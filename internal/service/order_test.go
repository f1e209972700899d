package service

import (
	"context"
	"errors"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/rookgm/cardpay/internal/repository/memory"
	"github.com/rookgm/cardpay/internal/tron"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

type stubGenerator struct {
	n   int
	err error
}

func (g *stubGenerator) Generate() (tron.Account, error) {
	if g.err != nil {
		return tron.Account{}, g.err
	}
	g.n++
	return tron.Account{Address: "TAddr" + string(rune('A'+g.n)), PrivateKey: "key"}, nil
}

type recordingWatcher struct {
	watched []string
}

func (w *recordingWatcher) Watch(orderID string) bool {
	w.watched = append(w.watched, orderID)
	return true
}

var testToken = models.Token{Contract: "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", Decimals: 6}

func newTestOrderService(store *memory.Store, gen AddressGenerator, w Watcher) *OrderService {
	svc := NewOrderService(store, store, store, gen, w, OrderSettings{
		Fee:       decimal.NewFromInt(60),
		MinAmount: decimal.NewFromInt(15),
		Window:    15 * time.Minute,
		Token:     testToken,
	}, nil)
	return svc
}

func validRequest() CreateOrderRequest {
	return CreateOrderRequest{
		UserID: 7,
		Type:   models.CardTypeNormal,
		Inputs: models.Inputs{
			FirstName: " John ",
			LastName:  "Doe",
			Email:     "john@example.com",
			Phone:     "+1 234 567 890",
		},
		Amount: decimal.NewFromInt(15),
	}
}

func TestOrderService_Create(t *testing.T) {
	store := memory.New()
	watcher := &recordingWatcher{}
	svc := newTestOrderService(store, &stubGenerator{}, watcher)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	order, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "75", order.Amount.String())
	assert.Equal(t, now.Add(15*time.Minute), order.ExpiresAt)
	assert.Equal(t, models.PaymentStatusPending, order.Status)
	assert.Equal(t, models.CardStatusPending, order.CardStatus)
	assert.Equal(t, testToken, order.Token)
	assert.Equal(t, "John", order.Inputs.FirstName)
	assert.NotEmpty(t, order.WalletAddress)
	assert.Equal(t, []string{order.ID}, watcher.watched)

	stored, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.WalletAddress, stored.WalletAddress)

	wallets, total, err := store.GetWallets(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, order.WalletAddress, wallets[0].Address)
	assert.EqualValues(t, 7, wallets[0].UserID)
}

func TestOrderService_Create_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *CreateOrderRequest)
		gen     *stubGenerator
		wantErr error
	}{
		{
			name:    "below_minimum",
			mutate:  func(r *CreateOrderRequest) { r.Amount = decimal.NewFromInt(14) },
			wantErr: models.ErrInvalidAmount,
		},
		{
			name:    "more_decimals_than_token",
			mutate:  func(r *CreateOrderRequest) { r.Amount = decimal.RequireFromString("15.0000001") },
			wantErr: models.ErrInvalidAmount,
		},
		{
			name:    "too_large",
			mutate:  func(r *CreateOrderRequest) { r.Amount = decimal.RequireFromString("1e40") },
			wantErr: models.ErrInvalidAmount,
		},
		{
			name:    "invalid_email",
			mutate:  func(r *CreateOrderRequest) { r.Inputs.Email = "nope" },
			wantErr: models.ErrInvalidEmail,
		},
		{
			name:    "invalid_phone",
			mutate:  func(r *CreateOrderRequest) { r.Inputs.Phone = "12" },
			wantErr: models.ErrInvalidPhone,
		},
		{
			name:    "invalid_type",
			mutate:  func(r *CreateOrderRequest) { r.Type = "platinum" },
			wantErr: models.ErrInvalidCardType,
		},
		{
			name: "wallet_generation_fails",
			gen:  &stubGenerator{err: errors.New("entropy")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			watcher := &recordingWatcher{}
			gen := tt.gen
			if gen == nil {
				gen = &stubGenerator{}
			}
			svc := newTestOrderService(store, gen, watcher)

			req := validRequest()
			if tt.mutate != nil {
				tt.mutate(&req)
			}

			_, err := svc.Create(context.Background(), req)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			_, total, _ := store.GetOrdersByUserID(context.Background(), 7, 0, 10)
			assert.Zero(t, total, "no order persisted")
			_, total, _ = store.GetWallets(context.Background(), 0, 10)
			assert.Zero(t, total, "no wallet persisted")
			assert.Empty(t, watcher.watched)
		})
	}
}

func TestOrderService_ListUserOrders(t *testing.T) {
	store := memory.New()
	svc := newTestOrderService(store, &stubGenerator{}, &recordingWatcher{})
	base := time.Now()

	for i := 0; i < 7; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		svc.now = func() time.Time { return at }
		_, err := svc.Create(context.Background(), validRequest())
		require.NoError(t, err)
	}

	page2, total, err := svc.ListUserOrders(context.Background(), 7, 2, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	assert.Len(t, page2, 2)

	last, err := svc.LastUserOrder(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, base.Add(6*time.Second), last.CreatedAt)
}

func TestOrderService_DeliveredCard(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	svc := newTestOrderService(store, &stubGenerator{}, &recordingWatcher{})

	order, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.DeliveredCard(ctx, 7, order.ID)
	assert.ErrorIs(t, err, models.ErrDataNotFound, "not delivered yet")

	_, err = store.MarkPaid(ctx, order.ID, time.Now())
	require.NoError(t, err)
	details := &models.CardDetails{CardNumber: "4539578763621486", ExpiryDate: "12/29", CVV: "123", CardName: "JOHN DOE"}
	_, err = store.UpdateCardStatus(ctx, order.ID, models.CardStatusInProcess, models.CardStatusDelivered, "root", time.Now(), details)
	require.NoError(t, err)

	got, err := svc.DeliveredCard(ctx, 7, order.ID)
	require.NoError(t, err)
	assert.Equal(t, details, got.CardDetails)

	_, err = svc.DeliveredCard(ctx, 8, order.ID)
	assert.ErrorIs(t, err, models.ErrDataNotFound, "other user")
}

func TestOrderService_PaidOrders(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	svc := newTestOrderService(store, &stubGenerator{}, &recordingWatcher{})
	require.NoError(t, store.UpsertUser(ctx, &models.User{ID: 7, Username: "johnny"}))

	paid, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)
	_, err = store.MarkPaid(ctx, paid.ID, time.Now())
	require.NoError(t, err)

	req := validRequest()
	req.UserID = 9
	_, err = svc.Create(ctx, req)
	require.NoError(t, err)

	views, err := svc.PaidOrders(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, paid.ID, views[0].ID)
	assert.Equal(t, "johnny", views[0].Username)
}
