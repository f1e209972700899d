package service

import (
	"context"
	"errors"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/rookgm/cardpay/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

const testChannel int64 = -1001

type fakeDelivery struct {
	texts     []string
	cards     int
	retracted []int
	cardErr   error
}

func (f *fakeDelivery) NotifyUser(_ context.Context, _ int64, text string) error {
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeDelivery) SendCard(_ context.Context, _ int64, _ []byte, _ string) error {
	if f.cardErr != nil {
		return f.cardErr
	}
	f.cards++
	return nil
}

func (f *fakeDelivery) RetractOperations(_ context.Context, _ int64, ref int) error {
	f.retracted = append(f.retracted, ref)
	return nil
}

type stubRenderer struct {
	err error
}

func (r stubRenderer) Render(_ *models.CardDetails) ([]byte, error) {
	return []byte("png"), r.err
}

var validDetails = &models.CardDetails{
	CardNumber: "4539578763621486",
	ExpiryDate: "12/29",
	CVV:        "123",
	CardName:   "JOHN DOE",
}

func seedOrder(t *testing.T, store *memory.Store, status models.PaymentStatus) *models.Order {
	t.Helper()
	ctx := context.Background()

	o := &models.Order{
		ID:         "ord-1",
		UserID:     7,
		Type:       models.CardTypeNormal,
		Amount:     decimal.NewFromInt(75),
		Status:     models.PaymentStatusPending,
		CardStatus: models.CardStatusPending,
		CreatedAt:  time.Now(),
		ExpiresAt:  time.Now().Add(15 * time.Minute),
	}
	require.NoError(t, store.CreateOrder(ctx, o))

	if status == models.PaymentStatusPaid {
		_, err := store.MarkPaid(ctx, o.ID, time.Now())
		require.NoError(t, err)
		require.NoError(t, store.SetOperationsMessage(ctx, o.ID, 321))
	}
	return o
}

func TestFulfillmentService_UpdateCardStatus_Delivered(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	seedOrder(t, store, models.PaymentStatusPaid)
	delivery := &fakeDelivery{}
	fs := NewFulfillmentService(store, delivery, stubRenderer{}, testChannel)

	order, err := fs.UpdateCardStatus(ctx, "ord-1", models.CardStatusDelivered, validDetails, "root")
	require.NoError(t, err)
	assert.Equal(t, models.CardStatusDelivered, order.CardStatus)
	assert.Equal(t, "root", order.StatusChangedBy)

	assert.Equal(t, 1, delivery.cards)
	assert.Empty(t, delivery.texts)
	assert.Equal(t, []int{321}, delivery.retracted)

	stored, err := store.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Zero(t, stored.OperationsMessageRef)
	assert.Equal(t, validDetails, stored.CardDetails)

	// delivered is terminal
	_, err = fs.UpdateCardStatus(ctx, "ord-1", models.CardStatusDelivered, validDetails, "root")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Len(t, delivery.retracted, 1, "operations message retracted once")
}

func TestFulfillmentService_UpdateCardStatus_ImageFallback(t *testing.T) {
	store := memory.New()
	seedOrder(t, store, models.PaymentStatusPaid)
	delivery := &fakeDelivery{}
	fs := NewFulfillmentService(store, delivery, stubRenderer{err: errors.New("no font")}, testChannel)

	_, err := fs.UpdateCardStatus(context.Background(), "ord-1", models.CardStatusDelivered, validDetails, "root")
	require.NoError(t, err)

	assert.Zero(t, delivery.cards)
	require.Len(t, delivery.texts, 1)
	assert.Contains(t, delivery.texts[0], validDetails.CardNumber)
}

func TestFulfillmentService_UpdateCardStatus_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		status  models.PaymentStatus
		to      models.CardStatus
		details *models.CardDetails
		orderID string
		wantErr error
	}{
		{
			name:    "unknown_status",
			status:  models.PaymentStatusPaid,
			to:      "shipped",
			wantErr: models.ErrInvalidCardStatus,
		},
		{
			name:    "missing_details",
			status:  models.PaymentStatusPaid,
			to:      models.CardStatusDelivered,
			details: &models.CardDetails{CardNumber: "4539578763621486"},
			wantErr: models.ErrCardDetailsMissing,
		},
		{
			name:   "luhn_invalid",
			status: models.PaymentStatusPaid,
			to:     models.CardStatusDelivered,
			details: &models.CardDetails{
				CardNumber: "4539578763621487",
				ExpiryDate: "12/29",
				CVV:        "123",
				CardName:   "JOHN DOE",
			},
			wantErr: models.ErrInvalidCardNumber,
		},
		{
			name:    "not_paid",
			status:  models.PaymentStatusPending,
			to:      models.CardStatusInProcess,
			wantErr: models.ErrOrderNotPaid,
		},
		{
			name:    "backwards",
			status:  models.PaymentStatusPaid,
			to:      models.CardStatusPending,
			wantErr: models.ErrInvalidTransition,
		},
		{
			name:    "not_found",
			status:  models.PaymentStatusPaid,
			to:      models.CardStatusDelivered,
			details: validDetails,
			orderID: "missing",
			wantErr: models.ErrDataNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			seedOrder(t, store, tt.status)
			delivery := &fakeDelivery{}
			fs := NewFulfillmentService(store, delivery, stubRenderer{}, testChannel)

			id := tt.orderID
			if id == "" {
				id = "ord-1"
			}

			_, err := fs.UpdateCardStatus(context.Background(), id, tt.to, tt.details, "root")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, delivery.cards)
			assert.Empty(t, delivery.retracted)
		})
	}
}
