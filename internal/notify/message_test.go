package notify

import (
	"github.com/rookgm/cardpay/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func testOrder() *models.Order {
	return &models.Order{
		ID:     "ord-1",
		UserID: 42,
		Type:   models.CardTypeNormal,
		Inputs: models.Inputs{
			FirstName: "John",
			LastName:  "<Doe>",
			Email:     "john@example.com",
			Phone:     "+1234567890",
		},
		Amount:        decimal.NewFromInt(75),
		WalletAddress: "TXYZ",
		Status:        models.PaymentStatusPending,
		CardStatus:    models.CardStatusPending,
	}
}

func TestOperationsMessage(t *testing.T) {
	msg := OperationsMessage(testOrder(), &models.User{ID: 42, Username: "johnny"})

	assert.Contains(t, msg, "@johnny (ID: 42)")
	assert.Contains(t, msg, "John &lt;Doe&gt;")
	assert.Contains(t, msg, "📱 Phone: +1234567890")
	assert.Contains(t, msg, "75 USDT")
	assert.Contains(t, msg, "<code>ord-1</code>")
}

func TestOperationsMessage_UnknownUser(t *testing.T) {
	o := testOrder()
	o.Inputs.Phone = ""
	msg := OperationsMessage(o, nil)

	assert.Contains(t, msg, "@N/A")
	assert.NotContains(t, msg, "Phone")
}

func TestExpiredMessage(t *testing.T) {
	assert.Contains(t, ExpiredMessage(15*time.Minute), "(15 minutes)")
}

func TestMinutesLeft(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		want     int
	}{
		{name: "past", deadline: now.Add(-time.Minute), want: 0},
		{name: "exact", deadline: now.Add(5 * time.Minute), want: 5},
		{name: "round_up", deadline: now.Add(4*time.Minute + time.Second), want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MinutesLeft(tt.deadline, now))
		})
	}
}

func TestStatusMessage_Pending(t *testing.T) {
	now := time.Now()
	o := testOrder()
	o.ExpiresAt = now.Add(10 * time.Minute)

	msg := StatusMessage(o, now)
	assert.Contains(t, msg, "PENDING")
	assert.Contains(t, msg, "Time left: ~10 min")

	o.Status = models.PaymentStatusPaid
	assert.NotContains(t, StatusMessage(o, now), "Time left")
}
