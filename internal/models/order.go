package models

import (
	"github.com/shopspring/decimal"
	"time"
)

// PaymentStatus is the payment lifecycle of an order.
// pending -> paid | expired, terminal once non-pending.
type PaymentStatus string

// payment status
const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusExpired PaymentStatus = "expired"
)

// CanTransitionTo reports whether status may move to next
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentStatusPending && (next == PaymentStatusPaid || next == PaymentStatusExpired)
}

// CardStatus is the manual fulfillment lifecycle of an order.
// pending -> inprocess -> delivered, forward only.
type CardStatus string

// card status
const (
	CardStatusPending   CardStatus = "pending"
	CardStatusInProcess CardStatus = "inprocess"
	CardStatusDelivered CardStatus = "delivered"
)

var cardStatusRank = map[CardStatus]int{
	CardStatusPending:   0,
	CardStatusInProcess: 1,
	CardStatusDelivered: 2,
}

// Valid reports whether s is a known card status
func (s CardStatus) Valid() bool {
	_, ok := cardStatusRank[s]
	return ok
}

// CanTransitionTo reports whether card status may advance to next.
// Only a single step forward is allowed.
func (s CardStatus) CanTransitionTo(next CardStatus) bool {
	cur, ok := cardStatusRank[s]
	if !ok {
		return false
	}
	nxt, ok := cardStatusRank[next]
	if !ok {
		return false
	}
	return nxt == cur+1
}

// CardType is kind of the requested virtual card
type CardType string

// card types
const (
	CardTypeAnonymous CardType = "anonymous"
	CardTypeNormal    CardType = "normal"
)

// Valid reports whether t is a known card type
func (t CardType) Valid() bool {
	return t == CardTypeAnonymous || t == CardTypeNormal
}

// Title returns human-readable card type
func (t CardType) Title() string {
	if t == CardTypeAnonymous {
		return "Anonymous"
	}
	return "Normal"
}

// Inputs are the fields collected from the user during intake
type Inputs struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// FullName returns first and last name joined by space
func (in Inputs) FullName() string {
	return in.FirstName + " " + in.LastName
}

// Token describes the settlement asset
type Token struct {
	Contract string
	Decimals int32
}

// CardDetails is the card payload set on delivery
type CardDetails struct {
	CardNumber string `json:"cardNumber"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"cvv"`
	CardName   string `json:"cardName"`
}

// Complete reports whether every field of card details is set
func (cd *CardDetails) Complete() bool {
	return cd != nil && cd.CardNumber != "" && cd.ExpiryDate != "" && cd.CVV != "" && cd.CardName != ""
}

// Order is order entity
type Order struct {
	ID            string
	UserID        int64
	Type          CardType
	Inputs        Inputs
	Amount        decimal.Decimal
	WalletAddress string
	Token         Token
	Status        PaymentStatus
	CardStatus    CardStatus
	// who changed card status and when
	StatusChangedBy string
	StatusChangedAt *time.Time
	CardDetails     *CardDetails
	// operations channel message, set when notified and used once to retract
	OperationsMessageRef int
	SettlementTxRef      string
	CreatedAt            time.Time
	ExpiresAt            time.Time
	PaidAt               *time.Time
}

// Expired reports whether deadline of order is reached at now.
// Stores use the same boundary when expiring overdue orders.
func (o *Order) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
