// Package payment holds the pure decision rules of the payment watcher.
// Nothing here performs I/O; the watcher applies the returned actions.
package payment

import (
	"github.com/rookgm/cardpay/internal/models"
	"github.com/shopspring/decimal"
	"time"
)

// Action is next step of a watcher tick
type Action int

const (
	// Stop polling, order is gone or already resolved
	Stop Action = iota
	// Expire order and notify user
	Expire
	// CheckBalance of deposit address before deciding
	CheckBalance
	// MarkPaid and notify user and operations channel
	MarkPaid
	// Wait for next tick
	Wait
	// GiveUp polling after safety ceiling, status is left unchanged
	GiveUp
)

func (a Action) String() string {
	switch a {
	case Stop:
		return "stop"
	case Expire:
		return "expire"
	case CheckBalance:
		return "check_balance"
	case MarkPaid:
		return "mark_paid"
	case Wait:
		return "wait"
	case GiveUp:
		return "give_up"
	}
	return "unknown"
}

// Decide returns action for order at now before ledger is consulted.
// Nil order means it no longer exists.
func Decide(order *models.Order, now time.Time) Action {
	if order == nil || order.Status != models.PaymentStatusPending {
		return Stop
	}
	if order.Expired(now) {
		return Expire
	}
	return CheckBalance
}

// Settle returns action for order once balance of its address is known.
// ceiling is the moment after which watcher stops polling.
func Settle(order *models.Order, balance decimal.Decimal, now, ceiling time.Time) Action {
	if balance.GreaterThanOrEqual(order.Amount) {
		return MarkPaid
	}
	if now.After(ceiling) {
		return GiveUp
	}
	return Wait
}
