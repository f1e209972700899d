package worker

import (
	"context"
	"errors"
	"github.com/rookgm/cardpay/internal/logger"
	"github.com/rookgm/cardpay/internal/metrics"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/rookgm/cardpay/internal/notify"
	"github.com/rookgm/cardpay/internal/payment"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"time"
)

// OrderStore is order storage used by watchers
type OrderStore interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	GetPendingOrders(ctx context.Context) ([]models.Order, error)
	MarkPaid(ctx context.Context, id string, at time.Time) (bool, error)
	MarkExpired(ctx context.Context, id string) (bool, error)
	SetOperationsMessage(ctx context.Context, id string, ref int) error
	SetSettlementTx(ctx context.Context, id, txID string) error
}

// UserStore resolves bot users for operations messages
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// BalanceReader reads token balance of deposit address
type BalanceReader interface {
	ReadBalance(ctx context.Context, address string, token models.Token) decimal.Decimal
}

// Notifier delivers user and operations messages
type Notifier interface {
	NotifyUser(ctx context.Context, userID int64, text string) error
	NotifyOperations(ctx context.Context, channelID int64, text string) (int, error)
}

// TransferFinder looks up settlement transfer of paid order
type TransferFinder interface {
	LatestIncomingTransfer(ctx context.Context, contract, address string) (string, error)
}

// PaymentWatcher performs watcher ticks for orders
type PaymentWatcher struct {
	orders    OrderStore
	users     UserStore
	balances  BalanceReader
	notifier  Notifier
	transfers TransferFinder
	channelID int64
	window    time.Duration
	metrics   *metrics.Metrics
	now       func() time.Time
}

// WatcherConfig holds collaborators of PaymentWatcher.
// Transfers and Metrics are optional, zero ChannelID disables operations messages.
type WatcherConfig struct {
	Orders    OrderStore
	Users     UserStore
	Balances  BalanceReader
	Notifier  Notifier
	Transfers TransferFinder
	ChannelID int64
	Window    time.Duration
	Metrics   *metrics.Metrics
}

// NewPaymentWatcher creates new PaymentWatcher instance
func NewPaymentWatcher(cfg WatcherConfig) *PaymentWatcher {
	return &PaymentWatcher{
		orders:    cfg.Orders,
		users:     cfg.Users,
		balances:  cfg.Balances,
		notifier:  cfg.Notifier,
		transfers: cfg.Transfers,
		channelID: cfg.ChannelID,
		window:    cfg.Window,
		metrics:   cfg.Metrics,
		now:       time.Now,
	}
}

// Tick runs one watcher step for order and reports whether polling must stop.
// Order is re-read on every tick. Errors are logged and leave polling running.
func (pw *PaymentWatcher) Tick(ctx context.Context, orderID string, ceiling time.Time) bool {
	order, err := pw.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, models.ErrDataNotFound) {
			logger.Log.Debug("order is gone", zap.String("order", orderID))
			return true
		}
		logger.Log.Error("get order", zap.String("order", orderID), zap.Error(err))
		return false
	}

	now := pw.now()
	switch payment.Decide(order, now) {
	case payment.Stop:
		return true
	case payment.Expire:
		return pw.expire(ctx, order)
	}

	balance := pw.balances.ReadBalance(ctx, order.WalletAddress, order.Token)

	switch payment.Settle(order, balance, now, ceiling) {
	case payment.MarkPaid:
		return pw.markPaid(ctx, order, now)
	case payment.GiveUp:
		logger.Log.Warn("watch ceiling reached, order left pending",
			zap.String("order", order.ID),
			zap.Time("expires_at", order.ExpiresAt))
		return true
	default:
		logger.Log.Debug("awaiting payment",
			zap.String("order", order.ID),
			zap.String("balance", balance.String()),
			zap.String("required", order.Amount.String()))
		return false
	}
}

func (pw *PaymentWatcher) expire(ctx context.Context, order *models.Order) bool {
	changed, err := pw.orders.MarkExpired(ctx, order.ID)
	if err != nil {
		logger.Log.Error("mark order expired", zap.String("order", order.ID), zap.Error(err))
		return false
	}
	if !changed {
		// sweeper or another tick resolved it first
		return true
	}

	pw.metrics.Transition(string(models.PaymentStatusExpired))
	logger.Log.Info("order expired", zap.String("order", order.ID))

	if err := pw.notifier.NotifyUser(ctx, order.UserID, notify.ExpiredMessage(pw.window)); err != nil {
		logger.Log.Error("notify user about expiry", zap.String("order", order.ID), zap.Error(err))
	}

	return true
}

func (pw *PaymentWatcher) markPaid(ctx context.Context, order *models.Order, now time.Time) bool {
	changed, err := pw.orders.MarkPaid(ctx, order.ID, now)
	if err != nil {
		logger.Log.Error("mark order paid", zap.String("order", order.ID), zap.Error(err))
		return false
	}
	if !changed {
		return true
	}

	order.Status = models.PaymentStatusPaid
	order.CardStatus = models.CardStatusInProcess
	order.PaidAt = &now

	pw.metrics.Transition(string(models.PaymentStatusPaid))
	logger.Log.Info("order paid", zap.String("order", order.ID), zap.String("amount", order.Amount.String()))

	if err := pw.notifier.NotifyUser(ctx, order.UserID, notify.PaidMessage()); err != nil {
		logger.Log.Error("notify user about payment", zap.String("order", order.ID), zap.Error(err))
	}

	pw.notifyOperations(ctx, order)
	pw.lookupSettlement(ctx, order)

	return true
}

func (pw *PaymentWatcher) notifyOperations(ctx context.Context, order *models.Order) {
	if pw.channelID == 0 {
		return
	}

	user, err := pw.users.GetUser(ctx, order.UserID)
	if err != nil && !errors.Is(err, models.ErrDataNotFound) {
		logger.Log.Warn("get user", zap.Int64("user", order.UserID), zap.Error(err))
	}

	ref, err := pw.notifier.NotifyOperations(ctx, pw.channelID, notify.OperationsMessage(order, user))
	if err != nil {
		logger.Log.Error("notify operations channel", zap.String("order", order.ID), zap.Error(err))
		return
	}

	if err := pw.orders.SetOperationsMessage(ctx, order.ID, ref); err != nil {
		logger.Log.Error("store operations message", zap.String("order", order.ID), zap.Int("ref", ref), zap.Error(err))
	}
}

func (pw *PaymentWatcher) lookupSettlement(ctx context.Context, order *models.Order) {
	if pw.transfers == nil {
		return
	}

	txID, err := pw.transfers.LatestIncomingTransfer(ctx, order.Token.Contract, order.WalletAddress)
	if err != nil {
		logger.Log.Warn("settlement transfer lookup", zap.String("order", order.ID), zap.Error(err))
		return
	}

	if err := pw.orders.SetSettlementTx(ctx, order.ID, txID); err != nil {
		logger.Log.Error("store settlement transfer", zap.String("order", order.ID), zap.Error(err))
	}
}
