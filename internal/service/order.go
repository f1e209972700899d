package service

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/rookgm/cardpay/internal/logger"
	"github.com/rookgm/cardpay/internal/metrics"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/rookgm/cardpay/internal/tron"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"strings"
	"time"
)

// OrderRepository is interface for interacting with order-related data
type OrderRepository interface {
	// CreateOrder inserts new order
	CreateOrder(ctx context.Context, order *models.Order) error
	// GetOrder returns order by id
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// GetLastUserOrder returns the most recent order of user
	GetLastUserOrder(ctx context.Context, userID int64) (*models.Order, error)
	// GetOrdersByUserID returns page of user orders and total count
	GetOrdersByUserID(ctx context.Context, userID int64, offset, limit int) ([]models.Order, int64, error)
	// GetPaidOrders returns paid orders, newest first
	GetPaidOrders(ctx context.Context) ([]models.Order, error)
	// UpdateCardStatus conditionally advances card status
	UpdateCardStatus(ctx context.Context, id string, from, to models.CardStatus, by string, at time.Time, details *models.CardDetails) (bool, error)
	// ClearOperationsMessage clears stored operations message reference if it still equals ref
	ClearOperationsMessage(ctx context.Context, id string, ref int) (bool, error)
}

// WalletRepository is interface for interacting with deposit wallets
type WalletRepository interface {
	CreateWallet(ctx context.Context, wallet *models.Wallet) error
	GetWallets(ctx context.Context, offset, limit int) ([]models.Wallet, int64, error)
}

// UserRepository is interface for interacting with bot users
type UserRepository interface {
	UpsertUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// AddressGenerator creates deposit accounts
type AddressGenerator interface {
	Generate() (tron.Account, error)
}

// Watcher starts payment watcher for order
type Watcher interface {
	Watch(orderID string) bool
}

// OrderSettings are intake parameters
type OrderSettings struct {
	Fee       decimal.Decimal
	MinAmount decimal.Decimal
	Window    time.Duration
	Token     models.Token
}

// CreateOrderRequest is validated intake of new order
type CreateOrderRequest struct {
	UserID int64
	Type   models.CardType
	Inputs models.Inputs
	// Amount is card balance requested by user, fee is added on top
	Amount decimal.Decimal
}

// OrderView is order with username of its owner
type OrderView struct {
	models.Order
	Username string
}

// OrderService implements OrderService interface
type OrderService struct {
	repo      OrderRepository
	wallets   WalletRepository
	users     UserRepository
	generator AddressGenerator
	watcher   Watcher
	settings  OrderSettings
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewOrderService creates new OrderService instance
func NewOrderService(repo OrderRepository, wallets WalletRepository, users UserRepository,
	generator AddressGenerator, watcher Watcher, settings OrderSettings, m *metrics.Metrics) *OrderService {
	return &OrderService{
		repo:      repo,
		wallets:   wallets,
		users:     users,
		generator: generator,
		watcher:   watcher,
		settings:  settings,
		metrics:   m,
		now:       time.Now,
	}
}

// Settings returns intake parameters
func (os *OrderService) Settings() OrderSettings {
	return os.settings
}

// Total returns amount charged for card balance amount
func (os *OrderService) Total(amount decimal.Decimal) decimal.Decimal {
	return amount.Add(os.settings.Fee)
}

// Create validates request, creates deposit wallet and order, and starts watching it.
// Nothing is persisted when validation or wallet generation fails.
func (os *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	req.Inputs.FirstName = strings.TrimSpace(req.Inputs.FirstName)
	req.Inputs.LastName = strings.TrimSpace(req.Inputs.LastName)
	req.Inputs.Email = strings.TrimSpace(req.Inputs.Email)
	req.Inputs.Phone = strings.TrimSpace(req.Inputs.Phone)

	if err := ValidateInputs(req.Type, req.Inputs); err != nil {
		return nil, err
	}
	if err := ValidateAmount(req.Amount, os.settings.MinAmount, os.settings.Token.Decimals); err != nil {
		return nil, err
	}

	account, err := os.generator.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate deposit wallet: %w", err)
	}

	now := os.now()

	wallet := &models.Wallet{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		Address:    account.Address,
		PrivateKey: account.PrivateKey,
		CreatedAt:  now,
	}
	if err := os.wallets.CreateWallet(ctx, wallet); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}

	order := &models.Order{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		Type:          req.Type,
		Inputs:        req.Inputs,
		Amount:        os.Total(req.Amount),
		WalletAddress: wallet.Address,
		Token:         os.settings.Token,
		Status:        models.PaymentStatusPending,
		CardStatus:    models.CardStatusPending,
		CreatedAt:     now,
		ExpiresAt:     now.Add(os.settings.Window),
	}
	if err := os.repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	os.metrics.OrderCreated()
	logger.Log.Info("order created",
		zap.String("order", order.ID),
		zap.Int64("user", order.UserID),
		zap.String("amount", order.Amount.String()),
		zap.Time("expires_at", order.ExpiresAt))

	os.watcher.Watch(order.ID)

	return order, nil
}

// LastUserOrder returns the most recent order of user
func (os *OrderService) LastUserOrder(ctx context.Context, userID int64) (*models.Order, error) {
	return os.repo.GetLastUserOrder(ctx, userID)
}

// ListUserOrders returns page of user orders, page starts from 1
func (os *OrderService) ListUserOrders(ctx context.Context, userID int64, page, pageSize int) ([]models.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	return os.repo.GetOrdersByUserID(ctx, userID, (page-1)*pageSize, pageSize)
}

// DeliveredCard returns delivered order of user with its card details
func (os *OrderService) DeliveredCard(ctx context.Context, userID int64, orderID string) (*models.Order, error) {
	order, err := os.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID || order.CardStatus != models.CardStatusDelivered || order.CardDetails == nil {
		return nil, models.ErrDataNotFound
	}

	return order, nil
}

// PaidOrders returns paid orders, newest first, with usernames of owners
func (os *OrderService) PaidOrders(ctx context.Context) ([]OrderView, error) {
	orders, err := os.repo.GetPaidOrders(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, OrderView{Order: o, Username: lookupUsername(ctx, os.users, o.UserID)})
	}

	return views, nil
}
