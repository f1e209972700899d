package memory

import (
	"context"
	"github.com/rookgm/cardpay/internal/models"
	"sort"
	"sync"
	"time"
)

// Store keeps every entity in process memory. It implements the same
// conditional updates as the database backends.
type Store struct {
	mu      sync.RWMutex
	orders  map[string]models.Order
	wallets map[string]models.Wallet
	users   map[int64]models.User
	admins  map[string]models.Admin
}

// New creates new empty Store
func New() *Store {
	return &Store{
		orders:  make(map[string]models.Order),
		wallets: make(map[string]models.Wallet),
		users:   make(map[int64]models.User),
		admins:  make(map[string]models.Admin),
	}
}

// CreateOrder inserts new order
func (s *Store) CreateOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[order.ID]; ok {
		return models.ErrConflictData
	}
	s.orders[order.ID] = cloneOrder(*order)
	return nil
}

// GetOrder returns order by id
func (s *Store) GetOrder(_ context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrDataNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

// GetLastUserOrder returns the most recent order of user
func (s *Store) GetLastUserOrder(_ context.Context, userID int64) (*models.Order, error) {
	orders := s.filterOrders(func(o *models.Order) bool { return o.UserID == userID })
	if len(orders) == 0 {
		return nil, models.ErrDataNotFound
	}
	return &orders[0], nil
}

// GetOrdersByUserID returns page of user orders, newest first, and total count
func (s *Store) GetOrdersByUserID(_ context.Context, userID int64, offset, limit int) ([]models.Order, int64, error) {
	orders := s.filterOrders(func(o *models.Order) bool { return o.UserID == userID })
	return page(orders, offset, limit), int64(len(orders)), nil
}

// GetPendingOrders returns orders waiting for payment
func (s *Store) GetPendingOrders(_ context.Context) ([]models.Order, error) {
	return s.filterOrders(func(o *models.Order) bool { return o.Status == models.PaymentStatusPending }), nil
}

// GetPaidOrders returns paid orders, newest first
func (s *Store) GetPaidOrders(_ context.Context) ([]models.Order, error) {
	return s.filterOrders(func(o *models.Order) bool { return o.Status == models.PaymentStatusPaid }), nil
}

// MarkPaid moves pending order to paid and its card to inprocess.
// Returns false if order was not pending.
func (s *Store) MarkPaid(_ context.Context, id string, at time.Time) (bool, error) {
	return s.updateOrder(id, func(o *models.Order) bool {
		if o.Status != models.PaymentStatusPending {
			return false
		}
		o.Status = models.PaymentStatusPaid
		o.CardStatus = models.CardStatusInProcess
		o.PaidAt = &at
		return true
	})
}

// MarkExpired moves pending order to expired.
// Returns false if order was not pending.
func (s *Store) MarkExpired(_ context.Context, id string) (bool, error) {
	return s.updateOrder(id, func(o *models.Order) bool {
		if o.Status != models.PaymentStatusPending {
			return false
		}
		o.Status = models.PaymentStatusExpired
		return true
	})
}

// ExpireOverdue expires every pending order whose deadline is not after now
func (s *Store) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, o := range s.orders {
		if o.Status == models.PaymentStatusPending && !o.ExpiresAt.After(now) {
			o.Status = models.PaymentStatusExpired
			s.orders[id] = o
			n++
		}
	}
	return n, nil
}

// SetOperationsMessage stores reference of operations channel message
func (s *Store) SetOperationsMessage(_ context.Context, id string, ref int) error {
	_, err := s.updateOrder(id, func(o *models.Order) bool {
		o.OperationsMessageRef = ref
		return true
	})
	return err
}

// ClearOperationsMessage clears stored reference if it still equals ref
func (s *Store) ClearOperationsMessage(_ context.Context, id string, ref int) (bool, error) {
	return s.updateOrder(id, func(o *models.Order) bool {
		if ref == 0 || o.OperationsMessageRef != ref {
			return false
		}
		o.OperationsMessageRef = 0
		return true
	})
}

// SetSettlementTx stores id of settlement transaction
func (s *Store) SetSettlementTx(_ context.Context, id, txID string) error {
	_, err := s.updateOrder(id, func(o *models.Order) bool {
		o.SettlementTxRef = txID
		return true
	})
	return err
}

// UpdateCardStatus advances card status of paid order from one status to another.
// Details are stored when given. Returns false if order is not paid or not in from status.
func (s *Store) UpdateCardStatus(_ context.Context, id string, from, to models.CardStatus, by string, at time.Time, details *models.CardDetails) (bool, error) {
	return s.updateOrder(id, func(o *models.Order) bool {
		if o.Status != models.PaymentStatusPaid || o.CardStatus != from {
			return false
		}
		o.CardStatus = to
		o.StatusChangedBy = by
		o.StatusChangedAt = &at
		if details != nil {
			cd := *details
			o.CardDetails = &cd
		}
		return true
	})
}

// CreateWallet inserts new wallet. Address must not exist.
func (s *Store) CreateWallet(_ context.Context, wallet *models.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wallets[wallet.Address]; ok {
		return models.ErrConflictData
	}
	s.wallets[wallet.Address] = *wallet
	return nil
}

// GetWallets returns page of wallets, newest first, and total count
func (s *Store) GetWallets(_ context.Context, offset, limit int) ([]models.Wallet, int64, error) {
	s.mu.RLock()
	wallets := make([]models.Wallet, 0, len(s.wallets))
	for _, w := range s.wallets {
		wallets = append(wallets, w)
	}
	s.mu.RUnlock()

	sort.Slice(wallets, func(i, j int) bool {
		return wallets[i].CreatedAt.After(wallets[j].CreatedAt)
	})

	return page(wallets, offset, limit), int64(len(wallets)), nil
}

// UpsertUser inserts user if it is seen first time
func (s *Store) UpsertUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		s.users[user.ID] = *user
	}
	return nil
}

// GetUser returns user by id
func (s *Store) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrDataNotFound
	}
	return &u, nil
}

// CreateAdmin inserts new admin
func (s *Store) CreateAdmin(_ context.Context, admin *models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.admins[admin.Username]; ok {
		return models.ErrConflictData
	}
	s.admins[admin.Username] = *admin
	return nil
}

// GetAdminByUsername returns admin by username
func (s *Store) GetAdminByUsername(_ context.Context, username string) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.admins[username]
	if !ok {
		return nil, models.ErrDataNotFound
	}
	return &a, nil
}

// UpdateLastLogin sets last login time of admin
func (s *Store) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, a := range s.admins {
		if a.ID == id {
			a.LastLogin = &at
			s.admins[name] = a
			return nil
		}
	}
	return models.ErrDataNotFound
}

func (s *Store) updateOrder(id string, fn func(o *models.Order) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return false, models.ErrDataNotFound
	}
	if !fn(&o) {
		return false, nil
	}
	s.orders[id] = o
	return true, nil
}

func (s *Store) filterOrders(keep func(o *models.Order) bool) []models.Order {
	s.mu.RLock()
	orders := []models.Order{}
	for _, o := range s.orders {
		if keep(&o) {
			orders = append(orders, cloneOrder(o))
		}
	}
	s.mu.RUnlock()

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func cloneOrder(o models.Order) models.Order {
	if o.CardDetails != nil {
		cd := *o.CardDetails
		o.CardDetails = &cd
	}
	return o
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
