package service

import (
	"context"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/shopspring/decimal"
	"time"
)

const (
	defaultWalletPageSize = 10
	maxWalletPageSize     = 100
)

// BalanceReader reads token balance of address
type BalanceReader interface {
	ReadBalance(ctx context.Context, address string, token models.Token) decimal.Decimal
}

// WalletView is deposit wallet with owner and current balance
type WalletView struct {
	models.Wallet
	Username string
	Balance  decimal.Decimal
}

// WalletPage is one page of wallets
type WalletPage struct {
	Wallets    []WalletView
	Page       int
	Limit      int
	Total      int64
	TotalPages int
}

// WalletService lists deposit wallets for super admins
type WalletService struct {
	repo     WalletRepository
	users    UserRepository
	balances BalanceReader
	token    models.Token
	// pause between ledger reads
	pause time.Duration
}

// NewWalletService creates new WalletService instance
func NewWalletService(repo WalletRepository, users UserRepository, balances BalanceReader, token models.Token, pause time.Duration) *WalletService {
	return &WalletService{
		repo:     repo,
		users:    users,
		balances: balances,
		token:    token,
		pause:    pause,
	}
}

// ListWallets returns page of wallets, newest first. Balances are read one by one.
func (ws *WalletService) ListWallets(ctx context.Context, page, limit int) (*WalletPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultWalletPageSize
	}
	if limit > maxWalletPageSize {
		limit = maxWalletPageSize
	}

	wallets, total, err := ws.repo.GetWallets(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	views := make([]WalletView, 0, len(wallets))
	for i, w := range wallets {
		views = append(views, WalletView{
			Wallet:   w,
			Username: lookupUsername(ctx, ws.users, w.UserID),
			Balance:  ws.balances.ReadBalance(ctx, w.Address, ws.token),
		})

		if ws.pause > 0 && i < len(wallets)-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(ws.pause):
			}
		}
	}

	return &WalletPage{
		Wallets:    views,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}
