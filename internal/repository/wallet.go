package repository

import (
	"context"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/rookgm/cardpay/internal/repository/postgres"
)

const (
	insertWalletQuery = `
						INSERT INTO wallets (id, user_id, address, private_key, created_at)
						VALUES ($1, $2, $3, $4, $5)
`
	selectWalletsQuery = `
						SELECT id, user_id, address, private_key, created_at FROM wallets
						ORDER BY created_at DESC
						OFFSET $1 LIMIT $2
`
	countWalletsQuery = `
						SELECT count(*) FROM wallets
`
)

// WalletRepository implements WalletRepository interface
type WalletRepository struct {
	db *postgres.DB
}

// NewWalletRepository creates new wallet repository instance
func NewWalletRepository(db *postgres.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// CreateWallet inserts new wallet. Address must not exist.
func (wr *WalletRepository) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	_, err := wr.db.Exec(ctx, insertWalletQuery, wallet.ID, wallet.UserID, wallet.Address, wallet.PrivateKey, wallet.CreatedAt)
	if err != nil {
		if errCode := wr.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
			return models.ErrConflictData
		}
		return err
	}

	return nil
}

// GetWallets returns page of wallets, newest first, and total count
func (wr *WalletRepository) GetWallets(ctx context.Context, offset, limit int) ([]models.Wallet, int64, error) {
	var total int64
	if err := wr.db.QueryRow(ctx, countWalletsQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := wr.db.Query(ctx, selectWalletsQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	wallets := []models.Wallet{}

	for rows.Next() {
		w := models.Wallet{}
		if err := rows.Scan(&w.ID, &w.UserID, &w.Address, &w.PrivateKey, &w.CreatedAt); err != nil {
			return nil, 0, err
		}
		wallets = append(wallets, w)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return wallets, total, nil
}
