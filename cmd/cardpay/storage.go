package main

import (
	"context"
	"github.com/rookgm/cardpay/config"
	"github.com/rookgm/cardpay/internal/logger"
	"github.com/rookgm/cardpay/internal/repository"
	"github.com/rookgm/cardpay/internal/repository/memory"
	"github.com/rookgm/cardpay/internal/repository/mongodb"
	"github.com/rookgm/cardpay/internal/repository/postgres"
	"github.com/rookgm/cardpay/internal/service"
	"github.com/rookgm/cardpay/internal/worker"
	"go.uber.org/zap"
	"strings"
)

// orderStore is everything intake, fulfillment and workers need from order storage
type orderStore interface {
	service.OrderRepository
	worker.OrderStore
	worker.OverdueExpirer
}

type storage struct {
	orders  orderStore
	wallets service.WalletRepository
	users   service.UserRepository
	admins  service.AdminRepository
	close   func()
}

// openStorage selects backend by scheme of database URI.
// Empty URI keeps everything in process memory.
func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch uri := cfg.DatabaseURI; {
	case uri == "":
		logger.Log.Warn("database URI is not set, orders are kept in memory")
		store := memory.New()
		return &storage{
			orders:  store,
			wallets: store,
			users:   store,
			admins:  store,
			close:   func() {},
		}, nil

	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		db, err := mongodb.New(ctx, uri, cfg.DatabaseName)
		if err != nil {
			return nil, err
		}
		return &storage{
			orders:  mongodb.NewOrderRepository(db),
			wallets: mongodb.NewWalletRepository(db),
			users:   mongodb.NewUserRepository(db),
			admins:  mongodb.NewAdminRepository(db),
			close: func() {
				if err := db.Close(context.Background()); err != nil {
					logger.Log.Error("close mongodb", zap.Error(err))
				}
			},
		}, nil

	default:
		db, err := postgres.New(ctx, uri)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, err
		}
		return &storage{
			orders:  repository.NewOrderRepository(db),
			wallets: repository.NewWalletRepository(db),
			users:   repository.NewUserRepository(db),
			admins:  repository.NewAdminRepository(db),
			close:   db.Close,
		}, nil
	}
}
