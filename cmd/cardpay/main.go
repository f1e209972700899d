package main

import (
	"context"
	"encoding/hex"
	"errors"
	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rookgm/cardpay/config"
	"github.com/rookgm/cardpay/internal/auth"
	"github.com/rookgm/cardpay/internal/bot"
	"github.com/rookgm/cardpay/internal/cache"
	"github.com/rookgm/cardpay/internal/card"
	handler "github.com/rookgm/cardpay/internal/handler/http"
	"github.com/rookgm/cardpay/internal/ledger"
	"github.com/rookgm/cardpay/internal/logger"
	"github.com/rookgm/cardpay/internal/metrics"
	"github.com/rookgm/cardpay/internal/middleware"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/rookgm/cardpay/internal/notify"
	"github.com/rookgm/cardpay/internal/service"
	"github.com/rookgm/cardpay/internal/tron"
	"github.com/rookgm/cardpay/internal/trongrid"
	"github.com/rookgm/cardpay/internal/worker"
	"go.uber.org/zap"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// pause between ledger reads when listing wallets
const walletListPause = 200 * time.Millisecond

const shutdownTimeout = 10 * time.Second

func main() {

	// create new config
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Log.Sync()

	if cfg.BotToken == "" {
		logger.Log.Fatal("BOT_TOKEN is not set")
	}
	if cfg.AuthTokenKey == "" {
		logger.Log.Fatal("AUTH_TOKEN_KEY is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// initialize storage
	store, err := openStorage(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("Error initializing storage", zap.Error(err))
	}
	defer store.close()

	// metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// balance cache
	var balanceCache cache.Cache = cache.NewMemory()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Log.Fatal("Error connecting to redis", zap.Error(err))
		}
		balanceCache = cache.NewRedis(rdb)
	}

	// ledger
	token := models.Token{Contract: cfg.USDTContract, Decimals: cfg.USDTDecimals}
	tronClient := trongrid.NewClient(cfg.TronFullNode, cfg.TronAPIKey, cfg.TronRateLimit)
	balances := ledger.NewReader(tronClient, balanceCache,
		ledger.WithCacheTTL(cfg.BalanceCacheTTL),
		ledger.WithRetry(cfg.BalanceRetries, cfg.BalanceBackoff),
		ledger.WithMetrics(m))

	// telegram
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Log.Fatal("Error initializing bot", zap.Error(err))
	}
	dispatcher := notify.NewDispatcher(api, m)

	renderer, err := card.NewRenderer(cfg.CardTemplate)
	if err != nil {
		logger.Log.Fatal("Error loading card template", zap.Error(err))
	}

	// payment watchers
	watcher := worker.NewPaymentWatcher(worker.WatcherConfig{
		Orders:    store.orders,
		Users:     store.users,
		Balances:  balances,
		Notifier:  dispatcher,
		Transfers: tronClient,
		ChannelID: cfg.NotificationGroupID,
		Window:    cfg.PaymentWindow,
		Metrics:   m,
	})
	supervisor := worker.NewSupervisor(watcher, store.orders, cfg.PollInterval, cfg.WatchCeiling, m)
	defer supervisor.Shutdown()

	sweeper := worker.NewSweeper(store.orders, cfg.SweepInterval, m)
	if err := sweeper.Start(ctx); err != nil {
		logger.Log.Fatal("Error starting sweeper", zap.Error(err))
	}
	defer sweeper.Stop()

	// pending orders survive restarts
	n, err := supervisor.Rearm(ctx)
	if err != nil {
		logger.Log.Error("Error rearming watchers", zap.Error(err))
	}
	logger.Log.Info("watchers rearmed", zap.Int("count", n))

	tokenKey, err := hex.DecodeString(cfg.AuthTokenKey)
	if err != nil {
		logger.Log.Fatal("Error extracting token key", zap.Error(err))
	}
	authToken := auth.NewAuthToken(tokenKey)

	// dependency injection
	// user
	userService := service.NewUserService(store.users)

	// auth
	authService := service.NewAuthService(store.admins, authToken)
	if err := authService.SeedAdmins(ctx, cfg.Admins); err != nil {
		logger.Log.Fatal("Error seeding admins", zap.Error(err))
	}
	authHandler := handler.NewAuthHandler(authService, authToken)

	// order
	orderService := service.NewOrderService(store.orders, store.wallets, store.users, tron.NewGenerator(), supervisor,
		service.OrderSettings{
			Fee:       cfg.CardCreationFee,
			MinAmount: cfg.MinOrderAmount,
			Window:    cfg.PaymentWindow,
			Token:     token,
		}, m)
	fulfillmentService := service.NewFulfillmentService(store.orders, dispatcher, renderer, cfg.NotificationGroupID)
	orderHandler := handler.NewOrderHandler(orderService, fulfillmentService)

	// wallet
	walletService := service.NewWalletService(store.wallets, store.users, balances, token, walletListPause)
	walletHandler := handler.NewWalletHandler(walletService)

	router := chi.NewRouter()

	router.Use(middleware.Logging(logger.Log))

	router.Get("/health", handler.Health())
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	router.Post("/api/login", authHandler.Login())
	router.Post("/api/logout", authHandler.Logout())
	router.Get("/api/auth/check", authHandler.Check())

	// routes that require authentication
	router.Group(func(group chi.Router) {
		group.Use(middleware.Auth(authToken))
		group.Get("/api/orders", orderHandler.ListPaidOrders())
		group.Patch("/api/orders/{orderID}/status", orderHandler.UpdateCardStatus())

		// routes for super admins only
		group.Group(func(super chi.Router) {
			super.Use(middleware.RequireSuper)
			super.Get("/api/wallets", walletHandler.ListWallets())
		})
	})

	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Running server", zap.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Error starting server", zap.Error(err))
			stop()
		}
	}()

	logger.Log.Info("Running bot", zap.String("username", api.Self.UserName))
	bot.New(api, orderService, userService, renderer, dispatcher).Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Error shutting down server", zap.Error(err))
	}
	logger.Log.Info("stopped")
}
