package config

import (
	"flag"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	defaultServerAddress   = ":8080"
	defaultDatabaseURI     = ""
	defaultDatabaseName    = "cardpay"
	defaultLogLevel        = "info"
	defaultTronFullNode    = "https://api.trongrid.io"
	defaultTronRateLimit   = 5
	defaultUSDTContract    = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"
	defaultUSDTDecimals    = 6
	defaultCardCreationFee = "60"
	defaultMinOrderAmount  = "15"
	defaultPaymentWindow   = 15 * time.Minute
	defaultPollInterval    = 10 * time.Second
	defaultWatchCeiling    = 60 * time.Minute
	defaultSweepInterval   = 60 * time.Second
	defaultBalanceCacheTTL = 60 * time.Second
	defaultBalanceRetries  = 3
	defaultBalanceBackoff  = 2 * time.Second
)

type Config struct {
	ServerAddr   string
	DatabaseURI  string
	DatabaseName string
	RedisAddr    string
	LogLevel     string

	BotToken            string
	NotificationGroupID int64

	TronFullNode  string
	TronAPIKey    string
	TronRateLimit float64
	USDTContract  string
	USDTDecimals  int32

	CardCreationFee decimal.Decimal
	MinOrderAmount  decimal.Decimal
	PaymentWindow   time.Duration

	PollInterval    time.Duration
	WatchCeiling    time.Duration
	SweepInterval   time.Duration
	BalanceCacheTTL time.Duration
	BalanceRetries  int
	BalanceBackoff  time.Duration

	AuthTokenKey string
	Admins       string
	CardTemplate string
}

var (
	once      sync.Once
	singleton *Config
	loadErr   error
)

// New returns new Config. It parses command line and environment variables only once.
// Variables from .env file are applied to environment before parsing.
func New() (*Config, error) {
	once.Do(func() {
		// .env is optional
		_ = godotenv.Load()
		singleton, loadErr = load(flag.CommandLine, os.Args[1:], os.Getenv)
	})

	return singleton, loadErr
}

func load(fs *flag.FlagSet, args []string, getenv func(string) string) (*Config, error) {
	cfg := Config{}

	// initialize flags
	fs.StringVar(&cfg.ServerAddr, "a", defaultServerAddress, "admin api server address")
	fs.StringVar(&cfg.DatabaseURI, "d", defaultDatabaseURI, "database URI, postgres:// or mongodb://")
	fs.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// if environment variable is set, then using it
	if v := getenv("RUN_ADDRESS"); v != "" {
		cfg.ServerAddr = v
	}
	if v := getenv("DATABASE_URI"); v != "" {
		cfg.DatabaseURI = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	cfg.DatabaseName = stringOr(getenv("DATABASE_NAME"), defaultDatabaseName)
	cfg.RedisAddr = getenv("REDIS_ADDR")
	cfg.BotToken = getenv("BOT_TOKEN")
	cfg.TronFullNode = stringOr(getenv("TRON_FULLNODE"), defaultTronFullNode)
	cfg.TronAPIKey = getenv("TRON_APIKEY")
	cfg.USDTContract = stringOr(getenv("USDT_CONTRACT"), defaultUSDTContract)
	cfg.AuthTokenKey = getenv("AUTH_TOKEN_KEY")
	cfg.Admins = getenv("ADMINS")
	cfg.CardTemplate = getenv("CARD_TEMPLATE")

	var err error
	if cfg.NotificationGroupID, err = parseInt(getenv, "NOTIFICATION_GROUP_ID", 0); err != nil {
		return nil, err
	}
	if cfg.TronRateLimit, err = parseFloat(getenv, "TRON_RATE_LIMIT", defaultTronRateLimit); err != nil {
		return nil, err
	}
	decimals, err := parseInt(getenv, "USDT_DECIMALS", defaultUSDTDecimals)
	if err != nil {
		return nil, err
	}
	cfg.USDTDecimals = int32(decimals)

	if cfg.CardCreationFee, err = parseDecimal(getenv, "CARD_CREATION_FEE", defaultCardCreationFee); err != nil {
		return nil, err
	}
	if cfg.MinOrderAmount, err = parseDecimal(getenv, "MIN_ORDER_AMOUNT", defaultMinOrderAmount); err != nil {
		return nil, err
	}

	windowMinutes, err := parseInt(getenv, "PAYMENT_WINDOW_MINUTES", int64(defaultPaymentWindow/time.Minute))
	if err != nil {
		return nil, err
	}
	cfg.PaymentWindow = time.Duration(windowMinutes) * time.Minute

	if cfg.PollInterval, err = parseDuration(getenv, "POLL_INTERVAL", defaultPollInterval); err != nil {
		return nil, err
	}
	if cfg.WatchCeiling, err = parseDuration(getenv, "WATCH_CEILING", defaultWatchCeiling); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = parseDuration(getenv, "SWEEP_INTERVAL", defaultSweepInterval); err != nil {
		return nil, err
	}
	if cfg.BalanceCacheTTL, err = parseDuration(getenv, "BALANCE_CACHE_TTL", defaultBalanceCacheTTL); err != nil {
		return nil, err
	}
	if cfg.BalanceBackoff, err = parseDuration(getenv, "BALANCE_BACKOFF", defaultBalanceBackoff); err != nil {
		return nil, err
	}
	retries, err := parseInt(getenv, "BALANCE_RETRIES", defaultBalanceRetries)
	if err != nil {
		return nil, err
	}
	cfg.BalanceRetries = int(retries)

	return &cfg, nil
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseInt(getenv func(string) string, key string, def int64) (int64, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func parseFloat(getenv func(string) string, key string, def float64) (float64, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func parseDecimal(getenv func(string) string, key string, def string) (decimal.Decimal, error) {
	v := stringOr(getenv(key), def)
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func parseDuration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
