package worker

import (
	"context"
	"github.com/rookgm/cardpay/internal/logger"
	"github.com/rookgm/cardpay/internal/metrics"
	"go.uber.org/zap"
	"sync"
	"time"
)

const (
	defaultPollInterval = 10 * time.Second
	defaultCeiling      = 60 * time.Minute
)

// Ticker is single watcher step, returns true when polling must stop
type Ticker interface {
	Tick(ctx context.Context, orderID string, ceiling time.Time) bool
}

// Supervisor runs one polling goroutine per active order
type Supervisor struct {
	ticker   Ticker
	orders   OrderStore
	interval time.Duration
	ceiling  time.Duration
	metrics  *metrics.Metrics

	mu      sync.Mutex
	active  map[string]struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped bool
}

// NewSupervisor creates new Supervisor instance.
// Zero interval or ceiling selects defaults.
func NewSupervisor(ticker Ticker, orders OrderStore, interval, ceiling time.Duration, m *metrics.Metrics) *Supervisor {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if ceiling <= 0 {
		ceiling = defaultCeiling
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Supervisor{
		ticker:   ticker,
		orders:   orders,
		interval: interval,
		ceiling:  ceiling,
		metrics:  m,
		active:   make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Watch starts polling order. Watching an order that is already watched does nothing.
func (s *Supervisor) Watch(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	if _, ok := s.active[orderID]; ok {
		return false
	}
	s.active[orderID] = struct{}{}

	s.wg.Add(1)
	go s.run(orderID, time.Now().Add(s.ceiling))

	return true
}

// Watching reports whether order is polled now
func (s *Supervisor) Watching(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[orderID]
	return ok
}

// Rearm starts watchers for every pending order whose deadline has not passed.
// Overdue ones are left to the sweeper.
func (s *Supervisor) Rearm(ctx context.Context) (int, error) {
	orders, err := s.orders.GetPendingOrders(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	n := 0
	for _, o := range orders {
		if o.Expired(now) {
			continue
		}
		if s.Watch(o.ID) {
			n++
		}
	}

	logger.Log.Info("watchers re-armed", zap.Int("count", n))
	return n, nil
}

// Shutdown stops all watchers and waits for them
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Supervisor) run(orderID string, ceiling time.Time) {
	s.metrics.WatcherStarted()
	defer func() {
		s.mu.Lock()
		delete(s.active, orderID)
		s.mu.Unlock()
		s.metrics.WatcherStopped()
		s.wg.Done()
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			logger.Log.Debug("watcher is done", zap.String("order", orderID))
			return
		case <-ticker.C:
			if s.ticker.Tick(s.ctx, orderID, ceiling) {
				logger.Log.Debug("watcher stopped", zap.String("order", orderID))
				return
			}
		}
	}
}
