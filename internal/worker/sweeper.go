package worker

import (
	"context"
	"fmt"
	"github.com/robfig/cron/v3"
	"github.com/rookgm/cardpay/internal/logger"
	"github.com/rookgm/cardpay/internal/metrics"
	"go.uber.org/zap"
	"time"
)

const defaultSweepInterval = 60 * time.Second

// OverdueExpirer bulk expires pending orders past deadline
type OverdueExpirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically expires overdue orders. It never notifies users.
type Sweeper struct {
	orders   OverdueExpirer
	interval time.Duration
	metrics  *metrics.Metrics
	cron     *cron.Cron
	now      func() time.Time
}

// NewSweeper creates new Sweeper instance
func NewSweeper(orders OverdueExpirer, interval time.Duration, m *metrics.Metrics) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{
		orders:   orders,
		interval: interval,
		metrics:  m,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start runs one sweep and schedules the next ones
func (s *Sweeper) Start(ctx context.Context) error {
	s.RunOnce(ctx)

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Log.Info("expiry sweeper started", zap.Duration("interval", s.interval))
	return nil
}

// Stop stops scheduling and waits for running sweep
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce expires every pending order past deadline
func (s *Sweeper) RunOnce(ctx context.Context) int64 {
	n, err := s.orders.ExpireOverdue(ctx, s.now())
	if err != nil {
		logger.Log.Error("expire overdue orders", zap.Error(err))
		return 0
	}

	if n > 0 {
		s.metrics.Swept(n)
		logger.Log.Info("overdue orders expired", zap.Int64("count", n))
	}
	return n
}
