/*
scheduler.go - Periodic fact table refresh

PURPOSE:
  Rebuilds the fact table on a fixed interval so a server pointed at a
  CSV directory or SQLite file picks up new extracts without a restart.
  Each tick calls Handler.Reload, which swaps the base atomically; a
  failed rebuild keeps the previous base and is only logged.

CONFIGURATION:
  - Interval: data.refresh_interval (0 disables the scheduler)

USAGE:
  scheduler := NewRefreshScheduler(handler, 10*time.Minute, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Reload and POST /api/reload (manual refresh)
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RefreshScheduler rebuilds the fact table periodically.
type RefreshScheduler struct {
	Handler  *Handler
	Interval time.Duration

	logger *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRefreshScheduler creates a scheduler; it does nothing until Start.
func NewRefreshScheduler(h *Handler, interval time.Duration, logger *zap.Logger) *RefreshScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshScheduler{
		Handler:  h,
		Interval: interval,
		logger:   logger,
	}
}

// Start begins the scheduler. The first refresh happens one interval from
// now: the caller is expected to have built the initial base already.
func (rs *RefreshScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.Interval <= 0 {
		rs.logger.Info("Refresh scheduler disabled")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.Interval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)
	go rs.run(rs.ticker, rs.stop)

	rs.logger.Info("Refresh scheduler started", zap.Duration("interval", rs.Interval))
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (rs *RefreshScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker == nil {
		return
	}
	rs.ticker.Stop()
	close(rs.stop)
	rs.wg.Wait()
	rs.ticker = nil
	rs.logger.Info("Refresh scheduler stopped")
}

func (rs *RefreshScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	for {
		select {
		case <-ticker.C:
			rs.refresh(stop)
		case <-stop:
			return
		}
	}
}

func (rs *RefreshScheduler) refresh(stop <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	if _, err := rs.Handler.Reload(ctx); err != nil {
		rs.logger.Warn("Scheduled refresh failed, keeping current fact table", zap.Error(err))
	}
}
