/*
scheduler.go - Automated catch-up rebuild scheduler

PURPOSE:
  Ledgers only reach the day of their last mutation. The scheduler
  periodically runs payroll.Service.RebuildAll so every ledger is extended
  to today without anyone touching the employee.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on start
  - Only ledgers that actually changed are written

CONFIGURATION:
  - Interval: How often to rebuild (default: 1 hour)
  - Enabled:  Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRebuildScheduler(svc)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerRebuild endpoint (manual rebuild)
  - payroll/service.go: RebuildAll
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/warp/payroll-engine/logger"
	"github.com/warp/payroll-engine/payroll"
)

// RebuildScheduler extends every ledger to today on a fixed interval.
type RebuildScheduler struct {
	Service  *payroll.Service
	Interval time.Duration
	Enabled  bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRebuildScheduler creates a new scheduler.
func NewRebuildScheduler(svc *payroll.Service) *RebuildScheduler {
	return &RebuildScheduler{
		Service:  svc,
		Interval: 1 * time.Hour,
		Enabled:  true,
	}
}

// Start begins the scheduler. Calling Start on a running scheduler is a no-op.
func (rs *RebuildScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	log := logger.Global()
	if !rs.Enabled {
		log.Info().Msg("scheduler disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.Interval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker, rs.stop)

	log.Info().Dur("interval", rs.Interval).Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running rebuild to finish.
func (rs *RebuildScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		log := logger.Global()
		log.Info().Msg("scheduler stopped")
	}
}

func (rs *RebuildScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	// Run immediately on start
	rs.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			rs.RunOnce(context.Background())
		case <-stop:
			return
		}
	}
}

// RunOnce triggers an immediate rebuild and returns the number of ledgers
// that changed. Errors are logged, not returned: the next tick retries.
func (rs *RebuildScheduler) RunOnce(ctx context.Context) int {
	log := logger.Global()
	ctx = log.WithContext(ctx)

	changed, err := rs.Service.RebuildAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduled rebuild failed")
		return 0
	}
	if changed > 0 {
		log.Info().Int("changed", changed).Msg("scheduled rebuild completed")
	}
	return changed
}
