package syncer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
	"github.com/warungdev/lokapos/pkg/logger"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultMaxBackoff   = 5 * time.Minute
	jitterWindow        = 2 * time.Second
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

// Runner drives the periodic sync loop. Failures back off exponentially up to
// a cap, then the loop returns to the base interval on the next success.
type Runner struct {
	service    *Service
	monitor    *Monitor
	logger     *logger.Logger
	interval   time.Duration
	maxBackoff time.Duration
}

// NewRunner builds the poll loop.
func NewRunner(service *Service, monitor *Monitor, logg *logger.Logger, interval, maxBackoff time.Duration) *Runner {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}
	return &Runner{
		service:    service,
		monitor:    monitor,
		logger:     logg,
		interval:   interval,
		maxBackoff: maxBackoff,
	}
}

// Run syncs on the poll interval until the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	backoff := r.interval

	for {
		if err := sleep(ctx, withJitter(backoff)); err != nil {
			return err
		}

		if !r.monitor.Online() {
			// Offline is the normal state for this device, not a failure;
			// keep the base interval and wait for the monitor to flip.
			backoff = r.interval
			continue
		}

		err := r.service.Sync(ctx)
		switch {
		case err == nil, pkgerrors.HasCode(err, pkgerrors.CodeSyncBusy):
			backoff = r.interval
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			backoff = nextBackoff(backoff, r.interval, r.maxBackoff)
			r.logger.Warn(ctx, fmt.Sprintf("sync cycle failed, retrying in %s: %v", backoff, err))
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
