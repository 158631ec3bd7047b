package syncer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/warungdev/lokapos/internal/syncer/remote"
	"github.com/warungdev/lokapos/pkg/logger"
)

// Monitor tracks remote reachability by pinging on an interval. The device
// starts offline until the first ping succeeds; a transition back online
// fires onOnline so queued changes flush immediately instead of waiting for
// the next poll.
type Monitor struct {
	remote   remote.Client
	logger   *logger.Logger
	interval time.Duration
	onOnline func(ctx context.Context)

	online atomic.Bool
}

// NewMonitor builds a connectivity monitor. onOnline may be nil.
func NewMonitor(remoteClient remote.Client, logg *logger.Logger, interval time.Duration, onOnline func(ctx context.Context)) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Monitor{
		remote:   remoteClient,
		logger:   logg,
		interval: interval,
		onOnline: onOnline,
	}
}

// Online reports the last observed connectivity state.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Check pings the remote once and records the transition.
func (m *Monitor) Check(ctx context.Context) bool {
	wasOnline := m.online.Load()
	isOnline := m.remote.Ping(ctx) == nil
	m.online.Store(isOnline)

	switch {
	case isOnline && !wasOnline:
		m.logger.Info(ctx, "remote reachable again")
		if m.onOnline != nil {
			m.onOnline(ctx)
		}
	case !isOnline && wasOnline:
		m.logger.Warn(ctx, "remote unreachable, queueing changes locally")
	}
	return isOnline
}

// Run pings until the context is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
