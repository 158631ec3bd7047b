package syncer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/warungdev/lokapos/internal/outbox"
	"github.com/warungdev/lokapos/internal/settings"
	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
	"github.com/warungdev/lokapos/pkg/logger"
	"github.com/warungdev/lokapos/pkg/metrics"
)

// Service runs full sync cycles: drain the outbox, then pull and merge remote
// deltas. The push leg runs first so the server sees local changes before it
// answers the pull.
type Service struct {
	outbox     *outbox.Service
	reconciler *Reconciler
	settings   *settings.Service
	monitor    *Monitor
	logger     *logger.Logger
	metrics    *metrics.SyncMetrics

	syncing atomic.Bool
}

// Status is a point-in-time snapshot of the sync machinery.
type Status struct {
	Online   bool      `json:"online"`
	Syncing  bool      `json:"syncing"`
	Pending  int64     `json:"pending"`
	LastSync time.Time `json:"lastSync"`
}

// NewService wires the sync cycle.
func NewService(
	outboxSvc *outbox.Service,
	reconciler *Reconciler,
	settingsSvc *settings.Service,
	monitor *Monitor,
	logg *logger.Logger,
	syncMetrics *metrics.SyncMetrics,
) *Service {
	return &Service{
		outbox:     outboxSvc,
		reconciler: reconciler,
		settings:   settingsSvc,
		monitor:    monitor,
		logger:     logg,
		metrics:    syncMetrics,
	}
}

// Sync runs one push+pull cycle. Cycles never overlap: a second caller gets
// SYNC_BUSY while the first is still running. A failed push aborts the cycle
// before the pull so queued changes are never overwritten by remote state.
func (s *Service) Sync(ctx context.Context) error {
	if !s.syncing.CompareAndSwap(false, true) {
		return pkgerrors.New(pkgerrors.CodeSyncBusy, "sync cycle already running")
	}
	defer s.syncing.Store(false)

	started := time.Now()

	if err := s.outbox.Drain(ctx); err != nil {
		s.metrics.ObserveCycle("push_failed", time.Since(started))
		return err
	}
	if err := s.reconciler.Pull(ctx); err != nil {
		s.metrics.ObserveCycle("pull_failed", time.Since(started))
		return err
	}

	s.metrics.ObserveCycle("ok", time.Since(started))
	s.logger.Debug(ctx, "sync cycle completed")
	return nil
}

// IsSyncing reports whether a cycle is currently running.
func (s *Service) IsSyncing() bool {
	return s.syncing.Load()
}

// Status reports connectivity, cycle state, queue depth and the watermark.
func (s *Service) Status(ctx context.Context) (Status, error) {
	pending, err := s.outbox.Pending(ctx)
	if err != nil {
		return Status{}, err
	}
	lastSync, err := s.settings.LastSync(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Online:   s.monitor.Online(),
		Syncing:  s.IsSyncing(),
		Pending:  pending,
		LastSync: lastSync,
	}, nil
}
