package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warungdev/lokapos/internal/syncer/remote"
	"github.com/warungdev/lokapos/pkg/db/models"
	"github.com/warungdev/lokapos/pkg/enums"
	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
	"github.com/warungdev/lokapos/pkg/logger"
	"github.com/warungdev/lokapos/pkg/metrics"
)

// txRunner is the slice of the db client the drain loop needs.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the durable sync queue: services enqueue mutations inside
// their own transactions, and the drain loop pushes them to the remote in
// strict FIFO order, halting on the first failure so ordering is preserved.
type Service struct {
	runner  txRunner
	repo    *Repository
	remote  remote.Client
	online  func() bool
	logger  *logger.Logger
	metrics *metrics.SyncMetrics

	draining atomic.Bool
}

// NewService wires the outbox. online gates drains; when nil the outbox
// assumes connectivity and lets the remote call fail instead.
func NewService(
	runner txRunner,
	repo *Repository,
	remoteClient remote.Client,
	online func() bool,
	logg *logger.Logger,
	syncMetrics *metrics.SyncMetrics,
) *Service {
	if online == nil {
		online = func() bool { return true }
	}
	return &Service{
		runner:  runner,
		repo:    repo,
		remote:  remoteClient,
		online:  online,
		logger:  logg,
		metrics: syncMetrics,
	}
}

// Enqueue appends a mutation to the queue inside the caller's transaction.
// The entry and the domain write commit or roll back together.
func (s *Service) Enqueue(ctx context.Context, tx *gorm.DB, entity enums.SyncEntity, op enums.SyncOp, localID uint, payload any) error {
	if !entity.IsValid() {
		return fmt.Errorf("invalid sync entity %q", entity)
	}
	if !op.IsValid() {
		return fmt.Errorf("invalid sync op %q", op)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling sync payload: %w", err)
	}

	entry := &models.SyncEntry{
		Entity:  entity,
		Op:      op,
		LocalID: localID,
		Payload: raw,
	}
	return s.repo.WithTx(tx).Insert(ctx, entry)
}

// Pending reports how many entries are waiting.
func (s *Service) Pending(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// Kick starts a drain in the background. Used after commits so a successful
// sale or catalog edit reaches the remote without waiting for the next poll.
func (s *Service) Kick(ctx context.Context) {
	go func() {
		if err := s.Drain(context.WithoutCancel(ctx)); err != nil && !pkgerrors.HasCode(err, pkgerrors.CodeSyncBusy) {
			s.logger.Warn(ctx, fmt.Sprintf("background drain stopped: %v", err))
		}
	}()
}

// Drain pushes queued entries oldest first until the queue is empty or a push
// fails. Only one drain runs at a time; concurrent callers get SYNC_BUSY.
// A failed push halts the loop with the entry still queued, so no later entry
// can overtake it.
func (s *Service) Drain(ctx context.Context) error {
	if !s.draining.CompareAndSwap(false, true) {
		return pkgerrors.New(pkgerrors.CodeSyncBusy, "drain already in progress")
	}
	defer s.draining.Store(false)

	// Offline is the normal state for this device, not a failure. Entries
	// stay queued until connectivity returns.
	if !s.online() {
		s.logger.Debug(ctx, "skipping drain while offline")
		return nil
	}

	entries, err := s.repo.FetchPending(ctx, 0)
	if err != nil {
		return fmt.Errorf("fetching pending entries: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.pushOne(ctx, entry); err != nil {
			s.metrics.IncPushFailure()
			if markErr := s.repo.MarkFailed(ctx, entry.ID, err.Error()); markErr != nil {
				s.logger.Error(ctx, "recording push failure", markErr)
			}
			s.logger.Warn(ctx, fmt.Sprintf("drain halted at entry %d (%s/%s): %v", entry.ID, entry.Entity, entry.Op, err))
			return err
		}
		s.metrics.IncPushed()
	}
	return nil
}

// pushOne delivers a single entry and settles it atomically: the server-id
// write-back (for creations) and the entry deletion share one transaction.
func (s *Service) pushOne(ctx context.Context, entry models.SyncEntry) error {
	req := remote.PushRequest{
		Entity:  entry.Entity,
		Op:      entry.Op,
		LocalID: entry.LocalID,
		Payload: entry.Payload,
	}

	if entry.Op != enums.SyncOpCreate {
		remoteID, err := s.resolveRemoteID(ctx, entry)
		if err != nil {
			return err
		}
		req.RemoteID = remoteID
	}

	result, err := s.remote.Push(ctx, req)
	if err != nil {
		return err
	}

	return s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		if entry.Op == enums.SyncOpCreate && result.ServerID != nil {
			if err := s.writeBackServerID(ctx, tx, entry, *result.ServerID); err != nil {
				return err
			}
		}
		return s.repo.WithTx(tx).Delete(ctx, entry.ID)
	})
}

// resolveRemoteID looks up the row's server identity at drain time. FIFO
// ordering guarantees the creation ack ran first, so an update for a row the
// remote knows always finds an id. Deletes carry the id in the payload since
// the local row is already gone.
func (s *Service) resolveRemoteID(ctx context.Context, entry models.SyncEntry) (*uuid.UUID, error) {
	if entry.Op == enums.SyncOpDelete {
		var marker struct {
			RemoteID *uuid.UUID `json:"remoteId"`
		}
		if err := json.Unmarshal(entry.Payload, &marker); err != nil {
			return nil, fmt.Errorf("decoding deletion payload: %w", err)
		}
		return marker.RemoteID, nil
	}

	model, ok := entityModel(entry.Entity)
	if !ok {
		return nil, fmt.Errorf("unknown sync entity %q", entry.Entity)
	}

	var row struct {
		RemoteID *uuid.UUID
	}
	err := s.repo.db.WithContext(ctx).
		Model(model).
		Select("remote_id").
		Where("id = ?", entry.LocalID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("resolving remote id for %s %d: %w", entry.Entity, entry.LocalID, err)
	}
	return row.RemoteID, nil
}

func (s *Service) writeBackServerID(ctx context.Context, tx *gorm.DB, entry models.SyncEntry, serverID uuid.UUID) error {
	model, ok := entityModel(entry.Entity)
	if !ok {
		return fmt.Errorf("unknown sync entity %q", entry.Entity)
	}
	// UpdateColumn skips gorm hooks and autoUpdateTime: adopting the server
	// identity is not a user edit and must not shift the conflict clock.
	return tx.WithContext(ctx).
		Model(model).
		Where("id = ?", entry.LocalID).
		UpdateColumn("remote_id", serverID).Error
}

func entityModel(entity enums.SyncEntity) (any, bool) {
	switch entity {
	case enums.SyncEntityProduct:
		return &models.Product{}, true
	case enums.SyncEntityCategory:
		return &models.Category{}, true
	case enums.SyncEntityFee:
		return &models.Fee{}, true
	case enums.SyncEntityTransaction:
		return &models.Transaction{}, true
	default:
		return nil, false
	}
}
