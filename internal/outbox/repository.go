package outbox

import (
	"context"

	"gorm.io/gorm"

	"github.com/warungdev/lokapos/pkg/db/models"
)

// Repository persists sync queue entries. All writes that must be atomic with
// a domain mutation go through WithTx so the entry lands in the same commit.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an outbox repository on the shared connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Insert appends one entry to the queue.
func (r *Repository) Insert(ctx context.Context, entry *models.SyncEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FetchPending returns queued entries oldest first. A zero limit means all.
func (r *Repository) FetchPending(ctx context.Context, limit int) ([]models.SyncEntry, error) {
	var entries []models.SyncEntry
	query := r.db.WithContext(ctx).Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the number of entries still waiting to be pushed.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SyncEntry{}).Count(&count).Error
	return count, err
}

// Delete removes an acknowledged entry.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.SyncEntry{}, id).Error
}

// MarkFailed bumps the attempt counter and records the failure reason. The
// entry stays queued so the next drain retries it in the same position.
func (r *Repository) MarkFailed(ctx context.Context, id uint, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.SyncEntry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"last_error":    reason,
		}).Error
}
