package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warungdev/lokapos/internal/settings"
	"github.com/warungdev/lokapos/internal/syncer/remote"
	"github.com/warungdev/lokapos/pkg/db/models"
	"github.com/warungdev/lokapos/pkg/logger"
)

// txRunner is the slice of the db client the reconciler needs.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Reconciler folds remote deltas into the local catalog. Conflicts resolve
// last-write-wins on updatedAt: a remote change is applied only when strictly
// newer than the local row, so replaying the same pull is a no-op.
type Reconciler struct {
	runner   txRunner
	remote   remote.Client
	settings *settings.Service
	logger   *logger.Logger
}

// NewReconciler wires the pull side of sync.
func NewReconciler(runner txRunner, remoteClient remote.Client, settingsSvc *settings.Service, logg *logger.Logger) *Reconciler {
	return &Reconciler{
		runner:   runner,
		remote:   remoteClient,
		settings: settingsSvc,
		logger:   logg,
	}
}

// Pull fetches every remote change since the stored watermark and merges it.
// The merged rows, the deletions, and the advanced watermark commit in a
// single transaction: a failed merge leaves the watermark untouched so the
// next pull sees the same window again.
func (r *Reconciler) Pull(ctx context.Context) error {
	since, err := r.settings.LastSync(ctx)
	if err != nil {
		return fmt.Errorf("reading sync watermark: %w", err)
	}

	resp, err := r.remote.Pull(ctx, since)
	if err != nil {
		return err
	}

	return r.runner.WithTx(ctx, func(tx *gorm.DB) error {
		// Categories first so product deltas can resolve their refs.
		for _, delta := range resp.Categories {
			if err := r.mergeCategory(ctx, tx, delta); err != nil {
				return fmt.Errorf("merging category %s: %w", delta.RemoteID, err)
			}
		}
		for _, delta := range resp.Products {
			if err := r.mergeProduct(ctx, tx, delta); err != nil {
				return fmt.Errorf("merging product %s: %w", delta.RemoteID, err)
			}
		}
		if err := r.applyDeletions(ctx, tx, resp.Deleted); err != nil {
			return err
		}
		return r.settings.SetLastSync(ctx, tx, resp.ServerTime)
	})
}

func (r *Reconciler) mergeCategory(ctx context.Context, tx *gorm.DB, delta remote.CategoryDelta) error {
	var local models.Category
	err := tx.WithContext(ctx).First(&local, "remote_id = ?", delta.RemoteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		remoteID := delta.RemoteID
		created := models.Category{
			RemoteID:  &remoteID,
			Name:      delta.Name,
			CreatedAt: delta.UpdatedAt,
			UpdatedAt: delta.UpdatedAt,
		}
		return tx.WithContext(ctx).Create(&created).Error
	}
	if err != nil {
		return err
	}

	if !delta.UpdatedAt.After(local.UpdatedAt) {
		return nil
	}
	// UpdateColumns keeps the remote timestamp instead of stamping now(),
	// otherwise a merge would always look newer than the next delta.
	return tx.WithContext(ctx).Model(&local).UpdateColumns(map[string]any{
		"name":       delta.Name,
		"updated_at": delta.UpdatedAt,
	}).Error
}

func (r *Reconciler) mergeProduct(ctx context.Context, tx *gorm.DB, delta remote.ProductDelta) error {
	categoryID, err := r.resolveCategoryRef(ctx, tx, delta.CategoryRef)
	if err != nil {
		return err
	}

	var local models.Product
	err = tx.WithContext(ctx).First(&local, "remote_id = ?", delta.RemoteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		remoteID := delta.RemoteID
		created := models.Product{
			RemoteID:    &remoteID,
			Name:        delta.Name,
			SellPrice:   delta.SellPrice,
			CostPrice:   delta.CostPrice,
			Stock:       delta.Stock,
			Barcode:     delta.Barcode,
			CategoryID:  categoryID,
			DiscountPct: delta.DiscountPct,
			CreatedAt:   delta.UpdatedAt,
			UpdatedAt:   delta.UpdatedAt,
		}
		return tx.WithContext(ctx).Create(&created).Error
	}
	if err != nil {
		return err
	}

	if !delta.UpdatedAt.After(local.UpdatedAt) {
		return nil
	}
	return tx.WithContext(ctx).Model(&local).UpdateColumns(map[string]any{
		"name":         delta.Name,
		"sell_price":   delta.SellPrice,
		"cost_price":   delta.CostPrice,
		"stock":        delta.Stock,
		"barcode":      delta.Barcode,
		"category_id":  categoryID,
		"discount_pct": delta.DiscountPct,
		"updated_at":   delta.UpdatedAt,
	}).Error
}

// resolveCategoryRef maps a remote category identity to the local row id. A
// ref the device has never seen resolves to uncategorized rather than failing
// the whole pull.
func (r *Reconciler) resolveCategoryRef(ctx context.Context, tx *gorm.DB, ref *uuid.UUID) (*uint, error) {
	if ref == nil {
		return nil, nil
	}
	var category models.Category
	err := tx.WithContext(ctx).First(&category, "remote_id = ?", *ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.logger.Warn(ctx, fmt.Sprintf("pulled product references unknown category %s", *ref))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category.ID, nil
}

func (r *Reconciler) applyDeletions(ctx context.Context, tx *gorm.DB, deleted remote.DeletionMarkers) error {
	if len(deleted.Products) > 0 {
		if err := tx.WithContext(ctx).
			Where("remote_id IN ?", deleted.Products).
			Delete(&models.Product{}).Error; err != nil {
			return fmt.Errorf("applying product deletions: %w", err)
		}
	}
	if len(deleted.Categories) > 0 {
		// Remote deletions detach their products instead of cascading.
		if err := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("category_id IN (SELECT id FROM categories WHERE remote_id IN ?)", deleted.Categories).
			UpdateColumn("category_id", nil).Error; err != nil {
			return fmt.Errorf("detaching deleted categories: %w", err)
		}
		if err := tx.WithContext(ctx).
			Where("remote_id IN ?", deleted.Categories).
			Delete(&models.Category{}).Error; err != nil {
			return fmt.Errorf("applying category deletions: %w", err)
		}
	}
	return nil
}
