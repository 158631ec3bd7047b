package settings

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/warungdev/lokapos/pkg/db/models"
)

// Repository persists key/value settings.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a settings repository on the shared connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Get returns the value for key, or ("", false, nil) when unset.
func (r *Repository) Get(ctx context.Context, key string) (string, bool, error) {
	var setting models.Setting
	err := r.db.WithContext(ctx).First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}

// Set writes key to value, inserting or overwriting.
func (r *Repository) Set(ctx context.Context, key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&setting).Error
}

// Delete removes key. Deleting an absent key is a no-op.
func (r *Repository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&models.Setting{}, "key = ?", key).Error
}

// List returns every stored setting.
func (r *Repository) List(ctx context.Context) ([]models.Setting, error) {
	var all []models.Setting
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&all).Error; err != nil {
		return nil, err
	}
	return all, nil
}
