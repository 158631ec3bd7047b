package fees

import (
	"context"

	"gorm.io/gorm"

	"github.com/warungdev/lokapos/pkg/db/models"
)

// Repository persists fee definitions.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a fee repository on the shared connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads a fee by local primary key.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Fee, error) {
	var fee models.Fee
	if err := r.db.WithContext(ctx).First(&fee, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &fee, nil
}

// List returns every fee definition ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Fee, error) {
	var rows []models.Fee
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

// ListDefaults returns the fees attached to every new cart.
func (r *Repository) ListDefaults(ctx context.Context) ([]models.Fee, error) {
	var rows []models.Fee
	err := r.db.WithContext(ctx).Where("is_default = ?", true).Order("name ASC").Find(&rows).Error
	return rows, err
}

// Create inserts a new fee row.
func (r *Repository) Create(ctx context.Context, fee *models.Fee) (*models.Fee, error) {
	if err := r.db.WithContext(ctx).Create(fee).Error; err != nil {
		return nil, err
	}
	return fee, nil
}

// Save updates an existing fee row.
func (r *Repository) Save(ctx context.Context, fee *models.Fee) (*models.Fee, error) {
	if err := r.db.WithContext(ctx).Save(fee).Error; err != nil {
		return nil, err
	}
	return fee, nil
}

// Delete removes a fee by ID.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Fee{}).Error
}
