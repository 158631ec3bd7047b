package sales

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/warungdev/lokapos/pkg/db/models"
)

// Repository persists completed transactions.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a sales repository on the shared connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a transaction with its item and fee snapshots.
func (r *Repository) Create(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

// FindByID loads a transaction with its snapshots.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Fees").
		First(&txn, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// List returns transactions newest first, optionally bounded by time.
func (r *Repository) List(ctx context.Context, from, to *time.Time, limit, offset int) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Fees").
		Order("occurred_at DESC, id DESC")
	if from != nil {
		query = query.Where("occurred_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("occurred_at < ?", *to)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []models.Transaction
	err := query.Find(&rows).Error
	return rows, err
}

// Delete removes a transaction; item and fee snapshots cascade.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Select("Items", "Fees").Delete(&models.Transaction{ID: id}).Error
}
