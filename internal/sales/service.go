package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/warungdev/lokapos/pkg/db"
	"github.com/warungdev/lokapos/pkg/db/models"
	"github.com/warungdev/lokapos/pkg/enums"
	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
)

// Service exposes the sales history.
type Service interface {
	Get(ctx context.Context, id uint) (*models.Transaction, error)
	List(ctx context.Context, input ListInput) ([]models.Transaction, error)
	Delete(ctx context.Context, id uint) error
}

// ListInput bounds a history query. Nil times mean unbounded.
type ListInput struct {
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// mutationQueue is the slice of the outbox the sales service needs.
type mutationQueue interface {
	Enqueue(ctx context.Context, tx *gorm.DB, entity enums.SyncEntity, op enums.SyncOp, localID uint, payload any) error
	Kick(ctx context.Context)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	queue    mutationQueue
}

// NewService constructs the sales service.
func NewService(repo *Repository, dbClient *db.Client, queue mutationQueue) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if queue == nil {
		return nil, fmt.Errorf("mutation queue required")
	}
	return &service{repo: repo, dbClient: dbClient, queue: queue}, nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.Transaction, error) {
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, err
	}
	return txn, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]models.Transaction, error) {
	return s.repo.List(ctx, input.From, input.To, input.Limit, input.Offset)
}

// Delete voids a sale: the record is removed and every sold unit goes back
// into stock, the exact inverse of the checkout commit. Products deleted
// since the sale are skipped.
func (s *service) Delete(ctx context.Context, id uint) error {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		txn, err := txRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			return err
		}

		for _, item := range txn.Items {
			var product models.Product
			err := tx.WithContext(ctx).First(&product, "id = ?", item.ProductID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			product.Stock += item.Quantity
			if err := tx.WithContext(ctx).
				Model(&product).
				Update("stock", product.Stock).Error; err != nil {
				return err
			}
			if err := s.queue.Enqueue(ctx, tx, enums.SyncEntityProduct, enums.SyncOpUpdate, product.ID, product); err != nil {
				return err
			}
		}

		if err := txRepo.Delete(ctx, id); err != nil {
			return err
		}
		payload := map[string]any{"localId": id, "remoteId": txn.RemoteID}
		return s.queue.Enqueue(ctx, tx, enums.SyncEntityTransaction, enums.SyncOpDelete, id, payload)
	})
	if err != nil {
		return err
	}

	s.queue.Kick(ctx)
	return nil
}
