package fees

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/warungdev/lokapos/pkg/db"
	"github.com/warungdev/lokapos/pkg/db/models"
	"github.com/warungdev/lokapos/pkg/enums"
	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
)

// Service manages tax and surcharge definitions.
type Service interface {
	Create(ctx context.Context, input Input) (*models.Fee, error)
	Update(ctx context.Context, id uint, input Input) (*models.Fee, error)
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (*models.Fee, error)
	List(ctx context.Context) ([]models.Fee, error)
	ListDefaults(ctx context.Context) ([]models.Fee, error)
}

// Input is the payload for creating or replacing a fee definition.
type Input struct {
	Name      string
	Type      enums.FeeType
	Value     float64
	IsDefault bool
	IsTax     bool
}

// mutationQueue is the slice of the outbox the fee service needs.
type mutationQueue interface {
	Enqueue(ctx context.Context, tx *gorm.DB, entity enums.SyncEntity, op enums.SyncOp, localID uint, payload any) error
	Kick(ctx context.Context)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	queue    mutationQueue
}

// NewService constructs the fee service.
func NewService(repo *Repository, dbClient *db.Client, queue mutationQueue) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fee repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if queue == nil {
		return nil, fmt.Errorf("mutation queue required")
	}
	return &service{repo: repo, dbClient: dbClient, queue: queue}, nil
}

func (s *service) Create(ctx context.Context, input Input) (*models.Fee, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	var created *models.Fee
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		fee, err := s.repo.WithTx(tx).Create(ctx, &models.Fee{
			Name:      input.Name,
			Type:      input.Type,
			Value:     input.Value,
			IsDefault: input.IsDefault,
			IsTax:     input.IsTax,
		})
		if err != nil {
			return err
		}
		created = fee
		return s.queue.Enqueue(ctx, tx, enums.SyncEntityFee, enums.SyncOpCreate, fee.ID, fee)
	})
	if err != nil {
		return nil, err
	}

	s.queue.Kick(ctx)
	return created, nil
}

func (s *service) Update(ctx context.Context, id uint, input Input) (*models.Fee, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	var updated *models.Fee
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		fee, err := txRepo.FindByID(ctx, id)
		if err != nil {
			return mapNotFound(err)
		}
		fee.Name = input.Name
		fee.Type = input.Type
		fee.Value = input.Value
		fee.IsDefault = input.IsDefault
		fee.IsTax = input.IsTax

		saved, err := txRepo.Save(ctx, fee)
		if err != nil {
			return err
		}
		updated = saved
		return s.queue.Enqueue(ctx, tx, enums.SyncEntityFee, enums.SyncOpUpdate, saved.ID, saved)
	})
	if err != nil {
		return nil, err
	}

	s.queue.Kick(ctx)
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		fee, err := txRepo.FindByID(ctx, id)
		if err != nil {
			return mapNotFound(err)
		}
		if err := txRepo.Delete(ctx, id); err != nil {
			return err
		}
		payload := map[string]any{"localId": id, "remoteId": fee.RemoteID}
		return s.queue.Enqueue(ctx, tx, enums.SyncEntityFee, enums.SyncOpDelete, id, payload)
	})
	if err != nil {
		return err
	}

	s.queue.Kick(ctx)
	return nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.Fee, error) {
	fee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return fee, nil
}

func (s *service) List(ctx context.Context) ([]models.Fee, error) {
	return s.repo.List(ctx)
}

func (s *service) ListDefaults(ctx context.Context) ([]models.Fee, error) {
	return s.repo.ListDefaults(ctx)
}

func validate(input Input) error {
	if input.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "fee name is required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "fee type must be percentage or fixed")
	}
	if input.Type == enums.FeeTypePercentage && (input.Value < 0 || input.Value > 100) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage must be between 0 and 100")
	}
	if input.Type == enums.FeeTypeFixed && input.Value < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "fixed amount must not be negative")
	}
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "fee not found")
	}
	return err
}
