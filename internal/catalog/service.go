package catalog

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

// Service exposes catalog management for the register UI.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uint, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListLowStock(ctx context.Context) ([]models.Product, error)
	AdjustStock(ctx context.Context, id uint, delta int) (*models.Product, error)

	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	RenameCategory(ctx context.Context, id uint, name string) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uint) error
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string
	SellPrice   int64
	CostPrice   int64
	Stock       int
	Barcode     *string
	CategoryID  *uint
	DiscountPct *float64
	ImageRef    *string
}

// UpdateProductInput holds optional mutation values; nil means unchanged.
type UpdateProductInput struct {
	Name        *string
	SellPrice   *int64
	CostPrice   *int64
	Stock       *int
	Barcode     *string
	CategoryID  *uint
	DiscountPct *float64
	ImageRef    *string
}

// mutationQueue is the slice of the outbox the catalog needs.
type mutationQueue interface {
	Enqueue(ctx context.Context, tx *gorm.DB, entity enums.SyncEntity, op enums.SyncOp, localID uint, payload any) error
	Kick(ctx context.Context)
}

// thresholdSource supplies the low-stock threshold from settings.
type thresholdSource interface {
	LowStockThreshold(ctx context.Context) (int, error)
}

type service struct {
	repo       *Repository
	dbClient   *db.Client
	queue      mutationQueue
	thresholds thresholdSource
}

// NewService constructs the catalog service.
func NewService(repo *Repository, dbClient *db.Client, queue mutationQueue, thresholds thresholdSource) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if queue == nil {
		return nil, fmt.Errorf("mutation queue required")
	}
	if thresholds == nil {
		return nil, fmt.Errorf("threshold source required")
	}
	return &service{repo: repo, dbClient: dbClient, queue: queue, thresholds: thresholds}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if err := validateProductFields(input.Name, input.SellPrice, input.CostPrice, input.Stock, input.DiscountPct); err != nil {
		return nil, err
	}

	var created *models.Product
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		if input.CategoryID != nil {
			if _, err := txRepo.FindCategoryByID(ctx, *input.CategoryID); err != nil {
				return mapNotFound(err, "category not found")
			}
		}

		product := &models.Product{
			Name:        input.Name,
			SellPrice:   input.SellPrice,
			CostPrice:   input.CostPrice,
			Stock:       input.Stock,
			Barcode:     normalizeBarcode(input.Barcode),
			CategoryID:  input.CategoryID,
			DiscountPct: input.DiscountPct,
			ImageRef:    input.ImageRef,
		}
		inserted, err := txRepo.CreateProduct(ctx, product)
		if err != nil {
			if db.IsUniqueViolation(err, "products.barcode") {
				return pkgerrors.New(pkgerrors.CodeConstraintViolation, "barcode already in use").
					WithDetails(map[string]any{"barcode": *product.Barcode})
			}
			return err
		}
		created = inserted
		return s.queue.Enqueue(ctx, tx, enums.SyncEntityProduct, enums.SyncOpCreate, inserted.ID, inserted)
	})
	if err != nil {
		return nil, err
	}

	s.queue.Kick(ctx)
	return created, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uint, input UpdateProductInput) (*models.Product, error) {
	var updated *models.Product
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product, err := txRepo.FindProductByID(ctx, id)
		if err != nil {
			return mapNotFound(err, "product not found")
		}

		if input.Name != nil {
			product.Name = *input.Name
		}
		if input.SellPrice != nil {
			product.SellPrice = *input.SellPrice
		}
		if input.CostPrice != nil {
			product.CostPrice = *input.CostPrice
		}
		if input.Stock != nil {
			product.Stock = *input.Stock
		}
		if input.Barcode != nil {
			product.Barcode = normalizeBarcode(input.Barcode)
		}
		if input.CategoryID != nil {
			if *input.CategoryID == 0 {
				product.CategoryID = nil
			} else {
				if _, err := txRepo.FindCategoryByID(ctx, *input.CategoryID); err != nil {
					return mapNotFound(err, "category not found")
				}
				product.CategoryID = input.CategoryID
			}
		}
		if input.DiscountPct != nil {
			product.DiscountPct = input.DiscountPct
		}
		if input.ImageRef != nil {
			product.ImageRef = input.ImageRef
		}

		if err := validateProductFields(product.Name, product.SellPrice, product.CostPrice, product.Stock, product.DiscountPct); err != nil {
			return err
		}

		saved, err := txRepo.SaveProduct(ctx, product)
		if err != nil {
			if db.IsUniqueViolation(err, "products.barcode") {
				return pkgerrors.New(pkgerrors.CodeConstraintViolation, "barcode already in use")
			}
			return err
		}
		updated = saved
		return s.queue.Enqueue(ctx, tx, enums.SyncEntityProduct, enums.SyncOpUpdate, saved.ID, saved)
	})
	if err != nil {
		return nil, err
	}

	s.queue.Kick(ctx)
	return updated, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uint) error {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product, err := txRepo.FindProductByID(ctx, id)
		if err != nil {
			return mapNotFound(err, "product not found")
		}
		if err := txRepo.DeleteProduct(ctx, id); err != nil {
			return err
		}
		// The row is gone by the time the queue drains, so the deletion
		// marker carries the remote identity itself.
		payload := map[string]any{"localId": id, "remoteId": product.RemoteID}
		return s.queue.Enqueue(ctx, tx, enums.SyncEntityProduct, enums.SyncOpDelete, id, payload)
	})
	if err != nil {
		return err
	}

	s.queue.Kick(ctx)
	return nil
}

func (s *service) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "product not found")
	}
	return product, nil
}

func (s *service) GetProductByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	product, err := s.repo.FindProductByBarcode(ctx, barcode)
	if err != nil {
		return nil, mapNotFound(err, "no product with that barcode")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *service) ListLowStock(ctx context.Context) ([]models.Product, error) {
	threshold, err := s.thresholds.LowStockThreshold(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListLowStock(ctx, threshold)
}

// AdjustStock applies a manual correction or restock. The new level is
// re-read inside the transaction so concurrent sales cannot be overwritten.
func (s *service) AdjustStock(ctx context.Context, id uint, delta int) (*models.Product, error) {
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock delta must not be zero")
	}

	var adjusted *models.Product
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product, err := txRepo.FindProductByID(ctx, id)
		if err != nil {
			return mapNotFound(err, "product not found")
		}
		next := product.Stock + delta
		if next < 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "adjustment would make stock negative").
				WithDetails(map[string]any{"stock": product.Stock, "delta": delta})
		}
		product.Stock = next

		saved, err := txRepo.SaveProduct(ctx, product)
		if err != nil {
			return err
		}
		adjusted = saved
		return s.queue.Enqueue(ctx, tx, enums.SyncEntityProduct, enums.SyncOpUpdate, saved.ID, saved)
	})
	if err != nil {
		return nil, err
	}

	s.queue.Kick(ctx)
	return adjusted, nil
}

func (s *service) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}

	var created *models.Category
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		category, err := txRepo.CreateCategory(ctx, &models.Category{Name: name})
		if err != nil {
			if db.IsUniqueViolation(err, "categories.name") {
				return pkgerrors.New(pkgerrors.CodeConstraintViolation, "category name already exists")
			}
			return err
		}
		created = category
		return s.queue.Enqueue(ctx, tx, enums.SyncEntityCategory, enums.SyncOpCreate, category.ID, category)
	})
	if err != nil {
		return nil, err
	}

	s.queue.Kick(ctx)
	return created, nil
}

func (s *service) RenameCategory(ctx context.Context, id uint, name string) (*models.Category, error) {
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}

	var renamed *models.Category
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		category, err := txRepo.FindCategoryByID(ctx, id)
		if err != nil {
			return mapNotFound(err, "category not found")
		}
		category.Name = name

		saved, err := txRepo.SaveCategory(ctx, category)
		if err != nil {
			if db.IsUniqueViolation(err, "categories.name") {
				return pkgerrors.New(pkgerrors.CodeConstraintViolation, "category name already exists")
			}
			return err
		}
		renamed = saved
		return s.queue.Enqueue(ctx, tx, enums.SyncEntityCategory, enums.SyncOpUpdate, saved.ID, saved)
	})
	if err != nil {
		return nil, err
	}

	s.queue.Kick(ctx)
	return renamed, nil
}

// DeleteCategory refuses while products still reference the category; the
// caller reassigns or detaches them first.
func (s *service) DeleteCategory(ctx context.Context, id uint) error {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		category, err := txRepo.FindCategoryByID(ctx, id)
		if err != nil {
			return mapNotFound(err, "category not found")
		}

		inUse, err := txRepo.CountProductsInCategory(ctx, id)
		if err != nil {
			return err
		}
		if inUse > 0 {
			return pkgerrors.New(pkgerrors.CodeCategoryInUse, "category still has products").
				WithDetails(map[string]any{"products": inUse})
		}

		if err := txRepo.DeleteCategory(ctx, id); err != nil {
			return err
		}
		payload := map[string]any{"localId": id, "remoteId": category.RemoteID}
		return s.queue.Enqueue(ctx, tx, enums.SyncEntityCategory, enums.SyncOpDelete, id, payload)
	})
	if err != nil {
		return err
	}

	s.queue.Kick(ctx)
	return nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.ListCategories(ctx)
}

func validateProductFields(name string, sellPrice, costPrice int64, stock int, discountPct *float64) error {
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if sellPrice <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "sell price must be positive")
	}
	if costPrice < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cost price must not be negative")
	}
	if stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}
	if discountPct != nil && (*discountPct < 0 || *discountPct > 100) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount must be between 0 and 100")
	}
	return nil
}

// normalizeBarcode maps the empty string to NULL so absent barcodes never
// trip the unique index.
func normalizeBarcode(barcode *string) *string {
	if barcode == nil || *barcode == "" {
		return nil
	}
	return barcode
}

func mapNotFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return err
}
