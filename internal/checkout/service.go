package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/warungdev/lokapos/internal/cart"
	"github.com/warungdev/lokapos/internal/sales"
	"github.com/warungdev/lokapos/pkg/db"
	"github.com/warungdev/lokapos/pkg/db/models"
	"github.com/warungdev/lokapos/pkg/enums"
	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
	"github.com/warungdev/lokapos/pkg/metrics"
)

// Service commits a cart into an immutable sale.
type Service interface {
	Checkout(ctx context.Context, session *cart.Session, cashTendered int64) (*models.Transaction, error)
}

// mutationQueue is the slice of the outbox the checkout needs.
type mutationQueue interface {
	Enqueue(ctx context.Context, tx *gorm.DB, entity enums.SyncEntity, op enums.SyncOp, localID uint, payload any) error
	Kick(ctx context.Context)
}

type service struct {
	salesRepo *sales.Repository
	dbClient  *db.Client
	queue     mutationQueue
	metrics   *metrics.CheckoutMetrics
	now       func() time.Time
}

// NewService constructs the checkout orchestrator.
func NewService(salesRepo *sales.Repository, dbClient *db.Client, queue mutationQueue, checkoutMetrics *metrics.CheckoutMetrics) (Service, error) {
	if salesRepo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if queue == nil {
		return nil, fmt.Errorf("mutation queue required")
	}
	return &service{
		salesRepo: salesRepo,
		dbClient:  dbClient,
		queue:     queue,
		metrics:   checkoutMetrics,
		now:       time.Now,
	}, nil
}

// Checkout validates payment, decrements stock, records the sale with full
// snapshots, and queues it for sync, all in one transaction. Stock is
// re-read inside the transaction: the cart's view may be stale, and a row
// that meanwhile dropped below the cart quantity aborts the whole commit.
// The sale settles against the snapshot it was taken from, so a line added
// while payment was in flight stays in the cart for the next sale.
func (s *service) Checkout(ctx context.Context, session *cart.Session, cashTendered int64) (*models.Transaction, error) {
	started := s.now()

	snap := session.Snapshot()
	items := snap.Items
	if len(items) == 0 {
		s.metrics.Observe("empty_cart", time.Since(started))
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cannot check out an empty cart")
	}

	totals := snap.Totals
	if cashTendered < totals.Total {
		s.metrics.Observe("insufficient_payment", time.Since(started))
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientPayment, "cash tendered is below the total").
			WithDetails(map[string]any{"total": totals.Total, "tendered": cashTendered})
	}

	var committed *models.Transaction
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		for _, item := range items {
			product, err := decrementStock(ctx, tx, item.Product.ID, item.Qty)
			if err != nil {
				return err
			}
			if err := s.queue.Enqueue(ctx, tx, enums.SyncEntityProduct, enums.SyncOpUpdate, product.ID, product); err != nil {
				return err
			}
		}

		txn := buildTransaction(items, totals, cashTendered, s.now().UTC())
		created, err := s.salesRepo.WithTx(tx).Create(ctx, txn)
		if err != nil {
			return err
		}
		committed = created
		return s.queue.Enqueue(ctx, tx, enums.SyncEntityTransaction, enums.SyncOpCreate, created.ID, created)
	})
	if err != nil {
		s.metrics.Observe("aborted", time.Since(started))
		return nil, err
	}

	session.CompleteSale(ctx, snap)
	s.queue.Kick(ctx)
	s.metrics.Observe("ok", time.Since(started))
	return committed, nil
}

// decrementStock re-reads the live row and takes the sold units. The cart
// already vetted stock, so a shortfall here means another writer raced us
// between adding to the cart and paying. Returns the row as written so the
// caller can queue the update for sync.
func decrementStock(ctx context.Context, tx *gorm.DB, productID uint, qty int) (*models.Product, error) {
	var product models.Product
	err := tx.WithContext(ctx).First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeStockInconsistency, "product disappeared before payment").
			WithDetails(map[string]any{"productId": productID})
	}
	if err != nil {
		return nil, err
	}
	if product.Stock < qty {
		return nil, pkgerrors.New(pkgerrors.CodeStockInconsistency, "stock changed before payment").
			WithDetails(map[string]any{"productId": productID, "stock": product.Stock, "requested": qty})
	}
	product.Stock -= qty
	if err := tx.WithContext(ctx).
		Model(&product).
		Update("stock", product.Stock).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func buildTransaction(items []cart.Item, totals cart.Totals, cashTendered int64, occurredAt time.Time) *models.Transaction {
	txn := &models.Transaction{
		OccurredAt:    occurredAt,
		Subtotal:      totals.Subtotal,
		DiscountTotal: totals.Discount,
		FeeTotal:      totals.FeeTotal,
		Total:         totals.Total,
		CashTendered:  cashTendered,
		ChangeDue:     cashTendered - totals.Total,
	}
	for _, item := range items {
		txn.Items = append(txn.Items, models.TransactionItem{
			ProductID:      item.Product.ID,
			Name:           item.Product.Name,
			UnitPrice:      item.Product.SellPrice,
			EffectivePrice: item.Product.EffectivePrice(),
			CostPrice:      item.Product.CostPrice,
			DiscountPct:    item.Product.DiscountPct,
			Quantity:       item.Qty,
		})
	}
	for _, fee := range totals.Fees {
		txn.Fees = append(txn.Fees, models.TransactionFee{
			FeeID:  fee.FeeID,
			Name:   fee.Name,
			Type:   fee.Type,
			Value:  fee.Value,
			Amount: fee.Amount,
		})
	}
	return txn
}
