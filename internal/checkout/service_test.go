package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/warungdev/lokapos/internal/cart"
	"github.com/warungdev/lokapos/internal/catalog"
	"github.com/warungdev/lokapos/internal/sales"
	"github.com/warungdev/lokapos/pkg/config"
	"github.com/warungdev/lokapos/pkg/db"
	"github.com/warungdev/lokapos/pkg/db/models"
	"github.com/warungdev/lokapos/pkg/enums"
	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
)

type recordingQueue struct {
	entries []enqueued
	kicks   int
}

type enqueued struct {
	Entity  enums.SyncEntity
	Op      enums.SyncOp
	LocalID uint
}

func (q *recordingQueue) Enqueue(ctx context.Context, tx *gorm.DB, entity enums.SyncEntity, op enums.SyncOp, localID uint, payload any) error {
	q.entries = append(q.entries, enqueued{Entity: entity, Op: op, LocalID: localID})
	return nil
}

func (q *recordingQueue) Kick(ctx context.Context) { q.kicks++ }

// gatedQueue holds the first Enqueue open so a test can interleave cashier
// actions with a commit in flight.
type gatedQueue struct {
	recordingQueue
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (q *gatedQueue) Enqueue(ctx context.Context, tx *gorm.DB, entity enums.SyncEntity, op enums.SyncOp, localID uint, payload any) error {
	q.once.Do(func() {
		close(q.started)
		<-q.release
	})
	return q.recordingQueue.Enqueue(ctx, tx, entity, op, localID, payload)
}

// staticLoader serves products from memory so cart reads never touch the
// database mid-commit.
type staticLoader struct {
	products map[uint]models.Product
}

func (l staticLoader) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, ok := l.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &product, nil
}

// dbLoader serves the cart from the same SQLite rows the checkout writes.
type dbLoader struct {
	repo *catalog.Repository
}

func (l dbLoader) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return l.repo.FindProductByID(ctx, id)
}

// staticFees serves a fixed fee set.
type staticFees struct {
	fees []models.Fee
}

func (s staticFees) Get(ctx context.Context, id uint) (*models.Fee, error) {
	for _, fee := range s.fees {
		if fee.ID == id {
			return &fee, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fee not found")
}

func (s staticFees) ListDefaults(ctx context.Context) ([]models.Fee, error) {
	var defaults []models.Fee
	for _, fee := range s.fees {
		if fee.IsDefault {
			defaults = append(defaults, fee)
		}
	}
	return defaults, nil
}

type fixture struct {
	client  *db.Client
	queue   *recordingQueue
	catalog *catalog.Repository
	svc     Service
}

func setupCheckout(t *testing.T, fees ...models.Fee) (*fixture, *cart.Session) {
	t.Helper()

	cfg := config.DBConfig{DSN: "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"}
	client, err := db.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().AutoMigrate(
		&models.Product{}, &models.Transaction{}, &models.TransactionItem{}, &models.TransactionFee{},
	))

	queue := &recordingQueue{}
	svc, err := NewService(sales.NewRepository(client.DB()), client, queue, nil)
	require.NoError(t, err)

	catalogRepo := catalog.NewRepository(client.DB())
	session := cart.NewSession(dbLoader{repo: catalogRepo}, staticFees{fees: fees})
	return &fixture{client: client, queue: queue, catalog: catalogRepo, svc: svc}, session
}

func (f *fixture) seedProduct(t *testing.T, product models.Product) models.Product {
	t.Helper()
	require.NoError(t, f.client.DB().Create(&product).Error)
	return product
}

func TestCheckoutCommitsSaleAtomically(t *testing.T) {
	t.Parallel()

	fx, session := setupCheckout(t, models.Fee{ID: 1, Name: "Servis", Type: enums.FeeTypePercentage, Value: 10, IsDefault: true})
	ctx := context.Background()

	discount := 20.0
	discounted := fx.seedProduct(t, models.Product{Name: "Kaos Polos", SellPrice: 10000, Stock: 5, DiscountPct: &discount})
	plain := fx.seedProduct(t, models.Product{Name: "Topi", SellPrice: 10000, Stock: 5})

	require.NoError(t, session.AddItem(ctx, discounted.ID, 1))
	require.NoError(t, session.AddItem(ctx, plain.ID, 1))

	txn, err := fx.svc.Checkout(ctx, session, 20000)
	require.NoError(t, err)

	assert.EqualValues(t, 18000, txn.Subtotal)
	assert.EqualValues(t, 2000, txn.DiscountTotal)
	assert.EqualValues(t, 1800, txn.FeeTotal)
	assert.EqualValues(t, 19800, txn.Total)
	assert.EqualValues(t, 20000, txn.CashTendered)
	assert.EqualValues(t, 200, txn.ChangeDue)
	require.Len(t, txn.Items, 2)
	assert.EqualValues(t, 8000, txn.Items[0].EffectivePrice)
	require.Len(t, txn.Fees, 1)
	assert.EqualValues(t, 1800, txn.Fees[0].Amount)

	// Stock went down, the cart reset, and the sale is queued for sync.
	reloaded, err := fx.catalog.FindProductByID(ctx, discounted.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, reloaded.Stock)
	assert.True(t, session.IsEmpty())

	require.Len(t, fx.queue.entries, 3)
	assert.Equal(t, enums.SyncEntityProduct, fx.queue.entries[0].Entity)
	assert.Equal(t, enums.SyncOpUpdate, fx.queue.entries[0].Op)
	assert.Equal(t, discounted.ID, fx.queue.entries[0].LocalID)
	assert.Equal(t, enums.SyncEntityProduct, fx.queue.entries[1].Entity)
	assert.Equal(t, enums.SyncOpUpdate, fx.queue.entries[1].Op)
	assert.Equal(t, enums.SyncEntityTransaction, fx.queue.entries[2].Entity)
	assert.Equal(t, enums.SyncOpCreate, fx.queue.entries[2].Op)
	assert.Equal(t, 1, fx.queue.kicks)
}

func TestCheckoutKeepsLinesAddedDuringPayment(t *testing.T) {
	t.Parallel()

	cfg := config.DBConfig{DSN: "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"}
	client, err := db.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().AutoMigrate(
		&models.Product{}, &models.Transaction{}, &models.TransactionItem{}, &models.TransactionFee{},
	))

	queue := &gatedQueue{started: make(chan struct{}), release: make(chan struct{})}
	svc, err := NewService(sales.NewRepository(client.DB()), client, queue, nil)
	require.NoError(t, err)

	sold := models.Product{Name: "Mie Instan", SellPrice: 3000, Stock: 10}
	require.NoError(t, client.DB().Create(&sold).Error)
	racer := models.Product{Name: "Teh Botol", SellPrice: 5000, Stock: 10}
	require.NoError(t, client.DB().Create(&racer).Error)

	loader := staticLoader{products: map[uint]models.Product{sold.ID: sold, racer.ID: racer}}
	session := cart.NewSession(loader, staticFees{})
	ctx := context.Background()
	require.NoError(t, session.AddItem(ctx, sold.ID, 2))

	done := make(chan struct{})
	var txn *models.Transaction
	var checkoutErr error
	go func() {
		defer close(done)
		txn, checkoutErr = svc.Checkout(ctx, session, 10000)
	}()

	// The cashier rings up the next customer's item while the commit is in
	// flight. The settled sale must not swallow it.
	<-queue.started
	require.NoError(t, session.AddItem(ctx, racer.ID, 1))
	close(queue.release)
	<-done

	require.NoError(t, checkoutErr)
	require.Len(t, txn.Items, 1)
	assert.Equal(t, sold.ID, txn.Items[0].ProductID)
	assert.Equal(t, 2, txn.Items[0].Quantity)

	items := session.Items()
	require.Len(t, items, 1)
	assert.Equal(t, racer.ID, items[0].Product.ID)
	assert.Equal(t, 1, items[0].Qty)

	// Only the sold product's stock moved.
	catalogRepo := catalog.NewRepository(client.DB())
	reloaded, err := catalogRepo.FindProductByID(ctx, sold.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, reloaded.Stock)
	reloaded, err = catalogRepo.FindProductByID(ctx, racer.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.Stock)
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	t.Parallel()

	fx, session := setupCheckout(t)
	_, err := fx.svc.Checkout(context.Background(), session, 100000)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeEmptyCart))
}

func TestCheckoutRejectsInsufficientCash(t *testing.T) {
	t.Parallel()

	fx, session := setupCheckout(t)
	ctx := context.Background()

	product := fx.seedProduct(t, models.Product{Name: "Dompet", SellPrice: 50000, Stock: 2})
	require.NoError(t, session.AddItem(ctx, product.ID, 1))

	_, err := fx.svc.Checkout(ctx, session, 49999)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientPayment))

	// Nothing was committed and the cart still holds the item.
	reloaded, err := fx.catalog.FindProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Stock)
	assert.False(t, session.IsEmpty())
}

func TestCheckoutDetectsStaleStock(t *testing.T) {
	t.Parallel()

	fx, session := setupCheckout(t)
	ctx := context.Background()

	product := fx.seedProduct(t, models.Product{Name: "Unit Terakhir", SellPrice: 10000, Stock: 1})
	require.NoError(t, session.AddItem(ctx, product.ID, 1))

	// Another writer takes the last unit while the customer digs for cash.
	require.NoError(t, fx.client.DB().Model(&models.Product{}).Where("id = ?", product.ID).Update("stock", 0).Error)

	_, err := fx.svc.Checkout(ctx, session, 10000)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStockInconsistency))

	var count int64
	require.NoError(t, fx.client.DB().Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.False(t, session.IsEmpty())
	assert.Empty(t, fx.queue.entries)
}

func TestCheckoutRollsBackEveryItemOnFailure(t *testing.T) {
	t.Parallel()

	fx, session := setupCheckout(t)
	ctx := context.Background()

	healthy := fx.seedProduct(t, models.Product{Name: "Masih Ada", SellPrice: 5000, Stock: 10})
	doomed := fx.seedProduct(t, models.Product{Name: "Akan Hilang", SellPrice: 5000, Stock: 10})

	require.NoError(t, session.AddItem(ctx, healthy.ID, 3))
	require.NoError(t, session.AddItem(ctx, doomed.ID, 1))

	// The second product is deleted before payment; the first decrement must
	// roll back with it.
	require.NoError(t, fx.client.DB().Delete(&models.Product{}, doomed.ID).Error)

	_, err := fx.svc.Checkout(ctx, session, 100000)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStockInconsistency))

	reloaded, err := fx.catalog.FindProductByID(ctx, healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.Stock)

	var count int64
	require.NoError(t, fx.client.DB().Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
}
