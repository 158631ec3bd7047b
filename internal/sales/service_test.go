package sales

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/warungdev/lokapos/pkg/config"
	"github.com/warungdev/lokapos/pkg/db"
	"github.com/warungdev/lokapos/pkg/db/models"
	"github.com/warungdev/lokapos/pkg/enums"
	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
)

type recordingQueue struct {
	entries []enqueued
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

func (q *recordingQueue) Kick(ctx context.Context) {}

func setupSales(t *testing.T) (*db.Client, *recordingQueue, Service) {
	t.Helper()

	cfg := config.DBConfig{DSN: "file:sales_" + uuid.NewString() + "?mode=memory&cache=shared"}
	client, err := db.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().AutoMigrate(
		&models.Product{}, &models.Transaction{}, &models.TransactionItem{}, &models.TransactionFee{},
	))

	queue := &recordingQueue{}
	svc, err := NewService(NewRepository(client.DB()), client, queue)
	require.NoError(t, err)
	return client, queue, svc
}

func seedSale(t *testing.T, client *db.Client, occurredAt time.Time, productID uint, qty int) *models.Transaction {
	t.Helper()
	txn := &models.Transaction{
		OccurredAt:   occurredAt,
		Subtotal:     int64(qty) * 5000,
		Total:        int64(qty) * 5000,
		CashTendered: int64(qty) * 5000,
		Items: []models.TransactionItem{{
			ProductID:      productID,
			Name:           "Sabun Mandi",
			UnitPrice:      5000,
			EffectivePrice: 5000,
			CostPrice:      3500,
			Quantity:       qty,
		}},
	}
	require.NoError(t, client.DB().Create(txn).Error)
	return txn
}

func TestGetLoadsSnapshots(t *testing.T) {
	t.Parallel()

	client, _, svc := setupSales(t)
	ctx := context.Background()

	seeded := seedSale(t, client, time.Now().UTC(), 1, 2)

	loaded, err := svc.Get(ctx, seeded.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "Sabun Mandi", loaded.Items[0].Name)

	_, err = svc.Get(ctx, 9999)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestListBoundsAndOrder(t *testing.T) {
	t.Parallel()

	client, _, svc := setupSales(t)
	ctx := context.Background()

	base := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	seedSale(t, client, base, 1, 1)
	seedSale(t, client, base.Add(2*time.Hour), 1, 1)
	seedSale(t, client, base.Add(26*time.Hour), 1, 1)

	all, err := svc.List(ctx, ListInput{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].OccurredAt.After(all[2].OccurredAt))

	dayEnd := base.Add(24 * time.Hour)
	day, err := svc.List(ctx, ListInput{From: &base, To: &dayEnd})
	require.NoError(t, err)
	assert.Len(t, day, 2)

	limited, err := svc.List(ctx, ListInput{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDeleteRestoresStock(t *testing.T) {
	t.Parallel()

	client, queue, svc := setupSales(t)
	ctx := context.Background()

	product := models.Product{Name: "Sabun Mandi", SellPrice: 5000, Stock: 8}
	require.NoError(t, client.DB().Create(&product).Error)

	txn := seedSale(t, client, time.Now().UTC(), product.ID, 3)

	require.NoError(t, svc.Delete(ctx, txn.ID))

	var reloaded models.Product
	require.NoError(t, client.DB().First(&reloaded, product.ID).Error)
	assert.Equal(t, 11, reloaded.Stock)

	_, err := svc.Get(ctx, txn.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	// Item snapshots go with the sale.
	var orphans int64
	require.NoError(t, client.DB().Model(&models.TransactionItem{}).Count(&orphans).Error)
	assert.Zero(t, orphans)

	require.Len(t, queue.entries, 2)
	assert.Equal(t, enums.SyncEntityProduct, queue.entries[0].Entity)
	assert.Equal(t, enums.SyncOpUpdate, queue.entries[0].Op)
	assert.Equal(t, product.ID, queue.entries[0].LocalID)
	assert.Equal(t, enums.SyncEntityTransaction, queue.entries[1].Entity)
	assert.Equal(t, enums.SyncOpDelete, queue.entries[1].Op)
}

func TestDeleteSkipsVanishedProducts(t *testing.T) {
	t.Parallel()

	client, _, svc := setupSales(t)
	ctx := context.Background()

	// The sold product is long gone; voiding the sale still succeeds.
	txn := seedSale(t, client, time.Now().UTC(), 424242, 1)
	require.NoError(t, svc.Delete(ctx, txn.ID))

	err := svc.Delete(ctx, txn.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
