package syncer

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warungdev/lokapos/internal/settings"
	"github.com/warungdev/lokapos/internal/syncer/remote"
	"github.com/warungdev/lokapos/pkg/config"
	"github.com/warungdev/lokapos/pkg/db"
	"github.com/warungdev/lokapos/pkg/db/models"
	"github.com/warungdev/lokapos/pkg/logger"
)

func setupReconciler(t *testing.T) (*db.Client, *remote.Memory, *settings.Service, *Reconciler) {
	t.Helper()

	cfg := config.DBConfig{DSN: "file:reconciler_" + uuid.NewString() + "?mode=memory&cache=shared"}
	client, err := db.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().AutoMigrate(
		&models.Product{}, &models.Category{}, &models.Setting{},
	))

	logg := logger.New(logger.Options{ServiceName: "syncer-test", Output: io.Discard})
	settingsSvc := settings.NewService(settings.NewRepository(client.DB()), config.POSConfig{})
	mock := remote.NewMemory()
	reconciler := NewReconciler(client, mock, settingsSvc, logg)
	return client, mock, settingsSvc, reconciler
}

func TestPullInsertsUnknownRemoteRows(t *testing.T) {
	t.Parallel()

	client, mock, settingsSvc, reconciler := setupReconciler(t)
	ctx := context.Background()

	serverTime := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	mock.SetClock(func() time.Time { return serverTime })

	categoryID := uuid.New()
	productID := uuid.New()
	mock.SeedCategory(remote.CategoryDelta{
		RemoteID:  categoryID,
		Name:      "Minuman",
		UpdatedAt: serverTime.Add(-time.Hour),
	})
	mock.SeedProduct(remote.ProductDelta{
		RemoteID:    productID,
		Name:        "Es Teh Manis",
		SellPrice:   6000,
		CostPrice:   2000,
		Stock:       30,
		CategoryRef: &categoryID,
		UpdatedAt:   serverTime.Add(-time.Hour),
	})

	require.NoError(t, reconciler.Pull(ctx))

	var product models.Product
	require.NoError(t, client.DB().First(&product, "name = ?", "Es Teh Manis").Error)
	require.NotNil(t, product.RemoteID)
	assert.Equal(t, productID, *product.RemoteID)
	require.NotNil(t, product.CategoryID)

	var category models.Category
	require.NoError(t, client.DB().First(&category, *product.CategoryID).Error)
	assert.Equal(t, "Minuman", category.Name)

	lastSync, err := settingsSvc.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, lastSync.Equal(serverTime))
}

func TestPullKeepsNewerLocalRow(t *testing.T) {
	t.Parallel()

	client, mock, _, reconciler := setupReconciler(t)
	ctx := context.Background()

	remoteID := uuid.New()
	localEdit := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	local := models.Product{
		RemoteID:  &remoteID,
		Name:      "Kopi Tubruk",
		SellPrice: 9000,
		Stock:     4,
		UpdatedAt: localEdit,
	}
	require.NoError(t, client.DB().Create(&local).Error)

	// The remote copy is older than the local edit and must not win.
	mock.SeedProduct(remote.ProductDelta{
		RemoteID:  remoteID,
		Name:      "Kopi Tubruk Lama",
		SellPrice: 8000,
		Stock:     10,
		UpdatedAt: localEdit.Add(-time.Minute),
	})

	require.NoError(t, reconciler.Pull(ctx))

	var reloaded models.Product
	require.NoError(t, client.DB().First(&reloaded, local.ID).Error)
	assert.Equal(t, "Kopi Tubruk", reloaded.Name)
	assert.EqualValues(t, 9000, reloaded.SellPrice)
	assert.Equal(t, 4, reloaded.Stock)
}

func TestPullAppliesStrictlyNewerRemoteRow(t *testing.T) {
	t.Parallel()

	client, mock, _, reconciler := setupReconciler(t)
	ctx := context.Background()

	remoteID := uuid.New()
	localEdit := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	local := models.Product{
		RemoteID:  &remoteID,
		Name:      "Gorengan",
		SellPrice: 2000,
		Stock:     50,
		UpdatedAt: localEdit,
	}
	require.NoError(t, client.DB().Create(&local).Error)

	remoteEdit := localEdit.Add(time.Minute)
	mock.SeedProduct(remote.ProductDelta{
		RemoteID:  remoteID,
		Name:      "Gorengan Campur",
		SellPrice: 2500,
		Stock:     45,
		UpdatedAt: remoteEdit,
	})

	require.NoError(t, reconciler.Pull(ctx))

	var reloaded models.Product
	require.NoError(t, client.DB().First(&reloaded, local.ID).Error)
	assert.Equal(t, "Gorengan Campur", reloaded.Name)
	assert.EqualValues(t, 2500, reloaded.SellPrice)
	// The merge must carry the remote timestamp, not now(); otherwise a
	// replayed pull would treat the merged row as a fresh local edit.
	assert.True(t, reloaded.UpdatedAt.Equal(remoteEdit))
}

func TestPullIsIdempotent(t *testing.T) {
	t.Parallel()

	client, mock, _, reconciler := setupReconciler(t)
	ctx := context.Background()

	mock.SeedProduct(remote.ProductDelta{
		RemoteID:  uuid.New(),
		Name:      "Sate Ayam",
		SellPrice: 25000,
		Stock:     12,
		UpdatedAt: time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC),
	})

	require.NoError(t, reconciler.Pull(ctx))
	require.NoError(t, reconciler.Pull(ctx))

	var count int64
	require.NoError(t, client.DB().Model(&models.Product{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPullAppliesDeletionMarkers(t *testing.T) {
	t.Parallel()

	client, mock, _, reconciler := setupReconciler(t)
	ctx := context.Background()

	categoryRemote := uuid.New()
	productRemote := uuid.New()
	category := models.Category{RemoteID: &categoryRemote, Name: "Snacks"}
	require.NoError(t, client.DB().Create(&category).Error)
	keeper := models.Product{Name: "Keripik", SellPrice: 5000, CategoryID: &category.ID}
	require.NoError(t, client.DB().Create(&keeper).Error)
	doomed := models.Product{RemoteID: &productRemote, Name: "Discontinued", SellPrice: 1000}
	require.NoError(t, client.DB().Create(&doomed).Error)

	mock.DeleteProduct(productRemote)
	mock.DeleteCategory(categoryRemote)

	require.NoError(t, reconciler.Pull(ctx))

	var products int64
	require.NoError(t, client.DB().Model(&models.Product{}).Count(&products).Error)
	assert.EqualValues(t, 1, products)

	// The surviving product is detached, not deleted.
	var reloaded models.Product
	require.NoError(t, client.DB().First(&reloaded, keeper.ID).Error)
	assert.Nil(t, reloaded.CategoryID)

	var categories int64
	require.NoError(t, client.DB().Model(&models.Category{}).Count(&categories).Error)
	assert.Zero(t, categories)
}

func TestPullFailureLeavesWatermarkUntouched(t *testing.T) {
	t.Parallel()

	_, mock, settingsSvc, reconciler := setupReconciler(t)
	ctx := context.Background()

	mock.SetOnline(false)
	require.Error(t, reconciler.Pull(ctx))

	lastSync, err := settingsSvc.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, lastSync.IsZero())
}
