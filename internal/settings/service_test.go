package settings

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
	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
)

func setupSettings(t *testing.T) (*db.Client, *Service) {
	t.Helper()

	cfg := config.DBConfig{DSN: "file:settings_" + uuid.NewString() + "?mode=memory&cache=shared"}
	client, err := db.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().AutoMigrate(&models.Setting{}))

	svc := NewService(NewRepository(client.DB()), config.POSConfig{LowStockThreshold: 5})
	return client, svc
}

func TestSetOverwritesExistingKey(t *testing.T) {
	t.Parallel()

	_, svc := setupSettings(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "receiptPrinter", "thermal-58mm"))
	require.NoError(t, svc.Set(ctx, "receiptPrinter", "thermal-80mm"))

	value, ok, err := svc.Get(ctx, "receiptPrinter")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "thermal-80mm", value)
}

func TestGetMissingKeyReportsAbsence(t *testing.T) {
	t.Parallel()

	_, svc := setupSettings(t)

	value, ok, err := svc.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestLastSyncRoundTrip(t *testing.T) {
	t.Parallel()

	client, svc := setupSettings(t)
	ctx := context.Background()

	initial, err := svc.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, initial.IsZero())

	mark := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return svc.SetLastSync(ctx, tx, mark)
	}))

	stored, err := svc.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, stored.Equal(mark))
}

func TestLowStockThresholdFallsBackToConfig(t *testing.T) {
	t.Parallel()

	_, svc := setupSettings(t)
	ctx := context.Background()

	threshold, err := svc.LowStockThreshold(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, threshold)

	require.NoError(t, svc.SetLowStockThreshold(ctx, 12))
	threshold, err = svc.LowStockThreshold(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, threshold)

	err = svc.SetLowStockThreshold(ctx, -1)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestStoreProfileRoundTrip(t *testing.T) {
	t.Parallel()

	_, svc := setupSettings(t)
	ctx := context.Background()

	profile := StoreProfile{
		Name:          "Warung Bu Sri",
		Address:       "Jl. Melati 3, Yogyakarta",
		Phone:         "0812-3456-7890",
		ReceiptFooter: "Terima kasih!",
	}
	require.NoError(t, svc.SetStoreProfile(ctx, profile))

	loaded, err := svc.StoreProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, profile, loaded)

	err = svc.SetStoreProfile(ctx, StoreProfile{})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestKioskPINVerification(t *testing.T) {
	t.Parallel()

	_, svc := setupSettings(t)
	ctx := context.Background()

	// No PIN configured: the lock is open.
	ok, err := svc.VerifyKioskPIN(ctx, "anything")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.SetKioskPIN(ctx, "2468"))

	ok, err = svc.VerifyKioskPIN(ctx, "2468")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyKioskPIN(ctx, "1357")
	require.NoError(t, err)
	assert.False(t, ok)

	// The stored value is a hash, never the PIN itself.
	raw, found, err := svc.Get(ctx, KeyKioskPINHash)
	require.NoError(t, err)
	require.True(t, found)
	assert.NotContains(t, raw, "2468")

	err = svc.SetKioskPIN(ctx, "12")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	// Clearing the PIN reopens the lock.
	require.NoError(t, svc.SetKioskPIN(ctx, ""))
	ok, err = svc.VerifyKioskPIN(ctx, "whatever")
	require.NoError(t, err)
	assert.True(t, ok)
}
