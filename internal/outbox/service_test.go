package outbox

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/warungdev/lokapos/internal/syncer/remote"
	"github.com/warungdev/lokapos/pkg/config"
	"github.com/warungdev/lokapos/pkg/db"
	"github.com/warungdev/lokapos/pkg/db/models"
	"github.com/warungdev/lokapos/pkg/enums"
	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
	"github.com/warungdev/lokapos/pkg/logger"
)

func setupOutbox(t *testing.T) (*db.Client, *remote.Memory, *Service) {
	t.Helper()

	cfg := config.DBConfig{DSN: "file:outbox_" + uuid.NewString() + "?mode=memory&cache=shared"}
	client, err := db.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().AutoMigrate(&models.Product{}, &models.Category{}, &models.SyncEntry{}))

	logg := logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard})
	mock := remote.NewMemory()
	svc := NewService(client, NewRepository(client.DB()), mock, nil, logg, nil)
	return client, mock, svc
}

func TestEnqueueSharesTransactionFate(t *testing.T) {
	t.Parallel()

	client, _, svc := setupOutbox(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		product := &models.Product{Name: "Teh Botol", SellPrice: 5000, Stock: 24}
		if err := tx.Create(product).Error; err != nil {
			return err
		}
		if err := svc.Enqueue(ctx, tx, enums.SyncEntityProduct, enums.SyncOpCreate, product.ID, product); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	var products int64
	require.NoError(t, client.DB().Model(&models.Product{}).Count(&products).Error)
	assert.Zero(t, products)
}

func TestDrainPushesOldestFirstAndAdoptsServerIDs(t *testing.T) {
	t.Parallel()

	client, mock, svc := setupOutbox(t)
	ctx := context.Background()

	var first, second models.Product
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		first = models.Product{Name: "Kopi Susu", SellPrice: 15000, Stock: 10}
		if err := tx.Create(&first).Error; err != nil {
			return err
		}
		if err := svc.Enqueue(ctx, tx, enums.SyncEntityProduct, enums.SyncOpCreate, first.ID, first); err != nil {
			return err
		}
		second = models.Product{Name: "Roti Bakar", SellPrice: 12000, Stock: 8}
		if err := tx.Create(&second).Error; err != nil {
			return err
		}
		return svc.Enqueue(ctx, tx, enums.SyncEntityProduct, enums.SyncOpCreate, second.ID, second)
	}))

	require.NoError(t, svc.Drain(ctx))

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	pushes := mock.Pushes()
	require.Len(t, pushes, 2)
	assert.Equal(t, first.ID, pushes[0].LocalID)
	assert.Equal(t, second.ID, pushes[1].LocalID)

	var reloaded models.Product
	require.NoError(t, client.DB().First(&reloaded, first.ID).Error)
	require.NotNil(t, reloaded.RemoteID)

	var other models.Product
	require.NoError(t, client.DB().First(&other, second.ID).Error)
	require.NotNil(t, other.RemoteID)
	assert.NotEqual(t, *reloaded.RemoteID, *other.RemoteID)
}

func TestDrainHaltsOnFirstFailure(t *testing.T) {
	t.Parallel()

	client, mock, svc := setupOutbox(t)
	ctx := context.Background()

	var products [3]models.Product
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		for i := range products {
			products[i] = models.Product{Name: "Item", SellPrice: 1000, Stock: 1}
			if err := tx.Create(&products[i]).Error; err != nil {
				return err
			}
			if err := svc.Enqueue(ctx, tx, enums.SyncEntityProduct, enums.SyncOpCreate, products[i].ID, products[i]); err != nil {
				return err
			}
		}
		return nil
	}))

	mock.FailNextPushes(1)
	err := svc.Drain(ctx)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNetwork))

	// Nothing was delivered, and the head entry records the failure while
	// keeping its place in line.
	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, pending)

	entries, err := NewRepository(client.DB()).FetchPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 1, entries[0].AttemptCount)
	require.NotNil(t, entries[0].LastError)
	assert.Zero(t, entries[1].AttemptCount)

	// The retry drains everything in the original order.
	require.NoError(t, svc.Drain(ctx))
	pushes := mock.Pushes()
	require.Len(t, pushes, 3)
	assert.Equal(t, products[0].ID, pushes[0].LocalID)
	assert.Equal(t, products[2].ID, pushes[2].LocalID)
}

func TestDrainIsNoOpWhileOffline(t *testing.T) {
	t.Parallel()

	client, _, _ := setupOutbox(t)
	ctx := context.Background()

	logg := logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard})
	svc := NewService(client, NewRepository(client.DB()), remote.NewMemory(), func() bool { return false }, logg, nil)

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		product := &models.Product{Name: "Es Jeruk", SellPrice: 8000, Stock: 5}
		if err := tx.Create(product).Error; err != nil {
			return err
		}
		return svc.Enqueue(ctx, tx, enums.SyncEntityProduct, enums.SyncOpCreate, product.ID, product)
	}))

	// Offline drains succeed without pushing; the entry waits for
	// connectivity.
	require.NoError(t, svc.Drain(ctx))

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)
}

func TestDrainIsSingleFlight(t *testing.T) {
	t.Parallel()

	client, _, _ := setupOutbox(t)
	ctx := context.Background()

	gate := &gatedRemote{release: make(chan struct{}), started: make(chan struct{})}
	logg := logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard})
	svc := NewService(client, NewRepository(client.DB()), gate, nil, logg, nil)

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		product := &models.Product{Name: "Nasi Goreng", SellPrice: 20000, Stock: 3}
		if err := tx.Create(product).Error; err != nil {
			return err
		}
		return svc.Enqueue(ctx, tx, enums.SyncEntityProduct, enums.SyncOpCreate, product.ID, product)
	}))

	done := make(chan error, 1)
	go func() { done <- svc.Drain(ctx) }()

	<-gate.started
	err := svc.Drain(ctx)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeSyncBusy))

	close(gate.release)
	require.NoError(t, <-done)
}

func TestDeleteEntriesCarryRemoteIdentity(t *testing.T) {
	t.Parallel()

	client, mock, svc := setupOutbox(t)
	ctx := context.Background()

	remoteID := uuid.New()
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		payload := map[string]any{"localId": 42, "remoteId": remoteID}
		return svc.Enqueue(ctx, tx, enums.SyncEntityProduct, enums.SyncOpDelete, 42, payload)
	}))

	require.NoError(t, svc.Drain(ctx))

	pushes := mock.Pushes()
	require.Len(t, pushes, 1)
	assert.Equal(t, enums.SyncOpDelete, pushes[0].Op)
	require.NotNil(t, pushes[0].RemoteID)
	assert.Equal(t, remoteID, *pushes[0].RemoteID)
}

// gatedRemote blocks the first push until released, so tests can observe an
// in-flight drain.
type gatedRemote struct {
	release chan struct{}
	started chan struct{}
	once    bool
}

func (g *gatedRemote) Ping(ctx context.Context) error { return nil }

func (g *gatedRemote) Push(ctx context.Context, req remote.PushRequest) (*remote.PushResult, error) {
	if !g.once {
		g.once = true
		close(g.started)
		select {
		case <-g.release:
		case <-time.After(5 * time.Second):
		}
	}
	id := uuid.New()
	return &remote.PushResult{ServerID: &id, LocalID: req.LocalID}, nil
}

func (g *gatedRemote) Pull(ctx context.Context, since time.Time) (*remote.PullResponse, error) {
	return &remote.PullResponse{ServerTime: time.Now()}, nil
}
