package fees

import (
	"context"
	"testing"

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
	entries int
	lastOp  enums.SyncOp
}

func (q *recordingQueue) Enqueue(ctx context.Context, tx *gorm.DB, entity enums.SyncEntity, op enums.SyncOp, localID uint, payload any) error {
	q.entries++
	q.lastOp = op
	return nil
}

func (q *recordingQueue) Kick(ctx context.Context) {}

func setupFees(t *testing.T) (*recordingQueue, Service) {
	t.Helper()

	cfg := config.DBConfig{DSN: "file:fees_" + uuid.NewString() + "?mode=memory&cache=shared"}
	client, err := db.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().AutoMigrate(&models.Fee{}))

	queue := &recordingQueue{}
	svc, err := NewService(NewRepository(client.DB()), client, queue)
	require.NoError(t, err)
	return queue, svc
}

func TestCreateFeeValidation(t *testing.T) {
	t.Parallel()

	_, svc := setupFees(t)
	ctx := context.Background()

	cases := []Input{
		{Name: "", Type: enums.FeeTypeFixed, Value: 1000},
		{Name: "Aneh", Type: "weird", Value: 1},
		{Name: "PPN", Type: enums.FeeTypePercentage, Value: 120},
		{Name: "Bungkus", Type: enums.FeeTypeFixed, Value: -500},
	}
	for _, input := range cases {
		_, err := svc.Create(ctx, input)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "input %+v", input)
	}
}

func TestDefaultFeesListedSeparately(t *testing.T) {
	t.Parallel()

	queue, svc := setupFees(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Name: "PPN", Type: enums.FeeTypePercentage, Value: 11, IsDefault: true, IsTax: true})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{Name: "Biaya Bungkus", Type: enums.FeeTypeFixed, Value: 1000})
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	defaults, err := svc.ListDefaults(ctx)
	require.NoError(t, err)
	require.Len(t, defaults, 1)
	assert.Equal(t, "PPN", defaults[0].Name)
	assert.True(t, defaults[0].IsTax)

	assert.Equal(t, 2, queue.entries)
}

func TestUpdateAndDeleteFee(t *testing.T) {
	t.Parallel()

	queue, svc := setupFees(t)
	ctx := context.Background()

	fee, err := svc.Create(ctx, Input{Name: "Servis", Type: enums.FeeTypePercentage, Value: 5})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, fee.ID, Input{Name: "Servis", Type: enums.FeeTypePercentage, Value: 7.5})
	require.NoError(t, err)
	assert.InDelta(t, 7.5, updated.Value, 0.0001)
	assert.Equal(t, enums.SyncOpUpdate, queue.lastOp)

	require.NoError(t, svc.Delete(ctx, fee.ID))
	assert.Equal(t, enums.SyncOpDelete, queue.lastOp)

	_, err = svc.Get(ctx, fee.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	err = svc.Delete(ctx, fee.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
