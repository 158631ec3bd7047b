package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/warungdev/lokapos/pkg/config"
	"github.com/warungdev/lokapos/pkg/db"
	"github.com/warungdev/lokapos/pkg/db/models"
	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
	"github.com/warungdev/lokapos/pkg/logger"
)

// Snapshot is the portable backup document: every persisted store plus the
// moment it was taken. The sync queue is included so a restored device does
// not silently drop unpushed sales.
type Snapshot struct {
	ExportedAt   time.Time            `json:"exportedAt"`
	Products     []models.Product     `json:"products"`
	Categories   []models.Category    `json:"categories"`
	Fees         []models.Fee         `json:"fees"`
	Transactions []models.Transaction `json:"transactions"`
	Settings     []models.Setting     `json:"settings"`
	SyncEntries  []models.SyncEntry   `json:"syncEntries"`
}

// Service exports and restores full local snapshots.
type Service struct {
	dbClient *db.Client
	logger   *logger.Logger
	cfg      config.BackupConfig
	now      func() time.Time
}

// NewService constructs the backup service.
func NewService(dbClient *db.Client, logg *logger.Logger, cfg config.BackupConfig) (*Service, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 10
	}
	return &Service{dbClient: dbClient, logger: logg, cfg: cfg, now: time.Now}, nil
}

// Export reads every store in one transaction so the snapshot is a single
// consistent point in time.
func (s *Service) Export(ctx context.Context) (*Snapshot, error) {
	snapshot := &Snapshot{ExportedAt: s.now().UTC()}
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Order("id ASC").Find(&snapshot.Products).Error; err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Order("id ASC").Find(&snapshot.Categories).Error; err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Order("id ASC").Find(&snapshot.Fees).Error; err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Preload("Items").Preload("Fees").Order("id ASC").Find(&snapshot.Transactions).Error; err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Order("key ASC").Find(&snapshot.Settings).Error; err != nil {
			return err
		}
		return tx.WithContext(ctx).Order("id ASC").Find(&snapshot.SyncEntries).Error
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Import replaces the entire local state with the snapshot. Destructive: the
// clear and the bulk insert share one transaction, so a bad snapshot leaves
// the current data untouched.
func (s *Service) Import(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "snapshot is required")
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		for _, model := range []any{
			&models.TransactionFee{}, &models.TransactionItem{}, &models.Transaction{},
			&models.SyncEntry{}, &models.Product{}, &models.Category{},
			&models.Fee{}, &models.Setting{},
		} {
			if err := tx.WithContext(ctx).Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}

		if len(snapshot.Categories) > 0 {
			if err := tx.WithContext(ctx).Create(&snapshot.Categories).Error; err != nil {
				return err
			}
		}
		if len(snapshot.Products) > 0 {
			if err := tx.WithContext(ctx).Create(&snapshot.Products).Error; err != nil {
				return err
			}
		}
		if len(snapshot.Fees) > 0 {
			if err := tx.WithContext(ctx).Create(&snapshot.Fees).Error; err != nil {
				return err
			}
		}
		if len(snapshot.Transactions) > 0 {
			if err := tx.WithContext(ctx).Create(&snapshot.Transactions).Error; err != nil {
				return err
			}
		}
		if len(snapshot.Settings) > 0 {
			if err := tx.WithContext(ctx).Create(&snapshot.Settings).Error; err != nil {
				return err
			}
		}
		if len(snapshot.SyncEntries) > 0 {
			if err := tx.WithContext(ctx).Create(&snapshot.SyncEntries).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "snapshot imported")
	return nil
}

// RunAuto stores a snapshot row and prunes the oldest beyond the retention
// count.
func (s *Service) RunAuto(ctx context.Context) error {
	snapshot, err := s.Export(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Create(&models.AutoBackup{Snapshot: raw}).Error; err != nil {
			return err
		}
		return tx.WithContext(ctx).
			Where("id NOT IN (?)", tx.Session(&gorm.Session{NewDB: true}).
				Model(&models.AutoBackup{}).
				Select("id").
				Order("id DESC").
				Limit(s.cfg.Retention)).
			Delete(&models.AutoBackup{}).Error
	})
}

// ListAuto returns stored auto-backups newest first, without payloads.
func (s *Service) ListAuto(ctx context.Context) ([]models.AutoBackup, error) {
	var rows []models.AutoBackup
	err := s.dbClient.DB().WithContext(ctx).
		Select("id", "created_at").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// RunAutoLoop takes a snapshot on the configured interval.
func (s *Service) RunAutoLoop(ctx context.Context) error {
	interval := s.cfg.AutoInterval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunAuto(ctx); err != nil {
				s.logger.Error(ctx, "auto backup failed", err)
			}
		}
	}
}
