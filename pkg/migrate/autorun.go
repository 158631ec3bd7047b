package migrate

import (
	"context"
	"fmt"

	"github.com/warungdev/lokapos/pkg/config"
	"github.com/warungdev/lokapos/pkg/db"
	"github.com/warungdev/lokapos/pkg/logger"
)

// MaybeAutoRun applies pending migrations on startup when the feature flag is
// enabled. The terminal owns its store, so unlike a fleet of servers there is
// exactly one upgrade flow per database open.
func MaybeAutoRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	before, err := Version(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	if err := Up(ctx, sqlDB); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	after, err := Version(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	if logg != nil {
		meta := map[string]any{"from": before, "to": after}
		logg.Info(logg.WithFields(ctx, meta), "schema migrations applied")
	}
	return nil
}
