package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "LOKAPOS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Sync         SyncConfig
	POS          POSConfig
	Backup       BackupConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LOKAPOS_APP_ENV" default:"dev"`
	Port         string `envconfig:"LOKAPOS_APP_PORT" default:"8743"`
	LogLevel     string `envconfig:"LOKAPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOKAPOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	// DSN takes precedence; otherwise it is derived from Path.
	DSN  string `envconfig:"LOKAPOS_DB_DSN"`
	Path string `envconfig:"LOKAPOS_DB_PATH" default:"lokapos.db"`

	BusyTimeout     time.Duration `envconfig:"LOKAPOS_DB_BUSY_TIMEOUT" default:"5s"`
	MaxOpenConns    int           `envconfig:"LOKAPOS_DB_MAX_OPEN_CONNS" default:"1"`
	MaxIdleConns    int           `envconfig:"LOKAPOS_DB_MAX_IDLE_CONNS" default:"1"`
	ConnMaxLifetime time.Duration `envconfig:"LOKAPOS_DB_CONN_MAX_LIFETIME" default:"0"`
}

type SyncConfig struct {
	BaseURL        string        `envconfig:"LOKAPOS_SYNC_BASE_URL"`
	PollInterval   time.Duration `envconfig:"LOKAPOS_SYNC_POLL_INTERVAL" default:"30s"`
	PingInterval   time.Duration `envconfig:"LOKAPOS_SYNC_PING_INTERVAL" default:"10s"`
	RequestTimeout time.Duration `envconfig:"LOKAPOS_SYNC_REQUEST_TIMEOUT" default:"15s"`
	MaxBackoff     time.Duration `envconfig:"LOKAPOS_SYNC_MAX_BACKOFF" default:"5m"`
}

type POSConfig struct {
	Currency          string `envconfig:"LOKAPOS_POS_CURRENCY" default:"IDR"`
	LowStockThreshold int    `envconfig:"LOKAPOS_POS_LOW_STOCK_THRESHOLD" default:"5"`
}

type BackupConfig struct {
	AutoInterval time.Duration `envconfig:"LOKAPOS_BACKUP_AUTO_INTERVAL" default:"1h"`
	Retention    int           `envconfig:"LOKAPOS_BACKUP_RETENTION" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LOKAPOS_AUTO_MIGRATE" default:"true"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.Path == "" {
		return fmt.Errorf("either LOKAPOS_DB_DSN or LOKAPOS_DB_PATH is required")
	}

	q := url.Values{}
	q.Set("_busy_timeout", strconv.FormatInt(db.BusyTimeout.Milliseconds(), 10))
	q.Set("_foreign_keys", "on")
	q.Set("_journal_mode", "WAL")

	db.DSN = "file:" + db.Path + "?" + q.Encode()
	return nil
}
