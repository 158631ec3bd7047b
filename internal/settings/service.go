package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/warungdev/lokapos/pkg/config"
	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
)

// Well-known setting keys. Everything else stored through Set is opaque.
const (
	KeyLastSync          = "lastSync"
	KeyLowStockThreshold = "lowStockThreshold"
	KeyStoreProfile      = "storeProfile"
	KeyKioskPINHash      = "kioskPinHash"
)

// StoreProfile is the receipt header block shown on printed receipts.
type StoreProfile struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	ReceiptFooter string `json:"receiptFooter"`
}

// Service exposes typed accessors over the settings store plus a passthrough
// for opaque keys.
type Service struct {
	repo *Repository
	cfg  config.POSConfig
}

// NewService builds the settings service. cfg supplies fallbacks for keys the
// operator never customized.
func NewService(repo *Repository, cfg config.POSConfig) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// Get returns the raw value for an opaque key.
func (s *Service) Get(ctx context.Context, key string) (string, bool, error) {
	return s.repo.Get(ctx, key)
}

// Set writes a raw value under an opaque key.
func (s *Service) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "setting key is required")
	}
	return s.repo.Set(ctx, key, value)
}

// LastSync returns the watermark of the last successful pull. The zero time
// means the device never completed a sync and the next pull fetches all.
func (s *Service) LastSync(ctx context.Context) (time.Time, error) {
	raw, ok, err := s.repo.Get(ctx, KeyLastSync)
	if err != nil || !ok {
		return time.Time{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing lastSync %q: %w", raw, err)
	}
	return parsed, nil
}

// SetLastSync advances the watermark inside the caller's transaction so it
// commits together with the merged rows.
func (s *Service) SetLastSync(ctx context.Context, tx *gorm.DB, at time.Time) error {
	return s.repo.WithTx(tx).Set(ctx, KeyLastSync, at.UTC().Format(time.RFC3339Nano))
}

// LowStockThreshold returns the configured threshold, falling back to the
// process config when the operator never set one.
func (s *Service) LowStockThreshold(ctx context.Context) (int, error) {
	raw, ok, err := s.repo.Get(ctx, KeyLowStockThreshold)
	if err != nil {
		return 0, err
	}
	if !ok {
		return s.cfg.LowStockThreshold, nil
	}
	threshold, err := strconv.Atoi(raw)
	if err != nil || threshold < 0 {
		return s.cfg.LowStockThreshold, nil
	}
	return threshold, nil
}

// SetLowStockThreshold stores the threshold used by low-stock listings.
func (s *Service) SetLowStockThreshold(ctx context.Context, threshold int) error {
	if threshold < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "threshold must not be negative")
	}
	return s.repo.Set(ctx, KeyLowStockThreshold, strconv.Itoa(threshold))
}

// StoreProfile returns the receipt header, or a zero profile when unset.
func (s *Service) StoreProfile(ctx context.Context) (StoreProfile, error) {
	raw, ok, err := s.repo.Get(ctx, KeyStoreProfile)
	if err != nil || !ok {
		return StoreProfile{}, err
	}
	var profile StoreProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return StoreProfile{}, fmt.Errorf("parsing store profile: %w", err)
	}
	return profile, nil
}

// SetStoreProfile stores the receipt header.
func (s *Service) SetStoreProfile(ctx context.Context, profile StoreProfile) error {
	if profile.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, KeyStoreProfile, string(raw))
}

// SetKioskPIN hashes and stores the PIN that unlocks settings on shared
// kiosk devices. An empty PIN clears the lock.
func (s *Service) SetKioskPIN(ctx context.Context, pin string) error {
	if pin == "" {
		return s.repo.Delete(ctx, KeyKioskPINHash)
	}
	if len(pin) < 4 {
		return pkgerrors.New(pkgerrors.CodeValidation, "PIN must be at least 4 digits")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, KeyKioskPINHash, string(hash))
}

// VerifyKioskPIN checks a PIN attempt. With no PIN configured every attempt
// passes.
func (s *Service) VerifyKioskPIN(ctx context.Context, pin string) (bool, error) {
	hash, ok, err := s.repo.Get(ctx, KeyKioskPINHash)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	return err == nil, nil
}
