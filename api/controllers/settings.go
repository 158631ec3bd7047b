package controllers

import (
	"net/http"
	"strings"

	"github.com/warungdev/lokapos/api/responses"
	"github.com/warungdev/lokapos/api/validators"
	"github.com/warungdev/lokapos/internal/settings"
	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
	"github.com/warungdev/lokapos/pkg/logger"
)

// GetStoreProfile returns the receipt header block.
func GetStoreProfile(svc *settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := svc.StoreProfile(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

// SetStoreProfile replaces the receipt header block.
func SetStoreProfile(svc *settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload storeProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile := settings.StoreProfile{
			Name:          strings.TrimSpace(payload.Name),
			Address:       strings.TrimSpace(payload.Address),
			Phone:         strings.TrimSpace(payload.Phone),
			ReceiptFooter: payload.ReceiptFooter,
		}
		if err := svc.SetStoreProfile(r.Context(), profile); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

// GetLowStockThreshold returns the alerting threshold.
func GetLowStockThreshold(svc *settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threshold, err := svc.LowStockThreshold(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"threshold": threshold})
	}
}

// SetLowStockThreshold changes the alerting threshold.
func SetLowStockThreshold(svc *settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload thresholdRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetLowStockThreshold(r.Context(), payload.Threshold); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"threshold": payload.Threshold})
	}
}

// SetKioskPIN stores a new kiosk unlock PIN. An empty PIN clears it.
func SetKioskPIN(svc *settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload pinRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetKioskPIN(r.Context(), payload.PIN); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// VerifyKioskPIN checks a PIN attempt against the stored hash.
func VerifyKioskPIN(svc *settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload pinRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ok, err := svc.VerifyKioskPIN(r.Context(), payload.PIN)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"valid": ok})
	}
}

// GetSetting reads one opaque key. Unknown keys answer NOT_FOUND.
func GetSetting(svc *settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.URL.Query().Get("key"))
		if key == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "key is required"))
			return
		}

		value, found, err := svc.Get(r.Context(), key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !found {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "setting not found"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"key": key, "value": value})
	}
}

// SetSetting writes one opaque key.
func SetSetting(svc *settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload settingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Set(r.Context(), strings.TrimSpace(payload.Key), payload.Value); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"key": payload.Key, "value": payload.Value})
	}
}

type storeProfileRequest struct {
	Name          string `json:"name" validate:"required"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	ReceiptFooter string `json:"receiptFooter"`
}

type thresholdRequest struct {
	Threshold int `json:"threshold" validate:"gte=0"`
}

type pinRequest struct {
	PIN string `json:"pin"`
}

type settingRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value"`
}
