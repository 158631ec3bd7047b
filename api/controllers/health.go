package controllers

import (
	"net/http"

	"github.com/warungdev/lokapos/api/responses"
	"github.com/warungdev/lokapos/pkg/config"
	"github.com/warungdev/lokapos/pkg/db"
	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
	"github.com/warungdev/lokapos/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LokaPOS-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the local store answers before reporting ready.
func HealthReady(cfg *config.Config, dbP db.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LokaPOS-Env", cfg.App.Env)
		if dbP == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "database unavailable"))
			return
		}
		if err := dbP.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnsupportedEnv, err, "database ping failed"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
