package controllers

import (
	"net/http"

	"github.com/warungdev/lokapos/api/responses"
	"github.com/warungdev/lokapos/internal/syncer"
	"github.com/warungdev/lokapos/pkg/logger"
)

// TriggerSync runs one push then pull cycle right now. A cycle already in
// flight answers SYNC_BUSY instead of queueing a second one.
func TriggerSync(svc *syncer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Sync(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.Status(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, status)
	}
}

// SyncStatus reports connectivity, queue depth and the last sync watermark.
func SyncStatus(svc *syncer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := svc.Status(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, status)
	}
}
