package controllers

import (
	"net/http"
	"time"

	"github.com/warungdev/lokapos/api/responses"
	"github.com/warungdev/lokapos/api/validators"
	backupsvc "github.com/warungdev/lokapos/internal/backup"
	"github.com/warungdev/lokapos/pkg/logger"
)

// ExportBackup returns a full snapshot of the local stores.
func ExportBackup(svc *backupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := svc.Export(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snapshot)
	}
}

// ImportBackup replaces the local stores with the posted snapshot. The import
// is destructive and all or nothing.
func ImportBackup(svc *backupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var snapshot backupsvc.Snapshot
		if err := validators.DecodeJSONBody(r, &snapshot); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Import(r.Context(), &snapshot); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "imported"})
	}
}

// RunBackup takes an automatic snapshot immediately.
func RunBackup(svc *backupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.RunAuto(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "created"})
	}
}

// ListBackups returns stored automatic snapshots, newest first.
func ListBackups(svc *backupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		backups, err := svc.ListAuto(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]backupListEntry, 0, len(backups))
		for _, b := range backups {
			out = append(out, backupListEntry{ID: b.ID, CreatedAt: b.CreatedAt})
		}
		responses.WriteSuccess(w, out)
	}
}

type backupListEntry struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
