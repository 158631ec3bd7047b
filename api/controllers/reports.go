package controllers

import (
	"net/http"

	"github.com/warungdev/lokapos/api/responses"
	"github.com/warungdev/lokapos/internal/reports"
	"github.com/warungdev/lokapos/pkg/logger"
)

// SalesReportCSV streams sale history as a CSV download. The from/to query
// parameters bound the window the same way transaction listing does.
func SalesReportCSV(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := parseTimeParam(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := parseTimeParam(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="sales.csv"`)
		if err := svc.WriteSalesCSV(r.Context(), w, from, to); err != nil {
			// Headers may already be out; log instead of rewriting the body.
			logg.Error(r.Context(), "writing sales report", err)
		}
	}
}
