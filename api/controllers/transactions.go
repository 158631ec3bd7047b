package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/warungdev/lokapos/api/responses"
	"github.com/warungdev/lokapos/internal/sales"
	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
	"github.com/warungdev/lokapos/pkg/logger"
)

// ListTransactions returns sale history, newest first. Bounds come from the
// from/to query parameters in RFC 3339; from is inclusive, to exclusive.
func ListTransactions(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := parseListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txns, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sales.NewTransactionDTOs(txns))
	}
}

// GetTransaction returns one sale with its item and fee snapshots.
func GetTransaction(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sales.NewTransactionDTO(txn))
	}
}

// DeleteTransaction voids a sale and restores the stock it consumed.
func DeleteTransaction(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func parseListInput(r *http.Request) (sales.ListInput, error) {
	var input sales.ListInput

	from, err := parseTimeParam(r, "from")
	if err != nil {
		return input, err
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		return input, err
	}
	input.From = from
	input.To = to

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid limit")
		}
		input.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid offset")
		}
		input.Offset = offset
	}

	return input, nil
}

func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name+" timestamp")
	}
	return &t, nil
}
