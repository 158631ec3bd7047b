package controllers

import (
	"net/http"

	"github.com/warungdev/lokapos/api/responses"
	"github.com/warungdev/lokapos/api/validators"
	"github.com/warungdev/lokapos/internal/cart"
	checkoutsvc "github.com/warungdev/lokapos/internal/checkout"
	"github.com/warungdev/lokapos/internal/sales"
	"github.com/warungdev/lokapos/pkg/logger"
)

// Checkout commits the register cart as a sale.
func Checkout(svc checkoutsvc.Service, session *cart.Session, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.Checkout(r.Context(), session, payload.CashTendered)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sales.NewTransactionDTO(txn))
	}
}

type checkoutRequest struct {
	CashTendered int64 `json:"cashTendered" validate:"required,gt=0"`
}
