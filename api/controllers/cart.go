package controllers

import (
	"net/http"

	"github.com/warungdev/lokapos/api/responses"
	"github.com/warungdev/lokapos/api/validators"
	"github.com/warungdev/lokapos/internal/cart"
	"github.com/warungdev/lokapos/pkg/logger"
)

// cartView is the register cart payload: lines, applied fees and the totals
// breakdown in one response so the UI never recomputes money client side.
type cartView struct {
	Items  []cartItemView `json:"items"`
	Totals cart.Totals    `json:"totals"`
}

type cartItemView struct {
	ProductID      uint   `json:"productId"`
	Name           string `json:"name"`
	UnitPrice      int64  `json:"unitPrice"`
	EffectivePrice int64  `json:"effectivePrice"`
	Quantity       int    `json:"quantity"`
	LineTotal      int64  `json:"lineTotal"`
}

func newCartView(session *cart.Session) cartView {
	items := session.Items()
	view := cartView{
		Items:  make([]cartItemView, 0, len(items)),
		Totals: session.Totals(),
	}
	for _, item := range items {
		effective := item.Product.EffectivePrice()
		view.Items = append(view.Items, cartItemView{
			ProductID:      item.Product.ID,
			Name:           item.Product.Name,
			UnitPrice:      item.Product.SellPrice,
			EffectivePrice: effective,
			Quantity:       item.Qty,
			LineTotal:      effective * int64(item.Qty),
		})
	}
	return view
}

// GetCart returns the current register cart.
func GetCart(session *cart.Session, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, newCartView(session))
	}
}

// AddCartItem puts product units into the cart, checking live stock.
func AddCartItem(session *cart.Session, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := session.AddItem(r.Context(), payload.ProductID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(session))
	}
}

// ChangeCartQuantity adjusts a line by a signed delta. A result at or below
// zero removes the line.
func ChangeCartQuantity(session *cart.Session, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload changeQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := session.ChangeQuantity(r.Context(), id, payload.Delta); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(session))
	}
}

// RemoveCartItem drops a line from the cart.
func RemoveCartItem(session *cart.Session, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session.RemoveItem(id)
		responses.WriteSuccess(w, newCartView(session))
	}
}

// ClearCart empties the cart and resets fees to the current default set.
func ClearCart(session *cart.Session, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := session.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(session))
	}
}

// ApplyCartFee attaches a fee definition to the cart.
func ApplyCartFee(session *cart.Session, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "feeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := session.ApplyFee(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(session))
	}
}

// RemoveCartFee detaches a fee from the cart.
func RemoveCartFee(session *cart.Session, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "feeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session.RemoveFee(id)
		responses.WriteSuccess(w, newCartView(session))
	}
}

// ReconcileCartFees re-reads every applied fee from its definition, dropping
// deleted ones and attaching new defaults. Called after a sync pull.
func ReconcileCartFees(session *cart.Session, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := session.ReconcileFees(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(session))
	}
}

type cartItemRequest struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gt=0"`
}

type changeQuantityRequest struct {
	Delta int `json:"delta" validate:"required"`
}
