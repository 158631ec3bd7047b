package controllers

import (
	"net/http"
	"strings"

	"github.com/warungdev/lokapos/api/responses"
	"github.com/warungdev/lokapos/api/validators"
	feesvc "github.com/warungdev/lokapos/internal/fees"
	"github.com/warungdev/lokapos/pkg/enums"
	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
	"github.com/warungdev/lokapos/pkg/logger"
)

// CreateFee defines a new tax or surcharge.
func CreateFee(svc feesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload feeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fee, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, feesvc.NewFeeDTO(fee))
	}
}

// UpdateFee replaces a fee definition.
func UpdateFee(svc feesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload feeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fee, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, feesvc.NewFeeDTO(fee))
	}
}

// DeleteFee removes a fee definition.
func DeleteFee(svc feesvc.Service, logg *logger.Logger) http.HandlerFunc {
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

// ListFees returns every fee definition. With ?defaults=true only the fees
// attached to new carts automatically are returned.
func ListFees(svc feesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			fees []feesvc.FeeDTO
			err  error
		)
		if r.URL.Query().Get("defaults") == "true" {
			list, listErr := svc.ListDefaults(r.Context())
			fees, err = feesvc.NewFeeDTOs(list), listErr
		} else {
			list, listErr := svc.List(r.Context())
			fees, err = feesvc.NewFeeDTOs(list), listErr
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, fees)
	}
}

type feeRequest struct {
	Name      string  `json:"name" validate:"required"`
	Type      string  `json:"type" validate:"required,oneof=percentage fixed"`
	Value     float64 `json:"value" validate:"gte=0"`
	IsDefault bool    `json:"isDefault"`
	IsTax     bool    `json:"isTax"`
}

func (r feeRequest) toInput() (feesvc.Input, error) {
	feeType, err := enums.ParseFeeType(strings.TrimSpace(r.Type))
	if err != nil {
		return feesvc.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fee type")
	}
	return feesvc.Input{
		Name:      strings.TrimSpace(r.Name),
		Type:      feeType,
		Value:     r.Value,
		IsDefault: r.IsDefault,
		IsTax:     r.IsTax,
	}, nil
}
