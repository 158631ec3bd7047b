package controllers

import (
	"net/http"
	"strings"

	"github.com/warungdev/lokapos/api/responses"
	"github.com/warungdev/lokapos/api/validators"
	"github.com/warungdev/lokapos/internal/catalog"
	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
	"github.com/warungdev/lokapos/pkg/logger"
)

// CreateProduct handles catalog product creation.
func CreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, catalog.NewProductDTO(product))
	}
}

// UpdateProduct applies a partial mutation; absent fields stay untouched.
func UpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, catalog.NewProductDTO(product))
	}
}

// DeleteProduct removes a product and queues the deletion for sync.
func DeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// GetProduct returns one product by local id.
func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, catalog.NewProductDTO(product))
	}
}

// LookupProductByBarcode resolves a scanned barcode to a product.
func LookupProductByBarcode(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(r.URL.Query().Get("code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required"))
			return
		}

		product, err := svc.GetProductByBarcode(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, catalog.NewProductDTO(product))
	}
}

// ListProducts returns the whole local catalog.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, catalog.NewProductDTOs(products))
	}
}

// ListLowStock returns products at or under the configured threshold.
func ListLowStock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListLowStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, catalog.NewProductDTOs(products))
	}
}

// AdjustStock applies a signed delta to a product's stock count.
func AdjustStock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.AdjustStock(r.Context(), id, payload.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, catalog.NewProductDTO(product))
	}
}

type createProductRequest struct {
	Name        string   `json:"name" validate:"required"`
	SellPrice   int64    `json:"sellPrice" validate:"required,gt=0"`
	CostPrice   int64    `json:"costPrice" validate:"omitempty,gte=0"`
	Stock       int      `json:"stock" validate:"omitempty,gte=0"`
	Barcode     *string  `json:"barcode,omitempty"`
	CategoryID  *uint    `json:"categoryId,omitempty"`
	DiscountPct *float64 `json:"discountPct,omitempty" validate:"omitempty,gte=0,lte=100"`
	ImageRef    *string  `json:"imageRef,omitempty"`
}

func (r createProductRequest) toInput() catalog.CreateProductInput {
	return catalog.CreateProductInput{
		Name:        strings.TrimSpace(r.Name),
		SellPrice:   r.SellPrice,
		CostPrice:   r.CostPrice,
		Stock:       r.Stock,
		Barcode:     r.Barcode,
		CategoryID:  r.CategoryID,
		DiscountPct: r.DiscountPct,
		ImageRef:    r.ImageRef,
	}
}

type updateProductRequest struct {
	Name        *string  `json:"name,omitempty"`
	SellPrice   *int64   `json:"sellPrice,omitempty" validate:"omitempty,gt=0"`
	CostPrice   *int64   `json:"costPrice,omitempty" validate:"omitempty,gte=0"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Barcode     *string  `json:"barcode,omitempty"`
	CategoryID  *uint    `json:"categoryId,omitempty"`
	DiscountPct *float64 `json:"discountPct,omitempty" validate:"omitempty,gte=0,lte=100"`
	ImageRef    *string  `json:"imageRef,omitempty"`
}

func (r updateProductRequest) toInput() catalog.UpdateProductInput {
	return catalog.UpdateProductInput{
		Name:        r.Name,
		SellPrice:   r.SellPrice,
		CostPrice:   r.CostPrice,
		Stock:       r.Stock,
		Barcode:     r.Barcode,
		CategoryID:  r.CategoryID,
		DiscountPct: r.DiscountPct,
		ImageRef:    r.ImageRef,
	}
}

type adjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}
