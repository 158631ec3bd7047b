package catalog

import (
	"time"

	"github.com/warungdev/lokapos/pkg/db/models"
)

// ProductDTO is the product payload returned to clients.
type ProductDTO struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	SellPrice      int64     `json:"sellPrice"`
	CostPrice      int64     `json:"costPrice"`
	EffectivePrice int64     `json:"effectivePrice"`
	Stock          int       `json:"stock"`
	Barcode        *string   `json:"barcode,omitempty"`
	CategoryID     *uint     `json:"categoryId,omitempty"`
	DiscountPct    *float64  `json:"discountPct,omitempty"`
	ImageRef       *string   `json:"imageRef,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// CategoryDTO is the category payload returned to clients.
type CategoryDTO struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	return &ProductDTO{
		ID:             product.ID,
		Name:           product.Name,
		SellPrice:      product.SellPrice,
		CostPrice:      product.CostPrice,
		EffectivePrice: product.EffectivePrice(),
		Stock:          product.Stock,
		Barcode:        product.Barcode,
		CategoryID:     product.CategoryID,
		DiscountPct:    product.DiscountPct,
		ImageRef:       product.ImageRef,
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
}

// NewProductDTOs maps a listing into DTOs, preserving order.
func NewProductDTOs(products []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, *NewProductDTO(&products[i]))
	}
	return out
}

// NewCategoryDTO builds a DTO from the persisted model.
func NewCategoryDTO(category *models.Category) *CategoryDTO {
	if category == nil {
		return nil
	}
	return &CategoryDTO{
		ID:        category.ID,
		Name:      category.Name,
		CreatedAt: category.CreatedAt,
		UpdatedAt: category.UpdatedAt,
	}
}

// NewCategoryDTOs maps a listing into DTOs, preserving order.
func NewCategoryDTOs(categories []models.Category) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(categories))
	for i := range categories {
		out = append(out, *NewCategoryDTO(&categories[i]))
	}
	return out
}
