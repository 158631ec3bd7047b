package fees

import (
	"time"

	"github.com/warungdev/lokapos/pkg/db/models"
	"github.com/warungdev/lokapos/pkg/enums"
)

// FeeDTO is the fee definition payload returned to clients.
type FeeDTO struct {
	ID        uint          `json:"id"`
	Name      string        `json:"name"`
	Type      enums.FeeType `json:"type"`
	Value     float64       `json:"value"`
	IsDefault bool          `json:"isDefault"`
	IsTax     bool          `json:"isTax"`
	CreatedAt time.Time     `json:"createdAt"`
}

// NewFeeDTO builds a DTO from the persisted model.
func NewFeeDTO(fee *models.Fee) *FeeDTO {
	if fee == nil {
		return nil
	}
	return &FeeDTO{
		ID:        fee.ID,
		Name:      fee.Name,
		Type:      fee.Type,
		Value:     fee.Value,
		IsDefault: fee.IsDefault,
		IsTax:     fee.IsTax,
		CreatedAt: fee.CreatedAt,
	}
}

// NewFeeDTOs maps a listing into DTOs, preserving order.
func NewFeeDTOs(fees []models.Fee) []FeeDTO {
	out := make([]FeeDTO, 0, len(fees))
	for i := range fees {
		out = append(out, *NewFeeDTO(&fees[i]))
	}
	return out
}
