package sales

import (
	"time"

	"github.com/warungdev/lokapos/pkg/db/models"
	"github.com/warungdev/lokapos/pkg/enums"
)

// TransactionDTO is the sale record payload returned to clients.
type TransactionDTO struct {
	ID            uint                 `json:"id"`
	OccurredAt    time.Time            `json:"occurredAt"`
	Subtotal      int64                `json:"subtotal"`
	DiscountTotal int64                `json:"discountTotal"`
	FeeTotal      int64                `json:"feeTotal"`
	Total         int64                `json:"total"`
	CashTendered  int64                `json:"cashTendered"`
	ChangeDue     int64                `json:"changeDue"`
	Items         []TransactionItemDTO `json:"items"`
	Fees          []TransactionFeeDTO  `json:"fees"`
}

// TransactionItemDTO is one snapshotted cart line.
type TransactionItemDTO struct {
	ProductID      uint     `json:"productId"`
	Name           string   `json:"name"`
	UnitPrice      int64    `json:"unitPrice"`
	EffectivePrice int64    `json:"effectivePrice"`
	DiscountPct    *float64 `json:"discountPct,omitempty"`
	Quantity       int      `json:"quantity"`
}

// TransactionFeeDTO is one snapshotted fee with its computed amount.
type TransactionFeeDTO struct {
	FeeID  uint          `json:"feeId"`
	Name   string        `json:"name"`
	Type   enums.FeeType `json:"type"`
	Value  float64       `json:"value"`
	Amount int64         `json:"amount"`
}

// NewTransactionDTO builds a DTO from the persisted sale and its snapshots.
func NewTransactionDTO(txn *models.Transaction) *TransactionDTO {
	if txn == nil {
		return nil
	}
	dto := &TransactionDTO{
		ID:            txn.ID,
		OccurredAt:    txn.OccurredAt,
		Subtotal:      txn.Subtotal,
		DiscountTotal: txn.DiscountTotal,
		FeeTotal:      txn.FeeTotal,
		Total:         txn.Total,
		CashTendered:  txn.CashTendered,
		ChangeDue:     txn.ChangeDue,
		Items:         make([]TransactionItemDTO, 0, len(txn.Items)),
		Fees:          make([]TransactionFeeDTO, 0, len(txn.Fees)),
	}
	for _, item := range txn.Items {
		dto.Items = append(dto.Items, TransactionItemDTO{
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPrice:      item.UnitPrice,
			EffectivePrice: item.EffectivePrice,
			DiscountPct:    item.DiscountPct,
			Quantity:       item.Quantity,
		})
	}
	for _, fee := range txn.Fees {
		dto.Fees = append(dto.Fees, TransactionFeeDTO{
			FeeID:  fee.FeeID,
			Name:   fee.Name,
			Type:   fee.Type,
			Value:  fee.Value,
			Amount: fee.Amount,
		})
	}
	return dto
}

// NewTransactionDTOs maps a listing into DTOs, preserving order.
func NewTransactionDTOs(txns []models.Transaction) []TransactionDTO {
	out := make([]TransactionDTO, 0, len(txns))
	for i := range txns {
		out = append(out, *NewTransactionDTO(&txns[i]))
	}
	return out
}
