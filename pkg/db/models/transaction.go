package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/warungdev/lokapos/pkg/enums"
)

// Transaction is an immutable sale record. Item and fee rows carry copied
// values so history stays stable when the live catalog changes later.
type Transaction struct {
	ID            uint              `gorm:"column:id;primaryKey;autoIncrement"`
	RemoteID      *uuid.UUID        `gorm:"column:remote_id;type:text"`
	OccurredAt    time.Time         `gorm:"column:occurred_at;not null"`
	Subtotal      int64             `gorm:"column:subtotal;not null"`
	DiscountTotal int64             `gorm:"column:discount_total;not null"`
	FeeTotal      int64             `gorm:"column:fee_total;not null"`
	Total         int64             `gorm:"column:total;not null"`
	CashTendered  int64             `gorm:"column:cash_tendered;not null"`
	ChangeDue     int64             `gorm:"column:change_due;not null"`
	Items         []TransactionItem `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
	Fees          []TransactionFee  `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// TransactionItem snapshots one cart line at commit time.
type TransactionItem struct {
	ID             uint     `gorm:"column:id;primaryKey;autoIncrement"`
	TransactionID  uint     `gorm:"column:transaction_id;not null;index"`
	ProductID      uint     `gorm:"column:product_id;not null"`
	Name           string   `gorm:"column:name;not null"`
	UnitPrice      int64    `gorm:"column:unit_price;not null"`
	EffectivePrice int64    `gorm:"column:effective_price;not null"`
	CostPrice      int64    `gorm:"column:cost_price;not null"`
	DiscountPct    *float64 `gorm:"column:discount_pct"`
	Quantity       int      `gorm:"column:quantity;not null"`
}

// TransactionFee snapshots one applied fee with its computed amount.
type TransactionFee struct {
	ID            uint          `gorm:"column:id;primaryKey;autoIncrement"`
	TransactionID uint          `gorm:"column:transaction_id;not null;index"`
	FeeID         uint          `gorm:"column:fee_id;not null"`
	Name          string        `gorm:"column:name;not null"`
	Type          enums.FeeType `gorm:"column:type;not null"`
	Value         float64       `gorm:"column:value;not null"`
	Amount        int64         `gorm:"column:amount;not null"`
}
