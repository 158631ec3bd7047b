package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a sellable item in the local catalog. RemoteID is assigned by the
// sync backend once the creation has been acknowledged; only the outbox and
// the reconciler may write it.
type Product struct {
	ID          uint       `gorm:"column:id;primaryKey;autoIncrement"`
	RemoteID    *uuid.UUID `gorm:"column:remote_id;type:text;uniqueIndex:ux_products_remote_id"`
	Name        string     `gorm:"column:name;not null"`
	SellPrice   int64      `gorm:"column:sell_price;not null"`
	CostPrice   int64      `gorm:"column:cost_price;not null;default:0"`
	Stock       int        `gorm:"column:stock;not null;default:0"`
	Barcode     *string    `gorm:"column:barcode;uniqueIndex:ux_products_barcode"`
	CategoryID  *uint      `gorm:"column:category_id"`
	DiscountPct *float64   `gorm:"column:discount_pct"`
	ImageRef    *string    `gorm:"column:image_ref"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePrice returns the discounted unit price, rounded down to a whole
// currency unit the way the register displays it.
func (p Product) EffectivePrice() int64 {
	if p.DiscountPct == nil || *p.DiscountPct <= 0 {
		return p.SellPrice
	}
	pct := *p.DiscountPct
	if pct > 100 {
		pct = 100
	}
	return p.SellPrice - int64(float64(p.SellPrice)*pct/100)
}
