package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/warungdev/lokapos/pkg/enums"
)

// Fee is a tax or surcharge applied to carts. Default fees are attached to
// every new cart automatically.
type Fee struct {
	ID        uint          `gorm:"column:id;primaryKey;autoIncrement"`
	RemoteID  *uuid.UUID    `gorm:"column:remote_id;type:text"`
	Name      string        `gorm:"column:name;not null"`
	Type      enums.FeeType `gorm:"column:type;not null"`
	Value     float64       `gorm:"column:value;not null"`
	IsDefault bool          `gorm:"column:is_default;not null;default:false"`
	IsTax     bool          `gorm:"column:is_tax;not null;default:false"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
}
