package models

import (
	"encoding/json"
	"time"
)

// AutoBackup holds a periodic full snapshot of the local stores.
type AutoBackup struct {
	ID        uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Snapshot  json.RawMessage `gorm:"column:snapshot;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
