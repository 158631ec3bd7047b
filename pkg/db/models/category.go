package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products. Deletion is refused while products reference it.
type Category struct {
	ID        uint       `gorm:"column:id;primaryKey;autoIncrement"`
	RemoteID  *uuid.UUID `gorm:"column:remote_id;type:text;uniqueIndex:ux_categories_remote_id"`
	Name      string     `gorm:"column:name;not null;uniqueIndex:ux_categories_name"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
