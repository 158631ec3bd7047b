package models

import (
	"encoding/json"
	"time"

	"github.com/warungdev/lokapos/pkg/enums"
)

// SyncEntry is one pending mutation in the durable outbox. FIFO order is the
// autoincrement primary key. Entries are deleted only after the remote call
// acknowledged that specific entry.
type SyncEntry struct {
	ID           uint             `gorm:"column:id;primaryKey;autoIncrement"`
	Entity       enums.SyncEntity `gorm:"column:entity;not null"`
	Op           enums.SyncOp     `gorm:"column:op;not null"`
	LocalID      uint             `gorm:"column:local_id;not null"`
	Payload      json.RawMessage  `gorm:"column:payload;not null"`
	AttemptCount int              `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string          `gorm:"column:last_error"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
}
