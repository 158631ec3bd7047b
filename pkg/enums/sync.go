package enums

import "fmt"

// SyncEntity names the record kinds that flow through the sync queue.
type SyncEntity string

const (
	SyncEntityProduct     SyncEntity = "product"
	SyncEntityCategory    SyncEntity = "category"
	SyncEntityFee         SyncEntity = "fee"
	SyncEntityTransaction SyncEntity = "transaction"
)

var validSyncEntities = []SyncEntity{
	SyncEntityProduct,
	SyncEntityCategory,
	SyncEntityFee,
	SyncEntityTransaction,
}

// IsValid reports whether the value is a syncable entity kind.
func (e SyncEntity) IsValid() bool {
	for _, candidate := range validSyncEntities {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseSyncEntity converts raw input into SyncEntity.
func ParseSyncEntity(value string) (SyncEntity, error) {
	for _, candidate := range validSyncEntities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync entity %q", value)
}

// SyncOp is the mutation kind carried by a queue entry.
type SyncOp string

const (
	SyncOpCreate SyncOp = "create"
	SyncOpUpdate SyncOp = "update"
	SyncOpDelete SyncOp = "delete"
)

var validSyncOps = []SyncOp{
	SyncOpCreate,
	SyncOpUpdate,
	SyncOpDelete,
}

// IsValid reports whether the value is a known sync operation.
func (o SyncOp) IsValid() bool {
	for _, candidate := range validSyncOps {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseSyncOp converts raw input into SyncOp.
func ParseSyncOp(value string) (SyncOp, error) {
	for _, candidate := range validSyncOps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync op %q", value)
}
