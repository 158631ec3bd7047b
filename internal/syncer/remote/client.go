package remote

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/warungdev/lokapos/pkg/enums"
)

// Client is the narrow surface any sync backend must satisfy. The server
// side is mocked in-repo; see Memory for the reference implementation and
// HTTPClient for the wire variant.
type Client interface {
	// Ping reports whether the remote is reachable right now.
	Ping(ctx context.Context) error
	// Push delivers one queued mutation. Repeated delivery of the same
	// mutation must be idempotent on the server side.
	Push(ctx context.Context, req PushRequest) (*PushResult, error)
	// Pull returns every remote change made after since, plus deletion
	// markers and the server clock that becomes the next since value.
	Pull(ctx context.Context, since time.Time) (*PullResponse, error)
}

// PushRequest carries one outbox entry to the remote.
type PushRequest struct {
	Entity   enums.SyncEntity `json:"entity"`
	Op       enums.SyncOp     `json:"op"`
	LocalID  uint             `json:"localId"`
	RemoteID *uuid.UUID       `json:"remoteId,omitempty"`
	Payload  json.RawMessage  `json:"payload"`
}

// PushResult acknowledges one mutation. ServerID is set for creations.
type PushResult struct {
	ServerID *uuid.UUID `json:"serverId,omitempty"`
	LocalID  uint       `json:"localId"`
}

// ProductDelta is a remote product state addressed by remote identity.
type ProductDelta struct {
	RemoteID    uuid.UUID  `json:"remoteId"`
	Name        string     `json:"name"`
	SellPrice   int64      `json:"sellPrice"`
	CostPrice   int64      `json:"costPrice"`
	Stock       int        `json:"stock"`
	Barcode     *string    `json:"barcode,omitempty"`
	CategoryRef *uuid.UUID `json:"categoryRef,omitempty"`
	DiscountPct *float64   `json:"discountPct,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CategoryDelta is a remote category state addressed by remote identity.
type CategoryDelta struct {
	RemoteID  uuid.UUID `json:"remoteId"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DeletionMarkers lists remote identities removed on the server.
type DeletionMarkers struct {
	Products   []uuid.UUID `json:"products"`
	Categories []uuid.UUID `json:"categories"`
}

// PullResponse is the delta window since the requested timestamp.
// Transactions and fees are pushed but never pulled back in this design.
type PullResponse struct {
	ServerTime time.Time       `json:"serverTime"`
	Products   []ProductDelta  `json:"products"`
	Categories []CategoryDelta `json:"categories"`
	Deleted    DeletionMarkers `json:"deleted"`
}
