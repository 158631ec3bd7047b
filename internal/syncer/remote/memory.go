package remote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warungdev/lokapos/pkg/enums"
	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
)

// Memory is the in-repo mock of the sync backend. It honors the protocol
// contract (idempotent push, delta pull, deletion markers) and adds switches
// for tests and offline development: connectivity toggling, scripted push
// failures, and directly seeded remote state.
type Memory struct {
	mu sync.Mutex

	online   bool
	pushErrs int
	now      func() time.Time

	products   map[uuid.UUID]ProductDelta
	categories map[uuid.UUID]CategoryDelta
	deleted    DeletionMarkers

	created map[string]uuid.UUID
	pushes  []PushRequest
}

// NewMemory builds an online mock backend with an empty dataset.
func NewMemory() *Memory {
	return &Memory{
		online:     true,
		now:        time.Now,
		products:   map[uuid.UUID]ProductDelta{},
		categories: map[uuid.UUID]CategoryDelta{},
		created:    map[string]uuid.UUID{},
	}
}

// SetOnline toggles simulated connectivity.
func (m *Memory) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online = online
}

// Online reports the simulated connectivity state.
func (m *Memory) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// FailNextPushes makes the next n Push calls fail with a network error.
func (m *Memory) FailNextPushes(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushErrs = n
}

// SetClock overrides the server clock, for deterministic pull windows.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// SeedProduct places a product into the remote dataset.
func (m *Memory) SeedProduct(delta ProductDelta) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[delta.RemoteID] = delta
}

// SeedCategory places a category into the remote dataset.
func (m *Memory) SeedCategory(delta CategoryDelta) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[delta.RemoteID] = delta
}

// DeleteProduct records a remote-side product deletion marker.
func (m *Memory) DeleteProduct(remoteID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, remoteID)
	m.deleted.Products = append(m.deleted.Products, remoteID)
}

// DeleteCategory records a remote-side category deletion marker.
func (m *Memory) DeleteCategory(remoteID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.categories, remoteID)
	m.deleted.Categories = append(m.deleted.Categories, remoteID)
}

// Pushes returns a copy of every acknowledged push, in arrival order.
func (m *Memory) Pushes() []PushRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PushRequest, len(m.pushes))
	copy(out, m.pushes)
	return out
}

// Ping implements Client.
func (m *Memory) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.online {
		return pkgerrors.New(pkgerrors.CodeNetwork, "remote unreachable")
	}
	return nil
}

// Push implements Client. Creations are idempotent per (entity, localId):
// re-delivery returns the previously assigned server identity.
func (m *Memory) Push(ctx context.Context, req PushRequest) (*PushResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.online {
		return nil, pkgerrors.New(pkgerrors.CodeNetwork, "remote unreachable")
	}
	if m.pushErrs > 0 {
		m.pushErrs--
		return nil, pkgerrors.New(pkgerrors.CodeNetwork, "push rejected")
	}
	if !req.Entity.IsValid() || !req.Op.IsValid() {
		return nil, fmt.Errorf("malformed push request: %s/%s", req.Entity, req.Op)
	}

	result := &PushResult{LocalID: req.LocalID}
	if req.Op == enums.SyncOpCreate {
		key := string(req.Entity) + "/" + fmt.Sprint(req.LocalID)
		serverID, ok := m.created[key]
		if !ok {
			serverID = uuid.New()
			m.created[key] = serverID
			m.pushes = append(m.pushes, req)
		}
		result.ServerID = &serverID
		return result, nil
	}

	m.pushes = append(m.pushes, req)
	return result, nil
}

// Pull implements Client.
func (m *Memory) Pull(ctx context.Context, since time.Time) (*PullResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.online {
		return nil, pkgerrors.New(pkgerrors.CodeNetwork, "remote unreachable")
	}

	resp := &PullResponse{ServerTime: m.now()}
	for _, delta := range m.products {
		if delta.UpdatedAt.After(since) {
			resp.Products = append(resp.Products, delta)
		}
	}
	for _, delta := range m.categories {
		if delta.UpdatedAt.After(since) {
			resp.Categories = append(resp.Categories, delta)
		}
	}
	resp.Deleted = DeletionMarkers{
		Products:   append([]uuid.UUID{}, m.deleted.Products...),
		Categories: append([]uuid.UUID{}, m.deleted.Categories...),
	}
	return resp, nil
}
