package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/travel-booking/internal/clock"
	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/repository"
)

// FreezeStore keeps price freezes until they expire.  Expired freezes are
// invisible: Get reports ErrNotFound and PutIfAbsent overwrites them.
type FreezeStore interface {
	// PutIfAbsent stores f unless an active freeze exists for the same
	// (kind, item, owner); in that case the existing one is returned with
	// created=false.
	PutIfAbsent(ctx context.Context, f *model.PriceFreeze) (stored *model.PriceFreeze, created bool, err error)
	Get(ctx context.Context, kind model.ItemKind, itemID, ownerID string) (*model.PriceFreeze, error)
}

func freezeKey(kind model.ItemKind, itemID, ownerID string) string {
	return "freeze:" + string(kind) + ":" + itemID + ":" + ownerID
}

// MemoryFreezeStore is a process-local FreezeStore.
type MemoryFreezeStore struct {
	mu      sync.RWMutex
	clock   clock.Clock
	freezes map[string]model.PriceFreeze
}

func NewMemoryFreezeStore(clk clock.Clock) *MemoryFreezeStore {
	return &MemoryFreezeStore{clock: clk, freezes: make(map[string]model.PriceFreeze)}
}

func (m *MemoryFreezeStore) PutIfAbsent(ctx context.Context, f *model.PriceFreeze) (*model.PriceFreeze, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := freezeKey(f.Kind, f.ItemID, f.OwnerID)
	if cur, ok := m.freezes[key]; ok && cur.Active(m.clock.Now()) {
		return &cur, false, nil
	}
	m.freezes[key] = *f
	out := *f
	return &out, true, nil
}

func (m *MemoryFreezeStore) Get(ctx context.Context, kind model.ItemKind, itemID, ownerID string) (*model.PriceFreeze, error) {
	key := freezeKey(kind, itemID, ownerID)
	m.mu.RLock()
	cur, ok := m.freezes[key]
	m.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !cur.Active(m.clock.Now()) {
		m.mu.Lock()
		if again, ok := m.freezes[key]; ok && !again.Active(m.clock.Now()) {
			delete(m.freezes, key)
		}
		m.mu.Unlock()
		return nil, repository.ErrNotFound
	}
	return &cur, nil
}

// RedisFreezeStore shares freezes across instances.  Each freeze is a JSON
// value written with SET NX and a TTL matching its expiry, so Redis drops
// it on its own.
type RedisFreezeStore struct {
	rdb   *redis.Client
	clock clock.Clock
}

func NewRedisFreezeStore(rdb *redis.Client, clk clock.Clock) *RedisFreezeStore {
	return &RedisFreezeStore{rdb: rdb, clock: clk}
}

func (r *RedisFreezeStore) PutIfAbsent(ctx context.Context, f *model.PriceFreeze) (*model.PriceFreeze, bool, error) {
	ttl := f.ExpiresAt.Sub(r.clock.Now())
	if ttl <= 0 {
		return nil, false, repository.ErrInvalidInput
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, false, err
	}
	key := freezeKey(f.Kind, f.ItemID, f.OwnerID)
	_, err = r.rdb.SetArgs(ctx, key, data, redis.SetArgs{Mode: "NX", TTL: ttl}).Result()
	if err == nil {
		out := *f
		return &out, true, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, false, err
	}
	// Lost to an existing freeze.
	cur, err := r.Get(ctx, f.Kind, f.ItemID, f.OwnerID)
	if err != nil {
		return nil, false, err
	}
	return cur, false, nil
}

func (r *RedisFreezeStore) Get(ctx context.Context, kind model.ItemKind, itemID, ownerID string) (*model.PriceFreeze, error) {
	raw, err := r.rdb.Get(ctx, freezeKey(kind, itemID, ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var f model.PriceFreeze
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	if !f.Active(r.clock.Now()) {
		return nil, repository.ErrNotFound
	}
	return &f, nil
}
