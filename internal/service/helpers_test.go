package service

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/iliyamo/travel-booking/internal/clock"
	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/queue"
	"github.com/iliyamo/travel-booking/internal/repository/boltstore"
)

// testNow is a Wednesday, far from any default holiday.
var testNow = time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *boltstore.Store {
	t.Helper()
	s, err := boltstore.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type engine struct {
	store        *boltstore.Store
	clock        *clock.Manual
	locks        *KeyedLocker
	inventory    *InventoryService
	pricing      *PricingService
	ledger       *Ledger
	reservations *ReservationService
	cancellation *CancellationService
	catalog      *CatalogService
	events       *recordingPublisher
}

func newEngine(t *testing.T, cancelOpts ...CancellationOption) *engine {
	t.Helper()
	log := zaptest.NewLogger(t)
	e := &engine{
		store:  newTestStore(t),
		clock:  clock.NewManual(testNow),
		locks:  NewKeyedLocker(),
		events: &recordingPublisher{},
	}
	e.inventory = NewInventoryService(e.store, e.store, e.locks, WithInventoryLogger(log))
	e.pricing = NewPricingService(e.store, e.store, NewMemoryFreezeStore(e.clock), e.locks, e.clock,
		WithRand(rand.New(rand.NewPCG(1, 2))), WithPricingLogger(log))
	e.ledger = NewLedger(e.store, e.clock)
	e.reservations = NewReservationService(e.inventory, e.pricing, e.ledger, e.events, e.clock, log)
	e.cancellation = NewCancellationService(e.ledger, e.inventory, e.locks, e.events, e.clock,
		append([]CancellationOption{WithCancellationLogger(log)}, cancelOpts...)...)
	e.catalog = NewCatalogService(e.store, log)
	return e
}

func (e *engine) addItem(t *testing.T, kind model.ItemKind, id string, base float64, total int) {
	t.Helper()
	if _, err := e.catalog.Upsert(context.Background(), model.CatalogItem{
		ID: id, Kind: kind, Name: id, BasePrice: base, TotalCount: total,
	}); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
}
