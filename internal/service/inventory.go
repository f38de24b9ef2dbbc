package service

import (
	"context"
	"errors"
	"iter"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/repository"
	"github.com/iliyamo/travel-booking/internal/tracing"
)

// maxCASAttempts bounds how often a compare-and-swap write is retried after
// losing a race before the conflict is surfaced to the caller.
const maxCASAttempts = 3

// InventoryService owns seat maps, room layouts and the quantity counters
// of catalog items.  Unit reservations are serialized per item by the keyed
// lock and persisted with a version check; quantity reservations rely on
// the store's conditional decrement.
type InventoryService struct {
	layouts repository.LayoutStore
	catalog repository.CatalogStore
	locks   *KeyedLocker
	log     *zap.Logger
	seed    SeedMode
}

type InventoryOption func(*InventoryService)

// WithSeedMode selects how the availability of new layouts is initialised.
func WithSeedMode(m SeedMode) InventoryOption {
	return func(s *InventoryService) { s.seed = m }
}

// WithInventoryLogger sets the logger; the default discards output.
func WithInventoryLogger(l *zap.Logger) InventoryOption {
	return func(s *InventoryService) {
		if l != nil {
			s.log = l
		}
	}
}

// NewInventoryService wires the inventory map to its stores.
func NewInventoryService(layouts repository.LayoutStore, catalog repository.CatalogStore, locks *KeyedLocker, opts ...InventoryOption) *InventoryService {
	s := &InventoryService{
		layouts: layouts,
		catalog: catalog,
		locks:   locks,
		log:     zap.NewNop(),
		seed:    SeedOpen,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func layoutLockKey(kind model.ItemKind, itemID string) string {
	return "layout:" + string(kind) + ":" + itemID
}

// GetOrCreateLayout returns the stored layout of the item, generating and
// persisting it from the kind's template on first access.  If another
// caller creates it concurrently the stored copy wins.
func (s *InventoryService) GetOrCreateLayout(ctx context.Context, kind model.ItemKind, itemID string) (*model.Layout, error) {
	v, ok := variantOf(kind)
	if !ok || itemID == "" {
		return nil, repository.ErrInvalidInput
	}
	l, err := s.layouts.GetLayout(ctx, kind, itemID)
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	fresh := v.build(itemID, newSeeder(s.seed, itemID))
	switch err := s.layouts.InsertLayout(ctx, fresh); {
	case err == nil:
		s.log.Info("layout generated",
			zap.String("item_id", itemID),
			zap.String("kind", kind.String()),
			zap.Int("capacity", fresh.Capacity()),
			zap.Int("pre_assigned", fresh.HeldCount()),
		)
		return fresh, nil
	case errors.Is(err, repository.ErrConflict):
		return s.layouts.GetLayout(ctx, kind, itemID)
	default:
		return nil, err
	}
}

// ReserveUnits assigns every requested unit to holderID or none of them.
// Duplicate numbers are collapsed.  Unknown numbers fail with
// *UnitNotFoundError and held ones with *UnitUnavailableError; both leave
// the layout untouched.
func (s *InventoryService) ReserveUnits(ctx context.Context, kind model.ItemKind, itemID string, numbers []string, holderID string) (*model.Layout, error) {
	ctx, span := tracing.Tracer().Start(ctx, "inventory.ReserveUnits")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", itemID), attribute.Int("units", len(numbers)))

	numbers = dedupe(numbers)
	if len(numbers) == 0 || holderID == "" {
		return nil, repository.ErrInvalidInput
	}
	v, _ := variantOf(kind)
	l, err := s.mutateLayout(ctx, kind, itemID, func(l *model.Layout) error {
		var missing, held []string
		for _, n := range numbers {
			u := l.FindUnit(n)
			switch {
			case u == nil:
				missing = append(missing, n)
			case !u.Available:
				held = append(held, n)
			}
		}
		if len(missing) > 0 {
			return &repository.UnitNotFoundError{Noun: v.unitNoun, Units: missing}
		}
		if len(held) > 0 {
			return &repository.UnitUnavailableError{Noun: v.unitNoun, Units: held}
		}
		for _, n := range numbers {
			l.FindUnit(n).Assign(holderID)
		}
		return nil
	})
	tracing.RecordError(span, err)
	return l, err
}

// ReleaseUnits returns units held by holderID to the pool.  Units held by
// somebody else are left alone, which makes repeated releases harmless.
func (s *InventoryService) ReleaseUnits(ctx context.Context, kind model.ItemKind, itemID string, numbers []string, holderID string) (*model.Layout, error) {
	numbers = dedupe(numbers)
	if len(numbers) == 0 {
		return nil, repository.ErrInvalidInput
	}
	return s.mutateLayout(ctx, kind, itemID, func(l *model.Layout) error {
		for _, n := range numbers {
			if u := l.FindUnit(n); u != nil && !u.Available && u.HolderID == holderID {
				u.Release()
			}
		}
		return nil
	})
}

// mutateLayout runs fn on a fresh copy of the layout while holding the
// item's lock and persists the result with compare-and-swap.  A lost race
// re-reads and re-applies fn, up to maxCASAttempts times.
func (s *InventoryService) mutateLayout(ctx context.Context, kind model.ItemKind, itemID string, fn func(*model.Layout) error) (*model.Layout, error) {
	unlock, err := s.locks.Lock(ctx, layoutLockKey(kind, itemID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	for attempt := 1; ; attempt++ {
		l, err := s.GetOrCreateLayout(ctx, kind, itemID)
		if err != nil {
			return nil, err
		}
		l = l.Clone()
		if err := fn(l); err != nil {
			return nil, err
		}
		err = s.layouts.UpdateLayout(ctx, l, l.Version)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) || attempt >= maxCASAttempts {
			return nil, err
		}
		s.log.Warn("layout version conflict, retrying",
			zap.String("item_id", itemID),
			zap.Int("attempt", attempt),
		)
	}
}

// ReserveQuantity takes count units off the catalog item's counter and
// returns what is left.  Concurrent callers can never drive the counter
// below zero: the store applies the check and the decrement together.
func (s *InventoryService) ReserveQuantity(ctx context.Context, kind model.ItemKind, itemID string, count int) (int, error) {
	ctx, span := tracing.Tracer().Start(ctx, "inventory.ReserveQuantity")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", itemID), attribute.Int("count", count))

	if count <= 0 || itemID == "" {
		return 0, repository.ErrInvalidInput
	}
	remaining, err := s.catalog.DecrementAvailable(ctx, kind, itemID, count)
	if err != nil {
		tracing.RecordError(span, err)
		return 0, err
	}
	return remaining, nil
}

// ReleaseQuantity gives count units back, capped at the item's total.
func (s *InventoryService) ReleaseQuantity(ctx context.Context, kind model.ItemKind, itemID string, count int) error {
	if count <= 0 {
		return repository.ErrInvalidInput
	}
	return s.catalog.IncrementAvailable(ctx, kind, itemID, count)
}

// ListAvailableByTier returns a lazy sequence over the available units of
// one tier.  It iterates a snapshot taken at call time, so it is finite and
// can be ranged over any number of times with the same result.
func (s *InventoryService) ListAvailableByTier(ctx context.Context, kind model.ItemKind, itemID string, tier model.Tier) (iter.Seq[model.Unit], error) {
	l, err := s.GetOrCreateLayout(ctx, kind, itemID)
	if err != nil {
		return nil, err
	}
	snapshot := l.Clone()
	return func(yield func(model.Unit) bool) {
		for _, g := range snapshot.Groups {
			if g.Tier != tier {
				continue
			}
			for _, u := range g.Units {
				if u.Available && !yield(u) {
					return
				}
			}
		}
	}, nil
}

// UpgradePrice sums the extra price of the named units.  Unknown numbers
// fail with *UnitNotFoundError.
func (s *InventoryService) UpgradePrice(ctx context.Context, kind model.ItemKind, itemID string, numbers []string) (float64, error) {
	numbers = dedupe(numbers)
	if len(numbers) == 0 {
		return 0, repository.ErrInvalidInput
	}
	l, err := s.GetOrCreateLayout(ctx, kind, itemID)
	if err != nil {
		return 0, err
	}
	v, _ := variantOf(kind)
	var total float64
	var missing []string
	for _, n := range numbers {
		u := l.FindUnit(n)
		if u == nil {
			missing = append(missing, n)
			continue
		}
		total += u.ExtraPrice
	}
	if len(missing) > 0 {
		return 0, &repository.UnitNotFoundError{Noun: v.unitNoun, Units: missing}
	}
	return roundMoney(total), nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
