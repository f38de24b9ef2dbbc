package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/repository"
)

func TestGetOrCreateLayout_IdempotentShape(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	first, err := e.inventory.GetOrCreateLayout(ctx, model.KindHotel, "H1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := e.inventory.GetOrCreateLayout(ctx, model.KindHotel, "H1")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(first.Groups) != len(second.Groups) {
		t.Fatalf("group count changed: %d vs %d", len(first.Groups), len(second.Groups))
	}
	for i := range first.Groups {
		if first.Groups[i].Tier != second.Groups[i].Tier || len(first.Groups[i].Units) != len(second.Groups[i].Units) {
			t.Fatalf("group %d changed shape", i)
		}
	}
	if second.Version != 1 {
		t.Fatalf("expected stored version 1, got %d", second.Version)
	}
}

func TestGetOrCreateLayout_KindsShareID(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	seat, err := e.inventory.GetOrCreateLayout(ctx, model.KindFlight, "X1")
	if err != nil {
		t.Fatalf("create seat map: %v", err)
	}
	room, err := e.inventory.GetOrCreateLayout(ctx, model.KindHotel, "X1")
	if err != nil {
		t.Fatalf("create room layout: %v", err)
	}
	if seat.Kind != model.KindFlight || room.Kind != model.KindHotel {
		t.Fatalf("expected one layout per kind, got %s and %s", seat.Kind, room.Kind)
	}

	if _, err := e.inventory.ReserveUnits(ctx, model.KindFlight, "X1", []string{"1A"}, "u1"); err != nil {
		t.Fatalf("reserve seat: %v", err)
	}
	if _, err := e.inventory.ReserveUnits(ctx, model.KindHotel, "X1", []string{"101"}, "u2"); err != nil {
		t.Fatalf("reserve room: %v", err)
	}
	again, err := e.inventory.GetOrCreateLayout(ctx, model.KindFlight, "X1")
	if err != nil {
		t.Fatalf("read seat map: %v", err)
	}
	if u := again.FindUnit("1A"); u == nil || u.HolderID != "u1" {
		t.Fatalf("expected 1A held by u1, got %+v", u)
	}
	if again.FindUnit("101") != nil {
		t.Fatal("seat map must not contain hotel rooms")
	}
}

func TestGetOrCreateLayout_ConcurrentCreators(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.inventory.GetOrCreateLayout(ctx, model.KindFlight, "RACE"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent create failed: %v", err)
	}
}

func TestReserveUnits(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	l, err := e.inventory.ReserveUnits(ctx, model.KindFlight, "AI101", []string{"1A", "1B", "1A"}, "u1")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	for _, n := range []string{"1A", "1B"} {
		if u := l.FindUnit(n); u.Available || u.HolderID != "u1" {
			t.Fatalf("seat %s not assigned: %+v", n, u)
		}
	}
	if l.HeldCount() != 2 {
		t.Fatalf("expected 2 held seats, got %d", l.HeldCount())
	}

	_, err = e.inventory.ReserveUnits(ctx, model.KindFlight, "AI101", []string{"1C", "1A"}, "u2")
	var unavailable *repository.UnitUnavailableError
	if !errors.As(err, &unavailable) || !errors.Is(err, repository.ErrUnitUnavailable) {
		t.Fatalf("expected UnitUnavailableError, got %v", err)
	}
	if !slices.Equal(unavailable.Units, []string{"1A"}) {
		t.Fatalf("expected 1A listed, got %v", unavailable.Units)
	}
	if got := err.Error(); got != "unit unavailable: seat 1A" {
		t.Fatalf("unexpected message %q", got)
	}

	_, err = e.inventory.ReserveUnits(ctx, model.KindFlight, "AI101", []string{"1D", "99Z"}, "u2")
	if !errors.Is(err, repository.ErrUnitNotFound) {
		t.Fatalf("expected ErrUnitNotFound, got %v", err)
	}
	if _, err := e.inventory.ReserveUnits(ctx, model.KindHotel, "H1", []string{"998", "999"}, "u2"); err == nil || err.Error() != "unit not found: rooms 998, 999" {
		t.Fatalf("unexpected room error: %v", err)
	}

	stored, _ := e.store.GetLayout(ctx, model.KindFlight, "AI101")
	if !stored.FindUnit("1C").Available || !stored.FindUnit("1D").Available {
		t.Fatal("failed requests must not partially assign seats")
	}
	if stored.HeldCount() != 2 {
		t.Fatalf("expected 2 held seats after failures, got %d", stored.HeldCount())
	}

	if _, err := e.inventory.ReserveUnits(ctx, model.KindFlight, "AI101", nil, "u2"); !errors.Is(err, repository.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty request, got %v", err)
	}
}

func TestReserveUnits_ConcurrentSameSeat(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	const callers = 16

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.inventory.ReserveUnits(ctx, model.KindFlight, "AI300", []string{"7A"}, "u")
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, repository.ErrUnitUnavailable) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestReleaseUnits(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	if _, err := e.inventory.ReserveUnits(ctx, model.KindHotel, "H1", []string{"101"}, "u1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	// Somebody else cannot release u1's room.
	l, err := e.inventory.ReleaseUnits(ctx, model.KindHotel, "H1", []string{"101"}, "u2")
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if l.FindUnit("101").Available {
		t.Fatal("room released by the wrong holder")
	}
	l, err = e.inventory.ReleaseUnits(ctx, model.KindHotel, "H1", []string{"101"}, "u1")
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if u := l.FindUnit("101"); !u.Available || u.HolderID != "" {
		t.Fatalf("room not released: %+v", u)
	}
}

func TestReserveQuantity_NoOversell(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	const capacity, callers = 20, 50
	e.addItem(t, model.KindFlight, "AI500", 300, capacity)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, short := 0, 0
	seen := make(map[int]bool)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			left, err := e.inventory.ReserveQuantity(ctx, model.KindFlight, "AI500", 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				if seen[left] {
					t.Errorf("remaining count %d reported twice", left)
				}
				seen[left] = true
				ok++
			case errors.Is(err, repository.ErrInsufficientInventory):
				short++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if ok != capacity || short != callers-capacity {
		t.Fatalf("expected %d successes and %d failures, got %d and %d", capacity, callers-capacity, ok, short)
	}
	for left := 0; left < capacity; left++ {
		if !seen[left] {
			t.Fatalf("no caller saw %d remaining; each success must report its own count", left)
		}
	}
	it, _ := e.store.GetItem(ctx, model.KindFlight, "AI500")
	if it.AvailableCount != 0 {
		t.Fatalf("expected 0 left, got %d", it.AvailableCount)
	}
}

func TestReserveQuantity_Errors(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	e.addItem(t, model.KindHotel, "H9", 120, 2)

	if _, err := e.inventory.ReserveQuantity(ctx, model.KindHotel, "H9", 0); !errors.Is(err, repository.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := e.inventory.ReserveQuantity(ctx, model.KindHotel, "nope", 1); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := e.inventory.ReserveQuantity(ctx, model.KindHotel, "H9", 3); !errors.Is(err, repository.ErrInsufficientInventory) {
		t.Fatalf("expected ErrInsufficientInventory, got %v", err)
	}
	left, err := e.inventory.ReserveQuantity(ctx, model.KindHotel, "H9", 2)
	if err != nil || left != 0 {
		t.Fatalf("expected 0 left, got %d (%v)", left, err)
	}
	if err := e.inventory.ReleaseQuantity(ctx, model.KindHotel, "H9", 5); err != nil {
		t.Fatalf("release: %v", err)
	}
	it, _ := e.store.GetItem(ctx, model.KindHotel, "H9")
	if it.AvailableCount != 2 {
		t.Fatalf("release must cap at total, got %d", it.AvailableCount)
	}
}

func TestListAvailableByTier_Restartable(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	if _, err := e.inventory.ReserveUnits(ctx, model.KindHotel, "H2", []string{"821", "822"}, "u1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	seq, err := e.inventory.ListAvailableByTier(ctx, model.KindHotel, "H2", model.TierSuite)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	count := func() int {
		n := 0
		for u := range seq {
			if u.Tier != model.TierSuite || !u.Available {
				t.Fatalf("unexpected unit %+v", u)
			}
			n++
		}
		return n
	}
	if a, b := count(), count(); a != 10 || b != 10 {
		t.Fatalf("expected 10 suites on both passes, got %d and %d", a, b)
	}

	// Early exit stops the sequence.
	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Fatalf("expected to stop after 3, got %d", n)
	}
}

func TestUpgradePrice(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	got, err := e.inventory.UpgradePrice(ctx, model.KindFlight, "AI101", []string{"1A", "4B", "20C"})
	if err != nil {
		t.Fatalf("upgrade price: %v", err)
	}
	if got != 250 {
		t.Fatalf("expected 250, got %v", got)
	}
	if _, err := e.inventory.UpgradePrice(ctx, model.KindFlight, "AI101", []string{"77Q"}); !errors.Is(err, repository.ErrUnitNotFound) {
		t.Fatalf("expected ErrUnitNotFound, got %v", err)
	}
}
