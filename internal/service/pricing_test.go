package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/repository"
)

func TestMultiplier(t *testing.T) {
	e := newEngine(t)
	now := testNow // Wednesday 2025-06-11
	cases := []struct {
		name   string
		travel time.Time
		want   float64
	}{
		{"weekday far out", time.Date(2025, 9, 17, 10, 0, 0, 0, time.UTC), 1.0},
		{"weekday within a month", time.Date(2025, 7, 2, 10, 0, 0, 0, time.UTC), 1.10},
		{"weekday within a week", time.Date(2025, 6, 17, 10, 0, 0, 0, time.UTC), 1.20},
		{"saturday within a week", time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC), 1.35},
		{"holiday far out on thursday", time.Date(2025, 12, 25, 10, 0, 0, 0, time.UTC), 1.25},
		{"holiday friday far out", time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC), 1.40},
		{"past date counts as last minute", testNow.Add(-48 * time.Hour), 1.20},
		{"exactly 7 whole days", testNow.Add(7*24*time.Hour + time.Hour), 1.20},
		{"8 whole days", testNow.Add(8 * 24 * time.Hour), 1.10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.pricing.multiplier(now, tc.travel)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("expected %.2f, got %.4f", tc.want, got)
			}
		})
	}
}

func TestReasonForMultiplier(t *testing.T) {
	cases := map[float64]string{
		1.21: ReasonHighDemand,
		1.2:  ReasonWeekend,
		1.11: ReasonWeekend,
		1.1:  ReasonHoliday,
		1.01: ReasonHoliday,
		1.0:  ReasonNormal,
		0.8:  ReasonNormal,
	}
	for m, want := range cases {
		if got := ReasonForMultiplier(m); got != want {
			t.Fatalf("ReasonForMultiplier(%v): expected %q, got %q", m, want, got)
		}
	}
}

func TestComputePrice_WithinDemandBand(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	e.addItem(t, model.KindFlight, "AI101", 400, 10)
	travel := time.Date(2025, 9, 17, 10, 0, 0, 0, time.UTC) // multiplier 1.0 before demand

	for i := 0; i < 20; i++ {
		p, err := e.pricing.ComputePrice(ctx, "AI101", model.KindFlight, travel)
		if err != nil {
			t.Fatalf("compute: %v", err)
		}
		if p < 320 || p > 480 {
			t.Fatalf("price %v outside [320, 480]", p)
		}
		if p != roundMoney(p) {
			t.Fatalf("price %v not rounded to cents", p)
		}
	}
}

func TestComputePrice_FallbackBase(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	travel := time.Date(2025, 9, 17, 10, 0, 0, 0, time.UTC)

	p, err := e.pricing.ComputePrice(ctx, "unknown-hotel", model.KindHotel, travel)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if p < 120 || p > 180 {
		t.Fatalf("hotel fallback 150 should give [120, 180], got %v", p)
	}
	h, _ := e.pricing.History(ctx, "unknown-hotel", model.KindHotel)
	if h.BasePrice != 150 {
		t.Fatalf("expected base 150, got %v", h.BasePrice)
	}
}

func TestComputePrice_Deterministic(t *testing.T) {
	a := newEngine(t)
	b := newEngine(t)
	ctx := context.Background()
	travel := time.Date(2025, 6, 20, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		pa, _ := a.pricing.ComputePrice(ctx, "AI9", model.KindFlight, travel)
		pb, _ := b.pricing.ComputePrice(ctx, "AI9", model.KindFlight, travel)
		if pa != pb {
			t.Fatalf("same seed should give same prices, got %v and %v", pa, pb)
		}
	}
}

func TestComputePrice_HistoryCap(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	travel := time.Date(2025, 9, 17, 10, 0, 0, 0, time.UTC)

	var last float64
	for i := 0; i < 35; i++ {
		p, err := e.pricing.ComputePrice(ctx, "AI101", model.KindFlight, travel)
		if err != nil {
			t.Fatalf("compute %d: %v", i, err)
		}
		last = p
		e.clock.Advance(time.Minute)
	}
	h, err := e.pricing.History(ctx, "AI101", model.KindFlight)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(h.Points) != model.MaxPricePoints {
		t.Fatalf("expected %d points, got %d", model.MaxPricePoints, len(h.Points))
	}
	if want := testNow.Add(5 * time.Minute); !h.Points[0].Timestamp.Equal(want) {
		t.Fatalf("expected oldest point at %v, got %v", want, h.Points[0].Timestamp)
	}
	for i := 1; i < len(h.Points); i++ {
		if !h.Points[i].Timestamp.After(h.Points[i-1].Timestamp) {
			t.Fatalf("points out of order at %d", i)
		}
	}
	if h.CurrentPrice != last || h.Points[len(h.Points)-1].Price != last {
		t.Fatalf("current price %v does not match last computed %v", h.CurrentPrice, last)
	}
}

func TestHistory_EmptyWhenNeverPriced(t *testing.T) {
	e := newEngine(t)
	h, err := e.pricing.History(context.Background(), "nothing", model.KindFlight)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(h.Points) != 0 {
		t.Fatalf("expected empty history, got %d points", len(h.Points))
	}
}

func TestInsights(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	empty, err := e.pricing.Insights(ctx, "AI1", model.KindFlight)
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if empty.Trend != TrendStable || empty.Recommendation != "Good time to book" {
		t.Fatalf("unexpected empty insights: %+v", empty)
	}

	cases := []struct {
		name    string
		current float64
		trend   string
	}{
		{"below average", 80, TrendDecreasing},
		{"above average", 130, TrendIncreasing},
		{"near average", 104, TrendStable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := &model.PriceHistory{ItemID: "AI2", Kind: model.KindFlight, CurrentPrice: tc.current}
			for _, p := range []float64{100, 100, 100, tc.current} {
				h.Append(model.PricePoint{Timestamp: testNow, Price: p})
			}
			if err := e.store.SaveHistory(ctx, h); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := e.pricing.Insights(ctx, "AI2", model.KindFlight)
			if err != nil {
				t.Fatalf("insights: %v", err)
			}
			if got.Trend != tc.trend {
				t.Fatalf("expected %s, got %s (avg %v)", tc.trend, got.Trend, got.AveragePrice)
			}
			if got.Recommendation != trendAdvice[tc.trend] || len(got.History) != 4 {
				t.Fatalf("unexpected insights: %+v", got)
			}
		})
	}
}

func TestFreezePrice(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	f, err := e.pricing.FreezePrice(ctx, "AI101", model.KindFlight, "u1", 0)
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if want := testNow.Add(24 * time.Hour); !f.ExpiresAt.Equal(want) {
		t.Fatalf("expected default 24h freeze until %v, got %v", want, f.ExpiresAt)
	}
	if f.Price <= 0 {
		t.Fatalf("expected a positive frozen price, got %v", f.Price)
	}

	// Price moves, the freeze does not.
	e.clock.Advance(time.Hour)
	if _, err := e.pricing.ComputePrice(ctx, "AI101", model.KindFlight, testNow.Add(72*time.Hour)); err != nil {
		t.Fatalf("compute: %v", err)
	}
	again, err := e.pricing.FreezePrice(ctx, "AI101", model.KindFlight, "u1", 48)
	if err != nil {
		t.Fatalf("refreeze: %v", err)
	}
	if again.Price != f.Price || !again.ExpiresAt.Equal(f.ExpiresAt) {
		t.Fatalf("expected existing freeze back, got %+v", again)
	}

	e.clock.Advance(24 * time.Hour)
	if _, err := e.pricing.ActiveFreeze(ctx, "AI101", model.KindFlight, "u1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected expired freeze to be gone, got %v", err)
	}

	for _, hours := range []int{-1, 73} {
		if _, err := e.pricing.FreezePrice(ctx, "AI101", model.KindFlight, "u1", hours); !errors.Is(err, repository.ErrInvalidInput) {
			t.Fatalf("hours=%d: expected ErrInvalidInput, got %v", hours, err)
		}
	}
}
