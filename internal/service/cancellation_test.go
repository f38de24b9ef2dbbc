package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/repository"
)

func hours(h float64) time.Duration { return time.Duration(h * float64(time.Hour)) }

func TestRefundPercentage_Boundaries(t *testing.T) {
	cases := []struct {
		lead   time.Duration
		reason string
		want   float64
	}{
		{hours(48), "personal", 0.90},
		{hours(47.99), "personal", 0.50},
		{hours(24), "personal", 0.50},
		{hours(23.99), "personal", 0.25},
		{hours(2), "personal", 0.25},
		{hours(1.99), "personal", 0},
		{hours(-5), "personal", 0},
		{hours(1), "medical", 0.80},
		{hours(1), "Emergency", 0.80},
		{hours(30), "medical", 0.80},
		{hours(100), "medical", 0.90},
	}
	for _, tc := range cases {
		if got := RefundPercentage(tc.lead, tc.reason); got != tc.want {
			t.Fatalf("lead=%v reason=%s: expected %v, got %v", tc.lead, tc.reason, tc.want, got)
		}
	}
}

func bookFor(t *testing.T, e *engine, travel time.Time, total float64) *model.Booking {
	t.Helper()
	b, err := e.ledger.CreateBooking(context.Background(), NewBooking{
		OwnerID: "u1", Kind: model.KindFlight, ItemID: "AI101", Quantity: 1, Price: total, TravelDate: travel,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func TestCalculateRefund_IsPure(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	b := bookFor(t, e, testNow.Add(hours(50)), 333.33)

	got, err := e.cancellation.CalculateRefund(ctx, b.ID, "personal")
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if got != 300 {
		t.Fatalf("expected 300.00, got %v", got)
	}
	stored, _ := e.ledger.GetBooking(ctx, b.ID)
	if stored.Status != model.BookingConfirmed || stored.Version != b.Version {
		t.Fatal("calculate must not change the booking")
	}
	if _, err := e.cancellation.CalculateRefund(ctx, "missing", "personal"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelBooking_SingleShot(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	b := bookFor(t, e, testNow.Add(time.Hour), 200)

	out, err := e.cancellation.CancelBooking(ctx, b.ID, "changed plans")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if out.RefundAmount != 0 || out.RefundStatus != model.RefundNotApplicable {
		t.Fatalf("expected no refund under 2h, got %+v", out)
	}
	if out.CancellationDate == nil || !out.CancellationDate.Equal(testNow) || out.CancellationReason != "changed plans" {
		t.Fatalf("cancellation details not recorded: %+v", out)
	}
	if _, err := e.cancellation.CancelBooking(ctx, b.ID, "again"); !errors.Is(err, repository.ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
	if _, err := e.cancellation.CancelBooking(ctx, "missing", "x"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelBooking_Concurrent(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	b := bookFor(t, e, testNow.Add(hours(72)), 100)

	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := e.cancellation.CancelBooking(ctx, b.ID, "personal")
			results <- err
		}()
	}
	ok := 0
	for i := 0; i < 8; i++ {
		err := <-results
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, repository.ErrAlreadyCancelled):
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one successful cancel, got %d", ok)
	}
}

func TestCancelBooking_ReleasesInventoryWhenEnabled(t *testing.T) {
	e := newEngine(t, WithInventoryRelease(true))
	ctx := context.Background()
	e.addItem(t, model.KindHotel, "H1", 150, 5)

	byQty, err := e.reservations.BookHotel(ctx, "u1", "H1", 2, 300)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	byUnit, err := e.reservations.Book(ctx, BookInput{Kind: model.KindHotel, OwnerID: "u1", ItemID: "H1", Units: []string{"305"}, Price: 100})
	if err != nil {
		t.Fatalf("book unit: %v", err)
	}

	if _, err := e.cancellation.CancelBooking(ctx, byQty.ID, "personal"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := e.cancellation.CancelBooking(ctx, byUnit.ID, "personal"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	it, _ := e.store.GetItem(ctx, model.KindHotel, "H1")
	if it.AvailableCount != 5 {
		t.Fatalf("expected 5 rooms back, got %d", it.AvailableCount)
	}
	l, _ := e.store.GetLayout(ctx, model.KindHotel, "H1")
	if !l.FindUnit("305").Available {
		t.Fatal("expected room 305 released")
	}
}

func TestUpdateRefundStatus(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	b := bookFor(t, e, testNow.Add(hours(72)), 100)
	if _, err := e.cancellation.CancelBooking(ctx, b.ID, "personal"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	out, err := e.cancellation.UpdateRefundStatus(ctx, b.ID, "processed")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.RefundStatus != model.RefundProcessed || out.Status != model.BookingCancelled {
		t.Fatalf("unexpected booking: %+v", out)
	}
	if _, err := e.cancellation.UpdateRefundStatus(ctx, b.ID, "refunded-twice"); !errors.Is(err, repository.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := e.cancellation.UpdateRefundStatus(ctx, "missing", "processed"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
