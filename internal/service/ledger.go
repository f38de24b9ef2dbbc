package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/travel-booking/internal/clock"
	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/repository"
)

// NewBooking carries what the ledger records for a reservation that has
// already been priced and whose inventory has already been taken.
type NewBooking struct {
	OwnerID    string
	Kind       model.ItemKind
	ItemID     string
	Units      []string
	Quantity   int
	Price      float64
	TravelDate time.Time
}

// Ledger is the system of record for bookings.
type Ledger struct {
	store repository.BookingStore
	clock clock.Clock
}

func NewLedger(store repository.BookingStore, clk clock.Clock) *Ledger {
	return &Ledger{store: store, clock: clk}
}

// CreateBooking persists a confirmed booking.  The store indexes it under
// its owner in the same write.
func (l *Ledger) CreateBooking(ctx context.Context, in NewBooking) (*model.Booking, error) {
	if in.OwnerID == "" || in.ItemID == "" || !in.Kind.Valid() || in.Quantity <= 0 || in.Price < 0 {
		return nil, repository.ErrInvalidInput
	}
	price := roundMoney(in.Price)
	b := &model.Booking{
		ID:            uuid.NewString(),
		OwnerID:       in.OwnerID,
		Kind:          in.Kind,
		ItemID:        in.ItemID,
		Units:         append([]string(nil), in.Units...),
		BookingDate:   l.clock.Now(),
		TravelDate:    in.TravelDate.UTC(),
		Quantity:      in.Quantity,
		OriginalPrice: price,
		TotalPrice:    price,
		Status:        model.BookingConfirmed,
	}
	if err := l.store.InsertBooking(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// BookingsForOwner lists the owner's bookings, newest first.
func (l *Ledger) BookingsForOwner(ctx context.Context, ownerID string) ([]model.Booking, error) {
	if ownerID == "" {
		return nil, repository.ErrInvalidInput
	}
	return l.store.ListByOwner(ctx, ownerID)
}

// GetBooking returns ErrNotFound for unknown ids.
func (l *Ledger) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, repository.ErrNotFound
	}
	return l.store.GetBooking(ctx, id)
}

// UpdateBooking replaces the stored booking wholesale.  It fails with
// ErrVersionConflict when b was read before another write landed.
func (l *Ledger) UpdateBooking(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	out := *b
	out.Units = append([]string(nil), b.Units...)
	if err := l.store.UpdateBooking(ctx, &out, b.Version); err != nil {
		return nil, err
	}
	return &out, nil
}
