package repository

import (
	"context"

	"github.com/iliyamo/travel-booking/internal/model"
)

// LayoutStore persists seat maps and room layouts. Writes are
// compare-and-swap on Layout.Version so that two writers that read the same
// version cannot both succeed.
type LayoutStore interface {
	// GetLayout returns ErrNotFound when no layout exists for the item.
	// Seat maps and room layouts are separate: a flight and a hotel may
	// share an id.
	GetLayout(ctx context.Context, kind model.ItemKind, itemID string) (*model.Layout, error)
	// InsertLayout stores l with version 1 and returns ErrConflict when a
	// layout for (l.Kind, l.ItemID) already exists.
	InsertLayout(ctx context.Context, l *model.Layout) error
	// UpdateLayout stores l only if the stored version equals
	// expectedVersion, bumping l.Version on success. A mismatch returns
	// ErrVersionConflict.
	UpdateLayout(ctx context.Context, l *model.Layout, expectedVersion uint64) error
}

// CatalogStore persists catalog items and their quantity counters.
type CatalogStore interface {
	GetItem(ctx context.Context, kind model.ItemKind, id string) (*model.CatalogItem, error)
	// UpsertItem creates or replaces the item. Replacing keeps the number of
	// units already sold: available = total - (oldTotal - oldAvailable),
	// floored at zero.
	UpsertItem(ctx context.Context, item *model.CatalogItem) error
	ListItems(ctx context.Context, kind model.ItemKind) ([]model.CatalogItem, error)
	// DecrementAvailable atomically subtracts qty if at least qty remain,
	// otherwise returns ErrInsufficientInventory without touching the row.
	DecrementAvailable(ctx context.Context, kind model.ItemKind, id string, qty int) (remaining int, err error)
	// IncrementAvailable atomically adds qty, capped at the total count.
	IncrementAvailable(ctx context.Context, kind model.ItemKind, id string, qty int) error
}

// BookingStore persists bookings. Bookings are never deleted.
type BookingStore interface {
	InsertBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	// ListByOwner returns the owner's bookings, newest BookingDate first.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Booking, error)
	// UpdateBooking is a compare-and-swap on Version, see LayoutStore.
	UpdateBooking(ctx context.Context, b *model.Booking, expectedVersion uint64) error
}

// PriceHistoryStore persists the bounded price log per (item, kind).
type PriceHistoryStore interface {
	GetHistory(ctx context.Context, kind model.ItemKind, itemID string) (*model.PriceHistory, error)
	// SaveHistory replaces the stored history. Callers serialize writes per
	// item, so no version check is done.
	SaveHistory(ctx context.Context, h *model.PriceHistory) error
}

// Store bundles every store the services need; both the MySQL repository
// set and the Bolt store satisfy it.
type Store interface {
	LayoutStore
	CatalogStore
	BookingStore
	PriceHistoryStore
	Close() error
}
