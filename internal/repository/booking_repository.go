package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/iliyamo/travel-booking/internal/model"
)

// BookingRepo provides CRUD operations for bookings.  Rows are never
// deleted; cancellation is an update guarded by the version column.  All
// timestamp fields are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, owner_id, kind, item_id, units, booking_date, travel_date, quantity,
original_price, total_price, status, cancellation_reason, cancellation_date, refund_amount, refund_status, version`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var (
		b                    model.Booking
		kind, status, refund string
		units                []byte
		cancelled            sql.NullTime
	)
	err := row.Scan(&b.ID, &b.OwnerID, &kind, &b.ItemID, &units, &b.BookingDate, &b.TravelDate, &b.Quantity,
		&b.OriginalPrice, &b.TotalPrice, &status, &b.CancellationReason, &cancelled, &b.RefundAmount, &refund, &b.Version)
	if err != nil {
		return nil, err
	}
	if len(units) > 0 {
		if err := json.Unmarshal(units, &b.Units); err != nil {
			return nil, err
		}
	}
	b.Kind = model.ItemKind(kind)
	b.Status = model.BookingStatus(status)
	b.RefundStatus = model.RefundStatus(refund)
	if cancelled.Valid {
		t := cancelled.Time
		b.CancellationDate = &t
	}
	return &b, nil
}

func unitsJSON(units []string) ([]byte, error) {
	if units == nil {
		units = []string{}
	}
	return json.Marshal(units)
}

// InsertBooking stores a new booking at version 1.
func (r *BookingRepo) InsertBooking(ctx context.Context, b *model.Booking) error {
	units, err := unitsJSON(b.Units)
	if err != nil {
		return err
	}
	b.Version = 1
	const q = `INSERT INTO bookings (` + bookingColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, q, b.ID, b.OwnerID, string(b.Kind), b.ItemID, units, b.BookingDate, b.TravelDate,
		b.Quantity, b.OriginalPrice, b.TotalPrice, string(b.Status), b.CancellationReason, b.CancellationDate,
		b.RefundAmount, string(b.RefundStatus), b.Version)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// GetBooking fetches a booking by id or returns ErrNotFound.
func (r *BookingRepo) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// ListByOwner returns the owner's bookings ordered newest first.
func (r *BookingRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE owner_id = ? ORDER BY booking_date DESC, id`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// UpdateBooking writes the mutable columns when the stored version still
// equals expectedVersion and bumps it.
func (r *BookingRepo) UpdateBooking(ctx context.Context, b *model.Booking, expectedVersion uint64) error {
	units, err := unitsJSON(b.Units)
	if err != nil {
		return err
	}
	const q = `UPDATE bookings SET units = ?, travel_date = ?, quantity = ?, original_price = ?, total_price = ?,
status = ?, cancellation_reason = ?, cancellation_date = ?, refund_amount = ?, refund_status = ?, version = version + 1
WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, q, units, b.TravelDate, b.Quantity, b.OriginalPrice, b.TotalPrice,
		string(b.Status), b.CancellationReason, b.CancellationDate, b.RefundAmount, string(b.RefundStatus),
		b.ID, expectedVersion)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return existsOr(ctx, r.db, ErrVersionConflict, `SELECT 1 FROM bookings WHERE id = ?`, b.ID)
	}
	b.Version = expectedVersion + 1
	return nil
}
