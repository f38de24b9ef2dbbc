package model

import "time"

// BookingStatus is the lifecycle state of a booking.  The only transition is
// confirmed -> cancelled.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// RefundStatus is meaningful only once a booking is cancelled.
type RefundStatus string

const (
	RefundNotApplicable RefundStatus = "not-applicable"
	RefundPending       RefundStatus = "pending"
	RefundProcessed     RefundStatus = "processed"
	RefundRejected      RefundStatus = "rejected"
)

// ParseRefundStatus validates a refund status coming from a caller.
func ParseRefundStatus(raw string) (RefundStatus, bool) {
	switch s := RefundStatus(raw); s {
	case RefundNotApplicable, RefundPending, RefundProcessed, RefundRejected:
		return s, true
	}
	return "", false
}

// Booking records an owner's reservation of a flight or hotel.  It
// references the item and any chosen units by value; it never owns
// inventory.  Bookings are never deleted so that the audit trail survives
// cancellation.
//
// Fields:
//  ID                 – booking identifier (uuid).
//  OwnerID            – traveler who made the booking.
//  Kind               – flight or hotel.
//  ItemID             – flight or hotel identifier.
//  Units              – seat/room numbers chosen, empty for quantity bookings.
//  BookingDate        – when the booking was created.
//  TravelDate         – departure or check-in time used by the refund policy.
//  Quantity           – seats or rooms booked.
//  OriginalPrice      – price committed at booking time.
//  TotalPrice         – amount charged; refunds are computed from it.
//  Status             – confirmed or cancelled.
//  CancellationReason – reason supplied on cancel.
//  CancellationDate   – when the booking was cancelled.
//  RefundAmount       – refund computed on cancel.
//  RefundStatus       – pending, processed, rejected or not-applicable.
//  Version            – optimistic concurrency token.
type Booking struct {
	ID                 string        `json:"bookingId"`
	OwnerID            string        `json:"ownerId"`
	Kind               ItemKind      `json:"type"`
	ItemID             string        `json:"itemId"`
	Units              []string      `json:"units,omitempty"`
	BookingDate        time.Time     `json:"bookingDate"`
	TravelDate         time.Time     `json:"travelDate"`
	Quantity           int           `json:"quantity"`
	OriginalPrice      float64       `json:"originalPrice"`
	TotalPrice         float64       `json:"totalPrice"`
	Status             BookingStatus `json:"status"`
	CancellationReason string        `json:"cancellationReason,omitempty"`
	CancellationDate   *time.Time    `json:"cancellationDate,omitempty"`
	RefundAmount       float64       `json:"refundAmount"`
	RefundStatus       RefundStatus  `json:"refundStatus,omitempty"`
	Version            uint64        `json:"version"`
}

// IsCancelled reports whether the booking reached its terminal state.
func (b *Booking) IsCancelled() bool { return b.Status == BookingCancelled }
