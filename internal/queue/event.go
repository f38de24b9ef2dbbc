// Package queue defines the booking events exchanged over the message
// broker, the publishers that emit them (RabbitMQ or Kafka) and the
// background consumer that records them in logs/booking.log.
package queue

import (
	"time"

	"github.com/iliyamo/travel-booking/internal/model"
)

// Event types double as RabbitMQ queue names.
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventRefundUpdated    = "refund.updated"
)

// EventTypes lists every event the engine publishes.
var EventTypes = []string{EventBookingConfirmed, EventBookingCancelled, EventRefundUpdated}

// BookingEvent is published whenever a booking changes state.  It contains
// enough information for downstream consumers (notifications, analytics)
// to act without querying the primary database.
type BookingEvent struct {
	Type         string              `json:"type"`
	BookingID    string              `json:"booking_id"`
	OwnerID      string              `json:"owner_id"`
	Kind         model.ItemKind      `json:"kind"`
	ItemID       string              `json:"item_id"`
	Units        []string            `json:"units,omitempty"`
	Quantity     int                 `json:"quantity"`
	TotalPrice   float64             `json:"total_price"`
	Status       model.BookingStatus `json:"status"`
	RefundAmount float64             `json:"refund_amount,omitempty"`
	RefundStatus model.RefundStatus  `json:"refund_status,omitempty"`
	TravelDate   string              `json:"travel_date"`
	OccurredAt   string              `json:"occurred_at"`
}

// NewBookingEvent snapshots b for the given event type.
func NewBookingEvent(eventType string, b *model.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:         eventType,
		BookingID:    b.ID,
		OwnerID:      b.OwnerID,
		Kind:         b.Kind,
		ItemID:       b.ItemID,
		Units:        append([]string(nil), b.Units...),
		Quantity:     b.Quantity,
		TotalPrice:   b.TotalPrice,
		Status:       b.Status,
		RefundAmount: b.RefundAmount,
		RefundStatus: b.RefundStatus,
		TravelDate:   b.TravelDate.UTC().Format(time.RFC3339),
		OccurredAt:   at.UTC().Format(time.RFC3339),
	}
}
