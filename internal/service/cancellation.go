package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking/internal/clock"
	"github.com/iliyamo/travel-booking/internal/metrics"
	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/queue"
	"github.com/iliyamo/travel-booking/internal/repository"
	"github.com/iliyamo/travel-booking/internal/tracing"
)

// refundTiers are checked in order; the first whose lead time is met wins.
var refundTiers = []struct {
	lead time.Duration
	pct  float64
}{
	{48 * time.Hour, 0.90},
	{24 * time.Hour, 0.50},
	{2 * time.Hour, 0.25},
}

// hardshipFloor is the minimum refund for medical or emergency cancellations.
const hardshipFloor = 0.80

// RefundPercentage is the share of the total refunded when cancelling with
// the given lead time.  A negative lead (travel already started) gets the
// bottom tier.
func RefundPercentage(lead time.Duration, reason string) float64 {
	pct := 0.0
	for _, t := range refundTiers {
		if lead >= t.lead {
			pct = t.pct
			break
		}
	}
	switch strings.ToLower(strings.TrimSpace(reason)) {
	case "medical", "emergency":
		pct = max(pct, hardshipFloor)
	}
	return pct
}

// CancellationService moves bookings to cancelled and tracks refunds.
type CancellationService struct {
	ledger    *Ledger
	inventory *InventoryService
	locks     *KeyedLocker
	events    queue.Publisher
	clock     clock.Clock
	log       *zap.Logger

	releaseInventory bool
}

type CancellationOption func(*CancellationService)

// WithInventoryRelease makes CancelBooking give the booking's units or
// quantity back to the pool.  Off by default.
func WithInventoryRelease(on bool) CancellationOption {
	return func(s *CancellationService) { s.releaseInventory = on }
}

// WithCancellationLogger sets the logger; the default discards output.
func WithCancellationLogger(l *zap.Logger) CancellationOption {
	return func(s *CancellationService) {
		if l != nil {
			s.log = l
		}
	}
}

func NewCancellationService(ledger *Ledger, inv *InventoryService, locks *KeyedLocker, events queue.Publisher, clk clock.Clock, opts ...CancellationOption) *CancellationService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	s := &CancellationService{
		ledger:    ledger,
		inventory: inv,
		locks:     locks,
		events:    events,
		clock:     clk,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func bookingLockKey(id string) string { return "booking:" + id }

// CalculateRefund quotes what cancelling now would refund.  It does not
// change the booking.
func (s *CancellationService) CalculateRefund(ctx context.Context, bookingID, reason string) (float64, error) {
	b, err := s.ledger.GetBooking(ctx, bookingID)
	if err != nil {
		return 0, err
	}
	return s.refundFor(b, reason, s.clock.Now()), nil
}

func (s *CancellationService) refundFor(b *model.Booking, reason string, now time.Time) float64 {
	return percentOf(b.TotalPrice, RefundPercentage(b.TravelDate.Sub(now), reason))
}

// CancelBooking cancels a confirmed booking.  A second call for the same
// booking fails with ErrAlreadyCancelled.
func (s *CancellationService) CancelBooking(ctx context.Context, bookingID, reason string) (*model.Booking, error) {
	ctx, span := tracing.Tracer().Start(ctx, "cancellation.CancelBooking")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", bookingID))

	out, err := s.withBooking(ctx, bookingID, func(b *model.Booking, now time.Time) error {
		if b.IsCancelled() {
			return repository.ErrAlreadyCancelled
		}
		refund := s.refundFor(b, reason, now)
		b.Status = model.BookingCancelled
		b.CancellationReason = reason
		b.CancellationDate = &now
		b.RefundAmount = refund
		if refund > 0 {
			b.RefundStatus = model.RefundPending
		} else {
			b.RefundStatus = model.RefundNotApplicable
		}
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	metrics.Cancellations.WithLabelValues(string(out.RefundStatus)).Inc()
	metrics.RefundAmount.Observe(out.RefundAmount)
	s.log.Info("booking cancelled",
		zap.String("booking_id", out.ID),
		zap.String("reason", reason),
		zap.Float64("refund", out.RefundAmount),
	)
	if s.releaseInventory {
		s.release(ctx, out)
	}
	s.publish(ctx, queue.EventBookingCancelled, out)
	return out, nil
}

// UpdateRefundStatus overwrites the refund status.  The value must be one
// of the known statuses; which transitions are allowed is up to the caller.
func (s *CancellationService) UpdateRefundStatus(ctx context.Context, bookingID, status string) (*model.Booking, error) {
	rs, ok := model.ParseRefundStatus(status)
	if !ok {
		return nil, repository.ErrInvalidInput
	}
	out, err := s.withBooking(ctx, bookingID, func(b *model.Booking, _ time.Time) error {
		b.RefundStatus = rs
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.EventRefundUpdated, out)
	return out, nil
}

// withBooking applies fn to the current booking under the booking's lock
// and writes it back with compare-and-swap, retrying lost races.
func (s *CancellationService) withBooking(ctx context.Context, id string, fn func(b *model.Booking, now time.Time) error) (*model.Booking, error) {
	unlock, err := s.locks.Lock(ctx, bookingLockKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	for attempt := 1; ; attempt++ {
		b, err := s.ledger.GetBooking(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(b, s.clock.Now()); err != nil {
			return nil, err
		}
		out, err := s.ledger.UpdateBooking(ctx, b)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) || attempt >= maxCASAttempts {
			return nil, err
		}
	}
}

func (s *CancellationService) release(ctx context.Context, b *model.Booking) {
	var err error
	if len(b.Units) > 0 {
		_, err = s.inventory.ReleaseUnits(ctx, b.Kind, b.ItemID, b.Units, b.OwnerID)
	} else {
		err = s.inventory.ReleaseQuantity(ctx, b.Kind, b.ItemID, b.Quantity)
	}
	if err != nil {
		s.log.Warn("failed to release inventory for cancelled booking",
			zap.String("booking_id", b.ID),
			zap.Error(err),
		)
	}
}

func (s *CancellationService) publish(ctx context.Context, eventType string, b *model.Booking) {
	if err := s.events.Publish(ctx, queue.NewBookingEvent(eventType, b, s.clock.Now())); err != nil {
		s.log.Warn("failed to publish booking event",
			zap.String("type", eventType),
			zap.String("booking_id", b.ID),
			zap.Error(err),
		)
	}
}
