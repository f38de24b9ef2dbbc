package service

import (
	"context"
	"errors"
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

// BookInput is a reservation request.  Price is the total the client
// agreed to; zero means "price it for me".  When Units is non-empty the
// named seats or rooms are reserved and Quantity is derived from them,
// otherwise Quantity units are taken from the item's counter.
type BookInput struct {
	Kind       model.ItemKind
	OwnerID    string
	ItemID     string
	Quantity   int
	Price      float64
	TravelDate time.Time
	Units      []string
}

// ReservationService turns a booking request into a committed booking:
// price, take inventory, record, announce.  Any failure after inventory
// was taken gives it back before returning.
type ReservationService struct {
	inventory *InventoryService
	pricing   *PricingService
	ledger    *Ledger
	events    queue.Publisher
	clock     clock.Clock
	log       *zap.Logger
}

func NewReservationService(inv *InventoryService, pricing *PricingService, ledger *Ledger, events queue.Publisher, clk clock.Clock, log *zap.Logger) *ReservationService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReservationService{inventory: inv, pricing: pricing, ledger: ledger, events: events, clock: clk, log: log}
}

// BookFlight reserves seats on a flight.
func (s *ReservationService) BookFlight(ctx context.Context, ownerID, flightID string, seats int, price float64) (*model.Booking, error) {
	return s.Book(ctx, BookInput{Kind: model.KindFlight, OwnerID: ownerID, ItemID: flightID, Quantity: seats, Price: price})
}

// BookHotel reserves rooms in a hotel.
func (s *ReservationService) BookHotel(ctx context.Context, ownerID, hotelID string, rooms int, price float64) (*model.Booking, error) {
	return s.Book(ctx, BookInput{Kind: model.KindHotel, OwnerID: ownerID, ItemID: hotelID, Quantity: rooms, Price: price})
}

// Book runs the whole reservation.  Inventory failures surface as
// ErrInsufficientInventory, *UnitUnavailableError or *UnitNotFoundError
// with nothing reserved.
func (s *ReservationService) Book(ctx context.Context, in BookInput) (*model.Booking, error) {
	ctx, span := tracing.Tracer().Start(ctx, "reservation.Book")
	defer span.End()
	span.SetAttributes(
		attribute.String("item.id", in.ItemID),
		attribute.String("item.kind", in.Kind.String()),
		attribute.String("owner.id", in.OwnerID),
	)

	b, err := s.book(ctx, in)
	metrics.Reservations.WithLabelValues(in.Kind.String(), reservationResult(err)).Inc()
	if err != nil {
		tracing.RecordError(span, err)
		s.log.Info("reservation rejected",
			zap.String("item_id", in.ItemID),
			zap.String("kind", in.Kind.String()),
			zap.String("owner_id", in.OwnerID),
			zap.Error(err),
		)
		return nil, err
	}
	s.publish(ctx, queue.EventBookingConfirmed, b)
	s.log.Info("booking confirmed",
		zap.String("booking_id", b.ID),
		zap.String("item_id", b.ItemID),
		zap.Int("quantity", b.Quantity),
		zap.Float64("total", b.TotalPrice),
	)
	return b, nil
}

func (s *ReservationService) book(ctx context.Context, in BookInput) (*model.Booking, error) {
	v, ok := variantOf(in.Kind)
	if !ok || in.OwnerID == "" || in.ItemID == "" || in.Price < 0 {
		return nil, repository.ErrInvalidInput
	}
	units := dedupe(in.Units)
	qty := in.Quantity
	if len(units) > 0 {
		qty = len(units)
	}
	if qty <= 0 {
		return nil, repository.ErrInvalidInput
	}
	travel := in.TravelDate
	if travel.IsZero() {
		travel = s.clock.Now().Add(v.defaultTravelOffset)
	}

	price, err := s.committedPrice(ctx, in, qty, travel)
	if err != nil {
		return nil, err
	}

	var release func(context.Context) error
	if len(units) > 0 {
		if _, err := s.inventory.ReserveUnits(ctx, in.Kind, in.ItemID, units, in.OwnerID); err != nil {
			return nil, err
		}
		release = func(ctx context.Context) error {
			_, err := s.inventory.ReleaseUnits(ctx, in.Kind, in.ItemID, units, in.OwnerID)
			return err
		}
	} else {
		if _, err := s.inventory.ReserveQuantity(ctx, in.Kind, in.ItemID, qty); err != nil {
			return nil, err
		}
		release = func(ctx context.Context) error {
			return s.inventory.ReleaseQuantity(ctx, in.Kind, in.ItemID, qty)
		}
	}

	b, err := s.ledger.CreateBooking(ctx, NewBooking{
		OwnerID:    in.OwnerID,
		Kind:       in.Kind,
		ItemID:     in.ItemID,
		Units:      units,
		Quantity:   qty,
		Price:      price,
		TravelDate: travel,
	})
	if err != nil {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			s.log.Error("failed to release inventory after ledger error",
				zap.String("item_id", in.ItemID),
				zap.NamedError("ledger_error", err),
				zap.Error(rerr),
			)
		}
		return nil, err
	}
	return b, nil
}

// committedPrice picks the total to charge: the client's agreed price, an
// active freeze, or a freshly computed dynamic price, in that order.
func (s *ReservationService) committedPrice(ctx context.Context, in BookInput, qty int, travel time.Time) (float64, error) {
	if in.Price > 0 {
		return roundMoney(in.Price), nil
	}
	f, err := s.pricing.ActiveFreeze(ctx, in.ItemID, in.Kind, in.OwnerID)
	if err == nil {
		return times(f.Price, qty), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return 0, err
	}
	unit, err := s.pricing.ComputePrice(ctx, in.ItemID, in.Kind, travel)
	if err != nil {
		return 0, err
	}
	return times(unit, qty), nil
}

func (s *ReservationService) publish(ctx context.Context, eventType string, b *model.Booking) {
	if err := s.events.Publish(ctx, queue.NewBookingEvent(eventType, b, s.clock.Now())); err != nil {
		s.log.Warn("failed to publish booking event",
			zap.String("type", eventType),
			zap.String("booking_id", b.ID),
			zap.Error(err),
		)
	}
}

func reservationResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, repository.ErrInsufficientInventory):
		return "insufficient_inventory"
	case errors.Is(err, repository.ErrUnitUnavailable):
		return "unit_unavailable"
	case errors.Is(err, repository.ErrUnitNotFound), errors.Is(err, repository.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
