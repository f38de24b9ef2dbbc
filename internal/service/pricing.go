package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking/internal/clock"
	"github.com/iliyamo/travel-booking/internal/metrics"
	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/repository"
	"github.com/iliyamo/travel-booking/internal/tracing"
)

// DefaultHolidays is the holiday calendar used when none is configured.
var DefaultHolidays = []string{
	"2025-01-01", "2025-01-26", "2025-03-14", "2025-08-15", "2025-10-02", "2025-12-25",
}

const (
	weekendUplift    = 0.15
	holidayUplift    = 0.25
	lastWeekUplift   = 0.20
	lastMonthUplift  = 0.10
	demandFloor      = 0.8
	demandSpread     = 0.4
	defaultFreezeHrs = 24
	maxFreezeHrs     = 72
)

// Reason tags attached to price points.
const (
	ReasonHighDemand = "high-demand"
	ReasonWeekend    = "weekend"
	ReasonHoliday    = "holiday"
	ReasonNormal     = "normal"
)

// Trends reported by Insights.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

var trendAdvice = map[string]string{
	TrendDecreasing: "Great time to book! Price is below average",
	TrendIncreasing: "Consider waiting, price is above average",
	TrendStable:     "Good time to book",
}

// Insights summarises the price history of an item.
type Insights struct {
	Trend          string             `json:"trend"`
	Recommendation string             `json:"recommendation"`
	AveragePrice   float64            `json:"averagePrice"`
	CurrentPrice   float64            `json:"currentPrice"`
	History        []model.PricePoint `json:"priceHistory"`
}

// PricingService computes dynamic prices, records them in a bounded
// per-item history and manages price freezes.
type PricingService struct {
	catalog  repository.CatalogStore
	history  repository.PriceHistoryStore
	freezes  FreezeStore
	locks    *KeyedLocker
	clock    clock.Clock
	log      *zap.Logger
	holidays map[string]struct{}

	rndMu sync.Mutex
	rnd   *rand.Rand
}

type PricingOption func(*PricingService)

// WithHolidays replaces the holiday calendar. Dates use the 2006-01-02 layout.
func WithHolidays(dates []string) PricingOption {
	return func(s *PricingService) {
		if len(dates) == 0 {
			return
		}
		s.holidays = make(map[string]struct{}, len(dates))
		for _, d := range dates {
			s.holidays[d] = struct{}{}
		}
	}
}

// WithRand injects the source used for the demand factor.
func WithRand(r *rand.Rand) PricingOption {
	return func(s *PricingService) {
		if r != nil {
			s.rnd = r
		}
	}
}

// WithPricingLogger sets the logger; the default discards output.
func WithPricingLogger(l *zap.Logger) PricingOption {
	return func(s *PricingService) {
		if l != nil {
			s.log = l
		}
	}
}

// NewPricingService builds the pricing engine.  Without WithRand the demand
// factor comes from a randomly seeded PCG source.
func NewPricingService(catalog repository.CatalogStore, history repository.PriceHistoryStore, freezes FreezeStore, locks *KeyedLocker, clk clock.Clock, opts ...PricingOption) *PricingService {
	s := &PricingService{
		catalog: catalog,
		history: history,
		freezes: freezes,
		locks:   locks,
		clock:   clk,
		log:     zap.NewNop(),
		rnd:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	WithHolidays(DefaultHolidays)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func historyLockKey(kind model.ItemKind, itemID string) string {
	return "price:" + string(kind) + ":" + itemID
}

// ComputePrice returns the dynamic price of one unit of the item for the
// given travel date and appends it to the item's price history.
func (s *PricingService) ComputePrice(ctx context.Context, itemID string, kind model.ItemKind, travelDate time.Time) (float64, error) {
	ctx, span := tracing.Tracer().Start(ctx, "pricing.ComputePrice")
	defer span.End()
	span.SetAttributes(attribute.String("item.id", itemID), attribute.String("item.kind", kind.String()))

	if itemID == "" || !kind.Valid() || travelDate.IsZero() {
		return 0, repository.ErrInvalidInput
	}
	now := s.clock.Now()
	base := s.basePrice(ctx, kind, itemID)
	multiplier := s.multiplier(now, travelDate) * s.demandFactor()
	price := roundMoney(base * multiplier)
	reason := ReasonForMultiplier(multiplier)

	unlock, err := s.locks.Lock(ctx, historyLockKey(kind, itemID))
	if err != nil {
		return 0, err
	}
	defer unlock()

	h, err := s.history.GetHistory(ctx, kind, itemID)
	if errors.Is(err, repository.ErrNotFound) {
		h = &model.PriceHistory{ItemID: itemID, Kind: kind, BasePrice: base}
	} else if err != nil {
		tracing.RecordError(span, err)
		return 0, err
	}
	h.BasePrice = base
	h.CurrentPrice = price
	h.DemandMultiplier = multiplier
	h.LastUpdated = now
	h.Append(model.PricePoint{Timestamp: now, Price: price, Reason: reason})
	if err := s.history.SaveHistory(ctx, h); err != nil {
		tracing.RecordError(span, err)
		return 0, err
	}

	metrics.PricingComputations.WithLabelValues(kind.String(), reason).Inc()
	s.log.Debug("price computed",
		zap.String("item_id", itemID),
		zap.String("kind", kind.String()),
		zap.Float64("base", base),
		zap.Float64("multiplier", multiplier),
		zap.Float64("price", price),
	)
	return price, nil
}

// basePrice reads the catalog and falls back to the kind's constant when
// the item is unknown or the store fails.
func (s *PricingService) basePrice(ctx context.Context, kind model.ItemKind, itemID string) float64 {
	it, err := s.catalog.GetItem(ctx, kind, itemID)
	if err == nil && it.BasePrice > 0 {
		return it.BasePrice
	}
	v, _ := variantOf(kind)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.log.Warn("catalog lookup failed, using fallback base price",
			zap.String("item_id", itemID),
			zap.Error(err),
		)
	}
	return v.fallbackBasePrice
}

// multiplier accumulates the calendar and lead-time uplifts, before demand.
func (s *PricingService) multiplier(now, travelDate time.Time) float64 {
	m := 1.0
	switch travelDate.Weekday() {
	case time.Friday, time.Saturday, time.Sunday:
		m += weekendUplift
	}
	if _, ok := s.holidays[travelDate.Format("2006-01-02")]; ok {
		m += holidayUplift
	}
	// Whole days, truncated toward zero; a date in the past counts as last minute.
	days := int(travelDate.Sub(now) / (24 * time.Hour))
	switch {
	case days <= 7:
		m += lastWeekUplift
	case days <= 30:
		m += lastMonthUplift
	}
	return m
}

func (s *PricingService) demandFactor() float64 {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return demandFloor + s.rnd.Float64()*demandSpread
}

// ReasonForMultiplier tags a final multiplier with its most likely driver.
// It looks at the number only, so the tag is an approximation.
func ReasonForMultiplier(m float64) string {
	switch {
	case m > 1.2:
		return ReasonHighDemand
	case m > 1.1:
		return ReasonWeekend
	case m > 1.0:
		return ReasonHoliday
	default:
		return ReasonNormal
	}
}

// History returns the item's price history.  An item that was never priced
// yields an empty history rather than an error.
func (s *PricingService) History(ctx context.Context, itemID string, kind model.ItemKind) (*model.PriceHistory, error) {
	if itemID == "" || !kind.Valid() {
		return nil, repository.ErrInvalidInput
	}
	h, err := s.history.GetHistory(ctx, kind, itemID)
	if errors.Is(err, repository.ErrNotFound) {
		return &model.PriceHistory{ItemID: itemID, Kind: kind, Points: []model.PricePoint{}}, nil
	}
	return h, err
}

// Insights compares the current price with the average of the history.
func (s *PricingService) Insights(ctx context.Context, itemID string, kind model.ItemKind) (*Insights, error) {
	h, err := s.History(ctx, itemID, kind)
	if err != nil {
		return nil, err
	}
	if len(h.Points) == 0 {
		return &Insights{Trend: TrendStable, Recommendation: trendAdvice[TrendStable], History: []model.PricePoint{}}, nil
	}
	var sum float64
	for _, p := range h.Points {
		sum += p.Price
	}
	avg := sum / float64(len(h.Points))
	trend := TrendStable
	switch {
	case h.CurrentPrice < avg*0.9:
		trend = TrendDecreasing
	case h.CurrentPrice > avg*1.1:
		trend = TrendIncreasing
	}
	return &Insights{
		Trend:          trend,
		Recommendation: trendAdvice[trend],
		AveragePrice:   roundMoney(avg),
		CurrentPrice:   h.CurrentPrice,
		History:        h.Points,
	}, nil
}

// FreezePrice locks the current price of an item for one owner.  hours of 0
// means the default of 24; anything outside 1..72 is rejected.  An owner
// who already holds an active freeze on the item gets that freeze back.
func (s *PricingService) FreezePrice(ctx context.Context, itemID string, kind model.ItemKind, ownerID string, hours int) (*model.PriceFreeze, error) {
	if hours == 0 {
		hours = defaultFreezeHrs
	}
	if itemID == "" || ownerID == "" || !kind.Valid() || hours < 1 || hours > maxFreezeHrs {
		return nil, repository.ErrInvalidInput
	}
	if f, err := s.freezes.Get(ctx, kind, itemID, ownerID); err == nil {
		return f, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	price, err := s.currentPrice(ctx, itemID, kind)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	f := &model.PriceFreeze{
		ItemID:    itemID,
		Kind:      kind,
		OwnerID:   ownerID,
		Price:     price,
		FrozenAt:  now,
		ExpiresAt: now.Add(time.Duration(hours) * time.Hour),
	}
	stored, created, err := s.freezes.PutIfAbsent(ctx, f)
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Info("price frozen",
			zap.String("item_id", itemID),
			zap.String("owner_id", ownerID),
			zap.Float64("price", price),
			zap.Time("expires_at", f.ExpiresAt),
		)
	}
	return stored, nil
}

// ActiveFreeze returns the owner's unexpired freeze or ErrNotFound.
func (s *PricingService) ActiveFreeze(ctx context.Context, itemID string, kind model.ItemKind, ownerID string) (*model.PriceFreeze, error) {
	return s.freezes.Get(ctx, kind, itemID, ownerID)
}

// currentPrice is the last computed price, or a fresh one for the kind's
// default travel date when the item was never priced.
func (s *PricingService) currentPrice(ctx context.Context, itemID string, kind model.ItemKind) (float64, error) {
	h, err := s.History(ctx, itemID, kind)
	if err != nil {
		return 0, err
	}
	if len(h.Points) > 0 {
		return h.CurrentPrice, nil
	}
	v, _ := variantOf(kind)
	return s.ComputePrice(ctx, itemID, kind, s.clock.Now().Add(v.defaultTravelOffset))
}
