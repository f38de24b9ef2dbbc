package service

import (
	"time"

	"github.com/iliyamo/travel-booking/internal/model"
)

// variant gathers everything that differs between flights and hotels so
// that services switch on ItemKind in one place.
type variant struct {
	// unitNoun is used in messages ("seat", "room").
	unitNoun string
	// fallbackBasePrice applies when the catalog lookup fails.
	fallbackBasePrice float64
	// defaultTravelOffset is added to now when a booking has no travel date.
	defaultTravelOffset time.Duration
	// build generates the layout template; seat maps and room layouts are
	// shaped differently.
	build func(itemID string, seed availabilitySeeder) *model.Layout
}

var variants = map[model.ItemKind]variant{
	model.KindFlight: {
		unitNoun:            "seat",
		fallbackBasePrice:   500,
		defaultTravelOffset: 24 * time.Hour,
		build:               buildSeatMap,
	},
	model.KindHotel: {
		unitNoun:            "room",
		fallbackBasePrice:   150,
		defaultTravelOffset: 7 * 24 * time.Hour,
		build:               buildRoomLayout,
	},
}

// variantOf returns the variant for k and false when k is unknown.
func variantOf(k model.ItemKind) (variant, bool) {
	v, ok := variants[k]
	return v, ok
}
