package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput covers malformed or out-of-range arguments.  It lives here
// so model parsers can wrap it; repository.ErrInvalidInput is the same value.
var ErrInvalidInput = errors.New("invalid input")

// ItemKind identifies which family of inventory an item belongs to.  It is a
// closed set: only KindFlight and KindHotel are valid.  Code that needs
// per-kind behaviour should switch on the value (or go through the
// service-level variant table) instead of comparing raw strings.
type ItemKind string

const (
	KindFlight ItemKind = "flight" // seats on a flight
	KindHotel  ItemKind = "hotel"  // rooms in a hotel
)

// ParseItemKind converts user input such as "Flight" or " hotel " into an
// ItemKind.  Unknown values fail with an error wrapping ErrInvalidInput.
func ParseItemKind(raw string) (ItemKind, error) {
	switch ItemKind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindFlight:
		return KindFlight, nil
	case KindHotel:
		return KindHotel, nil
	}
	return "", fmt.Errorf("%w: unknown item type %q", ErrInvalidInput, raw)
}

// Valid reports whether k is one of the known kinds.
func (k ItemKind) Valid() bool { return k == KindFlight || k == KindHotel }

func (k ItemKind) String() string { return string(k) }

// Tier is a pricing/amenity class inside a layout.
type Tier string

const (
	TierEconomy  Tier = "economy"
	TierPremium  Tier = "premium"
	TierBusiness Tier = "business"

	TierStandard Tier = "standard"
	TierDeluxe   Tier = "deluxe"
	TierSuite    Tier = "suite"
)

// TiersFor lists the tiers a layout of the given kind is generated with, in
// display order.
func TiersFor(k ItemKind) []Tier {
	switch k {
	case KindFlight:
		return []Tier{TierBusiness, TierPremium, TierEconomy}
	case KindHotel:
		return []Tier{TierStandard, TierDeluxe, TierSuite}
	}
	return nil
}
