package service

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strconv"

	"github.com/iliyamo/travel-booking/internal/model"
)

// SeedMode controls the initial availability of a freshly generated layout.
type SeedMode string

const (
	// SeedOpen makes every unit available.
	SeedOpen SeedMode = "open"
	// SeedSeeded pre-sells roughly half the units with a PRNG seeded from
	// the item id, so the same item always gets the same map.
	SeedSeeded SeedMode = "seeded"
)

// ParseSeedMode maps a config value to a SeedMode, defaulting to SeedOpen.
func ParseSeedMode(raw string) SeedMode {
	if SeedMode(raw) == SeedSeeded {
		return SeedSeeded
	}
	return SeedOpen
}

// availabilitySeeder reports whether the next generated unit starts out
// available.
type availabilitySeeder func() bool

func newSeeder(mode SeedMode, itemID string) availabilitySeeder {
	if mode != SeedSeeded {
		return func() bool { return true }
	}
	h := fnv.New64a()
	h.Write([]byte(itemID))
	r := rand.New(rand.NewPCG(h.Sum64(), 0x9e3779b97f4a7c15))
	return func() bool { return r.IntN(2) == 0 }
}

func newUnit(seed availabilitySeeder, u model.Unit) model.Unit {
	u.Available = true
	if !seed() {
		u.Assign(model.PreAssignedHolder)
	}
	return u
}

type seatBand struct {
	tier     model.Tier
	firstRow int
	lastRow  int
	letters  string
	window   string
	aisle    string
	extra    float64
}

var seatBands = []seatBand{
	{tier: model.TierBusiness, firstRow: 1, lastRow: 3, letters: "ABCD", window: "AD", aisle: "BC", extra: 200},
	{tier: model.TierPremium, firstRow: 4, lastRow: 6, letters: "ABCDEF", window: "AF", aisle: "CD", extra: 50},
	{tier: model.TierEconomy, firstRow: 7, lastRow: 30, letters: "ABCDEF", window: "AF", aisle: "CD", extra: 0},
}

func containsByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}

// buildSeatMap lays out a Boeing 737: 3 business rows of 4 seats, 3
// premium rows of 6 and 24 economy rows of 6.  One group per row.
func buildSeatMap(itemID string, seed availabilitySeeder) *model.Layout {
	l := &model.Layout{
		ItemID:      itemID,
		Kind:        model.KindFlight,
		Descriptor:  "Boeing 737",
		TierPricing: map[model.Tier]float64{},
	}
	for _, band := range seatBands {
		l.TierPricing[band.tier] = band.extra
		for row := band.firstRow; row <= band.lastRow; row++ {
			label := strconv.Itoa(row)
			g := model.UnitGroup{Label: label, Tier: band.tier, Units: make([]model.Unit, 0, len(band.letters))}
			for i := 0; i < len(band.letters); i++ {
				letter := band.letters[i]
				g.Units = append(g.Units, newUnit(seed, model.Unit{
					Number:     label + string(letter),
					Tier:       band.tier,
					Row:        label,
					Window:     containsByte(band.window, letter),
					Aisle:      containsByte(band.aisle, letter),
					ExtraPrice: band.extra,
				}))
			}
			l.Groups = append(l.Groups, g)
		}
	}
	return l
}

type roomBand struct {
	tier        model.Tier
	description string
	amenities   []string
	basePrice   float64
	firstFloor  int
	lastFloor   int
	perFloor    int
	// firstRoom offsets the room index so numbers stay unique on floors
	// shared by two room types.
	firstRoom int
	view      func(floor int) string
	features  func(floor int) map[string]any
}

var roomBands = []roomBand{
	{
		tier:        model.TierStandard,
		description: "Comfortable standard room with city view",
		amenities:   []string{"WiFi", "AC", "TV", "Mini Bar"},
		basePrice:   100,
		firstFloor:  1,
		lastFloor:   5,
		perFloor:    10,
		firstRoom:   1,
		view: func(floor int) string {
			if floor <= 2 {
				return "city"
			}
			return "garden"
		},
		features: func(floor int) map[string]any {
			return map[string]any{"size": "25 sqm", "balcony": floor > 2}
		},
	},
	{
		tier:        model.TierDeluxe,
		description: "Spacious deluxe room with premium amenities",
		amenities:   []string{"WiFi", "AC", "Smart TV", "Mini Bar", "Coffee Machine", "Balcony"},
		basePrice:   200,
		firstFloor:  3,
		lastFloor:   8,
		perFloor:    6,
		firstRoom:   11,
		view: func(floor int) string {
			if floor >= 6 {
				return "ocean"
			}
			return "garden"
		},
		features: func(int) map[string]any {
			return map[string]any{"size": "35 sqm", "balcony": true, "bathtub": true}
		},
	},
	{
		tier:        model.TierSuite,
		description: "Luxury suite with separate living area and ocean view",
		amenities:   []string{"WiFi", "AC", "Smart TV", "Mini Bar", "Coffee Machine", "Balcony", "Jacuzzi", "Butler Service"},
		basePrice:   500,
		firstFloor:  8,
		lastFloor:   10,
		perFloor:    4,
		firstRoom:   21,
		view:        func(int) string { return "ocean" },
		features: func(int) map[string]any {
			return map[string]any{"size": "60 sqm", "balcony": true, "bathtub": true, "livingArea": true, "kitchenette": true}
		},
	},
}

// buildRoomLayout generates one group per room type.  Room numbers are the
// floor followed by a two digit index: standard 01-10, deluxe 11-16 and
// suite 21-24.  A room's extra price is its type's premium over standard.
func buildRoomLayout(itemID string, seed availabilitySeeder) *model.Layout {
	l := &model.Layout{
		ItemID:      itemID,
		Kind:        model.KindHotel,
		TierPricing: map[model.Tier]float64{},
	}
	standard := roomBands[0].basePrice
	for _, band := range roomBands {
		l.TierPricing[band.tier] = band.basePrice
		g := model.UnitGroup{
			Label:       string(band.tier),
			Tier:        band.tier,
			Description: band.description,
			Amenities:   append([]string(nil), band.amenities...),
			BasePrice:   band.basePrice,
		}
		for floor := band.firstFloor; floor <= band.lastFloor; floor++ {
			for i := 0; i < band.perFloor; i++ {
				g.Units = append(g.Units, newUnit(seed, model.Unit{
					Number:     fmt.Sprintf("%d%02d", floor, band.firstRoom+i),
					Tier:       band.tier,
					Floor:      strconv.Itoa(floor),
					View:       band.view(floor),
					Features:   band.features(floor),
					ExtraPrice: band.basePrice - standard,
				}))
			}
		}
		l.Groups = append(l.Groups, g)
	}
	return l
}
