package model

import "time"

// PreAssignedHolder is recorded as the holder of units that were generated
// as unavailable (sold through another channel before the layout existed).
const PreAssignedHolder = "pre-assigned"

// Unit is one individually bookable seat or room.
//
// Fields:
//  Number     – seat number ("12C") or room number ("305"); unique within a layout.
//  Tier       – pricing class of the unit.
//  Row        – seat row label (flights only).
//  Floor      – floor label (hotels only).
//  Available  – false once the unit has a holder.
//  HolderID   – owner that booked the unit; empty while available.
//  Window     – window seat (flights only).
//  Aisle      – aisle seat (flights only).
//  View       – room view: city, garden or ocean (hotels only).
//  Features   – free-form room features (size, balcony, ...).
//  ExtraPrice – surcharge on top of the item price for choosing this unit.
type Unit struct {
	Number     string         `json:"number"`
	Tier       Tier           `json:"tier"`
	Row        string         `json:"row,omitempty"`
	Floor      string         `json:"floor,omitempty"`
	Available  bool           `json:"available"`
	HolderID   string         `json:"holderId,omitempty"`
	Window     bool           `json:"window,omitempty"`
	Aisle      bool           `json:"aisle,omitempty"`
	View       string         `json:"view,omitempty"`
	Features   map[string]any `json:"features,omitempty"`
	ExtraPrice float64        `json:"extraPrice"`
}

// Assign marks the unit as held by holderID.
func (u *Unit) Assign(holderID string) {
	u.Available = false
	u.HolderID = holderID
}

// Release returns the unit to the pool.
func (u *Unit) Release() {
	u.Available = true
	u.HolderID = ""
}

// UnitGroup is an ordered group of units: a seat row on a flight or a room
// type on a hotel.
type UnitGroup struct {
	Label       string   `json:"label"`
	Tier        Tier     `json:"tier"`
	Description string   `json:"description,omitempty"`
	Amenities   []string `json:"amenities,omitempty"`
	BasePrice   float64  `json:"basePrice,omitempty"`
	Units       []Unit   `json:"units"`
}

// Layout is the full seat map of a flight or room layout of a hotel.  It is
// keyed by ItemID, created lazily on first lookup and mutated in place by
// reservations.  Version increases on every successful write and is used
// for compare-and-swap persistence.
type Layout struct {
	ItemID      string           `json:"itemId"`
	Kind        ItemKind         `json:"kind"`
	Descriptor  string           `json:"descriptor,omitempty"`
	Groups      []UnitGroup      `json:"groups"`
	TierPricing map[Tier]float64 `json:"tierPricing"`
	Version     uint64           `json:"version"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// FindUnit returns a pointer into the layout for the unit with the given
// number, or nil.  The pointer stays valid until Groups is reallocated.
func (l *Layout) FindUnit(number string) *Unit {
	for gi := range l.Groups {
		units := l.Groups[gi].Units
		for ui := range units {
			if units[ui].Number == number {
				return &units[ui]
			}
		}
	}
	return nil
}

// Capacity is the total number of units in the layout.
func (l *Layout) Capacity() int {
	n := 0
	for _, g := range l.Groups {
		n += len(g.Units)
	}
	return n
}

// HeldCount is the number of units that currently have a holder.
func (l *Layout) HeldCount() int {
	n := 0
	for _, g := range l.Groups {
		for _, u := range g.Units {
			if !u.Available {
				n++
			}
		}
	}
	return n
}

// Clone returns a deep copy so callers can mutate a layout without touching
// a cached or shared instance.
func (l *Layout) Clone() *Layout {
	if l == nil {
		return nil
	}
	out := *l
	out.TierPricing = make(map[Tier]float64, len(l.TierPricing))
	for k, v := range l.TierPricing {
		out.TierPricing[k] = v
	}
	out.Groups = make([]UnitGroup, len(l.Groups))
	for i, g := range l.Groups {
		ng := g
		ng.Amenities = append([]string(nil), g.Amenities...)
		ng.Units = make([]Unit, len(g.Units))
		for j, u := range g.Units {
			nu := u
			if u.Features != nil {
				nu.Features = make(map[string]any, len(u.Features))
				for k, v := range u.Features {
					nu.Features[k] = v
				}
			}
			ng.Units[j] = nu
		}
		out.Groups[i] = ng
	}
	return &out
}
