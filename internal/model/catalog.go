package model

import "time"

// CatalogItem is the sellable record behind a flight or hotel.  It carries
// the base price used by dynamic pricing and the coarse-grained quantity
// inventory (seat or room count) that booking requests decrement when no
// specific units are chosen.
//
// Fields:
//  ID             – flight or hotel identifier.
//  Kind           – flight or hotel.
//  Name           – flight name or hotel name.
//  Origin         – departure city (flights) or city (hotels).
//  Destination    – arrival city (flights only).
//  BasePrice      – price per seat or per night before adjustments.
//  AvailableCount – units still sellable.
//  TotalCount     – units the item was created with.
type CatalogItem struct {
	ID             string    `json:"id"`
	Kind           ItemKind  `json:"kind"`
	Name           string    `json:"name"`
	Origin         string    `json:"origin,omitempty"`
	Destination    string    `json:"destination,omitempty"`
	BasePrice      float64   `json:"basePrice"`
	AvailableCount int       `json:"availableCount"`
	TotalCount     int       `json:"totalCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
