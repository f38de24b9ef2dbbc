package model

import "time"

// MaxPricePoints bounds PriceHistory.Points; the oldest point is evicted
// first once the log grows past it.
const MaxPricePoints = 30

// PricePoint is a single computed price.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Reason    string    `json:"reason"`
}

// PriceHistory is the bounded price log of one item, keyed by (ItemID, Kind).
type PriceHistory struct {
	ItemID           string       `json:"itemId"`
	Kind             ItemKind     `json:"itemType"`
	BasePrice        float64      `json:"basePrice"`
	CurrentPrice     float64      `json:"currentPrice"`
	DemandMultiplier float64      `json:"demandMultiplier"`
	LastUpdated      time.Time    `json:"lastUpdated"`
	Points           []PricePoint `json:"pricePoints"`
}

// Append adds p and evicts from the front until the log fits MaxPricePoints.
func (h *PriceHistory) Append(p PricePoint) {
	h.Points = append(h.Points, p)
	if over := len(h.Points) - MaxPricePoints; over > 0 {
		h.Points = append([]PricePoint(nil), h.Points[over:]...)
	}
}

// PriceFreeze is a time-boxed price lock held by one owner on one item.
type PriceFreeze struct {
	ItemID    string    `json:"itemId"`
	Kind      ItemKind  `json:"itemType"`
	OwnerID   string    `json:"ownerId"`
	Price     float64   `json:"price"`
	FrozenAt  time.Time `json:"frozenAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Active reports whether the freeze still holds at now.
func (f *PriceFreeze) Active(now time.Time) bool { return now.Before(f.ExpiresAt) }
