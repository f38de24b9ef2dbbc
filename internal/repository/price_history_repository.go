package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/iliyamo/travel-booking/internal/model"
)

// PriceHistoryRepo keeps one row per (kind, item) with the bounded list of
// price points as JSON.
type PriceHistoryRepo struct {
	db *sql.DB
}

// NewPriceHistoryRepo constructs a PriceHistoryRepo given a DB handle.
func NewPriceHistoryRepo(db *sql.DB) *PriceHistoryRepo { return &PriceHistoryRepo{db: db} }

func (r *PriceHistoryRepo) GetHistory(ctx context.Context, kind model.ItemKind, itemID string) (*model.PriceHistory, error) {
	const q = `SELECT base_price, current_price, demand_multiplier, last_updated, points
FROM price_history WHERE kind = ? AND item_id = ?`
	h := model.PriceHistory{ItemID: itemID, Kind: kind}
	var points []byte
	err := r.db.QueryRowContext(ctx, q, string(kind), itemID).
		Scan(&h.BasePrice, &h.CurrentPrice, &h.DemandMultiplier, &h.LastUpdated, &points)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(points, &h.Points); err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *PriceHistoryRepo) SaveHistory(ctx context.Context, h *model.PriceHistory) error {
	points := h.Points
	if points == nil {
		points = []model.PricePoint{}
	}
	raw, err := json.Marshal(points)
	if err != nil {
		return err
	}
	const q = `INSERT INTO price_history (kind, item_id, base_price, current_price, demand_multiplier, last_updated, points)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE base_price = VALUES(base_price), current_price = VALUES(current_price),
    demand_multiplier = VALUES(demand_multiplier), last_updated = VALUES(last_updated), points = VALUES(points)`
	_, err = r.db.ExecContext(ctx, q, string(h.Kind), h.ItemID, h.BasePrice, h.CurrentPrice, h.DemandMultiplier, h.LastUpdated, raw)
	return err
}
