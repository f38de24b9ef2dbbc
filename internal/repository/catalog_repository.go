package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/travel-booking/internal/model"
)

// CatalogRepo encapsulates database operations for catalog_items.  The
// available_count column is only ever changed by single conditional
// UPDATE statements so that concurrent bookings cannot oversell.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo constructs a CatalogRepo given a DB handle.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

const catalogColumns = `id, kind, name, origin, destination, base_price, available_count, total_count, created_at, updated_at`

func scanCatalogItem(row interface{ Scan(...any) error }) (*model.CatalogItem, error) {
	var (
		it   model.CatalogItem
		kind string
	)
	if err := row.Scan(&it.ID, &kind, &it.Name, &it.Origin, &it.Destination, &it.BasePrice,
		&it.AvailableCount, &it.TotalCount, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	it.Kind = model.ItemKind(kind)
	return &it, nil
}

// GetItem returns the catalog item or ErrNotFound.
func (r *CatalogRepo) GetItem(ctx context.Context, kind model.ItemKind, id string) (*model.CatalogItem, error) {
	q := `SELECT ` + catalogColumns + ` FROM catalog_items WHERE kind = ? AND id = ?`
	it, err := scanCatalogItem(r.db.QueryRowContext(ctx, q, string(kind), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return it, err
}

// UpsertItem inserts a new item or updates an existing one.  On update the
// units already sold are preserved: available = total - sold, floored at 0.
func (r *CatalogRepo) UpsertItem(ctx context.Context, item *model.CatalogItem) error {
	now := time.Now().UTC()
	const q = `INSERT INTO catalog_items (` + catalogColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    available_count = GREATEST(VALUES(total_count) - (total_count - available_count), 0),
    name = VALUES(name),
    origin = VALUES(origin),
    destination = VALUES(destination),
    base_price = VALUES(base_price),
    total_count = VALUES(total_count),
    updated_at = VALUES(updated_at)`
	_, err := r.db.ExecContext(ctx, q, item.ID, string(item.Kind), item.Name, item.Origin, item.Destination,
		item.BasePrice, item.TotalCount, item.TotalCount, now, now)
	if err != nil {
		return err
	}
	stored, err := r.GetItem(ctx, item.Kind, item.ID)
	if err != nil {
		return err
	}
	*item = *stored
	return nil
}

// ListItems returns every item of the given kind ordered by id.
func (r *CatalogRepo) ListItems(ctx context.Context, kind model.ItemKind) ([]model.CatalogItem, error) {
	q := `SELECT ` + catalogColumns + ` FROM catalog_items WHERE kind = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []model.CatalogItem{}
	for rows.Next() {
		it, err := scanCatalogItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// DecrementAvailable subtracts qty in one conditional statement and reads
// the remaining count in the same transaction; the row lock taken by the
// UPDATE keeps other writers out until commit.  When no row is affected the
// item either does not exist or has fewer than qty units left.
func (r *CatalogRepo) DecrementAvailable(ctx context.Context, kind model.ItemKind, id string, qty int) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `UPDATE catalog_items SET available_count = available_count - ?, updated_at = ?
WHERE kind = ? AND id = ? AND available_count >= ?`
	res, err := tx.ExecContext(ctx, q, qty, time.Now().UTC(), string(kind), id, qty)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, err
	} else if n == 0 {
		_ = tx.Rollback()
		committed = true // nothing left to roll back
		return 0, existsOr(ctx, r.db, ErrInsufficientInventory,
			`SELECT 1 FROM catalog_items WHERE kind = ? AND id = ?`, string(kind), id)
	}

	var remaining int
	if err := tx.QueryRowContext(ctx,
		`SELECT available_count FROM catalog_items WHERE kind = ? AND id = ?`, string(kind), id,
	).Scan(&remaining); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return remaining, nil
}

// IncrementAvailable adds qty back, never exceeding total_count.
func (r *CatalogRepo) IncrementAvailable(ctx context.Context, kind model.ItemKind, id string, qty int) error {
	const q = `UPDATE catalog_items SET available_count = LEAST(available_count + ?, total_count), updated_at = ?
WHERE kind = ? AND id = ?`
	res, err := r.db.ExecContext(ctx, q, qty, time.Now().UTC(), string(kind), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		// Already at total_count also reports zero rows with CLIENT_FOUND_ROWS off.
		return existsOr(ctx, r.db, nil, `SELECT 1 FROM catalog_items WHERE kind = ? AND id = ?`, string(kind), id)
	}
	return nil
}
