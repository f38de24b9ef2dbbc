package repository // MySQL persistence for seat maps and room layouts

import (
	"context"      // context for deadlines
	"database/sql" // sql provides DB interfaces
	"encoding/json"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/travel-booking/internal/model"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// LayoutRepo stores each layout as a JSON document in the layouts table.
// The version column is the compare-and-swap token; the JSON body never
// carries authority over it.
type LayoutRepo struct {
	db *sql.DB
}

// NewLayoutRepo constructs a LayoutRepo given a DB handle.
func NewLayoutRepo(db *sql.DB) *LayoutRepo { return &LayoutRepo{db: db} }

// GetLayout loads the layout for (kind, itemID) or returns ErrNotFound.
func (r *LayoutRepo) GetLayout(ctx context.Context, kind model.ItemKind, itemID string) (*model.Layout, error) {
	const q = `SELECT body, version, created_at, updated_at FROM layouts WHERE kind = ? AND item_id = ?`
	var (
		body []byte
		l    model.Layout
		ver  uint64
		cAt  time.Time
		uAt  time.Time
	)
	if err := r.db.QueryRowContext(ctx, q, string(kind), itemID).Scan(&body, &ver, &cAt, &uAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, err
	}
	l.Version, l.CreatedAt, l.UpdatedAt = ver, cAt, uAt
	return &l, nil
}

// InsertLayout writes a brand new layout at version 1.  The primary key on
// (kind, item_id) turns a concurrent second insert into ErrConflict.
func (r *LayoutRepo) InsertLayout(ctx context.Context, l *model.Layout) error {
	now := time.Now().UTC()
	l.Version = 1
	l.CreatedAt, l.UpdatedAt = now, now
	body, err := json.Marshal(l)
	if err != nil {
		return err
	}
	const q = `INSERT INTO layouts (item_id, kind, body, version, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, l.ItemID, string(l.Kind), body, l.Version, now, now); err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// UpdateLayout replaces the body only when the stored version still equals
// expectedVersion.  Zero affected rows means either the layout vanished or
// another writer got there first; the two are told apart with a follow-up
// existence check.
func (r *LayoutRepo) UpdateLayout(ctx context.Context, l *model.Layout, expectedVersion uint64) error {
	now := time.Now().UTC()
	next := *l
	next.Version = expectedVersion + 1
	next.UpdatedAt = now
	body, err := json.Marshal(&next)
	if err != nil {
		return err
	}
	const q = `UPDATE layouts SET body = ?, version = ?, updated_at = ? WHERE kind = ? AND item_id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, q, body, next.Version, now, string(l.Kind), l.ItemID, expectedVersion)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missingOr(ctx, `SELECT 1 FROM layouts WHERE kind = ? AND item_id = ?`, string(l.Kind), l.ItemID)
	}
	l.Version, l.UpdatedAt = next.Version, now
	return nil
}

// missingOr runs an existence probe after a zero-row conditional update and
// maps the outcome to ErrNotFound or ErrVersionConflict.
func (r *LayoutRepo) missingOr(ctx context.Context, probe string, args ...any) error {
	return existsOr(ctx, r.db, ErrVersionConflict, probe, args...)
}

func existsOr(ctx context.Context, db *sql.DB, ifExists error, probe string, args ...any) error {
	var one int
	if err := db.QueryRowContext(ctx, probe, args...).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return ifExists
}
