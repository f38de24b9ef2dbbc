// Package boltstore is the embedded implementation of repository.Store.
//
// BoltDB keeps every bucket in a single file, so the engine can run without
// a MySQL server (local development, tests, single-node demos). Values are
// stored as JSON. Each write happens inside one bolt.Update transaction,
// which bolt serializes, so the version checks below are atomic with the
// writes they guard.
//
// Buckets:
//   - layouts:        kind/id -> model.Layout
//   - catalog:        kind/id -> model.CatalogItem
//   - bookings:       bookingID -> model.Booking
//   - owner_bookings: ownerID/bookingID -> empty (secondary index)
//   - price_history:  kind/id -> model.PriceHistory
package boltstore

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/iliyamo/travel-booking/internal/model"
	"github.com/iliyamo/travel-booking/internal/repository"
)

var (
	bucketLayouts       = []byte("layouts")
	bucketCatalog       = []byte("catalog")
	bucketBookings      = []byte("bookings")
	bucketOwnerBookings = []byte("owner_bookings")
	bucketPriceHistory  = []byte("price_history")
)

// Store wraps a BoltDB database and implements repository.Store.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

var _ repository.Store = (*Store)(nil)

// New opens (or creates) a BoltDB database at the given path and ensures
// every bucket exists.
func New(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketLayouts, bucketCatalog, bucketBookings, bucketOwnerBookings, bucketPriceHistory} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

func itemKey(kind model.ItemKind, id string) []byte {
	return []byte(string(kind) + "/" + id)
}

func getJSON(b *bolt.Bucket, key []byte, v any) error {
	raw := b.Get(key)
	if raw == nil {
		return repository.ErrNotFound
	}
	return json.Unmarshal(raw, v)
}

func putJSON(b *bolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

// ---- layouts ----

func (s *Store) GetLayout(ctx context.Context, kind model.ItemKind, itemID string) (*model.Layout, error) {
	var l model.Layout
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(bucketLayouts), itemKey(kind, itemID), &l)
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) InsertLayout(ctx context.Context, l *model.Layout) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLayouts)
		key := itemKey(l.Kind, l.ItemID)
		if b.Get(key) != nil {
			return repository.ErrConflict
		}
		now := s.now()
		l.Version = 1
		l.CreatedAt = now
		l.UpdatedAt = now
		return putJSON(b, key, l)
	})
}

func (s *Store) UpdateLayout(ctx context.Context, l *model.Layout, expectedVersion uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLayouts)
		key := itemKey(l.Kind, l.ItemID)
		var cur model.Layout
		if err := getJSON(b, key, &cur); err != nil {
			return err
		}
		if cur.Version != expectedVersion {
			return repository.ErrVersionConflict
		}
		l.Version = expectedVersion + 1
		l.CreatedAt = cur.CreatedAt
		l.UpdatedAt = s.now()
		return putJSON(b, key, l)
	})
}

// ---- catalog ----

func (s *Store) GetItem(ctx context.Context, kind model.ItemKind, id string) (*model.CatalogItem, error) {
	var it model.CatalogItem
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(bucketCatalog), itemKey(kind, id), &it)
	})
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *Store) UpsertItem(ctx context.Context, item *model.CatalogItem) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCatalog)
		key := itemKey(item.Kind, item.ID)
		now := s.now()
		var cur model.CatalogItem
		switch err := getJSON(b, key, &cur); err {
		case nil:
			sold := cur.TotalCount - cur.AvailableCount
			item.AvailableCount = max(item.TotalCount-sold, 0)
			item.CreatedAt = cur.CreatedAt
		case repository.ErrNotFound:
			item.AvailableCount = item.TotalCount
			item.CreatedAt = now
		default:
			return err
		}
		item.UpdatedAt = now
		return putJSON(b, key, item)
	})
}

func (s *Store) ListItems(ctx context.Context, kind model.ItemKind) ([]model.CatalogItem, error) {
	items := []model.CatalogItem{}
	prefix := []byte(string(kind) + "/")
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketCatalog).Cursor()
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			var it model.CatalogItem
			if err := json.Unmarshal(v, &it); err != nil {
				return err
			}
			items = append(items, it)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// DecrementAvailable returns the count left by this call, read inside the
// same write transaction.
func (s *Store) DecrementAvailable(ctx context.Context, kind model.ItemKind, id string, qty int) (int, error) {
	return s.adjustAvailable(kind, id, func(it *model.CatalogItem) error {
		if it.AvailableCount < qty {
			return repository.ErrInsufficientInventory
		}
		it.AvailableCount -= qty
		return nil
	})
}

func (s *Store) IncrementAvailable(ctx context.Context, kind model.ItemKind, id string, qty int) error {
	_, err := s.adjustAvailable(kind, id, func(it *model.CatalogItem) error {
		it.AvailableCount = min(it.AvailableCount+qty, it.TotalCount)
		return nil
	})
	return err
}

func (s *Store) adjustAvailable(kind model.ItemKind, id string, fn func(*model.CatalogItem) error) (int, error) {
	var remaining int
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCatalog)
		key := itemKey(kind, id)
		var it model.CatalogItem
		if err := getJSON(b, key, &it); err != nil {
			return err
		}
		if err := fn(&it); err != nil {
			return err
		}
		it.UpdatedAt = s.now()
		remaining = it.AvailableCount
		return putJSON(b, key, &it)
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// ---- bookings ----

func ownerKey(ownerID, bookingID string) []byte {
	return []byte(ownerID + "/" + bookingID)
}

func (s *Store) InsertBooking(ctx context.Context, bk *model.Booking) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketBookings)
		if b.Get([]byte(bk.ID)) != nil {
			return repository.ErrConflict
		}
		bk.Version = 1
		if err := putJSON(b, []byte(bk.ID), bk); err != nil {
			return err
		}
		return tx.Bucket(bucketOwnerBookings).Put(ownerKey(bk.OwnerID, bk.ID), []byte{})
	})
}

func (s *Store) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	var bk model.Booking
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(bucketBookings), []byte(id), &bk)
	})
	if err != nil {
		return nil, err
	}
	return &bk, nil
}

func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]model.Booking, error) {
	out := []model.Booking{}
	prefix := ownerID + "/"
	err := s.db.View(func(tx *bolt.Tx) error {
		bookings := tx.Bucket(bucketBookings)
		c := tx.Bucket(bucketOwnerBookings).Cursor()
		for k, _ := c.Seek([]byte(prefix)); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			var bk model.Booking
			if err := getJSON(bookings, []byte(strings.TrimPrefix(string(k), prefix)), &bk); err != nil {
				return err
			}
			out = append(out, bk)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].BookingDate.After(out[j].BookingDate) })
	return out, nil
}

func (s *Store) UpdateBooking(ctx context.Context, bk *model.Booking, expectedVersion uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketBookings)
		var cur model.Booking
		if err := getJSON(b, []byte(bk.ID), &cur); err != nil {
			return err
		}
		if cur.Version != expectedVersion {
			return repository.ErrVersionConflict
		}
		bk.Version = expectedVersion + 1
		return putJSON(b, []byte(bk.ID), bk)
	})
}

// ---- price history ----

func (s *Store) GetHistory(ctx context.Context, kind model.ItemKind, itemID string) (*model.PriceHistory, error) {
	var h model.PriceHistory
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(bucketPriceHistory), itemKey(kind, itemID), &h)
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *Store) SaveHistory(ctx context.Context, h *model.PriceHistory) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(bucketPriceHistory), itemKey(h.Kind, h.ItemID), h)
	})
}
