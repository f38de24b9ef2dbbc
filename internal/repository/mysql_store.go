package repository

import "database/sql"

// MySQLStore groups the MySQL-backed repositories behind the Store
// interface.
type MySQLStore struct {
	*LayoutRepo
	*CatalogRepo
	*BookingRepo
	*PriceHistoryRepo

	db *sql.DB
}

var _ Store = (*MySQLStore)(nil)

// NewMySQLStore wires every repository to the same pool.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{
		LayoutRepo:       NewLayoutRepo(db),
		CatalogRepo:      NewCatalogRepo(db),
		BookingRepo:      NewBookingRepo(db),
		PriceHistoryRepo: NewPriceHistoryRepo(db),
		db:               db,
	}
}

// Close closes the underlying pool.
func (s *MySQLStore) Close() error { return s.db.Close() }
