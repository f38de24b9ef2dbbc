// Package repository defines the persistence contracts of the booking
// engine together with the error types shared by every store
// implementation. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without knowing whether MySQL or the embedded Bolt store is
// underneath. For example, ErrInsufficientInventory indicates that a
// quantity reservation would have driven a counter below zero, while
// ErrVersionConflict signals that a compare-and-swap write lost a race.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/travel-booking/internal/model"
)

// ErrNotFound is returned when a booking, catalog item, layout or price
// history does not exist. Handlers translate this into an HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrInsufficientInventory is returned when the requested quantity exceeds
// what is currently available. Handlers translate this into an HTTP 409.
var ErrInsufficientInventory = errors.New("insufficient inventory")

// ErrUnitUnavailable is returned when a requested seat or room already has
// a holder. Use errors.As with *UnitUnavailableError to get the numbers.
var ErrUnitUnavailable = errors.New("unit unavailable")

// ErrUnitNotFound is returned when a requested seat or room number does not
// exist in the layout. Handlers translate this into an HTTP 400.
var ErrUnitNotFound = errors.New("unit not found")

// ErrAlreadyCancelled is returned when cancelling a booking twice.
var ErrAlreadyCancelled = errors.New("booking already cancelled")

// ErrInvalidInput covers malformed or out-of-range arguments.  It is the
// model sentinel, so errors from model.ParseItemKind match it too.
var ErrInvalidInput = model.ErrInvalidInput

// ErrForbidden is returned when a caller acts for an owner other than
// themselves without the admin role. Handlers translate it into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned by insert-if-absent operations when a record
// with the same key already exists.
var ErrConflict = errors.New("conflict")

// ErrVersionConflict is returned by compare-and-swap writes when the stored
// version no longer matches the version the caller read.
var ErrVersionConflict = errors.New("version conflict")

// UnitUnavailableError lists the units that blocked a reservation.  Noun
// ("seat", "room") is optional and only changes the message.
type UnitUnavailableError struct {
	Noun  string
	Units []string
}

func (e *UnitUnavailableError) Error() string {
	return unitMessage(ErrUnitUnavailable, e.Noun, e.Units)
}

// Unwrap lets errors.Is(err, ErrUnitUnavailable) match.
func (e *UnitUnavailableError) Unwrap() error { return ErrUnitUnavailable }

// UnitNotFoundError names the unit numbers missing from a layout.
type UnitNotFoundError struct {
	Noun  string
	Units []string
}

func (e *UnitNotFoundError) Error() string {
	return unitMessage(ErrUnitNotFound, e.Noun, e.Units)
}

func unitMessage(sentinel error, noun string, units []string) string {
	list := strings.Join(units, ", ")
	switch {
	case noun == "":
		return fmt.Sprintf("%s: %s", sentinel, list)
	case len(units) == 1:
		return fmt.Sprintf("%s: %s %s", sentinel, noun, list)
	default:
		return fmt.Sprintf("%s: %ss %s", sentinel, noun, list)
	}
}

// Unwrap lets errors.Is(err, ErrUnitNotFound) match.
func (e *UnitNotFoundError) Unwrap() error { return ErrUnitNotFound }
