package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrNoneAvailable     = errors.New("no available ticket of this type")
	ErrNoPendingCheckout = errors.New("no pending checkout")
)

// Store owns the Ticket, User and QRLog collections. Every other component
// reads and conditionally updates through it; there is no separate cache with
// independent lifetime.
type Store struct {
	db     *gorm.DB
	events *Events
}

// New wires a Store over the database. events may be nil, in which case ticket
// mutations are not broadcast.
func New(db *gorm.DB, events *Events) *Store {
	return &Store{db: db, events: events}
}
