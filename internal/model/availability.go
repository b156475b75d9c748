package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roomwatch/backend/pkg/datetime"
)

// SnapshotSource identifies where an availability snapshot came from.
type SnapshotSource string

const (
	SourceRakuten SnapshotSource = "rakuten"
	SourceSeed    SnapshotSource = "seed"
)

// RoomAvailability is one canonical observation from a vacancy fetch:
// a stay date, a room label and whether it can be booked, with the nightly
// rate when the upstream response carried one.
type RoomAvailability struct {
	Date        datetime.Date    `json:"date"`
	RoomType    string           `json:"roomType"`
	IsAvailable bool             `json:"isAvailable"`
	Price       *decimal.Decimal `json:"price,omitempty"`
}

// Key returns the identity of the observation within a run. One fetch
// window never yields two records with the same key.
func (r RoomAvailability) Key() string {
	return r.Date.String() + "__" + r.RoomType
}

// AvailabilitySnapshot is the stored last-known state for a (date, room type)
// pair. Rows are never deleted; a room that stops appearing in fetches is
// flipped to unavailable instead.
type AvailabilitySnapshot struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	Date          datetime.Date    `db:"date" json:"date"`
	RoomType      string           `db:"room_type" json:"roomType"`
	IsAvailable   bool             `db:"is_available" json:"isAvailable"`
	Price         *decimal.Decimal `db:"price" json:"price,omitempty"`
	LastCheckedAt time.Time        `db:"last_checked_at" json:"lastCheckedAt"`
	Source        SnapshotSource   `db:"source" json:"source"`
	CreatedAt     time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updatedAt"`
}

// Key returns the snapshot's (date, room type) identity, comparable with
// RoomAvailability.Key.
func (s AvailabilitySnapshot) Key() string {
	return s.Date.String() + "__" + s.RoomType
}

// VacancyTransition records a room becoming bookable: either a snapshot
// flipped from unavailable to available, or a brand-new (date, room type)
// pair that arrived already available.
type VacancyTransition struct {
	Snapshot AvailabilitySnapshot
	IsNew    bool // first observation of this (date, room type)
}
