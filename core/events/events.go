package events

import (
	"context"
	"time"
)

// Op is the kind of row mutation an event describes.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// ChangeEvent is published after a committed row mutation. Delivery is
// at-most-once: consumers treat events as hints to re-fetch, never as
// authoritative deltas.
type ChangeEvent struct {
	// Table is the store table the row belongs to.
	Table string `json:"table"`
	// Op is the mutation kind.
	Op Op `json:"op"`
	// Warehouse is the tenant scope of the row.
	Warehouse string `json:"warehouse"`
	// Category is the inventory category, when the table carries one.
	Category string `json:"category,omitempty"`
	// RowID identifies the mutated row.
	RowID string `json:"row_id"`
	// At is the commit time.
	At time.Time `json:"at"`
}

// Predicate filters the events a subscriber receives.
type Predicate func(ChangeEvent) bool

// Publisher emits change events after commits. Publishing is best effort;
// services log failures and never fail the primary mutation over one.
type Publisher interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}

// Subscriber delivers a filtered stream of change events. The returned
// cancel function closes the stream.
type Subscriber interface {
	Subscribe(ctx context.Context, pred Predicate) (<-chan ChangeEvent, func())
}

// Bus combines both sides of the event stream.
type Bus interface {
	Publisher
	Subscriber
}

// Nop is a Bus that drops everything. Used when Redis is disabled.
type Nop struct{}

func (Nop) Publish(ctx context.Context, ev ChangeEvent) error {
	return nil
}

func (Nop) Subscribe(ctx context.Context, pred Predicate) (<-chan ChangeEvent, func()) {
	ch := make(chan ChangeEvent)
	return ch, func() { close(ch) }
}
