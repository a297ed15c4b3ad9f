package domain

import "time"

// Booking is a user's claim on an occurrence slot. It is written pending
// (Committed=false) and confirmed asynchronously by the reconciliation
// processor; Active reports whether the claim currently holds capacity.
type Booking struct {
	ID           string
	UserID       string
	OccurrenceID string
	Committed    bool
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ItemID identifies the booking for reconciliation.
func (b Booking) ItemID() string { return b.ID }

// IsCommitted reports whether the processor has already confirmed the booking.
func (b Booking) IsCommitted() bool { return b.Committed }

// Commit returns a copy of the booking with the committed flag set. The
// receiver is never mutated; the copy is the patch handed to storage.
func (b Booking) Commit() Booking {
	b.Committed = true
	return b
}
