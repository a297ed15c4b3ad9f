package engine

import "context"

// Item is a record the processor can reconcile. Commit returns the patch to
// persist (the record with its committed flag set) without mutating the
// receiver.
type Item[T any] interface {
	ItemID() string
	IsCommitted() bool
	Commit() T
}

// Repository is the narrow storage contract the processor drives, supplied
// per entity kind.
type Repository[T Item[T]] interface {
	// Pending returns every record still awaiting reconciliation, in the
	// order they should be processed.
	Pending(ctx context.Context) ([]T, error)

	// Exists reports the current persisted record for id. The processor
	// uses it to avoid committing or notifying for a record a previous
	// pass already handled.
	Exists(ctx context.Context, id string) (T, bool, error)

	// ApplyUpdate persists the patch and returns the resulting record.
	// This call is also the boundary for the entity's side effects; for
	// bookings it adjusts the occurrence capacity in the same transaction.
	ApplyUpdate(ctx context.Context, id string, patch T) (T, error)
}
