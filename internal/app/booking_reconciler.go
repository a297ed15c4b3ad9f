package app

import (
	"context"
	"errors"

	"github.com/Erich2020/challenge-server/internal/clock"
	"github.com/Erich2020/challenge-server/internal/domain"
)

// BookingReconciler adapts booking storage to the reconciliation engine.
// ApplyUpdate commits the booking and settles the occurrence capacity in one
// transaction: committing an active booking takes one place, committing a
// deactivated booking returns it.
type BookingReconciler struct {
	repo        BookingRepository
	occurrences OccurrenceLedger
	clock       clock.Clock
}

func NewBookingReconciler(repo BookingRepository, occurrences OccurrenceLedger, clk clock.Clock) *BookingReconciler {
	return &BookingReconciler{
		repo:        repo,
		occurrences: occurrences,
		clock:       clk,
	}
}

func (r *BookingReconciler) Pending(ctx context.Context) ([]domain.Booking, error) {
	return r.repo.ListPending(ctx)
}

func (r *BookingReconciler) Exists(ctx context.Context, id string) (domain.Booking, bool, error) {
	booking, err := r.repo.GetBooking(ctx, id)
	if errors.Is(err, domain.ErrBookingNotFound) {
		return domain.Booking{}, false, nil
	}
	if err != nil {
		return domain.Booking{}, false, err
	}
	return booking, true, nil
}

// ApplyUpdate flips the committed flag in storage and adjusts the
// occurrence's capacity by the booking's activity. The pending write already
// established the stored activity, so only the patch's identity is consulted.
func (r *BookingReconciler) ApplyUpdate(ctx context.Context, id string, _ domain.Booking) (domain.Booking, error) {
	var updated domain.Booking
	err := r.repo.WithTx(ctx, func(txCtx context.Context) error {
		now := r.clock.Now()

		booking, err := r.repo.CommitBooking(txCtx, id, now)
		if err != nil {
			return err
		}

		delta := -1
		if !booking.Active {
			delta = 1
		}
		if err := r.occurrences.AdjustCapacity(txCtx, booking.OccurrenceID, delta, now); err != nil {
			return err
		}

		updated = booking
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return updated, nil
}
