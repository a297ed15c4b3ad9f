package app

import (
	"context"
	"time"

	"github.com/Erich2020/challenge-server/internal/clock"
	"github.com/Erich2020/challenge-server/internal/domain"
	"github.com/Erich2020/challenge-server/internal/engine"
	"github.com/google/uuid"
)

type BookingRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	FindByOccurrenceAndUser(ctx context.Context, occurrenceID, userID string) (*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	ListPending(ctx context.Context) ([]domain.Booking, error)
	CreateBooking(ctx context.Context, booking domain.Booking) error
	MarkPending(ctx context.Context, id string, active bool, now time.Time) (domain.Booking, error)
	CommitBooking(ctx context.Context, id string, now time.Time) (domain.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

// OccurrenceLedger is the slice of occurrence storage the booking flow
// needs: availability lookups and the atomic capacity adjustment.
type OccurrenceLedger interface {
	GetOccurrence(ctx context.Context, id string) (domain.Occurrence, error)
	AdjustCapacity(ctx context.Context, id string, delta int, now time.Time) error
}

// BookingService is the request-facing façade over the reconciliation
// engine. It writes pending booking records and blocks each caller until the
// processor confirms that caller's record or the confirmation deadline
// passes.
type BookingService struct {
	repo        BookingRepository
	occurrences OccurrenceLedger
	processor   *engine.Processor[domain.Booking]
	clock       clock.Clock
	waitTimeout time.Duration
}

const defaultWaitTimeout = 5 * time.Second

func NewBookingService(
	repo BookingRepository,
	occurrences OccurrenceLedger,
	processor *engine.Processor[domain.Booking],
	clk clock.Clock,
	opts ...BookingServiceOption,
) *BookingService {
	svc := &BookingService{
		repo:        repo,
		occurrences: occurrences,
		processor:   processor,
		clock:       clk,
		waitTimeout: defaultWaitTimeout,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type BookingServiceOption func(*BookingService)

// WithWaitTimeout overrides the default confirmation deadline.
func WithWaitTimeout(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		if d > 0 {
			s.waitTimeout = d
		}
	}
}

// RequestBooking claims a place on an occurrence for the user. The claim is
// written pending and confirmed asynchronously; the call returns the
// committed booking, or ErrConfirmationTimeout when the processor does not
// confirm it within the deadline (the pending record is kept for a later
// pass in that case).
func (s *BookingService) RequestBooking(ctx context.Context, occurrenceID, userID string) (domain.Booking, error) {
	if occurrenceID == "" || userID == "" {
		return domain.Booking{}, domain.ErrInvalidID
	}

	existing, err := s.repo.FindByOccurrenceAndUser(ctx, occurrenceID, userID)
	if err != nil {
		return domain.Booking{}, err
	}
	if existing != nil && existing.Active && existing.Committed {
		return domain.Booking{}, domain.ErrAlreadyBooked
	}

	occ, err := s.occurrences.GetOccurrence(ctx, occurrenceID)
	if err != nil {
		return domain.Booking{}, err
	}
	if occ.Capacity <= 0 {
		return domain.Booking{}, domain.ErrNotAvailable
	}

	bookingID := uuid.NewString()
	if existing != nil {
		bookingID = existing.ID
	}

	return s.submitAndWait(ctx, bookingID, func(wctx context.Context) error {
		now := s.clock.Now()
		if existing != nil {
			if existing.Active {
				// Already pending for this pair; rewriting it
				// could double-apply the capacity effect if a
				// pass commits in between. Just await it.
				return nil
			}
			// Reuse the stale inactive record instead of inserting
			// a second one for the pair.
			_, err := s.repo.MarkPending(wctx, existing.ID, true, now)
			return err
		}
		return s.repo.CreateBooking(wctx, domain.Booking{
			ID:           bookingID,
			UserID:       userID,
			OccurrenceID: occurrenceID,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	})
}

// CancelBooking releases a confirmed claim. The record is flipped to
// inactive pending; the next commit returns the place to the occurrence.
func (s *BookingService) CancelBooking(ctx context.Context, occurrenceID, userID string) (domain.Booking, error) {
	if occurrenceID == "" || userID == "" {
		return domain.Booking{}, domain.ErrInvalidID
	}

	existing, err := s.repo.FindByOccurrenceAndUser(ctx, occurrenceID, userID)
	if err != nil {
		return domain.Booking{}, err
	}
	if existing == nil || !existing.Active || !existing.Committed {
		return domain.Booking{}, domain.ErrBookingNotFound
	}

	return s.submitAndWait(ctx, existing.ID, func(wctx context.Context) error {
		_, err := s.repo.MarkPending(wctx, existing.ID, false, s.clock.Now())
		return err
	})
}

// ListUserBookings returns every booking the user holds, oldest first.
func (s *BookingService) ListUserBookings(ctx context.Context, userID string) ([]domain.Booking, error) {
	if userID == "" {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListByUser(ctx, userID)
}

// GetBooking returns a single booking. Bookings are private to their owner;
// another user's booking reads as not found.
func (s *BookingService) GetBooking(ctx context.Context, id, requesterID string) (domain.Booking, error) {
	if id == "" || requesterID == "" {
		return domain.Booking{}, domain.ErrInvalidID
	}
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if booking.UserID != requesterID {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	return booking, nil
}

// DeleteBooking removes the requester's booking record outright. The
// processor never deletes records; this is the separate cleanup operation.
// Capacity held by a committed active booking must be released with
// CancelBooking first.
func (s *BookingService) DeleteBooking(ctx context.Context, id, requesterID string) error {
	if id == "" || requesterID == "" {
		return domain.ErrInvalidID
	}
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if booking.UserID != requesterID {
		return domain.ErrBookingNotFound
	}
	return s.repo.DeleteBooking(ctx, id)
}

// submitAndWait registers the caller as a processor waiter, subscribes for
// the booking's commit event, persists the pending record, then blocks until
// the event arrives or the deadline passes. The subscription is registered
// before the write so a fast pass cannot commit the record unobserved; the
// deadline counts from that point.
func (s *BookingService) submitAndWait(ctx context.Context, bookingID string, write func(context.Context) error) (domain.Booking, error) {
	s.processor.Acquire()
	defer s.processor.Release()

	events, cancel := s.processor.Events().Subscribe(func(evt engine.Event[domain.Booking]) bool {
		return evt.ID == bookingID && evt.Item.Committed
	})
	defer cancel()

	if err := write(ctx); err != nil {
		return domain.Booking{}, err
	}

	timer := time.NewTimer(s.waitTimeout)
	defer timer.Stop()

	select {
	case evt := <-events:
		return evt.Item, nil
	case <-timer.C:
		// Outcome unknown: the pending record stays eligible for a
		// later pass.
		return domain.Booking{}, domain.ErrConfirmationTimeout
	case <-ctx.Done():
		return domain.Booking{}, ctx.Err()
	}
}
