package notify

import (
	"context"
	"time"

	"github.com/Erich2020/challenge-server/internal/domain"
	"github.com/Erich2020/challenge-server/internal/engine"
	"go.uber.org/zap"
)

// Notifier delivers a payload to a user out of band.
type Notifier interface {
	Notify(userID string, payload any)
}

// BookingMessage is the push payload sent when a booking is confirmed or a
// cancellation settles.
type BookingMessage struct {
	BookingID    string    `json:"bookingId"`
	OccurrenceID string    `json:"occurrenceId"`
	Active       bool      `json:"active"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BookingForwarder bridges commit events onto a Notifier so users learn about
// their confirmations without holding an HTTP request open.
type BookingForwarder struct {
	bus      *engine.Bus[domain.Booking]
	notifier Notifier
	logger   *zap.Logger
}

func NewBookingForwarder(bus *engine.Bus[domain.Booking], notifier Notifier, logger *zap.Logger) *BookingForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingForwarder{
		bus:      bus,
		notifier: notifier,
		logger:   logger,
	}
}

// Run forwards committed-booking events until ctx is cancelled.
func (f *BookingForwarder) Run(ctx context.Context) {
	events, cancel := f.bus.Subscribe(func(evt engine.Event[domain.Booking]) bool {
		return evt.Item.Committed
	})
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			f.logger.Debug("forward booking event",
				zap.String("booking_id", evt.ID),
				zap.String("user_id", evt.Item.UserID),
				zap.Bool("active", evt.Item.Active))
			f.notifier.Notify(evt.Item.UserID, BookingMessage{
				BookingID:    evt.Item.ID,
				OccurrenceID: evt.Item.OccurrenceID,
				Active:       evt.Item.Active,
				UpdatedAt:    evt.Item.UpdatedAt,
			})
		}
	}
}
