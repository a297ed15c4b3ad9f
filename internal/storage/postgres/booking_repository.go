package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Erich2020/challenge-server/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const bookingColumns = `id, user_id, occurrence_id, committed, active, created_at, updated_at`

func scanBooking(row pgx.Row) (domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.OccurrenceID, &b.Committed, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// FindByOccurrenceAndUser returns the booking for the canonical
// (occurrence, user) identity pair, or nil when none exists.
func (r *BookingRepository) FindByOccurrenceAndUser(ctx context.Context, occurrenceID, userID string) (*domain.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings WHERE occurrence_id = $1 AND user_id = $2`

	b, err := scanBooking(r.queryRow(ctx, query, occurrenceID, userID))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find booking by occurrence and user: %w", err)
	}
	return &b, nil
}

func (r *BookingRepository) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanBooking(r.queryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Booking{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Booking{}, domain.ErrBookingNotFound
		}
		return domain.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// ListByUser returns every booking the user holds, oldest first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := r.query(ctx, query, userID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list bookings by user: %w", err)
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("iterate bookings by user: %w", err)
	}
	return out, nil
}

// ListPending returns every booking awaiting reconciliation, oldest first.
func (r *BookingRepository) ListPending(ctx context.Context) ([]domain.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings WHERE NOT committed ORDER BY created_at, id`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pending bookings: %w", err)
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending booking: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending bookings: %w", err)
	}
	return out, nil
}

func (r *BookingRepository) CreateBooking(ctx context.Context, booking domain.Booking) error {
	const stmt = `
INSERT INTO bookings (id, user_id, occurrence_id, committed, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt,
		booking.ID,
		booking.UserID,
		booking.OccurrenceID,
		booking.Committed,
		booking.Active,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// One booking row per (occurrence, user); a concurrent
			// request for the same pair already holds it.
			return domain.ErrAlreadyBooked
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// MarkPending flips a booking back to the unreconciled state with the given
// activity, re-submitting it to the processor.
func (r *BookingRepository) MarkPending(ctx context.Context, id string, active bool, now time.Time) (domain.Booking, error) {
	const stmt = `
UPDATE bookings SET committed = FALSE, active = $2, updated_at = $3
WHERE id = $1
RETURNING ` + bookingColumns

	b, err := scanBooking(r.queryRow(ctx, stmt, id, active, now))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Booking{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Booking{}, domain.ErrBookingNotFound
		}
		return domain.Booking{}, fmt.Errorf("mark booking pending: %w", err)
	}
	return b, nil
}

// CommitBooking sets the committed flag, leaving the stored activity as the
// pending write established it.
func (r *BookingRepository) CommitBooking(ctx context.Context, id string, now time.Time) (domain.Booking, error) {
	const stmt = `
UPDATE bookings SET committed = TRUE, updated_at = $2
WHERE id = $1
RETURNING ` + bookingColumns

	b, err := scanBooking(r.queryRow(ctx, stmt, id, now))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Booking{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Booking{}, domain.ErrBookingNotFound
		}
		return domain.Booking{}, fmt.Errorf("commit booking: %w", err)
	}
	return b, nil
}

func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	tag, err := r.exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *BookingRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *BookingRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
