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

type OccurrenceRepository struct {
	pool *pgxpool.Pool
}

func NewOccurrenceRepository(pool *pgxpool.Pool) *OccurrenceRepository {
	return &OccurrenceRepository{pool: pool}
}

func (r *OccurrenceRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const occurrenceColumns = `id, name, date, location, capacity, created_by, created_at, updated_at`

func scanOccurrence(row pgx.Row) (domain.Occurrence, error) {
	var o domain.Occurrence
	err := row.Scan(&o.ID, &o.Name, &o.Date, &o.Location, &o.Capacity, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *OccurrenceRepository) CreateOccurrence(ctx context.Context, occ domain.Occurrence) error {
	const stmt = `
INSERT INTO occurrences (id, name, date, location, capacity, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.exec(ctx, stmt,
		occ.ID,
		occ.Name,
		occ.Date,
		occ.Location,
		occ.Capacity,
		occ.CreatedBy,
		occ.CreatedAt,
		occ.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isCheckViolation(err) {
			return domain.ErrInvalidCapacity
		}
		return fmt.Errorf("create occurrence: %w", err)
	}
	return nil
}

func (r *OccurrenceRepository) GetOccurrence(ctx context.Context, id string) (domain.Occurrence, error) {
	const query = `SELECT ` + occurrenceColumns + ` FROM occurrences WHERE id = $1`

	o, err := scanOccurrence(r.queryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Occurrence{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Occurrence{}, domain.ErrOccurrenceNotFound
		}
		return domain.Occurrence{}, fmt.Errorf("get occurrence: %w", err)
	}
	return o, nil
}

func (r *OccurrenceRepository) ListOccurrences(ctx context.Context) ([]domain.Occurrence, error) {
	const query = `SELECT ` + occurrenceColumns + ` FROM occurrences ORDER BY date, id`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list occurrences: %w", err)
	}
	defer rows.Close()

	var out []domain.Occurrence
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate occurrences: %w", err)
	}
	return out, nil
}

func (r *OccurrenceRepository) UpdateOccurrence(ctx context.Context, occ domain.Occurrence) error {
	const stmt = `
UPDATE occurrences SET name = $2, date = $3, location = $4, capacity = $5, updated_at = $6
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, occ.ID, occ.Name, occ.Date, occ.Location, occ.Capacity, occ.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isCheckViolation(err) {
			return domain.ErrInvalidCapacity
		}
		return fmt.Errorf("update occurrence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOccurrenceNotFound
	}
	return nil
}

func (r *OccurrenceRepository) DeleteOccurrence(ctx context.Context, id string) error {
	tag, err := r.exec(ctx, `DELETE FROM occurrences WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete occurrence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOccurrenceNotFound
	}
	return nil
}

// AdjustCapacity applies delta to the occurrence's remaining capacity as a
// single read-modify-write. A decrement that would take capacity below zero
// updates nothing and reports ErrNotAvailable.
func (r *OccurrenceRepository) AdjustCapacity(ctx context.Context, id string, delta int, now time.Time) error {
	const stmt = `
UPDATE occurrences SET capacity = capacity + $2, updated_at = $3
WHERE id = $1 AND capacity + $2 >= 0`

	tag, err := r.exec(ctx, stmt, id, delta, now)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isCheckViolation(err) {
			return domain.ErrNotAvailable
		}
		return fmt.Errorf("adjust occurrence capacity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if delta < 0 {
			return domain.ErrNotAvailable
		}
		return domain.ErrOccurrenceNotFound
	}
	return nil
}

func (r *OccurrenceRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OccurrenceRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *OccurrenceRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
