// Package repository contains data access logic for Show domain operations.
// This file defines the Show model and repository methods for shows. A Show
// represents a scheduled event with a finite seat capacity.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sentinel comparisons
	"time"         // time for the upcoming-show cutoff
)

// Show represents a scheduled event with a finite seat capacity.
// SeatsAvailable is maintained by the reservation ledger and never drops
// below zero; Capacity records the value it started with so the
// conservation law (reserved + available == capacity) can be verified.
// NOTE: Time strings are stored in DB format "2006-01-02 15:04:05" (UTC).
type Show struct {
	ID             uint64 // ID is the primary key of the show
	Name           string // Name is the display name of the show
	StartsAt       string // StartsAt is the DB timestamp when the show begins ("YYYY-MM-DD HH:MM:SS" UTC)
	Capacity       uint32 // Capacity is the total seat count the show opened with
	SeatsAvailable uint32 // SeatsAvailable is the number of seats still reservable
	CreatedAt      string // CreatedAt records row creation time
	UpdatedAt      string // UpdatedAt records last update time
}

// ShowRepo manages persistence for shows.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *ShowRepo) DB() *sql.DB {
	return r.db
}

// Create inserts a new show into the database and assigns the generated ID
// back to the show struct. SeatsAvailable always starts equal to Capacity;
// callers only supply name, start time and capacity.
func (r *ShowRepo) Create(ctx context.Context, s *Show) error {
	now := time.Now().UTC().Format(TimeLayout)
	s.SeatsAvailable = s.Capacity
	s.CreatedAt = now
	s.UpdatedAt = now
	const q = `INSERT INTO shows (name, starts_at, capacity, seats_available, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.Name, s.StartsAt, s.Capacity, s.SeatsAvailable, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID retrieves a show by its ID.  It returns ErrShowNotFound if
// there is no matching row.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*Show, error) {
	const q = `SELECT id, name, starts_at, capacity, seats_available, created_at, updated_at FROM shows WHERE id = ?`
	var s Show
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Name, &s.StartsAt, &s.Capacity, &s.SeatsAvailable, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListAll returns every show ordered by start time ascending. When no shows
// exist it returns an empty slice and nil error.
func (r *ShowRepo) ListAll(ctx context.Context) ([]Show, error) {
	const q = `SELECT id, name, starts_at, capacity, seats_available, created_at, updated_at
               FROM shows
               ORDER BY starts_at ASC`
	return r.queryShows(ctx, q)
}

// ListUpcoming returns shows whose start time is at or after the given
// cutoff, ordered by start time ascending. Callers pass time.Now so each
// call re-evaluates the cutoff; a show that has already started is never
// included.
func (r *ShowRepo) ListUpcoming(ctx context.Context, cutoff time.Time) ([]Show, error) {
	const q = `SELECT id, name, starts_at, capacity, seats_available, created_at, updated_at
               FROM shows
               WHERE starts_at >= ?
               ORDER BY starts_at ASC`
	return r.queryShows(ctx, q, cutoff.UTC().Format(TimeLayout))
}

func (r *ShowRepo) queryShows(ctx context.Context, q string, args ...interface{}) ([]Show, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]Show, 0)
	for rows.Next() {
		var s Show
		if err := rows.Scan(&s.ID, &s.Name, &s.StartsAt, &s.Capacity, &s.SeatsAvailable, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a show. Deletion is refused with ErrConflict while live
// reservations still reference the show; the existence check and the delete
// run in one transaction so a reservation created in between cannot be
// orphaned. Returns ErrShowNotFound when the show does not exist.
func (r *ShowRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var exists uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM shows WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrShowNotFound
		}
		return err
	}

	var live int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE show_id = ?`, id).Scan(&live); err != nil {
		return err
	}
	if live > 0 {
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM shows WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
