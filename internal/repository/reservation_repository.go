package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ReservationRepo implements the seat-accounting ledger. Creating a
// reservation decrements a show's available seats; cancelling one restores
// them. Both paths run as a single transaction so the seat count and the
// reservation rows can never disagree.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// Reservation mirrors the 'reservations' table.
// NOTE: Timestamps are stored in DB format "2006-01-02 15:04:05" (UTC).
type Reservation struct {
	ID            uint64
	ShowID        uint64
	UserID        uint64
	SeatsReserved uint32
	CreatedAt     string
}

// ReservationDetail pairs a reservation with the show it belongs to. It is
// returned by ListByUser for display to customers.
type ReservationDetail struct {
	ID            uint64 `json:"id"`
	ShowID        uint64 `json:"show_id"`
	ShowName      string `json:"show_name"`
	StartsAt      string `json:"starts_at"`
	SeatsReserved uint32 `json:"seats_reserved"`
	CreatedAt     string `json:"created_at"`
}

// Create reserves seats on a show for a user. The seat decrement is a
// conditional UPDATE guarded by seats_available >= requested, which is what
// serializes concurrent reservations against the same show: of two requests
// racing for the last seats, exactly one sees the guard hold. The decrement
// and the reservation INSERT commit together or not at all.
//
// Returns ErrShowNotFound when the show does not exist and
// ErrInsufficientSeats when fewer than the requested seats remain; in both
// cases nothing is committed. seats must be validated positive by the caller,
// but a zero or negative request is rejected here as well.
func (r *ReservationRepo) Create(ctx context.Context, showID, userID uint64, seats uint32) (*Reservation, error) {
	if seats == 0 {
		return nil, ErrInsufficientSeats
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC().Format(TimeLayout)
	const dec = `UPDATE shows
                 SET seats_available = seats_available - ?, updated_at = ?
                 WHERE id = ? AND seats_available >= ?`
	res, err := tx.ExecContext(ctx, dec, seats, now, showID, seats)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Guard failed: either the show is gone or the seats are.
		var exists uint64
		err := tx.QueryRowContext(ctx, `SELECT id FROM shows WHERE id = ?`, showID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, ErrInsufficientSeats
	}

	const ins = `INSERT INTO reservations (show_id, user_id, seats_reserved, created_at) VALUES (?, ?, ?, ?)`
	out, err := tx.ExecContext(ctx, ins, showID, userID, seats, now)
	if err != nil {
		return nil, err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &Reservation{
		ID:            uint64(id),
		ShowID:        showID,
		UserID:        userID,
		SeatsReserved: seats,
		CreatedAt:     now,
	}, nil
}

// Cancel deletes a reservation and restores its seats to the show. Only the
// reservation's owner or an admin may cancel; anyone else gets ErrForbidden
// and nothing changes. The seat restore and the DELETE commit together.
//
// If the show no longer exists the restore UPDATE affects no rows and is
// skipped: the orphaned reservation is still removed so cancellation never
// wedges. Returns ErrReservationNotFound when the reservation id is unknown.
func (r *ReservationRepo) Cancel(ctx context.Context, reservationID, requesterID uint64, requesterIsAdmin bool) (*Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var rec Reservation
	const sel = `SELECT id, show_id, user_id, seats_reserved, created_at FROM reservations WHERE id = ?`
	err = tx.QueryRowContext(ctx, sel, reservationID).Scan(&rec.ID, &rec.ShowID, &rec.UserID, &rec.SeatsReserved, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if rec.UserID != requesterID && !requesterIsAdmin {
		return nil, ErrForbidden
	}

	now := time.Now().UTC().Format(TimeLayout)
	const restore = `UPDATE shows
                     SET seats_available = seats_available + ?, updated_at = ?
                     WHERE id = ?`
	if _, err := tx.ExecContext(ctx, restore, rec.SeatsReserved, now, rec.ShowID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, rec.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &rec, nil
}

// ListByUser returns all reservations for the given user along with show
// details, ordered by creation time descending (newest first). When no
// reservations exist, an empty slice is returned. A LEFT JOIN keeps
// reservations visible even if their show has been removed out from under
// them.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	const q = `SELECT r.id, r.show_id, COALESCE(s.name, ''), COALESCE(s.starts_at, ''), r.seats_reserved, r.created_at
               FROM reservations r
               LEFT JOIN shows s ON s.id = r.show_id
               WHERE r.user_id = ?
               ORDER BY r.created_at DESC, r.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]ReservationDetail, 0)
	for rows.Next() {
		var d ReservationDetail
		if err := rows.Scan(&d.ID, &d.ShowID, &d.ShowName, &d.StartsAt, &d.SeatsReserved, &d.CreatedAt); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}
