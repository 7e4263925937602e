package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/avasile/ticketbooth/internal/queue"
    "github.com/avasile/ticketbooth/internal/repository"
    publisher "github.com/avasile/ticketbooth/internal/service"
)

// ReservationHandler wires the reservation ledger to HTTP. All methods
// assume that JWT authentication has already run; they return 401 when the
// user ID cannot be extracted from the context. Seat accounting itself is
// transactional inside the repository, so a handler never observes a
// half-applied reservation.
type ReservationHandler struct {
	Reservations *repository.ReservationRepo
}

// NewReservationHandler constructs a ReservationHandler with the provided
// repository and panics if it is nil.
func NewReservationHandler(reservations *repository.ReservationRepo) *ReservationHandler {
	if reservations == nil {
		panic("nil repository passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: reservations}
}

type createReservationReq struct {
	Seats uint32 `json:"seats"`
}

// CreateReservation handles POST /v1/shows/:id/reservations. It reserves the
// requested number of seats for the current user. Responses: 201 with the
// reservation on success, 404 for an unknown show, 409 when fewer seats
// remain than requested (nothing is mutated in that case).
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || showID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Seats == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Reservations.Create(ctx, showID, userID, req.Seats)
	if err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		if errors.Is(err, repository.ErrInsufficientSeats) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient seats available"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reservation failed"})
	}

	// Publish after commit; a broker outage must not fail the reservation.
	go func(ev queue.ReservationEvent) {
		_ = publisher.PublishReservationEvent(context.Background(), ev)
	}(queue.ReservationEvent{
		Kind:          queue.EventReservationConfirmed,
		ReservationID: res.ID,
		ShowID:        res.ShowID,
		UserID:        res.UserID,
		Seats:         res.SeatsReserved,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"reservation_id": res.ID,
		"show_id":        res.ShowID,
		"seats_reserved": res.SeatsReserved,
	})
}

// CancelReservation handles DELETE /v1/reservations/:id. The reservation's
// owner or an admin may cancel; the seats flow back to the show in the same
// transaction that removes the reservation. Responses: 204 on success, 404
// for an unknown reservation, 403 for anyone else's reservation.
func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || resID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Reservations.Cancel(ctx, resID, userID, isAdmin(c))
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel reservation failed"})
	}

	go func(ev queue.ReservationEvent) {
		_ = publisher.PublishReservationEvent(context.Background(), ev)
	}(queue.ReservationEvent{
		Kind:          queue.EventReservationCancelled,
		ReservationID: rec.ID,
		ShowID:        rec.ShowID,
		UserID:        rec.UserID,
		Seats:         rec.SeatsReserved,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	})

	return c.NoContent(http.StatusNoContent)
}

// ListReservations handles GET /v1/my-reservations. It returns all
// reservations created by the current user along with show details. When no
// reservations exist, it returns an empty array.
func (h *ReservationHandler) ListReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}
