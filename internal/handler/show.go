package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/avasile/ticketbooth/internal/repository"
)

// ShowHandler groups the repositories needed to manage and browse the show
// catalog. Creation and deletion are admin-only; the routes are gated by
// JWT + role middleware before these methods run.
type ShowHandler struct {
	Shows *repository.ShowRepo
}

// NewShowHandler constructs a ShowHandler and panics if the dependency is nil.
func NewShowHandler(shows *repository.ShowRepo) *ShowHandler {
	if shows == nil {
		panic("nil repository passed to NewShowHandler")
	}
	return &ShowHandler{Shows: shows}
}

type createShowReq struct {
	Name     string `json:"name"`
	StartsAt string `json:"starts_at"` // RFC3339
	Capacity uint32 `json:"capacity"`
}

type showResp struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	StartsAt       string `json:"starts_at"` // RFC3339 UTC
	Capacity       uint32 `json:"capacity"`
	SeatsAvailable uint32 `json:"seats_available"`
}

func toShowResp(s repository.Show) showResp {
	out := showResp{
		ID:             s.ID,
		Name:           s.Name,
		StartsAt:       s.StartsAt,
		Capacity:       s.Capacity,
		SeatsAvailable: s.SeatsAvailable,
	}
	if t, err := time.Parse(repository.TimeLayout, s.StartsAt); err == nil {
		out.StartsAt = t.UTC().Format(time.RFC3339)
	}
	return out
}

// CreateShow handles POST /v1/shows. It validates the form fields (non-empty
// name, parseable RFC3339 start time) and inserts a show whose available
// seats equal its capacity. Returns 201 with the created show.
func (h *ShowHandler) CreateShow(c echo.Context) error {
	var req createShowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	startsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartsAt))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s := repository.Show{
		Name:     req.Name,
		StartsAt: startsAt.UTC().Format(repository.TimeLayout),
		Capacity: req.Capacity,
	}
	if err := h.Shows.Create(ctx, &s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create show failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": toShowResp(s)})
}

// DeleteShow handles DELETE /v1/shows/:id. Deletion is refused with 409
// while reservations still reference the show; cancel them first.
func (h *ShowHandler) DeleteShow(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Shows.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "show has live reservations"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete show failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListShows handles GET /v1/shows and returns every show.
func (h *ShowHandler) ListShows(c echo.Context) error {
	shows, err := h.Shows.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load shows"})
	}
	items := make([]showResp, 0, len(shows))
	for _, s := range shows {
		items = append(items, toShowResp(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListUpcoming handles GET /v1/shows/upcoming. The cutoff is re-evaluated on
// every call, so a show is listed only while its start time is still ahead
// of now.
func (h *ShowHandler) ListUpcoming(c echo.Context) error {
	shows, err := h.Shows.ListUpcoming(c.Request().Context(), time.Now())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load shows"})
	}
	items := make([]showResp, 0, len(shows))
	for _, s := range shows {
		items = append(items, toShowResp(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
