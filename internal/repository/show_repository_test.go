package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avasile/ticketbooth/internal/repository"
	"github.com/avasile/ticketbooth/internal/testutil"
)

func TestCreateShowStartsFull(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	shows := repository.NewShowRepo(db)
	s := seedShow(t, shows, "Hamlet", 120)
	if s.ID == 0 {
		t.Fatal("ID not assigned")
	}
	if s.SeatsAvailable != s.Capacity {
		t.Errorf("SeatsAvailable = %d, want %d", s.SeatsAvailable, s.Capacity)
	}

	got, err := shows.GetByID(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.SeatsAvailable != 120 || got.Capacity != 120 {
		t.Errorf("stored capacity/available = %d/%d, want 120/120", got.Capacity, got.SeatsAvailable)
	}
}

func TestGetShowNotFound(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	shows := repository.NewShowRepo(db)
	if _, err := shows.GetByID(context.Background(), 999); !errors.Is(err, repository.ErrShowNotFound) {
		t.Fatalf("GetByID = %v, want ErrShowNotFound", err)
	}
}

func TestListUpcomingExcludesPastShows(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	shows := repository.NewShowRepo(db)
	now := time.Now().UTC()

	past := &repository.Show{
		Name:     "Yesterday",
		StartsAt: now.Add(-24 * time.Hour).Format(repository.TimeLayout),
		Capacity: 10,
	}
	future := &repository.Show{
		Name:     "Tomorrow",
		StartsAt: now.Add(24 * time.Hour).Format(repository.TimeLayout),
		Capacity: 10,
	}
	if err := shows.Create(ctx, past); err != nil {
		t.Fatalf("Create past: %v", err)
	}
	if err := shows.Create(ctx, future); err != nil {
		t.Fatalf("Create future: %v", err)
	}

	all, err := shows.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListAll len = %d, want 2", len(all))
	}

	upcoming, err := shows.ListUpcoming(ctx, now)
	if err != nil {
		t.Fatalf("ListUpcoming: %v", err)
	}
	if len(upcoming) != 1 {
		t.Fatalf("ListUpcoming len = %d, want 1", len(upcoming))
	}
	if upcoming[0].Name != "Tomorrow" {
		t.Errorf("upcoming[0].Name = %q, want %q", upcoming[0].Name, "Tomorrow")
	}
}

func TestListAllEmpty(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	shows := repository.NewShowRepo(db)
	all, err := shows.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("ListAll = %v, want empty non-nil slice", all)
	}
}

func TestDeleteShowWithReservationsRefused(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	users := repository.NewUserRepo(db)
	shows := repository.NewShowRepo(db)
	reservations := repository.NewReservationRepo(db)

	uid := seedUser(t, users, "ana", "ana@example.com", "user")
	show := seedShow(t, shows, "Hamlet", 10)

	res, err := reservations.Create(ctx, show.ID, uid, 2)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if err := shows.Delete(ctx, show.ID); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("Delete = %v, want ErrConflict", err)
	}
	if _, err := shows.GetByID(ctx, show.ID); err != nil {
		t.Fatalf("show should still exist: %v", err)
	}

	// After the reservation is cancelled the delete goes through.
	if _, err := reservations.Cancel(ctx, res.ID, uid, false); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := shows.Delete(ctx, show.ID); err != nil {
		t.Fatalf("Delete after cancel: %v", err)
	}
	if _, err := shows.GetByID(ctx, show.ID); !errors.Is(err, repository.ErrShowNotFound) {
		t.Fatalf("GetByID after delete = %v, want ErrShowNotFound", err)
	}
}

func TestDeleteShowNotFound(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	shows := repository.NewShowRepo(db)
	if err := shows.Delete(context.Background(), 999); !errors.Is(err, repository.ErrShowNotFound) {
		t.Fatalf("Delete = %v, want ErrShowNotFound", err)
	}
}
