package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/avasile/ticketbooth/internal/repository"
	"github.com/avasile/ticketbooth/internal/testutil"
)

func seedUser(t *testing.T, users *repository.UserRepo, username, email, role string) uint64 {
	t.Helper()
	id, err := users.Create(context.Background(), username, email, "secret123", role, 4)
	if err != nil {
		t.Fatalf("Create user %s: %v", email, err)
	}
	return id
}

func seedShow(t *testing.T, shows *repository.ShowRepo, name string, capacity uint32) *repository.Show {
	t.Helper()
	s := &repository.Show{
		Name:     name,
		StartsAt: time.Now().UTC().Add(24 * time.Hour).Format(repository.TimeLayout),
		Capacity: capacity,
	}
	if err := shows.Create(context.Background(), s); err != nil {
		t.Fatalf("Create show %s: %v", name, err)
	}
	return s
}

func seatsAvailable(t *testing.T, shows *repository.ShowRepo, id uint64) uint32 {
	t.Helper()
	s, err := shows.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID(%d): %v", id, err)
	}
	return s.SeatsAvailable
}

func TestCreateReservationDecrementsSeats(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	users := repository.NewUserRepo(db)
	shows := repository.NewShowRepo(db)
	reservations := repository.NewReservationRepo(db)

	uid := seedUser(t, users, "ana", "ana@example.com", "user")
	show := seedShow(t, shows, "Hamlet", 10)

	res, err := reservations.Create(ctx, show.ID, uid, 4)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.SeatsReserved != 4 {
		t.Errorf("SeatsReserved = %d, want 4", res.SeatsReserved)
	}
	if got := seatsAvailable(t, shows, show.ID); got != 6 {
		t.Errorf("seats_available = %d, want 6", got)
	}
}

func TestCreateReservationInsufficientSeats(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	users := repository.NewUserRepo(db)
	shows := repository.NewShowRepo(db)
	reservations := repository.NewReservationRepo(db)

	uid := seedUser(t, users, "ana", "ana@example.com", "user")
	show := seedShow(t, shows, "Hamlet", 3)

	_, err := reservations.Create(ctx, show.ID, uid, 5)
	if !errors.Is(err, repository.ErrInsufficientSeats) {
		t.Fatalf("Create = %v, want ErrInsufficientSeats", err)
	}
	// No mutation: the seat count is untouched and no reservation row exists.
	if got := seatsAvailable(t, shows, show.ID); got != 3 {
		t.Errorf("seats_available = %d, want 3", got)
	}
	list, err := reservations.ListByUser(ctx, uid)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("reservation count = %d, want 0", len(list))
	}
}

func TestCreateReservationUnknownShow(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	reservations := repository.NewReservationRepo(db)
	_, err := reservations.Create(context.Background(), 999, 1, 2)
	if !errors.Is(err, repository.ErrShowNotFound) {
		t.Fatalf("Create = %v, want ErrShowNotFound", err)
	}
}

func TestCreateReservationZeroSeats(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	users := repository.NewUserRepo(db)
	shows := repository.NewShowRepo(db)
	reservations := repository.NewReservationRepo(db)

	uid := seedUser(t, users, "ana", "ana@example.com", "user")
	show := seedShow(t, shows, "Hamlet", 3)

	if _, err := reservations.Create(context.Background(), show.ID, uid, 0); !errors.Is(err, repository.ErrInsufficientSeats) {
		t.Fatalf("Create(0 seats) = %v, want ErrInsufficientSeats", err)
	}
	if got := seatsAvailable(t, shows, show.ID); got != 3 {
		t.Errorf("seats_available = %d, want 3", got)
	}
}

func TestCancelRestoresSeats(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	users := repository.NewUserRepo(db)
	shows := repository.NewShowRepo(db)
	reservations := repository.NewReservationRepo(db)

	uid := seedUser(t, users, "ana", "ana@example.com", "user")
	show := seedShow(t, shows, "Hamlet", 10)

	res, err := reservations.Create(ctx, show.ID, uid, 4)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec, err := reservations.Cancel(ctx, res.ID, uid, false)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if rec.SeatsReserved != 4 {
		t.Errorf("cancelled SeatsReserved = %d, want 4", rec.SeatsReserved)
	}
	if got := seatsAvailable(t, shows, show.ID); got != 10 {
		t.Errorf("seats_available = %d, want 10", got)
	}
	list, err := reservations.ListByUser(ctx, uid)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("reservation count after cancel = %d, want 0", len(list))
	}
}

func TestCancelByAdmin(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	users := repository.NewUserRepo(db)
	shows := repository.NewShowRepo(db)
	reservations := repository.NewReservationRepo(db)

	owner := seedUser(t, users, "ana", "ana@example.com", "user")
	admin := seedUser(t, users, "root", "root@example.com", "admin")
	show := seedShow(t, shows, "Hamlet", 10)

	res, err := reservations.Create(ctx, show.ID, owner, 4)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := reservations.Cancel(ctx, res.ID, admin, true); err != nil {
		t.Fatalf("Cancel as admin: %v", err)
	}
	if got := seatsAvailable(t, shows, show.ID); got != 10 {
		t.Errorf("seats_available = %d, want 10", got)
	}
}

func TestCancelForbidden(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	users := repository.NewUserRepo(db)
	shows := repository.NewShowRepo(db)
	reservations := repository.NewReservationRepo(db)

	owner := seedUser(t, users, "ana", "ana@example.com", "user")
	stranger := seedUser(t, users, "bob", "bob@example.com", "user")
	show := seedShow(t, shows, "Hamlet", 10)

	res, err := reservations.Create(ctx, show.ID, owner, 4)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := reservations.Cancel(ctx, res.ID, stranger, false); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("Cancel = %v, want ErrForbidden", err)
	}
	// Nothing changed: reservation still present, seats still deducted.
	if got := seatsAvailable(t, shows, show.ID); got != 6 {
		t.Errorf("seats_available = %d, want 6", got)
	}
	list, err := reservations.ListByUser(ctx, owner)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("reservation count = %d, want 1", len(list))
	}
}

func TestCancelUnknownReservation(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	reservations := repository.NewReservationRepo(db)
	if _, err := reservations.Cancel(context.Background(), 42, 1, false); !errors.Is(err, repository.ErrReservationNotFound) {
		t.Fatalf("Cancel = %v, want ErrReservationNotFound", err)
	}
}

func TestCancelAfterShowRemoved(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	users := repository.NewUserRepo(db)
	shows := repository.NewShowRepo(db)
	reservations := repository.NewReservationRepo(db)

	uid := seedUser(t, users, "ana", "ana@example.com", "user")
	show := seedShow(t, shows, "Hamlet", 10)

	res, err := reservations.Create(ctx, show.ID, uid, 4)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Remove the show row out from under the reservation. The repository
	// Delete refuses this, so go straight to SQL.
	if _, err := db.Exec("DELETE FROM shows WHERE id = ?", show.ID); err != nil {
		t.Fatalf("delete show row: %v", err)
	}

	// Cancellation still succeeds: the restore is skipped, the orphaned
	// reservation is removed.
	if _, err := reservations.Cancel(ctx, res.ID, uid, false); err != nil {
		t.Fatalf("Cancel orphan: %v", err)
	}
	list, err := reservations.ListByUser(ctx, uid)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("reservation count = %d, want 0", len(list))
	}
}

// TestSeatAccountingScenario walks the reference sequence: a 10-seat show,
// reserve 4, a 7-seat request fails without touching anything, cancel the
// original reservation, and the show is whole again.
func TestSeatAccountingScenario(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	users := repository.NewUserRepo(db)
	shows := repository.NewShowRepo(db)
	reservations := repository.NewReservationRepo(db)

	uid := seedUser(t, users, "ana", "ana@example.com", "user")
	show := seedShow(t, shows, "Hamlet", 10)

	res, err := reservations.Create(ctx, show.ID, uid, 4)
	if err != nil {
		t.Fatalf("reserve 4: %v", err)
	}
	if got := seatsAvailable(t, shows, show.ID); got != 6 {
		t.Fatalf("after reserve 4: seats_available = %d, want 6", got)
	}

	if _, err := reservations.Create(ctx, show.ID, uid, 7); !errors.Is(err, repository.ErrInsufficientSeats) {
		t.Fatalf("reserve 7 = %v, want ErrInsufficientSeats", err)
	}
	if got := seatsAvailable(t, shows, show.ID); got != 6 {
		t.Fatalf("after failed reserve 7: seats_available = %d, want 6", got)
	}

	if _, err := reservations.Cancel(ctx, res.ID, uid, false); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := seatsAvailable(t, shows, show.ID); got != 10 {
		t.Fatalf("after cancel: seats_available = %d, want 10", got)
	}
}

// TestConservationLaw runs a mixed sequence and verifies that reserved plus
// available seats always equals the show's original capacity.
func TestConservationLaw(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	users := repository.NewUserRepo(db)
	shows := repository.NewShowRepo(db)
	reservations := repository.NewReservationRepo(db)

	ana := seedUser(t, users, "ana", "ana@example.com", "user")
	bob := seedUser(t, users, "bob", "bob@example.com", "user")
	show := seedShow(t, shows, "Hamlet", 20)

	verify := func(step string) {
		t.Helper()
		var reserved uint32
		if err := db.QueryRow(
			"SELECT COALESCE(SUM(seats_reserved), 0) FROM reservations WHERE show_id = ?", show.ID,
		).Scan(&reserved); err != nil {
			t.Fatalf("%s: sum reservations: %v", step, err)
		}
		avail := seatsAvailable(t, shows, show.ID)
		if reserved+avail != show.Capacity {
			t.Fatalf("%s: reserved(%d) + available(%d) != capacity(%d)", step, reserved, avail, show.Capacity)
		}
	}

	r1, err := reservations.Create(ctx, show.ID, ana, 5)
	if err != nil {
		t.Fatalf("reserve 5: %v", err)
	}
	verify("after ana reserves 5")

	r2, err := reservations.Create(ctx, show.ID, bob, 8)
	if err != nil {
		t.Fatalf("reserve 8: %v", err)
	}
	verify("after bob reserves 8")

	if _, err := reservations.Create(ctx, show.ID, ana, 9); !errors.Is(err, repository.ErrInsufficientSeats) {
		t.Fatalf("reserve 9 = %v, want ErrInsufficientSeats", err)
	}
	verify("after failed reserve 9")

	if _, err := reservations.Cancel(ctx, r1.ID, ana, false); err != nil {
		t.Fatalf("cancel r1: %v", err)
	}
	verify("after ana cancels")

	if _, err := reservations.Cancel(ctx, r2.ID, bob, false); err != nil {
		t.Fatalf("cancel r2: %v", err)
	}
	verify("after bob cancels")

	if got := seatsAvailable(t, shows, show.ID); got != show.Capacity {
		t.Errorf("final seats_available = %d, want %d", got, show.Capacity)
	}
}

// TestConcurrentReservationsNeverOverbook races many goroutines for the
// same small show. The conditional decrement must let exactly capacity
// seats through, no matter how the requests interleave.
func TestConcurrentReservationsNeverOverbook(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	users := repository.NewUserRepo(db)
	shows := repository.NewShowRepo(db)
	reservations := repository.NewReservationRepo(db)

	uid := seedUser(t, users, "ana", "ana@example.com", "user")
	show := seedShow(t, shows, "Hamlet", 5)

	const workers = 12
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reservations.Create(ctx, show.ID, uid, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	granted := 0
	for err := range errs {
		switch {
		case err == nil:
			granted++
		case errors.Is(err, repository.ErrInsufficientSeats):
		default:
			t.Fatalf("Create: %v", err)
		}
	}
	if granted != 5 {
		t.Errorf("granted = %d, want exactly the capacity (5)", granted)
	}
	if got := seatsAvailable(t, shows, show.ID); got != 0 {
		t.Errorf("seats_available = %d, want 0", got)
	}
	var reserved uint32
	if err := db.QueryRow(
		"SELECT COALESCE(SUM(seats_reserved), 0) FROM reservations WHERE show_id = ?", show.ID,
	).Scan(&reserved); err != nil {
		t.Fatalf("sum reservations: %v", err)
	}
	if reserved != show.Capacity {
		t.Errorf("reserved = %d, want %d", reserved, show.Capacity)
	}
}

func TestListByUser(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	users := repository.NewUserRepo(db)
	shows := repository.NewShowRepo(db)
	reservations := repository.NewReservationRepo(db)

	ana := seedUser(t, users, "ana", "ana@example.com", "user")
	bob := seedUser(t, users, "bob", "bob@example.com", "user")
	show := seedShow(t, shows, "Hamlet", 10)

	if _, err := reservations.Create(ctx, show.ID, ana, 2); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := reservations.Create(ctx, show.ID, bob, 3); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	list, err := reservations.ListByUser(ctx, ana)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
	if list[0].ShowName != "Hamlet" {
		t.Errorf("ShowName = %q, want %q", list[0].ShowName, "Hamlet")
	}
	if list[0].SeatsReserved != 2 {
		t.Errorf("SeatsReserved = %d, want 2", list[0].SeatsReserved)
	}

	empty, err := reservations.ListByUser(ctx, 999)
	if err != nil {
		t.Fatalf("ListByUser(unknown): %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("len = %d, want 0", len(empty))
	}
}
