package repository_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Baaaki/apartment-booking/internal/booking"
	"github.com/Baaaki/apartment-booking/internal/config"
	"github.com/Baaaki/apartment-booking/internal/database"
	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// Runs against a real PostgreSQL in Docker: BOOKING_PG_INTEGRATION=1 go test ./internal/repository/
func TestPostgresOverlapConstraint(t *testing.T) {
	if os.Getenv("BOOKING_PG_INTEGRATION") != "1" {
		t.Skip("set BOOKING_PG_INTEGRATION=1 to run PostgreSQL integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("booking"),
		tcpostgres.WithUsername("booking"),
		tcpostgres.WithPassword("booking"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Connect(ctx, &config.Config{DatabaseURL: dsn, DatabaseDriver: "postgres"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db))

	store := repository.NewStore(db)

	guest := &models.User{Name: "Guest", Email: "guest@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, store.Users.CreateUser(ctx, guest))
	apt := &models.Apartment{Title: "Harbour Flat", Location: "Istanbul", Price: 100, Capacity: 2}
	require.NoError(t, store.Apartments.Create(ctx, apt))

	reserve := func(from, to int, status models.ReservationStatus) error {
		return store.Reservations.Create(ctx, &models.Reservation{
			UserID:      guest.ID,
			ApartmentID: apt.ID,
			StartTime:   day(from),
			EndTime:     day(to),
			Status:      status,
		})
	}

	require.NoError(t, reserve(10, 15, models.ReservationConfirmed))

	t.Run("overlap rejected by constraint", func(t *testing.T) {
		err := reserve(12, 18, models.ReservationPending)
		require.Error(t, err)
		assert.True(t, repository.IsOverlapViolation(err))
	})

	t.Run("back-to-back accepted", func(t *testing.T) {
		assert.NoError(t, reserve(15, 17, models.ReservationPending))
		assert.NoError(t, reserve(8, 10, models.ReservationPending))
	})

	t.Run("inactive rows are outside the constraint", func(t *testing.T) {
		assert.NoError(t, reserve(11, 12, models.ReservationCancelled))
	})

	t.Run("duplicate email translated", func(t *testing.T) {
		err := store.Users.CreateUser(ctx, &models.User{Name: "Copy", Email: guest.Email, PasswordHash: "x", Role: models.RoleUser})
		assert.True(t, repository.IsDuplicate(err))
	})

	t.Run("apartment lock serializes concurrent bookings", func(t *testing.T) {
		const workers = 6
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := store.Transaction(ctx, func(tx *repository.Store) error {
					if _, err := tx.Apartments.GetForUpdate(ctx, apt.ID); err != nil {
						return err
					}
					rng := mustRange(t, day(20), day(25))
					n, err := tx.Reservations.CountConflicts(ctx, apt.ID, rng)
					if err != nil {
						return err
					}
					if n > 0 {
						return nil
					}
					if err := tx.Reservations.Create(ctx, &models.Reservation{
						UserID: guest.ID, ApartmentID: apt.ID,
						StartTime: rng.Start, EndTime: rng.End,
						Status: models.ReservationPending,
					}); err != nil {
						return err
					}
					mu.Lock()
					created++
					mu.Unlock()
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, created)
	})
}

func mustRange(t *testing.T, start, end time.Time) booking.Range {
	t.Helper()
	rng, err := booking.NewRange(start, end)
	require.NoError(t, err)
	return rng
}
