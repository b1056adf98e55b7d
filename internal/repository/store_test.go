package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/database"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

func newEvent(total int, price string) *model.Event {
	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	return &model.Event{
		ID:               uuid.NewString(),
		OrganizerID:      uuid.NewString(),
		Title:            "Go Meetup",
		Location:         "Bengaluru",
		StartDate:        start,
		EndDate:          start.Add(3 * time.Hour),
		Category:         "tech",
		TotalTickets:     total,
		AvailableTickets: total,
		TicketPrice:      decimal.RequireFromString(price),
		Status:           model.EventActive,
		CreatedAt:        time.Now().UTC().Truncate(time.Second),
	}
}

// runStoreSuite exercises the behaviour both Store implementations must share.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("reserve decrements and reports remaining", func(t *testing.T) {
		s := newStore(t)
		e := newEvent(5, "10.00")
		require.NoError(t, s.CreateEvent(ctx, e))

		left, err := s.ReserveTickets(ctx, e.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 2, left)

		_, err = s.ReserveTickets(ctx, e.ID, 3)
		inv, ok := model.AsInsufficientInventory(err)
		require.True(t, ok, "want insufficient inventory, got %v", err)
		assert.Equal(t, 2, inv.Available)
		assert.Equal(t, 3, inv.Requested)

		got, err := s.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.AvailableTickets)
	})

	t.Run("reserve on missing event", func(t *testing.T) {
		s := newStore(t)
		_, err := s.ReserveTickets(ctx, uuid.NewString(), 1)
		assert.ErrorIs(t, err, model.ErrEventNotBookable)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("reserve on cancelled event", func(t *testing.T) {
		s := newStore(t)
		e := newEvent(5, "0")
		e.Status = model.EventCancelled
		require.NoError(t, s.CreateEvent(ctx, e))

		_, err := s.ReserveTickets(ctx, e.ID, 1)
		assert.ErrorIs(t, err, model.ErrEventNotBookable)
		assert.NotErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("release caps at total", func(t *testing.T) {
		s := newStore(t)
		e := newEvent(4, "0")
		require.NoError(t, s.CreateEvent(ctx, e))

		_, err := s.ReserveTickets(ctx, e.ID, 1)
		require.NoError(t, err)

		avail, err := s.ReleaseTickets(ctx, e.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 4, avail)

		_, err = s.ReleaseTickets(ctx, uuid.NewString(), 1)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("concurrent reserves never oversell", func(t *testing.T) {
		s := newStore(t)
		e := newEvent(10, "0")
		require.NoError(t, s.CreateEvent(ctx, e))

		var (
			wg   sync.WaitGroup
			won  atomic.Int32
			lost atomic.Int32
		)
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.ReserveTickets(ctx, e.ID, 1)
				if err == nil {
					won.Add(1)
					return
				}
				if _, ok := model.AsInsufficientInventory(err); ok {
					lost.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 10, won.Load())
		assert.EqualValues(t, 40, lost.Load())
		got, err := s.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.AvailableTickets)
	})

	t.Run("update event keeps ticket counts", func(t *testing.T) {
		s := newStore(t)
		e := newEvent(8, "5.50")
		require.NoError(t, s.CreateEvent(ctx, e))
		_, err := s.ReserveTickets(ctx, e.ID, 2)
		require.NoError(t, err)

		title := "Renamed"
		price := decimal.RequireFromString("7.25")
		got, err := s.UpdateEvent(ctx, e.ID, model.EventUpdate{Title: &title, TicketPrice: &price})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.True(t, price.Equal(got.TicketPrice))
		assert.Equal(t, 6, got.AvailableTickets)
		assert.Equal(t, 8, got.TotalTickets)

		_, err = s.UpdateEvent(ctx, uuid.NewString(), model.EventUpdate{Title: &title})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("ticket transition is guarded", func(t *testing.T) {
		s := newStore(t)
		tk := &model.Ticket{
			ID:           uuid.NewString(),
			EventID:      uuid.NewString(),
			UserID:       uuid.NewString(),
			Quantity:     2,
			TotalAmount:  decimal.RequireFromString("20.00"),
			PurchaseDate: time.Now().UTC(),
			Status:       model.TicketValid,
		}
		require.NoError(t, s.CreateTicket(ctx, tk))

		got, err := s.TransitionTicket(ctx, tk.ID, model.TicketValid, model.TicketCancelled)
		require.NoError(t, err)
		assert.Equal(t, model.TicketCancelled, got.Status)

		_, err = s.TransitionTicket(ctx, tk.ID, model.TicketValid, model.TicketCancelled)
		assert.ErrorIs(t, err, model.ErrConflict)

		_, err = s.TransitionTicket(ctx, uuid.NewString(), model.TicketValid, model.TicketCancelled)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("payments are unique per order", func(t *testing.T) {
		s := newStore(t)
		p := &model.Payment{
			ID:              uuid.NewString(),
			UserID:          uuid.NewString(),
			ProviderOrderID: "order_" + uuid.NewString(),
			Amount:          decimal.RequireFromString("99.00"),
			Currency:        "INR",
			Status:          model.PaymentCreated,
			PaymentDate:     time.Now().UTC(),
		}
		require.NoError(t, s.CreatePayment(ctx, p))

		dup := *p
		dup.ID = uuid.NewString()
		assert.ErrorIs(t, s.CreatePayment(ctx, &dup), model.ErrConflict)

		ticketID := uuid.NewString()
		status := model.PaymentCaptured
		_, err := s.UpdatePayment(ctx, p.ID, model.PaymentUpdate{Status: &status, TicketID: &ticketID})
		require.NoError(t, err)

		got, err := s.GetPaymentByTicketID(ctx, ticketID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, model.PaymentCaptured, got.Status)

		got, err = s.GetPaymentByOrderID(ctx, p.ProviderOrderID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
	})

	t.Run("category count floors at zero", func(t *testing.T) {
		s := newStore(t)
		name := "music-" + uuid.NewString()[:8]
		require.NoError(t, s.CreateCategory(ctx, &model.Category{ID: uuid.NewString(), Name: name, Icon: "music"}))

		require.NoError(t, s.AdjustCategoryEventCount(ctx, name, 1))
		require.NoError(t, s.AdjustCategoryEventCount(ctx, name, -3))

		c, err := s.GetCategoryByName(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, 0, c.EventCount)

		assert.ErrorIs(t, s.AdjustCategoryEventCount(ctx, "missing-"+name, 1), model.ErrNotFound)
	})

	t.Run("duplicate users conflict", func(t *testing.T) {
		s := newStore(t)
		suffix := uuid.NewString()[:8]
		u := &model.User{
			ID:        uuid.NewString(),
			Username:  "alice" + suffix,
			Email:     "alice" + suffix + "@example.com",
			FullName:  "Alice",
			Role:      model.RoleAttendee,
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, s.CreateUser(ctx, u))

		dup := *u
		dup.ID = uuid.NewString()
		dup.Email = "other" + suffix + "@example.com"
		err := s.CreateUser(ctx, &dup)
		assert.True(t, errors.Is(err, model.ErrConflict))

		got, err := s.GetUserByUsername(ctx, u.Username)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(*testing.T) Store { return NewMemory() })
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.Migrate(ctx, pool))

	runStoreSuite(t, func(*testing.T) Store { return NewPostgres(pool) })
}
