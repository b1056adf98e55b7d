package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/inventory"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/notify"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/payment"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
)

type fakeProvider struct {
	mu        sync.Mutex
	verifyErr error
	orderErr  error
	// When set, VerifyPayment signals entered and waits for release.
	entered chan struct{}
	release chan struct{}
	orders  int
}

func (f *fakeProvider) Mode() string { return "fake" }

func (f *fakeProvider) CreateOrder(_ context.Context, req payment.OrderRequest) (*payment.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	f.orders++
	return &payment.Order{
		ID:       fmt.Sprintf("order_%d_%s", f.orders, req.Receipt[:8]),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}

func (f *fakeProvider) VerifyPayment(_ context.Context, v payment.Verification) error {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return f.verifyErr
	}
	if v.Signature == "bad" {
		return fmt.Errorf("signature mismatch: %w", model.ErrPaymentVerificationFailed)
	}
	return nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []notify.BookingConfirmed
	cancelled []notify.BookingCancelled
}

func (r *recordingNotifier) BookingConfirmed(_ context.Context, m notify.BookingConfirmed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confirmed = append(r.confirmed, m)
}

func (r *recordingNotifier) BookingCancelled(_ context.Context, m notify.BookingCancelled) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, m)
}

// failingStore fails ticket writes or inventory releases on demand.
type failingStore struct {
	*repository.Memory
	failTickets  bool
	failReleases bool
}

func (s *failingStore) ReleaseTickets(ctx context.Context, eventID string, quantity int) (int, error) {
	if s.failReleases {
		return 0, errors.New("db down")
	}
	return s.Memory.ReleaseTickets(ctx, eventID, quantity)
}

func (s *failingStore) CreateTicket(ctx context.Context, t *model.Ticket) error {
	if s.failTickets {
		return errors.New("disk full")
	}
	return s.Memory.CreateTicket(ctx, t)
}

type fixture struct {
	store    *failingStore
	provider *fakeProvider
	notifier *recordingNotifier
	orch     *Orchestrator
	attendee *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &failingStore{Memory: repository.NewMemory()}
	provider := &fakeProvider{}
	notifier := &recordingNotifier{}
	guard := inventory.NewGuard(store, inventory.Config{HoldTTL: time.Minute}, nil, nil)
	orch := New(store, guard, provider, notifier, Config{
		Currency:        "INR",
		ProviderTimeout: 200 * time.Millisecond,
		Retention:       time.Minute,
	}, nil, nil)

	attendee := &model.User{
		ID: uuid.NewString(), Username: "asha", Email: "asha@example.com",
		FullName: "Asha Rao", Role: model.RoleAttendee, CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateUser(context.Background(), attendee))

	return &fixture{store: store, provider: provider, notifier: notifier, orch: orch, attendee: attendee}
}

func (f *fixture) event(t *testing.T, total int, price string) *model.Event {
	t.Helper()
	e := &model.Event{
		ID:               uuid.NewString(),
		OrganizerID:      uuid.NewString(),
		Title:            "Indie Fest",
		Location:         "Goa",
		StartDate:        time.Now().Add(24 * time.Hour),
		EndDate:          time.Now().Add(30 * time.Hour),
		Category:         "music",
		TotalTickets:     total,
		AvailableTickets: total,
		TicketPrice:      decimal.RequireFromString(price),
		Status:           model.EventActive,
		CreatedAt:        time.Now(),
	}
	require.NoError(t, f.store.CreateEvent(context.Background(), e))
	return e
}

func (f *fixture) available(t *testing.T, eventID string) int {
	t.Helper()
	e, err := f.store.GetEvent(context.Background(), eventID)
	require.NoError(t, err)
	return e.AvailableTickets
}

func (f *fixture) paymentFor(t *testing.T, b *Booking) *model.Payment {
	t.Helper()
	p, err := f.store.GetPayment(context.Background(), b.PaymentID)
	require.NoError(t, err)
	return p
}

func TestHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 10, "500")

	b, err := f.orch.InitiateBooking(ctx, f.attendee.ID, ev.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, StateReserved, b.State)
	assert.Equal(t, "1000.00", b.Amount.StringFixed(2))
	assert.Equal(t, 8, f.available(t, ev.ID))

	res, err := f.orch.CreatePaymentIntent(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	assert.Equal(t, StatePaymentPending, res.Booking.State)
	assert.Equal(t, model.PaymentCreated, f.paymentFor(t, res.Booking).Status)

	ticket, err := f.orch.ConfirmPayment(ctx, b.ID, "pay_123", "good")
	require.NoError(t, err)
	assert.Equal(t, model.TicketValid, ticket.Status)
	assert.Equal(t, "1000.00", ticket.TotalAmount.StringFixed(2))
	assert.Equal(t, 2, ticket.Quantity)

	p := f.paymentFor(t, res.Booking)
	assert.Equal(t, model.PaymentCaptured, p.Status)
	require.NotNil(t, p.TicketID)
	assert.Equal(t, ticket.ID, *p.TicketID)
	assert.Equal(t, "pay_123", p.ProviderPaymentID)

	assert.Equal(t, 8, f.available(t, ev.ID))

	got, err := f.orch.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, got.State)
	assert.Equal(t, ticket.ID, got.TicketID)

	require.Len(t, f.notifier.confirmed, 1)
	assert.Equal(t, "asha@example.com", f.notifier.confirmed[0].Attendee.Email)
	assert.Equal(t, "Indie Fest", f.notifier.confirmed[0].EventTitle)

	again, err := f.orch.ConfirmPayment(ctx, b.ID, "pay_123", "good")
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, again.ID)
}

func TestOverbookRejection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 1, "500")

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.orch.InitiateBooking(ctx, f.attendee.ID, ev.ID, 1)
		}()
	}
	wg.Wait()

	succeeded, insufficient := 0, 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		if _, ok := model.AsInsufficientInventory(err); ok {
			insufficient++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, 0, f.available(t, ev.ID))
}

func TestPaymentFailureRollback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 5, "250")

	b, err := f.orch.InitiateBooking(ctx, f.attendee.ID, ev.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, f.available(t, ev.ID))

	res, err := f.orch.CreatePaymentIntent(ctx, b.ID)
	require.NoError(t, err)

	_, err = f.orch.ConfirmPayment(ctx, b.ID, "pay_1", "bad")
	require.ErrorIs(t, err, model.ErrPaymentVerificationFailed)

	assert.Equal(t, 5, f.available(t, ev.ID))
	tickets, err := f.store.ListTicketsByEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Empty(t, tickets)
	assert.Equal(t, model.PaymentFailed, f.paymentFor(t, res.Booking).Status)

	got, err := f.orch.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, StateReleased, got.State)

	_, err = f.orch.ConfirmPayment(ctx, b.ID, "pay_1", "good")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.Equal(t, 5, f.available(t, ev.ID))
}

func TestFreeEventSkipsPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 50, "0")

	res, err := f.orch.Book(ctx, f.attendee.ID, ev.ID, 4)
	require.NoError(t, err)
	require.NotNil(t, res.Ticket)
	assert.Nil(t, res.Order)
	assert.True(t, res.Ticket.TotalAmount.IsZero())
	assert.Equal(t, StateConfirmed, res.Booking.State)
	assert.Equal(t, 46, f.available(t, ev.ID))
	assert.Zero(t, f.provider.orders)

	payments, err := f.store.ListPaymentsByUser(ctx, f.attendee.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestAmountFrozenAtReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 10, "500")

	res, err := f.orch.Book(ctx, f.attendee.ID, ev.ID, 2)
	require.NoError(t, err)

	newPrice := decimal.NewFromInt(800)
	_, err = f.store.UpdateEvent(ctx, ev.ID, model.EventUpdate{TicketPrice: &newPrice})
	require.NoError(t, err)

	ticket, err := f.orch.ConfirmPayment(ctx, res.Booking.ID, "pay_9", "good")
	require.NoError(t, err)
	assert.Equal(t, "1000.00", ticket.TotalAmount.StringFixed(2))

	stored, err := f.store.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", stored.TotalAmount.StringFixed(2))
}

func TestRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	active := f.event(t, 3, "100")
	cancelled := f.event(t, 3, "100")
	status := model.EventCancelled
	_, err := f.store.UpdateEvent(ctx, cancelled.ID, model.EventUpdate{Status: &status})
	require.NoError(t, err)

	tests := []struct {
		name     string
		eventID  string
		quantity int
		check    func(t *testing.T, err error)
	}{
		{"missing event", uuid.NewString(), 1, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, model.ErrEventNotBookable)
			assert.ErrorIs(t, err, model.ErrNotFound)
		}},
		{"cancelled event", cancelled.ID, 1, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, model.ErrEventNotBookable)
			assert.NotErrorIs(t, err, model.ErrNotFound)
		}},
		{"zero quantity", active.ID, 0, func(t *testing.T, err error) {
			assert.True(t, model.IsValidation(err))
		}},
		{"more than capacity", active.ID, 4, func(t *testing.T, err error) {
			inv, ok := model.AsInsufficientInventory(err)
			require.True(t, ok)
			assert.Equal(t, 3, inv.Available)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := f.orch.InitiateBooking(ctx, f.attendee.ID, tt.eventID, tt.quantity)
			require.Error(t, err)
			tt.check(t, err)
			require.NotNil(t, b)
			assert.Equal(t, StateRejected, b.State)
			assert.NotEmpty(t, b.Reason)
		})
	}
	assert.Equal(t, 3, f.available(t, active.ID))
}

func TestLargeQuantityBoundedOnlyByAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 500, "10")

	b, err := f.orch.InitiateBooking(ctx, f.attendee.ID, ev.ID, 150)
	require.NoError(t, err)
	assert.Equal(t, StateReserved, b.State)
	assert.Equal(t, "1500.00", b.Amount.StringFixed(2))
	assert.Equal(t, 350, f.available(t, ev.ID))

	_, err = f.orch.InitiateBooking(ctx, f.attendee.ID, ev.ID, 351)
	inv, ok := model.AsInsufficientInventory(err)
	require.True(t, ok)
	assert.Equal(t, 350, inv.Available)
}

func TestConfirmTimeoutReleases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 5, "100")
	f.provider.entered = make(chan struct{}, 1)
	f.provider.release = make(chan struct{})
	defer close(f.provider.release)

	res, err := f.orch.Book(ctx, f.attendee.ID, ev.ID, 2)
	require.NoError(t, err)

	_, err = f.orch.ConfirmPayment(ctx, res.Booking.ID, "pay_1", "good")
	var unavailable *model.ProviderUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, 5, f.available(t, ev.ID))
	assert.Equal(t, model.PaymentFailed, f.paymentFor(t, res.Booking).Status)
	got, err := f.orch.Get(res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, StateReleased, got.State)
}

func TestProviderErrorOnOrderReleases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 5, "100")
	f.provider.orderErr = errors.New("503 from gateway")

	_, err := f.orch.Book(ctx, f.attendee.ID, ev.ID, 2)
	var unavailable *model.ProviderUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 5, f.available(t, ev.ID))
}

func TestProviderRefusalOnOrderReleases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 5, "100")
	f.provider.orderErr = fmt.Errorf("create order: %w", model.ErrProviderRejected)

	_, err := f.orch.Book(ctx, f.attendee.ID, ev.ID, 2)
	require.ErrorIs(t, err, model.ErrProviderRejected)
	var unavailable *model.ProviderUnavailableError
	assert.False(t, errors.As(err, &unavailable))
	assert.Equal(t, 5, f.available(t, ev.ID))
}

func TestPartialBookingFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 5, "100")

	res, err := f.orch.Book(ctx, f.attendee.ID, ev.ID, 2)
	require.NoError(t, err)
	f.store.failTickets = true

	_, err = f.orch.ConfirmPayment(ctx, res.Booking.ID, "pay_1", "good")
	var partial *model.PartialBookingFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, res.Booking.ID, partial.BookingID)
	assert.Equal(t, "create_ticket", partial.Stage)
	assert.Equal(t, 2, partial.Quantity)

	// Inventory stays committed; nothing silently undoes it.
	assert.Equal(t, 3, f.available(t, ev.ID))

	_, err = f.orch.ConfirmPayment(ctx, res.Booking.ID, "pay_1", "good")
	require.ErrorAs(t, err, &partial)
	_, err = f.orch.CancelPending(ctx, res.Booking.ID)
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 3, f.available(t, ev.ID))
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 10, "300")

	res, err := f.orch.Book(ctx, f.attendee.ID, ev.ID, 3)
	require.NoError(t, err)
	ticket, err := f.orch.ConfirmPayment(ctx, res.Booking.ID, "pay_1", "good")
	require.NoError(t, err)
	assert.Equal(t, 7, f.available(t, ev.ID))

	cancelled, err := f.orch.CancelBooking(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketCancelled, cancelled.Status)
	assert.Equal(t, 10, f.available(t, ev.ID))
	assert.Equal(t, model.PaymentRefunded, f.paymentFor(t, res.Booking).Status)
	require.Len(t, f.notifier.cancelled, 1)
	assert.True(t, f.notifier.cancelled[0].Refunded)

	_, err = f.orch.CancelBooking(ctx, ticket.ID)
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.Equal(t, 10, f.available(t, ev.ID))

	_, err = f.orch.CancelBooking(ctx, uuid.NewString())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCancelPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 4, "100")

	res, err := f.orch.Book(ctx, f.attendee.ID, ev.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, f.available(t, ev.ID))

	b, err := f.orch.CancelPending(ctx, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, StateReleased, b.State)
	assert.Equal(t, 4, f.available(t, ev.ID))
	assert.Equal(t, model.PaymentFailed, f.paymentFor(t, res.Booking).Status)

	b, err = f.orch.CancelPending(ctx, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, StateReleased, b.State)
	assert.Equal(t, 4, f.available(t, ev.ID))

	_, err = f.orch.CancelPending(ctx, uuid.NewString())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCancelWaitsForInFlightConfirm(t *testing.T) {
	f := newFixture(t)
	f.orch.cfg.ProviderTimeout = 5 * time.Second
	ctx := context.Background()
	ev := f.event(t, 5, "100")
	f.provider.entered = make(chan struct{}, 1)
	f.provider.release = make(chan struct{})

	res, err := f.orch.Book(ctx, f.attendee.ID, ev.ID, 1)
	require.NoError(t, err)

	confirmErr := make(chan error, 1)
	go func() {
		_, err := f.orch.ConfirmPayment(ctx, res.Booking.ID, "pay_1", "good")
		confirmErr <- err
	}()
	<-f.provider.entered

	cancelErr := make(chan error, 1)
	go func() {
		_, err := f.orch.CancelPending(ctx, res.Booking.ID)
		cancelErr <- err
	}()

	select {
	case <-cancelErr:
		t.Fatal("cancel returned while confirmation was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(f.provider.release)
	require.NoError(t, <-confirmErr)
	require.NoError(t, <-cancelErr)

	got, err := f.orch.Get(res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, got.State)
	ticket, err := f.store.GetTicket(ctx, got.TicketID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketCancelled, ticket.Status)
	assert.Equal(t, 5, f.available(t, ev.ID))
	assert.Equal(t, model.PaymentRefunded, f.paymentFor(t, res.Booking).Status)

	b, err := f.orch.CancelPending(ctx, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, b.State)
	assert.Equal(t, 5, f.available(t, ev.ID))
}

func TestReaperReleasesExpiredHolds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 5, "100")

	pending, err := f.orch.Book(ctx, f.attendee.ID, ev.ID, 2)
	require.NoError(t, err)
	free := f.event(t, 5, "0")
	_, err = f.orch.Book(ctx, f.attendee.ID, free.ID, 1)
	require.NoError(t, err)

	assert.Zero(t, f.orch.ReapExpired(ctx), "nothing has expired yet")

	f.orch.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.Equal(t, 1, f.orch.ReapExpired(ctx))
	assert.Equal(t, 5, f.available(t, ev.ID))
	assert.Equal(t, 4, f.available(t, free.ID))

	got, err := f.orch.Get(pending.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, StateReleased, got.State)
	assert.Equal(t, "reservation hold expired", got.Reason)

	// Finished bookings are forgotten once retention has passed.
	f.orch.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	f.orch.ReapExpired(ctx)
	_, err = f.orch.Get(pending.Booking.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = f.orch.FindByOrder(pending.Booking.OrderID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestReaperSkipsBookingMidConfirmation(t *testing.T) {
	f := newFixture(t)
	f.orch.cfg.ProviderTimeout = 5 * time.Second
	ctx := context.Background()
	ev := f.event(t, 5, "100")
	f.provider.entered = make(chan struct{}, 1)
	f.provider.release = make(chan struct{})

	res, err := f.orch.Book(ctx, f.attendee.ID, ev.ID, 2)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.ConfirmPayment(ctx, res.Booking.ID, "pay_1", "good")
		done <- err
	}()
	<-f.provider.entered

	f.orch.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.Zero(t, f.orch.ReapExpired(ctx))

	close(f.provider.release)
	require.NoError(t, <-done)
	assert.Equal(t, 3, f.available(t, ev.ID))
}

func TestVerifyOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 5, "100")

	res, err := f.orch.Book(ctx, f.attendee.ID, ev.ID, 1)
	require.NoError(t, err)

	_, err = f.orch.VerifyOrder(ctx, uuid.NewString(), model.RoleAttendee, res.Order.ID, "pay_1", "good")
	assert.ErrorIs(t, err, model.ErrForbidden)

	ticket, err := f.orch.VerifyOrder(ctx, f.attendee.ID, model.RoleAttendee, res.Order.ID, "pay_1", "good")
	require.NoError(t, err)
	require.NotNil(t, ticket)

	order, err := f.orch.CreateOrder(ctx, f.attendee.ID, decimal.NewFromInt(250), "", "")
	require.NoError(t, err)
	assert.Equal(t, "INR", order.Currency)

	ticket, err = f.orch.VerifyOrder(ctx, f.attendee.ID, model.RoleAttendee, order.ID, "pay_2", "bad")
	assert.Nil(t, ticket)
	assert.ErrorIs(t, err, model.ErrPaymentVerificationFailed)

	p, err := f.store.GetPaymentByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, p.Status)

	_, err = f.orch.VerifyOrder(ctx, f.attendee.ID, model.RoleAttendee, "order_unknown", "pay_3", "good")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestVerifyOrderForUntrackedBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 10, "500")

	res, err := f.orch.Book(ctx, f.attendee.ID, ev.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, res.Booking.ID, f.paymentFor(t, res.Booking).BookingID)

	// A second process over the same records knows nothing of the booking.
	guard := inventory.NewGuard(f.store, inventory.Config{HoldTTL: time.Minute}, nil, nil)
	restarted := New(f.store, guard, f.provider, f.notifier, Config{Currency: "INR"}, nil, nil)

	ticket, err := restarted.VerifyOrder(ctx, f.attendee.ID, model.RoleAttendee, res.Order.ID, "pay_1", "good")
	assert.Nil(t, ticket)
	var partial *model.PartialBookingFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, res.Booking.ID, partial.BookingID)
	assert.Equal(t, "verify", partial.Stage)

	p := f.paymentFor(t, res.Booking)
	assert.Equal(t, model.PaymentCreated, p.Status)
	assert.Nil(t, p.TicketID)

	tickets, err := f.store.ListTicketsByEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Empty(t, tickets)
	assert.Empty(t, f.notifier.confirmed)
}

func TestVerifyOrderAlreadyCapturedReturnsTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 10, "500")

	res, err := f.orch.Book(ctx, f.attendee.ID, ev.ID, 1)
	require.NoError(t, err)
	issued, err := f.orch.ConfirmPayment(ctx, res.Booking.ID, "pay_1", "good")
	require.NoError(t, err)

	guard := inventory.NewGuard(f.store, inventory.Config{HoldTTL: time.Minute}, nil, nil)
	restarted := New(f.store, guard, f.provider, f.notifier, Config{Currency: "INR"}, nil, nil)

	ticket, err := restarted.VerifyOrder(ctx, f.attendee.ID, model.RoleAttendee, res.Order.ID, "pay_1", "good")
	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, issued.ID, ticket.ID)
}

func TestCancelBookingRestoresTicketWhenReleaseFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 5, "0")

	res, err := f.orch.Book(ctx, f.attendee.ID, ev.ID, 2)
	require.NoError(t, err)
	require.NotNil(t, res.Ticket)
	assert.Equal(t, 3, f.available(t, ev.ID))

	f.store.failReleases = true
	_, err = f.orch.CancelBooking(ctx, res.Ticket.ID)
	require.Error(t, err)

	got, err := f.store.GetTicket(ctx, res.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketValid, got.Status)
	assert.Equal(t, 3, f.available(t, ev.ID))
	assert.Empty(t, f.notifier.cancelled)

	f.store.failReleases = false
	cancelled, err := f.orch.CancelBooking(ctx, res.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketCancelled, cancelled.Status)
	assert.Equal(t, 5, f.available(t, ev.ID))
}
