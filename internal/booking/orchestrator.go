// Package booking drives a purchase from reservation through payment to an
// issued ticket, and undoes the reservation when any step fails.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/inventory"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/notify"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/payment"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
)

// Notifier receives booking side effects. Implementations must not block for long
// and must swallow their own failures.
type Notifier interface {
	BookingConfirmed(ctx context.Context, m notify.BookingConfirmed)
	BookingCancelled(ctx context.Context, m notify.BookingCancelled)
}

// Config tunes the orchestrator.
type Config struct {
	Currency        string
	ProviderTimeout time.Duration
	// Retention is how long finished bookings stay queryable.
	Retention time.Duration
}

// Booking is a snapshot of one booking attempt.
type Booking struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	EventID   string          `json:"eventId"`
	Quantity  int             `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	State     State           `json:"state"`
	Reason    string          `json:"reason,omitempty"`
	OrderID   string          `json:"orderId,omitempty"`
	PaymentID string          `json:"paymentId,omitempty"`
	TicketID  string          `json:"ticketId,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Free reports whether the booking needs no payment.
func (b *Booking) Free() bool {
	return b.Amount.IsZero()
}

// Result is what a booking step hands back to the caller.
type Result struct {
	Booking *Booking       `json:"booking"`
	Order   *payment.Order `json:"order,omitempty"`
	Ticket  *model.Ticket  `json:"ticket,omitempty"`
}

type eventInfo struct {
	title       string
	location    string
	startDate   time.Time
	organizerID string
}

// entry is the live booking. mu is held for the whole of any operation on
// it, so a cancel issued during confirmPayment waits for the provider call to
// finish instead of interrupting it.
type entry struct {
	mu         sync.Mutex
	b          Booking
	token      *inventory.Token
	event      eventInfo
	order      *payment.Order
	ticket     *model.Ticket
	partial    error
	finishedAt time.Time
}

func (e *entry) snapshot() *Booking {
	b := e.b
	return &b
}

// Orchestrator coordinates the inventory guard, the payment provider and the record store.
type Orchestrator struct {
	store    repository.Store
	guard    *inventory.Guard
	provider payment.Provider
	notifier Notifier
	cfg      Config
	log      *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	mu       sync.RWMutex
	bookings map[string]*entry
	byOrder  map[string]string
}

// New constructs an Orchestrator.
func New(
	store repository.Store,
	guard *inventory.Guard,
	provider payment.Provider,
	notifier Notifier,
	cfg Config,
	log *zap.Logger,
	m *metrics.Metrics,
) *Orchestrator {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 10 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 15 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		store:    store,
		guard:    guard,
		provider: provider,
		notifier: notifier,
		cfg:      cfg,
		log:      log.Named("booking"),
		metrics:  m,
		now:      time.Now,
		bookings: make(map[string]*entry),
		byOrder:  make(map[string]string),
	}
}

// ─── Registry ────────────────────────────────────────────────────────────────

func (o *Orchestrator) register(e *entry) {
	o.mu.Lock()
	o.bookings[e.b.ID] = e
	o.mu.Unlock()
}

func (o *Orchestrator) indexOrder(orderID, bookingID string) {
	o.mu.Lock()
	o.byOrder[orderID] = bookingID
	o.mu.Unlock()
}

func (o *Orchestrator) lookup(id string) (*entry, error) {
	o.mu.RLock()
	e, ok := o.bookings[id]
	o.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, model.ErrNotFound)
	}
	return e, nil
}

func (o *Orchestrator) forget(e *entry) {
	o.mu.Lock()
	delete(o.bookings, e.b.ID)
	if e.b.OrderID != "" {
		delete(o.byOrder, e.b.OrderID)
	}
	o.mu.Unlock()
}

func (o *Orchestrator) entries() []*entry {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*entry, 0, len(o.bookings))
	for _, e := range o.bookings {
		out = append(out, e)
	}
	return out
}

// Get returns a snapshot of the booking.
func (o *Orchestrator) Get(id string) (*Booking, error) {
	e, err := o.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(), nil
}

// FindByOrder returns the booking that owns a provider order.
func (o *Orchestrator) FindByOrder(orderID string) (*Booking, error) {
	o.mu.RLock()
	id, ok := o.byOrder[orderID]
	o.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("booking for order %s: %w", orderID, model.ErrNotFound)
	}
	return o.Get(id)
}

func (o *Orchestrator) transition(e *entry, next State) error {
	if !e.b.State.CanTransitionTo(next) {
		return fmt.Errorf("booking %s: %s -> %s: %w", e.b.ID, e.b.State, next, model.ErrInvalidTransition)
	}
	e.b.State = next
	if next.Terminal() {
		e.finishedAt = o.now()
	}
	return nil
}

// ─── Operations ──────────────────────────────────────────────────────────────

// InitiateBooking reserves quantity tickets for userID. On rejection the
// returned booking is REJECTED and the error says why.
func (o *Orchestrator) InitiateBooking(ctx context.Context, userID, eventID string, quantity int) (*Booking, error) {
	e := &entry{b: Booking{
		ID:        uuid.NewString(),
		UserID:    userID,
		EventID:   eventID,
		Quantity:  quantity,
		Currency:  o.cfg.Currency,
		State:     StateInitiated,
		CreatedAt: o.now(),
	}}
	log := o.log.With(zap.String("booking_id", e.b.ID), zap.String("event_id", eventID), zap.String("user_id", userID))

	reject := func(err error) (*Booking, error) {
		_ = o.transition(e, StateRejected)
		e.b.Reason = err.Error()
		o.metrics.Booking(metrics.OutcomeRejected)
		log.Info("booking rejected", zap.Int("quantity", quantity), zap.Error(err))
		return e.snapshot(), err
	}

	if err := model.ValidateQuantity(quantity); err != nil {
		return reject(err)
	}

	ev, err := o.store.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return reject(fmt.Errorf("event %s: %w: %w", eventID, model.ErrEventNotBookable, model.ErrNotFound))
		}
		return nil, fmt.Errorf("load event: %w", err)
	}
	if !ev.Bookable() {
		return reject(fmt.Errorf("event %s is %s: %w", eventID, ev.Status, model.ErrEventNotBookable))
	}
	if quantity > ev.TotalTickets {
		return reject(&model.InsufficientInventoryError{Available: ev.AvailableTickets, Requested: quantity})
	}

	tok, err := o.guard.Reserve(ctx, eventID, quantity)
	if err != nil {
		var insufficient *model.InsufficientInventoryError
		if errors.As(err, &insufficient) || errors.Is(err, model.ErrEventNotBookable) || model.IsValidation(err) {
			return reject(err)
		}
		return nil, fmt.Errorf("reserve: %w", err)
	}

	e.token = tok
	e.b.Amount = ev.TicketPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	e.b.ExpiresAt = tok.ExpiresAt
	e.event = eventInfo{
		title:       ev.Title,
		location:    ev.Location,
		startDate:   ev.StartDate,
		organizerID: ev.OrganizerID,
	}
	if err := o.transition(e, StateReserved); err != nil {
		return nil, err
	}
	o.register(e)

	log.Info("booking reserved",
		zap.Int("quantity", quantity),
		zap.String("amount", e.b.Amount.StringFixed(2)),
		zap.String("token_id", tok.ID),
	)
	return e.snapshot(), nil
}

// CreatePaymentIntent opens a provider order for the booking's frozen amount.
// Free bookings skip payment and are finalized straight away.
func (o *Orchestrator) CreatePaymentIntent(ctx context.Context, bookingID string) (*Result, error) {
	e, err := o.lookup(bookingID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.partial != nil {
		return nil, e.partial
	}
	switch e.b.State {
	case StatePaymentPending:
		return &Result{Booking: e.snapshot(), Order: e.order}, nil
	case StateConfirmed:
		return &Result{Booking: e.snapshot(), Order: e.order, Ticket: e.ticket}, nil
	case StateReserved:
	default:
		return nil, fmt.Errorf("booking %s is %s: %w", e.b.ID, e.b.State, model.ErrInvalidTransition)
	}

	if e.b.Free() {
		ticket, err := o.finalize(ctx, e, "")
		if err != nil {
			return nil, err
		}
		return &Result{Booking: e.snapshot(), Ticket: ticket}, nil
	}

	order, err := callProvider(o, ctx, "create_order", func(ctx context.Context) (*payment.Order, error) {
		return o.provider.CreateOrder(ctx, payment.OrderRequest{
			Amount:   e.b.Amount,
			Currency: e.b.Currency,
			Receipt:  e.b.ID,
		})
	})
	if err != nil {
		return nil, o.abort(ctx, e, "payment order could not be created", asUnavailable("create_order", err))
	}

	p := &model.Payment{
		ID:              uuid.NewString(),
		UserID:          e.b.UserID,
		BookingID:       e.b.ID,
		ProviderOrderID: order.ID,
		Amount:          e.b.Amount,
		Currency:        e.b.Currency,
		Status:          model.PaymentCreated,
		PaymentDate:     o.now(),
	}
	if err := o.store.CreatePayment(ctx, p); err != nil {
		return nil, o.abort(ctx, e, "payment record could not be saved", fmt.Errorf("save payment: %w", err))
	}

	e.order = order
	e.b.OrderID = order.ID
	e.b.PaymentID = p.ID
	if err := o.transition(e, StatePaymentPending); err != nil {
		return nil, err
	}
	o.indexOrder(order.ID, e.b.ID)

	o.log.Info("payment intent created",
		zap.String("booking_id", e.b.ID),
		zap.String("order_id", order.ID),
		zap.String("payment_mode", o.provider.Mode()),
	)
	return &Result{Booking: e.snapshot(), Order: order}, nil
}

// ConfirmPayment verifies the payment and issues the ticket, or releases the
// reservation when verification fails or the provider does not answer in time.
func (o *Orchestrator) ConfirmPayment(ctx context.Context, bookingID, providerPaymentRef, signature string) (*model.Ticket, error) {
	e, err := o.lookup(bookingID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.partial != nil {
		return nil, e.partial
	}
	switch e.b.State {
	case StateConfirmed:
		return e.ticket, nil
	case StatePaymentPending:
	default:
		return nil, fmt.Errorf("booking %s is %s: %w", e.b.ID, e.b.State, model.ErrInvalidTransition)
	}

	_, err = callProvider(o, ctx, "verify", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, o.provider.VerifyPayment(ctx, payment.Verification{
			OrderID:   e.b.OrderID,
			PaymentID: providerPaymentRef,
			Signature: signature,
			Amount:    e.b.Amount,
			Currency:  e.b.Currency,
		})
	})
	if err != nil {
		if errors.Is(err, model.ErrPaymentVerificationFailed) {
			return nil, o.abort(ctx, e, "payment verification failed", err)
		}
		if errors.Is(err, model.ErrProviderRejected) {
			return nil, o.abort(ctx, e, "payment provider rejected the request", err)
		}
		return nil, o.abort(ctx, e, "payment provider unavailable", asUnavailable("verify", err))
	}

	if o.provider.Mode() == payment.ModeMock {
		o.log.Warn("booking confirmed by mock payment provider",
			zap.String("booking_id", e.b.ID),
			zap.String("order_id", e.b.OrderID),
			zap.String("payment_mode", payment.ModeMock),
		)
	}
	return o.finalize(ctx, e, providerPaymentRef)
}

// CancelPending releases a booking. A confirmation already in flight is never
// interrupted: the cancel waits for it, and if it produced a ticket that
// ticket is cancelled instead.
func (o *Orchestrator) CancelPending(ctx context.Context, bookingID string) (*Booking, error) {
	e, err := o.lookup(bookingID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.partial != nil {
		return nil, e.partial
	}
	switch e.b.State {
	case StateReleased, StateRejected:
		return e.snapshot(), nil
	case StateConfirmed:
		if e.ticket.Status == model.TicketCancelled {
			return e.snapshot(), nil
		}
		t, err := o.CancelBooking(ctx, e.b.TicketID)
		if err != nil {
			return nil, err
		}
		e.ticket = t
		e.b.Reason = "ticket cancelled by user"
		return e.snapshot(), nil
	}

	if err := o.abort(ctx, e, "cancelled by user", nil); err != nil {
		return nil, err
	}
	return e.snapshot(), nil
}

// CancelBooking cancels an issued ticket and gives its seats back. A ticket
// that is not valid any more is refused, so the seats are returned at most once.
// When the seats cannot be returned the ticket is made valid again.
func (o *Orchestrator) CancelBooking(ctx context.Context, ticketID string) (*model.Ticket, error) {
	t, err := o.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status != model.TicketValid {
		return nil, fmt.Errorf("ticket %s is %s: %w", ticketID, t.Status, model.ErrConflict)
	}

	cancelled, err := o.store.TransitionTicket(ctx, ticketID, model.TicketValid, model.TicketCancelled)
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	log := o.log.With(zap.String("ticket_id", ticketID), zap.String("event_id", t.EventID))

	if err := o.guard.Release(ctx, o.guard.Reconstruct(t.EventID, t.Quantity)); err != nil {
		// Put the ticket back so the cancel can be retried.
		if _, rerr := o.store.TransitionTicket(ctx, ticketID, model.TicketCancelled, model.TicketValid); rerr != nil {
			log.Error("inventory not restored and ticket left cancelled",
				zap.Int("quantity", t.Quantity), zap.Error(err), zap.NamedError("rollback_error", rerr))
			return nil, &model.PartialBookingFailureError{
				EventID:  t.EventID,
				UserID:   t.UserID,
				Quantity: t.Quantity,
				Stage:    "cancel",
				Err:      errors.Join(err, rerr),
			}
		}
		log.Warn("ticket cancel rolled back: inventory was not restored",
			zap.Int("quantity", t.Quantity), zap.Error(err))
		return nil, fmt.Errorf("restore inventory for ticket %s: %w", ticketID, err)
	}

	refunded := false
	p, err := o.store.GetPaymentByTicketID(ctx, ticketID)
	switch {
	case err == nil && p.Status == model.PaymentCaptured:
		status := model.PaymentRefunded
		if _, err := o.store.UpdatePayment(ctx, p.ID, model.PaymentUpdate{Status: &status}); err != nil {
			log.Error("mark payment refunded", zap.String("payment_id", p.ID), zap.Error(err))
		} else {
			refunded = true
		}
	case err != nil && !errors.Is(err, model.ErrNotFound):
		log.Warn("look up payment for cancelled ticket", zap.Error(err))
	}

	log.Info("ticket cancelled", zap.Int("quantity", t.Quantity), zap.Bool("refunded", refunded))
	o.notifyCancelled(ctx, cancelled, refunded)
	return cancelled, nil
}

// Book runs initiateBooking and createPaymentIntent back to back: a free
// event comes back with its ticket, a paid one with the order to pay.
func (o *Orchestrator) Book(ctx context.Context, userID, eventID string, quantity int) (*Result, error) {
	b, err := o.InitiateBooking(ctx, userID, eventID, quantity)
	if err != nil {
		return nil, err
	}
	return o.CreatePaymentIntent(ctx, b.ID)
}

// ─── Internals ───────────────────────────────────────────────────────────────

// finalize commits the hold and writes the ticket, then links and captures
// the payment record. e.mu must be held.
func (o *Orchestrator) finalize(ctx context.Context, e *entry, providerPaymentRef string) (*model.Ticket, error) {
	// Past this point the inventory is spent; a client hanging up must not
	// leave the ticket unwritten.
	ctx = context.WithoutCancel(ctx)

	if err := o.guard.Commit(ctx, e.token); err != nil {
		return nil, fmt.Errorf("commit reservation: %w", err)
	}

	ticket := &model.Ticket{
		ID:           uuid.NewString(),
		EventID:      e.b.EventID,
		UserID:       e.b.UserID,
		Quantity:     e.b.Quantity,
		TotalAmount:  e.b.Amount,
		PurchaseDate: o.now(),
		Status:       model.TicketValid,
	}
	if err := o.store.CreateTicket(ctx, ticket); err != nil {
		return nil, o.partialFailure(e, "create_ticket", providerPaymentRef, err)
	}
	e.ticket = ticket
	e.b.TicketID = ticket.ID

	if e.b.PaymentID != "" {
		status := model.PaymentCaptured
		update := model.PaymentUpdate{Status: &status, TicketID: &ticket.ID}
		if providerPaymentRef != "" {
			update.ProviderPaymentID = &providerPaymentRef
		}
		if _, err := o.store.UpdatePayment(ctx, e.b.PaymentID, update); err != nil {
			return nil, o.partialFailure(e, "capture_payment", providerPaymentRef, err)
		}
	}

	if err := o.transition(e, StateConfirmed); err != nil {
		return nil, err
	}
	o.metrics.Booking(metrics.OutcomeConfirmed)
	o.log.Info("booking confirmed",
		zap.String("booking_id", e.b.ID),
		zap.String("ticket_id", ticket.ID),
		zap.String("event_id", e.b.EventID),
		zap.Int("quantity", e.b.Quantity),
		zap.String("amount", e.b.Amount.StringFixed(2)),
	)

	o.notifyConfirmed(ctx, e, providerPaymentRef)
	return ticket, nil
}

// abort releases the hold, fails the payment record and ends the booking in
// RELEASED. cause is returned to the caller; a nil cause means an explicit cancel.
func (o *Orchestrator) abort(ctx context.Context, e *entry, reason string, cause error) error {
	ctx = context.WithoutCancel(ctx)
	log := o.log.With(zap.String("booking_id", e.b.ID), zap.String("event_id", e.b.EventID))

	if err := o.guard.Release(ctx, e.token); err != nil {
		log.Error("release after failed booking step", zap.String("reason", reason), zap.Error(err))
		if cause == nil {
			return err
		}
		return errors.Join(cause, err)
	}

	if e.b.PaymentID != "" {
		status := model.PaymentFailed
		if _, err := o.store.UpdatePayment(ctx, e.b.PaymentID, model.PaymentUpdate{Status: &status}); err != nil {
			log.Warn("mark payment failed", zap.String("payment_id", e.b.PaymentID), zap.Error(err))
		}
	}

	if err := o.transition(e, StateReleased); err != nil {
		return err
	}
	e.b.Reason = reason
	o.metrics.Booking(metrics.OutcomeReleased)
	log.Info("booking released", zap.String("reason", reason), zap.Int("quantity", e.b.Quantity), zap.Error(cause))
	return cause
}

func (o *Orchestrator) partialFailure(e *entry, stage, providerPaymentRef string, err error) error {
	pf := &model.PartialBookingFailureError{
		BookingID:         e.b.ID,
		EventID:           e.b.EventID,
		UserID:            e.b.UserID,
		Quantity:          e.b.Quantity,
		ProviderOrderID:   e.b.OrderID,
		ProviderPaymentID: providerPaymentRef,
		Stage:             stage,
		Err:               err,
	}
	e.partial = pf
	o.metrics.Booking(metrics.OutcomePartialFailure)
	o.log.Error("partial booking failure: inventory committed without a complete ticket",
		zap.String("booking_id", e.b.ID),
		zap.String("event_id", e.b.EventID),
		zap.String("user_id", e.b.UserID),
		zap.Int("quantity", e.b.Quantity),
		zap.String("token_id", e.token.ID),
		zap.String("ticket_id", e.b.TicketID),
		zap.String("order_id", e.b.OrderID),
		zap.String("payment_ref", providerPaymentRef),
		zap.String("stage", stage),
		zap.Error(err),
	)
	return pf
}

// callProvider bounds a provider call by the configured timeout. The call is
// never interrupted by the caller's cancellation; on timeout it is abandoned
// and a late success is logged for reconciliation.
func callProvider[T any](o *Orchestrator, ctx context.Context, op string, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	var abandoned sync.Mutex
	gaveUp := false

	done := make(chan result, 1)
	go func() {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*o.cfg.ProviderTimeout)
		defer cancel()
		v, err := fn(callCtx)
		done <- result{v, err}

		abandoned.Lock()
		defer abandoned.Unlock()
		if gaveUp && err == nil {
			o.log.Error("payment provider succeeded after the booking timed out; reconcile manually",
				zap.String("op", op))
		}
	}()

	timer := time.NewTimer(o.cfg.ProviderTimeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.v, r.err
	case <-timer.C:
		abandoned.Lock()
		gaveUp = true
		abandoned.Unlock()
		var zero T
		return zero, &model.ProviderUnavailableError{
			Op:  op,
			Err: fmt.Errorf("no answer within %s: %w", o.cfg.ProviderTimeout, context.DeadlineExceeded),
		}
	}
}

// asUnavailable classifies a provider error that is neither a rejected
// payment nor a refused request as transient.
func asUnavailable(op string, err error) error {
	var unavailable *model.ProviderUnavailableError
	if errors.As(err, &unavailable) || errors.Is(err, model.ErrProviderRejected) {
		return err
	}
	return &model.ProviderUnavailableError{Op: op, Err: err}
}

func (o *Orchestrator) contact(ctx context.Context, userID string) notify.Contact {
	if userID == "" {
		return notify.Contact{}
	}
	u, err := o.store.GetUser(ctx, userID)
	if err != nil {
		o.log.Warn("notification recipient lookup failed", zap.String("user_id", userID), zap.Error(err))
		return notify.Contact{}
	}
	return notify.Contact{Name: u.FullName, Email: u.Email}
}

func (o *Orchestrator) notifyConfirmed(ctx context.Context, e *entry, providerPaymentRef string) {
	if o.notifier == nil {
		return
	}
	attendee := o.contact(ctx, e.b.UserID)
	if attendee.Email == "" {
		return
	}
	o.notifier.BookingConfirmed(ctx, notify.BookingConfirmed{
		TicketID:    e.b.TicketID,
		EventID:     e.b.EventID,
		EventTitle:  e.event.title,
		Location:    e.event.location,
		StartDate:   e.event.startDate,
		Quantity:    e.b.Quantity,
		TotalAmount: e.b.Amount.StringFixed(2),
		Currency:    e.b.Currency,
		PaymentRef:  providerPaymentRef,
		Attendee:    attendee,
		Organizer:   o.contact(ctx, e.event.organizerID),
	})
}

func (o *Orchestrator) notifyCancelled(ctx context.Context, t *model.Ticket, refunded bool) {
	if o.notifier == nil {
		return
	}
	attendee := o.contact(ctx, t.UserID)
	if attendee.Email == "" {
		return
	}
	title := t.EventID
	if ev, err := o.store.GetEvent(ctx, t.EventID); err == nil {
		title = ev.Title
	}
	o.notifier.BookingCancelled(ctx, notify.BookingCancelled{
		TicketID:   t.ID,
		EventID:    t.EventID,
		EventTitle: title,
		Quantity:   t.Quantity,
		Refunded:   refunded,
		Attendee:   attendee,
	})
}
