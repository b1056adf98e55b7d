// Package repository implements the Record Store: durable keyed storage for
// users, events, tickets, payments and categories.
//
// Two implementations share the Store interface: Postgres (pgx, no ORM) for
// deployments and Memory for single-process runs and tests. Both implement the
// inventory primitives as a single atomic conditional update, so the invariant
// 0 <= available_tickets <= total_tickets holds across any number of callers.
package repository

import (
	"context"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// Store is the full Record Store capability.
type Store interface {
	UserStore
	EventStore
	InventoryStore
	TicketStore
	PaymentStore
	CategoryStore
}

// UserStore persists Identity's users.
type UserStore interface {
	// CreateUser returns model.ErrConflict when the username or email is taken.
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// EventStore persists event metadata. Ticket counts are only touched through InventoryStore.
type EventStore interface {
	CreateEvent(ctx context.Context, e *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context, f model.EventFilter) ([]model.Event, error)
	UpdateEvent(ctx context.Context, id string, u model.EventUpdate) (*model.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// InventoryStore exposes the atomic counter primitives used by the inventory guard.
type InventoryStore interface {
	// ReserveTickets decrements available tickets by quantity iff the event is
	// active and has at least quantity left, and returns the remaining count.
	// It fails with model.ErrEventNotBookable (wrapping model.ErrNotFound when
	// the event does not exist) or *model.InsufficientInventoryError.
	ReserveTickets(ctx context.Context, eventID string, quantity int) (int, error)

	// ReleaseTickets restores quantity, capped at total tickets, and returns the
	// new available count. It fails with model.ErrNotFound when the event is gone.
	ReleaseTickets(ctx context.Context, eventID string, quantity int) (int, error)
}

// TicketStore persists issued tickets.
type TicketStore interface {
	CreateTicket(ctx context.Context, t *model.Ticket) error
	GetTicket(ctx context.Context, id string) (*model.Ticket, error)
	ListTicketsByUser(ctx context.Context, userID string) ([]model.Ticket, error)
	ListTicketsByEvent(ctx context.Context, eventID string) ([]model.Ticket, error)

	// TransitionTicket moves a ticket from one status to another. It fails with
	// model.ErrConflict when the ticket is not currently in status from.
	TransitionTicket(ctx context.Context, id string, from, to model.TicketStatus) (*model.Ticket, error)
}

// PaymentStore persists payment records.
type PaymentStore interface {
	CreatePayment(ctx context.Context, p *model.Payment) error
	GetPayment(ctx context.Context, id string) (*model.Payment, error)
	GetPaymentByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	GetPaymentByTicketID(ctx context.Context, ticketID string) (*model.Payment, error)
	UpdatePayment(ctx context.Context, id string, u model.PaymentUpdate) (*model.Payment, error)
	ListPaymentsByUser(ctx context.Context, userID string) ([]model.Payment, error)
}

// CategoryStore persists categories and their best-effort event counters.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, c *model.Category) error
	// AdjustCategoryEventCount adds delta, flooring the result at zero.
	AdjustCategoryEventCount(ctx context.Context, name string, delta int) error
	SetCategoryEventCount(ctx context.Context, name string, count int) error
}
