package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
)

// TicketView is a ticket with the event it admits to. Event is nil when the
// event has been deleted since.
type TicketView struct {
	model.Ticket
	Event *model.Event `json:"event"`
}

// AttendeeTicket is a ticket with its holder.
type AttendeeTicket struct {
	model.Ticket
	User *model.User `json:"user"`
}

// PaymentView is a payment with whatever it paid for.
type PaymentView struct {
	model.Payment
	Ticket *model.Ticket `json:"ticket"`
	Event  *model.Event  `json:"event"`
}

// Canceller cancels an issued ticket and restores its inventory.
type Canceller interface {
	CancelBooking(ctx context.Context, ticketID string) (*model.Ticket, error)
}

// TicketService serves the read side of tickets and payments and guards
// ticket cancellation.
type TicketService struct {
	store     repository.Store
	canceller Canceller
	log       *zap.Logger
}

func NewTicketService(store repository.Store, canceller Canceller, log *zap.Logger) *TicketService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TicketService{store: store, canceller: canceller, log: log.Named("tickets")}
}

// MyTickets returns the caller's tickets, newest first.
func (s *TicketService) MyTickets(ctx context.Context, userID string) ([]TicketView, error) {
	tickets, err := s.store.ListTicketsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	events, err := s.eventsByID(ctx, lo.Map(tickets, func(t model.Ticket, _ int) string { return t.EventID }))
	if err != nil {
		return nil, err
	}
	return lo.Map(tickets, func(t model.Ticket, _ int) TicketView {
		return TicketView{Ticket: t, Event: events[t.EventID]}
	}), nil
}

// EventTickets lists who holds tickets for an event. Only the event's
// organizer or an admin may look.
func (s *TicketService) EventTickets(ctx context.Context, caller Caller, eventID string) ([]AttendeeTicket, error) {
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !caller.CanManage(e.OrganizerID) {
		return nil, fmt.Errorf("attendees of event %s: %w", eventID, model.ErrForbidden)
	}

	tickets, err := s.store.ListTicketsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	users := make(map[string]*model.User)
	for _, id := range lo.Uniq(lo.Map(tickets, func(t model.Ticket, _ int) string { return t.UserID })) {
		u, err := s.store.GetUser(ctx, id)
		switch {
		case err == nil:
			users[id] = u
		case !errors.Is(err, model.ErrNotFound):
			return nil, fmt.Errorf("load attendee %s: %w", id, err)
		}
	}
	return lo.Map(tickets, func(t model.Ticket, _ int) AttendeeTicket {
		return AttendeeTicket{Ticket: t, User: users[t.UserID]}
	}), nil
}

// Cancel cancels a ticket on behalf of its holder or an admin.
func (s *TicketService) Cancel(ctx context.Context, caller Caller, ticketID string) (*model.Ticket, error) {
	t, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !caller.CanManage(t.UserID) {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, model.ErrForbidden)
	}
	return s.canceller.CancelBooking(ctx, ticketID)
}

// PaymentHistory returns the caller's payments with their tickets and events.
func (s *TicketService) PaymentHistory(ctx context.Context, userID string) ([]PaymentView, error) {
	payments, err := s.store.ListPaymentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	views := make([]PaymentView, 0, len(payments))
	tickets := make(map[string]*model.Ticket)
	for _, p := range payments {
		v := PaymentView{Payment: p}
		if p.TicketID != nil {
			t, err := s.store.GetTicket(ctx, *p.TicketID)
			switch {
			case err == nil:
				v.Ticket = t
				tickets[t.ID] = t
			case !errors.Is(err, model.ErrNotFound):
				return nil, fmt.Errorf("load ticket %s: %w", *p.TicketID, err)
			}
		}
		views = append(views, v)
	}

	events, err := s.eventsByID(ctx, lo.MapToSlice(tickets, func(_ string, t *model.Ticket) string { return t.EventID }))
	if err != nil {
		return nil, err
	}
	for i := range views {
		if views[i].Ticket != nil {
			views[i].Event = events[views[i].Ticket.EventID]
		}
	}
	return views, nil
}

// eventsByID loads each distinct event once. Deleted events are left out.
func (s *TicketService) eventsByID(ctx context.Context, ids []string) (map[string]*model.Event, error) {
	events := make(map[string]*model.Event)
	for _, id := range lo.Uniq(ids) {
		e, err := s.store.GetEvent(ctx, id)
		switch {
		case err == nil:
			events[id] = e
		case !errors.Is(err, model.ErrNotFound):
			return nil, fmt.Errorf("load event %s: %w", id, err)
		}
	}
	return events, nil
}
