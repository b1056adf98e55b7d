package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// Memory is a process-local Store. Every method takes one lock, which makes
// each call as atomic as the single-statement SQL it mirrors.
type Memory struct {
	mu         sync.RWMutex
	users      map[string]model.User
	events     map[string]model.Event
	tickets    map[string]model.Ticket
	payments   map[string]model.Payment
	categories map[string]model.Category
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:      make(map[string]model.User),
		events:     make(map[string]model.Event),
		tickets:    make(map[string]model.Ticket),
		payments:   make(map[string]model.Payment),
		categories: make(map[string]model.Category),
	}
}

// ─── Users ───────────────────────────────────────────────────────────────────

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return fmt.Errorf("create user: %w", model.ErrConflict)
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUser(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) findUser(match func(model.User) bool) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, model.ErrNotFound
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return m.findUser(func(u model.User) bool { return u.Username == username })
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return m.findUser(func(u model.User) bool { return u.Email == email })
}

// ─── Events ──────────────────────────────────────────────────────────────────

func (m *Memory) CreateEvent(_ context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[e.ID]; ok {
		return fmt.Errorf("create event: %w", model.ErrConflict)
	}
	m.events[e.ID] = *e
	return nil
}

func (m *Memory) GetEvent(_ context.Context, id string) (*model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.events[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &e, nil
}

func (m *Memory) ListEvents(_ context.Context, f model.EventFilter) ([]model.Event, error) {
	m.mu.RLock()
	var events []model.Event
	for _, e := range m.events {
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.OrganizerID != "" && e.OrganizerID != f.OrganizerID {
			continue
		}
		if f.Featured && !e.IsFeatured {
			continue
		}
		events = append(events, e)
	}
	m.mu.RUnlock()

	sort.Slice(events, func(i, j int) bool {
		if events[i].StartDate.Equal(events[j].StartDate) {
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		}
		return events[i].StartDate.Before(events[j].StartDate)
	})
	if f.Limit > 0 && len(events) > f.Limit {
		events = events[:f.Limit]
	}
	return events, nil
}

func (m *Memory) UpdateEvent(_ context.Context, id string, u model.EventUpdate) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	if u.Title != nil {
		e.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.ImageURL != nil {
		e.ImageURL = *u.ImageURL
	}
	if u.Location != nil {
		e.Location = strings.TrimSpace(*u.Location)
	}
	if u.StartDate != nil {
		e.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		e.EndDate = *u.EndDate
	}
	if u.Category != nil {
		e.Category = strings.TrimSpace(*u.Category)
	}
	if u.TicketPrice != nil {
		e.TicketPrice = *u.TicketPrice
	}
	if u.IsFeatured != nil {
		e.IsFeatured = *u.IsFeatured
	}
	if u.Status != nil {
		e.Status = *u.Status
	}
	m.events[id] = e
	return &e, nil
}

func (m *Memory) DeleteEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[id]; !ok {
		return model.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

// ─── Inventory ───────────────────────────────────────────────────────────────

func (m *Memory) ReserveTickets(_ context.Context, eventID string, quantity int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[eventID]
	if !ok {
		return 0, fmt.Errorf("%w: %w", model.ErrEventNotBookable, model.ErrNotFound)
	}
	if !e.Bookable() {
		return 0, fmt.Errorf("%w: event is %s", model.ErrEventNotBookable, e.Status)
	}
	if e.AvailableTickets < quantity {
		return 0, &model.InsufficientInventoryError{Available: e.AvailableTickets, Requested: quantity}
	}
	e.AvailableTickets -= quantity
	m.events[eventID] = e
	return e.AvailableTickets, nil
}

func (m *Memory) ReleaseTickets(_ context.Context, eventID string, quantity int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[eventID]
	if !ok {
		return 0, model.ErrNotFound
	}
	e.AvailableTickets = min(e.TotalTickets, e.AvailableTickets+quantity)
	m.events[eventID] = e
	return e.AvailableTickets, nil
}

// ─── Tickets ─────────────────────────────────────────────────────────────────

func (m *Memory) CreateTicket(_ context.Context, t *model.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tickets[t.ID]; ok {
		return fmt.Errorf("create ticket: %w", model.ErrConflict)
	}
	m.tickets[t.ID] = *t
	return nil
}

func (m *Memory) GetTicket(_ context.Context, id string) (*model.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tickets[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &t, nil
}

func (m *Memory) filterTickets(match func(model.Ticket) bool) []model.Ticket {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Ticket
	for _, t := range m.tickets {
		if match(t) {
			out = append(out, t)
		}
	}
	return out
}

func (m *Memory) ListTicketsByUser(_ context.Context, userID string) ([]model.Ticket, error) {
	tickets := m.filterTickets(func(t model.Ticket) bool { return t.UserID == userID })
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].PurchaseDate.After(tickets[j].PurchaseDate) })
	return tickets, nil
}

func (m *Memory) ListTicketsByEvent(_ context.Context, eventID string) ([]model.Ticket, error) {
	tickets := m.filterTickets(func(t model.Ticket) bool { return t.EventID == eventID })
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].PurchaseDate.Before(tickets[j].PurchaseDate) })
	return tickets, nil
}

func (m *Memory) TransitionTicket(_ context.Context, id string, from, to model.TicketStatus) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tickets[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	if t.Status != from {
		return nil, fmt.Errorf("ticket %s is not %s: %w", id, from, model.ErrConflict)
	}
	t.Status = to
	m.tickets[id] = t
	return &t, nil
}

// ─── Payments ────────────────────────────────────────────────────────────────

func clonePayment(p model.Payment) *model.Payment {
	if p.TicketID != nil {
		id := *p.TicketID
		p.TicketID = &id
	}
	return &p
}

func (m *Memory) CreatePayment(_ context.Context, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.payments {
		if existing.ProviderOrderID == p.ProviderOrderID {
			return fmt.Errorf("create payment for order %s: %w", p.ProviderOrderID, model.ErrConflict)
		}
	}
	m.payments[p.ID] = *clonePayment(*p)
	return nil
}

func (m *Memory) GetPayment(_ context.Context, id string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.payments[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return clonePayment(p), nil
}

func (m *Memory) findPayment(match func(model.Payment) bool) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.payments {
		if match(p) {
			return clonePayment(p), nil
		}
	}
	return nil, model.ErrNotFound
}

func (m *Memory) GetPaymentByOrderID(_ context.Context, orderID string) (*model.Payment, error) {
	return m.findPayment(func(p model.Payment) bool { return p.ProviderOrderID == orderID })
}

func (m *Memory) GetPaymentByTicketID(_ context.Context, ticketID string) (*model.Payment, error) {
	return m.findPayment(func(p model.Payment) bool { return p.TicketID != nil && *p.TicketID == ticketID })
}

func (m *Memory) UpdatePayment(_ context.Context, id string, u model.PaymentUpdate) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.payments[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.ProviderPaymentID != nil {
		p.ProviderPaymentID = *u.ProviderPaymentID
	}
	if u.TicketID != nil {
		ticketID := *u.TicketID
		p.TicketID = &ticketID
	}
	m.payments[id] = p
	return clonePayment(p), nil
}

func (m *Memory) ListPaymentsByUser(_ context.Context, userID string) ([]model.Payment, error) {
	m.mu.RLock()
	var payments []model.Payment
	for _, p := range m.payments {
		if p.UserID == userID {
			payments = append(payments, *clonePayment(p))
		}
	}
	m.mu.RUnlock()

	sort.Slice(payments, func(i, j int) bool { return payments[i].PaymentDate.After(payments[j].PaymentDate) })
	return payments, nil
}

// ─── Categories ──────────────────────────────────────────────────────────────

func (m *Memory) ListCategories(_ context.Context) ([]model.Category, error) {
	m.mu.RLock()
	categories := make([]model.Category, 0, len(m.categories))
	for _, c := range m.categories {
		categories = append(categories, c)
	}
	m.mu.RUnlock()

	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (m *Memory) GetCategoryByName(_ context.Context, name string) (*model.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.categories[name]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &c, nil
}

func (m *Memory) CreateCategory(_ context.Context, c *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.categories[c.Name]; ok {
		return fmt.Errorf("create category %q: %w", c.Name, model.ErrConflict)
	}
	m.categories[c.Name] = *c
	return nil
}

func (m *Memory) AdjustCategoryEventCount(_ context.Context, name string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.categories[name]
	if !ok {
		return model.ErrNotFound
	}
	c.EventCount = max(0, c.EventCount+delta)
	m.categories[name] = c
	return nil
}

func (m *Memory) SetCategoryEventCount(_ context.Context, name string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.categories[name]
	if !ok {
		return model.ErrNotFound
	}
	c.EventCount = count
	m.categories[name] = c
	return nil
}
