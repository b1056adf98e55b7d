package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
)

// EventStats is one event's line on the dashboard.
type EventStats struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Sold    int             `json:"sold"`
	Total   int             `json:"total"`
	Revenue decimal.Decimal `json:"revenue"`
}

// DashboardStats summarises sales. Cancelled tickets count for nothing.
type DashboardStats struct {
	TotalEvents      int             `json:"totalEvents"`
	ActiveEvents     int             `json:"activeEvents"`
	TotalSales       decimal.Decimal `json:"totalSales"`
	TotalTicketsSold int             `json:"totalTicketsSold"`
	Events           []EventStats    `json:"events"`
}

type DashboardService struct {
	store repository.Store
}

func NewDashboardService(store repository.Store) *DashboardService {
	return &DashboardService{store: store}
}

// Stats covers every event for admins and the caller's own events for organizers.
func (s *DashboardService) Stats(ctx context.Context, caller Caller) (*DashboardStats, error) {
	filter := model.EventFilter{}
	switch caller.Role {
	case model.RoleAdmin:
	case model.RoleOrganizer:
		filter.OrganizerID = caller.UserID
	default:
		return nil, fmt.Errorf("dashboard: %w", model.ErrForbidden)
	}

	events, err := s.store.ListEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	stats := &DashboardStats{
		TotalEvents:  len(events),
		ActiveEvents: lo.CountBy(events, func(e model.Event) bool { return e.Status == model.EventActive }),
		TotalSales:   decimal.Zero,
		Events:       make([]EventStats, 0, len(events)),
	}
	for _, e := range events {
		tickets, err := s.store.ListTicketsByEvent(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("list tickets for %s: %w", e.ID, err)
		}
		counted := lo.Reject(tickets, func(t model.Ticket, _ int) bool { return t.Status == model.TicketCancelled })

		sold := lo.SumBy(counted, func(t model.Ticket) int { return t.Quantity })
		revenue := lo.Reduce(counted, func(acc decimal.Decimal, t model.Ticket, _ int) decimal.Decimal {
			return acc.Add(t.TotalAmount)
		}, decimal.Zero)

		stats.Events = append(stats.Events, EventStats{
			ID:      e.ID,
			Title:   e.Title,
			Sold:    sold,
			Total:   e.TotalTickets,
			Revenue: revenue,
		})
		stats.TotalTicketsSold += sold
		stats.TotalSales = stats.TotalSales.Add(revenue)
	}
	return stats, nil
}
