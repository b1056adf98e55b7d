// Package service implements the business rules around the booking core:
// event and category management, ticket and payment views, and dashboard
// statistics. Handlers call it; it calls the repository.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
)

// Caller identifies who is acting, as established by Identity.
type Caller struct {
	UserID string
	Role   model.Role
}

// IsAdmin reports whether the caller has the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == model.RoleAdmin
}

// CanManage reports whether the caller owns a record or is an admin.
func (c Caller) CanManage(ownerID string) bool {
	return c.IsAdmin() || (c.UserID != "" && c.UserID == ownerID)
}

// EventService orchestrates event-related business operations.
type EventService struct {
	store repository.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(store repository.Store, log *zap.Logger) *EventService {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventService{store: store, log: log.Named("events"), now: time.Now}
}

// CreateEvent validates the request and stores a new active event owned by
// the caller. Every ticket starts out available.
func (s *EventService) CreateEvent(ctx context.Context, caller Caller, req model.CreateEventRequest) (*model.Event, error) {
	if caller.Role != model.RoleAdmin && caller.Role != model.RoleOrganizer {
		return nil, fmt.Errorf("only organizers can create events: %w", model.ErrForbidden)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e := &model.Event{
		ID:               uuid.NewString(),
		OrganizerID:      caller.UserID,
		Title:            req.Title,
		Description:      req.Description,
		ImageURL:         req.ImageURL,
		Location:         req.Location,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Category:         req.Category,
		TotalTickets:     req.TotalTickets,
		AvailableTickets: req.TotalTickets,
		TicketPrice:      req.TicketPrice.Round(2),
		IsFeatured:       req.IsFeatured,
		Status:           model.EventActive,
		CreatedAt:        s.now(),
	}
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.bumpCategory(ctx, e.Category, 1)
	s.log.Info("event created",
		zap.String("event_id", e.ID),
		zap.String("organizer_id", e.OrganizerID),
		zap.Int("total_tickets", e.TotalTickets),
	)
	return e, nil
}

// ListEvents returns events matching f.
func (s *EventService) ListEvents(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	f.Category = strings.TrimSpace(f.Category)
	if f.Limit < 0 {
		return nil, model.Invalid("limit", "must not be negative")
	}
	return s.store.ListEvents(ctx, f)
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, model.Invalid("id", "event id is required")
	}
	return s.store.GetEvent(ctx, id)
}

// OrganizerEvents returns the events owned by organizerID.
func (s *EventService) OrganizerEvents(ctx context.Context, organizerID string) ([]model.Event, error) {
	return s.store.ListEvents(ctx, model.EventFilter{OrganizerID: organizerID})
}

// UpdateEvent edits event metadata. Ticket counts and ownership are not
// reachable from here, and a price change never touches issued tickets.
func (s *EventService) UpdateEvent(ctx context.Context, caller Caller, id string, u model.EventUpdate) (*model.Event, error) {
	current, err := s.managed(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if u.StartDate != nil && u.EndDate == nil && current.EndDate.Before(*u.StartDate) {
		return nil, model.Invalid("startDate", "must not be after endDate")
	}
	if u.EndDate != nil && u.StartDate == nil && u.EndDate.Before(current.StartDate) {
		return nil, model.Invalid("endDate", "must not be before startDate")
	}

	updated, err := s.store.UpdateEvent(ctx, id, u)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if updated.Category != current.Category {
		s.bumpCategory(ctx, current.Category, -1)
		s.bumpCategory(ctx, updated.Category, 1)
	}
	s.log.Info("event updated", zap.String("event_id", id), zap.String("by", caller.UserID))
	return updated, nil
}

// DeleteEvent removes an event. Its tickets and payments are kept.
func (s *EventService) DeleteEvent(ctx context.Context, caller Caller, id string) error {
	current, err := s.managed(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	s.bumpCategory(ctx, current.Category, -1)
	s.log.Info("event deleted", zap.String("event_id", id), zap.String("by", caller.UserID))
	return nil
}

// managed loads an event the caller is allowed to change.
func (s *EventService) managed(ctx context.Context, caller Caller, id string) (*model.Event, error) {
	e, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanManage(e.OrganizerID) {
		return nil, fmt.Errorf("event %s belongs to another organizer: %w", id, model.ErrForbidden)
	}
	return e, nil
}

// bumpCategory adjusts the denormalized counter. Failures only cost accuracy
// until the next recount, so they are logged and dropped.
func (s *EventService) bumpCategory(ctx context.Context, name string, delta int) {
	if name == "" {
		return
	}
	if delta > 0 {
		if err := ensureCategory(ctx, s.store, name); err != nil {
			s.log.Warn("create category", zap.String("category", name), zap.Error(err))
			return
		}
	}
	if err := s.store.AdjustCategoryEventCount(ctx, name, delta); err != nil && !errors.Is(err, model.ErrNotFound) {
		s.log.Warn("adjust category count", zap.String("category", name), zap.Int("delta", delta), zap.Error(err))
	}
}

func ensureCategory(ctx context.Context, store repository.CategoryStore, name string) error {
	_, err := store.GetCategoryByName(ctx, name)
	if err == nil || !errors.Is(err, model.ErrNotFound) {
		return err
	}
	err = store.CreateCategory(ctx, &model.Category{ID: uuid.NewString(), Name: name})
	if errors.Is(err, model.ErrConflict) {
		return nil
	}
	return err
}
