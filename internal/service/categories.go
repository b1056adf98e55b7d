package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
)

// CategoryService serves categories and repairs their event counters.
type CategoryService struct {
	store repository.Store
	log   *zap.Logger
}

func NewCategoryService(store repository.Store, log *zap.Logger) *CategoryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CategoryService{store: store, log: log.Named("categories")}
}

func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.store.ListCategories(ctx)
}

// Recount recomputes every category's event count from a full event scan,
// creating categories that events reference but that do not exist yet.
func (s *CategoryService) Recount(ctx context.Context, caller Caller) ([]model.Category, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("recount requires admin: %w", model.ErrForbidden)
	}

	events, err := s.store.ListEvents(ctx, model.EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	counts := lo.MapValues(
		lo.GroupBy(events, func(e model.Event) string { return e.Category }),
		func(group []model.Event, _ string) int { return len(group) },
	)

	existing, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names := lo.Uniq(append(
		lo.Map(existing, func(c model.Category, _ int) string { return c.Name }),
		lo.Keys(counts)...,
	))

	for _, name := range names {
		if name == "" {
			continue
		}
		if err := ensureCategory(ctx, s.store, name); err != nil {
			return nil, fmt.Errorf("category %q: %w", name, err)
		}
		if err := s.store.SetCategoryEventCount(ctx, name, counts[name]); err != nil {
			return nil, fmt.Errorf("set count for %q: %w", name, err)
		}
	}

	s.log.Info("category counts recomputed", zap.Int("categories", len(names)), zap.Int("events", len(events)))
	return s.store.ListCategories(ctx)
}
