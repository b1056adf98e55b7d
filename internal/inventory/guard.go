// Package inventory implements the Inventory Guard: the single place where an
// event's available ticket count is changed.
//
// Every reserve, commit and release on one event runs under that event's lock,
// and the decrement itself is a conditional update in the record store. The
// lock gives linearizable ordering inside one process; the conditional update
// keeps the count correct when several processes share the store.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
)

// TokenState is the lifecycle of a reservation token.
type TokenState int32

const (
	TokenPending TokenState = iota
	TokenCommitted
	TokenReleased
)

func (s TokenState) String() string {
	switch s {
	case TokenPending:
		return "pending"
	case TokenCommitted:
		return "committed"
	case TokenReleased:
		return "released"
	}
	return "unknown"
}

// Token is a provisional decrement of an event's inventory. It ends either
// committed or released, never both.
type Token struct {
	ID         string
	EventID    string
	Quantity   int
	ReservedAt time.Time
	ExpiresAt  time.Time

	state atomic.Int32
	// held is false for tokens rebuilt from a ticket; they never counted as an open hold.
	held bool
}

// State returns the token's current state.
func (t *Token) State() TokenState {
	return TokenState(t.state.Load())
}

// Expired reports whether the hold has outlived its TTL at now.
func (t *Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// Config tunes the guard.
type Config struct {
	HoldTTL time.Duration
}

// Guard serializes capacity changes per event.
type Guard struct {
	store   repository.InventoryStore
	locks   *keyLocks
	cfg     Config
	now     func() time.Time
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewGuard constructs a Guard over store.
func NewGuard(store repository.InventoryStore, cfg Config, log *zap.Logger, m *metrics.Metrics) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{
		store:   store,
		locks:   newKeyLocks(),
		cfg:     cfg,
		now:     time.Now,
		log:     log.Named("inventory"),
		metrics: m,
	}
}

// Reserve takes quantity tickets out of eventID's inventory.
func (g *Guard) Reserve(ctx context.Context, eventID string, quantity int) (*Token, error) {
	if err := model.ValidateQuantity(quantity); err != nil {
		return nil, err
	}

	unlock := g.locks.lock(eventID)
	defer unlock()

	remaining, err := g.store.ReserveTickets(ctx, eventID, quantity)
	if err != nil {
		g.recordReserveFailure(eventID, quantity, err)
		return nil, err
	}

	now := g.now()
	tok := &Token{
		ID:         uuid.NewString(),
		EventID:    eventID,
		Quantity:   quantity,
		ReservedAt: now,
		held:       true,
	}
	if g.cfg.HoldTTL > 0 {
		tok.ExpiresAt = now.Add(g.cfg.HoldTTL)
	}

	g.metrics.Reservation(metrics.ReserveOK)
	g.metrics.HoldOpened()
	g.log.Debug("tickets reserved",
		zap.String("token_id", tok.ID),
		zap.String("event_id", eventID),
		zap.Int("quantity", quantity),
		zap.Int("remaining", remaining),
	)
	return tok, nil
}

func (g *Guard) recordReserveFailure(eventID string, quantity int, err error) {
	var insufficient *model.InsufficientInventoryError
	switch {
	case errors.As(err, &insufficient):
		g.metrics.Reservation(metrics.ReserveInsufficient)
		g.log.Info("reservation rejected: insufficient inventory",
			zap.String("event_id", eventID),
			zap.Int("requested", quantity),
			zap.Int("available", insufficient.Available),
		)
	case errors.Is(err, model.ErrEventNotBookable):
		g.metrics.Reservation(metrics.ReserveNotBookable)
		g.log.Info("reservation rejected: event not bookable",
			zap.String("event_id", eventID), zap.Error(err))
	default:
		g.metrics.Reservation(metrics.ReserveError)
		g.log.Error("reservation failed",
			zap.String("event_id", eventID), zap.Int("quantity", quantity), zap.Error(err))
	}
}

// Commit makes the decrement permanent. Committing twice is a no-op;
// committing a released token fails with model.ErrTokenReleased.
func (g *Guard) Commit(_ context.Context, tok *Token) error {
	unlock := g.locks.lock(tok.EventID)
	defer unlock()

	switch tok.State() {
	case TokenCommitted:
		return nil
	case TokenReleased:
		return fmt.Errorf("commit token %s: %w", tok.ID, model.ErrTokenReleased)
	}

	tok.state.Store(int32(TokenCommitted))
	g.closeHold(tok)
	g.log.Debug("reservation committed",
		zap.String("token_id", tok.ID),
		zap.String("event_id", tok.EventID),
		zap.Int("quantity", tok.Quantity),
	)
	return nil
}

// Release gives the reserved tickets back, capped at the event's total.
// Releasing twice is a no-op; releasing a committed token fails with
// model.ErrTokenCommitted. If the store call fails the token stays pending
// so the release can be retried.
func (g *Guard) Release(ctx context.Context, tok *Token) error {
	unlock := g.locks.lock(tok.EventID)
	defer unlock()

	switch tok.State() {
	case TokenReleased:
		return nil
	case TokenCommitted:
		return fmt.Errorf("release token %s: %w", tok.ID, model.ErrTokenCommitted)
	}

	available, err := g.store.ReleaseTickets(ctx, tok.EventID, tok.Quantity)
	switch {
	case errors.Is(err, model.ErrNotFound):
		// The event is gone; there is no counter left to restore.
		g.log.Warn("released reservation for deleted event",
			zap.String("token_id", tok.ID), zap.String("event_id", tok.EventID))
	case err != nil:
		g.log.Error("release failed",
			zap.String("token_id", tok.ID),
			zap.String("event_id", tok.EventID),
			zap.Int("quantity", tok.Quantity),
			zap.Error(err),
		)
		return fmt.Errorf("release token %s: %w", tok.ID, err)
	default:
		g.log.Debug("reservation released",
			zap.String("token_id", tok.ID),
			zap.String("event_id", tok.EventID),
			zap.Int("quantity", tok.Quantity),
			zap.Int("available", available),
		)
	}

	tok.state.Store(int32(TokenReleased))
	g.closeHold(tok)
	return nil
}

// Reconstruct builds a releasable token for tickets that were already
// committed, such as a ticket being cancelled. The caller is responsible for
// never reconstructing the same tickets twice.
func (g *Guard) Reconstruct(eventID string, quantity int) *Token {
	return &Token{
		ID:         uuid.NewString(),
		EventID:    eventID,
		Quantity:   quantity,
		ReservedAt: g.now(),
	}
}

func (g *Guard) closeHold(tok *Token) {
	if tok.held {
		tok.held = false
		g.metrics.HoldClosed()
	}
}
