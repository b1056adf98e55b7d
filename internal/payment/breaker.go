package payment

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// BreakerConfig tunes the circuit breaker around the provider.
type BreakerConfig struct {
	// ConsecutiveFailures opens the circuit.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before a trial request.
	OpenTimeout time.Duration
}

// Breaker wraps a Provider in a circuit breaker so a failing gateway is not
// hammered by every booking. A rejected signature or a request the provider
// refuses with a 4xx never counts as a failure.
type Breaker struct {
	next    Provider
	cb      *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
}

// NewBreaker wraps next.
func NewBreaker(next Provider, cfg BreakerConfig, log *zap.Logger, m *metrics.Metrics) *Breaker {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	log = log.Named("payment")

	settings := gobreaker.Settings{
		Name:    "payment-provider",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || rejection(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &Breaker{
		next:    next,
		cb:      gobreaker.NewCircuitBreaker(settings),
		metrics: m,
	}
}

func (b *Breaker) Mode() string { return b.next.Mode() }

func (b *Breaker) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	out, err := b.cb.Execute(func() (any, error) {
		return b.next.CreateOrder(ctx, req)
	})
	err = b.translate("create_order", err)
	b.metrics.ProviderCall("create_order", err)
	if err != nil {
		return nil, err
	}
	return out.(*Order), nil
}

func (b *Breaker) VerifyPayment(ctx context.Context, v Verification) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.VerifyPayment(ctx, v)
	})
	err = b.translate("verify", err)
	b.metrics.ProviderCall("verify", err)
	return err
}

// rejection reports whether err is the provider saying no rather than the
// provider failing.
func rejection(err error) bool {
	return errors.Is(err, model.ErrPaymentVerificationFailed) || errors.Is(err, model.ErrProviderRejected)
}

func (b *Breaker) translate(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &model.ProviderUnavailableError{Op: op, Err: err}
	}
	return err
}

// State exposes the breaker state, reported on GET /health.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
