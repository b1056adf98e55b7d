package payment

import (
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/config"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
)

// New picks the Razorpay client or the mock from cfg and wraps it in a breaker.
func New(cfg config.PaymentConfig, log *zap.Logger, m *metrics.Metrics) *Breaker {
	var p Provider
	if cfg.MockMode() {
		log.Warn("payment provider running in mock mode: payments are not verified",
			zap.String("payment_mode", ModeMock))
		p = NewMock(log)
	} else {
		log.Info("payment provider configured", zap.String("payment_mode", ModeRazorpay))
		p = NewRazorpay(RazorpayConfig{
			KeyID:     cfg.KeyID,
			KeySecret: cfg.KeySecret,
			BaseURL:   cfg.BaseURL,
			Timeout:   cfg.Timeout,
		}, log)
	}
	return NewBreaker(p, BreakerConfig{}, log, m)
}
