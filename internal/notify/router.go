package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/sony/gobreaker"
)

// NewRouter wires one handler per topic. Delivery failures are retried a few
// times; a sender that keeps failing trips the breaker instead of stalling
// every queue.
func NewRouter(sub message.Subscriber, sender Sender, logger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, fmt.Errorf("create notification router: %w", err)
	}

	breaker := middleware.NewCircuitBreaker(gobreaker.Settings{
		Name:    "mail-sender",
		Timeout: 30 * time.Second,
	})
	router.AddMiddleware(
		giveUp(logger),
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			Multiplier:      2,
			Logger:          logger,
		}.Middleware,
		breaker.Middleware,
	)

	router.AddNoPublisherHandler("send_booking_confirmation", TopicBookingConfirmed, sub,
		func(msg *message.Message) error {
			var m BookingConfirmed
			if err := json.Unmarshal(msg.Payload, &m); err != nil {
				return fmt.Errorf("decode %s: %w", TopicBookingConfirmed, err)
			}
			for _, e := range renderConfirmation(m) {
				if err := sender.Send(msg.Context(), e); err != nil {
					return err
				}
			}
			return nil
		})

	router.AddNoPublisherHandler("send_booking_cancellation", TopicBookingCancelled, sub,
		func(msg *message.Message) error {
			var m BookingCancelled
			if err := json.Unmarshal(msg.Payload, &m); err != nil {
				return fmt.Errorf("decode %s: %w", TopicBookingCancelled, err)
			}
			return sender.Send(msg.Context(), renderCancellation(m))
		})

	router.AddNoPublisherHandler("send_welcome", TopicUserRegistered, sub,
		func(msg *message.Message) error {
			var m UserRegistered
			if err := json.Unmarshal(msg.Payload, &m); err != nil {
				return fmt.Errorf("decode %s: %w", TopicUserRegistered, err)
			}
			return sender.Send(msg.Context(), renderWelcome(m))
		})

	return router, nil
}

// giveUp acks a message whose handler still fails after retries. A lost
// email is preferable to a message redelivered forever.
func giveUp(logger watermill.LoggerAdapter) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			out, err := h(msg)
			if err != nil {
				logger.Error("dropping notification after retries", err, watermill.LogFields{
					"message_uuid": msg.UUID,
					"handler":      message.HandlerNameFromCtx(msg.Context()),
				})
				return nil, nil
			}
			return out, nil
		}
	}
}
