package notify

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Notifier publishes notification events. Every method is best effort: a
// failure is logged and swallowed.
type Notifier struct {
	pub message.Publisher
	log *zap.Logger
}

// NewNotifier constructs a Notifier over pub.
func NewNotifier(pub message.Publisher, log *zap.Logger) *Notifier {
	return &Notifier{pub: pub, log: log.Named("notify")}
}

func (n *Notifier) BookingConfirmed(ctx context.Context, m BookingConfirmed) {
	n.publish(ctx, TopicBookingConfirmed, m)
}

func (n *Notifier) BookingCancelled(ctx context.Context, m BookingCancelled) {
	n.publish(ctx, TopicBookingCancelled, m)
}

func (n *Notifier) UserRegistered(ctx context.Context, m UserRegistered) {
	n.publish(ctx, TopicUserRegistered, m)
}

func (n *Notifier) publish(ctx context.Context, topic string, payload any) {
	if n == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		n.log.Error("encode notification", zap.String("topic", topic), zap.Error(err))
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		msg.Metadata.Set("request_id", reqID)
	}

	if err := n.pub.Publish(topic, msg); err != nil {
		n.log.Error("publish notification",
			zap.String("topic", topic),
			zap.String("message_uuid", msg.UUID),
			zap.Error(err),
		)
		return
	}
	n.log.Debug("notification published", zap.String("topic", topic), zap.String("message_uuid", msg.UUID))
}
