package notify

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/config"
)

const consumerGroup = "notifications"

// zapAdapter lets watermill log through zap.
type zapAdapter struct {
	log *zap.Logger
}

// NewLoggerAdapter wraps l as a watermill logger.
func NewLoggerAdapter(l *zap.Logger) watermill.LoggerAdapter {
	return zapAdapter{log: l}
}

func fields(f watermill.LogFields) []zap.Field {
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}

func (a zapAdapter) Error(msg string, err error, f watermill.LogFields) {
	a.log.Error(msg, append(fields(f), zap.Error(err))...)
}

func (a zapAdapter) Info(msg string, f watermill.LogFields) {
	a.log.Info(msg, fields(f)...)
}

func (a zapAdapter) Debug(msg string, f watermill.LogFields) {
	a.log.Debug(msg, fields(f)...)
}

func (a zapAdapter) Trace(msg string, f watermill.LogFields) {
	a.log.Debug(msg, fields(f)...)
}

func (a zapAdapter) With(f watermill.LogFields) watermill.LoggerAdapter {
	return zapAdapter{log: a.log.With(fields(f)...)}
}

// Transport is a publisher/subscriber pair plus whatever must be closed with them.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	closers    []func() error
}

// Close releases the transport.
func (t *Transport) Close() error {
	var first error
	for _, c := range t.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewTransport uses redis streams when an address is configured and an
// in-process channel otherwise.
func NewTransport(cfg config.RedisConfig, logger watermill.LoggerAdapter) (*Transport, error) {
	if !cfg.Enabled() {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
		return &Transport{
			Publisher:  ch,
			Subscriber: ch,
			closers:    []func() error{ch.Close},
		}, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password})

	pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{Client: rdb}, logger)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	sub, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        rdb,
		ConsumerGroup: consumerGroup,
	}, logger)
	if err != nil {
		_ = pub.Close()
		_ = rdb.Close()
		return nil, err
	}
	return &Transport{
		Publisher:  pub,
		Subscriber: sub,
		closers:    []func() error{sub.Close, pub.Close, rdb.Close},
	}, nil
}
