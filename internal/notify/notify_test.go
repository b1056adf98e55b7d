package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/config"
)

func startRouter(t *testing.T, sender Sender) *Notifier {
	t.Helper()
	logger := NewLoggerAdapter(zap.NewNop())

	transport, err := NewTransport(config.RedisConfig{}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = transport.Close() })

	router, err := NewRouter(transport.Subscriber, sender, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = router.Close()
	})
	go func() { _ = router.Run(ctx) }()
	<-router.Running()

	return NewNotifier(transport.Publisher, zap.NewNop())
}

func TestBookingConfirmedDelivered(t *testing.T) {
	outbox := NewOutbox(10, zap.NewNop())
	n := startRouter(t, outbox)

	n.BookingConfirmed(context.Background(), BookingConfirmed{
		TicketID:    "t-1",
		EventTitle:  "Jazz Night",
		Location:    "Mumbai",
		StartDate:   time.Date(2026, 12, 1, 19, 0, 0, 0, time.UTC),
		Quantity:    2,
		TotalAmount: "1000.00",
		Currency:    "INR",
		Attendee:    Contact{Name: "Asha", Email: "asha@example.com"},
		Organizer:   Contact{Name: "Ravi", Email: "ravi@example.com"},
	})

	require.Eventually(t, func() bool { return len(outbox.Sent()) == 2 }, 2*time.Second, 10*time.Millisecond)

	sent := outbox.Sent()
	assert.Equal(t, "asha@example.com", sent[0].To.Email)
	assert.Equal(t, "Your tickets for Jazz Night", sent[0].Subject)
	assert.Contains(t, sent[0].Text, "Total paid: 1000.00 INR")
	assert.Equal(t, "ravi@example.com", sent[1].To.Email)
}

func TestCancellationAndWelcomeDelivered(t *testing.T) {
	outbox := NewOutbox(10, zap.NewNop())
	n := startRouter(t, outbox)

	n.BookingCancelled(context.Background(), BookingCancelled{
		TicketID: "t-2", EventTitle: "Expo", Quantity: 1, Refunded: true,
		Attendee: Contact{Name: "Meera", Email: "meera@example.com"},
	})
	n.UserRegistered(context.Background(), UserRegistered{
		UserID: "u-1", Username: "meera", User: Contact{Name: "Meera", Email: "meera@example.com"},
	})

	require.Eventually(t, func() bool { return len(outbox.Sent()) == 2 }, 2*time.Second, 10*time.Millisecond)

	subjects := []string{outbox.Sent()[0].Subject, outbox.Sent()[1].Subject}
	assert.ElementsMatch(t, []string{"Your booking for Expo was cancelled", "Welcome to EventPulse"}, subjects)
}

type failingSender struct {
	calls atomic.Int32
}

func (f *failingSender) Send(context.Context, Email) error {
	f.calls.Add(1)
	return errors.New("smtp down")
}

func TestFailingSenderIsRetriedThenDropped(t *testing.T) {
	sender := &failingSender{}
	n := startRouter(t, sender)

	n.UserRegistered(context.Background(), UserRegistered{User: Contact{Email: "x@example.com"}})

	// One attempt plus three retries, then the message is acked and never seen again.
	require.Eventually(t, func() bool { return sender.calls.Load() == 4 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.EqualValues(t, 4, sender.calls.Load())
}

type brokenPublisher struct{}

func (brokenPublisher) Publish(string, ...*message.Message) error { return errors.New("closed") }
func (brokenPublisher) Close() error { return nil }

func TestPublishFailureIsSwallowed(t *testing.T) {
	n := NewNotifier(brokenPublisher{}, zap.NewNop())
	assert.NotPanics(t, func() {
		n.UserRegistered(context.Background(), UserRegistered{})
	})

	var nilNotifier *Notifier
	assert.NotPanics(t, func() {
		nilNotifier.BookingCancelled(context.Background(), BookingCancelled{})
	})
}

func TestOutboxLimit(t *testing.T) {
	o := NewOutbox(2, zap.NewNop())
	for _, s := range []string{"a", "b", "c"} {
		require.NoError(t, o.Send(context.Background(), Email{Subject: s}))
	}
	sent := o.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "b", sent[0].Subject)
	assert.Equal(t, "c", sent[1].Subject)
	assert.False(t, sent[0].SentAt.IsZero())
}

func TestRenderConfirmationWithoutOrganizer(t *testing.T) {
	emails := renderConfirmation(BookingConfirmed{EventTitle: "Talk", Attendee: Contact{Email: "a@b.co"}})
	assert.Len(t, emails, 1)
}

func TestInMemoryTransportRoundTrip(t *testing.T) {
	ch := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer ch.Close()

	msgs, err := ch.Subscribe(context.Background(), TopicUserRegistered)
	require.NoError(t, err)

	NewNotifier(ch, zap.NewNop()).UserRegistered(context.Background(), UserRegistered{Username: "neo"})

	select {
	case msg := <-msgs:
		assert.JSONEq(t, `{"userId":"","username":"neo","user":{"name":"","email":""}}`, string(msg.Payload))
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}
