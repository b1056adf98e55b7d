package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mailersend/mailersend-go"
	"go.uber.org/zap"
)

// Email is a rendered message ready for delivery.
type Email struct {
	To      Contact   `json:"to"`
	Subject string    `json:"subject"`
	Text    string    `json:"text"`
	HTML    string    `json:"html,omitempty"`
	SentAt  time.Time `json:"sentAt"`
}

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// MailerSend delivers through the MailerSend API.
type MailerSend struct {
	client *mailersend.Mailersend
	from   Contact
	log    *zap.Logger
}

// NewMailerSend constructs a MailerSend sender.
func NewMailerSend(apiKey string, from Contact, log *zap.Logger) *MailerSend {
	return &MailerSend{
		client: mailersend.NewMailersend(apiKey),
		from:   from,
		log:    log.Named("mailer"),
	}
}

func (m *MailerSend) Send(ctx context.Context, e Email) error {
	msg := m.client.Email.NewMessage()
	msg.SetFrom(mailersend.From{Name: m.from.Name, Email: m.from.Email})
	msg.SetRecipients([]mailersend.Recipient{{Name: e.To.Name, Email: e.To.Email}})
	msg.SetSubject(e.Subject)
	msg.SetText(e.Text)
	if e.HTML != "" {
		msg.SetHTML(e.HTML)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("send email to %s: %w", e.To.Email, err)
	}
	m.log.Info("email sent",
		zap.String("to", e.To.Email),
		zap.String("subject", e.Subject),
		zap.String("message_id", res.Header.Get("X-Message-Id")),
	)
	return nil
}

// Outbox is the mock sender: it logs each email and keeps it in memory.
type Outbox struct {
	log   *zap.Logger
	limit int

	mu   sync.Mutex
	sent []Email
}

// NewOutbox keeps at most limit emails, dropping the oldest.
func NewOutbox(limit int, log *zap.Logger) *Outbox {
	if limit <= 0 {
		limit = 200
	}
	return &Outbox{log: log.Named("mailer").With(zap.String("mail_mode", "mock")), limit: limit}
}

func (o *Outbox) Send(_ context.Context, e Email) error {
	if e.SentAt.IsZero() {
		e.SentAt = time.Now().UTC()
	}

	o.mu.Lock()
	o.sent = append(o.sent, e)
	if len(o.sent) > o.limit {
		o.sent = o.sent[len(o.sent)-o.limit:]
	}
	o.mu.Unlock()

	o.log.Info("email captured",
		zap.String("to", e.To.Email),
		zap.String("subject", e.Subject),
	)
	return nil
}

// Sent returns a copy of the captured emails, oldest first.
func (o *Outbox) Sent() []Email {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Email(nil), o.sent...)
}
