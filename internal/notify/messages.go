// Package notify delivers booking notifications.
//
// Producers publish small JSON events on a watermill topic. A watermill router
// consumes them, renders the email and hands it to a Sender. Publishing never
// fails the caller: a confirmed booking stays confirmed whether or not the
// email goes out.
package notify

import "time"

// Topics.
const (
	TopicBookingConfirmed = "booking_confirmed"
	TopicBookingCancelled = "booking_cancelled"
	TopicUserRegistered   = "user_registered"
)

// Contact is a named email address.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BookingConfirmed is published once a ticket has been issued.
type BookingConfirmed struct {
	TicketID    string    `json:"ticketId"`
	EventID     string    `json:"eventId"`
	EventTitle  string    `json:"eventTitle"`
	Location    string    `json:"location"`
	StartDate   time.Time `json:"startDate"`
	Quantity    int       `json:"quantity"`
	TotalAmount string    `json:"totalAmount"`
	Currency    string    `json:"currency"`
	PaymentRef  string    `json:"paymentRef,omitempty"`
	Attendee    Contact   `json:"attendee"`
	Organizer   Contact   `json:"organizer"`
}

// BookingCancelled is published when a ticket is cancelled.
type BookingCancelled struct {
	TicketID   string  `json:"ticketId"`
	EventID    string  `json:"eventId"`
	EventTitle string  `json:"eventTitle"`
	Quantity   int     `json:"quantity"`
	Refunded   bool    `json:"refunded"`
	Attendee   Contact `json:"attendee"`
}

// UserRegistered is published after a successful sign-up.
type UserRegistered struct {
	UserID   string  `json:"userId"`
	Username string  `json:"username"`
	User     Contact `json:"user"`
}
