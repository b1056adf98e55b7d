// Package model defines the core domain types for the event ticketing system.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the caller's role as reported by Identity.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
	RoleAttendee  Role = "attendee"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOrganizer, RoleAttendee:
		return true
	}
	return false
}

// User is owned by Identity. The booking core only reads it.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Role         Role      `json:"role"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventActive    EventStatus = "active"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventActive, EventCancelled, EventCompleted:
		return true
	}
	return false
}

// Event represents a bookable event created by an organizer.
//
// AvailableTickets is written only by the inventory guard; it stays within
// [0, TotalTickets].
type Event struct {
	ID               string          `json:"id"`
	OrganizerID      string          `json:"organizerId"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	ImageURL         string          `json:"imageUrl,omitempty"`
	Location         string          `json:"location"`
	StartDate        time.Time       `json:"startDate"`
	EndDate          time.Time       `json:"endDate"`
	Category         string          `json:"category"`
	TotalTickets     int             `json:"totalTickets"`
	AvailableTickets int             `json:"availableTickets"`
	TicketPrice      decimal.Decimal `json:"ticketPrice"`
	IsFeatured       bool            `json:"isFeatured"`
	Status           EventStatus     `json:"status"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// Bookable reports whether new reservations may be taken against the event.
func (e *Event) Bookable() bool {
	return e.Status == EventActive
}

// IsFree reports whether tickets for the event cost nothing.
func (e *Event) IsFree() bool {
	return e.TicketPrice.IsZero()
}

// Sold returns the number of tickets no longer available.
func (e *Event) Sold() int {
	return e.TotalTickets - e.AvailableTickets
}

// TicketStatus is the lifecycle state of an issued ticket.
type TicketStatus string

const (
	TicketValid     TicketStatus = "valid"
	TicketUsed      TicketStatus = "used"
	TicketCancelled TicketStatus = "cancelled"
)

// Ticket is issued once a reservation has been paid for (or was free).
// Quantity and TotalAmount are frozen at creation.
type Ticket struct {
	ID           string          `json:"id"`
	EventID      string          `json:"eventId"`
	UserID       string          `json:"userId"`
	Quantity     int             `json:"quantity"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	PurchaseDate time.Time       `json:"purchaseDate"`
	Status       TicketStatus    `json:"status"`
}

// PaymentStatus tracks settlement as reported by the payment provider.
type PaymentStatus string

const (
	PaymentCreated    PaymentStatus = "created"
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentCaptured   PaymentStatus = "captured"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

// Payment records one provider order and its settlement.
type Payment struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	TicketID          *string         `json:"ticketId"`
	// BookingID is empty for orders opened without a booking.
	BookingID         string          `json:"bookingId,omitempty"`
	ProviderOrderID   string          `json:"providerOrderId"`
	ProviderPaymentID string          `json:"providerPaymentId"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Status            PaymentStatus   `json:"status"`
	PaymentDate       time.Time       `json:"paymentDate"`
}

// PaymentUpdate is a partial update of a payment record. Nil fields are left unchanged.
type PaymentUpdate struct {
	Status            *PaymentStatus
	ProviderPaymentID *string
	TicketID          *string
}

// Category groups events. EventCount is a best-effort denormalized counter.
type Category struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	EventCount int    `json:"eventCount"`
}

// EventUpdate carries organizer-editable metadata. Nil fields are left unchanged.
// Ticket counts are deliberately absent: only the inventory guard writes them.
type EventUpdate struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	ImageURL    *string          `json:"imageUrl"`
	Location    *string          `json:"location"`
	StartDate   *time.Time       `json:"startDate"`
	EndDate     *time.Time       `json:"endDate"`
	Category    *string          `json:"category"`
	TicketPrice *decimal.Decimal `json:"ticketPrice"`
	IsFeatured  *bool            `json:"isFeatured"`
	Status      *EventStatus     `json:"status"`
}

// EventFilter narrows an event scan. Zero values match everything.
type EventFilter struct {
	Category    string
	OrganizerID string
	Featured    bool
	Limit       int
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}
