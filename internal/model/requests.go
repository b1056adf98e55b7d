package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxTicketsPerEvent bounds the capacity an organizer may declare.
const MaxTicketsPerEvent = 100_000

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	ImageURL     string          `json:"imageUrl"`
	Location     string          `json:"location"`
	StartDate    time.Time       `json:"startDate"`
	EndDate      time.Time       `json:"endDate"`
	Category     string          `json:"category"`
	TotalTickets int             `json:"totalTickets"`
	TicketPrice  decimal.Decimal `json:"ticketPrice"`
	IsFeatured   bool            `json:"isFeatured"`
}

// Normalize trims free-text fields in place.
func (r *CreateEventRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
	r.Category = strings.TrimSpace(r.Category)
}

// Validate checks shape and ranges.
func (r *CreateEventRequest) Validate() error {
	if r.Title == "" {
		return Invalid("title", "is required")
	}
	if r.Location == "" {
		return Invalid("location", "is required")
	}
	if r.Category == "" {
		return Invalid("category", "is required")
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return Invalid("startDate", "start and end dates are required")
	}
	if r.EndDate.Before(r.StartDate) {
		return Invalid("endDate", "must not be before startDate")
	}
	if r.TotalTickets <= 0 {
		return Invalid("totalTickets", "must be a positive integer")
	}
	if r.TotalTickets > MaxTicketsPerEvent {
		return Invalid("totalTickets", "cannot exceed %d", MaxTicketsPerEvent)
	}
	return ValidatePrice("ticketPrice", r.TicketPrice)
}

// ValidatePrice rejects negative amounts and amounts with more than two fraction digits.
func ValidatePrice(field string, p decimal.Decimal) error {
	if p.IsNegative() {
		return Invalid(field, "must not be negative")
	}
	if !p.Equal(p.Round(2)) {
		return Invalid(field, "must have at most 2 fraction digits")
	}
	return nil
}

// Validate checks the partial update.
func (u *EventUpdate) Validate() error {
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return Invalid("title", "must not be empty")
	}
	if u.Location != nil && strings.TrimSpace(*u.Location) == "" {
		return Invalid("location", "must not be empty")
	}
	if u.TicketPrice != nil {
		if err := ValidatePrice("ticketPrice", *u.TicketPrice); err != nil {
			return err
		}
	}
	if u.Status != nil && !u.Status.Valid() {
		return Invalid("status", "must be one of active, cancelled, completed")
	}
	if u.StartDate != nil && u.EndDate != nil && u.EndDate.Before(*u.StartDate) {
		return Invalid("endDate", "must not be before startDate")
	}
	return nil
}

// BookTicketsRequest is the payload of POST /api/tickets.
type BookTicketsRequest struct {
	EventID  string `json:"eventId"`
	Quantity int    `json:"quantity"`
}

// Validate checks shape and ranges.
func (r *BookTicketsRequest) Validate() error {
	if strings.TrimSpace(r.EventID) == "" {
		return Invalid("eventId", "is required")
	}
	return ValidateQuantity(r.Quantity)
}

// ValidateQuantity rejects quantities below one. The upper bound is whatever
// the event still has available.
func ValidateQuantity(q int) error {
	if q < 1 {
		return Invalid("quantity", "must be at least 1")
	}
	return nil
}

// CreateOrderRequest is the payload of POST /api/payments/orders.
type CreateOrderRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Receipt   string          `json:"receipt"`
	BookingID string          `json:"bookingId"`
}

// Validate checks shape and ranges. Amount may be omitted when a booking is named.
func (r *CreateOrderRequest) Validate() error {
	if r.BookingID == "" && r.Amount.LessThan(decimal.NewFromInt(1)) {
		return Invalid("amount", "must be at least 1")
	}
	if !r.Amount.IsZero() {
		if err := ValidatePrice("amount", r.Amount); err != nil {
			return err
		}
	}
	if r.Currency != "" && len(r.Currency) != 3 {
		return Invalid("currency", "must be a 3-letter ISO code")
	}
	return nil
}

// VerifyPaymentRequest is the payload of POST /api/payments/verify.
type VerifyPaymentRequest struct {
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpaySignature string `json:"razorpaySignature"`
}

// Validate checks that every field is present.
func (r *VerifyPaymentRequest) Validate() error {
	switch {
	case r.RazorpayPaymentID == "":
		return Invalid("razorpayPaymentId", "is required")
	case r.RazorpayOrderID == "":
		return Invalid("razorpayOrderId", "is required")
	case r.RazorpaySignature == "":
		return Invalid("razorpaySignature", "is required")
	}
	return nil
}

// RegisterUserRequest is the payload of POST /api/auth/register.
type RegisterUserRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	Role        Role   `json:"role"`
	PhoneNumber string `json:"phoneNumber"`
}

// Normalize trims and lower-cases identifying fields in place.
func (r *RegisterUserRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
	if r.Role == "" {
		r.Role = RoleAttendee
	}
}

// Validate checks shape and ranges. Admin accounts cannot be self-registered.
func (r *RegisterUserRequest) Validate() error {
	if len(r.Username) < 3 {
		return Invalid("username", "must be at least 3 characters")
	}
	if len(r.Password) < 6 {
		return Invalid("password", "must be at least 6 characters")
	}
	if !IsValidEmail(r.Email) {
		return Invalid("email", "is not a valid email address")
	}
	if r.FullName == "" {
		return Invalid("fullName", "is required")
	}
	if r.Role != RoleAttendee && r.Role != RoleOrganizer {
		return Invalid("role", "must be attendee or organizer")
	}
	return nil
}

// LoginRequest is the payload of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks shape.
func (r *LoginRequest) Validate() error {
	if len(strings.TrimSpace(r.Username)) < 3 {
		return Invalid("username", "must be at least 3 characters")
	}
	if len(r.Password) < 6 {
		return Invalid("password", "must be at least 6 characters")
	}
	return nil
}

// IsValidEmail does a basic structural check.
func IsValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
