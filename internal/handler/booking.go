package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/booking"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/notify"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
)

// BookingHandler serves the purchase flow: tickets, payments and pending bookings.
type BookingHandler struct {
	bookings *booking.Orchestrator
	tickets  *service.TicketService
	log      *zap.Logger
}

func NewBookingHandler(bookings *booking.Orchestrator, tickets *service.TicketService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, tickets: tickets, log: log}
}

// BookTickets handles POST /api/tickets
// A free event answers 201 with the ticket. A paid event answers 202 with the
// pending booking and the order the client must pay.
func (h *BookingHandler) BookTickets(w http.ResponseWriter, r *http.Request) {
	var req model.BookTicketsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	res, err := h.bookings.Book(r.Context(), caller(r).UserID, req.EventID, req.Quantity)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if res.Ticket != nil {
		writeJSON(w, http.StatusCreated, res.Ticket)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

// MyTickets handles GET /api/tickets
func (h *BookingHandler) MyTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.tickets.MyTickets(r.Context(), caller(r).UserID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(tickets))
}

// CancelTicket handles POST /api/tickets/{id}/cancel
func (h *BookingHandler) CancelTicket(w http.ResponseWriter, r *http.Request) {
	t, err := h.tickets.Cancel(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// CreateOrder handles POST /api/payments/orders
// With bookingId it opens the payment intent for that pending booking;
// without it, a bare order for the given amount.
func (h *BookingHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req model.CreateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	c := caller(r)

	if req.BookingID == "" {
		order, err := h.bookings.CreateOrder(r.Context(), c.UserID, req.Amount, req.Currency, req.Receipt)
		if err != nil {
			respondError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
		return
	}

	b, err := h.ownBooking(r, req.BookingID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if !req.Amount.IsZero() && !req.Amount.Equal(b.Amount) {
		respondError(w, r, h.log, model.Invalid("amount", "must equal the booking total %s", b.Amount.StringFixed(2)))
		return
	}
	res, err := h.bookings.CreatePaymentIntent(r.Context(), b.ID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if res.Order == nil {
		writeJSON(w, http.StatusCreated, res.Ticket)
		return
	}
	writeJSON(w, http.StatusOK, res.Order)
}

// VerifyPayment handles POST /api/payments/verify
func (h *BookingHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	c := caller(r)

	ticket, err := h.bookings.VerifyOrder(r.Context(), c.UserID, c.Role,
		req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "ticket": ticket})
}

// PaymentHistory handles GET /api/payments/history
func (h *BookingHandler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	payments, err := h.tickets.PaymentHistory(r.Context(), caller(r).UserID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(payments))
}

// GetBooking handles GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.ownBooking(r, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// CancelBooking handles DELETE /api/bookings/{id}
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.ownBooking(r, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	b, err = h.bookings.CancelPending(r.Context(), b.ID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingHandler) ownBooking(r *http.Request, id string) (*booking.Booking, error) {
	b, err := h.bookings.Get(id)
	if err != nil {
		return nil, err
	}
	if !caller(r).CanManage(b.UserID) {
		return nil, fmt.Errorf("booking %s: %w", id, model.ErrForbidden)
	}
	return b, nil
}

// OutboxHandler handles GET /api/debug/emails. It exists only while mail
// runs in mock mode.
func OutboxHandler(outbox *notify.Outbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, emptyIfNil(outbox.Sent()))
	}
}
