package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/auth"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/booking"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/notify"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/payment"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
)

// Deps is everything the router serves.
type Deps struct {
	Log        *zap.Logger
	Tokens     *auth.Tokens
	Auth       *auth.Service
	Events     *service.EventService
	Categories *service.CategoryService
	Tickets    *service.TicketService
	Dashboard  *service.DashboardService
	Bookings   *booking.Orchestrator
	Metrics    *metrics.Metrics
	Payment    *payment.Breaker
	// Outbox is set only when mail runs in mock mode.
	Outbox *notify.Outbox
}

// NewRouter builds the HTTP API.
func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	authH := NewAuthHandler(d.Auth, log)
	eventH := NewEventHandler(d.Events, d.Categories, d.Tickets, d.Dashboard, log)
	bookingH := NewBookingHandler(d.Bookings, d.Tickets, log)

	authenticated := auth.Authenticate(d.Tokens)
	organizers := auth.RequireRole(model.RoleOrganizer, model.RoleAdmin)
	admins := auth.RequireRole(model.RoleAdmin)

	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(log))
	r.Use(CORS)

	r.Get("/health", HealthCheck(d.Payment))
	r.Handle("/metrics", d.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authH.Register)
			r.Post("/login", authH.Login)
			r.With(authenticated).Get("/me", authH.Me)
		})

		r.Get("/events", eventH.ListEvents)
		r.Get("/events/{id}", eventH.GetEvent)
		r.Get("/categories", eventH.ListCategories)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.With(organizers).Post("/events", eventH.CreateEvent)
			r.Put("/events/{id}", eventH.UpdateEvent)
			r.Delete("/events/{id}", eventH.DeleteEvent)
			r.Get("/events/{id}/tickets", eventH.EventTickets)
			r.With(organizers).Get("/organizer/events", eventH.OrganizerEvents)
			r.With(admins).Post("/categories/recount", eventH.RecountCategories)
			r.With(organizers).Get("/dashboard/stats", eventH.DashboardStats)

			r.Post("/tickets", bookingH.BookTickets)
			r.Get("/tickets", bookingH.MyTickets)
			r.Post("/tickets/{id}/cancel", bookingH.CancelTicket)

			r.Post("/payments/orders", bookingH.CreateOrder)
			r.Post("/payments/verify", bookingH.VerifyPayment)
			r.Get("/payments/history", bookingH.PaymentHistory)

			r.Get("/bookings/{id}", bookingH.GetBooking)
			r.Delete("/bookings/{id}", bookingH.CancelBooking)
		})

		if d.Outbox != nil {
			r.Get("/debug/emails", OutboxHandler(d.Outbox))
		}
	})

	return r
}
