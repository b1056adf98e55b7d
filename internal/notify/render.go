package notify

import (
	"fmt"
	"strings"
)

const signature = "Best regards,\nThe EventPulse Team"

func renderConfirmation(m BookingConfirmed) []Email {
	date := m.StartDate.Format("Mon, 02 Jan 2006 15:04 MST")

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", m.Attendee.Name)
	fmt.Fprintf(&b, "Thank you for purchasing tickets to %s!\n\n", m.EventTitle)
	b.WriteString("Event details:\n")
	fmt.Fprintf(&b, "- Date: %s\n", date)
	fmt.Fprintf(&b, "- Venue: %s\n", m.Location)
	fmt.Fprintf(&b, "- Quantity: %d\n", m.Quantity)
	fmt.Fprintf(&b, "- Total paid: %s %s\n", m.TotalAmount, m.Currency)
	fmt.Fprintf(&b, "- Ticket: %s\n", m.TicketID)
	if m.PaymentRef != "" {
		fmt.Fprintf(&b, "- Payment: %s\n", m.PaymentRef)
	}
	b.WriteString("\nPlease keep this email as your receipt.\n\n")
	b.WriteString(signature)

	emails := []Email{{
		To:      m.Attendee,
		Subject: "Your tickets for " + m.EventTitle,
		Text:    b.String(),
	}}

	if m.Organizer.Email != "" {
		emails = append(emails, Email{
			To:      m.Organizer,
			Subject: "New booking for " + m.EventTitle,
			Text: fmt.Sprintf("Hello %s,\n\n%s booked %d ticket(s) for %s (%s %s).\n\n%s",
				m.Organizer.Name, m.Attendee.Name, m.Quantity, m.EventTitle, m.TotalAmount, m.Currency, signature),
		})
	}
	return emails
}

func renderCancellation(m BookingCancelled) Email {
	refund := ""
	if m.Refunded {
		refund = "\nYour payment has been marked for refund.\n"
	}
	return Email{
		To:      m.Attendee,
		Subject: "Your booking for " + m.EventTitle + " was cancelled",
		Text: fmt.Sprintf("Hello %s,\n\nYour %d ticket(s) for %s (ticket %s) have been cancelled.\n%s\n%s",
			m.Attendee.Name, m.Quantity, m.EventTitle, m.TicketID, refund, signature),
	}
}

func renderWelcome(m UserRegistered) Email {
	return Email{
		To:      m.User,
		Subject: "Welcome to EventPulse",
		Text: fmt.Sprintf("Hello %s,\n\nYour account %q is ready. Browse events and book your first tickets!\n\n%s",
			m.User.Name, m.Username, signature),
	}
}
