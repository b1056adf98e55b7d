package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/payment"
)

// CreateOrder opens a provider order that is not tied to a booking and keeps a
// payment record for it.
func (o *Orchestrator) CreateOrder(ctx context.Context, userID string, amount decimal.Decimal, currency, receipt string) (*payment.Order, error) {
	if currency == "" {
		currency = o.cfg.Currency
	}
	if receipt == "" {
		receipt = "receipt_" + uuid.NewString()
	}

	order, err := callProvider(o, ctx, "create_order", func(ctx context.Context) (*payment.Order, error) {
		return o.provider.CreateOrder(ctx, payment.OrderRequest{Amount: amount, Currency: currency, Receipt: receipt})
	})
	if err != nil {
		return nil, asUnavailable("create_order", err)
	}

	p := &model.Payment{
		ID:              uuid.NewString(),
		UserID:          userID,
		ProviderOrderID: order.ID,
		Amount:          amount,
		Currency:        currency,
		Status:          model.PaymentCreated,
		PaymentDate:     o.now(),
	}
	if err := o.store.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("save payment: %w", err)
	}
	return order, nil
}

// VerifyOrder settles an order: through its booking when one exists,
// otherwise against the stored payment record alone. The ticket is nil for
// orders without a booking. An order opened for a booking this process no
// longer tracks is refused with a PartialBookingFailureError and never
// captured.
func (o *Orchestrator) VerifyOrder(ctx context.Context, userID string, userRole model.Role, orderID, providerPaymentRef, signature string) (*model.Ticket, error) {
	if b, err := o.FindByOrder(orderID); err == nil {
		if b.UserID != userID && userRole != model.RoleAdmin {
			return nil, fmt.Errorf("booking %s: %w", b.ID, model.ErrForbidden)
		}
		return o.ConfirmPayment(ctx, b.ID, providerPaymentRef, signature)
	}

	p, err := o.store.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("payment for order %s: %w", orderID, err)
	}
	if p.UserID != userID && userRole != model.RoleAdmin {
		return nil, fmt.Errorf("payment %s: %w", p.ID, model.ErrForbidden)
	}
	switch p.Status {
	case model.PaymentCaptured:
		if p.TicketID == nil {
			return nil, nil
		}
		return o.store.GetTicket(ctx, *p.TicketID)
	case model.PaymentCreated, model.PaymentAuthorized:
	default:
		return nil, fmt.Errorf("payment %s is %s: %w", p.ID, p.Status, model.ErrConflict)
	}
	if p.BookingID != "" {
		// The hold behind this order was lost, so no ticket can be issued for it.
		perr := &model.PartialBookingFailureError{
			BookingID:         p.BookingID,
			UserID:            p.UserID,
			ProviderOrderID:   orderID,
			ProviderPaymentID: providerPaymentRef,
			Stage:             "verify",
			Err:               fmt.Errorf("booking %s is no longer tracked: %w", p.BookingID, model.ErrNotFound),
		}
		o.log.Error("payment for an untracked booking needs reconciliation",
			zap.String("booking_id", p.BookingID),
			zap.String("payment_id", p.ID),
			zap.String("order_id", orderID),
			zap.String("provider_payment_id", providerPaymentRef),
		)
		return nil, perr
	}
	o.log.Debug("verifying order without a live booking", zap.String("order_id", orderID))

	_, err = callProvider(o, ctx, "verify", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, o.provider.VerifyPayment(ctx, payment.Verification{
			OrderID:   orderID,
			PaymentID: providerPaymentRef,
			Signature: signature,
			Amount:    p.Amount,
			Currency:  p.Currency,
		})
	})

	status := model.PaymentCaptured
	if err != nil {
		if !errors.Is(err, model.ErrPaymentVerificationFailed) {
			return nil, asUnavailable("verify", err)
		}
		status = model.PaymentFailed
	}
	ctx = context.WithoutCancel(ctx)
	if _, uerr := o.store.UpdatePayment(ctx, p.ID, model.PaymentUpdate{
		Status:            &status,
		ProviderPaymentID: &providerPaymentRef,
	}); uerr != nil {
		return nil, errors.Join(err, fmt.Errorf("update payment: %w", uerr))
	}
	return nil, err
}
