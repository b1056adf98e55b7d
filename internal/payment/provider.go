// Package payment talks to the payment provider: creating orders and verifying
// that a client-reported payment really settled.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider modes as they appear in logs.
const (
	ModeRazorpay = "razorpay"
	ModeMock     = "mock"
)

// OrderRequest asks the provider for a new order.
type OrderRequest struct {
	Amount   decimal.Decimal
	Currency string
	Receipt  string
}

// Order is the provider's order as returned to clients.
type Order struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  string          `json:"receipt,omitempty"`
	Status   string          `json:"status,omitempty"`
}

// Verification carries what the client received from the checkout widget.
type Verification struct {
	OrderID   string
	PaymentID string
	Signature string
	Amount    decimal.Decimal
	Currency  string
}

// Provider is the payment gateway capability.
//
// VerifyPayment returns nil only once funds are captured. It returns an error
// wrapping model.ErrPaymentVerificationFailed when the reference or signature
// is not authentic; any other error is transient.
type Provider interface {
	Mode() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	VerifyPayment(ctx context.Context, v Verification) error
}

// ToMinorUnits converts an amount to the provider's integer subunits (paise for INR).
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(units int64) decimal.Decimal {
	return decimal.New(units, -2)
}
