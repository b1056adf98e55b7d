package payment

import (
	"context"

	"github.com/lithammer/shortuuid/v3"
	"go.uber.org/zap"
)

// MockPrefix marks every reference fabricated by the mock provider.
const MockPrefix = "mock_"

// Mock stands in for the gateway when no credentials are configured. It
// accepts every payment and logs each one with payment_mode=mock so it is
// never mistaken for a real capture.
type Mock struct {
	log *zap.Logger
}

// NewMock constructs a mock provider.
func NewMock(log *zap.Logger) *Mock {
	return &Mock{
		log: log.Named("payment").With(zap.String("payment_mode", ModeMock)),
	}
}

func (m *Mock) Mode() string { return ModeMock }

func (m *Mock) CreateOrder(_ context.Context, req OrderRequest) (*Order, error) {
	o := Order{
		ID:       MockPrefix + "order_" + shortuuid.New(),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}

	m.log.Warn("mock order created",
		zap.String("order_id", o.ID),
		zap.String("amount", o.Amount.StringFixed(2)),
		zap.String("currency", o.Currency),
	)
	return &o, nil
}

func (m *Mock) VerifyPayment(_ context.Context, v Verification) error {
	m.log.Warn("mock payment confirmed without provider verification",
		zap.String("order_id", v.OrderID),
		zap.String("payment_id", v.PaymentID),
	)
	return nil
}

// NewPaymentID fabricates a payment reference the way a checkout widget would.
func NewPaymentID() string {
	return MockPrefix + "pay_" + shortuuid.New()
}
