package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// RazorpayConfig holds API credentials.
type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

// Razorpay is a minimal client for the Razorpay orders and payments API.
type Razorpay struct {
	cfg  RazorpayConfig
	http *http.Client
	log  *zap.Logger
}

// NewRazorpay constructs a client.
func NewRazorpay(cfg RazorpayConfig, log *zap.Logger) *Razorpay {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Razorpay{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.Named("razorpay"),
	}
}

func (r *Razorpay) Mode() string { return ModeRazorpay }

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type razorpayPayment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// statusError is a non-2xx response from the API.
type statusError struct {
	Status      int
	Code        string
	Description string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("razorpay responded %d %s: %s", e.Status, e.Code, e.Description)
}

func (r *Razorpay) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(r.cfg.KeyID, r.cfg.KeySecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return &model.ProviderUnavailableError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr razorpayError
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&apiErr)
		serr := &statusError{
			Status:      resp.StatusCode,
			Code:        apiErr.Error.Code,
			Description: apiErr.Error.Description,
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return &model.ProviderUnavailableError{Op: method + " " + path, Err: serr}
		}
		return fmt.Errorf("%w: %w", model.ErrProviderRejected, serr)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &model.ProviderUnavailableError{Op: method + " " + path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// CreateOrder creates an order. Amounts travel in minor units.
func (r *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	payload := map[string]any{
		"amount":   ToMinorUnits(req.Amount),
		"currency": req.Currency,
		"receipt":  req.Receipt,
	}
	var out razorpayOrder
	if err := r.do(ctx, http.MethodPost, "/orders", payload, &out); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	r.log.Info("order created",
		zap.String("order_id", out.ID),
		zap.Int64("amount_minor", out.Amount),
		zap.String("currency", out.Currency),
	)
	return &Order{
		ID:       out.ID,
		Amount:   FromMinorUnits(out.Amount),
		Currency: out.Currency,
		Receipt:  out.Receipt,
		Status:   out.Status,
	}, nil
}

// VerifyPayment checks the checkout signature, then fetches the payment and
// captures it if it is only authorized.
func (r *Razorpay) VerifyPayment(ctx context.Context, v Verification) error {
	if !ValidSignature(r.cfg.KeySecret, v.OrderID, v.PaymentID, v.Signature) {
		return fmt.Errorf("signature mismatch for order %s: %w", v.OrderID, model.ErrPaymentVerificationFailed)
	}

	var p razorpayPayment
	if err := r.do(ctx, http.MethodGet, "/payments/"+v.PaymentID, nil, &p); err != nil {
		var serr *statusError
		if errors.As(err, &serr) {
			return fmt.Errorf("fetch payment %s: %w: %w", v.PaymentID, model.ErrPaymentVerificationFailed, err)
		}
		return fmt.Errorf("fetch payment %s: %w", v.PaymentID, err)
	}
	if p.OrderID != v.OrderID {
		return fmt.Errorf("payment %s belongs to order %s, not %s: %w",
			p.ID, p.OrderID, v.OrderID, model.ErrPaymentVerificationFailed)
	}
	if !v.Amount.IsZero() && p.Amount != ToMinorUnits(v.Amount) {
		return fmt.Errorf("payment %s amount %d does not match %s: %w",
			p.ID, p.Amount, v.Amount.StringFixed(2), model.ErrPaymentVerificationFailed)
	}

	switch p.Status {
	case "captured":
		return nil
	case "authorized":
		capture := map[string]any{"amount": p.Amount, "currency": p.Currency}
		if err := r.do(ctx, http.MethodPost, "/payments/"+p.ID+"/capture", capture, &p); err != nil {
			return fmt.Errorf("capture payment %s: %w", p.ID, err)
		}
		if p.Status != "captured" {
			return &model.ProviderUnavailableError{Op: "capture", Err: fmt.Errorf("payment %s still %s", p.ID, p.Status)}
		}
		r.log.Info("payment captured", zap.String("payment_id", p.ID), zap.String("order_id", p.OrderID))
		return nil
	default:
		return fmt.Errorf("payment %s is %s: %w", p.ID, p.Status, model.ErrPaymentVerificationFailed)
	}
}

// Sign returns the checkout signature for orderID and paymentID.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidSignature compares in constant time.
func ValidSignature(secret, orderID, paymentID, signature string) bool {
	expected := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
