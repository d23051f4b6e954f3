package payment

import (
	"context"
	"errors"
)

var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayRejected    = errors.New("payment gateway rejected the request")
)

type LinkRequest struct {
	OrderCode   int64
	Amount      int64 // whole currency units
	Description string
	ReturnURL   string
	CancelURL   string
}

type Link struct {
	Status      string
	CheckoutURL string
	QRCode      string
}

// Provider-side states of a payment request.
const (
	StatusPending   = "PENDING"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
	StatusExpired   = "EXPIRED"
)

// Gateway creates checkout links with an external payment provider and
// reports what the provider knows about an order.
type Gateway interface {
	CreatePaymentLink(ctx context.Context, req LinkRequest) (*Link, error)
	PaymentStatus(ctx context.Context, orderCode int64) (string, error)
}
