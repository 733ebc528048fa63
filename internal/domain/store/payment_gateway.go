package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared/valueobject"
)

// PaymentStatus is the gateway-side state of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCanceled  PaymentStatus = "canceled"
)

// ErrInvalidSignature is returned for webhook payloads that fail verification
var ErrInvalidSignature = errors.New("payment: invalid webhook signature")

// CreatePaymentRequest asks the gateway to collect an order total
type CreatePaymentRequest struct {
	OrderID        uuid.UUID
	OrderNumber    string
	BuyerID        uuid.UUID
	Amount         valueobject.Money
	IdempotencyKey string
}

// CreatePaymentResponse is what the buyer needs to complete payment
type CreatePaymentResponse struct {
	Reference    string
	ClientSecret string
	Status       PaymentStatus
}

// PaymentCallback is a verified gateway notification
type PaymentCallback struct {
	EventID   string
	EventType string
	Reference string
	OrderID   uuid.UUID // zero when the gateway did not echo it back
	Status    PaymentStatus
}

// PaymentGateway collects payments for orders
type PaymentGateway interface {
	// Provider names the gateway, stored on the order
	Provider() string

	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error)

	// ClosePayment cancels an unpaid payment; closing an unknown or finished one is not an error
	ClosePayment(ctx context.Context, reference string) error

	// VerifyCallback checks the signature of a webhook payload and parses it.
	// Returns ErrInvalidSignature when verification fails.
	VerifyCallback(ctx context.Context, payload []byte, signature string) (*PaymentCallback, error)
}
