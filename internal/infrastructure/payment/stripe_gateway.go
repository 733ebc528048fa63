// Package payment implements the store's payment gateways.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/store"
	"github.com/playhub/backend/internal/infrastructure/config"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/webhook"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// ProviderStripe is the provider name stored on orders paid through Stripe
const ProviderStripe = "stripe"

// Stripe webhook event types the store reacts to
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
	EventPaymentCanceled  = "payment_intent.canceled"
)

// StripeGateway creates PaymentIntents and verifies Stripe webhooks
type StripeGateway struct {
	webhookSecret string
	logger        *zap.Logger
}

// NewStripeGateway creates a new Stripe gateway and sets the API key
func NewStripeGateway(cfg config.PaymentConfig, logger *zap.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	if !strings.HasPrefix(cfg.SecretKey, "sk_") && !strings.HasPrefix(cfg.SecretKey, "rk_") {
		return nil, errors.New("stripe: secret key must start with sk_ or rk_")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("stripe: webhook secret is required")
	}
	stripe.Key = cfg.SecretKey
	return &StripeGateway{
		webhookSecret: cfg.WebhookSecret,
		logger:        logger.Named("stripe"),
	}, nil
}

// Provider returns "stripe"
func (g *StripeGateway) Provider() string {
	return ProviderStripe
}

// CreatePayment creates a PaymentIntent for the order total
func (g *StripeGateway) CreatePayment(ctx context.Context, req *store.CreatePaymentRequest) (*store.CreatePaymentResponse, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount.MinorUnits()),
		Currency: stripe.String(strings.ToLower(req.Amount.Currency().String())),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String("Order " + req.OrderNumber),
	}
	params.Context = ctx
	params.AddMetadata("order_id", req.OrderID.String())
	params.AddMetadata("order_number", req.OrderNumber)
	params.AddMetadata("buyer_id", req.BuyerID.String())
	key := req.IdempotencyKey
	if key == "" {
		key = "order-" + req.OrderID.String()
	}
	params.SetIdempotencyKey(key)

	pi, err := paymentintent.New(params)
	if err != nil {
		g.logger.Error("Failed to create PaymentIntent",
			zap.String("order_id", req.OrderID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create payment intent: %w", err)
	}

	g.logger.Info("Created PaymentIntent",
		zap.String("order_id", req.OrderID.String()),
		zap.String("payment_intent", pi.ID))

	return &store.CreatePaymentResponse{
		Reference:    pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       mapIntentStatus(pi.Status),
	}, nil
}

// ClosePayment cancels the PaymentIntent
func (g *StripeGateway) ClosePayment(ctx context.Context, reference string) error {
	if reference == "" {
		return nil
	}
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	_, err := paymentintent.Cancel(reference, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && (stripeErr.HTTPStatusCode == 404 ||
			stripeErr.Code == stripe.ErrorCodePaymentIntentUnexpectedState) {
			return nil
		}
		return fmt.Errorf("stripe: failed to cancel payment intent: %w", err)
	}
	return nil
}

// VerifyCallback verifies the Stripe-Signature header and extracts the PaymentIntent
func (g *StripeGateway) VerifyCallback(_ context.Context, payload []byte, signature string) (*store.PaymentCallback, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		g.logger.Warn("Rejected Stripe webhook", zap.Error(err))
		return nil, store.ErrInvalidSignature
	}

	cb := &store.PaymentCallback{
		EventID:   event.ID,
		EventType: string(event.Type),
		Status:    statusForEvent(string(event.Type)),
	}
	if event.Data != nil {
		object := gjson.ParseBytes(event.Data.Raw)
		cb.Reference = object.Get("id").String()
		if id, err := uuid.Parse(object.Get("metadata.order_id").String()); err == nil {
			cb.OrderID = id
		}
	}
	return cb, nil
}

func statusForEvent(eventType string) store.PaymentStatus {
	switch eventType {
	case EventPaymentSucceeded:
		return store.PaymentStatusSucceeded
	case EventPaymentFailed:
		return store.PaymentStatusFailed
	case EventPaymentCanceled:
		return store.PaymentStatusCanceled
	}
	return store.PaymentStatusPending
}

func mapIntentStatus(status stripe.PaymentIntentStatus) store.PaymentStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return store.PaymentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return store.PaymentStatusCanceled
	}
	return store.PaymentStatusPending
}

var _ store.PaymentGateway = (*StripeGateway)(nil)
