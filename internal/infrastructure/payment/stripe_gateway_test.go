package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared/valueobject"
	"github.com/playhub/backend/internal/domain/store"
	"github.com/playhub/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec_test_123456789"

// mockBackend implements stripe.Backend for testing
type mockBackend struct {
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
}

func (m *mockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

func setupMockBackend(handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)) func() {
	stripe.SetBackend(stripe.APIBackend, &mockBackend{handler: handler})
	return func() {
		stripe.SetBackend(stripe.APIBackend, nil)
	}
}

func newTestGateway(t *testing.T) *StripeGateway {
	t.Helper()
	g, err := NewStripeGateway(config.PaymentConfig{
		Enabled:       true,
		Provider:      ProviderStripe,
		SecretKey:     "sk_test_123456789",
		WebhookSecret: testWebhookSecret,
	}, zap.NewNop())
	require.NoError(t, err)
	return g
}

func TestNewStripeGateway_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.PaymentConfig
	}{
		{"missing secret key", config.PaymentConfig{WebhookSecret: "whsec_x"}},
		{"publishable key", config.PaymentConfig{SecretKey: "pk_test_1", WebhookSecret: "whsec_x"}},
		{"missing webhook secret", config.PaymentConfig{SecretKey: "sk_test_1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStripeGateway(tt.cfg, zap.NewNop())
			assert.Error(t, err)
		})
	}
}

func TestStripeGateway_CreatePayment(t *testing.T) {
	g := newTestGateway(t)
	orderID := uuid.New()

	var gotParams *stripe.PaymentIntentParams
	var gotPath string
	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		gotPath = path
		gotParams = params.(*stripe.PaymentIntentParams)
		return json.Marshal(map[string]any{
			"id":            "pi_123",
			"object":        "payment_intent",
			"client_secret": "pi_123_secret_abc",
			"status":        "requires_payment_method",
		})
	})
	defer cleanup()

	resp, err := g.CreatePayment(context.Background(), &store.CreatePaymentRequest{
		OrderID:        orderID,
		OrderNumber:    "ORD-20260101-ABC123",
		BuyerID:        uuid.New(),
		Amount:         valueobject.MustNewMoney("25.50", valueobject.CurrencyUSD),
		IdempotencyKey: "checkout-key",
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1/payment_intents", gotPath)
	assert.Equal(t, int64(2550), *gotParams.Amount)
	assert.Equal(t, "usd", *gotParams.Currency)
	assert.Equal(t, orderID.String(), gotParams.Metadata["order_id"])
	assert.Equal(t, "checkout-key", *gotParams.IdempotencyKey)

	assert.Equal(t, "pi_123", resp.Reference)
	assert.Equal(t, "pi_123_secret_abc", resp.ClientSecret)
	assert.Equal(t, store.PaymentStatusPending, resp.Status)
}

func TestStripeGateway_CreatePayment_ZeroDecimalCurrency(t *testing.T) {
	g := newTestGateway(t)

	var amount int64
	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		amount = *params.(*stripe.PaymentIntentParams).Amount
		return json.Marshal(map[string]any{"id": "pi_jpy", "status": "requires_payment_method"})
	})
	defer cleanup()

	_, err := g.CreatePayment(context.Background(), &store.CreatePaymentRequest{
		OrderID: uuid.New(),
		Amount:  valueobject.MustNewMoney("1200", valueobject.CurrencyJPY),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1200), amount)
}

func TestStripeGateway_CreatePayment_Error(t *testing.T) {
	g := newTestGateway(t)
	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		return nil, fmt.Errorf("connection refused")
	})
	defer cleanup()

	_, err := g.CreatePayment(context.Background(), &store.CreatePaymentRequest{
		OrderID: uuid.New(),
		Amount:  valueobject.MustNewMoney("10", valueobject.CurrencyUSD),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stripe: failed to create payment intent")
}

func TestStripeGateway_ClosePayment(t *testing.T) {
	g := newTestGateway(t)

	t.Run("cancels intent", func(t *testing.T) {
		var gotPath string
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			gotPath = path
			return json.Marshal(map[string]any{"id": "pi_123", "status": "canceled"})
		})
		defer cleanup()

		require.NoError(t, g.ClosePayment(context.Background(), "pi_123"))
		assert.Equal(t, "/v1/payment_intents/pi_123/cancel", gotPath)
	})

	t.Run("already finished intent", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			return nil, &stripe.Error{Code: stripe.ErrorCodePaymentIntentUnexpectedState, HTTPStatusCode: 400}
		})
		defer cleanup()

		assert.NoError(t, g.ClosePayment(context.Background(), "pi_123"))
	})

	t.Run("empty reference", func(t *testing.T) {
		assert.NoError(t, g.ClosePayment(context.Background(), ""))
	})
}

func signedPayload(t *testing.T, body map[string]any, secret string) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestStripeGateway_VerifyCallback(t *testing.T) {
	g := newTestGateway(t)
	orderID := uuid.New()
	event := map[string]any{
		"id":          "evt_1",
		"object":      "event",
		"type":        "payment_intent.succeeded",
		"api_version": stripe.APIVersion,
		"data": map[string]any{
			"object": map[string]any{
				"id":       "pi_123",
				"object":   "payment_intent",
				"metadata": map[string]string{"order_id": orderID.String()},
			},
		},
	}

	t.Run("valid signature", func(t *testing.T) {
		payload, header := signedPayload(t, event, testWebhookSecret)
		cb, err := g.VerifyCallback(context.Background(), payload, header)
		require.NoError(t, err)
		assert.Equal(t, "evt_1", cb.EventID)
		assert.Equal(t, "pi_123", cb.Reference)
		assert.Equal(t, orderID, cb.OrderID)
		assert.Equal(t, store.PaymentStatusSucceeded, cb.Status)
	})

	t.Run("wrong secret", func(t *testing.T) {
		payload, header := signedPayload(t, event, "whsec_other")
		_, err := g.VerifyCallback(context.Background(), payload, header)
		assert.ErrorIs(t, err, store.ErrInvalidSignature)
	})

	t.Run("missing signature", func(t *testing.T) {
		payload, _ := signedPayload(t, event, testWebhookSecret)
		_, err := g.VerifyCallback(context.Background(), payload, "")
		assert.ErrorIs(t, err, store.ErrInvalidSignature)
	})

	t.Run("failed payment", func(t *testing.T) {
		failed := map[string]any{
			"id": "evt_2", "object": "event", "type": "payment_intent.payment_failed",
			"api_version": stripe.APIVersion,
			"data":        map[string]any{"object": map[string]any{"id": "pi_9"}},
		}
		payload, header := signedPayload(t, failed, testWebhookSecret)
		cb, err := g.VerifyCallback(context.Background(), payload, header)
		require.NoError(t, err)
		assert.Equal(t, store.PaymentStatusFailed, cb.Status)
		assert.Equal(t, uuid.Nil, cb.OrderID)
	})
}

func TestStubGateway(t *testing.T) {
	g := NewStubGateway()
	orderID := uuid.New()

	resp, err := g.CreatePayment(context.Background(), &store.CreatePaymentRequest{
		OrderID: orderID,
		Amount:  valueobject.MustNewMoney("5", valueobject.CurrencyUSD),
	})
	require.NoError(t, err)
	assert.Equal(t, store.PaymentStatusSucceeded, resp.Status)
	assert.Contains(t, resp.Reference, "stub_")
	assert.Equal(t, ProviderStub, g.Provider())

	payload := fmt.Sprintf(`{"id":"evt_s","type":"payment_intent.canceled","data":{"object":{"id":%q,"metadata":{"order_id":%q}}}}`,
		resp.Reference, orderID)
	cb, err := g.VerifyCallback(context.Background(), []byte(payload), "")
	require.NoError(t, err)
	assert.Equal(t, store.PaymentStatusCanceled, cb.Status)
	assert.Equal(t, resp.Reference, cb.Reference)
	assert.Equal(t, orderID, cb.OrderID)

	_, err = g.VerifyCallback(context.Background(), []byte("not json"), "")
	assert.ErrorIs(t, err, store.ErrInvalidSignature)
}
