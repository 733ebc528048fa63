package payment

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/store"
	"github.com/tidwall/gjson"
)

// ProviderStub is the provider name of orders paid without a real gateway
const ProviderStub = "stub"

// StubGateway is used when payments are disabled. Every payment succeeds
// immediately and webhooks are accepted unsigned, in Stripe's event shape.
type StubGateway struct{}

// NewStubGateway creates a new StubGateway
func NewStubGateway() *StubGateway {
	return &StubGateway{}
}

// Provider returns "stub"
func (StubGateway) Provider() string {
	return ProviderStub
}

// CreatePayment reports an instantly successful payment
func (StubGateway) CreatePayment(_ context.Context, req *store.CreatePaymentRequest) (*store.CreatePaymentResponse, error) {
	return &store.CreatePaymentResponse{
		Reference: "stub_" + strings.ReplaceAll(req.OrderID.String(), "-", ""),
		Status:    store.PaymentStatusSucceeded,
	}, nil
}

// ClosePayment does nothing
func (StubGateway) ClosePayment(context.Context, string) error {
	return nil
}

// VerifyCallback parses {"id","type","data":{"object":{...}}} without a signature check
func (StubGateway) VerifyCallback(_ context.Context, payload []byte, _ string) (*store.PaymentCallback, error) {
	if !gjson.ValidBytes(payload) {
		return nil, store.ErrInvalidSignature
	}
	event := gjson.ParseBytes(payload)
	cb := &store.PaymentCallback{
		EventID:   event.Get("id").String(),
		EventType: event.Get("type").String(),
		Reference: event.Get("data.object.id").String(),
		Status:    statusForEvent(event.Get("type").String()),
	}
	if id, err := uuid.Parse(event.Get("data.object.metadata.order_id").String()); err == nil {
		cb.OrderID = id
	}
	return cb, nil
}

var _ store.PaymentGateway = StubGateway{}
