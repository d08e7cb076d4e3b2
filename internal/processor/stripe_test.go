package processor

import (
	"context"
	"testing"
	"time"

	"github.com/cassiomorais/paygate/internal/domain/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stripeRequest() payment.Request {
	return payment.Request{
		BankID:      payment.BankStripe,
		Amount:      2500,
		Currency:    payment.CurrencyUSD,
		ReferenceID: "order-1",
		Customer:    payment.Customer{Email: "jo@example.com"},
	}
}

func TestStripeProcessor_Charge_Success(t *testing.T) {
	p := NewStripeProcessor(testConfig(payment.BankStripe))

	resp := p.Charge(context.Background(), stripeRequest())

	assert.Equal(t, payment.StatusSuccess, resp.Status)
	assert.NotEmpty(t, resp.TransactionID)
	assert.Equal(t, int64(2500), resp.Amount)
	assert.Equal(t, payment.CurrencyUSD, resp.Currency)
	assert.Equal(t, payment.BankStripe, resp.BankID)
	assert.Equal(t, "order-1", resp.ReferenceID)
	assert.Equal(t, "visa", resp.BankData["card_brand"])
	assert.Equal(t, "4242", resp.BankData["card_last4"])
	assert.NotEmpty(t, resp.BankData["authorization_code"])
}

func TestStripeProcessor_Charge_Decline(t *testing.T) {
	p := NewStripeProcessor(testConfig(payment.BankStripe),
		WithStripeOutcome(FixedOutcome(OutcomeDecline)))

	resp := p.Charge(context.Background(), stripeRequest())

	assert.Equal(t, payment.StatusFailed, resp.Status)
	assert.Equal(t, "card_declined", resp.ErrorCode)
	assert.Contains(t, resp.ErrorMessage, "insufficient funds")
	assert.Equal(t, "insufficient_funds", resp.BankData["decline_code"])
	// Echo invariant holds on failure too.
	assert.Equal(t, int64(2500), resp.Amount)
}

func TestStripeProcessor_Charge_TransportError(t *testing.T) {
	p := NewStripeProcessor(testConfig(payment.BankStripe),
		WithStripeOutcome(FixedOutcome(OutcomeError)))

	resp := p.Charge(context.Background(), stripeRequest())

	assert.Equal(t, payment.StatusFailed, resp.Status)
	assert.Equal(t, "STRIPE_API_ERROR", resp.ErrorCode)
	assert.True(t, IsTransportFailure(resp))
}

func TestStripeProcessor_Charge_Timeout(t *testing.T) {
	cfg := NewConfig(payment.BankStripe, Settings{
		Timeout: 5 * time.Millisecond,
		Latency: 100 * time.Millisecond,
		Enabled: true,
	})
	p := NewStripeProcessor(cfg)

	resp := p.Charge(context.Background(), stripeRequest())

	assert.Equal(t, payment.StatusTimeout, resp.Status)
	assert.Equal(t, TimeoutErrorCode, resp.ErrorCode)
	assert.Equal(t, int64(2500), resp.Amount)
	assert.NotEmpty(t, resp.TransactionID)
}

func TestStripeApplicationFee(t *testing.T) {
	assert.Zero(t, stripeApplicationFee(2500))
	assert.Zero(t, stripeApplicationFee(stripeFeeThreshold))

	// 2.9% of 2,000,000 = 58,000
	assert.Equal(t, int64(58_000), stripeApplicationFee(2_000_000))
}

func TestStripeProcessor_BuildRequest_FeeAndHeaders(t *testing.T) {
	p := NewStripeProcessor(testConfig(payment.BankStripe))
	req := stripeRequest()
	req.Amount = 2_000_000

	payload, err := p.buildRequest(req)
	require.NoError(t, err)

	assert.Equal(t, int64(2_000_000), payload.Amount)
	assert.Equal(t, int64(58_000), payload.ApplicationFeeAmount)
	assert.Equal(t, "order-1", payload.Metadata["reference_id"])
	assert.Equal(t, "Bearer sk_test", payload.Headers["Authorization"])
	assert.NotEmpty(t, payload.Headers["Stripe-Version"])
}

func TestStripeProcessor_ToResponse_UnknownStatusFails(t *testing.T) {
	p := NewStripeProcessor(testConfig(payment.BankStripe))

	resp := p.toResponse(stripeRequest(), &stripeChargeResponse{
		ID:     "ch_fixture",
		Status: "exploded",
	}, "txn-1", time.Now())

	assert.Equal(t, payment.StatusFailed, resp.Status)
}

func TestStripeProcessor_CanProcess(t *testing.T) {
	cfg := testConfig(payment.BankStripe)
	p := NewStripeProcessor(cfg)

	assert.True(t, p.CanProcess(stripeRequest()))

	other := stripeRequest()
	other.BankID = payment.BankAdyen
	assert.False(t, p.CanProcess(other))

	cfg.SetEnabled(false)
	assert.False(t, p.CanProcess(stripeRequest()))
}
