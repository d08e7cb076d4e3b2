package processor

import (
	"strings"
	"testing"
	"time"

	"github.com/cassiomorais/paygate/internal/domain/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig builds an enabled zero-latency config so the suite runs
// without simulated delays.
func testConfig(bank payment.Bank) *Config {
	return NewConfig(bank, Settings{
		APIKey:     "sk_test",
		MerchantID: "merchant-test",
		Timeout:    time.Second,
		Latency:    0,
		Enabled:    true,
		Extra:      map[string]string{"hmac_key": "test-hmac-key"},
	})
}

func TestNewTransactionID(t *testing.T) {
	id := NewTransactionID("ch")
	assert.True(t, strings.HasPrefix(id, "ch_"))

	// No collisions across rapid successive calls.
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewTransactionID("ch")
		_, dup := seen[id]
		assert.False(t, dup, id)
		seen[id] = struct{}{}
	}
}

func TestFormatMajorUnits(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{2500, "25.00"},
		{2505, "25.05"},
		{99, "0.99"},
		{0, "0.00"},
		{100000001, "1000000.01"},
		{-2500, "-25.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMajorUnits(tt.cents))
	}
}

func TestParseMajorUnits(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"25.00", 2500},
		{"25.05", 2505},
		{"0.99", 99},
		{"1000000.01", 100000001},
		{"-25.00", -2500},
		{"17", 1700},
	}
	for _, tt := range tests {
		got, err := parseMajorUnits(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseMajorUnits_Malformed(t *testing.T) {
	for _, in := range []string{"", "abc", "25.0", "25.000", "25.x0"} {
		_, err := parseMajorUnits(in)
		assert.Error(t, err, in)
	}
}

func TestBuildResponse_EchoesRequest(t *testing.T) {
	req := payment.Request{
		BankID:      payment.BankSquare,
		Amount:      1234,
		Currency:    payment.CurrencyEUR,
		ReferenceID: "ref-42",
	}

	resp := buildResponse(req, payment.StatusSuccess, "txn-1", time.Now(), map[string]any{"k": "v"})

	assert.Equal(t, "txn-1", resp.TransactionID)
	assert.Equal(t, payment.StatusSuccess, resp.Status)
	assert.Equal(t, int64(1234), resp.Amount)
	assert.Equal(t, payment.CurrencyEUR, resp.Currency)
	assert.Equal(t, payment.BankSquare, resp.BankID)
	assert.Equal(t, "ref-42", resp.ReferenceID)
	assert.False(t, resp.ProcessedAt.IsZero())
	assert.Equal(t, "v", resp.BankData["k"])
}

func TestIsTransportFailure(t *testing.T) {
	assert.True(t, IsTransportFailure(payment.Response{Status: payment.StatusTimeout}))
	assert.True(t, IsTransportFailure(payment.Response{Status: payment.StatusFailed, ErrorCode: "STRIPE_API_ERROR"}))
	assert.True(t, IsTransportFailure(payment.Response{Status: payment.StatusFailed, ErrorCode: "BRAINTREE_API_ERROR"}))

	// Business declines keep the breaker closed.
	assert.False(t, IsTransportFailure(payment.Response{Status: payment.StatusFailed, ErrorCode: "card_declined"}))
	assert.False(t, IsTransportFailure(payment.Response{Status: payment.StatusSuccess}))
}

func TestConfig_EnabledFlag(t *testing.T) {
	cfg := NewConfig(payment.BankStripe, Settings{Enabled: true})
	assert.True(t, cfg.Enabled())

	cfg.SetEnabled(false)
	assert.False(t, cfg.Enabled())

	cfg.SetEnabled(true)
	assert.True(t, cfg.Enabled())
}
