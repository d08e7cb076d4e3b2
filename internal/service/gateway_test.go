package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domainErrors "github.com/cassiomorais/paygate/internal/domain/errors"
	"github.com/cassiomorais/paygate/internal/domain/payment"
	"github.com/cassiomorais/paygate/internal/processor"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spyProcessor records how often it is invoked and answers with a
// canned status, or panics when told to.
type spyProcessor struct {
	cfg    *processor.Config
	status payment.Status
	code   string
	panics bool
	calls  atomic.Int64
}

func newSpy(bank payment.Bank, status payment.Status) *spyProcessor {
	return &spyProcessor{
		cfg: processor.NewConfig(bank, processor.Settings{
			APIKey:  "sk_test",
			Timeout: time.Second,
			Latency: 100 * time.Millisecond,
			Enabled: true,
		}),
		status: status,
	}
}

func (s *spyProcessor) Bank() payment.Bank { return s.cfg.Bank }
func (s *spyProcessor) DisplayName() string { return "Spy " + string(s.cfg.Bank) }

func (s *spyProcessor) CanProcess(req payment.Request) bool {
	return req.BankID == s.cfg.Bank && s.cfg.Enabled()
}

func (s *spyProcessor) Info() processor.Info {
	return processor.Info{
		Bank:              s.cfg.Bank,
		DisplayName:       s.DisplayName(),
		Protocol:          "test",
		AvgProcessingTime: s.cfg.Latency,
		Enabled:           s.cfg.Enabled(),
	}
}

func (s *spyProcessor) Charge(_ context.Context, req payment.Request) payment.Response {
	s.calls.Add(1)
	if s.panics {
		panic("spy exploded")
	}
	return payment.Response{
		TransactionID: processor.NewTransactionID("spy"),
		Status:        s.status,
		Amount:        req.Amount,
		Currency:      req.Currency,
		BankID:        req.BankID,
		ReferenceID:   req.ReferenceID,
		ProcessedAt:   time.Now(),
		ErrorCode:     s.code,
	}
}

func (s *spyProcessor) Ping(context.Context) error       { return nil }
func (s *spyProcessor) Configuration() *processor.Config { return s.cfg }

func newTestGateway(procs ...processor.Processor) *Gateway {
	return NewGateway(processor.NewFactory(procs...), zerolog.Nop(), nil)
}

func validRequest(bank payment.Bank) payment.Request {
	return payment.Request{
		BankID:      bank,
		Amount:      2500,
		Currency:    payment.CurrencyUSD,
		ReferenceID: "order-9",
	}
}

func TestGateway_Charge_Success(t *testing.T) {
	spy := newSpy(payment.BankStripe, payment.StatusSuccess)
	g := newTestGateway(spy)

	resp := g.Charge(context.Background(), validRequest(payment.BankStripe))

	assert.True(t, resp.Succeeded())
	assert.Equal(t, int64(2500), resp.Amount)
	assert.Equal(t, payment.CurrencyUSD, resp.Currency)
	assert.Equal(t, payment.BankStripe, resp.BankID)
	assert.Equal(t, "order-9", resp.ReferenceID)
	assert.NotEmpty(t, resp.TransactionID)
	assert.Equal(t, int64(1), spy.calls.Load())
}

func TestGateway_Charge_ValidationFailsBeforeProcessor(t *testing.T) {
	spy := newSpy(payment.BankStripe, payment.StatusSuccess)
	g := newTestGateway(spy)

	cases := []struct {
		name string
		req  payment.Request
	}{
		{"zero amount", payment.Request{BankID: payment.BankStripe, Amount: 0, Currency: payment.CurrencyUSD}},
		{"negative amount", payment.Request{BankID: payment.BankStripe, Amount: -5, Currency: payment.CurrencyUSD}},
		{"missing currency", payment.Request{BankID: payment.BankStripe, Amount: 100}},
		{"unsupported currency", payment.Request{BankID: payment.BankStripe, Amount: 100, Currency: "XTS"}},
		{"missing bank", payment.Request{Amount: 100, Currency: payment.CurrencyUSD}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := g.Charge(context.Background(), tc.req)
			assert.Equal(t, payment.StatusFailed, resp.Status)
			assert.Equal(t, domainErrors.CodeInvalidRequest, resp.ErrorCode)
			assert.NotEmpty(t, resp.TransactionID)
			// Echo what the caller sent, even when it is invalid.
			assert.Equal(t, tc.req.Amount, resp.Amount)
		})
	}
	assert.Zero(t, spy.calls.Load(), "processor must not run for invalid requests")
}

func TestGateway_Charge_UnknownBank(t *testing.T) {
	g := newTestGateway(newSpy(payment.BankStripe, payment.StatusSuccess))

	resp := g.Charge(context.Background(), validRequest("monzo"))

	assert.Equal(t, payment.StatusFailed, resp.Status)
	assert.Equal(t, domainErrors.CodeInvalidRequest, resp.ErrorCode)
	assert.Contains(t, resp.ErrorMessage, "monzo")
	assert.Contains(t, resp.ErrorMessage, "stripe")
	assert.True(t, strings.HasPrefix(resp.TransactionID, "failed_"))
}

func TestGateway_Charge_DisabledBank(t *testing.T) {
	spy := newSpy(payment.BankStripe, payment.StatusSuccess)
	g := newTestGateway(spy)
	require.NoError(t, g.DisableProcessor(payment.BankStripe))

	resp := g.Charge(context.Background(), validRequest(payment.BankStripe))

	assert.Equal(t, payment.StatusFailed, resp.Status)
	assert.Equal(t, domainErrors.CodeServiceUnavailable, resp.ErrorCode)
	assert.Zero(t, spy.calls.Load())

	// Re-enabling restores charging.
	require.NoError(t, g.EnableProcessor(payment.BankStripe))
	resp = g.Charge(context.Background(), validRequest(payment.BankStripe))
	assert.True(t, resp.Succeeded())
	assert.Equal(t, int64(1), spy.calls.Load())
}

func TestGateway_Charge_PanicYieldsFailureResponse(t *testing.T) {
	spy := newSpy(payment.BankStripe, payment.StatusSuccess)
	spy.panics = true
	g := newTestGateway(spy)

	resp := g.Charge(context.Background(), validRequest(payment.BankStripe))

	assert.Equal(t, payment.StatusFailed, resp.Status)
	assert.Equal(t, domainErrors.CodeProcessingError, resp.ErrorCode)
	assert.Contains(t, resp.ErrorMessage, "spy exploded")
	assert.NotEmpty(t, resp.TransactionID)
	assert.Equal(t, int64(2500), resp.Amount)
}

func TestGateway_Charge_StatusPassthrough(t *testing.T) {
	for _, status := range []payment.Status{
		payment.StatusSuccess, payment.StatusFailed, payment.StatusPending,
		payment.StatusCancelled, payment.StatusTimeout,
	} {
		t.Run(string(status), func(t *testing.T) {
			g := newTestGateway(newSpy(payment.BankAdyen, status))
			resp := g.Charge(context.Background(), validRequest(payment.BankAdyen))
			assert.Equal(t, status, resp.Status)
		})
	}
}

func TestGateway_Charge_TransportFailureStillReturnsAdapterResponse(t *testing.T) {
	spy := newSpy(payment.BankSquare, payment.StatusFailed)
	spy.code = "SQUARE_API_ERROR"
	g := newTestGateway(spy)

	resp := g.Charge(context.Background(), validRequest(payment.BankSquare))

	assert.Equal(t, payment.StatusFailed, resp.Status)
	assert.Equal(t, "SQUARE_API_ERROR", resp.ErrorCode)
	assert.Equal(t, int64(2500), resp.Amount)
}

func TestGateway_Charge_BreakerOpensAfterTransportFailures(t *testing.T) {
	spy := newSpy(payment.BankSquare, payment.StatusFailed)
	spy.code = "SQUARE_API_ERROR"
	g := newTestGateway(spy)

	// Enough consecutive transport failures to trip the breaker.
	for i := 0; i < 12; i++ {
		g.Charge(context.Background(), validRequest(payment.BankSquare))
	}
	before := spy.calls.Load()

	resp := g.Charge(context.Background(), validRequest(payment.BankSquare))

	assert.Equal(t, payment.StatusFailed, resp.Status)
	assert.Equal(t, domainErrors.CodeServiceUnavailable, resp.ErrorCode)
	assert.Contains(t, resp.ErrorMessage, "temporarily unavailable")
	assert.Equal(t, before, spy.calls.Load(), "open breaker must short-circuit the adapter")
}

func TestGateway_Charge_BusinessDeclinesDoNotTripBreaker(t *testing.T) {
	spy := newSpy(payment.BankAdyen, payment.StatusFailed)
	spy.code = "24" // bank-native refusal, not a transport fault
	g := newTestGateway(spy)

	for i := 0; i < 20; i++ {
		resp := g.Charge(context.Background(), validRequest(payment.BankAdyen))
		assert.Equal(t, "24", resp.ErrorCode)
	}
	assert.Equal(t, int64(20), spy.calls.Load())
}

func TestGateway_ChargeAuto(t *testing.T) {
	fast := newSpy(payment.BankStripe, payment.StatusSuccess)
	fast.cfg = processor.NewConfig(payment.BankStripe, processor.Settings{
		Timeout: time.Second, Latency: 100 * time.Millisecond, Enabled: true,
	})
	slow := newSpy(payment.BankPayPal, payment.StatusSuccess)
	slow.cfg = processor.NewConfig(payment.BankPayPal, processor.Settings{
		Timeout: time.Second, Latency: 2 * time.Second, Enabled: true,
	})
	g := newTestGateway(slow, fast)

	req := validRequest("")
	req.BankID = "" // auto-routing fills it in
	resp := g.ChargeAuto(context.Background(), req)

	assert.True(t, resp.Succeeded())
	assert.Equal(t, payment.BankStripe, resp.BankID)
	assert.Equal(t, int64(1), fast.calls.Load())
	assert.Zero(t, slow.calls.Load())
}

func TestGateway_ChargeAuto_NoProcessors(t *testing.T) {
	spy := newSpy(payment.BankStripe, payment.StatusSuccess)
	g := newTestGateway(spy)
	require.NoError(t, g.DisableProcessor(payment.BankStripe))

	resp := g.ChargeAuto(context.Background(), validRequest(""))

	assert.Equal(t, payment.StatusFailed, resp.Status)
	assert.Equal(t, domainErrors.CodeServiceUnavailable, resp.ErrorCode)
}

func TestGateway_Charge_ConcurrentIndependence(t *testing.T) {
	g := newTestGateway(
		newSpy(payment.BankStripe, payment.StatusSuccess),
		newSpy(payment.BankPayPal, payment.StatusSuccess),
		newSpy(payment.BankSquare, payment.StatusSuccess),
	)
	banks := []payment.Bank{payment.BankStripe, payment.BankPayPal, payment.BankSquare}

	const n = 30
	var wg sync.WaitGroup
	responses := make([]payment.Response, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest(banks[i%len(banks)])
			req.Amount = int64(1000 + i)
			req.ReferenceID = fmt.Sprintf("conc-%d", i)
			responses[i] = g.Charge(context.Background(), req)
		}(i)
	}
	wg.Wait()

	for i, resp := range responses {
		assert.True(t, resp.Succeeded(), "call %d", i)
		assert.Equal(t, int64(1000+i), resp.Amount, "call %d echoes its own amount", i)
		assert.Equal(t, fmt.Sprintf("conc-%d", i), resp.ReferenceID)
		assert.Equal(t, banks[i%len(banks)], resp.BankID)
	}
	assert.Equal(t, int64(n), g.Statistics().TotalCharges)
}

func TestGateway_Statistics(t *testing.T) {
	g := newTestGateway(
		newSpy(payment.BankStripe, payment.StatusSuccess),
		newSpy(payment.BankAdyen, payment.StatusFailed),
	)

	g.Charge(context.Background(), validRequest(payment.BankStripe))
	g.Charge(context.Background(), validRequest(payment.BankStripe))
	g.Charge(context.Background(), validRequest(payment.BankAdyen))

	stats := g.Statistics()
	assert.Equal(t, int64(3), stats.TotalCharges)
	assert.Equal(t, int64(2), stats.ByBank[payment.BankStripe].Succeeded)
	assert.Equal(t, int64(1), stats.ByBank[payment.BankAdyen].Failed)
}

func TestGateway_ProcessorManagement(t *testing.T) {
	g := newTestGateway(
		newSpy(payment.BankStripe, payment.StatusSuccess),
		newSpy(payment.BankPayPal, payment.StatusSuccess),
	)

	infos := g.Processors()
	require.Len(t, infos, 2)
	assert.Equal(t, payment.BankStripe, infos[0].Bank)

	info, err := g.ProcessorInfo(payment.BankPayPal)
	require.NoError(t, err)
	assert.True(t, info.Enabled)

	_, err = g.ProcessorInfo("monzo")
	assert.ErrorIs(t, err, domainErrors.ErrUnknownBank)

	require.NoError(t, g.DisableProcessor(payment.BankPayPal))
	health := g.Health()
	assert.Equal(t, 2, health.Total)
	assert.Equal(t, 1, health.Enabled)
}

func TestGateway_ProbeConnectivity(t *testing.T) {
	g := newTestGateway(
		newSpy(payment.BankStripe, payment.StatusSuccess),
		newSpy(payment.BankSquare, payment.StatusSuccess),
	)

	results := g.ProbeConnectivity(context.Background())

	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.OK, "bank %s", r.Bank)
		assert.Empty(t, r.Error)
	}
}
