package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainErrors "github.com/cassiomorais/paygate/internal/domain/errors"
	"github.com/cassiomorais/paygate/internal/domain/payment"
	"github.com/cassiomorais/paygate/internal/infrastructure/observability"
	"github.com/cassiomorais/paygate/internal/processor"
	"github.com/cassiomorais/paygate/pkg/retry"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
)

// errTransportFailure marks adapter responses that should count
// against the bank's circuit breaker.
var errTransportFailure = errors.New("transport-level processor failure")

// Gateway is the orchestrating service: it validates the request,
// resolves a processor through the factory, invokes it, and guarantees
// a normalized response is always returned, whatever goes wrong.
type Gateway struct {
	factory  *processor.Factory
	logger   zerolog.Logger
	metrics  *observability.Metrics
	probeCfg retry.Config

	mu    sync.Mutex
	stats map[payment.Bank]*BankStats
}

// BankStats accumulates per-bank charge outcomes.
type BankStats struct {
	Total     int64
	Succeeded int64
	Failed    int64
	Pending   int64
	Cancelled int64
	TimedOut  int64
}

// NewGateway creates the orchestrating service. Metrics may be nil in
// tests.
func NewGateway(factory *processor.Factory, logger zerolog.Logger, metrics *observability.Metrics) *Gateway {
	return &Gateway{
		factory:  factory,
		logger:   logger,
		metrics:  metrics,
		probeCfg: retry.DefaultConfig(),
		stats:    make(map[payment.Bank]*BankStats),
	}
}

// Charge is the single entry point for payments. It never returns an
// error and never panics through: every code path yields exactly one
// well-formed response with a non-empty transaction id.
func (g *Gateway) Charge(ctx context.Context, req payment.Request) (resp payment.Response) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error().Interface("panic", r).Str("bank", string(req.BankID)).Msg("charge panicked")
			resp = g.failure(req, started, domainErrors.CodeProcessingError, fmt.Sprintf("internal error: %v", r))
		}
		g.record(resp, started)
	}()

	if err := req.Validate(); err != nil {
		return g.failure(req, started, domainErrors.CodeInvalidRequest, err.Error())
	}

	proc, err := g.factory.Resolve(req.BankID)
	if err != nil {
		return g.failure(req, started, classify(err), err.Error())
	}

	breaker := g.factory.Breaker(req.BankID)
	resp, err = breaker.Execute(func() (payment.Response, error) {
		r := proc.Charge(ctx, req)
		if processor.IsTransportFailure(r) {
			return r, errTransportFailure
		}
		return r, nil
	})
	if err != nil && (errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)) {
		return g.failure(req, started, domainErrors.CodeServiceUnavailable,
			fmt.Sprintf("bank %q is temporarily unavailable", req.BankID))
	}
	// On errTransportFailure the adapter's own normalized response is
	// still the answer; the error only fed the breaker.
	return resp
}

// ChargeAuto routes the request to the best available processor.
func (g *Gateway) ChargeAuto(ctx context.Context, req payment.Request) payment.Response {
	best, err := g.factory.Best()
	if err != nil {
		return g.failure(req, time.Now(), domainErrors.CodeServiceUnavailable, err.Error())
	}
	req.BankID = best.Bank()
	return g.Charge(ctx, req)
}

// failure builds the top-level failure response: fresh failed_-prefix
// transaction id, echoed request fields, classified error code.
func (g *Gateway) failure(req payment.Request, started time.Time, code, message string) payment.Response {
	return payment.Response{
		TransactionID:    processor.NewTransactionID("failed"),
		Status:           payment.StatusFailed,
		Amount:           req.Amount,
		Currency:         req.Currency,
		BankID:           req.BankID,
		ReferenceID:      req.ReferenceID,
		ProcessedAt:      time.Now(),
		ProcessingTimeMs: time.Since(started).Milliseconds(),
		ErrorCode:        code,
		ErrorMessage:     message,
	}
}

// classify maps resolution errors onto gateway-level error codes:
// unknown bank is the caller's fault, a disabled bank is ours.
func classify(err error) string {
	switch {
	case errors.Is(err, domainErrors.ErrUnknownBank):
		return domainErrors.CodeInvalidRequest
	case errors.Is(err, domainErrors.ErrBankDisabled), errors.Is(err, domainErrors.ErrNoProcessors):
		return domainErrors.CodeServiceUnavailable
	default:
		return domainErrors.CodeProcessingError
	}
}

func (g *Gateway) record(resp payment.Response, started time.Time) {
	g.mu.Lock()
	s, ok := g.stats[resp.BankID]
	if !ok {
		s = &BankStats{}
		g.stats[resp.BankID] = s
	}
	s.Total++
	switch resp.Status {
	case payment.StatusSuccess:
		s.Succeeded++
	case payment.StatusPending:
		s.Pending++
	case payment.StatusCancelled:
		s.Cancelled++
	case payment.StatusTimeout:
		s.TimedOut++
	default:
		s.Failed++
	}
	g.mu.Unlock()

	if g.metrics != nil {
		g.metrics.ChargesTotal.WithLabelValues(string(resp.BankID), string(resp.Status)).Inc()
		g.metrics.ChargeDuration.WithLabelValues(string(resp.BankID)).Observe(time.Since(started).Seconds())
	}

	evt := g.logger.Info()
	if resp.Status == payment.StatusFailed {
		evt = g.logger.Warn()
	}
	evt.Str("transaction_id", resp.TransactionID).
		Str("bank", string(resp.BankID)).
		Str("status", string(resp.Status)).
		Int64("amount", resp.Amount).
		Str("currency", string(resp.Currency)).
		Int64("processing_time_ms", resp.ProcessingTimeMs).
		Str("error_code", resp.ErrorCode).
		Msg("charge processed")
}

// Statistics is an aggregate of the gateway's in-memory counters.
type Statistics struct {
	TotalCharges int64
	ByBank       map[payment.Bank]BankStats
}

// Statistics returns a snapshot of accumulated charge outcomes.
func (g *Gateway) Statistics() Statistics {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := Statistics{ByBank: make(map[payment.Bank]BankStats, len(g.stats))}
	for bank, s := range g.stats {
		out.ByBank[bank] = *s
		out.TotalCharges += s.Total
	}
	return out
}

// Processors lists info for every registered processor.
func (g *Gateway) Processors() []processor.Info {
	procs := g.factory.Processors()
	out := make([]processor.Info, 0, len(procs))
	for _, p := range procs {
		out = append(out, p.Info())
	}
	return out
}

// ProcessorInfo returns one processor's info.
func (g *Gateway) ProcessorInfo(bank payment.Bank) (processor.Info, error) {
	p, err := g.factory.Get(bank)
	if err != nil {
		return processor.Info{}, err
	}
	return p.Info(), nil
}

// EnableProcessor enables a bank. Idempotent.
func (g *Gateway) EnableProcessor(bank payment.Bank) error {
	if err := g.factory.Enable(bank); err != nil {
		return err
	}
	g.setEnabledGauge(bank, 1)
	g.logger.Info().Str("bank", string(bank)).Msg("processor enabled")
	return nil
}

// DisableProcessor disables a bank. Idempotent.
func (g *Gateway) DisableProcessor(bank payment.Bank) error {
	if err := g.factory.Disable(bank); err != nil {
		return err
	}
	g.setEnabledGauge(bank, 0)
	g.logger.Info().Str("bank", string(bank)).Msg("processor disabled")
	return nil
}

func (g *Gateway) setEnabledGauge(bank payment.Bank, v float64) {
	if g.metrics != nil {
		g.metrics.ProcessorEnabled.WithLabelValues(string(bank)).Set(v)
	}
}

// HealthSummary aggregates processor health.
type HealthSummary struct {
	Total      int
	Enabled    int
	Processors []processor.Health
}

// Health reports the registered processors' current state.
func (g *Gateway) Health() HealthSummary {
	report := g.factory.HealthReport()
	summary := HealthSummary{Total: len(report), Processors: report}
	for _, h := range report {
		if h.Enabled {
			summary.Enabled++
		}
	}
	return summary
}

// ProbeResult is the outcome of one bank's connectivity probe.
type ProbeResult struct {
	Bank    payment.Bank
	OK      bool
	Error   string
	Elapsed time.Duration
}

// ProbeConnectivity pings every enabled processor concurrently, with
// bounded retries per bank.
func (g *Gateway) ProbeConnectivity(ctx context.Context) []ProbeResult {
	procs := g.factory.EnabledProcessors()
	results := make([]ProbeResult, len(procs))

	grp, ctx := errgroup.WithContext(ctx)
	for i, p := range procs {
		grp.Go(func() error {
			start := time.Now()
			err := retry.Do(ctx, g.probeCfg, func() error { return p.Ping(ctx) })
			results[i] = ProbeResult{
				Bank:    p.Bank(),
				OK:      err == nil,
				Elapsed: time.Since(start),
			}
			if err != nil {
				results[i].Error = err.Error()
				if g.metrics != nil {
					g.metrics.ProbeFailures.WithLabelValues(string(p.Bank())).Inc()
				}
			}
			return nil
		})
	}
	// Goroutines only report through results; Wait cannot fail.
	_ = grp.Wait()
	return results
}
