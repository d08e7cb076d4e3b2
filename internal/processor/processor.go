package processor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cassiomorais/paygate/internal/domain/payment"
)

// Processor is the contract every bank adapter satisfies. Charge never
// returns an error: every failure mode, including adapter-internal
// faults and timeouts, is expressed as a failed Response so callers
// always receive exactly one well-formed result.
type Processor interface {
	// Bank returns the adapter's bank identifier.
	Bank() payment.Bank
	// DisplayName returns a human-readable processor name.
	DisplayName() string
	// CanProcess reports whether this adapter handles the request's
	// bank and is currently enabled. Pure, no side effects.
	CanProcess(req payment.Request) bool
	// Info returns descriptive processor metadata.
	Info() Info
	// Charge processes a payment and always yields a Response.
	Charge(ctx context.Context, req payment.Request) payment.Response
	// Ping probes simulated connectivity to the bank.
	Ping(ctx context.Context) error
	// Configuration exposes the adapter's runtime config. The enabled
	// flag on it is the single source of truth for availability.
	Configuration() *Config
}

// Info is descriptive processor metadata, not behavioral contract.
// AvgProcessingTime feeds best-processor selection.
type Info struct {
	Bank              payment.Bank
	DisplayName       string
	Protocol          string
	Features          []string
	Currencies        []payment.Currency
	AvgProcessingTime time.Duration
	Enabled           bool
}

// Settings holds the static part of a bank adapter's configuration.
type Settings struct {
	BaseURL    string
	APIKey     string
	MerchantID string
	Timeout    time.Duration
	Latency    time.Duration
	Enabled    bool
	Extra      map[string]string
}

// Config is the runtime configuration of one bank adapter. The enabled
// flag is flipped by management calls while concurrent charges read it,
// so it is atomic; everything else is immutable after construction.
type Config struct {
	Bank       payment.Bank
	BaseURL    string
	APIKey     string
	MerchantID string
	Timeout    time.Duration
	Latency    time.Duration
	Extra      map[string]string

	enabled atomic.Bool
}

// NewConfig creates a bank adapter configuration.
func NewConfig(bank payment.Bank, s Settings) *Config {
	c := &Config{
		Bank:       bank,
		BaseURL:    s.BaseURL,
		APIKey:     s.APIKey,
		MerchantID: s.MerchantID,
		Timeout:    s.Timeout,
		Latency:    s.Latency,
		Extra:      s.Extra,
	}
	c.enabled.Store(s.Enabled)
	return c
}

// Enabled reports whether the bank is currently enabled. Read at call
// time, never cached.
func (c *Config) Enabled() bool {
	return c.enabled.Load()
}

// SetEnabled flips the bank's enabled flag.
func (c *Config) SetEnabled(v bool) {
	c.enabled.Store(v)
}

// Outcome directs a bank simulator's fabricated result. Production
// wiring defaults to success; tests pin specific outcomes so mappings
// stay deterministic.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeDecline
	OutcomePending
	OutcomeCancelled
	OutcomeError
)

// OutcomeFunc decides the fabricated outcome of the next simulated
// bank call.
type OutcomeFunc func() Outcome

// AlwaysSucceed is the default simulator outcome.
func AlwaysSucceed() Outcome { return OutcomeSuccess }

// FixedOutcome returns an OutcomeFunc that always yields o.
func FixedOutcome(o Outcome) OutcomeFunc {
	return func() Outcome { return o }
}
