package processor

import (
	"fmt"
	"time"

	"github.com/cassiomorais/paygate/internal/domain/errors"
	"github.com/cassiomorais/paygate/internal/domain/payment"
	"github.com/sony/gobreaker/v2"
)

// Factory holds one adapter instance per bank identifier, populated
// once at construction. The registered set never grows or shrinks at
// runtime; banks are only enabled or disabled.
type Factory struct {
	order      []payment.Bank
	processors map[payment.Bank]Processor
	breakers   map[payment.Bank]*gobreaker.CircuitBreaker[payment.Response]
}

// NewFactory creates a factory over the given processors, preserving
// registration order for best-processor tie-breaks.
func NewFactory(processors ...Processor) *Factory {
	f := &Factory{
		processors: make(map[payment.Bank]Processor, len(processors)),
		breakers:   make(map[payment.Bank]*gobreaker.CircuitBreaker[payment.Response], len(processors)),
	}
	for _, p := range processors {
		f.register(p)
	}
	return f
}

func (f *Factory) register(p Processor) {
	bank := p.Bank()
	if _, exists := f.processors[bank]; !exists {
		f.order = append(f.order, bank)
	}
	f.processors[bank] = p
	f.breakers[bank] = gobreaker.NewCircuitBreaker[payment.Response](gobreaker.Settings{
		Name:        string(bank),
		MaxRequests: 10,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
	})
}

// Get returns the adapter for bank, checking registration only.
// Management reads use this; charge paths go through Resolve.
func (f *Factory) Get(bank payment.Bank) (Processor, error) {
	p, ok := f.processors[bank]
	if !ok {
		return nil, fmt.Errorf("unsupported bank %q (known banks: %v): %w", bank, f.Banks(), errors.ErrUnknownBank)
	}
	return p, nil
}

// Resolve returns the adapter for bank, checking registration first
// and enablement second. The ordering is part of the contract: an
// unknown bank always reports ErrUnknownBank even if a disabled one
// would shadow it.
func (f *Factory) Resolve(bank payment.Bank) (Processor, error) {
	p, err := f.Get(bank)
	if err != nil {
		return nil, err
	}
	if !p.Info().Enabled {
		return nil, fmt.Errorf("bank %q is currently disabled: %w", bank, errors.ErrBankDisabled)
	}
	return p, nil
}

// Breaker returns the circuit breaker guarding bank's adapter.
func (f *Factory) Breaker(bank payment.Bank) *gobreaker.CircuitBreaker[payment.Response] {
	return f.breakers[bank]
}

// IsSupported reports whether bank is registered AND enabled, both
// read at call time. Registration alone is not support.
func (f *Factory) IsSupported(bank payment.Bank) bool {
	p, ok := f.processors[bank]
	return ok && p.Info().Enabled
}

// Banks returns all registered bank identifiers in registration
// order, regardless of enabled state.
func (f *Factory) Banks() []payment.Bank {
	out := make([]payment.Bank, len(f.order))
	copy(out, f.order)
	return out
}

// Processors returns all registered adapters in registration order.
func (f *Factory) Processors() []Processor {
	out := make([]Processor, 0, len(f.order))
	for _, bank := range f.order {
		out = append(out, f.processors[bank])
	}
	return out
}

// EnabledProcessors returns the adapters whose enabled flag is set,
// read at call time.
func (f *Factory) EnabledProcessors() []Processor {
	out := make([]Processor, 0, len(f.order))
	for _, bank := range f.order {
		p := f.processors[bank]
		if p.Info().Enabled {
			out = append(out, p)
		}
	}
	return out
}

// Enable flips bank's enabled flag on. Enabling an already-enabled
// bank is a no-op success.
func (f *Factory) Enable(bank payment.Bank) error {
	return f.setEnabled(bank, true)
}

// Disable flips bank's enabled flag off. Idempotent.
func (f *Factory) Disable(bank payment.Bank) error {
	return f.setEnabled(bank, false)
}

func (f *Factory) setEnabled(bank payment.Bank, enabled bool) error {
	p, ok := f.processors[bank]
	if !ok {
		return fmt.Errorf("processor not found for bank %q: %w", bank, errors.ErrUnknownBank)
	}
	p.Configuration().SetEnabled(enabled)
	return nil
}

// Best picks the enabled processor with the lowest declared average
// processing time, optionally excluding banks. Ties break toward
// registration order.
func (f *Factory) Best(exclude ...payment.Bank) (Processor, error) {
	excluded := make(map[payment.Bank]struct{}, len(exclude))
	for _, b := range exclude {
		excluded[b] = struct{}{}
	}

	var best Processor
	for _, p := range f.EnabledProcessors() {
		if _, skip := excluded[p.Bank()]; skip {
			continue
		}
		if best == nil || p.Info().AvgProcessingTime < best.Info().AvgProcessingTime {
			best = p
		}
	}
	if best == nil {
		return nil, errors.ErrNoProcessors
	}
	return best, nil
}

// Health is a read-only projection of one processor's state.
type Health struct {
	Bank              payment.Bank
	DisplayName       string
	Protocol          string
	Enabled           bool
	AvgProcessingTime time.Duration
	BreakerState      string
}

// HealthReport projects the registered set; no side effects.
func (f *Factory) HealthReport() []Health {
	out := make([]Health, 0, len(f.order))
	for _, bank := range f.order {
		info := f.processors[bank].Info()
		out = append(out, Health{
			Bank:              bank,
			DisplayName:       info.DisplayName,
			Protocol:          info.Protocol,
			Enabled:           info.Enabled,
			AvgProcessingTime: info.AvgProcessingTime,
			BreakerState:      f.breakers[bank].State().String(),
		})
	}
	return out
}
