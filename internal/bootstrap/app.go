package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/cassiomorais/paygate/internal/domain/payment"
	"github.com/cassiomorais/paygate/internal/infrastructure/config"
	"github.com/cassiomorais/paygate/internal/infrastructure/observability"
	"github.com/cassiomorais/paygate/internal/processor"
	"github.com/rs/zerolog"
)

type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *observability.Metrics
	Factory *processor.Factory
}

func New(ctx context.Context, serviceName string, metricsNamespace string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info().Str("service", serviceName).Msg("Starting")

	if cfg.Observability.EnableTracing {
		tp, err := observability.InitTracer(serviceName, cfg.Observability.JaegerEndpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		} else {
			go func() {
				<-ctx.Done()
				observability.Shutdown(context.Background(), tp)
			}()
			logger.Info().Msg("Tracing enabled")
		}
	}

	var metrics *observability.Metrics
	if cfg.Observability.EnableMetrics {
		metrics = observability.NewMetrics(metricsNamespace, nil)
		logger.Info().Msg("Metrics initialized")
	}

	factory := processor.NewFactory(buildProcessors(cfg)...)
	logger.Info().Int("processors", len(factory.Banks())).Msg("Processor factory initialized")

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Factory: factory,
	}, nil
}

// buildProcessors wires one adapter per configured bank. Unknown bank
// names in the config are skipped; the registered set is fixed to the
// five simulated backends.
func buildProcessors(cfg *config.Config) []processor.Processor {
	procs := make([]processor.Processor, 0, len(cfg.Banks))
	for _, bank := range payment.Banks() {
		bc, ok := cfg.Banks[string(bank)]
		if !ok {
			continue
		}
		pc := processor.NewConfig(bank, processor.Settings{
			BaseURL:    bc.BaseURL,
			APIKey:     bc.APIKey,
			MerchantID: bc.MerchantID,
			Timeout:    bc.Timeout,
			Latency:    bc.Latency,
			Enabled:    bc.Enabled,
			Extra:      bc.Extra,
		})

		switch bank {
		case payment.BankStripe:
			procs = append(procs, processor.NewStripeProcessor(pc))
		case payment.BankPayPal:
			procs = append(procs, processor.NewPayPalProcessor(pc))
		case payment.BankSquare:
			procs = append(procs, processor.NewSquareProcessor(pc))
		case payment.BankAdyen:
			procs = append(procs, processor.NewAdyenProcessor(pc))
		case payment.BankBraintree:
			procs = append(procs, processor.NewBraintreeProcessor(pc))
		}
	}
	return procs
}
