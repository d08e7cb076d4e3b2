package processor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cassiomorais/paygate/internal/domain/payment"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Error codes shared by all adapters for infrastructure-level faults.
// Bank-native decline codes are passed through untouched.
const (
	TimeoutErrorCode   = "PROCESSOR_TIMEOUT"
	CancelledErrorCode = "REQUEST_CANCELLED"
)

// NewTransactionID returns a gateway-generated transaction id: prefix,
// millisecond timestamp, random suffix. Unique enough for audit and
// log correlation across concurrent calls; not a payment-network id.
func NewTransactionID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), uuid.New().String()[:8])
}

// wait simulates bank latency, honoring cancellation and deadlines.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// buildResponse stamps the echo fields (amount, currency, bank,
// reference) and timing consistently so adapters only supply the
// bank-specific translation.
func buildResponse(req payment.Request, status payment.Status, txnID string, started time.Time, bankData map[string]any) payment.Response {
	return payment.Response{
		TransactionID:    txnID,
		Status:           status,
		Amount:           req.Amount,
		Currency:         req.Currency,
		BankID:           req.BankID,
		ReferenceID:      req.ReferenceID,
		ProcessedAt:      time.Now(),
		ProcessingTimeMs: time.Since(started).Milliseconds(),
		BankData:         bankData,
	}
}

func successResponse(req payment.Request, txnID string, started time.Time, bankData map[string]any) payment.Response {
	return buildResponse(req, payment.StatusSuccess, txnID, started, bankData)
}

func failureResponse(req payment.Request, txnID, code, message string, started time.Time, bankData map[string]any) payment.Response {
	r := buildResponse(req, payment.StatusFailed, txnID, started, bankData)
	r.ErrorCode = code
	r.ErrorMessage = message
	return r
}

// contextResponse maps an expired or cancelled context onto the
// unified status vocabulary.
func contextResponse(req payment.Request, txnID string, started time.Time, err error) payment.Response {
	if errors.Is(err, context.DeadlineExceeded) {
		r := buildResponse(req, payment.StatusTimeout, txnID, started, nil)
		r.ErrorCode = TimeoutErrorCode
		r.ErrorMessage = "bank request exceeded the configured timeout"
		return r
	}
	r := buildResponse(req, payment.StatusCancelled, txnID, started, nil)
	r.ErrorCode = CancelledErrorCode
	r.ErrorMessage = "bank request was cancelled"
	return r
}

// chargeContext applies the adapter's timeout budget as a real
// deadline. Expiry yields a timeout-status response, never a hang.
func chargeContext(ctx context.Context, cfg *Config) (context.Context, context.CancelFunc) {
	if cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, cfg.Timeout)
}

// IsTransportFailure distinguishes transport/protocol-level faults
// from business-level declines. Only transport faults count against a
// bank's circuit breaker; a declined card is a working bank.
func IsTransportFailure(resp payment.Response) bool {
	if resp.Status == payment.StatusTimeout {
		return true
	}
	return strings.HasSuffix(resp.ErrorCode, "_API_ERROR")
}

// formatMajorUnits renders a minor-unit amount as a two-decimal
// major-unit string: 2500 cents -> "25.00".
func formatMajorUnits(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// parseMajorUnits converts a two-decimal major-unit string back into
// minor units. "25.00" -> 2500.
func parseMajorUnits(s string) (int64, error) {
	whole, frac, found := strings.Cut(strings.TrimSpace(s), ".")
	if whole == "" {
		return 0, fmt.Errorf("malformed amount %q", s)
	}
	neg := false
	if strings.HasPrefix(whole, "-") {
		neg = true
		whole = whole[1:]
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed amount %q: %w", s, err)
	}
	var cents int64
	if found {
		if len(frac) != 2 {
			return 0, fmt.Errorf("malformed amount %q: expected two decimal places", s)
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed amount %q: %w", s, err)
		}
	}
	total := units*100 + cents
	if neg {
		total = -total
	}
	return total, nil
}

// defaultInfo fills the fields every adapter reports the same way.
func defaultInfo(cfg *Config, displayName, protocol string, features []string) Info {
	return Info{
		Bank:              cfg.Bank,
		DisplayName:       displayName,
		Protocol:          protocol,
		Features:          features,
		Currencies:        payment.SupportedCurrencies(),
		AvgProcessingTime: cfg.Latency,
		Enabled:           cfg.Enabled(),
	}
}

// canProcess is the shared CanProcess predicate: identity match plus
// enabled flag, read at call time.
func canProcess(cfg *Config, req payment.Request) bool {
	return req.BankID == cfg.Bank && cfg.Enabled()
}

// probe fabricates a connectivity check: a fraction of the bank's
// usual latency, honoring cancellation.
func probe(ctx context.Context, cfg *Config) error {
	return wait(ctx, cfg.Latency/10)
}
