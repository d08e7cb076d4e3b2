package processor

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cassiomorais/paygate/internal/domain/payment"
	"github.com/google/uuid"
)

const (
	stripeAPIErrorCode = "STRIPE_API_ERROR"

	// Platform fee: 2.9% on charges above 1,000,000 minor units,
	// included in the bank payload, never in the unified amount.
	stripeFeeThreshold int64   = 1_000_000
	stripeFeePercent   float64 = 0.029
)

// stripeChargeRequest is the bank-shaped outbound payload. Amounts are
// already in minor units on this dialect.
type stripeChargeRequest struct {
	Amount               int64             `json:"amount"`
	Currency             string            `json:"currency"`
	Description          string            `json:"description,omitempty"`
	ReceiptEmail         string            `json:"receipt_email,omitempty"`
	ApplicationFeeAmount int64             `json:"application_fee_amount,omitempty"`
	Metadata             map[string]string `json:"metadata,omitempty"`

	Headers map[string]string `json:"-"`
}

type stripeError struct {
	Type        string `json:"type"`
	Code        string `json:"code"`
	Message     string `json:"message"`
	DeclineCode string `json:"decline_code,omitempty"`
}

type stripeChargeResponse struct {
	ID        string       `json:"id"`
	Status    string       `json:"status"` // succeeded | pending | canceled | failed
	Amount    int64        `json:"amount"`
	Currency  string       `json:"currency"`
	Paid      bool         `json:"paid"`
	AuthCode  string       `json:"authorization_code,omitempty"`
	CardBrand string       `json:"card_brand,omitempty"`
	CardLast4 string       `json:"card_last4,omitempty"`
	RiskScore int          `json:"risk_score"`
	Error     *stripeError `json:"error,omitempty"`
}

// stripeBackend produces bank-shaped responses. The default simulator
// fabricates them; tests substitute fixed fixtures.
type stripeBackend interface {
	CreateCharge(ctx context.Context, req *stripeChargeRequest) (*stripeChargeResponse, error)
}

type stripeSimulator struct {
	outcome OutcomeFunc
}

func (s *stripeSimulator) CreateCharge(_ context.Context, req *stripeChargeRequest) (*stripeChargeResponse, error) {
	id := "ch_sim_" + uuid.New().String()[:8]
	switch s.outcome() {
	case OutcomeDecline:
		return &stripeChargeResponse{
			ID:     id,
			Status: "failed",
			Amount: req.Amount, Currency: req.Currency,
			CardBrand: "visa", CardLast4: "0002",
			RiskScore: 78,
			Error: &stripeError{
				Type:        "card_error",
				Code:        "card_declined",
				DeclineCode: "insufficient_funds",
				Message:     "Your card has insufficient funds.",
			},
		}, nil
	case OutcomePending:
		return &stripeChargeResponse{
			ID: id, Status: "pending",
			Amount: req.Amount, Currency: req.Currency,
			CardBrand: "visa", CardLast4: "4242", RiskScore: 21,
		}, nil
	case OutcomeCancelled:
		return &stripeChargeResponse{
			ID: id, Status: "canceled",
			Amount: req.Amount, Currency: req.Currency,
			CardBrand: "visa", CardLast4: "4242", RiskScore: 21,
		}, nil
	case OutcomeError:
		return nil, fmt.Errorf("stripe-sim: upstream connection reset")
	default:
		return &stripeChargeResponse{
			ID: id, Status: "succeeded", Paid: true,
			Amount: req.Amount, Currency: req.Currency,
			AuthCode:  "A" + uuid.New().String()[:6],
			CardBrand: "visa", CardLast4: "4242", RiskScore: 12,
		}, nil
	}
}

// StripeProcessor adapts the unified contract to the Stripe-like
// REST/JSON dialect.
type StripeProcessor struct {
	cfg     *Config
	backend stripeBackend
}

// StripeOption customizes a StripeProcessor.
type StripeOption func(*StripeProcessor)

// WithStripeOutcome pins the simulator's fabricated outcome.
func WithStripeOutcome(o OutcomeFunc) StripeOption {
	return func(p *StripeProcessor) { p.backend = &stripeSimulator{outcome: o} }
}

// NewStripeProcessor creates the Stripe-like adapter.
func NewStripeProcessor(cfg *Config, opts ...StripeOption) *StripeProcessor {
	p := &StripeProcessor{
		cfg:     cfg,
		backend: &stripeSimulator{outcome: AlwaysSucceed},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *StripeProcessor) Bank() payment.Bank { return p.cfg.Bank }
func (p *StripeProcessor) DisplayName() string { return "Stripe Simulator" }
func (p *StripeProcessor) CanProcess(req payment.Request) bool { return canProcess(p.cfg, req) }

func (p *StripeProcessor) Info() Info {
	return defaultInfo(p.cfg, p.DisplayName(), "REST",
		[]string{"cards", "idempotency", "platform_fees", "risk_scoring"})
}

func (p *StripeProcessor) Ping(ctx context.Context) error { return probe(ctx, p.cfg) }

func (p *StripeProcessor) Configuration() *Config { return p.cfg }

func (p *StripeProcessor) Charge(ctx context.Context, req payment.Request) payment.Response {
	started := time.Now()
	txnID := NewTransactionID("ch")

	ctx, cancel := chargeContext(ctx, p.cfg)
	defer cancel()

	payload, err := p.buildRequest(req)
	if err != nil {
		return failureResponse(req, txnID, stripeAPIErrorCode,
			"failed to build charge request: "+err.Error(), started, nil)
	}

	if err := wait(ctx, p.cfg.Latency); err != nil {
		return contextResponse(req, txnID, started, err)
	}

	resp, err := p.backend.CreateCharge(ctx, payload)
	if err != nil {
		return failureResponse(req, txnID, stripeAPIErrorCode, err.Error(), started, nil)
	}
	return p.toResponse(req, resp, txnID, started)
}

func (p *StripeProcessor) buildRequest(req payment.Request) (*stripeChargeRequest, error) {
	metadata := make(map[string]string, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = fmt.Sprint(v)
	}
	if req.ReferenceID != "" {
		metadata["reference_id"] = req.ReferenceID
	}

	out := &stripeChargeRequest{
		Amount:               req.Amount,
		Currency:             string(req.Currency),
		Description:          req.Description,
		ReceiptEmail:         req.Customer.Email,
		ApplicationFeeAmount: stripeApplicationFee(req.Amount),
		Metadata:             metadata,
		Headers: map[string]string{
			"Authorization":  "Bearer " + p.cfg.APIKey,
			"Stripe-Version": "2024-06-20",
			"Content-Type":   "application/json",
		},
	}
	if _, err := json.Marshal(out); err != nil {
		return nil, err
	}
	return out, nil
}

// stripeApplicationFee computes the platform fee charged on large
// transactions. Zero below the threshold.
func stripeApplicationFee(amount int64) int64 {
	if amount <= stripeFeeThreshold {
		return 0
	}
	return int64(math.Round(float64(amount) * stripeFeePercent))
}

func (p *StripeProcessor) toResponse(req payment.Request, resp *stripeChargeResponse, txnID string, started time.Time) payment.Response {
	bankData := map[string]any{
		"bank_transaction_id": resp.ID,
		"card_brand":          resp.CardBrand,
		"card_last4":          resp.CardLast4,
		"risk_score":          resp.RiskScore,
	}
	if resp.AuthCode != "" {
		bankData["authorization_code"] = resp.AuthCode
	}
	if fee := stripeApplicationFee(req.Amount); fee > 0 {
		bankData["application_fee_amount"] = fee
	}

	switch resp.Status {
	case "succeeded":
		return successResponse(req, txnID, started, bankData)
	case "pending":
		return buildResponse(req, payment.StatusPending, txnID, started, bankData)
	case "canceled":
		return buildResponse(req, payment.StatusCancelled, txnID, started, bankData)
	default:
		// Business-level decline: preserve the bank-native code so a
		// caller can tell "try a different card" from a transport fault.
		code := "card_declined"
		message := "charge was declined"
		if resp.Error != nil {
			message = resp.Error.Message
			code = resp.Error.Code
			if resp.Error.DeclineCode != "" {
				bankData["decline_code"] = resp.Error.DeclineCode
			}
		}
		return failureResponse(req, txnID, code, message, started, bankData)
	}
}
