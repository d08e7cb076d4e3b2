package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/cassiomorais/paygate/internal/domain/payment"
	"github.com/google/uuid"
)

const (
	squareAPIErrorCode = "SQUARE_API_ERROR"

	// squareIdempotencyKeyMaxLen caps the derived idempotency key.
	squareIdempotencyKeyMaxLen = 45

	squareAPIVersion = "2024-08-21"
)

type squareMoney struct {
	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency"`
}

// squarePaymentRequest is the bank-shaped outbound payload. The
// idempotency key rides both in the body and in a custom header.
type squarePaymentRequest struct {
	IdempotencyKey string      `json:"idempotency_key"`
	AmountMoney    squareMoney `json:"amount_money"`
	ReferenceID    string      `json:"reference_id,omitempty"`
	Note           string      `json:"note,omitempty"`
	BuyerEmail     string      `json:"buyer_email_address,omitempty"`

	Headers map[string]string `json:"-"`
}

type squareError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
}

type squareCardDetails struct {
	Brand     string `json:"brand"`
	Last4     string `json:"last_4"`
	AVSStatus string `json:"avs_status"`
	CVVStatus string `json:"cvv_status"`
}

type squarePayment struct {
	ID            string            `json:"id"`
	Status        string            `json:"status"` // APPROVED | COMPLETED | PENDING | CANCELED | FAILED
	ReceiptNumber string            `json:"receipt_number"`
	CardDetails   squareCardDetails `json:"card_details"`
	RiskLevel     string            `json:"risk_evaluation_level,omitempty"`
}

type squarePaymentResponse struct {
	Payment *squarePayment `json:"payment,omitempty"`
	Errors  []squareError  `json:"errors,omitempty"`
}

type squareBackend interface {
	CreatePayment(ctx context.Context, req *squarePaymentRequest) (*squarePaymentResponse, error)
}

type squareSimulator struct {
	outcome OutcomeFunc
}

func (s *squareSimulator) CreatePayment(_ context.Context, req *squarePaymentRequest) (*squarePaymentResponse, error) {
	pay := &squarePayment{
		ID:            "sq_" + uuid.New().String()[:10],
		ReceiptNumber: uuid.New().String()[:4],
		CardDetails: squareCardDetails{
			Brand: "MASTERCARD", Last4: "5100",
			AVSStatus: "AVS_ACCEPTED", CVVStatus: "CVV_ACCEPTED",
		},
		RiskLevel: "NORMAL",
	}
	switch s.outcome() {
	case OutcomeDecline:
		return &squarePaymentResponse{
			Errors: []squareError{{
				Category: "PAYMENT_METHOD_ERROR",
				Code:     "GENERIC_DECLINE",
				Detail:   "The card was declined.",
			}},
		}, nil
	case OutcomePending:
		pay.Status = "PENDING"
	case OutcomeCancelled:
		pay.Status = "CANCELED"
	case OutcomeError:
		return nil, fmt.Errorf("square-sim: gateway returned 502")
	default:
		pay.Status = "COMPLETED"
	}
	return &squarePaymentResponse{Payment: pay}, nil
}

// SquareProcessor adapts the unified contract to the Square-like
// custom-header REST dialect.
type SquareProcessor struct {
	cfg     *Config
	backend squareBackend
	now     func() time.Time
}

// SquareOption customizes a SquareProcessor.
type SquareOption func(*SquareProcessor)

// WithSquareOutcome pins the simulator's fabricated outcome.
func WithSquareOutcome(o OutcomeFunc) SquareOption {
	return func(p *SquareProcessor) { p.backend = &squareSimulator{outcome: o} }
}

// WithSquareClock substitutes the clock used for idempotency-key
// derivation.
func WithSquareClock(now func() time.Time) SquareOption {
	return func(p *SquareProcessor) { p.now = now }
}

// NewSquareProcessor creates the Square-like adapter.
func NewSquareProcessor(cfg *Config, opts ...SquareOption) *SquareProcessor {
	p := &SquareProcessor{
		cfg:     cfg,
		backend: &squareSimulator{outcome: AlwaysSucceed},
		now:     time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *SquareProcessor) Bank() payment.Bank { return p.cfg.Bank }
func (p *SquareProcessor) DisplayName() string { return "Square Simulator" }
func (p *SquareProcessor) CanProcess(req payment.Request) bool { return canProcess(p.cfg, req) }

func (p *SquareProcessor) Info() Info {
	return defaultInfo(p.cfg, p.DisplayName(), "REST (custom headers)",
		[]string{"cards", "idempotency", "receipts", "risk_evaluation"})
}

func (p *SquareProcessor) Ping(ctx context.Context) error { return probe(ctx, p.cfg) }

func (p *SquareProcessor) Configuration() *Config { return p.cfg }

func (p *SquareProcessor) Charge(ctx context.Context, req payment.Request) payment.Response {
	started := time.Now()
	txnID := NewTransactionID("sq")

	ctx, cancel := chargeContext(ctx, p.cfg)
	defer cancel()

	payload := p.buildRequest(req)

	if err := wait(ctx, p.cfg.Latency); err != nil {
		return contextResponse(req, txnID, started, err)
	}

	resp, err := p.backend.CreatePayment(ctx, payload)
	if err != nil {
		return failureResponse(req, txnID, squareAPIErrorCode, err.Error(), started, nil)
	}
	return p.toResponse(req, payload, resp, txnID, started)
}

// squareIdempotencyKey derives the key from the caller's reference id
// plus a millisecond uniqueness suffix. The suffix always survives
// truncation so two calls with the same reference id made at different
// times produce different keys.
func squareIdempotencyKey(referenceID string, now time.Time) string {
	base := referenceID
	if base == "" {
		base = "paygate"
	}
	suffix := fmt.Sprintf("-%d", now.UnixMilli())
	if max := squareIdempotencyKeyMaxLen - len(suffix); len(base) > max {
		base = base[:max]
	}
	return base + suffix
}

func (p *SquareProcessor) buildRequest(req payment.Request) *squarePaymentRequest {
	key := squareIdempotencyKey(req.ReferenceID, p.now())
	return &squarePaymentRequest{
		IdempotencyKey: key,
		AmountMoney: squareMoney{
			Amount:   req.Amount,
			Currency: string(req.Currency),
		},
		ReferenceID: req.ReferenceID,
		Note:        req.Description,
		BuyerEmail:  req.Customer.Email,
		Headers: map[string]string{
			"Authorization":   "Bearer " + p.cfg.APIKey,
			"Square-Version":  squareAPIVersion,
			"Idempotency-Key": key,
			"Content-Type":    "application/json",
		},
	}
}

func (p *SquareProcessor) toResponse(req payment.Request, sent *squarePaymentRequest, resp *squarePaymentResponse, txnID string, started time.Time) payment.Response {
	bankData := map[string]any{
		"idempotency_key": sent.IdempotencyKey,
	}

	// An errors array means the whole call was refused; map the first
	// entry's bank-native code and detail.
	if len(resp.Errors) > 0 {
		first := resp.Errors[0]
		bankData["error_category"] = first.Category
		return failureResponse(req, txnID, first.Code, first.Detail, started, bankData)
	}
	if resp.Payment == nil {
		return failureResponse(req, txnID, squareAPIErrorCode,
			"response contained neither payment nor errors", started, bankData)
	}

	bankData["bank_transaction_id"] = resp.Payment.ID
	bankData["receipt_number"] = resp.Payment.ReceiptNumber
	bankData["card_brand"] = resp.Payment.CardDetails.Brand
	bankData["card_last4"] = resp.Payment.CardDetails.Last4
	bankData["avs_status"] = resp.Payment.CardDetails.AVSStatus
	bankData["cvv_status"] = resp.Payment.CardDetails.CVVStatus
	if resp.Payment.RiskLevel != "" {
		bankData["risk_level"] = resp.Payment.RiskLevel
	}

	switch resp.Payment.Status {
	case "COMPLETED", "APPROVED":
		return successResponse(req, txnID, started, bankData)
	case "PENDING":
		return buildResponse(req, payment.StatusPending, txnID, started, bankData)
	case "CANCELED":
		return buildResponse(req, payment.StatusCancelled, txnID, started, bankData)
	default:
		return failureResponse(req, txnID, "PAYMENT_FAILED",
			fmt.Sprintf("payment ended in status %q", resp.Payment.Status), started, bankData)
	}
}
