package processor

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/cassiomorais/paygate/internal/domain/payment"
	"github.com/google/uuid"
)

const paypalAPIErrorCode = "PAYPAL_API_ERROR"

// paypalAmount carries a major-unit two-decimal string with a currency
// attribute, the way the SOAP dialect expresses money.
type paypalAmount struct {
	CurrencyID string `xml:"currencyID,attr"`
	Value      string `xml:",chardata"`
}

// paypalPaymentRequest is the bank-shaped outbound SOAP body.
type paypalPaymentRequest struct {
	XMLName       xml.Name     `xml:"DoDirectPaymentRequest"`
	Version       string       `xml:"Version"`
	Amount        paypalAmount `xml:"Amount"`
	PayerName     string       `xml:"PayerName,omitempty"`
	PayerEmail    string       `xml:"PayerEmail,omitempty"`
	InvoiceID     string       `xml:"InvoiceID,omitempty"`
	Description   string       `xml:"Description,omitempty"`
	CorrelationID string       `xml:"CorrelationID"`
}

type paypalErrorDetail struct {
	ErrorCode    string `xml:"ErrorCode"`
	ShortMessage string `xml:"ShortMessage"`
	LongMessage  string `xml:"LongMessage"`
}

// paypalPaymentResponse is the parsed SOAP response body. The
// interesting fields are nested text nodes keyed by tag name.
type paypalPaymentResponse struct {
	XMLName       xml.Name            `xml:"DoDirectPaymentResponse"`
	Ack           string              `xml:"Ack"` // Success | SuccessWithWarning | Failure
	TransactionID string              `xml:"TransactionID"`
	PaymentStatus string              `xml:"PaymentStatus"`
	GrossAmount   paypalAmount        `xml:"GrossAmount"`
	AVSCode       string              `xml:"AVSCode"`
	CVV2Code      string              `xml:"CVV2Code"`
	CorrelationID string              `xml:"CorrelationID"`
	Errors        []paypalErrorDetail `xml:"Errors"`
}

// paypalBackend returns a serialized SOAP envelope, matching how the
// real wire would deliver it.
type paypalBackend interface {
	DoDirectPayment(ctx context.Context, req *paypalPaymentRequest) ([]byte, error)
}

type paypalSimulator struct {
	outcome OutcomeFunc
}

func (s *paypalSimulator) DoDirectPayment(_ context.Context, req *paypalPaymentRequest) ([]byte, error) {
	resp := paypalPaymentResponse{
		TransactionID: "PP-" + uuid.New().String()[:12],
		GrossAmount:   req.Amount,
		CorrelationID: req.CorrelationID,
		AVSCode:       "X",
		CVV2Code:      "M",
	}
	switch s.outcome() {
	case OutcomeDecline:
		resp.Ack = "Failure"
		resp.PaymentStatus = "Denied"
		resp.Errors = []paypalErrorDetail{{
			ErrorCode:    "10417",
			ShortMessage: "Transaction cannot complete",
			LongMessage:  "The transaction cannot complete successfully. Instruct the customer to use an alternative payment method.",
		}}
	case OutcomePending:
		resp.Ack = "Success"
		resp.PaymentStatus = "Pending"
	case OutcomeCancelled:
		resp.Ack = "Success"
		resp.PaymentStatus = "Voided"
	case OutcomeError:
		return nil, fmt.Errorf("paypal-sim: soap endpoint unreachable")
	default:
		resp.Ack = "Success"
		resp.PaymentStatus = "Completed"
	}
	return xml.Marshal(resp)
}

// PayPalProcessor adapts the unified contract to the PayPal-like
// SOAP/XML dialect. Amounts go out as major-unit strings; the unified
// response still reports the original minor-unit integer.
type PayPalProcessor struct {
	cfg     *Config
	backend paypalBackend
}

// PayPalOption customizes a PayPalProcessor.
type PayPalOption func(*PayPalProcessor)

// WithPayPalOutcome pins the simulator's fabricated outcome.
func WithPayPalOutcome(o OutcomeFunc) PayPalOption {
	return func(p *PayPalProcessor) { p.backend = &paypalSimulator{outcome: o} }
}

// NewPayPalProcessor creates the PayPal-like adapter.
func NewPayPalProcessor(cfg *Config, opts ...PayPalOption) *PayPalProcessor {
	p := &PayPalProcessor{
		cfg:     cfg,
		backend: &paypalSimulator{outcome: AlwaysSucceed},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *PayPalProcessor) Bank() payment.Bank { return p.cfg.Bank }
func (p *PayPalProcessor) DisplayName() string { return "PayPal Simulator" }
func (p *PayPalProcessor) CanProcess(req payment.Request) bool { return canProcess(p.cfg, req) }

func (p *PayPalProcessor) Info() Info {
	return defaultInfo(p.cfg, p.DisplayName(), "SOAP",
		[]string{"wallet", "avs", "cvv2", "correlation_ids"})
}

func (p *PayPalProcessor) Ping(ctx context.Context) error { return probe(ctx, p.cfg) }

func (p *PayPalProcessor) Configuration() *Config { return p.cfg }

func (p *PayPalProcessor) Charge(ctx context.Context, req payment.Request) payment.Response {
	started := time.Now()
	txnID := NewTransactionID("pp")

	ctx, cancel := chargeContext(ctx, p.cfg)
	defer cancel()

	payload := p.buildRequest(req)

	if err := wait(ctx, p.cfg.Latency); err != nil {
		return contextResponse(req, txnID, started, err)
	}

	envelope, err := p.backend.DoDirectPayment(ctx, payload)
	if err != nil {
		return failureResponse(req, txnID, paypalAPIErrorCode, err.Error(), started, nil)
	}

	var resp paypalPaymentResponse
	if err := xml.Unmarshal(envelope, &resp); err != nil {
		return failureResponse(req, txnID, paypalAPIErrorCode,
			"failed to parse soap response: "+err.Error(), started, nil)
	}
	return p.toResponse(req, &resp, txnID, started)
}

func (p *PayPalProcessor) buildRequest(req payment.Request) *paypalPaymentRequest {
	return &paypalPaymentRequest{
		Version: "204.0",
		Amount: paypalAmount{
			CurrencyID: string(req.Currency),
			Value:      formatMajorUnits(req.Amount),
		},
		PayerName:     req.Customer.Name,
		PayerEmail:    req.Customer.Email,
		InvoiceID:     req.ReferenceID,
		Description:   req.Description,
		CorrelationID: uuid.New().String(),
	}
}

func (p *PayPalProcessor) toResponse(req payment.Request, resp *paypalPaymentResponse, txnID string, started time.Time) payment.Response {
	bankData := map[string]any{
		"bank_transaction_id": resp.TransactionID,
		"ack":                 resp.Ack,
		"payment_status":      resp.PaymentStatus,
		"gross_amount":        resp.GrossAmount.Value,
		"avs_code":            resp.AVSCode,
		"cvv2_code":           resp.CVV2Code,
		"correlation_id":      resp.CorrelationID,
	}

	if resp.Ack == "Failure" {
		code := paypalAPIErrorCode
		message := "payment failed"
		if len(resp.Errors) > 0 {
			code = resp.Errors[0].ErrorCode
			message = resp.Errors[0].LongMessage
			if message == "" {
				message = resp.Errors[0].ShortMessage
			}
		}
		return failureResponse(req, txnID, code, message, started, bankData)
	}

	switch resp.PaymentStatus {
	case "Completed", "Processed":
		return successResponse(req, txnID, started, bankData)
	case "Pending", "In-Progress":
		return buildResponse(req, payment.StatusPending, txnID, started, bankData)
	case "Voided", "Reversed":
		return buildResponse(req, payment.StatusCancelled, txnID, started, bankData)
	default:
		// Unknown vocabulary never maps to success.
		return failureResponse(req, txnID, "UNRECOGNIZED_STATUS",
			fmt.Sprintf("unrecognized payment status %q", resp.PaymentStatus), started, bankData)
	}
}
