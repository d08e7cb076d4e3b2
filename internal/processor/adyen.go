package processor

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cassiomorais/paygate/internal/domain/payment"
	"github.com/google/uuid"
)

const adyenAPIErrorCode = "ADYEN_API_ERROR"

var errAdyenNoHMACKey = errors.New("hmac key is not configured")

type adyenAmount struct {
	Value    int64  `json:"value"` // minor units
	Currency string `json:"currency"`
}

// adyenPaymentRequest is the bank-shaped outbound payload. The HMAC
// signature over the serialized body travels in a header.
type adyenPaymentRequest struct {
	Amount          adyenAmount `json:"amount"`
	Reference       string      `json:"reference"`
	MerchantAccount string      `json:"merchantAccount"`
	ShopperEmail    string      `json:"shopperEmail,omitempty"`
	ShopperName     string      `json:"shopperName,omitempty"`
	Description     string      `json:"description,omitempty"`

	Headers map[string]string `json:"-"`
}

type adyenFraudResult struct {
	AccountScore int `json:"accountScore"`
}

type adyenPaymentResponse struct {
	PSPReference      string            `json:"pspReference"`
	ResultCode        string            `json:"resultCode"` // Authorised | Received | Pending | Refused | Cancelled | Error
	RefusalReason     string            `json:"refusalReason,omitempty"`
	RefusalReasonCode string            `json:"refusalReasonCode,omitempty"`
	FraudResult       adyenFraudResult  `json:"fraudResult"`
	AdditionalData    map[string]string `json:"additionalData,omitempty"`
}

type adyenBackend interface {
	Authorise(ctx context.Context, req *adyenPaymentRequest) (*adyenPaymentResponse, error)
}

type adyenSimulator struct {
	outcome OutcomeFunc
}

func (s *adyenSimulator) Authorise(_ context.Context, _ *adyenPaymentRequest) (*adyenPaymentResponse, error) {
	resp := &adyenPaymentResponse{
		PSPReference: "883" + uuid.New().String()[:13],
		FraudResult:  adyenFraudResult{AccountScore: 8},
		AdditionalData: map[string]string{
			"authCode":      "075362",
			"cardSummary":   "1142",
			"paymentMethod": "visa",
		},
	}
	switch s.outcome() {
	case OutcomeDecline:
		resp.ResultCode = "Refused"
		resp.RefusalReason = "Insufficient funds"
		resp.RefusalReasonCode = "24"
		resp.FraudResult.AccountScore = 52
		delete(resp.AdditionalData, "authCode")
	case OutcomePending:
		resp.ResultCode = "Received"
	case OutcomeCancelled:
		resp.ResultCode = "Cancelled"
	case OutcomeError:
		return nil, fmt.Errorf("adyen-sim: tls handshake failed")
	default:
		resp.ResultCode = "Authorised"
	}
	return resp, nil
}

// AdyenProcessor adapts the unified contract to the Adyen-like
// HMAC-signed REST dialect.
type AdyenProcessor struct {
	cfg     *Config
	backend adyenBackend
}

// AdyenOption customizes an AdyenProcessor.
type AdyenOption func(*AdyenProcessor)

// WithAdyenOutcome pins the simulator's fabricated outcome.
func WithAdyenOutcome(o OutcomeFunc) AdyenOption {
	return func(p *AdyenProcessor) { p.backend = &adyenSimulator{outcome: o} }
}

// NewAdyenProcessor creates the Adyen-like adapter.
func NewAdyenProcessor(cfg *Config, opts ...AdyenOption) *AdyenProcessor {
	p := &AdyenProcessor{
		cfg:     cfg,
		backend: &adyenSimulator{outcome: AlwaysSucceed},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *AdyenProcessor) Bank() payment.Bank { return p.cfg.Bank }
func (p *AdyenProcessor) DisplayName() string { return "Adyen Simulator" }
func (p *AdyenProcessor) CanProcess(req payment.Request) bool { return canProcess(p.cfg, req) }

func (p *AdyenProcessor) Info() Info {
	return defaultInfo(p.cfg, p.DisplayName(), "REST (HMAC signed)",
		[]string{"cards", "hmac_signatures", "fraud_scoring", "local_payment_methods"})
}

func (p *AdyenProcessor) Ping(ctx context.Context) error { return probe(ctx, p.cfg) }

func (p *AdyenProcessor) Configuration() *Config { return p.cfg }

func (p *AdyenProcessor) Charge(ctx context.Context, req payment.Request) payment.Response {
	started := time.Now()
	txnID := NewTransactionID("ady")

	ctx, cancel := chargeContext(ctx, p.cfg)
	defer cancel()

	payload, err := p.buildRequest(req, started)
	if err != nil {
		// A signing failure is a configuration fault, not a condition
		// worth retrying against the bank.
		return failureResponse(req, txnID, adyenAPIErrorCode,
			"failed to sign payment request: "+err.Error(), started, nil)
	}

	if err := wait(ctx, p.cfg.Latency); err != nil {
		return contextResponse(req, txnID, started, err)
	}

	resp, err := p.backend.Authorise(ctx, payload)
	if err != nil {
		return failureResponse(req, txnID, adyenAPIErrorCode, err.Error(), started, nil)
	}
	return p.toResponse(req, resp, txnID, started)
}

func (p *AdyenProcessor) buildRequest(req payment.Request, ts time.Time) (*adyenPaymentRequest, error) {
	reference := req.ReferenceID
	if reference == "" {
		reference = uuid.New().String()
	}
	out := &adyenPaymentRequest{
		Amount: adyenAmount{
			Value:    req.Amount,
			Currency: string(req.Currency),
		},
		Reference:       reference,
		MerchantAccount: p.cfg.MerchantID,
		ShopperEmail:    req.Customer.Email,
		ShopperName:     req.Customer.Name,
		Description:     req.Description,
	}

	body, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	signature, err := p.sign(body, ts)
	if err != nil {
		return nil, err
	}

	out.Headers = map[string]string{
		"X-API-Key":      p.cfg.APIKey,
		"X-HMAC-Payload": signature,
		"X-Timestamp":    strconv.FormatInt(ts.Unix(), 10),
		"Content-Type":   "application/json",
	}
	return out, nil
}

// sign computes an HMAC-SHA256 over the serialized payload, the
// merchant account and a unix timestamp.
func (p *AdyenProcessor) sign(body []byte, ts time.Time) (string, error) {
	key := p.cfg.Extra["hmac_key"]
	if key == "" {
		return "", errAdyenNoHMACKey
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	mac.Write([]byte(p.cfg.MerchantID))
	mac.Write([]byte(strconv.FormatInt(ts.Unix(), 10)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

func (p *AdyenProcessor) toResponse(req payment.Request, resp *adyenPaymentResponse, txnID string, started time.Time) payment.Response {
	bankData := map[string]any{
		"psp_reference": resp.PSPReference,
		"result_code":   resp.ResultCode,
		"fraud_score":   resp.FraudResult.AccountScore,
	}
	for k, v := range resp.AdditionalData {
		switch k {
		case "authCode":
			bankData["authorization_code"] = v
		case "cardSummary":
			bankData["card_last4"] = v
		case "paymentMethod":
			bankData["payment_method"] = v
		}
	}

	switch resp.ResultCode {
	case "Authorised":
		return successResponse(req, txnID, started, bankData)
	case "Received", "Pending":
		return buildResponse(req, payment.StatusPending, txnID, started, bankData)
	case "Cancelled":
		return buildResponse(req, payment.StatusCancelled, txnID, started, bankData)
	case "Refused":
		code := resp.RefusalReasonCode
		if code == "" {
			code = "REFUSED"
		}
		return failureResponse(req, txnID, code, resp.RefusalReason, started, bankData)
	default:
		// "Error" and anything unrecognized: the call itself failed.
		message := resp.RefusalReason
		if message == "" {
			message = fmt.Sprintf("payment ended with result code %q", resp.ResultCode)
		}
		return failureResponse(req, txnID, adyenAPIErrorCode, message, started, bankData)
	}
}
