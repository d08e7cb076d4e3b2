package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/cassiomorais/paygate/internal/domain/payment"
	"github.com/google/uuid"
)

const braintreeAPIErrorCode = "BRAINTREE_API_ERROR"

const braintreeChargeMutation = `mutation ChargePaymentMethod($input: ChargePaymentMethodInput!) {
  chargePaymentMethod(input: $input) {
    transaction {
      id
      legacyId
      status
      amount { value currencyCode }
    }
    userErrors { field message code }
  }
}`

// braintreeGraphQLRequest is the bank-shaped outbound payload: a
// mutation document plus variables. Amounts are major-unit decimal
// strings on this dialect.
type braintreeGraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type braintreeTransportError struct {
	Message    string `json:"message"`
	Extensions struct {
		ErrorClass string `json:"errorClass"`
		LegacyCode string `json:"legacyCode"`
	} `json:"extensions"`
}

type braintreeUserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
}

type braintreeAmount struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currencyCode"`
}

type braintreeTransaction struct {
	ID       string          `json:"id"`
	LegacyID string          `json:"legacyId"`
	Status   string          `json:"status"`
	Amount   braintreeAmount `json:"amount"`
}

type braintreeChargePayload struct {
	Transaction *braintreeTransaction `json:"transaction"`
	UserErrors  []braintreeUserError  `json:"userErrors"`
}

type braintreeChargeData struct {
	ChargePaymentMethod *braintreeChargePayload `json:"chargePaymentMethod"`
}

// braintreeGraphQLResponse may carry a top-level transport error list,
// a mutation-local user-error list, or a transaction object. Mapping
// checks them in exactly that order.
type braintreeGraphQLResponse struct {
	Data   *braintreeChargeData      `json:"data"`
	Errors []braintreeTransportError `json:"errors"`
}

type braintreeBackend interface {
	Execute(ctx context.Context, req *braintreeGraphQLRequest) (*braintreeGraphQLResponse, error)
}

type braintreeSimulator struct {
	outcome OutcomeFunc
}

func (s *braintreeSimulator) Execute(_ context.Context, req *braintreeGraphQLRequest) (*braintreeGraphQLResponse, error) {
	input, _ := req.Variables["input"].(map[string]any)
	txn := &braintreeTransaction{
		ID:       "dHJhbnNhY3Rpb25f" + uuid.New().String()[:8],
		LegacyID: uuid.New().String()[:8],
		Amount: braintreeAmount{
			Value:        fmt.Sprint(input["amount"]),
			CurrencyCode: fmt.Sprint(input["currencyCode"]),
		},
	}
	switch s.outcome() {
	case OutcomeDecline:
		return &braintreeGraphQLResponse{
			Data: &braintreeChargeData{
				ChargePaymentMethod: &braintreeChargePayload{
					UserErrors: []braintreeUserError{{
						Field:   []string{"input", "paymentMethodId"},
						Message: "Processor declined: do not honor",
						Code:    "PROCESSOR_DECLINED",
					}},
				},
			},
		}, nil
	case OutcomePending:
		txn.Status = "AUTHORIZING"
	case OutcomeCancelled:
		txn.Status = "VOIDED"
	case OutcomeError:
		return &braintreeGraphQLResponse{
			Errors: []braintreeTransportError{{
				Message: "An unexpected error occurred",
				Extensions: struct {
					ErrorClass string `json:"errorClass"`
					LegacyCode string `json:"legacyCode"`
				}{ErrorClass: "INTERNAL", LegacyCode: "50000"},
			}},
		}, nil
	default:
		txn.Status = "SUBMITTED_FOR_SETTLEMENT"
	}
	return &braintreeGraphQLResponse{
		Data: &braintreeChargeData{
			ChargePaymentMethod: &braintreeChargePayload{Transaction: txn},
		},
	}, nil
}

// BraintreeProcessor adapts the unified contract to the
// Braintree-like GraphQL dialect.
type BraintreeProcessor struct {
	cfg     *Config
	backend braintreeBackend
}

// BraintreeOption customizes a BraintreeProcessor.
type BraintreeOption func(*BraintreeProcessor)

// WithBraintreeOutcome pins the simulator's fabricated outcome.
func WithBraintreeOutcome(o OutcomeFunc) BraintreeOption {
	return func(p *BraintreeProcessor) { p.backend = &braintreeSimulator{outcome: o} }
}

// NewBraintreeProcessor creates the Braintree-like adapter.
func NewBraintreeProcessor(cfg *Config, opts ...BraintreeOption) *BraintreeProcessor {
	p := &BraintreeProcessor{
		cfg:     cfg,
		backend: &braintreeSimulator{outcome: AlwaysSucceed},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *BraintreeProcessor) Bank() payment.Bank { return p.cfg.Bank }
func (p *BraintreeProcessor) DisplayName() string { return "Braintree Simulator" }
func (p *BraintreeProcessor) CanProcess(req payment.Request) bool { return canProcess(p.cfg, req) }

func (p *BraintreeProcessor) Info() Info {
	return defaultInfo(p.cfg, p.DisplayName(), "GraphQL",
		[]string{"cards", "vault", "graphql_api", "legacy_ids"})
}

func (p *BraintreeProcessor) Ping(ctx context.Context) error { return probe(ctx, p.cfg) }

func (p *BraintreeProcessor) Configuration() *Config { return p.cfg }

func (p *BraintreeProcessor) Charge(ctx context.Context, req payment.Request) payment.Response {
	started := time.Now()
	txnID := NewTransactionID("bt")

	ctx, cancel := chargeContext(ctx, p.cfg)
	defer cancel()

	payload, err := p.buildRequest(req)
	if err != nil {
		return failureResponse(req, txnID, braintreeAPIErrorCode,
			"failed to build graphql request: "+err.Error(), started, nil)
	}

	if err := wait(ctx, p.cfg.Latency); err != nil {
		return contextResponse(req, txnID, started, err)
	}

	resp, err := p.backend.Execute(ctx, payload)
	if err != nil {
		return failureResponse(req, txnID, braintreeAPIErrorCode, err.Error(), started, nil)
	}
	return p.toResponse(req, resp, txnID, started)
}

func (p *BraintreeProcessor) buildRequest(req payment.Request) (*braintreeGraphQLRequest, error) {
	input := map[string]any{
		"amount":            formatMajorUnits(req.Amount),
		"currencyCode":      string(req.Currency),
		"merchantAccountId": p.cfg.MerchantID,
	}
	if req.ReferenceID != "" {
		input["orderId"] = req.ReferenceID
	}
	if req.Description != "" {
		input["descriptor"] = req.Description
	}
	out := &braintreeGraphQLRequest{
		Query:     braintreeChargeMutation,
		Variables: map[string]any{"input": input},
	}
	if _, err := json.Marshal(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *BraintreeProcessor) toResponse(req payment.Request, resp *braintreeGraphQLResponse, txnID string, started time.Time) payment.Response {
	// 1. Transport-level errors take priority over everything else.
	if len(resp.Errors) > 0 {
		first := resp.Errors[0]
		code := first.Extensions.LegacyCode
		if code == "" {
			code = braintreeAPIErrorCode
		}
		bankData := map[string]any{"error_class": first.Extensions.ErrorClass}
		return failureResponse(req, txnID, code, first.Message, started, bankData)
	}

	if resp.Data == nil || resp.Data.ChargePaymentMethod == nil {
		return failureResponse(req, txnID, braintreeAPIErrorCode,
			"graphql response carried no mutation payload", started, nil)
	}
	mutation := resp.Data.ChargePaymentMethod

	// 2. Mutation-local user errors: the call worked, the charge was
	// refused.
	if len(mutation.UserErrors) > 0 {
		first := mutation.UserErrors[0]
		bankData := map[string]any{"error_field": first.Field}
		return failureResponse(req, txnID, first.Code, first.Message, started, bankData)
	}

	// 3. Finally the transaction object itself.
	txn := mutation.Transaction
	if txn == nil {
		return failureResponse(req, txnID, braintreeAPIErrorCode,
			"graphql response carried neither errors nor a transaction", started, nil)
	}

	bankData := map[string]any{
		"bank_transaction_id": txn.ID,
		"legacy_id":           txn.LegacyID,
		"transaction_status":  txn.Status,
		"amount":              txn.Amount.Value,
	}

	switch txn.Status {
	case "AUTHORIZED", "SUBMITTED_FOR_SETTLEMENT", "SETTLING", "SETTLED":
		return successResponse(req, txnID, started, bankData)
	case "AUTHORIZING", "SETTLEMENT_PENDING":
		return buildResponse(req, payment.StatusPending, txnID, started, bankData)
	case "VOIDED":
		return buildResponse(req, payment.StatusCancelled, txnID, started, bankData)
	case "GATEWAY_REJECTED", "PROCESSOR_DECLINED", "FAILED", "SETTLEMENT_DECLINED":
		return failureResponse(req, txnID, txn.Status,
			fmt.Sprintf("transaction ended in status %s", txn.Status), started, bankData)
	default:
		return failureResponse(req, txnID, "UNRECOGNIZED_STATUS",
			fmt.Sprintf("unrecognized transaction status %q", txn.Status), started, bankData)
	}
}
