package payment

import (
	"fmt"
	"time"

	"github.com/cassiomorais/paygate/internal/domain/errors"
)

// Bank identifies one of the simulated bank backends.
type Bank string

const (
	BankStripe    Bank = "stripe"
	BankPayPal    Bank = "paypal"
	BankSquare    Bank = "square"
	BankAdyen     Bank = "adyen"
	BankBraintree Bank = "braintree"
)

// Banks returns all known bank identifiers in registration order.
func Banks() []Bank {
	return []Bank{BankStripe, BankPayPal, BankSquare, BankAdyen, BankBraintree}
}

// Status is the unified payment status every bank vocabulary maps onto.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
	StatusTimeout   Status = "timeout"
)

// Valid reports whether s is one of the five unified statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusPending, StatusCancelled, StatusTimeout:
		return true
	}
	return false
}

// Currency is an ISO-4217 currency code supported by the gateway.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyCAD Currency = "CAD"
	CurrencyAUD Currency = "AUD"
	CurrencyBRL Currency = "BRL"
)

var supportedCurrencies = map[Currency]struct{}{
	CurrencyUSD: {},
	CurrencyEUR: {},
	CurrencyGBP: {},
	CurrencyCAD: {},
	CurrencyAUD: {},
	CurrencyBRL: {},
}

// SupportedCurrencies returns the currencies the gateway accepts.
func SupportedCurrencies() []Currency {
	return []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyCAD, CurrencyAUD, CurrencyBRL}
}

// Customer holds optional customer details attached to a charge.
type Customer struct {
	Name  string
	Email string
	Phone string
}

// Request is the unified charge request. Amounts are in the smallest
// currency unit (cents). A Request is never mutated by the gateway.
type Request struct {
	BankID      Bank
	Amount      int64
	Currency    Currency
	Customer    Customer
	Description string
	ReferenceID string
	Metadata    map[string]any
}

// Validate checks the structural invariants of a charge request.
// It does not check bank registration or enablement; that is the
// factory's concern at resolve time.
func (r Request) Validate() error {
	if r.Amount <= 0 {
		return errors.NewValidationError("amount", fmt.Sprintf("must be greater than zero, got %d", r.Amount))
	}
	if r.Currency == "" {
		return errors.NewValidationError("currency", "is required")
	}
	if _, ok := supportedCurrencies[r.Currency]; !ok {
		return errors.NewValidationError("currency", fmt.Sprintf("%q is not supported", r.Currency))
	}
	if r.BankID == "" {
		return errors.NewValidationError("bank_id", "is required")
	}
	return nil
}

// Response is the unified charge response. Every charge yields exactly
// one Response with a non-empty TransactionID, whatever the outcome.
// Amount, Currency, BankID and ReferenceID always echo the request.
type Response struct {
	TransactionID    string
	Status           Status
	Amount           int64
	Currency         Currency
	BankID           Bank
	ReferenceID      string
	ProcessedAt      time.Time
	ProcessingTimeMs int64
	BankData         map[string]any
	ErrorMessage     string
	ErrorCode        string
}

// Succeeded reports whether the charge completed successfully.
func (r Response) Succeeded() bool {
	return r.Status == StatusSuccess
}
