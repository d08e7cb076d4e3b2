package controller

import (
	"time"

	"github.com/cassiomorais/paygate/internal/domain/payment"
	"github.com/cassiomorais/paygate/internal/processor"
	"github.com/cassiomorais/paygate/internal/service"
)

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns. Amounts stay in minor units on
// the wire; structural validation of amount/currency/bank belongs to
// the gateway service so failures surface as normalized responses.

// ChargeRequest holds the input for a charge.
type ChargeRequest struct {
	BankID        string         `json:"bank_id"`
	Amount        int64          `json:"amount"`
	Currency      string         `json:"currency"`
	CustomerName  string         `json:"customer_name,omitempty" validate:"omitempty,max=128"`
	CustomerEmail string         `json:"customer_email,omitempty" validate:"omitempty,email"`
	CustomerPhone string         `json:"customer_phone,omitempty" validate:"omitempty,max=32"`
	Description   string         `json:"description,omitempty" validate:"omitempty,max=255"`
	ReferenceID   string         `json:"reference_id,omitempty" validate:"omitempty,max=64"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// ToDomain converts the DTO into the unified request.
func (r ChargeRequest) ToDomain() payment.Request {
	return payment.Request{
		BankID:   payment.Bank(r.BankID),
		Amount:   r.Amount,
		Currency: payment.Currency(r.Currency),
		Customer: payment.Customer{
			Name:  r.CustomerName,
			Email: r.CustomerEmail,
			Phone: r.CustomerPhone,
		},
		Description: r.Description,
		ReferenceID: r.ReferenceID,
		Metadata:    r.Metadata,
	}
}

// --- Response DTOs ---

// ChargeResponse represents the unified payment response on the wire.
type ChargeResponse struct {
	TransactionID    string         `json:"transaction_id"`
	Status           string         `json:"status"`
	Amount           int64          `json:"amount"`
	Currency         string         `json:"currency"`
	BankID           string         `json:"bank_id"`
	ReferenceID      string         `json:"reference_id,omitempty"`
	ProcessedAt      time.Time      `json:"processed_at"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	BankData         map[string]any `json:"bank_data,omitempty"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	ErrorCode        string         `json:"error_code,omitempty"`
}

// FromResponse converts a unified response to its API shape.
func FromResponse(r payment.Response) ChargeResponse {
	return ChargeResponse{
		TransactionID:    r.TransactionID,
		Status:           string(r.Status),
		Amount:           r.Amount,
		Currency:         string(r.Currency),
		BankID:           string(r.BankID),
		ReferenceID:      r.ReferenceID,
		ProcessedAt:      r.ProcessedAt,
		ProcessingTimeMs: r.ProcessingTimeMs,
		BankData:         r.BankData,
		ErrorMessage:     r.ErrorMessage,
		ErrorCode:        r.ErrorCode,
	}
}

// ProcessorResponse describes one processor.
type ProcessorResponse struct {
	BankID            string   `json:"bank_id"`
	DisplayName       string   `json:"display_name"`
	Protocol          string   `json:"protocol"`
	Features          []string `json:"features"`
	Currencies        []string `json:"currencies"`
	AvgProcessingMs   int64    `json:"avg_processing_time_ms"`
	Enabled           bool     `json:"enabled"`
}

// FromInfo converts processor info to its API shape.
func FromInfo(info processor.Info) ProcessorResponse {
	currencies := make([]string, 0, len(info.Currencies))
	for _, c := range info.Currencies {
		currencies = append(currencies, string(c))
	}
	return ProcessorResponse{
		BankID:          string(info.Bank),
		DisplayName:     info.DisplayName,
		Protocol:        info.Protocol,
		Features:        info.Features,
		Currencies:      currencies,
		AvgProcessingMs: info.AvgProcessingTime.Milliseconds(),
		Enabled:         info.Enabled,
	}
}

// ProcessorHealthResponse is one entry of the health summary.
type ProcessorHealthResponse struct {
	BankID          string `json:"bank_id"`
	DisplayName     string `json:"display_name"`
	Protocol        string `json:"protocol"`
	Enabled         bool   `json:"enabled"`
	AvgProcessingMs int64  `json:"avg_processing_time_ms"`
	BreakerState    string `json:"breaker_state"`
}

// HealthSummaryResponse aggregates processor health.
type HealthSummaryResponse struct {
	Total      int                       `json:"total"`
	Enabled    int                       `json:"enabled"`
	Processors []ProcessorHealthResponse `json:"processors"`
}

// FromHealth converts a health summary to its API shape.
func FromHealth(s service.HealthSummary) HealthSummaryResponse {
	out := HealthSummaryResponse{
		Total:      s.Total,
		Enabled:    s.Enabled,
		Processors: make([]ProcessorHealthResponse, 0, len(s.Processors)),
	}
	for _, h := range s.Processors {
		out.Processors = append(out.Processors, ProcessorHealthResponse{
			BankID:          string(h.Bank),
			DisplayName:     h.DisplayName,
			Protocol:        h.Protocol,
			Enabled:         h.Enabled,
			AvgProcessingMs: h.AvgProcessingTime.Milliseconds(),
			BreakerState:    h.BreakerState,
		})
	}
	return out
}

// BankStatsResponse is one bank's accumulated outcomes.
type BankStatsResponse struct {
	Total     int64 `json:"total"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Pending   int64 `json:"pending"`
	Cancelled int64 `json:"cancelled"`
	TimedOut  int64 `json:"timed_out"`
}

// StatisticsResponse aggregates charge statistics.
type StatisticsResponse struct {
	TotalCharges int64                        `json:"total_charges"`
	ByBank       map[string]BankStatsResponse `json:"by_bank"`
}

// FromStatistics converts gateway statistics to their API shape.
func FromStatistics(s service.Statistics) StatisticsResponse {
	out := StatisticsResponse{
		TotalCharges: s.TotalCharges,
		ByBank:       make(map[string]BankStatsResponse, len(s.ByBank)),
	}
	for bank, bs := range s.ByBank {
		out.ByBank[string(bank)] = BankStatsResponse{
			Total:     bs.Total,
			Succeeded: bs.Succeeded,
			Failed:    bs.Failed,
			Pending:   bs.Pending,
			Cancelled: bs.Cancelled,
			TimedOut:  bs.TimedOut,
		}
	}
	return out
}

// ProbeResultResponse is one bank's connectivity probe outcome.
type ProbeResultResponse struct {
	BankID    string `json:"bank_id"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// FromProbeResults converts probe results to their API shape.
func FromProbeResults(results []service.ProbeResult) []ProbeResultResponse {
	out := make([]ProbeResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, ProbeResultResponse{
			BankID:    string(r.Bank),
			OK:        r.OK,
			Error:     r.Error,
			ElapsedMs: r.Elapsed.Milliseconds(),
		})
	}
	return out
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
