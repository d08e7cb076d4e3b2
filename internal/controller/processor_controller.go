package controller

import (
	"net/http"

	"github.com/cassiomorais/paygate/internal/domain/payment"
	"github.com/cassiomorais/paygate/internal/service"
	"github.com/go-chi/chi/v5"
)

// ProcessorController exposes the processor management surface: pure
// reads and simple flag mutations, no business logic.
type ProcessorController struct {
	gateway *service.Gateway
}

// NewProcessorController creates a new ProcessorController.
func NewProcessorController(gateway *service.Gateway) *ProcessorController {
	return &ProcessorController{gateway: gateway}
}

// List handles GET /api/v1/processors
func (h *ProcessorController) List(w http.ResponseWriter, r *http.Request) {
	infos := h.gateway.Processors()
	out := make([]ProcessorResponse, 0, len(infos))
	for _, info := range infos {
		out = append(out, FromInfo(info))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /api/v1/processors/{bankId}
func (h *ProcessorController) Get(w http.ResponseWriter, r *http.Request) {
	bank := payment.Bank(chi.URLParam(r, "bankId"))
	info, err := h.gateway.ProcessorInfo(bank)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromInfo(info))
}

// Enable handles POST /api/v1/processors/{bankId}/enable
func (h *ProcessorController) Enable(w http.ResponseWriter, r *http.Request) {
	bank := payment.Bank(chi.URLParam(r, "bankId"))
	if err := h.gateway.EnableProcessor(bank); err != nil {
		writeError(w, err)
		return
	}
	info, err := h.gateway.ProcessorInfo(bank)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromInfo(info))
}

// Disable handles POST /api/v1/processors/{bankId}/disable
func (h *ProcessorController) Disable(w http.ResponseWriter, r *http.Request) {
	bank := payment.Bank(chi.URLParam(r, "bankId"))
	if err := h.gateway.DisableProcessor(bank); err != nil {
		writeError(w, err)
		return
	}
	info, err := h.gateway.ProcessorInfo(bank)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromInfo(info))
}

// Health handles GET /api/v1/processors/health
func (h *ProcessorController) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FromHealth(h.gateway.Health()))
}

// Statistics handles GET /api/v1/statistics
func (h *ProcessorController) Statistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FromStatistics(h.gateway.Statistics()))
}

// Probe handles POST /api/v1/processors/probe
func (h *ProcessorController) Probe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FromProbeResults(h.gateway.ProbeConnectivity(r.Context())))
}
