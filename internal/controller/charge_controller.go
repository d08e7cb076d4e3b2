package controller

import (
	"net/http"

	"github.com/cassiomorais/paygate/internal/service"
)

// ChargeController handles charge HTTP requests.
type ChargeController struct {
	gateway *service.Gateway
}

// NewChargeController creates a new ChargeController.
func NewChargeController(gateway *service.Gateway) *ChargeController {
	return &ChargeController{gateway: gateway}
}

// Create handles POST /api/v1/charges
func (h *ChargeController) Create(w http.ResponseWriter, r *http.Request) {
	var req ChargeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	resp := h.gateway.Charge(r.Context(), req.ToDomain())
	writeJSON(w, chargeStatus(resp), FromResponse(resp))
}

// CreateAuto handles POST /api/v1/charges/auto: the gateway picks the
// best available processor, so bank_id may be omitted.
func (h *ChargeController) CreateAuto(w http.ResponseWriter, r *http.Request) {
	var req ChargeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	resp := h.gateway.ChargeAuto(r.Context(), req.ToDomain())
	writeJSON(w, chargeStatus(resp), FromResponse(resp))
}
