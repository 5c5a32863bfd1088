package enhance

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/promptwizard-app/promptwizard/internal/api"
	"github.com/promptwizard-app/promptwizard/internal/identity"
	"github.com/promptwizard-app/promptwizard/internal/metrics"
	"github.com/promptwizard-app/promptwizard/internal/quota"
)

// EnhanceRequest is the body of an enhancement call.
type EnhanceRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// EnhanceResponse is returned on a successful, authorized enhancement.
type EnhanceResponse struct {
	Authorized bool              `json:"authorized"`
	Prompt     string            `json:"prompt"`
	Meter      quota.MeterStatus `json:"meter"`
}

// Handler gates enhancement calls behind the quota subsystem and exposes
// the read-only meter status endpoints.
type Handler struct {
	client   *Client // nil when enhancement is disabled
	gate     *quota.Gate
	meter    *quota.Meter
	wallet   *quota.Wallet
	validate *validator.Validate
}

func NewHandler(client *Client, gate *quota.Gate, meter *quota.Meter, wallet *quota.Wallet) *Handler {
	return &Handler{
		client:   client,
		gate:     gate,
		meter:    meter,
		wallet:   wallet,
		validate: validator.New(),
	}
}

// Enhance authorizes-and-debits first, then forwards to the completion API.
// Quota is spent before the upstream call and is not refunded on upstream
// failure; no quota state is held locked while the call is in flight.
func (h *Handler) Enhance(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		api.HandleError(w, api.ErrEnhanceDisabled)
		return
	}

	var req EnhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError("empty prompt"))
		return
	}

	id := identity.FromRequest(r)

	decision, err := h.gate.Authorize(r.Context(), id)
	if err != nil {
		// An unreachable store denies the action; never bypass the meter.
		slog.Error("quota authorization failed", "identity", id, "error", err)
		metrics.EnhancementsTotal.WithLabelValues("store_error").Inc()
		api.HandleError(w, api.ErrStoreUnavailable)
		return
	}

	if !decision.Authorized {
		metrics.EnhancementsTotal.WithLabelValues("denied").Inc()
		metrics.QuotaDenialsTotal.WithLabelValues(string(decision.Reason)).Inc()
		api.JSON(w, denialStatus(decision.Reason), decision)
		return
	}

	improved, err := h.client.Enhance(r.Context(), req.Prompt)
	if err != nil {
		slog.Error("enhancement upstream failed", "error", err)
		metrics.EnhancementsTotal.WithLabelValues("upstream_error").Inc()
		api.HandleError(w, api.ErrUpstream)
		return
	}

	metrics.EnhancementsTotal.WithLabelValues("ok").Inc()
	api.JSON(w, http.StatusOK, EnhanceResponse{
		Authorized: true,
		Prompt:     improved,
		Meter:      decision.Meter,
	})
}

func denialStatus(reason quota.DenyReason) int {
	if reason == quota.ReasonInsufficientCredits {
		return http.StatusPaymentRequired
	}
	return http.StatusTooManyRequests
}

// UsageStatus reports today's free-tier usage for the caller.
func (h *Handler) UsageStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.meter.Status(r.Context(), identity.FromRequest(r))
	if err != nil {
		slog.Error("reading usage status", "error", err)
		api.HandleError(w, api.ErrStoreUnavailable)
		return
	}
	api.JSON(w, http.StatusOK, status)
}

// CreditsStatus reports the caller's wallet, applying any pending daily grant.
func (h *Handler) CreditsStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.wallet.Status(r.Context(), identity.FromRequest(r))
	if err != nil {
		slog.Error("reading credits status", "error", err)
		api.HandleError(w, api.ErrStoreUnavailable)
		return
	}
	api.JSON(w, http.StatusOK, status)
}
