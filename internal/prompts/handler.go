package prompts

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/promptwizard-app/promptwizard/internal/api"
	"github.com/promptwizard-app/promptwizard/internal/metrics"
)

type Handler struct {
	repo     *Repository
	validate *validator.Validate
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{
		repo:     repo,
		validate: validator.New(),
	}
}

// Build assembles the prompt strings offline. It is not metered: only the
// model-backed enhancement spends quota.
func (h *Handler) Build(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	metrics.PromptsBuiltTotal.Inc()
	api.JSON(w, http.StatusOK, Build(req))
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError("empty prompt"))
		return
	}

	entry, err := h.repo.Save(r.Context(), req.Prompt)
	if err != nil {
		slog.Error("saving prompt", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.repo.ListRecent(r.Context(), 50)
	if err != nil {
		slog.Error("listing prompt history", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, entries)
}
