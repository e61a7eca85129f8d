package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/service"
	"go.uber.org/zap"
)

type PromptHandler struct {
	promptService *service.PromptService
	logger        *zap.Logger
}

func NewPromptHandler(promptService *service.PromptService, logger *zap.Logger) *PromptHandler {
	return &PromptHandler{promptService: promptService, logger: logger}
}

// List godoc
// @Summary List prompts
// @Tags Prompts
// @Produce json
// @Success 200 {array} domain.Prompt
// @Failure 403 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /prompts [get]
func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	prompts, err := h.promptService.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list prompts")
		return
	}
	respondJSON(w, http.StatusOK, prompts)
}

// Create godoc
// @Summary Create prompt
// @Tags Prompts
// @Accept json
// @Produce json
// @Param request body domain.PromptRequest true "Prompt"
// @Success 201 {object} domain.Prompt
// @Failure 400 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /prompts [post]
func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.PromptRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	prompt, err := h.promptService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create prompt")
		return
	}
	respondJSON(w, http.StatusCreated, prompt)
}

// Update godoc
// @Summary Update prompt
// @Tags Prompts
// @Accept json
// @Produce json
// @Param id path string true "Prompt ID"
// @Param request body domain.PromptRequest true "Prompt"
// @Success 200 {object} domain.Prompt
// @Failure 404 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /prompts/{id} [put]
func (h *PromptHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.PromptRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	prompt, err := h.promptService.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update prompt")
		return
	}
	respondJSON(w, http.StatusOK, prompt)
}

// Delete godoc
// @Summary Delete prompt
// @Tags Prompts
// @Param id path string true "Prompt ID"
// @Success 204
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /prompts/{id} [delete]
func (h *PromptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.promptService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, h.logger, err, "delete prompt")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
