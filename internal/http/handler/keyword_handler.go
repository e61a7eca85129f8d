package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/service"
	"go.uber.org/zap"
)

// KeywordHandler handles HTTP requests for alert keywords
type KeywordHandler struct {
	keywordService *service.KeywordService
	logger         *zap.Logger
}

func NewKeywordHandler(keywordService *service.KeywordService, logger *zap.Logger) *KeywordHandler {
	return &KeywordHandler{keywordService: keywordService, logger: logger}
}

// List godoc
// @Summary List keywords
// @Tags Keywords
// @Produce json
// @Success 200 {array} domain.Keyword
// @Failure 502 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /keywords [get]
func (h *KeywordHandler) List(w http.ResponseWriter, r *http.Request) {
	keywords, err := h.keywordService.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list keywords")
		return
	}
	respondJSON(w, http.StatusOK, keywords)
}

// Create godoc
// @Summary Create keyword
// @Tags Keywords
// @Accept json
// @Produce json
// @Param request body domain.KeywordRequest true "Keyword"
// @Success 201 {object} domain.Keyword
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /keywords [post]
func (h *KeywordHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.KeywordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	keyword, err := h.keywordService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create keyword")
		return
	}
	respondJSON(w, http.StatusCreated, keyword)
}

// Update godoc
// @Summary Update keyword
// @Tags Keywords
// @Accept json
// @Produce json
// @Param id path string true "Keyword ID"
// @Param request body domain.KeywordRequest true "Keyword"
// @Success 200 {object} domain.Keyword
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /keywords/{id} [put]
func (h *KeywordHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.KeywordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	keyword, err := h.keywordService.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update keyword")
		return
	}
	respondJSON(w, http.StatusOK, keyword)
}

// SetActive godoc
// @Summary Enable or disable keyword
// @Tags Keywords
// @Accept json
// @Produce json
// @Param id path string true "Keyword ID"
// @Param request body domain.SetActiveRequest true "Active flag"
// @Success 200 {object} domain.Keyword
// @Failure 400 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /keywords/{id}/active [patch]
func (h *KeywordHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req domain.SetActiveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	keyword, err := h.keywordService.SetActive(r.Context(), chi.URLParam(r, "id"), *req.Active)
	if err != nil {
		respondServiceError(w, h.logger, err, "toggle keyword")
		return
	}
	respondJSON(w, http.StatusOK, keyword)
}

// Delete godoc
// @Summary Delete keyword
// @Tags Keywords
// @Param id path string true "Keyword ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /keywords/{id} [delete]
func (h *KeywordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.keywordService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, h.logger, err, "delete keyword")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
