package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/feed"
	"github.com/threatlens/dashboard-api/internal/service"
	"go.uber.org/zap"
)

// SourceHandler handles HTTP requests for feed sources
type SourceHandler struct {
	sourceService *service.SourceService
	logger        *zap.Logger
}

func NewSourceHandler(sourceService *service.SourceService, logger *zap.Logger) *SourceHandler {
	return &SourceHandler{sourceService: sourceService, logger: logger}
}

// List godoc
// @Summary List sources
// @Tags Sources
// @Produce json
// @Param type query string false "Source type" Enums(news, forum)
// @Param category query string false "Category"
// @Param status query string false "Status" Enums(active, inactive, error, all)
// @Param search query string false "Match on name or URL"
// @Param sort query string false "Sort order" Enums(name-asc, name-desc, last-fetch)
// @Success 200 {object} domain.SourceListResponse
// @Failure 400 {object} domain.APIError
// @Failure 502 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /sources [get]
func (h *SourceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status, err := feed.ParseSourceStatus(q.Get("status"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	key, err := feed.ParseSourceSortKey(q.Get("sort"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.sourceService.List(r.Context(), feed.SourceFilter{
		Type:     q.Get("type"),
		Category: q.Get("category"),
		Status:   status,
		Search:   q.Get("search"),
	}, key)
	if err != nil {
		respondServiceError(w, h.logger, err, "list sources")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create source
// @Tags Sources
// @Accept json
// @Produce json
// @Param request body domain.SourceRequest true "Source"
// @Success 201 {object} domain.Source
// @Failure 400 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /sources [post]
func (h *SourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.SourceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	source, err := h.sourceService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create source")
		return
	}
	respondJSON(w, http.StatusCreated, source)
}

// Update godoc
// @Summary Update source
// @Tags Sources
// @Accept json
// @Produce json
// @Param id path string true "Source ID"
// @Param request body domain.SourceRequest true "Source"
// @Success 200 {object} domain.Source
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /sources/{id} [put]
func (h *SourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.SourceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	source, err := h.sourceService.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update source")
		return
	}
	respondJSON(w, http.StatusOK, source)
}

// SetActive godoc
// @Summary Enable or disable source polling
// @Tags Sources
// @Accept json
// @Produce json
// @Param id path string true "Source ID"
// @Param request body domain.SetActiveRequest true "Active flag"
// @Success 200 {object} domain.Source
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /sources/{id}/active [patch]
func (h *SourceHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req domain.SetActiveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	source, err := h.sourceService.SetActive(r.Context(), chi.URLParam(r, "id"), *req.Active)
	if err != nil {
		respondServiceError(w, h.logger, err, "toggle source")
		return
	}
	respondJSON(w, http.StatusOK, source)
}

// Delete godoc
// @Summary Delete source
// @Tags Sources
// @Param id path string true "Source ID"
// @Success 204
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /sources/{id} [delete]
func (h *SourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sourceService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, h.logger, err, "delete source")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Preview godoc
// @Summary Preview a feed
// @Description Fetches and parses an RSS or Atom feed before it is registered
// @Tags Sources
// @Accept json
// @Produce json
// @Param request body domain.FeedPreviewRequest true "Feed URL"
// @Success 200 {object} domain.FeedPreviewDTO
// @Failure 400 {object} domain.APIError
// @Failure 422 {object} domain.APIError
// @Failure 502 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /sources/preview [post]
func (h *SourceHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req domain.FeedPreviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	preview, err := h.sourceService.Preview(r.Context(), req.URL)
	if err != nil {
		respondServiceError(w, h.logger, err, "preview feed")
		return
	}
	respondJSON(w, http.StatusOK, preview)
}
