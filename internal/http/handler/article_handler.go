package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/feed"
	"github.com/threatlens/dashboard-api/internal/service"
	"go.uber.org/zap"
)

const maxListLimit = 500

// ArticleHandler handles HTTP requests for articles, alerts and exports
type ArticleHandler struct {
	articleService    *service.ArticleService
	preferenceService *service.PreferenceService
	logger            *zap.Logger
}

func NewArticleHandler(articleService *service.ArticleService, preferenceService *service.PreferenceService, logger *zap.Logger) *ArticleHandler {
	return &ArticleHandler{
		articleService:    articleService,
		preferenceService: preferenceService,
		logger:            logger,
	}
}

// parseListParams reads paging, filter and sort query parameters. Sort,
// window and hideRead fall back to the user's stored preferences.
func (h *ArticleHandler) parseListParams(r *http.Request) (service.ListParams, error) {
	q := r.URL.Query()
	var p service.ListParams

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return p, fmt.Errorf("invalid limit %q", v)
		}
		p.Query.Limit = min(limit, maxListLimit)
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return p, fmt.Errorf("invalid offset %q", v)
		}
		p.Query.Offset = offset
	}

	search := q.Get("search")
	p.Query.Search = search
	p.Filter = feed.Filter{
		Industry:    q.Get("industry"),
		Severity:    q.Get("severity"),
		Type:        q.Get("type"),
		Source:      q.Get("source"),
		ThreatLevel: q.Get("threatLevel"),
		ThreatType:  q.Get("threatType"),
		Keyword:     q.Get("keyword"),
		Search:      search,
	}

	pref, err := h.preferenceService.Get(r.Context())
	if err != nil {
		return p, err
	}

	sortValue := q.Get("sort")
	if sortValue == "" {
		sortValue = pref.DefaultSort
	}
	if p.Sort, err = feed.ParseSortKey(sortValue); err != nil {
		return p, err
	}

	windowValue := q.Get("window")
	if windowValue == "" {
		windowValue = pref.DefaultWindow
	}
	if p.Filter.Window, err = feed.ParseWindow(windowValue); err != nil {
		return p, err
	}

	p.Filter.HideRead = pref.HideRead
	if v := q.Get("hideRead"); v != "" {
		if p.Filter.HideRead, err = strconv.ParseBool(v); err != nil {
			return p, fmt.Errorf("invalid hideRead %q", v)
		}
	}
	if v := q.Get("hideSpam"); v != "" {
		if p.Filter.HideSpam, err = strconv.ParseBool(v); err != nil {
			return p, fmt.Errorf("invalid hideSpam %q", v)
		}
	}
	return p, nil
}

func (h *ArticleHandler) listWith(w http.ResponseWriter, r *http.Request, action string, list func(*http.Request, service.ListParams) (*domain.ArticleListResponse, error)) {
	p, err := h.parseListParams(r)
	if err != nil {
		respondListParamError(w, h.logger, err)
		return
	}
	result, err := list(r, p)
	if err != nil {
		respondServiceError(w, h.logger, err, action)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func respondListParamError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if errors.Is(err, service.ErrUserContextRequired) {
		respondServiceError(w, logger, err, "load preferences")
		return
	}
	respondWithError(w, http.StatusBadRequest, err.Error())
}

// List godoc
// @Summary List articles
// @Description Fetches the article feed and applies the dashboard filter and sort pipeline with the caller's read/saved state merged in
// @Tags Articles
// @Produce json
// @Param limit query int false "Upstream page size (max 500)"
// @Param offset query int false "Upstream offset"
// @Param search query string false "Free-text search in title, summary, content and source name"
// @Param industry query string false "Industry filter"
// @Param severity query string false "Severity filter"
// @Param type query string false "Article type" Enums(news, forum)
// @Param source query string false "Source name"
// @Param threatLevel query string false "Threat level"
// @Param threatType query string false "Threat type"
// @Param keyword query string false "Alert keyword id"
// @Param window query string false "Time window (24h, 7d, 30d, 90d, all)"
// @Param hideRead query bool false "Hide read articles"
// @Param hideSpam query bool false "Hide articles flagged as spam"
// @Param sort query string false "Sort order" Enums(newest, oldest, title-asc, title-desc)
// @Success 200 {object} domain.ArticleListResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 502 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /articles [get]
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	h.listWith(w, r, "list articles", func(r *http.Request, p service.ListParams) (*domain.ArticleListResponse, error) {
		return h.articleService.List(r.Context(), p)
	})
}

// ListAlerts godoc
// @Summary List alerts
// @Description Articles matching at least one alert keyword, through the same pipeline as /articles
// @Tags Articles
// @Produce json
// @Param window query string false "Time window"
// @Param keyword query string false "Alert keyword id"
// @Param sort query string false "Sort order" Enums(newest, oldest, title-asc, title-desc)
// @Success 200 {object} domain.ArticleListResponse
// @Failure 400 {object} domain.APIError
// @Failure 502 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /alerts [get]
func (h *ArticleHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	h.listWith(w, r, "list alerts", func(r *http.Request, p service.ListParams) (*domain.ArticleListResponse, error) {
		return h.articleService.ListAlerts(r.Context(), p)
	})
}

// ListSaved godoc
// @Summary List saved articles
// @Tags Articles
// @Produce json
// @Param sort query string false "Sort order" Enums(newest, oldest, title-asc, title-desc)
// @Success 200 {object} domain.ArticleListResponse
// @Failure 401 {object} domain.APIError
// @Failure 502 {object} domain.APIError
// @Security SessionCookie
// @Router /articles/saved [get]
func (h *ArticleHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	h.listWith(w, r, "list saved articles", func(r *http.Request, p service.ListParams) (*domain.ArticleListResponse, error) {
		return h.articleService.ListSaved(r.Context(), p)
	})
}

// GetByID godoc
// @Summary Get article
// @Description Returns one article with sanitised HTML and records it as viewed
// @Tags Articles
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} domain.Article
// @Failure 404 {object} domain.APIError
// @Failure 502 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /articles/{id} [get]
func (h *ArticleHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	article, err := h.articleService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, h.logger, err, "get article")
		return
	}
	respondJSON(w, http.StatusOK, article)
}

// Delete godoc
// @Summary Delete article
// @Tags Articles
// @Param id path string true "Article ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /articles/{id} [delete]
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.articleService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, h.logger, err, "delete article")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type flagSetter func(r *http.Request, id string, value *bool) (*domain.ArticleStateDTO, error)

func (h *ArticleHandler) setFlag(w http.ResponseWriter, r *http.Request, action string, set flagSetter) {
	var req domain.SetFlagRequest
	if err := decodeJSON(r, &req, true); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	state, err := set(r, chi.URLParam(r, "id"), req.Value)
	if err != nil {
		respondServiceError(w, h.logger, err, action)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// SetRead godoc
// @Summary Set or toggle the read flag
// @Description Stored locally first, then mirrored upstream. A missing value toggles. A failed mirror is reported in mirrorError and not rolled back.
// @Tags Articles
// @Accept json
// @Produce json
// @Param id path string true "Article ID"
// @Param request body domain.SetFlagRequest false "Flag value"
// @Success 200 {object} domain.ArticleStateDTO
// @Failure 400 {object} domain.APIError
// @Security SessionCookie
// @Router /articles/{id}/read [patch]
func (h *ArticleHandler) SetRead(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, "update read state", func(r *http.Request, id string, value *bool) (*domain.ArticleStateDTO, error) {
		return h.articleService.SetRead(r.Context(), id, value)
	})
}

// SetSaved godoc
// @Summary Set or toggle the saved flag
// @Tags Articles
// @Accept json
// @Produce json
// @Param id path string true "Article ID"
// @Param request body domain.SetFlagRequest false "Flag value"
// @Success 200 {object} domain.ArticleStateDTO
// @Failure 400 {object} domain.APIError
// @Security SessionCookie
// @Router /articles/{id}/saved [patch]
func (h *ArticleHandler) SetSaved(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, "update saved state", func(r *http.Request, id string, value *bool) (*domain.ArticleStateDTO, error) {
		return h.articleService.SetSaved(r.Context(), id, value)
	})
}

// SetSpam godoc
// @Summary Set or toggle the spam flag
// @Tags Articles
// @Accept json
// @Produce json
// @Param id path string true "Article ID"
// @Param request body domain.SetFlagRequest false "Flag value"
// @Success 200 {object} domain.ArticleStateDTO
// @Failure 404 {object} domain.APIError
// @Security SessionCookie
// @Router /articles/{id}/spam [patch]
func (h *ArticleHandler) SetSpam(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, "update spam flag", func(r *http.Request, id string, value *bool) (*domain.ArticleStateDTO, error) {
		return h.articleService.SetSpam(r.Context(), id, value)
	})
}

// Export godoc
// @Summary Export articles
// @Description Writes the filtered article list to storage as JSON. Accepts the same query parameters as GET /articles.
// @Tags Articles
// @Produce json
// @Success 201 {object} domain.ExportDTO
// @Failure 400 {object} domain.APIError
// @Security SessionCookie
// @Router /articles/export [post]
func (h *ArticleHandler) Export(w http.ResponseWriter, r *http.Request) {
	p, err := h.parseListParams(r)
	if err != nil {
		respondListParamError(w, h.logger, err)
		return
	}
	export, err := h.articleService.Export(r.Context(), p)
	if err != nil {
		respondServiceError(w, h.logger, err, "export articles")
		return
	}
	w.Header().Set("Location", "/api/v1/exports/"+export.ID.String())
	respondJSON(w, http.StatusCreated, export)
}

// DownloadExport godoc
// @Summary Download an export
// @Tags Articles
// @Produce json
// @Param id path string true "Export ID" format(uuid)
// @Success 200 {file} file
// @Failure 404 {object} domain.APIError
// @Security SessionCookie
// @Router /exports/{id} [get]
func (h *ArticleHandler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid export ID format")
		return
	}
	rc, export, err := h.articleService.OpenExport(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "open export")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="articles-%s.json"`, export.ID))
	if export.SizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(export.SizeBytes, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("export download interrupted", zap.String("export_id", id.String()), zap.Error(err))
	}
}

// ListExports godoc
// @Summary List exports
// @Tags Articles
// @Produce json
// @Success 200 {array} domain.ExportDTO
// @Security SessionCookie
// @Router /exports [get]
func (h *ArticleHandler) ListExports(w http.ResponseWriter, r *http.Request) {
	exports, err := h.articleService.ListExports(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list exports")
		return
	}
	respondJSON(w, http.StatusOK, exports)
}

// DeleteExport godoc
// @Summary Delete an export
// @Tags Articles
// @Param id path string true "Export ID" format(uuid)
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security SessionCookie
// @Router /exports/{id} [delete]
func (h *ArticleHandler) DeleteExport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid export ID format")
		return
	}
	if err := h.articleService.DeleteExport(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete export")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// State godoc
// @Summary Get article state
// @Description Returns the caller's read, saved and viewed markers
// @Tags Me
// @Produce json
// @Success 200 {object} domain.UserStateDTO
// @Security SessionCookie
// @Router /me/state [get]
func (h *ArticleHandler) State(w http.ResponseWriter, r *http.Request) {
	state, err := h.articleService.State(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "load article state")
		return
	}
	respondJSON(w, http.StatusOK, state)
}
