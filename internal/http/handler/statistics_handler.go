package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/threatlens/dashboard-api/internal/service"
	"github.com/threatlens/dashboard-api/internal/threatapi"
	"go.uber.org/zap"
)

type StatisticsHandler struct {
	statisticsService *service.StatisticsService
	logger            *zap.Logger
}

func NewStatisticsHandler(statisticsService *service.StatisticsService, logger *zap.Logger) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService, logger: logger}
}

// Get godoc
// @Summary Get statistics
// @Description Passes one upstream statistics view through. Upstream outages return an empty object.
// @Tags Statistics
// @Produce json
// @Param kind path string true "View" Enums(overview, sources, threats)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /statistics/{kind} [get]
func (h *StatisticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind := threatapi.StatisticsKind(chi.URLParam(r, "kind"))
	stats, err := h.statisticsService.Get(r.Context(), kind)
	if err != nil {
		respondServiceError(w, h.logger, err, "load statistics")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(stats)
}
