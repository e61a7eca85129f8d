package handler

import (
	"net/http"

	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/service"
	"go.uber.org/zap"
)

type PreferenceHandler struct {
	preferenceService *service.PreferenceService
	logger            *zap.Logger
}

func NewPreferenceHandler(preferenceService *service.PreferenceService, logger *zap.Logger) *PreferenceHandler {
	return &PreferenceHandler{preferenceService: preferenceService, logger: logger}
}

// Get godoc
// @Summary Get preferences
// @Tags Me
// @Produce json
// @Success 200 {object} domain.Preference
// @Security SessionCookie
// @Router /me/preferences [get]
func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	pref, err := h.preferenceService.Get(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "load preferences")
		return
	}
	respondJSON(w, http.StatusOK, pref)
}

// Update godoc
// @Summary Update preferences
// @Description Only the fields present in the body are changed
// @Tags Me
// @Accept json
// @Produce json
// @Param request body domain.PreferenceRequest true "Preferences"
// @Success 200 {object} domain.Preference
// @Failure 400 {object} domain.APIError
// @Security SessionCookie
// @Router /me/preferences [put]
func (h *PreferenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.PreferenceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	pref, err := h.preferenceService.Update(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update preferences")
		return
	}
	respondJSON(w, http.StatusOK, pref)
}
