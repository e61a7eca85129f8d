package handler

import (
	"net/http"

	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/service"
	"github.com/threatlens/dashboard-api/internal/threatapi"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	cookieName  string
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, cookieName string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookieName:  cookieName,
		logger:      logger,
	}
}

// Login godoc
// @Summary Log in
// @Description Authenticates against the threat API and relays its session cookie
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.User
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 502 {object} domain.APIError
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, cookies, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "log in")
		return
	}
	for _, c := range cookies {
		relayCookie(w, c)
	}
	respondJSON(w, http.StatusOK, user)
}

// Logout godoc
// @Summary Log out
// @Description Ends the upstream session and clears the session cookie
// @Tags Auth
// @Success 204
// @Failure 502 {object} domain.APIError
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	value := ""
	if c, err := r.Cookie(h.cookieName); err == nil {
		value = c.Value
		ctx = threatapi.WithCookies(ctx, []*http.Cookie{c})
	}

	cookies, err := h.authService.Logout(ctx, value)
	// the browser cookie is cleared regardless of the upstream outcome
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "log out")
		return
	}
	for _, c := range cookies {
		if c.Name != h.cookieName {
			relayCookie(w, c)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me godoc
// @Summary Get current user
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.User
// @Failure 401 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "load current user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// relayCookie forwards an upstream Set-Cookie without its domain so the
// browser scopes it to this API.
func relayCookie(w http.ResponseWriter, c *http.Cookie) {
	out := *c
	out.Domain = ""
	if out.Path == "" {
		out.Path = "/"
	}
	http.SetCookie(w, &out)
}
