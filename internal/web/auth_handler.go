package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"storefront/internal/httpx"

	"go.uber.org/zap"
)

const (
	loginPage       = "/login.html"
	loginFailureURL = "/login.html?error=Invalid+Login"
	logoutTarget    = "/index.html"
)

type LoginForm struct {
	Username string `json:"username" validate:"notblank,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

type AuthHandler struct {
	auth   *AuthService
	secure bool
	logger *zap.Logger
}

// NewAuthHandler builds the login handlers. secure marks the session cookie Secure.
func NewAuthHandler(auth *AuthService, secure bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, secure: secure, logger: logger}
}

// PerformLogin handles POST /perform-login
// @Summary Form login
// @Tags auth
// @Accept x-www-form-urlencoded
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Success 302
// @Router /perform-login [post]
func (h *AuthHandler) PerformLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, loginFailureURL, http.StatusFound)
		return
	}
	form := LoginForm{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
	}
	if details := httpx.ValidateStruct(form); details != nil {
		http.Redirect(w, r, loginFailureURL, http.StatusFound)
		return
	}

	token, err := h.auth.Login(form.Username, form.Password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			h.logger.Error("login failed", zap.Error(err))
		} else {
			h.logger.Info("rejected login", zap.String("username", form.Username))
		}
		http.Redirect(w, r, loginFailureURL, http.StatusFound)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     httpx.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.auth.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, safeNext(r.PostForm.Get("next")), http.StatusFound)
}

// PerformLogout handles GET and POST /perform-logout
// @Summary Logout
// @Tags auth
// @Success 302
// @Router /perform-logout [post]
func (h *AuthHandler) PerformLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(httpx.SessionCookieName); err == nil && cookie.Value != "" {
		h.auth.Logout(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     httpx.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, logoutTarget, http.StatusFound)
}

// Me handles GET /user/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Success 204
// @Router /user/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	username := httpx.UserIDFrom(r)
	if username == "" {
		httpx.JSONNoContent(w)
		return
	}
	httpx.JSONSuccess(w, r, map[string]string{"username": username}, nil)
}

// safeNext only allows redirects to local paths.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return next
}
