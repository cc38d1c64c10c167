// Package web is the browser-facing gateway: static pages, form login and
// the card catalog endpoints proxied to the catalog service.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"storefront/internal/httpx"

	"go.uber.org/zap"
)

//go:embed static
var staticFiles embed.FS

// Deps are the collaborators of the gateway router.
type Deps struct {
	Auth      *AuthService
	Blacklist *Blacklist
	Catalog   CardCatalog
	Secret    string
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
	// LoginLimiter throttles POST /perform-login. It may be nil.
	LoginLimiter *httpx.RateLimitMiddleware
	Logger       *zap.Logger
}

// NewRouter mounts every gateway route and resolves the session cookie of
// each request. /user-profile.html is the only page that needs a login.
func NewRouter(d Deps) http.Handler {
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}

	cards := NewCardsHandler(d.Catalog, d.Logger)
	auth := NewAuthHandler(d.Auth, d.SecureCookie, d.Logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/cards", cards.List)
	mux.HandleFunc("GET /api/cards/filter", cards.Filter)
	mux.HandleFunc("GET /api/cards/search", cards.Search)

	var login http.Handler = http.HandlerFunc(auth.PerformLogin)
	if d.LoginLimiter != nil {
		login = d.LoginLimiter.Middleware(login)
	}
	mux.Handle("POST /perform-login", login)
	mux.HandleFunc("GET /perform-logout", auth.PerformLogout)
	mux.HandleFunc("POST /perform-logout", auth.PerformLogout)
	mux.HandleFunc("GET /user/me", auth.Me)

	profile := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFileFS(w, r, static, "user-profile.html")
	})
	mux.Handle("GET /user-profile.html", httpx.RequireUser(loginPage)(profile))
	mux.Handle("GET /", http.FileServerFS(static))

	var revoked httpx.RevocationChecker
	if d.Blacklist != nil {
		revoked = d.Blacklist
	}
	return httpx.SessionMiddleware(d.Secret, revoked)(mux)
}
