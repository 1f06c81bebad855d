package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"

	"github.com/JoaoGuilhermeTP/fatex/internal/api/handler"
	"github.com/JoaoGuilhermeTP/fatex/internal/api/middleware"
	"github.com/JoaoGuilhermeTP/fatex/internal/common/security"
)

func NewRouter(
	authHandler *handler.AuthHandler,
	accountHandler *handler.AccountHandler,
	postHandler *handler.PostHandler,
	avatarDir string,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Pulls the session token out of the "jwt" cookie (or Authorization
	// header) and puts the claims in context; gating happens per group.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Uploaded profile pictures
	r.Handle("/static/profile_pics/*", http.StripPrefix("/static/profile_pics/",
		http.FileServer(http.Dir(avatarDir))))

	// Guest pages: a signed-in visitor is bounced back to the feed.
	r.Group(func(guest chi.Router) {
		guest.Use(middleware.RedirectIfAuthenticated)
		authHandler.RegisterGuestRoutes(guest)
	})

	r.Get("/logout", authHandler.Logout)

	// Protected pages
	r.Group(func(private chi.Router) {
		private.Use(middleware.Authenticator)
		accountHandler.RegisterRoutes(private)
		postHandler.RegisterRoutes(private)
	})

	return r
}
