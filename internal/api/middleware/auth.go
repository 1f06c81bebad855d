package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/jwtauth/v5"

	"github.com/JoaoGuilhermeTP/fatex/internal/common/security"
)

type contextKey string

const UserIDCtxKey contextKey = "userID"

// Authenticator gates protected pages. jwtauth.Verifier has already pulled
// the session token out of the "jwt" cookie; anyone without a valid one is
// sent to the login page with the originally requested path preserved so
// the visit can resume after authentication.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			redirectToLogin(w, r)
			return
		}

		userID, err := security.GetUserIDFromClaims(claims)
		if err != nil {
			redirectToLogin(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDCtxKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RedirectIfAuthenticated sends an already signed-in user to the feed
// instead of letting them re-register or re-authenticate.
func RedirectIfAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err == nil && token != nil {
			if _, err := security.GetUserIDFromClaims(claims); err == nil {
				http.Redirect(w, r, "/home", http.StatusFound)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
}

// GetUserIDFromContext returns the authenticated user id set by Authenticator.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok
}
