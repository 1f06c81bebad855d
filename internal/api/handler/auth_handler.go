package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JoaoGuilhermeTP/fatex/internal/app/flash"
	"github.com/JoaoGuilhermeTP/fatex/internal/app/form"
	"github.com/JoaoGuilhermeTP/fatex/internal/app/service"
	"github.com/JoaoGuilhermeTP/fatex/internal/common"
	"github.com/JoaoGuilhermeTP/fatex/internal/common/security"
)

type AuthHandler struct {
	authService *service.AuthService
	users       form.UserFinder
	flashes     flash.Store
	emailDomain string
	sessionExp  time.Duration
	rememberExp time.Duration
}

func NewAuthHandler(
	authService *service.AuthService,
	users form.UserFinder,
	flashes flash.Store,
	emailDomain string,
	sessionExp, rememberExp time.Duration,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		users:       users,
		flashes:     flashes,
		emailDomain: emailDomain,
		sessionExp:  sessionExp,
		rememberExp: rememberExp,
	}
}

// RegisterGuestRoutes mounts the pages that only make sense while signed
// out; the router wraps them in RedirectIfAuthenticated.
func (h *AuthHandler) RegisterGuestRoutes(r chi.Router) {
	r.Get("/register", h.registerPage)
	r.Post("/register", h.register)
	r.Get("/login", h.loginPage)
	r.Post("/login", h.login)
	r.Get("/reset_password", h.resetRequestPage)
	r.Post("/reset_password", h.resetRequest)
	r.Get("/reset_password/{token}", h.resetTokenPage)
	r.Post("/reset_password/{token}", h.resetComplete)
}

func (h *AuthHandler) registerPage(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"flash": drainFlashes(r.Context(), w, r, h.flashes),
	})
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid form data: "+err.Error())
		return
	}
	f := form.Registration{
		Username:        strings.TrimSpace(r.PostFormValue("username")),
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}

	errs, err := f.Validate(r.Context(), h.users, h.emailDomain)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	if errs.Any() {
		respondValidationErrors(w, errs, map[string]string{"username": f.Username, "email": f.Email})
		return
	}

	if _, err := h.authService.Register(r.Context(), f); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	queueFlash(r.Context(), w, r, h.flashes, flash.LevelSuccess,
		"Your account has been created! You are now able to log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) loginPage(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"flash": drainFlashes(r.Context(), w, r, h.flashes),
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid form data: "+err.Error())
		return
	}
	f := form.Login{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Remember: r.PostFormValue("remember") != "",
	}

	if errs := f.Validate(); errs.Any() {
		respondValidationErrors(w, errs, map[string]string{"email": f.Email})
		return
	}

	user, err := h.authService.Login(r.Context(), f)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			// Deliberately generic: must not reveal which field was wrong.
			common.RespondWithError(w, http.StatusUnauthorized,
				"Login unsuccessful. Please check email and password.")
			return
		}
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	ttl := h.sessionExp
	if f.Remember {
		ttl = h.rememberExp
	}
	token, err := security.GenerateSessionToken(user.ID, ttl)
	if err != nil {
		common.RespondWithError(w, http.StatusInternalServerError, "Failed to establish session")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	next := r.URL.Query().Get("next")
	if !safeNextPath(next) {
		next = "/home"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout tears the session down for anonymous and authenticated visitors
// alike, so it lives outside both route groups.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func (h *AuthHandler) resetRequestPage(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"flash": drainFlashes(r.Context(), w, r, h.flashes),
	})
}

func (h *AuthHandler) resetRequest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid form data: "+err.Error())
		return
	}
	f := form.RequestReset{Email: strings.TrimSpace(r.PostFormValue("email"))}

	errs, err := f.Validate(r.Context(), h.users)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	if errs.Any() {
		respondValidationErrors(w, errs, map[string]string{"email": f.Email})
		return
	}

	if err := h.authService.RequestReset(r.Context(), f.Email); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	queueFlash(r.Context(), w, r, h.flashes, flash.LevelInfo,
		"An email has been sent with instructions to reset your password.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) resetTokenPage(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if _, err := h.authService.VerifyResetToken(r.Context(), token); err != nil {
		h.rejectResetToken(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"flash": drainFlashes(r.Context(), w, r, h.flashes),
	})
}

func (h *AuthHandler) resetComplete(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if _, err := h.authService.VerifyResetToken(r.Context(), token); err != nil {
		h.rejectResetToken(w, r, err)
		return
	}

	if err := r.ParseForm(); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid form data: "+err.Error())
		return
	}
	f := form.ResetPassword{
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	if errs := f.Validate(); errs.Any() {
		respondValidationErrors(w, errs, nil)
		return
	}

	if err := h.authService.CompleteReset(r.Context(), token, f); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	queueFlash(r.Context(), w, r, h.flashes, flash.LevelSuccess,
		"Your password has been updated! You are now able to log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) rejectResetToken(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, common.ErrInvalidToken) {
		queueFlash(r.Context(), w, r, h.flashes, flash.LevelWarning,
			"That is an invalid or expired token.")
		http.Redirect(w, r, "/reset_password", http.StatusSeeOther)
		return
	}
	common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
}
