package handler

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JoaoGuilhermeTP/fatex/internal/api/middleware"
	"github.com/JoaoGuilhermeTP/fatex/internal/app/flash"
	"github.com/JoaoGuilhermeTP/fatex/internal/app/form"
	"github.com/JoaoGuilhermeTP/fatex/internal/app/service"
	"github.com/JoaoGuilhermeTP/fatex/internal/common"
)

const maxAvatarUploadBytes = 8 << 20

type AccountHandler struct {
	accountService *service.AccountService
	users          form.UserFinder
	flashes        flash.Store
}

func NewAccountHandler(accountService *service.AccountService, users form.UserFinder, flashes flash.Store) *AccountHandler {
	return &AccountHandler{accountService: accountService, users: users, flashes: flashes}
}

func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Get("/account", h.show)
	r.Post("/account", h.update)
}

func (h *AccountHandler) show(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	user, err := h.accountService.Get(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"user":       user,
		"avatar_url": "/static/profile_pics/" + user.AvatarFile,
		"flash":      drainFlashes(r.Context(), w, r, h.flashes),
	})
}

func (h *AccountHandler) update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var avatar *multipart.FileHeader
	if err := r.ParseMultipartForm(maxAvatarUploadBytes); err == nil {
		if files := r.MultipartForm.File["avatar"]; len(files) > 0 {
			avatar = files[0]
		}
	} else if err := r.ParseForm(); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid form data: "+err.Error())
		return
	}

	current, err := h.accountService.Get(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	f := form.AccountUpdate{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Avatar:   avatar,
	}
	errs, err := f.Validate(r.Context(), h.users, current)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	if errs.Any() {
		respondValidationErrors(w, errs, map[string]string{"username": f.Username, "email": f.Email})
		return
	}

	if _, err := h.accountService.Update(r.Context(), userID, f); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	queueFlash(r.Context(), w, r, h.flashes, flash.LevelSuccess, "Your account has been updated!")
	http.Redirect(w, r, "/account", http.StatusSeeOther)
}
