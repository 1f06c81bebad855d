package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JoaoGuilhermeTP/fatex/internal/api/middleware"
	"github.com/JoaoGuilhermeTP/fatex/internal/app/flash"
	"github.com/JoaoGuilhermeTP/fatex/internal/app/form"
	"github.com/JoaoGuilhermeTP/fatex/internal/app/service"
	"github.com/JoaoGuilhermeTP/fatex/internal/common"
	"github.com/JoaoGuilhermeTP/fatex/internal/domain/model"
)

type PostHandler struct {
	postService *service.PostService
	flashes     flash.Store
}

func NewPostHandler(postService *service.PostService, flashes flash.Store) *PostHandler {
	return &PostHandler{postService: postService, flashes: flashes}
}

func (h *PostHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/home", h.home)
	r.Get("/user/{username}", h.userFeed)
	r.Post("/post/new", h.create)
	r.Get("/post/{postID}", h.show)
	r.Post("/post/{postID}/update", h.update)
	r.Post("/post/{postID}/delete", h.delete)
}

type FeedResponse struct {
	Posts    []model.Post    `json:"posts"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Flash    []flash.Message `json:"flash,omitempty"`
}

func (h *PostHandler) home(w http.ResponseWriter, r *http.Request) {
	page := parsePositiveInt(r.URL.Query().Get("page"), 1)

	posts, total, err := h.postService.Feed(r.Context(), page)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	common.RespondWithJSON(w, http.StatusOK, FeedResponse{
		Posts:    posts,
		Total:    total,
		Page:     page,
		PageSize: service.HomePageSize,
		Flash:    drainFlashes(r.Context(), w, r, h.flashes),
	})
}

func (h *PostHandler) userFeed(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	page := parsePositiveInt(r.URL.Query().Get("page"), 1)

	user, posts, total, err := h.postService.UserFeed(r.Context(), username, page)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"user": user,
		"feed": FeedResponse{
			Posts:    posts,
			Total:    total,
			Page:     page,
			PageSize: service.UserPageSize,
		},
	})
}

func (h *PostHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	f, done := h.parsePostForm(w, r)
	if done {
		return
	}

	if _, err := h.postService.Create(r.Context(), userID, f); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	queueFlash(r.Context(), w, r, h.flashes, flash.LevelSuccess, "Your post has been created!")
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func (h *PostHandler) show(w http.ResponseWriter, r *http.Request) {
	post, err := h.postService.Get(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"post":  post,
		"flash": drainFlashes(r.Context(), w, r, h.flashes),
	})
}

func (h *PostHandler) update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	postID := chi.URLParam(r, "postID")

	f, done := h.parsePostForm(w, r)
	if done {
		return
	}

	if _, err := h.postService.Update(r.Context(), userID, postID, f); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	queueFlash(r.Context(), w, r, h.flashes, flash.LevelSuccess, "Your post has been updated!")
	http.Redirect(w, r, "/post/"+postID, http.StatusSeeOther)
}

func (h *PostHandler) delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	if err := h.postService.Delete(r.Context(), userID, chi.URLParam(r, "postID")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	queueFlash(r.Context(), w, r, h.flashes, flash.LevelSuccess, "Your post has been deleted!")
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

// parsePostForm parses and validates the shared title/content form. The
// bool result reports whether a response has already been written.
func (h *PostHandler) parsePostForm(w http.ResponseWriter, r *http.Request) (form.Post, bool) {
	if err := r.ParseForm(); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid form data: "+err.Error())
		return form.Post{}, true
	}
	f := form.Post{
		Title:   strings.TrimSpace(r.PostFormValue("title")),
		Content: strings.TrimSpace(r.PostFormValue("content")),
	}
	if errs := f.Validate(); errs.Any() {
		respondValidationErrors(w, errs, map[string]string{"title": f.Title, "content": f.Content})
		return form.Post{}, true
	}
	return f, false
}
