package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JoaoGuilhermeTP/fatex/internal/app/flash"
	"github.com/JoaoGuilhermeTP/fatex/internal/app/form"
	"github.com/JoaoGuilhermeTP/fatex/internal/common"
)

const (
	// jwtauth's cookie lookup expects the session token under this name.
	sessionCookieName = "jwt"
	flashCookieName   = "flash_session"
)

// ValidationResponse redisplays a rejected form: field-scoped messages plus
// the submitted values (passwords excluded) so nothing the user typed is lost.
type ValidationResponse struct {
	Errors form.Errors       `json:"errors"`
	Values map[string]string `json:"values,omitempty"`
}

func respondValidationErrors(w http.ResponseWriter, errs form.Errors, values map[string]string) {
	common.RespondWithJSON(w, http.StatusUnprocessableEntity, ValidationResponse{Errors: errs, Values: values})
}

// flashSessionID returns the browser's flash-session id, minting the cookie
// on first use.
func flashSessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(flashCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	sid := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

// queueFlash records a one-time notice for the next rendered page. Flash
// storage failures are logged, never fatal for the request.
func queueFlash(ctx context.Context, w http.ResponseWriter, r *http.Request, store flash.Store, level, text string) {
	sid := flashSessionID(w, r)
	if err := store.Add(ctx, sid, flash.Message{Level: level, Text: text}); err != nil {
		log.Printf("failed to queue flash message: %v", err)
	}
}

func drainFlashes(ctx context.Context, w http.ResponseWriter, r *http.Request, store flash.Store) []flash.Message {
	sid := flashSessionID(w, r)
	msgs, err := store.Pop(ctx, sid)
	if err != nil {
		log.Printf("failed to pop flash messages: %v", err)
		return nil
	}
	return msgs
}

func parsePositiveInt(s string, defaultVal int) int {
	if val, err := strconv.Atoi(s); err == nil && val > 0 {
		return val
	}
	return defaultVal
}

// safeNextPath accepts only site-local redirect targets.
func safeNextPath(next string) bool {
	return strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//")
}
