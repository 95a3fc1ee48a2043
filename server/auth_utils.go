package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/spares-console/guard"
	"github.com/jrsteele09/spares-console/server/loginsession"
)

const (
	// consoleSessionCookieName names the cookie holding the browser's console session id
	consoleSessionCookieName = "console_session_id"
	consoleSessionMaxAge     = 30 * 24 * 60 * 60
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyConsole stores the request's console session
	ContextKeyConsole ContextKey = "console"
	// ContextKeyLocation stores the resolved route of a page request
	ContextKeyLocation ContextKey = "location"
)

func (s *Server) setConsoleSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     consoleSessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   consoleSessionMaxAge,
	})
}

func withConsole(ctx context.Context, cs *loginsession.Session) context.Context {
	return context.WithValue(ctx, ContextKeyConsole, cs)
}

// consoleFrom returns the console session put on the context by the session middleware.
func consoleFrom(ctx context.Context) (*loginsession.Session, bool) {
	cs, ok := ctx.Value(ContextKeyConsole).(*loginsession.Session)
	return cs, ok
}

func withLocation(ctx context.Context, loc guard.Location) context.Context {
	return context.WithValue(ctx, ContextKeyLocation, loc)
}

func locationFrom(ctx context.Context) (guard.Location, bool) {
	loc, ok := ctx.Value(ContextKeyLocation).(guard.Location)
	return loc, ok
}

// redirectSuccess helper for htmx-aware redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
