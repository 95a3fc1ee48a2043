package server

import (
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/spares-console/internal/errors"
	"github.com/jrsteele09/spares-console/notify"
	"github.com/jrsteele09/spares-console/remote"
	"github.com/jrsteele09/spares-console/result"
	"github.com/jrsteele09/spares-console/server/loginsession"
	"github.com/jrsteele09/spares-console/users"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

// SessionResponse is the JSON view of a console session.
type SessionResponse struct {
	Authenticated bool                  `json:"authenticated"`
	State         string                `json:"state"`
	User          *users.User           `json:"user,omitempty"`
	Roles         []string              `json:"roles"`
	Permissions   []string              `json:"permissions"`
	LastFetched   *time.Time            `json:"lastFetched,omitempty"`
	TokenExpiry   *time.Time            `json:"tokenExpiry,omitempty"`
	Redirect      string                `json:"redirect,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type organisationRequest struct {
	ID users.ID `json:"id"`
}

// wantsJSON reports a request sent as JSON, or one that asks for a JSON answer.
func wantsJSON(r *http.Request) bool {
	if ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && ct == "application/json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func decodeJSONBody(r *http.Request, out any) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "application/json" {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(out)
}

// LoginHandler signs the console session in (POST /auth/login).
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cs, ok := consoleFrom(r.Context())
		if !ok {
			http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
			return
		}

		var req loginRequest
		if err := decodeJSONBody(r, &req); err != nil {
			writeJSONError(w, "invalid_request", "Invalid JSON body", http.StatusBadRequest)
			return
		}
		if req.Email == "" && req.Password == "" {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form data", http.StatusBadRequest)
				return
			}
			req.Email = r.FormValue("email")
			req.Password = r.FormValue("password")
		}

		res := cs.Store.Login(r.Context(), req.Email, req.Password)
		pending := cs.TakeRedirect()

		if wantsJSON(r) {
			status := http.StatusOK
			if !res.Success {
				status = failureStatus(res)
			}
			s.writeSession(w, cs, status, pending)
			return
		}
		if !res.Success {
			redirectSuccess(w, r, "/?email="+url.QueryEscape(req.Email))
			return
		}
		redirectSuccess(w, r, RouteAfterLogin)
	}
}

// LogoutHandler signs the console session out (POST /auth/logout). The persisted state
// is cleared whatever the API answers.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cs, ok := consoleFrom(r.Context())
		if !ok {
			http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
			return
		}

		res := cs.Store.Logout(r.Context())
		cs.TakeRedirect()
		if wantsJSON(r) {
			status := http.StatusOK
			if !res.Success {
				status = failureStatus(res)
			}
			s.writeSession(w, cs, status, "")
			return
		}
		redirectSuccess(w, r, "/")
	}
}

// SessionHandler reports the console session (GET /api/session). refresh=true forces a
// reload of the current user.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cs, ok := consoleFrom(r.Context())
		if !ok {
			http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
			return
		}

		status := http.StatusOK
		if r.URL.Query().Get("refresh") == "true" && cs.Store.HasToken() {
			if res := cs.Store.FetchUser(r.Context(), true); !res.Success {
				status = failureStatus(res)
			}
		}
		s.writeSession(w, cs, status, cs.TakeRedirect())
	}
}

// OrganisationHandler switches the current organisation (POST /api/organisation).
func (s *Server) OrganisationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cs, ok := consoleFrom(r.Context())
		if !ok {
			http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
			return
		}

		var req organisationRequest
		if err := decodeJSONBody(r, &req); err != nil {
			writeJSONError(w, "invalid_request", "Invalid JSON body", http.StatusBadRequest)
			return
		}
		if req.ID == "" {
			if err := r.ParseForm(); err == nil {
				req.ID = users.ID(r.FormValue("id"))
			}
		}

		res := cs.Store.SwitchOrganisationByID(r.Context(), req.ID)
		if !wantsJSON(r) {
			redirectSuccess(w, r, RouteAfterLogin)
			return
		}
		status := http.StatusOK
		if !res.Success {
			status = failureStatus(res)
		}
		s.writeSession(w, cs, status, cs.TakeRedirect())
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// failureStatus picks the HTTP status reported for a failed store operation.
func failureStatus(res result.Result) int {
	switch {
	case errors.Is(res.Err, errors.ErrInvalidOrganisation):
		return http.StatusBadRequest
	case errors.Is(res.Err, errors.ErrUserNotLoaded), errors.Is(res.Err, errors.ErrUnauthenticated):
		return http.StatusUnauthorized
	}
	if status := remote.StatusOf(res.Err); status >= 400 && status < 500 {
		return status
	}
	return http.StatusBadGateway
}

func (s *Server) sessionResponse(cs *loginsession.Session, redirect string) SessionResponse {
	resp := SessionResponse{
		Authenticated: cs.Store.IsAuthenticated(),
		State:         cs.Store.State().String(),
		User:          cs.Store.User(),
		Roles:         []string{},
		Permissions:   []string{},
		Redirect:      redirect,
		Notifications: cs.Flashes.Drain(),
	}
	for _, role := range cs.Store.UserRoles() {
		resp.Roles = append(resp.Roles, role.Desc())
	}
	for _, perm := range cs.Store.UserPermissions() {
		resp.Permissions = append(resp.Permissions, perm.Desc())
	}
	if t := cs.Store.LastFetched(); !t.IsZero() {
		resp.LastFetched = &t
	}
	if exp, ok, err := cs.Store.TokenExpiry(); err == nil && ok {
		resp.TokenExpiry = &exp
	}
	if resp.Notifications == nil {
		resp.Notifications = []notify.Notification{}
	}
	return resp
}

func (s *Server) writeSession(w http.ResponseWriter, cs *loginsession.Session, status int, redirect string) {
	writeJSON(w, status, s.sessionResponse(cs, redirect))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("[Server writeJSON] failed to encode response")
	}
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
