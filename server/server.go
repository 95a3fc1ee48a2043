package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/spares-console/guard"
	"github.com/jrsteele09/spares-console/internal/config"
	"github.com/jrsteele09/spares-console/server/loginsession"
	"github.com/jrsteele09/spares-console/storage"
	"github.com/rs/zerolog/log"
)

// sessionIdleTimeout is how long an unused browser session stays open in memory.
const sessionIdleTimeout = 12 * time.Hour

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	repos      storage.Factory
	sessions   loginsession.Repo
	table      *guard.Table
	httpClient *http.Client
	page       *template.Template
	now        func() time.Time
}

type Option func(*Server)

// WithHTTPClient sets the client remote API calls are made with.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Server) {
		s.httpClient = hc
	}
}

// WithRouteTable replaces the table loaded from configuration.
func WithRouteTable(t *guard.Table) Option {
	return func(s *Server) {
		s.table = t
	}
}

func WithSessions(repo loginsession.Repo) Option {
	return func(s *Server) {
		s.sessions = repo
	}
}

// WithNowTime sets the clock (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.now = nowFunc
	}
}

func New(c config.Config, repos storage.Factory, opts ...Option) (*Server, error) {
	s := &Server{
		mux:    http.NewServeMux(),
		config: c,
		repos:  repos,
		env:    c.GetEnv(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = loginsession.NewInMemoryRepo()
	}
	if s.table == nil {
		table, err := LoadRouteTable(c)
		if err != nil {
			return nil, fmt.Errorf("[Server New] %w", err)
		}
		s.table = table
	}

	page, err := ParseTemplate("page.html")
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse page template: %w", err)
	}
	s.page = page

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

// ExpireSessions closes browser sessions idle for longer than sessionIdleTimeout until
// ctx is done. Their persisted state is kept.
func (s *Server) ExpireSessions(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Expire(s.now().Add(-sessionIdleTimeout)); n > 0 {
				log.Debug().Int("expired", n).Msg("[Server ExpireSessions] closed idle sessions")
			}
		}
	}
}

// consoleFor returns the console session named by the request cookie, opening a new one
// (and setting the cookie) when there is none.
func (s *Server) consoleFor(w http.ResponseWriter, r *http.Request) (*loginsession.Session, error) {
	id := ""
	if cookie, err := r.Cookie(consoleSessionCookieName); err == nil && storage.ValidSessionID(cookie.Value) == nil {
		id = cookie.Value
	}
	if id != "" {
		if cs, err := s.sessions.Get(id); err == nil {
			cs.Touch(s.now())
			return cs, nil
		}
	} else {
		id = uuid.NewString()
	}

	opts := []ConsoleOption{WithConsoleTable(s.table)}
	if s.httpClient != nil {
		opts = append(opts, WithConsoleHTTPClient(s.httpClient))
	}
	cs, err := OpenConsole(r.Context(), s.config, s.repos, id, opts...)
	if err != nil {
		return nil, err
	}
	cs.Touch(s.now())
	if err := s.sessions.Upsert(cs); err != nil {
		return nil, err
	}
	s.setConsoleSessionCookie(w, r, id)
	return cs, nil
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
