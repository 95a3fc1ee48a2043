// Package loginsession tracks the console sessions the server has open, one per browser.
package loginsession

import (
	"sync"
	"time"

	"github.com/jrsteele09/spares-console/guard"
	"github.com/jrsteele09/spares-console/notify"
	"github.com/jrsteele09/spares-console/remote"
	"github.com/jrsteele09/spares-console/session"
	"github.com/jrsteele09/spares-console/storage"
)

// Session is everything one browser (or the CLI) works with: its persisted state, the
// credential store over it, the guard and the remote client both use, and the
// notifications waiting to be shown.
type Session struct {
	ID       string
	Repo     storage.Repo
	API      remote.API
	Store    *session.Store
	Guard    *guard.Guard
	Flashes  *notify.Recorder
	Notifier notify.Notifier // reaches Flashes and the session's other notifiers

	CreatedAt time.Time

	lock     sync.Mutex
	lastSeen time.Time
	redirect string
}

var _ remote.Navigator = (*Session)(nil)

// Navigate records a redirect asked for by a remote call. The request handler that made
// the call picks it up with TakeRedirect.
func (s *Session) Navigate(path string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.redirect = path
}

// TakeRedirect returns and clears the pending redirect.
func (s *Session) TakeRedirect() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	path := s.redirect
	s.redirect = ""
	return path
}

func (s *Session) Touch(now time.Time) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.lastSeen = now
}

func (s *Session) LastSeen() time.Time {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.lastSeen.IsZero() {
		return s.CreatedAt
	}
	return s.lastSeen
}

type Repo interface {
	Upsert(s *Session) error
	Get(sessionID string) (*Session, error)
	Delete(sessionID string) error
	// Expire drops sessions not seen since before and returns how many were dropped.
	Expire(before time.Time) int
}
