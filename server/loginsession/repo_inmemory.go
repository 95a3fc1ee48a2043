package loginsession

import (
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/spares-console/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo holds open console sessions for the life of the process. The persisted
// state behind each one lives in its storage.Repo and survives a restart.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]*Session),
	}
}

func (r *InMemoryRepo) Upsert(s *Session) error {
	if s == nil || s.ID == "" {
		return fmt.Errorf("[InMemoryRepo Upsert] session id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return nil
}

func (r *InMemoryRepo) Get(sessionID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("[InMemoryRepo Get] session %s: %w", sessionID, errors.ErrNotFound)
	}
	return s, nil
}

func (r *InMemoryRepo) Delete(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

func (r *InMemoryRepo) Expire(before time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, s := range r.sessions {
		if s.LastSeen().Before(before) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}
