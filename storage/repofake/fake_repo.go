package repofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/spares-console/storage"
)

var _ storage.Repo = (*FakeRepo)(nil)

// FakeRepo is an in-memory storage.Repo. It also backs STORAGE_BACKEND=memory.
type FakeRepo struct {
	values map[string]string
	lock   sync.RWMutex
	err    error
	writes int
}

func NewFakeRepo() *FakeRepo {
	return &FakeRepo{
		values: make(map[string]string),
	}
}

// FailWith makes every following call return err. nil restores normal behaviour.
func (r *FakeRepo) FailWith(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.err = err
}

func (r *FakeRepo) Get(_ context.Context, key string) (string, bool, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.err != nil {
		return "", false, r.err
	}
	v, ok := r.values[key]
	return v, ok, nil
}

func (r *FakeRepo) Set(_ context.Context, key, value string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.err != nil {
		return r.err
	}
	r.values[key] = value
	r.writes++
	return nil
}

func (r *FakeRepo) Delete(_ context.Context, keys ...string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.err != nil {
		return r.err
	}
	for _, k := range keys {
		delete(r.values, k)
	}
	r.writes++
	return nil
}

// Writes counts the Set and Delete calls that reached the map.
func (r *FakeRepo) Writes() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.writes
}

// Snapshot copies the stored values.
func (r *FakeRepo) Snapshot() map[string]string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// NewFactory hands out one FakeRepo per session id for the life of the process.
func NewFactory() storage.Factory {
	var lock sync.Mutex
	repos := make(map[string]*FakeRepo)
	return func(_ context.Context, sessionID string) (storage.Repo, error) {
		if err := storage.ValidSessionID(sessionID); err != nil {
			return nil, err
		}
		lock.Lock()
		defer lock.Unlock()
		r, ok := repos[sessionID]
		if !ok {
			r = NewFakeRepo()
			repos[sessionID] = r
		}
		return r, nil
	}
}
