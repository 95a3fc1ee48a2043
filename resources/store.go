// Package resources holds the state containers for the marketplace records the console
// manages. Each store calls the remote API, tracks its loading flags and reports
// failures as notifications and result values.
package resources

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jrsteele09/spares-console/notify"
	"github.com/jrsteele09/spares-console/remote"
	"github.com/jrsteele09/spares-console/result"
)

const (
	defaultFailure = "Something went wrong"

	loadFailedTitle       = "Failed to load data"
	loadFailedDescription = "Please refresh the page to try again"
)

// base carries what every store shares. isLoading tracks single operations and loading
// tracks initialisation and list refreshes, as the two flags the pages bind to.
type base struct {
	api      remote.API
	notifier notify.Notifier

	flags     sync.Mutex
	isLoading int
	loading   int
}

func newBase(api remote.API, notifier notify.Notifier) base {
	return base{api: api, notifier: notify.OrDiscard(notifier)}
}

func (b *base) track(counter *int) func() {
	b.flags.Lock()
	*counter++
	b.flags.Unlock()
	return func() {
		b.flags.Lock()
		*counter--
		b.flags.Unlock()
	}
}

func (b *base) busy() func() {
	return b.track(&b.isLoading)
}

func (b *base) initialising() func() {
	return b.track(&b.loading)
}

// IsLoading reports a single operation in progress.
func (b *base) IsLoading() bool {
	b.flags.Lock()
	defer b.flags.Unlock()
	return b.isLoading > 0
}

// Loading reports initialisation or a list refresh in progress.
func (b *base) Loading() bool {
	b.flags.Lock()
	defer b.flags.Unlock()
	return b.loading > 0
}

func (b *base) fail(title, fallback string, err error) result.Result {
	b.notifier.Notify(notify.Error(title, remote.Message(err, fallback)))
	return result.Fail(err)
}

func (b *base) succeed(title string) {
	b.notifier.Notify(notify.Success(title, ""))
}

func (b *base) loadFailed(err error) result.Result {
	b.notifier.Notify(notify.Error(loadFailedTitle, loadFailedDescription))
	return result.Fail(err)
}

// decodeList reads data[key] or data as a list. A missing payload is an empty list.
func decodeList[T any](body json.RawMessage, key string) ([]T, error) {
	var items []T
	if err := remote.Unwrap(body, key, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// decodeKeyed reads data[key] only. A missing key is an empty list.
func decodeKeyed[T any](body json.RawMessage, key string) ([]T, error) {
	var fields map[string]json.RawMessage
	items := []T{}
	if err := json.Unmarshal(remote.Data(body), &fields); err != nil {
		return items, nil
	}
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("[resources decodeKeyed] decode %q: %w", key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// decodeOne reads data[key] or data as a single record.
func decodeOne[T any](body json.RawMessage, key string) (*T, error) {
	var item T
	if err := remote.Unwrap(body, key, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func itemPath(collection string, id ID) string {
	return collection + "/" + id.String()
}

// upsert replaces the element with the same id, or appends.
func upsert[T any](items []T, item T, idOf func(T) ID) []T {
	id := idOf(item)
	for i := range items {
		if id != "" && idOf(items[i]) == id {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

func remove[T any](items []T, id ID, idOf func(T) ID) []T {
	out := items[:0:0]
	for _, it := range items {
		if idOf(it) != id {
			out = append(out, it)
		}
	}
	return out
}

// guarded holds a list under its own lock.
type guarded[T any] struct {
	lock  sync.RWMutex
	items []T
}

func (g *guarded[T]) set(items []T) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.items = items
}

func (g *guarded[T]) get() []T {
	g.lock.RLock()
	defer g.lock.RUnlock()
	return append([]T{}, g.items...)
}

func (g *guarded[T]) update(fn func([]T) []T) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.items = fn(g.items)
}
