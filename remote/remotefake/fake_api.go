// Package remotefake is an in-memory remote.API for tests and offline runs.
package remotefake

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/jrsteele09/spares-console/notify"
	"github.com/jrsteele09/spares-console/remote"
)

var _ remote.API = (*FakeAPI)(nil)

// Request is one call received by the fake.
type Request struct {
	Method string
	Path   string
	Body   any
}

// Handler answers a call with a status and a JSON body.
type Handler func(ctx context.Context, req Request) (int, any)

type FakeAPI struct {
	lock     sync.Mutex
	handlers map[string]Handler
	calls    []Request
	notifier notify.Notifier
}

func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		handlers: make(map[string]Handler),
		notifier: notify.Discard,
	}
}

// WithNotifier makes failed calls raise the same notifications the real client does.
func (f *FakeAPI) WithNotifier(n notify.Notifier) *FakeAPI {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.notifier = notify.OrDiscard(n)
	return f
}

func key(method, path string) string {
	return method + " " + path
}

// Handle registers h for method and path.
func (f *FakeAPI) Handle(method, path string, h Handler) *FakeAPI {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.handlers[key(method, path)] = h
	return f
}

// Respond registers a fixed answer for method and path.
func (f *FakeAPI) Respond(method, path string, status int, body any) *FakeAPI {
	return f.Handle(method, path, func(context.Context, Request) (int, any) {
		return status, body
	})
}

// Calls returns how many times method and path were requested.
func (f *FakeAPI) Calls(method, path string) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// Requests returns every call in order.
func (f *FakeAPI) Requests() []Request {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]Request(nil), f.calls...)
}

func (f *FakeAPI) call(ctx context.Context, variant remote.Variant, method, path string, body any) (json.RawMessage, error) {
	req := Request{Method: method, Path: path, Body: body}

	f.lock.Lock()
	f.calls = append(f.calls, req)
	h, ok := f.handlers[key(method, path)]
	notifier := f.notifier
	f.lock.Unlock()

	status, payload := http.StatusNotFound, any(map[string]string{"message": "no handler for " + key(method, path)})
	if ok {
		status, payload = h(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("[FakeAPI call] %s %s: %w", method, path, err)
	}

	var data []byte
	if payload != nil {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("[FakeAPI call] encode response: %w", err)
		}
	}

	if status < 200 || status >= 300 {
		he := remote.NewHTTPError(variant, method, path, status, "", data)
		if he.Outcome.Notification != nil {
			notifier.Notify(*he.Outcome.Notification)
		}
		return nil, he
	}
	if data == nil {
		return nil, nil
	}
	return json.RawMessage(data), nil
}

func (f *FakeAPI) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return f.call(ctx, remote.VariantJSON, http.MethodGet, path, nil)
}

func (f *FakeAPI) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return f.call(ctx, remote.VariantJSON, http.MethodPost, path, body)
}

func (f *FakeAPI) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return f.call(ctx, remote.VariantJSON, http.MethodPut, path, body)
}

func (f *FakeAPI) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return f.call(ctx, remote.VariantJSON, http.MethodDelete, path, nil)
}

func (f *FakeAPI) PostFile(ctx context.Context, path string, form *remote.Form) (json.RawMessage, error) {
	return f.call(ctx, remote.VariantFile, http.MethodPost, path, form)
}

// Download writes the handler's body, which must be a string or []byte.
func (f *FakeAPI) Download(ctx context.Context, path string, w io.Writer) (int64, error) {
	req := Request{Method: http.MethodGet, Path: path}

	f.lock.Lock()
	f.calls = append(f.calls, req)
	h, ok := f.handlers[key(http.MethodGet, path)]
	notifier := f.notifier
	f.lock.Unlock()

	if !ok {
		he := remote.NewHTTPError(remote.VariantBlob, http.MethodGet, path, http.StatusNotFound, "", nil)
		notifier.Notify(*he.Outcome.Notification)
		return 0, he
	}
	status, payload := h(ctx, req)
	if status < 200 || status >= 300 {
		data, _ := json.Marshal(payload)
		he := remote.NewHTTPError(remote.VariantBlob, http.MethodGet, path, status, "", data)
		if he.Outcome.Notification != nil {
			notifier.Notify(*he.Outcome.Notification)
		}
		return 0, he
	}
	var content []byte
	switch v := payload.(type) {
	case string:
		content = []byte(v)
	case []byte:
		content = v
	}
	n, err := w.Write(content)
	return int64(n), err
}
