package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/spares-console/guard"
	"github.com/jrsteele09/spares-console/internal/config"
	"github.com/jrsteele09/spares-console/notify"
	"github.com/jrsteele09/spares-console/remote"
	"github.com/jrsteele09/spares-console/server/loginsession"
	"github.com/jrsteele09/spares-console/session"
	"github.com/jrsteele09/spares-console/storage"
)

// CLISessionID is the console session the command line works in.
const CLISessionID = "cli"

type consoleOptions struct {
	notifier   notify.Notifier
	httpClient *http.Client
	table      *guard.Table
	now        func() time.Time
}

type ConsoleOption func(*consoleOptions)

// WithConsoleNotifier adds n next to the session's flash recorder.
func WithConsoleNotifier(n notify.Notifier) ConsoleOption {
	return func(o *consoleOptions) {
		o.notifier = n
	}
}

func WithConsoleHTTPClient(hc *http.Client) ConsoleOption {
	return func(o *consoleOptions) {
		o.httpClient = hc
	}
}

func WithConsoleTable(t *guard.Table) ConsoleOption {
	return func(o *consoleOptions) {
		o.table = t
	}
}

// OpenConsole opens the persisted state for sessionID and wires the remote client,
// credential store and guard over it.
func OpenConsole(ctx context.Context, c config.Config, repos storage.Factory, sessionID string, opts ...ConsoleOption) (*loginsession.Session, error) {
	o := consoleOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	repo, err := repos(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("[server OpenConsole] open storage: %w", err)
	}

	cs := &loginsession.Session{
		ID:        sessionID,
		Repo:      repo,
		Flashes:   notify.NewRecorder(),
		CreatedAt: o.now(),
	}
	notifier := notify.Multi(cs.Flashes, notify.LogNotifier{}, notify.OrDiscard(o.notifier))
	cs.Notifier = notifier

	clientOpts := []remote.Option{
		remote.WithNotifier(notifier),
		remote.WithNavigator(cs),
		remote.WithTimeout(c.GetRequestTimeout()),
		remote.WithUnauthorized(func(context.Context) {
			if cs.Store != nil {
				cs.Store.Invalidate()
			}
		}),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, remote.WithHTTPClient(o.httpClient))
	}
	cs.API = remote.New(c.GetAPIURL(), repo, clientOpts...)

	cs.Store, err = session.NewStore(ctx, cs.API, repo,
		session.WithTTL(c.GetUserCacheTTL()),
		session.WithNotifier(notifier),
	)
	if err != nil {
		return nil, fmt.Errorf("[server OpenConsole] %w", err)
	}

	guardOpts := []guard.Option{guard.WithNotifier(notifier)}
	if o.table != nil {
		guardOpts = append(guardOpts, guard.WithTable(o.table))
	}
	if c.GetGuardStrict() {
		guardOpts = append(guardOpts, guard.WithStrictRequirements())
	}
	cs.Guard = guard.New(cs.Store, repo, guardOpts...)
	return cs, nil
}
