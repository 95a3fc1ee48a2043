// Package guard decides every navigation: it checks the session and the target route's
// declared requirements and either allows the transition or redirects.
package guard

import (
	"context"

	"github.com/jrsteele09/spares-console/internal/metrics"
	"github.com/jrsteele09/spares-console/notify"
	"github.com/jrsteele09/spares-console/permissions"
	"github.com/jrsteele09/spares-console/result"
	"github.com/jrsteele09/spares-console/storage"
	"github.com/jrsteele09/spares-console/users"
	"github.com/rs/zerolog/log"
)

// Session is the part of the credential store the guard reads.
type Session interface {
	HasUser() bool
	FetchUser(ctx context.Context, force bool) result.Result
	UserPermissions() []users.Permission
	UserRoles() []users.Role
}

// Decision outcomes, also used as metric labels.
const (
	OutcomeAllow             = "allow"
	OutcomeUnauthenticated   = "unauthenticated"
	OutcomeFetchFailed       = "fetch_failed"
	OutcomeMissingPermission = "missing_permission"
	OutcomeMissingRole       = "missing_role"
	OutcomeStorageError      = "storage_error"
)

// Decision is the result of a navigation check together with the side effects it asks for.
type Decision struct {
	Allow         bool
	Redirect      string
	Notifications []notify.Notification
	ClearStorage  bool
	Reason        string
}

type Guard struct {
	session  Session
	repo     storage.Repo
	table    *Table
	notifier notify.Notifier
	strict   bool
}

type Option func(*Guard)

func WithNotifier(n notify.Notifier) Option {
	return func(g *Guard) {
		g.notifier = n
	}
}

func WithTable(t *Table) Option {
	return func(g *Guard) {
		g.table = t
	}
}

// WithStrictRequirements denies routes that declare a permission or role when no user
// is loaded, instead of letting them through.
func WithStrictRequirements() Option {
	return func(g *Guard) {
		g.strict = true
	}
}

// New creates a guard reading the token from repo. Without WithTable the default routes apply.
func New(session Session, repo storage.Repo, opts ...Option) *Guard {
	g := &Guard{
		session:  session,
		repo:     repo,
		notifier: notify.Discard,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.table == nil {
		g.table = NewTable(DefaultRoutes())
	}
	g.notifier = notify.OrDiscard(g.notifier)
	return g
}

func (g *Guard) Table() *Table {
	return g.table
}

func allow() Decision {
	return Decision{Allow: true, Reason: OutcomeAllow}
}

func deny(redirect, reason string, n ...notify.Notification) Decision {
	return Decision{Redirect: redirect, Reason: reason, Notifications: n}
}

// Decide runs the checks for a navigation to to. It may refresh the user through the
// session but performs no other side effect, those are returned in the Decision.
func (g *Guard) Decide(ctx context.Context, to Location) Decision {
	if to.Meta.NeedsAuth() {
		token, err := storage.Token(ctx, g.repo)
		if err != nil {
			log.Err(err).Str("path", to.Path).Msg("[Guard Decide] failed to read persisted token")
			return deny(PathServiceUnavailable, OutcomeStorageError)
		}
		if token == "" {
			return deny(PathUnauthorized, OutcomeUnauthenticated,
				notify.Error("Access Denied", "Please login to access this page"))
		}

		if !g.session.HasUser() {
			if r := g.session.FetchUser(ctx, false); !r.Success {
				log.Err(r.Err).Str("path", to.Path).Msg("[Guard Decide] error fetching user")
				d := deny(PathHome, OutcomeFetchFailed)
				d.ClearStorage = true
				return d
			}
		}
	}

	hasUser := g.session.HasUser()
	notFound := notify.Error("Cannot Find Page", "")

	if to.Meta.RequiresPermission.Declared() && (hasUser || g.strict) {
		perms := g.session.UserPermissions()
		ok := hasUser && to.Meta.RequiresPermission.Satisfied(
			func(name string) bool { return permissions.CheckPermission(perms, name) },
			func(names []string) bool { return permissions.CheckAnyPermission(perms, names) },
		)
		if !ok {
			return deny(PathNotFound, OutcomeMissingPermission, notFound)
		}
	}

	if to.Meta.RequiresRole.Declared() && (hasUser || g.strict) {
		roles := g.session.UserRoles()
		ok := hasUser && to.Meta.RequiresRole.Satisfied(
			func(name string) bool { return permissions.CheckRole(roles, name) },
			func(names []string) bool { return permissions.CheckAnyRole(roles, names) },
		)
		if !ok {
			return deny(PathNotFound, OutcomeMissingRole, notFound)
		}
	}

	return allow()
}

// Apply performs a decision's side effects.
func (g *Guard) Apply(ctx context.Context, d Decision) {
	if d.ClearStorage {
		if err := storage.Clear(context.WithoutCancel(ctx), g.repo); err != nil {
			log.Err(err).Msg("[Guard Apply] failed to clear persisted session")
		}
	}
	for _, n := range d.Notifications {
		g.notifier.Notify(n)
	}
	metrics.RecordGuardDecision(d.Reason)
}

// Navigate resolves path, decides and applies the decision.
func (g *Guard) Navigate(ctx context.Context, path string) (Location, Decision) {
	to := g.table.Resolve(path)
	d := g.Decide(ctx, to)
	g.Apply(ctx, d)

	evt := log.Debug().Str("path", to.Path).Str("route", to.Name).Str("reason", d.Reason)
	if !d.Allow {
		evt = evt.Str("redirect", d.Redirect)
	}
	evt.Msg("navigation")
	return to, d
}
