package guard_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jrsteele09/spares-console/guard"
	"github.com/jrsteele09/spares-console/notify"
	"github.com/jrsteele09/spares-console/remote/remotefake"
	"github.com/jrsteele09/spares-console/session"
	"github.com/jrsteele09/spares-console/storage"
	"github.com/jrsteele09/spares-console/storage/repofake"
	"github.com/jrsteele09/spares-console/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool {
	return &v
}

type fixture struct {
	api      *remotefake.FakeAPI
	repo     *repofake.FakeRepo
	recorder *notify.Recorder
	store    *session.Store
	guard    *guard.Guard
}

func newFixture(t *testing.T, seed func(ctx context.Context, repo storage.Repo), opts ...guard.Option) *fixture {
	t.Helper()
	f := &fixture{
		api:      remotefake.NewFakeAPI(),
		repo:     repofake.NewFakeRepo(),
		recorder: notify.NewRecorder(),
	}
	f.api.WithNotifier(f.recorder)
	if seed != nil {
		seed(context.Background(), f.repo)
	}
	store, err := session.NewStore(context.Background(), f.api, f.repo, session.WithNotifier(f.recorder))
	require.NoError(t, err)
	f.store = store
	f.guard = guard.New(store, f.repo, append([]guard.Option{guard.WithNotifier(f.recorder)}, opts...)...)
	return f
}

func tokenOnly(ctx context.Context, repo storage.Repo) {
	_ = storage.SaveToken(ctx, repo, "tok")
}

func signedIn(perms []string, roles []string) func(context.Context, storage.Repo) {
	return func(ctx context.Context, repo storage.Repo) {
		u := &users.User{Name: "Jo"}
		for _, p := range perms {
			u.Permissions = append(u.Permissions, users.Permission{Name: p})
		}
		for _, r := range roles {
			u.Roles = append(u.Roles, users.Role{Name: r})
		}
		_ = storage.SaveToken(ctx, repo, "tok")
		_ = storage.SaveUser(ctx, repo, u)
	}
}

func at(meta guard.Meta) guard.Location {
	return guard.Location{Path: "/target", Name: "target", Meta: meta}
}

func TestDecide_RequiresAuthWithoutToken(t *testing.T) {
	f := newFixture(t, nil)

	d := f.guard.Decide(context.Background(), at(guard.Meta{RequiresAuth: boolPtr(true)}))

	assert.False(t, d.Allow)
	assert.Equal(t, "/unauthorized", d.Redirect)
	require.Len(t, d.Notifications, 1)
	assert.Equal(t, "Access Denied", d.Notifications[0].Title)
	assert.Equal(t, "Please login to access this page", d.Notifications[0].Description)
	assert.Empty(t, f.api.Requests())
}

func TestDecide_FetchesMissingUserOnce(t *testing.T) {
	f := newFixture(t, tokenOnly)
	f.api.Respond(http.MethodGet, "/me", http.StatusOK, map[string]any{
		"data": map[string]any{"user": map[string]any{"id": 1, "name": "Jo"}},
	})

	d := f.guard.Decide(context.Background(), at(guard.Meta{RequiresAuth: boolPtr(true)}))

	assert.True(t, d.Allow)
	assert.Equal(t, 1, f.api.Calls(http.MethodGet, "/me"))
	assert.True(t, f.store.IsAuthenticated())

	d = f.guard.Decide(context.Background(), at(guard.Meta{RequiresAuth: boolPtr(true)}))
	assert.True(t, d.Allow)
	assert.Equal(t, 1, f.api.Calls(http.MethodGet, "/me"))
}

func TestNavigate_UnauthorizedFetchClearsAndRedirectsHome(t *testing.T) {
	f := newFixture(t, tokenOnly)
	f.api.Respond(http.MethodGet, "/me", http.StatusUnauthorized, nil)

	_, d := f.guard.Navigate(context.Background(), "/dashboard")

	assert.False(t, d.Allow)
	assert.Equal(t, "/", d.Redirect)
	assert.True(t, d.ClearStorage)
	assert.Equal(t, guard.OutcomeFetchFailed, d.Reason)
	assert.Equal(t, 1, f.api.Calls(http.MethodGet, "/me"))
	assert.Empty(t, f.repo.Snapshot())
	assert.False(t, f.store.IsAuthenticated())
}

func TestNavigate_FetchFailureClearsStorage(t *testing.T) {
	f := newFixture(t, tokenOnly)
	f.api.Respond(http.MethodGet, "/me", http.StatusInternalServerError, nil)

	_, d := f.guard.Navigate(context.Background(), "/parts")

	assert.Equal(t, "/", d.Redirect)
	assert.Empty(t, f.repo.Snapshot())
}

func TestDecide_PermissionList(t *testing.T) {
	f := newFixture(t, signedIn([]string{"b"}, nil))

	d := f.guard.Decide(context.Background(), at(guard.Meta{RequiresPermission: guard.AnyOf("a", "b")}))
	assert.True(t, d.Allow)

	d = f.guard.Decide(context.Background(), at(guard.Meta{RequiresPermission: guard.AnyOf("a", "c")}))
	assert.False(t, d.Allow)
	assert.Equal(t, "/not-found", d.Redirect)
	require.Len(t, d.Notifications, 1)
	assert.Equal(t, "Cannot Find Page", d.Notifications[0].Title)
}

func TestDecide_SinglePermission(t *testing.T) {
	f := newFixture(t, signedIn([]string{"parts.view"}, nil))

	assert.True(t, f.guard.Decide(context.Background(), at(guard.Meta{RequiresPermission: guard.One("parts.view")})).Allow)
	assert.False(t, f.guard.Decide(context.Background(), at(guard.Meta{RequiresPermission: guard.One("parts.edit")})).Allow)
}

func TestDecide_EmptyPermissionListDenies(t *testing.T) {
	f := newFixture(t, signedIn([]string{"parts.view"}, nil))

	d := f.guard.Decide(context.Background(), at(guard.Meta{RequiresPermission: guard.AnyOf()}))
	assert.False(t, d.Allow)
	assert.Equal(t, guard.OutcomeMissingPermission, d.Reason)
}

func TestDecide_Roles(t *testing.T) {
	f := newFixture(t, signedIn(nil, []string{"vendor"}))
	ctx := context.Background()

	assert.True(t, f.guard.Decide(ctx, at(guard.Meta{RequiresRole: guard.One("vendor")})).Allow)
	assert.True(t, f.guard.Decide(ctx, at(guard.Meta{RequiresRole: guard.AnyOf("admin", "vendor")})).Allow)

	d := f.guard.Decide(ctx, at(guard.Meta{RequiresRole: guard.One("admin")}))
	assert.False(t, d.Allow)
	assert.Equal(t, "/not-found", d.Redirect)
	assert.Equal(t, guard.OutcomeMissingRole, d.Reason)
}

func TestDecide_PermissionCheckedBeforeRole(t *testing.T) {
	f := newFixture(t, signedIn(nil, nil))

	d := f.guard.Decide(context.Background(), at(guard.Meta{
		RequiresPermission: guard.One("a"),
		RequiresRole:       guard.One("admin"),
	}))
	assert.Equal(t, guard.OutcomeMissingPermission, d.Reason)
}

func TestDecide_RequirementsWithoutUserFailOpen(t *testing.T) {
	f := newFixture(t, nil)

	d := f.guard.Decide(context.Background(), at(guard.Meta{
		RequiresAuth:       boolPtr(false),
		RequiresPermission: guard.One("parts.view"),
		RequiresRole:       guard.One("admin"),
	}))
	assert.True(t, d.Allow)
	assert.Empty(t, f.api.Requests())
}

func TestDecide_StrictRequirementsWithoutUserDeny(t *testing.T) {
	f := newFixture(t, nil, guard.WithStrictRequirements())

	d := f.guard.Decide(context.Background(), at(guard.Meta{RequiresRole: guard.One("admin")}))
	assert.False(t, d.Allow)
	assert.Equal(t, "/not-found", d.Redirect)
}

func TestApply(t *testing.T) {
	f := newFixture(t, signedIn(nil, nil))

	f.guard.Apply(context.Background(), guard.Decision{
		Redirect:      "/",
		ClearStorage:  true,
		Notifications: []notify.Notification{notify.Error("Access Denied", "")},
		Reason:        guard.OutcomeFetchFailed,
	})

	assert.Empty(t, f.repo.Snapshot())
	last, ok := f.recorder.Last()
	require.True(t, ok)
	assert.Equal(t, "Access Denied", last.Title)
}

func TestNavigate_DefaultRoutes(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	to, d := f.guard.Navigate(ctx, "/")
	assert.True(t, d.Allow)
	assert.Equal(t, "login", to.Name)

	to, d = f.guard.Navigate(ctx, "/dashboard")
	assert.Equal(t, "Dashboard", to.Name)
	assert.Equal(t, "/unauthorized", d.Redirect)

	to, d = f.guard.Navigate(ctx, "/no/such/page")
	assert.Equal(t, guard.NameNotFound, to.Name)
	assert.True(t, d.Allow)

	last, ok := f.recorder.Last()
	require.True(t, ok)
	assert.Equal(t, "Access Denied", last.Title)
}
