// Package session is the credential store: it owns the signed-in user and bearer token,
// keeps them in step with persisted storage and refreshes the user from the remote API.
package session

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/spares-console/internal/errors"
	"github.com/jrsteele09/spares-console/internal/metrics"
	"github.com/jrsteele09/spares-console/notify"
	"github.com/jrsteele09/spares-console/remote"
	"github.com/jrsteele09/spares-console/result"
	"github.com/jrsteele09/spares-console/storage"
	"github.com/jrsteele09/spares-console/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultUserCacheTTL is how long a fetched user is served without a network call.
	DefaultUserCacheTTL = 5 * time.Minute

	pathLogin        = "/login"
	pathMe           = "/me"
	pathOrganisation = "/organisations/"
)

type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	Refreshing
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	default:
		return "unauthenticated"
	}
}

// Store is the single owner of session state. Every mutation goes through its methods.
type Store struct {
	api      remote.API
	repo     storage.Repo
	notifier notify.Notifier
	ttl      time.Duration
	nowTime  func() time.Time

	lock        sync.RWMutex
	user        *users.User
	token       string
	lastFetched time.Time
	// generation changes on login and logout so a fetch started under an older session
	// cannot write its result into a newer one.
	generation     uint64
	authenticating int
	refreshing     int
	busy           int

	fetches singleflight.Group
}

type Option func(*Store)

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithNowTime sets the clock (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Store) {
		s.notifier = n
	}
}

// NewStore creates a store seeded from the persisted token and user.
func NewStore(ctx context.Context, api remote.API, repo storage.Repo, opts ...Option) (*Store, error) {
	if api == nil {
		return nil, errors.New("[NewStore] api is required")
	}
	if repo == nil {
		return nil, errors.New("[NewStore] repo is required")
	}

	s := &Store{
		api:      api,
		repo:     repo,
		notifier: notify.Discard,
		ttl:      DefaultUserCacheTTL,
		nowTime:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.notifier = notify.OrDiscard(s.notifier)

	token, err := storage.Token(ctx, repo)
	if err != nil {
		return nil, errors.Wrap(err, "[NewStore] failed to read persisted token")
	}
	user, err := storage.User(ctx, repo)
	if err != nil {
		return nil, errors.Wrap(err, "[NewStore] failed to read persisted user")
	}
	s.token = token
	s.user = user
	return s, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a token, then force-refreshes the user so roles and
// permissions are current.
func (s *Store) Login(ctx context.Context, email, password string) result.Result {
	s.begin(&s.authenticating)
	defer s.end(&s.authenticating)

	if err := s.login(ctx, email, password); err != nil {
		s.notifier.Notify(notify.Error("Login failed", remote.Message(err, "Login failed")))
		return result.Fail(err)
	}

	if r := s.FetchUser(ctx, true); !r.Success {
		log.Err(r.Err).Msg("[Store Login] signed in but the user could not be loaded")
	}

	name := "User"
	if u := s.User(); u != nil && u.Name != "" {
		name = u.Name
	}
	s.notifier.Notify(notify.Success("Login successful!", "Welcome back, "+name+"!"))
	return result.OK()
}

func (s *Store) login(ctx context.Context, email, password string) error {
	body, err := s.api.Post(ctx, pathLogin, credentials{Email: email, Password: password})
	if err != nil {
		return err
	}

	var resp loginResponse
	if err := json.Unmarshal(remote.Data(body), &resp); err != nil {
		return errors.Wrap(err, "[Store login] failed to decode login response")
	}
	if resp.Token == "" {
		return apperrors.ErrMissingToken
	}
	if err := storage.SaveToken(ctx, s.repo, resp.Token); err != nil {
		return errors.Wrap(err, "[Store login] failed to persist token")
	}

	s.lock.Lock()
	s.token = resp.Token
	s.generation++
	s.lastFetched = time.Time{}
	s.lock.Unlock()
	return nil
}

// FetchUser refreshes the user from GET /me. Unless force is set, a user fetched within
// the cache TTL is served without a network call. Concurrent callers share one request.
func (s *Store) FetchUser(ctx context.Context, force bool) result.Result {
	s.begin(nil)
	defer s.end(nil)

	now := s.nowTime()
	s.lock.RLock()
	gen := s.generation
	fresh := !s.lastFetched.IsZero() && now.Sub(s.lastFetched) < s.ttl
	s.lock.RUnlock()

	if !force && fresh {
		metrics.RecordUserFetch("cached")
		return result.Cached()
	}

	// The flight is shared, it ignores the first caller's cancellation. The remote
	// client's request timeout still bounds it.
	shared := context.WithoutCancel(ctx)
	_, err, _ := s.fetches.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		return nil, s.fetchUser(shared, gen)
	})
	if err != nil {
		return result.Fail(err)
	}
	return result.OK()
}

func (s *Store) fetchUser(ctx context.Context, gen uint64) error {
	s.begin(&s.refreshing)
	defer s.end(&s.refreshing)

	user, err := s.loadUser(ctx)
	if err != nil {
		metrics.RecordUserFetch("error")
		s.notifier.Notify(notify.Error("Failed to fetch user", remote.Message(err, "Failed to fetch user data")))
		if remote.StatusOf(err) == 401 {
			s.Logout(ctx)
		}
		return err
	}

	token, tokenErr := storage.Token(ctx, s.repo)
	if tokenErr != nil {
		log.Err(tokenErr).Msg("[Store fetchUser] failed to re-read persisted token, keeping the current one")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.generation != gen {
		metrics.RecordUserFetch("stale")
		return errors.Wrap(apperrors.ErrUnauthenticated, "[Store fetchUser] session changed while fetching user")
	}
	if err := storage.SaveUser(ctx, s.repo, user); err != nil {
		log.Err(err).Msg("[Store fetchUser] failed to persist user")
	}
	s.user = user
	if tokenErr == nil {
		s.token = token
	}
	if fetched := s.nowTime(); fetched.After(s.lastFetched) {
		s.lastFetched = fetched
	}
	metrics.RecordUserFetch("network")
	return nil
}

type meResponse struct {
	User         json.RawMessage `json:"user"`
	Organisation json.RawMessage `json:"organisation"`
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// loadUser reads data.user (or the whole body) from /me and resolves the current organisation.
func (s *Store) loadUser(ctx context.Context) (*users.User, error) {
	body, err := s.api.Get(ctx, pathMe)
	if err != nil {
		return nil, err
	}

	var me meResponse
	_ = json.Unmarshal(remote.Data(body), &me)

	src := json.RawMessage(body)
	if present(me.User) {
		src = me.User
	}
	var user users.User
	if err := json.Unmarshal(src, &user); err != nil {
		return nil, errors.Wrap(err, "[Store loadUser] failed to decode user")
	}

	if present(me.Organisation) {
		var orgs []users.Organisation
		if err := json.Unmarshal(me.Organisation, &orgs); err != nil {
			return nil, errors.Wrap(err, "[Store loadUser] failed to decode organisations")
		}
		user.Organisations = orgs
		user.CurrentOrganisation = users.SelectCurrentOrganisation(orgs)
		if cur := user.CurrentOrganisation; cur != nil && cur.OrganisationID != "" {
			s.enrichOrganisation(ctx, cur)
		}
	}
	return &user, nil
}

// enrichOrganisation merges the organisation's details. Failures are logged only.
func (s *Store) enrichOrganisation(ctx context.Context, org *users.Organisation) {
	body, err := s.api.Get(ctx, pathOrganisation+org.OrganisationID.String())
	if err != nil {
		log.Err(err).Str("organisation_id", org.OrganisationID.String()).Msg("[Store enrichOrganisation] failed to fetch organisation details")
		return
	}
	var details map[string]any
	if err := json.Unmarshal(remote.Data(body), &details); err != nil {
		log.Err(err).Str("organisation_id", org.OrganisationID.String()).Msg("[Store enrichOrganisation] failed to decode organisation details")
		return
	}
	org.Merge(details)
}

// Logout clears the in-memory and persisted session. Memory is always cleared.
func (s *Store) Logout(ctx context.Context) result.Result {
	s.begin(nil)
	defer s.end(nil)

	s.Invalidate()

	if err := storage.Clear(context.WithoutCancel(ctx), s.repo); err != nil {
		s.notifier.Notify(notify.Error("Logout failed", remote.Message(err, "Logout failed")))
		return result.Fail(err)
	}
	s.notifier.Notify(notify.Success("Logged out successfully!", ""))
	return result.OK()
}

// Invalidate drops the in-memory credentials without touching storage. The remote
// client calls it after a 401 has already cleared the persisted session. A fetch that
// is in flight is discarded.
func (s *Store) Invalidate() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.user = nil
	s.token = ""
	s.lastFetched = time.Time{}
	s.generation++
}

// SwitchOrganisation makes org the current organisation and persists the user.
func (s *Store) SwitchOrganisation(ctx context.Context, org *users.Organisation) result.Result {
	if org == nil || org.OrganisationID == "" {
		return result.Fail(apperrors.ErrInvalidOrganisation)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.user == nil {
		s.notifier.Notify(notify.Error("Switch failed", apperrors.ErrUserNotLoaded.Error()))
		return result.Fail(apperrors.ErrUserNotLoaded)
	}

	next := s.user.Clone()
	current := *org
	next.CurrentOrganisation = &current
	if err := storage.SaveUser(ctx, s.repo, next); err != nil {
		s.notifier.Notify(notify.Error("Switch failed", remote.Message(err, "Failed to switch organisation")))
		return result.Fail(err)
	}
	s.user = next

	s.notifier.Notify(notify.Success("Organisation switched!", "Now viewing "+org.OrganisationName))
	return result.OK()
}

// SwitchOrganisationByID switches to one of the user's organisations.
func (s *Store) SwitchOrganisationByID(ctx context.Context, id users.ID) result.Result {
	if id == "" {
		return result.Fail(apperrors.ErrInvalidOrganisation)
	}
	u := s.User()
	if u == nil {
		return s.SwitchOrganisation(ctx, &users.Organisation{OrganisationID: id})
	}
	for _, org := range u.Organisations {
		if org.OrganisationID == id {
			return s.SwitchOrganisation(ctx, &org)
		}
	}
	return result.Fail(errors.Wrapf(apperrors.ErrInvalidOrganisation, "not a member of organisation %s", id))
}

func (s *Store) begin(counter *int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.busy++
	if counter != nil {
		*counter++
	}
}

func (s *Store) end(counter *int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.busy--
	if counter != nil {
		*counter--
	}
}
