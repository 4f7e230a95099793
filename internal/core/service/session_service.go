package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
	"github.com/budgettracker/budget-tracker/internal/core/ports"
)

// errTokenExpired marks a persisted token rejected without a network call.
var errTokenExpired = errors.New("persisted token expired")

// errNoAccessToken marks an auth response that cannot open a session.
var errNoAccessToken = fmt.Errorf("%w: auth response carried no access token", domain.ErrServer)

// SessionService owns the token and the user profile. It is the only writer of
// the API client's bearer token.
type SessionService struct {
	tokens ports.TokenStore
	auth   ports.AuthGateway
	users  ports.UserGateway
	client ports.TokenHolder
	log    zerolog.Logger
	now    func() time.Time

	// persistMu orders token store writes the same way as state changes. It
	// is never held while observers run.
	persistMu sync.Mutex

	mu      sync.Mutex
	state   domain.Session
	epoch   uint64 // bumped on every login, register and logout
	subs    map[int]func(domain.Session)
	nextSub int
}

func NewSessionService(tokens ports.TokenStore, auth ports.AuthGateway, users ports.UserGateway, client ports.TokenHolder, log zerolog.Logger) *SessionService {
	return &SessionService{
		tokens: tokens,
		auth:   auth,
		users:  users,
		client: client,
		log:    log,
		now:    time.Now,
		state:  domain.Session{State: domain.SessionBootstrapping, Loading: true},
		subs:   make(map[int]func(domain.Session)),
	}
}

// Bootstrap restores a persisted session. The provisional token is attached to
// the API client for the profile fetch but never shows up in Snapshot; only
// the final authenticated or anonymous state is published. Calling Bootstrap
// again after it finished returns the current snapshot.
func (s *SessionService) Bootstrap(ctx context.Context) domain.Session {
	s.mu.Lock()
	if s.state.State != domain.SessionBootstrapping {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}
	epoch := s.epoch
	s.mu.Unlock()

	token, err := s.tokens.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read persisted token")
		return s.finishBootstrap(epoch, "", nil)
	}
	if token == "" {
		return s.finishBootstrap(epoch, "", nil)
	}
	if err := s.checkExpiry(token); err != nil {
		s.log.Warn().Err(err).Msg("failed to restore session")
		return s.finishBootstrap(epoch, "", nil)
	}

	s.mu.Lock()
	if s.epoch != epoch {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}
	s.client.SetToken(token)
	s.mu.Unlock()

	user, err := s.users.Me(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to restore session")
		return s.finishBootstrap(epoch, "", nil)
	}
	return s.finishBootstrap(epoch, token, user)
}

// finishBootstrap publishes the restored session unless a login or logout
// already replaced it while the profile fetch was in flight.
func (s *SessionService) finishBootstrap(epoch uint64, token string, user *domain.User) domain.Session {
	s.persistMu.Lock()
	s.mu.Lock()
	if s.epoch != epoch {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.persistMu.Unlock()
		return snap
	}
	if user == nil {
		s.setLocked(domain.Session{State: domain.SessionAnonymous})
	} else {
		s.setLocked(domain.Session{Token: token, User: user, State: domain.SessionAuthenticated})
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if user == nil {
		if err := s.tokens.Delete(context.Background()); err != nil {
			s.log.Warn().Err(err).Msg("failed to purge persisted token")
		}
	}
	s.persistMu.Unlock()
	s.notify(snap)

	s.log.Debug().Str("state", string(snap.State)).Msg("session bootstrap finished")
	return snap
}

// checkExpiry rejects JWTs whose exp claim has passed. Tokens that are not
// JWTs, or carry no exp, are left to the backend.
func (s *SessionService) checkExpiry(token string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if !exp.After(s.now()) {
		return fmt.Errorf("%w at %s", errTokenExpired, exp.UTC().Format(time.RFC3339))
	}
	return nil
}

// Login authenticates and replaces the session. On failure the session is
// left untouched.
func (s *SessionService) Login(ctx context.Context, in domain.LoginInput) error {
	res, err := s.auth.Login(ctx, in)
	if err == nil && (res == nil || res.AccessToken == "") {
		err = errNoAccessToken
	}
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	s.establish(res)
	return nil
}

// Register creates an account and signs in with it.
func (s *SessionService) Register(ctx context.Context, in domain.RegisterInput) error {
	res, err := s.auth.Register(ctx, in)
	if err == nil && (res == nil || res.AccessToken == "") {
		err = errNoAccessToken
	}
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	s.establish(res)
	return nil
}

func (s *SessionService) establish(res *domain.AuthResult) {
	s.persistMu.Lock()

	user := res.User
	s.mu.Lock()
	s.epoch++
	s.setLocked(domain.Session{Token: res.AccessToken, User: &user, State: domain.SessionAuthenticated})
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.tokens.Save(context.Background(), res.AccessToken); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist token")
	}
	s.persistMu.Unlock()
	s.notify(snap)
	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("signed in")
}

// Logout clears the session synchronously and forgets the persisted token.
func (s *SessionService) Logout() {
	s.persistMu.Lock()

	s.mu.Lock()
	s.epoch++
	s.setLocked(domain.Session{State: domain.SessionAnonymous})
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.tokens.Delete(context.Background()); err != nil {
		s.log.Warn().Err(err).Msg("failed to remove persisted token")
	}
	s.persistMu.Unlock()
	s.notify(snap)
	s.log.Info().Msg("signed out")
}

// RefreshProfile refetches the user. Without a token it does nothing. The new
// profile is dropped if the session changed during the fetch.
func (s *SessionService) RefreshProfile(ctx context.Context) error {
	s.mu.Lock()
	token, epoch := s.state.Token, s.epoch
	s.mu.Unlock()
	if token == "" {
		return nil
	}

	user, err := s.users.Me(ctx)
	if err != nil {
		return fmt.Errorf("refresh profile: %w", err)
	}

	s.mu.Lock()
	if s.epoch != epoch || s.state.Token != token {
		s.mu.Unlock()
		return nil
	}
	s.setLocked(domain.Session{Token: token, User: user, State: domain.SessionAuthenticated})
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Snapshot returns a copy of the current session.
func (s *SessionService) Snapshot() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *SessionService) IsAuthenticated() bool {
	return s.Snapshot().Authenticated()
}

func (s *SessionService) Subscribe(fn func(domain.Session)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// setLocked applies next and keeps the API client token in step with it.
// Callers hold s.mu.
func (s *SessionService) setLocked(next domain.Session) {
	if !s.state.State.CanTransitionTo(next.State) {
		s.log.Debug().
			Str("from", string(s.state.State)).
			Str("to", string(next.State)).
			Msg("session transition outside the usual flow")
	}
	s.state = next
	s.client.SetToken(next.Token)
}

func (s *SessionService) snapshotLocked() domain.Session {
	snap := s.state
	if snap.User != nil {
		u := *snap.User
		snap.User = &u
	}
	return snap
}

func (s *SessionService) notify(snap domain.Session) {
	s.mu.Lock()
	fns := make([]func(domain.Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
