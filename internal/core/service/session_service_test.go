package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
	"github.com/budgettracker/budget-tracker/internal/core/ports"
)

// compile-time interface check
var _ ports.SessionService = (*SessionService)(nil)

type stubTokens struct {
	mu      sync.Mutex
	token   string
	loadErr error
	deletes int
}

func (s *stubTokens) Load(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.loadErr
}

func (s *stubTokens) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *stubTokens) Delete(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.deletes++
	return nil
}

func (s *stubTokens) current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

type stubAuthGateway struct {
	loginFn    func(domain.LoginInput) (*domain.AuthResult, error)
	registerFn func(domain.RegisterInput) (*domain.AuthResult, error)
}

func (g *stubAuthGateway) Login(_ context.Context, in domain.LoginInput) (*domain.AuthResult, error) {
	return g.loginFn(in)
}

func (g *stubAuthGateway) Register(_ context.Context, in domain.RegisterInput) (*domain.AuthResult, error) {
	return g.registerFn(in)
}

type stubUserGateway struct {
	mu    sync.Mutex
	calls int
	meFn  func() (*domain.User, error)
}

func (g *stubUserGateway) Me(context.Context) (*domain.User, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	return g.meFn()
}

func (g *stubUserGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type recordingHolder struct {
	mu    sync.Mutex
	token string
}

func (h *recordingHolder) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = token
}

func (h *recordingHolder) Token() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.token
}

type sessionFixture struct {
	svc    *SessionService
	tokens *stubTokens
	auth   *stubAuthGateway
	users  *stubUserGateway
	holder *recordingHolder
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		tokens: &stubTokens{},
		auth: &stubAuthGateway{
			loginFn: func(domain.LoginInput) (*domain.AuthResult, error) {
				return nil, errors.New("login not stubbed")
			},
			registerFn: func(domain.RegisterInput) (*domain.AuthResult, error) {
				return nil, errors.New("register not stubbed")
			},
		},
		users: &stubUserGateway{meFn: func() (*domain.User, error) {
			return nil, errors.New("me not stubbed")
		}},
		holder: &recordingHolder{},
	}
	f.svc = NewSessionService(f.tokens, f.auth, f.users, f.holder, zerolog.Nop())
	return f
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "exp": exp.Unix()}).SignedString([]byte("test"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestSessionService_StartsBootstrapping(t *testing.T) {
	f := newSessionFixture(t)
	snap := f.svc.Snapshot()
	if snap.State != domain.SessionBootstrapping || !snap.Loading || snap.Token != "" {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}
}

func TestSessionService_Bootstrap_NoToken(t *testing.T) {
	f := newSessionFixture(t)

	snap := f.svc.Bootstrap(context.Background())
	if snap.State != domain.SessionAnonymous || snap.Loading || snap.User != nil {
		t.Fatalf("expected anonymous, got %+v", snap)
	}
	if f.users.callCount() != 0 {
		t.Fatalf("no profile fetch expected without a token")
	}
}

func TestSessionService_Bootstrap_RestoresValidToken(t *testing.T) {
	f := newSessionFixture(t)
	f.tokens.token = "opaque-token"
	f.users.meFn = func() (*domain.User, error) {
		if f.holder.Token() != "opaque-token" {
			t.Errorf("profile fetch must carry the persisted token")
		}
		return &domain.User{ID: 1, Username: "ada"}, nil
	}

	var seen []domain.Session
	f.svc.Subscribe(func(s domain.Session) { seen = append(seen, s) })

	snap := f.svc.Bootstrap(context.Background())
	if !snap.Authenticated() || snap.User.Username != "ada" || snap.Loading {
		t.Fatalf("expected authenticated session, got %+v", snap)
	}
	if len(seen) != 1 || seen[0].State != domain.SessionAuthenticated {
		t.Fatalf("observers must see only the final state, got %+v", seen)
	}
	if f.holder.Token() != "opaque-token" {
		t.Fatalf("client token not set")
	}
}

func TestSessionService_Bootstrap_InvalidTokenIsPurged(t *testing.T) {
	f := newSessionFixture(t)
	f.tokens.token = "stale"
	f.users.meFn = func() (*domain.User, error) {
		return nil, domain.ErrUnauthorized
	}

	snap := f.svc.Bootstrap(context.Background())
	if snap.State != domain.SessionAnonymous || snap.Token != "" {
		t.Fatalf("expected anonymous, got %+v", snap)
	}
	if f.tokens.current() != "" || f.tokens.deletes != 1 {
		t.Fatalf("persisted token must be purged")
	}
	if f.holder.Token() != "" {
		t.Fatalf("client token must be cleared, got %q", f.holder.Token())
	}
}

func TestSessionService_Bootstrap_ExpiredJWTSkipsNetwork(t *testing.T) {
	f := newSessionFixture(t)
	f.tokens.token = signedToken(t, time.Now().Add(-time.Hour))

	snap := f.svc.Bootstrap(context.Background())
	if snap.State != domain.SessionAnonymous {
		t.Fatalf("expected anonymous, got %+v", snap)
	}
	if f.users.callCount() != 0 {
		t.Fatalf("expired token must not reach the backend")
	}
	if f.tokens.current() != "" {
		t.Fatalf("expired token must be purged")
	}
}

func TestSessionService_Bootstrap_UnexpiredJWTIsValidated(t *testing.T) {
	f := newSessionFixture(t)
	f.tokens.token = signedToken(t, time.Now().Add(time.Hour))
	f.users.meFn = func() (*domain.User, error) { return &domain.User{ID: 2}, nil }

	if snap := f.svc.Bootstrap(context.Background()); !snap.Authenticated() {
		t.Fatalf("expected authenticated, got %+v", snap)
	}
	if f.users.callCount() != 1 {
		t.Fatalf("expected one profile fetch, got %d", f.users.callCount())
	}
}

func TestSessionService_Bootstrap_StoreReadFailure(t *testing.T) {
	f := newSessionFixture(t)
	f.tokens.loadErr = errors.New("disk on fire")

	if snap := f.svc.Bootstrap(context.Background()); snap.State != domain.SessionAnonymous {
		t.Fatalf("expected anonymous, got %+v", snap)
	}
}

func TestSessionService_Bootstrap_HidesProvisionalToken(t *testing.T) {
	f := newSessionFixture(t)
	f.tokens.token = "pending"
	entered := make(chan struct{})
	release := make(chan struct{})
	f.users.meFn = func() (*domain.User, error) {
		close(entered)
		<-release
		return &domain.User{ID: 1}, nil
	}

	done := make(chan domain.Session)
	go func() { done <- f.svc.Bootstrap(context.Background()) }()

	<-entered
	mid := f.svc.Snapshot()
	if !mid.Loading || mid.Token != "" || mid.User != nil || mid.Authenticated() {
		t.Fatalf("provisional token leaked: %+v", mid)
	}
	close(release)
	if snap := <-done; !snap.Authenticated() {
		t.Fatalf("expected authenticated, got %+v", snap)
	}
}

func TestSessionService_LoginDuringBootstrapWins(t *testing.T) {
	f := newSessionFixture(t)
	f.tokens.token = "old"
	entered := make(chan struct{})
	release := make(chan struct{})
	f.users.meFn = func() (*domain.User, error) {
		close(entered)
		<-release
		return &domain.User{ID: 1, Username: "old"}, nil
	}
	f.auth.loginFn = func(domain.LoginInput) (*domain.AuthResult, error) {
		return &domain.AuthResult{AccessToken: "new", User: domain.User{ID: 2, Username: "new"}}, nil
	}

	done := make(chan domain.Session)
	go func() { done <- f.svc.Bootstrap(context.Background()) }()
	<-entered
	if err := f.svc.Login(context.Background(), domain.LoginInput{Username: "new", Password: "password"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	close(release)
	<-done

	snap := f.svc.Snapshot()
	if snap.Token != "new" || snap.User.Username != "new" {
		t.Fatalf("bootstrap overwrote login: %+v", snap)
	}
	if f.holder.Token() != "new" {
		t.Fatalf("client token must follow the login, got %q", f.holder.Token())
	}
}

func TestSessionService_LoginLogout(t *testing.T) {
	f := newSessionFixture(t)
	f.svc.Bootstrap(context.Background())
	f.auth.loginFn = func(in domain.LoginInput) (*domain.AuthResult, error) {
		return &domain.AuthResult{AccessToken: "tok-" + in.Username, User: domain.User{ID: 5, Username: in.Username}}, nil
	}

	var states []domain.SessionState
	unsubscribe := f.svc.Subscribe(func(s domain.Session) { states = append(states, s.State) })
	defer unsubscribe()

	if err := f.svc.Login(context.Background(), domain.LoginInput{Username: "ada", Password: "password"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	snap := f.svc.Snapshot()
	if !snap.Authenticated() || snap.Token != "tok-ada" {
		t.Fatalf("expected authenticated session, got %+v", snap)
	}
	if f.tokens.current() != "tok-ada" || f.holder.Token() != "tok-ada" {
		t.Fatalf("token not persisted or attached")
	}

	f.svc.Logout()
	snap = f.svc.Snapshot()
	if snap.State != domain.SessionAnonymous || snap.Token != "" || snap.User != nil {
		t.Fatalf("expected cleared session, got %+v", snap)
	}
	if f.tokens.current() != "" || f.holder.Token() != "" {
		t.Fatalf("token must be forgotten everywhere")
	}
	if f.svc.IsAuthenticated() {
		t.Fatalf("expected IsAuthenticated false after logout")
	}

	want := []domain.SessionState{domain.SessionAuthenticated, domain.SessionAnonymous}
	if len(states) != len(want) || states[0] != want[0] || states[1] != want[1] {
		t.Fatalf("unexpected notifications: %v", states)
	}
}

func TestSessionService_LoginFailureLeavesState(t *testing.T) {
	f := newSessionFixture(t)
	f.svc.Bootstrap(context.Background())
	f.auth.loginFn = func(domain.LoginInput) (*domain.AuthResult, error) {
		return nil, domain.ErrUnauthorized
	}

	err := f.svc.Login(context.Background(), domain.LoginInput{Username: "ada", Password: "wrong-pass"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if snap := f.svc.Snapshot(); snap.State != domain.SessionAnonymous || snap.Token != "" {
		t.Fatalf("state changed on failure: %+v", snap)
	}
	if f.tokens.current() != "" {
		t.Fatalf("nothing must be persisted on failure")
	}
}

func TestSessionService_ResponseWithoutTokenLeavesState(t *testing.T) {
	f := newSessionFixture(t)
	f.svc.Bootstrap(context.Background())
	noToken := &domain.AuthResult{User: domain.User{ID: 3, Username: "ada"}}
	f.auth.loginFn = func(domain.LoginInput) (*domain.AuthResult, error) { return noToken, nil }
	f.auth.registerFn = func(domain.RegisterInput) (*domain.AuthResult, error) { return noToken, nil }

	if err := f.svc.Login(context.Background(), domain.LoginInput{Username: "ada", Password: "password"}); !errors.Is(err, domain.ErrServer) {
		t.Fatalf("login: expected ErrServer, got %v", err)
	}
	if err := f.svc.Register(context.Background(), domain.RegisterInput{Name: "Ada", Username: "ada"}); !errors.Is(err, domain.ErrServer) {
		t.Fatalf("register: expected ErrServer, got %v", err)
	}
	if snap := f.svc.Snapshot(); snap.State != domain.SessionAnonymous || snap.User != nil || snap.Token != "" {
		t.Fatalf("state changed without a token: %+v", snap)
	}
	if f.tokens.current() != "" || f.holder.Token() != "" {
		t.Fatalf("nothing must be persisted or attached")
	}
}

func TestSessionService_Register(t *testing.T) {
	f := newSessionFixture(t)
	f.svc.Bootstrap(context.Background())
	f.auth.registerFn = func(in domain.RegisterInput) (*domain.AuthResult, error) {
		if in.Username == "taken" {
			return nil, domain.ErrConflict
		}
		return &domain.AuthResult{AccessToken: "reg", User: domain.User{ID: 9, Name: in.Name, Username: in.Username}}, nil
	}

	if err := f.svc.Register(context.Background(), domain.RegisterInput{Username: "taken"}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if f.svc.IsAuthenticated() {
		t.Fatalf("failed registration must not sign in")
	}

	if err := f.svc.Register(context.Background(), domain.RegisterInput{Name: "Ada", Username: "ada"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if snap := f.svc.Snapshot(); !snap.Authenticated() || snap.User.Name != "Ada" {
		t.Fatalf("expected signed-in session, got %+v", snap)
	}
}

func TestSessionService_RefreshProfile(t *testing.T) {
	f := newSessionFixture(t)
	f.svc.Bootstrap(context.Background())

	if err := f.svc.RefreshProfile(context.Background()); err != nil {
		t.Fatalf("RefreshProfile without token: %v", err)
	}
	if f.users.callCount() != 0 {
		t.Fatalf("no fetch expected without a token")
	}

	f.auth.loginFn = func(domain.LoginInput) (*domain.AuthResult, error) {
		return &domain.AuthResult{AccessToken: "tok", User: domain.User{ID: 1, Name: "Old"}}, nil
	}
	_ = f.svc.Login(context.Background(), domain.LoginInput{Username: "ada", Password: "password"})

	f.users.meFn = func() (*domain.User, error) { return &domain.User{ID: 1, Name: "New"}, nil }
	if err := f.svc.RefreshProfile(context.Background()); err != nil {
		t.Fatalf("RefreshProfile: %v", err)
	}
	if snap := f.svc.Snapshot(); snap.User.Name != "New" || snap.Token != "tok" {
		t.Fatalf("expected refreshed user, got %+v", snap)
	}

	f.users.meFn = func() (*domain.User, error) { return nil, domain.ErrServer }
	if err := f.svc.RefreshProfile(context.Background()); !errors.Is(err, domain.ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
	if snap := f.svc.Snapshot(); snap.User.Name != "New" {
		t.Fatalf("failed refresh must keep the user, got %+v", snap)
	}
}

func TestSessionService_SnapshotIsACopy(t *testing.T) {
	f := newSessionFixture(t)
	f.svc.Bootstrap(context.Background())
	f.auth.loginFn = func(domain.LoginInput) (*domain.AuthResult, error) {
		return &domain.AuthResult{AccessToken: "tok", User: domain.User{ID: 1, Name: "Ada"}}, nil
	}
	_ = f.svc.Login(context.Background(), domain.LoginInput{})

	snap := f.svc.Snapshot()
	snap.User.Name = "Mallory"
	if f.svc.Snapshot().User.Name != "Ada" {
		t.Fatalf("snapshot mutation leaked into the store")
	}
}

func TestSessionService_Unsubscribe(t *testing.T) {
	f := newSessionFixture(t)
	calls := 0
	unsubscribe := f.svc.Subscribe(func(domain.Session) { calls++ })
	unsubscribe()
	unsubscribe()

	f.svc.Bootstrap(context.Background())
	if calls != 0 {
		t.Fatalf("unsubscribed observer was called %d times", calls)
	}
}
