package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go-mod.ewintr.nl/fluxreader/api"
	"go-mod.ewintr.nl/fluxreader/domain"
	"go-mod.ewintr.nl/fluxreader/readiness"
)

type SessionState string

const (
	SessionInit       SessionState = "init"
	SessionChecking   SessionState = "checking"
	SessionReady      SessionState = "ready"
	SessionAuthNeeded SessionState = "auth_needed"
)

// HomePath is where an unauthenticated user is sent.
const HomePath = "/"

type Credentials struct {
	Server string
	Token  string
}

func (c Credentials) Complete() bool {
	return c.Server != "" && c.Token != ""
}

// CredentialStore keeps credentials across restarts.
type CredentialStore interface {
	LoadCredentials(ctx context.Context) (Credentials, error)
	SaveCredentials(ctx context.Context, creds Credentials) error
	ClearToken(ctx context.Context) error
}

type Notifier interface {
	Error(msg string) string
}

type Redirector interface {
	Navigate(path string)
}

type SessionConfig struct {
	Credentials CredentialStore
	Dial        api.Dialer
	Notifier    Notifier
	Logger      *slog.Logger
}

// Session owns the credentials, the shared api.Client and the error sink.
// It also holds the lock that guards the entity graph shared by all stores.
type Session struct {
	mu       sync.RWMutex
	creds    Credentials
	client   api.Client
	user     *domain.User
	loggedIn bool
	redirect Redirector

	store    CredentialStore
	dial     api.Dialer
	notifier Notifier
	logger   *slog.Logger

	graph sync.RWMutex
	tasks sync.WaitGroup

	State *readiness.Signal[SessionState]
}

// NewSession restores persisted credentials and configures the client with
// them before any store can issue a call.
func NewSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	s := &Session{
		client:   api.Unconfigured{},
		store:    cfg.Credentials,
		dial:     cfg.Dial,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		State:    readiness.New(SessionInit),
	}
	if s.dial == nil {
		s.dial = api.NewMiniflux
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.store == nil {
		return s, nil
	}

	creds, err := s.store.LoadCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load credentials: %w", err)
	}
	s.creds = creds
	if creds.Complete() {
		s.client = s.dial(creds.Server, creds.Token)
	}

	return s, nil
}

// SetRedirector sets the navigation target used when authentication is lost.
func (s *Session) SetRedirector(r Redirector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redirect = r
}

// Client returns the request capability as currently configured.
func (s *Session) Client() api.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

func (s *Session) Credentials() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

// Register stores the credentials, configures the client with them and
// checks them by fetching the current user.
func (s *Session) Register(ctx context.Context, server, token string) (*domain.User, error) {
	creds := Credentials{Server: strings.TrimRight(server, "/"), Token: token}

	s.mu.Lock()
	s.creds = creds
	s.client = s.dial(creds.Server, creds.Token)
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SaveCredentials(ctx, creds); err != nil {
			s.logger.Warn("could not persist credentials", "error", err)
		}
	}

	return s.Profile(ctx)
}

// Profile fetches the current user with the configured credentials.
func (s *Session) Profile(ctx context.Context) (*domain.User, error) {
	creds := s.Credentials()
	if !creds.Complete() {
		s.State.Set(SessionAuthNeeded)
		return nil, api.ErrNotConfigured
	}

	s.State.Set(SessionChecking)
	user, err := s.Client().Me(ctx)
	if err != nil {
		s.State.Set(SessionAuthNeeded)
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.loggedIn = true
	s.mu.Unlock()
	s.State.Set(SessionReady)
	s.logger.Info("logged in", "server", creds.Server, "user", user.Username)

	return user, nil
}

// Clear forgets the token. Cached categories, feeds and entries in the other
// stores stay until they are fetched again.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.creds.Token = ""
	s.client = api.Unconfigured{}
	s.loggedIn = false
	s.user = nil
	s.mu.Unlock()
	s.State.Set(SessionAuthNeeded)

	if s.store == nil {
		return nil
	}
	if err := s.store.ClearToken(ctx); err != nil {
		return fmt.Errorf("could not clear credentials: %w", err)
	}

	return nil
}

// ReportError is the single place where failures become visible to the
// user. Authentication failures log the user out and redirect home;
// anything else becomes a notification.
func (s *Session) ReportError(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		s.logger.Debug("request canceled", "error", err)
		return
	}
	s.logger.Error("request failed", "error", err)

	if api.IsUnauthorized(err) {
		s.mu.Lock()
		s.loggedIn = false
		redirect := s.redirect
		s.mu.Unlock()
		s.State.Set(SessionAuthNeeded)
		if redirect != nil {
			redirect.Navigate(HomePath)
		}
		return
	}

	if s.notifier != nil {
		s.notifier.Error(err.Error())
	}
}

// Wait blocks until all background reconciliations have finished.
func (s *Session) Wait() {
	s.tasks.Wait()
}

// background runs fn detached from the caller: the caller neither waits for
// it nor cancels it.
func (s *Session) background(ctx context.Context, name string, fn func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		s.logger.Debug("background task started", "task", name)
		fn(ctx)
	}()
}
