package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/MrEthical07/parkauth/events"
	"github.com/MrEthical07/parkauth/internal/clock"
	"github.com/MrEthical07/parkauth/internal/logging"
	"github.com/MrEthical07/parkauth/jwt"
	"github.com/MrEthical07/parkauth/metrics"
	"github.com/MrEthical07/parkauth/notify"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultRenewalBuffer is how long before expiry the access token is
	// renewed.
	DefaultRenewalBuffer = 20 * time.Second
	DefaultLogoutMessage = "You have been logged out."
)

// Backend is the part of the auth API the store drives. Refresh relies on the
// refresh cookie and must not send the access token.
type Backend interface {
	Refresh(ctx context.Context) (accessToken string, err error)
	Logout(ctx context.Context) error
}

// Notifier receives user-facing messages.
type Notifier interface {
	Show(text string, severity notify.Severity)
}

// Config wires a Store. Only Backend is needed for refresh and logout; every
// other field has a usable zero value.
type Config struct {
	RenewalBuffer time.Duration
	LogoutMessage string

	Backend  Backend
	Profiles ProfileStore
	Notifier Notifier
	Events   events.Emitter
	Metrics  *metrics.Metrics
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Store owns the session state and its renewal timer. All methods are safe
// for concurrent use.
type Store struct {
	cfg    Config
	clock  clock.Clock
	log    *slog.Logger
	flight singleflight.Group

	// persistMu orders profile writes so an older generation never
	// overwrites a newer one.
	persistMu sync.Mutex

	mu        sync.Mutex
	token     string
	user      *User
	expiresAt time.Time
	renewAt   time.Time
	timer     clock.Timer
	timerSeq  uint64
	gen       uint64
	renewing  bool
	restored  bool
	authReady bool
}

// New returns an empty, unauthenticated Store.
func New(cfg Config) *Store {
	if cfg.RenewalBuffer <= 0 {
		cfg.RenewalBuffer = DefaultRenewalBuffer
	}
	if cfg.LogoutMessage == "" {
		cfg.LogoutMessage = DefaultLogoutMessage
	}
	if cfg.Profiles == nil {
		cfg.Profiles = NewMemoryProfileStore()
	}
	return &Store{
		cfg:   cfg,
		clock: clock.OrReal(cfg.Clock),
		log:   logging.OrDiscard(cfg.Logger).With("component", "session"),
	}
}

// Login installs a freshly issued access token and the matching profile,
// persists the profile and schedules renewal. A token whose expiry cannot be
// decoded clears the session and returns ErrTokenMalformed.
func (s *Store) Login(ctx context.Context, accessToken string, user User) error {
	s.mu.Lock()
	s.gen++
	s.token = accessToken
	s.user = &user
	s.restored = true
	s.renewing = false
	if err := s.scheduleLocked(accessToken); err != nil {
		s.cfg.Metrics.Inc(metrics.TokenMalformed)
		s.clearAndUnlock(ctx, events.TypeSessionCleared, err)
		return err
	}
	gen := s.gen
	s.mu.Unlock()

	if err := s.persist(ctx, gen, &user); err != nil {
		s.log.Warn("persist profile failed", "error", err)
	}

	s.cfg.Metrics.Inc(metrics.LoginSuccess)
	s.emit(ctx, events.TypeLogin, &user, true, nil)
	s.log.Info("session established", "user", user.Username, "role", user.Role)
	return nil
}

// CheckSession restores the persisted profile and, when a profile exists
// without a live token, attempts one refresh. Its failure is absorbed. On
// return AuthReady is true.
func (s *Store) CheckSession(ctx context.Context) {
	defer s.markReady()

	s.restoreProfile(ctx)

	s.mu.Lock()
	needRefresh := s.user != nil && s.token == ""
	s.mu.Unlock()
	if !needRefresh {
		return
	}

	if err := s.Refresh(ctx); err != nil {
		s.log.Debug("bootstrap refresh failed", "error", err)
	}
}

func (s *Store) restoreProfile(ctx context.Context) {
	s.mu.Lock()
	if s.restored {
		s.mu.Unlock()
		return
	}
	gen := s.gen
	s.mu.Unlock()

	u, err := s.cfg.Profiles.Load(ctx)
	if err != nil {
		s.log.Warn("load persisted profile failed", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.restored || s.gen != gen {
		return
	}
	s.restored = true
	if u != nil && s.user == nil {
		s.user = u
	}
}

func (s *Store) markReady() {
	s.mu.Lock()
	s.authReady = true
	s.mu.Unlock()
}

// Refresh requests a new access token. Concurrent callers within the same
// session generation share one backend request. On backend failure the
// session is cleared and the error wraps ErrAuthExpired. If the session
// changed while the request was in flight the result is discarded and
// ErrSessionSuperseded is returned.
func (s *Store) Refresh(ctx context.Context) error {
	if s.cfg.Backend == nil {
		return ErrNoBackend
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	leader := false
	ch := s.flight.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		leader = true
		return nil, s.refresh(context.WithoutCancel(ctx), gen)
	})

	select {
	case res := <-ch:
		if res.Shared && !leader {
			s.cfg.Metrics.Inc(metrics.RefreshShared)
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) refresh(ctx context.Context, gen uint64) error {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return ErrSessionSuperseded
	}
	s.renewing = true
	s.mu.Unlock()

	start := s.clock.Now()
	token, err := s.cfg.Backend.Refresh(ctx)
	s.cfg.Metrics.Observe(metrics.RefreshLatency, s.clock.Now().Sub(start))

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		s.cfg.Metrics.Inc(metrics.RefreshSuperseded)
		s.log.Debug("discarding refresh result for superseded session", "generation", gen)
		return ErrSessionSuperseded
	}
	s.renewing = false

	if err != nil {
		s.cfg.Metrics.Inc(metrics.RefreshFailure)
		s.log.Info("refresh failed, clearing session", "error", err)
		s.clearAndUnlock(ctx, events.TypeRefreshFailed, err)
		return fmt.Errorf("%w: %w", ErrAuthExpired, err)
	}

	s.token = token
	if err := s.scheduleLocked(token); err != nil {
		s.cfg.Metrics.Inc(metrics.TokenMalformed)
		s.clearAndUnlock(ctx, events.TypeSessionCleared, err)
		return err
	}
	user := s.user
	s.mu.Unlock()

	s.cfg.Metrics.Inc(metrics.RefreshSuccess)
	s.emit(ctx, events.TypeRefresh, user, true, nil)
	return nil
}

// ScheduleRenewal arms the renewal timer for token, replacing any armed one.
// The timer fires RenewalBuffer before the token's expiry, or immediately
// when that point has passed. A token without a decodable expiry clears the
// session and returns ErrTokenMalformed.
func (s *Store) ScheduleRenewal(token string) error {
	s.mu.Lock()
	err := s.scheduleLocked(token)
	if err == nil {
		s.mu.Unlock()
		return nil
	}
	s.cfg.Metrics.Inc(metrics.TokenMalformed)
	s.clearAndUnlock(context.Background(), events.TypeSessionCleared, err)
	return err
}

func (s *Store) scheduleLocked(token string) error {
	s.stopTimerLocked()

	exp, err := jwt.ExpiresAt(token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	now := s.clock.Now()
	delay := exp.Sub(now) - s.cfg.RenewalBuffer
	if delay > 0 {
		s.cfg.Metrics.Inc(metrics.RenewalScheduled)
	} else {
		// Zero-delay timer keeps the refresh off the caller's stack.
		delay = 0
		s.cfg.Metrics.Inc(metrics.RenewalImmediate)
	}

	seq := s.timerSeq
	s.expiresAt = exp
	s.renewAt = now.Add(delay)
	s.timer = s.clock.AfterFunc(delay, func() { s.renew(seq) })
	return nil
}

func (s *Store) renew(seq uint64) {
	s.mu.Lock()
	if s.timerSeq != seq || s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	err := s.Refresh(context.Background())
	if err != nil && !errors.Is(err, ErrSessionSuperseded) {
		s.log.Warn("scheduled renewal failed", "error", err)
	}
}

func (s *Store) stopTimerLocked() {
	s.timerSeq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.renewAt = time.Time{}
}

// Logout clears the local session, then asks the backend to invalidate the
// refresh cookie. The backend outcome is ignored. An informational
// notification is shown last.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	user := s.user
	gen := s.clearLocked()
	s.mu.Unlock()

	if err := s.persist(ctx, gen, nil); err != nil {
		s.log.Warn("clear persisted profile failed", "error", err)
	}

	if s.cfg.Backend != nil {
		if err := s.cfg.Backend.Logout(ctx); err != nil {
			s.cfg.Metrics.Inc(metrics.LogoutBackendFailure)
			s.log.Debug("backend logout failed", "error", err)
		}
	}

	s.cfg.Metrics.Inc(metrics.Logout)
	s.emit(ctx, events.TypeLogout, user, true, nil)
	if s.cfg.Notifier != nil {
		s.cfg.Notifier.Show(s.cfg.LogoutMessage, notify.Info)
	}
}

// Close cancels the renewal timer without touching the session.
func (s *Store) Close() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.mu.Unlock()
}

// clearLocked wipes the session and starts a new generation.
func (s *Store) clearLocked() uint64 {
	s.stopTimerLocked()
	s.token = ""
	s.user = nil
	s.expiresAt = time.Time{}
	s.renewing = false
	s.gen++
	return s.gen
}

// clearAndUnlock must be called with s.mu held. It clears the session,
// releases the lock and then removes the persisted profile.
func (s *Store) clearAndUnlock(ctx context.Context, eventType string, cause error) {
	user := s.user
	gen := s.clearLocked()
	s.mu.Unlock()

	if err := s.persist(ctx, gen, nil); err != nil {
		s.log.Warn("clear persisted profile failed", "error", err)
	}
	s.cfg.Metrics.Inc(metrics.SessionCleared)
	s.emit(ctx, eventType, user, false, cause)
}

// persist writes u (or clears storage when u is nil) unless the session has
// moved past gen.
func (s *Store) persist(ctx context.Context, gen uint64, u *User) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	current := s.gen
	s.mu.Unlock()
	if current != gen {
		return nil
	}

	if u == nil {
		return s.cfg.Profiles.Clear(ctx)
	}
	return s.cfg.Profiles.Save(ctx, *u)
}

func (s *Store) emit(ctx context.Context, eventType string, u *User, success bool, cause error) {
	if s.cfg.Events == nil {
		return
	}
	ev := events.Event{
		Timestamp: s.clock.Now().UTC(),
		Type:      eventType,
		Success:   success,
	}
	if u != nil {
		ev.UserID = u.Username
		ev.Role = u.Role
	}
	if cause != nil {
		ev.Error = cause.Error()
	}
	s.cfg.Events.Emit(ctx, ev)
}

// AccessToken returns the in-memory access token, or "".
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns a copy of the cached profile, or nil.
func (s *Store) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether an access token is held.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

// IsAdmin is true only for an authenticated session whose profile has the
// admin role.
func (s *Store) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "" && s.user.IsAdmin()
}

// AuthReady reports whether the startup session check has finished.
func (s *Store) AuthReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authReady
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Store) stateLocked() State {
	switch {
	case s.renewing:
		return StateRenewing
	case s.token != "":
		return StateAuthenticated
	default:
		return StateUnauthenticated
	}
}

// Snapshot returns a consistent copy of the session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		State:           s.stateLocked(),
		AuthReady:       s.authReady,
		ExpiresAt:       s.expiresAt,
		RenewAt:         s.renewAt,
		RenewalArmed:    s.timer != nil,
		Generation:      s.gen,
		IsAuthenticated: s.token != "",
		IsAdmin:         s.token != "" && s.user.IsAdmin(),
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}
