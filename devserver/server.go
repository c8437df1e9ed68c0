package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/parkauth/internal/logging"
	"github.com/MrEthical07/parkauth/internal/rate"
	"github.com/MrEthical07/parkauth/jwt"
	"github.com/MrEthical07/parkauth/middleware"
	"github.com/MrEthical07/parkauth/password"
	"github.com/MrEthical07/parkauth/session"
)

const (
	DefaultAccessTTL     = 15 * time.Minute
	DefaultRefreshTTL    = 7 * 24 * time.Hour
	DefaultRefreshCookie = middleware.DefaultRefreshCookie
	DefaultCSRFCookie    = "csrf_refresh_token"
	DefaultCSRFHeader    = middleware.DefaultCSRFHeader
)

// Config configures a Server. Zero values take the defaults above.
type Config struct {
	// Secret is the HS256 signing key. Required.
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	Password password.Config

	RefreshCookie string
	CSRFCookie    string
	CSRFHeader    string
	// SecureCookies forces the Secure attribute; TLS requests always get it.
	SecureCookies bool

	RevocationPrefix string
	// Throttle limits failed logins and refresh calls. Zero budgets disable it.
	Throttle rate.Config

	// Now stamps issued tokens and verifies expiry. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.AccessTTL == 0 {
		c.AccessTTL = DefaultAccessTTL
	}
	if c.RefreshTTL == 0 {
		c.RefreshTTL = DefaultRefreshTTL
	}
	if c.Password == (password.Config{}) {
		c.Password = password.DefaultConfig()
	}
	if c.RefreshCookie == "" {
		c.RefreshCookie = DefaultRefreshCookie
	}
	if c.CSRFCookie == "" {
		c.CSRFCookie = DefaultCSRFCookie
	}
	if c.CSRFHeader == "" {
		c.CSRFHeader = DefaultCSRFHeader
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Server implements the auth API over in-memory accounts and a Redis
// revocation list.
type Server struct {
	cfg         Config
	tokens      *jwt.Manager
	hasher      *password.Argon2
	users       *UserStore
	revocations *Revocations
	limiter     *rate.Limiter
	router      *mux.Router
	logger      *slog.Logger
}

// New builds the server and its routes. rdb backs revocation and throttling.
func New(cfg Config, rdb redis.UniversalClient) (*Server, error) {
	if rdb == nil {
		return nil, errors.New("devserver: redis client is required")
	}
	cfg = cfg.withDefaults()

	tokens, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    cfg.Secret,
		Issuer:        cfg.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("devserver: tokens: %w", err)
	}

	hasher, err := password.NewArgon2(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("devserver: password: %w", err)
	}

	s := &Server{
		cfg:         cfg,
		tokens:      tokens.WithClock(cfg.Now),
		hasher:      hasher,
		users:       NewUserStore(),
		revocations: NewRevocations(rdb, cfg.RevocationPrefix),
		limiter:     rate.New(rdb, cfg.Throttle),
		logger:      logging.OrDiscard(cfg.Logger),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	requireAccess := middleware.RequireAccess(s.tokens)
	requireRefresh := middleware.RequireRefresh(s.tokens, middleware.RefreshOptions{
		CookieName:  s.cfg.RefreshCookie,
		CSRFHeader:  s.cfg.CSRFHeader,
		Revocations: s.revocations,
		Logger:      s.logger,
	})

	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	auth.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	auth.Handle("/refresh", requireRefresh(http.HandlerFunc(s.handleRefresh))).Methods(http.MethodPost)
	auth.Handle("/logout", requireRefresh(http.HandlerFunc(s.handleLogout))).Methods(http.MethodPost)

	r.Handle("/users/me", requireAccess(http.HandlerFunc(s.handleMe))).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "The requested URL was not found on the server.")
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Tokens exposes the signer so tests can mint tokens directly.
func (s *Server) Tokens() *jwt.Manager { return s.tokens }

// Users exposes the account registry, e.g. for seeding.
func (s *Server) Users() *UserStore { return s.users }

// SeedAccount describes an account created at startup.
type SeedAccount struct {
	Email    string
	Username string
	FullName string
	Password string
	Role     string
}

// Seed creates an account without going through registration, so any role
// can be assigned. Role defaults to user.
func (s *Server) Seed(ctx context.Context, in SeedAccount) (session.User, error) {
	if in.Role == "" {
		in.Role = session.RoleUser
	}
	return s.createAccount(ctx, registerRequest{
		Email:    in.Email,
		Password: in.Password,
		FullName: in.FullName,
		Username: in.Username,
	}, in.Role)
}

func (s *Server) createAccount(ctx context.Context, in registerRequest, role string) (session.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return session.User{}, err
	}

	acct := Account{
		User: session.User{
			ID:          uuid.NewString(),
			Username:    strings.TrimSpace(in.Username),
			FullName:    in.FullName,
			Email:       strings.TrimSpace(in.Email),
			Role:        role,
			PhoneNumber: in.PhoneNumber,
			Address:     in.Address,
			Pincode:     in.Pincode,
			CreatedAt:   s.cfg.Now().UTC(),
		},
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, acct); err != nil {
		return session.User{}, err
	}
	return acct.User, nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
