package devserver

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/MrEthical07/parkauth/session"
)

var (
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
	ErrUserNotFound  = errors.New("user not found")
)

// Account is a stored user with its password hash.
type Account struct {
	session.User
	PasswordHash string
}

// UserStore keeps accounts in memory, indexed by id, email and username.
// Emails compare case-insensitively.
type UserStore struct {
	mu         sync.RWMutex
	byID       map[string]*Account
	byEmail    map[string]string
	byUsername map[string]string
}

// NewUserStore returns an empty registry.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:       make(map[string]*Account),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

// Create stores acct. The email is checked before the username.
func (s *UserStore) Create(_ context.Context, acct Account) error {
	email := normalizeEmail(acct.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return ErrEmailTaken
	}
	if _, ok := s.byUsername[acct.Username]; ok {
		return ErrUsernameTaken
	}

	stored := acct
	s.byID[acct.ID] = &stored
	s.byEmail[email] = acct.ID
	s.byUsername[acct.Username] = acct.ID
	return nil
}

// ByID returns the account with id or ErrUserNotFound.
func (s *UserStore) ByID(_ context.Context, id string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.byID[id]
	if !ok {
		return Account{}, ErrUserNotFound
	}
	return *acct, nil
}

// ByEmail looks up an account by case-insensitive email.
func (s *UserStore) ByEmail(ctx context.Context, email string) (Account, error) {
	s.mu.RLock()
	id, ok := s.byEmail[normalizeEmail(email)]
	s.mu.RUnlock()
	if !ok {
		return Account{}, ErrUserNotFound
	}
	return s.ByID(ctx, id)
}

// Len reports the number of stored accounts.
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
