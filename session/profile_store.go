package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProfileKey is the fixed key the profile is stored under.
const ProfileKey = "user"

// ErrProfileStoreUnavailable wraps failures of the underlying storage.
var ErrProfileStoreUnavailable = errors.New("profile store unavailable")

// ProfileStore persists the user profile across restarts. Load returns
// (nil, nil) when nothing is stored.
type ProfileStore interface {
	Load(ctx context.Context) (*User, error)
	Save(ctx context.Context, u User) error
	Clear(ctx context.Context) error
}

// MemoryProfileStore keeps the profile in process memory.
type MemoryProfileStore struct {
	mu   sync.Mutex
	user *User
}

// NewMemoryProfileStore returns an empty in-memory store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{}
}

func (m *MemoryProfileStore) Load(context.Context) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil, nil
	}
	u := *m.user
	return &u, nil
}

func (m *MemoryProfileStore) Save(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = &u
	return nil
}

func (m *MemoryProfileStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
	return nil
}

// FileProfileStore keeps the profile in a JSON document on disk, under the
// "user" key. Writes go through a temporary file and a rename.
type FileProfileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileProfileStore stores the profile at path. The file is created on the
// first Save.
func NewFileProfileStore(path string) *FileProfileStore {
	return &FileProfileStore{path: path}
}

type profileDocument struct {
	User *User `json:"user,omitempty"`
}

func (f *FileProfileStore) Load(context.Context) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrProfileStoreUnavailable, err)
	}

	var doc profileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", f.path, err)
	}
	return doc.User, nil
}

func (f *FileProfileStore) Save(_ context.Context, u User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(profileDocument{User: &u}, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrProfileStoreUnavailable, err)
	}
	tmp, err := os.CreateTemp(dir, ".profile-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProfileStoreUnavailable, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrProfileStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrProfileStoreUnavailable, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrProfileStoreUnavailable, err)
	}
	return nil
}

func (f *FileProfileStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrProfileStoreUnavailable, err)
	}
	return nil
}

// RedisProfileStore keeps the profile in Redis under "<prefix>:user", for
// clients that run server side on behalf of a browser.
type RedisProfileStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisProfileStore returns a store writing under prefix. A positive ttl
// bounds how long an abandoned profile survives; zero keeps it until Clear.
func NewRedisProfileStore(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisProfileStore {
	if prefix == "" {
		prefix = "parkauth"
	}
	return &RedisProfileStore{redis: rdb, prefix: prefix, ttl: ttl}
}

func (r *RedisProfileStore) key() string {
	return r.prefix + ":" + ProfileKey
}

func (r *RedisProfileStore) Load(ctx context.Context) (*User, error) {
	data, err := r.redis.Get(ctx, r.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrProfileStoreUnavailable, err)
	}

	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", r.key(), err)
	}
	return &u, nil
}

func (r *RedisProfileStore) Save(ctx context.Context, u User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if err := r.redis.Set(ctx, r.key(), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrProfileStoreUnavailable, err)
	}
	return nil
}

func (r *RedisProfileStore) Clear(ctx context.Context) error {
	if err := r.redis.Del(ctx, r.key()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrProfileStoreUnavailable, err)
	}
	return nil
}
