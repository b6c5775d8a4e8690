package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
	appErrors "github.com/noah-isme/sma-dashboard-shell/pkg/errors"
)

// Persisted key names owned by the session subsystem.
const (
	SessionTokenKey = "token"
	SessionUserKey  = "currentUser"

	// localTokenPrefix marks tokens minted on the device itself. They never
	// restore a session.
	localTokenPrefix = "local_"
)

// KVStore is the device-scoped string persistence the session lives in.
// Get returns an ErrKeyNotFound coded error for absent keys.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Authenticator verifies credentials against the backend.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
}

// LegacyKeySweep decides which extra keys logout removes besides the owned
// ones. A key matches when its name contains any substring, case-sensitive.
type LegacyKeySweep struct {
	Substrings []string
}

// DefaultLegacyKeySweep clears anything that looks session related.
var DefaultLegacyKeySweep = LegacyKeySweep{Substrings: []string{"user", "auth", "session"}}

// Matches reports whether logout should remove key.
func (p LegacyKeySweep) Matches(key string) bool {
	for _, s := range p.Substrings {
		if s != "" && strings.Contains(key, s) {
			return true
		}
	}
	return false
}

// SessionStore holds the signed-in user of one device and mirrors it into
// the KV store.
type SessionStore struct {
	kv     KVStore
	auth   Authenticator
	sweep  LegacyKeySweep
	logger *zap.Logger

	mu   sync.RWMutex
	user *models.User
}

// SessionOption customises a SessionStore.
type SessionOption func(*SessionStore)

// WithKeySweep replaces the logout sweep policy.
func WithKeySweep(p LegacyKeySweep) SessionOption {
	return func(s *SessionStore) { s.sweep = p }
}

// NewSessionStore constructs the store. The user starts out signed out;
// call RestoreSession once to pick up a persisted session.
func NewSessionStore(kv KVStore, auth Authenticator, logger *zap.Logger, opts ...SessionOption) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SessionStore{kv: kv, auth: auth, sweep: DefaultLegacyKeySweep, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (s *SessionStore) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Login verifies the credentials and persists the session. On any failure
// the previous state is left untouched.
func (s *SessionStore) Login(ctx context.Context, email, password string) (*models.User, error) {
	result, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if result == nil || !result.User.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrAuth, appErrors.ErrAuth.Message)
	}

	encoded, err := json.Marshal(result.User)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode session")
	}
	previous, err := s.snapshotOwned(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read session")
	}
	if err := s.kv.Set(ctx, SessionTokenKey, result.Token); err != nil {
		s.restoreOwned(ctx, previous)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}
	if err := s.kv.Set(ctx, SessionUserKey, string(encoded)); err != nil {
		s.restoreOwned(ctx, previous)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}

	user := result.User
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()

	s.logger.Info("session started", zap.String("user_id", string(user.ID)), zap.String("role", string(user.Role)))
	out := user
	return &out, nil
}

// snapshotOwned reads the owned keys; absent keys map to nil.
func (s *SessionStore) snapshotOwned(ctx context.Context) (map[string]*string, error) {
	out := make(map[string]*string, 2)
	for _, key := range []string{SessionTokenKey, SessionUserKey} {
		value, err := s.kv.Get(ctx, key)
		switch {
		case err == nil:
			v := value
			out[key] = &v
		case appErrors.HasCode(err, appErrors.ErrKeyNotFound.Code):
			out[key] = nil
		default:
			return nil, err
		}
	}
	return out, nil
}

// restoreOwned puts the owned keys back to a snapshot.
func (s *SessionStore) restoreOwned(ctx context.Context, snapshot map[string]*string) {
	for key, value := range snapshot {
		var err error
		if value == nil {
			err = s.kv.Remove(ctx, key)
		} else {
			err = s.kv.Set(ctx, key, *value)
		}
		if err != nil {
			s.logger.Warn("session rollback failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// RestoreSession loads the persisted session. Anything missing, corrupt or
// locally minted silently yields a signed-out store.
func (s *SessionStore) RestoreSession(ctx context.Context) *models.User {
	user, err := s.readPersisted(ctx)
	if err != nil {
		if !appErrors.HasCode(err, appErrors.ErrKeyNotFound.Code) {
			s.logger.Debug("ignoring persisted session", zap.Error(err))
		}
		s.mu.Lock()
		s.user = nil
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	out := *user
	return &out
}

func (s *SessionStore) readPersisted(ctx context.Context) (*models.User, error) {
	token, err := s.kv.Get(ctx, SessionTokenKey)
	if err != nil {
		return nil, err
	}
	if token == "" || strings.HasPrefix(token, localTokenPrefix) {
		return nil, appErrors.Clone(appErrors.ErrMalformed, "persisted token is not a backend session")
	}

	raw, err := s.kv.Get(ctx, SessionUserKey)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMalformed.Code, appErrors.ErrMalformed.Status, "persisted user is not valid JSON")
	}
	if !user.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrMalformed, "persisted user has unknown role")
	}
	return &user, nil
}

// Logout signs out and removes the owned keys plus whatever the sweep policy
// matches. Store failures are logged; the in-memory user is always cleared.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	var errs []error
	for _, key := range []string{SessionTokenKey, SessionUserKey} {
		if err := s.kv.Remove(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}

	keys, err := s.kv.Keys(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	for _, key := range keys {
		if !s.sweep.Matches(key) {
			continue
		}
		if err := s.kv.Remove(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}

	if joined := errors.Join(errs...); joined != nil {
		s.logger.Warn("session cleanup incomplete", zap.Error(joined))
		return joined
	}
	s.logger.Info("session ended")
	return nil
}
