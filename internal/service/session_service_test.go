package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
	appErrors "github.com/noah-isme/sma-dashboard-shell/pkg/errors"
)

type fakeKV struct {
	mu      sync.Mutex
	data    map[string]string
	failSet error
	// failKey limits failSet to one key when set.
	failKey string
}

func newFakeKV(seed map[string]string) *fakeKV {
	kv := &fakeKV{data: map[string]string{}}
	for k, v := range seed {
		kv.data[k] = v
	}
	return kv
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", appErrors.Clone(appErrors.ErrKeyNotFound, key)
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet != nil && (f.failKey == "" || f.failKey == key) {
		return f.failSet
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeKV) Keys(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

type fakeAuth struct {
	result *models.AuthResult
	err    error
	calls  int
}

func (f *fakeAuth) Login(context.Context, string, string) (*models.AuthResult, error) {
	f.calls++
	return f.result, f.err
}

func teacherResult() *models.AuthResult {
	return &models.AuthResult{
		Token: "jwt-abc",
		User:  models.User{ID: "7", Name: "Bu Sari", Email: "sari.teacher@school.id", Role: models.RoleTeacher},
	}
}

func TestSessionLoginPersistsTokenAndUser(t *testing.T) {
	kv := newFakeKV(nil)
	store := NewSessionStore(kv, &fakeAuth{result: teacherResult()}, nil)

	user, err := store.Login(context.Background(), "sari.teacher@school.id", "secret")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, user.Role)
	assert.Equal(t, "jwt-abc", kv.data[SessionTokenKey])
	assert.JSONEq(t, `{"id":"7","name":"Bu Sari","email":"sari.teacher@school.id","role":"teacher"}`, kv.data[SessionUserKey])
	assert.Equal(t, user, store.CurrentUser())
}

func TestSessionLoginFailureKeepsState(t *testing.T) {
	kv := newFakeKV(nil)
	auth := &fakeAuth{result: teacherResult()}
	store := NewSessionStore(kv, auth, nil)
	_, err := store.Login(context.Background(), "a@b.c", "x")
	require.NoError(t, err)

	auth.result = nil
	auth.err = appErrors.Clone(appErrors.ErrAuth, "Invalid credentials")
	_, err = store.Login(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", appErrors.FromError(err).Message)

	require.NotNil(t, store.CurrentUser())
	assert.Equal(t, models.UserID("7"), store.CurrentUser().ID)
	assert.Equal(t, "jwt-abc", kv.data[SessionTokenKey])
}

func TestSessionLoginPersistFailure(t *testing.T) {
	kv := newFakeKV(nil)
	kv.failSet = errors.New("disk full")
	store := NewSessionStore(kv, &fakeAuth{result: teacherResult()}, nil)

	_, err := store.Login(context.Background(), "a@b.c", "x")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInternal.Code))
	assert.Nil(t, store.CurrentUser())
}

func TestSessionLoginPersistFailureKeepsPreviousSession(t *testing.T) {
	kv := newFakeKV(nil)
	auth := &fakeAuth{result: teacherResult()}
	store := NewSessionStore(kv, auth, nil)
	_, err := store.Login(context.Background(), "sari.teacher@school.id", "secret")
	require.NoError(t, err)
	persistedUser := kv.data[SessionUserKey]

	auth.result = &models.AuthResult{
		Token: "jwt-other",
		User:  models.User{ID: "9", Name: "Rina", Email: "rina.parent@school.id", Role: models.RoleParent},
	}
	kv.failSet = errors.New("disk full")
	kv.failKey = SessionUserKey
	_, err = store.Login(context.Background(), "rina.parent@school.id", "secret")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInternal.Code))

	assert.Equal(t, models.UserID("7"), store.CurrentUser().ID)
	assert.Equal(t, "jwt-abc", kv.data[SessionTokenKey])
	assert.Equal(t, persistedUser, kv.data[SessionUserKey])

	kv.failSet = nil
	restored := NewSessionStore(kv, auth, nil).RestoreSession(context.Background())
	require.NotNil(t, restored)
	assert.Equal(t, models.UserID("7"), restored.ID)
}

func TestSessionLoginPersistFailureLeavesNoToken(t *testing.T) {
	kv := newFakeKV(nil)
	kv.failSet = errors.New("disk full")
	kv.failKey = SessionUserKey
	store := NewSessionStore(kv, &fakeAuth{result: teacherResult()}, nil)

	_, err := store.Login(context.Background(), "sari.teacher@school.id", "secret")
	require.Error(t, err)
	assert.Empty(t, kv.data)
}

func TestRestoreSession(t *testing.T) {
	validUser := `{"id":3,"name":"Andi","email":"andi.student@school.id","role":"student"}`

	cases := []struct {
		name   string
		seed   map[string]string
		wantID models.UserID
	}{
		{name: "valid", seed: map[string]string{SessionTokenKey: "jwt", SessionUserKey: validUser}, wantID: "3"},
		{name: "empty store", seed: nil},
		{name: "token only", seed: map[string]string{SessionTokenKey: "jwt"}},
		{name: "user only", seed: map[string]string{SessionUserKey: validUser}},
		{name: "local token", seed: map[string]string{SessionTokenKey: "local_1699", SessionUserKey: validUser}},
		{name: "corrupt json", seed: map[string]string{SessionTokenKey: "jwt", SessionUserKey: "{not json"}},
		{name: "unknown role", seed: map[string]string{SessionTokenKey: "jwt", SessionUserKey: `{"id":1,"role":"janitor"}`}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewSessionStore(newFakeKV(tc.seed), &fakeAuth{}, nil)
			user := store.RestoreSession(context.Background())
			if tc.wantID == "" {
				assert.Nil(t, user)
				assert.Nil(t, store.CurrentUser())
				return
			}
			require.NotNil(t, user)
			assert.Equal(t, tc.wantID, user.ID)
			assert.Equal(t, models.RoleStudent, store.CurrentUser().Role)
		})
	}
}

func TestLogoutSweepsSessionKeys(t *testing.T) {
	kv := newFakeKV(map[string]string{
		"theme":        "dark",
		"userPrefs":    "x",
		"authState":    "x",
		"lastSession":  "x",
		"USER_CACHE":   "x",
		"fontSize":     "large",
		"superuserTip": "x",
	})
	store := NewSessionStore(kv, &fakeAuth{result: teacherResult()}, nil)
	_, err := store.Login(context.Background(), "a@b.c", "x")
	require.NoError(t, err)

	require.NoError(t, store.Logout(context.Background()))
	assert.Nil(t, store.CurrentUser())

	keys, _ := kv.Keys(context.Background())
	assert.Equal(t, []string{"USER_CACHE", "fontSize", "theme"}, keys)
}

func TestLegacyKeySweepPolicy(t *testing.T) {
	assert.True(t, DefaultLegacyKeySweep.Matches("currentUser"))
	assert.True(t, DefaultLegacyKeySweep.Matches("oauth_state"))
	assert.False(t, DefaultLegacyKeySweep.Matches("Session"))
	assert.False(t, LegacyKeySweep{}.Matches("user"))

	kv := newFakeKV(map[string]string{"userPrefs": "x"})
	store := NewSessionStore(kv, &fakeAuth{}, nil, WithKeySweep(LegacyKeySweep{}))
	require.NoError(t, store.Logout(context.Background()))
	assert.Contains(t, kv.data, "userPrefs")
}
