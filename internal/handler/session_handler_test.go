package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
)

func TestSessionHandlerLogin(t *testing.T) {
	shell, _ := newTestShell(t)
	handler := NewSessionHandler()

	c, w := newShellContext(http.MethodPost, "/session/login", `{"email":"dewi.student@school.id","password":"secret"}`, shell)
	handler.Login(c)
	require.Equal(t, http.StatusOK, w.Code)

	var state models.ShellState
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &state))
	assert.True(t, state.Authenticated)
	assert.Equal(t, models.RoleStudent, state.User.Role)
	assert.Equal(t, models.TabDashboard, state.ActiveTab)
	assert.NotContains(t, w.Body.String(), "jwt-student")
}

func TestSessionHandlerLoginRejected(t *testing.T) {
	shell, _ := newTestShell(t)
	c, w := newShellContext(http.MethodPost, "/session/login", `{"email":"dewi.student@school.id","password":"wrong"}`, shell)
	NewSessionHandler().Login(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Invalid credentials", env.Error.Message)
	assert.Nil(t, shell.CurrentUser())
}

func TestSessionHandlerLoginInvalidBody(t *testing.T) {
	shell, _ := newTestShell(t)
	c, w := newShellContext(http.MethodPost, "/session/login", `{"email":`, shell)
	NewSessionHandler().Login(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, w).Error.Code)
}

func TestSessionHandlerRegister(t *testing.T) {
	shell, accounts := newTestShell(t)
	c, w := newShellContext(http.MethodPost, "/session/register", `{"name":"Ayu","email":"ayu.parent@school.id","password":"secret1"}`, shell)
	NewSessionHandler().Register(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, accounts.registered, 1)
	var res models.RegisterResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &res))
	assert.Equal(t, models.RoleParent, res.Role)
}

func TestSessionHandlerLogoutAndCurrent(t *testing.T) {
	shell := signedInShell(t)
	handler := NewSessionHandler()

	c, w := newShellContext(http.MethodGet, "/session", "", shell)
	handler.Current(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"authenticated":true`)

	c, w = newShellContext(http.MethodPost, "/session/logout", "", shell)
	handler.Logout(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, shell.CurrentUser())
}

func TestSessionHandlerWithoutShell(t *testing.T) {
	c, w := newShellContext(http.MethodGet, "/session", "", nil)
	NewSessionHandler().Current(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
