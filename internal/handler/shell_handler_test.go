package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
)

func TestShellHandlerRequiresSession(t *testing.T) {
	shell, _ := newTestShell(t)
	handler := NewShellHandler()

	c, w := newShellContext(http.MethodGet, "/shell/view", "", shell)
	handler.View(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newShellContext(http.MethodGet, "/shell/navigation", "", shell)
	handler.Navigation(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestShellHandlerNavigation(t *testing.T) {
	shell := signedInShell(t)
	c, w := newShellContext(http.MethodGet, "/shell/navigation", "", shell)
	NewShellHandler().Navigation(c)
	require.Equal(t, http.StatusOK, w.Code)

	var sections []models.MenuSection
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &sections))
	require.NotEmpty(t, sections)
	assert.NotContains(t, w.Body.String(), `"payroll"`)
}

func TestShellHandlerSetTab(t *testing.T) {
	shell := signedInShell(t)
	handler := NewShellHandler()

	c, w := newShellContext(http.MethodPost, "/shell/tab", `{"tab":"grades"}`, shell)
	handler.SetTab(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		State models.ShellState `json:"state"`
		View  models.Resolution `json:"view"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &body))
	assert.Equal(t, models.TabGrades, body.State.ActiveTab)
	assert.Equal(t, models.ViewGrades, body.View.View)
	assert.False(t, body.View.Fallback)

	c, w = newShellContext(http.MethodGet, "/shell/view", "", shell)
	handler.View(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"view":"grades"`)
}

func TestShellHandlerSetTabForbidden(t *testing.T) {
	shell := signedInShell(t)
	handler := NewShellHandler()

	c, w := newShellContext(http.MethodPost, "/shell/tab", `{"tab":"payroll"}`, shell)
	handler.SetTab(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, models.TabDashboard, shell.Snapshot().ActiveTab)

	c, w = newShellContext(http.MethodPost, "/shell/tab", `{}`, shell)
	handler.SetTab(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShellHandlerPreferences(t *testing.T) {
	shell, _ := newTestShell(t)
	handler := NewShellHandler()

	c, w := newShellContext(http.MethodPut, "/shell/preferences", `{"dark_mode":true,"font_size":"small"}`, shell)
	handler.SetPreferences(c)
	require.Equal(t, http.StatusOK, w.Code)

	var state models.ShellState
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &state))
	assert.Equal(t, models.RootStyle{ThemeClass: models.ThemeDark, FontSize: "14px"}, state.Root)

	c, w = newShellContext(http.MethodPut, "/shell/preferences", `{"font_size":"huge"}`, shell)
	handler.SetPreferences(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newShellContext(http.MethodPost, "/shell/preferences/dark-mode/toggle", "", shell)
	handler.ToggleDarkMode(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, shell.Snapshot().Preferences.DarkMode)
}

func TestShellHandlerNotificationFlow(t *testing.T) {
	shell := signedInShell(t)
	handler := NewShellHandler()
	first, err := shell.Notify("Exam timetable published", models.NotificationPriorityNormal)
	require.NoError(t, err)
	_, err = shell.Notify("Fee reminder", models.NotificationPriorityHigh)
	require.NoError(t, err)

	c, w := newShellContext(http.MethodPost, "/shell/notifications/open", "", shell)
	handler.OpenNotifications(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, shell.Snapshot().DropdownOpen)

	c, w = newShellContext(http.MethodPost, "/shell/notifications/pointer", `{"region":"notification-dropdown"}`, shell)
	handler.Pointer(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, shell.Snapshot().DropdownOpen)

	c, w = newShellContext(http.MethodPost, "/shell/notifications/pointer", `{"region":"main"}`, shell)
	handler.Pointer(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, shell.Snapshot().DropdownOpen)

	c, w = newShellContext(http.MethodPost, "/shell/notifications/"+first.ID+"/read", "", shell)
	c.Params = gin.Params{{Key: "id", Value: first.ID}}
	handler.MarkRead(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, shell.Notifications().Unread)

	c, w = newShellContext(http.MethodPost, "/shell/notifications/missing/read", "", shell)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.MarkRead(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = newShellContext(http.MethodPost, "/shell/notifications/read-all", "", shell)
	handler.MarkAllRead(c)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.EqualValues(t, 1, env.Meta["marked"])
	assert.Zero(t, shell.Notifications().Unread)
}
