package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-dashboard-shell/internal/middleware"
	"github.com/noah-isme/sma-dashboard-shell/internal/models"
	"github.com/noah-isme/sma-dashboard-shell/internal/repository"
	"github.com/noah-isme/sma-dashboard-shell/internal/service"
	appErrors "github.com/noah-isme/sma-dashboard-shell/pkg/errors"
)

var testToday = time.Date(2024, time.September, 27, 9, 0, 0, 0, time.UTC)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type stubAccounts struct {
	registered []models.RegisterRequest
}

func (s *stubAccounts) Login(_ context.Context, email, password string) (*models.AuthResult, error) {
	if email == "dewi.student@school.id" && password == "secret" {
		return &models.AuthResult{Token: "jwt-student", User: models.User{ID: "3", Name: "Dewi", Email: email, Role: models.RoleStudent}}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrAuth, "Invalid credentials")
}

func (s *stubAccounts) Register(_ context.Context, req models.RegisterRequest) (*models.RegisterResult, error) {
	s.registered = append(s.registered, req)
	role, _ := service.InferRole(req.Email)
	return &models.RegisterResult{Email: req.Email, Role: role, Message: "Registration successful"}, nil
}

func newTestShell(t *testing.T) (*service.ShellController, *stubAccounts) {
	t.Helper()
	nav, err := service.NewNavigationRegistry(service.AllFeatures())
	require.NoError(t, err)
	dispatch, err := service.NewDispatchTable(service.AllFeatures(), nil)
	require.NoError(t, err)
	catalog, err := service.NewCalendarCatalog(service.SeedCalendarEvents())
	require.NoError(t, err)
	accounts := &stubAccounts{}
	deps := service.ShellDeps{
		Navigation: nav,
		Dispatch:   dispatch,
		Calendar:   catalog,
		Accounts:   accounts,
		Now:        func() time.Time { return testToday },
	}
	return service.NewShellController(deps, repository.NewMemoryKVStore()), accounts
}

func signedInShell(t *testing.T) *service.ShellController {
	t.Helper()
	shell, _ := newTestShell(t)
	_, err := shell.Login(context.Background(), "dewi.student@school.id", "secret")
	require.NoError(t, err)
	return shell
}

func newShellContext(method, target string, body string, shell *service.ShellController) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	if shell != nil {
		c.Set(middleware.ContextShellKey, shell)
	}
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}
