package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
	appErrors "github.com/noah-isme/sma-dashboard-shell/pkg/errors"
	"github.com/noah-isme/sma-dashboard-shell/pkg/httpclient"
)

const (
	registerFailedMessage  = "Registration failed. Please try again."
	registerSuccessMessage = "Registration successful. Please sign in."
	unknownSuffixMessage   = "Please use your school email (name.admin@, name.teacher@, name.parent@ or name.student@)."
)

var roleSuffixes = []struct {
	marker string
	role   models.UserRole
}{
	{".admin@", models.RoleAdmin},
	{".teacher@", models.RoleTeacher},
	{".parent@", models.RoleParent},
	{".student@", models.RoleStudent},
}

type backendFetcher interface {
	JSON(ctx context.Context, method, url string, payload interface{}) (*httpclient.Response, error)
}

// ResolveAPIBase returns {explicit}/api when an external backend is
// configured and {proxyOrigin}/api otherwise.
func ResolveAPIBase(explicitURL, proxyOrigin string) string {
	if base := strings.TrimRight(strings.TrimSpace(explicitURL), "/"); base != "" {
		return base + "/api"
	}
	return strings.TrimRight(strings.TrimSpace(proxyOrigin), "/") + "/api"
}

// InferRole derives the registration role from the address suffix before
// the domain part.
func InferRole(email string) (models.UserRole, bool) {
	lowered := strings.ToLower(strings.TrimSpace(email))
	for _, s := range roleSuffixes {
		if strings.Contains(lowered, s.marker) {
			return s.role, true
		}
	}
	return "", false
}

// AuthClient talks to the backend auth and health endpoints.
type AuthClient struct {
	fetcher   backendFetcher
	base      string
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	now       func() time.Time
}

// NewAuthClient constructs an AuthClient against the resolved API base.
func NewAuthClient(fetcher backendFetcher, base string, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *AuthClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthClient{
		fetcher:   fetcher,
		base:      strings.TrimRight(base, "/"),
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Base returns the API base every call is made against.
func (c *AuthClient) Base() string {
	return c.base
}

// Login posts the credentials and returns the issued token and user.
func (c *AuthClient) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	req := models.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := c.validator.Struct(req); err != nil {
		c.metrics.RecordLogin(LoginOutcomeRejected)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	resp, err := c.fetcher.JSON(ctx, http.MethodPost, c.base+"/auth/login", req)
	if err != nil {
		c.metrics.RecordLogin(LoginOutcomeError)
		c.logger.Warn("login request failed", zap.Error(err))
		return nil, err
	}

	var body models.AuthAPIResponse
	decodeErr := resp.DecodeJSON(&body)
	if !resp.OK() {
		c.metrics.RecordLogin(LoginOutcomeRejected)
		c.logger.Info("login rejected", zap.Int("status", resp.StatusCode))
		return nil, appErrors.Clone(appErrors.ErrAuth, body.Msg)
	}
	if decodeErr != nil || body.AccessToken == "" || body.User == nil {
		c.metrics.RecordLogin(LoginOutcomeError)
		return nil, appErrors.Clone(appErrors.ErrAuth, "")
	}

	role, ok := models.ParseRole(string(body.User.Role))
	if !ok {
		c.metrics.RecordLogin(LoginOutcomeRejected)
		return nil, unknownRole(body.User.Role)
	}

	user := *body.User
	user.Role = role
	c.metrics.RecordLogin(LoginOutcomeSuccess)
	return &models.AuthResult{Token: body.AccessToken, User: user}, nil
}

// Register creates an account. The role comes from the email suffix and an
// address without a recognised suffix is refused before any request.
func (c *AuthClient) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := c.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	role, ok := InferRole(req.Email)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrAuth, unknownSuffixMessage)
	}

	payload := struct {
		Name     string          `json:"name"`
		Email    string          `json:"email"`
		Password string          `json:"password"`
		Role     models.UserRole `json:"role"`
	}{req.Name, req.Email, req.Password, role}

	resp, err := c.fetcher.JSON(ctx, http.MethodPost, c.base+"/auth/register", payload)
	if err != nil {
		c.logger.Warn("register request failed", zap.Error(err))
		return nil, err
	}

	var body models.AuthAPIResponse
	_ = resp.DecodeJSON(&body)
	if !resp.OK() {
		msg := body.Msg
		if msg == "" {
			msg = registerFailedMessage
		}
		return nil, appErrors.Clone(appErrors.ErrAuth, msg)
	}

	msg := body.Msg
	if msg == "" {
		msg = registerSuccessMessage
	}
	c.logger.Info("account registered", zap.String("role", string(role)))
	return &models.RegisterResult{Email: req.Email, Role: role, Message: msg}, nil
}

// Health probes the backend health endpoint.
func (c *AuthClient) Health(ctx context.Context) models.HealthStatus {
	status := models.HealthStatus{CheckedAt: c.now().UTC().Format(time.RFC3339)}

	resp, err := c.fetcher.JSON(ctx, http.MethodGet, c.base+"/health", nil)
	switch {
	case err != nil:
		status.Error = appErrors.FromError(err).Code
	case !resp.OK():
		status.Error = http.StatusText(resp.StatusCode)
	default:
		status.Reachable = true
	}

	c.metrics.SetUpstreamReachable(status.Reachable)
	return status
}
