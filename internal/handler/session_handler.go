package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
	"github.com/noah-isme/sma-dashboard-shell/pkg/response"
)

// SessionHandler exposes sign-in, sign-up and sign-out for the device.
type SessionHandler struct{}

// NewSessionHandler creates a new handler.
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Login godoc
// @Summary Sign in
// @Description Verify credentials against the backend and start a session on this device
// @Tags Session
// @Accept json
// @Produce json
// @Param X-Device-Token header string false "Device token"
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /session/login [post]
func (h *SessionHandler) Login(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid login payload"))
		return
	}

	state, err := shell.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, state)
}

// Register godoc
// @Summary Create an account
// @Description The role is taken from the email suffix (.admin@, .teacher@, .parent@, .student@)
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /session/register [post]
func (h *SessionHandler) Register(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid registration payload"))
		return
	}

	res, err := shell.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, res)
}

// Logout godoc
// @Summary Sign out
// @Description Clear the session and any session-like persisted keys of this device
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session/logout [post]
func (h *SessionHandler) Logout(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	response.OK(c, shell.Logout(c.Request.Context()))
}

// Current godoc
// @Summary Current session
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Current(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	user := shell.CurrentUser()
	response.OK(c, gin.H{"authenticated": user != nil, "user": user})
}
