package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-dashboard-shell/internal/service"
	appErrors "github.com/noah-isme/sma-dashboard-shell/pkg/errors"
	"github.com/noah-isme/sma-dashboard-shell/pkg/response"
)

// DeviceTokenHeader carries the device identity in both directions.
const DeviceTokenHeader = "X-Device-Token"

// Context keys set by Device.
const (
	ContextDeviceKey = "deviceID"
	ContextShellKey  = "shell"
)

// Device resolves the caller's device from X-Device-Token, minting a new
// identity when the header is missing or invalid, and attaches the device's
// shell controller to the context.
func Device(tokens *service.DeviceTokens, shells *service.ShellRegistry, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		token := c.GetHeader(DeviceTokenHeader)
		deviceID, err := tokens.Parse(token)
		if err != nil {
			if token != "" {
				logger.Debug("replacing device token", zap.Error(err))
			}
			token, deviceID, err = tokens.Issue()
			if err != nil {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue device token"))
				c.Abort()
				return
			}
		}

		c.Header(DeviceTokenHeader, token)
		c.Set(ContextDeviceKey, deviceID)
		c.Set(ContextShellKey, shells.Get(c.Request.Context(), deviceID))
		c.Next()
	}
}

// ShellFromContext returns the controller attached by Device.
func ShellFromContext(c *gin.Context) *service.ShellController {
	value, ok := c.Get(ContextShellKey)
	if !ok {
		return nil
	}
	shell, _ := value.(*service.ShellController)
	return shell
}

// RequireSession rejects requests whose device is not signed in.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		shell := ShellFromContext(c)
		if shell == nil || shell.CurrentUser() == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "sign in to continue"))
			c.Abort()
			return
		}
		c.Next()
	}
}
