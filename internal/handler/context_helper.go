package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-dashboard-shell/internal/middleware"
	"github.com/noah-isme/sma-dashboard-shell/internal/service"
	appErrors "github.com/noah-isme/sma-dashboard-shell/pkg/errors"
	"github.com/noah-isme/sma-dashboard-shell/pkg/response"
)

// shellFromContext returns the device's controller or writes an error.
func shellFromContext(c *gin.Context) (*service.ShellController, bool) {
	shell := middleware.ShellFromContext(c)
	if shell == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "device shell missing"))
		return nil, false
	}
	return shell, true
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
