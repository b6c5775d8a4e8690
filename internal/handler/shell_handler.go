package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
	appErrors "github.com/noah-isme/sma-dashboard-shell/pkg/errors"
	"github.com/noah-isme/sma-dashboard-shell/pkg/response"
)

// ShellHandler exposes navigation, view dispatch and UI state.
type ShellHandler struct{}

// NewShellHandler creates a new handler.
func NewShellHandler() *ShellHandler {
	return &ShellHandler{}
}

type setTabRequest struct {
	Tab models.TabID `json:"tab" binding:"required"`
}

type preferencesRequest struct {
	DarkMode *bool            `json:"dark_mode"`
	FontSize *models.FontSize `json:"font_size"`
}

type pointerRequest struct {
	Region models.PointerRegion `json:"region" binding:"required"`
}

// State godoc
// @Summary Shell state
// @Tags Shell
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /shell/state [get]
func (h *ShellHandler) State(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	response.OK(c, shell.Snapshot())
}

// Navigation godoc
// @Summary Sidebar menu for the signed-in role
// @Tags Shell
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /shell/navigation [get]
func (h *ShellHandler) Navigation(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	menu, err := shell.Menu()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, menu)
}

// View godoc
// @Summary View mounted for the active tab
// @Description Unknown pairs return the not-available placeholder with fallback=true
// @Tags Shell
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /shell/view [get]
func (h *ShellHandler) View(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	res, err := shell.CurrentView()
	if err != nil {
		if res.Fallback {
			response.OK(c, res, map[string]interface{}{"error_code": appErrors.FromError(err).Code})
			return
		}
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// SetTab godoc
// @Summary Switch the active tab
// @Tags Shell
// @Accept json
// @Produce json
// @Param payload body setTabRequest true "Tab"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /shell/tab [post]
func (h *ShellHandler) SetTab(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	var req setTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "tab is required"))
		return
	}
	if err := shell.Navigate(req.Tab); err != nil {
		response.Error(c, err)
		return
	}
	res, err := shell.CurrentView()
	if err != nil && !res.Fallback {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"state": shell.Snapshot(), "view": res})
}

// SetPreferences godoc
// @Summary Update display preferences
// @Tags Shell
// @Accept json
// @Produce json
// @Param payload body preferencesRequest true "Preferences"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /shell/preferences [put]
func (h *ShellHandler) SetPreferences(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid preferences payload"))
		return
	}
	state, err := shell.SetPreferences(req.DarkMode, req.FontSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, state)
}

// ToggleDarkMode godoc
// @Summary Toggle dark mode
// @Tags Shell
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /shell/preferences/dark-mode/toggle [post]
func (h *ShellHandler) ToggleDarkMode(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	response.OK(c, shell.ToggleDarkMode())
}

// Notifications godoc
// @Summary Notification feed
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /shell/notifications [get]
func (h *ShellHandler) Notifications(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	response.OK(c, shell.Notifications())
}

// OpenNotifications godoc
// @Summary Open the notification dropdown
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /shell/notifications/open [post]
func (h *ShellHandler) OpenNotifications(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	response.OK(c, shell.OpenNotifications())
}

// Pointer godoc
// @Summary Report a global pointer-down
// @Description region is notification-dropdown for clicks inside the dropdown, anything else closes it
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body pointerRequest true "Pointer event"
// @Success 200 {object} response.Envelope
// @Router /shell/notifications/pointer [post]
func (h *ShellHandler) Pointer(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "region is required"))
		return
	}
	response.OK(c, shell.PointerDown(req.Region))
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /shell/notifications/{id}/read [post]
func (h *ShellHandler) MarkRead(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	if err := shell.MarkNotificationRead(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, shell.Notifications())
}

// MarkAllRead godoc
// @Summary Mark every notification as read
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /shell/notifications/read-all [post]
func (h *ShellHandler) MarkAllRead(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	changed := shell.MarkAllRead()
	response.OK(c, shell.Notifications(), map[string]interface{}{"marked": changed})
}
