package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-dashboard-shell/internal/service"
	appErrors "github.com/noah-isme/sma-dashboard-shell/pkg/errors"
	"github.com/noah-isme/sma-dashboard-shell/pkg/export"
	"github.com/noah-isme/sma-dashboard-shell/pkg/response"
)

// CalendarHandler exposes the calendar widget of the device.
type CalendarHandler struct{}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler() *CalendarHandler {
	return &CalendarHandler{}
}

type shiftMonthRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type selectDateRequest struct {
	Date string `json:"date" binding:"required"`
}

// Get godoc
// @Summary Calendar view
// @Description Month grid plus the selected date's events, or the next 8 upcoming events
// @Tags Calendar
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /shell/calendar [get]
func (h *CalendarHandler) Get(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	response.OK(c, shell.Calendar())
}

// ShiftMonth godoc
// @Summary Move the visible month
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body shiftMonthRequest true "delta is -1 or 1"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /shell/calendar/month [post]
func (h *CalendarHandler) ShiftMonth(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	var req shiftMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "delta is required"))
		return
	}
	view, err := shell.ShiftMonth(req.Delta)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Select godoc
// @Summary Select a date
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body selectDateRequest true "date as YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /shell/calendar/select [post]
func (h *CalendarHandler) Select(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	var req selectDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "date is required"))
		return
	}
	view, err := shell.SelectDate(req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// ClearSelection godoc
// @Summary Clear the selected date
// @Tags Calendar
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /shell/calendar/select [delete]
func (h *CalendarHandler) ClearSelection(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	response.OK(c, shell.ClearDate())
}

// Export godoc
// @Summary Download the visible agenda
// @Tags Calendar
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /shell/calendar/export [get]
func (h *CalendarHandler) Export(c *gin.Context) {
	shell, ok := shellFromContext(c)
	if !ok {
		return
	}
	renderer, err := export.ForFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	view := shell.Calendar()
	body, err := renderer.Render(service.AgendaTable(view))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render agenda"))
		return
	}
	filename := fmt.Sprintf("agenda-%s.%s", view.Month, renderer.Extension())
	response.Attachment(c, filename, renderer.ContentType(), body)
}
