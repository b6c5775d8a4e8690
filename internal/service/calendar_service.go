package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
	appErrors "github.com/noah-isme/sma-dashboard-shell/pkg/errors"
	"github.com/noah-isme/sma-dashboard-shell/pkg/export"
)

// DefaultUpcomingLimit caps the upcoming list when no date is selected.
const DefaultUpcomingLimit = 8

var seedEvents = []models.CalendarEvent{
	{Date: "2024-09-16", Title: "Start of Term Assembly", Time: "07:30", Type: "school", Color: "indigo"},
	{Date: "2024-09-27", Title: "Grade 11 Field Trip", Time: "08:00", Type: "activity", Color: "green"},
	{Date: "2024-09-30", Title: "Teacher Workshop", Time: "13:00", Type: "staff", Color: "purple"},
	{Date: "2024-10-02", Title: "Science Fair", Time: "09:00", Type: "academic", Color: "blue"},
	{Date: "2024-10-05", Title: "Parent-Teacher Meeting", Time: "10:00", Type: "meeting", Color: "orange"},
	{Date: "2024-10-05", Title: "Library Book Drive", Time: "14:00", Type: "activity", Color: "green"},
	{Date: "2024-10-14", Title: "Midterm Exams Begin", Time: "07:30", Type: "exam", Color: "red"},
	{Date: "2024-10-18", Title: "Midterm Exams End", Time: "12:00", Type: "exam", Color: "red"},
	{Date: "2024-10-28", Title: "Youth Pledge Day Ceremony", Time: "07:00", Type: "holiday", Color: "yellow"},
	{Date: "2024-11-08", Title: "Inter-School Sports Meet", Time: "08:00", Type: "sports", Color: "teal"},
	{Date: "2024-11-25", Title: "Teachers' Day", Time: "", Type: "holiday", Color: "yellow"},
	{Date: "2024-12-16", Title: "Final Exams Begin", Time: "07:30", Type: "exam", Color: "red"},
}

// SeedCalendarEvents returns the built-in reference events.
func SeedCalendarEvents() []models.CalendarEvent {
	out := make([]models.CalendarEvent, len(seedEvents))
	copy(out, seedEvents)
	return out
}

type calendarSource interface {
	List(ctx context.Context, types []string) ([]models.CalendarEvent, error)
}

// CalendarCatalog is the read-only date to events map.
type CalendarCatalog struct {
	byDate map[string][]models.CalendarEvent
	dates  []string
}

// NewCalendarCatalog indexes events by date. Events with unparseable dates
// are rejected.
func NewCalendarCatalog(events []models.CalendarEvent) (*CalendarCatalog, error) {
	c := &CalendarCatalog{byDate: make(map[string][]models.CalendarEvent)}
	for _, ev := range events {
		if _, err := time.Parse(models.CalendarDateLayout, ev.Date); err != nil {
			return nil, fmt.Errorf("calendar event %q has invalid date %q", ev.Title, ev.Date)
		}
		if _, ok := c.byDate[ev.Date]; !ok {
			c.dates = append(c.dates, ev.Date)
		}
		c.byDate[ev.Date] = append(c.byDate[ev.Date], ev)
	}
	sort.Strings(c.dates)
	return c, nil
}

// LoadCalendarCatalog reads the catalog once from source.
func LoadCalendarCatalog(ctx context.Context, source calendarSource, types []string, logger *zap.Logger) (*CalendarCatalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	events, err := source.List(ctx, types)
	if err != nil {
		return nil, err
	}
	logger.Info("calendar catalog loaded", zap.Int("events", len(events)))
	return NewCalendarCatalog(events)
}

// On returns the events of one date.
func (c *CalendarCatalog) On(date string) []models.CalendarEvent {
	events := c.byDate[date]
	out := make([]models.CalendarEvent, len(events))
	copy(out, events)
	return out
}

// Has reports whether a date carries events.
func (c *CalendarCatalog) Has(date string) bool {
	return len(c.byDate[date]) > 0
}

// Upcoming returns events dated on or after today, earliest first, capped at
// limit. Events sharing a date keep their catalog order.
func (c *CalendarCatalog) Upcoming(today time.Time, limit int) []models.CalendarEvent {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	from := today.Format(models.CalendarDateLayout)
	start := sort.SearchStrings(c.dates, from)

	out := make([]models.CalendarEvent, 0, limit)
	for _, date := range c.dates[start:] {
		for _, ev := range c.byDate[date] {
			if len(out) == limit {
				return out
			}
			out = append(out, ev)
		}
	}
	return out
}

// Len counts all events.
func (c *CalendarCatalog) Len() int {
	n := 0
	for _, events := range c.byDate {
		n += len(events)
	}
	return n
}

// CalendarState is the widget cursor of one device: visible month and an
// optional selected date.
type CalendarState struct {
	catalog  *CalendarCatalog
	limit    int
	month    time.Time
	selected string
}

// NewCalendarState opens on the month containing today.
func NewCalendarState(catalog *CalendarCatalog, limit int, today time.Time) *CalendarState {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	return &CalendarState{catalog: catalog, limit: limit, month: firstOfMonth(today)}
}

// Month returns the visible month as YYYY-MM.
func (s *CalendarState) Month() string {
	return s.month.Format("2006-01")
}

// Selected returns the selected date or "".
func (s *CalendarState) Selected() string {
	return s.selected
}

// ShiftMonth moves the visible month by one in either direction.
func (s *CalendarState) ShiftMonth(delta int) error {
	if delta != 1 && delta != -1 {
		return appErrors.Clone(appErrors.ErrValidation, "month can only move by -1 or 1")
	}
	s.month = s.month.AddDate(0, delta, 0)
	return nil
}

// SelectDate filters the list to one date.
func (s *CalendarState) SelectDate(date string) error {
	parsed, err := time.Parse(models.CalendarDateLayout, date)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date must be YYYY-MM-DD, got %q", date))
	}
	s.selected = parsed.Format(models.CalendarDateLayout)
	return nil
}

// ClearDate returns to the upcoming list.
func (s *CalendarState) ClearDate() {
	s.selected = ""
}

// Events is the list currently shown and its mode.
func (s *CalendarState) Events(today time.Time) ([]models.CalendarEvent, string) {
	if s.selected != "" {
		return s.catalog.On(s.selected), models.CalendarModeSelected
	}
	return s.catalog.Upcoming(today, s.limit), models.CalendarModeUpcoming
}

// View renders the month grid and the visible list.
func (s *CalendarState) View(today time.Time) models.CalendarView {
	events, mode := s.Events(today)
	return models.CalendarView{
		Month:        s.Month(),
		SelectedDate: s.selected,
		Days:         s.grid(today),
		Events:       events,
		Mode:         mode,
	}
}

// grid covers whole weeks, Sunday first, around the visible month.
func (s *CalendarState) grid(today time.Time) []models.CalendarDay {
	first := s.month
	last := first.AddDate(0, 1, -1)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, 6-int(last.Weekday()))
	todayKey := today.Format(models.CalendarDateLayout)

	days := make([]models.CalendarDay, 0, 42)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(models.CalendarDateLayout)
		days = append(days, models.CalendarDay{
			Date:      key,
			Day:       d.Day(),
			InMonth:   d.Month() == first.Month(),
			IsToday:   key == todayKey,
			Selected:  key == s.selected,
			HasEvents: s.catalog.Has(key),
		})
	}
	return days
}

// AgendaTable formats a list for export.
func AgendaTable(view models.CalendarView) export.Table {
	title := "Upcoming events"
	if view.Mode == models.CalendarModeSelected {
		title = "Events on " + view.SelectedDate
	}
	rows := make([][]string, 0, len(view.Events))
	for _, ev := range view.Events {
		rows = append(rows, []string{ev.Date, ev.Time, ev.Title, ev.Type})
	}
	return export.Table{
		Title:    title,
		Subtitle: "Calendar month " + view.Month,
		Columns:  []string{"Date", "Time", "Title", "Type"},
		Rows:     rows,
	}
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
