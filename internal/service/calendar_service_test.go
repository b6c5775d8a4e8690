package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
)

var calendarToday = time.Date(2024, time.September, 27, 10, 0, 0, 0, time.UTC)

func newSeedCatalog(t *testing.T) *CalendarCatalog {
	t.Helper()
	catalog, err := NewCalendarCatalog(SeedCalendarEvents())
	require.NoError(t, err)
	return catalog
}

func TestUpcomingFromTodayCappedAtEight(t *testing.T) {
	catalog := newSeedCatalog(t)

	events := catalog.Upcoming(calendarToday, DefaultUpcomingLimit)
	require.Len(t, events, 8)
	assert.Equal(t, "2024-09-27", events[0].Date)
	assert.Equal(t, "2024-10-28", events[7].Date)
	for i := 1; i < len(events); i++ {
		assert.LessOrEqual(t, events[i-1].Date, events[i].Date)
	}
	assert.Equal(t, "Parent-Teacher Meeting", events[3].Title)
	assert.Equal(t, "Library Book Drive", events[4].Title)
}

func TestUpcomingExcludesPast(t *testing.T) {
	catalog := newSeedCatalog(t)
	events := catalog.Upcoming(time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC), 8)
	require.Len(t, events, 1)
	assert.Equal(t, "Final Exams Begin", events[0].Title)

	assert.Empty(t, catalog.Upcoming(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), 8))
}

func TestCatalogRejectsBadDates(t *testing.T) {
	_, err := NewCalendarCatalog([]models.CalendarEvent{{Date: "27/09/2024", Title: "x"}})
	assert.Error(t, err)
}

func TestCalendarStateSelection(t *testing.T) {
	state := NewCalendarState(newSeedCatalog(t), 0, calendarToday)

	require.NoError(t, state.SelectDate("2024-10-05"))
	events, mode := state.Events(calendarToday)
	assert.Equal(t, models.CalendarModeSelected, mode)
	assert.Len(t, events, 2)

	require.NoError(t, state.SelectDate("2024-10-06"))
	events, _ = state.Events(calendarToday)
	assert.Empty(t, events)

	assert.Error(t, state.SelectDate("tomorrow"))
	assert.Equal(t, "2024-10-06", state.Selected())

	state.ClearDate()
	events, mode = state.Events(calendarToday)
	assert.Equal(t, models.CalendarModeUpcoming, mode)
	assert.Len(t, events, 8)
}

func TestCalendarStateShiftMonth(t *testing.T) {
	state := NewCalendarState(newSeedCatalog(t), 8, time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-01", state.Month())

	require.NoError(t, state.ShiftMonth(1))
	assert.Equal(t, "2024-02", state.Month())
	require.NoError(t, state.ShiftMonth(-1))
	require.NoError(t, state.ShiftMonth(-1))
	assert.Equal(t, "2023-12", state.Month())

	assert.Error(t, state.ShiftMonth(2))
	assert.Equal(t, "2023-12", state.Month())
}

func TestCalendarMonthGrid(t *testing.T) {
	state := NewCalendarState(newSeedCatalog(t), 8, calendarToday)
	require.NoError(t, state.SelectDate("2024-09-30"))

	view := state.View(calendarToday)
	assert.Equal(t, "2024-09", view.Month)
	require.Len(t, view.Days, 35)
	assert.Equal(t, "2024-09-01", view.Days[0].Date)
	assert.Equal(t, "2024-10-05", view.Days[34].Date)
	assert.False(t, view.Days[34].InMonth)
	assert.True(t, view.Days[34].HasEvents)

	var today, selected *models.CalendarDay
	for i := range view.Days {
		if view.Days[i].IsToday {
			today = &view.Days[i]
		}
		if view.Days[i].Selected {
			selected = &view.Days[i]
		}
	}
	require.NotNil(t, today)
	assert.Equal(t, 27, today.Day)
	require.NotNil(t, selected)
	assert.Equal(t, "2024-09-30", selected.Date)
}

func TestAgendaTable(t *testing.T) {
	state := NewCalendarState(newSeedCatalog(t), 8, calendarToday)
	require.NoError(t, state.SelectDate("2024-10-05"))

	table := AgendaTable(state.View(calendarToday))
	assert.Equal(t, "Events on 2024-10-05", table.Title)
	assert.Equal(t, []string{"Date", "Time", "Title", "Type"}, table.Columns)
	assert.Equal(t, []string{"2024-10-05", "10:00", "Parent-Teacher Meeting", "meeting"}, table.Rows[0])
}

type stubCalendarSource struct {
	events []models.CalendarEvent
	err    error
	types  []string
}

func (s *stubCalendarSource) List(_ context.Context, types []string) ([]models.CalendarEvent, error) {
	s.types = types
	return s.events, s.err
}

func TestLoadCalendarCatalog(t *testing.T) {
	src := &stubCalendarSource{events: []models.CalendarEvent{{Date: "2024-10-01", Title: "Open Day"}}}
	catalog, err := LoadCalendarCatalog(context.Background(), src, []string{"school"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.Len())
	assert.Equal(t, []string{"school"}, src.types)

	_, err = LoadCalendarCatalog(context.Background(), &stubCalendarSource{err: errors.New("db down")}, nil, nil)
	assert.Error(t, err)
}
