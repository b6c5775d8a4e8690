package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestCalendarRepositoryList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCalendarRepository(db, nil)

	rows := sqlmock.NewRows([]string{"event_date", "title", "event_time", "event_type", "color"}).
		AddRow("2024-10-02", "Science Fair", "09:00", "academic", "blue").
		AddRow("2024-10-05", "Parent Meeting", "", "meeting", "")
	mock.ExpectQuery(`SELECT .* FROM calendar_events ORDER BY event_date ASC`).WillReturnRows(rows)

	events, err := repo.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "2024-10-02", events[0].Date)
	assert.Equal(t, "Science Fair", events[0].Title)
	assert.Equal(t, "meeting", events[1].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarRepositoryListFiltersTypes(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCalendarRepository(db, nil)

	rows := sqlmock.NewRows([]string{"event_date", "title", "event_time", "event_type", "color"}).
		AddRow("2024-11-10", "Midterm Exams", "08:00", "exam", "red")
	mock.ExpectQuery(`FROM calendar_events WHERE event_type = ANY\(\$1\)`).
		WithArgs(pq.Array([]string{"exam"})).
		WillReturnRows(rows)

	events, err := repo.List(context.Background(), []string{"exam"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "exam", events[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type recordingObserver struct{ labels []string }

func (r *recordingObserver) ObserveDBQuery(label string, _ time.Duration) {
	r.labels = append(r.labels, label)
}

func TestCalendarRepositoryListError(t *testing.T) {
	db, mock := newMockDB(t)
	obs := &recordingObserver{}
	repo := NewCalendarRepository(db, obs)

	mock.ExpectQuery(`FROM calendar_events`).WillReturnError(errors.New("relation does not exist"))

	_, err := repo.List(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list calendar events")
	assert.Equal(t, []string{"calendar_events_list"}, obs.labels)
}
