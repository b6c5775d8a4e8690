package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
)

type queryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// CalendarRepository reads calendar reference data from Postgres.
type CalendarRepository struct {
	db      *sqlx.DB
	metrics queryObserver
}

// NewCalendarRepository constructs a calendar repository. metrics may be nil.
func NewCalendarRepository(db *sqlx.DB, metrics queryObserver) *CalendarRepository {
	return &CalendarRepository{db: db, metrics: metrics}
}

// List returns every event ordered by date then time. A non-empty types list
// restricts the rows to those event types.
func (r *CalendarRepository) List(ctx context.Context, types []string) ([]models.CalendarEvent, error) {
	query := `SELECT to_char(event_date, 'YYYY-MM-DD') AS event_date, title, COALESCE(event_time, '') AS event_time, event_type, COALESCE(color, '') AS color
FROM calendar_events`
	args := []interface{}{}
	if len(types) > 0 {
		query += " WHERE event_type = ANY($1)"
		args = append(args, pq.Array(types))
	}
	query += " ORDER BY event_date ASC, id ASC"

	start := time.Now()
	var events []models.CalendarEvent
	err := r.db.SelectContext(ctx, &events, query, args...)
	if r.metrics != nil {
		r.metrics.ObserveDBQuery("calendar_events_list", time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	return events, nil
}
