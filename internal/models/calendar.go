package models

// CalendarDateLayout is the ISO date key used by the event map.
const CalendarDateLayout = "2006-01-02"

// CalendarEvent is read-only reference data displayed by the calendar widget.
type CalendarEvent struct {
	Date  string `db:"event_date" json:"date"`
	Title string `db:"title" json:"title"`
	Time  string `db:"event_time" json:"time"`
	Type  string `db:"event_type" json:"type"`
	Color string `db:"color" json:"color"`
}

// CalendarDay is one cell of the month grid.
type CalendarDay struct {
	Date      string `json:"date"`
	Day       int    `json:"day"`
	InMonth   bool   `json:"in_month"`
	IsToday   bool   `json:"is_today"`
	Selected  bool   `json:"selected"`
	HasEvents bool   `json:"has_events"`
}

// CalendarView is the widget state plus the list it currently shows.
type CalendarView struct {
	Month        string          `json:"month"`
	SelectedDate string          `json:"selected_date,omitempty"`
	Days         []CalendarDay   `json:"days"`
	Events       []CalendarEvent `json:"events"`
	Mode         string          `json:"mode"`
}

// Calendar list modes.
const (
	CalendarModeUpcoming = "upcoming"
	CalendarModeSelected = "selected"
)
