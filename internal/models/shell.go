package models

// ShellState is an immutable snapshot of one device's shell.
type ShellState struct {
	User          *User          `json:"user"`
	Authenticated bool           `json:"authenticated"`
	ActiveTab     TabID          `json:"active_tab"`
	Preferences   UIPreferences  `json:"preferences"`
	Root          RootStyle      `json:"root"`
	Notifications []Notification `json:"notifications"`
	Unread        int            `json:"unread"`
	DropdownOpen  bool           `json:"dropdown_open"`
	CalendarMonth string         `json:"calendar_month"`
	SelectedDate  string         `json:"selected_date,omitempty"`
}
