package models

import "time"

// NotificationPriority orders notifications in the dropdown.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
)

// Notification is an in-shell alert; it never round-trips to the backend.
type Notification struct {
	ID        string               `json:"id"`
	Message   string               `json:"message"`
	Priority  NotificationPriority `json:"priority"`
	Read      bool                 `json:"read"`
	CreatedAt time.Time            `json:"created_at"`
}

// NotificationFeed is the dropdown payload.
type NotificationFeed struct {
	Items        []Notification `json:"items"`
	Unread       int            `json:"unread"`
	DropdownOpen bool           `json:"dropdown_open"`
}

// Valid reports whether p is a known priority.
func (p NotificationPriority) Valid() bool {
	switch p {
	case NotificationPriorityLow, NotificationPriorityNormal, NotificationPriorityHigh:
		return true
	default:
		return false
	}
}

// PointerRegion identifies where a pointer-down landed.
type PointerRegion string

const (
	// RegionNotificationDropdown is the dropdown subtree, bell included.
	RegionNotificationDropdown PointerRegion = "notification-dropdown"
	RegionOutside              PointerRegion = "outside"
)
