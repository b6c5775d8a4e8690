package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-dashboard-shell/internal/models"
	appErrors "github.com/noah-isme/sma-dashboard-shell/pkg/errors"
)

const (
	defaultFontPixels   = "16px"
	maxNotifications    = 50
	dropdownListenerKey = "notification-dropdown"
)

var fontPixels = map[models.FontSize]string{
	models.FontSizeSmall:  "14px",
	models.FontSizeMedium: defaultFontPixels,
	models.FontSizeLarge:  "18px",
}

// FontSizePixels maps a size preference to the root font size. Unknown
// values fall back to 16px.
func FontSizePixels(size models.FontSize) string {
	if px, ok := fontPixels[size]; ok {
		return px
	}
	return defaultFontPixels
}

// ThemeClass is the root class for the dark mode flag.
func ThemeClass(dark bool) string {
	if dark {
		return models.ThemeDark
	}
	return models.ThemeLight
}

// RootStyleFor derives the document root style from preferences.
func RootStyleFor(p models.UIPreferences) models.RootStyle {
	return models.RootStyle{ThemeClass: ThemeClass(p.DarkMode), FontSize: FontSizePixels(p.FontSize)}
}

// PointerHandler receives global pointer-down events.
type PointerHandler func(models.PointerRegion)

// PointerListeners is the global pointer-down listener set.
type PointerListeners struct {
	handlers map[string]PointerHandler
}

// NewPointerListeners returns an empty listener set.
func NewPointerListeners() *PointerListeners {
	return &PointerListeners{handlers: make(map[string]PointerHandler)}
}

// Add registers fn under key, replacing any previous handler.
func (l *PointerListeners) Add(key string, fn PointerHandler) {
	l.handlers[key] = fn
}

// Remove unregisters key.
func (l *PointerListeners) Remove(key string) {
	delete(l.handlers, key)
}

// Len returns the number of registered handlers.
func (l *PointerListeners) Len() int {
	return len(l.handlers)
}

// Fire delivers the event to a snapshot of the handlers so they may
// unregister themselves.
func (l *PointerListeners) Fire(region models.PointerRegion) {
	keys := make([]string, 0, len(l.handlers))
	for k := range l.handlers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if fn, ok := l.handlers[k]; ok {
			fn(region)
		}
	}
}

// UIState holds theme, font size, notifications and the dropdown of one
// device. It is not safe for concurrent use; the shell controller
// serialises access.
type UIState struct {
	prefs         models.UIPreferences
	notifications []models.Notification
	dropdownOpen  bool
	listeners     *PointerListeners

	newID func() string
	now   func() time.Time
}

// NewUIState starts from the default preferences with no notifications.
func NewUIState() *UIState {
	return &UIState{
		prefs:     models.DefaultPreferences(),
		listeners: NewPointerListeners(),
		newID:     func() string { return uuid.NewString() },
		now:       time.Now,
	}
}

// Preferences returns the current display preferences.
func (u *UIState) Preferences() models.UIPreferences {
	return u.prefs
}

// Root returns the derived document root style.
func (u *UIState) Root() models.RootStyle {
	return RootStyleFor(u.prefs)
}

// ToggleDarkMode flips the theme and returns the new flag.
func (u *UIState) ToggleDarkMode() bool {
	u.prefs.DarkMode = !u.prefs.DarkMode
	return u.prefs.DarkMode
}

// SetDarkMode sets the theme explicitly.
func (u *UIState) SetDarkMode(dark bool) {
	u.prefs.DarkMode = dark
}

// SetFontSize accepts only the three known sizes.
func (u *UIState) SetFontSize(size models.FontSize) error {
	if !size.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("font size must be small, medium or large, got %q", size))
	}
	u.prefs.FontSize = size
	return nil
}

// Push prepends a notification, trimming the oldest beyond the cap.
func (u *UIState) Push(message string, priority models.NotificationPriority) (models.Notification, error) {
	if message == "" {
		return models.Notification{}, appErrors.Clone(appErrors.ErrValidation, "notification message is required")
	}
	if priority == "" {
		priority = models.NotificationPriorityNormal
	}
	if !priority.Valid() {
		return models.Notification{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown priority %q", priority))
	}

	n := models.Notification{ID: u.newID(), Message: message, Priority: priority, CreatedAt: u.now().UTC()}
	u.notifications = append([]models.Notification{n}, u.notifications...)
	if len(u.notifications) > maxNotifications {
		u.notifications = u.notifications[:maxNotifications]
	}
	return n, nil
}

// Notifications returns the list newest first.
func (u *UIState) Notifications() []models.Notification {
	out := make([]models.Notification, len(u.notifications))
	copy(out, u.notifications)
	return out
}

// Unread counts unread notifications.
func (u *UIState) Unread() int {
	count := 0
	for _, n := range u.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkRead marks one notification as read.
func (u *UIState) MarkRead(id string) error {
	for i := range u.notifications {
		if u.notifications[i].ID == id {
			u.notifications[i].Read = true
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
}

// MarkAllRead marks every notification as read and returns how many changed.
func (u *UIState) MarkAllRead() int {
	changed := 0
	for i := range u.notifications {
		if !u.notifications[i].Read {
			u.notifications[i].Read = true
			changed++
		}
	}
	return changed
}

// Feed returns the dropdown payload.
func (u *UIState) Feed() models.NotificationFeed {
	return models.NotificationFeed{Items: u.Notifications(), Unread: u.Unread(), DropdownOpen: u.dropdownOpen}
}

// DropdownOpen reports whether the dropdown is shown.
func (u *UIState) DropdownOpen() bool {
	return u.dropdownOpen
}

// OpenDropdown shows the dropdown and registers the outside-click check.
func (u *UIState) OpenDropdown() {
	if u.dropdownOpen {
		return
	}
	u.dropdownOpen = true
	u.listeners.Add(dropdownListenerKey, func(region models.PointerRegion) {
		if region != models.RegionNotificationDropdown {
			u.CloseDropdown()
		}
	})
}

// CloseDropdown hides the dropdown and drops its listener.
func (u *UIState) CloseDropdown() {
	u.dropdownOpen = false
	u.listeners.Remove(dropdownListenerKey)
}

// PointerDown feeds a global pointer-down event to the listener set.
func (u *UIState) PointerDown(region models.PointerRegion) {
	u.listeners.Fire(region)
}

// Listeners exposes the listener set.
func (u *UIState) Listeners() *PointerListeners {
	return u.listeners
}
