package models

// FontSize is the base text size preference.
type FontSize string

const (
	FontSizeSmall  FontSize = "small"
	FontSizeMedium FontSize = "medium"
	FontSizeLarge  FontSize = "large"
)

// Theme classes applied to the document root.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// UIPreferences are process-wide display toggles for one device.
type UIPreferences struct {
	DarkMode bool     `json:"dark_mode"`
	FontSize FontSize `json:"font_size"`
}

// DefaultPreferences is the start-up state.
func DefaultPreferences() UIPreferences {
	return UIPreferences{DarkMode: false, FontSize: FontSizeMedium}
}

// RootStyle is what the front-end writes onto the document root.
type RootStyle struct {
	ThemeClass string `json:"theme_class"`
	FontSize   string `json:"font_size"`
}

// Valid reports whether s is one of the three sizes.
func (s FontSize) Valid() bool {
	switch s {
	case FontSizeSmall, FontSizeMedium, FontSizeLarge:
		return true
	default:
		return false
	}
}
