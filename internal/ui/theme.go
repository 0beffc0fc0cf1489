package ui

import "tasklist/internal/storage"

// Themed is implemented by components that restyle when the theme changes.
type Themed interface {
	ApplyTheme(s *Styles)
}

// ThemeNotifier owns the active Styles and pushes replacements to every
// registered component. Components register once, at construction.
type ThemeNotifier struct {
	accent    string
	styles    *Styles
	listeners []Themed
}

// NewThemeNotifier creates a notifier for the given mode and accent color.
func NewThemeNotifier(mode storage.Theme, accent string) *ThemeNotifier {
	return &ThemeNotifier{
		accent: accent,
		styles: NewStyles(mode, accent),
	}
}

// Register adds t to the notifier and applies the current styles to it.
func (n *ThemeNotifier) Register(t Themed) {
	n.listeners = append(n.listeners, t)
	t.ApplyTheme(n.styles)
}

// Styles returns the active styles.
func (n *ThemeNotifier) Styles() *Styles {
	return n.styles
}

// Mode returns the active theme mode.
func (n *ThemeNotifier) Mode() storage.Theme {
	return n.styles.Mode
}

// SetMode switches every registered component to mode. Setting the active
// mode again notifies nobody.
func (n *ThemeNotifier) SetMode(mode storage.Theme) {
	if mode == n.styles.Mode {
		return
	}
	n.styles = NewStyles(mode, n.accent)
	for _, l := range n.listeners {
		l.ApplyTheme(n.styles)
	}
}

// Opposite returns the mode a toggle switches to.
func Opposite(mode storage.Theme) storage.Theme {
	if mode == storage.ThemeDark {
		return storage.ThemeLight
	}
	return storage.ThemeDark
}
