package ui

import (
	"tasklist/internal/storage"

	"github.com/charmbracelet/lipgloss"
)

// palette is the set of base colors for one theme mode.
type palette struct {
	primary   string
	muted     string
	bg        string
	bgLight   string
	text      string
	textMuted string
}

var (
	lightPalette = palette{
		primary:   "#6D28D9",
		muted:     "#9CA3AF",
		bg:        "#FFFFFF",
		bgLight:   "#E5E7EB",
		text:      "#111827",
		textMuted: "#6B7280",
	}
	darkPalette = palette{
		primary:   "#7C3AED",
		muted:     "#6B7280",
		bg:        "#1F2937",
		bgLight:   "#374151",
		text:      "#F9FAFB",
		textMuted: "#9CA3AF",
	}
)

// Styles holds all application styles for one theme mode.
type Styles struct {
	Mode storage.Theme

	// Colors
	ColorPrimary   lipgloss.Color
	ColorMuted     lipgloss.Color
	ColorDanger    lipgloss.Color
	ColorWarning   lipgloss.Color
	ColorSuccess   lipgloss.Color
	ColorBg        lipgloss.Color
	ColorBgLight   lipgloss.Color
	ColorText      lipgloss.Color
	ColorTextMuted lipgloss.Color

	// Component styles
	TitleStyle       lipgloss.Style
	PaneStyle        lipgloss.Style
	PaneFocusedStyle lipgloss.Style
	PaneTitleStyle   lipgloss.Style
	SectionStyle     lipgloss.Style
	EmptyStyle       lipgloss.Style

	CategoryStyle         lipgloss.Style
	CategoryCurrentStyle  lipgloss.Style
	CategorySelectedStyle lipgloss.Style

	TaskDoneStyle       lipgloss.Style
	TaskPendingStyle    lipgloss.Style
	TaskSelectedStyle   lipgloss.Style
	TaskCheckboxDone    string
	TaskCheckboxPending string

	DetailLabelStyle lipgloss.Style
	DetailValueStyle lipgloss.Style

	HelpStyle    lipgloss.Style
	HelpKeyStyle lipgloss.Style

	StatusStyle lipgloss.Style
	ErrorStyle  lipgloss.Style

	InputPromptStyle lipgloss.Style

	StatLabelStyle lipgloss.Style
}

// NewStyles creates styles for the given mode. A non-empty accent replaces
// the palette's primary color.
func NewStyles(mode storage.Theme, accent string) *Styles {
	p := lightPalette
	if mode == storage.ThemeDark {
		p = darkPalette
	} else {
		mode = storage.ThemeLight
	}

	s := &Styles{Mode: mode}
	s.ColorPrimary = colorOrDefault(accent, p.primary)
	s.ColorMuted = lipgloss.Color(p.muted)
	s.ColorBg = lipgloss.Color(p.bg)
	s.ColorBgLight = lipgloss.Color(p.bgLight)
	s.ColorText = lipgloss.Color(p.text)
	s.ColorTextMuted = lipgloss.Color(p.textMuted)

	// Fixed semantic colors
	s.ColorDanger = lipgloss.Color("#EF4444")
	s.ColorWarning = lipgloss.Color("#F59E0B")
	s.ColorSuccess = lipgloss.Color("#10B981")

	s.initComponentStyles()
	return s
}

// colorOrDefault returns the lipgloss.Color from hex string, or default if empty.
func colorOrDefault(hex, defaultHex string) lipgloss.Color {
	if hex != "" {
		return lipgloss.Color(hex)
	}
	return lipgloss.Color(defaultHex)
}

// initComponentStyles initializes all component styles based on the color palette.
func (s *Styles) initComponentStyles() {
	s.TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(s.ColorBg).
		Background(s.ColorPrimary).
		Padding(0, 1)

	s.PaneStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.ColorMuted).
		Padding(0, 1)

	s.PaneFocusedStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.ColorPrimary).
		Padding(0, 1)

	s.PaneTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(s.ColorPrimary)

	s.SectionStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(s.ColorTextMuted)

	s.EmptyStyle = lipgloss.NewStyle().
		Foreground(s.ColorTextMuted).
		Italic(true)

	// Categories
	s.CategoryStyle = lipgloss.NewStyle().
		Foreground(s.ColorText)

	s.CategoryCurrentStyle = lipgloss.NewStyle().
		Foreground(s.ColorPrimary).
		Bold(true)

	s.CategorySelectedStyle = lipgloss.NewStyle().
		Background(s.ColorBgLight).
		Foreground(s.ColorText).
		Bold(true)

	// Tasks
	s.TaskDoneStyle = lipgloss.NewStyle().
		Foreground(s.ColorTextMuted).
		Strikethrough(true)

	s.TaskPendingStyle = lipgloss.NewStyle().
		Foreground(s.ColorText)

	s.TaskSelectedStyle = lipgloss.NewStyle().
		Background(s.ColorBgLight).
		Foreground(s.ColorText).
		Bold(true)

	s.TaskCheckboxDone = lipgloss.NewStyle().Foreground(s.ColorSuccess).Render("[✓]")
	s.TaskCheckboxPending = lipgloss.NewStyle().Foreground(s.ColorMuted).Render("[ ]")

	// Details
	s.DetailLabelStyle = lipgloss.NewStyle().
		Foreground(s.ColorTextMuted).
		Width(11)

	s.DetailValueStyle = lipgloss.NewStyle().
		Foreground(s.ColorText)

	// Help bar
	s.HelpStyle = lipgloss.NewStyle().
		Foreground(s.ColorTextMuted)

	s.HelpKeyStyle = lipgloss.NewStyle().
		Foreground(s.ColorPrimary).
		Bold(true)

	// Status messages
	s.StatusStyle = lipgloss.NewStyle().
		Foreground(s.ColorSuccess).
		Italic(true)

	s.ErrorStyle = lipgloss.NewStyle().
		Foreground(s.ColorDanger).
		Bold(true)

	s.InputPromptStyle = lipgloss.NewStyle().
		Foreground(s.ColorPrimary).
		Bold(true)

	s.StatLabelStyle = lipgloss.NewStyle().
		Foreground(s.ColorTextMuted)
}

// RenderHelp renders help text with key bindings using the given styles.
func (s *Styles) RenderHelp(keys ...string) string {
	var result string
	for i := 0; i+1 < len(keys); i += 2 {
		if i > 0 {
			result += "  "
		}
		result += s.HelpKeyStyle.Render("["+keys[i]+"]") + " " + s.HelpStyle.Render(keys[i+1])
	}
	return result
}
