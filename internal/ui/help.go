package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// helpSection is a titled group of bindings.
type helpSection struct {
	title    string
	bindings [][]key.Binding
}

// HelpOverlay renders a help screen listing the configured bindings.
type HelpOverlay struct {
	width    int
	height   int
	styles   *Styles
	sections []helpSection
}

// NewHelpOverlay creates a new help overlay and registers it with theme.
func NewHelpOverlay(theme *ThemeNotifier, global GlobalKeyMap, categories CategoryKeyMap, tasks TaskKeyMap, input InputKeyMap) *HelpOverlay {
	h := &HelpOverlay{
		sections: []helpSection{
			{"Global", global.FullHelp()},
			{"Categories", categories.FullHelp()},
			{"Tasks", tasks.FullHelp()},
			{"Input Mode", [][]key.Binding{{input.Confirm, input.Cancel}}},
		},
	}
	theme.Register(h)
	return h
}

// ApplyTheme implements Themed.
func (h *HelpOverlay) ApplyTheme(s *Styles) {
	h.styles = s
}

// SetSize sets the overlay dimensions
func (h *HelpOverlay) SetSize(width, height int) {
	h.width = width
	h.height = height
}

// View renders the help overlay
func (h *HelpOverlay) View() string {
	overlayWidth := 60
	if h.width > 0 {
		overlayWidth = min(60, max(20, h.width-4))
	}

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(h.styles.ColorPrimary).
		Padding(1, 2).
		Width(overlayWidth)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(h.styles.ColorPrimary)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(h.styles.ColorPrimary)

	keyStyle := lipgloss.NewStyle().
		Foreground(h.styles.ColorWarning).
		Width(14)

	descStyle := lipgloss.NewStyle().
		Foreground(h.styles.ColorText)

	mutedStyle := lipgloss.NewStyle().
		Foreground(h.styles.ColorTextMuted).
		Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("tasklist - Keyboard Shortcuts"))
	b.WriteString("\n")

	for _, section := range h.sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(section.title))
		b.WriteString("\n")
		for _, group := range section.bindings {
			for _, kb := range group {
				if !kb.Enabled() {
					continue
				}
				help := kb.Help()
				b.WriteString(keyStyle.Render(keyLabel(kb)) + descStyle.Render(help.Desc) + "\n")
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Press any key to close"))

	content := overlayStyle.Render(b.String())
	return lipgloss.Place(h.width, h.height, lipgloss.Center, lipgloss.Center, content)
}

// keyLabel lists every key of a binding, e.g. "k / up".
func keyLabel(kb key.Binding) string {
	keys := kb.Keys()
	labels := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == " " {
			k = "space"
		}
		labels = append(labels, k)
	}
	return strings.Join(labels, " / ")
}
