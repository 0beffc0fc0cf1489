package ui

import (
	"strings"
	"testing"

	"tasklist/internal/config"
	"tasklist/internal/storage"

	"github.com/charmbracelet/lipgloss"
)

func newTestHelpOverlay(cfg *config.KeysConfig) *HelpOverlay {
	return NewHelpOverlay(
		NewThemeNotifier(storage.ThemeLight, ""),
		NewGlobalKeyMap(cfg),
		NewCategoryKeyMap(cfg),
		NewTaskKeyMap(cfg),
		NewInputKeyMap(cfg),
	)
}

func TestHelpOverlay_View(t *testing.T) {
	setupTest(t)

	help := newTestHelpOverlay(&config.KeysConfig{})
	help.SetSize(100, 40)

	output := help.View()
	for _, want := range []string{
		"Keyboard Shortcuts",
		"Global", "Categories", "Tasks", "Input Mode",
		"q / ctrl+c", "toggle theme",
		"K / shift+up", "move up",
		"space", "toggle done",
		"Press any key to close",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help overlay missing %q", want)
		}
	}
}

func TestHelpOverlay_ShowsCustomKeys(t *testing.T) {
	setupTest(t)

	help := newTestHelpOverlay(&config.KeysConfig{Quit: "ctrl+q", Add: "n"})
	help.SetSize(100, 40)

	output := help.View()
	if !strings.Contains(output, "ctrl+q") {
		t.Error("help overlay should show the custom quit key")
	}
	if strings.Contains(output, "q / ctrl+c") {
		t.Error("help overlay should not show the default quit keys")
	}
}

func TestHelpOverlay_NarrowTerminal(t *testing.T) {
	setupTest(t)

	help := newTestHelpOverlay(&config.KeysConfig{})
	help.SetSize(50, 60)

	for _, line := range strings.Split(help.View(), "\n") {
		if w := lipgloss.Width(line); w > 50 {
			t.Errorf("line width %d exceeds terminal width: %q", w, line)
		}
	}
}
