// Package ui provides the terminal user interface for tasklist.
// This file defines key bindings using the Bubble Tea key package for
// type-safe key matching, help text generation, and customization.
package ui

import (
	"strings"

	"tasklist/internal/config"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// Helpers
// =============================================================================

// parseKeys splits a comma-separated string into individual keys.
// If the input is empty, returns the default keys. "space" names the
// space bar, which Bubble Tea reports as " ".
func parseKeys(customKeys string, defaultKeys ...string) []string {
	if customKeys == "" {
		return defaultKeys
	}
	keys := strings.Split(customKeys, ",")
	result := make([]string, 0, len(keys))
	for _, k := range keys {
		trimmed := strings.TrimSpace(k)
		if trimmed == "space" {
			trimmed = " "
		}
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultKeys
	}
	return result
}

// helpKey is the label shown for a binding: its first key.
func helpKey(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	if keys[0] == " " {
		return "space"
	}
	return keys[0]
}

func binding(custom, desc string, defaults ...string) key.Binding {
	keys := parseKeys(custom, defaults...)
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(helpKey(keys), desc),
	)
}

// =============================================================================
// Global Keys (available in all contexts)
// =============================================================================

// GlobalKeyMap defines keys available throughout the application.
type GlobalKeyMap struct {
	Quit           key.Binding
	Help           key.Binding
	NextPane       key.Binding
	ClearCompleted key.Binding
	ToggleTheme    key.Binding
	Backup         key.Binding
	Export         key.Binding
}

// NewGlobalKeyMap creates global key bindings from config.
func NewGlobalKeyMap(cfg *config.KeysConfig) GlobalKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	return GlobalKeyMap{
		Quit:           binding(cfg.Quit, "quit", "q", "ctrl+c"),
		Help:           binding(cfg.Help, "help", "?"),
		NextPane:       binding(cfg.NextPane, "switch pane", "tab"),
		ClearCompleted: binding(cfg.ClearCompleted, "clear completed", "C"),
		ToggleTheme:    binding(cfg.ToggleTheme, "toggle theme", "t"),
		Backup:         binding(cfg.Backup, "backup", "b"),
		Export:         binding(cfg.Export, "export", "E"),
	}
}

// FullHelp returns the global bindings grouped for the help overlay.
func (k GlobalKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextPane, k.Help, k.Quit},
		{k.ClearCompleted, k.ToggleTheme, k.Backup, k.Export},
	}
}

// =============================================================================
// Navigation Keys (shared by list-based panes)
// =============================================================================

// NavigationKeyMap defines keys for list navigation.
type NavigationKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
}

// NewNavigationKeyMap creates navigation key bindings from config.
func NewNavigationKeyMap(cfg *config.KeysConfig) NavigationKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	return NavigationKeyMap{
		Up:     binding(cfg.Up, "up", "k", "up"),
		Down:   binding(cfg.Down, "down", "j", "down"),
		Top:    binding(cfg.Top, "top", "g", "home"),
		Bottom: binding(cfg.Bottom, "bottom", "G", "end"),
	}
}

// step applies a navigation key to cursor over n items. The second result
// reports whether msg was a navigation key.
func (k NavigationKeyMap) step(msg tea.KeyMsg, cursor, n int) (int, bool) {
	if n == 0 {
		return 0, key.Matches(msg, k.Up, k.Down, k.Top, k.Bottom)
	}
	switch {
	case key.Matches(msg, k.Up):
		return max(cursor-1, 0), true
	case key.Matches(msg, k.Down):
		return min(cursor+1, n-1), true
	case key.Matches(msg, k.Top):
		return 0, true
	case key.Matches(msg, k.Bottom):
		return n - 1, true
	}
	return cursor, false
}

// =============================================================================
// Input Keys (shared by text input fields)
// =============================================================================

// InputKeyMap defines keys for text input mode.
type InputKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// NewInputKeyMap creates input key bindings from config.
func NewInputKeyMap(cfg *config.KeysConfig) InputKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	return InputKeyMap{
		Confirm: binding(cfg.Confirm, "confirm", "enter"),
		Cancel:  binding(cfg.Cancel, "cancel", "esc"),
	}
}

// =============================================================================
// Category Pane Keys
// =============================================================================

// CategoryKeyMap defines keys for the category sidebar.
type CategoryKeyMap struct {
	Select   key.Binding
	Add      key.Binding
	Rename   key.Binding
	Delete   key.Binding
	MoveUp   key.Binding
	MoveDown key.Binding
	NavigationKeyMap
}

// NewCategoryKeyMap creates category key bindings from config.
func NewCategoryKeyMap(cfg *config.KeysConfig) CategoryKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	return CategoryKeyMap{
		Select:           binding(cfg.Select, "select", "enter"),
		Add:              binding(cfg.Add, "add category", "a"),
		Rename:           binding(cfg.Rename, "rename", "r"),
		Delete:           binding(cfg.Delete, "delete", "x"),
		MoveUp:           binding(cfg.MoveUp, "move up", "K", "shift+up"),
		MoveDown:         binding(cfg.MoveDown, "move down", "J", "shift+down"),
		NavigationKeyMap: NewNavigationKeyMap(cfg),
	}
}

// ShortHelp returns the short help for the sidebar (implements help.KeyMap).
func (k CategoryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Add, k.Rename, k.Delete, k.MoveUp, k.MoveDown}
}

// FullHelp returns the full help for the sidebar (implements help.KeyMap).
func (k CategoryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Select, k.Add, k.Rename, k.Delete},
		{k.MoveUp, k.MoveDown},
		{k.Up, k.Down, k.Top, k.Bottom},
	}
}

// =============================================================================
// Task Pane Keys
// =============================================================================

// TaskKeyMap defines keys for the task pane.
type TaskKeyMap struct {
	Add     key.Binding
	Toggle  key.Binding
	Edit    key.Binding
	Move    key.Binding
	Delete  key.Binding
	Details key.Binding
	NavigationKeyMap
}

// NewTaskKeyMap creates task key bindings from config.
func NewTaskKeyMap(cfg *config.KeysConfig) TaskKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	return TaskKeyMap{
		Add:              binding(cfg.Add, "add task", "a"),
		Toggle:           binding(cfg.Toggle, "toggle done", " "),
		Edit:             binding(cfg.Edit, "edit", "e"),
		Move:             binding(cfg.MoveTask, "move to category", "m"),
		Delete:           binding(cfg.Delete, "delete", "x"),
		Details:          binding(cfg.Select, "details", "enter"),
		NavigationKeyMap: NewNavigationKeyMap(cfg),
	}
}

// ShortHelp returns the short help for the task pane (implements help.KeyMap).
func (k TaskKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Edit, k.Move, k.Delete, k.Details}
}

// FullHelp returns the full help for the task pane (implements help.KeyMap).
func (k TaskKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Add, k.Toggle, k.Edit},
		{k.Move, k.Delete, k.Details},
		{k.Up, k.Down, k.Top, k.Bottom},
	}
}

// =============================================================================
// Help Overlay Keys
// =============================================================================

// HelpKeyMap defines keys for the help overlay.
type HelpKeyMap struct {
	Close key.Binding
}

// DefaultHelpKeyMap returns the default help overlay key bindings.
func DefaultHelpKeyMap() HelpKeyMap {
	return HelpKeyMap{
		Close: key.NewBinding(
			key.WithKeys("?", "esc", "q", "enter", " "),
			key.WithHelp("any key", "close"),
		),
	}
}
