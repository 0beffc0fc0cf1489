package ui

import (
	"context"
	"fmt"
	"strings"

	"tasklist/internal/config"
	"tasklist/internal/storage"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

type editMode int

const (
	editNone editMode = iota
	editAdd
	editRename
)

// CategoryPane is the sidebar listing categories with their progress.
type CategoryPane struct {
	ctx     context.Context
	store   *storage.Store
	styles  *Styles
	names   []string
	cursor  int
	focused bool
	width   int
	height  int
	mode    editMode
	input   textinput.Model

	// Key bindings
	keys      CategoryKeyMap
	inputKeys InputKeyMap
}

// NewCategoryPane creates the sidebar and registers it with theme. The
// cursor starts on the current category.
func NewCategoryPane(ctx context.Context, store *storage.Store, theme *ThemeNotifier, keyCfg *config.KeysConfig) *CategoryPane {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "Category name"
	ti.CharLimit = 50
	ti.Width = 20

	p := &CategoryPane{
		ctx:       ctx,
		store:     store,
		input:     ti,
		keys:      NewCategoryKeyMap(keyCfg),
		inputKeys: NewInputKeyMap(keyCfg),
	}
	theme.Register(p)
	p.Refresh()
	p.cursor = max(0, p.indexOf(store.Current()))
	return p
}

// ApplyTheme implements Themed.
func (p *CategoryPane) ApplyTheme(s *Styles) {
	p.styles = s
	p.input.PromptStyle = s.InputPromptStyle
}

// Refresh reloads category names from the store, keeping the cursor in range.
func (p *CategoryPane) Refresh() {
	p.names = p.store.CategoryNames()
	if p.cursor >= len(p.names) {
		p.cursor = max(0, len(p.names)-1)
	}
}

func (p *CategoryPane) indexOf(name string) int {
	for i, n := range p.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Selected returns the category under the cursor.
func (p *CategoryPane) Selected() (string, bool) {
	if p.cursor < 0 || p.cursor >= len(p.names) {
		return "", false
	}
	return p.names[p.cursor], true
}

// SetSize sets the pane dimensions.
func (p *CategoryPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = max(10, width-6)
}

// SetFocused sets whether this pane is focused.
func (p *CategoryPane) SetFocused(focused bool) {
	p.focused = focused
}

// IsEditing returns whether the name input is open.
func (p *CategoryPane) IsEditing() bool {
	return p.mode != editNone
}

func (p *CategoryPane) startEdit(mode editMode, value string) tea.Cmd {
	p.mode = mode
	p.input.SetValue(value)
	p.input.CursorEnd()
	p.input.Focus()
	return textinput.Blink
}

func (p *CategoryPane) stopEdit() {
	p.mode = editNone
	p.input.Blur()
	p.input.Reset()
}

// Update handles messages for the sidebar.
func (p *CategoryPane) Update(msg tea.Msg) tea.Cmd {
	if p.mode != editNone {
		return p.updateInput(msg)
	}
	if !p.focused {
		return nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if cursor, moved := p.keys.step(keyMsg, p.cursor, len(p.names)); moved {
		p.cursor = cursor
		return nil
	}

	name, hasSelection := p.Selected()
	switch {
	case key.Matches(keyMsg, p.keys.Add):
		return p.startEdit(editAdd, "")

	case !hasSelection:
		return nil

	case key.Matches(keyMsg, p.keys.Select):
		return changed("", p.store.SetCurrent(p.ctx, name))

	case key.Matches(keyMsg, p.keys.Rename):
		return p.startEdit(editRename, name)

	case key.Matches(keyMsg, p.keys.MoveUp):
		return p.reorder(name, p.cursor-1)

	case key.Matches(keyMsg, p.keys.MoveDown):
		return p.reorder(name, p.cursor+1)

	case key.Matches(keyMsg, p.keys.Delete):
		return p.DeleteSelected()
	}
	return nil
}

func (p *CategoryPane) reorder(name string, to int) tea.Cmd {
	if to < 0 || to >= len(p.names) {
		return nil
	}
	err := p.store.ReorderCategories(p.ctx, name, to)
	p.Refresh()
	if idx := p.indexOf(name); idx >= 0 {
		p.cursor = idx
	}
	return changed("", err)
}

// DeleteSelected deletes the category under the cursor.
func (p *CategoryPane) DeleteSelected() tea.Cmd {
	name, ok := p.Selected()
	if !ok {
		return nil
	}
	err := p.store.DeleteCategory(p.ctx, name)
	p.Refresh()
	return changed(fmt.Sprintf("Deleted category %q", name), err)
}

func (p *CategoryPane) updateInput(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, p.inputKeys.Confirm):
			value := strings.TrimSpace(p.input.Value())
			mode := p.mode
			p.stopEdit()
			return p.commit(mode, value)

		case key.Matches(keyMsg, p.inputKeys.Cancel):
			p.stopEdit()
			return nil
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

func (p *CategoryPane) commit(mode editMode, value string) tea.Cmd {
	switch mode {
	case editAdd:
		err := p.store.AddCategory(p.ctx, value)
		p.Refresh()
		if err == nil {
			p.cursor = max(0, p.indexOf(value))
		}
		return changed(fmt.Sprintf("Added category %q", value), err)

	case editRename:
		old, ok := p.Selected()
		if !ok {
			return nil
		}
		err := p.store.RenameCategory(p.ctx, old, value)
		p.Refresh()
		return changed(fmt.Sprintf("Renamed %q to %q", old, value), err)
	}
	return nil
}

// View renders the sidebar.
func (p *CategoryPane) View() string {
	var b strings.Builder

	b.WriteString(p.styles.PaneTitleStyle.Render("CATEGORIES"))
	b.WriteString("\n\n")

	current := p.store.Current()
	textWidth := max(5, p.width-6)

	lines := make([]string, 0, len(p.names))
	for i, name := range p.names {
		done, total := p.store.Counts(name)
		marker := "  "
		if name == current {
			marker = "▸ "
		}
		label := fmt.Sprintf("%s (%d/%d)", name, done, total)
		label = runewidth.Truncate(label, textWidth-2, "…")

		var line string
		switch {
		case i == p.cursor && p.focused && p.mode == editNone:
			line = p.styles.CategorySelectedStyle.Render(marker + label)
		case name == current:
			line = p.styles.CategoryCurrentStyle.Render(marker + label)
		default:
			line = p.styles.CategoryStyle.Render(marker + label)
		}
		lines = append(lines, line)
	}

	visible := max(3, p.height-6)
	if p.mode != editNone {
		visible = max(1, visible-2)
	}
	b.WriteString(strings.Join(window(lines, p.cursor, visible), "\n"))
	b.WriteString("\n")

	if p.mode != editNone {
		prompt := "+ "
		if p.mode == editRename {
			prompt = "✎ "
		}
		b.WriteString("\n")
		b.WriteString(p.styles.InputPromptStyle.Render(prompt) + p.input.View())
		b.WriteString("\n")
	}

	style := p.styles.PaneStyle
	if p.focused {
		style = p.styles.PaneFocusedStyle
	}
	return style.Width(p.width).Height(p.height).Render(b.String())
}

// window returns at most n lines around cursor, scrolling only when the
// cursor would leave the visible range.
func window(lines []string, cursor, n int) []string {
	if n <= 0 || len(lines) <= n {
		return lines
	}
	start := 0
	if cursor >= n {
		start = cursor - n + 1
	}
	end := min(start+n, len(lines))
	return lines[start:end]
}
