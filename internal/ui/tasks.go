package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tasklist/internal/config"
	"tasklist/internal/storage"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// taskRow is a task as displayed, with its index in the category.
type taskRow struct {
	index int
	task  storage.Task
}

// TaskPane lists the current category's tasks, pending first.
type TaskPane struct {
	ctx      context.Context
	store    *storage.Store
	styles   *Styles
	category string
	rows     []taskRow
	pending  int // rows[:pending] are pending, the rest completed
	cursor   int
	focused  bool
	width    int
	height   int
	mode     editMode
	input    textinput.Model

	// Key bindings
	keys      TaskKeyMap
	inputKeys InputKeyMap
}

// NewTaskPane creates the task pane and registers it with theme.
func NewTaskPane(ctx context.Context, store *storage.Store, theme *ThemeNotifier, keyCfg *config.KeysConfig) *TaskPane {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 200
	ti.Width = 40

	p := &TaskPane{
		ctx:       ctx,
		store:     store,
		input:     ti,
		keys:      NewTaskKeyMap(keyCfg),
		inputKeys: NewInputKeyMap(keyCfg),
	}
	theme.Register(p)
	p.Refresh()
	return p
}

// ApplyTheme implements Themed.
func (p *TaskPane) ApplyTheme(s *Styles) {
	p.styles = s
	p.input.PromptStyle = s.InputPromptStyle
}

// Refresh reloads the current category's tasks. The cursor follows the
// selected task when it moves between sections.
func (p *TaskPane) Refresh() {
	selectedID := ""
	if row, ok := p.Selected(); ok {
		selectedID = row.task.ID
	}
	category := p.store.Current()
	if category != p.category {
		selectedID = ""
		p.cursor = 0
	}
	p.category = category

	tasks, err := p.store.Tasks(category)
	if err != nil {
		tasks = nil
	}

	rows := make([]taskRow, 0, len(tasks))
	for i, t := range tasks {
		if !t.Completed {
			rows = append(rows, taskRow{index: i, task: t})
		}
	}
	p.pending = len(rows)
	for i, t := range tasks {
		if t.Completed {
			rows = append(rows, taskRow{index: i, task: t})
		}
	}
	p.rows = rows

	if selectedID != "" {
		for i, r := range p.rows {
			if r.task.ID == selectedID {
				p.cursor = i
				return
			}
		}
	}
	if p.cursor >= len(p.rows) {
		p.cursor = max(0, len(p.rows)-1)
	}
}

// Category returns the category the pane is showing.
func (p *TaskPane) Category() string {
	return p.category
}

// Selected returns the row under the cursor.
func (p *TaskPane) Selected() (taskRow, bool) {
	if p.cursor < 0 || p.cursor >= len(p.rows) {
		return taskRow{}, false
	}
	return p.rows[p.cursor], true
}

// SetSize sets the pane dimensions.
func (p *TaskPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = max(10, width-6)
}

// SetFocused sets whether this pane is focused.
func (p *TaskPane) SetFocused(focused bool) {
	p.focused = focused
}

// IsEditing returns whether the text input is open.
func (p *TaskPane) IsEditing() bool {
	return p.mode != editNone
}

func (p *TaskPane) startEdit(mode editMode, value string) tea.Cmd {
	p.mode = mode
	p.input.SetValue(value)
	p.input.CursorEnd()
	p.input.Focus()
	return textinput.Blink
}

func (p *TaskPane) stopEdit() {
	p.mode = editNone
	p.input.Blur()
	p.input.Reset()
}

// Update handles messages for the task pane.
func (p *TaskPane) Update(msg tea.Msg) tea.Cmd {
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
	if cursor, moved := p.keys.step(keyMsg, p.cursor, len(p.rows)); moved {
		p.cursor = cursor
		return nil
	}

	row, hasSelection := p.Selected()
	switch {
	case key.Matches(keyMsg, p.keys.Add):
		return p.startEdit(editAdd, "")

	case !hasSelection:
		return nil

	case key.Matches(keyMsg, p.keys.Toggle):
		err := p.store.ToggleTask(p.ctx, p.category, row.index)
		p.Refresh()
		return changed("", err)

	case key.Matches(keyMsg, p.keys.Edit):
		return p.startEdit(editRename, row.task.Text)

	case key.Matches(keyMsg, p.keys.Delete):
		return p.DeleteSelected()
	}
	return nil
}

// DeleteSelected deletes the task under the cursor.
func (p *TaskPane) DeleteSelected() tea.Cmd {
	row, ok := p.Selected()
	if !ok {
		return nil
	}
	err := p.store.DeleteTask(p.ctx, p.category, row.index)
	p.Refresh()
	return changed("Deleted task", err)
}

// MoveSelected moves the task under the cursor to target.
func (p *TaskPane) MoveSelected(target string) tea.Cmd {
	row, ok := p.Selected()
	if !ok {
		return nil
	}
	err := p.store.MoveTask(p.ctx, p.category, row.index, target)
	p.Refresh()
	return changed(fmt.Sprintf("Moved to %s", target), err)
}

func (p *TaskPane) updateInput(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, p.inputKeys.Confirm):
			value := p.input.Value()
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

func (p *TaskPane) commit(mode editMode, value string) tea.Cmd {
	switch mode {
	case editAdd:
		task, err := p.store.AddTask(p.ctx, p.category, value)
		p.Refresh()
		if err == nil {
			for i, r := range p.rows {
				if r.task.ID == task.ID {
					p.cursor = i
				}
			}
		}
		return changed("", err)

	case editRename:
		row, ok := p.Selected()
		if !ok {
			return nil
		}
		err := p.store.EditTaskText(p.ctx, p.category, row.index, value)
		if errors.Is(err, storage.ErrTextUnchanged) {
			return nil
		}
		p.Refresh()
		return changed("", err)
	}
	return nil
}

// View renders the task pane.
func (p *TaskPane) View() string {
	var b strings.Builder

	b.WriteString(p.styles.PaneTitleStyle.Render(strings.ToUpper(p.category)))
	b.WriteString("\n")

	sepWidth := max(10, p.width-4)
	b.WriteString(lipgloss.NewStyle().Foreground(p.styles.ColorMuted).Render(strings.Repeat("─", sepWidth)))
	b.WriteString("\n")

	if len(p.rows) == 0 && p.mode == editNone {
		b.WriteString(p.styles.EmptyStyle.Render("  No tasks yet. Press 'a' to add one."))
		b.WriteString("\n")
	} else {
		lines, cursorLine := p.renderRows()
		visible := max(3, p.height-6)
		if p.mode != editNone {
			visible = max(1, visible-2)
		}
		b.WriteString(strings.Join(window(lines, cursorLine, visible), "\n"))
		b.WriteString("\n\n")

		done, total := len(p.rows)-p.pending, len(p.rows)
		b.WriteString("  " + p.styles.StatLabelStyle.Render(fmt.Sprintf("%d/%d complete", done, total)))
		b.WriteString("\n")
	}

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

// renderRows renders section headers and task lines. It also returns the
// line index of the cursor.
func (p *TaskPane) renderRows() ([]string, int) {
	lines := make([]string, 0, len(p.rows)+3)
	cursorLine := 0

	// Layout: [space][checkbox][space][text], inside pane padding/borders.
	textWidth := max(5, p.width-4-5)

	section := func(title string, count int) {
		lines = append(lines, p.styles.SectionStyle.Render(fmt.Sprintf("%s (%d)", title, count)))
	}

	for i, r := range p.rows {
		if i == 0 && p.pending > 0 {
			section("Pending", p.pending)
		}
		if i == p.pending {
			if p.pending > 0 {
				lines = append(lines, "")
			}
			section("Completed", len(p.rows)-p.pending)
		}

		text := runewidth.Truncate(r.task.Text, textWidth, "..")
		checkbox := p.styles.TaskCheckboxPending
		if r.task.Completed {
			checkbox = p.styles.TaskCheckboxDone
		}

		var line string
		if i == p.cursor && p.focused && p.mode == editNone {
			cursorLine = len(lines)
			line = p.styles.TaskSelectedStyle.Render(fmt.Sprintf(" %s %s ", checkbox, text))
		} else {
			styled := p.styles.TaskPendingStyle.Render(text)
			if r.task.Completed {
				styled = p.styles.TaskDoneStyle.Render(text)
			}
			line = fmt.Sprintf(" %s %s", checkbox, styled)
		}
		lines = append(lines, line)
	}
	return lines, cursorLine
}

// Stats returns task statistics for the shown category.
func (p *TaskPane) Stats() (done, total int) {
	return len(p.rows) - p.pending, len(p.rows)
}
