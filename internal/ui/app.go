// Package ui provides the terminal user interface for tasklist.
// This file contains the main App model which coordinates the panes and
// overlays and routes messages using the Bubble Tea architecture.
package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"tasklist/internal/anim"
	"tasklist/internal/backup"
	"tasklist/internal/config"
	"tasklist/internal/storage"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// PaneID identifies each focusable pane.
type PaneID int

const (
	PaneCategories PaneID = iota
	PaneTasks
)

// ExportFile is the default file name offered by the export prompt.
const ExportFile = "tasks_export.json"

// AppConfig holds user configuration for the app behavior.
type AppConfig struct {
	Keys                  *config.KeysConfig
	ConfirmDeletions      bool
	NarrowLayoutThreshold int

	// ExportDir is the directory the export prompt starts in.
	ExportDir string

	// AnimationDuration is the details panel slide time. Zero uses the
	// default; negative disables the animation.
	AnimationDuration time.Duration
}

// Options are the collaborators the App works with. Store, Backups and
// Theme are required.
type Options struct {
	Store   *storage.Store
	Backups *backup.Manager
	Theme   *ThemeNotifier
	Logger  *slog.Logger
	Config  *AppConfig
}

// App is the main application model that coordinates all panes.
type App struct {
	ctx     context.Context
	store   *storage.Store
	backups *backup.Manager
	theme   *ThemeNotifier
	logger  *slog.Logger
	styles  *Styles
	config  *AppConfig

	categories  *CategoryPane
	tasks       *TaskPane
	details     *DetailsPanel
	helpOverlay *HelpOverlay

	confirm *confirmState
	picker  *pickerState
	prompt  *promptState

	activePane  PaneID
	narrow      bool
	showHelp    bool
	width       int
	height      int
	status      string
	statusErr   bool
	statusUntil time.Time
	quitting    bool
	now         func() time.Time

	// Key bindings
	keys      GlobalKeyMap
	navKeys   NavigationKeyMap
	inputKeys InputKeyMap
	helpKeys  HelpKeyMap
}

// confirmState is a pending yes/no question.
type confirmState struct {
	title string
	body  string
	run   func() tea.Cmd
}

// pickerState is an open choice among categories.
type pickerState struct {
	title   string
	options []string
	cursor  int
	run     func(choice string) tea.Cmd
}

// promptState is an open single-line question.
type promptState struct {
	title string
	input textinput.Model
	run   func(value string) tea.Cmd
}

// NewApp creates a new application over a loaded store.
func NewApp(ctx context.Context, opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = &AppConfig{
			ConfirmDeletions:      true,
			NarrowLayoutThreshold: 80,
		}
	}
	if cfg.Keys == nil {
		cfg.Keys = &config.KeysConfig{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	duration := cfg.AnimationDuration
	if duration == 0 {
		duration = anim.DefaultDuration
	}

	keys := NewGlobalKeyMap(cfg.Keys)
	inputKeys := NewInputKeyMap(cfg.Keys)

	a := &App{
		ctx:        ctx,
		store:      opts.Store,
		backups:    opts.Backups,
		theme:      opts.Theme,
		logger:     logger,
		config:     cfg,
		activePane: PaneTasks,
		now:        time.Now,
		keys:       keys,
		navKeys:    NewNavigationKeyMap(cfg.Keys),
		inputKeys:  inputKeys,
		helpKeys:   DefaultHelpKeyMap(),
	}
	opts.Theme.Register(a)

	a.categories = NewCategoryPane(ctx, opts.Store, opts.Theme, cfg.Keys)
	a.tasks = NewTaskPane(ctx, opts.Store, opts.Theme, cfg.Keys)
	a.details = NewDetailsPanel(opts.Theme, duration)
	a.helpOverlay = NewHelpOverlay(opts.Theme, keys, a.categories.keys, a.tasks.keys, inputKeys)

	a.setActivePane(PaneTasks)
	a.syncDetails()
	return a
}

// ApplyTheme implements Themed.
func (a *App) ApplyTheme(s *Styles) {
	a.styles = s
}

// Init starts the status clock.
func (a *App) Init() tea.Cmd {
	return tickCmd()
}

// Update handles all messages and routes them appropriately.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case storeChangedMsg:
		a.reportStoreResult(msg.status, msg.err)
		a.refresh()
		return a, nil

	case backupDoneMsg:
		if msg.err != nil {
			a.logger.Error("backup failed", "error", msg.err)
			a.SetStatus("Backup failed: "+msg.err.Error(), true)
		} else {
			a.SetStatus("Backup saved: "+msg.name, false)
		}
		return a, nil

	case exportDoneMsg:
		if msg.err != nil {
			a.logger.Error("export failed", "path", msg.path, "error", msg.err)
			a.SetStatus("Export failed: "+msg.err.Error(), true)
		} else {
			a.SetStatus("Exported to "+msg.path, false)
		}
		return a, nil

	case frameMsg:
		running := a.details.Advance(time.Time(msg))
		a.updateLayout()
		if running {
			return a, frameCmd()
		}
		return a, nil

	case tickMsg:
		if a.status != "" && !a.statusUntil.IsZero() && a.now().After(a.statusUntil) {
			a.status = ""
			a.statusErr = false
			a.statusUntil = time.Time{}
		}
		return a, tickCmd()

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateLayout()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	// Anything else (cursor blinks) belongs to whichever input is open.
	if a.prompt != nil {
		var cmd tea.Cmd
		a.prompt.input, cmd = a.prompt.input.Update(msg)
		return a, cmd
	}
	return a, a.forward(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case a.confirm != nil:
		return a.updateConfirm(msg)
	case a.picker != nil:
		return a.updatePicker(msg)
	case a.prompt != nil:
		return a.updatePrompt(msg)
	case a.showHelp:
		if key.Matches(msg, a.helpKeys.Close) {
			a.showHelp = false
		}
		return a, nil
	}

	if !a.isEditing() {
		if cmd, handled := a.handleGlobalKey(msg); handled {
			return a, cmd
		}
		if cmd, handled := a.handlePaneKey(msg); handled {
			return a, cmd
		}
	}

	cmd := a.forward(msg)
	a.refresh()
	return a, cmd
}

func (a *App) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		a.quitting = true
		return tea.Quit, true

	case key.Matches(msg, a.keys.Help):
		a.showHelp = true
		return nil, true

	case key.Matches(msg, a.keys.NextPane):
		if a.activePane == PaneCategories {
			a.setActivePane(PaneTasks)
		} else {
			a.setActivePane(PaneCategories)
		}
		return nil, true

	case key.Matches(msg, a.keys.ClearCompleted):
		return a.clearCompleted(), true

	case key.Matches(msg, a.keys.ToggleTheme):
		next := Opposite(a.theme.Mode())
		err := a.store.SetTheme(a.ctx, next)
		a.theme.SetMode(next)
		return changed(fmt.Sprintf("Switched to %s theme", next), err), true

	case key.Matches(msg, a.keys.Backup):
		a.SetStatus("Writing backup...", false)
		return backupCmd(a.backups, a.store.Snapshot()), true

	case key.Matches(msg, a.keys.Export):
		return a.openExportPrompt(), true
	}
	return nil, false
}

func (a *App) handlePaneKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch a.activePane {
	case PaneCategories:
		if key.Matches(msg, a.categories.keys.Delete) {
			return a.deleteCategory(), true
		}

	case PaneTasks:
		switch {
		case key.Matches(msg, a.tasks.keys.Delete):
			return a.deleteTask(), true
		case key.Matches(msg, a.tasks.keys.Move):
			return a.openMovePicker(), true
		case key.Matches(msg, a.tasks.keys.Details):
			return a.toggleDetails(), true
		case key.Matches(msg, a.inputKeys.Cancel) && a.details.Shown():
			return a.hideDetails(), true
		}
	}
	return nil, false
}

func (a *App) isEditing() bool {
	return a.categories.IsEditing() || a.tasks.IsEditing()
}

// forward sends msg to the pane that owns input.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	switch {
	case a.categories.IsEditing():
		return a.categories.Update(msg)
	case a.tasks.IsEditing():
		return a.tasks.Update(msg)
	case a.activePane == PaneCategories:
		return a.categories.Update(msg)
	default:
		return a.tasks.Update(msg)
	}
}

// refresh re-reads every view of the store.
func (a *App) refresh() {
	a.categories.Refresh()
	a.tasks.Refresh()
	a.syncDetails()
}

func (a *App) syncDetails() {
	if row, ok := a.tasks.Selected(); ok {
		a.details.SetTask(a.tasks.Category(), row.task)
		return
	}
	a.details.ClearTask()
}

func (a *App) reportStoreResult(status string, err error) {
	switch {
	case err == nil:
		if status != "" {
			a.SetStatus(status, false)
		}
	case storage.IsValidation(err):
		a.SetStatus(capitalize(err.Error()), true)
	default:
		a.SetStatus("Save failed: "+err.Error(), true)
	}
}

// =============================================================================
// Actions
// =============================================================================

func (a *App) clearCompleted() tea.Cmd {
	done := 0
	for _, name := range a.store.CategoryNames() {
		d, _ := a.store.Counts(name)
		done += d
	}
	if done == 0 {
		a.SetStatus("No completed tasks", false)
		return nil
	}

	run := func() tea.Cmd {
		n, err := a.store.ClearCompleted(a.ctx)
		a.refresh()
		return changed(fmt.Sprintf("Cleared %d completed %s", n, plural(n, "task", "tasks")), err)
	}
	if !a.config.ConfirmDeletions {
		return run()
	}
	a.confirm = &confirmState{
		title: "Clear completed tasks?",
		body:  fmt.Sprintf("%d completed %s in all categories will be removed.", done, plural(done, "task", "tasks")),
		run:   run,
	}
	return nil
}

func (a *App) deleteCategory() tea.Cmd {
	name, ok := a.categories.Selected()
	if !ok {
		a.SetStatus("No category selected", true)
		return nil
	}
	if len(a.store.CategoryNames()) <= 1 {
		a.SetStatus(capitalize(storage.ErrLastCategory.Error()), true)
		return nil
	}
	if !a.config.ConfirmDeletions {
		cmd := a.categories.DeleteSelected()
		a.refresh()
		return cmd
	}
	_, total := a.store.Counts(name)
	a.confirm = &confirmState{
		title: "Delete category?",
		body:  fmt.Sprintf("%s and its %d %s", truncateText(name, 40), total, plural(total, "task", "tasks")),
		run: func() tea.Cmd {
			cmd := a.categories.DeleteSelected()
			a.refresh()
			return cmd
		},
	}
	return nil
}

func (a *App) deleteTask() tea.Cmd {
	row, ok := a.tasks.Selected()
	if !ok {
		a.SetStatus("No task selected", true)
		return nil
	}
	if !a.config.ConfirmDeletions {
		cmd := a.tasks.DeleteSelected()
		a.refresh()
		return cmd
	}
	a.confirm = &confirmState{
		title: "Delete task?",
		body:  truncateText(row.task.Text, 60),
		run: func() tea.Cmd {
			cmd := a.tasks.DeleteSelected()
			a.refresh()
			return cmd
		},
	}
	return nil
}

func (a *App) openMovePicker() tea.Cmd {
	if _, ok := a.tasks.Selected(); !ok {
		a.SetStatus("No task selected", true)
		return nil
	}
	var targets []string
	for _, name := range a.store.CategoryNames() {
		if name != a.tasks.Category() {
			targets = append(targets, name)
		}
	}
	if len(targets) == 0 {
		a.SetStatus("No other category to move to", true)
		return nil
	}
	a.picker = &pickerState{
		title:   "Move task to",
		options: targets,
		run: func(target string) tea.Cmd {
			cmd := a.tasks.MoveSelected(target)
			a.refresh()
			return cmd
		},
	}
	return nil
}

func (a *App) openExportPrompt() tea.Cmd {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 512
	ti.Width = max(20, a.width-20)
	ti.SetValue(filepath.Join(a.config.ExportDir, ExportFile))
	ti.CursorEnd()
	ti.Focus()

	a.prompt = &promptState{
		title: "Export to",
		input: ti,
		run: func(path string) tea.Cmd {
			if path == "" {
				a.SetStatus("Export path cannot be empty", true)
				return nil
			}
			a.SetStatus("Exporting...", false)
			return exportCmd(path, a.store.Snapshot())
		},
	}
	return textinput.Blink
}

func (a *App) toggleDetails() tea.Cmd {
	if a.details.Shown() {
		return a.hideDetails()
	}
	if a.narrow {
		a.SetStatus("Window too narrow for details", true)
		return nil
	}
	if _, ok := a.tasks.Selected(); !ok {
		a.SetStatus("No task selected", true)
		return nil
	}
	if a.details.Show(a.now()) {
		return frameCmd()
	}
	a.updateLayout()
	return nil
}

func (a *App) hideDetails() tea.Cmd {
	if a.details.Hide(a.now()) {
		return frameCmd()
	}
	a.updateLayout()
	return nil
}

// =============================================================================
// Overlays
// =============================================================================

func (a *App) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "y" || msg.String() == "Y" || key.Matches(msg, a.inputKeys.Confirm):
		run := a.confirm.run
		a.confirm = nil
		return a, run()
	case msg.String() == "n" || msg.String() == "N" || key.Matches(msg, a.inputKeys.Cancel):
		a.confirm = nil
		a.SetStatus("Canceled", false)
	}
	return a, nil
}

func (a *App) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cursor, moved := a.navKeys.step(msg, a.picker.cursor, len(a.picker.options)); moved {
		a.picker.cursor = cursor
		return a, nil
	}
	switch {
	case key.Matches(msg, a.inputKeys.Confirm):
		choice := a.picker.options[a.picker.cursor]
		run := a.picker.run
		a.picker = nil
		return a, run(choice)
	case key.Matches(msg, a.inputKeys.Cancel):
		a.picker = nil
		a.SetStatus("Canceled", false)
	}
	return a, nil
}

func (a *App) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.inputKeys.Confirm):
		value := strings.TrimSpace(a.prompt.input.Value())
		run := a.prompt.run
		a.prompt = nil
		return a, run(value)
	case key.Matches(msg, a.inputKeys.Cancel):
		a.prompt = nil
		a.SetStatus("Canceled", false)
		return a, nil
	}
	var cmd tea.Cmd
	a.prompt.input, cmd = a.prompt.input.Update(msg)
	return a, cmd
}

// =============================================================================
// Layout
// =============================================================================

// setActivePane sets the active pane and updates focus states.
func (a *App) setActivePane(pane PaneID) {
	a.activePane = pane
	a.categories.SetFocused(pane == PaneCategories)
	a.tasks.SetFocused(pane == PaneTasks)
}

// updateLayout recalculates pane sizes based on terminal dimensions.
func (a *App) updateLayout() {
	// Leave room for title bar and help bar
	contentHeight := max(10, a.height-4)
	totalWidth := max(40, a.width-2)

	threshold := a.config.NarrowLayoutThreshold
	if threshold <= 0 {
		threshold = 80
	}
	a.narrow = a.width < threshold

	a.helpOverlay.SetSize(a.width, a.height)

	// Pane widths exclude their two border columns.
	sidebarWidth := min(30, max(18, totalWidth/4))
	detailsWidth := min(40, max(24, totalWidth/3))
	a.details.SetSize(detailsWidth, contentHeight)

	used := sidebarWidth + 2 + 1
	if !a.narrow {
		if w := a.details.VisibleWidth(); w > 0 {
			used += min(w, detailsWidth) + 2 + 1
		}
	}
	tasksWidth := max(20, totalWidth-used-2)

	a.categories.SetSize(sidebarWidth, contentHeight)
	a.tasks.SetSize(tasksWidth, contentHeight)
}

// =============================================================================
// View
// =============================================================================

// View renders the entire app.
func (a *App) View() string {
	if a.quitting {
		return a.renderGoodbye()
	}
	if a.confirm != nil {
		return a.renderConfirm()
	}
	if a.picker != nil {
		return a.renderPicker()
	}
	if a.showHelp {
		return a.helpOverlay.View()
	}

	var b strings.Builder
	b.WriteString(a.renderTitleBar())
	b.WriteString("\n")

	parts := []string{a.categories.View(), " ", a.tasks.View()}
	if !a.narrow {
		if details := a.details.View(); details != "" {
			parts = append(parts, " ", details)
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	b.WriteString("\n")

	if a.prompt != nil {
		b.WriteString(a.styles.InputPromptStyle.Render(a.prompt.title+": ") + a.prompt.input.View())
	} else {
		b.WriteString(a.renderHelpBar())
	}
	return b.String()
}

func (a *App) overlayStyle(border lipgloss.Color) lipgloss.Style {
	overlayWidth := 60
	if a.width > 0 {
		overlayWidth = min(60, max(20, a.width-4))
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2).
		Width(overlayWidth)
}

func (a *App) renderConfirm() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(a.styles.ColorDanger)

	bodyStyle := lipgloss.NewStyle().
		Foreground(a.styles.ColorText)

	hintStyle := lipgloss.NewStyle().
		Foreground(a.styles.ColorTextMuted)

	var b strings.Builder
	b.WriteString(titleStyle.Render(a.confirm.title))
	b.WriteString("\n\n")
	b.WriteString(bodyStyle.Render(a.confirm.body))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("[y/enter] confirm    [n/esc] cancel"))

	content := a.overlayStyle(a.styles.ColorDanger).Render(b.String())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, content)
}

func (a *App) renderPicker() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(a.styles.ColorPrimary)

	hintStyle := lipgloss.NewStyle().
		Foreground(a.styles.ColorTextMuted)

	var b strings.Builder
	b.WriteString(titleStyle.Render(a.picker.title))
	b.WriteString("\n\n")
	for i, name := range a.picker.options {
		if i == a.picker.cursor {
			b.WriteString(a.styles.CategorySelectedStyle.Render("▸ " + name))
		} else {
			b.WriteString(a.styles.CategoryStyle.Render("  " + name))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("[enter] move    [esc] cancel"))

	content := a.overlayStyle(a.styles.ColorPrimary).Render(b.String())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, content)
}

// totals sums task counts over all categories.
func (a *App) totals() (done, total int) {
	for _, name := range a.store.CategoryNames() {
		d, t := a.store.Counts(name)
		done += d
		total += t
	}
	return done, total
}

// renderGoodbye shows an exit message with a summary.
func (a *App) renderGoodbye() string {
	done, total := a.totals()

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  See you later!\n")
	b.WriteString("\n")
	if total > 0 {
		pct := (done * 100) / total
		b.WriteString(fmt.Sprintf("  Tasks: %d/%d done (%d%%)\n", done, total, pct))
		b.WriteString("\n")
	}
	return b.String()
}

// renderTitleBar creates the top title bar with stats and the date.
func (a *App) renderTitleBar() string {
	title := a.styles.TitleStyle.Render("tasklist")

	done, total := a.totals()
	stats := a.styles.StatLabelStyle.Render(fmt.Sprintf("All tasks: %d/%d", done, total))
	date := a.styles.StatLabelStyle.Render(a.now().Format("Mon Jan 2 · 15:04"))

	used := lipgloss.Width(title) + lipgloss.Width(stats) + lipgloss.Width(date) + 2
	spacer := max(2, a.width-used)

	return title + "  " + stats + strings.Repeat(" ", spacer) + date
}

// renderHelpBar creates the bottom help bar with context-sensitive hints.
func (a *App) renderHelpBar() string {
	if a.status != "" {
		if a.statusErr {
			return a.styles.ErrorStyle.Render(a.status)
		}
		return a.styles.StatusStyle.Render(a.status)
	}

	if a.isEditing() {
		return a.styles.RenderHelp(
			"enter", "save",
			"esc", "cancel",
		)
	}

	switch a.activePane {
	case PaneCategories:
		return a.styles.RenderHelp(
			"enter", "select",
			"a", "add",
			"r", "rename",
			"x", "del",
			"K/J", "reorder",
			"tab", "tasks",
			"?", "help",
		)
	default:
		return a.styles.RenderHelp(
			"a", "add",
			"space", "done",
			"e", "edit",
			"m", "move",
			"x", "del",
			"enter", "details",
			"tab", "categories",
			"?", "help",
		)
	}
}

// SetStatus sets a status message to display to the user.
func (a *App) SetStatus(msg string, isErr bool) {
	a.status = msg
	a.statusErr = isErr
	ttl := 5 * time.Second
	if isErr {
		ttl = 8 * time.Second
	}
	a.statusUntil = a.now().Add(ttl)
}

func truncateText(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	app := NewApp(ctx, opts)
	p := tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
