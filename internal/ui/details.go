package ui

import (
	"strings"
	"time"

	"tasklist/internal/anim"
	"tasklist/internal/storage"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// DetailsPanel shows every field of the selected task. It slides open and
// closed; while closed it renders nothing.
type DetailsPanel struct {
	styles   *Styles
	slide    *anim.Slide
	text     viewport.Model
	category string
	task     storage.Task
	hasTask  bool
	width    int // fully open width
	height   int
}

// NewDetailsPanel creates a closed panel and registers it with theme.
func NewDetailsPanel(theme *ThemeNotifier, duration time.Duration) *DetailsPanel {
	d := &DetailsPanel{
		slide: anim.NewSlide(duration),
		text:  viewport.New(20, 5),
	}
	theme.Register(d)
	return d
}

// ApplyTheme implements Themed.
func (d *DetailsPanel) ApplyTheme(s *Styles) {
	d.styles = s
	d.text.Style = s.DetailValueStyle
	d.syncContent()
}

// SetSize sets the fully open dimensions.
func (d *DetailsPanel) SetSize(width, height int) {
	d.width = width
	d.height = height
	d.text.Width = max(10, width-4)
	d.text.Height = max(3, height-14)
	d.syncContent()
}

// SetTask sets the task to describe.
func (d *DetailsPanel) SetTask(category string, task storage.Task) {
	if d.hasTask && d.task.ID == task.ID && d.task.Text == task.Text {
		d.category = category
		d.task = task
		return
	}
	d.category = category
	d.task = task
	d.hasTask = true
	d.syncContent()
	d.text.GotoTop()
}

// ClearTask forgets the described task.
func (d *DetailsPanel) ClearTask() {
	d.hasTask = false
	d.task = storage.Task{}
}

// Task returns the described task.
func (d *DetailsPanel) Task() (storage.Task, bool) {
	return d.task, d.hasTask
}

func (d *DetailsPanel) syncContent() {
	if d.styles == nil {
		return
	}
	wrapped := lipgloss.NewStyle().Width(d.text.Width).Render(d.task.Text)
	d.text.SetContent(wrapped)
}

// Show starts opening the panel. It returns true when frames must be
// scheduled.
func (d *DetailsPanel) Show(now time.Time) bool { return d.slide.Show(now) }

// Hide starts closing the panel.
func (d *DetailsPanel) Hide(now time.Time) bool { return d.slide.Hide(now) }

// Shown reports whether the panel is open or opening.
func (d *DetailsPanel) Shown() bool { return d.slide.Shown() }

// Advance moves the animation to now.
func (d *DetailsPanel) Advance(now time.Time) bool { return d.slide.Advance(now) }

// State returns the animation phase.
func (d *DetailsPanel) State() anim.State { return d.slide.State() }

// VisibleWidth is the number of columns the panel currently occupies.
func (d *DetailsPanel) VisibleWidth() int {
	return d.slide.Span(d.width)
}

// View renders the panel clipped to its current animated width.
func (d *DetailsPanel) View() string {
	w := d.VisibleWidth()
	if w == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(d.styles.PaneTitleStyle.Render("DETAILS"))
	b.WriteString("\n\n")

	if !d.hasTask {
		b.WriteString(d.styles.EmptyStyle.Render("No task selected"))
	} else {
		b.WriteString(d.styles.DetailLabelStyle.Render("Text"))
		b.WriteString("\n")
		b.WriteString(d.text.View())
		b.WriteString("\n\n")

		status := "Pending"
		completed := "-"
		if d.task.Completed {
			status = "Completed"
			if d.task.CompletedAt != nil {
				completed = storage.FormatDate(*d.task.CompletedAt)
			}
		}
		d.field(&b, "Category", d.category)
		d.field(&b, "Status", status)
		d.field(&b, "Created", storage.FormatDate(d.task.CreatedAt))
		d.field(&b, "Completed", completed)
	}

	full := d.styles.PaneStyle.Width(d.width).Height(d.height).Render(b.String())
	if w >= d.width {
		return full
	}
	return lipgloss.NewStyle().MaxWidth(w).Render(full)
}

func (d *DetailsPanel) field(b *strings.Builder, label, value string) {
	b.WriteString(d.styles.DetailLabelStyle.Render(label))
	b.WriteString(d.styles.DetailValueStyle.Render(value))
	b.WriteString("\n")
}
