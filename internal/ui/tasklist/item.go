package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/SEP490-G11/Project-Round/internal/model"
	"github.com/SEP490-G11/Project-Round/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.Title }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	parts := []string{
		string(i.Task.Status),
		string(i.Task.Priority),
		relativeTime(i.Task.UpdatedAt),
	}
	if i.Task.Assignee != nil {
		parts = append(parts, i.Task.Assignee.FullName)
	}
	return strings.Join(parts, " | ")
}

// TaskDelegate implements list.ItemDelegate for rendering task rows.
type TaskDelegate struct{}

// Height returns the number of lines each item takes.
func (d TaskDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d TaskDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d TaskDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task row.
func (d TaskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}

	t := ti.Task
	status := theme.StatusStyle(t.Status).Render(statusLabel(t.Status))
	priority := theme.PriorityStyle(t.Priority).Render(string(t.Priority))

	assignee := "unassigned"
	if t.Assignee != nil {
		assignee = t.Assignee.FullName
	}

	line := fmt.Sprintf("%s %s %s  %s  %s",
		status, priority, t.Title,
		theme.HelpStyle.Render(assignee),
		theme.HelpStyle.Render(relativeTime(t.UpdatedAt)),
	)

	if index == m.Index() {
		fmt.Fprint(w, theme.SelectedItemStyle.Render(line))
		return
	}
	fmt.Fprint(w, theme.ListItemStyle.Render(line))
}

// statusLabel maps a status to its fixed-width display label.
func statusLabel(s model.TaskStatus) string {
	switch s {
	case model.StatusTodo:
		return "TODO"
	case model.StatusInProgress:
		return "PROG"
	case model.StatusDone:
		return "DONE"
	default:
		return "????"
	}
}

// relativeTime renders a timestamp as a compact age ("3h", "2d").
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
