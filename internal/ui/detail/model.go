package detail

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/SEP490-G11/Project-Round/internal/api"
	"github.com/SEP490-G11/Project-Round/internal/keys"
	"github.com/SEP490-G11/Project-Round/internal/model"
	"github.com/SEP490-G11/Project-Round/internal/theme"
)

// DetailLoadedMsg is sent when the task detail aggregate has been fetched.
type DetailLoadedMsg struct {
	Detail *model.TaskDetail
	Err    error
}

// MutationDoneMsg is sent after a mutation round-trips to the server.
// Every successful mutation triggers a full re-fetch of the detail view
// rather than an optimistic local patch.
type MutationDoneMsg struct {
	TaskID int64
	Err    error
}

// inputTarget tracks what the inline text input is collecting.
type inputTarget int

const (
	inputNone inputTarget = iota
	inputComment
	inputSubTask
)

// Model is the task detail view: the task with its subtasks, comments,
// and activity log.
type Model struct {
	tasks    *api.TaskAPI
	keys     *keys.KeyMap
	viewport viewport.Model
	detail   *model.TaskDetail
	taskID   int64
	subIndex int

	input       textinput.Model
	inputFor    inputTarget
	width       int
	height      int
}

// New creates a new detail model.
func New(tasks *api.TaskAPI, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Width = width - 4

	return Model{
		tasks:    tasks,
		keys:     k,
		viewport: vp,
		input:    ti,
		width:    width,
		height:   height,
	}
}

// Load begins fetching the detail aggregate for taskID.
func (m *Model) Load(taskID int64) tea.Cmd {
	m.taskID = taskID
	m.detail = nil
	m.subIndex = 0
	tasksAPI := m.tasks

	return func() tea.Msg {
		detail, err := tasksAPI.Detail(context.Background(), taskID)
		return DetailLoadedMsg{Detail: detail, Err: err}
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		if msg.Err != nil {
			return m, nil
		}
		m.detail = msg.Detail
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case MutationDoneMsg:
		if msg.Err != nil {
			return m, nil
		}
		return m, m.Load(msg.TaskID)

	case tea.KeyMsg:
		if m.inputFor != inputNone {
			return m.handleInputKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleInputKeys collects text for a comment or a new subtask.
func (m Model) handleInputKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		target := m.inputFor
		m.inputFor = inputNone
		m.input.SetValue("")
		if value == "" {
			return m, nil
		}
		taskID := m.taskID
		tasksAPI := m.tasks
		return m, func() tea.Msg {
			ctx := context.Background()
			var err error
			switch target {
			case inputComment:
				_, err = tasksAPI.AddComment(ctx, taskID, value)
			case inputSubTask:
				_, err = tasksAPI.CreateSubTask(ctx, taskID, value)
			}
			return MutationDoneMsg{TaskID: taskID, Err: err}
		}
	case "esc":
		m.inputFor = inputNone
		m.input.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Comment):
		m.inputFor = inputComment
		m.input.Placeholder = "add a comment..."
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.NewTask):
		m.inputFor = inputSubTask
		m.input.Placeholder = "new subtask title..."
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Transition):
		if m.detail == nil {
			return m, nil
		}
		next := nextStatus(m.detail.Task.Status)
		taskID := m.taskID
		tasksAPI := m.tasks
		return m, func() tea.Msg {
			_, err := tasksAPI.UpdateStatus(context.Background(), taskID, next)
			return MutationDoneMsg{TaskID: taskID, Err: err}
		}

	case key.Matches(msg, m.keys.SubTask):
		if m.detail == nil || len(m.detail.SubTasks) == 0 {
			return m, nil
		}
		sub := m.detail.SubTasks[m.subIndex%len(m.detail.SubTasks)]
		done := !sub.Done
		taskID := m.taskID
		tasksAPI := m.tasks
		return m, func() tea.Msg {
			_, err := tasksAPI.PatchSubTask(
				context.Background(), taskID, sub.ID,
				api.PatchSubTaskRequest{Done: &done},
			)
			return MutationDoneMsg{TaskID: taskID, Err: err}
		}

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Load(m.taskID)

	case msg.String() == "J":
		if m.detail != nil && len(m.detail.SubTasks) > 0 {
			m.subIndex = (m.subIndex + 1) % len(m.detail.SubTasks)
			m.viewport.SetContent(m.renderContent())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// Typing reports whether the inline input currently owns the keyboard.
func (m Model) Typing() bool {
	return m.inputFor != inputNone
}

// Detail returns the currently loaded aggregate, or nil while loading.
func (m Model) Detail() *model.TaskDetail {
	return m.detail
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.input.Width = width - 4
	if m.detail != nil {
		m.viewport.SetContent(m.renderContent())
	}
}

// View renders the detail panel.
func (m Model) View() string {
	if m.detail == nil {
		return theme.HelpStyle.Render("loading task...")
	}
	if m.inputFor != inputNone {
		return m.input.View() + "\n" + m.viewport.View()
	}
	return m.viewport.View()
}

// renderContent lays out the aggregate as scrollable text.
func (m Model) renderContent() string {
	d := m.detail
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("#%d %s", d.Task.ID, d.Task.Title),
	)
	b.WriteString(title + "\n")
	b.WriteString(theme.StatusStyle(d.Task.Status).Render(string(d.Task.Status)))
	b.WriteString(" ")
	b.WriteString(theme.PriorityStyle(d.Task.Priority).Render(string(d.Task.Priority)))
	if d.Task.Assignee != nil {
		b.WriteString("  " + theme.HelpStyle.Render("assigned to "+d.Task.Assignee.FullName))
	}
	if d.Task.DueDate != "" {
		b.WriteString("  " + theme.HelpStyle.Render("due "+d.Task.DueDate))
	}
	b.WriteString("\n")
	if len(d.Task.Tags) > 0 {
		b.WriteString(theme.HelpStyle.Render("["+strings.Join(d.Task.Tags, "] [")+"]") + "\n")
	}
	b.WriteString("\n")

	if d.Task.Description != "" {
		b.WriteString(d.Task.Description + "\n\n")
	}

	if len(d.SubTasks) > 0 {
		b.WriteString(lipgloss.NewStyle().Bold(true).Render("Subtasks") + "\n")
		for i, sub := range d.SubTasks {
			mark := "○"
			if sub.Done {
				mark = "✓"
			}
			line := fmt.Sprintf("%s %s", mark, sub.Title)
			if i == m.subIndex%len(d.SubTasks) {
				line = theme.SelectedItemStyle.Render(line)
			} else {
				line = theme.ListItemStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	if len(d.Comments) > 0 {
		b.WriteString(lipgloss.NewStyle().Bold(true).Render("Comments") + "\n")
		for _, c := range d.Comments {
			b.WriteString(fmt.Sprintf("%s %s\n",
				theme.HelpStyle.Render(c.Author.FullName+" · "+c.CreatedAt.Format("Jan 2 15:04")),
				"",
			))
			b.WriteString("  " + c.Content + "\n")
		}
		b.WriteString("\n")
	}

	if len(d.Logs) > 0 {
		b.WriteString(lipgloss.NewStyle().Bold(true).Render("Activity") + "\n")
		for _, l := range d.Logs {
			entry := fmt.Sprintf("%s %s %s", l.Actor.FullName, strings.ToLower(l.Action), l.FieldName)
			if l.OldValue != "" || l.NewValue != "" {
				entry += fmt.Sprintf(": %s → %s", l.OldValue, l.NewValue)
			}
			b.WriteString(theme.HelpStyle.Render(entry) + "\n")
		}
	}

	return theme.DetailPanelStyle.Width(m.width - 4).Render(b.String())
}

// nextStatus cycles the workflow status. The server enforces the legal
// transitions; the client only proposes the next one.
func nextStatus(s model.TaskStatus) model.TaskStatus {
	switch s {
	case model.StatusTodo:
		return model.StatusInProgress
	case model.StatusInProgress:
		return model.StatusDone
	default:
		return model.StatusTodo
	}
}
