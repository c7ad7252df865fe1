package taskform

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/SEP490-G11/Project-Round/internal/api"
	"github.com/SEP490-G11/Project-Round/internal/model"
	"github.com/SEP490-G11/Project-Round/internal/theme"
)

// TaskSavedMsg is dispatched after the form's create or patch request
// round-trips to the server.
type TaskSavedMsg struct {
	TaskID int64
	Err    error
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	priority    string
	dueDate     string
	tags        string
	assigneeID  int64
}

// Model is the Bubble Tea model for the admin task create/edit form.
type Model struct {
	tasks     *api.TaskAPI
	form      *huh.Form
	fb        *formBindings
	editMode  bool
	editID    int64
	assignees []model.UserBrief
	errText   string
	width     int
	height    int
}

// New creates a new task form model.
func New(tasks *api.TaskAPI, width, height int) Model {
	return Model{
		tasks:  tasks,
		fb:     &formBindings{priority: string(model.PriorityMedium)},
		width:  width,
		height: height,
	}
}

// SetAssignees sets the users offered by the assignee selector.
func (m *Model) SetAssignees(users []model.UserBrief) {
	m.assignees = users
}

// StartCreate initializes the form for creating a new task.
func (m *Model) StartCreate() tea.Cmd {
	m.editMode = false
	m.editID = 0
	m.errText = ""
	*m.fb = formBindings{priority: string(model.PriorityMedium)}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form for editing an existing task.
func (m *Model) StartEdit(task model.Task) tea.Cmd {
	m.editMode = true
	m.editID = task.ID
	m.errText = ""
	*m.fb = formBindings{
		title:       task.Title,
		description: task.Description,
		priority:    string(task.Priority),
		dueDate:     task.DueDate,
		tags:        joinTags(task.Tags),
	}
	if task.Assignee != nil {
		m.fb.assigneeID = task.Assignee.ID
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// buildForm assembles the huh form over the shared bindings.
func (m *Model) buildForm() *huh.Form {
	assigneeOptions := []huh.Option[int64]{huh.NewOption("unassigned", int64(0))}
	for _, u := range m.assignees {
		assigneeOptions = append(assigneeOptions, huh.NewOption(u.FullName, u.ID))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&m.fb.title).
				Validate(requireNonEmpty),
			huh.NewText().
				Title("Description").
				Value(&m.fb.description),
			huh.NewSelect[string]().
				Title("Priority").
				Options(
					huh.NewOption("High", string(model.PriorityHigh)),
					huh.NewOption("Medium", string(model.PriorityMedium)),
					huh.NewOption("Low", string(model.PriorityLow)),
				).
				Value(&m.fb.priority),
			huh.NewInput().
				Title("Due date (yyyy-mm-dd)").
				Value(&m.fb.dueDate),
			huh.NewInput().
				Title("Tags (comma separated)").
				Value(&m.fb.tags),
			huh.NewSelect[int64]().
				Title("Assignee").
				Options(assigneeOptions...).
				Value(&m.fb.assigneeID),
		),
	).WithWidth(m.width - 4)
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if saved, ok := msg.(TaskSavedMsg); ok && saved.Err != nil {
		// Reopen over the same bindings so typed input survives a
		// rejected submit.
		m.errText = api.UserMessage(saved.Err)
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	if m.form == nil {
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.submit()
	}

	return m, cmd
}

// submit issues the create or patch request from the collected bindings.
func (m Model) submit() (Model, tea.Cmd) {
	fb := *m.fb
	editMode := m.editMode
	editID := m.editID
	tasksAPI := m.tasks
	m.form = nil

	return m, func() tea.Msg {
		ctx := context.Background()
		tags := splitTags(fb.tags)
		priority := model.TaskPriority(fb.priority)

		if editMode {
			req := api.PatchTaskRequest{
				Title:       &fb.title,
				Description: &fb.description,
				Priority:    &priority,
				Tags:        tags,
			}
			if fb.dueDate != "" {
				req.DueDate = &fb.dueDate
			}
			task, err := tasksAPI.Patch(ctx, editID, req)
			if err != nil {
				return TaskSavedMsg{TaskID: editID, Err: err}
			}
			if fb.assigneeID != 0 {
				if _, err := tasksAPI.Assign(ctx, editID, fb.assigneeID); err != nil {
					return TaskSavedMsg{TaskID: editID, Err: err}
				}
			}
			return TaskSavedMsg{TaskID: task.ID}
		}

		req := api.CreateTaskRequest{
			Title:       fb.title,
			Description: fb.description,
			Priority:    priority,
			DueDate:     fb.dueDate,
			Tags:        tags,
		}
		if fb.assigneeID != 0 {
			req.AssigneeID = &fb.assigneeID
		}
		task, err := tasksAPI.Create(ctx, req)
		if err != nil {
			return TaskSavedMsg{Err: err}
		}
		return TaskSavedMsg{TaskID: task.ID}
	}
}

// Active reports whether the form is currently displayed.
func (m Model) Active() bool {
	return m.form != nil
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	title := "New task"
	if m.editMode {
		title = "Edit task"
	}
	header := lipgloss.NewStyle().Bold(true).Render(title)
	out := header + "\n\n" + m.form.View()
	if m.errText != "" {
		out += "\n" + theme.ErrorStyle.Render(m.errText)
	}
	return out + "\n" + theme.HelpStyle.Render("esc to cancel")
}

func requireNonEmpty(s string) error {
	if s == "" {
		return errEmptyTitle
	}
	return nil
}

var errEmptyTitle = validationError("title is required")

type validationError string

func (e validationError) Error() string { return string(e) }

func joinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

func splitTags(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
