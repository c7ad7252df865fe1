package tasklist

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/SEP490-G11/Project-Round/internal/api"
	"github.com/SEP490-G11/Project-Round/internal/keys"
	"github.com/SEP490-G11/Project-Round/internal/model"
	"github.com/SEP490-G11/Project-Round/internal/store"
)

// TasksLoadedMsg is sent when a page of tasks has been fetched from the
// server, or recovered from the local cache when the server is unreachable.
type TasksLoadedMsg struct {
	Tasks      []model.Task
	Page       int
	TotalPages int
	FromCache  bool
	Err        error
}

// SelectedTaskMsg is sent when a user selects a task to view details.
type SelectedTaskMsg struct {
	TaskID int64
}

// statusFilters are cycled by the status filter key; empty means all.
var statusFilters = []model.TaskStatus{
	"", model.StatusTodo, model.StatusInProgress, model.StatusDone,
}

// priorityFilters are cycled by the priority filter key; empty means all.
var priorityFilters = []model.TaskPriority{
	"", model.PriorityHigh, model.PriorityMedium, model.PriorityLow,
}

// sortModes defines the available sort modes cycled by Tab, in the
// "field,direction" form the server expects.
var sortModes = []string{
	"updatedAt,desc",
	"priority,desc",
	"dueDate,asc",
	"title,asc",
	"createdAt,desc",
}

// Model is the main task list view component. It renders server pages and
// upserts every fetched page into the snapshot cache so the list can
// degrade to cached data when the server is unreachable.
type Model struct {
	list        list.Model
	tasks       *api.TaskAPI
	cache       store.Store
	keys        *keys.KeyMap
	params      api.TaskListParams
	sortIndex   int
	statusIdx   int
	priorityIdx int
	totalPages  int
	fromCache   bool
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new task list model.
func New(tasks *api.TaskAPI, cache store.Store, k *keys.KeyMap, pageSize, width, height int) Model {
	delegate := TaskDelegate{}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	si := textinput.New()
	si.Placeholder = "search tasks..."
	si.Prompt = "/ "
	si.Width = width - 4

	if pageSize <= 0 {
		pageSize = 20
	}

	return Model{
		list:  l,
		tasks: tasks,
		cache: cache,
		keys:  k,
		params: api.TaskListParams{
			Page: 0,
			Size: pageSize,
			Sort: sortModes[0],
		},
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial page of tasks.
func (m Model) Init() tea.Cmd {
	return m.LoadTasks()
}

// LoadTasks fetches the current page from the server. On a transport
// failure it falls back to the snapshot cache; API rejections surface in
// the loaded message so the view can show a transient notice.
func (m Model) LoadTasks() tea.Cmd {
	params := m.params
	tasksAPI := m.tasks
	cache := m.cache

	return func() tea.Msg {
		ctx := context.Background()

		page, err := tasksAPI.List(ctx, params)
		if err == nil {
			// Refresh the snapshot cache in passing; a cache write failure
			// never blocks the view.
			_ = cache.UpsertTasks(ctx, page.Content)
			return TasksLoadedMsg{
				Tasks:      page.Content,
				Page:       page.Number,
				TotalPages: page.TotalPages,
			}
		}

		if api.IsValidation(err) || api.IsUnauthorized(err) {
			return TasksLoadedMsg{Err: err}
		}

		// Server unreachable: degrade to cached snapshots.
		cached, cacheErr := cache.GetTasks(ctx, store.TaskFilter{
			Status:   optionalStatus(params.Status),
			Priority: optionalPriority(params.Priority),
			Query:    optionalString(params.Query),
			SortBy:   "updated_at",
			SortDesc: true,
			Limit:    params.Size,
			Offset:   params.Page * params.Size,
		})
		if cacheErr != nil || len(cached) == 0 {
			return TasksLoadedMsg{Err: err}
		}
		return TasksLoadedMsg{Tasks: cached, FromCache: true, Err: err}
	}
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TasksLoadedMsg:
		if msg.Err != nil && len(msg.Tasks) == 0 {
			return m, nil
		}
		m.fromCache = msg.FromCache
		m.totalPages = msg.TotalPages
		items := make([]list.Item, len(msg.Tasks))
		for i, task := range msg.Tasks {
			items[i] = TaskItem{Task: task}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.params.Query = m.searchInput.Value()
		m.params.Page = 0
		return m, m.LoadTasks()
	case "esc":
		m.searchMode = false
		m.searchInput.SetValue("")
		m.params.Query = ""
		return m, m.LoadTasks()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (list) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Select):
		if item, ok := m.list.SelectedItem().(TaskItem); ok {
			return m, func() tea.Msg {
				return SelectedTaskMsg{TaskID: item.Task.ID}
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.LoadTasks()

	case key.Matches(msg, m.keys.CycleSort):
		m.sortIndex = (m.sortIndex + 1) % len(sortModes)
		m.params.Sort = sortModes[m.sortIndex]
		m.params.Page = 0
		return m, m.LoadTasks()

	case key.Matches(msg, m.keys.FilterStatus):
		m.statusIdx = (m.statusIdx + 1) % len(statusFilters)
		m.params.Status = statusFilters[m.statusIdx]
		m.params.Page = 0
		return m, m.LoadTasks()

	case key.Matches(msg, m.keys.FilterPriority):
		m.priorityIdx = (m.priorityIdx + 1) % len(priorityFilters)
		m.params.Priority = priorityFilters[m.priorityIdx]
		m.params.Page = 0
		return m, m.LoadTasks()

	case key.Matches(msg, m.keys.NextPage):
		if m.totalPages == 0 || m.params.Page < m.totalPages-1 {
			m.params.Page++
			return m, m.LoadTasks()
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		if m.params.Page > 0 {
			m.params.Page--
			return m, m.LoadTasks()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Searching reports whether the search input currently owns the keyboard.
func (m Model) Searching() bool {
	return m.searchMode
}

// Selected returns the task currently under the cursor, or nil.
func (m Model) Selected() *model.Task {
	if item, ok := m.list.SelectedItem().(TaskItem); ok {
		t := item.Task
		return &t
	}
	return nil
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}

// StatusLine summarizes the current filters for the status bar.
func (m Model) StatusLine() string {
	line := fmt.Sprintf("page %d", m.params.Page+1)
	if m.totalPages > 0 {
		line = fmt.Sprintf("page %d/%d", m.params.Page+1, m.totalPages)
	}
	if m.params.Status != "" {
		line += " · " + string(m.params.Status)
	}
	if m.params.Priority != "" {
		line += " · " + string(m.params.Priority)
	}
	if m.params.Query != "" {
		line += " · /" + m.params.Query
	}
	if m.fromCache {
		line += " · offline (cached)"
	}
	return line
}

// View renders the task list.
func (m Model) View() string {
	if m.searchMode {
		return m.searchInput.View() + "\n" + m.list.View()
	}
	return m.list.View()
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalStatus(s model.TaskStatus) *model.TaskStatus {
	if s == "" {
		return nil
	}
	return &s
}

func optionalPriority(p model.TaskPriority) *model.TaskPriority {
	if p == "" {
		return nil
	}
	return &p
}
