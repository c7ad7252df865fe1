package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/SEP490-G11/Project-Round/internal/api"
	"github.com/SEP490-G11/Project-Round/internal/keys"
	"github.com/SEP490-G11/Project-Round/internal/model"
	"github.com/SEP490-G11/Project-Round/internal/push"
	"github.com/SEP490-G11/Project-Round/internal/realtime"
	"github.com/SEP490-G11/Project-Round/internal/session"
	"github.com/SEP490-G11/Project-Round/internal/store"
	"github.com/SEP490-G11/Project-Round/internal/ui"
	"github.com/SEP490-G11/Project-Round/internal/ui/detail"
	helpview "github.com/SEP490-G11/Project-Round/internal/ui/help"
	loginview "github.com/SEP490-G11/Project-Round/internal/ui/login"
	notifview "github.com/SEP490-G11/Project-Round/internal/ui/notifications"
	"github.com/SEP490-G11/Project-Round/internal/ui/taskform"
	"github.com/SEP490-G11/Project-Round/internal/ui/tasklist"
)

// notificationEventMsg carries a realtime notification pushed by the server.
type notificationEventMsg struct {
	notification model.Notification
}

// sessionExpiredMsg is sent when a token refresh has failed and the
// session was cleared.
type sessionExpiredMsg struct{}

// assigneesLoadedMsg carries the user directory for the task form.
type assigneesLoadedMsg struct {
	users []model.UserBrief
	err   error
}

// taskDeletedMsg reports the outcome of deleting a task from the list.
type taskDeletedMsg struct {
	err error
}

// loggedOutMsg is sent after a logout round trip completes.
type loggedOutMsg struct{}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewList
	ViewDetail
	ViewForm
	ViewNotifications
	ViewHelp
)

// Deps bundles the wired services the root model needs.
type Deps struct {
	Config    *model.AppConfig
	Session   *session.Store
	Client    *api.Client
	Auth      *api.AuthAPI
	Tasks     *api.TaskAPI
	Notifs    *api.NotificationAPI
	Users     *api.UserAPI
	Channel   *realtime.Channel
	Registrar *push.Registrar
	Cache     store.Store
	Logger    *slog.Logger
}

// Model is the root Bubble Tea model that manages view routing, the
// realtime channel lifecycle, and the unread notification badge.
type Model struct {
	deps         Deps
	keys         *keys.KeyMap
	layout       ui.Layout
	currentView  ViewState
	previousView ViewState

	loginView  loginview.Model
	taskList   tasklist.Model
	detailView detail.Model
	formView   taskform.Model
	notifView  notifview.Model
	helpView   helpview.Model

	// eventCh receives notifications from the realtime channel goroutine.
	// Sends are non-blocking; a full buffer drops the event and the next
	// notification reload picks it up.
	eventCh   chan model.Notification
	expiredCh chan struct{}

	// pendingEdit holds the task being edited while the assignee
	// directory loads; nil means the form will open in create mode.
	pendingEdit *model.Task

	ready   bool
	unread  int
	notice  string
	errText string
}

// New creates the root application model.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()

	pageSize := d.Config.Display.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	m := Model{
		deps:        d,
		keys:        k,
		currentView: ViewLogin,
		loginView:   loginview.New(d.Auth, 80, 24),
		taskList:    tasklist.New(d.Tasks, d.Cache, k, pageSize, 80, 24),
		detailView:  detail.New(d.Tasks, k, 80, 24),
		formView:    taskform.New(d.Tasks, 80, 24),
		notifView:   notifview.New(d.Notifs, d.Cache, k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		eventCh:     make(chan model.Notification, 16),
		expiredCh:   make(chan struct{}, 1),
	}

	if d.Session.LoggedIn() {
		m.currentView = ViewList
	}

	d.Client.OnSessionExpired(func() {
		select {
		case m.expiredCh <- struct{}{}:
		default:
		}
	})

	return m
}

// Init starts the session-appropriate view and the expiry watcher.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForExpiry()}
	if m.currentView == ViewList {
		cmds = append(cmds, m.startSession()...)
	} else {
		cmds = append(cmds, m.loginView.Init())
	}
	return tea.Batch(cmds...)
}

// startSession returns the commands run when a logged-in session begins:
// connect the realtime channel, register for push, and load data.
func (m Model) startSession() []tea.Cmd {
	eventCh := m.eventCh
	m.deps.Channel.Connect(func(n model.Notification) {
		select {
		case eventCh <- n:
		default:
		}
	})

	registrar := m.deps.Registrar
	return []tea.Cmd{
		func() tea.Msg {
			registrar.Register(context.Background())
			return nil
		},
		m.taskList.LoadTasks(),
		m.notifView.Load(),
		m.waitForNotification(),
	}
}

// waitForNotification blocks on the realtime event channel and converts
// the next notification into a message.
func (m Model) waitForNotification() tea.Cmd {
	ch := m.eventCh
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationEventMsg{notification: n}
	}
}

// waitForExpiry blocks until a token refresh failure clears the session.
func (m Model) waitForExpiry() tea.Cmd {
	ch := m.expiredCh
	return func() tea.Msg {
		<-ch
		return sessionExpiredMsg{}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		cw := m.layout.ContentWidth()
		ch := m.layout.ContentHeight()
		m.loginView.SetSize(cw, ch)
		m.taskList.SetSize(cw, ch)
		m.detailView.SetSize(cw, ch)
		m.formView.SetSize(cw, ch)
		m.notifView.SetSize(cw, ch)
		m.helpView.SetSize(cw, ch)
		return m.updateActiveView(msg)

	case loginview.LoggedInMsg:
		m.currentView = ViewList
		m.errText = ""
		return m, tea.Batch(m.startSession()...)

	case loginview.DoneMsg:
		// Password change finished; the session is still valid.
		m.currentView = ViewList
		return m, nil

	case sessionExpiredMsg:
		m.deps.Channel.Disconnect()
		m.currentView = ViewLogin
		m.loginView = loginview.New(m.deps.Auth, m.layout.ContentWidth(), m.layout.ContentHeight())
		m.notice = "Session expired, please log in again"
		return m, tea.Batch(m.loginView.Init(), m.waitForExpiry())

	case loggedOutMsg:
		m.currentView = ViewLogin
		m.unread = 0
		m.loginView = loginview.New(m.deps.Auth, m.layout.ContentWidth(), m.layout.ContentHeight())
		m.notice = "Logged out"
		return m, m.loginView.Init()

	case notificationEventMsg:
		m.unread++
		cache := m.deps.Cache
		n := msg.notification
		cmds := []tea.Cmd{
			func() tea.Msg {
				if err := cache.UpsertNotifications(context.Background(), []model.Notification{n}); err != nil {
					return nil
				}
				return nil
			},
			m.waitForNotification(),
		}
		if m.currentView == ViewNotifications {
			cmds = append(cmds, m.notifView.Load())
		}
		return m, tea.Batch(cmds...)

	case tasklist.SelectedTaskMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		return m, m.detailView.Load(msg.TaskID)

	case notifview.OpenTaskMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		return m, m.detailView.Load(msg.TaskID)

	case notifview.NotificationsLoadedMsg:
		var cmd tea.Cmd
		m.notifView, cmd = m.notifView.Update(msg)
		m.unread = m.notifView.UnreadCount()
		return m, cmd

	case notifview.MarkedReadMsg:
		var cmd tea.Cmd
		m.notifView, cmd = m.notifView.Update(msg)
		return m, cmd

	case taskform.TaskSavedMsg:
		if msg.Err != nil {
			var cmd tea.Cmd
			m.formView, cmd = m.formView.Update(msg)
			return m, cmd
		}
		m.currentView = ViewList
		return m, m.taskList.LoadTasks()

	case taskform.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case assigneesLoadedMsg:
		// A directory load failure still opens the form; the assignee
		// selector just offers "unassigned".
		if msg.err == nil {
			m.formView.SetAssignees(msg.users)
		}
		if m.currentView != ViewForm {
			return m, nil
		}
		if m.pendingEdit != nil {
			task := *m.pendingEdit
			m.pendingEdit = nil
			return m, m.formView.StartEdit(task)
		}
		return m, m.formView.StartCreate()

	case taskDeletedMsg:
		if msg.err != nil {
			m.errText = api.UserMessage(msg.err)
			return m, nil
		}
		return m, m.taskList.LoadTasks()

	case detail.MutationDoneMsg:
		var cmd tea.Cmd
		m.detailView, cmd = m.detailView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if handled, next, cmd := m.handleGlobalKeys(msg); handled {
			return next, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that apply regardless of the active
// view. Forms keep full key ownership while they are on screen.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.deps.Channel.Disconnect()
		return true, m, tea.Quit
	}

	// Text-entry views consume everything else.
	if m.currentView == ViewLogin || m.currentView == ViewForm {
		return false, m, nil
	}
	if m.currentView == ViewList && m.taskList.Searching() {
		return false, m, nil
	}
	if m.currentView == ViewDetail && m.detailView.Typing() {
		return false, m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.deps.Channel.Disconnect()
		return true, m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case key.Matches(msg, m.keys.Back):
		switch m.currentView {
		case ViewDetail, ViewNotifications, ViewHelp:
			m.currentView = ViewList
			return true, m, m.taskList.LoadTasks()
		}
		return false, m, nil

	case key.Matches(msg, m.keys.Notifications):
		if m.currentView == ViewList {
			m.previousView = m.currentView
			m.currentView = ViewNotifications
			return true, m, m.notifView.Load()
		}

	case key.Matches(msg, m.keys.NewTask):
		if m.currentView == ViewList && m.deps.Session.IsAdmin() {
			m.previousView = m.currentView
			m.currentView = ViewForm
			m.pendingEdit = nil
			return true, m, m.loadAssignees()
		}

	case key.Matches(msg, m.keys.EditTask):
		if m.currentView == ViewList && m.deps.Session.IsAdmin() {
			if task := m.taskList.Selected(); task != nil {
				m.previousView = m.currentView
				m.currentView = ViewForm
				m.pendingEdit = task
				return true, m, m.loadAssignees()
			}
		}

	case key.Matches(msg, m.keys.DeleteTask):
		if m.currentView == ViewList && m.deps.Session.IsAdmin() {
			if task := m.taskList.Selected(); task != nil {
				return true, m, m.deleteTask(task.ID)
			}
		}

	case msg.String() == "ctrl+l":
		return true, m, m.logout()

	case msg.String() == "ctrl+p":
		m.previousView = m.currentView
		m.currentView = ViewLogin
		m.loginView = loginview.New(m.deps.Auth, m.layout.ContentWidth(), m.layout.ContentHeight())
		return true, m, m.loginView.StartChangePassword()
	}

	return false, m, nil
}

// loadAssignees fetches the user directory for the assignee picker.
func (m Model) loadAssignees() tea.Cmd {
	users := m.deps.Users
	return func() tea.Msg {
		list, err := users.List(context.Background())
		return assigneesLoadedMsg{users: list, err: err}
	}
}

// deleteTask removes a task on the server.
func (m Model) deleteTask(id int64) tea.Cmd {
	tasks := m.deps.Tasks
	return func() tea.Msg {
		return taskDeletedMsg{err: tasks.Delete(context.Background(), id)}
	}
}

// logout tears down the realtime channel, clears the server session and
// local credentials, and wipes the snapshot cache.
func (m Model) logout() tea.Cmd {
	d := m.deps
	return func() tea.Msg {
		d.Channel.Disconnect()
		if err := d.Auth.Logout(context.Background()); err != nil {
			d.Logger.Warn("logout request failed", "error", err)
		}
		if err := d.Cache.Clear(context.Background()); err != nil {
			d.Logger.Warn("cache clear failed", "error", err)
		}
		return loggedOutMsg{}
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewForm:
		m.formView, cmd = m.formView.Update(msg)
	case ViewNotifications:
		m.notifView, cmd = m.notifView.Update(msg)
		m.unread = m.notifView.UnreadCount()
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Taskboard", m.userLabel(), m.unread)
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.statusLine())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// userLabel describes the logged-in user for the header.
func (m Model) userLabel() string {
	sess := m.deps.Session.Current()
	if !sess.LoggedIn() || sess.Profile == nil {
		return "not logged in"
	}
	return fmt.Sprintf("%s (%s)", sess.Profile.FullName, sess.Profile.Role)
}

// renderContent returns the rendered string for the active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewList:
		return m.taskList.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewForm:
		return m.formView.View()
	case ViewNotifications:
		return m.notifView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// statusLine returns the status bar content for the active view.
func (m Model) statusLine() string {
	if m.errText != "" {
		return m.errText
	}
	if m.notice != "" && m.currentView == ViewLogin {
		return m.notice
	}

	switch m.currentView {
	case ViewList:
		line := m.taskList.StatusLine()
		if m.deps.Channel.State() != realtime.Subscribed && m.deps.Session.LoggedIn() {
			line += " · live updates off"
		}
		return line
	case ViewDetail:
		return "t transition · c comment · s subtask · J next subtask · esc back"
	case ViewNotifications:
		return m.notifView.StatusLine()
	case ViewForm:
		return "enter submit · esc cancel"
	case ViewHelp:
		return "? close"
	default:
		return "ctrl+c quit"
	}
}
