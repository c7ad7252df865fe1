package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/SEP490-G11/Project-Round/internal/api"
	"github.com/SEP490-G11/Project-Round/internal/keys"
	"github.com/SEP490-G11/Project-Round/internal/model"
	"github.com/SEP490-G11/Project-Round/internal/store"
	"github.com/SEP490-G11/Project-Round/internal/theme"
)

// NotificationsLoadedMsg carries a fetched notification page. FromCache
// is set when the server was unreachable and the local snapshot served
// the list instead.
type NotificationsLoadedMsg struct {
	Notifications []model.Notification
	FromCache     bool
	Err           error
}

// MarkedReadMsg reports the outcome of a mark-read mutation. ID is zero
// for mark-all.
type MarkedReadMsg struct {
	ID  int64
	All bool
	Err error
}

// OpenTaskMsg asks the app to open the task a notification points at.
type OpenTaskMsg struct {
	TaskID int64
}

// Model is the notification panel: a scrolling list with per-item and
// bulk mark-read actions. Reads are mirrored into the snapshot cache so
// the unread count survives restarts.
type Model struct {
	api   *api.NotificationAPI
	cache store.Store
	keys  *keys.KeyMap

	items   []model.Notification
	cursor  int
	offline bool
	loading bool
	errText string
	width   int
	height  int
}

// New creates the notification panel.
func New(napi *api.NotificationAPI, cache store.Store, k *keys.KeyMap, width, height int) Model {
	return Model{
		api:    napi,
		cache:  cache,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Load fetches the latest notifications, mirroring them into the local
// snapshot. On transport failure it falls back to cached unread items.
func (m Model) Load() tea.Cmd {
	napi := m.api
	cache := m.cache
	return func() tea.Msg {
		ctx := context.Background()
		items, err := napi.List(ctx, api.NotificationListParams{Page: 0, Size: 50})
		if err != nil {
			if api.IsUnauthorized(err) || api.IsValidation(err) {
				return NotificationsLoadedMsg{Err: err}
			}
			cached, cacheErr := cache.UnreadNotifications(ctx)
			if cacheErr != nil {
				return NotificationsLoadedMsg{Err: err}
			}
			return NotificationsLoadedMsg{Notifications: cached, FromCache: true}
		}
		if err := cache.UpsertNotifications(ctx, items); err != nil {
			return NotificationsLoadedMsg{Notifications: items, Err: err}
		}
		return NotificationsLoadedMsg{Notifications: items}
	}
}

// Init loads the first page.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Update handles list navigation and mark-read actions.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case NotificationsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.errText = api.UserMessage(msg.Err)
			return m, nil
		}
		m.errText = ""
		m.items = msg.Notifications
		m.offline = msg.FromCache
		if m.cursor >= len(m.items) {
			m.cursor = 0
		}
		return m, nil

	case MarkedReadMsg:
		if msg.Err != nil {
			m.errText = api.UserMessage(msg.Err)
			return m, nil
		}
		return m, m.Load()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Refresh):
			m.loading = true
			return m, m.Load()
		case key.Matches(msg, m.keys.MarkRead):
			if n := m.selected(); n != nil && n.Unread() {
				return m, m.markRead(n.ID)
			}
		case key.Matches(msg, m.keys.MarkAllRead):
			if len(m.items) > 0 {
				return m, m.markAllRead()
			}
		case key.Matches(msg, m.keys.Select):
			if n := m.selected(); n != nil && n.TaskID != 0 {
				taskID := n.TaskID
				cmds := []tea.Cmd{func() tea.Msg { return OpenTaskMsg{TaskID: taskID} }}
				if n.Unread() {
					cmds = append(cmds, m.markRead(n.ID))
				}
				return m, tea.Batch(cmds...)
			}
		}
	}
	return m, nil
}

func (m Model) selected() *model.Notification {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil
	}
	return &m.items[m.cursor]
}

func (m Model) markRead(id int64) tea.Cmd {
	napi := m.api
	cache := m.cache
	return func() tea.Msg {
		ctx := context.Background()
		if err := napi.MarkRead(ctx, id); err != nil {
			return MarkedReadMsg{ID: id, Err: err}
		}
		if err := cache.MarkNotificationRead(ctx, id); err != nil {
			return MarkedReadMsg{ID: id, Err: err}
		}
		return MarkedReadMsg{ID: id}
	}
}

func (m Model) markAllRead() tea.Cmd {
	napi := m.api
	cache := m.cache
	return func() tea.Msg {
		ctx := context.Background()
		if err := napi.MarkAllRead(ctx); err != nil {
			return MarkedReadMsg{All: true, Err: err}
		}
		if err := cache.MarkAllNotificationsRead(ctx); err != nil {
			return MarkedReadMsg{All: true, Err: err}
		}
		return MarkedReadMsg{All: true}
	}
}

// UnreadCount returns the number of unread items currently held.
func (m Model) UnreadCount() int {
	count := 0
	for _, n := range m.items {
		if n.Unread() {
			count++
		}
	}
	return count
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// StatusLine describes the panel state for the status bar.
func (m Model) StatusLine() string {
	if m.loading {
		return "loading notifications..."
	}
	line := fmt.Sprintf("%d notifications · %d unread", len(m.items), m.UnreadCount())
	if m.offline {
		line += " · offline (cached)"
	}
	return line
}

// View renders the notification list.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render("Notifications"))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(theme.HelpStyle.Render("No notifications."))
	}

	visible := m.height - 6
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := start + visible
	if end > len(m.items) {
		end = len(m.items)
	}

	for i := start; i < end; i++ {
		n := m.items[i]
		badge := "  "
		if n.Unread() {
			badge = theme.UnreadBadgeStyle.Render("● ")
		}
		line := fmt.Sprintf("%s%s  %s", badge, n.Message, relativeTime(n.CreatedAt))
		if i == m.cursor {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.errText != "" {
		b.WriteString("\n")
		b.WriteString(theme.ErrorStyle.Render(m.errText))
	}
	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("enter open task · m mark read · M mark all · r refresh · esc back"))
	return b.String()
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
