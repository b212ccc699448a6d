package nav

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nao1215/quickhire/internal/live"
)

// toastTTL はトーストを表示し続ける時間。
const toastTTL = 4 * time.Second

// maxToasts は同時に表示するトーストの上限。
const maxToasts = 3

// CountMsg は保留中オファー件数の変化を伝えるメッセージ。
type CountMsg struct {
	Count int
}

// ToastMsg はトーストとして表示する通知を伝えるメッセージ。
type ToastMsg struct {
	Notification live.Notification
}

// NavigateMsg は表示中のパスの変化を伝えるメッセージ。
type NavigateMsg struct {
	Path string
}

type toastExpiredMsg struct {
	id int
}

type logoutResultMsg struct {
	err error
}

type toast struct {
	id int
	n  live.Notification
}

// LogoutFunc はログアウトを実行する関数。
type LogoutFunc func() error

// Model はボトムナビゲーションのBubble Teaモデル。
type Model struct {
	layout Layout
	logout LogoutFunc

	path       string
	cursor     int
	menuOpen   bool
	menuCursor int
	count      int

	toasts      []toast
	nextToastID int

	width int
}

// New は新しいModelを生成する。pathは最初に表示しているパス。
func New(layout Layout, path string, logout LogoutFunc) Model {
	m := Model{
		layout: layout,
		logout: logout,
		path:   path,
	}
	for i, it := range layout.Items {
		if it.Active(path) {
			m.cursor = i
			break
		}
	}
	return m
}

// Path は表示中のパスを返す。
func (m Model) Path() string { return m.path }

// Count は表示中の保留中オファー件数を返す。
func (m Model) Count() int { return m.count }

// MenuOpen はメニューが開いているかどうかを返す。
func (m Model) MenuOpen() bool { return m.menuOpen }

// Toasts は表示中の通知を古い順に返す。
func (m Model) Toasts() []live.Notification {
	out := make([]live.Notification, 0, len(m.toasts))
	for _, t := range m.toasts {
		out = append(out, t.n)
	}
	return out
}

// Init はtea.Modelを実装する。
func (m Model) Init() tea.Cmd {
	return nil
}

// Update はtea.Modelを実装する。
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case CountMsg:
		m.count = max(msg.Count, 0)
		return m, nil

	case ToastMsg:
		return m.pushToast(msg.Notification)

	case toastExpiredMsg:
		for i, t := range m.toasts {
			if t.id == msg.id {
				m.toasts = append(m.toasts[:i:i], m.toasts[i+1:]...)
				break
			}
		}
		return m, nil

	case NavigateMsg:
		m.navigate(msg.Path)
		return m, nil

	case logoutResultMsg:
		if msg.err != nil {
			return m.pushToast(live.Notification{
				Title:   "Error",
				Body:    "There was a problem logging out",
				Variant: live.VariantDestructive,
			})
		}
		m.navigate(loginPath)
		return m.pushToast(live.Notification{
			Title:   "Success",
			Body:    "You have been logged out successfully",
			Variant: live.VariantDefault,
		})

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	}

	if m.menuOpen {
		return m.handleMenuKey(msg)
	}

	switch msg.String() {
	case "left", "h":
		if m.cursor > 0 {
			m.cursor--
		}
	case "right", "l":
		if m.cursor < len(m.layout.Items)-1 {
			m.cursor++
		}
	case "enter", " ":
		return m.selectItem(m.layout.Items[m.cursor])
	}
	return m, nil
}

func (m Model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	children := m.layout.Items[m.cursor].Children

	switch msg.String() {
	case "esc":
		m.menuOpen = false
	case "up", "k":
		if m.menuCursor > 0 {
			m.menuCursor--
		}
	case "down", "j":
		if m.menuCursor < len(children)-1 {
			m.menuCursor++
		}
	case "enter", " ":
		m.menuOpen = false
		return m.selectItem(children[m.menuCursor])
	}
	return m, nil
}

func (m Model) selectItem(it Item) (tea.Model, tea.Cmd) {
	switch {
	case len(it.Children) > 0:
		m.menuOpen = true
		m.menuCursor = 0
		return m, nil
	case it.Action == ActionLogout:
		return m, m.logoutCmd()
	default:
		m.navigate(it.Path)
		return m, nil
	}
}

func (m *Model) navigate(path string) {
	m.path = path
	for i, it := range m.layout.Items {
		if it.Active(path) {
			m.cursor = i
			return
		}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	logout := m.logout
	return func() tea.Msg {
		if logout == nil {
			return logoutResultMsg{}
		}
		return logoutResultMsg{err: logout()}
	}
}

func (m Model) pushToast(n live.Notification) (tea.Model, tea.Cmd) {
	id := m.nextToastID
	m.nextToastID++
	m.toasts = append(m.toasts, toast{id: id, n: n})
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
	return m, tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// View はtea.Modelを実装する。
func (m Model) View() string {
	var sections []string

	for _, t := range m.toasts {
		style := toastStyle
		if t.n.Variant == live.VariantDestructive {
			style = destructiveToastStyle
		}
		sections = append(sections, style.Render(menuTitleStyle.Render(t.n.Title)+"\n"+t.n.Body))
	}

	if m.menuOpen {
		sections = append(sections, m.renderMenu())
	}

	cells := make([]string, 0, len(m.layout.Items))
	for i, it := range m.layout.Items {
		cells = append(cells, m.renderItem(i, it))
	}
	bar := barStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	if m.width > 0 {
		bar = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, bar)
	}
	sections = append(sections, bar)

	return strings.Join(sections, "\n")
}

func (m Model) renderItem(i int, it Item) string {
	label := it.Label
	if it.Badge {
		if b := BadgeText(m.count); b != "" {
			label += " " + badgeStyle.Render(b)
		}
	}
	if i == m.cursor {
		label = cursorItemStyle.Render(label)
	}
	if it.Active(m.path) {
		return activeItemStyle.Render(label)
	}
	return itemStyle.Render(label)
}

func (m Model) renderMenu() string {
	parent := m.layout.Items[m.cursor]
	lines := []string{menuTitleStyle.Render(parent.Label), strings.Repeat("─", 12)}
	for i, c := range parent.Children {
		if c.Action == ActionLogout {
			lines = append(lines, strings.Repeat("─", 12))
		}
		prefix := "  "
		if i == m.menuCursor {
			prefix = "> "
		}
		label := c.Label
		if c.Action == ActionLogout {
			label = logoutStyle.Render(label)
		}
		lines = append(lines, prefix+label)
	}
	return menuStyle.Render(strings.Join(lines, "\n"))
}
