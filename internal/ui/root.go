package ui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/staffsphere/internal/model"
	"github.com/dori/staffsphere/internal/ui/theme"
	"github.com/dori/staffsphere/internal/ui/views"
)

// Options configures the terminal board
type Options struct {
	Backend views.Backend
	// Subscribe starts the server change feed; nil disables it.
	Subscribe func(ctx context.Context) (<-chan model.Event, <-chan error)
	// ProjectID opens that project's task board at start.
	ProjectID    string
	ProjectTitle string
	// ResyncInterval reloads the board on screen periodically; zero disables it.
	ResyncInterval time.Duration
	Board          views.BoardOptions
}

// RootModel is the main application model that manages the two boards
type RootModel struct {
	keys   KeyMap
	help   help.Model
	width  int
	height int

	currentView View
	tasks       views.BoardView
	projects    views.BoardView
	helpVisible bool

	resyncInterval time.Duration
	events         <-chan model.Event
	feedErrs       <-chan error

	// Status message
	statusMsg string
	errorMsg  string
}

// NewRootModel creates a new root model. The change feed, when enabled,
// runs until ctx is done.
func NewRootModel(ctx context.Context, opts Options) RootModel {
	h := help.New()
	h.ShowAll = false

	m := RootModel{
		keys:           DefaultKeyMap(),
		help:           h,
		currentView:    ViewProjects,
		tasks:          views.NewBoardView(model.KindTask, opts.Backend, opts.Board),
		projects:       views.NewBoardView(model.KindProject, opts.Backend, opts.Board),
		resyncInterval: opts.ResyncInterval,
	}
	if opts.ProjectID != "" {
		title := opts.ProjectTitle
		if title == "" {
			title = opts.ProjectID
		}
		m.tasks, _ = m.tasks.Open(opts.ProjectID, title)
		m.currentView = ViewTasks
	}
	if opts.Subscribe != nil {
		m.events, m.feedErrs = opts.Subscribe(ctx)
	}
	return m
}

// Init loads both boards and starts the feed and resync timers
func (m RootModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.projects.Init(), m.tasks.Init()}
	if m.events != nil {
		cmds = append(cmds, waitForFeed(m.events, m.feedErrs))
	}
	if m.resyncInterval > 0 {
		cmds = append(cmds, resyncTick(m.resyncInterval))
	}
	return tea.Batch(cmds...)
}

func waitForFeed(events <-chan model.Event, errs <-chan error) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return feedClosedMsg{Err: <-errs}
		}
		return feedEventMsg{Event: ev}
	}
}

func resyncTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return resyncTickMsg{} })
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// header line, status line and help line
		contentHeight := m.height - 3
		m.tasks = m.tasks.SetSize(m.width, contentHeight)
		m.projects = m.projects.SetSize(m.width, contentHeight)
		return m, nil

	case tea.KeyMsg:
		// Clear status/error on any keypress
		m.statusMsg = ""
		m.errorMsg = ""

		isInputMode := m.current().IsInputMode()

		switch {
		case key.Matches(msg, m.keys.Quit):
			// ctrl+c always quits, but 'q' only quits when not in input mode
			if msg.String() == "ctrl+c" || !isInputMode {
				return m, tea.Quit
			}

		case key.Matches(msg, m.keys.ThemeCycle):
			next := theme.Next()
			theme.SetTheme(next)
			m.statusMsg = fmt.Sprintf("Theme: %s", next.Name)
			return m, nil
		}

		if isInputMode {
			break
		}

		if m.helpVisible {
			if key.Matches(msg, m.keys.Help) || msg.String() == "esc" {
				m.helpVisible = false
				m.help.ShowAll = false
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Help):
			m.helpVisible = true
			m.help.ShowAll = true
			return m, nil

		case key.Matches(msg, m.keys.TaskBoard):
			m.currentView = ViewTasks
			return m, nil

		case key.Matches(msg, m.keys.ProjectBoard):
			m.currentView = ViewProjects
			return m, nil
		}

	case views.OpenProjectRequest:
		var cmd tea.Cmd
		m.tasks, cmd = m.tasks.Open(msg.ProjectID, msg.Title)
		m.currentView = ViewTasks
		return m, cmd

	case views.ErrorMsg:
		log.Printf("board error: %v", msg.Err)
		m.errorMsg = msg.Err.Error()
		return m, nil

	case views.StatusMsg:
		m.statusMsg = msg.Message
		return m, nil

	case resyncTickMsg:
		return m, tea.Batch(m.current().Refresh(), resyncTick(m.resyncInterval))

	case feedEventMsg:
		return m.handleFeedEvent(msg.Event)

	case feedClosedMsg:
		if msg.Err != nil {
			log.Printf("change feed stopped: %v", msg.Err)
			m.errorMsg = fmt.Sprintf("change feed stopped: %v", msg.Err)
		}
		return m, nil

	case views.Targeted:
		var cmd tea.Cmd
		if msg.Target() == model.KindProject {
			m.projects, cmd = m.projects.Update(msg)
		} else {
			m.tasks, cmd = m.tasks.Update(msg)
		}
		return m, cmd
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch m.currentView {
	case ViewTasks:
		m.tasks, cmd = m.tasks.Update(msg)
	case ViewProjects:
		m.projects, cmd = m.projects.Update(msg)
	}
	return m, cmd
}

// handleFeedEvent refreshes the boards a server change touches; the
// selection survives
func (m RootModel) handleFeedEvent(ev model.Event) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{waitForFeed(m.events, m.feedErrs)}

	switch ev.Kind {
	case model.KindProject:
		cmds = append(cmds, m.projects.Refresh())
		if ev.Type == "deleted" && ev.ID == m.tasks.ParentID() {
			m.tasks, _ = m.tasks.Open("", "")
			m.statusMsg = "The open project was deleted"
		}
	case model.KindTask:
		if pid := m.tasks.ParentID(); pid != "" && (ev.ParentID == "" || ev.ParentID == pid) {
			cmds = append(cmds, m.tasks.Refresh())
		}
	}
	return m, tea.Batch(cmds...)
}

func (m RootModel) current() views.BoardView {
	if m.currentView == ViewTasks {
		return m.tasks
	}
	return m.projects
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	contentHeight := m.height - 3
	var content string
	if m.helpVisible {
		content = m.help.View(m.keys)
	} else {
		content = m.current().View()
	}

	// Ensure content fills available space
	if lines := strings.Count(content, "\n") + 1; lines < contentHeight {
		content += strings.Repeat("\n", contentHeight-lines)
	}

	return strings.Join([]string{m.renderHeader(), content, m.renderFooter()}, "\n")
}

// renderHeader renders the header bar
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("staffsphere")

	viewStyle := lipgloss.NewStyle().
		Foreground(t.Subtle).
		Padding(0, 1)
	var tabs []string
	for _, v := range []View{ViewTasks, ViewProjects} {
		label := fmt.Sprintf("%d %s", int(v)+1, v)
		if v == m.currentView {
			tabs = append(tabs, viewStyle.Foreground(t.Primary).Bold(true).Render("["+label+"]"))
		} else {
			tabs = append(tabs, viewStyle.Render(label))
		}
	}
	themeIndicator := viewStyle.Render(fmt.Sprintf("theme: %s", t.Name))

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, append([]string{title}, tabs...)...)
	gap := max(m.width-lipgloss.Width(leftSide)-lipgloss.Width(themeIndicator), 0)
	return leftSide + strings.Repeat(" ", gap) + themeIndicator
}

// renderFooter renders the status line and key hints
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	var statusLine string
	if m.errorMsg != "" {
		statusLine = lipgloss.NewStyle().Foreground(t.Error).Render(m.errorMsg)
	} else if m.statusMsg != "" {
		statusLine = lipgloss.NewStyle().Foreground(t.Info).Render(m.statusMsg)
	}

	var hints string
	switch {
	case m.helpVisible:
		hints = styles.HelpKey.Render("?/esc") + styles.HelpDesc.Render(" close help")
	case m.current().IsInputMode():
		hints = styles.HelpKey.Render("enter") + styles.HelpDesc.Render(" confirm") +
			styles.HelpSeparator.Render(" │ ") +
			styles.HelpKey.Render("esc") + styles.HelpDesc.Render(" cancel")
	default:
		hints = m.help.View(m.keys)
	}

	return statusLine + "\n" + hints
}
