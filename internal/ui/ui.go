package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kelarin/rosync/internal/models"
)

// historyLimit caps how many runs the browser loads at once.
const historyLimit = 100

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RunListView ViewState = iota
	RunDetailView
)

// RunLister loads recorded sync runs, most recent first.
type RunLister interface {
	List(criteria map[string]any) ([]*models.SyncRun, error)
}

// Model represents the TUI application state.
type Model struct {
	view     ViewState
	history  RunLister
	width    int
	height   int
	runList  list.Model
	selected *models.SyncRun
	err      error
	help     help.Model
	keys     keyMap
}

type runsLoadedMsg struct {
	runs []*models.SyncRun
	err  error
}

// NewModel creates a new TUI model over the given run history store.
func NewModel(history RunLister) *Model {
	return &Model{
		view:    RunListView,
		history: history,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by loading run history.
func (m *Model) Init() tea.Cmd {
	return m.loadRuns()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.runList.Width() == 0 {
			m.runList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case RunListView:
			return m.handleRunListKeys(msg)
		case RunDetailView:
			return m.handleRunDetailKeys(msg)
		}

	case runsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.runs))
		for i, run := range msg.runs {
			items[i] = runItem{run: run}
		}
		m.runList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.runList.Title = "Sync Runs"
		m.runList.SetSize(m.width-4, m.height-8)
		return m, nil
	}

	if m.view == RunListView {
		var cmd tea.Cmd
		m.runList, cmd = m.runList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case RunListView:
		return m.renderRunList()
	case RunDetailView:
		return m.renderRunDetail()
	default:
		return ""
	}
}

func (m *Model) handleRunListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		return m, m.loadRuns()
	case "enter":
		selected := m.runList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(runItem); ok {
				m.selected = item.run
				m.view = RunDetailView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.runList, cmd = m.runList.Update(msg)
	return m, cmd
}

func (m *Model) handleRunDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = RunListView
		m.selected = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) loadRuns() tea.Cmd {
	return func() tea.Msg {
		runs, err := m.history.List(map[string]any{"limit": historyLimit})
		return runsLoadedMsg{runs: runs, err: err}
	}
}

func (m *Model) renderRunList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.runList.View(), helpView)
}

func (m *Model) renderRunDetail() string {
	run := m.selected
	if run == nil {
		return styles.err.Render("No run selected\n\nPress esc to go back")
	}

	var status string
	if run.Succeeded() {
		status = styles.ok.Render("✓ Completed")
	} else {
		status = styles.err.Render(fmt.Sprintf("✗ Failed: %s", run.Error))
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Run %s", run.ID())))
	b.WriteString("\n" + status + "\n\n")
	b.WriteString(fmt.Sprintf("Started:  %s\n", run.StartedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("Duration: %s\n", run.Duration().Round(time.Millisecond)))
	b.WriteString(fmt.Sprintf("Rows:     %d total, %d skipped\n", run.RowsTotal, run.Skipped))
	b.WriteString(fmt.Sprintf("Records:  %d created, %d updated, %d failed\n", run.Created, run.Updated, run.Failed))
	b.WriteString(fmt.Sprintf("Contacts: %d exported", run.Exported))
	if run.MailSent {
		b.WriteString(", mail sent")
	}
	b.WriteString("\n")
	if run.DryRun {
		b.WriteString(styles.warn.Render("Dry run: no remote writes were issued") + "\n")
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s", b.String(), helpView)
}
