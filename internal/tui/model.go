// Package tui is the interactive moodboard browser and editor.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/WillyV3/moodbi/internal/editor"
	"github.com/WillyV3/moodbi/internal/moodboard"
)

type viewMode int

const (
	listMode viewMode = iota
	detailMode
	itemsMode
	formMode
	confirmMode
)

type section int

const (
	commentsSection section = iota
	attachmentsSection
)

const (
	statusTTL      = 3 * time.Second
	errorStatusTTL = 6 * time.Second
)

// Options configures the TUI.
type Options struct {
	// Author prefills the comment form.
	Author string
	// BaseURL is shown in the header.
	BaseURL string
	Logger  *zap.Logger
}

type confirmation struct {
	prompt string
	run    tea.Cmd
}

type model struct {
	svc     Service
	log     *zap.Logger
	author  string
	baseURL string

	mode     viewMode
	prevMode viewMode
	width    int
	height   int

	boards []moodboard.Board
	cursor int

	board       moodboard.Board
	comments    []moodboard.Comment
	attachments []moodboard.Attachment
	section     section
	selected    int

	// draft is the open edit session, if any. Only Update touches it.
	draft      *editor.Draft
	itemCursor int

	form    formModel
	confirm confirmation

	loading  bool
	busy     bool
	spinner  spinner.Model
	viewport viewport.Model
	md       *glamour.TermRenderer
	showHelp bool

	status    string
	statusErr bool
	statusID  int

	now    func() time.Time
	openFn func(string) error
	copyFn func(string) error
}

func newModel(svc Service, opts Options) model {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(accent)

	return model{
		svc:      svc,
		log:      log,
		author:   opts.Author,
		baseURL:  opts.BaseURL,
		mode:     listMode,
		loading:  true,
		spinner:  sp,
		viewport: viewport.New(0, 0),
		now:      time.Now,
		openFn:   OpenURL,
		copyFn:   copyURL,
	}
}

// New returns the TUI model backed by svc.
func New(svc Service, opts Options) tea.Model {
	return newModel(svc, opts)
}

// Run starts the TUI on the alternate screen and blocks until it exits.
func Run(svc Service, opts Options) error {
	p := tea.NewProgram(New(svc, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m model) Init() tea.Cmd {
	return tea.Batch(loadBoardsCmd(m.svc), m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case spinner.TickMsg:
		if !m.loading && !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
			m.statusErr = false
		}
		return m, nil

	case boardsLoadedMsg:
		m.loading = false
		m.boards = msg.boards
		m.cursor = clamp(m.cursor, len(m.boards))
		return m, nil

	case detailLoadedMsg:
		m.loading = false
		if m.mode == listMode || msg.board.ID != m.board.ID {
			return m, nil
		}
		m.board = msg.board
		m.comments = msg.comments
		m.attachments = msg.attachments
		m.replaceBoard(msg.board)
		m.refreshDetail()
		return m, nil

	case boardSavedMsg:
		m.busy = false
		if m.draft != nil {
			m.draft.Close()
			m.draft = nil
		}
		m.board = msg.board
		m.replaceBoard(msg.board)
		if m.mode == formMode || m.mode == itemsMode {
			m.mode = detailMode
		}
		m.refreshDetail()
		return m, m.setStatus(msg.status)

	case boardCreatedMsg:
		m.busy = false
		m.boards = append(m.boards, msg.board)
		m.cursor = len(m.boards) - 1
		if m.mode == formMode {
			m.mode = listMode
		}
		return m, m.setStatus(fmt.Sprintf("Board %q created", msg.board.Title))

	case boardDeletedMsg:
		m.busy = false
		for i, b := range m.boards {
			if b.ID == msg.id {
				m.boards = append(m.boards[:i], m.boards[i+1:]...)
				break
			}
		}
		m.cursor = clamp(m.cursor, len(m.boards))
		if m.board.ID == msg.id {
			m.board = moodboard.Board{}
			m.mode = listMode
		}
		return m, m.setStatus("Board deleted")

	case commentsLoadedMsg:
		m.busy = false
		// The user may have moved on to another board while this was saving.
		if m.mode == listMode || msg.boardID != m.board.ID {
			return m, m.setStatus(msg.status)
		}
		m.comments = msg.comments
		m.section = commentsSection
		m.selected = clamp(m.selected, len(m.comments))
		if m.mode == formMode {
			m.mode = detailMode
		}
		m.refreshDetail()
		return m, m.setStatus(msg.status)

	case attachmentsLoadedMsg:
		m.busy = false
		if m.mode == listMode || msg.boardID != m.board.ID {
			return m, m.setStatus(msg.status)
		}
		m.attachments = msg.attachments
		m.section = attachmentsSection
		m.selected = clamp(m.selected, len(m.attachments))
		if m.mode == formMode {
			m.mode = detailMode
		}
		m.refreshDetail()
		return m, m.setStatus(msg.status)

	case openedMsg:
		return m, m.setStatus(msg.status)

	case opErrMsg:
		return m.handleError(msg)
	}

	// Blink and other input messages go to the open form.
	if m.mode == formMode {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = max(msg.Width, minWidth)
	m.height = max(msg.Height, minHeight)
	m.viewport.Width = m.width - contentPadding*2
	m.viewport.Height = max(m.height-headerHeight-footerHeight-contentPadding*2, 3)
	m.md = newMarkdownRenderer(m.viewport.Width - 4)
	if m.mode == detailMode {
		m.refreshDetail()
	}
	return m, nil
}

func (m model) handleError(msg opErrMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.mutation {
		m.busy = false
	}
	m.log.Warn("operation failed", zap.String("op", msg.op), zap.Error(msg.err))

	if isStale(msg.err) {
		// The replace landed; only the reload failed.
		if m.draft != nil {
			m.draft.Close()
			m.draft = nil
		}
		m.mode = detailMode
		m.loading = true
		status := m.setError(fmt.Sprintf("%s: saved, but reloading failed: %v", msg.op, msg.err))
		return m, tea.Batch(status, loadDetailCmd(m.svc, m.log, m.board.ID), m.spinner.Tick)
	}

	// Item edits survive a failed save; single-field edits are rebuilt from
	// the still-open form on retry.
	if m.mode != itemsMode && m.draft != nil {
		m.draft.Cancel()
		m.draft = nil
	}
	return m, m.setError(fmt.Sprintf("%s failed: %v", msg.op, msg.err))
}

func (m model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case formMode:
		return m.updateForm(msg)
	case confirmMode:
		return m.updateConfirm(msg)
	}

	if msg.String() == "?" {
		m.showHelp = !m.showHelp
		return m, nil
	}

	switch m.mode {
	case detailMode:
		return m.updateDetail(msg)
	case itemsMode:
		return m.updateItems(msg)
	default:
		return m.updateList(msg)
	}
}

func (m *model) setStatus(text string) tea.Cmd {
	m.statusID++
	m.status = text
	m.statusErr = false
	return clearStatusCmd(m.statusID, statusTTL)
}

func (m *model) setError(text string) tea.Cmd {
	m.statusID++
	m.status = text
	m.statusErr = true
	return clearStatusCmd(m.statusID, errorStatusTTL)
}

// startMutation marks the model busy; callers must check busy first.
func (m *model) startMutation(cmd tea.Cmd) tea.Cmd {
	m.busy = true
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m *model) startLoading(cmd tea.Cmd) tea.Cmd {
	m.loading = true
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m *model) openForm(f formModel) tea.Cmd {
	m.prevMode = m.mode
	m.mode = formMode
	m.form = f
	return f.Init()
}

func (m *model) askConfirm(prompt string, run tea.Cmd) {
	m.prevMode = m.mode
	m.mode = confirmMode
	m.confirm = confirmation{prompt: prompt, run: run}
}

func (m *model) replaceBoard(b moodboard.Board) {
	for i := range m.boards {
		if m.boards[i].ID == b.ID {
			m.boards[i] = b
			return
		}
	}
}

func (m model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.mode = m.prevMode
		return m, nil
	case "ctrl+s":
		return m.submitForm()
	case "enter":
		if m.form.onSave() {
			return m.submitForm()
		}
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m model) submitForm() (tea.Model, tea.Cmd) {
	switch m.form.kind {
	case formCreateBoard:
		return m.submitNewBoard()
	case formEditTitle, formEditDescription, formEditDue:
		return m.submitBoardField()
	case formAddItem, formEditItem:
		return m.submitItem()
	case formComment:
		return m.submitComment()
	case formUpload:
		return m.submitUpload()
	}
	return m, nil
}

func (m model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = m.prevMode
		if m.busy {
			return m, m.setError("Another change is still saving")
		}
		return m, m.startMutation(m.confirm.run)
	case "n", "N", "esc", "q":
		m.mode = m.prevMode
		return m, m.setStatus("Cancelled")
	}
	return m, nil
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var body string
	switch m.mode {
	case detailMode:
		body = m.detailView()
	case itemsMode:
		body = m.itemsView()
	case formMode:
		body = m.renderHeader(m.form.title) + "\n" + m.form.View() + "\n" + m.renderFooter("")
	case confirmMode:
		body = m.confirmView()
	default:
		body = m.listView()
	}

	return lipgloss.NewStyle().
		Padding(1, contentPadding).
		Render(body)
}

func (m model) confirmView() string {
	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(errColor).
		Padding(1, 2).
		Render(m.confirm.prompt + "\n\n" + dimStyle.Render("y: confirm • n/esc: cancel"))

	var b strings.Builder
	b.WriteString(m.renderHeader("Confirm"))
	b.WriteString("\n")
	b.WriteString(box)
	return b.String()
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
