package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"github.com/WillyV3/moodbi/internal/format"
	"github.com/WillyV3/moodbi/internal/moodboard"
)

const (
	linesPerBoard = 3
	maxChips      = 5
)

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.boards)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, keys.Open):
		if len(m.boards) == 0 {
			return m, nil
		}
		m.board = m.boards[m.cursor]
		m.comments = nil
		m.attachments = nil
		m.section = commentsSection
		m.selected = 0
		m.mode = detailMode
		m.viewport.GotoTop()
		m.refreshDetail()
		return m, m.startLoading(loadDetailCmd(m.svc, m.log, m.board.ID))

	case key.Matches(msg, keys.Refresh):
		return m, m.startLoading(loadBoardsCmd(m.svc))

	case key.Matches(msg, keys.New):
		if m.busy {
			return m, m.setError("Another change is still saving")
		}
		return m, m.openForm(newBoardForm())

	case key.Matches(msg, keys.Delete):
		if m.busy {
			return m, m.setError("Another change is still saving")
		}
		if len(m.boards) == 0 {
			return m, nil
		}
		b := m.boards[m.cursor]
		m.askConfirm(
			fmt.Sprintf("Delete board %q and all of its comments and attachments?", b.Title),
			deleteBoardCmd(m.svc, b.ID),
		)
		return m, nil
	}
	return m, nil
}

func (m model) submitNewBoard() (tea.Model, tea.Cmd) {
	v := m.form.values()
	p := moodboard.BoardPayload{
		Title:       strings.TrimSpace(v[0]),
		Description: strings.TrimSpace(v[1]),
		DueDate:     moodboard.StringPtr(v[2]),
		Items:       []moodboard.ItemPayload{},
	}
	if err := p.Validate(); err != nil {
		return m, m.setError(err.Error())
	}
	return m, m.startMutation(createBoardCmd(m.svc, p))
}

func (m model) listView() string {
	var b strings.Builder

	b.WriteString(m.renderHeader(fmt.Sprintf("Moodboards (%d)", len(m.boards))))
	b.WriteString("\n")

	if len(m.boards) == 0 {
		empty := "No moodboards yet. Press a to create one."
		if m.loading {
			empty = "Fetching moodboards..."
		}
		b.WriteString(dimStyle.Italic(true).Render(empty))
		b.WriteString("\n\n")
		b.WriteString(m.renderFooter("? help • a new • r reload • q quit"))
		return b.String()
	}

	rows := max((m.height-headerHeight-footerHeight-contentPadding*2)/linesPerBoard, 1)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(m.boards))

	for i := start; i < end; i++ {
		b.WriteString(m.renderBoardRow(m.boards[i], i == m.cursor))
	}
	if end < len(m.boards) {
		b.WriteString(dimStyle.Italic(true).Render(fmt.Sprintf("... %d more boards", len(m.boards)-end)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter("? help • enter open • a new • d delete • r reload • q quit"))
	return b.String()
}

func (m model) renderBoardRow(board moodboard.Board, selected bool) string {
	titleStyle := lipgloss.NewStyle().Foreground(textColor)
	if selected {
		titleStyle = selectStyle
	}

	width := m.width - contentPadding*2 - 12
	var b strings.Builder

	b.WriteString(cursorMark(selected))
	b.WriteString(dimStyle.Render(board.ShortID()))
	b.WriteString(" ")
	b.WriteString(titleStyle.Render(format.Truncate(board.Title, width)))
	if due := board.DueDateValue(); due != "" {
		b.WriteString(" ")
		b.WriteString(mutedStyle.Render(format.Due(due, m.now())))
	}
	b.WriteString("\n")

	desc := strings.Join(strings.Fields(board.DescriptionValue()), " ")
	if desc == "" {
		desc = "No description"
	}
	b.WriteString("    ")
	b.WriteString(mutedStyle.Italic(true).Render(format.Truncate(desc, width)))
	b.WriteString("\n")

	// Chips are already styled, so cut by display width.
	chips := renderChips(board.OrderedItems()) + dimStyle.Render(fmt.Sprintf("  created %s • updated %s",
		format.DatePtr(board.CreatedAt), format.DatePtr(board.UpdatedAt)))
	b.WriteString("    ")
	b.WriteString(xansi.Truncate(chips, width+8, "…"))
	b.WriteString("\n")
	return b.String()
}

func renderChips(items []moodboard.Item) string {
	if len(items) == 0 {
		return dimStyle.Render("no items")
	}
	var chips []string
	for i, it := range items {
		if i == maxChips {
			chips = append(chips, dimStyle.Render(fmt.Sprintf("+%d", len(items)-maxChips)))
			break
		}
		chips = append(chips, swatch(it.ColorValue())+" "+format.Truncate(it.Text, 16))
	}
	return strings.Join(chips, "  ")
}
