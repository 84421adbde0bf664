package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/WillyV3/moodbi/internal/format"
	"github.com/WillyV3/moodbi/internal/moodboard"
)

func (m model) updateItems(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.itemCursor > 0 {
			m.itemCursor--
		}
		return m, nil

	case key.Matches(msg, keys.Down):
		if m.itemCursor < m.draft.Len()-1 {
			m.itemCursor++
		}
		return m, nil
	}

	// The draft stays frozen while a save is in flight.
	if m.busy {
		return m, m.setError("Save in progress")
	}

	switch {
	case key.Matches(msg, keys.Back):
		dirty := m.draft.Dirty()
		m.board = m.draft.Cancel()
		m.draft = nil
		m.mode = detailMode
		m.refreshDetail()
		if dirty {
			return m, m.setStatus("Changes discarded")
		}
		return m, nil

	case key.Matches(msg, keys.Save):
		p, err := m.draft.Prepare()
		if err != nil {
			return m, m.setError(err.Error())
		}
		return m, m.startMutation(submitCmd(m.svc, m.draft.BoardID(), p, "Save items", "Items saved"))

	case key.Matches(msg, keys.MoveUp):
		if m.draft.MoveUp(m.itemCursor) {
			m.itemCursor--
		}
		return m, nil

	case key.Matches(msg, keys.MoveDown):
		if m.draft.MoveDown(m.itemCursor) {
			m.itemCursor++
		}
		return m, nil

	case key.Matches(msg, keys.New):
		return m, m.openForm(newItemForm("", ""))

	case key.Matches(msg, keys.Edit):
		items := m.draft.Items()
		if m.itemCursor >= len(items) {
			return m, nil
		}
		it := items[m.itemCursor]
		f := newItemForm(it.Text, it.ColorValue())
		f.target = it.ID
		return m, m.openForm(f)

	case key.Matches(msg, keys.Delete):
		items := m.draft.Items()
		if m.itemCursor >= len(items) {
			return m, nil
		}
		m.draft.Remove(items[m.itemCursor].ID)
		m.itemCursor = clamp(m.itemCursor, m.draft.Len())
		return m, nil
	}
	return m, nil
}

// submitItem stages an add or edit in the draft. Nothing is sent until save.
func (m model) submitItem() (tea.Model, tea.Cmd) {
	v := m.form.values()
	text, color := strings.TrimSpace(v[0]), strings.TrimSpace(v[1])
	if text == "" {
		return m, m.setError((&moodboard.ValidationError{Field: "text", Reason: "is required"}).Error())
	}
	if err := moodboard.ValidateColor(color); err != nil {
		return m, m.setError(err.Error())
	}

	if m.form.kind == formEditItem {
		m.draft.SetText(m.form.target, text)
		m.draft.SetColor(m.form.target, color)
	} else {
		m.draft.Add(text, color)
		m.itemCursor = m.draft.Len() - 1
	}
	m.mode = itemsMode
	return m, nil
}

func (m model) itemsView() string {
	var b strings.Builder

	title := fmt.Sprintf("Items of %s (%d)", m.draft.Title(), m.draft.Len())
	if m.draft.Dirty() {
		title += " *"
	}
	b.WriteString(m.renderHeader(title))
	b.WriteString("\n")

	items := m.draft.Items()
	if len(items) == 0 {
		b.WriteString(dimStyle.Italic(true).Render("No items. Press a to add one."))
		b.WriteString("\n")
	}

	width := m.width - contentPadding*2 - 16
	for i, it := range items {
		selected := i == m.itemCursor
		textStyle := lipgloss.NewStyle().Foreground(textColor)
		if selected {
			textStyle = selectStyle
		}

		b.WriteString(cursorMark(selected))
		b.WriteString(dimStyle.Render(fmt.Sprintf("%2d ", i+1)))
		b.WriteString(swatch(it.ColorValue()))
		b.WriteString(" ")
		b.WriteString(textStyle.Render(format.Truncate(it.Text, width)))
		if it.IsTemp() {
			b.WriteString(mutedStyle.Italic(true).Render("  new"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter("? help • a add • e edit • d remove • K/J move • s save • esc cancel"))
	return b.String()
}
