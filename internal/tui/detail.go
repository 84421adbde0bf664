package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mitchellh/go-homedir"

	"github.com/WillyV3/moodbi/internal/editor"
	"github.com/WillyV3/moodbi/internal/format"
	"github.com/WillyV3/moodbi/internal/linkify"
	"github.com/WillyV3/moodbi/internal/moodboard"
)

func (m model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Back):
		m.mode = listMode
		return m, nil

	case key.Matches(msg, keys.Section):
		if m.section == commentsSection {
			m.section = attachmentsSection
		} else {
			m.section = commentsSection
		}
		m.selected = 0
		m.refreshDetail()
		return m, nil

	case key.Matches(msg, keys.Up):
		if m.selected > 0 {
			m.selected--
			m.refreshDetail()
		}
		return m, nil

	case key.Matches(msg, keys.Down):
		if m.selected < m.sectionLen()-1 {
			m.selected++
			m.refreshDetail()
		}
		return m, nil

	case key.Matches(msg, keys.PageUp), key.Matches(msg, keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, keys.Refresh):
		return m, m.startLoading(loadDetailCmd(m.svc, m.log, m.board.ID))

	case key.Matches(msg, keys.Browse):
		target := m.selectedLink()
		if target == "" {
			return m, m.setStatus("No link to open")
		}
		return m, openURLCmd(target, m.openFn)

	case key.Matches(msg, keys.Copy):
		target := m.selectedLink()
		if target == "" {
			return m, m.setStatus("No link to copy")
		}
		return m, copyURLCmd(target, m.copyFn)
	}

	// Everything below changes the board.
	if m.busy {
		return m, m.setError("Another change is still saving")
	}

	switch {
	case key.Matches(msg, keys.Title):
		return m, m.openForm(newForm(formEditTitle, "Edit Title",
			fieldSpec{label: "Title:", placeholder: "Board title (required)", value: m.board.Title, limit: 200},
		))

	case key.Matches(msg, keys.Describe):
		return m, m.openForm(newForm(formEditDescription, "Edit Description",
			fieldSpec{label: "Description:", placeholder: "Markdown description", value: m.board.DescriptionValue(), multiline: true},
		))

	case key.Matches(msg, keys.Due):
		return m, m.openForm(newForm(formEditDue, "Edit Due Date",
			fieldSpec{label: "Due date:", placeholder: "YYYY-MM-DD, empty to clear", value: m.board.DueDateValue(), limit: 10},
		))

	case key.Matches(msg, keys.Items):
		m.draft = editor.Begin(m.board)
		m.itemCursor = 0
		m.mode = itemsMode
		return m, nil

	case key.Matches(msg, keys.Comment):
		return m, m.openForm(newCommentForm(m.author))

	case key.Matches(msg, keys.Upload):
		return m, m.openForm(newForm(formUpload, "Upload File",
			fieldSpec{label: "File:", placeholder: "Path to a local file"},
		))

	case key.Matches(msg, keys.Delete):
		return m.confirmDeleteSelected()
	}
	return m, nil
}

func (m model) confirmDeleteSelected() (tea.Model, tea.Cmd) {
	switch {
	case m.section == commentsSection && m.selected < len(m.comments):
		c := m.comments[m.selected]
		m.askConfirm(
			fmt.Sprintf("Delete the comment by %s?", c.Author),
			deleteCommentCmd(m.svc, m.board.ID, c.ID),
		)
	case m.section == attachmentsSection && m.selected < len(m.attachments):
		a := m.attachments[m.selected]
		m.askConfirm(
			fmt.Sprintf("Delete attachment %q?", a.FileName),
			deleteAttachmentCmd(m.svc, m.board.ID, a.ID),
		)
	default:
		return m, m.setStatus("Nothing selected")
	}
	return m, nil
}

// submitBoardField sends a single-field edit as a full replace that keeps
// the canonical items.
func (m model) submitBoardField() (tea.Model, tea.Cmd) {
	value := m.form.values()[0]
	d := editor.Begin(m.board)

	var op, status string
	switch m.form.kind {
	case formEditTitle:
		d.SetTitle(value)
		op, status = "Save title", "Title updated"
	case formEditDescription:
		d.SetDescription(value)
		op, status = "Save description", "Description updated"
	default:
		d.SetDueDate(value)
		op, status = "Save due date", "Due date updated"
	}

	p, err := d.Prepare()
	if err != nil {
		return m, m.setError(err.Error())
	}
	m.draft = d
	return m, m.startMutation(submitCmd(m.svc, d.BoardID(), p, op, status))
}

func (m model) submitComment() (tea.Model, tea.Cmd) {
	v := m.form.values()
	in := moodboard.NewCommentInput(v[0], v[1])
	if err := in.Validate(); err != nil {
		return m, m.setError(err.Error())
	}
	return m, m.startMutation(addCommentCmd(m.svc, m.board.ID, in))
}

func (m model) submitUpload() (tea.Model, tea.Cmd) {
	path := strings.TrimSpace(m.form.values()[0])
	if path == "" {
		return m, m.setError((&moodboard.ValidationError{Field: "file", Reason: "is required"}).Error())
	}
	if expanded, err := homedir.Expand(path); err == nil {
		path = expanded
	}
	return m, m.startMutation(uploadCmd(m.svc, m.board.ID, path))
}

func (m model) sectionLen() int {
	if m.section == attachmentsSection {
		return len(m.attachments)
	}
	return len(m.comments)
}

// selectedLink is the first link of the selected comment, the selected
// attachment's file URL, or the first link in the description.
func (m model) selectedLink() string {
	switch {
	case m.section == attachmentsSection && m.selected < len(m.attachments):
		return m.svc.ResolveURL(m.attachments[m.selected].FileURL)
	case m.section == commentsSection && m.selected < len(m.comments):
		if links := linkify.Links(m.comments[m.selected].Content); len(links) > 0 {
			return links[0].Href
		}
	}
	if links := linkify.Links(m.board.DescriptionValue()); len(links) > 0 {
		return links[0].Href
	}
	return ""
}

// refreshDetail rebuilds the viewport content and scrolls the selection
// into view.
func (m *model) refreshDetail() {
	content, selLine := m.renderDetailBody()
	m.viewport.SetContent(content)
	if selLine < 0 || m.viewport.Height <= 0 {
		return
	}
	if selLine < m.viewport.YOffset {
		m.viewport.SetYOffset(selLine)
	} else if selLine >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(selLine - m.viewport.Height + 1)
	}
}

func (m model) renderDetailBody() (string, int) {
	var b strings.Builder
	selLine := -1
	line := func() int { return strings.Count(b.String(), "\n") }

	meta := []string{
		"Due " + format.Due(m.board.DueDateValue(), m.now()),
		"created " + format.DatePtr(m.board.CreatedAt),
		"updated " + format.DatePtr(m.board.UpdatedAt),
	}
	b.WriteString(mutedStyle.Render(strings.Join(meta, " • ")))
	b.WriteString("\n\n")

	b.WriteString(markdown(m.md, m.board.DescriptionValue()))
	b.WriteString("\n\n")

	items := m.board.OrderedItems()
	b.WriteString(headingStyle.Render(fmt.Sprintf("Items (%d)", len(items))))
	b.WriteString("\n")
	if len(items) == 0 {
		b.WriteString(dimStyle.Italic(true).Render("  No items. Press i to add some."))
		b.WriteString("\n")
	}
	for _, it := range items {
		b.WriteString("  ")
		b.WriteString(swatch(it.ColorValue()))
		b.WriteString(" ")
		b.WriteString(linkified(it.Text))
		if c := it.ColorValue(); c != "" {
			b.WriteString(dimStyle.Render("  " + c))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(sectionHeading(fmt.Sprintf("Comments (%d)", len(m.comments)), m.section == commentsSection))
	b.WriteString("\n")
	if len(m.comments) == 0 {
		b.WriteString(dimStyle.Italic(true).Render("  No comments. Press c to add one."))
		b.WriteString("\n")
	}
	for i, c := range m.comments {
		selected := m.section == commentsSection && i == m.selected
		if selected {
			selLine = line()
		}
		who := lipgloss.NewStyle().Foreground(textColor).Bold(true).Render(c.Author)
		if selected {
			who = selectStyle.Render(c.Author)
		}
		b.WriteString(cursorMark(selected))
		b.WriteString(who)
		b.WriteString(dimStyle.Render(" • " + format.Date(c.CreatedAt)))
		if rel := format.Relative(c.CreatedAt, m.now()); rel != "" {
			b.WriteString(dimStyle.Render(" (" + rel + ")"))
		}
		b.WriteString("\n")
		for _, l := range strings.Split(c.Content, "\n") {
			b.WriteString("    ")
			b.WriteString(linkified(l))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	b.WriteString(sectionHeading(fmt.Sprintf("Attachments (%d)", len(m.attachments)), m.section == attachmentsSection))
	b.WriteString("\n")
	if len(m.attachments) == 0 {
		b.WriteString(dimStyle.Italic(true).Render("  No attachments. Press u to upload a file."))
		b.WriteString("\n")
	}
	for i, a := range m.attachments {
		selected := m.section == attachmentsSection && i == m.selected
		if selected {
			selLine = line()
		}
		name := lipgloss.NewStyle().Foreground(textColor).Render(a.FileName)
		if selected {
			name = selectStyle.Render(a.FileName)
		}
		b.WriteString(cursorMark(selected))
		b.WriteString(hyperlink(m.svc.ResolveURL(a.FileURL), name))
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %s • %s • %s",
			format.Size(a.FileSize), a.ContentType, format.Date(a.UploadedAt))))
		b.WriteString("\n")
	}

	return b.String(), selLine
}

func sectionHeading(title string, active bool) string {
	if active {
		return headingStyle.Underline(true).Render(title)
	}
	return dimStyle.Bold(true).Render(title)
}

func (m model) detailView() string {
	var b strings.Builder

	title := m.board.Title
	if title == "" {
		title = "Untitled"
	}
	b.WriteString(m.renderHeader(title + "  " + dimStyle.Render(m.board.ShortID())))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter("? help • t/e/w edit • i items • c comment • u upload • tab section • o open • esc back"))
	return b.String()
}
