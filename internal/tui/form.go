package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ec9b0"))
	blurredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666"))
	cursorStyle  = focusedStyle
	noStyle      = lipgloss.NewStyle()

	focusedButton = focusedStyle.Render("[ Save ]")
	blurredButton = blurredStyle.Render("[ Save ]")
	cancelButton  = blurredStyle.Render("[ Cancel (Esc) ]")
)

type formKind int

const (
	formCreateBoard formKind = iota
	formEditTitle
	formEditDescription
	formEditDue
	formAddItem
	formEditItem
	formComment
	formUpload
)

type fieldSpec struct {
	label       string
	placeholder string
	value       string
	limit       int
	multiline   bool
}

// field is a single form row, either a one-line input or a textarea.
type field struct {
	label     string
	multiline bool
	input     textinput.Model
	area      textarea.Model
}

func newField(spec fieldSpec) field {
	f := field{label: spec.label, multiline: spec.multiline}
	if spec.multiline {
		a := textarea.New()
		a.Placeholder = spec.placeholder
		a.ShowLineNumbers = false
		a.SetHeight(5)
		if spec.limit > 0 {
			a.CharLimit = spec.limit
		}
		a.SetValue(spec.value)
		f.area = a
		return f
	}

	t := textinput.New()
	t.Cursor.Style = cursorStyle
	t.Placeholder = spec.placeholder
	if spec.limit > 0 {
		t.CharLimit = spec.limit
	}
	t.SetValue(spec.value)
	f.input = t
	return f
}

func (f *field) focus() tea.Cmd {
	if f.multiline {
		return f.area.Focus()
	}
	f.input.PromptStyle = focusedStyle
	f.input.TextStyle = focusedStyle
	return f.input.Focus()
}

func (f *field) blur() {
	if f.multiline {
		f.area.Blur()
		return
	}
	f.input.Blur()
	f.input.PromptStyle = noStyle
	f.input.TextStyle = noStyle
}

func (f field) value() string {
	if f.multiline {
		return f.area.Value()
	}
	return f.input.Value()
}

func (f field) update(msg tea.Msg) (field, tea.Cmd) {
	var cmd tea.Cmd
	if f.multiline {
		f.area, cmd = f.area.Update(msg)
	} else {
		f.input, cmd = f.input.Update(msg)
	}
	return f, cmd
}

func (f field) view() string {
	if f.multiline {
		return f.area.View()
	}
	return f.input.View()
}

type formModel struct {
	kind       formKind
	title      string
	focusIndex int
	fields     []field
	// target is the id of the item being edited, if any.
	target string
}

func newForm(kind formKind, title string, specs ...fieldSpec) formModel {
	m := formModel{kind: kind, title: title}
	for _, s := range specs {
		m.fields = append(m.fields, newField(s))
	}
	if len(m.fields) > 0 {
		m.fields[0].focus()
	}
	return m
}

func newBoardForm() formModel {
	return newForm(formCreateBoard, "New Board",
		fieldSpec{label: "Title:", placeholder: "Board title (required)", limit: 200},
		fieldSpec{label: "Description:", placeholder: "Markdown description (optional)", multiline: true},
		fieldSpec{label: "Due date:", placeholder: "YYYY-MM-DD (optional)", limit: 10},
	)
}

func newItemForm(text, color string) formModel {
	kind, title := formAddItem, "New Item"
	if text != "" {
		kind, title = formEditItem, "Edit Item"
	}
	return newForm(kind, title,
		fieldSpec{label: "Text:", placeholder: "Item text (required)", value: text, limit: 500},
		fieldSpec{label: "Color:", placeholder: "#aabbcc, rgb(...) or a name (optional)", value: color, limit: 64},
	)
}

func newCommentForm(author string) formModel {
	return newForm(formComment, "New Comment",
		fieldSpec{label: "Comment:", placeholder: "Write a comment (required)", multiline: true, limit: 2000},
		fieldSpec{label: "Author:", placeholder: "anonymous", value: author, limit: 100},
	)
}

func (m formModel) Init() tea.Cmd {
	return textinput.Blink
}

// onSave reports whether the Save button is focused.
func (m formModel) onSave() bool {
	return m.focusIndex == len(m.fields)
}

func (m formModel) values() []string {
	out := make([]string, len(m.fields))
	for i, f := range m.fields {
		out[i] = f.value()
	}
	return out
}

func (m formModel) Update(msg tea.Msg) (formModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		s := msg.String()
		multiline := m.focusIndex < len(m.fields) && m.fields[m.focusIndex].multiline
		switch {
		case s == "tab" || s == "shift+tab",
			!multiline && (s == "up" || s == "down"):
			if s == "up" || s == "shift+tab" {
				m.focusIndex--
			} else {
				m.focusIndex++
			}

			if m.focusIndex > len(m.fields) {
				m.focusIndex = 0
			} else if m.focusIndex < 0 {
				m.focusIndex = len(m.fields)
			}

			cmds := make([]tea.Cmd, len(m.fields))
			for i := range m.fields {
				if i == m.focusIndex {
					cmds[i] = m.fields[i].focus()
					continue
				}
				m.fields[i].blur()
			}
			return m, tea.Batch(cmds...)
		}
	}

	if m.onSave() {
		return m, nil
	}
	var cmd tea.Cmd
	m.fields[m.focusIndex], cmd = m.fields[m.focusIndex].update(msg)
	return m, cmd
}

func (m formModel) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#569cd6")).
		MarginBottom(1)

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	for i, f := range m.fields {
		label := f.label
		if i == m.focusIndex {
			label = focusedStyle.Render(label)
		} else {
			label = blurredStyle.Render(label)
		}

		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(f.view())
		b.WriteString("\n\n")
	}

	button := blurredButton
	if m.onSave() {
		button = focusedButton
	}

	b.WriteString("\n")
	b.WriteString(button)
	b.WriteString("  ")
	b.WriteString(cancelButton)
	b.WriteString("\n\n")

	b.WriteString(blurredStyle.Render("Tab: next field • Enter on Save or Ctrl+S: save • Esc: cancel"))

	return b.String()
}
