package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/WillyV3/moodbi/internal/linkify"
)

const (
	contentPadding = 2
	headerHeight   = 3
	footerHeight   = 3
	minWidth       = 40
	minHeight      = 10
)

var (
	accent    = lipgloss.Color("#4ec9b0")
	textColor = lipgloss.Color("#d4d4d4")
	dimColor  = lipgloss.Color("#666")
	infoColor = lipgloss.Color("#2563eb")
	errColor  = lipgloss.Color("#dc2626")

	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#569cd6"))
	dimStyle     = lipgloss.NewStyle().Foreground(dimColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#999"))
	selectStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	linkStyle    = lipgloss.NewStyle().Underline(true).Foreground(infoColor)
)

func cursorMark(selected bool) string {
	if selected {
		return "→ "
	}
	return "  "
}

// swatch renders a small color chip. Values lipgloss cannot paint are shown
// by name.
func swatch(color string) string {
	color = strings.TrimSpace(color)
	if color == "" {
		return dimStyle.Render("··")
	}
	if strings.HasPrefix(color, "#") && (len(color) == 4 || len(color) == 7) {
		return lipgloss.NewStyle().Background(lipgloss.Color(color)).Render("  ")
	}
	return mutedStyle.Render("[" + color + "]")
}

// linkified renders text with OSC 8 hyperlinks for every detected link.
func linkified(text string) string {
	return linkify.Render(linkify.Split(text), func(s linkify.Segment) string {
		if !s.IsLink() {
			return s.Text
		}
		return hyperlink(s.Href, linkStyle.Render(s.Text))
	})
}

// hyperlink wraps name in an OSC 8 link to href.
func hyperlink(href, name string) string {
	if href == "" {
		return name
	}
	return termenv.Hyperlink(href, name)
}

func newMarkdownRenderer(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// markdown renders a board description, falling back to plain text.
func markdown(r *glamour.TermRenderer, text string) string {
	if strings.TrimSpace(text) == "" {
		return dimStyle.Italic(true).Render("No description")
	}
	if r == nil {
		return linkified(text)
	}
	out, err := r.Render(text)
	if err != nil {
		return linkified(text)
	}
	return strings.Trim(out, "\n")
}

func (m model) renderHeader(title string) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(accent).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(accent).
		Width(m.width - contentPadding*2)

	sub := dimStyle.Render("backend " + m.baseURL)
	return titleStyle.Render(title) + "\n" + sub + "\n"
}

func (m model) renderStatus() string {
	var parts []string
	if m.loading || m.busy {
		label := "Loading..."
		if m.busy {
			label = "Saving..."
		}
		parts = append(parts, m.spinner.View()+" "+mutedStyle.Render(label))
	}
	if m.status != "" {
		style := lipgloss.NewStyle().Foreground(infoColor).Italic(true)
		if m.statusErr {
			style = lipgloss.NewStyle().Foreground(errColor).Bold(true)
		}
		parts = append(parts, style.Render(m.status))
	}
	return strings.Join(parts, "  ")
}

func (m model) renderFooter(hint string) string {
	var b strings.Builder
	if s := m.renderStatus(); s != "" {
		b.WriteString(s)
		b.WriteString("\n")
	}
	if m.showHelp {
		b.WriteString(m.renderHelp())
		return b.String()
	}
	b.WriteString(dimStyle.Render(hint))
	return b.String()
}

func (m model) renderHelp() string {
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#999")).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(0, 1)

	var help []string
	switch m.mode {
	case listMode:
		help = []string{
			"Boards:",
			"  ↑/k ↓/j   Move",
			"  enter     Open board",
			"  a/n       New board",
			"  d/x       Delete board",
			"  r         Reload",
		}
	case detailMode:
		help = []string{
			"Board:",
			"  t/e/w     Edit title, description, due date",
			"  i         Edit items",
			"  c         Add comment",
			"  u         Upload file",
			"  tab       Switch comments/attachments",
			"  ↑/k ↓/j   Select",
			"  o/y       Open/copy link",
			"  d/x       Delete selected",
			"  pgup/pgdn Scroll",
			"  r         Reload",
			"  esc       Back",
		}
	case itemsMode:
		help = []string{
			"Items:",
			"  ↑/k ↓/j   Select",
			"  K/J       Move item up/down",
			"  a/n       Add item",
			"  e/enter   Edit item",
			"  d/x       Remove item",
			"  s/ctrl+s  Save",
			"  esc       Cancel changes",
		}
	}
	help = append(help, "", "Other:", "  ?         Toggle help", "  q/ctrl+c  Quit")

	return helpStyle.Render(strings.Join(help, "\n"))
}
