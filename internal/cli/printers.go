package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/WillyV3/moodbi/internal/format"
	"github.com/WillyV3/moodbi/internal/linkify"
	"github.com/WillyV3/moodbi/internal/moodboard"
)

// boardDetail is the -o json|yaml shape of `show`.
type boardDetail struct {
	Board       moodboard.Board        `json:"board" yaml:"board"`
	Comments    []moodboard.Comment    `json:"comments" yaml:"comments"`
	Attachments []moodboard.Attachment `json:"attachments" yaml:"attachments"`
}

type prettyPrinter struct {
	w   io.Writer
	now time.Time
	// resolve turns attachment file URLs into absolute links.
	resolve func(string) string
}

func (pp *prettyPrinter) title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.w, title)
}

func (pp *prettyPrinter) titleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)
	_, _ = t.Fprint(pp.w, title)
	_, _ = c.Fprintf(pp.w, " - %d\n", count)
}

func (pp *prettyPrinter) none() {
	f := color.New(color.Faint, color.Italic)
	_, _ = f.Fprint(pp.w, "  none\n\n")
}

func (pp *prettyPrinter) boards(boards []moodboard.Board) {
	if len(boards) == 0 {
		pp.titleWithCount("Moodboards", 0)
		pp.none()
		return
	}
	pp.titleWithCount("Moodboards", len(boards))

	tbl := uitable.New()
	tbl.MaxColWidth = 48
	tbl.Separator = "  "
	tbl.AddRow("ID", "TITLE", "ITEMS", "DUE", "UPDATED")
	for _, b := range boards {
		due := "-"
		if d := b.DueDateValue(); d != "" {
			due = format.Due(d, pp.now)
		}
		tbl.AddRow(b.ShortID(), b.Title, len(b.Items), due, format.DatePtr(b.UpdatedAt))
	}
	_, _ = fmt.Fprintln(pp.w, tbl)
}

func (pp *prettyPrinter) board(d boardDetail) {
	b := d.Board
	pp.title(b.Title)

	faint := color.New(color.Faint)
	_, _ = faint.Fprintf(pp.w, "id %s • due %s • created %s • updated %s\n\n",
		b.ID, format.Due(b.DueDateValue(), pp.now), format.DatePtr(b.CreatedAt), format.DatePtr(b.UpdatedAt))

	if desc := b.DescriptionValue(); strings.TrimSpace(desc) != "" {
		_, _ = fmt.Fprintln(pp.w, renderMarkdown(desc))
		_, _ = fmt.Fprintln(pp.w)
	}

	pp.items(b.OrderedItems())
	pp.comments(d.Comments)
	pp.attachments(d.Attachments)
}

func (pp *prettyPrinter) items(items []moodboard.Item) {
	pp.titleWithCount("Items", len(items))
	if len(items) == 0 {
		pp.none()
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	for i, it := range items {
		tbl.AddRow(fmt.Sprintf("%d.", i+1), it.ID, linkText(it.Text), colorLabel(it.ColorValue()))
	}
	_, _ = fmt.Fprintln(pp.w, tbl)
	_, _ = fmt.Fprintln(pp.w)
}

func (pp *prettyPrinter) comments(comments []moodboard.Comment) {
	pp.titleWithCount("Comments", len(comments))
	if len(comments) == 0 {
		pp.none()
		return
	}
	who := color.New(color.Bold)
	faint := color.New(color.Faint)
	for _, c := range comments {
		_, _ = who.Fprint(pp.w, c.Author)
		_, _ = faint.Fprintf(pp.w, " %s", format.Date(c.CreatedAt))
		if rel := format.Relative(c.CreatedAt, pp.now); rel != "" {
			_, _ = faint.Fprintf(pp.w, " (%s)", rel)
		}
		_, _ = faint.Fprintf(pp.w, " [%s]\n", c.ID)
		for _, line := range strings.Split(c.Content, "\n") {
			_, _ = fmt.Fprintf(pp.w, "  %s\n", linkText(line))
		}
	}
	_, _ = fmt.Fprintln(pp.w)
}

func (pp *prettyPrinter) attachments(attachments []moodboard.Attachment) {
	pp.titleWithCount("Attachments", len(attachments))
	if len(attachments) == 0 {
		pp.none()
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("ID", "NAME", "SIZE", "TYPE", "UPLOADED", "URL")
	for _, a := range attachments {
		url := a.FileURL
		if pp.resolve != nil {
			url = pp.resolve(a.FileURL)
		}
		tbl.AddRow(a.ID, a.FileName, format.Size(a.FileSize), a.ContentType, format.Date(a.UploadedAt), url)
	}
	_, _ = fmt.Fprintln(pp.w, tbl)
	_, _ = fmt.Fprintln(pp.w)
}

// linkText underlines detected links and leaves the rest of text as is.
func linkText(text string) string {
	link := color.New(color.FgBlue, color.Underline)
	return linkify.Render(linkify.Split(text), func(s linkify.Segment) string {
		if !s.IsLink() {
			return s.Text
		}
		return link.Sprint(s.Text)
	})
}

func colorLabel(c string) string {
	if c == "" {
		return "-"
	}
	return c
}

func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
