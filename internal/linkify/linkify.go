// Package linkify splits free-form text into plain and link segments.
package linkify

import (
	"regexp"
	"strings"
)

// Kind tags a Segment.
type Kind int

const (
	KindText Kind = iota
	KindLink
)

func (k Kind) String() string {
	switch k {
	case KindLink:
		return "link"
	default:
		return "text"
	}
}

// Segment is one unit of output. For text segments Text is the verbatim
// value and Href is empty. For link segments Text is the matched substring
// as displayed and Href is the navigable target.
type Segment struct {
	Kind Kind
	Text string
	Href string
}

func (s Segment) IsLink() bool { return s.Kind == KindLink }

// Text builds a plain segment.
func Text(value string) Segment { return Segment{Kind: KindText, Text: value} }

// Link builds a link segment.
func Link(display, href string) Segment { return Segment{Kind: KindLink, Text: display, Href: href} }

// A match runs from the scheme (or "www.") to the next whitespace, where
// whitespace includes \v and the Unicode spaces (U+00A0, U+3000, U+FEFF...)
// that \s leaves out. Trailing punctuation stays in the match.
var reURL = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s\v\p{Z}\x{85}\x{FEFF}]+`)

// Split scans text left to right and returns alternating text and link
// segments that concatenate back to the input. Empty input yields a single
// empty text segment. Schemes and the "www." prefix match in any case.
func Split(text string) []Segment {
	matches := reURL.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []Segment{Text(text)}
	}

	out := make([]Segment, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > last {
			out = append(out, Text(text[last:start]))
		}
		match := text[start:end]
		out = append(out, Link(match, Href(match)))
		last = end
	}
	if last < len(text) {
		out = append(out, Text(text[last:]))
	}
	return out
}

// Href returns the navigable target for a matched URL: "www." matches get an
// https scheme, everything else is used as is. The "www." prefix is matched
// case-insensitively, so "WWW.X.COM" also becomes "https://WWW.X.COM".
func Href(match string) string {
	if len(match) >= 4 && strings.EqualFold(match[:4], "www.") {
		return "https://" + match
	}
	return match
}

// Links returns only the link segments of text, in order.
func Links(text string) []Segment {
	var out []Segment
	for _, s := range Split(text) {
		if s.IsLink() {
			out = append(out, s)
		}
	}
	return out
}

// Render joins the segments back into a string, formatting links with fn.
func Render(segs []Segment, fn func(Segment) string) string {
	var b strings.Builder
	for _, s := range segs {
		if s.IsLink() && fn != nil {
			b.WriteString(fn(s))
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}
