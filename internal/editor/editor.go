// Package editor stages edits to a board locally and commits them to the
// backend as a single replace.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/WillyV3/moodbi/internal/moodboard"
)

var (
	// ErrClosed is returned by operations on a draft that was committed or cancelled.
	ErrClosed = errors.New("edit session is closed")
	// ErrStale wraps a reload failure after the replace itself succeeded.
	ErrStale = errors.New("saved, but reloading the board failed")
)

// Backend is the part of the API client a commit needs.
type Backend interface {
	ReplaceBoard(ctx context.Context, id string, p moodboard.BoardPayload) (moodboard.Board, error)
	GetBoard(ctx context.Context, id string) (moodboard.Board, error)
}

// Draft is an edit session over one board. The snapshot it was started from
// is never modified; all edits land in a private copy.
type Draft struct {
	snapshot moodboard.Board

	title       string
	description string
	dueDate     string
	items       []moodboard.Item

	closed bool
}

// Begin starts an edit session from the last-loaded board state.
func Begin(b moodboard.Board) *Draft {
	d := &Draft{snapshot: cloneBoard(b)}
	d.reset()
	return d
}

func (d *Draft) reset() {
	d.title = d.snapshot.Title
	d.description = d.snapshot.DescriptionValue()
	d.dueDate = d.snapshot.DueDateValue()
	d.items = cloneItems(d.snapshot.OrderedItems())
}

// BoardID is the id of the board being edited.
func (d *Draft) BoardID() string { return d.snapshot.ID }

// Snapshot returns a copy of the board the session started from.
func (d *Draft) Snapshot() moodboard.Board { return cloneBoard(d.snapshot) }

func (d *Draft) Closed() bool { return d.closed }

func (d *Draft) Title() string       { return d.title }
func (d *Draft) Description() string { return d.description }
func (d *Draft) DueDate() string     { return d.dueDate }

// Len is the number of staged items.
func (d *Draft) Len() int { return len(d.items) }

// Items returns a copy of the staged items in their current order.
func (d *Draft) Items() []moodboard.Item { return cloneItems(d.items) }

// Dirty reports whether the staged state differs from the snapshot.
func (d *Draft) Dirty() bool {
	if d.title != d.snapshot.Title ||
		d.description != d.snapshot.DescriptionValue() ||
		d.dueDate != d.snapshot.DueDateValue() {
		return true
	}
	orig := d.snapshot.OrderedItems()
	if len(orig) != len(d.items) {
		return true
	}
	for i := range orig {
		if orig[i].ID != d.items[i].ID ||
			orig[i].Text != d.items[i].Text ||
			orig[i].ColorValue() != d.items[i].ColorValue() {
			return true
		}
	}
	return false
}

func (d *Draft) SetTitle(title string) {
	if d.closed {
		return
	}
	d.title = title
}

func (d *Draft) SetDescription(desc string) {
	if d.closed {
		return
	}
	d.description = desc
}

func (d *Draft) SetDueDate(due string) {
	if d.closed {
		return
	}
	d.dueDate = strings.TrimSpace(due)
}

// Add appends a new item and returns its temporary id. Blank text is
// rejected and returns "".
func (d *Draft) Add(text, color string) string {
	text = strings.TrimSpace(text)
	if d.closed || text == "" {
		return ""
	}
	idx := len(d.items)
	it := moodboard.Item{
		ID:         d.newTempID(),
		Text:       text,
		Color:      moodboard.StringPtr(color),
		OrderIndex: &idx,
	}
	d.items = append(d.items, it)
	return it.ID
}

func (d *Draft) newTempID() string {
	for {
		id := moodboard.TempIDPrefix + uuid.NewString()
		if d.indexOf(id) < 0 {
			return id
		}
	}
}

// Remove drops the item with id. Unknown ids are ignored.
func (d *Draft) Remove(id string) {
	if d.closed {
		return
	}
	i := d.indexOf(id)
	if i < 0 {
		return
	}
	d.items = append(d.items[:i], d.items[i+1:]...)
}

// MoveUp swaps the item at index with its predecessor. It reports whether
// anything moved; index 0 and out-of-range indexes are no-ops.
func (d *Draft) MoveUp(index int) bool {
	if d.closed || index <= 0 || index >= len(d.items) {
		return false
	}
	d.items[index-1], d.items[index] = d.items[index], d.items[index-1]
	return true
}

// MoveDown swaps the item at index with its successor. The last index and
// out-of-range indexes are no-ops.
func (d *Draft) MoveDown(index int) bool {
	if d.closed || index < 0 || index >= len(d.items)-1 {
		return false
	}
	d.items[index], d.items[index+1] = d.items[index+1], d.items[index]
	return true
}

func (d *Draft) SetText(id, text string) {
	if d.closed {
		return
	}
	if i := d.indexOf(id); i >= 0 {
		d.items[i].Text = text
	}
}

// SetColor replaces the item color; a blank color clears it.
func (d *Draft) SetColor(id, color string) {
	if d.closed {
		return
	}
	if i := d.indexOf(id); i >= 0 {
		d.items[i].Color = moodboard.StringPtr(color)
	}
}

func (d *Draft) indexOf(id string) int {
	for i, it := range d.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Payload maps the staged state to a replace body. orderIndex is the array
// position, blank colors are omitted and item ids are dropped.
func (d *Draft) Payload() moodboard.BoardPayload {
	p := moodboard.BoardPayload{
		Title:       strings.TrimSpace(d.title),
		Description: strings.TrimSpace(d.description),
		DueDate:     moodboard.StringPtr(d.dueDate),
		Items:       make([]moodboard.ItemPayload, 0, len(d.items)),
	}
	for i, it := range d.items {
		p.Items = append(p.Items, moodboard.ItemPayload{
			Text:       strings.TrimSpace(it.Text),
			Color:      moodboard.StringPtr(it.ColorValue()),
			OrderIndex: i,
		})
	}
	return p
}

// Prepare validates the staged state and returns the replace body without
// sending anything.
func (d *Draft) Prepare() (moodboard.BoardPayload, error) {
	if d.closed {
		return moodboard.BoardPayload{}, ErrClosed
	}
	p := d.Payload()
	if err := p.Validate(); err != nil {
		return moodboard.BoardPayload{}, err
	}
	return p, nil
}

// Submit sends p as one replace of board id and then loads the canonical
// board. A reload failure after a successful replace wraps ErrStale.
func Submit(ctx context.Context, backend Backend, id string, p moodboard.BoardPayload) (moodboard.Board, error) {
	if _, err := backend.ReplaceBoard(ctx, id, p); err != nil {
		return moodboard.Board{}, fmt.Errorf("save board %s: %w", id, err)
	}
	fresh, err := backend.GetBoard(ctx, id)
	if err != nil {
		return moodboard.Board{}, fmt.Errorf("%w: %w", ErrStale, err)
	}
	return fresh, nil
}

// Commit validates the staged state and sends it as one replace. On failure
// the draft stays open with its edits intact so the caller can retry. Once
// the replace succeeds the draft is closed and the canonical board returned.
func (d *Draft) Commit(ctx context.Context, backend Backend) (moodboard.Board, error) {
	p, err := d.Prepare()
	if err != nil {
		return moodboard.Board{}, err
	}
	fresh, err := Submit(ctx, backend, d.snapshot.ID, p)
	if err == nil || errors.Is(err, ErrStale) {
		d.Close()
	}
	return fresh, err
}

// Close ends the session after its payload was accepted by the backend.
func (d *Draft) Close() {
	d.closed = true
	d.items = nil
}

// Cancel discards the staged edits and returns the original board.
func (d *Draft) Cancel() moodboard.Board {
	d.Close()
	return cloneBoard(d.snapshot)
}

func cloneBoard(b moodboard.Board) moodboard.Board {
	out := b
	out.Description = cloneString(b.Description)
	out.DueDate = cloneString(b.DueDate)
	out.CreatedAt = cloneString(b.CreatedAt)
	out.UpdatedAt = cloneString(b.UpdatedAt)
	out.Items = cloneItems(b.Items)
	return out
}

func cloneItems(items []moodboard.Item) []moodboard.Item {
	if items == nil {
		return nil
	}
	out := make([]moodboard.Item, len(items))
	for i, it := range items {
		out[i] = it
		out[i].Color = cloneString(it.Color)
		out[i].ImageURL = cloneString(it.ImageURL)
		if it.OrderIndex != nil {
			idx := *it.OrderIndex
			out[i].OrderIndex = &idx
		}
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
