// Package moodboard holds the data model shared with the moodboard backend.
package moodboard

import (
	"sort"
	"strings"
)

// TempIDPrefix marks item ids generated on the client for unsaved items.
const TempIDPrefix = "temp-"

// AnonymousAuthor is used for comments posted without an author.
const AnonymousAuthor = "anonymous"

// Item is a single text+color entry within a board.
type Item struct {
	ID         string  `json:"id" yaml:"id"`
	Text       string  `json:"text" yaml:"text"`
	Color      *string `json:"color,omitempty" yaml:"color,omitempty"`
	ImageURL   *string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	OrderIndex *int    `json:"orderIndex,omitempty" yaml:"orderIndex,omitempty"`
}

// ColorValue returns the item color or "" when unset.
func (i Item) ColorValue() string {
	if i.Color == nil {
		return ""
	}
	return strings.TrimSpace(*i.Color)
}

// IsTemp reports whether the item has not been saved yet.
func (i Item) IsTemp() bool {
	return IsTempID(i.ID)
}

func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Board is a moodboard with its ordered items.
type Board struct {
	ID          string  `json:"id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
	DueDate     *string `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	Items       []Item  `json:"items" yaml:"items"`
	CreatedAt   *string `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt   *string `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

func (b Board) DescriptionValue() string {
	if b.Description == nil {
		return ""
	}
	return *b.Description
}

func (b Board) DueDateValue() string {
	if b.DueDate == nil {
		return ""
	}
	return strings.TrimSpace(*b.DueDate)
}

// ShortID is the abbreviated id shown in lists.
func (b Board) ShortID() string {
	if len(b.ID) <= 6 {
		return b.ID
	}
	return b.ID[:6]
}

// OrderedItems returns a copy of the items in canonical order. When every item
// carries an orderIndex they are sorted by it; otherwise the received order stands.
func (b Board) OrderedItems() []Item {
	items := make([]Item, len(b.Items))
	copy(items, b.Items)
	for _, it := range items {
		if it.OrderIndex == nil {
			return items
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return *items[i].OrderIndex < *items[j].OrderIndex
	})
	return items
}

// Comment is a note attached to a board.
type Comment struct {
	ID          string `json:"id" yaml:"id"`
	MoodboardID string `json:"moodboardId" yaml:"moodboardId"`
	Content     string `json:"content" yaml:"content"`
	Author      string `json:"author" yaml:"author"`
	CreatedAt   string `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   string `json:"updatedAt" yaml:"updatedAt"`
}

// Attachment is an uploaded file stored by the backend.
type Attachment struct {
	ID          string `json:"id" yaml:"id"`
	MoodboardID string `json:"moodboardId" yaml:"moodboardId"`
	FileName    string `json:"fileName" yaml:"fileName"`
	FileURL     string `json:"fileUrl" yaml:"fileUrl"`
	FileSize    int64  `json:"fileSize" yaml:"fileSize"`
	ContentType string `json:"contentType" yaml:"contentType"`
	UploadedAt  string `json:"uploadedAt" yaml:"uploadedAt"`
}

// StringPtr returns nil for blank strings.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
