package moodboard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// DueDateLayout is the date format the backend expects for due dates.
const DueDateLayout = "2006-01-02"

// ItemPayload is the wire form of an item in a replace request. Item ids are
// never sent; the backend assigns them on replace.
//
// Every replace resends the board's current items, so fields here only get
// the checks that stored data is certain to pass. New input goes through
// ValidateColor as well.
type ItemPayload struct {
	Text       string  `json:"text" yaml:"text" validate:"required"`
	Color      *string `json:"color,omitempty" yaml:"color,omitempty" validate:"omitempty,csscolor"`
	OrderIndex int     `json:"orderIndex" yaml:"orderIndex" validate:"min=0"`
}

// BoardPayload is the body of POST /moodboards and PUT /moodboards/{id}.
type BoardPayload struct {
	Title       string        `json:"title" yaml:"title" validate:"required"`
	Description string        `json:"description" yaml:"description"`
	DueDate     *string       `json:"dueDate" yaml:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	Items       []ItemPayload `json:"items" yaml:"items" validate:"dive"`
}

// CommentInput is the body of POST /moodboards/{id}/comments.
type CommentInput struct {
	Content string `json:"content" validate:"required,max=2000"`
	Author  string `json:"author" validate:"max=100"`
}

// NewCommentInput trims both fields and falls back to AnonymousAuthor.
func NewCommentInput(content, author string) CommentInput {
	author = strings.TrimSpace(author)
	if author == "" {
		author = AnonymousAuthor
	}
	return CommentInput{Content: strings.TrimSpace(content), Author: author}
}

// PayloadFromBoard rebuilds a replace payload from canonical server state,
// used when only board-level fields change.
func PayloadFromBoard(b Board) BoardPayload {
	items := b.OrderedItems()
	p := BoardPayload{
		Title:       strings.TrimSpace(b.Title),
		Description: strings.TrimSpace(b.DescriptionValue()),
		DueDate:     StringPtr(b.DueDateValue()),
		Items:       make([]ItemPayload, 0, len(items)),
	}
	for i, it := range items {
		p.Items = append(p.Items, ItemPayload{
			Text:       it.Text,
			Color:      StringPtr(it.ColorValue()),
			OrderIndex: i,
		})
	}
	return p
}

// ValidationError is a client-side rejection raised before any request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var validate = newValidator()

// colorShape is the syntax accepted for newly entered colors: hex, a keyword,
// or a CSS function such as rgb(10 20 30), var(--brand) or color-mix(...).
var colorShape = regexp.MustCompile(`^(?:#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})|[a-zA-Z][a-zA-Z0-9-]*(?:\(.*\))?)$`)

func newValidator() *validator.Validate {
	v := validator.New()
	// csscolor only rejects control characters; the backend owns the rest.
	_ = v.RegisterValidation("csscolor", func(fl validator.FieldLevel) bool {
		return !strings.ContainsFunc(fl.Field().String(), unicode.IsControl)
	})
	return v
}

// Validate checks the payload, including the contiguous 0..n-1 item order.
func (p BoardPayload) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if err := validate.Struct(p); err != nil {
		return fromValidator(err)
	}
	for i, it := range p.Items {
		if it.OrderIndex != i {
			return &ValidationError{
				Field:  fmt.Sprintf("items[%d].orderIndex", i),
				Reason: fmt.Sprintf("must be %d, got %d", i, it.OrderIndex),
			}
		}
	}
	return nil
}

func (c CommentInput) Validate() error {
	if strings.TrimSpace(c.Content) == "" {
		return &ValidationError{Field: "content", Reason: "is required"}
	}
	if err := validate.Struct(c); err != nil {
		return fromValidator(err)
	}
	return nil
}

// ValidateColor checks a newly entered color. Colors already stored on a
// board are not rechecked.
func ValidateColor(color string) error {
	color = strings.TrimSpace(color)
	if color == "" {
		return nil
	}
	if err := validate.Var(color, "csscolor"); err != nil || !colorShape.MatchString(color) {
		return &ValidationError{Field: "color", Reason: fmt.Sprintf("%q is not a CSS color", color)}
	}
	return nil
}

// ValidateDueDate accepts "" or a YYYY-MM-DD date.
func ValidateDueDate(due string) error {
	due = strings.TrimSpace(due)
	if due == "" {
		return nil
	}
	if err := validate.Var(due, "datetime="+DueDateLayout); err != nil {
		return &ValidationError{Field: "dueDate", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", due)}
	}
	return nil
}

func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fieldName(fe.Namespace())

	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Reason: "is required"}
	case "max":
		return &ValidationError{Field: field, Reason: "must be at most " + fe.Param() + " characters"}
	case "min":
		return &ValidationError{Field: field, Reason: "must be at least " + fe.Param()}
	case "datetime":
		return &ValidationError{Field: field, Reason: "must be a YYYY-MM-DD date"}
	default:
		return &ValidationError{Field: field, Reason: fmt.Sprintf("is not a valid value (%s)", fe.Tag())}
	}
}

// fieldName turns "BoardPayload.Items[2].Color" into "items[2].color".
func fieldName(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	parts := strings.Split(ns, ".")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToLower(p[:1]) + p[1:]
	}
	return strings.Join(parts, ".")
}
