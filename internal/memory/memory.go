// Package memory defines the scrapbook entry and the pure list operations
// applied to it: validation, partial updates, search and ordering.
package memory

import (
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/lazypower/scrapbook/internal/media"
)

// DateLayout is the ISO calendar date format of Entry.Date.
const DateLayout = "2006-01-02"

// Entry is one scrapbook memory.
type Entry struct {
	ID          string      `json:"id"`
	Title       string      `json:"title" validate:"required"`
	Date        string      `json:"date" validate:"required,datetime=2006-01-02"`
	Location    string      `json:"location,omitempty"`
	Description string      `json:"description,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Photos      []media.Ref `json:"photos"`
	CreatedAt   int64       `json:"created_at,omitempty"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string      `json:"title,omitempty" validate:"omitnil,min=1"`
	Date        *string      `json:"date,omitempty" validate:"omitnil,datetime=2006-01-02"`
	Location    *string      `json:"location,omitempty"`
	Description *string      `json:"description,omitempty"`
	Tags        *[]string    `json:"tags,omitempty"`
	Photos      *[]media.Ref `json:"photos,omitempty"`
}

// Empty reports whether the patch sets nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Date == nil && p.Location == nil &&
		p.Description == nil && p.Tags == nil && p.Photos == nil
}

// Apply returns a copy of e with the supplied fields replaced.
func (p Patch) Apply(e Entry) Entry {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Tags != nil {
		e.Tags = slices.Clone(*p.Tags)
	}
	if p.Photos != nil {
		e.Photos = slices.Clone(*p.Photos)
	}
	return e
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator, configured to report JSON field
// names in its errors.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks the required fields of an entry.
func Validate(e Entry) error {
	return Validator().Struct(e)
}

// ValidatePatch checks the fields a patch supplies.
func ValidatePatch(p Patch) error {
	return Validator().Struct(p)
}
