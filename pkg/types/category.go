package types

import (
	"strings"
	"time"
)

// Category groups items. Every item belongs to exactly one category.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategoryInput carries the fields for creating a category.
type CategoryInput struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// Validate returns ErrInvalidName if the name is blank.
func (in CategoryInput) Validate() error {
	return validateName(in.Name)
}

// CategoryPatch carries a partial category update.
type CategoryPatch struct {
	Name        *string        `json:"name"`
	Description OptionalString `json:"description"`
}

// Validate returns ErrInvalidName if a name is present but blank.
func (p CategoryPatch) Validate() error {
	if p.Name != nil {
		return validateName(*p.Name)
	}
	return nil
}

// validateName rejects names that are empty after trimming.
func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	return nil
}
