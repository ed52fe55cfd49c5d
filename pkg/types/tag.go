package types

import "time"

// Tag is a descriptive label attached to items.
type Tag struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// TagInput carries the fields for creating a tag.
type TagInput struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// Validate returns ErrInvalidName if the name is blank.
func (in TagInput) Validate() error {
	return validateName(in.Name)
}

// TagPatch carries a partial tag update.
type TagPatch struct {
	Name        *string        `json:"name"`
	Description OptionalString `json:"description"`
}

// Validate returns ErrInvalidName if a name is present but blank.
func (p TagPatch) Validate() error {
	if p.Name != nil {
		return validateName(*p.Name)
	}
	return nil
}
