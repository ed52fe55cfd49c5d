package types

import "time"

// Property is a therapeutic property an item exhibits, such as
// "Anti-inflammatory". Source optionally cites where the claim comes from.
type Property struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Source    *string   `json:"source"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// PropertyInput carries the fields for creating a property.
type PropertyInput struct {
	Name   string  `json:"name" binding:"required"`
	Source *string `json:"source"`
}

// Validate returns ErrInvalidName if the name is blank.
func (in PropertyInput) Validate() error {
	return validateName(in.Name)
}

// PropertyPatch carries a partial property update.
type PropertyPatch struct {
	Name   *string        `json:"name"`
	Source OptionalString `json:"source"`
}

// Validate returns ErrInvalidName if a name is present but blank.
func (p PropertyPatch) Validate() error {
	if p.Name != nil {
		return validateName(*p.Name)
	}
	return nil
}

// Use is an application an item is taken for, such as "Joint health".
type Use struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Source    *string   `json:"source"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// UseInput carries the fields for creating a use.
type UseInput struct {
	Name   string  `json:"name" binding:"required"`
	Source *string `json:"source"`
}

// Validate returns ErrInvalidName if the name is blank.
func (in UseInput) Validate() error {
	return validateName(in.Name)
}

// UsePatch carries a partial use update.
type UsePatch struct {
	Name   *string        `json:"name"`
	Source OptionalString `json:"source"`
}

// Validate returns ErrInvalidName if a name is present but blank.
func (p UsePatch) Validate() error {
	if p.Name != nil {
		return validateName(*p.Name)
	}
	return nil
}
