package types

import (
	"net/url"
	"strings"
	"time"
)

// Item is a single natural-healing remedy entry, such as an herb. Reads
// from an ItemStore always carry the resolved Category and the Tags,
// Properties, and Uses associated through junction tables.
type Item struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	PropertiesText       *string   `json:"properties_text"`
	UsesText             *string   `json:"uses_text"`
	PotentialSideEffects *string   `json:"potential_side_effects"`
	ImageURL             *string   `json:"image_url"`
	CategoryID           string    `json:"category_id"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	Category   Category   `json:"category"`
	Tags       []Tag      `json:"tags"`
	Properties []Property `json:"properties"`
	Uses       []Use      `json:"uses"`
}

// ItemInput carries the fields for creating an item. PropertiesText and
// UsesText hold the legacy comma-separated free-text form.
type ItemInput struct {
	Name                 string   `json:"name" binding:"required"`
	Description          string   `json:"description" binding:"required"`
	PropertiesText       *string  `json:"properties_text"`
	UsesText             *string  `json:"uses_text"`
	PotentialSideEffects *string  `json:"potential_side_effects"`
	ImageURL             *string  `json:"image_url"`
	CategoryID           string   `json:"category_id" binding:"required"`
	TagIDs               []string `json:"tag_ids"`
	PropertyIDs          []string `json:"property_ids"`
	UseIDs               []string `json:"use_ids"`
}

// Validate checks required fields and the image URL. Reference existence
// is checked by the store.
func (in ItemInput) Validate() error {
	if err := validateName(in.Name); err != nil {
		return err
	}
	if strings.TrimSpace(in.Description) == "" {
		return ErrInvalidData
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return ErrInvalidID
	}
	if in.ImageURL != nil {
		return ValidateImageURL(*in.ImageURL)
	}
	return nil
}

// ItemPatch carries a partial item update. A non-nil id slice pointer
// replaces that association set entirely; an empty slice clears it.
type ItemPatch struct {
	Name                 *string        `json:"name"`
	Description          *string        `json:"description"`
	PropertiesText       OptionalString `json:"properties_text"`
	UsesText             OptionalString `json:"uses_text"`
	PotentialSideEffects OptionalString `json:"potential_side_effects"`
	ImageURL             OptionalString `json:"image_url"`
	CategoryID           *string        `json:"category_id"`
	TagIDs               *[]string      `json:"tag_ids"`
	PropertyIDs          *[]string      `json:"property_ids"`
	UseIDs               *[]string      `json:"use_ids"`
}

// Validate checks the fields present in the patch.
func (p ItemPatch) Validate() error {
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			return err
		}
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return ErrInvalidData
	}
	if p.CategoryID != nil && strings.TrimSpace(*p.CategoryID) == "" {
		return ErrInvalidID
	}
	if p.ImageURL.Set && p.ImageURL.Value != nil {
		return ValidateImageURL(*p.ImageURL.Value)
	}
	return nil
}

// ValidateImageURL returns ErrInvalidURL unless raw is an absolute http or
// https URL with a host.
func ValidateImageURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidURL
	}
	if u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
