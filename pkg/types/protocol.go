package types

import "time"

// Protocol is a named grouping of items followed together as one regimen.
// Membership order is kept for display but carries no meaning.
type Protocol struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProtocolWithItems is a protocol with its member items resolved.
type ProtocolWithItems struct {
	Protocol
	Items []Item `json:"items"`
}

// ProtocolWithMetadata adds the aggregated metadata computed from the
// member items at read time.
type ProtocolWithMetadata struct {
	ProtocolWithItems
	AggregatedMetadata ProtocolAggregatedMetadata `json:"aggregated_metadata"`
}

// ProtocolAggregatedMetadata summarizes what following every item of a
// protocol together involves. CommonProperties and CommonUses are unions
// across the items, not intersections.
type ProtocolAggregatedMetadata struct {
	CommonProperties []Property `json:"common_properties"`
	CommonUses       []Use      `json:"common_uses"`
	AllSideEffects   []string   `json:"all_side_effects"`
	Categories       []Category `json:"categories"`
	Tags             []Tag      `json:"tags"`
}

// ProtocolInput carries the fields for creating a protocol.
type ProtocolInput struct {
	Name        string   `json:"name" binding:"required"`
	Description *string  `json:"description"`
	ItemIDs     []string `json:"item_ids"`
}

// Validate returns ErrInvalidName if the name is blank.
func (in ProtocolInput) Validate() error {
	return validateName(in.Name)
}

// ProtocolPatch carries a partial protocol update. A non-nil ItemIDs
// replaces the membership entirely.
type ProtocolPatch struct {
	Name        *string        `json:"name"`
	Description OptionalString `json:"description"`
	ItemIDs     *[]string      `json:"item_ids"`
}

// Validate returns ErrInvalidName if a name is present but blank.
func (p ProtocolPatch) Validate() error {
	if p.Name != nil {
		return validateName(*p.Name)
	}
	return nil
}
