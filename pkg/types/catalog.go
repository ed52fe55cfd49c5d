package types

import (
	"context"
	"errors"
)

// Catalog is the backend-agnostic storage for the natural-healing catalog.
// Callers attach to a backend, use the typed stores, and detach when done.
type Catalog interface {
	CategoryStore
	TagStore
	PropertyStore
	UseStore
	ItemStore
	ProtocolStore

	// Attach connects the Catalog to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, every store operation returns ErrCatalogDetached.
	Detach() error
}

// CategoryStore persists categories. DeleteCategory returns
// ErrReferentialConstraint while any item still references the category.
type CategoryStore interface {
	CreateCategory(ctx context.Context, in CategoryInput) (*Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (*Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// TagStore persists tags. Deleting a tag removes its item associations.
type TagStore interface {
	CreateTag(ctx context.Context, in TagInput) (*Tag, error)
	GetTag(ctx context.Context, id string) (*Tag, error)
	ListTags(ctx context.Context) ([]Tag, error)
	UpdateTag(ctx context.Context, id string, patch TagPatch) (*Tag, error)
	DeleteTag(ctx context.Context, id string) error
}

// PropertyStore persists properties. Deleting a property removes its item
// associations.
type PropertyStore interface {
	CreateProperty(ctx context.Context, in PropertyInput) (*Property, error)
	GetProperty(ctx context.Context, id string) (*Property, error)
	ListProperties(ctx context.Context) ([]Property, error)
	UpdateProperty(ctx context.Context, id string, patch PropertyPatch) (*Property, error)
	DeleteProperty(ctx context.Context, id string) error
}

// UseStore persists uses. Deleting a use removes its item associations.
type UseStore interface {
	CreateUse(ctx context.Context, in UseInput) (*Use, error)
	GetUse(ctx context.Context, id string) (*Use, error)
	ListUses(ctx context.Context) ([]Use, error)
	UpdateUse(ctx context.Context, id string, patch UsePatch) (*Use, error)
	DeleteUse(ctx context.Context, id string) error
}

// ItemStore persists items together with their category reference and their
// tag, property, and use associations. Every returned Item has its relations
// resolved.
type ItemStore interface {
	CreateItem(ctx context.Context, in ItemInput) (*Item, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]Item, error)
	UpdateItem(ctx context.Context, id string, patch ItemPatch) (*Item, error)
	DeleteItem(ctx context.Context, id string) error
}

// ProtocolStore persists protocols and their item memberships.
type ProtocolStore interface {
	CreateProtocol(ctx context.Context, in ProtocolInput) (*ProtocolWithItems, error)
	GetProtocol(ctx context.Context, id string) (*ProtocolWithItems, error)
	ListProtocols(ctx context.Context) ([]ProtocolWithItems, error)
	UpdateProtocol(ctx context.Context, id string, patch ProtocolPatch) (*ProtocolWithItems, error)
	DeleteProtocol(ctx context.Context, id string) error

	// FetchProtocolItems returns the protocol's member items in membership
	// order, each with category, tags, properties, and uses resolved.
	// Returns ErrNotFound if the protocol does not exist and an empty slice
	// if it has no members.
	FetchProtocolItems(ctx context.Context, protocolID string) ([]Item, error)
}

// ItemFilter narrows ListItems. Empty fields match everything.
type ItemFilter struct {
	CategoryID string
	TagID      string
}

// Catalog lifecycle errors.
var (
	ErrCatalogDetached = errors.New("catalog is detached")
	ErrAlreadyAttached = errors.New("catalog is already attached")
)

// Store operation errors.
var (
	ErrNotFound              = errors.New("entity not found")
	ErrReferentialConstraint = errors.New("referential constraint violation")
	ErrInvalidID             = errors.New("invalid entity ID")
	ErrInvalidName           = errors.New("invalid name")
	ErrInvalidData           = errors.New("invalid entity data")
	ErrInvalidURL            = errors.New("invalid URL")
)

// IsUserError reports whether err stems from caller input rather than from
// the backend: missing references, referential guards, or validation.
func IsUserError(err error) bool {
	for _, target := range []error{
		ErrNotFound,
		ErrReferentialConstraint,
		ErrInvalidID,
		ErrInvalidName,
		ErrInvalidData,
		ErrInvalidURL,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
