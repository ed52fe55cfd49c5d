// Package types defines the catalog entities, create inputs and partial
// patches, the Catalog storage interfaces, and the sentinel errors shared by
// every apothecary backend and surface.
package types
