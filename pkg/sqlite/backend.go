// Package sqlite provides the public API for the SQLite catalog backend.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/apothecary/internal/sqlite"
	"github.com/mesh-intelligence/apothecary/pkg/types"
)

// NewBackend creates a new SQLite backend instance. A nil logger disables
// logging. The backend is not attached; call Attach with a Config to
// initialize.
//
// Example:
//
//	catalog := sqlite.NewBackend(nil)
//	err := catalog.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".apothecary-db",
//	})
//	defer catalog.Detach()
func NewBackend(log *zap.Logger) types.Catalog {
	return sqlite.NewBackend(log)
}
