package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/apothecary/internal/catalog"
	"github.com/mesh-intelligence/apothecary/internal/logging"
	"github.com/mesh-intelligence/apothecary/internal/sqlite"
	"github.com/mesh-intelligence/apothecary/pkg/aggregate"
	"github.com/mesh-intelligence/apothecary/pkg/types"
)

// session is one attached backend plus the service and logger built on it.
type session struct {
	settings settings
	log      *zap.Logger
	backend  *sqlite.Backend
	svc      *catalog.Service
}

// openSession resolves settings, builds the logger, and attaches the
// backend. Callers must Close the session.
func openSession() (*session, error) {
	s, err := resolveSettings()
	if err != nil {
		return nil, err
	}

	log, err := logging.New(s.LogMode, s.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	agg, err := aggregate.New(s.AggregationMode)
	if err != nil {
		return nil, err
	}

	backend := sqlite.NewBackend(log)
	if err := backend.Attach(types.Config{Backend: s.Backend, DataDir: s.DataDir}); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}

	return &session{
		settings: s,
		log:      log,
		backend:  backend,
		svc:      catalog.New(backend, agg, log),
	}, nil
}

// Close detaches the backend and flushes the logger.
func (s *session) Close() {
	if err := s.backend.Detach(); err != nil {
		s.log.Warn("detach backend", zap.Error(err))
	}
	_ = s.log.Sync()
}

// runFunc is the body of a command that needs an attached catalog.
type runFunc func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error

// withSession adapts fn into a cobra RunE that opens a session around it
// and classifies the returned error for the exit code.
func withSession(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return classify(err)
		}
		defer s.Close()
		return classify(fn(cmd.Context(), cmd, args, s))
	}
}
