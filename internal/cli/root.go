// Package cli implements the apothecary command-line interface.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/apothecary/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

var flags rootFlags

// NewRootCmd creates the top-level "apothecary" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags = rootFlags{}

	root := &cobra.Command{
		Use:   "apothecary",
		Short: "A catalog of natural healing remedies",
		Long: "Apothecary manages a catalog of natural healing items (herbs and the like),\n" +
			"their categories, tags, properties, and uses, and protocols that group\n" +
			"items together with aggregated metadata.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .apothecary-db)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newCategoryCmd())
	root.AddCommand(newTagCmd())
	root.AddCommand(newPropertyCmd())
	root.AddCommand(newUseCmd())
	root.AddCommand(newItemCmd())
	root.AddCommand(newProtocolCmd())

	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// systemError marks a failure of the environment or backend rather than of
// the caller's input.
type systemError struct {
	err error
}

func (e *systemError) Error() string { return e.err.Error() }
func (e *systemError) Unwrap() error { return e.err }

// classify wraps err as a systemError unless it is a user error.
func classify(err error) error {
	if err == nil || types.IsUserError(err) {
		return err
	}
	var se *systemError
	if errors.As(err, &se) {
		return err
	}
	return &systemError{err: err}
}

// exitCode maps err to an exit code. Errors that are neither user errors
// nor system errors come from cobra's argument and flag parsing.
func exitCode(err error) int {
	var se *systemError
	switch {
	case err == nil:
		return exitSuccess
	case types.IsUserError(err):
		return exitUserError
	case errors.As(err, &se):
		return exitSysError
	default:
		return exitUserError
	}
}
