package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample catalog",
		Long:  "Insert sample categories, items, and a protocol. Does nothing if any category exists.",
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			seeded, err := s.backend.Seed(ctx)
			if err != nil {
				return err
			}
			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]bool{"seeded": seeded})
			}
			if seeded {
				fmt.Fprintln(cmd.OutOrStdout(), "Sample catalog seeded")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Catalog already has data; nothing seeded")
			}
			return nil
		}),
	}
}
