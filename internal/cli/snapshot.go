package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/apothecary/internal/paths"
)

func newExportCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog to JSONL files",
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			target, err := paths.ResolveSnapshotDir(dir, s.settings.DataDir)
			if err != nil {
				return err
			}
			counts, err := s.backend.Export(ctx, target)
			if err != nil {
				return err
			}
			return printCounts(cmd, "Exported", target, counts)
		}),
	}
	cmd.Flags().StringVar(&dir, "dir", "", "snapshot directory (default: <data-dir>/snapshot)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import JSONL files into the catalog",
		Long:  "Upsert every record of a snapshot directory in one transaction. Missing files are skipped.",
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			source, err := paths.ResolveSnapshotDir(dir, s.settings.DataDir)
			if err != nil {
				return err
			}
			counts, err := s.backend.Import(ctx, source)
			if err != nil {
				return err
			}
			return printCounts(cmd, "Imported", source, counts)
		}),
	}
	cmd.Flags().StringVar(&dir, "dir", "", "snapshot directory (default: <data-dir>/snapshot)")
	return cmd
}

func printCounts(cmd *cobra.Command, verb, dir string, counts map[string]int) error {
	out := cmd.OutOrStdout()
	if flags.jsonMode {
		return printJSON(out, map[string]any{"dir": dir, "tables": counts})
	}

	tables := make([]string, 0, len(counts))
	for table := range counts {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	rows := make([][]string, len(tables))
	for i, table := range tables {
		rows[i] = []string{table, fmt.Sprint(counts[table])}
	}
	fmt.Fprintf(out, "%s %s\n", verb, dir)
	return printTable(out, []string{"TABLE", "RECORDS"}, rows)
}
