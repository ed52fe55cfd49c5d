package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/apothecary/internal/catalog"
	"github.com/mesh-intelligence/apothecary/pkg/types"
)

// lookupRow is the printable shape shared by categories, tags, properties,
// and uses.
type lookupRow struct {
	ID        string
	Name      string
	Note      *string
	CreatedAt time.Time
}

// lookupOps binds one lookup entity to its store operations. note names the
// optional text field ("description" or "source").
type lookupOps[T any] struct {
	noun   string
	plural string
	note   string
	row    func(T) lookupRow
	list   func(ctx context.Context, svc *catalog.Service) ([]T, error)
	get    func(ctx context.Context, svc *catalog.Service, id string) (*T, error)
	create func(ctx context.Context, svc *catalog.Service, name string, note *string) (*T, error)
	update func(ctx context.Context, svc *catalog.Service, id string, name *string, note types.OptionalString) (*T, error)
	remove func(ctx context.Context, svc *catalog.Service, id string) error
}

func newLookupCmd[T any](ops lookupOps[T]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   ops.noun,
		Short: fmt.Sprintf("Manage %s", ops.plural),
	}
	cmd.AddCommand(
		newLookupListCmd(ops),
		newLookupGetCmd(ops),
		newLookupCreateCmd(ops),
		newLookupUpdateCmd(ops),
		newLookupDeleteCmd(ops),
	)
	return cmd
}

func newLookupListCmd[T any](ops lookupOps[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s", ops.plural),
		Args:  cobra.NoArgs,
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			all, err := ops.list(ctx, s.svc)
			if err != nil {
				return err
			}
			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), all)
			}
			rows := make([][]string, len(all))
			for i, v := range all {
				r := ops.row(v)
				rows[i] = []string{r.ID, r.Name, deref(r.Note)}
			}
			return printTable(cmd.OutOrStdout(), []string{"ID", "NAME", strings.ToUpper(ops.note)}, rows)
		}),
	}
}

func newLookupGetCmd[T any](ops lookupOps[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: fmt.Sprintf("Show a %s", ops.noun),
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			v, err := ops.get(ctx, s.svc, args[0])
			if err != nil {
				return err
			}
			return printLookup(cmd, ops, v)
		}),
	}
}

func newLookupCreateCmd[T any](ops lookupOps[T]) *cobra.Command {
	var name, note string
	cmd := &cobra.Command{
		Use:   "create",
		Short: fmt.Sprintf("Create a %s", ops.noun),
		Args:  cobra.NoArgs,
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			var notePtr *string
			if cmd.Flags().Changed(ops.note) {
				notePtr = &note
			}
			v, err := ops.create(ctx, s.svc, name, notePtr)
			if err != nil {
				return err
			}
			return printLookup(cmd, ops, v)
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "name (required)")
	cmd.Flags().StringVar(&note, ops.note, "", ops.note)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLookupUpdateCmd[T any](ops lookupOps[T]) *cobra.Command {
	var name, note string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: fmt.Sprintf("Update a %s", ops.noun),
		Long:  fmt.Sprintf("Update only the given fields. Pass --%s \"\" to clear it.", ops.note),
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			var namePtr *string
			if cmd.Flags().Changed("name") {
				namePtr = &name
			}
			v, err := ops.update(ctx, s.svc, args[0], namePtr, optionalFlag(cmd, ops.note, note))
			if err != nil {
				return err
			}
			return printLookup(cmd, ops, v)
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&note, ops.note, "", "new "+ops.note)
	return cmd
}

func newLookupDeleteCmd[T any](ops lookupOps[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: fmt.Sprintf("Delete a %s", ops.noun),
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			if err := ops.remove(ctx, s.svc, args[0]); err != nil {
				return err
			}
			return printDeleted(cmd, ops.noun, args[0])
		}),
	}
}

func printLookup[T any](cmd *cobra.Command, ops lookupOps[T], v *T) error {
	if flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), v)
	}
	r := ops.row(*v)
	return printFields(cmd.OutOrStdout(), [][2]string{
		{"ID", r.ID},
		{"Name", r.Name},
		{title(ops.note), deref(r.Note)},
		{"Created", formatTime(r.CreatedAt)},
	})
}

func printDeleted(cmd *cobra.Command, noun, id string) error {
	if flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": id})
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", noun, id)
	return err
}

// optionalFlag maps a string flag to a patch field: unset is absent, an
// empty value is null, anything else is the new value.
func optionalFlag(cmd *cobra.Command, flag, value string) types.OptionalString {
	if !cmd.Flags().Changed(flag) {
		return types.OptionalString{}
	}
	if value == "" {
		return types.Null()
	}
	return types.Some(value)
}

func newCategoryCmd() *cobra.Command {
	return newLookupCmd(lookupOps[types.Category]{
		noun:   "category",
		plural: "categories",
		note:   "description",
		row: func(c types.Category) lookupRow {
			return lookupRow{ID: c.ID, Name: c.Name, Note: c.Description, CreatedAt: c.CreatedAt}
		},
		list: func(ctx context.Context, svc *catalog.Service) ([]types.Category, error) {
			return svc.ListCategories(ctx)
		},
		get: func(ctx context.Context, svc *catalog.Service, id string) (*types.Category, error) {
			return svc.GetCategory(ctx, id)
		},
		create: func(ctx context.Context, svc *catalog.Service, name string, note *string) (*types.Category, error) {
			return svc.CreateCategory(ctx, types.CategoryInput{Name: name, Description: note})
		},
		update: func(ctx context.Context, svc *catalog.Service, id string, name *string, note types.OptionalString) (*types.Category, error) {
			return svc.UpdateCategory(ctx, id, types.CategoryPatch{Name: name, Description: note})
		},
		remove: func(ctx context.Context, svc *catalog.Service, id string) error {
			return svc.DeleteCategory(ctx, id)
		},
	})
}

func newTagCmd() *cobra.Command {
	return newLookupCmd(lookupOps[types.Tag]{
		noun:   "tag",
		plural: "tags",
		note:   "description",
		row: func(t types.Tag) lookupRow {
			return lookupRow{ID: t.ID, Name: t.Name, Note: t.Description, CreatedAt: t.CreatedAt}
		},
		list: func(ctx context.Context, svc *catalog.Service) ([]types.Tag, error) {
			return svc.ListTags(ctx)
		},
		get: func(ctx context.Context, svc *catalog.Service, id string) (*types.Tag, error) {
			return svc.GetTag(ctx, id)
		},
		create: func(ctx context.Context, svc *catalog.Service, name string, note *string) (*types.Tag, error) {
			return svc.CreateTag(ctx, types.TagInput{Name: name, Description: note})
		},
		update: func(ctx context.Context, svc *catalog.Service, id string, name *string, note types.OptionalString) (*types.Tag, error) {
			return svc.UpdateTag(ctx, id, types.TagPatch{Name: name, Description: note})
		},
		remove: func(ctx context.Context, svc *catalog.Service, id string) error {
			return svc.DeleteTag(ctx, id)
		},
	})
}

func newPropertyCmd() *cobra.Command {
	return newLookupCmd(lookupOps[types.Property]{
		noun:   "property",
		plural: "properties",
		note:   "source",
		row: func(p types.Property) lookupRow {
			return lookupRow{ID: p.ID, Name: p.Name, Note: p.Source, CreatedAt: p.CreatedAt}
		},
		list: func(ctx context.Context, svc *catalog.Service) ([]types.Property, error) {
			return svc.ListProperties(ctx)
		},
		get: func(ctx context.Context, svc *catalog.Service, id string) (*types.Property, error) {
			return svc.GetProperty(ctx, id)
		},
		create: func(ctx context.Context, svc *catalog.Service, name string, note *string) (*types.Property, error) {
			return svc.CreateProperty(ctx, types.PropertyInput{Name: name, Source: note})
		},
		update: func(ctx context.Context, svc *catalog.Service, id string, name *string, note types.OptionalString) (*types.Property, error) {
			return svc.UpdateProperty(ctx, id, types.PropertyPatch{Name: name, Source: note})
		},
		remove: func(ctx context.Context, svc *catalog.Service, id string) error {
			return svc.DeleteProperty(ctx, id)
		},
	})
}

func newUseCmd() *cobra.Command {
	return newLookupCmd(lookupOps[types.Use]{
		noun:   "use",
		plural: "uses",
		note:   "source",
		row: func(u types.Use) lookupRow {
			return lookupRow{ID: u.ID, Name: u.Name, Note: u.Source, CreatedAt: u.CreatedAt}
		},
		list: func(ctx context.Context, svc *catalog.Service) ([]types.Use, error) {
			return svc.ListUses(ctx)
		},
		get: func(ctx context.Context, svc *catalog.Service, id string) (*types.Use, error) {
			return svc.GetUse(ctx, id)
		},
		create: func(ctx context.Context, svc *catalog.Service, name string, note *string) (*types.Use, error) {
			return svc.CreateUse(ctx, types.UseInput{Name: name, Source: note})
		},
		update: func(ctx context.Context, svc *catalog.Service, id string, name *string, note types.OptionalString) (*types.Use, error) {
			return svc.UpdateUse(ctx, id, types.UsePatch{Name: name, Source: note})
		},
		remove: func(ctx context.Context, svc *catalog.Service, id string) error {
			return svc.DeleteUse(ctx, id)
		},
	})
}
