package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/apothecary/pkg/types"
)

// itemFlags holds the flag values shared by item create and update.
type itemFlags struct {
	name           string
	description    string
	category       string
	tags           []string
	properties     []string
	uses           []string
	sideEffects    string
	imageURL       string
	propertiesText string
	usesText       string
}

func (f *itemFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, "name", "", "item name")
	fs.StringVar(&f.description, "description", "", "item description")
	fs.StringVar(&f.category, "category", "", "category ID")
	fs.StringSliceVar(&f.tags, "tag", nil, "tag ID (repeatable)")
	fs.StringSliceVar(&f.properties, "property", nil, "property ID (repeatable)")
	fs.StringSliceVar(&f.uses, "use", nil, "use ID (repeatable)")
	fs.StringVar(&f.sideEffects, "side-effects", "", "potential side effects, comma-separated")
	fs.StringVar(&f.imageURL, "image-url", "", "http(s) image URL")
	fs.StringVar(&f.propertiesText, "properties-text", "", "free-text properties, comma-separated")
	fs.StringVar(&f.usesText, "uses-text", "", "free-text uses, comma-separated")
}

func newItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage items",
	}
	cmd.AddCommand(
		newItemListCmd(),
		newItemGetCmd(),
		newItemCreateCmd(),
		newItemUpdateCmd(),
		newItemDeleteCmd(),
	)
	return cmd
}

func newItemListCmd() *cobra.Command {
	var filter types.ItemFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		Args:  cobra.NoArgs,
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			items, err := s.svc.ListItems(ctx, filter)
			if err != nil {
				return err
			}
			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), items)
			}
			rows := make([][]string, len(items))
			for i, it := range items {
				rows[i] = []string{it.ID, it.Name, it.Category.Name, tagNames(it.Tags)}
			}
			return printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "CATEGORY", "TAGS"}, rows)
		}),
	}
	cmd.Flags().StringVar(&filter.CategoryID, "category", "", "only items in this category ID")
	cmd.Flags().StringVar(&filter.TagID, "tag", "", "only items with this tag ID")
	return cmd
}

func newItemGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show an item",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			it, err := s.svc.GetItem(ctx, args[0])
			if err != nil {
				return err
			}
			return printItem(cmd, it)
		}),
	}
}

func newItemCreateCmd() *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an item",
		Args:  cobra.NoArgs,
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			in := types.ItemInput{
				Name:        f.name,
				Description: f.description,
				CategoryID:  f.category,
				TagIDs:      f.tags,
				PropertyIDs: f.properties,
				UseIDs:      f.uses,
			}
			if cmd.Flags().Changed("side-effects") {
				in.PotentialSideEffects = &f.sideEffects
			}
			if cmd.Flags().Changed("image-url") {
				in.ImageURL = &f.imageURL
			}
			if cmd.Flags().Changed("properties-text") {
				in.PropertiesText = &f.propertiesText
			}
			if cmd.Flags().Changed("uses-text") {
				in.UsesText = &f.usesText
			}
			it, err := s.svc.CreateItem(ctx, in)
			if err != nil {
				return err
			}
			return printItem(cmd, it)
		}),
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newItemUpdateCmd() *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an item",
		Long: "Update only the given fields. An empty value clears a nullable text field;\n" +
			"--tag \"\" (likewise --property, --use) removes every association.",
		Args: cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			fs := cmd.Flags()
			patch := types.ItemPatch{
				PotentialSideEffects: optionalFlag(cmd, "side-effects", f.sideEffects),
				ImageURL:             optionalFlag(cmd, "image-url", f.imageURL),
				PropertiesText:       optionalFlag(cmd, "properties-text", f.propertiesText),
				UsesText:             optionalFlag(cmd, "uses-text", f.usesText),
			}
			if fs.Changed("name") {
				patch.Name = &f.name
			}
			if fs.Changed("description") {
				patch.Description = &f.description
			}
			if fs.Changed("category") {
				patch.CategoryID = &f.category
			}
			if fs.Changed("tag") {
				patch.TagIDs = &f.tags
			}
			if fs.Changed("property") {
				patch.PropertyIDs = &f.properties
			}
			if fs.Changed("use") {
				patch.UseIDs = &f.uses
			}
			it, err := s.svc.UpdateItem(ctx, args[0], patch)
			if err != nil {
				return err
			}
			return printItem(cmd, it)
		}),
	}
	f.register(cmd)
	return cmd
}

func newItemDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Long:  "Delete an item, its associations, and its protocol memberships.",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			if err := s.svc.DeleteItem(ctx, args[0]); err != nil {
				return err
			}
			return printDeleted(cmd, "item", args[0])
		}),
	}
}

func printItem(cmd *cobra.Command, it *types.Item) error {
	if flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), it)
	}
	return printFields(cmd.OutOrStdout(), [][2]string{
		{"ID", it.ID},
		{"Name", it.Name},
		{"Description", it.Description},
		{"Category", fmt.Sprintf("%s (%s)", it.Category.Name, it.CategoryID)},
		{"Tags", tagNames(it.Tags)},
		{"Properties", propertyNames(it.Properties)},
		{"Uses", useNames(it.Uses)},
		{"Side effects", deref(it.PotentialSideEffects)},
		{"Image", deref(it.ImageURL)},
		{"Created", formatTime(it.CreatedAt)},
		{"Updated", formatTime(it.UpdatedAt)},
	})
}
