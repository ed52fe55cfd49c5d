package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/apothecary/pkg/types"
)

func newProtocolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "protocol",
		Short: "Manage protocols",
	}
	cmd.AddCommand(
		newProtocolListCmd(),
		newProtocolGetCmd(),
		newProtocolCreateCmd(),
		newProtocolUpdateCmd(),
		newProtocolDeleteCmd(),
	)
	return cmd
}

func newProtocolListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List protocols",
		Args:  cobra.NoArgs,
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			all, err := s.svc.ListProtocols(ctx)
			if err != nil {
				return err
			}
			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), all)
			}
			rows := make([][]string, len(all))
			for i, p := range all {
				rows[i] = []string{p.ID, p.Name, fmt.Sprint(len(p.Items))}
			}
			return printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "ITEMS"}, rows)
		}),
	}
}

func newProtocolGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a protocol with its aggregated metadata",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			p, err := s.svc.DescribeProtocol(ctx, args[0])
			if err != nil {
				return err
			}
			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), p)
			}

			itemNames := make([]string, len(p.Items))
			for i, it := range p.Items {
				itemNames[i] = it.Name
			}
			meta := p.AggregatedMetadata
			return printFields(cmd.OutOrStdout(), [][2]string{
				{"ID", p.ID},
				{"Name", p.Name},
				{"Description", deref(p.Description)},
				{"Items", strings.Join(itemNames, ", ")},
				{"Properties", propertyNames(meta.CommonProperties)},
				{"Uses", useNames(meta.CommonUses)},
				{"Side effects", strings.Join(meta.AllSideEffects, ", ")},
				{"Categories", categoryNames(meta.Categories)},
				{"Tags", tagNames(meta.Tags)},
				{"Updated", formatTime(p.UpdatedAt)},
			})
		}),
	}
}

func newProtocolCreateCmd() *cobra.Command {
	var (
		name, description string
		items             []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a protocol",
		Args:  cobra.NoArgs,
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			in := types.ProtocolInput{Name: name, ItemIDs: items}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			p, err := s.svc.CreateProtocol(ctx, in)
			if err != nil {
				return err
			}
			return printProtocol(cmd, p)
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "protocol name (required)")
	cmd.Flags().StringVar(&description, "description", "", "protocol description")
	cmd.Flags().StringSliceVar(&items, "item", nil, "member item ID (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProtocolUpdateCmd() *cobra.Command {
	var (
		name, description string
		items             []string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a protocol",
		Long:  "Update only the given fields. --item replaces the membership; --item \"\" empties it.",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			patch := types.ProtocolPatch{Description: optionalFlag(cmd, "description", description)}
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("item") {
				patch.ItemIDs = &items
			}
			p, err := s.svc.UpdateProtocol(ctx, args[0], patch)
			if err != nil {
				return err
			}
			return printProtocol(cmd, p)
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringSliceVar(&items, "item", nil, "member item ID (repeatable)")
	return cmd
}

func newProtocolDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a protocol",
		Long:  "Delete a protocol. Its member items are kept.",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, cmd *cobra.Command, args []string, s *session) error {
			if err := s.svc.DeleteProtocol(ctx, args[0]); err != nil {
				return err
			}
			return printDeleted(cmd, "protocol", args[0])
		}),
	}
}

func printProtocol(cmd *cobra.Command, p *types.ProtocolWithItems) error {
	if flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), p)
	}
	itemNames := make([]string, len(p.Items))
	for i, it := range p.Items {
		itemNames[i] = it.Name
	}
	return printFields(cmd.OutOrStdout(), [][2]string{
		{"ID", p.ID},
		{"Name", p.Name},
		{"Description", deref(p.Description)},
		{"Items", strings.Join(itemNames, ", ")},
	})
}
