package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ignite/internal/api"
	"ignite/internal/marker"
	"ignite/internal/store"
)

func newMutationCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newRegisterCommand(ctx),
		newUpdateCommand(ctx),
		newDeleteCommand(ctx),
		newRenameCommand(ctx, false),
		newRenameCommand(ctx, true),
	}
}

// metadataFlags collects marker edits shared by register, update and
// version create.
type metadataFlags struct {
	set      []string
	unset    []string
	tags     []string
	repr     string
	comment  string
	taskType string
}

func (m *metadataFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&m.set, "set", nil, "Set an attribute (key=value, repeatable)")
	cmd.Flags().StringArrayVar(&m.unset, "unset", nil, "Remove an attribute (repeatable)")
	cmd.Flags().StringSliceVar(&m.tags, "tag", nil, "Replace the tag list (repeatable or comma separated)")
	cmd.Flags().StringVar(&m.repr, "repr", "", "Point the entity's representative at an address or path")
	cmd.Flags().StringVar(&m.comment, "comment", "", "Set the comment")
	cmd.Flags().StringVar(&m.taskType, "task-type", "", "Set the task type")
}

// document builds a marker delta from the flags that were given.
func (m *metadataFlags) document(cmd *cobra.Command) (marker.Document, error) {
	doc := marker.Document{}
	if len(m.set) > 0 || len(m.unset) > 0 {
		attrs := map[string]any{}
		for _, pair := range m.set {
			key, value, ok := strings.Cut(pair, "=")
			key = strings.TrimSpace(key)
			if !ok || key == "" {
				return nil, fmt.Errorf("%w: --set expects key=value, got %q", store.ErrInvalidArgument, pair)
			}
			attrs[key] = value
		}
		for _, key := range m.unset {
			attrs[strings.TrimSpace(key)] = nil
		}
		doc[marker.KeyAttributes] = attrs
	}
	if cmd.Flags().Changed("tag") {
		tags := make([]any, 0, len(m.tags))
		for _, t := range m.tags {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		doc[marker.KeyTags] = tags
	}
	if cmd.Flags().Changed("repr") {
		if strings.TrimSpace(m.repr) == "" {
			doc[marker.KeyRepr] = nil
		} else {
			doc[marker.KeyRepr] = strings.TrimSpace(m.repr)
		}
	}
	if cmd.Flags().Changed("comment") {
		doc[marker.KeyComment] = m.comment
	}
	if cmd.Flags().Changed("task-type") {
		doc[marker.KeyTaskType] = strings.TrimSpace(m.taskType)
	}
	return doc, nil
}

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	var meta metadataFlags

	cmd := &cobra.Command{
		Use:   "register <kind> <path|address>",
		Short: "Mark a directory as an entity, creating it when needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := meta.document(cmd)
			if err != nil {
				return ctx.fail(cmd, err)
			}
			return ctx.withService(func(svc *api.Service) error {
				e, err := svc.Register(cmd.Context(), api.RegisterRequest{Target: args[1], Kind: args[0], Metadata: doc})
				if err != nil {
					return ctx.fail(cmd, err)
				}
				return ctx.emit(cmd, e, nil, func() error {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), summary("Registered", e))
					return err
				})
			})
		},
	}
	meta.bind(cmd)
	return cmd
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var meta metadataFlags

	cmd := &cobra.Command{
		Use:   "update <path|address>",
		Short: "Merge metadata into an entity's marker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := meta.document(cmd)
			if err != nil {
				return ctx.fail(cmd, err)
			}
			return ctx.withService(func(svc *api.Service) error {
				e, err := svc.Update(cmd.Context(), api.UpdateRequest{Target: args[0], Metadata: doc})
				if err != nil {
					return ctx.fail(cmd, err)
				}
				return ctx.emit(cmd, e, nil, func() error { return renderEntity(cmd, e) })
			})
		},
	}
	meta.bind(cmd)
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <path|address>",
		Short: "Delete an entity and everything below it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return ctx.fail(cmd, fmt.Errorf("%w: refusing to delete without --yes", store.ErrInvalidArgument))
			}
			return ctx.withService(func(svc *api.Service) error {
				e, err := svc.Delete(cmd.Context(), args[0])
				if err != nil {
					return ctx.fail(cmd, err)
				}
				return ctx.emit(cmd, e, nil, func() error {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), summary("Deleted", e))
					return err
				})
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	return cmd
}

// newRenameCommand builds "rename" or, with duplicate set, "copy".
func newRenameCommand(ctx *commandContext, duplicate bool) *cobra.Command {
	use, short, verb := "rename", "Rename an entity in place", "Renamed to"
	if duplicate {
		use, short, verb = "copy", "Copy an entity beside itself under a new name", "Copied to"
	}

	return &cobra.Command{
		Use:   use + " <path|address> <new-name>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.RenameRequest{Target: args[0], Name: args[1]}
			return ctx.withService(func(svc *api.Service) error {
				run := svc.Rename
				if duplicate {
					run = svc.Copy
				}
				e, err := run(cmd.Context(), req)
				if err != nil {
					return ctx.fail(cmd, err)
				}
				return ctx.emit(cmd, e, nil, func() error {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), summary(verb, e))
					return err
				})
			})
		},
	}
}
