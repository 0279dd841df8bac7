package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ignite/internal/api"
)

func newEntityCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newResolveCommand(ctx),
		newPathCommand(ctx),
		newAddressCommand(ctx),
		newReprCommand(ctx),
	}
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path|address>",
		Short: "Show the entity at a path or address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.Service) error {
				e, err := svc.Resolve(cmd.Context(), args[0])
				if err != nil {
					return ctx.fail(cmd, err)
				}
				return ctx.emit(cmd, e, nil, func() error { return renderEntity(cmd, e) })
			})
		},
	}
}

func newPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path <path|address>",
		Short: "Print the directory an address names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.Service) error {
				path, err := svc.Path(cmd.Context(), args[0])
				if err != nil {
					return ctx.fail(cmd, err)
				}
				return ctx.emit(cmd, path, nil, func() error {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
					return err
				})
			})
		},
	}
}

func newAddressCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "address <path>",
		Short: "Print the canonical address of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.Service) error {
				uri, err := svc.Address(cmd.Context(), args[0])
				if err != nil {
					return ctx.fail(cmd, err)
				}
				return ctx.emit(cmd, uri, nil, func() error {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), uri)
					return err
				})
			})
		},
	}
}

func newReprCommand(ctx *commandContext) *cobra.Command {
	var showChain bool

	cmd := &cobra.Command{
		Use:   "repr <path|address>",
		Short: "Resolve the thumbnail that represents an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.Service) error {
				thumb, err := svc.Repr(cmd.Context(), args[0])
				if err != nil {
					return ctx.fail(cmd, err)
				}
				return ctx.emit(cmd, thumb, nil, func() error {
					out := cmd.OutOrStdout()
					if thumb == nil {
						_, err := fmt.Fprintln(out, "No representative component")
						return err
					}
					fmt.Fprintln(out, thumb.Component.Path)
					if showChain {
						for i, step := range thumb.Chain {
							fmt.Fprintf(out, "  %d. %s\n", i+1, step)
						}
					}
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVar(&showChain, "chain", false, "Also print the repr pointers that were followed")
	return cmd
}
