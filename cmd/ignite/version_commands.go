package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ignite/internal/api"
)

func newVersionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "versions <asset>",
		Short: "List an asset's versions with their scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.Service) error {
				resp, err := svc.Versions(cmd.Context(), args[0])
				if err != nil {
					return ctx.fail(cmd, err)
				}
				return ctx.emit(cmd, resp, nil, func() error { return renderVersions(cmd, resp) })
			})
		},
	}
}

func renderVersions(cmd *cobra.Command, resp api.VersionsResponse) error {
	out := cmd.OutOrStdout()
	title := resp.Asset
	if resp.URI != "" {
		title = resp.URI
	}
	fmt.Fprintln(out, title)
	if len(resp.Versions) == 0 {
		_, err := fmt.Fprintf(out, "No versions (next: %d)\n", resp.Next)
		return err
	}
	rows := make([][]string, 0, len(resp.Versions))
	for _, v := range resp.Versions {
		var marks []string
		if v.Version == resp.Latest {
			marks = append(marks, "latest")
		}
		if v.Version == resp.Best {
			marks = append(marks, colorize(out, ansiGreen, "best"))
		}
		created := "-"
		if !v.CreatedAt.IsZero() {
			created = v.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			v.Version,
			strconv.Itoa(v.Score),
			orDash(strings.Join(v.Tags, ", ")),
			orDash(strings.Join(marks, " ")),
			created,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Version", "Score", "Tags", "", "Created"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
	))
	_, err := fmt.Fprintf(out, "Next version: %d\n", resp.Next)
	return err
}

func newVersionCommand(ctx *commandContext) *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Version management",
	}
	versionCmd.AddCommand(newVersionCreateCommand(ctx))
	return versionCmd
}

func newVersionCreateCommand(ctx *commandContext) *cobra.Command {
	var number int
	var meta metadataFlags

	cmd := &cobra.Command{
		Use:   "create <asset>",
		Short: "Create the next version of an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := meta.document(cmd)
			if err != nil {
				return ctx.fail(cmd, err)
			}
			req := api.CreateVersionRequest{Target: args[0], Version: number, Metadata: doc}
			return ctx.withService(func(svc *api.Service) error {
				e, err := svc.CreateVersion(cmd.Context(), req)
				if err != nil {
					return ctx.fail(cmd, err)
				}
				return ctx.emit(cmd, e, nil, func() error {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), summary("Created", e))
					return err
				})
			})
		},
	}
	cmd.Flags().IntVarP(&number, "number", "n", 0, "Explicit version number (default next)")
	meta.bind(cmd)
	return cmd
}
