package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ignite/internal/api"
	"ignite/internal/store"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		op    string
		since time.Duration
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history [path|address]",
		Short: "Show recorded mutations, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.HistoryRequest{Op: op, Limit: limit}
			if len(args) == 1 {
				req.Target = args[0]
			}
			if since < 0 {
				return ctx.fail(cmd, fmt.Errorf("%w: --since must be positive", store.ErrInvalidArgument))
			}
			if since > 0 {
				req.Since = time.Now().Add(-since)
			}
			return ctx.withService(func(svc *api.Service) error {
				resp, err := svc.History(cmd.Context(), req)
				if err != nil {
					return ctx.fail(cmd, err)
				}
				return ctx.emit(cmd, resp, nil, func() error { return renderHistory(cmd, svc.Store().Root(), resp) })
			})
		},
	}
	cmd.Flags().StringVar(&op, "op", "", "Only entries for one operation (register, update, delete, ...)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only entries newer than this duration (e.g. 24h)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries to show")
	return cmd
}

func renderHistory(cmd *cobra.Command, root string, resp api.HistoryResponse) error {
	out := cmd.OutOrStdout()
	if len(resp.Entries) == 0 {
		_, err := fmt.Fprintln(out, "No history")
		return err
	}
	rows := make([][]string, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		target := e.URI
		if target == "" {
			target = displayPath(root, e.Path)
		}
		rows = append(rows, []string{
			strconv.FormatInt(e.Seq, 10),
			e.RecordedAt.Local().Format("2006-01-02 15:04:05"),
			e.Op,
			orDash(e.Kind),
			target,
		})
	}
	_, err := fmt.Fprintln(out, renderTable(
		[]string{"#", "When", "Op", "Kind", "Target"},
		rows,
		[]columnAlignment{alignRight},
	))
	return err
}
