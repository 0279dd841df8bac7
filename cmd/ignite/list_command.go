package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ignite/internal/api"
	"ignite/internal/query"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		path     string
		filters  []string
		anyOf    bool
		sortBy   string
		reverse  bool
		page     int
		limit    int
		latest   bool
		taskType string
		dcc      string
	)

	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List entities of a kind below the root or a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.QueryRequest{
				Path:     path,
				Kind:     args[0],
				Page:     page,
				Limit:    limit,
				TaskType: taskType,
				DCC:      dcc,
			}
			node, err := filterNode(filters, anyOf)
			if err != nil {
				return ctx.fail(cmd, err)
			}
			req.Query.Filter = node
			req.Query.Latest = latest
			if sortBy != "" {
				req.Query.Sort = &query.SortSpec{Field: sortBy, Reverse: reverse}
			}
			return ctx.runQuery(cmd, req)
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "Only list below this path or address")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "Field match as field=pattern (repeatable)")
	cmd.Flags().BoolVar(&anyOf, "any", false, "Keep entities matching any filter instead of all")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort by field (default path)")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "Reverse the sort order")
	cmd.Flags().IntVar(&page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&limit, "limit", 0, "Results per page (0 for all)")
	cmd.Flags().BoolVar(&latest, "latest", false, "Keep only the newest version per asset")
	cmd.Flags().StringVar(&taskType, "task-type", "", "Only tasks of this type")
	cmd.Flags().StringVar(&dcc, "dcc", "", "Only scenes from this application")
	return cmd
}

// filterNode turns field=pattern flags into a filter tree.
func filterNode(filters []string, anyOf bool) (*query.Node, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	leaves := make([]query.Node, 0, len(filters))
	for _, f := range filters {
		field, pattern, ok := strings.Cut(f, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("%w: --filter expects field=pattern, got %q", query.ErrInvalidQuery, f)
		}
		leaves = append(leaves, query.Leaf(field, pattern))
	}
	node := query.AllOf(leaves...)
	if anyOf {
		node = query.AnyOf(leaves...)
	}
	return &node, nil
}

func newQueryCommand(ctx *commandContext) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "query [request-json]",
		Short: "Run a JSON query request",
		Long: `Run a query request of the same shape the HTTP API accepts:

  {"kind": "task", "path": "", "query": {"filter": {...}, "sort": {...}, "latest": false},
   "page": 1, "limit": 50}

The request is read from the argument, from --file, or from stdin when
neither is given or the argument is "-".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readQueryInput(cmd.InOrStdin(), args, file)
			if err != nil {
				return ctx.fail(cmd, err)
			}
			var req api.QueryRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return ctx.fail(cmd, fmt.Errorf("%w: %w", query.ErrInvalidQuery, err))
			}
			return ctx.runQuery(cmd, req)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Read the request from a file")
	return cmd
}

func readQueryInput(stdin io.Reader, args []string, file string) ([]byte, error) {
	switch {
	case len(args) == 1 && args[0] != "-":
		return []byte(args[0]), nil
	case strings.TrimSpace(file) != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read query file: %w", err)
		}
		return data, nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read query from stdin: %w", err)
		}
		return data, nil
	}
}

func (c *commandContext) runQuery(cmd *cobra.Command, req api.QueryRequest) error {
	return c.withService(func(svc *api.Service) error {
		resp, warnings, err := svc.Query(cmd.Context(), req)
		if err != nil {
			printWarnings(cmd, warnings)
			return c.fail(cmd, err)
		}
		return c.emit(cmd, resp, warnings, func() error {
			return renderRecords(cmd, svc.Store().Root(), resp)
		})
	})
}

func renderRecords(cmd *cobra.Command, root string, resp api.QueryResponse) error {
	out := cmd.OutOrStdout()
	if len(resp.Data) == 0 {
		_, err := fmt.Fprintln(out, "No matching entities")
		return err
	}
	rows := make([][]string, 0, len(resp.Data))
	for _, r := range resp.Data {
		rows = append(rows, []string{
			query.Text(r["kind"]),
			query.Text(r["name"]),
			orDash(query.Text(r["uri"])),
			orDash(recordTags(r)),
			displayPath(root, query.Text(r[query.PathField])),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Kind", "Name", "URI", "Tags", "Path"}, rows, nil))
	info := resp.PageInfo
	_, err := fmt.Fprintf(out, "%d result(s), %d page(s)\n", info.TotalResults, info.TotalPages)
	return err
}

func recordTags(r query.Record) string {
	list, ok := r["tags"].([]any)
	if !ok {
		return ""
	}
	names := make([]string, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			names = append(names, query.Text(m["name"]))
		}
	}
	return strings.Join(names, ", ")
}
