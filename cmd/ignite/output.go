package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ignite/internal/kind"
	"ignite/internal/store"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorize(writer io.Writer, color, value string) string {
	if !shouldColorize(writer) {
		return value
	}
	return color + value + ansiReset
}

// kindLabel renders a kind for humans: "task" becomes "Task".
func kindLabel(k kind.Kind) string {
	if k == kind.None {
		return "-"
	}
	return cases.Title(language.English).String(k.String())
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	out := cmd.ErrOrStderr()
	for _, w := range warnings {
		fmt.Fprintf(out, "%s %s\n", colorize(out, ansiYellow, "warning:"), w)
	}
}

// displayPath shortens paths under root for table output.
func displayPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func entityRows(e store.Entity) [][]string {
	rows := [][]string{
		{"Kind", kindLabel(e.Kind)},
		{"Name", e.Name},
		{"Path", e.Path},
		{"URI", orDash(e.URI)},
	}
	add := func(label, value string) {
		if value != "" {
			rows = append(rows, []string{label, value})
		}
	}
	add("Task type", e.TaskType)
	add("Version", e.Version)
	add("DCC", e.DCC)
	add("Scene file", e.SceneFile)
	add("Latest", e.Latest)
	add("Best", e.Best)
	add("Repr", e.Repr)
	add("Comment", e.Comment)
	if len(e.Tags) > 0 {
		rows = append(rows, []string{"Tags", strings.Join(e.Tags, ", ")})
	}
	keys := make([]string, 0, len(e.Attributes))
	for k := range e.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rows = append(rows, []string{"attr." + k, e.Attributes[k]})
	}
	for _, c := range e.Components {
		rows = append(rows, []string{"Component", c.Name})
	}
	if !e.ModifiedAt.IsZero() {
		rows = append(rows, []string{"Modified", e.ModifiedAt.Local().Format("2006-01-02 15:04:05")})
	}
	return rows
}

func renderEntity(cmd *cobra.Command, e store.Entity) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, entityRows(e), nil))
	return err
}

// summary is the one-line result of a mutation.
func summary(verb string, e store.Entity) string {
	name := e.URI
	if name == "" {
		name = e.Path
	}
	return fmt.Sprintf("%s %s %s", verb, strings.ToLower(kindLabel(e.Kind)), name)
}
