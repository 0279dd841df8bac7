package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"ignite/internal/api"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// emit prints data as a success envelope in JSON mode, otherwise runs
// render.
func (c *commandContext) emit(cmd *cobra.Command, data any, warnings []string, render func() error) error {
	if c.jsonMode() {
		return writeJSON(cmd, api.Success(data, warnings...))
	}
	if err := render(); err != nil {
		return err
	}
	printWarnings(cmd, warnings)
	return nil
}

// fail prints err as a failure envelope in JSON mode and returns it so the
// exit status is non-zero.
func (c *commandContext) fail(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	if c.jsonMode() {
		_ = writeJSON(cmd, api.Failure(err))
	}
	return err
}
