package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ignite/internal/api"
	"ignite/internal/config"
	"ignite/internal/testsupport"
)

const (
	taskURI = "ign:demo:assets:chars:model"
	heroURI = taskURI + ":hero"
)

type cliTestEnv struct {
	cfg        *config.Config
	tree       *testsupport.Tree
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv(config.EnvRoot, "")
	cfg := testsupport.NewConfig(t)
	homeDir := filepath.Join(testsupport.BaseDir(cfg), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	configPath := filepath.Join(homeDir, ".config", "ignite", "config.toml")
	writeTestConfig(t, configPath, cfg)

	tree := testsupport.NewTree(t, cfg.Paths.Root, nil)
	tree.Production()

	return &cliTestEnv{cfg: cfg, tree: tree, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nroot = %q\nstate_dir = %q\nlog_dir = %q\n\n[journal]\nenabled = true\npath = %q\n\n[logging]\nlevel = \"error\"\n",
		cfg.Paths.Root,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Journal.Path,
	)
	testsupport.WriteFile(t, path, content)
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, nil, args, env.configPath)
}

func runCLI(t *testing.T, stdin io.Reader, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

type testEnvelope struct {
	OK       bool            `json:"ok"`
	Data     json.RawMessage `json:"data"`
	Error    *api.ErrorBody  `json:"error"`
	Warnings []string        `json:"warnings"`
}

func decodeEnvelope(t *testing.T, output string, data any) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.Unmarshal([]byte(output), &env); err != nil {
		t.Fatalf("decode envelope: %v\n%s", err, output)
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data: %v\n%s", err, env.Data)
		}
	}
	return env
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func decodeJSON(t *testing.T, output string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(output), v); err != nil {
		t.Fatalf("decode json: %v\n%s", err, output)
	}
}
