package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCLIConfigShow(t *testing.T) {
	env := newCLIFixture(t)

	out, _, err := runCLI(t, env.configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	mustContain(t, out, "Config file: "+env.configPath)
	mustContain(t, out, "Data directory")
	mustContain(t, out, env.dataDir)

	out, _, err = runCLI(t, env.configPath, "config", "show", "--json")
	if err != nil {
		t.Fatalf("config show --json failed: %v", err)
	}
	var shown struct {
		Path   string `json:"path"`
		Exists bool   `json:"exists"`
	}
	if err := json.Unmarshal([]byte(out), &shown); err != nil {
		t.Fatalf("failed to decode config show output: %v", err)
	}
	if shown.Path != env.configPath || !shown.Exists {
		t.Fatalf("unexpected config show result: %+v", shown)
	}
}

func TestCLIConfigShowMissingFile(t *testing.T) {
	env := newCLIFixture(t)
	missing := filepath.Join(env.baseDir, "nope.toml")

	out, _, err := runCLI(t, missing, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	mustContain(t, out, "missing, defaults in effect")
}

func TestCLIConfigInit(t *testing.T) {
	env := newCLIFixture(t)
	target := filepath.Join(env.baseDir, "generated", "config.toml")

	out, _, err := runCLI(t, env.configPath, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	mustContain(t, out, "Sample config written")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected generated config file: %v", err)
	}

	_, _, err = runCLI(t, env.configPath, "config", "init", "--path", target)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already-exists error, got %v", err)
	}

	out, _, err = runCLI(t, env.configPath, "config", "init", "--path", target, "--overwrite")
	if err != nil {
		t.Fatalf("config init --overwrite failed: %v", err)
	}
	mustContain(t, out, "Sample config written")
}
