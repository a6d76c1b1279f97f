package main

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestPrintVersion(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})

	Version = "0.1.0-test"
	GitCommit = "abc123"
	BuildDate = "2026-01-02"

	var buf bytes.Buffer
	printVersion(&buf)
	out := buf.String()

	for _, want := range []string{"Pursuit 0.1.0-test", "Git Commit: abc123", "Build Date: 2026-01-02", runtime.Version()} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"bench", "explain", "filter", "runs", "serve", "validate", "version"}

	registered := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q is not registered", name)
		}
	}

	if versionCmd.Run == nil {
		t.Error("versionCmd.Run should not be nil")
	}
	if filterCmd.Flags().Lookup("records") == nil || filterCmd.Flags().Lookup("expr") == nil {
		t.Error("filter command is missing query or record flags")
	}
}
