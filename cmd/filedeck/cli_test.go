package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CageChen/filedeck/internal/actions"
	"github.com/CageChen/filedeck/internal/filestore"
	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	color.NoColor = true
}

func TestPromptConfirmer(t *testing.T) {
	var out bytes.Buffer
	tests := []struct {
		input string
		yes   bool
		want  bool
	}{
		{"y\n", false, true},
		{"YES\n", false, true},
		{"n\n", false, false},
		{"\n", false, false},
		{"", false, false},
		{"", true, true},
	}
	for _, tt := range tests {
		c := promptConfirmer{in: strings.NewReader(tt.input), out: &out, yes: tt.yes}
		if got := c.Confirm(context.Background(), "Delete?"); got != tt.want {
			t.Errorf("Confirm(%q, yes=%v) = %v, want %v", tt.input, tt.yes, got, tt.want)
		}
	}
	if !strings.Contains(out.String(), "Delete? [y/N]") {
		t.Errorf("prompt not shown: %q", out.String())
	}
}

func TestTerminalNotifier(t *testing.T) {
	var out bytes.Buffer
	n := terminalNotifier{w: &out}
	n.Notify(actions.Warnf("Please select a file first"))
	if out.String() != "Please select a file first\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "filedeck.yaml")
	if err := os.WriteFile(cfgPath, []byte("log_level: error\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListAndRemoveCommands(t *testing.T) {
	store, err := filestore.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(store.Root(), "report.txt"), bytes.Repeat([]byte("x"), 1536), 0644); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(filestore.NewServer(store, 0).Router())
	defer srv.Close()

	out, err := runCLI(t, "--server", srv.URL, "ls")
	if err != nil {
		t.Fatalf("ls failed: %v", err)
	}
	if !strings.Contains(out, "report.txt") || !strings.Contains(out, "1.5 KB") {
		t.Errorf("ls output missing row:\n%s", out)
	}

	if _, err := runCLI(t, "--server", srv.URL, "rm", "--yes", "report.txt"); err != nil {
		t.Fatalf("rm failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), "report.txt")); !os.IsNotExist(err) {
		t.Errorf("file still present after rm")
	}

	out, err = runCLI(t, "--server", srv.URL, "ls")
	if err != nil {
		t.Fatalf("ls failed: %v", err)
	}
	if !strings.Contains(out, "No files uploaded yet") {
		t.Errorf("expected empty placeholder:\n%s", out)
	}
}
