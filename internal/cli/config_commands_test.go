package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestConfigPath tests the config path command
func TestConfigPath(t *testing.T) {
	cmd := newConfigPathCmd()
	if cmd == nil {
		t.Fatal("newConfigPathCmd() returned nil")
	}

	if cmd.Use != "path" {
		t.Errorf("Expected Use='path', got '%s'", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Short description is empty")
	}
}

// TestConfigShow tests the config show command
func TestConfigShow(t *testing.T) {
	cmd := newConfigShowCmd()
	if cmd == nil {
		t.Fatal("newConfigShowCmd() returned nil")
	}

	if cmd.Use != "show" {
		t.Errorf("Expected Use='show', got '%s'", cmd.Use)
	}

	if cmd.RunE == nil {
		t.Error("RunE function is nil")
	}
}

// TestConfigInit tests the config init command structure
func TestConfigInit(t *testing.T) {
	cmd := newConfigInitCmd()
	if cmd == nil {
		t.Fatal("newConfigInitCmd() returned nil")
	}

	if cmd.Use != "init" {
		t.Errorf("Expected Use='init', got '%s'", cmd.Use)
	}

	forceFlag := cmd.Flags().Lookup("force")
	if forceFlag == nil {
		t.Fatal("--force flag not found")
	}
	if forceFlag.Shorthand != "f" {
		t.Errorf("Expected --force shorthand 'f', got '%s'", forceFlag.Shorthand)
	}
}

// TestConfigCmd tests the config command group
func TestConfigCmd(t *testing.T) {
	cmd := newConfigCmd()

	want := map[string]bool{"init": false, "show": false, "path": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("config subcommand %q not registered", name)
		}
	}
}

func TestConfigInitAndShow(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := executeCLI(t, "config", "init", "--config", path)
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("config init output = %q, want path %q", out, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if _, err := executeCLI(t, "config", "init", "--config", path); err == nil {
		t.Error("config init without --force should refuse to overwrite")
	}
	if _, err := executeCLI(t, "config", "init", "--config", path, "--force"); err != nil {
		t.Errorf("config init --force error = %v", err)
	}

	out, err = executeCLI(t, "config", "show", "--config", path, "--server-url", "https://runner.example.com")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out, "server_url: https://runner.example.com") {
		t.Errorf("config show output missing flag override:\n%s", out)
	}
	if !strings.Contains(out, "# Loaded from "+path) {
		t.Errorf("config show output missing source line:\n%s", out)
	}
}

func TestConfigShowRedactsPassword(t *testing.T) {
	isolateHome(t)
	t.Setenv("MSCCAT_PROXY_PASSWORD", "hunter2")

	out, err := executeCLI(t, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if strings.Contains(out, "hunter2") {
		t.Errorf("config show leaked the proxy password:\n%s", out)
	}
}

func TestVersionCmd(t *testing.T) {
	var buf bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&buf)
	cmd.Run(cmd, nil)

	if !strings.HasPrefix(buf.String(), "msccat ") {
		t.Errorf("version output = %q", buf.String())
	}
}
