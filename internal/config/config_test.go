package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.SaveDelay() != 750*time.Millisecond {
		t.Fatalf("SaveDelay = %s", cfg.SaveDelay())
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Fatalf("log defaults = %+v", cfg.Log)
	}
}

func TestLoadOverridesAndFillsGaps(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
wizard:
  save_delay_ms: 100
log:
  format: json
schema_dir: /etc/filingwiz/schemas
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.ReadTimeoutSec != 15 {
		t.Fatalf("ReadTimeoutSec = %d, want default kept", cfg.Server.ReadTimeoutSec)
	}
	if cfg.SaveDelay() != 100*time.Millisecond {
		t.Fatalf("SaveDelay = %s", cfg.SaveDelay())
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Fatalf("log = %+v", cfg.Log)
	}
	if cfg.SchemaDir != "/etc/filingwiz/schemas" {
		t.Fatalf("SchemaDir = %q", cfg.SchemaDir)
	}
}

func TestLoadRejectsMalformedAndInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"not yaml", "{{{", "parse"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"bad format", "log:\n  format: xml\n", "log.format"},
	}
	for _, tc := range cases {
		_, err := Load(writeConfig(t, tc.body))
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: err = %v, want mention of %q", tc.name, err, tc.want)
		}
	}
}

func TestLoadHonorsEnvFallback(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":7070\"\n")
	t.Setenv("FILINGWIZ_CONFIG", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Fatalf("Addr = %q", cfg.Server.Addr)
	}
}
