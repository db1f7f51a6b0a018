package config

import (
	"os"
	"path/filepath"
	"testing"

	"flowguard/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flowguard.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, fromFile, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fromFile {
		t.Error("missing file reported as read")
	}
	if cfg.Model.Path != model.DefaultPath || cfg.Model.Format != model.FormatAuto {
		t.Errorf("unexpected model defaults %+v", cfg.Model)
	}
	if cfg.Log.Level != "info" || cfg.Log.File != "flowguard.log" {
		t.Errorf("unexpected log defaults %+v", cfg.Log)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, `
model:
  path: from-file.json
  format: native
log:
  level: debug
  max_backups: 7
capture:
  pcap: file.pcap
`)
	t.Setenv("FLOWGUARD_MODEL_PATH", "from-env.json")
	t.Setenv("FLOWGUARD_LOG_MAX_SIZE_MB", "42")

	cfg, fromFile, err := Load(path, []string{"-log-level", "warn"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !fromFile {
		t.Error("config file not reported as read")
	}
	if cfg.Model.Path != "from-env.json" {
		t.Errorf("env should override file, got %q", cfg.Model.Path)
	}
	if cfg.Model.Format != "native" || cfg.Capture.PcapPath != "file.pcap" || cfg.Log.MaxBackups != 7 {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.Log.MaxSizeMB != 42 {
		t.Errorf("max size = %d", cfg.Log.MaxSizeMB)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("flag should override file, got %q", cfg.Log.Level)
	}
	if cfg.Log.File != "flowguard.log" {
		t.Errorf("unset values should keep defaults, got %q", cfg.Log.File)
	}
}

func TestLoadFlags(t *testing.T) {
	cfg, _, err := Load("", []string{"-model", "m.onnx", "-onnx-lib", "/usr/lib/libonnxruntime.so", "-pcap", "x.pcap"})
	if err != nil {
		t.Fatal(err)
	}
	opts := cfg.ModelOptions()
	if opts.Path != "m.onnx" || opts.SharedLibraryPath != "/usr/lib/libonnxruntime.so" {
		t.Errorf("unexpected options %+v", opts)
	}
	if cfg.Capture.PcapPath != "x.pcap" {
		t.Errorf("pcap = %q", cfg.Capture.PcapPath)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, _, err := Load(writeConfig(t, "model: [unterminated"), nil); err == nil {
		t.Error("expected YAML error")
	}

	t.Setenv("FLOWGUARD_LOG_MAX_AGE_DAYS", "forever")
	if _, _, err := Load("", nil); err == nil {
		t.Error("expected env parse error")
	}
}

func TestLoadUnknownFlag(t *testing.T) {
	if _, _, err := Load("", []string{"-bogus"}); err == nil {
		t.Error("expected flag error")
	}
}

func TestPath(t *testing.T) {
	t.Setenv("FLOWGUARD_CONFIG", "")
	if Path() != DefaultPath {
		t.Errorf("got %q", Path())
	}
	t.Setenv("FLOWGUARD_CONFIG", "/etc/flowguard.yaml")
	if Path() != "/etc/flowguard.yaml" {
		t.Errorf("got %q", Path())
	}
}
