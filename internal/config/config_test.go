package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/capconv/internal/caption"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if !cfg.Read.ReadInvalidPositioning || !cfg.Write.ForceWriteHours || !cfg.Write.DefaultSettings {
		t.Errorf("expected cli defaults to be on, got %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
	if got := time.Duration(cfg.Read.DefaultDuration); got != caption.DefaultCueDuration {
		t.Errorf("expected default duration %v, got %v", caption.DefaultCueDuration, got)
	}
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "profile.yaml", `
read:
  format: ttml
  encoding: latin1
  default_duration: 2500ms
write:
  format: vtt
  force_write_hours: false
batch:
  concurrency: 8
  out_dir: out
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Read.Encoding != "latin1" || cfg.Batch.Concurrency != 8 || cfg.Batch.OutDir != "out" {
		t.Errorf("expected profile values, got %+v", cfg)
	}
	if time.Duration(cfg.Read.DefaultDuration) != 2500*time.Millisecond {
		t.Errorf("expected 2.5s, got %v", time.Duration(cfg.Read.DefaultDuration))
	}
	if cfg.Write.ForceWriteHours {
		t.Error("expected force_write_hours from profile to win over default")
	}
	// keys missing from the profile keep their defaults
	if !cfg.Read.ReadInvalidPositioning || !cfg.Write.DefaultSettings {
		t.Error("expected unset keys to keep defaults")
	}

	from, err := cfg.SourceFormat()
	if err != nil || from != caption.FormatDFXP {
		t.Errorf("expected dfxp source, got %q (%v)", from, err)
	}
	to, err := cfg.TargetFormat()
	if err != nil || to != caption.FormatVTT {
		t.Errorf("expected vtt target, got %q (%v)", to, err)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown key", "write:\n  formt: srt\n", "formt"},
		{"bad duration", "read:\n  default_duration: soon\n", "invalid duration"},
		{"unknown format", "write:\n  format: docx\n", "write.format"},
		{"write-only source", "read:\n  format: transcript\n", "can only be written"},
		{"zero concurrency", "batch:\n  concurrency: 0\n", "concurrency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml", tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing profile")
	}
}

func TestLoadEmptyProfile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.yaml", "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CAPCONV_FROM":                     "scc",
		"CAPCONV_FORMAT":                   "dfxp",
		"CAPCONV_LANGUAGE":                 "fr-FR",
		"CAPCONV_DEFAULT_SETTINGS":         "false",
		"CAPCONV_READ_INVALID_POSITIONING": "0",
		"CAPCONV_DEFAULT_DURATION":         "3",
		"CAPCONV_CONCURRENCY":              "2",
	}
	cfg := Default()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Read.Format != "scc" || cfg.Write.Format != "dfxp" || cfg.Read.Language != "fr-FR" {
		t.Errorf("expected string overrides, got %+v", cfg)
	}
	if cfg.Write.DefaultSettings || cfg.Read.ReadInvalidPositioning {
		t.Error("expected boolean overrides to switch options off")
	}
	if time.Duration(cfg.Read.DefaultDuration) != 3*time.Second {
		t.Errorf("expected 3s, got %v", time.Duration(cfg.Read.DefaultDuration))
	}
	if cfg.Batch.Concurrency != 2 {
		t.Errorf("expected concurrency 2, got %d", cfg.Batch.Concurrency)
	}
}

func TestApplyEnvErrors(t *testing.T) {
	tests := map[string]string{
		"CAPCONV_FORCE_WRITE_HOURS": "maybe",
		"CAPCONV_CONCURRENCY":       "many",
		"CAPCONV_DEFAULT_DURATION":  "later",
		"CAPCONV_FORMAT":            "pdf",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			cfg := Default()
			err := cfg.ApplyEnv(func(k string) string {
				if k == key {
					return value
				}
				return ""
			})
			if err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}

func TestPrecedenceProfileThenEnv(t *testing.T) {
	dir := t.TempDir()
	profile := writeFile(t, dir, "profile.yaml", "write:\n  format: sami\n  force_write_hours: false\n")
	dotenv := writeFile(t, dir, "test.env", "CAPCONV_FORMAT=vtt\n")

	t.Setenv("CAPCONV_FORMAT", "")
	os.Unsetenv("CAPCONV_FORMAT")
	if err := LoadDotEnv(dotenv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := Load(profile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Write.Format != "vtt" {
		t.Errorf("expected env to beat profile, got %q", cfg.Write.Format)
	}
	if cfg.Write.ForceWriteHours {
		t.Error("expected profile to beat default")
	}
}

func TestLoadDotEnvMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := LoadDotEnv(""); err != nil {
		t.Errorf("expected missing default .env to be ignored, got %v", err)
	}
	if err := LoadDotEnv("nope.env"); err == nil {
		t.Error("expected error for missing explicit env file")
	}
}

func TestOptionAdapters(t *testing.T) {
	cfg := Default()
	cfg.Read.Language = "de-DE"
	cfg.Write.Language = "de-DE"

	ro := cfg.ReadOptions(nil)
	if !ro.ReadInvalidPositioning || ro.Language != "de-DE" || ro.DefaultDuration != caption.DefaultCueDuration {
		t.Errorf("unexpected read options %+v", ro)
	}
	wo := cfg.WriteOptions()
	if !wo.DefaultSettings || !wo.ForceWriteHours || wo.Language != "de-DE" {
		t.Errorf("unexpected write options %+v", wo)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Batch.OutDir = "captions"
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), "default_duration: 4s") {
		t.Errorf("expected duration as text, got:\n%s", data)
	}

	path := writeFile(t, t.TempDir(), "dump.yaml", string(data))
	got, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != cfg {
		t.Errorf("expected %+v, got %+v", cfg, got)
	}
}
