package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const sampleSRT = "1\n00:00:01,000 --> 00:00:03,000\nHello world\n\n"

// flags keep their values between Execute calls on the shared root
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "show.srt", sampleSRT)

	stdout, _, err := execute(t, "convert", input, "-f", "vtt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Captions converted successfully") {
		t.Errorf("expected success message, got %q", stdout)
	}

	// hours are forced by the default profile
	want := "WEBVTT\n\n00:00:01.000 --> 00:00:03.000\nHello world\n\n"
	if got := readFile(t, filepath.Join(dir, "show.vtt")); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestConvertToStdout(t *testing.T) {
	input := writeFile(t, t.TempDir(), "show.srt", sampleSRT)

	stdout, _, err := execute(t, "convert", input, "-f", "vtt", "--force-write-hours=false", "-o", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "WEBVTT\n\n00:01.000 --> 00:03.000\nHello world\n\n"
	if stdout != want {
		t.Errorf("expected %q, got %q", want, stdout)
	}
}

func TestConvertProfileAndEnv(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "show.srt", sampleSRT)
	profile := writeFile(t, dir, "profile.yaml", "write:\n  format: transcript\n")

	stdout, _, err := execute(t, "convert", input, "--config", profile, "-o", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "Hello world\n" {
		t.Errorf("expected transcript from profile, got %q", stdout)
	}

	t.Setenv("CAPCONV_FORMAT", "sami")
	stdout, _, err = execute(t, "convert", input, "--config", profile, "-o", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "<SAMI>") {
		t.Errorf("expected env to beat profile, got %q", stdout)
	}

	stdout, _, err = execute(t, "convert", input, "--config", profile, "-f", "srt", "-o", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != sampleSRT {
		t.Errorf("expected flag to beat env, got %q", stdout)
	}
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "notes.md", "nothing to see")
	srt := writeFile(t, dir, "show.srt", sampleSRT)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown input", []string{"convert", input, "-f", "srt"}, "unknown caption format"},
		{"unknown target", []string{"convert", srt, "-f", "docx"}, "write.format"},
		{"write-only source", []string{"convert", srt, "--from", "transcript", "-f", "vtt"}, "can only be written"},
		{"missing file", []string{"convert", filepath.Join(dir, "gone.srt"), "-f", "vtt"}, "failed to read"},
		{"bad charset", []string{"convert", srt, "-f", "vtt", "--encoding", "klingon"}, "unknown charset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDetectCommand(t *testing.T) {
	dir := t.TempDir()
	srt := writeFile(t, dir, "a.srt", sampleSRT)
	vtt := writeFile(t, dir, "b.vtt", "WEBVTT\n\n00:01.000 --> 00:02.000\nhi\n")
	junk := writeFile(t, dir, "c.md", "# readme")

	stdout, stderr, err := execute(t, "detect", srt, vtt, junk)
	if err == nil || !strings.Contains(err.Error(), "1 of 3") {
		t.Errorf("expected one failure, got %v", err)
	}
	wantOut := srt + "\tsrt\n" + vtt + "\tvtt\n"
	if stdout != wantOut {
		t.Errorf("expected %q, got %q", wantOut, stdout)
	}
	if !strings.Contains(stderr, junk) {
		t.Errorf("expected failure for %s on stderr, got %q", junk, stderr)
	}
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(filepath.Join(src, "season1"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, src, "a.srt", sampleSRT)
	writeFile(t, filepath.Join(src, "season1"), "b.srt", sampleSRT)
	writeFile(t, src, "notes.md", "ignored")
	outDir := filepath.Join(dir, "out")

	stdout, _, err := execute(t, "batch", src, "-f", "dfxp", "--out-dir", outDir, "-c", "2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Converted 2 of 2 files") {
		t.Errorf("expected summary, got %q", stdout)
	}
	for _, name := range []string{"a.dfxp", "b.dfxp"} {
		if !strings.Contains(readFile(t, filepath.Join(outDir, name)), "Hello world") {
			t.Errorf("expected %s to hold the cue", name)
		}
	}
}

func TestBatchCommandReportsFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.srt", sampleSRT)
	bad := writeFile(t, dir, "bad.srt", "1\n00:00:05,000 --> 00:00:01,000\nbackwards\n")

	stdout, stderr, err := execute(t, "batch", good, bad, "-f", "vtt")
	if err == nil || !strings.Contains(err.Error(), "1 of 2 conversions failed") {
		t.Errorf("expected failure count, got %v", err)
	}
	if !strings.Contains(stdout, "Converted 1 of 2 files") {
		t.Errorf("expected summary, got %q", stdout)
	}
	if !strings.Contains(stderr, "FAIL "+bad) {
		t.Errorf("expected failure line for %s, got %q", bad, stderr)
	}
}

func TestConfigCommand(t *testing.T) {
	dir := t.TempDir()
	profile := writeFile(t, dir, "profile.yaml", "batch:\n  concurrency: 9\n")

	stdout, _, err := execute(t, "config", "--config", profile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"concurrency: 9", "force_write_hours: true", "default_duration: 4s"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in:\n%s", want, stdout)
		}
	}
}

func TestEnvFile(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "show.srt", sampleSRT)
	envPath := writeFile(t, dir, "capconv.env", "CAPCONV_FORMAT=transcript\n")

	t.Setenv("CAPCONV_FORMAT", "")
	os.Unsetenv("CAPCONV_FORMAT")

	stdout, _, err := execute(t, "convert", input, "--env-file", envPath, "-o", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "Hello world\n" {
		t.Errorf("expected transcript from env file, got %q", stdout)
	}
}

func TestFormatsCommand(t *testing.T) {
	stdout, _, err := execute(t, "formats")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"dfxp", ".smi", "transcript"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in:\n%s", want, stdout)
		}
	}
}

func TestExtractRejectsNonMedia(t *testing.T) {
	input := writeFile(t, t.TempDir(), "show.srt", sampleSRT)
	_, _, err := execute(t, "extract", input, "--list")
	if err == nil || !strings.Contains(err.Error(), "unsupported file type") {
		t.Errorf("expected unsupported file type, got %v", err)
	}
}
