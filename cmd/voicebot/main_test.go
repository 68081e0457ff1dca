package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("VOICEBOT_TEST_KEY=from-file\n"), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("VOICEBOT_TEST_KEY", "")
	os.Unsetenv("VOICEBOT_TEST_KEY")

	if err := loadEnvFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("VOICEBOT_TEST_KEY"); got != "from-file" {
		t.Errorf("expected from-file, got %q", got)
	}
}

func TestLoadEnvFile_DoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("VOICEBOT_TEST_KEY=from-file\n"), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("VOICEBOT_TEST_KEY", "from-env")

	if err := loadEnvFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("VOICEBOT_TEST_KEY"); got != "from-env" {
		t.Errorf("expected from-env, got %q", got)
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := loadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("expected missing file to be tolerated, got %v", err)
	}
	if err := loadEnvFile(""); err != nil {
		t.Errorf("expected empty path to be skipped, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != version {
		t.Errorf("expected %q, got %q", version, got)
	}
}

func TestRootCommand_EnvFileFlag(t *testing.T) {
	flag := newRootCommand().PersistentFlags().Lookup("env-file")
	if flag == nil {
		t.Fatal("expected --env-file flag")
	}
	if flag.DefValue != ".env" {
		t.Errorf("expected default .env, got %q", flag.DefValue)
	}
}
