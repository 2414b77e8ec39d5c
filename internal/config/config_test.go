package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CLIPFORGE_LLM_API_KEY", "env-key")
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Fatalf("expected env override for api key, got %q", cfg.LLM.APIKey)
	}
	if cfg.Video.PollIntervalSeconds != defaultPollSeconds {
		t.Fatalf("expected default poll interval, got %d", cfg.Video.PollIntervalSeconds)
	}
	if cfg.Workflow.TitleCount != defaultTitleCount {
		t.Fatalf("expected default title count, got %d", cfg.Workflow.TitleCount)
	}
}

func TestLoadParsesFileAndExpandsPaths(t *testing.T) {
	t.Setenv("CLIPFORGE_LLM_API_KEY", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
output_dir = "` + filepath.Join(dir, "out") + `"
log_dir = "~/clipforge-test-logs"

[llm]
api_key = "file-key"
model = "demo-model"

[video]
poll_interval_seconds = 3
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.LLM.APIKey != "file-key" {
		t.Fatalf("unexpected api key %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "demo-model" {
		t.Fatalf("unexpected model %q", cfg.LLM.Model)
	}
	if cfg.Video.PollIntervalSeconds != 3 {
		t.Fatalf("unexpected poll interval %d", cfg.Video.PollIntervalSeconds)
	}
	if strings.HasPrefix(cfg.Paths.LogDir, "~") {
		t.Fatalf("expected expanded log dir, got %q", cfg.Paths.LogDir)
	}
	if !filepath.IsAbs(cfg.Paths.OutputDir) {
		t.Fatalf("expected absolute output dir, got %q", cfg.Paths.OutputDir)
	}
}

func TestValidateRejectsMissingAPIKey(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for missing api key")
	}
	if !strings.Contains(err.Error(), "llm.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "key"
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for log format")
	}
}

func TestVideoAPIKeyFallsBackToLLM(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "shared"
	if got := cfg.VideoAPIKey(); got != "shared" {
		t.Fatalf("expected fallback to llm key, got %q", got)
	}
	cfg.Video.APIKey = "video-only"
	if got := cfg.VideoAPIKey(); got != "video-only" {
		t.Fatalf("expected video key, got %q", got)
	}
}

func TestCreateSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	written, err := CreateSample(path)
	if err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if written != path {
		t.Fatalf("unexpected path %q", written)
	}
	if _, err := CreateSample(path); err == nil {
		t.Fatal("expected error on second CreateSample")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[llm]") {
		t.Fatal("sample config missing [llm] section")
	}
}
