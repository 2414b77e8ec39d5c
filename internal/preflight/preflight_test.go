package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"clipforge/internal/config"
	"clipforge/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("Output directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass for writable directory: %s", result.Detail)
	}

	result = CheckDirectoryAccess("Output directory", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Fatal("expected failure for missing directory")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()

	result := CheckFreeSpace("Free space", dir, 0)
	if !result.Passed {
		t.Fatalf("zero minimum must pass: %s", result.Detail)
	}

	// No filesystem has this much headroom.
	result = CheckFreeSpace("Free space", dir, 1<<20)
	if result.Passed {
		t.Fatal("expected failure for an absurd minimum")
	}
}

func TestCheckLLMMissingKey(t *testing.T) {
	result := CheckLLM(context.Background(), "LLM API", config.LLM{})
	if result.Passed {
		t.Fatal("expected failure without an API key")
	}
	if result.Detail != "API key missing" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckLLMAgainstHealthyServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer server.Close()

	result := CheckLLM(context.Background(), "LLM API", config.LLM{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	})
	if !result.Passed {
		t.Fatalf("expected pass against healthy server: %s", result.Detail)
	}
}

func TestRunAllReportsEveryCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.LLM.APIKey = ""

	results := RunAll(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	if AllPassed(results) {
		t.Fatal("missing LLM key must fail the preflight")
	}
}
