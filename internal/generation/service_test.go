package generation

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"clipforge/internal/config"
	"clipforge/internal/services"
)

type fakeCompleter struct {
	response   string
	err        error
	lastSystem string
	lastUser   string
	calls      int
}

func (f *fakeCompleter) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	return f.response, f.err
}

func newTestService(t *testing.T, completer Completer) Service {
	t.Helper()
	prompts, err := LoadPrompts("")
	if err != nil {
		t.Fatalf("LoadPrompts failed: %v", err)
	}
	wf := config.Default().Workflow
	return NewServiceWithCompleter(completer, prompts, wf, nil)
}

func TestTitleCandidatesRendersTopicAndCount(t *testing.T) {
	completer := &fakeCompleter{response: `{"titles": ["One", "Two"]}`}
	svc := newTestService(t, completer)

	titles, err := svc.TitleCandidates(context.Background(), "indoor bouldering")
	if err != nil {
		t.Fatalf("TitleCandidates returned error: %v", err)
	}
	if len(titles) != 2 || titles[0] != "One" {
		t.Fatalf("unexpected titles: %v", titles)
	}
	if !strings.Contains(completer.lastUser, "indoor bouldering") {
		t.Fatalf("topic not rendered into prompt: %q", completer.lastUser)
	}
	if strings.Contains(completer.lastUser, "{{") {
		t.Fatalf("unresolved placeholder in prompt: %q", completer.lastUser)
	}
}

func TestTitleCandidatesEmptyListIsParseFailure(t *testing.T) {
	completer := &fakeCompleter{response: `{"titles": []}`}
	svc := newTestService(t, completer)

	_, err := svc.TitleCandidates(context.Background(), "topic")
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected parse marker for empty list, got %v", err)
	}
}

func TestTitleCandidatesDropsBlankEntries(t *testing.T) {
	completer := &fakeCompleter{response: `{"titles": ["  ", "Keeper", ""]}`}
	svc := newTestService(t, completer)

	titles, err := svc.TitleCandidates(context.Background(), "topic")
	if err != nil {
		t.Fatalf("TitleCandidates returned error: %v", err)
	}
	if len(titles) != 1 || titles[0] != "Keeper" {
		t.Fatalf("expected blank entries dropped, got %v", titles)
	}
}

func TestScriptMalformedPayloadIsParseFailure(t *testing.T) {
	completer := &fakeCompleter{response: `not json at all`}
	svc := newTestService(t, completer)

	_, err := svc.Script(context.Background(), "My Title")
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected parse marker, got %v", err)
	}
}

func TestScriptTrimsWhitespace(t *testing.T) {
	completer := &fakeCompleter{response: `{"script": "  narration text  "}`}
	svc := newTestService(t, completer)

	script, err := svc.Script(context.Background(), "My Title")
	if err != nil {
		t.Fatalf("Script returned error: %v", err)
	}
	if script != "narration text" {
		t.Fatalf("expected trimmed script, got %q", script)
	}
}

func TestCompleterErrorSurfacesAsTransient(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("upstream down")}
	svc := newTestService(t, completer)

	_, err := svc.Description(context.Background(), "My Title")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestChooseBestNumbersCandidates(t *testing.T) {
	completer := &fakeCompleter{response: `{"choice": "Second"}`}
	svc := newTestService(t, completer)

	choice, err := svc.ChooseBest(context.Background(), []string{"First", "Second"}, "best title")
	if err != nil {
		t.Fatalf("ChooseBest returned error: %v", err)
	}
	if choice != "Second" {
		t.Fatalf("unexpected choice: %q", choice)
	}
	if !strings.Contains(completer.lastUser, "1. First") || !strings.Contains(completer.lastUser, "2. Second") {
		t.Fatalf("candidates not numbered in prompt: %q", completer.lastUser)
	}
	if !strings.Contains(completer.lastUser, "best title") {
		t.Fatalf("purpose missing from prompt: %q", completer.lastUser)
	}
}

func TestLoadPromptsOverride(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/prompts.yaml"
	override := "titles:\n  user: |\n    Custom user prompt about {{topic}}\n"
	if err := os.WriteFile(path, []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	prompts, err := LoadPrompts(path)
	if err != nil {
		t.Fatalf("LoadPrompts failed: %v", err)
	}
	if !strings.Contains(prompts.Titles.User, "Custom user prompt") {
		t.Fatalf("override not applied: %q", prompts.Titles.User)
	}
	if strings.TrimSpace(prompts.Titles.System) == "" {
		t.Fatal("built-in system prompt lost during overlay")
	}
	if strings.TrimSpace(prompts.Tags.User) == "" {
		t.Fatal("untouched entries must keep built-in templates")
	}
}
