package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"clipforge/internal/config"
	"clipforge/internal/language"
	"clipforge/internal/logging"
	"clipforge/internal/metrics"
	"clipforge/internal/services"
	"clipforge/internal/services/llm"
)

// Completer is the slice of the LLM client the generators need.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service produces the typed content artifacts the workflow pipeline consumes.
type Service interface {
	TitleCandidates(ctx context.Context, topic string) ([]string, error)
	Hooks(ctx context.Context, title string) ([]string, error)
	Script(ctx context.Context, title string) (string, error)
	Description(ctx context.Context, title string) (string, error)
	Tags(ctx context.Context, title string) ([]string, error)
	ChooseBest(ctx context.Context, candidates []string, purpose string) (string, error)
}

type llmService struct {
	completer Completer
	prompts   PromptSet
	logger    *slog.Logger

	titleCount int
	hookCount  int
	tagCount   int
	audience   string
	language   string
}

// NewService builds the production generation service from config.
func NewService(cfg *config.Config, logger *slog.Logger) (Service, error) {
	prompts, err := LoadPrompts(cfg.Paths.PromptsPath)
	if err != nil {
		return nil, err
	}
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	return NewServiceWithCompleter(client, prompts, cfg.Workflow, logger), nil
}

// NewServiceWithCompleter wires a service around any completer (used in tests).
func NewServiceWithCompleter(completer Completer, prompts PromptSet, wf config.Workflow, logger *slog.Logger) Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &llmService{
		completer:  completer,
		prompts:    prompts,
		logger:     logging.NewComponentLogger(logger, "generation"),
		titleCount: wf.TitleCount,
		hookCount:  wf.HookCount,
		tagCount:   wf.TagCount,
		audience:   wf.Audience,
		language:   language.DisplayName(wf.Language),
	}
}

func (s *llmService) TitleCandidates(ctx context.Context, topic string) ([]string, error) {
	system, user := s.prompts.Titles.Render(map[string]string{
		"topic":    topic,
		"count":    strconv.Itoa(s.titleCount),
		"audience": s.audience,
		"language": s.language,
	})
	var parsed struct {
		Titles []string `json:"titles"`
	}
	if err := s.complete(ctx, "titles", system, user, &parsed); err != nil {
		return nil, err
	}
	return cleanList("titles", parsed.Titles)
}

func (s *llmService) Hooks(ctx context.Context, title string) ([]string, error) {
	system, user := s.prompts.Hooks.Render(map[string]string{
		"title":    title,
		"count":    strconv.Itoa(s.hookCount),
		"audience": s.audience,
		"language": s.language,
	})
	var parsed struct {
		Hooks []string `json:"hooks"`
	}
	if err := s.complete(ctx, "hooks", system, user, &parsed); err != nil {
		return nil, err
	}
	return cleanList("hooks", parsed.Hooks)
}

func (s *llmService) Script(ctx context.Context, title string) (string, error) {
	system, user := s.prompts.Script.Render(map[string]string{
		"title":    title,
		"audience": s.audience,
		"language": s.language,
	})
	var parsed struct {
		Script string `json:"script"`
	}
	if err := s.complete(ctx, "script", system, user, &parsed); err != nil {
		return "", err
	}
	return cleanText("script", parsed.Script)
}

func (s *llmService) Description(ctx context.Context, title string) (string, error) {
	system, user := s.prompts.Description.Render(map[string]string{
		"title":    title,
		"audience": s.audience,
		"language": s.language,
	})
	var parsed struct {
		Description string `json:"description"`
	}
	if err := s.complete(ctx, "description", system, user, &parsed); err != nil {
		return "", err
	}
	return cleanText("description", parsed.Description)
}

func (s *llmService) Tags(ctx context.Context, title string) ([]string, error) {
	system, user := s.prompts.Tags.Render(map[string]string{
		"title":    title,
		"count":    strconv.Itoa(s.tagCount),
		"audience": s.audience,
		"language": s.language,
	})
	var parsed struct {
		Tags []string `json:"tags"`
	}
	if err := s.complete(ctx, "tags", system, user, &parsed); err != nil {
		return nil, err
	}
	return cleanList("tags", parsed.Tags)
}

func (s *llmService) ChooseBest(ctx context.Context, candidates []string, purpose string) (string, error) {
	numbered := make([]string, len(candidates))
	for i, candidate := range candidates {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, candidate)
	}
	system, user := s.prompts.Choose.Render(map[string]string{
		"purpose":    purpose,
		"candidates": strings.Join(numbered, "\n"),
	})
	var parsed struct {
		Choice string `json:"choice"`
	}
	if err := s.complete(ctx, "choose", system, user, &parsed); err != nil {
		return "", err
	}
	return strings.TrimSpace(parsed.Choice), nil
}

func (s *llmService) complete(ctx context.Context, op, system, user string, target any) error {
	metrics.LLMRequests.WithLabelValues(op).Inc()
	content, err := s.completer.CompleteJSON(ctx, system, user)
	if err != nil {
		return services.Wrap(services.ErrTransient, "generation", op, "completion failed", err)
	}
	if err := llm.DecodeJSON(content, target); err != nil {
		s.logger.Debug("generation payload did not parse",
			logging.String("operation", op),
			logging.Error(err),
		)
		return services.Wrap(services.ErrParse, "generation", op, "unexpected payload", err)
	}
	return nil
}

func cleanList(op string, values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil, services.Wrap(services.ErrParse, "generation", op, "empty result list", nil)
	}
	return out, nil
}

func cleanText(op, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", services.Wrap(services.ErrParse, "generation", op, "empty result", nil)
	}
	return trimmed, nil
}
