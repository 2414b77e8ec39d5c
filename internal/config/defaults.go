package config

const (
	defaultOutputDir   = "~/.local/share/clipforge/output"
	defaultLogDir      = "~/.local/share/clipforge/logs"
	defaultAPIBind     = "127.0.0.1:8723"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
	defaultLLMBaseURL  = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel    = "google/gemini-3-flash-preview"
	defaultLLMReferer  = "https://github.com/clipforge/clipforge"
	defaultLLMTitle    = "Clipforge"
	defaultLLMTimeout  = 60
	defaultVideoBase   = "https://generativelanguage.googleapis.com/v1beta"
	defaultVideoModel  = "veo-3.0-generate-001"
	defaultPollSeconds = 10
	defaultMinFreeGiB  = 1
	defaultTitleCount  = 5
	defaultHookCount   = 5
	defaultTagCount    = 15
	defaultAudience    = "general YouTube viewers"
	defaultLanguage    = "English"
	defaultNtfyTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Video: Video{
			BaseURL:             defaultVideoBase,
			Model:               defaultVideoModel,
			PollIntervalSeconds: defaultPollSeconds,
			MinFreeGiB:          defaultMinFreeGiB,
		},
		Workflow: Workflow{
			TitleCount: defaultTitleCount,
			HookCount:  defaultHookCount,
			TagCount:   defaultTagCount,
			Audience:   defaultAudience,
			Language:   defaultLanguage,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
