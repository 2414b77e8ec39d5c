package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeVideo()
	c.normalizeWorkflow()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if trimmed := strings.TrimSpace(c.Paths.PromptsPath); trimmed != "" {
		if c.Paths.PromptsPath, err = expandPath(trimmed); err != nil {
			return fmt.Errorf("paths.prompts_path: %w", err)
		}
	} else {
		c.Paths.PromptsPath = ""
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeout
	}
}

func (c *Config) normalizeVideo() {
	c.Video.APIKey = strings.TrimSpace(c.Video.APIKey)
	c.Video.BaseURL = strings.TrimRight(strings.TrimSpace(c.Video.BaseURL), "/")
	if c.Video.BaseURL == "" {
		c.Video.BaseURL = defaultVideoBase
	}
	c.Video.Model = strings.TrimSpace(c.Video.Model)
	if c.Video.Model == "" {
		c.Video.Model = defaultVideoModel
	}
	if c.Video.PollIntervalSeconds <= 0 {
		c.Video.PollIntervalSeconds = defaultPollSeconds
	}
	if c.Video.MinFreeGiB < 0 {
		c.Video.MinFreeGiB = 0
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.TitleCount <= 0 {
		c.Workflow.TitleCount = defaultTitleCount
	}
	if c.Workflow.HookCount <= 0 {
		c.Workflow.HookCount = defaultHookCount
	}
	if c.Workflow.TagCount <= 0 {
		c.Workflow.TagCount = defaultTagCount
	}
	c.Workflow.Audience = strings.TrimSpace(c.Workflow.Audience)
	if c.Workflow.Audience == "" {
		c.Workflow.Audience = defaultAudience
	}
	c.Workflow.Language = strings.TrimSpace(c.Workflow.Language)
	if c.Workflow.Language == "" {
		c.Workflow.Language = defaultLanguage
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
