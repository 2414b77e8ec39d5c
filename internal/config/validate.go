package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/clipforge/config.toml"
		}
		return fmt.Errorf("llm.api_key is required. Set CLIPFORGE_LLM_API_KEY env var or edit %s (create with 'clipforge config init')", defaultPath)
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.PollIntervalSeconds <= 0 {
		return errors.New("video.poll_interval_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.TitleCount < 1 {
		return errors.New("workflow.title_count must be at least 1")
	}
	if c.Workflow.HookCount < 1 {
		return errors.New("workflow.hook_count must be at least 1")
	}
	if c.Workflow.TagCount < 1 {
		return errors.New("workflow.tag_count must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
