package config

import (
	"fmt"
	"os"
	"unicode/utf8"
)

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	if opCfg.MaxTokens == nil {
		opCfg.MaxTokens = &c.AI.MaxTokens
	}
}

// applyFallbacks fills operation configs from the global AI section.
func (c *Config) applyFallbacks() {
	c.applyOperationDefaults(&c.AI.Extract)
	c.applyOperationDefaults(&c.AI.Diagnose)
}

// GetExtractConfig returns the AI configuration for deterministic-style
// extraction operations, with fallback to global config.
func (c *Config) GetExtractConfig() OperationAIConfig {
	config := c.AI.Extract
	c.applyOperationDefaults(&config)
	return config
}

// GetDiagnoseConfig returns the AI configuration for diagnosis reasoning
// operations, with fallback to global config.
func (c *Config) GetDiagnoseConfig() OperationAIConfig {
	config := c.AI.Diagnose
	c.applyOperationDefaults(&config)
	return config
}

// maxPromptFileSize caps external prompt files at 64KiB.
const maxPromptFileSize = 64 * 1024

// loadSystemPromptFiles reads system prompts referenced by file path.
// A prompt set inline in the config wins over the file reference.
func (c *Config) loadSystemPromptFiles() error {
	for _, opCfg := range []*OperationAIConfig{&c.AI.Extract, &c.AI.Diagnose} {
		if opCfg.SystemPrompt != "" || opCfg.SystemPromptFile == "" {
			continue
		}
		content, err := readPromptFile(opCfg.SystemPromptFile)
		if err != nil {
			return err
		}
		opCfg.SystemPrompt = content
	}
	return nil
}

// readPromptFile validates and reads one prompt file.
func readPromptFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("prompt file %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("prompt file %s is a directory", path)
	}
	if info.Size() > maxPromptFileSize {
		return "", fmt.Errorf("prompt file %s exceeds %d bytes", path, maxPromptFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("prompt file %s: %w", path, err)
	}
	if !utf8.Valid(content) {
		return "", fmt.Errorf("prompt file %s is not valid UTF-8", path)
	}
	return string(content), nil
}
