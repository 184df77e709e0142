// Package config handles lifeplan configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./lifeplan.yaml, ~/.config/lifeplan/config.yaml, /etc/lifeplan/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"lifeplan.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "lifeplan", "config.yaml"))
	}

	paths = append(paths, "/etc/lifeplan/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all lifeplan configuration.
type Config struct {
	Listen   ListenConfig `yaml:"listen"`
	OpenAI   OpenAIConfig `yaml:"openai"`
	Agent    AgentConfig  `yaml:"agent"`
	DataDir  string       `yaml:"data_dir"`
	LogLevel string       `yaml:"log_level"`
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// OpenAIConfig defines model access settings.
type OpenAIConfig struct {
	// APIKey is the model-access credential. When empty, the chat
	// endpoint refuses requests with a configuration error.
	APIKey string `yaml:"api_key"`
	// Model is the chat model used for planning requests.
	Model string `yaml:"model"`
	// BaseURL overrides the API endpoint for OpenAI-compatible gateways.
	BaseURL string `yaml:"base_url"`
}

// AgentConfig defines orchestration loop settings. The iteration cap and
// the canned user-facing strings are deliberately configuration rather
// than constants.
type AgentConfig struct {
	// MaxIterations bounds model round trips per request (default 10).
	MaxIterations int `yaml:"max_iterations"`
	// SystemPrompt seeds a fresh conversation. Empty selects the
	// built-in planner persona.
	SystemPrompt string `yaml:"system_prompt"`
	// FallbackMessage replaces an empty final model response.
	FallbackMessage string `yaml:"fallback_message"`
	// TruncationMessage is returned when the iteration cap is reached
	// before a natural-language answer.
	TruncationMessage string `yaml:"truncation_message"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables so api_key can be ${OPENAI_API_KEY}.
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{Port: 8080},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Agent: AgentConfig{
			MaxIterations:     10,
			FallbackMessage:   "I'm here to help!",
			TruncationMessage: "I completed the requested actions, but the conversation context may have been truncated.",
		},
		DataDir: ".",
	}
}
