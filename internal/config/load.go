package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/thedavidhackett/draft-two/internal/apperr"
)

const (
	EnvOpenAIKey  = "OPENAI_API_KEY"
	EnvGeminiKeys = "GEMINI_API_KEYS"

	placeholderKey = "YOUR_OPENAI_API_KEY_HERE"
)

// Load reads the YAML config at path, validates it and pulls credentials from
// the environment (a .env file in the working directory is honoured).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// .env is optional
	_ = godotenv.Load()
	cfg.loadCredentials()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) loadCredentials() {
	key := strings.TrimSpace(os.Getenv(EnvOpenAIKey))
	if key == placeholderKey {
		key = ""
	}
	c.OpenAI.APIKey = key

	c.Gemini.APIKeys = nil
	for _, k := range strings.Split(os.Getenv(EnvGeminiKeys), ",") {
		if k = strings.TrimSpace(k); k != "" {
			c.Gemini.APIKeys = append(c.Gemini.APIKeys, k)
		}
	}
}

// RequireOpenAIKey fails with an AUTH error when the OpenAI credential is absent.
func (c *Config) RequireOpenAIKey() error {
	if c.OpenAI.APIKey == "" {
		return apperr.New(apperr.CodeAuth, EnvOpenAIKey+" is not set").
			WithHint("Create a .env file (or export the variable) with " + EnvOpenAIKey + "=<your key>")
	}
	return nil
}

// RequireGeminiKeys fails with an AUTH error when no Gemini key is configured.
func (c *Config) RequireGeminiKeys() error {
	if len(c.Gemini.APIKeys) == 0 {
		return apperr.New(apperr.CodeAuth, EnvGeminiKeys+" is not set").
			WithHint("Set " + EnvGeminiKeys + " to one or more comma separated Gemini API keys")
	}
	return nil
}
