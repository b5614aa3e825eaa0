package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models leadpilot.yml.
type Config struct {
	Business struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"business"`
	Oracle struct {
		BaseURL        string `yaml:"base_url"`
		Model          string `yaml:"model"`
		APIKeyEnv      string `yaml:"api_key_env"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"oracle"`
	Decisions struct {
		ConfidenceThreshold float64 `yaml:"confidence_threshold"`
		FallbackReply       string  `yaml:"fallback_reply"`
	} `yaml:"decisions"`
	Status struct {
		ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	} `yaml:"status"`
	Notify struct {
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"notify"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; import with lp config import --file <path>", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Business.ID == "" {
		return fmt.Errorf("config.business.id is required")
	}
	if c.Oracle.Model == "" {
		return fmt.Errorf("config.oracle.model is required")
	}
	if c.Oracle.TimeoutSeconds <= 0 {
		return fmt.Errorf("config.oracle.timeout_seconds must be positive")
	}
	if c.Decisions.ConfidenceThreshold < 0 || c.Decisions.ConfidenceThreshold > 1 {
		return fmt.Errorf("config.decisions.confidence_threshold must be within [0,1]")
	}
	if c.Status.ConfidenceThreshold < 0 || c.Status.ConfidenceThreshold > 1 {
		return fmt.Errorf("config.status.confidence_threshold must be within [0,1]")
	}
	if c.Decisions.FallbackReply == "" {
		return fmt.Errorf("config.decisions.fallback_reply is required")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "leadpilot.yml")
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// GenerateDefault returns default config YAML.
func GenerateDefault(businessID string) string {
	return fmt.Sprintf(defaultTemplate, businessID)
}

// Default returns the default Config struct for a business.
func Default(businessID string) *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, businessID))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `business:
  id: %s
  name: ""

oracle:
  base_url: https://api.openai.com/v1
  model: gpt-4o-mini
  api_key_env: LEADPILOT_ORACLE_API_KEY
  timeout_seconds: 20

decisions:
  confidence_threshold: 0.75
  fallback_reply: "Could you tell me a bit more about what you're looking for?"

status:
  confidence_threshold: 0.75

notify:
  webhook_url: ""
`
