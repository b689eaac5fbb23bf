// Package config loads application configuration from an optional YAML file
// plus environment variables, with sane defaults for local development.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/VRUSHIL1/shop-chatbot-v2/logging"
	"github.com/VRUSHIL1/shop-chatbot-v2/mcp"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// OpenAIConfig configures the OpenAI-backed model and embedder.
type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	ExtractorModel string `mapstructure:"extractor_model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

// AnthropicConfig configures the Anthropic-backed model.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// ModelConfig selects and configures the chat model provider.
type ModelConfig struct {
	// Provider is "openai" or "anthropic".
	Provider  string          `mapstructure:"provider"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
}

// SMTPConfig configures the outbound mail account used by the email tool.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// AgentConfig tunes the tool-calling loop.
type AgentConfig struct {
	MaxIterations int     `mapstructure:"max_iterations"`
	HistoryLimit  int     `mapstructure:"history_limit"`
	MemoryTopK    int     `mapstructure:"memory_top_k"`
	Temperature   float64 `mapstructure:"temperature"`
	MaxTokens     int64   `mapstructure:"max_tokens"`
}

// StorageConfig holds filesystem locations.
type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
	VectorDir    string `mapstructure:"vector_dir"`
	UploadDir    string `mapstructure:"upload_dir"`
}

// MCPConfig declares the remote tool providers in priority order.
type MCPConfig struct {
	Providers []mcp.ProviderConfig `mapstructure:"providers"`
}

// Config is the root configuration tree.
type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Model   ModelConfig    `mapstructure:"model"`
	SMTP    SMTPConfig     `mapstructure:"smtp"`
	Agent   AgentConfig    `mapstructure:"agent"`
	Storage StorageConfig  `mapstructure:"storage"`
	MCP     MCPConfig      `mapstructure:"mcp"`
	Logging logging.Config `mapstructure:"logging"`
}

// Load reads configuration from path (optional; empty means look for
// config.yaml in the working directory) layered with CHATBOT_* environment
// variables over the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CHATBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)

	v.SetDefault("model.provider", "openai")
	v.SetDefault("model.openai.model", "gpt-4o-mini")
	v.SetDefault("model.openai.extractor_model", "gpt-4o-mini")
	v.SetDefault("model.openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("model.anthropic.model", "claude-3-5-sonnet-20241022")

	v.SetDefault("smtp.port", 587)

	v.SetDefault("agent.max_iterations", 5)
	v.SetDefault("agent.history_limit", 8)
	v.SetDefault("agent.memory_top_k", 3)
	v.SetDefault("agent.temperature", 0.3)
	v.SetDefault("agent.max_tokens", 900)

	v.SetDefault("storage.database_path", "chatbot.db")
	v.SetDefault("storage.vector_dir", "vector_db")
	v.SetDefault("storage.upload_dir", "uploads")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

func (c *Config) validate() error {
	switch c.Model.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported model provider %q", c.Model.Provider)
	}
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent.max_iterations must be positive, got %d", c.Agent.MaxIterations)
	}
	return nil
}
