package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the single explicit configuration value for the application.
// It is constructed once at startup and passed into component constructors;
// no component reads ambient global state.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Research   ResearchConfig   `mapstructure:"research"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// AnthropicConfig holds Claude API settings.
type AnthropicConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	Model             string  `mapstructure:"model"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	RequestsPerMinute float64 `mapstructure:"requests_per_minute"`
}

// DatabaseConfig holds the run-store settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ResearchConfig tunes pain point extraction and prioritization inputs.
type ResearchConfig struct {
	MaxResults        int `mapstructure:"max_results"`
	DefaultComments   int `mapstructure:"default_comments"`
	DefaultSources    int `mapstructure:"default_sources"`
	DefaultNumPersona int `mapstructure:"default_num_personas"`
}

// SimulationConfig tunes journey simulation.
type SimulationConfig struct {
	NumScenarios int `mapstructure:"num_scenarios"`
	// ExtraFrustrationWeights lets a deployment declare domain-specific
	// frustration events up front; the weight table is closed after startup.
	ExtraFrustrationWeights map[string]float64 `mapstructure:"extra_frustration_weights"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds tracing settings.
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// Load reads configuration from an optional YAML file plus environment
// variables (USERSCOPE_ prefix; .env is honored if present).
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("USERSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Anthropic.APIKey == "" {
		cfg.Anthropic.APIKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5")
	v.SetDefault("anthropic.max_tokens", 4000)
	v.SetDefault("anthropic.requests_per_minute", 50)
	v.SetDefault("database.path", "userscope.db")
	v.SetDefault("research.max_results", 10)
	v.SetDefault("research.default_comments", 50)
	v.SetDefault("research.default_sources", 2)
	v.SetDefault("research.default_num_personas", 3)
	v.SetDefault("simulation.num_scenarios", 5)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4318")
}

// Validate reports configuration problems that prevent startup.
func (c *Config) Validate() error {
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("anthropic api key not configured")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr not configured")
	}
	return nil
}
