// Package config loads console configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/chaodoze/multimodal-live-api-web-console/internal/toolcall"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/wire"
)

// Config is the root console configuration.
type Config struct {
	APIKey string `mapstructure:"api_key"`
	Host   string `mapstructure:"host"`

	Model             string  `mapstructure:"model"`
	SystemInstruction string  `mapstructure:"system_instruction"`
	Temperature       float64 `mapstructure:"temperature"`
	MaxOutputTokens   int     `mapstructure:"max_output_tokens"`
	ResponseModality  string  `mapstructure:"response_modality"`

	Tool ToolConfig `mapstructure:"tool"`
	Log  LogConfig  `mapstructure:"log"`

	// DocsDir switches the resource fetcher to a local document directory
	// instead of the Files API.
	DocsDir string `mapstructure:"docs_dir"`

	Mongo MongoConfig `mapstructure:"mongo"`
}

// ToolConfig describes the single declared tool.
type ToolConfig struct {
	Name        string `mapstructure:"name"`
	Param       string `mapstructure:"param"`
	Description string `mapstructure:"description"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console, json
}

// MongoConfig enables the persistent log store when URI is set.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// Load reads configuration from path (optional) and the environment.
// GEMINI_API_KEY is honored for the API key.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("host", "generativelanguage.googleapis.com")
	v.SetDefault("model", "models/gemini-2.0-flash-exp")
	v.SetDefault("system_instruction", defaultSystemInstruction)
	v.SetDefault("temperature", 0.2)
	v.SetDefault("response_modality", "audio")
	v.SetDefault("tool.name", toolcall.DefaultConvention.Name)
	v.SetDefault("tool.param", toolcall.DefaultConvention.Param)
	v.SetDefault("tool.description", defaultToolDescription)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("mongo.database", "live_console")
	v.SetDefault("mongo.collection", "logs")

	v.SetEnvPrefix("console")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api_key", "GEMINI_API_KEY", "CONSOLE_API_KEY"); err != nil {
		return nil, fmt.Errorf("config: bind env: %w", err)
	}
	if err := v.BindEnv("mongo.uri", "MONGODB_URI"); err != nil {
		return nil, fmt.Errorf("config: bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// Validate checks the fields without which a session cannot be established.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("config: api key is required (set GEMINI_API_KEY)")
	}
	if c.Model == "" {
		return errors.New("config: model is required")
	}
	return nil
}

// Convention returns the declared calling shape.
func (c *Config) Convention() toolcall.Convention {
	return toolcall.Convention{Name: c.Tool.Name, Param: c.Tool.Param}
}

// SessionConfig assembles the immutable per-connection setup payload.
func (c *Config) SessionConfig() *wire.SessionConfig {
	temp := c.Temperature
	cfg := &wire.SessionConfig{
		Model: c.Model,
		SystemInstruction: &wire.Content{
			Parts: []wire.Part{{Text: c.SystemInstruction}},
		},
		GenerationConfig: &wire.GenerationConfig{
			Temperature:        &temp,
			MaxOutputTokens:    c.MaxOutputTokens,
			ResponseModalities: []string{strings.ToUpper(c.ResponseModality)},
		},
		Tools: []wire.Tool{
			{FunctionDeclarations: []wire.FunctionDeclaration{
				c.Convention().Declaration(c.Tool.Description),
			}},
		},
	}
	return cfg
}

const defaultSystemInstruction = "You are a helpful assistant. When the user asks about a document, " +
	"call the pdf_lookup function with the document's resource id and answer from the returned text. " +
	"Never answer with executable code."

const defaultToolDescription = "Reads a document by resource id and returns its plain text content."
