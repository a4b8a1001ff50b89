// Package config provides configuration loading and structs for the jidai server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override secrets and endpoints from the config file.
const (
	EnvBotToken       = "BOT_TOKEN"
	EnvSearchAPIKey   = "SEARCH_API_KEY"
	EnvSearchEngineID = "SEARCH_ENGINE_ID"
	EnvOpenAIAPIKey   = "OPENAI_API_KEY"
	EnvOllamaHost     = "OLLAMA_HOST"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Bot       BotConfig       `yaml:"bot"`
	Search    SearchConfig    `yaml:"search"`
	Feeds     FeedsConfig     `yaml:"feeds"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Generator GeneratorConfig `yaml:"generator"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Archive   ArchiveConfig   `yaml:"archive"`
}

// LogConfig holds optional rotated log file settings.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Enabled        *bool         `yaml:"enabled"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxUploadMB    int64         `yaml:"max_upload_mb"`
}

// EnabledOrDefault returns whether the web front end runs; defaults to true when unset.
func (s *ServerConfig) EnabledOrDefault() bool {
	if s.Enabled != nil {
		return *s.Enabled
	}
	return true
}

// BotConfig holds chat-bot settings. Token usually comes from BOT_TOKEN.
type BotConfig struct {
	Enabled        *bool  `yaml:"enabled"`
	Token          string `yaml:"-"`
	Prefix         string `yaml:"prefix"`
	WelcomeChannel string `yaml:"welcome_channel"`
	ServerName     string `yaml:"server_name"`
}

// EnabledOrDefault returns whether the bot runs; defaults to true when a token is present.
func (b *BotConfig) EnabledOrDefault() bool {
	if b.Enabled != nil {
		return *b.Enabled && b.Token != ""
	}
	return b.Token != ""
}

// SearchConfig holds the remote search service settings.
type SearchConfig struct {
	Endpoint          string        `yaml:"endpoint"`
	APIKey            string        `yaml:"-"`
	EngineID          string        `yaml:"engine_id"`
	ResultsPerPage    int           `yaml:"results_per_page"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// FeedsConfig holds RSS/Atom feed sources used alongside the search service.
type FeedsConfig struct {
	URLs    []string      `yaml:"urls"`
	Timeout time.Duration `yaml:"timeout"`
}

// FetchConfig holds settings for downloading articles and documents.
type FetchConfig struct {
	UserAgent     string        `yaml:"user_agent"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxBodyMB     int64         `yaml:"max_body_mb"`
	RespectRobots bool          `yaml:"respect_robots"`
}

// GeneratorConfig selects and tunes the generative model backend.
type GeneratorConfig struct {
	Backend         string        `yaml:"backend"` // openai, ollama or echo
	Model           string        `yaml:"model"`
	BaseURL         string        `yaml:"base_url"`
	APIKey          string        `yaml:"-"`
	MaxInputTokens  int           `yaml:"max_input_tokens"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	Temperature     *float32      `yaml:"temperature"`
	Timeout         time.Duration `yaml:"timeout"`
	Workers         int           `yaml:"workers"`
	QueueSize       int           `yaml:"queue_size"`
}

// TemperatureOrDefault returns the sampling temperature; defaults to 0.3 when unset.
// An explicit 0 is kept.
func (g *GeneratorConfig) TemperatureOrDefault() float32 {
	if g.Temperature != nil {
		return *g.Temperature
	}
	return 0.3
}

// PipelineConfig bounds the work done per request.
type PipelineConfig struct {
	MaxDocuments int `yaml:"max_documents"`
}

// ArchiveConfig holds the local document archive settings.
type ArchiveConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (a *ArchiveConfig) RecursiveOrDefault() bool {
	if a.Recursive != nil {
		return *a.Recursive
	}
	return true
}

// Load reads and parses the config file at path, loads secrets from the environment
// (and a .env file next to the config, if present), expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	if err := LoadDotEnv(filepath.Join(configDir, ".env")); err != nil {
		return nil, err
	}
	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	cfg.Log.File = expandPath(cfg.Log.File, configDir)
	for i := range cfg.Archive.Directories {
		cfg.Archive.Directories[i] = expandPath(cfg.Archive.Directories[i], configDir)
	}

	return &cfg, nil
}

// ApplyEnv copies secrets and endpoint overrides from the process environment into cfg.
// Values already present in the environment win over .env entries (godotenv does not override).
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvBotToken); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv(EnvSearchAPIKey); v != "" {
		cfg.Search.APIKey = v
	}
	if v := os.Getenv(EnvSearchEngineID); v != "" {
		cfg.Search.EngineID = v
	}
	if v := os.Getenv(EnvOpenAIAPIKey); v != "" {
		cfg.Generator.APIKey = v
	}
	if v := os.Getenv(EnvOllamaHost); v != "" && cfg.Generator.Backend == "ollama" && cfg.Generator.BaseURL == "" {
		cfg.Generator.BaseURL = v
	}
}

// LoadDotEnv loads path into the environment without overriding variables that are
// already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
