package config

import "time"

// DefaultSearchEndpoint is the Google Custom Search JSON API.
const DefaultSearchEndpoint = "https://www.googleapis.com/customsearch/v1"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 10
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 5
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 30
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 5 * time.Minute
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 32
	}
	if cfg.Bot.Prefix == "" {
		cfg.Bot.Prefix = "!"
	}
	if cfg.Bot.WelcomeChannel == "" {
		cfg.Bot.WelcomeChannel = "welcome"
	}
	if cfg.Bot.ServerName == "" {
		cfg.Bot.ServerName = "UPSC Current Affairs Interpreter Server"
	}
	if cfg.Search.Endpoint == "" {
		cfg.Search.Endpoint = DefaultSearchEndpoint
	}
	if cfg.Search.ResultsPerPage == 0 {
		cfg.Search.ResultsPerPage = 10
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 15 * time.Second
	}
	if cfg.Search.RequestsPerSecond == 0 {
		cfg.Search.RequestsPerSecond = 1
	}
	if cfg.Feeds.Timeout == 0 {
		cfg.Feeds.Timeout = 15 * time.Second
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = "jidai/1.0 (+https://github.com/hyperjump/jidai)"
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 30 * time.Second
	}
	if cfg.Fetch.MaxBodyMB == 0 {
		cfg.Fetch.MaxBodyMB = 20
	}
	if cfg.Generator.Backend == "" {
		cfg.Generator.Backend = "echo"
	}
	if cfg.Generator.Model == "" {
		switch cfg.Generator.Backend {
		case "openai":
			cfg.Generator.Model = "gpt-4o-mini"
		case "ollama":
			cfg.Generator.Model = "llama3"
		}
	}
	if cfg.Generator.MaxInputTokens == 0 {
		cfg.Generator.MaxInputTokens = 512
	}
	if cfg.Generator.MaxOutputTokens == 0 {
		cfg.Generator.MaxOutputTokens = 256
	}
	if cfg.Generator.Temperature == nil {
		t := cfg.Generator.TemperatureOrDefault()
		cfg.Generator.Temperature = &t
	}
	if cfg.Generator.Timeout == 0 {
		cfg.Generator.Timeout = 2 * time.Minute
	}
	if cfg.Generator.Workers == 0 {
		cfg.Generator.Workers = 2
	}
	if cfg.Generator.QueueSize == 0 {
		cfg.Generator.QueueSize = 64
	}
	if cfg.Pipeline.MaxDocuments == 0 {
		cfg.Pipeline.MaxDocuments = 10
	}
	if cfg.Archive.Extensions == nil {
		cfg.Archive.Extensions = []string{".pdf", ".docx", ".odt", ".rtf", ".xlsx", ".txt", ".md"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Archive.Directories) > 0 && cfg.Archive.Recursive == nil {
		t := true
		cfg.Archive.Recursive = &t
	}
}
