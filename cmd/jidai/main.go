// Package main is the jidai entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/jidai/internal/archive"
	"github.com/hyperjump/jidai/internal/bot"
	"github.com/hyperjump/jidai/internal/cli"
	"github.com/hyperjump/jidai/internal/config"
	"github.com/hyperjump/jidai/internal/extract"
	"github.com/hyperjump/jidai/internal/generate"
	"github.com/hyperjump/jidai/internal/models"
	"github.com/hyperjump/jidai/internal/pipeline"
	"github.com/hyperjump/jidai/internal/server"
	"github.com/hyperjump/jidai/internal/source"
	"github.com/hyperjump/jidai/internal/watcher"
	"github.com/hyperjump/jidai/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/jidai/config.yaml"

// loadConfig loads config from path. When path is the default and ./config.yaml exists,
// the local file is used instead. A missing default config yields built-in defaults so
// the binary runs with environment-only configuration.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		cwd, cwdErr := os.Getwd()
		if cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := &config.Config{}
			if cwdErr == nil {
				if err := config.LoadDotEnv(filepath.Join(cwd, ".env")); err != nil {
					return nil, "", err
				}
			}
			config.ApplyEnv(cfg)
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "serve", "server":
		runServe()
	case "interpret":
		runInterpret()
	case "version", "--version", "-v":
		fmt.Printf("jidai version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config, debug bool) (*zap.Logger, error) {
	var rotate *utils.RotateOptions
	if cfg.Log.File != "" {
		rotate = &utils.RotateOptions{
			Filename:   cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		}
	}
	return utils.NewLogger(debug, rotate)
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	noBot := fs.Bool("no-bot", false, "do not start the Discord bot")
	noWeb := fs.Bool("no-web", false, "do not start the web server")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := newLogger(cfg, debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("generator", cfg.Generator.Backend),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if components.Watcher != nil {
		if err := components.Watcher.Start(ctx); err != nil {
			logger.Fatal("Failed to start archive watcher", zap.Error(err))
		}
	}

	webEnabled := cfg.Server.EnabledOrDefault() && !*noWeb
	botEnabled := cfg.Bot.EnabledOrDefault() && !*noBot
	if !webEnabled && !botEnabled {
		logger.Fatal("Nothing to run: web server and bot are both disabled (set BOT_TOKEN to enable the bot)")
	}

	g, gctx := errgroup.WithContext(ctx)
	if webEnabled {
		srv, err := server.NewServer(components.Pipeline, components.archiveForServer(), &cfg.Server, logger)
		if err != nil {
			logger.Fatal("Failed to create server", zap.Error(err))
		}
		g.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("web server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(shutdownCtx)
		})
	}
	if botEnabled {
		b, err := bot.New(cfg.Bot, components.Pipeline, bot.WithLogger(logger))
		if err != nil {
			logger.Fatal("Failed to create bot", zap.Error(err))
		}
		g.Go(func() error {
			if err := b.Run(gctx); err != nil {
				return fmt.Errorf("bot: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Shut down with error", zap.Error(err))
		return
	}
	logger.Info("Shut down")
}

// interpretArgsReorder moves flags that follow the date to the front so flag.Parse sees them.
func interpretArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func printInterpretUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: jidai interpret [flags] <date>\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Date layouts:
  default  DD-MM-YYYY, DD-MM-YY or DD-MM (current year)
  chat     DD/MM/YY or DD/MM (current year)
  news     YYYY-MM-DD

Examples:
  jidai interpret 05-03-2024
  jidai interpret --layout news --query budget 2024-03-05
  jidai interpret --output json 15/08 --layout chat
  jidai interpret --server http://localhost:5000 05-03-2024
`)
}

func runInterpret() {
	fs := flag.NewFlagSet("interpret", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	query := fs.String("query", "", "optional search terms narrowing the date search")
	outputFormat := fs.String("output", "text", "output format: text or json")
	layout := fs.String("layout", "default", "date layout: default, chat or news")
	serverURL := fs.String("server", "", "ask a running jidai server instead of interpreting locally")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() { printInterpretUsage(fs) }
	_ = fs.Parse(interpretArgsReorder(os.Args[2:]))

	if fs.NArg() != 1 {
		printInterpretUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	resolver, err := cli.ResolverForLayout(*layout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	date, err := resolver.Resolve(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid date format. Please provide the date in %s format.\n", resolver.Formats())
		os.Exit(1)
	}
	q := strings.TrimSpace(*query)

	var events []models.InterpretedEvent
	if *serverURL != "" {
		events, err = interpretViaHTTP(*serverURL, date, q)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Interpret failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := newLogger(cfg, cfg.Debug || *debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		components, err := initializeComponents(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if components.Watcher != nil {
			// Start syncs existing archive files before returning.
			if err := components.Watcher.Start(ctx); err != nil {
				logger.Fatal("Failed to read archive", zap.Error(err))
			}
		}
		events = components.Pipeline.InterpretNews(ctx, date, q)
	}

	result := &cli.Result{Date: date.String(), Query: q, Events: events}
	if err := cli.WriteEvents(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func interpretViaHTTP(serverURL string, date models.DateQuery, query string) ([]models.InterpretedEvent, error) {
	body, err := json.Marshal(map[string]string{"date": date.String(), "query": query})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/api/v1/interpret", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out struct {
		Events []models.InterpretedEvent `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Events, nil
}

// Components holds initialized services.
type Components struct {
	Archive  *archive.Archive
	Watcher  *watcher.Watcher
	Pool     *generate.Pool
	Pipeline *pipeline.Interpreter
}

// archiveForServer avoids handing the server a typed nil.
func (c *Components) archiveForServer() server.Archive {
	if c.Archive == nil {
		return nil
	}
	return c.Archive
}

func (c *Components) Close() {
	if c.Watcher != nil {
		c.Watcher.Stop()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
	if c.Archive != nil {
		_ = c.Archive.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	fetcher := extract.NewFetcher(extract.FetcherConfig{
		UserAgent:     cfg.Fetch.UserAgent,
		Timeout:       cfg.Fetch.Timeout,
		MaxBodyBytes:  cfg.Fetch.MaxBodyMB << 20,
		RespectRobots: cfg.Fetch.RespectRobots,
	}, nil, logger)
	extractor := extract.NewExtractor(fetcher, extract.WithLogger(logger))

	if cfg.Search.APIKey == "" || cfg.Search.EngineID == "" {
		logger.Warn("search credentials missing; web search disabled",
			zap.String("api_key_env", config.EnvSearchAPIKey),
			zap.String("engine_id_env", config.EnvSearchEngineID))
	}
	locators := []source.Locator{
		source.NewCSELocator(source.CSEConfig{
			Endpoint:          cfg.Search.Endpoint,
			APIKey:            cfg.Search.APIKey,
			EngineID:          cfg.Search.EngineID,
			ResultsPerPage:    cfg.Search.ResultsPerPage,
			RequestsPerSecond: cfg.Search.RequestsPerSecond,
		}, &http.Client{Timeout: cfg.Search.Timeout}, logger),
	}
	if len(cfg.Feeds.URLs) > 0 {
		locators = append(locators, source.NewFeedLocator(cfg.Feeds.URLs, nil, cfg.Fetch.UserAgent, cfg.Feeds.Timeout, logger))
	}

	c := &Components{}
	if len(cfg.Archive.Directories) > 0 {
		arch, err := archive.New(cfg.Archive.Directories, extractor, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize archive: %w", err)
		}
		c.Archive = arch
		c.Watcher = watcher.New(cfg.Archive.Directories, cfg.Archive.Extensions, cfg.Archive.RecursiveOrDefault(), arch,
			watcher.WithLogger(logger))
		locators = append(locators, source.NewArchiveLocator(arch))
	}

	backend, err := generate.NewBackend(cfg.Generator)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}
	logger.Info("generator initialized",
		zap.String("backend", backend.Name()),
		zap.String("model", cfg.Generator.Model))
	gen := generate.NewGenerator(backend, generate.NewEncoder(cfg.Generator.MaxInputTokens),
		generate.WithTimeout(cfg.Generator.Timeout),
		generate.WithLogger(logger))
	c.Pool = generate.NewPool(gen, cfg.Generator.Workers, cfg.Generator.QueueSize, logger)

	c.Pipeline = pipeline.New(
		source.NewMulti(cfg.Pipeline.MaxDocuments, logger, locators...),
		extractor,
		c.Pool,
		pipeline.WithMaxDocuments(cfg.Pipeline.MaxDocuments),
		pipeline.WithLogger(logger),
	)
	return c, nil
}

func printUsage() {
	fmt.Println(`jidai - Current-affairs interpreter

Usage:
  jidai serve [flags]             Start the web server and Discord bot
  jidai interpret [flags] <date>  Interpret the news for a date
  jidai version                   Show version
  jidai help                      Show this help

Serve Flags:
  --config string    Config file path (default: /usr/local/etc/jidai/config.yaml)
  --debug            Enable debug logging
  --no-bot           Do not start the Discord bot
  --no-web           Do not start the web server

Interpret Flags:
  --config string    Config file path
  --query string     Search terms narrowing the date search
  --layout string    Date layout: default, chat or news (default: default)
  --output string    Output format: text or json (default: text)
  --server string    Ask a running jidai server (e.g. http://localhost:5000)

Environment:
  BOT_TOKEN          Discord bot token (enables the bot)
  SEARCH_API_KEY     Custom Search API key
  SEARCH_ENGINE_ID   Custom Search engine ID
  OPENAI_API_KEY     API key for the openai generator backend
  OLLAMA_HOST        Ollama host for the ollama generator backend

Examples:
  jidai serve
  jidai interpret 05-03-2024
  jidai interpret --layout news --query budget 2024-03-05
  jidai interpret --output json 05-03`)
}
