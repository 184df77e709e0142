// Lifeplan is a life-planning assistant server.
//
// Users chat with a model-backed assistant that manages their meals,
// tasks, workouts, reminders, and calendar time blocks. The server
// exposes a chat endpoint, REST access to all records, an iCalendar
// feed, and a WebSocket change feed. Configuration is loaded from a
// single YAML file discovered automatically (see
// [config.DefaultSearchPaths]).
//
// Usage:
//
//	lifeplan serve         Start the API server
//	lifeplan init [dir]    Write a starter config file
//	lifeplan version       Print version and build information
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/lifeplan-ai/lifeplan/internal/actions"
	"github.com/lifeplan-ai/lifeplan/internal/agent"
	"github.com/lifeplan-ai/lifeplan/internal/api"
	"github.com/lifeplan-ai/lifeplan/internal/buildinfo"
	"github.com/lifeplan-ai/lifeplan/internal/config"
	"github.com/lifeplan-ai/lifeplan/internal/events"
	"github.com/lifeplan-ai/lifeplan/internal/llm"
	"github.com/lifeplan-ai/lifeplan/internal/planner"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for database/sql
)

// defaultSystemPrompt seeds conversations when the config file does not
// provide one.
const defaultSystemPrompt = `You are a life-planning assistant. You help the user plan meals,
manage tasks, schedule workouts, set reminders, and block out time on
their calendar. Use the provided functions to create, list, update, and
delete records; never claim to have changed something without calling
the matching function. Keep answers short and practical.`

// main constructs the OS-level environment (context, stdio, argv) and
// delegates immediately to [run], keeping os.Exit and os.Args out of
// the application logic so the full lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the lifeplan command. Arguments are
// parsed by hand rather than with the flag package: the argument
// surface is small, and the flag package's global state interferes with
// calling run concurrently from tests.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++ // skip the value
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.RuntimeInfo()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Lifeplan - Life-Planning Assistant Server")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: lifeplan [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Start the API server")
	fmt.Fprintln(w, "  init [dir]   Write a starter config file (default: .)")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./lifeplan.yaml, ~/.config/lifeplan/config.yaml, /etc/lifeplan/config.yaml")
	return nil
}

// starterConfig is written by "lifeplan init".
const starterConfig = `# lifeplan configuration
listen:
  port: 8080

openai:
  # Expanded from the environment at load time.
  api_key: ${OPENAI_API_KEY}
  model: gpt-4o-mini

agent:
  max_iterations: 10

data_dir: ./data
log_level: info
`

// runInit writes a starter config file into dir, refusing to overwrite
// an existing one.
func runInit(w io.Writer, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, "lifeplan.yaml")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(w, "Wrote %s\n", path)
	return nil
}

// runServe is the primary operating mode: load config, open the record
// store, wire the action registry and orchestration loop, start the API
// server, and block until a shutdown signal arrives.
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	logger := newLogger(stdout, slog.LevelInfo)
	logger.Info("starting lifeplan",
		"version", buildinfo.Version, "commit", buildinfo.GitCommit, "built", buildinfo.BuildTime)

	cfgPath, err := config.FindConfig(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	// Reconfigure the logger now that the desired level is known.
	if cfg.LogLevel != "" {
		level, err := config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = newLogger(stdout, level)
	}
	logger.Info("config loaded", "path", cfgPath, "port", cfg.Listen.Port, "model", cfg.OpenAI.Model)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory %s: %w", cfg.DataDir, err)
	}

	// Change feed. The store and the loop publish into it; the
	// WebSocket handler subscribes.
	bus := events.New()

	dbPath := filepath.Join(cfg.DataDir, "lifeplan.db")
	store, err := planner.Open(dbPath, bus, logger)
	if err != nil {
		return fmt.Errorf("open record store %s: %w", dbPath, err)
	}
	defer store.Close()
	logger.Info("record store opened", "path", dbPath)

	services := planner.NewServices(store)
	registry := actions.NewRegistry(services, logger)
	logger.Info("action catalog registered", "actions", len(registry.Names()))

	// Without a credential the server still serves records and the
	// calendar feed; only chat is unavailable.
	var client llm.Client
	if cfg.OpenAI.APIKey != "" {
		client = llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, logger)
	} else {
		logger.Warn("no model credential configured, chat endpoint disabled")
	}

	systemPrompt := cfg.Agent.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	loop := agent.New(client, registry, bus, logger, agent.Config{
		MaxIterations:     cfg.Agent.MaxIterations,
		SystemPrompt:      systemPrompt,
		FallbackMessage:   cfg.Agent.FallbackMessage,
		TruncationMessage: cfg.Agent.TruncationMessage,
	})

	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, loop, services, bus, client != nil, logger)

	// SIGINT/SIGTERM cancellation flows through the same ctx used by
	// all components.
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		_ = server.Shutdown(context.Background())
	}()

	if err := server.Start(ctx); err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("lifeplan stopped")
	return nil
}

// newLogger creates a structured text logger writing to w.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
