package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/LuisArmando-TestCoder/dreamcmd/internal/config"
	"github.com/LuisArmando-TestCoder/dreamcmd/internal/core"
	"github.com/LuisArmando-TestCoder/dreamcmd/internal/executor"
	"github.com/LuisArmando-TestCoder/dreamcmd/internal/history"
	"github.com/LuisArmando-TestCoder/dreamcmd/internal/llm"
	"github.com/LuisArmando-TestCoder/dreamcmd/internal/prompt"
	"github.com/LuisArmando-TestCoder/dreamcmd/internal/render"
	"github.com/LuisArmando-TestCoder/dreamcmd/internal/repair"
	"github.com/LuisArmando-TestCoder/dreamcmd/internal/shell"
	"github.com/atotto/clipboard"
	"go.uber.org/zap"
)

var BUILD_VERSION = "dev"

const helpText = `dreamcmd - describe a command, get one that works

USAGE:
  dreamcmd [options] [what you want to do...]

  Without arguments dreamcmd asks for your dream command. The model writes a
  shell command, dreamcmd runs it, and any error output is sent back to the
  model until the command runs cleanly.

CONFIGURATION:
  API_KEY is read from .env, ~/.dreamcmd/.env or the environment
  (OPENAI_API_KEY and GEMINI_API_KEY also work). Defaults can be set in
  ~/.dreamcmd/config.yaml.

OPTIONS:
`

const (
	exitOK          = 0
	exitFailure     = 1
	exitExhausted   = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := config.LoadDotEnv(".env", filepath.Join(core.DataDir(), ".env")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	cfg, err := config.Load(core.ConfigFile(), os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	opts, err := parseFlags(flag.CommandLine, os.Args[1:], &cfg)
	if err != nil {
		return exitFailure
	}
	// Flags may switch provider, so the provider-specific key is resolved again.
	cfg.APIKey = config.ResolveAPIKey(cfg.Provider, os.Getenv)

	if opts.Version {
		fmt.Println(BUILD_VERSION)
		return exitOK
	}
	if opts.Help {
		printHelp(os.Stdout, flag.CommandLine)
		return exitOK
	}

	stdoutTTY := prompt.IsTerminal(os.Stdout)
	console := render.NewConsole(render.Options{
		Out:      os.Stdout,
		Err:      os.Stderr,
		Markdown: stdoutTTY,
		Spinner:  prompt.IsTerminal(os.Stderr),
		Width:    80,
	})
	defer console.Close()

	logger, err := initializeLogger(cfg)
	if err != nil {
		console.Error(fmt.Errorf("failed to initialize logger: %w", err))
		return exitFailure
	}
	defer logger.Sync()

	logger.Info("-------- new dreamcmd session --------", zap.Any("args", os.Args))

	if opts.History > 0 {
		return printHistory(opts.History, console, logger)
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		console.Error(err)
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = dream(ctx, cfg, opts, console, logger)
	code := exitCode(err)
	if err != nil {
		logger.Error("run ended with error", zap.Error(err), zap.Int("exitCode", code))
		if code != exitInterrupted {
			console.Error(err)
		}
	}
	return code
}

func dream(ctx context.Context, cfg config.Config, opts cliOptions, console *render.Console, logger *zap.Logger) error {
	identity := shell.NewDetector(logger).Detect(ctx)
	if !identity.Known() {
		logger.Warn("could not detect the shell, using the fallback interpreter")
	}
	env := llm.Environment{OS: shell.CurrentOS(), Shell: identity}
	logger.Info("environment",
		zap.String("os", env.OS),
		zap.String("shell", string(identity)),
		zap.String("provider", cfg.Provider),
		zap.String("execMode", cfg.ExecMode),
		zap.String("commandTimeout", durationOrNone(cfg.CommandTimeout)),
	)

	client, err := llm.New(ctx, cfg.Provider, env, llm.Options{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.RequestTimeout,
		Logger:  logger.Named("llm"),
	})
	if err != nil {
		return err
	}

	mode, err := executor.ParseMode(cfg.ExecMode)
	if err != nil {
		return err
	}
	exe := executor.New(executor.Options{
		Mode:    mode,
		Shell:   identity,
		Timeout: cfg.CommandTimeout,
		Stdin:   os.Stdin,
		Logger:  logger.Named("executor"),
	})

	intent := opts.Intent
	if intent == "" {
		intent, err = prompt.ReadIntent(ctx, os.Stdin, os.Stdout, prompt.IsTerminal(os.Stdin) && prompt.IsTerminal(os.Stdout))
		if err != nil {
			return err
		}
	}

	observers := []repair.Observer{console}
	if cfg.History {
		journal, err := history.Open(core.HistoryFile(), core.SchemaVersionFile())
		if err != nil {
			logger.Warn("history journal unavailable", zap.Error(err))
		} else {
			defer journal.Close()
			observers = append(observers, history.NewRecorder(journal, intent, logger.Named("history")))
		}
	}

	loop := repair.New(repair.Options{
		Client:      client,
		Executor:    exe,
		OS:          env.OS,
		MaxAttempts: cfg.MaxAttempts,
		Observers:   observers,
		Logger:      logger.Named("repair"),
	})

	outcome, err := loop.Run(ctx, intent)
	if err != nil {
		return err
	}

	if cfg.Copy {
		if err := clipboard.WriteAll(outcome.Command); err != nil {
			logger.Warn("failed to copy command", zap.Error(err))
		} else {
			console.Info("Command copied to clipboard")
		}
	}
	return nil
}

func printHistory(limit int, console *render.Console, logger *zap.Logger) int {
	journal, err := history.Open(core.HistoryFile(), core.SchemaVersionFile())
	if err != nil {
		logger.Error("failed to open history", zap.Error(err))
		console.Error(err)
		return exitFailure
	}
	defer journal.Close()

	entries, err := journal.Recent(limit)
	if err != nil {
		logger.Error("failed to read history", zap.Error(err))
		console.Error(err)
		return exitFailure
	}
	history.Print(os.Stdout, entries, time.Now())
	return exitOK
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled), errors.Is(err, prompt.ErrCancelled):
		return exitInterrupted
	case errors.Is(err, repair.ErrAttemptsExhausted):
		return exitExhausted
	}
	return exitFailure
}

func initializeLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		level = zap.InfoLevel
	}
	if BUILD_VERSION == "dev" {
		level = zap.DebugLevel
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = zap.NewAtomicLevelAt(level)
	loggerConfig.OutputPaths = []string{
		core.LogFile(),
	}

	return loggerConfig.Build()
}
