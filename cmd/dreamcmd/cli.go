package main

import (
	"flag"
	"io"
	"strings"
	"time"

	"github.com/LuisArmando-TestCoder/dreamcmd/internal/config"
)

// cliOptions holds flags that are not part of the persisted configuration.
type cliOptions struct {
	Intent  string
	History int
	Help    bool
	Version bool
}

// parseFlags registers the flags on fs with defaults taken from cfg, parses
// args and writes the overrides back into cfg.
func parseFlags(fs *flag.FlagSet, args []string, cfg *config.Config) (cliOptions, error) {
	var opts cliOptions

	provider := fs.String("provider", cfg.Provider, "model provider: openai or gemini")
	model := fs.String("model", cfg.Model, "model name (default depends on the provider)")
	baseURL := fs.String("base-url", cfg.BaseURL, "override the provider API base URL")
	maxAttempts := fs.Int("max-attempts", cfg.MaxAttempts, "give up after this many failed commands (0 = never)")
	execMode := fs.String("exec-mode", cfg.ExecMode, "how commands run: shell, direct or builtin")
	timeout := fs.Duration("timeout", cfg.CommandTimeout, "kill each command after this long (0 = no limit)")
	copyCmd := fs.Bool("copy", cfg.Copy, "copy the working command to the clipboard")
	noHistory := fs.Bool("no-history", !cfg.History, "do not record attempts in the history journal")
	fs.IntVar(&opts.History, "history", 0, "print the last N recorded attempts and exit")
	fs.BoolVar(&opts.Help, "h", false, "display help information")
	fs.BoolVar(&opts.Version, "ver", false, "display build version")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	cfg.Provider = *provider
	cfg.Model = strings.TrimSpace(*model)
	cfg.BaseURL = strings.TrimSpace(*baseURL)
	cfg.MaxAttempts = *maxAttempts
	cfg.ExecMode = *execMode
	cfg.CommandTimeout = *timeout
	cfg.Copy = *copyCmd
	cfg.History = !*noHistory
	opts.Intent = strings.TrimSpace(strings.Join(fs.Args(), " "))
	return opts, nil
}

func printHelp(w io.Writer, fs *flag.FlagSet) {
	io.WriteString(w, helpText)
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// durationOrNone formats d for log fields.
func durationOrNone(d time.Duration) string {
	if d <= 0 {
		return "none"
	}
	return d.String()
}
