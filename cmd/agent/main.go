// Command agent runs tool-using LLM agents against an OpenAI-compatible API
// or a local llama.cpp server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/h9-tec/AI-agent-explained/pkg/engine"
	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter"
)

var version = "0.1.0"

// defaultConfigPath is read when --config is not given and the file exists.
const defaultConfigPath = "agent.yaml"

type globalFlags struct {
	configPath string
	envFile    string
	logLevel   string
	verbose    bool
	quiet      bool
}

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := rootCmd().ExecuteContext(ctx)
	if err == nil {
		return
	}

	code := 1
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
	}

	fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
	var ce *modeladapter.ConfigError
	if errors.As(err, &ce) && ce.Hint != "" {
		fmt.Fprintln(os.Stderr, dimStyle.Render("hint: "+ce.Hint))
	}

	cancel()
	os.Exit(code)
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "agent",
		Short:         "Run tool-using LLM agents from the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadDotEnv(flags.envFile)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to YAML configuration (default: "+defaultConfigPath+" if present)")
	pf.StringVar(&flags.envFile, "env", ".env", "path to .env file (ignored if missing)")
	pf.StringVar(&flags.logLevel, "log-level", "", "trace, debug, info, warn or error (overrides LOG_LEVEL)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "print every iteration, tool call and result")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "print only the final answer")

	cmd.AddCommand(runCmd(flags))
	cmd.AddCommand(chatCmd(flags))
	cmd.AddCommand(toolsCmd(flags))
	cmd.AddCommand(configCmd(flags))
	cmd.AddCommand(mcpCmd(flags))

	return cmd
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// loadConfig resolves the effective configuration: defaults, then the YAML
// file, then the environment, then command line flags.
func loadConfig(flags *globalFlags) (engine.Config, error) {
	path := flags.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	cfg := engine.DefaultConfig()
	if path != "" {
		var err error
		cfg, err = engine.LoadConfig(path)
		if err != nil {
			return engine.Config{}, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return engine.Config{}, err
	}

	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.verbose {
		cfg.Verbose = true
	}
	if flags.quiet {
		cfg.Verbose = false
	}

	return cfg, nil
}

// newLogger builds the process logger. Logs always go to w (stderr) so they
// never mix with answers or MCP traffic on stdout.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := engine.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: engine.ReplaceLogLevelNames,
	})
	return slog.New(h), nil
}

// offlineCompleter stands in for the backend in commands that only need the
// toolbox.
type offlineCompleter struct{}

func (offlineCompleter) Complete(context.Context, modeladapter.Request) (modeladapter.Completion, error) {
	return modeladapter.Completion{}, errors.New("no backend configured for this command")
}

// openEngine loads the configuration and builds an engine. With offline set
// the backend is not constructed or validated.
func openEngine(ctx context.Context, flags *globalFlags, offline bool) (*engine.Engine, engine.Config, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, engine.Config{}, err
	}

	logger, err := newLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return nil, engine.Config{}, err
	}
	slog.SetDefault(logger)

	opts := []engine.Option{engine.WithLogger(logger)}
	if offline {
		opts = append(opts, engine.WithCompleter(offlineCompleter{}))
	}

	eng, err := engine.New(ctx, cfg, opts...)
	if err != nil {
		return nil, engine.Config{}, err
	}

	return eng, cfg, nil
}
