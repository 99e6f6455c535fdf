package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/h9-tec/AI-agent-explained/pkg/agents"
	"github.com/h9-tec/AI-agent-explained/pkg/engine"
)

type runFlags struct {
	mode          string
	maxIterations int
	window        int
	raw           bool
}

func runCmd(flags *globalFlags) *cobra.Command {
	rf := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <task>",
		Short: "Run an agent on a single task",
		Long: `Run an agent on a single task and print its final answer.

Modes:
  tools  native tool calling (TOOL_CALL emulation on llama.cpp)
  react  Thought / Action / Observation / Final Answer text protocol

Examples:
  agent run "What's the weather in London and the latest tech news?"
  agent run --mode react "When was the first iPhone released?"
  agent run -v --max-iterations 3 "compute (3 + 4) * 2"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, flags, rf, strings.Join(args, " "))
		},
	}

	f := cmd.Flags()
	f.StringVarP(&rf.mode, "mode", "m", "", "agent mode: tools or react (default from config)")
	f.IntVar(&rf.maxIterations, "max-iterations", 0, "iteration cap (default from config)")
	f.IntVar(&rf.window, "window", -1, "conversation window size (default from config)")
	f.BoolVar(&rf.raw, "raw", false, "print the answer without markdown rendering")

	return cmd
}

func runTask(cmd *cobra.Command, flags *globalFlags, rf *runFlags, task string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	applyRunFlags(&cfg, rf)

	logger, err := newLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	eng, err := engine.New(ctx, cfg, engine.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	agent, err := eng.NewAgent(cfg.Agent.Mode)
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	stopTrace := func() {}
	if cfg.Verbose {
		sub := eng.Events().Subscribe(256)
		traced := traceEvents(errOut, sub)
		stopTrace = func() {
			eng.Events().Unsubscribe(sub)
			<-traced
		}
	}

	res, err := agent.Run(ctx, task)
	stopTrace()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, formatAnswer(res.Text, rf.raw || flags.quiet))

	if !flags.quiet {
		tokens, tracked := eng.Usage()
		fmt.Fprintln(errOut, dimStyle.Render(formatStats(res, tokens, tracked)))
	}

	if res.Outcome != agents.OutcomeDone {
		return &exitError{code: 2, msg: string(res.Outcome)}
	}

	return nil
}

func applyRunFlags(cfg *engine.Config, rf *runFlags) {
	if rf.mode != "" {
		cfg.Agent.Mode = rf.mode
	}
	if rf.maxIterations > 0 {
		cfg.Agent.MaxIterations = rf.maxIterations
	}
	if rf.window >= 0 {
		cfg.Agent.Window = rf.window
	}
}
