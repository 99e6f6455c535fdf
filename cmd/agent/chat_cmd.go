package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/h9-tec/AI-agent-explained/pkg/chats/message"
	"github.com/h9-tec/AI-agent-explained/pkg/engine"
)

func chatCmd(flags *globalFlags) *cobra.Command {
	var (
		window int
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to a stateful assistant that remembers the conversation",
		Long: `Start a line-oriented chat session. The assistant sees the system prompt
plus the most recent --window messages.

Commands inside the session:
  reset    forget the conversation
  history  show the full conversation
  quit     leave (also: exit, Ctrl-D)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if window >= 0 {
				cfg.Agent.Window = window
			}

			logger, err := newLogger(os.Stderr, cfg.LogLevel)
			if err != nil {
				return err
			}

			eng, err := engine.New(cmd.Context(), cfg, engine.WithLogger(logger))
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			return chatLoop(cmd.Context(), eng.NewSession(), cmd.InOrStdin(), cmd.OutOrStdout(), raw)
		},
	}

	cmd.Flags().IntVar(&window, "window", -1, "conversation window size (default from config)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print replies without markdown rendering")

	return cmd
}

// chatSession is the part of engine.Session the REPL uses.
type chatSession interface {
	Send(ctx context.Context, text string) (string, error)
	Reset() error
	History() []message.Message
}

// chatLoop reads lines from in until EOF or quit and answers each one.
// Backend errors are printed and the loop continues.
func chatLoop(ctx context.Context, s chatSession, in io.Reader, out io.Writer, raw bool) error {
	fmt.Fprintln(out, dimStyle.Render("Type 'reset', 'history' or 'quit'."))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, userStyle.Render("You > "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "reset":
			if err := s.Reset(); err != nil {
				fmt.Fprintln(out, errorStyle.Render(err.Error()))
				continue
			}
			fmt.Fprintln(out, dimStyle.Render("Memory has been reset."))
			continue
		case "history":
			fmt.Fprintln(out, formatHistory(s.History()))
			continue
		}

		reply, err := s.Send(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(out, errorStyle.Render("error: ")+err.Error())
			continue
		}

		if raw {
			fmt.Fprintln(out, answerStyle.Render("Assistant > ")+reply)
			continue
		}
		fmt.Fprintln(out, answerStyle.Render("Assistant >"))
		fmt.Fprintln(out, answerBlockStyle.Render(renderMarkdown(reply)))
	}
}
