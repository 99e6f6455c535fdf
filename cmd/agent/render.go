package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"

	"github.com/h9-tec/AI-agent-explained/pkg/agents"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/message"
	"github.com/h9-tec/AI-agent-explained/pkg/chats/role"
	"github.com/h9-tec/AI-agent-explained/pkg/engine"
	"github.com/h9-tec/AI-agent-explained/pkg/modeladapter/usage"
	"github.com/h9-tec/AI-agent-explained/pkg/tools/textcall"
)

const (
	renderWidth  = 100
	previewWidth = 72
)

var (
	mdOnce     sync.Once
	mdRenderer *glamour.TermRenderer
)

// renderMarkdown converts markdown text to terminal-formatted output. The
// text is returned unchanged if the renderer cannot be built.
func renderMarkdown(text string) string {
	mdOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(renderWidth),
		)
		if err == nil {
			mdRenderer = r
		}
	})

	if mdRenderer == nil {
		return text
	}
	out, err := mdRenderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// preview flattens s to one line no wider than width terminal cells.
func preview(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "...")
}

// formatEvent renders one engine event as a trace line, or "" when the event
// is not shown.
func formatEvent(e engine.Event) string {
	ae, _ := e.Data.(agents.Event)

	switch e.Kind {
	case engine.EventRunStarted:
		return dimStyle.Render(fmt.Sprintf("[%s] run %s started", e.Agent, shortID(e.RunID)))
	case engine.EventIteration:
		return iterationStyle.Render(fmt.Sprintf("--- Iteration %d ---", ae.Iteration))
	case engine.EventCompletion:
		if strings.TrimSpace(ae.Text) == "" {
			return ""
		}
		return thoughtStyle.Render(strings.TrimSpace(ae.Text))
	case engine.EventToolCallStart:
		if ae.ToolCall == nil {
			return ""
		}
		call := textcall.Format("", ae.ToolCall.Name, ae.ToolCall.Arguments)
		return toolNameStyle.Render("Calling tool") + " " + strings.TrimPrefix(call, ": ")
	case engine.EventToolCallEnd:
		if ae.Result == nil {
			return ""
		}
		line := treeCorner + preview(ae.Result.Content, previewWidth)
		if ae.Result.IsError {
			return errorStyle.Render(line)
		}
		return resultStyle.Render(line)
	case engine.EventRunFinished:
		return dimStyle.Render(fmt.Sprintf("[%s] run finished: %s after %d iteration(s)", e.Agent, ae.Outcome, ae.Iteration))
	}

	return ""
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// traceEvents prints formatted events from sub to w until the subscription
// is closed. The returned channel is closed when printing stops.
func traceEvents(w io.Writer, sub *engine.Subscription) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range sub.C {
			if line := formatEvent(e); line != "" {
				fmt.Fprintln(w, line)
			}
		}
	}()
	return done
}

// formatHistory renders a conversation as numbered one-line previews.
func formatHistory(msgs []message.Message) string {
	if len(msgs) == 0 {
		return dimStyle.Render("(empty)")
	}

	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}

		var label string
		switch m.Role {
		case role.System:
			label = systemStyle.Render("system")
		case role.User:
			label = userStyle.Render("user")
		case role.Assistant:
			label = answerStyle.Render("assistant")
		default:
			label = resultStyle.Render(m.Role.String())
		}

		fmt.Fprintf(&b, "%3d. %s %s", i+1, label, preview(m.TextContent(), previewWidth))
	}
	return b.String()
}

// formatStats renders the one-line run summary. Token totals are shown only
// when the backend reported them.
func formatStats(res agents.Result, tokens usage.TokenCount, tracked bool) string {
	line := fmt.Sprintf("%s in %d iteration(s), %d tool call(s), %s",
		res.Outcome, res.Stats.Iterations, res.Stats.ToolCalls, res.Stats.Elapsed.Round(time.Millisecond))
	if tracked {
		line += fmt.Sprintf(", %d tokens (%d in, %d out)", tokens.Total(), tokens.InputTokens, tokens.OutputTokens)
	}
	return line
}

// formatAnswer renders a final answer, as markdown unless raw is set.
func formatAnswer(text string, raw bool) string {
	if raw {
		return text
	}
	return answerStyle.Render("Answer") + "\n" + answerBlockStyle.Render(renderMarkdown(text))
}
