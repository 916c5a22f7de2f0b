package adwizard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aretw0/adwizard/pkg/domain"
)

// Runner drives a Wizard session as a line-oriented chat over provided IO.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer

	// WaitTimeout bounds how long the runner waits for a generation run.
	WaitTimeout time.Duration
}

// ContentRenderer transforms a prompt before it is written to Output.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// Run loops until EOF, "exit" or "quit". Each line is passed to Wizard.Reply.
func (r *Runner) Run(ctx context.Context, w *Wizard, sessionID string) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lines := bufio.NewReader(r.Input)

	turn, err := w.Create(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	if !r.Headless {
		fmt.Fprintf(r.Output, "--- adwizard chat (session %s) ---\n", turn.Session.ID)
	}
	sessionID = turn.Session.ID

	for {
		if turn.Session.CanvasState == domain.StateGenerating {
			r.print(turn.Prompt)
			turn, err = r.wait(ctx, w, sessionID)
			if err != nil {
				return err
			}
		}
		for _, n := range turn.Notifications {
			fmt.Fprintf(r.Output, "[%s] %s\n", n.Title, n.Body)
		}
		r.print(turn.Prompt)

		fmt.Fprint(r.Output, "> ")
		text, err := lines.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		text = strings.TrimSpace(text)
		switch text {
		case "exit", "quit":
			fmt.Fprintln(r.Output, "Bye!")
			return nil
		case "restart":
			turn, err = w.Reset(ctx, sessionID)
		default:
			turn, err = w.Reply(ctx, sessionID, text)
		}
		if err != nil {
			fmt.Fprintf(r.Output, "%s\n", domain.UserMessage(err))
			if turn, err = w.Get(ctx, sessionID); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) wait(ctx context.Context, w *Wizard, sessionID string) (*Turn, error) {
	timeout := r.WaitTimeout
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout + persistTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return w.Wait(ctx, sessionID)
}

func (r *Runner) print(p *domain.Prompt) {
	if p == nil {
		return
	}
	var b strings.Builder
	b.WriteString(p.Message)
	if p.Question != nil {
		b.WriteString("\n")
		for i, opt := range p.Question.Options {
			fmt.Fprintf(&b, "\n%d. **%s**", i+1, opt.Label)
			if opt.Description != "" {
				fmt.Fprintf(&b, " - %s", opt.Description)
			}
		}
	}
	out := b.String()
	if r.Renderer != nil {
		if rendered, err := r.Renderer(out); err == nil {
			out = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(out))
}
